// Package samplefile loads waveform captures from files.
package samplefile

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/wavescope/internal/model"
)

// Extensions lists the supported file extensions.
var Extensions = []string{".txt", ".csv", ".json", ".yaml", ".yml"}

// document is the structured form shared by the JSON and YAML loaders.
type document struct {
	DeviceID         string    `json:"device_id" yaml:"device_id"`
	Channel          string    `json:"channel" yaml:"channel"`
	Fault            string    `json:"fault_code" yaml:"fault_code"`
	CapturedAt       string    `json:"captured_at" yaml:"captured_at"`
	SampleIntervalMs float64   `json:"sample_interval_ms" yaml:"sample_interval_ms"`
	Samples          []float64 `json:"samples" yaml:"samples"`
	Labels           []string  `json:"labels" yaml:"labels"`
}

// Load reads a capture file, choosing the format by extension. Fields the
// file does not carry are filled from defaults (see Normalize).
func Load(path string) (model.Capture, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Capture{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only capture file.
			_ = cerr
		}
	}()

	var doc document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		doc, err = readText(file)
	case ".csv":
		doc, err = readCSV(file)
	case ".json":
		doc, err = readJSON(file)
	case ".yaml", ".yml":
		doc, err = readYAML(file)
	default:
		return model.Capture{}, fmt.Errorf("unsupported capture format %q (want one of %s)", ext, strings.Join(Extensions, ", "))
	}
	if err != nil {
		return model.Capture{}, fmt.Errorf("read %s: %w", path, err)
	}

	fallback := time.Now()
	if info, err := file.Stat(); err == nil {
		fallback = info.ModTime()
	}
	c, err := doc.capture(fallback)
	if err != nil {
		return model.Capture{}, fmt.Errorf("read %s: %w", path, err)
	}
	if c.DeviceID == "" {
		c.DeviceID = "file:" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Normalize(c)
}

func (d document) capture(fallback time.Time) (model.Capture, error) {
	c := model.Capture{
		DeviceID:         strings.TrimSpace(d.DeviceID),
		SampleIntervalMs: d.SampleIntervalMs,
		Samples:          d.Samples,
		Labels:           d.Labels,
		CapturedAt:       fallback,
	}
	if d.Channel != "" {
		ch, err := model.ParseChannel(d.Channel)
		if err != nil {
			return model.Capture{}, err
		}
		c.Channel = ch
	}
	if d.Fault != "" {
		f, err := model.ParseFaultCode(d.Fault)
		if err != nil {
			return model.Capture{}, err
		}
		c.Fault = f
	}
	if d.CapturedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(d.CapturedAt))
		if err != nil {
			return model.Capture{}, fmt.Errorf("captured_at: %w", err)
		}
		c.CapturedAt = at
	}
	return c, nil
}

// readText parses one sample per line. Lines starting with '#' are comments
// and may carry "key=value" metadata using the JSON field names.
func readText(r io.Reader) (document, error) {
	var doc document
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if err := doc.setMeta(strings.TrimSpace(strings.TrimPrefix(line, "#"))); err != nil {
				return document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return document{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		doc.Samples = append(doc.Samples, v)
	}
	if err := scanner.Err(); err != nil {
		return document{}, err
	}
	return doc, nil
}

func (d *document) setMeta(comment string) error {
	key, value, ok := strings.Cut(comment, "=")
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "device_id":
		d.DeviceID = value
	case "channel":
		d.Channel = value
	case "fault_code":
		d.Fault = value
	case "captured_at":
		d.CapturedAt = value
	case "sample_interval_ms":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("sample_interval_ms: %w", err)
		}
		d.SampleIntervalMs = v
	}
	return nil
}

// readCSV reads "value" or "label,value" rows. A first row whose value
// column is not numeric is treated as a header.
func readCSV(r io.Reader) (document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var doc document
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return document{}, err
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		valueCol := len(record) - 1
		if valueCol > 1 {
			valueCol = 1
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[valueCol]), 64)
		if err != nil {
			if row == 0 {
				continue
			}
			return document{}, fmt.Errorf("row %d: %w", row+1, err)
		}
		doc.Samples = append(doc.Samples, v)
		if valueCol == 1 {
			doc.Labels = append(doc.Labels, strings.TrimSpace(record[0]))
		}
	}
	return doc, nil
}

// readJSON accepts a capture object or a bare array of samples.
func readJSON(r io.Reader) (document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return document{}, err
	}
	var doc document
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &doc.Samples)
	} else {
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return document{}, err
	}
	return doc, nil
}

// readYAML accepts a capture mapping or a bare sequence of samples.
func readYAML(r io.Reader) (document, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return document{}, nil
		}
		return document{}, err
	}
	var doc document
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	var err error
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&doc.Samples)
	} else {
		err = root.Decode(&doc)
	}
	if err != nil {
		return document{}, err
	}
	return doc, nil
}
