package viewport

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoExtent is returned when no finite value exists for an axis.
var ErrNoExtent = errors.New("viewport: no finite extent")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// extentResolver computes the full range of an axis from the best source.
type extentResolver struct {
	host Host
	cfg  Config
}

// Resolve returns the full extent of axis. Sources are tried in order:
// configured override, category values (x only), series data, and finally
// the host's displayed scale. The y extent always includes zero, so a flat
// non-zero signal still resolves.
func (r extentResolver) Resolve(axis Axis) (Extent, error) {
	if o := r.cfg.override(axis); o != nil {
		if ext, ok := accept(*o, axis); ok {
			return ext, nil
		}
	}
	if axis == AxisX {
		if ext, ok := spanOf(categoryNumbers(r.host.Categories())); ok {
			if ext, ok = accept(ext, axis); ok {
				return ext, nil
			}
		}
	}
	if ext, ok := spanOf(AxisValues(r.host.Series(), axis)); ok {
		if ext, ok = accept(ext, axis); ok {
			return ext, nil
		}
	}
	if ext, ok := r.host.ScaleExtent(axis); ok {
		if ext, ok = accept(ext, axis); ok {
			return ext, nil
		}
	}
	return Extent{}, ErrNoExtent
}

func accept(ext Extent, axis Axis) (Extent, bool) {
	if !isFinite(ext.Min) || !isFinite(ext.Max) {
		return Extent{}, false
	}
	if ext.Min > ext.Max {
		ext.Min, ext.Max = ext.Max, ext.Min
	}
	if axis == AxisY {
		ext.Min = math.Min(ext.Min, 0)
		ext.Max = math.Max(ext.Max, 0)
	}
	return ext, ext.valid()
}

// AxisValues extracts every finite coordinate on axis from series. Pairs
// contribute their coordinate on that axis; scalars contribute to y only.
func AxisValues(series []Series, axis Axis) []float64 {
	var out []float64
	for _, s := range series {
		for _, d := range s.Data {
			var v Value
			switch {
			case d.Pair && axis == AxisX:
				v = d.X
			case axis == AxisY:
				v = d.Y
			default:
				continue
			}
			if n, ok := Numeric(v, axis); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

func categoryNumbers(values []Value) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := Numeric(v, AxisX); ok {
			out = append(out, n)
		}
	}
	return out
}

// Numeric converts a tagged value to a finite number. Text parses as a
// number first; on the x axis it then falls back to a timestamp in
// milliseconds since the Unix epoch.
func Numeric(v Value, axis Axis) (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, isFinite(v.Num)
	case ValueText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, isFinite(n)
		}
		if axis != AxisX {
			return 0, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return float64(ts.UnixMilli()), true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func spanOf(values []float64) (Extent, bool) {
	if len(values) == 0 {
		return Extent{}, false
	}
	ext := Extent{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if v < ext.Min {
			ext.Min = v
		}
		if v > ext.Max {
			ext.Max = v
		}
	}
	return ext, true
}
