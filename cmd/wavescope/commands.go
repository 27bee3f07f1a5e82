package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/wavescope/internal/browser"
	"github.com/verte-zerg/wavescope/internal/config"
	"github.com/verte-zerg/wavescope/internal/generator"
	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/samplefile"
	"github.com/verte-zerg/wavescope/internal/scope"
	"github.com/verte-zerg/wavescope/internal/stats"
	"github.com/verte-zerg/wavescope/internal/store"
	"github.com/verte-zerg/wavescope/internal/tui"
	"github.com/verte-zerg/wavescope/internal/viewport"
)

const (
	defaultTrendWindow = 5
	defaultSimCount    = 10
	defaultSimDevice   = "sim-1"
	trendHeight        = 10
)

var (
	capturesDevice  string
	capturesChannel string
	capturesFault   string
	capturesSince   string
	capturesLast    int
	capturesWindow  int
	capturesBrowse  bool

	importDevice string

	simCount   int
	simFault   string
	simChannel string
	simDevice  string
	simSeed    int64

	renderCapture int64
	renderWidth   int
	renderHeight  int
	renderSaved   bool
	renderColor   bool
)

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeStore := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeStore, nil
}

func newCapturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captures",
		Short: "List stored captures",
		Args:  cobra.NoArgs,
		RunE:  runCapturesCmd,
	}
	cmd.Flags().StringVar(&capturesDevice, "device", "", "device filter")
	cmd.Flags().StringVar(&capturesChannel, "channel", "", "channel filter")
	cmd.Flags().StringVar(&capturesFault, "fault", "", "fault code filter")
	cmd.Flags().StringVar(&capturesSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&capturesLast, "last", 0, "limit to last N captures")
	cmd.Flags().IntVar(&capturesWindow, "window", defaultTrendWindow, "moving average window of the trend plot")
	cmd.Flags().BoolVar(&capturesBrowse, "browse", false, "browse interactively and open the chosen capture")
	return cmd
}

func captureFilterFromFlags() (model.CaptureFilter, error) {
	filter := model.CaptureFilter{DeviceID: strings.TrimSpace(capturesDevice), Last: capturesLast}
	if capturesChannel != "" {
		ch, err := model.ParseChannel(capturesChannel)
		if err != nil {
			return filter, fmt.Errorf("--channel: %w", err)
		}
		filter.Channel = ch
	}
	if capturesFault != "" {
		fault, err := model.ParseFaultCode(capturesFault)
		if err != nil {
			return filter, fmt.Errorf("--fault: %w", err)
		}
		filter.Fault = fault
	}
	if capturesSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", capturesSince, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if capturesLast < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	return filter, nil
}

func runCapturesCmd(cmd *cobra.Command, _ []string) error {
	filter, err := captureFilterFromFlags()
	if err != nil {
		return err
	}
	if capturesWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if capturesBrowse {
		return browseCaptures(cmd, st, filter)
	}

	report, err := stats.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderCaptureTable(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTrend(out, report, capturesWindow, 0, trendHeight, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func browseCaptures(cmd *cobra.Command, st *store.Store, filter model.CaptureFilter) error {
	m := browser.NewModel(st, filter)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run capture browser: %w", err)
	}
	id, ok := m.Selected()
	if !ok {
		return nil
	}
	capture, err := st.GetCapture(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}
	logger, closeLog, err := openLogger(verbose)
	if err != nil {
		return err
	}
	defer closeLog()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	vpCfg, err := fileCfg.ApplyViewport(viewport.DefaultConfig())
	if err != nil {
		return err
	}
	return runScope(tui.Options{
		View:     model.ViewConfig{CaptureID: id, Restore: true, Color: os.Getenv("NO_COLOR") == ""},
		Viewport: vpCfg,
		Capture:  capture,
		Store:    st,
		Logger:   logger,
	})
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import capture files (" + strings.Join(samplefile.Extensions, ", ") + ")",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importDevice, "device", "", "override the device id of imported captures")
	return cmd
}

// resolveCapturePath finds name as given, then in the capture directory.
func resolveCapturePath(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if !filepath.IsAbs(name) {
		candidate := filepath.Join(config.DefaultCaptureDir(), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("capture file %q not found (also looked in %s)", name, config.DefaultCaptureDir())
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		path, err := resolveCapturePath(arg)
		if err != nil {
			return err
		}
		capture, err := samplefile.Load(path)
		if err != nil {
			return err
		}
		if importDevice != "" {
			capture.DeviceID = importDevice
		}
		id, err := st.InsertCapture(cmd.Context(), capture)
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", path, err)
		}
		if _, err := fmt.Fprintf(out, "imported %s as capture %d (%d samples, %s %s)\n",
			path, id, len(capture.Samples), capture.DeviceID, capture.Channel); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newSimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Store simulated captures",
		Args:  cobra.NoArgs,
		RunE:  runSimCmd,
	}
	cmd.Flags().IntVar(&simCount, "count", defaultSimCount, "number of captures")
	cmd.Flags().StringVar(&simFault, "fault", defaultFault, "fault code (E00-E05)")
	cmd.Flags().StringVar(&simChannel, "channel", defaultChannel, "channel (dc+, dc-, current, leakage or all)")
	cmd.Flags().StringVar(&simDevice, "device", defaultSimDevice, "device id")
	cmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}

func runSimCmd(cmd *cobra.Command, _ []string) error {
	if simCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	fault, err := model.ParseFaultCode(simFault)
	if err != nil {
		return fmt.Errorf("--fault: %w", err)
	}
	channels := model.Channels
	if !strings.EqualFold(strings.TrimSpace(simChannel), "all") {
		ch, err := model.ParseChannel(simChannel)
		if err != nil {
			return fmt.Errorf("--channel: %w", err)
		}
		channels = []model.Channel{ch}
	}
	gen := generator.New()
	if simSeed != 0 {
		gen = generator.NewSeeded(simSeed)
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	start := time.Now().Add(-time.Duration(simCount) * time.Second)
	var first, last int64
	for i := 0; i < simCount; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		for _, ch := range channels {
			id, err := st.InsertCapture(cmd.Context(), gen.Capture(simDevice, fault, ch, at))
			if err != nil {
				return fmt.Errorf("failed to store capture: %w", err)
			}
			if first == 0 {
				first = id
			}
			last = id
		}
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "stored captures %d-%d (%s %s)\n", first, last, fault, fault.Name()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a static plot of a capture",
		Args:  cobra.NoArgs,
		RunE:  runRenderCmd,
	}
	cmd.Flags().Int64Var(&renderCapture, "capture", 0, "capture id (default: latest)")
	cmd.Flags().IntVar(&renderWidth, "width", defaultStaticWidth, "plot width in cells, gutters included")
	cmd.Flags().IntVar(&renderHeight, "height", defaultStaticHeight, "plot height in rows, axis labels included")
	cmd.Flags().BoolVar(&renderSaved, "saved", true, "use the saved view of the capture")
	cmd.Flags().BoolVar(&renderColor, "color", false, "force colored output")
	return cmd
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	if renderWidth <= 0 || renderHeight <= 0 {
		return fmt.Errorf("--width and --height must be > 0")
	}
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	vpCfg, err := fileCfg.ApplyViewport(viewport.DefaultConfig())
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	capture, err := loadCapture(cmd.Context(), st, renderCapture)
	if err != nil {
		return err
	}
	return renderOnce(cmd.Context(), cmd.OutOrStdout(), st, tui.Options{
		View:     model.ViewConfig{CaptureID: capture.ID, Restore: renderSaved, Color: renderColor},
		Viewport: vpCfg,
		Capture:  capture,
	}, renderWidth, renderHeight)
}

// renderOnce writes a single frame of the capture, or of a fresh live
// snapshot, through the same windows the scope would show.
func renderOnce(ctx context.Context, w io.Writer, st *store.Store, opts tui.Options, width, height int) error {
	capture := opts.Capture
	cfg := opts.Viewport
	if opts.View.Live {
		gen := opts.Generator
		if gen == nil {
			gen = generator.New()
		}
		capture = gen.Capture("live", opts.View.Fault, opts.View.Channel, time.Now())
		if cfg.XExtent == nil {
			cfg.XExtent = &viewport.Extent{Min: 0, Max: generator.Points * generator.SampleIntervalMs}
		}
	}
	chart := scope.NewChart(scope.DefaultSlots)
	chart.SetCapture(capture)
	chart.SetSize(width, height)
	chart.SetColor(opts.View.Color)
	ctrl, err := viewport.New(chart, cfg)
	if err != nil {
		return err
	}
	if opts.View.Restore && capture.ID > 0 && st != nil {
		v, ok, err := st.GetViewState(ctx, capture.ID)
		if err != nil {
			return fmt.Errorf("failed to load saved view: %w", err)
		}
		if ok {
			chart.SetWindow(cfg.XWindowIndex, v.XStart, v.XEnd)
			chart.SetWindow(cfg.YWindowIndex, v.YStart, v.YEnd)
		}
	}
	if _, err := ctrl.Extent(viewport.AxisX); errors.Is(err, viewport.ErrNoExtent) {
		return fmt.Errorf("capture %d has nothing to plot", capture.ID)
	}
	title := fmt.Sprintf("%s %s  %s %s", capture.DeviceID, capture.Channel, capture.Fault, capture.Fault.Name())
	if capture.ID > 0 {
		title = fmt.Sprintf("Capture %d: %s", capture.ID, title)
	}
	if err := stats.WriteWindow(w, title, chart.Frame(ctrl)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
