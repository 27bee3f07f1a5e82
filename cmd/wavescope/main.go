// Package main provides the CLI entrypoint for wavescope.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/wavescope/internal/config"
	"github.com/verte-zerg/wavescope/internal/generator"
	"github.com/verte-zerg/wavescope/internal/model"
	"github.com/verte-zerg/wavescope/internal/store"
	"github.com/verte-zerg/wavescope/internal/tui"
	"github.com/verte-zerg/wavescope/internal/viewport"
)

const (
	defaultFault        = "E00"
	defaultChannel      = "dc+"
	defaultRefresh      = time.Second
	defaultStaticWidth  = 100
	defaultStaticHeight = 20
)

// viewFlags holds the flags shared by the root command and `view`.
type viewFlags struct {
	captureID int64
	live      bool
	fault     string
	channel   string
	refresh   string
	restore   bool
	color     bool

	zoomIn         float64
	zoomOut        float64
	panSpeed       float64
	cornerPriority string
}

var (
	dbPath     string
	configPath string
	verbose    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &viewFlags{}
	rootCmd := &cobra.Command{
		Use:           "wavescope",
		Short:         "Terminal waveform scope with mouse zoom and pan",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewCmd(cmd, flags)
		},
	}
	bindViewFlags(rootCmd, flags)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "TOML config path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to the log file")

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCapturesCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newSimCmd())
	rootCmd.AddCommand(newRenderCmd())

	return rootCmd
}

func newViewCmd() *cobra.Command {
	flags := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewCmd(cmd, flags)
		},
	}
	bindViewFlags(cmd, flags)
	return cmd
}

func bindViewFlags(cmd *cobra.Command, f *viewFlags) {
	defaults := viewport.DefaultConfig()
	cmd.Flags().Int64Var(&f.captureID, "capture", 0, "stored capture id (default: latest)")
	cmd.Flags().BoolVar(&f.live, "live", false, "show a live simulated waveform")
	cmd.Flags().StringVar(&f.fault, "fault", defaultFault, "fault code for live mode (E00-E05)")
	cmd.Flags().StringVar(&f.channel, "channel", defaultChannel, "channel for live mode (dc+, dc-, current, leakage)")
	cmd.Flags().StringVar(&f.refresh, "refresh", defaultRefresh.String(), "live refresh interval")
	cmd.Flags().BoolVar(&f.restore, "restore", false, "restore the saved view of the capture")
	cmd.Flags().BoolVar(&f.color, "color", true, "colored traces")
	cmd.Flags().Float64Var(&f.zoomIn, "zoom-in", defaults.ZoomInFactor, "wheel-up zoom factor (> 1)")
	cmd.Flags().Float64Var(&f.zoomOut, "zoom-out", defaults.ZoomOutFactor, "wheel-down zoom factor (0-1)")
	cmd.Flags().Float64Var(&f.panSpeed, "pan-speed", defaults.PanSpeed, "drag pan multiplier")
	cmd.Flags().StringVar(&f.cornerPriority, "corner-priority", defaults.CornerPriority.String(), "owner of the bottom-left corner (x, y or none)")
}

func runViewCmd(cmd *cobra.Command, f *viewFlags) error {
	logger, closeLog, err := openLogger(verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	view, err := resolveViewConfig(cmd, f, fileCfg)
	if err != nil {
		return err
	}
	vpCfg, err := viewportConfig(cmd, f, fileCfg)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	opts := tui.Options{
		View:     view,
		Viewport: vpCfg,
		Store:    st,
		Logger:   logger,
		Reload: func() (viewport.Config, error) {
			reloaded, err := config.LoadConfig(configPath)
			if err != nil {
				return viewport.Config{}, err
			}
			return viewportConfig(cmd, f, reloaded)
		},
	}
	if view.Live {
		opts.Generator = generator.New()
	} else {
		capture, err := loadCapture(cmd.Context(), st, view.CaptureID)
		if err != nil {
			return err
		}
		opts.Capture = capture
		opts.View.CaptureID = capture.ID
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		logger.Info("stdout is not a terminal, rendering once")
		return renderOnce(cmd.Context(), cmd.OutOrStdout(), st, opts, defaultStaticWidth, defaultStaticHeight)
	}
	return runScope(opts)
}

func runScope(opts tui.Options) error {
	m, err := tui.NewModel(opts)
	if err != nil {
		return err
	}
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveViewConfig merges the [view] section of the config file into the
// flags that were not set explicitly.
func resolveViewConfig(cmd *cobra.Command, f *viewFlags, fileCfg config.FileConfig) (model.ViewConfig, error) {
	applyBoolConfig(cmd, "live", &f.live, fileCfg.View.Live)
	applyStringConfig(cmd, "fault", &f.fault, fileCfg.View.Fault)
	applyStringConfig(cmd, "channel", &f.channel, fileCfg.View.Channel)
	applyStringConfig(cmd, "refresh", &f.refresh, fileCfg.View.Refresh)
	applyBoolConfig(cmd, "restore", &f.restore, fileCfg.View.Restore)
	applyBoolConfig(cmd, "color", &f.color, fileCfg.View.Color)

	fault, err := model.ParseFaultCode(f.fault)
	if err != nil {
		return model.ViewConfig{}, fmt.Errorf("--fault: %w", err)
	}
	channel, err := model.ParseChannel(f.channel)
	if err != nil {
		return model.ViewConfig{}, fmt.Errorf("--channel: %w", err)
	}
	refresh, err := time.ParseDuration(f.refresh)
	if err != nil || refresh <= 0 {
		return model.ViewConfig{}, fmt.Errorf("--refresh must be a positive duration like 500ms")
	}
	if f.captureID != 0 && !cmd.Flags().Changed("live") {
		f.live = false
	}
	if f.live && f.captureID != 0 {
		return model.ViewConfig{}, fmt.Errorf("--live and --capture are mutually exclusive")
	}
	return model.ViewConfig{
		CaptureID: f.captureID,
		Live:      f.live,
		Fault:     fault,
		Channel:   channel,
		Refresh:   refresh,
		Restore:   f.restore,
		Color:     f.color && os.Getenv("NO_COLOR") == "",
	}, nil
}

// viewportConfig layers the config file over the defaults, then any zoom
// flag given on the command line.
func viewportConfig(cmd *cobra.Command, f *viewFlags, fileCfg config.FileConfig) (viewport.Config, error) {
	cfg, err := fileCfg.ApplyViewport(viewport.DefaultConfig())
	if err != nil {
		return viewport.Config{}, err
	}
	if cmd.Flags().Changed("zoom-in") {
		cfg.ZoomInFactor = f.zoomIn
	}
	if cmd.Flags().Changed("zoom-out") {
		cfg.ZoomOutFactor = f.zoomOut
	}
	if cmd.Flags().Changed("pan-speed") {
		cfg.PanSpeed = f.panSpeed
	}
	if cmd.Flags().Changed("corner-priority") {
		p, err := viewport.ParseCornerPriority(f.cornerPriority)
		if err != nil {
			return viewport.Config{}, fmt.Errorf("--corner-priority: %w", err)
		}
		cfg.CornerPriority = p
	}
	if err := cfg.Validate(); err != nil {
		return viewport.Config{}, fmt.Errorf("invalid zoom settings: %w", err)
	}
	return cfg, nil
}

func loadCapture(ctx context.Context, st *store.Store, id int64) (model.Capture, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id > 0 {
		capture, err := st.GetCapture(ctx, id)
		if err != nil {
			return model.Capture{}, fmt.Errorf("failed to load capture: %w", err)
		}
		return capture, nil
	}
	capture, err := st.LatestCapture(ctx, model.CaptureFilter{})
	if errors.Is(err, store.ErrNotFound) {
		logErrln("No captures stored yet. Try: wavescope sim, wavescope import FILE, or wavescope --live")
		return model.Capture{}, fmt.Errorf("no captures found")
	}
	if err != nil {
		return model.Capture{}, fmt.Errorf("failed to load latest capture: %w", err)
	}
	return capture, nil
}

func openLogger(debug bool) (*slog.Logger, func(), error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	closeLog := func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}
	return logger, closeLog, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	d := viewport.DefaultConfig()
	return fmt.Sprintf(`# wavescope configuration
# Uncomment a value to enable it. CLI flags override config values.

[view]
# live = false            # Show a live simulated waveform
# fault = %q           # Fault code for live mode (E00-E05)
# channel = %q         # dc+, dc-, current or leakage
# refresh = %q          # Live refresh interval
# restore = false         # Restore the saved view of a capture
# color = true            # Colored traces

[zoom]
# zoom-in = %.2f          # Wheel-up factor, > 1
# zoom-out = %.2f         # Wheel-down factor, between 0 and 1
# pan-speed = %.1f         # Drag pan multiplier
# x-threshold = %.2f      # Bottom gutter share of the canvas height
# y-threshold = %.2f      # Left gutter share of the canvas width
# corner-priority = %q   # Owner of the bottom-left corner: x, y or none
# x-window-index = %d      # Window slot driven by the x axis
# y-window-index = %d      # Window slot driven by the y axis

[extent]
# Fixed axis ranges. Set both ends of an axis.
# x-min = 0.0
# x-max = 200.0
# y-min = -400.0
# y-max = 400.0
`,
		defaultFault,
		defaultChannel,
		defaultRefresh.String(),
		d.ZoomInFactor,
		d.ZoomOutFactor,
		d.PanSpeed,
		d.XAxisThreshold,
		d.YAxisThreshold,
		d.CornerPriority.String(),
		d.XWindowIndex,
		d.YWindowIndex,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
