package viewport

import (
	"io"
	"log/slog"
	"math"
	"sync"
)

// Controller owns the gesture state for one host.
type Controller struct {
	host   Host
	cfg    Config
	logger *slog.Logger

	extents    extentResolver
	classifier regionClassifier
	windows    windowStore

	drag        *DragSession
	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger routes debug output about discarded gestures to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a controller for host. It is not bound to any event source.
func New(host Host, cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		host:   host,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.extents = extentResolver{host: host, cfg: cfg}
	c.classifier = regionClassifier{host: host, cfg: cfg}
	c.windows = windowStore{host: host, cfg: cfg, extents: c.extents}
	return c, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Bind subscribes the controller to src, dropping any earlier subscription.
func (c *Controller) Bind(src EventSource) {
	c.Detach()
	c.unsubscribe = src.Subscribe(c.HandleEvent)
}

// Detach removes the event subscription and cancels any open drag.
func (c *Controller) Detach() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.drag = nil
}

// Extent resolves the full extent of axis.
func (c *Controller) Extent(axis Axis) (Extent, error) {
	return c.extents.Resolve(axis)
}

// Window reads the current window of axis.
func (c *Controller) Window(axis Axis) (Window, bool) {
	w, _, ok := c.windows.Read(axis)
	return w, ok
}

// Classify returns the region under p.
func (c *Controller) Classify(p Point) RegionKind {
	return c.classifier.Classify(p)
}

// HandleEvent processes one pointer event to completion.
func (c *Controller) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventWheel:
		c.onWheel(ev)
	case EventDown:
		if ev.Button != ButtonLeft {
			return
		}
		c.BeginDrag(ev.Pos)
	case EventMove:
		c.UpdateDrag(ev.Pos)
	case EventUp, EventLeave:
		c.EndDrag()
	case EventDoubleClick:
		if !ev.Pos.finite() {
			return
		}
		c.Reset(c.classifier.Classify(ev.Pos))
	}
}

func (c *Controller) onWheel(ev Event) {
	if !ev.Pos.finite() || !isFinite(ev.WheelDelta) || ev.WheelDelta == 0 {
		return
	}
	region := c.classifier.Classify(ev.Pos)
	if region == RegionNone {
		return
	}
	factor := c.cfg.ZoomOutFactor
	if ev.WheelDelta > 0 {
		factor = c.cfg.ZoomInFactor
	}
	ax, ay := c.anchorAt(ev.Pos)
	switch region {
	case RegionXAxis:
		c.Zoom(AxisX, ax, factor)
	case RegionYAxis:
		c.Zoom(AxisY, ay, factor)
	case RegionPlot:
		c.Zoom(AxisX, ax, factor)
		c.Zoom(AxisY, ay, factor)
	}
}

// anchorAt converts p to data values, pulling it one pixel inside the plot
// rectangle first so gutter positions still project. Missing values are NaN.
func (c *Controller) anchorAt(p Point) (x, y float64) {
	if rect, ok := c.host.PlotRect(); ok && rect.usable() {
		p.X = clamp(p.X, rect.X+1, rect.X+rect.Width-1)
		p.Y = clamp(p.Y, rect.Y+1, rect.Y+rect.Height-1)
	}
	vx, vy, ok := c.host.PixelToValue(p)
	if !ok {
		return math.NaN(), math.NaN()
	}
	return vx, vy
}

// Registry keeps at most one bound controller per host. Hosts must be
// comparable, which pointer-backed implementations are.
type Registry struct {
	mu          sync.Mutex
	controllers map[Host]*Controller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: map[Host]*Controller{}}
}

// Attach builds a controller for host, detaches whatever controller was
// previously attached to the same host, and binds the new one to src.
func (r *Registry) Attach(host Host, src EventSource, cfg Config, opts ...Option) (*Controller, error) {
	c, err := New(host, cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.controllers[host]; ok {
		prev.Detach()
	}
	c.Bind(src)
	r.controllers[host] = c
	return c, nil
}

// Release detaches and forgets the controller attached to host.
func (r *Registry) Release(host Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[host]; ok {
		c.Detach()
		delete(r.controllers, host)
	}
}

// Lookup returns the controller attached to host.
func (r *Registry) Lookup(host Host) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[host]
	return c, ok
}
