package viewport

// Host is the chart component the controller drives. Window slots are
// addressed by index, matching Config.XWindowIndex and Config.YWindowIndex.
type Host interface {
	// PixelToValue projects a canvas pixel to data coordinates. ok is false
	// when the layout is unknown or the input is degenerate.
	PixelToValue(p Point) (x, y float64, ok bool)
	// SetWindow sets a window slot by value. Unchanged values are a no-op.
	SetWindow(index int, start, end float64)
	// ResetWindow sets a window slot to 0%-100%.
	ResetWindow(index int)
	// WindowCount returns the number of window slots.
	WindowCount() int
	// CurrentWindow returns the authoritative representation of a slot.
	CurrentWindow(index int) WindowState
	// PlotRect returns the plot rectangle once layout has been computed.
	PlotRect() (Rect, bool)
	// CanvasSize returns the canvas bounding box size.
	CanvasSize() (width, height float64)
	// Series returns every plotted series.
	Series() []Series
	// Categories returns the horizontal category labels, if any.
	Categories() []Value
	// ScaleExtent returns the axis range currently displayed. It may reflect
	// the visible window rather than the data, so it is used last.
	ScaleExtent(axis Axis) (Extent, bool)
}

// WindowState carries whichever window representation the host holds.
type WindowState struct {
	HasValue   bool
	StartValue float64
	EndValue   float64

	HasPercent   bool
	StartPercent float64
	EndPercent   float64
}

// ValueWindow builds a value-based WindowState.
func ValueWindow(start, end float64) WindowState {
	return WindowState{HasValue: true, StartValue: start, EndValue: end}
}

// PercentWindow builds a percent-based WindowState.
func PercentWindow(start, end float64) WindowState {
	return WindowState{HasPercent: true, StartPercent: start, EndPercent: end}
}

// ValueKind tags a raw data value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueNumber
	ValueText
)

// Value is a raw series or category value before numeric extraction.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Num wraps a number.
func Num(v float64) Value {
	return Value{Kind: ValueNumber, Num: v}
}

// Text wraps a textual value such as a timestamp.
func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// Null is the missing value.
var Null = Value{}

// Datum is one series element: either an (x, y) pair or a bare y scalar
// whose x comes from the category axis.
type Datum struct {
	Pair bool
	X    Value
	Y    Value
}

// PairOf builds an (x, y) datum.
func PairOf(x, y Value) Datum {
	return Datum{Pair: true, X: x, Y: y}
}

// ScalarOf builds a y-only datum.
func ScalarOf(y Value) Datum {
	return Datum{Y: y}
}

// Series is a named sequence of data.
type Series struct {
	Name string
	Data []Datum
}

// EventKind enumerates pointer events.
type EventKind int

const (
	EventWheel EventKind = iota
	EventDown
	EventMove
	EventUp
	EventLeave
	EventDoubleClick
)

func (k EventKind) String() string {
	switch k {
	case EventWheel:
		return "wheel"
	case EventDown:
		return "down"
	case EventMove:
		return "move"
	case EventUp:
		return "up"
	case EventLeave:
		return "leave"
	case EventDoubleClick:
		return "dblclick"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Event is a low-level pointer event in canvas pixel coordinates.
// WheelDelta is positive for wheel-up.
type Event struct {
	Kind       EventKind
	Pos        Point
	Button     Button
	WheelDelta float64
}

// EventSource delivers pointer events to subscribers in order. The returned
// function removes the subscription.
type EventSource interface {
	Subscribe(handler func(Event)) (unsubscribe func())
}
