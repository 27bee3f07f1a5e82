package viewport

// windowStore reads and writes axis windows through the host.
type windowStore struct {
	host    Host
	cfg     Config
	extents extentResolver
}

// Read returns the current window of axis together with its extent. The
// host's value window wins; otherwise the percent window (0%-100% when
// absent) is projected onto the extent. The result is re-clamped to the
// latest extent, and falls back to the full extent if clamping collapses it.
func (s windowStore) Read(axis Axis) (Window, Extent, bool) {
	ext, err := s.extents.Resolve(axis)
	if err != nil {
		return Window{}, Extent{}, false
	}
	state := s.host.CurrentWindow(s.cfg.windowIndex(axis))

	var w Window
	switch {
	case state.HasValue && isFinite(state.StartValue) && isFinite(state.EndValue) && state.StartValue != state.EndValue:
		w = ordered(state.StartValue, state.EndValue)
	default:
		start, end := 0.0, 100.0
		if state.HasPercent && isFinite(state.StartPercent) && isFinite(state.EndPercent) {
			start, end = state.StartPercent, state.EndPercent
		}
		w = ordered(
			ext.Min+ext.Span()*(start/100),
			ext.Min+ext.Span()*(end/100),
		)
	}

	w.Start = clamp(w.Start, ext.Min, ext.Max)
	w.End = clamp(w.End, ext.Min, ext.Max)
	if !w.valid() {
		w = Window{Start: ext.Min, End: ext.Max}
	}
	return w, ext, true
}

// Write commits a value window. Bounds are clamped by the caller; a
// non-finite or degenerate window is dropped.
func (s windowStore) Write(axis Axis, w Window) bool {
	w = ordered(w.Start, w.End)
	if !w.valid() {
		return false
	}
	s.host.SetWindow(s.cfg.windowIndex(axis), w.Start, w.End)
	return true
}

func ordered(a, b float64) Window {
	if a > b {
		a, b = b, a
	}
	return Window{Start: a, End: b}
}
