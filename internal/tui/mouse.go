package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/wavescope/internal/viewport"
)

const doubleClickThreshold = 400 * time.Millisecond

// cellPoint addresses the centre of a terminal cell so projections are
// symmetric across the plot.
func cellPoint(x, y int) viewport.Point {
	return viewport.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// pointerEvent converts a terminal mouse message at canvas cell (x, y) into
// a viewport event. ok is false for messages the controller has no use for.
func pointerEvent(msg tea.MouseMsg, x, y int) (viewport.Event, bool) {
	p := cellPoint(x, y)
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return viewport.Event{Kind: viewport.EventWheel, Pos: p, WheelDelta: 1}, true
	case tea.MouseButtonWheelDown:
		return viewport.Event{Kind: viewport.EventWheel, Pos: p, WheelDelta: -1}, true
	}
	switch msg.Action {
	case tea.MouseActionPress:
		button, ok := pointerButton(msg.Button)
		if !ok {
			return viewport.Event{}, false
		}
		return viewport.Event{Kind: viewport.EventDown, Pos: p, Button: button}, true
	case tea.MouseActionMotion:
		return viewport.Event{Kind: viewport.EventMove, Pos: p}, true
	case tea.MouseActionRelease:
		return viewport.Event{Kind: viewport.EventUp, Pos: p}, true
	}
	return viewport.Event{}, false
}

func pointerButton(b tea.MouseButton) (viewport.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return viewport.ButtonLeft, true
	case tea.MouseButtonMiddle:
		return viewport.ButtonMiddle, true
	case tea.MouseButtonRight:
		return viewport.ButtonRight, true
	default:
		return 0, false
	}
}

// clickTracker recognizes two left presses on the same cell in quick
// succession. Terminals do not report double clicks themselves.
type clickTracker struct {
	at   time.Time
	x, y int
	set  bool
}

// press records a press and reports whether it completes a double click.
// A completed double click clears the history so a third press starts over.
func (c *clickTracker) press(now time.Time, x, y int) bool {
	double := c.set && x == c.x && y == c.y && now.Sub(c.at) <= doubleClickThreshold
	if double {
		*c = clickTracker{}
		return true
	}
	c.at, c.x, c.y, c.set = now, x, y, true
	return false
}
