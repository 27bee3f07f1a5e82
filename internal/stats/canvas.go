package stats

import "math"

// canvas is a braille dot grid with one layer per trace. Each cell holds
// 2x4 dots.
type canvas struct {
	width  int
	height int
	layers [][][]uint8
}

func newCanvas(layers, width, height int) *canvas {
	c := &canvas{width: width, height: height, layers: make([][][]uint8, layers)}
	for i := range c.layers {
		cells := make([][]uint8, height)
		for y := range cells {
			cells[y] = make([]uint8, width)
		}
		c.layers[i] = cells
	}
	return c
}

// trace projects tr through win and draws it on layer, clipping every
// segment to the dot grid. Non-finite points break the line.
func (c *canvas) trace(layer int, style lineStyle, tr Trace, win Window) {
	dotW := float64(c.width*2 - 1)
	dotH := float64(c.height*4 - 1)
	n := len(tr.X)
	if len(tr.Y) < n {
		n = len(tr.Y)
	}
	plot := func(x, y int) {
		if style.shouldPlot(x) {
			c.dot(layer, x, y)
		}
	}

	havePrev := false
	var px, py float64
	for i := 0; i < n; i++ {
		if !finite(tr.X[i]) || !finite(tr.Y[i]) {
			havePrev = false
			continue
		}
		x := (tr.X[i] - win.XStart) / (win.XEnd - win.XStart) * dotW
		y := (1 - (tr.Y[i]-win.YStart)/(win.YEnd-win.YStart)) * dotH
		if havePrev {
			if x0, y0, x1, y1, ok := clipSegment(px, py, x, y, 0, 0, dotW, dotH); ok {
				drawLine(round(x0), round(y0), round(x1), round(y1), plot)
			}
		} else if x >= 0 && x <= dotW && y >= 0 && y <= dotH {
			plot(round(x), round(y))
		}
		px, py, havePrev = x, y, true
	}
}

func (c *canvas) dot(layer, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellX, cellY := x/2, y/4
	if cellY >= c.height || cellX >= c.width {
		return
	}
	c.layers[layer][cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// cell merges all layers at (x, y) and returns the braille rune plus the
// first layer that has dots there, or -1.
func (c *canvas) cell(x, y int) (rune, int) {
	var mask uint8
	first := -1
	for i, cells := range c.layers {
		m := cells[y][x]
		if m == 0 {
			continue
		}
		if first == -1 {
			first = i
		}
		mask |= m
	}
	return brailleFromMask(mask), first
}

// clipSegment clips the segment to the rectangle using Liang-Barsky.
func clipSegment(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (float64, float64, float64, float64, bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func round(v float64) int {
	return int(math.Round(v))
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func brailleDotMask(x, y int) uint8 {
	if x == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[y]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
