package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille grid viewing a square region of the field. Span is the
// width in meters of the region, centered on the origin.
type Canvas struct {
	Width, Height int
	Span          float64
	Grid          [][]rune
}

func NewCanvas(w, h int, span float64) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Span:   span,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y); the grid holds Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Project maps field meters to sub-pixels, x to the right and y up. Braille
// cells are roughly twice as tall as wide, which the 2x4 dot grid cancels.
func (c *Canvas) Project(x, y float64) (int, int) {
	pw, ph := c.Width*2, c.Height*4
	scale := float64(pw) / c.Span
	px := pw/2 + int(math.Round(x*scale))
	py := ph/2 - int(math.Round(y*scale))
	return px, py
}

func (c *Canvas) Point(x, y float64) {
	c.Set(c.Project(x, y))
}

// Segment draws between two field points with Bresenham's algorithm.
func (c *Canvas) Segment(x0, y0, x1, y1 float64) {
	ax, ay := c.Project(x0, y0)
	bx, by := c.Project(x1, y1)

	dx, dy := absInt(bx-ax), absInt(by-ay)
	sx, sy := -1, -1
	if ax < bx {
		sx = 1
	}
	if ay < by {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(ax, ay)
		if ax == bx && ay == by {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			ax += sx
		}
		if e2 < dx {
			err += dx
			ay += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
