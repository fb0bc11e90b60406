package viz

import (
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

// Canvas is a braille dot grid with an optional text overlay. Dots are
// addressed in sub-pixels: (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	overlay       [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:   w,
		Height:  h,
		Grid:    make([][]rune, h),
		overlay: make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.overlay[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Dot draws a filled square of side 2r+1 centred on (x, y).
func (c *Canvas) Dot(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// Label writes text into the overlay starting at the cell holding
// sub-pixel (x, y), shifted one cell right. Text past the edge is cut.
func (c *Canvas) Label(x, y int, text string) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2+1, y/4
	if row >= c.Height {
		return
	}
	for _, r := range text {
		if col >= c.Width {
			return
		}
		c.overlay[row][col] = r
		col++
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.overlay[i][j] = 0
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			if o := c.overlay[i][j]; o != 0 {
				r = o
			}
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
