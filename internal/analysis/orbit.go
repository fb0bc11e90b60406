package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is the axis-aligned box enclosing a set of paths.
type Bounds struct {
	Min, Max mgl64.Vec2
}

func PathBounds(paths map[string][]mgl64.Vec2) (Bounds, bool) {
	b := Bounds{
		Min: mgl64.Vec2{math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
	}
	found := false
	for _, path := range paths {
		for _, p := range path {
			b.Min = mgl64.Vec2{math.Min(b.Min.X(), p.X()), math.Min(b.Min.Y(), p.Y())}
			b.Max = mgl64.Vec2{math.Max(b.Max.X(), p.X()), math.Max(b.Max.Y(), p.Y())}
			found = true
		}
	}
	return b, found
}

// Radius returns the mean and spread (max - min) of |p - center| along path.
func Radius(path []mgl64.Vec2, center mgl64.Vec2) (mean, spread float64) {
	if len(path) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range path {
		r := p.Sub(center).Len()
		mean += r
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	return mean / float64(len(path)), hi - lo
}

// OrbitsToASCII plots each path in the x-y plane with its own marker, in
// name order, on a width x height grid. Axes are drawn where they cross.
func OrbitsToASCII(paths map[string][]mgl64.Vec2, width, height int) string {
	b, ok := PathBounds(paths)
	if !ok || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := b.Min.X(), b.Max.X()
	minY, maxY := b.Min.Y(), b.Max.Y()

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		mark := Marker(i)
		for _, p := range paths[name] {
			col := int((p.X() - minX) / rangeX * float64(width-1))
			row := height - 1 - int((p.Y()-minY)/rangeY*float64(height-1))

			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = mark
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

var markers = []rune("•o*+x#@%&=")

// Marker is the glyph OrbitsToASCII uses for the i-th path in name order.
func Marker(i int) rune {
	return markers[i%len(markers)]
}
