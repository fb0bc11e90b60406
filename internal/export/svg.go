package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var palette = []string{
	"#ffd700", "#00ffff", "#ff00ff", "#00ff88", "#ff8800",
	"#0088ff", "#ff4444", "#88ff88", "#cccccc", "#ff9ff3",
}

// Color is the stroke used for the i-th path in name order.
func Color(i int) string {
	return palette[i%len(palette)]
}

// OrbitsToSVG draws every path as a polyline on a square-scaled plot, with
// a marker and label at each path's last point. Paths are drawn in name
// order.
func OrbitsToSVG(w io.Writer, paths map[string][]mgl64.Vec2, width, height int) error {
	names := make([]string, 0, len(paths))
	for name, p := range paths {
		if len(p) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("export: nothing to draw")
	}
	sort.Strings(names)

	// Find bounds
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, name := range names {
		for _, p := range paths[name] {
			minX, maxX = math.Min(minX, p.X()), math.Max(maxX, p.X())
			minY, maxY = math.Min(minY, p.Y()), math.Max(maxY, p.Y())
		}
	}

	// one scale for both axes so orbits keep their shape
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := math.Min(float64(width), float64(height)) / span

	project := func(p mgl64.Vec2) (float64, float64) {
		x := float64(width)/2 + (p.X()-cx)*scale
		y := float64(height)/2 - (p.Y()-cy)*scale
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, name := range names {
		path := paths[name]
		color := Color(i)

		if len(path) > 1 {
			sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.7" d="M`, color))
			for j, p := range path {
				x, y := project(p)
				if j > 0 {
					sb.WriteString(" L")
				}
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			}
			sb.WriteString("\"/>\n")
		}

		x, y := project(path[len(path)-1])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="10">%s</text>
`, x, y, color, x+5, y-5, color, escape(name)))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
