// Package export renders recorded runs as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/motionctl/internal/viz"
)

type point struct{ X, Y float64 }

// PathSVG draws the dead-reckoned path of a run, viewed from above.
func PathSVG(poses []viz.Pose, width, height int, stroke string) string {
	points := make([]point, len(poses))
	for i, p := range poses {
		points[i] = point{X: p.X, Y: p.Y}
	}
	return polyline(points, width, height, stroke, true)
}

// SeriesSVG draws values sampled every dt seconds against time.
func SeriesSVG(values []float64, dt float64, width, height int, stroke string) string {
	points := make([]point, len(values))
	for i, v := range values {
		points[i] = point{X: float64(i) * dt, Y: v}
	}
	return polyline(points, width, height, stroke, false)
}

// polyline scales points into the view box with 10% padding. With square
// set both axes share one scale so a path is not distorted.
func polyline(points []point, width, height int, stroke string, square bool) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	if square {
		r := max(rangeX, rangeY)
		minX -= (r - rangeX) / 2
		minY -= (r - rangeY) / 2
		rangeX, rangeY = r, r
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
