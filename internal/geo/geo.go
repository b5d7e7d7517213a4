// Package geo holds the pure geometry used by the yard map: distances,
// rectangle overlap and containment, and percent/pixel conversion.
//
// None of these functions validate their inputs. Degenerate ranges and
// zero-sized containers are the caller's responsibility; the results for
// such inputs are the IEEE-754 results of the division (±Inf or NaN).
package geo

import (
	"errors"
	"math"

	"github.com/motoyard/yardmap/pkg/core"
)

// ErrNoPoints is returned by Midpoint for an empty input.
var ErrNoPoints = errors.New("no points provided")

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 core.Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Midpoint returns the arithmetic mean of the given points.
func Midpoint(points []core.Point) (core.Point, error) {
	if len(points) == 0 {
		return core.Point{}, ErrNoPoints
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return core.Point{X: sx / n, Y: sy / n}, nil
}

// NormalizeToRange linearly maps v from [min, max] onto [newMin, newMax].
// Callers must guard against max == min.
func NormalizeToRange(v, min, max, newMin, newMax float64) float64 {
	return newMin + (v-min)*(newMax-newMin)/(max-min)
}

// RectOverlap reports whether a and b intersect with non-zero area.
// Rectangles that only share an edge or a corner do not overlap, and neither
// does a rectangle of zero width or height.
func RectOverlap(a, b core.Rect) bool {
	if a.Width <= 0 || a.Height <= 0 || b.Width <= 0 || b.Height <= 0 {
		return false
	}
	return a.Left < b.Right() && b.Left < a.Right() &&
		a.Top < b.Bottom() && b.Top < a.Bottom()
}

// IsFinitePoint reports whether neither coordinate of p is NaN or infinite.
func IsFinitePoint(p core.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// PointInRect reports whether p lies inside r, boundary included.
func PointInRect(p core.Point, r core.Rect) bool {
	return p.X >= r.Left && p.X <= r.Right() &&
		p.Y >= r.Top && p.Y <= r.Bottom()
}

// PercentToPixel converts a percentage of size into pixels.
func PercentToPixel(pct, size float64) float64 {
	return pct / 100 * size
}

// PixelToPercent converts pixels into a percentage of size. size must be positive.
func PixelToPercent(px, size float64) float64 {
	return px / size * 100
}

// PointToPixels converts a percentage point into container pixels.
func PointToPixels(p core.Point, width, height float64) core.Point {
	return core.Point{X: PercentToPixel(p.X, width), Y: PercentToPixel(p.Y, height)}
}

// PointToPercent converts a container pixel point into percentages.
// width and height must be positive.
func PointToPercent(p core.Point, width, height float64) core.Point {
	return core.Point{X: PixelToPercent(p.X, width), Y: PixelToPercent(p.Y, height)}
}

// Clamp limits v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v >= lo {
		return v
	}
	return lo
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid returns v.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}
