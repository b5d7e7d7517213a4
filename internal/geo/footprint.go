package geo

import (
	"errors"

	"github.com/motoyard/yardmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidFootprint is returned when a line string is not a rectangle ring.
var ErrInvalidFootprint = errors.New("invalid zone footprint")

// Footprint returns the zone outline as a closed ring, clockwise from the
// top-left corner. X is the left axis and Y the top axis.
func Footprint(r core.Rect) geom.LineString {
	c := r.Corners()
	flat := make([]float64, 0, 10)
	for _, p := range c {
		flat = append(flat, p.X, p.Y)
	}
	flat = append(flat, c[0].X, c[0].Y)
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// RectFromFootprint recovers the bounding rectangle of a ring built by Footprint.
func RectFromFootprint(ls geom.LineString) (core.Rect, error) {
	seq := ls.Coordinates()
	if seq.Length() < 4 {
		return core.Rect{}, ErrInvalidFootprint
	}
	first := seq.GetXY(0)
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for i := 1; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		minX = min(minX, xy.X)
		maxX = max(maxX, xy.X)
		minY = min(minY, xy.Y)
		maxY = max(maxY, xy.Y)
	}
	if maxX == minX || maxY == minY {
		return core.Rect{}, ErrInvalidFootprint
	}
	return core.Rect{Top: minY, Left: minX, Width: maxX - minX, Height: maxY - minY}, nil
}

// CenterPoint returns the rectangle center as a 2D point.
func CenterPoint(r core.Rect) geom.Point {
	c := r.Center()
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: c.X, Y: c.Y},
		Type: geom.DimXY,
	})
}
