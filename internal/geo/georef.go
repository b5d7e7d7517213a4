package geo

import (
	"math"

	"github.com/motoyard/yardmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Georeference pins the yard plane to the earth. The origin is the top-left
// corner of the plane; the yard is assumed to be north-up.
type Georeference struct {
	OriginLon    float64
	OriginLat    float64
	WidthMeters  float64
	HeightMeters float64
}

// Valid reports whether the reference has a positive extent.
func (g Georeference) Valid() bool {
	return g.WidthMeters > 0 && g.HeightMeters > 0
}

// To3857 converts a percentage point to EPSG:3857 (web mercator) coordinates.
func (g Georeference) To3857(p core.Point) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	ox, oy, _ := f(g.OriginLon, g.OriginLat, 0)

	// mercator stretches ground distances by 1/cos(lat)
	k := 1 / math.Cos(g.OriginLat*math.Pi/180)
	x = ox + p.X/100*g.WidthMeters*k
	y = oy - p.Y/100*g.HeightMeters*k
	return x, y
}

// ToLonLat converts a percentage point to WGS84 longitude and latitude.
func (g Georeference) ToLonLat(p core.Point) (lon, lat float64) {
	x, y := g.To3857(p)
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	lon, lat, _ = f(x, y, 0)
	return lon, lat
}

// Point3857 returns the EPSG:3857 location of p as a geometry point.
func (g Georeference) Point3857(p core.Point) geom.Point {
	x, y := g.To3857(p)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}
