// pkg/core/zone.go
package core

import "sort"

// Plane bounds for zone geometry, in percent.
const (
	PlaneMin = 0.0
	PlaneMax = 100.0
)

// DefaultZoneColor is used when a zone is created without a color.
const DefaultZoneColor = "#4A90E2"

// Zone is a named rectangle on the yard plane used to group markers.
// Only stable geometry is stored here; gesture state lives with the
// interaction controller and is never persisted.
type Zone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position Rect   `json:"position"`
	// Order is the creation sequence. Containment queries resolve overlapping
	// zones by ascending Order.
	Order int64 `json:"order"`
}

// ZoneSpec is the input for creating a zone. A nil Position selects the
// store's default rectangle.
type ZoneSpec struct {
	Name     string
	Color    string
	Position *Rect
}

// ZoneSetConfig applies to every zone in a set.
type ZoneSetConfig struct {
	GridVisible bool `json:"gridVisible"`
	GridSize    int  `json:"gridSize"`
}

// ZoneDocument is the persisted shape of a zone set.
type ZoneDocument struct {
	Zones  []Zone        `json:"zones"`
	Config ZoneSetConfig `json:"config"`
}

// SortZones orders zones by Order, then by ID for equal orders. The input is
// sorted in place.
func SortZones(zones []Zone) {
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Order != zones[j].Order {
			return zones[i].Order < zones[j].Order
		}
		return zones[i].ID < zones[j].ID
	})
}
