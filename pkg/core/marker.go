// pkg/core/marker.go
package core

// MarkerType identifies the external entity a marker stands for.
type MarkerType string

const (
	MarkerBeacon     MarkerType = "beacon"
	MarkerMotorcycle MarkerType = "motorcycle"
)

// Marker is a point proxy for a beacon or motorcycle owned by the CRUD
// subsystem. ZoneID is derived by the locator from Position and the current
// zone set; an empty ZoneID means the marker is outside every zone.
type Marker struct {
	ID       string     `json:"id"`
	Type     MarkerType `json:"type"`
	Position Point      `json:"position"`
	ZoneID   string     `json:"zoneId,omitempty"`
}
