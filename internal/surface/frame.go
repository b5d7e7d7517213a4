package surface

import (
	"context"

	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/pkg/core"
)

// FrameZone is a zone as drawn: preview geometry while a gesture is
// engaged, plus the selection and gesture flags.
type FrameZone struct {
	core.Zone
	Selected   bool `json:"selected"`
	IsMoving   bool `json:"isMoving"`
	IsResizing bool `json:"isResizing"`
}

// Frame is everything a renderer needs to draw the map once.
type Frame struct {
	Transform core.ViewportTransform `json:"transform"`
	Grid      core.ZoneSetConfig     `json:"grid"`
	Mode      DrawMode               `json:"mode"`
	Pending   *core.Point            `json:"pending,omitempty"`
	Zones     []FrameZone            `json:"zones"`
	Markers   []core.Marker          `json:"markers"`
	Occupancy map[string]int         `json:"occupancy"`
	Animating bool                   `json:"animating"`
}

// Frame assembles the current frame, refreshing marker containment first if
// zones changed since the last refresh.
func (s *Surface) Frame(ctx context.Context) Frame {
	if s.markersStale.Load() {
		// the previous markers are drawn when the refresh fails
		_ = s.RefreshMarkers(ctx)
	}

	selected := s.store.SelectedID()
	zones := s.store.Zones()
	frameZones := make([]FrameZone, 0, len(zones))
	for _, z := range zones {
		fz := FrameZone{Zone: z, Selected: z.ID == selected}
		fz.IsMoving, fz.IsResizing = s.interaction.Flags(z.ID)
		if preview, ok := s.interaction.Preview(z.ID); ok {
			fz.Position = preview
		}
		frameZones = append(frameZones, fz)
	}

	markers := s.Markers()
	f := Frame{
		Transform: s.viewport.Transform(),
		Grid:      s.store.Config(),
		Mode:      s.Mode(),
		Zones:     frameZones,
		Markers:   markers,
		Occupancy: locator.Occupancy(markers),
		Animating: s.viewport.Animating(),
	}
	if p, ok := s.Pending(); ok {
		f.Pending = &p
	}
	return f
}
