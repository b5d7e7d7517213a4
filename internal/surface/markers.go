package surface

import (
	"context"
	"slices"

	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/pkg/core"
)

// OnMarkersResolved registers fn to run after every successful marker
// refresh with the resolved markers and the zone transitions.
func (s *Surface) OnMarkersResolved(fn func([]core.Marker, []locator.Transition)) {
	s.markersMu.Lock()
	defer s.markersMu.Unlock()
	s.resolved = append(s.resolved, fn)
}

// MarkersStale reports whether zones changed since the last refresh.
func (s *Surface) MarkersStale() bool {
	return s.markersStale.Load()
}

// RefreshMarkers recomputes marker containment against the current zones.
// On failure the previous markers are kept.
func (s *Surface) RefreshMarkers(ctx context.Context) error {
	if s.locator == nil {
		s.markersStale.Store(false)
		return nil
	}

	s.markersStale.Store(false)
	markers, transitions, err := s.locator.Resolve(ctx, s.store.Zones())
	if err != nil {
		s.markersStale.Store(true)
		s.log.Error("Failed to refresh markers", "error", err)
		return err
	}

	s.markersMu.Lock()
	s.markers = markers
	listeners := slices.Clone(s.resolved)
	s.markersMu.Unlock()

	for _, t := range transitions {
		s.log.Debug("Marker changed zone", "markerId", t.MarkerID, "from", t.From, "to", t.To)
	}
	for _, fn := range listeners {
		fn(markers, transitions)
	}
	return nil
}

// Markers returns the markers of the last refresh.
func (s *Surface) Markers() []core.Marker {
	s.markersMu.Lock()
	defer s.markersMu.Unlock()
	return slices.Clone(s.markers)
}
