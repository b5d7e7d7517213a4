// Package locator derives which zone each marker sits in. Containment is
// recomputed from marker positions and the current zone set; nothing here is
// written back to the marker owner.
package locator

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/motoyard/yardmap/internal/cache"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/pkg/core"
)

// Locate returns the first zone in zones whose rectangle contains p,
// boundary included. ok is false when no zone contains p.
func Locate(p core.Point, zones []core.Zone) (zoneID string, ok bool) {
	for _, z := range zones {
		if geo.PointInRect(p, z.Position) {
			return z.ID, true
		}
	}
	return "", false
}

// MarkerSource supplies markers. It is owned by the beacon/motorcycle CRUD
// subsystem and is only read.
type MarkerSource interface {
	Markers(ctx context.Context) ([]core.Marker, error)
}

// StaticSource is an in-memory MarkerSource.
type StaticSource struct {
	mu      sync.RWMutex
	markers []core.Marker
}

// NewStaticSource creates a source holding markers.
func NewStaticSource(markers ...core.Marker) *StaticSource {
	s := &StaticSource{}
	s.Set(markers)
	return s
}

// Set replaces the markers.
func (s *StaticSource) Set(markers []core.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = slices.Clone(markers)
}

// Markers returns a copy of the markers.
func (s *StaticSource) Markers(ctx context.Context) ([]core.Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.markers), nil
}

// Transition is a marker that moved between zones since the last Resolve.
// Empty From or To means outside every zone.
type Transition struct {
	MarkerID string
	From     string
	To       string
}

// Locator resolves markers from a source against a zone set.
type Locator struct {
	source      MarkerSource
	assignments *cache.Assignments
}

// New creates a locator. A nil cache gets a fresh one.
func New(source MarkerSource, assignments *cache.Assignments) *Locator {
	if assignments == nil {
		assignments = cache.NewAssignments()
	}
	return &Locator{source: source, assignments: assignments}
}

// Resolve fetches markers and sets each ZoneID from zones. Overlapping zones
// are resolved by ascending Order, whatever order zones is passed in. The
// returned transitions compare against the previous Resolve.
func (l *Locator) Resolve(ctx context.Context, zones []core.Zone) ([]core.Marker, []Transition, error) {
	markers, err := l.source.Markers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read markers: %w", err)
	}

	ordered := slices.Clone(zones)
	core.SortZones(ordered)

	next := make(map[string]string, len(markers))
	for i := range markers {
		zoneID, _ := Locate(markers[i].Position, ordered)
		markers[i].ZoneID = zoneID
		next[markers[i].ID] = zoneID
	}

	changes := l.assignments.Replace(next)
	transitions := make([]Transition, 0, len(changes))
	for _, c := range changes {
		transitions = append(transitions, Transition{MarkerID: c.MarkerID, From: c.From, To: c.To})
	}
	slices.SortFunc(transitions, func(a, b Transition) int {
		switch {
		case a.MarkerID < b.MarkerID:
			return -1
		case a.MarkerID > b.MarkerID:
			return 1
		}
		return 0
	})
	return markers, transitions, nil
}

// Occupancy counts markers per zone. Markers outside every zone are not
// counted.
func Occupancy(markers []core.Marker) map[string]int {
	counts := make(map[string]int)
	for _, m := range markers {
		if m.ZoneID != "" {
			counts[m.ZoneID]++
		}
	}
	return counts
}
