// Package zonestore holds the canonical zone set of a yard: zones, zone set
// config and the current selection. It persists the set as one JSON document
// through a storage.Backend.
package zonestore

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/idgen"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/pkg/core"
)

// DefaultKey is the storage key of the zone document.
const DefaultKey = "yard_zones"

// DefaultMinSize is the minimum zone width and height in percent.
const DefaultMinSize = 10.0

// DefaultPosition is used by CreateZone when no position is given.
var DefaultPosition = core.Rect{Top: 30, Left: 30, Width: 20, Height: 20}

// Dependencies holds the collaborators and limits of a Store.
type Dependencies struct {
	Backend   storage.Backend
	IDs       idgen.Generator
	Logger    *slog.Logger
	Key       string
	MinWidth  float64
	MinHeight float64
	Config    core.ZoneSetConfig
}

// ConfigPatch carries the config fields to change. Nil fields are kept.
type ConfigPatch struct {
	GridVisible *bool
	GridSize    *int
}

// Store is the canonical zone set. It is safe for concurrent use.
type Store struct {
	backend   storage.Backend
	ids       idgen.Generator
	log       *slog.Logger
	key       string
	minWidth  float64
	minHeight float64

	mu        sync.RWMutex
	zones     map[string]core.Zone
	config    core.ZoneSetConfig
	selected  string
	nextOrder int64

	listenersMu sync.Mutex
	listeners   []func()
}

// New creates a store with no zones.
func New(deps Dependencies) *Store {
	s := &Store{
		backend:   deps.Backend,
		ids:       deps.IDs,
		log:       deps.Logger,
		key:       deps.Key,
		minWidth:  deps.MinWidth,
		minHeight: deps.MinHeight,
		zones:     make(map[string]core.Zone),
		config:    deps.Config,
		nextOrder: 1,
	}
	if s.ids == nil {
		s.ids = idgen.NewTimestamp()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.minWidth <= 0 {
		s.minWidth = DefaultMinSize
	}
	if s.minHeight <= 0 {
		s.minHeight = DefaultMinSize
	}
	if s.config.GridSize <= 0 {
		s.config.GridSize = 5
	}
	return s
}

// MinSize returns the minimum zone width and height.
func (s *Store) MinSize() (width, height float64) {
	return s.minWidth, s.minHeight
}

// OnChange registers fn to run after every mutation, outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Normalize fits r into the plane and the store's minimum size. Size wins
// over position: an oversized rect is shrunk, then moved inside.
func (s *Store) Normalize(r core.Rect) core.Rect {
	r.Width = geo.Clamp(r.Width, s.minWidth, core.PlaneMax-core.PlaneMin)
	r.Height = geo.Clamp(r.Height, s.minHeight, core.PlaneMax-core.PlaneMin)
	r.Left = geo.Clamp(r.Left, core.PlaneMin, core.PlaneMax-r.Width)
	r.Top = geo.Clamp(r.Top, core.PlaneMin, core.PlaneMax-r.Height)
	return r
}

// CreateZone adds a zone and returns it.
func (s *Store) CreateZone(spec core.ZoneSpec) core.Zone {
	pos := DefaultPosition
	if spec.Position != nil {
		pos = *spec.Position
	}

	s.mu.Lock()
	z := core.Zone{
		ID:       s.ids.NewID(),
		Name:     spec.Name,
		Color:    spec.Color,
		Position: s.Normalize(pos),
		Order:    s.nextOrder,
	}
	if z.Name == "" {
		z.Name = fmt.Sprintf("Zone %d", len(s.zones)+1)
	}
	if z.Color == "" {
		z.Color = core.DefaultZoneColor
	}
	s.nextOrder++
	s.zones[z.ID] = z
	s.mu.Unlock()

	s.log.Debug("Zone created", "zoneId", z.ID, "order", z.Order)
	s.notify()
	return z
}

// UpdateZone replaces the zone with the same id. The stored order is kept.
// It reports false, changing nothing, when the id is unknown.
func (s *Store) UpdateZone(z core.Zone) bool {
	s.mu.Lock()
	cur, ok := s.zones[z.ID]
	if !ok {
		s.mu.Unlock()
		s.log.Debug("Update of unknown zone ignored", "zoneId", z.ID)
		return false
	}
	z.Order = cur.Order
	z.Position = s.Normalize(z.Position)
	if z.Color == "" {
		z.Color = cur.Color
	}
	s.zones[z.ID] = z
	s.mu.Unlock()

	s.notify()
	return true
}

// DeleteZone removes a zone and clears the selection if it pointed at it.
// It reports false when the id is unknown.
func (s *Store) DeleteZone(id string) bool {
	s.mu.Lock()
	if _, ok := s.zones[id]; !ok {
		s.mu.Unlock()
		s.log.Debug("Delete of unknown zone ignored", "zoneId", id)
		return false
	}
	delete(s.zones, id)
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	s.log.Debug("Zone deleted", "zoneId", id)
	s.notify()
	return true
}

// SelectZone selects id. An empty or unknown id clears the selection.
func (s *Store) SelectZone(id string) {
	s.mu.Lock()
	if _, ok := s.zones[id]; ok {
		s.selected = id
	} else {
		s.selected = ""
	}
	s.mu.Unlock()
	s.notify()
}

// SelectedID returns the selected zone id, or "".
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Selected returns the selected zone.
func (s *Store) Selected() (core.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[s.selected]
	return z, ok
}

// Zone returns the zone with the given id.
func (s *Store) Zone(id string) (core.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[id]
	return z, ok
}

// Zones returns a copy of all zones sorted by order.
func (s *Store) Zones() []core.Zone {
	s.mu.RLock()
	zones := make([]core.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, z)
	}
	s.mu.RUnlock()

	core.SortZones(zones)
	return zones
}

// Config returns the zone set config.
func (s *Store) Config() core.ZoneSetConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig merges p into the config. A non-positive grid size is ignored.
func (s *Store) UpdateConfig(p ConfigPatch) {
	rejected := false
	s.mu.Lock()
	if p.GridVisible != nil {
		s.config.GridVisible = *p.GridVisible
	}
	if p.GridSize != nil {
		if *p.GridSize > 0 {
			s.config.GridSize = *p.GridSize
		} else {
			rejected = true
		}
	}
	s.mu.Unlock()

	// logging reads store state through the context handler, so never log under mu
	if rejected {
		s.log.Warn("Ignoring non-positive grid size", "gridSize", *p.GridSize)
	}
	s.notify()
}

// WouldOverlap reports whether candidate overlaps any zone in existing other
// than itself. The store does not enforce it.
func WouldOverlap(existing []core.Zone, candidate core.Zone) bool {
	for _, z := range existing {
		if z.ID == candidate.ID {
			continue
		}
		if geo.RectOverlap(z.Position, candidate.Position) {
			return true
		}
	}
	return false
}
