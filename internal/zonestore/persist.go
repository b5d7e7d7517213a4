package zonestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/pkg/core"
)

// Document returns a snapshot of the persisted shape of the zone set.
func (s *Store) Document() core.ZoneDocument {
	return core.ZoneDocument{Zones: s.Zones(), Config: s.Config()}
}

// Save writes the zone set to the backend. The state is snapshotted under
// the lock and written outside it.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return storage.ErrNotInitialized
	}

	doc := s.Document()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode zones: %w", err)
	}

	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		s.log.Error("Failed to save zones", "key", s.key, "error", err)
		return fmt.Errorf("failed to save zones: %w", err)
	}

	if indexer, ok := s.backend.(storage.FootprintIndexer); ok {
		if err := indexer.IndexFootprints(ctx, s.key, doc.Zones); err != nil {
			s.log.Error("Failed to index zone footprints", "key", s.key, "error", err)
			return fmt.Errorf("failed to index footprints: %w", err)
		}
	}

	s.log.Debug("Zones saved", "key", s.key, "zones", len(doc.Zones))
	return nil
}

// Load replaces the zone set with the stored document. A missing document
// leaves the store untouched. The selection is cleared when its zone is gone.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return storage.ErrNotInitialized
	}

	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.log.Error("Failed to load zones", "key", s.key, "error", err)
		return fmt.Errorf("failed to load zones: %w", err)
	}
	if !ok {
		s.log.Debug("No stored zones", "key", s.key)
		return nil
	}

	var doc core.ZoneDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.log.Error("Stored zones are not valid JSON", "key", s.key, "error", err)
		return fmt.Errorf("failed to decode zones: %w", err)
	}

	s.mu.Lock()
	s.zones = make(map[string]core.Zone, len(doc.Zones))
	s.nextOrder = 1
	for _, z := range doc.Zones {
		if z.Order > 0 && z.Order >= s.nextOrder {
			s.nextOrder = z.Order + 1
		}
	}
	for _, z := range doc.Zones {
		if z.ID == "" {
			continue
		}
		// documents written before zones carried an order keep file order
		if z.Order <= 0 {
			z.Order = s.nextOrder
			s.nextOrder++
		}
		if z.Color == "" {
			z.Color = core.DefaultZoneColor
		}
		z.Position = s.Normalize(z.Position)
		s.zones[z.ID] = z
	}
	s.config.GridVisible = doc.Config.GridVisible
	if doc.Config.GridSize > 0 {
		s.config.GridSize = doc.Config.GridSize
	}
	if _, ok := s.zones[s.selected]; !ok {
		s.selected = ""
	}
	count := len(s.zones)
	s.mu.Unlock()

	s.log.Info("Zones loaded", "key", s.key, "zones", count)
	s.notify()
	return nil
}
