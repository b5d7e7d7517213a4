package handlers

import (
	"fmt"

	"github.com/motoyard/yardmap/internal/dispatcher"
	"github.com/motoyard/yardmap/internal/util"
	"github.com/motoyard/yardmap/internal/zonestore"
	"github.com/motoyard/yardmap/pkg/core"
)

// parseRect reads top, left, width, height.
func parseRect(args []string) (core.Rect, error) {
	v, err := util.ParseFloats(args...)
	if err != nil {
		return core.Rect{}, err
	}
	return core.Rect{Top: v[0], Left: v[1], Width: v[2], Height: v[3]}, nil
}

// handleZoneCreate takes optional name, color and top, left, width, height.
func (s *Service) handleZoneCreate(e dispatcher.Event) (any, error) {
	var spec core.ZoneSpec
	if len(e.Args) > 0 {
		spec.Name = util.CleanArg(e.Args[0])
	}
	if len(e.Args) > 1 {
		spec.Color = util.CleanArg(e.Args[1])
	}
	if len(e.Args) >= 6 {
		r, err := parseRect(e.Args[2:6])
		if err != nil {
			return nil, err
		}
		spec.Position = &r
	} else if len(e.Args) > 2 {
		return nil, fmt.Errorf("position needs 4 values, got %d", len(e.Args)-2)
	}
	return s.deps.Surface.Store().CreateZone(spec), nil
}

// handleZoneUpdate takes id, name, color, top, left, width, height.
func (s *Service) handleZoneUpdate(e dispatcher.Event) (any, error) {
	r, err := parseRect(e.Args[3:7])
	if err != nil {
		return nil, err
	}
	z := core.Zone{
		ID:       util.CleanArg(e.Args[0]),
		Name:     util.CleanArg(e.Args[1]),
		Color:    util.CleanArg(e.Args[2]),
		Position: r,
	}
	return s.deps.Surface.Store().UpdateZone(z), nil
}

func (s *Service) handleZoneDelete(e dispatcher.Event) (any, error) {
	id := util.CleanArg(e.Args[0])
	s.deps.Surface.Interaction().Cancel(id)
	return s.deps.Surface.Store().DeleteZone(id), nil
}

// handleZoneSelect clears the selection when called without an id.
func (s *Service) handleZoneSelect(e dispatcher.Event) (any, error) {
	id := ""
	if len(e.Args) > 0 {
		id = util.CleanArg(e.Args[0])
	}
	store := s.deps.Surface.Store()
	store.SelectZone(id)
	return store.SelectedID(), nil
}

func (s *Service) handleZoneList(dispatcher.Event) (any, error) {
	return s.deps.Surface.Store().Zones(), nil
}

// handleConfigGrid takes visible and an optional grid size.
func (s *Service) handleConfigGrid(e dispatcher.Event) (any, error) {
	visible, err := util.ParseBool(e.Args[0])
	if err != nil {
		return nil, err
	}
	patch := zonestore.ConfigPatch{GridVisible: &visible}
	if len(e.Args) > 1 {
		size, err := util.ParseInt(e.Args[1])
		if err != nil {
			return nil, err
		}
		patch.GridSize = &size
	}
	store := s.deps.Surface.Store()
	store.UpdateConfig(patch)
	return store.Config(), nil
}
