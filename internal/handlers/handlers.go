// Package handlers binds host commands to the yard map engine. Each command
// arrives as a dispatcher.Event whose args are strings; handlers parse them,
// call into the surface and return a JSON-encodable result.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/motoyard/yardmap/internal/dispatcher"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/surface"
	"github.com/motoyard/yardmap/internal/util"
	"github.com/motoyard/yardmap/pkg/core"
)

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Surface    *surface.Surface
	Markers    *locator.StaticSource // optional; enables :MARKERS:SET:
	LogManager *logging.SlogManager
	// AfterSave runs after every successful store save, e.g. to flush telemetry.
	AfterSave func(ctx context.Context)
	// SaveTimeout bounds one store save or load.
	SaveTimeout time.Duration
}

// Service provides handler methods for host commands.
type Service struct {
	deps Dependencies
	ctx  context.Context
}

// NewService creates a new handler service. ctx bounds every handler.
func NewService(ctx context.Context, deps Dependencies) *Service {
	if deps.SaveTimeout <= 0 {
		deps.SaveTimeout = 10 * time.Second
	}
	return &Service{deps: deps, ctx: ctx}
}

func (s *Service) writeLog(command, data, level string) {
	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog(command, data, level)
	}
}

// Register adds every command handler to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	// zones
	d.Register(":ZONE:CREATE:", s.handleZoneCreate, dispatcher.Logged())
	d.Register(":ZONE:UPDATE:", s.handleZoneUpdate, dispatcher.MinArgs(7), dispatcher.Logged())
	d.Register(":ZONE:DELETE:", s.handleZoneDelete, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(":ZONE:SELECT:", s.handleZoneSelect)
	d.Register(":ZONE:LIST:", s.handleZoneList)
	d.Register(":CONFIG:GRID:", s.handleConfigGrid, dispatcher.MinArgs(1), dispatcher.Logged())

	// zone gestures
	d.Register(":DRAG:START:", s.handleDragStart, dispatcher.MinArgs(1))
	d.Register(":RESIZE:START:", s.handleResizeStart, dispatcher.MinArgs(2))
	for _, prefix := range []string{":DRAG", ":RESIZE"} {
		d.Register(prefix+":MOVE:", s.handleGestureMove, dispatcher.MinArgs(3))
		d.Register(prefix+":END:", s.handleGestureEnd, dispatcher.MinArgs(1))
		d.Register(prefix+":CANCEL:", s.handleGestureCancel, dispatcher.MinArgs(1))
	}

	// camera
	d.Register(":PAN:START:", s.handlePanStart)
	d.Register(":PAN:MOVE:", s.handlePanMove, dispatcher.MinArgs(2))
	d.Register(":PAN:END:", s.handlePanEnd)
	d.Register(":PINCH:START:", s.handlePinchStart)
	d.Register(":PINCH:MOVE:", s.handlePinchMove, dispatcher.MinArgs(1))
	d.Register(":PINCH:END:", s.handlePinchEnd)
	d.Register(":VIEW:ZOOMIN:", s.handleZoomIn)
	d.Register(":VIEW:ZOOMOUT:", s.handleZoomOut)
	d.Register(":VIEW:RESET:", s.handleResetView)
	d.Register(":VIEW:ADVANCE:", s.handleAdvance, dispatcher.MinArgs(1))
	d.Register(":VIEW:SETTLE:", s.handleSettle)

	// drawing and selection
	d.Register(":DRAW:MODE:", s.handleDrawMode, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(":TAP:", s.handleTap, dispatcher.MinArgs(2))
	d.Register(":TAP:SCREEN:", s.handleTapScreen, dispatcher.MinArgs(4))
	d.Register(":NOTICES:", s.handleNotices)

	// markers
	d.Register(":MARKERS:SET:", s.handleMarkersSet, dispatcher.MinArgs(1), dispatcher.Logged())
	d.Register(":MARKERS:REFRESH:", s.handleMarkersRefresh)

	// persistence and rendering
	d.Register(":STORE:SAVE:", s.handleStoreSave, dispatcher.Buffered(4), dispatcher.Logged())
	d.Register(":STORE:LOAD:", s.handleStoreLoad, dispatcher.Logged())
	d.Register(":FRAME:", s.handleFrame)
}

func (s *Service) handleDrawMode(e dispatcher.Event) (any, error) {
	mode := surface.DrawMode(util.CleanArg(e.Args[0]))
	if err := s.deps.Surface.SetDrawMode(mode); err != nil {
		return nil, err
	}
	return mode, nil
}

func (s *Service) handleTap(e dispatcher.Event) (any, error) {
	xy, err := util.ParseFloats(e.Args[0], e.Args[1])
	if err != nil {
		return nil, err
	}
	return s.deps.Surface.Tap(core.Point{X: xy[0], Y: xy[1]}), nil
}

// handleTapScreen takes screen x, y and the container width and height.
func (s *Service) handleTapScreen(e dispatcher.Event) (any, error) {
	v, err := util.ParseFloats(e.Args[:4]...)
	if err != nil {
		return nil, err
	}
	p, err := s.deps.Surface.ScreenToPercent(core.Point{X: v[0], Y: v[1]}, v[2], v[3])
	if err != nil {
		return nil, err
	}
	return s.deps.Surface.Tap(p), nil
}

func (s *Service) handleNotices(dispatcher.Event) (any, error) {
	return s.deps.Surface.Notices(), nil
}

func (s *Service) handleMarkersSet(e dispatcher.Event) (any, error) {
	if s.deps.Markers == nil {
		return nil, fmt.Errorf("marker source is read-only")
	}
	var markers []core.Marker
	if err := json.Unmarshal([]byte(util.FixEscapeQuotes(e.Args[0])), &markers); err != nil {
		return nil, fmt.Errorf("invalid markers: %w", err)
	}
	s.deps.Markers.Set(markers)
	if err := s.deps.Surface.RefreshMarkers(s.ctx); err != nil {
		return nil, err
	}
	return len(markers), nil
}

func (s *Service) handleMarkersRefresh(dispatcher.Event) (any, error) {
	if err := s.deps.Surface.RefreshMarkers(s.ctx); err != nil {
		return nil, err
	}
	return s.deps.Surface.Markers(), nil
}

func (s *Service) handleStoreSave(dispatcher.Event) (any, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.deps.SaveTimeout)
	defer cancel()

	if err := s.deps.Surface.Store().Save(ctx); err != nil {
		s.writeLog(":STORE:SAVE:", fmt.Sprintf("Save failed: %v", err), "ERROR")
		return nil, err
	}
	if s.deps.AfterSave != nil {
		s.deps.AfterSave(ctx)
	}
	return "saved", nil
}

func (s *Service) handleStoreLoad(dispatcher.Event) (any, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.deps.SaveTimeout)
	defer cancel()

	if err := s.deps.Surface.Store().Load(ctx); err != nil {
		s.writeLog(":STORE:LOAD:", fmt.Sprintf("Load failed: %v", err), "ERROR")
		return nil, err
	}
	return len(s.deps.Surface.Store().Zones()), nil
}

func (s *Service) handleFrame(dispatcher.Event) (any, error) {
	return s.deps.Surface.Frame(s.ctx), nil
}
