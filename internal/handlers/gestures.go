package handlers

import (
	"time"

	"github.com/motoyard/yardmap/internal/dispatcher"
	"github.com/motoyard/yardmap/internal/interaction"
	"github.com/motoyard/yardmap/internal/util"
	"github.com/motoyard/yardmap/pkg/core"
)

// optionalPoint reads x, y from args when both are present.
func optionalPoint(args []string) (core.Point, error) {
	if len(args) < 2 {
		return core.Point{}, nil
	}
	v, err := util.ParseFloats(args[0], args[1])
	if err != nil {
		return core.Point{}, err
	}
	return core.Point{X: v[0], Y: v[1]}, nil
}

// handleDragStart takes zoneId and an optional screen x, y.
func (s *Service) handleDragStart(e dispatcher.Event) (any, error) {
	at, err := optionalPoint(e.Args[1:])
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Surface.Interaction().BeginDrag(util.CleanArg(e.Args[0]), at)
}

// handleResizeStart takes zoneId, handle and an optional screen x, y.
func (s *Service) handleResizeStart(e dispatcher.Event) (any, error) {
	at, err := optionalPoint(e.Args[2:])
	if err != nil {
		return nil, err
	}
	handle := interaction.Handle(util.CleanArg(e.Args[1]))
	return nil, s.deps.Surface.Interaction().BeginResize(util.CleanArg(e.Args[0]), handle, at)
}

type movePreview struct {
	Position core.Rect `json:"position"`
	Engaged  bool      `json:"engaged"`
}

// handleGestureMove takes zoneId and the cumulative screen dx, dy.
func (s *Service) handleGestureMove(e dispatcher.Event) (any, error) {
	d, err := util.ParseFloats(e.Args[1], e.Args[2])
	if err != nil {
		return nil, err
	}
	r, engaged := s.deps.Surface.Interaction().Move(util.CleanArg(e.Args[0]), core.Point{X: d[0], Y: d[1]})
	return movePreview{Position: r, Engaged: engaged}, nil
}

type gestureResult struct {
	Outcome string    `json:"outcome"`
	Zone    core.Zone `json:"zone"`
}

func (s *Service) handleGestureEnd(e dispatcher.Event) (any, error) {
	res := s.deps.Surface.Interaction().End(util.CleanArg(e.Args[0]))
	return gestureResult{Outcome: res.Outcome.String(), Zone: res.Zone}, nil
}

func (s *Service) handleGestureCancel(e dispatcher.Event) (any, error) {
	s.deps.Surface.Interaction().Cancel(util.CleanArg(e.Args[0]))
	return nil, nil
}

func (s *Service) handlePanStart(dispatcher.Event) (any, error) {
	s.deps.Surface.Viewport().PanStart()
	return nil, nil
}

func (s *Service) handlePanMove(e dispatcher.Event) (any, error) {
	d, err := util.ParseFloats(e.Args[0], e.Args[1])
	if err != nil {
		return nil, err
	}
	vp := s.deps.Surface.Viewport()
	vp.PanMove(d[0], d[1])
	return vp.Transform(), nil
}

func (s *Service) handlePanEnd(dispatcher.Event) (any, error) {
	vp := s.deps.Surface.Viewport()
	vp.PanEnd()
	return vp.Transform(), nil
}

func (s *Service) handlePinchStart(dispatcher.Event) (any, error) {
	s.deps.Surface.Viewport().PinchStart()
	return nil, nil
}

func (s *Service) handlePinchMove(e dispatcher.Event) (any, error) {
	factor, err := util.ParseFloat(e.Args[0])
	if err != nil {
		return nil, err
	}
	vp := s.deps.Surface.Viewport()
	vp.PinchMove(factor)
	return vp.Transform(), nil
}

func (s *Service) handlePinchEnd(dispatcher.Event) (any, error) {
	vp := s.deps.Surface.Viewport()
	vp.PinchEnd()
	return vp.Transform(), nil
}

func (s *Service) handleZoomIn(dispatcher.Event) (any, error) {
	vp := s.deps.Surface.Viewport()
	vp.ZoomIn()
	return vp.TargetScale(), nil
}

func (s *Service) handleZoomOut(dispatcher.Event) (any, error) {
	vp := s.deps.Surface.Viewport()
	vp.ZoomOut()
	return vp.TargetScale(), nil
}

func (s *Service) handleResetView(dispatcher.Event) (any, error) {
	s.deps.Surface.Viewport().ResetView()
	return nil, nil
}

// handleAdvance takes elapsed milliseconds.
func (s *Service) handleAdvance(e dispatcher.Event) (any, error) {
	ms, err := util.ParseFloat(e.Args[0])
	if err != nil {
		return nil, err
	}
	vp := s.deps.Surface.Viewport()
	vp.Advance(time.Duration(ms * float64(time.Millisecond)))
	return vp.Transform(), nil
}

func (s *Service) handleSettle(dispatcher.Event) (any, error) {
	vp := s.deps.Surface.Viewport()
	vp.Settle()
	return vp.Transform(), nil
}
