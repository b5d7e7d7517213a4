// Package surface composes the zone store, viewport, gesture controller and
// marker locator into the interactive yard map. It owns the draw mode used
// to create zones by tapping two points, the user-visible notices, and the
// frame handed to the renderer.
package surface

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/interaction"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/internal/queue"
	"github.com/motoyard/yardmap/internal/viewport"
	"github.com/motoyard/yardmap/internal/zonestore"
	"github.com/motoyard/yardmap/pkg/core"
)

// DrawMode selects what a tap does.
type DrawMode string

const (
	ModeSelect    DrawMode = "select"
	ModeCircle    DrawMode = "circle"
	ModeRectangle DrawMode = "rectangle"
)

// ErrUnknownMode is returned by SetDrawMode for an unrecognized mode.
var ErrUnknownMode = errors.New("unknown draw mode")

// ErrInvalidSize is returned when a container has no positive size.
var ErrInvalidSize = errors.New("container size must be positive")

// NoticeCode identifies a user-visible notice.
type NoticeCode string

const (
	NoticeDrawTooSmall NoticeCode = "draw_too_small"
	NoticeDrawTimeout  NoticeCode = "draw_timeout"
)

// Notice is a message for the user, e.g. a toast.
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

const maxNotices = 32

// DrawConfig tunes zone creation by drawing.
type DrawConfig struct {
	// MinSize is the smallest width and height, in percent, a drawn zone
	// may have.
	MinSize float64
	// Timeout cancels a draw whose second tap never comes.
	Timeout time.Duration
}

// DefaultDrawConfig returns the stock draw settings.
func DefaultDrawConfig() DrawConfig {
	return DrawConfig{MinSize: 5, Timeout: 5 * time.Second}
}

// Dependencies holds the collaborators of a Surface.
type Dependencies struct {
	Store       *zonestore.Store
	Viewport    *viewport.Controller
	Interaction *interaction.Controller
	Locator     *locator.Locator
	Clock       Clock
	Logger      *slog.Logger
}

// TapAction is what a tap did.
type TapAction string

const (
	TapSelected TapAction = "selected"
	TapCleared  TapAction = "cleared"
	TapStarted  TapAction = "started"
	TapCreated  TapAction = "created"
	TapRejected TapAction = "rejected"
)

// TapResult reports the effect of a tap.
type TapResult struct {
	Action TapAction `json:"action"`
	Zone   core.Zone `json:"zone,omitzero"`
}

// Surface is the interactive yard map.
type Surface struct {
	store       *zonestore.Store
	viewport    *viewport.Controller
	interaction *interaction.Controller
	locator     *locator.Locator
	clock       Clock
	log         *slog.Logger
	cfg         DrawConfig
	notices     *queue.Queue[Notice]

	mu       sync.Mutex
	mode     DrawMode
	pending  *core.Point
	timer    Timer
	timerGen uint64

	markersMu    sync.Mutex
	markers      []core.Marker
	markersStale atomic.Bool
	resolved     []func([]core.Marker, []locator.Transition)
}

// New creates a surface in select mode and subscribes it to store changes.
func New(deps Dependencies, cfg DrawConfig) *Surface {
	def := DefaultDrawConfig()
	if !(cfg.MinSize > 0) {
		cfg.MinSize = def.MinSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Viewport == nil {
		deps.Viewport = viewport.New(viewport.DefaultConfig())
	}
	if deps.Interaction == nil {
		deps.Interaction = interaction.New(deps.Store, interaction.DefaultConfig())
	}

	s := &Surface{
		store:       deps.Store,
		viewport:    deps.Viewport,
		interaction: deps.Interaction,
		locator:     deps.Locator,
		clock:       deps.Clock,
		log:         deps.Logger,
		cfg:         cfg,
		notices:     queue.NewBounded[Notice](maxNotices),
		mode:        ModeSelect,
	}
	s.markersStale.Store(true)
	s.store.OnChange(func() { s.markersStale.Store(true) })
	return s
}

// Store returns the zone store.
func (s *Surface) Store() *zonestore.Store { return s.store }

// Viewport returns the viewport controller.
func (s *Surface) Viewport() *viewport.Controller { return s.viewport }

// Interaction returns the gesture controller.
func (s *Surface) Interaction() *interaction.Controller { return s.interaction }

// Mode returns the draw mode.
func (s *Surface) Mode() DrawMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Pending returns the first tap of a draw in progress.
func (s *Surface) Pending() (core.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return core.Point{}, false
	}
	return *s.pending, true
}

// SetDrawMode switches mode and abandons any draw in progress.
func (s *Surface) SetDrawMode(mode DrawMode) error {
	switch mode {
	case ModeSelect, ModeCircle, ModeRectangle:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	s.mu.Lock()
	s.clearPendingLocked()
	s.mode = mode
	s.mu.Unlock()

	s.log.Debug("Draw mode changed", "mode", mode)
	return nil
}

// clearPendingLocked drops the first tap and its timeout. s.mu must be held.
func (s *Surface) clearPendingLocked() {
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// Tap handles a tap at p in plane percent.
func (s *Surface) Tap(p core.Point) TapResult {
	if !geo.IsFinitePoint(p) {
		s.log.Debug("Non-finite tap ignored", "x", p.X, "y", p.Y)
		return TapResult{Action: TapRejected}
	}

	s.mu.Lock()
	mode := s.mode
	if mode == ModeSelect {
		s.mu.Unlock()
		return s.selectAt(p)
	}

	if s.pending == nil {
		start := p
		s.pending = &start
		s.timerGen++
		gen := s.timerGen
		s.timer = s.clock.AfterFunc(s.cfg.Timeout, func() { s.expire(gen) })
		s.mu.Unlock()
		return TapResult{Action: TapStarted}
	}

	start := *s.pending
	s.clearPendingLocked()
	rect := drawRect(mode, start, p)
	if rect.Width < s.cfg.MinSize || rect.Height < s.cfg.MinSize {
		s.mu.Unlock()
		s.notify(NoticeDrawTooSmall, fmt.Sprintf("Zone must be at least %g%% wide and tall", s.cfg.MinSize))
		s.log.Debug("Drawn zone rejected", "mode", mode, "width", rect.Width, "height", rect.Height)
		return TapResult{Action: TapRejected}
	}
	s.mode = ModeSelect
	s.mu.Unlock()

	z := s.store.CreateZone(core.ZoneSpec{Position: &rect})
	s.store.SelectZone(z.ID)
	s.log.Info("Zone drawn", "zoneId", z.ID, "mode", mode)
	return TapResult{Action: TapCreated, Zone: z}
}

func (s *Surface) selectAt(p core.Point) TapResult {
	zoneID, ok := locator.Locate(p, s.store.Zones())
	if !ok {
		s.store.SelectZone("")
		return TapResult{Action: TapCleared}
	}
	s.store.SelectZone(zoneID)
	z, _ := s.store.Zone(zoneID)
	return TapResult{Action: TapSelected, Zone: z}
}

// expire runs on the clock's goroutine when a draw times out.
func (s *Surface) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.timer = nil
	s.mode = ModeSelect
	s.mu.Unlock()

	s.notify(NoticeDrawTimeout, "Drawing cancelled")
	s.log.Debug("Draw timed out")
}

// drawRect builds the rectangle spanned by two taps. In circle mode the
// first tap is the center and the second sets the radius; the bounding
// square is clipped to the plane.
func drawRect(mode DrawMode, a, b core.Point) core.Rect {
	if mode == ModeCircle {
		r := geo.Distance(a, b)
		left := geo.Clamp(a.X-r, core.PlaneMin, core.PlaneMax)
		right := geo.Clamp(a.X+r, core.PlaneMin, core.PlaneMax)
		top := geo.Clamp(a.Y-r, core.PlaneMin, core.PlaneMax)
		bottom := geo.Clamp(a.Y+r, core.PlaneMin, core.PlaneMax)
		return core.Rect{Top: top, Left: left, Width: right - left, Height: bottom - top}
	}
	left := min(a.X, b.X)
	top := min(a.Y, b.Y)
	return core.Rect{
		Top:    top,
		Left:   left,
		Width:  max(a.X, b.X) - left,
		Height: max(a.Y, b.Y) - top,
	}
}

func (s *Surface) notify(code NoticeCode, msg string) {
	s.notices.Push(Notice{Code: code, Message: msg, At: s.clock.Now()})
}

// Notices drains pending user-visible notices.
func (s *Surface) Notices() []Notice {
	return s.notices.Drain()
}

// ScreenToPercent maps a screen point through the inverse viewport to plane
// percent of a container of the given pixel size.
func (s *Surface) ScreenToPercent(screen core.Point, width, height float64) (core.Point, error) {
	if !(width > 0) || !(height > 0) {
		return core.Point{}, ErrInvalidSize
	}
	return geo.PointToPercent(s.viewport.ScreenToContent(screen), width, height), nil
}
