// Package interaction turns drag and resize gestures on zones into zone
// updates. Each gesture is a small state machine: it stays pending until the
// finger travels past the activation distance, previews constrained geometry
// while active, and commits to the store once on End.
//
// Gesture state (moving/resizing flags, preview geometry) is kept here per
// zone and is never written to the store.
package interaction

import (
	"errors"
	"math"
	"sync"

	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/pkg/core"
)

var (
	// ErrUnknownZone is returned when a gesture starts on a zone the store
	// does not hold.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrGestureActive is returned when a zone already has a gesture.
	ErrGestureActive = errors.New("zone already has an active gesture")
	// ErrUnknownHandle is returned for a resize handle name that is not recognized.
	ErrUnknownHandle = errors.New("unknown resize handle")
)

// ZoneSource is the part of the zone store the controller needs.
type ZoneSource interface {
	Zone(id string) (core.Zone, bool)
	UpdateZone(z core.Zone) bool
	Config() core.ZoneSetConfig
}

// Config tunes gesture handling.
type Config struct {
	// Sensitivity divides screen-pixel deltas into percent units.
	Sensitivity float64
	// ActivationDistance is how far, in screen pixels, a gesture must travel
	// before it engages.
	ActivationDistance float64
	MinSize            float64
	MaxSize            float64
	// AspectRatio is width/height enforced while resizing; 0 leaves it free.
	AspectRatio float64
	// Bounds is the rectangle zones are kept inside.
	Bounds core.Rect
}

// DefaultConfig returns the stock gesture settings.
func DefaultConfig() Config {
	return Config{
		Sensitivity:        3,
		ActivationDistance: 4,
		MinSize:            10,
		MaxSize:            100,
		Bounds:             core.Rect{Top: core.PlaneMin, Left: core.PlaneMin, Width: core.PlaneMax - core.PlaneMin, Height: core.PlaneMax - core.PlaneMin},
	}
}

// Kind is the kind of gesture.
type Kind int

const (
	KindDrag Kind = iota + 1
	KindResize
)

// Outcome is how a gesture ended.
type Outcome int

const (
	// OutcomeTap means the gesture never engaged; nothing was updated.
	OutcomeTap Outcome = iota + 1
	// OutcomeCommitted means the preview geometry was written to the store.
	OutcomeCommitted
	// OutcomeDropped means the zone disappeared mid-gesture.
	OutcomeDropped
	// OutcomeNone means there was no gesture for the zone.
	OutcomeNone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTap:
		return "tap"
	case OutcomeCommitted:
		return "committed"
	case OutcomeDropped:
		return "dropped"
	default:
		return "none"
	}
}

// Result reports the end of a gesture.
type Result struct {
	Outcome Outcome
	Zone    core.Zone
}

type gesture struct {
	kind     Kind
	handle   Handle
	start    core.Point
	snapshot core.Zone
	preview  core.Rect
	active   bool
}

// Controller runs drag and resize gestures against a ZoneSource.
type Controller struct {
	store ZoneSource
	cfg   Config

	mu       sync.Mutex
	gestures map[string]*gesture
}

// New creates a controller. Zero config fields take their defaults.
func New(store ZoneSource, cfg Config) *Controller {
	def := DefaultConfig()
	if !(cfg.Sensitivity > 0) {
		cfg.Sensitivity = def.Sensitivity
	}
	if !(cfg.ActivationDistance >= 0) {
		cfg.ActivationDistance = def.ActivationDistance
	}
	if !(cfg.MinSize > 0) {
		cfg.MinSize = def.MinSize
	}
	if !(cfg.MaxSize >= cfg.MinSize) {
		cfg.MaxSize = math.Max(def.MaxSize, cfg.MinSize)
	}
	if !(cfg.AspectRatio > 0) {
		cfg.AspectRatio = 0
	}
	if !(cfg.Bounds.Width > 0 && cfg.Bounds.Height > 0) {
		cfg.Bounds = def.Bounds
	}
	return &Controller{
		store:    store,
		cfg:      cfg,
		gestures: make(map[string]*gesture),
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// BeginDrag starts a drag of zoneID at the screen point at.
func (c *Controller) BeginDrag(zoneID string, at core.Point) error {
	return c.begin(zoneID, KindDrag, "", at)
}

// BeginResize starts a resize of zoneID from the given handle.
func (c *Controller) BeginResize(zoneID string, handle Handle, at core.Point) error {
	if !handle.Valid() {
		return ErrUnknownHandle
	}
	return c.begin(zoneID, KindResize, handle, at)
}

func (c *Controller) begin(zoneID string, kind Kind, handle Handle, at core.Point) error {
	z, ok := c.store.Zone(zoneID)
	if !ok {
		return ErrUnknownZone
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.gestures[zoneID]; busy {
		return ErrGestureActive
	}
	c.gestures[zoneID] = &gesture{
		kind:     kind,
		handle:   handle,
		start:    at,
		snapshot: z,
		preview:  z.Position,
	}
	return nil
}

// Move feeds the cumulative screen-pixel displacement since Begin. It returns
// the preview rectangle and whether the gesture has engaged. Non-finite
// deltas are ignored.
func (c *Controller) Move(zoneID string, delta core.Point) (core.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[zoneID]
	if !ok {
		return core.Rect{}, false
	}
	if math.IsNaN(delta.X) || math.IsNaN(delta.Y) || math.IsInf(delta.X, 0) || math.IsInf(delta.Y, 0) {
		return g.preview, g.active
	}

	if !g.active {
		if math.Hypot(delta.X, delta.Y) <= c.cfg.ActivationDistance {
			return g.preview, false
		}
		g.active = true
	}

	dx := delta.X / c.cfg.Sensitivity
	dy := delta.Y / c.cfg.Sensitivity
	grid := c.gridSize()

	switch g.kind {
	case KindDrag:
		g.preview = c.dragRect(g.snapshot.Position, dx, dy, grid)
	case KindResize:
		g.preview = c.resizeRect(g.snapshot.Position, g.handle, dx, dy, grid)
	}
	return g.preview, true
}

// End finishes the gesture on zoneID. An engaged gesture commits its preview
// through UpdateZone; a gesture that never engaged is reported as a tap.
func (c *Controller) End(zoneID string) Result {
	c.mu.Lock()
	g, ok := c.gestures[zoneID]
	delete(c.gestures, zoneID)
	c.mu.Unlock()

	if !ok {
		return Result{Outcome: OutcomeNone}
	}
	if !g.active {
		return Result{Outcome: OutcomeTap, Zone: g.snapshot}
	}

	// the zone may have been renamed or recolored while the gesture ran
	z, exists := c.store.Zone(zoneID)
	if !exists {
		return Result{Outcome: OutcomeDropped, Zone: g.snapshot}
	}
	z.Position = g.preview
	if !c.store.UpdateZone(z) {
		return Result{Outcome: OutcomeDropped, Zone: g.snapshot}
	}
	return Result{Outcome: OutcomeCommitted, Zone: z}
}

// Cancel abandons the gesture on zoneID without touching the store.
func (c *Controller) Cancel(zoneID string) {
	c.mu.Lock()
	delete(c.gestures, zoneID)
	c.mu.Unlock()
}

// CancelAll abandons every gesture.
func (c *Controller) CancelAll() {
	c.mu.Lock()
	clear(c.gestures)
	c.mu.Unlock()
}

// Flags reports the transient gesture flags of a zone.
func (c *Controller) Flags(zoneID string) (moving, resizing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[zoneID]
	if !ok || !g.active {
		return false, false
	}
	return g.kind == KindDrag, g.kind == KindResize
}

// Preview returns the preview geometry of an engaged gesture.
func (c *Controller) Preview(zoneID string) (core.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[zoneID]
	if !ok || !g.active {
		return core.Rect{}, false
	}
	return g.preview, true
}

// Active reports whether zoneID has a gesture, engaged or not.
func (c *Controller) Active(zoneID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.gestures[zoneID]
	return ok
}

func (c *Controller) gridSize() float64 {
	cfg := c.store.Config()
	if !cfg.GridVisible || cfg.GridSize <= 0 {
		return 0
	}
	return float64(cfg.GridSize)
}

func (c *Controller) dragRect(r core.Rect, dx, dy, grid float64) core.Rect {
	b := c.cfg.Bounds
	left := geo.Snap(r.Left+dx, grid)
	top := geo.Snap(r.Top+dy, grid)
	r.Left = geo.Clamp(left, b.Left, b.Right()-r.Width)
	r.Top = geo.Clamp(top, b.Top, b.Bottom()-r.Height)
	return r
}
