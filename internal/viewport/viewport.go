// Package viewport implements the camera over the yard map: pan and pinch
// gestures, stepped zoom and reset, all bounded by a scale range and
// animated with springs driven by the host frame clock.
//
// A Controller is not safe for concurrent use.
package viewport

import (
	"math"
	"time"

	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/pkg/core"
)

// Config holds camera limits and animation tuning.
type Config struct {
	MinScale     float64
	MaxScale     float64
	InitialScale float64
	ZoomStep     float64
	Spring       SpringConfig
}

// DefaultConfig returns the stock camera settings.
func DefaultConfig() Config {
	return Config{
		MinScale:     0.5,
		MaxScale:     3.0,
		InitialScale: 1.0,
		ZoomStep:     0.2,
		Spring:       SpringConfig{Stiffness: 170, Damping: 26},
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTranslateBounds installs a function applied to every translation
// before it is committed. The default leaves translation unbounded.
func WithTranslateBounds(fn func(x, y, scale float64) (float64, float64)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.bounds = fn
		}
	}
}

// Controller owns the viewport transform and its gesture baselines.
type Controller struct {
	cfg    Config
	bounds func(x, y, scale float64) (float64, float64)

	tx, ty, scale spring

	savedX, savedY, savedScale float64
	panning, pinching          bool
}

// New creates a controller at the identity transform.
func New(cfg Config, opts ...Option) *Controller {
	def := DefaultConfig()
	if !(cfg.MinScale > 0) {
		cfg.MinScale = def.MinScale
	}
	if !(cfg.MaxScale >= cfg.MinScale) {
		cfg.MaxScale = math.Max(def.MaxScale, cfg.MinScale)
	}
	if !(cfg.ZoomStep > 0) {
		cfg.ZoomStep = def.ZoomStep
	}
	if !(cfg.Spring.Stiffness > 0) {
		cfg.Spring = def.Spring
	}
	// under-damped springs overshoot the scale range and may never settle
	if critical := 2 * math.Sqrt(cfg.Spring.Stiffness); !(cfg.Spring.Damping >= critical) {
		cfg.Spring.Damping = critical
	}
	cfg.InitialScale = geo.Clamp(cfg.InitialScale, cfg.MinScale, cfg.MaxScale)

	c := &Controller{
		cfg: cfg,
		bounds: func(x, y, _ float64) (float64, float64) {
			return x, y
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scale.set(cfg.InitialScale)
	c.savedScale = cfg.InitialScale
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (c *Controller) clampScale(s float64) float64 {
	return geo.Clamp(s, c.cfg.MinScale, c.cfg.MaxScale)
}

// PanStart begins a pan from the current translation, stopping any
// translation animation.
func (c *Controller) PanStart() {
	c.panning = true
	c.tx.set(c.tx.value)
	c.ty.set(c.ty.value)
	c.savedX, c.savedY = c.tx.value, c.ty.value
}

// PanMove sets translation to the baseline plus the cumulative delta.
// Non-finite deltas are ignored.
func (c *Controller) PanMove(dx, dy float64) {
	if !c.panning || !finite(dx, dy) {
		return
	}
	x, y := c.bounds(c.savedX+dx, c.savedY+dy, c.scale.value)
	c.tx.set(x)
	c.ty.set(y)
}

// PanEnd commits the translation as the new baseline.
func (c *Controller) PanEnd() {
	if !c.panning {
		return
	}
	c.panning = false
	c.savedX, c.savedY = c.tx.value, c.ty.value
}

// PinchStart begins a pinch from the saved scale. After ZoomIn or ZoomOut
// that is the zoom target, so the pinch composes with a zoom still animating.
func (c *Controller) PinchStart() {
	c.pinching = true
	c.savedScale = c.scale.target
}

// PinchMove sets scale to the baseline times factor, clamped. Non-positive
// or non-finite factors are ignored.
func (c *Controller) PinchMove(factor float64) {
	if !c.pinching || !finite(factor) || factor <= 0 {
		return
	}
	c.scale.set(c.clampScale(c.savedScale * factor))
}

// PinchEnd commits the scale as the new baseline.
func (c *Controller) PinchEnd() {
	if !c.pinching {
		return
	}
	c.pinching = false
	c.savedScale = c.scale.target
}

// ZoomIn animates toward the next larger scale step.
func (c *Controller) ZoomIn() {
	c.zoomTo(c.scale.target + c.cfg.ZoomStep)
}

// ZoomOut animates toward the next smaller scale step.
func (c *Controller) ZoomOut() {
	c.zoomTo(c.scale.target - c.cfg.ZoomStep)
}

func (c *Controller) zoomTo(s float64) {
	target := c.clampScale(s)
	c.scale.target = target
	c.savedScale = target
}

// ResetView animates back to the identity transform and resets baselines.
func (c *Controller) ResetView() {
	c.panning, c.pinching = false, false
	c.tx.target, c.ty.target = 0, 0
	c.scale.target = c.cfg.InitialScale
	c.savedX, c.savedY, c.savedScale = 0, 0, c.cfg.InitialScale
}

// Advance steps the animations by dt.
func (c *Controller) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	c.tx.step(c.cfg.Spring, dt)
	c.ty.step(c.cfg.Spring, dt)
	c.scale.step(c.cfg.Spring, dt)
	c.scale.bound(c.cfg.MinScale, c.cfg.MaxScale)
}

// Settle jumps every animation to its target.
func (c *Controller) Settle() {
	c.tx.set(c.tx.target)
	c.ty.set(c.ty.target)
	c.scale.set(c.scale.target)
}

// Animating reports whether any animation is still running.
func (c *Controller) Animating() bool {
	return !c.tx.settled() || !c.ty.settled() || !c.scale.settled()
}

// TargetScale returns the scale the zoom animation is heading to.
func (c *Controller) TargetScale() float64 {
	return c.scale.target
}

// Transform returns the current transform.
func (c *Controller) Transform() core.ViewportTransform {
	return core.ViewportTransform{
		TranslateX: c.tx.value,
		TranslateY: c.ty.value,
		Scale:      c.scale.value,
	}
}

// ContentToScreen maps a content point to screen pixels.
func (c *Controller) ContentToScreen(p core.Point) core.Point {
	t := c.Transform()
	return core.Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// ScreenToContent maps a screen point to content pixels.
func (c *Controller) ScreenToContent(p core.Point) core.Point {
	t := c.Transform()
	return core.Point{X: (p.X - t.TranslateX) / t.Scale, Y: (p.Y - t.TranslateY) / t.Scale}
}
