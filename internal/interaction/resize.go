package interaction

import (
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/pkg/core"
)

// Handle names the part of a zone a resize gesture grabbed.
type Handle string

const (
	HandleTopLeft     Handle = "topLeft"
	HandleTopRight    Handle = "topRight"
	HandleBottomLeft  Handle = "bottomLeft"
	HandleBottomRight Handle = "bottomRight"
	HandleTop         Handle = "top"
	HandleRight       Handle = "right"
	HandleBottom      Handle = "bottom"
	HandleLeft        Handle = "left"
)

// Handles lists every resize handle.
var Handles = []Handle{
	HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight,
	HandleTop, HandleRight, HandleBottom, HandleLeft,
}

// Valid reports whether h is a known handle.
func (h Handle) Valid() bool {
	for _, known := range Handles {
		if h == known {
			return true
		}
	}
	return false
}

// edges reports which edges a handle moves.
func (h Handle) edges() (top, right, bottom, left bool) {
	switch h {
	case HandleTopLeft:
		return true, false, false, true
	case HandleTopRight:
		return true, true, false, false
	case HandleBottomLeft:
		return false, false, true, true
	case HandleBottomRight:
		return false, true, true, false
	case HandleTop:
		return true, false, false, false
	case HandleRight:
		return false, true, false, false
	case HandleBottom:
		return false, false, true, false
	case HandleLeft:
		return false, false, false, true
	}
	return false, false, false, false
}

// resizeRect applies a handle displacement in percent units to r and runs the
// constraint pipeline: size limits, aspect ratio, plane clamp, grid snap and
// a final plane re-fit. Edges the handle does not move stay anchored unless
// the final re-fit has to move them.
func (c *Controller) resizeRect(r core.Rect, h Handle, dx, dy, grid float64) core.Rect {
	mTop, mRight, mBottom, mLeft := h.edges()
	b := c.cfg.Bounds

	top, left, right, bottom := r.Top, r.Left, r.Right(), r.Bottom()
	if mTop {
		top += dy
	}
	if mBottom {
		bottom += dy
	}
	if mLeft {
		left += dx
	}
	if mRight {
		right += dx
	}

	// size limits, keeping the anchored edge
	w := geo.Clamp(right-left, c.cfg.MinSize, c.cfg.MaxSize)
	hgt := geo.Clamp(bottom-top, c.cfg.MinSize, c.cfg.MaxSize)
	if mLeft {
		left = right - w
	} else {
		right = left + w
	}
	if mTop {
		top = bottom - hgt
	} else {
		bottom = top + hgt
	}

	// aspect ratio: vertical-only handles drive width, all others drive height
	if ar := c.cfg.AspectRatio; ar > 0 {
		if (mTop || mBottom) && !mLeft && !mRight {
			w = geo.Clamp(hgt*ar, c.cfg.MinSize, c.cfg.MaxSize)
			right = left + w
		} else {
			hgt = geo.Clamp(w/ar, c.cfg.MinSize, c.cfg.MaxSize)
			if mTop {
				top = bottom - hgt
			} else {
				bottom = top + hgt
			}
		}
	}

	// plane clamp by shrinking the moving side
	left = geo.Clamp(left, b.Left, b.Right())
	right = geo.Clamp(right, b.Left, b.Right())
	top = geo.Clamp(top, b.Top, b.Bottom())
	bottom = geo.Clamp(bottom, b.Top, b.Bottom())

	out := core.Rect{Top: top, Left: left, Width: right - left, Height: bottom - top}

	if grid > 0 {
		out.Top = geo.Snap(out.Top, grid)
		out.Left = geo.Snap(out.Left, grid)
		out.Width = geo.Snap(out.Width, grid)
		out.Height = geo.Snap(out.Height, grid)
	}

	return c.refit(out)
}

// refit restores the plane and size invariants, moving the rect if it must.
func (c *Controller) refit(r core.Rect) core.Rect {
	b := c.cfg.Bounds
	r.Width = geo.Clamp(r.Width, c.cfg.MinSize, b.Width)
	r.Height = geo.Clamp(r.Height, c.cfg.MinSize, b.Height)
	r.Left = geo.Clamp(r.Left, b.Left, b.Right()-r.Width)
	r.Top = geo.Clamp(r.Top, b.Top, b.Bottom()-r.Height)
	return r
}
