package pincher

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"crsl/common"
	"crsl/config"
	"crsl/css"
	"crsl/editor"
	"crsl/surface"
)

var (
	// ErrDragInProgress is returned when handle is pressed while another drag
	// is active.
	ErrDragInProgress = errors.New("drag is already in progress")
	ErrNoDrag         = errors.New("no drag in progress")
	ErrNoTarget       = errors.New("no pincher target")
	ErrNotImage       = errors.New("element is not an image region")
)

// Controller drives handles of single target element. Target is resolved
// through mounts on every use and never cached as live node.
type Controller struct {
	log     *zap.Logger
	session *editor.Session
	mounts  *surface.Mounts
	bounds  Bounds
	divisor float64
	zoom    float64

	target *surface.Element
	drag   *DragSession
}

func New(cfg *config.EditorConfig, session *editor.Session, mounts *surface.Mounts, log *zap.Logger) *Controller {
	return &Controller{
		log:     log.Named("pincher"),
		session: session,
		mounts:  mounts,
		bounds:  Bounds{Min: cfg.Pincher.MinHeight, Max: cfg.Pincher.MaxHeight},
		divisor: cfg.Pincher.FocusDivisor,
		zoom:    cfg.Zoom,
	}
}

// Bounds returns configured height limits.
func (c *Controller) Bounds() Bounds {
	return c.bounds
}

// Attach makes e target of handles. Drag of previous target is dropped.
func (c *Controller) Attach(e surface.Element) error {
	if !e.Type.IsImage() {
		return fmt.Errorf("%s: %w", e, ErrNotImage)
	}
	if _, _, err := c.mounts.Resolve(e); err != nil {
		return err
	}
	c.Detach()
	c.target = &e
	return nil
}

// Detach removes handles. Active drag is discarded: style already applied to
// the surface stays, nothing is committed to the session.
func (c *Controller) Detach() {
	if c.drag != nil {
		c.log.Debug("Drag discarded", zap.Stringer("element", c.drag.Element), zap.Stringer("handle", c.drag.Handle))
	}
	c.target, c.drag = nil, nil
}

// Target returns attached element.
func (c *Controller) Target() (surface.Element, bool) {
	if c.target == nil {
		return surface.Element{}, false
	}
	return *c.target, true
}

// Active reports whether a drag is in progress.
func (c *Controller) Active() bool {
	return c.drag != nil
}

// Overlay computes handle positions from current target geometry.
func (c *Controller) Overlay(origin surface.Point) (Overlay, error) {
	if c.target == nil {
		return Overlay{}, ErrNoTarget
	}
	_, reg, err := c.mounts.Resolve(*c.target)
	if err != nil {
		return Overlay{}, err
	}
	return NewOverlay(reg.Box, origin, c.zoom), nil
}

// Down starts drag of handle h at pointer position y.
func (c *Controller) Down(h common.Handle, y float64) error {
	if c.drag != nil {
		return ErrDragInProgress
	}
	if c.target == nil {
		return ErrNoTarget
	}
	if !h.IsValid() {
		return fmt.Errorf("unknown handle %q", h)
	}
	_, reg, err := c.mounts.Resolve(*c.target)
	if err != nil {
		return err
	}
	d := &DragSession{
		Element:      *c.target,
		Handle:       h,
		StartY:       y,
		Bounds:       c.bounds,
		FocusDivisor: c.divisor,
	}
	if h == common.HandleMove {
		d.StartFocus = ParseFocus(reg.Style.Get(positionProperty(reg.Type), "center"))
	} else {
		d.StartHeight = reg.Box.H
		if reg.Box.Empty() {
			// collapsed box, fall back to declared height
			d.StartHeight, _ = css.Length(reg.Style.Get("height", ""), 16, 0)
		}
	}
	c.drag = d
	c.log.Debug("Drag started", zap.Stringer("element", d.Element), zap.Stringer("handle", h),
		zap.Float64("height", d.StartHeight), zap.Float64("focus", d.StartFocus))
	return nil
}

// Move applies live value for pointer at y to the surface.
func (c *Controller) Move(y float64) (css.Style, error) {
	if c.drag == nil {
		return nil, ErrNoDrag
	}
	patch := c.drag.Value(y)
	if err := c.apply(c.drag.Element, patch); err != nil {
		return nil, err
	}
	return patch, nil
}

// Up ends drag and commits final value into element style override.
func (c *Controller) Up(y float64) (css.Style, error) {
	if c.drag == nil {
		return nil, ErrNoDrag
	}
	d := c.drag
	c.drag = nil

	patch := d.Value(y)
	if err := c.apply(d.Element, patch); err != nil {
		c.log.Warn("Unable to apply final drag value", zap.Stringer("element", d.Element), zap.Error(err))
	}
	c.session.SetElementStyle(d.Element.Slide, d.Element.Type, patch)
	c.log.Debug("Drag committed", zap.Stringer("element", d.Element), zap.String("style", patch.String()))
	return patch, nil
}

func (c *Controller) apply(e surface.Element, patch css.Style) error {
	s, _, err := c.mounts.Resolve(e)
	if err != nil {
		return err
	}
	return s.ApplyStyle(e.Type, patch)
}
