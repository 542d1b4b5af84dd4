// Package selection keeps single selection over marked regions of all
// mounted slides.
package selection

import (
	"fmt"

	"go.uber.org/zap"

	"crsl/editor"
	"crsl/surface"
)

// State of selection machine.
type State int

const (
	Unselected State = iota
	Selected
)

func (s State) String() string {
	if s == Selected {
		return "selected"
	}
	return "unselected"
}

// FontReporter receives computed font of selected text region.
type FontReporter interface {
	ReportFont(e surface.Element, f surface.Font)
}

// Overlay is attached to selected image regions, see pincher.Controller.
type Overlay interface {
	Attach(e surface.Element) error
	Detach()
}

// Result describes outcome of selection change.
type Result struct {
	State   State
	Element surface.Element
	Region  surface.Region
	Font    *surface.Font // text regions only
	Target  bool          // overlay was attached to image region
}

// Controller is Unselected/Selected state machine. All surfaces are reached
// through mounts on every call.
type Controller struct {
	log     *zap.Logger
	session *editor.Session
	mounts  *surface.Mounts
	fonts   FontReporter
	overlay Overlay
	current int
}

type Option func(*Controller)

func WithFontReporter(r FontReporter) Option {
	return func(c *Controller) { c.fonts = r }
}

func WithOverlay(o Overlay) Option {
	return func(c *Controller) { c.overlay = o }
}

func New(session *editor.Session, mounts *surface.Mounts, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		log:     log.Named("selection"),
		session: session,
		mounts:  mounts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns index of current slide.
func (c *Controller) Current() int {
	return c.current
}

// State returns current state.
func (c *Controller) State() State {
	if _, ok := c.session.Selection(); ok {
		return Selected
	}
	return Unselected
}

// SwitchSlide makes slide i current. Selection is always dropped and active
// drag is discarded.
func (c *Controller) SwitchSlide(i int) {
	c.log.Debug("Switching slide", zap.Int("from", c.current), zap.Int("to", i))
	c.current = i
	c.Unselect()
}

// Click selects region under point p of slide. Clicking another slide makes
// it current first. Nothing under the point results in Unselected.
func (c *Controller) Click(slide int, p surface.Point) (Result, error) {
	if slide != c.current {
		c.SwitchSlide(slide)
	}
	s, ok := c.mounts.Get(slide)
	if !ok {
		return Result{}, fmt.Errorf("slide %d is not mounted", slide)
	}
	reg, ok := surface.HitTest(s.Regions(), p)
	if !ok {
		c.Unselect()
		return Result{State: Unselected}, nil
	}
	return c.Select(surface.Element{Slide: slide, Type: reg.Type})
}

// Select makes e the only selected element of the document.
func (c *Controller) Select(e surface.Element) (Result, error) {
	if e.Slide != c.current {
		c.SwitchSlide(e.Slide)
	}
	s, reg, err := c.mounts.Resolve(e)
	if err != nil {
		return Result{}, err
	}
	if c.overlay != nil {
		c.overlay.Detach()
	}
	// exclusivity across all mounted slides
	c.mounts.ClearSelected()
	if err := s.SetSelected(e.Type); err != nil {
		return Result{}, err
	}
	c.session.Select(e)

	res := Result{State: Selected, Element: e, Region: reg}
	switch {
	case e.Type.IsImage():
		if c.overlay != nil {
			if err := c.overlay.Attach(e); err != nil {
				c.log.Warn("Unable to attach handles", zap.Stringer("element", e), zap.Error(err))
			} else {
				res.Target = true
			}
		}
	case e.Type.IsText():
		f, err := s.ComputedFont(e.Type)
		if err != nil {
			c.log.Debug("No computed font", zap.Stringer("element", e), zap.Error(err))
			break
		}
		res.Font = &f
		if c.fonts != nil {
			c.fonts.ReportFont(e, f)
		}
	}
	c.log.Debug("Selected", zap.Stringer("element", e))
	return res, nil
}

// Unselect drops selection everywhere.
func (c *Controller) Unselect() {
	if c.overlay != nil {
		c.overlay.Detach()
	}
	c.mounts.ClearSelected()
	c.session.ClearSelections()
}

// Selection returns selected element.
func (c *Controller) Selection() (surface.Element, bool) {
	return c.session.Selection()
}
