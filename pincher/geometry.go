// Package pincher resizes and repositions image regions with drag handles.
// Handle positions are recomputed from live region geometry on every render,
// drag state lives in DragSession value.
package pincher

import (
	"math"
	"strconv"

	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// Bounds limit resized height.
type Bounds struct {
	Min, Max float64
}

// Clamp returns v limited to bounds. Inverted bounds collapse to Min, NaN
// resolves to Min.
func (b Bounds) Clamp(v float64) float64 {
	hi := max(b.Min, b.Max)
	if math.IsNaN(v) {
		return b.Min
	}
	return math.Min(math.Max(v, b.Min), hi)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Min(math.Max(v, 0), 100)
}

// ParseFocus returns vertical focus percentage of position value ("center
// 45%", "50% 30%", "top"). Unknown values are centered.
func ParseFocus(position string) float64 {
	if v, ok := css.VerticalPosition(position); ok {
		return clampPercent(v)
	}
	return 50
}

// FormatFocus renders focus percentage as position value.
func FormatFocus(focus float64) string {
	return "center " + strconv.FormatFloat(math.Round(clampPercent(focus)*100)/100, 'f', -1, 64) + "%"
}

// Overlay is declarative description of handles drawn over target element in
// container coordinates.
type Overlay struct {
	Box    surface.Rect
	Top    surface.Point
	Bottom surface.Point
	Move   surface.Point
}

// NewOverlay translates element box into container space: container origin is
// subtracted and result divided by zoom. Degenerate zoom is treated as 1,
// negative or NaN sizes as zero.
func NewOverlay(box surface.Rect, origin surface.Point, zoom float64) Overlay {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	finite := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	r := surface.Rect{
		X: finite((box.X - origin.X) / zoom),
		Y: finite((box.Y - origin.Y) / zoom),
		W: max(0, finite(box.W/zoom)),
		H: max(0, finite(box.H/zoom)),
	}
	cx := r.X + r.W/2
	return Overlay{
		Box:    r,
		Top:    surface.Point{X: cx, Y: r.Y},
		Bottom: surface.Point{X: cx, Y: r.Y + r.H},
		Move:   surface.Point{X: cx, Y: r.Y + r.H/2},
	}
}

// HandleAt returns handle within radius of p. Resize handles win over move
// handle when they overlap on tiny boxes.
func (o Overlay) HandleAt(p surface.Point, radius float64) (common.Handle, bool) {
	near := func(h surface.Point) bool {
		return math.Hypot(p.X-h.X, p.Y-h.Y) <= radius
	}
	switch {
	case near(o.Top):
		return common.HandleTop, true
	case near(o.Bottom):
		return common.HandleBottom, true
	case near(o.Move):
		return common.HandleMove, true
	}
	return "", false
}

// DragSession is state of one handle drag between pointer down and up.
type DragSession struct {
	Element      surface.Element
	Handle       common.Handle
	StartY       float64
	StartHeight  float64 // resize handles
	StartFocus   float64 // move handle
	Bounds       Bounds
	FocusDivisor float64
}

// Height returns clamped height for pointer at currentY.
func (d DragSession) Height(currentY float64) float64 {
	delta := currentY - d.StartY
	if d.Handle == common.HandleTop {
		return d.Bounds.Clamp(d.StartHeight - delta)
	}
	return d.Bounds.Clamp(d.StartHeight + delta)
}

// Focus returns vertical focus percentage for pointer at currentY.
func (d DragSession) Focus(currentY float64) float64 {
	div := d.FocusDivisor
	if !(div > 0) {
		div = 5
	}
	return clampPercent(d.StartFocus - (currentY-d.StartY)/div)
}

// positionProperty returns style property holding focus of region type.
func positionProperty(t common.RegionType) string {
	if t == common.RegionTypeBackground {
		return "backgroundPosition"
	}
	return "objectPosition"
}

// Value returns style patch produced by pointer at currentY.
func (d DragSession) Value(currentY float64) css.Style {
	if d.Handle == common.HandleMove {
		return css.Style{positionProperty(d.Element.Type): FormatFocus(d.Focus(currentY))}
	}
	return css.Style{"height": css.FormatPx(d.Height(currentY))}
}
