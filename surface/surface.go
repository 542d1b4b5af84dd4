// Package surface defines render surface capability shared by both slide
// rendering strategies, and registry of mounted surfaces.
package surface

import (
	"context"
	"errors"
	"fmt"
	"image"

	"crsl/common"
	"crsl/css"
)

// ErrNoRegion is returned when surface has no region of requested type.
var ErrNoRegion = errors.New("no such region")

// MarkerID returns stable id of the region marker.
func MarkerID(slide int, t common.RegionType) string {
	return fmt.Sprintf("slide-%d-%s", slide, t)
}

// Element identifies editable region of a slide. It is a lookup key only and
// must be resolved against live surface every time it is used.
type Element struct {
	Slide int
	Type  common.RegionType
}

// ID returns marker id of the element.
func (e Element) ID() string {
	return MarkerID(e.Slide, e.Type)
}

func (e Element) String() string {
	return e.ID()
}

// Region is a snapshot of marked region state on a live surface.
type Region struct {
	ID    string
	Type  common.RegionType
	Box   Rect
	Style css.Style // effective style: template defaults with overrides applied
	Value string    // inner content, markup for sandboxed surfaces
}

// Font describes computed font of text region.
type Font struct {
	Family string
	Size   float64
	Weight string
	Style  string
}

// SlideData is content rendered on a single slide with edits already applied.
type SlideData struct {
	Index      int
	Count      int // number of slides in the document
	Title      string
	Subtitle   string
	Background string // background image url
	Image      string // slide image url
	Name       string
	Handle     string
	Avatar     string // avatar image url
	Styles     map[common.RegionType]css.Style
}

// Value returns content of the region type.
func (d SlideData) Value(t common.RegionType) string {
	switch t {
	case common.RegionTypeTitle:
		return d.Title
	case common.RegionTypeSubtitle:
		return d.Subtitle
	case common.RegionTypeName:
		return d.Name
	case common.RegionTypeHandle:
		return d.Handle
	case common.RegionTypeImage:
		return d.Image
	case common.RegionTypeBackground:
		return d.Background
	case common.RegionTypeAvatar:
		return d.Avatar
	}
	return ""
}

// Style returns style overrides for region type, never nil.
func (d SlideData) Style(t common.RegionType) css.Style {
	if st, ok := d.Styles[t]; ok && st != nil {
		return st
	}
	return css.Style{}
}

// Surface is mounted slide. Both rendering strategies implement it and callers
// never touch underlying nodes directly.
type Surface interface {
	Slide() int
	TemplateID() string
	Strategy() common.Strategy
	Geometry() Geometry

	// QueryRegion returns current state of marked region.
	QueryRegion(t common.RegionType) (Region, error)
	// ReadRegionValue returns current inner content of marked region.
	ReadRegionValue(t common.RegionType) (string, error)
	// WriteRegionValue replaces inner content directly on live surface,
	// bypassing editor state (rich text editing).
	WriteRegionValue(t common.RegionType, value string) error
	// ApplyStyle merges patch into live region style.
	ApplyStyle(t common.RegionType, patch css.Style) error
	// CaptureSnapshot rasterizes current surface state.
	CaptureSnapshot(ctx context.Context) (image.Image, error)

	// Regions lists all marked regions in document order.
	Regions() []Region
	SetSelected(t common.RegionType) error
	ClearSelected()
	Selected() (common.RegionType, bool)
	ComputedFont(t common.RegionType) (Font, error)

	// Markup returns serialized live document, empty for native surfaces.
	Markup() string
	// Dump returns human readable tree of surface for debugging.
	Dump() string
}
