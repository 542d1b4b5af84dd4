package render

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"crsl/carousel"
	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// Edits supplies pending edits which are not yet part of the document.
type Edits interface {
	GetEditedValue(slide int, field common.RegionType, fallback string) string
	ElementStyle(slide int, t common.RegionType) css.Style
}

// Workspace owns surfaces of all slides of one open document.
type Workspace struct {
	log    *zap.Logger
	r      *Renderer
	geom   surface.Geometry
	mounts *surface.Mounts
}

func NewWorkspace(r *Renderer, g surface.Geometry, log *zap.Logger) *Workspace {
	return &Workspace{
		log:    log.Named("workspace"),
		r:      r,
		geom:   g,
		mounts: surface.NewMounts(),
	}
}

// Mounts returns registry of mounted surfaces.
func (w *Workspace) Mounts() *surface.Mounts {
	return w.mounts
}

func (w *Workspace) Geometry() surface.Geometry {
	return w.geom
}

// SlideData returns render input of slide with pending edits applied.
func SlideData(doc *carousel.Document, edits Edits, i int) surface.SlideData {
	sd := doc.SlideData(i)
	if edits == nil {
		return sd
	}
	for _, t := range common.RegionTypeValues() {
		v := edits.GetEditedValue(i, t, sd.Value(t))
		switch t {
		case common.RegionTypeTitle:
			sd.Title = v
		case common.RegionTypeSubtitle:
			sd.Subtitle = v
		case common.RegionTypeName:
			sd.Name = v
		case common.RegionTypeHandle:
			sd.Handle = v
		case common.RegionTypeImage:
			sd.Image = v
		case common.RegionTypeBackground:
			sd.Background = v
		case common.RegionTypeAvatar:
			sd.Avatar = v
		}
		if patch := edits.ElementStyle(i, t); len(patch) > 0 {
			sd.Styles[t] = sd.Style(t).Merge(patch)
		}
	}
	return sd
}

// Mount renders every slide of the document. Slides which fail to render
// stay unmounted, their errors are combined.
func (w *Workspace) Mount(ctx context.Context, doc *carousel.Document, edits Edits) error {
	var errs error
	for i := range doc.Slides {
		if err := w.MountSlide(ctx, doc, edits, i); err != nil {
			if ctx.Err() != nil {
				return multierr.Append(errs, ctx.Err())
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// MountSlide renders slide i replacing its previous surface.
func (w *Workspace) MountSlide(ctx context.Context, doc *carousel.Document, edits Edits, i int) error {
	if i < 0 || i >= len(doc.Slides) {
		return fmt.Errorf("slide %d is out of range [0, %d)", i, len(doc.Slides))
	}
	s, err := w.r.Render(ctx, doc.Template(i), SlideData(doc, edits, i), w.geom)
	if err != nil {
		w.mounts.Unmount(i)
		return err
	}
	w.mounts.Mount(s)
	return nil
}

// Unmount removes slide surface, its elements can no longer be resolved.
func (w *Workspace) Unmount(i int) {
	w.mounts.Unmount(i)
}

// UnmountAll removes every surface.
func (w *Workspace) UnmountAll() {
	for _, s := range w.mounts.All() {
		w.mounts.Unmount(s.Slide())
	}
}
