// Package render picks rendering strategy per template and mounts whole
// documents as sets of slide surfaces.
package render

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"crsl/assets"
	"crsl/common"
	"crsl/config"
	"crsl/native"
	"crsl/paint"
	"crsl/sandbox"
	"crsl/surface"
)

// ErrUnknownTemplate is returned for native template ids nothing is
// registered for. Unknown legacy ids fall back to default template.
var ErrUnknownTemplate = native.ErrUnknownTemplate

// Renderer routes slides to sandboxed or native renderer and hides which one
// was used behind surface.Surface.
type Renderer struct {
	log    *zap.Logger
	legacy *sandbox.Renderer
	native *native.Renderer
}

// New combines strategy renderers.
func New(legacy *sandbox.Renderer, nat *native.Renderer, log *zap.Logger) *Renderer {
	return &Renderer{log: log.Named("render"), legacy: legacy, native: nat}
}

// NewFromConfig creates renderer with both strategies sharing single asset
// loader and painter.
func NewFromConfig(cfg *config.Config, loader *assets.Loader, log *zap.Logger) (*Renderer, error) {
	lib, err := sandbox.NewLibrary(cfg.Render.TemplatesPath, log)
	if err != nil {
		return nil, err
	}
	if _, ok := lib.Lookup(cfg.Render.DefaultTemplate); !ok {
		return nil, fmt.Errorf("default template %q is not available", cfg.Render.DefaultTemplate)
	}
	painter := paint.NewPainter(nil, log)
	return New(
		sandbox.NewRenderer(lib, loader, painter, cfg.Render.DefaultTemplate, log),
		native.NewRenderer(loader, painter, log),
		log,
	), nil
}

// Render mounts slide using strategy selected by template id.
func (r *Renderer) Render(ctx context.Context, templateID string, sd surface.SlideData, g surface.Geometry) (surface.Surface, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("slide %d: invalid geometry %dx%d", sd.Index, g.Width, g.Height)
	}
	strategy := common.StrategyFor(templateID)
	r.log.Debug("Rendering slide", zap.Int("slide", sd.Index), zap.String("template", templateID), zap.Stringer("strategy", strategy))

	if strategy == common.StrategyNative {
		s, err := r.native.Render(ctx, templateID, sd, g)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", sd.Index, err)
		}
		return s, nil
	}
	s, err := r.legacy.Render(ctx, templateID, sd, g)
	if err != nil {
		return nil, fmt.Errorf("slide %d: %w", sd.Index, err)
	}
	return s, nil
}

// TemplateInfo describes available template.
type TemplateInfo struct {
	ID       string
	Strategy common.Strategy
	Origin   string
}

// Templates lists legacy templates followed by native ones.
func (r *Renderer) Templates() []TemplateInfo {
	var out []TemplateInfo
	lib := r.legacy.Library()
	for _, id := range lib.IDs() {
		t, _ := lib.Lookup(id)
		out = append(out, TemplateInfo{ID: id, Strategy: common.StrategySandboxed, Origin: t.Origin})
	}
	for _, id := range native.IDs() {
		out = append(out, TemplateInfo{ID: id, Strategy: common.StrategyNative, Origin: "builtin"})
	}
	return out
}
