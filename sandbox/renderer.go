package sandbox

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"crsl/assets"
	"crsl/common"
	"crsl/css"
	"crsl/inject"
	"crsl/paint"
	"crsl/surface"
)

// ErrNoTemplate is returned when neither requested nor default template exists.
var ErrNoTemplate = errors.New("no legacy template")

// Renderer mounts legacy templates into sandboxed surfaces.
type Renderer struct {
	log       *zap.Logger
	lib       *Library
	injector  *inject.Injector
	parser    *css.Parser
	loader    *assets.Loader
	painter   *paint.Painter
	measurer  *paint.Measurer
	defaultID string
}

// NewRenderer creates sandboxed renderer. Unknown template ids fall back to
// defaultID.
func NewRenderer(lib *Library, loader *assets.Loader, painter *paint.Painter, defaultID string, log *zap.Logger) *Renderer {
	return &Renderer{
		log:       log.Named("sandbox"),
		lib:       lib,
		injector:  inject.New(log),
		parser:    css.NewParser(log),
		loader:    loader,
		painter:   painter,
		measurer:  paint.NewMeasurer(nil),
		defaultID: defaultID,
	}
}

// Library returns templates known to renderer.
func (r *Renderer) Library() *Library {
	return r.lib
}

// Render executes template, tags regions, mounts result into isolated
// document and applies style overrides of the slide.
func (r *Renderer) Render(ctx context.Context, templateID string, sd surface.SlideData, g surface.Geometry) (*Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl, ok := r.lib.Lookup(templateID)
	if !ok {
		if tmpl, ok = r.lib.Lookup(r.defaultID); !ok {
			return nil, fmt.Errorf("%w: %q (default %q)", ErrNoTemplate, templateID, r.defaultID)
		}
		r.log.Warn("Unknown legacy template, using default",
			zap.String("template", templateID), zap.String("default", r.defaultID), zap.Int("slide", sd.Index))
	}

	markup, err := tmpl.Execute(sd, g)
	if err != nil {
		return nil, err
	}
	markup, _ = r.injector.Inject(markup, sd)

	doc, err := r.parse(markup)
	if err != nil {
		return nil, fmt.Errorf("slide %d: %w", sd.Index, err)
	}
	s := &Surface{
		r:        r,
		slide:    sd.Index,
		template: tmpl.ID,
		geom:     g,
		doc:      doc,
	}
	for _, t := range common.RegionTypeValues() {
		patch := sd.Style(t)
		if len(patch) == 0 {
			continue
		}
		if err := s.ApplyStyle(t, patch); err != nil {
			r.log.Debug("Style override for missing region ignored", zap.Int("slide", sd.Index), zap.Stringer("region", t))
		}
	}
	s.mounted()
	return s, nil
}

// parse reads markup into fresh isolated document.
func (r *Renderer) parse(markup string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
		Entity:        xml.HTMLEntity,
		AutoClose:     xml.HTMLAutoClose,
	}
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	if err := doc.ReadFromString(markup); err != nil {
		return nil, fmt.Errorf("unable to parse slide markup: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("slide markup has no elements")
	}
	return doc, nil
}

// stylesheet collects template style blocks, interaction styles only matter
// for interactive hosts and are skipped.
func (r *Renderer) stylesheet(doc *etree.Document) *css.Stylesheet {
	sheet := &css.Stylesheet{}
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if strings.EqualFold(c.Tag, "style") {
				if c.SelectAttr(inject.AttrInteraction) == nil {
					part := r.parser.Parse([]byte(c.Text()))
					sheet.Rules = append(sheet.Rules, part.Rules...)
					sheet.Warnings = append(sheet.Warnings, part.Warnings...)
				}
				continue
			}
			walk(c)
		}
	}
	walk(&doc.Element)
	return sheet
}

func (r *Renderer) layout(doc *etree.Document, set assets.Set, g surface.Geometry) *layout {
	return newLayout(doc, r.stylesheet(doc), r.parser, r.measurer, set, g)
}
