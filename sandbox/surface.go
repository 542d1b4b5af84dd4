package sandbox

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/beevik/etree"

	"crsl/assets"
	"crsl/common"
	"crsl/css"
	"crsl/inject"
	"crsl/surface"
	"crsl/utils/debug"
)

// Surface is legacy slide mounted into its own document. Nothing outside of
// the document is visible to template markup and template styles never leak
// out of it.
type Surface struct {
	r        *Renderer
	slide    int
	template string
	geom     surface.Geometry

	mu       sync.Mutex
	doc      *etree.Document
	lay      *layout // nil when document changed since last layout
	baseline map[common.RegionType]css.Style
	texts    map[common.RegionType]string
}

var _ surface.Surface = (*Surface)(nil)

func (s *Surface) Slide() int                 { return s.slide }
func (s *Surface) TemplateID() string         { return s.template }
func (s *Surface) Strategy() common.Strategy  { return common.StrategySandboxed }
func (s *Surface) Geometry() surface.Geometry { return s.geom }

func (s *Surface) marker(t common.RegionType) *etree.Element {
	return s.doc.FindElement(`//*[@id='` + surface.MarkerID(s.slide, t) + `']`)
}

func (s *Surface) layout() *layout {
	if s.lay == nil {
		s.lay = s.r.layout(s.doc, nil, s.geom)
	}
	return s.lay
}

func (s *Surface) changed() {
	s.lay = nil
}

func (s *Surface) region(el *etree.Element, t common.RegionType) surface.Region {
	lay := s.layout()
	rect, _ := lay.regionBox(el)
	return surface.Region{
		ID:    el.SelectAttrValue("id", ""),
		Type:  t,
		Box:   rect,
		Style: lay.styles[el].Clone(),
		Value: s.value(el, t),
	}
}

func (s *Surface) QueryRegion(t common.RegionType) (surface.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return surface.Region{}, fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	return s.region(el, t), nil
}

func (s *Surface) ReadRegionValue(t common.RegionType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return "", fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	return s.value(el, t), nil
}

// value returns inner markup of text regions and image url of image regions.
func (s *Surface) value(el *etree.Element, t common.RegionType) string {
	if t.IsText() {
		return innerXML(el)
	}
	if strings.EqualFold(el.Tag, "img") {
		return el.SelectAttrValue("src", "")
	}
	st := s.r.parser.ParseInline(el.SelectAttrValue("style", ""))
	if url, ok := css.URL(st.Get("backgroundImage", st.Get("background", ""))); ok {
		return url
	}
	if s.lay != nil {
		url, _ := css.URL(s.lay.styles[el].Get("backgroundImage", ""))
		return url
	}
	return ""
}

// WriteRegionValue replaces region content. Text regions accept inline
// markup, markup which cannot be parsed is written as plain text.
func (s *Surface) WriteRegionValue(t common.RegionType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	defer s.changed()

	switch {
	case t.IsText():
		for len(el.Child) > 0 {
			el.RemoveChildAt(0)
		}
		frag, err := s.r.parse("<x>" + value + "</x>")
		if err != nil {
			el.SetText(value)
			return nil
		}
		for _, tok := range append([]etree.Token(nil), frag.Root().Child...) {
			el.AddChild(tok)
		}
	case strings.EqualFold(el.Tag, "img"):
		el.CreateAttr("src", value)
	default:
		st := s.r.parser.ParseInline(el.SelectAttrValue("style", ""))
		delete(st, "background")
		st["backgroundImage"] = fmt.Sprintf("url('%s')", value)
		el.CreateAttr("style", st.String())
	}
	return nil
}

// ApplyStyle merges patch into inline style of the region element, inline
// declarations beat template stylesheet.
func (s *Surface) ApplyStyle(t common.RegionType, patch css.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	st := s.r.parser.ParseInline(el.SelectAttrValue("style", "")).Merge(patch)
	el.CreateAttr("style", st.String())
	s.changed()
	return nil
}

func (s *Surface) inline(t common.RegionType) css.Style {
	el := s.marker(t)
	if el == nil {
		return nil
	}
	return s.r.parser.ParseInline(el.SelectAttrValue("style", ""))
}

// mounted remembers inline styles and text content of all regions as they
// were rendered.
func (s *Surface) mounted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baseline = make(map[common.RegionType]css.Style)
	s.texts = make(map[common.RegionType]string)
	for _, t := range common.RegionTypeValues() {
		if st := s.inline(t); st != nil {
			s.baseline[t] = st
		}
		if el := s.marker(t); el != nil && t.IsText() {
			s.texts[t] = innerXML(el)
		}
	}
}

// TextChange returns content of text region as it is now and content it had
// when surface was rendered.
func (s *Surface) TextChange(t common.RegionType) (live, rendered string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil || !t.IsText() {
		return "", "", fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	return innerXML(el), s.texts[t], nil
}

// InlineChanges returns inline declarations of region which were changed
// directly on the document after it was rendered.
func (s *Surface) InlineChanges(t common.RegionType) css.Style {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := css.Style{}
	base := s.baseline[t]
	for k, v := range s.inline(t) {
		if v != "" && base[k] != v {
			out[k] = v
		}
	}
	return out
}

// CaptureSnapshot rasterizes document as it is now. Referenced images are
// awaited, those which cannot be loaded are painted as placeholders.
func (s *Surface) CaptureSnapshot(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	markup, err := s.doc.WriteToString()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("slide %d: unable to serialize: %w", s.slide, err)
	}

	// work on a copy so editing could go on while images load
	doc, err := s.r.parse(markup)
	if err != nil {
		return nil, fmt.Errorf("slide %d: %w", s.slide, err)
	}
	lay := s.r.layout(doc, nil, s.geom)

	var set assets.Set
	if s.r.loader != nil && len(lay.sources) > 0 {
		if set, err = s.r.loader.Wait(ctx, lay.sources); err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.slide, err)
		}
		lay = s.r.layout(doc, set, s.geom)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.r.painter.Paint(s.geom, color.White, lay.layers(set)), nil
}

func (s *Surface) Regions() []surface.Region {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []surface.Region
	for _, el := range s.doc.FindElements(`//*[@` + inject.AttrEditable + `]`) {
		t, err := common.ParseRegionType(el.SelectAttrValue(inject.AttrEditable, ""))
		if err != nil {
			continue
		}
		out = append(out, s.region(el, t))
	}
	return out
}

// SetSelected marks region as selected, any other selection on this surface
// is cleared first.
func (s *Surface) SetSelected(t common.RegionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	s.clearSelected()
	el.CreateAttr(inject.AttrSelected, "true")
	return nil
}

func (s *Surface) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelected()
}

func (s *Surface) clearSelected() {
	for _, el := range s.doc.FindElements(`//*[@` + inject.AttrSelected + `]`) {
		el.RemoveAttr(inject.AttrSelected)
	}
}

func (s *Surface) Selected() (common.RegionType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.doc.FindElement(`//*[@` + inject.AttrSelected + `='true']`)
	if el == nil {
		return "", false
	}
	t, err := common.ParseRegionType(el.SelectAttrValue(inject.AttrEditable, ""))
	if err != nil {
		return "", false
	}
	return t, true
}

func (s *Surface) ComputedFont(t common.RegionType) (surface.Font, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.marker(t)
	if el == nil {
		return surface.Font{}, fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	st := s.layout().styles[el]
	size, ok := css.Length(st.Get("fontSize", ""), defaultFontSize, defaultFontSize)
	if !ok {
		size = defaultFontSize
	}
	return surface.Font{
		Family: st.Get("fontFamily", "sans-serif"),
		Size:   size,
		Weight: st.Get("fontWeight", "normal"),
		Style:  st.Get("fontStyle", "normal"),
	}, nil
}

func (s *Surface) Markup() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

func (s *Surface) Dump() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tw := debug.NewTreeWriter()
	tw.Line(0, "slide %d template=%s strategy=%s %dx%d", s.slide, s.template, common.StrategySandboxed, s.geom.Width, s.geom.Height)
	var walk func(b *box, depth int)
	walk = func(b *box, depth int) {
		name := "text"
		if b.el != nil {
			name = strings.ToLower(b.el.Tag)
			if id := b.el.SelectAttrValue("id", ""); id != "" {
				name += "#" + id
			}
		}
		tw.Line(depth, "%s %s", name, b.rect)
		if b.el != nil {
			tw.Fields(depth+1, "style", s.r.parser.ParseInline(b.el.SelectAttrValue("style", "")))
		}
		if b.text != "" {
			tw.TextBlock(depth+1, "text", b.text)
		}
		for _, c := range b.children {
			walk(c, depth+1)
		}
	}
	if root := s.layout().root; root != nil {
		walk(root, 1)
	}
	return tw.String()
}

// innerXML serializes element content without element itself.
func innerXML(el *etree.Element) string {
	if len(el.Child) == 0 {
		return ""
	}
	wrap := el.Copy()
	wrap.Tag, wrap.Space, wrap.Attr = "x", "", nil
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{CanonicalText: true, CanonicalAttrVal: true}
	doc.SetRoot(wrap)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	out = strings.TrimPrefix(out, "<x>")
	return strings.TrimSuffix(out, "</x>")
}
