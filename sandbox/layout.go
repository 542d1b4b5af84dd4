package sandbox

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"crsl/assets"
	"crsl/css"
	"crsl/paint"
	"crsl/surface"
)

type boxKind int

const (
	kindBlock boxKind = iota
	kindText
	kindImage
	kindSVG
)

// inlineTags do not create boxes, their text joins containing text block.
var inlineTags = map[string]bool{
	"span": true, "b": true, "strong": true, "i": true, "em": true, "u": true,
	"a": true, "small": true, "br": true, "sup": true, "sub": true, "mark": true,
	"s": true, "code": true, "label": true, "font": true,
}

const defaultFontSize = 16

type box struct {
	el        *etree.Element // nil for anonymous text
	kind      boxKind
	rect      surface.Rect
	margin    [4]float64 // top, right, bottom, left
	style     css.Style
	text      string
	textStyle css.Style
	textRect  surface.Rect
	children  []*box
}

// layout is computed geometry of a document.
type layout struct {
	root    *box
	boxes   map[*etree.Element]*box      // inline elements map to their text block
	styles  map[*etree.Element]css.Style // computed style of every element
	sources []string                     // referenced images in paint order
}

// regionBox returns box of element as seen by pointer, inline elements get
// their text block area.
func (l *layout) regionBox(el *etree.Element) (surface.Rect, bool) {
	b, ok := l.boxes[el]
	if !ok {
		return surface.Rect{}, false
	}
	if b.el != el {
		return b.textRect, true
	}
	return b.rect, true
}

type layouter struct {
	sheet    *css.Stylesheet
	parser   *css.Parser
	measurer *paint.Measurer
	assets   assets.Set
	slide    surface.Rect
	out      *layout
	seen     map[string]bool
}

func newLayout(doc *etree.Document, sheet *css.Stylesheet, parser *css.Parser, m *paint.Measurer, set assets.Set, g surface.Geometry) *layout {
	lo := &layouter{
		sheet:    sheet,
		parser:   parser,
		measurer: m,
		assets:   set,
		slide:    g.Bounds(),
		out: &layout{
			boxes:  make(map[*etree.Element]*box),
			styles: make(map[*etree.Element]css.Style),
		},
		seen: make(map[string]bool),
	}
	body := findBody(doc)
	if body == nil {
		lo.out.root = &box{rect: lo.slide}
		return lo.out
	}
	bodyStyle := lo.computeStyle(body, css.Style{"fontSize": css.FormatPx(defaultFontSize), "color": "#000000"})
	lo.out.styles[body] = bodyStyle

	container := contentRoot(body)
	if container == nil {
		lo.out.root = &box{el: body, rect: lo.slide, style: bodyStyle}
		return lo.out
	}
	root := lo.layoutElement(container, bodyStyle, 0, 0, lo.slide.W)
	if root == nil {
		root = &box{el: container, style: bodyStyle}
		lo.out.boxes[container] = root
	}
	// slide container always covers whole surface
	root.rect = lo.slide
	lo.out.root = root
	return lo.out
}

func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	switch {
	case root == nil:
		return nil
	case strings.EqualFold(root.Tag, "body"):
		return root
	case strings.EqualFold(root.Tag, "html"):
		for _, el := range root.ChildElements() {
			if strings.EqualFold(el.Tag, "body") {
				return el
			}
		}
		return root
	}
	// markup fragment, its root is content
	return &doc.Element
}

// contentRoot returns first element of body which is not skeleton.
func contentRoot(body *etree.Element) *etree.Element {
	for _, el := range body.ChildElements() {
		switch strings.ToLower(el.Tag) {
		case "head", "title", "style", "script", "link", "meta":
			continue
		}
		return el
	}
	return nil
}

func px(st css.Style, name string, base, ref float64) (float64, bool) {
	return css.Length(st.Get(name, ""), base, ref)
}

func (lo *layouter) computeStyle(el *etree.Element, parent css.Style) css.Style {
	st := css.Inherit(parent)
	classes := strings.Fields(el.SelectAttrValue("class", ""))
	st = st.Merge(lo.sheet.Computed(strings.ToLower(el.Tag), classes))
	st = st.Merge(lo.parser.ParseInline(el.SelectAttrValue("style", "")))

	parentSize, ok := px(parent, "fontSize", defaultFontSize, defaultFontSize)
	if !ok {
		parentSize = defaultFontSize
	}
	if v, ok := css.Length(st.Get("fontSize", ""), parentSize, parentSize); ok {
		st["fontSize"] = css.FormatPx(v)
	} else {
		st["fontSize"] = css.FormatPx(parentSize)
	}
	return st
}

func isAbsolute(st css.Style) bool {
	p := strings.ToLower(st.Get("position", ""))
	return p == "absolute" || p == "fixed"
}

func hasBlockChildren(el *etree.Element) bool {
	for _, c := range el.ChildElements() {
		if !inlineTags[strings.ToLower(c.Tag)] {
			return true
		}
	}
	return false
}

func (lo *layouter) layoutElement(el *etree.Element, parent css.Style, x, y, availW float64) *box {
	st := lo.computeStyle(el, parent)
	lo.out.styles[el] = st
	if strings.EqualFold(st.Get("display", ""), "none") {
		return nil
	}
	fontSize, _ := px(st, "fontSize", defaultFontSize, defaultFontSize)
	tag := strings.ToLower(el.Tag)

	b := &box{el: el, style: st}
	b.margin = css.Edges(st, "margin", fontSize, availW)
	pad := css.Edges(st, "padding", fontSize, availW)

	w := availW - b.margin[1] - b.margin[3]
	if v, ok := px(st, "width", fontSize, availW); ok {
		w = v
	}
	w = max(w, 0)
	b.rect = surface.Rect{X: x + b.margin[3], Y: y + b.margin[0], W: w}
	cx, cy := b.rect.X+pad[3], b.rect.Y+pad[0]
	cw := max(0, w-pad[1]-pad[3])

	explicitH, hasH := px(st, "height", fontSize, lo.slide.H)
	var contentH float64
	switch {
	case tag == "img":
		b.kind = kindImage
		lo.addSource(el.SelectAttrValue("src", ""))
		if !hasH {
			contentH = lo.imageHeight(el, cw)
		}
	case tag == "svg":
		b.kind = kindSVG
		if !hasH {
			contentH = svgHeight(el, cw)
		}
	case !hasBlockChildren(el):
		b.kind = kindText
		lo.mapInline(el, st, b)
		b.text = inlineText(el)
		b.textStyle = lo.textStyleOf(el)
		if b.text != "" {
			contentH = lo.measurer.Height(b.text, lo.textStyle(b.textStyle), cw)
		}
		b.textRect = surface.Rect{X: cx, Y: cy, W: cw, H: contentH}
	default:
		b.kind = kindBlock
		contentH = lo.layoutChildren(b, st, cx, cy, cw)
	}
	if url, ok := css.URL(st.Get("backgroundImage", st.Get("background", ""))); ok {
		lo.addSource(url)
	}

	b.rect.H = contentH + pad[0] + pad[2]
	if hasH {
		b.rect.H = explicitH
	}
	lo.out.boxes[el] = b
	return b
}

func (lo *layouter) textStyle(st css.Style) paint.TextStyle {
	return paint.TextStyleFrom(st, paint.TextStyle{Size: defaultFontSize})
}

func (lo *layouter) addSource(src string) {
	src = strings.TrimSpace(src)
	if src != "" && !lo.seen[src] {
		lo.seen[src] = true
		lo.out.sources = append(lo.out.sources, src)
	}
}

func (lo *layouter) layoutChildren(b *box, st css.Style, x, y, w float64) float64 {
	fontSize, _ := px(st, "fontSize", defaultFontSize, defaultFontSize)
	display := strings.ToLower(st.Get("display", ""))
	row := (display == "flex" || display == "inline-flex") &&
		!strings.HasPrefix(strings.ToLower(st.Get("flexDirection", "row")), "column")

	var flow, absolute []*etree.Element
	cursor := y
	for _, tok := range b.el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if isAbsolute(lo.computeStyle(t, st)) {
				absolute = append(absolute, t)
				continue
			}
			if row {
				flow = append(flow, t)
				continue
			}
			if cb := lo.layoutElement(t, st, x, cursor, w); cb != nil {
				b.children = append(b.children, cb)
				cursor = cb.rect.Y + cb.rect.H + cb.margin[2]
			}
		case *etree.CharData:
			text := collapseSpace(t.Data)
			if row || strings.TrimSpace(text) == "" {
				continue
			}
			text = strings.TrimSpace(text)
			h := lo.measurer.Height(text, lo.textStyle(st), w)
			rect := surface.Rect{X: x, Y: cursor, W: w, H: h}
			b.children = append(b.children, &box{kind: kindText, rect: rect, style: st, text: text, textStyle: st, textRect: rect})
			cursor += h
		}
	}

	height := cursor - y
	if row {
		height = lo.layoutRow(b, st, flow, x, y, w, fontSize)
	}
	for _, el := range absolute {
		if cb := lo.layoutAbsolute(el, st); cb != nil {
			b.children = append(b.children, cb)
		}
	}
	return height
}

func (lo *layouter) layoutRow(b *box, st css.Style, items []*etree.Element, x, y, w, fontSize float64) float64 {
	if len(items) == 0 {
		return 0
	}
	gap, _ := px(st, "gap", fontSize, w)
	fixed, auto := 0.0, 0
	widths := make([]float64, len(items))
	for i, el := range items {
		cs := lo.computeStyle(el, st)
		m := css.Edges(cs, "margin", fontSize, w)
		if v, ok := px(cs, "width", fontSize, w); ok {
			widths[i] = v + m[1] + m[3]
			fixed += widths[i]
		} else {
			widths[i] = -1
			auto++
		}
	}
	autoW := 0.0
	if auto > 0 {
		autoW = max(0, (w-fixed-gap*float64(len(items)-1))/float64(auto))
	}

	var (
		row    []*box
		outerH []float64
		height float64
	)
	cursor := x
	for i, el := range items {
		iw := widths[i]
		if iw < 0 {
			iw = autoW
		}
		cb := lo.layoutElement(el, st, cursor, y, iw)
		cursor += iw + gap
		if cb == nil {
			continue
		}
		h := cb.margin[0] + cb.rect.H + cb.margin[2]
		row = append(row, cb)
		outerH = append(outerH, h)
		height = max(height, h)
	}
	center := strings.EqualFold(st.Get("alignItems", ""), "center")
	for i, cb := range row {
		if center {
			shift(cb, 0, (height-outerH[i])/2)
		}
		b.children = append(b.children, cb)
	}
	return height
}

// layoutAbsolute positions element against slide.
func (lo *layouter) layoutAbsolute(el *etree.Element, parent css.Style) *box {
	st := lo.computeStyle(el, parent)
	fontSize, _ := px(st, "fontSize", defaultFontSize, defaultFontSize)
	cb := lo.slide

	left, hasL := px(st, "left", fontSize, cb.W)
	right, hasR := px(st, "right", fontSize, cb.W)
	top, hasT := px(st, "top", fontSize, cb.H)
	bottom, hasB := px(st, "bottom", fontSize, cb.H)

	w, hasW := px(st, "width", fontSize, cb.W)
	switch {
	case hasW:
	case hasL && hasR:
		w = cb.W - left - right
	case hasL:
		w = cb.W - left
	case hasR:
		w = cb.W - right
	default:
		w = cb.W
	}
	x := cb.X
	switch {
	case hasL:
		x += left
	case hasR:
		x += cb.W - right - w
	}

	b := lo.layoutElement(el, parent, x, 0, w)
	if b == nil {
		return nil
	}
	switch {
	case hasT:
		shift(b, 0, cb.Y+top)
	case hasB:
		shift(b, 0, cb.Y+cb.H-bottom-b.rect.H)
	}
	return b
}

func shift(b *box, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	b.rect.X += dx
	b.rect.Y += dy
	b.textRect.X += dx
	b.textRect.Y += dy
	for _, c := range b.children {
		shift(c, dx, dy)
	}
}

// mapInline records computed styles of inline descendants and maps them to
// containing text block.
func (lo *layouter) mapInline(el *etree.Element, st css.Style, b *box) {
	for _, c := range el.ChildElements() {
		cs := lo.computeStyle(c, st)
		lo.out.styles[c] = cs
		lo.out.boxes[c] = b
		lo.mapInline(c, cs, b)
	}
}

// textStyleOf returns style of text block: when block content is wrapped by
// single inline element its style wins.
func (lo *layouter) textStyleOf(el *etree.Element) css.Style {
	st := lo.out.styles[el]
	for {
		only := singleChild(el)
		if only == nil {
			return st
		}
		el, st = only, lo.out.styles[only]
	}
}

func singleChild(el *etree.Element) *etree.Element {
	var only *etree.Element
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if only != nil {
				return nil
			}
			only = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil
			}
		}
	}
	return only
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

// inlineText returns rendered text of inline content, <br> produces newline.
func inlineText(el *etree.Element) string {
	var sb strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(collapseSpace(t.Data))
			case *etree.Element:
				if strings.EqualFold(t.Tag, "br") {
					sb.WriteByte('\n')
					continue
				}
				walk(t)
			}
		}
	}
	walk(el)
	lines := strings.Split(sb.String(), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(collapseSpace(lines[i]))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (lo *layouter) imageHeight(el *etree.Element, w float64) float64 {
	if img := lo.assets.Get(el.SelectAttrValue("src", "")); img != nil {
		b := img.Bounds()
		if b.Dx() > 0 {
			return w * float64(b.Dy()) / float64(b.Dx())
		}
	}
	if v, err := strconv.ParseFloat(el.SelectAttrValue("height", ""), 64); err == nil && v > 0 {
		return v
	}
	return w * 9 / 16
}

func svgHeight(el *etree.Element, w float64) float64 {
	if vb := strings.Fields(strings.ReplaceAll(el.SelectAttrValue("viewBox", ""), ",", " ")); len(vb) == 4 {
		vw, err1 := strconv.ParseFloat(vb[2], 64)
		vh, err2 := strconv.ParseFloat(vb[3], 64)
		if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
			return w * vh / vw
		}
	}
	if v, err := strconv.ParseFloat(el.SelectAttrValue("height", ""), 64); err == nil && v > 0 {
		return v
	}
	return w
}
