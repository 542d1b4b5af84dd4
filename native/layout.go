package native

import (
	"strings"

	"crsl/assets"
	"crsl/css"
	"crsl/inject"
	"crsl/paint"
	"crsl/surface"
)

const defaultFontSize = 16

var rootStyle = css.Style{
	"fontSize":   css.FormatPx(defaultFontSize),
	"fontFamily": "sans-serif",
	"color":      "#000000",
}

type frame struct {
	outer   surface.Rect
	content surface.Rect
	margin  [4]float64
}

// layout is computed geometry of component tree.
type layout struct {
	frames  map[*Node]*frame
	styles  map[*Node]css.Style // computed, with inherited properties
	order   []*Node             // paint order
	sources []string
}

type layouter struct {
	measurer *paint.Measurer
	assets   assets.Set
	slide    surface.Rect
	out      *layout
	seen     map[string]bool
}

func newLayout(root *Node, m *paint.Measurer, set assets.Set, g surface.Geometry) *layout {
	lo := &layouter{
		measurer: m,
		assets:   set,
		slide:    g.Bounds(),
		out: &layout{
			frames: make(map[*Node]*frame),
			styles: make(map[*Node]css.Style),
		},
		seen: make(map[string]bool),
	}
	if root == nil {
		return lo.out
	}
	lo.place(root, rootStyle, 0, 0, lo.slide.W)
	if f, ok := lo.out.frames[root]; ok {
		f.outer = lo.slide
	}
	return lo.out
}

func px(st css.Style, name string, base, ref float64) (float64, bool) {
	return css.Length(st.Get(name, ""), base, ref)
}

func (lo *layouter) computeStyle(n *Node, parent css.Style) css.Style {
	st := css.Inherit(parent).Merge(n.Effective())
	parentSize, ok := px(parent, "fontSize", defaultFontSize, defaultFontSize)
	if !ok {
		parentSize = defaultFontSize
	}
	size, ok := css.Length(st.Get("fontSize", ""), parentSize, parentSize)
	if !ok {
		size = parentSize
	}
	st["fontSize"] = css.FormatPx(size)
	return st
}

func (lo *layouter) addSource(src string) {
	src = strings.TrimSpace(src)
	if src != "" && !lo.seen[src] {
		lo.seen[src] = true
		lo.out.sources = append(lo.out.sources, src)
	}
}

func textStyle(st css.Style) paint.TextStyle {
	return paint.TextStyleFrom(st, paint.TextStyle{Size: defaultFontSize})
}

// place lays node out at x, y within width w and returns its outer height
// including margins.
func (lo *layouter) place(n *Node, parent css.Style, x, y, w float64) float64 {
	st := lo.computeStyle(n, parent)
	lo.out.styles[n] = st
	if strings.EqualFold(st.Get("display", ""), "none") {
		return 0
	}
	lo.out.order = append(lo.out.order, n)

	fontSize, _ := px(st, "fontSize", defaultFontSize, defaultFontSize)
	f := &frame{margin: css.Edges(st, "margin", fontSize, w)}
	pad := css.Edges(st, "padding", fontSize, w)

	bw := w - f.margin[1] - f.margin[3]
	if v, ok := px(st, "width", fontSize, w); ok {
		bw = v
	}
	bw = max(bw, 0)
	f.outer = surface.Rect{X: x + f.margin[3], Y: y + f.margin[0], W: bw}
	f.content = surface.Rect{X: f.outer.X + pad[3], Y: f.outer.Y + pad[0], W: max(0, bw-pad[1]-pad[3])}
	lo.out.frames[n] = f

	explicitH, hasH := px(st, "height", fontSize, lo.slide.H)
	var contentH float64
	switch n.Kind {
	case KindText:
		if text := inject.PlainText(n.Value); text != "" {
			contentH = lo.measurer.Height(text, textStyle(st), f.content.W)
		}
	case KindPicture:
		lo.addSource(n.Value)
		contentH = f.content.W * 9 / 16
		if img := lo.assets.Get(n.Value); img != nil && img.Bounds().Dx() > 0 {
			contentH = f.content.W * float64(img.Bounds().Dy()) / float64(img.Bounds().Dx())
		}
	case KindAvatar:
		lo.addSource(n.Value)
		contentH = f.content.W
	case KindRow:
		contentH = lo.row(n, st, f.content, fontSize)
	default:
		contentH = lo.stack(n, st, f.content, fontSize)
	}
	if url, ok := css.URL(st.Get("backgroundImage", "")); ok {
		lo.addSource(url)
	}

	f.outer.H = contentH + pad[0] + pad[2]
	if hasH {
		f.outer.H = explicitH
	}
	f.content.H = max(0, f.outer.H-pad[0]-pad[2])

	if n.Kind == KindStack && hasH && isEnd(st.Get("justifyContent", "")) {
		if dy := f.content.H - contentH; dy > 0 {
			for _, c := range n.Children {
				if c.Kind != KindBox {
					lo.shift(c, 0, dy)
				}
			}
		}
	}
	return f.margin[0] + f.outer.H + f.margin[2]
}

func isEnd(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "flex-end" || v == "end"
}

// stack places children top to bottom, boxes are placed against slide after
// flow children.
func (lo *layouter) stack(n *Node, st css.Style, content surface.Rect, fontSize float64) float64 {
	gap, _ := px(st, "gap", fontSize, content.W)
	cursor := content.Y
	var boxes []*Node
	for i, c := range n.Children {
		if c.Kind == KindBox {
			boxes = append(boxes, c)
			continue
		}
		if i > 0 && cursor > content.Y {
			cursor += gap
		}
		cursor += lo.place(c, st, content.X, cursor, content.W)
	}
	for _, c := range boxes {
		lo.placeBox(c, st)
	}
	return cursor - content.Y
}

func (lo *layouter) row(n *Node, st css.Style, content surface.Rect, fontSize float64) float64 {
	if len(n.Children) == 0 {
		return 0
	}
	gap, _ := px(st, "gap", fontSize, content.W)
	fixed, auto := 0.0, 0
	widths := make([]float64, len(n.Children))
	for i, c := range n.Children {
		cs := lo.computeStyle(c, st)
		m := css.Edges(cs, "margin", fontSize, content.W)
		if v, ok := px(cs, "width", fontSize, content.W); ok {
			widths[i] = v + m[1] + m[3]
			fixed += widths[i]
		} else {
			widths[i] = -1
			auto++
		}
	}
	autoW := 0.0
	if auto > 0 {
		autoW = max(0, (content.W-fixed-gap*float64(len(n.Children)-1))/float64(auto))
	}

	heights := make([]float64, len(n.Children))
	var height float64
	cursor := content.X
	for i, c := range n.Children {
		iw := widths[i]
		if iw < 0 {
			iw = autoW
		}
		heights[i] = lo.place(c, st, cursor, content.Y, iw)
		height = max(height, heights[i])
		cursor += iw + gap
	}
	if strings.EqualFold(st.Get("alignItems", ""), "center") {
		for i, c := range n.Children {
			lo.shift(c, 0, (height-heights[i])/2)
		}
	}
	return height
}

// placeBox positions box against slide bounds.
func (lo *layouter) placeBox(n *Node, parent css.Style) {
	st := lo.computeStyle(n, parent)
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

	lo.place(n, parent, x, 0, w)
	f, ok := lo.out.frames[n]
	if !ok {
		return
	}
	switch {
	case hasT:
		lo.shift(n, 0, cb.Y+top)
	case hasB:
		lo.shift(n, 0, cb.Y+cb.H-bottom-f.outer.H)
	}
}

func (lo *layouter) shift(n *Node, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	f, ok := lo.out.frames[n]
	if !ok {
		return
	}
	f.outer.X += dx
	f.outer.Y += dy
	f.content.X += dx
	f.content.Y += dy
	for _, c := range n.Children {
		lo.shift(c, dx, dy)
	}
}

// layers converts laid out tree into paint operations.
func (l *layout) layers(set assets.Set) []paint.Layer {
	var out []paint.Layer
	for _, n := range l.order {
		f := l.frames[n]
		st := l.styles[n]
		if c, ok := css.Color(st.Get("backgroundColor", "")); ok && c.A > 0 {
			out = append(out, paint.Fill{Box: f.outer, Color: c})
		}
		if url, ok := css.URL(st.Get("backgroundImage", "")); ok {
			if img := set.Get(url); img != nil {
				fy, _ := css.VerticalPosition(st.Get("backgroundPosition", "center"))
				out = append(out, paint.Picture{Box: f.outer, Src: img, FocusX: 50, FocusY: fy})
			}
		}
		switch n.Kind {
		case KindPicture, KindAvatar:
			fy, ok := css.VerticalPosition(st.Get("objectPosition", "center"))
			if !ok {
				fy = 50
			}
			out = append(out, paint.Picture{
				Box:    f.outer,
				Src:    set.Get(n.Value),
				FocusX: 50,
				FocusY: fy,
				Circle: n.Kind == KindAvatar,
			})
		case KindText:
			if text := inject.PlainText(n.Value); text != "" {
				out = append(out, paint.Text{Box: f.content, Text: text, Style: textStyle(st)})
			}
		}
	}
	return out
}
