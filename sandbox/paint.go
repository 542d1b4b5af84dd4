package sandbox

import (
	"strings"

	"github.com/beevik/etree"

	"crsl/assets"
	"crsl/css"
	"crsl/paint"
	"crsl/surface"
)

// layers converts laid out document into paint operations.
func (l *layout) layers(set assets.Set) []paint.Layer {
	var out []paint.Layer
	var walk func(b *box)
	walk = func(b *box) {
		out = append(out, boxLayers(b, set)...)
		for _, c := range b.children {
			walk(c)
		}
	}
	if l.root != nil {
		walk(l.root)
	}
	return out
}

func boxLayers(b *box, set assets.Set) []paint.Layer {
	var out []paint.Layer
	st := b.style
	if b.el != nil {
		bg := st.Get("backgroundColor", "")
		if bg == "" {
			bg = st.Get("background", "")
		}
		if c, ok := css.Color(bg); ok && c.A > 0 {
			out = append(out, paint.Fill{Box: b.rect, Color: c})
		}
		if url, ok := css.URL(st.Get("backgroundImage", st.Get("background", ""))); ok {
			// missing background keeps color underneath visible
			if img := set.Get(url); img != nil {
				fy, _ := css.VerticalPosition(st.Get("backgroundPosition", "center"))
				out = append(out, paint.Picture{Box: b.rect, Src: img, FocusX: 50, FocusY: fy})
			}
		}
	}

	switch b.kind {
	case kindImage:
		fy, ok := css.VerticalPosition(st.Get("objectPosition", "center"))
		if !ok {
			fy = 50
		}
		out = append(out, paint.Picture{
			Box:    b.rect,
			Src:    set.Get(b.el.SelectAttrValue("src", "")),
			FocusX: 50,
			FocusY: fy,
			Circle: isRound(st, b.rect),
		})
	case kindSVG:
		out = append(out, paint.SVG{Box: b.rect, Data: serialize(b.el)})
	case kindText:
		if b.text != "" {
			out = append(out, paint.Text{
				Box:   b.textRect,
				Text:  b.text,
				Style: paint.TextStyleFrom(b.textStyle, paint.TextStyle{Size: defaultFontSize}),
			})
		}
	}
	return out
}

func isRound(st css.Style, r surface.Rect) bool {
	radius := strings.TrimSpace(st.Get("borderRadius", ""))
	if radius == "" {
		return false
	}
	if radius == "50%" || radius == "100%" {
		return true
	}
	v, ok := css.Length(radius, defaultFontSize, min(r.W, r.H))
	return ok && v >= min(r.W, r.H)/2
}

func serialize(el *etree.Element) []byte {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil
	}
	return data
}
