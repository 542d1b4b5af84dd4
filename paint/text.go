package paint

import (
	"image/color"
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"crsl/css"
)

// Alignment is horizontal text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// TextStyle is resolved text appearance.
type TextStyle struct {
	Family     string
	Size       float64
	LineHeight float64 // multiplier of Size
	Bold       bool
	Italic     bool
	Underline  bool
	Align      Alignment
	Color      color.NRGBA
}

// TextStyleFrom resolves CSS declarations into TextStyle. base supplies values
// for properties missing in st.
func TextStyleFrom(st css.Style, base TextStyle) TextStyle {
	ts := base
	if ts.Size <= 0 {
		ts.Size = 16
	}
	if ts.LineHeight <= 0 {
		ts.LineHeight = 1.2
	}
	if v, ok := css.Length(st.Get("fontSize", ""), ts.Size, ts.Size); ok && v > 0 {
		ts.Size = v
	}
	if v := st.Get("fontFamily", ""); v != "" {
		ts.Family = v
	}
	if v := st.Get("fontWeight", ""); v != "" {
		ts.Bold = css.IsBold(v)
	}
	if v := st.Get("fontStyle", ""); v != "" {
		ts.Italic = strings.EqualFold(v, "italic") || strings.EqualFold(v, "oblique")
	}
	if v := st.Get("textDecoration", ""); v != "" {
		ts.Underline = strings.Contains(strings.ToLower(v), "underline")
	}
	switch strings.ToLower(st.Get("textAlign", "")) {
	case "center":
		ts.Align = AlignCenter
	case "right", "end":
		ts.Align = AlignRight
	case "left", "start":
		ts.Align = AlignLeft
	}
	if c, ok := css.Color(st.Get("color", "")); ok {
		ts.Color = c
	}
	if v := st.Get("lineHeight", ""); v != "" {
		if n, ok := css.Length(v, 1, 100); ok && n > 0 {
			if strings.HasSuffix(v, "px") {
				n /= ts.Size
			}
			ts.LineHeight = n
		}
	}
	return ts
}

// lineAdvance returns distance between baselines in pixels.
func (ts TextStyle) lineAdvance() float64 {
	return ts.Size * ts.LineHeight
}

// Measurer lays text out using real font metrics.
type Measurer struct {
	fonts *Fonts
}

// NewMeasurer returns measurer backed by fonts, default cache when nil.
func NewMeasurer(fonts *Fonts) *Measurer {
	if fonts == nil {
		fonts = DefaultFonts()
	}
	return &Measurer{fonts: fonts}
}

// Wrap breaks text into lines not wider than width. Explicit newlines are
// kept, words longer than width are broken by runes.
func (m *Measurer) Wrap(text string, ts TextStyle, width float64) []string {
	face := m.fonts.faceOrFallback(ts.Family, ts.Size, ts.Bold, ts.Italic)
	return wrap(face, text, width)
}

// Height returns height of wrapped text block.
func (m *Measurer) Height(text string, ts TextStyle, width float64) float64 {
	lines := m.Wrap(text, ts, width)
	return float64(len(lines)) * ts.lineAdvance()
}

func measure(face font.Face, s string) fixed.Int26_6 {
	var adv fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			adv += face.Kern(prev, r)
		}
		if a, ok := face.GlyphAdvance(r); ok {
			adv += a
		}
		prev = r
	}
	return adv
}

func wrap(face font.Face, text string, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	maxW := fixed.Int26_6(math.Max(1, width) * 64)

	var lines []string
	for para := range strings.SplitSeq(text, "\n") {
		words := strings.FieldsFunc(para, unicode.IsSpace)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			candidate := w
			if cur != "" {
				candidate = cur + " " + w
			}
			if measure(face, candidate) <= maxW {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			// break overlong word
			for measure(face, w) > maxW && len([]rune(w)) > 1 {
				runes := []rune(w)
				n := len(runes) - 1
				for n > 1 && measure(face, string(runes[:n])) > maxW {
					n--
				}
				lines = append(lines, string(runes[:n]))
				w = string(runes[n:])
			}
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}
