package paint

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"crsl/surface"
	"crsl/utils/images"
)

// Placeholder is painted where picture source is missing.
var Placeholder = color.NRGBA{0xd9, 0xd9, 0xd9, 0xff}

// Layer is single drawing operation.
type Layer interface {
	paint(p *Painter, dst *image.RGBA)
}

// Fill paints solid box.
type Fill struct {
	Box   surface.Rect
	Color color.NRGBA
}

// Picture paints image covering its box. Focus values are percentages of
// excess width and height cropped away on the left and top.
type Picture struct {
	Box    surface.Rect
	Src    image.Image // nil paints placeholder
	FocusX float64
	FocusY float64
	Circle bool
}

// Text paints wrapped text starting at top of its box.
type Text struct {
	Box   surface.Rect
	Text  string
	Style TextStyle
}

// SVG paints inline SVG fitted into its box.
type SVG struct {
	Box  surface.Rect
	Data []byte
}

// Painter renders layers onto canvas.
type Painter struct {
	fonts *Fonts
	log   *zap.Logger
}

// NewPainter creates painter using given font cache, default cache when nil.
func NewPainter(fonts *Fonts, log *zap.Logger) *Painter {
	if fonts == nil {
		fonts = DefaultFonts()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Painter{fonts: fonts, log: log.Named("paint")}
}

// Paint draws layers in order over background.
func (p *Painter) Paint(g surface.Geometry, bg color.Color, layers []Layer) *image.RGBA {
	w, h := max(g.Width, 1), max(g.Height, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg == nil {
		bg = color.White
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for _, l := range layers {
		l.paint(p, dst)
	}
	return dst
}

func (l Fill) paint(_ *Painter, dst *image.RGBA) {
	if l.Box.Empty() {
		return
	}
	draw.Draw(dst, l.Box.Image(), image.NewUniform(l.Color), image.Point{}, draw.Over)
}

func (l Picture) paint(_ *Painter, dst *image.RGBA) {
	r := l.Box.Image()
	if r.Empty() {
		return
	}
	var src image.Image = image.NewUniform(Placeholder)
	switch s := l.Src.(type) {
	case nil:
	case *image.Uniform:
		src = s
	default:
		if !s.Bounds().Empty() {
			src = Cover(s, r.Dx(), r.Dy(), l.FocusX, l.FocusY)
		}
	}
	if l.Circle {
		draw.DrawMask(dst, r, src, image.Point{}, &circle{image.Rect(0, 0, r.Dx(), r.Dy())}, image.Point{}, draw.Over)
		return
	}
	draw.Draw(dst, r, src, image.Point{}, draw.Over)
}

func (l Text) paint(p *Painter, dst *image.RGBA) {
	if l.Box.Empty() || l.Text == "" {
		return
	}
	ts := l.Style
	face := p.fonts.faceOrFallback(ts.Family, ts.Size, ts.Bold, ts.Italic)
	lines := wrap(face, l.Text, l.Box.W)
	adv := ts.lineAdvance()
	ascent := float64(face.Metrics().Ascent) / 64
	col := ts.Color
	if col == (color.NRGBA{}) {
		col = color.NRGBA{A: 0xff}
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		lw := float64(measure(face, line)) / 64
		x := l.Box.X
		switch ts.Align {
		case AlignCenter:
			x += (l.Box.W - lw) / 2
		case AlignRight:
			x += l.Box.W - lw
		}
		baseline := l.Box.Y + float64(i)*adv + (adv-ts.Size)/2 + ascent
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)}
		d.DrawString(line)
		if ts.Underline && line != "" {
			thick := math.Max(1, ts.Size/16)
			y := baseline + math.Max(1, ts.Size/12)
			draw.Draw(dst, surface.Rect{X: x, Y: y, W: lw, H: thick}.Image(), image.NewUniform(col), image.Point{}, draw.Over)
		}
	}
}

func (l SVG) paint(p *Painter, dst *image.RGBA) {
	r := l.Box.Image()
	if r.Empty() || len(l.Data) == 0 {
		return
	}
	img, err := images.RasterizeSVG(l.Data, r.Dx(), r.Dy(), images.SVGOptions{})
	if err != nil {
		p.log.Warn("Unable to rasterize inline SVG, skipping", zap.Error(err))
		return
	}
	// rasterized image keeps aspect ratio, center it in the box
	b := img.Bounds()
	at := image.Pt(r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()-b.Dy())/2)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, img, b.Min, draw.Over)
}

// Cover scales src to cover w x h box and crops excess according to focus
// percentages.
func Cover(src image.Image, w, h int, focusX, focusY float64) image.Image {
	sb := src.Bounds()
	if w <= 0 || h <= 0 || sb.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	}
	scale := math.Max(float64(w)/float64(sb.Dx()), float64(h)/float64(sb.Dy()))
	rw := max(w, int(math.Ceil(float64(sb.Dx())*scale)))
	rh := max(h, int(math.Ceil(float64(sb.Dy())*scale)))
	resized := imaging.Resize(src, rw, rh, imaging.Lanczos)

	fx := clampPercent(focusX) / 100
	fy := clampPercent(focusY) / 100
	x0 := int(math.Round(float64(rw-w) * fx))
	y0 := int(math.Round(float64(rh-h) * fy))
	return imaging.Crop(resized, image.Rect(x0, y0, x0+w, y0+h))
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Max(0, math.Min(100, v))
}

// circle is ellipse inscribed into rectangle, used as alpha mask.
type circle struct {
	r image.Rectangle
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }
func (c *circle) Bounds() image.Rectangle { return c.r }

func (c *circle) At(x, y int) color.Color {
	rx, ry := float64(c.r.Dx())/2, float64(c.r.Dy())/2
	dx := (float64(x-c.r.Min.X) + 0.5 - rx) / rx
	dy := (float64(y-c.r.Min.Y) + 0.5 - ry) / ry
	if dx*dx+dy*dy <= 1 {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
