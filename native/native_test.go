package native

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"crsl/assets"
	"crsl/common"
	"crsl/config"
	"crsl/css"
	"crsl/paint"
	"crsl/surface"
)

var testGeometry = surface.Geometry{Width: 1080, Height: 1350}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	log := zaptest.NewLogger(t)
	loader := assets.NewLoader(&config.AssetsConfig{Timeout: time.Second, CacheTTL: time.Minute, MaxBytes: 1 << 20}, log)
	return NewRenderer(loader, paint.NewPainter(nil, log), log)
}

func testSlide() surface.SlideData {
	return surface.SlideData{
		Index:    1,
		Count:    4,
		Title:    "Hello World",
		Subtitle: "Second line",
		Name:     "Ann Lee",
		Handle:   "@annlee",
	}
}

func render(t *testing.T, r *Renderer, id string, sd surface.SlideData) *Surface {
	t.Helper()
	s, err := r.Render(context.Background(), id, sd, testGeometry)
	if err != nil {
		t.Fatalf("Render(%q) error = %v", id, err)
	}
	return s
}

func redDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = []byte{255, 0, 0, 255}[i%4]
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestIDs(t *testing.T) {
	want := []string{"minimal-native", "quote-native", "spotlight-native"}
	if got := IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	for _, id := range want {
		if common.StrategyFor(id) != common.StrategyNative {
			t.Errorf("%s does not route to native strategy", id)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.Render(context.Background(), "nothing-native", testSlide(), testGeometry); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("Render() error = %v, want ErrUnknownTemplate", err)
	}
}

func TestRender_Markers(t *testing.T) {
	r := newTestRenderer(t)

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			s := render(t, r, id, testSlide())
			if s.Strategy() != common.StrategyNative || s.Markup() != "" {
				t.Errorf("unexpected strategy %s", s.Strategy())
			}
			var got []common.RegionType
			for _, reg := range s.Regions() {
				got = append(got, reg.Type)
				if reg.ID != surface.MarkerID(1, reg.Type) {
					t.Errorf("region %s id = %q", reg.Type, reg.ID)
				}
			}
			for _, want := range []common.RegionType{
				common.RegionTypeTitle, common.RegionTypeSubtitle, common.RegionTypeName,
				common.RegionTypeHandle, common.RegionTypeAvatar, common.RegionTypeBackground,
			} {
				if !slices.Contains(got, want) {
					t.Errorf("Regions() = %v, missing %s", got, want)
				}
			}
			if slices.Contains(got, common.RegionTypeImage) {
				t.Error("image region marked without image")
			}

			bg, _ := s.QueryRegion(common.RegionTypeBackground)
			if bg.Box != testGeometry.Bounds() {
				t.Errorf("background box = %s", bg.Box)
			}
			title, err := s.QueryRegion(common.RegionTypeTitle)
			if err != nil {
				t.Fatal(err)
			}
			if title.Box.Empty() || title.Value != "Hello World" {
				t.Errorf("title = %+v", title)
			}
		})
	}
}

func TestRender_ImageRegion(t *testing.T) {
	r := newTestRenderer(t)
	sd := testSlide()
	sd.Image = "https://example.com/a.jpg"
	s := render(t, r, "minimal-native", sd)

	reg, err := s.QueryRegion(common.RegionTypeImage)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Box.H != 540 || reg.Value != sd.Image {
		t.Errorf("image region = %+v", reg)
	}
	if reg.Style["objectPosition"] != "center 50%" {
		t.Errorf("objectPosition = %q", reg.Style["objectPosition"])
	}
}

func TestRender_QuoteBottomAligned(t *testing.T) {
	r := newTestRenderer(t)
	s := render(t, r, "quote-native", testSlide())

	title, _ := s.QueryRegion(common.RegionTypeTitle)
	if title.Box.Y < float64(testGeometry.Height)/2 {
		t.Errorf("quote title at %s is not pushed to bottom", title.Box)
	}
}

func TestRender_StyleOverrides(t *testing.T) {
	r := newTestRenderer(t)
	sd := testSlide()
	sd.Styles = map[common.RegionType]css.Style{
		common.RegionTypeTitle: {"fontSize": "40px", "color": "#ff0000"},
	}
	s := render(t, r, "minimal-native", sd)

	f, err := s.ComputedFont(common.RegionTypeTitle)
	if err != nil {
		t.Fatal(err)
	}
	if f.Size != 40 || f.Weight != "bold" {
		t.Errorf("font = %+v", f)
	}
	n := s.root.Find(common.RegionTypeTitle)
	if n.Style["fontSize"] != "76px" {
		t.Errorf("template default changed: %v", n.Style)
	}
}

func TestSurface_EditValues(t *testing.T) {
	r := newTestRenderer(t)
	s := render(t, r, "spotlight-native", testSlide())

	if err := s.WriteRegionValue(common.RegionTypeTitle, "Changed"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.ReadRegionValue(common.RegionTypeTitle); v != "Changed" {
		t.Errorf("title = %q", v)
	}
	if err := s.WriteRegionValue(common.RegionTypeBackground, "https://example.com/bg.png"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.ReadRegionValue(common.RegionTypeBackground); v != "https://example.com/bg.png" {
		t.Errorf("background = %q", v)
	}
	if err := s.ApplyStyle(common.RegionTypeImage, css.Style{"height": "300px"}); !errors.Is(err, surface.ErrNoRegion) {
		t.Errorf("ApplyStyle(image) error = %v", err)
	}
}

func TestSurface_Selection(t *testing.T) {
	r := newTestRenderer(t)
	s := render(t, r, "minimal-native", testSlide())

	if err := s.SetSelected(common.RegionTypeTitle); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSelected(common.RegionTypeAvatar); err != nil {
		t.Fatal(err)
	}
	if got, ok := s.Selected(); !ok || got != common.RegionTypeAvatar {
		t.Errorf("Selected() = %s, %v", got, ok)
	}
	s.ClearSelected()
	if _, ok := s.Selected(); ok {
		t.Error("selection survived clear")
	}
}

func TestSurface_CaptureSnapshot(t *testing.T) {
	r := newTestRenderer(t)
	sd := testSlide()
	sd.Image = redDataURI(t)
	s := render(t, r, "minimal-native", sd)

	img, err := s.CaptureSnapshot(context.Background())
	if err != nil {
		t.Fatalf("CaptureSnapshot() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != testGeometry.Width || b.Dy() != testGeometry.Height {
		t.Fatalf("snapshot size = %v", b)
	}
	reg, _ := s.QueryRegion(common.RegionTypeImage)
	cx, cy := int(reg.Box.X+reg.Box.W/2), int(reg.Box.Y+reg.Box.H/2)
	if c := color.NRGBAModel.Convert(img.At(cx, cy)).(color.NRGBA); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("image center pixel = %v, want red", c)
	}
}

func TestSurface_Dump(t *testing.T) {
	r := newTestRenderer(t)
	s := render(t, r, "minimal-native", testSlide())
	if err := s.ApplyStyle(common.RegionTypeTitle, css.Style{"color": "blue"}); err != nil {
		t.Fatal(err)
	}
	out := s.Dump()
	for _, want := range []string{"slide 1 template=minimal-native strategy=native", "text#slide-1-title", `color="blue"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump misses %q:\n%s", want, out)
		}
	}
}
