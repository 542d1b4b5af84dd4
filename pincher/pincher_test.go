package pincher

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"

	"crsl/common"
	"crsl/config"
	"crsl/css"
	"crsl/editor"
	"crsl/surface"
)

func TestDragSession_Scenarios(t *testing.T) {
	top := DragSession{Handle: common.HandleTop, StartY: 500, StartHeight: 450, Bounds: Bounds{Min: 200, Max: 1000}}
	if got := top.Height(400); got != 550 {
		t.Errorf("top handle height = %v, want 550", got)
	}
	bottom := top
	bottom.Handle = common.HandleBottom
	if got := bottom.Height(400); got != 350 {
		t.Errorf("bottom handle height = %v, want 350", got)
	}

	move := DragSession{
		Element:      surface.Element{Slide: 0, Type: common.RegionTypeImage},
		Handle:       common.HandleMove,
		StartY:       100,
		StartFocus:   50,
		FocusDivisor: 5,
	}
	if got := move.Focus(125); got != 45 {
		t.Errorf("focus = %v, want 45", got)
	}
	if got := move.Value(125)["objectPosition"]; got != "center 45%" {
		t.Errorf("move value = %q", got)
	}
	move.Element.Type = common.RegionTypeBackground
	if got := move.Value(125)["backgroundPosition"]; got != "center 45%" {
		t.Errorf("background move value = %q", got)
	}
}

func TestDragSession_Clamped(t *testing.T) {
	bounds := Bounds{Min: 200, Max: 1350}
	for _, h := range []common.Handle{common.HandleTop, common.HandleBottom} {
		for _, delta := range []float64{-1e9, -5000, -1, 0, 1, 5000, 1e9, math.Inf(1), math.Inf(-1)} {
			for _, start := range []float64{0, 200, 700, 1350, 99999} {
				d := DragSession{Handle: h, StartHeight: start, Bounds: bounds}
				got := d.Height(delta)
				if got < bounds.Min || got > bounds.Max {
					t.Errorf("%s start=%v delta=%v height=%v out of bounds", h, start, delta, got)
				}
			}
		}
	}
	for _, delta := range []float64{-1e9, -300, 0, 300, 1e9} {
		d := DragSession{Handle: common.HandleMove, StartFocus: 50, FocusDivisor: 5}
		if got := d.Focus(delta); got < 0 || got > 100 {
			t.Errorf("focus for delta %v = %v", delta, got)
		}
	}
}

func TestBounds_Clamp(t *testing.T) {
	if got := (Bounds{Min: 300, Max: 100}).Clamp(1000); got != 300 {
		t.Errorf("inverted bounds clamp = %v", got)
	}
	if got := (Bounds{Min: 200, Max: 1000}).Clamp(math.NaN()); got != 200 {
		t.Errorf("NaN clamp = %v", got)
	}
}

func TestParseFormatFocus(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"center 45%", 45},
		{"50% 30%", 30},
		{"top", 0},
		{"bottom", 100},
		{"center", 50},
		{"", 50},
		{"center 250%", 100},
	}
	for _, tt := range tests {
		if got := ParseFocus(tt.in); got != tt.want {
			t.Errorf("ParseFocus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := FormatFocus(33.333); got != "center 33.33%" {
		t.Errorf("FormatFocus() = %q", got)
	}
}

func TestNewOverlay(t *testing.T) {
	o := NewOverlay(surface.Rect{X: 120, Y: 220, W: 400, H: 200}, surface.Point{X: 20, Y: 20}, 2)
	want := surface.Rect{X: 50, Y: 100, W: 200, H: 100}
	if o.Box != want {
		t.Errorf("Box = %v, want %v", o.Box, want)
	}
	if o.Top != (surface.Point{X: 150, Y: 100}) || o.Bottom != (surface.Point{X: 150, Y: 200}) || o.Move != (surface.Point{X: 150, Y: 150}) {
		t.Errorf("handles = %+v", o)
	}
	if h, ok := o.HandleAt(surface.Point{X: 152, Y: 198}, 8); !ok || h != common.HandleBottom {
		t.Errorf("HandleAt() = %s, %v", h, ok)
	}
	if _, ok := o.HandleAt(surface.Point{X: 0, Y: 0}, 8); ok {
		t.Error("HandleAt() far away hit")
	}

	degenerate := NewOverlay(surface.Rect{X: 10, Y: 10, W: -5, H: math.NaN()}, surface.Point{}, 0)
	if degenerate.Box.W != 0 || degenerate.Box.H != 0 || degenerate.Box.X != 10 {
		t.Errorf("degenerate overlay = %+v", degenerate.Box)
	}
}

type fakeSurface struct {
	surface.Surface
	slide   int
	regions map[common.RegionType]surface.Region
	applied []css.Style
}

func (f *fakeSurface) Slide() int { return f.slide }

func (f *fakeSurface) QueryRegion(t common.RegionType) (surface.Region, error) {
	r, ok := f.regions[t]
	if !ok {
		return surface.Region{}, surface.ErrNoRegion
	}
	return r, nil
}

func (f *fakeSurface) ApplyStyle(t common.RegionType, patch css.Style) error {
	r := f.regions[t]
	r.Style = r.Style.Merge(patch)
	f.regions[t] = r
	f.applied = append(f.applied, patch)
	return nil
}

func newFixture(t *testing.T) (*Controller, *editor.Session, *fakeSurface, *surface.Mounts) {
	t.Helper()
	fs := &fakeSurface{slide: 0, regions: map[common.RegionType]surface.Region{
		common.RegionTypeImage: {
			Type:  common.RegionTypeImage,
			Box:   surface.Rect{X: 80, Y: 300, W: 920, H: 450},
			Style: css.Style{"height": "450px", "objectPosition": "center 50%"},
		},
		common.RegionTypeTitle: {Type: common.RegionTypeTitle, Box: surface.Rect{X: 80, Y: 100, W: 920, H: 90}},
	}}
	m := surface.NewMounts()
	m.Mount(fs)
	log := zaptest.NewLogger(t)
	sess := editor.New("doc", log, editor.WithMounts(m))
	cfg := &config.EditorConfig{Zoom: 1, Pincher: config.PincherConfig{MinHeight: 200, MaxHeight: 1000, FocusDivisor: 5}}
	return New(cfg, sess, m, log), sess, fs, m
}

var imageElement = surface.Element{Slide: 0, Type: common.RegionTypeImage}

func TestController_ResizeCommitsOnUp(t *testing.T) {
	c, sess, fs, _ := newFixture(t)
	if err := c.Attach(imageElement); err != nil {
		t.Fatal(err)
	}
	if err := c.Down(common.HandleTop, 500); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Move(450); err != nil {
		t.Fatal(err)
	}
	if sess.ElementStyle(0, common.RegionTypeImage) != nil {
		t.Error("style committed before pointer up")
	}
	patch, err := c.Up(400)
	if err != nil {
		t.Fatal(err)
	}
	if patch["height"] != "550px" {
		t.Errorf("final patch = %v", patch)
	}
	if got := sess.ElementStyle(0, common.RegionTypeImage)["height"]; got != "550px" {
		t.Errorf("committed height = %q", got)
	}
	if len(fs.applied) != 2 {
		t.Errorf("surface got %d live updates, want 2", len(fs.applied))
	}
	if c.Active() {
		t.Error("drag still active")
	}
}

func TestController_Move(t *testing.T) {
	c, sess, _, _ := newFixture(t)
	if err := c.Attach(imageElement); err != nil {
		t.Fatal(err)
	}
	if err := c.Down(common.HandleMove, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Up(125); err != nil {
		t.Fatal(err)
	}
	if got := sess.ElementStyle(0, common.RegionTypeImage)["objectPosition"]; got != "center 45%" {
		t.Errorf("objectPosition = %q", got)
	}
}

func TestController_SingleDrag(t *testing.T) {
	c, _, _, _ := newFixture(t)
	if err := c.Down(common.HandleTop, 0); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Down() without target error = %v", err)
	}
	if err := c.Attach(surface.Element{Slide: 0, Type: common.RegionTypeTitle}); !errors.Is(err, ErrNotImage) {
		t.Errorf("Attach(title) error = %v", err)
	}
	if err := c.Attach(imageElement); err != nil {
		t.Fatal(err)
	}
	if err := c.Down(common.HandleTop, 10); err != nil {
		t.Fatal(err)
	}
	if err := c.Down(common.HandleBottom, 10); !errors.Is(err, ErrDragInProgress) {
		t.Errorf("second Down() error = %v", err)
	}
	if _, err := c.Up(10); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Move(20); !errors.Is(err, ErrNoDrag) {
		t.Errorf("Move() after Up error = %v", err)
	}
}

func TestController_DetachDiscardsDrag(t *testing.T) {
	c, sess, fs, _ := newFixture(t)
	if err := c.Attach(imageElement); err != nil {
		t.Fatal(err)
	}
	if err := c.Down(common.HandleBottom, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Move(100); err != nil {
		t.Fatal(err)
	}
	c.Detach()

	if sess.ElementStyle(0, common.RegionTypeImage) != nil {
		t.Error("detached drag committed")
	}
	if fs.regions[common.RegionTypeImage].Style["height"] != "550px" {
		t.Error("live mutation was rolled back")
	}
	if _, ok := c.Target(); ok || c.Active() {
		t.Error("controller still attached")
	}
}

func TestController_UnmountedTarget(t *testing.T) {
	c, _, _, m := newFixture(t)
	if err := c.Attach(imageElement); err != nil {
		t.Fatal(err)
	}
	m.Unmount(0)
	if _, err := c.Overlay(surface.Point{}); err == nil {
		t.Error("Overlay() resolved unmounted element")
	}
	if err := c.Down(common.HandleTop, 0); err == nil {
		t.Error("Down() on unmounted element succeeded")
	}
}
