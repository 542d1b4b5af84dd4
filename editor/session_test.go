package editor

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

func TestEditedValue_LastWriteWins(t *testing.T) {
	s := New("doc", zaptest.NewLogger(t))

	s.SetEditedValue(2, common.RegionTypeTitle, "A")
	s.SetEditedValue(2, common.RegionTypeTitle, "B")

	if got := s.GetEditedValue(2, common.RegionTypeTitle, "fallback"); got != "B" {
		t.Errorf("GetEditedValue() = %q, want B", got)
	}
	if got := s.GetEditedValue(1, common.RegionTypeTitle, "fallback"); got != "fallback" {
		t.Errorf("GetEditedValue() on other slide = %q", got)
	}
	if got := s.GetEditedValue(2, common.RegionTypeSubtitle, "orig"); got != "orig" {
		t.Errorf("GetEditedValue() on other field = %q", got)
	}
	if s.Modifications() != 2 || !s.Dirty() {
		t.Errorf("modifications = %d, dirty = %v", s.Modifications(), s.Dirty())
	}
}

func TestEditedValue_ProfileShared(t *testing.T) {
	s := New("doc", zaptest.NewLogger(t))

	s.SetEditedValue(0, common.RegionTypeName, "First")
	s.SetEditedValue(3, common.RegionTypeName, "Second")

	for _, slide := range []int{0, 1, 3} {
		if got := s.GetEditedValue(slide, common.RegionTypeName, ""); got != "Second" {
			t.Errorf("slide %d name = %q, want most recent", slide, got)
		}
	}
}

func TestSetElementStyle(t *testing.T) {
	t.Run("independent properties commute", func(t *testing.T) {
		a := New("doc", zaptest.NewLogger(t))
		a.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "red"})
		a.SetElementStyle(0, common.RegionTypeTitle, css.Style{"fontSize": "20px"})

		b := New("doc", zaptest.NewLogger(t))
		b.SetElementStyle(0, common.RegionTypeTitle, css.Style{"fontSize": "20px"})
		b.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "red"})

		ga, gb := a.ElementStyle(0, common.RegionTypeTitle), b.ElementStyle(0, common.RegionTypeTitle)
		if ga.String() != gb.String() || ga["color"] != "red" || ga["fontSize"] != "20px" {
			t.Errorf("styles differ: %v vs %v", ga, gb)
		}
	})

	t.Run("same property last write wins", func(t *testing.T) {
		s := New("doc", zaptest.NewLogger(t))
		s.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "red"})
		s.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "blue"})

		got := s.ElementStyle(0, common.RegionTypeTitle)
		if len(got) != 1 || got["color"] != "blue" {
			t.Errorf("style = %v, want only blue", got)
		}
	})

	t.Run("empty patch creates nothing", func(t *testing.T) {
		s := New("doc", zaptest.NewLogger(t))
		s.SetElementStyle(0, common.RegionTypeImage, css.Style{"height": ""})
		if st := s.ElementStyle(0, common.RegionTypeImage); st != nil {
			t.Errorf("override created: %v", st)
		}
		if s.Modifications() != 0 {
			t.Errorf("modifications = %d", s.Modifications())
		}
	})

	t.Run("returned style is a copy", func(t *testing.T) {
		s := New("doc", zaptest.NewLogger(t))
		s.SetElementStyle(1, common.RegionTypeTitle, css.Style{"color": "red"})
		s.ElementStyle(1, common.RegionTypeTitle)["color"] = "green"
		if got := s.ElementStyle(1, common.RegionTypeTitle)["color"]; got != "red" {
			t.Errorf("session style mutated through copy: %q", got)
		}
	})
}

func TestAutosave(t *testing.T) {
	var calls []uint64
	var s *Session
	s = New("doc", zaptest.NewLogger(t), WithAutosave(5, func(context.Context) error {
		calls = append(calls, s.Modifications())
		return nil
	}))

	for i := range 14 {
		if i%2 == 0 {
			s.SetEditedValue(0, common.RegionTypeTitle, "v")
		} else {
			s.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "red"})
		}
	}
	if len(calls) != 2 || calls[0] != 5 || calls[1] != 10 {
		t.Errorf("autosave calls at %v, want [5 10]", calls)
	}

	// reads and selection changes never count
	s.GetEditedValue(0, common.RegionTypeTitle, "")
	s.Select(surface.Element{Slide: 0, Type: common.RegionTypeTitle})
	s.ClearSelections()
	s.SetEditedValue(0, common.RegionTypeTitle, "v")
	if len(calls) != 3 || calls[2] != 15 {
		t.Errorf("autosave calls at %v, want [5 10 15]", calls)
	}
}

func TestAutosave_FailureKeepsEdits(t *testing.T) {
	var notified []string
	failure := errors.New("network down")
	s := New("doc", zaptest.NewLogger(t),
		WithAutosave(2, func(context.Context) error { return failure }),
		WithNotifier(NotifierFunc(func(msg string, err error) {
			if !errors.Is(err, failure) {
				t.Errorf("unexpected error %v", err)
			}
			notified = append(notified, msg)
		})),
	)
	s.SetEditedValue(0, common.RegionTypeTitle, "A")
	s.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "red"})

	if len(notified) != 1 {
		t.Fatalf("notifications = %v", notified)
	}
	if s.GetEditedValue(0, common.RegionTypeTitle, "") != "A" || s.ElementStyle(0, common.RegionTypeTitle) == nil {
		t.Error("edits discarded after failed save")
	}
	if !s.Dirty() {
		t.Error("session is clean after failed save")
	}
}

func TestMarkSaved(t *testing.T) {
	s := New("doc", zaptest.NewLogger(t))
	s.SetEditedValue(0, common.RegionTypeTitle, "A")
	at := s.Modifications()
	s.SetEditedValue(0, common.RegionTypeTitle, "B")

	s.MarkSaved(at)
	if !s.Dirty() {
		t.Error("edit made during save is lost")
	}
	s.MarkSaved(s.Modifications())
	if s.Dirty() {
		t.Error("session is dirty after save")
	}
	if len(s.Edits()) != 1 {
		t.Errorf("edits = %v", s.Edits())
	}
}

type fakeSurface struct {
	surface.Surface
	slide    int
	selected bool
}

func (f *fakeSurface) Slide() int     { return f.slide }
func (f *fakeSurface) ClearSelected() { f.selected = false }
func (f *fakeSurface) Selected() (common.RegionType, bool) {
	return common.RegionTypeTitle, f.selected
}

func TestClearSelections(t *testing.T) {
	m := surface.NewMounts()
	a, b := &fakeSurface{slide: 0, selected: true}, &fakeSurface{slide: 1}
	m.Mount(a)
	m.Mount(b)

	s := New("doc", zaptest.NewLogger(t), WithMounts(m))
	s.Select(surface.Element{Slide: 0, Type: common.RegionTypeTitle})
	s.ClearSelections()

	if _, ok := s.Selection(); ok {
		t.Error("selection survived")
	}
	if m.SelectedCount() != 0 {
		t.Error("selected marker left on surface")
	}
}

func TestEditsAndStyles(t *testing.T) {
	s := New("doc", zaptest.NewLogger(t))
	s.SetEditedValue(1, common.RegionTypeSubtitle, "sub")
	s.SetEditedValue(0, common.RegionTypeTitle, "title")
	s.SetElementStyle(1, common.RegionTypeImage, css.Style{"height": "550px"})

	edits := s.Edits()
	if len(edits) != 2 || edits[0].Field != common.RegionTypeSubtitle || edits[1].Field != common.RegionTypeTitle {
		t.Errorf("Edits() = %v", edits)
	}
	if got := s.Styles().Get(1, common.RegionTypeImage)["height"]; got != "550px" {
		t.Errorf("Styles() height = %q", got)
	}
}

func TestForget(t *testing.T) {
	s := New("doc", zaptest.NewLogger(t))
	s.SetEditedValue(0, common.RegionTypeTitle, "zero")
	s.SetEditedValue(1, common.RegionTypeTitle, "one")
	s.SetEditedValue(2, common.RegionTypeTitle, "two")
	s.SetElementStyle(2, common.RegionTypeTitle, css.Style{"color": "red"})
	s.Select(surface.Element{Slide: 1, Type: common.RegionTypeTitle})

	s.Forget(1)

	if got := s.GetEditedValue(1, common.RegionTypeTitle, ""); got != "two" {
		t.Errorf("slide 1 title = %q, want shifted", got)
	}
	if got := s.GetEditedValue(2, common.RegionTypeTitle, "none"); got != "none" {
		t.Errorf("slide 2 title = %q", got)
	}
	if s.ElementStyle(1, common.RegionTypeTitle) == nil {
		t.Error("style not shifted")
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection on deleted slide survived")
	}
}

func TestForget_ProfileKeepsLatest(t *testing.T) {
	// map iteration order decides which colliding edit is seen first
	for range 100 {
		s := New("doc", zaptest.NewLogger(t))
		s.SetEditedValue(1, common.RegionTypeName, "Old")
		s.SetEditedValue(2, common.RegionTypeName, "New")

		s.Forget(1)

		if got := s.GetEditedValue(0, common.RegionTypeName, ""); got != "New" {
			t.Fatalf("name = %q, want New", got)
		}
		if n := len(s.Edits()); n != 1 {
			t.Fatalf("%d edits left, want 1", n)
		}
	}
}
