package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"go.uber.org/zap"

	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// ErrUnknownStep is returned for script steps program does not know.
var ErrUnknownStep = errors.New("unknown script step")

// Step is single scripted user action. Which fields are used depends on Do.
type Step struct {
	Do      string            `yaml:"do"`
	Slide   int               `yaml:"slide"`
	Region  string            `yaml:"region,omitempty"`
	X       float64           `yaml:"x,omitempty"`
	Y       float64           `yaml:"y,omitempty"`
	Value   string            `yaml:"value,omitempty"`
	Style   map[string]string `yaml:"style,omitempty"`
	Handle  string            `yaml:"handle,omitempty"`
	From    float64           `yaml:"from,omitempty"`
	To      []float64         `yaml:"to,omitempty"` // pointer positions, last one releases
	Keyword string            `yaml:"keyword,omitempty"`
	Pick    int               `yaml:"pick,omitempty"`
}

// Script is sequence of steps replayed against mounted document.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript reads and checks editing script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read script: %w", err)
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("unable to decode script: %w", err)
	}
	for i, st := range s.Steps {
		if err := st.check(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Do, err)
		}
	}
	return &s, nil
}

func (st Step) check() error {
	switch st.Do {
	case "click", "unselect", "save", "export":
		return nil
	case "select", "text", "rich", "style", "search":
		if _, err := common.ParseRegionType(st.Region); err != nil {
			return err
		}
	case "drag":
		if _, err := common.ParseRegionType(st.Region); err != nil {
			return err
		}
		if _, err := common.ParseHandle(st.Handle); err != nil {
			return err
		}
		if len(st.To) == 0 {
			return errors.New("drag needs at least one pointer position")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownStep, st.Do)
	}
	return nil
}

func (st Step) element() surface.Element {
	t, _ := common.ParseRegionType(st.Region)
	return surface.Element{Slide: st.Slide, Type: t}
}

// Run replays script. Exports go to dir.
func (rt *Runtime) Run(ctx context.Context, s *Script, dir string) error {
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		rt.log.Debug("Script step", zap.Int("step", i+1), zap.String("do", st.Do), zap.Int("slide", st.Slide))
		if err := rt.step(ctx, st, dir); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Do, err)
		}
	}
	return nil
}

func (rt *Runtime) step(ctx context.Context, st Step, dir string) error {
	e := st.element()
	switch st.Do {
	case "click":
		res, err := rt.Selection.Click(st.Slide, surface.Point{X: st.X, Y: st.Y})
		if err != nil {
			return err
		}
		rt.log.Info("Clicked", zap.Int("slide", st.Slide), zap.Stringer("state", res.State), zap.Stringer("element", res.Element))
	case "select":
		_, err := rt.Selection.Select(e)
		return err
	case "unselect":
		rt.Selection.Unselect()
	case "text":
		rt.Session.SetEditedValue(e.Slide, e.Type, st.Value)
		return rt.Remount(ctx, e.Slide)
	case "rich":
		// edits surface directly, picked up on save
		s, _, err := rt.Workspace.Mounts().Resolve(e)
		if err != nil {
			return err
		}
		return s.WriteRegionValue(e.Type, st.Value)
	case "style":
		patch := css.Style(st.Style)
		s, _, err := rt.Workspace.Mounts().Resolve(e)
		if err != nil {
			return err
		}
		if err := s.ApplyStyle(e.Type, patch); err != nil {
			return err
		}
		rt.Session.SetElementStyle(e.Slide, e.Type, patch)
	case "drag":
		return rt.drag(e, st)
	case "search":
		return rt.search(ctx, e, st)
	case "save":
		_, err := rt.Save(ctx)
		return err
	case "export":
		_, err := rt.Export(ctx, dir)
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnknownStep, st.Do)
	}
	return nil
}

func (rt *Runtime) drag(e surface.Element, st Step) error {
	if cur, ok := rt.Selection.Selection(); !ok || cur != e {
		res, err := rt.Selection.Select(e)
		if err != nil {
			return err
		}
		if !res.Target {
			return fmt.Errorf("%s could not be resized", e)
		}
	}
	h, _ := common.ParseHandle(st.Handle)
	if err := rt.Pincher.Down(h, st.From); err != nil {
		return err
	}
	last := len(st.To) - 1
	for _, y := range st.To[:last] {
		if _, err := rt.Pincher.Move(y); err != nil {
			return err
		}
	}
	patch, err := rt.Pincher.Up(st.To[last])
	if err != nil {
		return err
	}
	rt.log.Info("Dragged", zap.Stringer("element", e), zap.String("style", patch.String()))
	return nil
}

func (rt *Runtime) search(ctx context.Context, e surface.Element, st Step) error {
	urls, err := rt.Searcher.Search(ctx, st.Keyword)
	if err != nil {
		return err
	}
	if st.Pick < 0 || st.Pick >= len(urls) {
		return fmt.Errorf("search for %q returned %d results, cannot pick %d", st.Keyword, len(urls), st.Pick)
	}
	rt.Session.SetEditedValue(e.Slide, e.Type, urls[st.Pick])
	return rt.Remount(ctx, e.Slide)
}
