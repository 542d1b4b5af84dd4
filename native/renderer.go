package native

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"go.uber.org/zap"

	"crsl/assets"
	"crsl/common"
	"crsl/css"
	"crsl/paint"
	"crsl/surface"
	"crsl/utils/debug"
)

// Renderer builds native component trees.
type Renderer struct {
	log      *zap.Logger
	loader   *assets.Loader
	painter  *paint.Painter
	measurer *paint.Measurer
}

func NewRenderer(loader *assets.Loader, painter *paint.Painter, log *zap.Logger) *Renderer {
	return &Renderer{
		log:      log.Named("native"),
		loader:   loader,
		painter:  painter,
		measurer: paint.NewMeasurer(nil),
	}
}

// Render builds tree for template id and applies style overrides of marked
// components.
func (r *Renderer) Render(ctx context.Context, templateID string, sd surface.SlideData, g surface.Geometry) (*Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	build, err := lookup(templateID)
	if err != nil {
		return nil, err
	}
	s := &Surface{r: r, slide: sd.Index, template: templateID, geom: g, root: build(sd, g)}
	for t, patch := range sd.Styles {
		if n := s.root.Find(t); n != nil {
			n.live = n.live.Merge(patch)
		} else if len(patch) > 0 {
			r.log.Debug("Style override for missing component ignored", zap.Int("slide", sd.Index), zap.Stringer("region", t))
		}
	}
	return s, nil
}

// Surface is mounted native slide.
type Surface struct {
	r        *Renderer
	slide    int
	template string
	geom     surface.Geometry

	mu       sync.Mutex
	root     *Node
	selected *Node
	lay      *layout
}

var _ surface.Surface = (*Surface)(nil)

func (s *Surface) Slide() int                 { return s.slide }
func (s *Surface) TemplateID() string         { return s.template }
func (s *Surface) Strategy() common.Strategy  { return common.StrategyNative }
func (s *Surface) Geometry() surface.Geometry { return s.geom }

func (s *Surface) layout() *layout {
	if s.lay == nil {
		s.lay = newLayout(s.root, s.r.measurer, nil, s.geom)
	}
	return s.lay
}

func (s *Surface) find(t common.RegionType) (*Node, error) {
	n := s.root.Find(t)
	if n == nil {
		return nil, fmt.Errorf("slide %d %s: %w", s.slide, t, surface.ErrNoRegion)
	}
	return n, nil
}

func (s *Surface) region(n *Node) surface.Region {
	lay := s.layout()
	var box surface.Rect
	if f, ok := lay.frames[n]; ok {
		box = f.outer
	}
	return surface.Region{
		ID:    n.Marker.ID,
		Type:  n.Marker.Type,
		Box:   box,
		Style: lay.styles[n].Clone(),
		Value: s.value(n),
	}
}

func (s *Surface) value(n *Node) string {
	if n.Kind == KindStack || n.Kind == KindBox || n.Kind == KindRow {
		url, _ := css.URL(n.Effective().Get("backgroundImage", ""))
		return url
	}
	return n.Value
}

func (s *Surface) QueryRegion(t common.RegionType) (surface.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return surface.Region{}, err
	}
	return s.region(n), nil
}

func (s *Surface) ReadRegionValue(t common.RegionType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return "", err
	}
	return s.value(n), nil
}

func (s *Surface) WriteRegionValue(t common.RegionType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return err
	}
	switch n.Kind {
	case KindStack, KindBox, KindRow:
		n.live = n.live.Merge(css.Style{"backgroundImage": "url('" + value + "')"})
	default:
		n.Value = value
	}
	s.lay = nil
	return nil
}

func (s *Surface) ApplyStyle(t common.RegionType, patch css.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return err
	}
	n.live = n.live.Merge(patch)
	s.lay = nil
	return nil
}

// CaptureSnapshot paints the tree directly, images are awaited first.
func (s *Surface) CaptureSnapshot(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lay := newLayout(s.root, s.r.measurer, nil, s.geom)
	var set assets.Set
	if s.r.loader != nil && len(lay.sources) > 0 {
		var err error
		if set, err = s.r.loader.Wait(ctx, lay.sources); err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.slide, err)
		}
		lay = newLayout(s.root, s.r.measurer, set, s.geom)
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
	s.root.Walk(func(n *Node, _ int) bool {
		if n.Marker != nil {
			out = append(out, s.region(n))
		}
		return true
	})
	return out
}

func (s *Surface) SetSelected(t common.RegionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return err
	}
	s.selected = n
	return nil
}

func (s *Surface) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

func (s *Surface) Selected() (common.RegionType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return "", false
	}
	return s.selected.Marker.Type, true
}

func (s *Surface) ComputedFont(t common.RegionType) (surface.Font, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.find(t)
	if err != nil {
		return surface.Font{}, err
	}
	st := s.layout().styles[n]
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

// Markup is always empty, native slides have no document.
func (s *Surface) Markup() string {
	return ""
}

func (s *Surface) Dump() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lay := s.layout()
	tw := debug.NewTreeWriter()
	tw.Line(0, "slide %d template=%s strategy=%s %dx%d", s.slide, s.template, common.StrategyNative, s.geom.Width, s.geom.Height)
	s.root.Walk(func(n *Node, depth int) bool {
		name := n.Kind.String()
		if n.Marker != nil {
			name += "#" + n.Marker.ID
		}
		var rect surface.Rect
		if f, ok := lay.frames[n]; ok {
			rect = f.outer
		}
		tw.Line(depth+1, "%s %s", name, rect)
		tw.Fields(depth+2, "live", n.live)
		if n.Value != "" {
			label := "src"
			if n.Kind == KindText {
				label = "text"
			}
			tw.TextBlock(depth+2, label, strings.TrimSpace(n.Value))
		}
		return true
	})
	return tw.String()
}
