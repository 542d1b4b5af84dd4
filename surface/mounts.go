package surface

import (
	"fmt"
	"maps"
	"slices"

	"crsl/common"
)

// Mounts is registry of mounted surfaces indexed by slide. It is owned by
// whoever mounts slides, other components resolve elements through it on
// every use. Not safe for concurrent use.
type Mounts struct {
	surfaces map[int]Surface
}

// NewMounts returns empty registry.
func NewMounts() *Mounts {
	return &Mounts{surfaces: make(map[int]Surface)}
}

// Mount registers surface, replacing surface previously mounted for the same slide.
func (m *Mounts) Mount(s Surface) {
	m.surfaces[s.Slide()] = s
}

// Unmount removes slide surface. Elements of the slide become unresolvable.
func (m *Mounts) Unmount(slide int) {
	delete(m.surfaces, slide)
}

// Get returns surface mounted for slide.
func (m *Mounts) Get(slide int) (Surface, bool) {
	if m == nil {
		return nil, false
	}
	s, ok := m.surfaces[slide]
	return s, ok
}

// Len returns number of mounted surfaces.
func (m *Mounts) Len() int {
	if m == nil {
		return 0
	}
	return len(m.surfaces)
}

// All returns mounted surfaces ordered by slide index.
func (m *Mounts) All() []Surface {
	if m == nil {
		return nil
	}
	out := make([]Surface, 0, len(m.surfaces))
	for _, i := range slices.Sorted(maps.Keys(m.surfaces)) {
		out = append(out, m.surfaces[i])
	}
	return out
}

// Resolve looks element up on its live surface.
func (m *Mounts) Resolve(e Element) (Surface, Region, error) {
	s, ok := m.Get(e.Slide)
	if !ok {
		return nil, Region{}, fmt.Errorf("element %s: slide %d is not mounted", e, e.Slide)
	}
	r, err := s.QueryRegion(e.Type)
	if err != nil {
		return nil, Region{}, fmt.Errorf("element %s: %w", e, err)
	}
	return s, r, nil
}

// ClearSelected removes selected marker from every mounted surface.
func (m *Mounts) ClearSelected() {
	for _, s := range m.All() {
		s.ClearSelected()
	}
}

// SelectedCount returns number of regions marked selected across all surfaces.
func (m *Mounts) SelectedCount() int {
	n := 0
	for _, s := range m.All() {
		if _, ok := s.Selected(); ok {
			n++
		}
	}
	return n
}

// HitTest returns region under point: the smallest region containing it,
// with background considered only when nothing else matches.
func HitTest(regions []Region, p Point) (Region, bool) {
	var (
		best     Region
		found    bool
		fallback Region
		hasBack  bool
	)
	for _, r := range regions {
		if !r.Box.Contains(p) {
			continue
		}
		if r.Type == common.RegionTypeBackground {
			fallback, hasBack = r, true
			continue
		}
		if !found || r.Box.Area() < best.Box.Area() {
			best, found = r, true
		}
	}
	if found {
		return best, true
	}
	return fallback, hasBack
}
