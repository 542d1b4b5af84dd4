// Package carousel holds carousel document model and its JSON contract.
package carousel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/google/uuid"

	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// Profile is author information shown on every slide.
type Profile struct {
	Name       string `json:"name"`
	Handle     string `json:"handle"`
	AvatarURL  string `json:"avatarUrl"`
	TemplateID string `json:"templateId"`
}

// Slide is content of a single carousel frame.
type Slide struct {
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	BackgroundImageURL string `json:"backgroundImageUrl,omitempty"`
	ImageURL           string `json:"imageUrl,omitempty"`
	// TemplateID overrides profile template for this slide only.
	TemplateID string `json:"templateId,omitempty"`
}

// ElementStyles maps slide index to style overrides of its elements.
type ElementStyles map[int]map[common.RegionType]css.Style

// Get returns override for element, nil when none exists.
func (es ElementStyles) Get(slide int, t common.RegionType) css.Style {
	return es[slide][t]
}

// Merge shallow merges patch into element override.
func (es ElementStyles) Merge(slide int, t common.RegionType, patch css.Style) {
	if len(patch) == 0 {
		return
	}
	if es[slide] == nil {
		es[slide] = make(map[common.RegionType]css.Style)
	}
	es[slide][t] = es[slide][t].Merge(patch)
}

// Clone returns deep copy.
func (es ElementStyles) Clone() ElementStyles {
	out := make(ElementStyles, len(es))
	for i, m := range es {
		out[i] = make(map[common.RegionType]css.Style, len(m))
		for t, st := range m {
			out[i][t] = st.Clone()
		}
	}
	return out
}

// Document is a carousel: profile, ordered slides and per element style
// overrides.
type Document struct {
	ID               string        `json:"id"`
	Profile          Profile       `json:"profile"`
	Slides           []Slide       `json:"slides"`
	PerElementStyles ElementStyles `json:"perElementStyles,omitempty"`
}

// ErrNoSlides is returned for documents without slides.
var ErrNoSlides = errors.New("document has no slides")

// Read decodes document from JSON stream. Documents without id get new one.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile decodes document from file.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes document as indented JSON.
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

func (d *Document) normalize() error {
	if len(d.Slides) == 0 {
		return ErrNoSlides
	}
	if d.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("unable to generate document id: %w", err)
		}
		d.ID = id.String()
	}
	if d.PerElementStyles == nil {
		d.PerElementStyles = ElementStyles{}
	}
	for i, m := range d.PerElementStyles {
		if i < 0 || i >= len(d.Slides) {
			return fmt.Errorf("styles reference slide %d out of %d", i, len(d.Slides))
		}
		for t := range m {
			if !t.IsValid() {
				return fmt.Errorf("slide %d: %w: %q", i, common.ErrInvalidRegionType, t)
			}
		}
	}
	return nil
}

// Clone returns deep copy of the document.
func (d *Document) Clone() *Document {
	out := *d
	out.Slides = slices.Clone(d.Slides)
	out.PerElementStyles = d.PerElementStyles.Clone()
	return &out
}

// Template returns effective template id of slide.
func (d *Document) Template(i int) string {
	if i >= 0 && i < len(d.Slides) && d.Slides[i].TemplateID != "" {
		return d.Slides[i].TemplateID
	}
	return d.Profile.TemplateID
}

// Field returns content stored for element type on slide. Profile fields are
// shared by all slides.
func (d *Document) Field(i int, t common.RegionType) string {
	if i < 0 || i >= len(d.Slides) {
		return ""
	}
	s := d.Slides[i]
	switch t {
	case common.RegionTypeTitle:
		return s.Title
	case common.RegionTypeSubtitle:
		return s.Subtitle
	case common.RegionTypeImage:
		return s.ImageURL
	case common.RegionTypeBackground:
		return s.BackgroundImageURL
	case common.RegionTypeName:
		return d.Profile.Name
	case common.RegionTypeHandle:
		return d.Profile.Handle
	case common.RegionTypeAvatar:
		return d.Profile.AvatarURL
	}
	return ""
}

// SetField stores content for element type. Profile fields are written to
// the profile regardless of slide.
func (d *Document) SetField(i int, t common.RegionType, value string) error {
	if i < 0 || i >= len(d.Slides) {
		return fmt.Errorf("slide %d out of range [0, %d)", i, len(d.Slides))
	}
	s := &d.Slides[i]
	switch t {
	case common.RegionTypeTitle:
		s.Title = value
	case common.RegionTypeSubtitle:
		s.Subtitle = value
	case common.RegionTypeImage:
		s.ImageURL = value
	case common.RegionTypeBackground:
		s.BackgroundImageURL = value
	case common.RegionTypeName:
		d.Profile.Name = value
	case common.RegionTypeHandle:
		d.Profile.Handle = value
	case common.RegionTypeAvatar:
		d.Profile.AvatarURL = value
	default:
		return fmt.Errorf("%w: %q", common.ErrInvalidRegionType, t)
	}
	return nil
}

// DeleteSlide removes slide and shifts style overrides of following slides.
func (d *Document) DeleteSlide(i int) error {
	if i < 0 || i >= len(d.Slides) {
		return fmt.Errorf("slide %d out of range [0, %d)", i, len(d.Slides))
	}
	if len(d.Slides) == 1 {
		return ErrNoSlides
	}
	d.Slides = slices.Delete(d.Slides, i, i+1)
	shifted := make(ElementStyles, len(d.PerElementStyles))
	for _, j := range slices.Sorted(maps.Keys(d.PerElementStyles)) {
		switch {
		case j < i:
			shifted[j] = d.PerElementStyles[j]
		case j > i:
			shifted[j-1] = d.PerElementStyles[j]
		}
	}
	d.PerElementStyles = shifted
	return nil
}

// SlideData assembles render input of slide i.
func (d *Document) SlideData(i int) surface.SlideData {
	sd := surface.SlideData{Index: i, Count: len(d.Slides), Styles: make(map[common.RegionType]css.Style)}
	if i < 0 || i >= len(d.Slides) {
		return sd
	}
	sd.Title = d.Field(i, common.RegionTypeTitle)
	sd.Subtitle = d.Field(i, common.RegionTypeSubtitle)
	sd.Background = d.Field(i, common.RegionTypeBackground)
	sd.Image = d.Field(i, common.RegionTypeImage)
	sd.Name = d.Field(i, common.RegionTypeName)
	sd.Handle = d.Field(i, common.RegionTypeHandle)
	sd.Avatar = d.Field(i, common.RegionTypeAvatar)
	for t, st := range d.PerElementStyles[i] {
		sd.Styles[t] = st.Clone()
	}
	return sd
}
