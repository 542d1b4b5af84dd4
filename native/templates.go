package native

import (
	"errors"
	"fmt"
	"slices"

	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// ErrUnknownTemplate is returned for template ids no builder is registered for.
var ErrUnknownTemplate = errors.New("unknown native template")

// Builder produces component tree of a slide.
type Builder func(sd surface.SlideData, g surface.Geometry) *Node

var builders = map[string]Builder{
	"minimal-native":   minimal,
	"spotlight-native": spotlight,
	"quote-native":     quote,
}

// IDs returns known native template ids.
func IDs() []string {
	ids := make([]string, 0, len(builders))
	for id := range builders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func lookup(id string) (Builder, error) {
	b, ok := builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return b, nil
}

func background(sd surface.SlideData, st css.Style) css.Style {
	if sd.Background != "" {
		st["backgroundImage"] = "url('" + sd.Background + "')"
		st["backgroundPosition"] = "center 50%"
	}
	return st
}

func profile(sd surface.SlideData, size float64, style css.Style) *Node {
	return Row(style,
		Avatar(sd.Avatar, size).Mark(sd.Index, common.RegionTypeAvatar),
		Stack(nil,
			Text(sd.Name, css.Style{"fontWeight": "bold", "fontSize": css.FormatPx(size * 0.4)}).Mark(sd.Index, common.RegionTypeName),
			Text(sd.Handle, css.Style{"fontSize": css.FormatPx(size * 0.32), "color": "#6b7280"}).Mark(sd.Index, common.RegionTypeHandle),
		),
	)
}

func counter(sd surface.SlideData) *Node {
	return Box(css.Style{"right": "64px", "bottom": "56px", "width": "160px"},
		Text(fmt.Sprintf("%d / %d", sd.Index+1, max(sd.Count, sd.Index+1)), css.Style{"textAlign": "right", "fontSize": "26px", "color": "#9ca3af"}),
	)
}

func minimal(sd surface.SlideData, g surface.Geometry) *Node {
	body := []*Node{
		Text(sd.Title, css.Style{"fontSize": "76px", "fontWeight": "bold", "lineHeight": "1.1"}).Mark(sd.Index, common.RegionTypeTitle),
		Text(sd.Subtitle, css.Style{"fontSize": "40px", "lineHeight": "1.3", "color": "#374151"}).Mark(sd.Index, common.RegionTypeSubtitle),
	}
	if sd.Image != "" {
		body = append(body, Picture(sd.Image, css.Style{"height": "540px", "objectPosition": "center 50%", "marginTop": "24px"}).Mark(sd.Index, common.RegionTypeImage))
	}
	return Stack(background(sd, css.Style{"backgroundColor": "#ffffff", "color": "#111827", "padding": "96px 80px", "gap": "32px"}),
		append(body,
			Box(css.Style{"left": "80px", "right": "80px", "bottom": "72px"}, profile(sd, 88, css.Style{"gap": "24px", "alignItems": "center"})),
			counter(sd),
		)...,
	).Mark(sd.Index, common.RegionTypeBackground)
}

func spotlight(sd surface.SlideData, g surface.Geometry) *Node {
	photo := Picture(sd.Image, css.Style{"height": "55%", "objectPosition": "center 50%"})
	if sd.Image != "" {
		photo.Mark(sd.Index, common.RegionTypeImage)
	}
	return Stack(background(sd, css.Style{"backgroundColor": "#0f172a", "color": "#f8fafc"}),
		photo,
		Stack(css.Style{"padding": "56px 72px", "gap": "24px"},
			Text(sd.Title, css.Style{"fontSize": "64px", "fontWeight": "bold", "lineHeight": "1.1"}).Mark(sd.Index, common.RegionTypeTitle),
			Text(sd.Subtitle, css.Style{"fontSize": "34px", "color": "#cbd5e1"}).Mark(sd.Index, common.RegionTypeSubtitle),
		),
		Box(css.Style{"left": "72px", "top": "48px", "width": "640px"}, profile(sd, 72, css.Style{"gap": "20px", "alignItems": "center", "color": "#ffffff"})),
		counter(sd),
	).Mark(sd.Index, common.RegionTypeBackground)
}

func quote(sd surface.SlideData, g surface.Geometry) *Node {
	return Stack(background(sd, css.Style{"backgroundColor": "#1e1b4b", "color": "#eef2ff", "padding": "120px 96px", "gap": "40px",
		"height": "100%", "justifyContent": "flex-end"}),
		Text("“", css.Style{"fontSize": "200px", "lineHeight": "0.8", "color": "#818cf8", "fontFamily": "serif"}),
		Text(sd.Title, css.Style{"fontSize": "60px", "fontStyle": "italic", "lineHeight": "1.2"}).Mark(sd.Index, common.RegionTypeTitle),
		Text(sd.Subtitle, css.Style{"fontSize": "32px", "color": "#c7d2fe"}).Mark(sd.Index, common.RegionTypeSubtitle),
		profile(sd, 96, css.Style{"gap": "28px", "alignItems": "center", "marginTop": "48px"}),
	).Mark(sd.Index, common.RegionTypeBackground)
}
