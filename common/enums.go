// Package common keeps enumerations shared by rendering, overlay and
// persistence layers. Values of RegionType are the marker attribute contract
// of editable regions and must not be renamed.
package common

//go:generate go tool go-enum --marshal --names --values

// Semantic role of editable region.
// ENUM(title, subtitle, name, handle, image, background, avatar)
type RegionType string

// IsText reports whether region carries text content.
func (r RegionType) IsText() bool {
	switch r {
	case RegionTypeTitle, RegionTypeSubtitle, RegionTypeName, RegionTypeHandle:
		return true
	}
	return false
}

// IsImage reports whether region could be resized or repositioned with
// pincher handles.
func (r RegionType) IsImage() bool {
	switch r {
	case RegionTypeImage, RegionTypeBackground, RegionTypeAvatar:
		return true
	}
	return false
}

// IsProfile reports whether region shows profile information which is shared
// by all slides.
func (r RegionType) IsProfile() bool {
	switch r {
	case RegionTypeName, RegionTypeHandle, RegionTypeAvatar:
		return true
	}
	return false
}

// Pincher handle.
// ENUM(top, bottom, move)
type Handle string

// Rendering strategy of a slide surface.
// ENUM(sandboxed, native)
type Strategy string
