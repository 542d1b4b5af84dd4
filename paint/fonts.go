// Package paint rasterizes slide layers: fills, pictures, text and inline
// SVG. Both rendering strategies paint through it so exported slides look the
// same regardless of how they were mounted.
package paint

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type variant struct {
	mono, bold, italic bool
}

type faceKey struct {
	variant
	size float64
}

var ttfs = map[variant][]byte{
	{false, false, false}: goregular.TTF,
	{false, true, false}:  gobold.TTF,
	{false, false, true}:  goitalic.TTF,
	{false, true, true}:   gobolditalic.TTF,
	{true, false, false}:  gomono.TTF,
	{true, true, false}:   gomonobold.TTF,
	{true, false, true}:   gomonoitalic.TTF,
	{true, true, true}:    gomonobolditalic.TTF,
}

// Fonts caches parsed fonts and faces. Safe for concurrent use.
type Fonts struct {
	mu     sync.Mutex
	parsed map[variant]*opentype.Font
	faces  map[faceKey]font.Face
}

var (
	defaultFonts     *Fonts
	defaultFontsOnce sync.Once
)

// DefaultFonts returns process wide font cache.
func DefaultFonts() *Fonts {
	defaultFontsOnce.Do(func() {
		defaultFonts = NewFonts()
	})
	return defaultFonts
}

// NewFonts creates empty font cache.
func NewFonts() *Fonts {
	return &Fonts{
		parsed: make(map[variant]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
	}
}

// IsMonospace reports whether CSS font-family list asks for monospaced font.
func IsMonospace(family string) bool {
	family = strings.ToLower(family)
	return strings.Contains(family, "mono") || strings.Contains(family, "courier") || strings.Contains(family, "code")
}

// Face returns font face for requested style. Size is in pixels, it is
// rounded to quarter pixel to keep cache small.
func (f *Fonts) Face(family string, size float64, bold, italic bool) (font.Face, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		size = 16
	}
	size = math.Round(size*4) / 4
	key := faceKey{variant{IsMonospace(family), bold, italic}, size}

	f.mu.Lock()
	defer f.mu.Unlock()

	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	fnt, ok := f.parsed[key.variant]
	if !ok {
		var err error
		if fnt, err = opentype.Parse(ttfs[key.variant]); err != nil {
			return nil, fmt.Errorf("unable to parse font: %w", err)
		}
		f.parsed[key.variant] = fnt
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create font face: %w", err)
	}
	f.faces[key] = face
	return face, nil
}

// faceOrFallback never fails, basic bitmap face is used when fonts are broken.
func (f *Fonts) faceOrFallback(family string, size float64, bold, italic bool) font.Face {
	face, err := f.Face(family, size, bold, italic)
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
