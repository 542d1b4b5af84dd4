package css

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	// handles "0"
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Selector is a simple selector: element, class or element.class. Template
// stylesheets of legacy slides never use anything more complex.
type Selector struct {
	Raw     string
	Element string
	Class   string
}

// IsSimple returns true if this is a simple selector (element, class, or element.class).
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != ""
}

// Matches checks selector against element name and its class list.
func (s Selector) Matches(element string, classes []string) bool {
	if !s.IsSimple() {
		return false
	}
	if s.Element != "" && s.Element != "*" && !strings.EqualFold(s.Element, element) {
		return false
	}
	if s.Class != "" && !slices.Contains(classes, s.Class) {
		return false
	}
	return true
}

// specificity is enough to order element and class selectors.
func (s Selector) specificity() int {
	n := 0
	if s.Class != "" {
		n += 10
	}
	if s.Element != "" && s.Element != "*" {
		n++
	}
	return n
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   Selector
	Properties map[string]Value // kebab-case property name -> value
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Rules    []Rule
	Warnings []string // Warnings for unsupported features
}

// Computed returns declarations applicable to the element in cascade order:
// lower specificity first, source order within the same specificity.
func (s *Stylesheet) Computed(element string, classes []string) Style {
	if s == nil {
		return Style{}
	}
	var matched []Rule
	for _, r := range s.Rules {
		if r.Selector.Matches(element, classes) {
			matched = append(matched, r)
		}
	}
	slices.SortStableFunc(matched, func(a, b Rule) int {
		return a.Selector.specificity() - b.Selector.specificity()
	})
	out := Style{}
	for _, r := range matched {
		for name, v := range r.Properties {
			out[PropertyName(name)] = v.Raw
		}
	}
	return out
}

// Style is a set of CSS declarations keyed by camelCase property name
// ("fontSize", "objectPosition"). It is used both for styles computed from
// template markup and for user overrides, which keep only the difference from
// template defaults.
type Style map[string]string

// Clone returns independent copy of the style.
func (s Style) Clone() Style {
	if s == nil {
		return Style{}
	}
	return maps.Clone(s)
}

// Merge returns new style with patch applied on top of s. Properties with
// empty values in patch never override.
func (s Style) Merge(patch Style) Style {
	out := s.Clone()
	for k, v := range patch {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Get returns property value or fallback when absent.
func (s Style) Get(name, fallback string) string {
	if v, ok := s[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Names returns sorted property names.
func (s Style) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// String serializes style as declarations suitable for "style" attribute.
// Property order is sorted for deterministic output.
func (s Style) String() string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Names() {
		if s[name] == "" {
			continue
		}
		parts = append(parts, CSSName(name)+": "+s[name]+";")
	}
	return strings.Join(parts, " ")
}

// PropertyName converts CSS property name ("font-size") to camelCase
// ("fontSize"). camelCase input is returned as is.
func PropertyName(cssName string) string {
	cssName = strings.TrimSpace(cssName)
	if !strings.Contains(cssName, "-") {
		return cssName
	}
	var sb strings.Builder
	upper := false
	for _, r := range strings.ToLower(cssName) {
		if r == '-' {
			upper = sb.Len() > 0
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// CSSName converts camelCase property name to CSS form.
func CSSName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
