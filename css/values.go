package css

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Length resolves CSS length into pixels. em and rem are relative to base
// font size, percentages are relative to percentOf.
func Length(raw string, base, percentOf float64) (float64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "auto" {
		return 0, false
	}
	num, unit := parseDimension(raw)
	if unit == "" && !strings.HasPrefix(raw, "0") && num == 0 {
		return 0, false
	}
	var v float64
	switch unit {
	case "", "px":
		v = num
	case "pt":
		v = num * 4 / 3
	case "em", "rem":
		v = num * base
	case "%":
		v = num * percentOf / 100
	case "vh", "vw":
		v = num * percentOf / 100
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// Color parses hex, rgb()/rgba() and a handful of named colors.
func Color(raw string) (color.NRGBA, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if c, ok := namedColors[raw]; ok {
		return c, true
	}
	if hex, ok := strings.CutPrefix(raw, "#"); ok {
		return hexColor(hex)
	}
	if strings.HasPrefix(raw, "rgb") {
		open, close := strings.IndexByte(raw, '('), strings.LastIndexByte(raw, ')')
		if open < 0 || close < open {
			return color.NRGBA{}, false
		}
		parts := strings.FieldsFunc(raw[open+1:close], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return color.NRGBA{}, false
		}
		var ch [4]uint8
		ch[3] = 255
		for i, p := range parts[:min(len(parts), 4)] {
			f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			switch {
			case i == 3 && strings.HasSuffix(p, "%"):
				f = f * 255 / 100
			case i == 3:
				f *= 255
			case strings.HasSuffix(p, "%"):
				f = f * 255 / 100
			}
			ch[i] = uint8(math.Round(math.Max(0, math.Min(255, f))))
		}
		return color.NRGBA{ch[0], ch[1], ch[2], ch[3]}, true
	}
	return color.NRGBA{}, false
}

func hexColor(hex string) (color.NRGBA, bool) {
	expand := func(s string) string {
		var sb strings.Builder
		for _, r := range s {
			sb.WriteRune(r)
			sb.WriteRune(r)
		}
		return sb.String()
	}
	switch len(hex) {
	case 3, 4:
		hex = expand(hex)
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if len(hex) == 6 {
		return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

// VerticalPosition extracts vertical component of object-position or
// background-position value as percentage. Single keyword or length values
// follow CSS rules: one value sets horizontal position, vertical stays centered
// unless keyword is top or bottom.
func VerticalPosition(raw string) (float64, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	keyword := func(s string) (float64, bool) {
		switch s {
		case "top":
			return 0, true
		case "bottom":
			return 100, true
		case "center":
			return 50, true
		}
		if p, ok := strings.CutSuffix(s, "%"); ok {
			if f, err := strconv.ParseFloat(p, 64); err == nil && !math.IsNaN(f) {
				return f, true
			}
		}
		return 0, false
	}
	switch len(fields) {
	case 0:
		return 0, false
	case 1:
		switch fields[0] {
		case "top", "bottom":
			return keyword(fields[0])
		}
		if _, ok := keyword(fields[0]); ok || fields[0] == "left" || fields[0] == "right" {
			return 50, true
		}
		return 0, false
	default:
		// "left top" style pairs may come in any order for keywords
		if fields[0] == "top" || fields[0] == "bottom" {
			return keyword(fields[0])
		}
		return keyword(fields[1])
	}
}

// URL extracts address from url(...) value.
func URL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(strings.ToLower(raw), "url(")
	if start < 0 {
		return "", false
	}
	rest := raw[start+4:]
	end := strings.LastIndexByte(rest, ')')
	if end < 0 {
		return "", false
	}
	u := unquote(strings.TrimSpace(rest[:end]))
	return u, u != ""
}

// IsBold reports whether font-weight value is bold.
func IsBold(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "bold", "bolder":
		return true
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n >= 600
	}
	return false
}

// Edges resolves margin or padding shorthand and its longhands into top,
// right, bottom and left pixels.
func Edges(st Style, prop string, base, ref float64) [4]float64 {
	var e [4]float64
	if fields := strings.Fields(st.Get(prop, "")); len(fields) > 0 {
		vals := make([]float64, 0, 4)
		for _, f := range fields[:min(len(fields), 4)] {
			v, _ := Length(f, base, ref)
			vals = append(vals, v)
		}
		switch len(vals) {
		case 1:
			e = [4]float64{vals[0], vals[0], vals[0], vals[0]}
		case 2:
			e = [4]float64{vals[0], vals[1], vals[0], vals[1]}
		case 3:
			e = [4]float64{vals[0], vals[1], vals[2], vals[1]}
		case 4:
			e = [4]float64{vals[0], vals[1], vals[2], vals[3]}
		}
	}
	for i, side := range []string{"Top", "Right", "Bottom", "Left"} {
		if v, ok := Length(st.Get(prop+side, ""), base, ref); ok {
			e[i] = v
		}
	}
	return e
}

// Inherited lists properties which flow from parent to child elements.
var Inherited = []string{
	"color", "fontSize", "fontFamily", "fontWeight", "fontStyle",
	"textAlign", "lineHeight", "textDecoration",
}

// Inherit returns style holding inherited properties of parent.
func Inherit(parent Style) Style {
	out := Style{}
	for _, k := range Inherited {
		if v, ok := parent[k]; ok {
			out[k] = v
		}
	}
	return out
}

// FormatPx formats pixel length rounded to hundredths.
func FormatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}
