// Package inject makes regions of pre-built slide markup addressable by
// wrapping their literal content with marker elements. All functions here
// work on markup strings and never need mounted surface.
package inject

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"crsl/common"
)

const (
	// AttrEditable carries region type.
	AttrEditable = "data-editable"
	// AttrSelected marks currently selected region.
	AttrSelected = "data-selected"
	// AttrInteraction identifies interaction stylesheet.
	AttrInteraction = "data-crsl-interaction"
)

// HasMarker reports whether markup already carries marker with given id.
func HasMarker(markup, id string) bool {
	return strings.Contains(markup, `id="`+id+`"`)
}

func openMarker(id string, t common.RegionType) string {
	return `<span id="` + id + `" ` + AttrEditable + `="` + t.String() + `">`
}

// WrapText wraps first occurrence of target text content with marker span.
// Exact match is tried first, then HTML escaped form, then whitespace
// tolerant case insensitive match. It reports false when target is empty,
// marker already exists or text was not found.
func WrapText(markup, target, id string, t common.RegionType) (string, bool) {
	target = strings.TrimSpace(norm.NFC.String(target))
	if target == "" || HasMarker(markup, id) {
		return markup, false
	}
	if !norm.NFC.IsNormalString(markup) {
		markup = norm.NFC.String(markup)
	}

	from := bodyStart(markup)
	for _, lit := range literalForms(target) {
		if start, end, ok := findLiteral(markup, ">"+lit+"<", from); ok {
			return wrapAt(markup, start+1, end-1, id, t), true
		}
	}
	if start, end, ok := findFuzzy(markup, target, from); ok {
		return wrapAt(markup, start, end, id, t), true
	}
	return markup, false
}

func literalForms(target string) []string {
	forms := []string{target}
	if esc := html.EscapeString(target); esc != target {
		forms = append(forms, esc)
	}
	return forms
}

func wrapAt(markup string, start, end int, id string, t common.RegionType) string {
	var sb strings.Builder
	sb.Grow(len(markup) + 64)
	sb.WriteString(markup[:start])
	sb.WriteString(openMarker(id, t))
	sb.WriteString(markup[start:end])
	sb.WriteString("</span>")
	sb.WriteString(markup[end:])
	return sb.String()
}

// bodyStart skips document head so <title> content is never wrapped.
func bodyStart(markup string) int {
	if i := strings.Index(strings.ToLower(markup), "</head>"); i >= 0 {
		return i + len("</head>")
	}
	return 0
}

// insideMarker reports whether text starting right after '>' at pos belongs
// to existing marker element.
func insideMarker(markup string, pos int) bool {
	lt := strings.LastIndexByte(markup[:pos], '<')
	if lt < 0 {
		return false
	}
	return strings.Contains(markup[lt:pos], AttrEditable+`=`)
}

func findLiteral(markup, needle string, from int) (int, int, bool) {
	for off := from; off < len(markup); {
		i := strings.Index(markup[off:], needle)
		if i < 0 {
			return 0, 0, false
		}
		start := off + i
		if !insideMarker(markup, start) {
			return start, start + len(needle), true
		}
		off = start + 1
	}
	return 0, 0, false
}

// findFuzzy matches target as words separated by any whitespace, ignoring
// case, between tags. Returned range covers words only.
func findFuzzy(markup, target string, from int) (int, int, bool) {
	words := strings.Fields(target)
	if len(words) == 0 {
		return 0, 0, false
	}
	forms := make([]string, 0, 2)
	for _, lit := range literalForms(strings.Join(words, " ")) {
		quoted := make([]string, 0, len(words))
		for w := range strings.FieldsSeq(lit) {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
		forms = append(forms, strings.Join(quoted, `\s*`))
	}
	re, err := regexp.Compile(`(?i)>\s*(` + strings.Join(forms, "|") + `)\s*<`)
	if err != nil {
		return 0, 0, false
	}
	for _, m := range re.FindAllStringSubmatchIndex(markup[from:], -1) {
		if insideMarker(markup, from+m[0]) {
			continue
		}
		return from + m[2], from + m[3], true
	}
	return 0, 0, false
}

// InteractionCSS styles hover and selected states of marked regions.
// Text selection is enabled only inside selected text regions.
const InteractionCSS = `[data-editable]{cursor:pointer;outline:2px dashed transparent;outline-offset:4px;}
[data-editable]:hover{outline-color:rgba(59,130,246,.6);}
[data-editable][data-selected="true"]{outline:2px solid #3b82f6;}
[data-editable]:not([data-selected="true"]){user-select:none;-webkit-user-select:none;}
[data-editable="title"][data-selected="true"],[data-editable="subtitle"][data-selected="true"]{user-select:text;-webkit-user-select:text;cursor:text;}
[data-editable="image"],[data-editable="avatar"],[data-editable="background"]{pointer-events:auto;}
img:not([data-editable]){pointer-events:none;}`

// AppendInteractionCSS adds interaction stylesheet unless markup has it.
func AppendInteractionCSS(markup string) (string, bool) {
	if strings.Contains(markup, AttrInteraction) {
		return markup, false
	}
	block := "<style " + AttrInteraction + ">\n" + InteractionCSS + "\n</style>"
	lower := strings.ToLower(markup)
	for _, closing := range []string{"</head>", "</body>"} {
		if i := strings.Index(lower, closing); i >= 0 {
			return markup[:i] + block + markup[i:], true
		}
	}
	return markup + block, true
}
