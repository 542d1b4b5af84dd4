package inject

import (
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"crsl/common"
)

// tag is start tag located in markup by tokenizer.
type tag struct {
	start, end int // byte range of raw tag
	token      xhtml.Token
}

// walkTags calls fn for every start or self closing tag until fn returns true.
func walkTags(markup string, fn func(t tag) bool) {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	offset := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return
		}
		n := len(z.Raw())
		if tt == xhtml.StartTagToken || tt == xhtml.SelfClosingTagToken {
			if fn(tag{start: offset, end: offset + n, token: z.Token()}) {
				return
			}
		}
		offset += n
	}
}

func attr(tok xhtml.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// setAttrs returns token with attributes replaced or added in order.
func setAttrs(tok xhtml.Token, kv ...string) xhtml.Token {
	attrs := make([]xhtml.Attribute, len(tok.Attr))
	copy(attrs, tok.Attr)
	for i := 0; i+1 < len(kv); i += 2 {
		found := false
		for j := range attrs {
			if attrs[j].Key == kv[i] {
				attrs[j].Val = kv[i+1]
				found = true
			}
		}
		if !found {
			attrs = append(attrs, xhtml.Attribute{Key: kv[i], Val: kv[i+1]})
		}
	}
	tok.Attr = attrs
	return tok
}

// renderTag serializes start tag keeping self closing form.
func renderTag(tok xhtml.Token) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tok.Data)
	for _, a := range tok.Attr {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	if tok.Type == xhtml.SelfClosingTagToken {
		sb.WriteString("/>")
	} else {
		sb.WriteByte('>')
	}
	return sb.String()
}

func replaceTag(markup string, t tag, tok xhtml.Token) string {
	return markup[:t.start] + renderTag(tok) + markup[t.end:]
}

var structural = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Meta: true,
	atom.Link: true, atom.Title: true, atom.Style: true, atom.Script: true,
	atom.Base: true,
}

// MarkContainer marks outermost content element (first element which is not
// part of document skeleton) as background region.
func MarkContainer(markup, id string) (string, bool) {
	if HasMarker(markup, id) {
		return markup, false
	}
	var (
		found tag
		ok    bool
	)
	walkTags(markup, func(t tag) bool {
		if structural[t.token.DataAtom] {
			return false
		}
		found, ok = t, true
		return true
	})
	if !ok {
		return markup, false
	}
	tok := setAttrs(found.token, "id", id, AttrEditable, common.RegionTypeBackground.String())
	return replaceTag(markup, found, tok), true
}

// MarkImage marks first unmarked <img> with given src.
func MarkImage(markup, src, id string, t common.RegionType) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || HasMarker(markup, id) {
		return markup, false
	}
	var (
		found tag
		ok    bool
	)
	walkTags(markup, func(tg tag) bool {
		if tg.token.DataAtom != atom.Img {
			return false
		}
		if _, marked := attr(tg.token, AttrEditable); marked {
			return false
		}
		if v, _ := attr(tg.token, "src"); strings.TrimSpace(v) == src {
			found, ok = tg, true
			return true
		}
		return false
	})
	if !ok {
		return markup, false
	}
	tok := setAttrs(found.token, "id", id, AttrEditable, t.String())
	return replaceTag(markup, found, tok), true
}

// ReplaceInner replaces content of element with given id. It is used after
// plain text tagging to bring back inline formatting of authored value.
func ReplaceInner(markup, id, inner string) (string, bool) {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	var (
		offset, innerStart int
		depth              int
		name               string
	)
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return markup, false
		}
		n := len(z.Raw())
		switch {
		case depth == 0 && tt == xhtml.StartTagToken:
			tok := z.Token()
			if v, _ := attr(tok, "id"); v == id {
				name, depth, innerStart = tok.Data, 1, offset+n
			}
		case depth > 0 && tt == xhtml.StartTagToken:
			if tn, _ := z.TagName(); string(tn) == name {
				depth++
			}
		case depth > 0 && tt == xhtml.EndTagToken:
			if tn, _ := z.TagName(); string(tn) == name {
				depth--
				if depth == 0 {
					return markup[:innerStart] + inner + markup[offset:], true
				}
			}
		}
		offset += n
	}
}

// PlainText strips tags from value and unescapes entities.
func PlainText(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return value
	}
	z := xhtml.NewTokenizer(strings.NewReader(value))
	var sb strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() != io.EOF {
				return value
			}
			return sb.String()
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if tn, _ := z.TagName(); string(tn) == "br" {
				sb.WriteByte('\n')
			}
		}
	}
}

// HasFormatting reports whether value contains markup.
func HasFormatting(value string) bool {
	if !strings.Contains(value, "<") {
		return false
	}
	z := xhtml.NewTokenizer(strings.NewReader(value))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return false
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken, xhtml.EndTagToken:
			return true
		}
	}
}
