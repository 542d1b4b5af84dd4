package css

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses template stylesheets and inline style attributes.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. At-rules are skipped, only simple
// selectors are kept.
func (p *Parser) Parse(data []byte) *Stylesheet {
	sheet := &Stylesheet{}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.BeginRulesetGrammar:
			selectors := parseSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)
			for _, selStr := range selectors {
				sel, warn := parseSelector(selStr)
				if warn != "" {
					sheet.Warnings = append(sheet.Warnings, warn)
					p.log.Debug("Skipping selector", zap.String("selector", selStr), zap.String("reason", warn))
					continue
				}
				rule := Rule{Selector: sel, Properties: make(map[string]Value, len(props))}
				for k, v := range props {
					rule.Properties[k] = v
				}
				sheet.Rules = append(sheet.Rules, rule)
			}
		}
	}
}

// ParseInline parses declarations of "style" attribute into Style. Invalid
// declarations are dropped.
func (p *Parser) ParseInline(decls string) Style {
	out := Style{}
	if strings.TrimSpace(decls) == "" {
		return out
	}
	parser := css.NewParser(parse.NewInput(strings.NewReader(decls)), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("Inline style parse error", zap.String("style", decls), zap.Error(err))
			}
			return out
		case css.DeclarationGrammar:
			if v := parseValue(parser.Values()); v.Raw != "" {
				out[PropertyName(string(data))] = v.Raw
			}
		}
	}
}

// ParseValue parses single property value ("24px", "center 40%", "#fff").
func (p *Parser) ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}
	}
	// borrow declaration grammar to tokenize value
	parser := css.NewParser(parse.NewInput(strings.NewReader("x:"+raw)), true)
	for {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return Value{Raw: raw, Keyword: raw}
		case css.DeclarationGrammar:
			return parseValue(parser.Values())
		}
	}
}

// parseSelectors extracts selector strings from token data.
func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseSelector parses a simple selector (element, class, or element.class).
func parseSelector(selStr string) (Selector, string) {
	sel := Selector{Raw: selStr}
	switch {
	case strings.ContainsAny(selStr, "+~> \t\n"):
		return sel, "unsupported combinator selector: " + selStr
	case strings.ContainsAny(selStr, "[:#"):
		return sel, "unsupported selector: " + selStr
	}
	if element, class, found := strings.Cut(selStr, "."); found {
		sel.Element = element
		sel.Class = class
	} else {
		sel.Element = selStr
	}
	return sel, ""
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props
		case css.DeclarationGrammar:
			if values := parser.Values(); len(values) > 0 {
				props[strings.ToLower(string(data))] = parseValue(values)
			}
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseValue converts CSS tokens to a Value.
func parseValue(tokens []css.Token) Value {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))
	val := Value{Raw: raw}

	var significant []css.Token
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			significant = append(significant, t)
		}
	}
	if len(significant) != 1 {
		// functions (rgb(), url()) and multi-value properties
		val.Keyword = raw
		return val
	}

	t := significant[0]
	switch t.TokenType {
	case css.DimensionToken:
		val.Value, val.Unit = parseDimension(string(t.Data))
	case css.PercentageToken:
		val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
		val.Unit = "%"
	case css.NumberToken:
		val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
	case css.IdentToken:
		val.Keyword = strings.ToLower(string(t.Data))
	case css.StringToken:
		val.Keyword = unquote(string(t.Data))
	default:
		val.Keyword = raw
	}
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
