package css

import (
	"image/color"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestParseInline(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	st := p.ParseInline("font-size: 48px; color:#fff; object-position: center 40%")
	want := map[string]string{
		"fontSize":       "48px",
		"color":          "#fff",
		"objectPosition": "center 40%",
	}
	for k, v := range want {
		if got := st[k]; got != v {
			t.Errorf("property %s = %q, want %q", k, got, v)
		}
	}
	if len(st) != len(want) {
		t.Errorf("got %d properties, want %d: %v", len(st), len(want), st)
	}

	if st := p.ParseInline("   "); len(st) != 0 {
		t.Errorf("empty declarations produced %v", st)
	}
}

func TestStylesheetComputed(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	sheet := p.Parse([]byte(`
@media print { h1 { color: red; } }
h1.title { font-size: 64px; }
h1 { font-size: 40px; color: black; }
.title { font-weight: bold; }
div > p { color: blue; }
`))

	if len(sheet.Warnings) != 1 {
		t.Errorf("expected 1 warning for combinator, got %v", sheet.Warnings)
	}

	st := sheet.Computed("h1", []string{"title"})
	if got := st.Get("fontSize", ""); got != "64px" {
		t.Errorf("fontSize = %q, more specific rule must win", got)
	}
	if got := st.Get("color", ""); got != "black" {
		t.Errorf("color = %q, at-rule contents must be skipped", got)
	}
	if got := st.Get("fontWeight", ""); got != "bold" {
		t.Errorf("fontWeight = %q", got)
	}

	var nilSheet *Stylesheet
	if st := nilSheet.Computed("h1", nil); len(st) != 0 {
		t.Errorf("nil stylesheet computed %v", st)
	}
}

func TestStyleMerge(t *testing.T) {
	base := Style{"fontSize": "40px", "color": "black"}

	a := base.Merge(Style{"color": "red"}).Merge(Style{"fontSize": "50px"})
	b := base.Merge(Style{"fontSize": "50px"}).Merge(Style{"color": "red"})
	if a.String() != b.String() {
		t.Errorf("merges of different properties must commute: %q vs %q", a, b)
	}

	c := base.Merge(Style{"color": "red"}).Merge(Style{"color": "blue"})
	if got := c["color"]; got != "blue" {
		t.Errorf("last write must win, got %q", got)
	}

	d := base.Merge(Style{"color": ""})
	if got := d["color"]; got != "black" {
		t.Errorf("empty value must not override, got %q", got)
	}
	if base["color"] != "black" || len(base) != 2 {
		t.Errorf("merge modified receiver: %v", base)
	}
}

func TestStyleString(t *testing.T) {
	st := Style{"objectPosition": "center 40%", "height": "450px", "color": ""}
	if got, want := st.String(), "height: 450px; object-position: center 40%;"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (Style{}).String(); got != "" {
		t.Errorf("empty style String() = %q", got)
	}
}

func TestPropertyNames(t *testing.T) {
	tests := []struct {
		css, camel string
	}{
		{"font-size", "fontSize"},
		{"background-position", "backgroundPosition"},
		{"color", "color"},
		{"-webkit-line-clamp", "webkitLineClamp"},
	}
	for _, tt := range tests {
		if got := PropertyName(tt.css); got != tt.camel {
			t.Errorf("PropertyName(%q) = %q, want %q", tt.css, got, tt.camel)
		}
	}
	if got := CSSName("objectPosition"); got != "object-position" {
		t.Errorf("CSSName = %q", got)
	}
	if got := PropertyName("fontSize"); got != "fontSize" {
		t.Errorf("camelCase input changed: %q", got)
	}
}

func TestParseValue(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	tests := []struct {
		raw     string
		value   float64
		unit    string
		keyword string
	}{
		{"24px", 24, "px", ""},
		{"1.5em", 1.5, "em", ""},
		{"40%", 40, "%", ""},
		{"bold", 0, "", "bold"},
		{"center 40%", 0, "", "center 40%"},
	}
	for _, tt := range tests {
		v := p.ParseValue(tt.raw)
		if v.Value != tt.value || v.Unit != tt.unit || v.Keyword != tt.keyword {
			t.Errorf("ParseValue(%q) = %+v", tt.raw, v)
		}
	}
	if v := p.ParseValue(""); v.Raw != "" {
		t.Errorf("empty value parsed as %+v", v)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		raw       string
		want      float64
		ok        bool
		base, pct float64
	}{
		{"24px", 24, true, 16, 0},
		{"12pt", 16, true, 16, 0},
		{"2em", 32, true, 16, 0},
		{"50%", 540, true, 16, 1080},
		{"0", 0, true, 16, 0},
		{"auto", 0, false, 16, 0},
		{"wide", 0, false, 16, 0},
	}
	for _, tt := range tests {
		got, ok := Length(tt.raw, tt.base, tt.pct)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Length(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		raw  string
		want color.NRGBA
		ok   bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, true},
		{"#112233", color.NRGBA{0x11, 0x22, 0x33, 255}, true},
		{"#11223380", color.NRGBA{0x11, 0x22, 0x33, 0x80}, true},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}, true},
		{"rgba(10,20,30,0.5)", color.NRGBA{10, 20, 30, 128}, true},
		{"White", color.NRGBA{255, 255, 255, 255}, true},
		{"#12", color.NRGBA{}, false},
		{"chartreuse-ish", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := Color(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Color(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVerticalPosition(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"center 45%", 45, true},
		{"50% 30%", 30, true},
		{"top", 0, true},
		{"bottom", 100, true},
		{"center", 50, true},
		{"left", 50, true},
		{"top left", 0, true},
		{"", 0, false},
		{"sideways", 0, false},
	}
	for _, tt := range tests {
		got, ok := VerticalPosition(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("VerticalPosition(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestURLAndBold(t *testing.T) {
	if u, ok := URL(`url("https://example.com/a.png")`); !ok || u != "https://example.com/a.png" {
		t.Errorf("URL = %q, %v", u, ok)
	}
	if _, ok := URL("none"); ok {
		t.Error("URL(none) must fail")
	}
	if !IsBold("700") || !IsBold("bold") || IsBold("400") || IsBold("normal") {
		t.Error("IsBold misclassified weights")
	}
}

func TestEdges(t *testing.T) {
	tests := []struct {
		st   Style
		want [4]float64
	}{
		{Style{"padding": "10px"}, [4]float64{10, 10, 10, 10}},
		{Style{"padding": "64px 80px"}, [4]float64{64, 80, 64, 80}},
		{Style{"padding": "1px 2px 3px"}, [4]float64{1, 2, 3, 2}},
		{Style{"padding": "1px 2px 3px 4px"}, [4]float64{1, 2, 3, 4}},
		{Style{"padding": "8px", "paddingLeft": "2em"}, [4]float64{8, 8, 8, 32}},
		{Style{}, [4]float64{}},
	}
	for _, tt := range tests {
		if got := Edges(tt.st, "padding", 16, 1000); got != tt.want {
			t.Errorf("Edges(%v) = %v, want %v", tt.st, got, tt.want)
		}
	}
}

func TestInherit(t *testing.T) {
	got := Inherit(Style{"color": "red", "fontSize": "20px", "height": "100px"})
	if len(got) != 2 || got["color"] != "red" || got["fontSize"] != "20px" {
		t.Errorf("Inherit() = %v", got)
	}
}
