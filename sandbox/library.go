// Package sandbox renders legacy slide templates: pre-built markup tagged
// with region markers and mounted into isolated document per slide.
package sandbox

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"crsl/archive"
	"crsl/common"
	"crsl/inject"
	"crsl/surface"
)

//go:embed templates/*.html
var embedded embed.FS

// maxTemplateSize limits templates read from external bundles.
const maxTemplateSize = 1 << 20

// Template is single legacy slide template.
type Template struct {
	ID     string
	Origin string // "embedded", directory or archive path
	tmpl   *template.Template
}

// data is what templates see. All strings are plain text, HTML escaped.
type data struct {
	Index      int
	Total      int
	Width      int
	Height     int
	Title      string
	Subtitle   string
	Name       string
	Handle     string
	Avatar     string
	Image      string
	Background string
}

// Execute produces untagged slide markup.
func (t *Template) Execute(sd surface.SlideData, g surface.Geometry) (string, error) {
	esc := func(s string) string {
		return html.EscapeString(inject.PlainText(s))
	}
	d := data{
		Index:      sd.Index,
		Total:      max(sd.Count, sd.Index+1),
		Width:      g.Width,
		Height:     g.Height,
		Title:      esc(sd.Title),
		Subtitle:   esc(sd.Subtitle),
		Name:       esc(sd.Name),
		Handle:     esc(sd.Handle),
		Avatar:     html.EscapeString(sd.Avatar),
		Image:      html.EscapeString(sd.Image),
		Background: html.EscapeString(sd.Background),
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("template %s: %w", t.ID, err)
	}
	return buf.String(), nil
}

// Library is set of legacy templates indexed by id.
type Library struct {
	log       *zap.Logger
	templates map[string]*Template
}

// NewLibrary loads embedded templates and, when extra is not empty, templates
// from directory or zip archive. External templates replace embedded ones
// with the same id.
func NewLibrary(extra string, log *zap.Logger) (*Library, error) {
	l := &Library{
		log:       log.Named("templates"),
		templates: make(map[string]*Template),
	}
	err := fs.WalkDir(embedded, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		body, err := embedded.ReadFile(p)
		if err != nil {
			return err
		}
		return l.add(p, "embedded", body)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load embedded templates: %w", err)
	}
	if extra == "" {
		return l, nil
	}

	fi, err := os.Stat(extra)
	if err != nil {
		return nil, fmt.Errorf("unable to access templates: %w", err)
	}
	if fi.IsDir() {
		err = l.loadDir(extra)
	} else {
		err = l.loadArchive(extra)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load templates from %s: %w", extra, err)
	}
	return l, nil
}

func isTemplateFile(name string) bool {
	return archive.Ext(".html", ".htm", ".tmpl")(name)
}

func (l *Library) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		fi, err := e.Info()
		if err != nil {
			return err
		}
		if fi.Size() > maxTemplateSize {
			l.log.Warn("Template is too large, skipping", zap.String("file", p))
			continue
		}
		body, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := l.add(p, dir, body); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) loadArchive(name string) error {
	return archive.Walk(name, isTemplateFile, func(arc string, f *zip.File) error {
		body, err := archive.ReadFile(f, maxTemplateSize)
		if err != nil {
			return err
		}
		return l.add(f.Name, arc, body)
	})
}

func (l *Library) add(name, origin string, body []byte) error {
	base := path.Base(filepath.ToSlash(name))
	id := strings.TrimSuffix(base, path.Ext(base))
	if common.StrategyFor(id) == common.StrategyNative {
		return fmt.Errorf("template %s: legacy template id must not have native suffix", name)
	}
	tmpl, err := template.New(id).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(string(body))
	if err != nil {
		return fmt.Errorf("unable to parse template %s: %w", name, err)
	}
	if prev, ok := l.templates[id]; ok {
		l.log.Debug("Template replaced", zap.String("id", id), zap.String("was", prev.Origin), zap.String("now", origin))
	}
	l.templates[id] = &Template{ID: id, Origin: origin, tmpl: tmpl}
	return nil
}

// Lookup returns template by id.
func (l *Library) Lookup(id string) (*Template, bool) {
	t, ok := l.templates[id]
	return t, ok
}

// IDs returns template ids in natural order.
func (l *Library) IDs() []string {
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return ids
}
