// Package runner wires rendering, editing and persistence together and
// implements program commands.
package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"crsl/assets"
	"crsl/carousel"
	"crsl/config"
	"crsl/editor"
	"crsl/persist"
	"crsl/pincher"
	"crsl/render"
	"crsl/search"
	"crsl/selection"
	"crsl/surface"
)

// Runtime is single editing session over one document.
type Runtime struct {
	log *zap.Logger
	cfg *config.Config

	Doc       *carousel.Document
	Workspace *render.Workspace
	Session   *editor.Session
	Selection *selection.Controller
	Pincher   *pincher.Controller
	Bridge    *persist.Bridge
	Searcher  search.Searcher

	fonts *fontLog
}

// fontLog remembers last computed font reported for text selection.
type fontLog struct {
	log  *zap.Logger
	last surface.Font
}

func (f *fontLog) ReportFont(e surface.Element, font surface.Font) {
	f.last = font
	f.log.Debug("Computed font", zap.Stringer("element", e), zap.String("family", font.Family),
		zap.Float64("size", font.Size), zap.String("weight", font.Weight))
}

// NewRuntime prepares session for doc. Relative asset paths are resolved
// against baseDir. Store could be nil when nothing is going to be saved.
func NewRuntime(cfg *config.Config, doc *carousel.Document, baseDir string, store persist.Storage, log *zap.Logger) (*Runtime, error) {
	loader := assets.NewLoader(&cfg.Assets, log, assets.WithBaseDir(baseDir))
	r, err := render.NewFromConfig(cfg, loader, log)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		log:       log,
		cfg:       cfg,
		Doc:       doc,
		Workspace: render.NewWorkspace(r, surface.Geometry{Width: cfg.Render.Width, Height: cfg.Render.Height}, log),
		Bridge:    persist.NewBridge(store, &cfg.Export, log),
		Searcher:  search.NewHTTPSearcher(&cfg.ImageSearch, log),
		fonts:     &fontLog{log: log.Named("font")},
	}

	opts := []editor.Option{
		editor.WithMounts(rt.Workspace.Mounts()),
		editor.WithNotifier(editor.NotifierFunc(func(msg string, err error) {
			log.Warn(msg, zap.Error(err))
		})),
	}
	if store != nil {
		opts = append(opts, editor.WithAutosave(cfg.Editor.AutosaveEvery, rt.save))
	}
	rt.Session = editor.New(doc.ID, log, opts...)
	rt.Pincher = pincher.New(&cfg.Editor, rt.Session, rt.Workspace.Mounts(), log)
	rt.Selection = selection.New(rt.Session, rt.Workspace.Mounts(), log,
		selection.WithFontReporter(rt.fonts), selection.WithOverlay(rt.Pincher))
	return rt, nil
}

func (rt *Runtime) save(ctx context.Context) error {
	_, err := rt.Bridge.Save(ctx, rt.Doc, rt.Session, rt.Workspace.Mounts())
	return err
}

// Mount renders every slide of the document.
func (rt *Runtime) Mount(ctx context.Context) error {
	return rt.Workspace.Mount(ctx, rt.Doc, rt.Session)
}

// Remount renders slide again from document and session state, restoring
// selection when it was on that slide.
func (rt *Runtime) Remount(ctx context.Context, slide int) error {
	if err := rt.Workspace.MountSlide(ctx, rt.Doc, rt.Session, slide); err != nil {
		return err
	}
	if e, ok := rt.Session.Selection(); ok && e.Slide == slide {
		if _, err := rt.Selection.Select(e); err != nil {
			return err
		}
	}
	return nil
}

// Save stores reconciled document.
func (rt *Runtime) Save(ctx context.Context) (*carousel.Document, error) {
	return rt.Bridge.Save(ctx, rt.Doc, rt.Session, rt.Workspace.Mounts())
}

// Export captures every slide into dir, either as separate files or single
// archive depending on configuration.
func (rt *Runtime) Export(ctx context.Context, dir string) (names []string, err error) {
	var exp persist.Exporter
	if rt.cfg.Export.Archive {
		z, err := persist.NewZipExporter(dir, archiveTitle(rt.Doc))
		if err != nil {
			return nil, err
		}
		rt.log.Info("Exporting slides", zap.String("archive", z.Path()))
		exp = z
	} else {
		d, err := persist.NewDirExporter(dir)
		if err != nil {
			return nil, err
		}
		rt.log.Info("Exporting slides", zap.String("directory", dir))
		exp = d
	}
	defer func() {
		err = multierr.Append(err, exp.Close())
	}()
	return rt.Bridge.Export(ctx, rt.Workspace.Mounts(), exp)
}

// Close unmounts slides.
func (rt *Runtime) Close() {
	rt.Pincher.Detach()
	rt.Workspace.UnmountAll()
}

func archiveTitle(doc *carousel.Document) string {
	if t := doc.Slides[0].Title; t != "" {
		return t
	}
	return doc.ID
}

// loadDocument reads document file and returns directory relative assets
// should be resolved against.
func loadDocument(path string) (*carousel.Document, string, error) {
	doc, err := carousel.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read document '%s': %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	return doc, dir, nil
}
