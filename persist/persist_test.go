package persist

import (
	"archive/zip"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"crsl/carousel"
	"crsl/common"
	"crsl/config"
	"crsl/css"
	"crsl/editor"
	"crsl/native"
	"crsl/paint"
	"crsl/render"
	"crsl/sandbox"
	"crsl/surface"
)

var testGeometry = surface.Geometry{Width: 540, Height: 675}

func testDocument() *carousel.Document {
	return &carousel.Document{
		ID:      "doc-1",
		Profile: carousel.Profile{Name: "Ann Lee", Handle: "@annlee", TemplateID: "classic"},
		Slides: []carousel.Slide{
			{Title: "First slide", Subtitle: "Intro"},
			{Title: "Loud slide", Subtitle: "Shouting", TemplateID: "headline"},
			{Title: "Native slide", Subtitle: "Tree", TemplateID: "minimal-native"},
		},
		PerElementStyles: carousel.ElementStyles{},
	}
}

type fixture struct {
	doc     *carousel.Document
	session *editor.Session
	ws      *render.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	lib, err := sandbox.NewLibrary("", log)
	if err != nil {
		t.Fatal(err)
	}
	painter := paint.NewPainter(nil, log)
	r := render.New(sandbox.NewRenderer(lib, nil, painter, "classic", log), native.NewRenderer(nil, painter, log), log)

	f := &fixture{doc: testDocument(), ws: render.NewWorkspace(r, testGeometry, log)}
	f.session = editor.New(f.doc.ID, log, editor.WithMounts(f.ws.Mounts()))
	return f
}

func (f *fixture) mount(t *testing.T) {
	t.Helper()
	if err := f.ws.Mount(context.Background(), f.doc, f.session); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
}

func (f *fixture) surface(t *testing.T, slide int) surface.Surface {
	t.Helper()
	s, ok := f.ws.Mounts().Get(slide)
	if !ok {
		t.Fatalf("slide %d is not mounted", slide)
	}
	return s
}

func TestReconcile_SessionEdits(t *testing.T) {
	f := newFixture(t)
	f.session.SetEditedValue(0, common.RegionTypeTitle, "Edited title")
	f.session.SetElementStyle(2, common.RegionTypeTitle, css.Style{"fontSize": "40px"})
	f.mount(t)

	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.Slides[0].Title; got != "Edited title" {
		t.Errorf("title = %q, want %q", got, "Edited title")
	}
	if got := out.PerElementStyles.Get(2, common.RegionTypeTitle).Get("fontSize", ""); got != "40px" {
		t.Errorf("fontSize = %q, want 40px", got)
	}
	if f.doc.Slides[0].Title != "First slide" || len(f.doc.PerElementStyles) != 0 {
		t.Errorf("source document modified: %+v", f.doc)
	}
}

func TestReconcile_WithoutMounts(t *testing.T) {
	f := newFixture(t)
	f.session.SetEditedValue(1, common.RegionTypeSubtitle, "Quiet")
	out := Reconcile(f.doc, f.session, nil, zaptest.NewLogger(t))
	if got := out.Slides[1].Subtitle; got != "Quiet" {
		t.Errorf("subtitle = %q, want Quiet", got)
	}
}

func TestReconcile_ProfileLatestWins(t *testing.T) {
	f := newFixture(t)
	f.session.SetEditedValue(2, common.RegionTypeName, "Bob")
	f.session.SetEditedValue(0, common.RegionTypeName, "Carol")
	out := Reconcile(f.doc, f.session, nil, zaptest.NewLogger(t))
	if got := out.Profile.Name; got != "Carol" {
		t.Errorf("name = %q, want Carol", got)
	}
}

func TestReconcile_ProfileEditWithOtherSlidesMounted(t *testing.T) {
	f := newFixture(t)
	f.mount(t)

	f.session.SetEditedValue(0, common.RegionTypeName, "Bob")
	if err := f.ws.MountSlide(context.Background(), f.doc, f.session, 0); err != nil {
		t.Fatal(err)
	}
	// slide 1 still shows the previous name
	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.Profile.Name; got != "Bob" {
		t.Errorf("name = %q, want Bob", got)
	}
}

func TestReconcile_EditWithoutRemount(t *testing.T) {
	f := newFixture(t)
	f.mount(t)

	f.session.SetEditedValue(0, common.RegionTypeTitle, "Not shown yet")
	f.session.SetEditedValue(1, common.RegionTypeSubtitle, "Whisper")
	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.Slides[0].Title; got != "Not shown yet" {
		t.Errorf("title = %q, want Not shown yet", got)
	}
	if got := out.Slides[1].Subtitle; got != "Whisper" {
		t.Errorf("subtitle = %q, want Whisper", got)
	}
}

func TestReconcile_SkippedEditLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t)
	f.session.SetEditedValue(7, common.RegionTypeTitle, "Gone")
	f.session.SetEditedValue(0, common.RegionTypeTitle, "Kept")

	out := Reconcile(f.doc, f.session, nil, zap.New(core))
	if got := out.Slides[0].Title; got != "Kept" {
		t.Errorf("title = %q, want Kept", got)
	}
	entries := logs.FilterMessage("Edit skipped").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d skipped edits, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["slide"]; got != int64(7) {
		t.Errorf("skipped slide = %v, want 7", got)
	}
}

func TestReconcile_LiveRichText(t *testing.T) {
	f := newFixture(t)
	f.mount(t)

	if err := f.surface(t, 0).WriteRegionValue(common.RegionTypeTitle, "<b>Bold</b> move"); err != nil {
		t.Fatal(err)
	}
	if err := f.surface(t, 2).WriteRegionValue(common.RegionTypeSubtitle, "Changed natively"); err != nil {
		t.Fatal(err)
	}

	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.Slides[0].Title; got != "<b>Bold</b> move" {
		t.Errorf("sandboxed title = %q, want formatted markup", got)
	}
	// native surfaces only change through the session
	if got := out.Slides[2].Subtitle; got != "Tree" {
		t.Errorf("native subtitle = %q, want Tree", got)
	}
}

func TestReconcile_TemplateCaseIgnored(t *testing.T) {
	f := newFixture(t)
	f.mount(t)

	live, err := f.surface(t, 1).ReadRegionValue(common.RegionTypeTitle)
	if err != nil {
		t.Fatal(err)
	}
	if live != "LOUD SLIDE" {
		t.Fatalf("live title = %q, want upper cased", live)
	}
	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.Slides[1].Title; got != "Loud slide" {
		t.Errorf("title = %q, want stored value kept", got)
	}
	if got := out.Profile.Handle; got != "@annlee" {
		t.Errorf("handle = %q, want @annlee", got)
	}
}

func TestReconcile_LiveBackgroundColor(t *testing.T) {
	f := newFixture(t)
	f.session.SetElementStyle(0, common.RegionTypeTitle, css.Style{"color": "#333"})
	f.mount(t)

	if err := f.surface(t, 0).ApplyStyle(common.RegionTypeBackground, css.Style{"backgroundColor": "#ff0000"}); err != nil {
		t.Fatal(err)
	}
	out := Reconcile(f.doc, f.session, f.ws.Mounts(), zaptest.NewLogger(t))
	if got := out.PerElementStyles.Get(0, common.RegionTypeBackground).Get("backgroundColor", ""); got != "#ff0000" {
		t.Errorf("backgroundColor = %q, want #ff0000", got)
	}
	// overrides applied while mounting are not external changes
	if st := out.PerElementStyles.Get(0, common.RegionTypeTitle); len(st) != 1 {
		t.Errorf("title overrides = %v, want only color", st)
	}
	if st := out.PerElementStyles.Get(1, common.RegionTypeBackground); st != nil {
		t.Errorf("untouched slide got overrides %v", st)
	}
}

type failingStore struct {
	Storage
	err error
}

func (s failingStore) Save(context.Context, string, *carousel.Document) error { return s.err }

func exportConfig() *config.ExportConfig {
	return &config.ExportConfig{Format: config.ExportFormatPng, JPEGQuality: 90}
}

func TestBridge_Save(t *testing.T) {
	log := zaptest.NewLogger(t)
	store, err := OpenSQLite(":memory:", log)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := newFixture(t)
	f.mount(t)
	b := NewBridge(store, exportConfig(), log)
	ctx := context.Background()

	f.session.SetEditedValue(0, common.RegionTypeTitle, "Saved title")
	if !f.session.Dirty() {
		t.Fatal("session is not dirty after edit")
	}
	if _, err := b.Save(ctx, f.doc, f.session, f.ws.Mounts()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if f.session.Dirty() {
		t.Error("session is dirty after save")
	}

	got, err := store.Load(ctx, f.doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slides[0].Title != "Saved title" {
		t.Errorf("stored title = %q", got.Slides[0].Title)
	}

	if _, err := b.Save(ctx, f.doc, f.session, f.ws.Mounts()); err != nil {
		t.Fatal(err)
	}
	if rev, err := store.Revision(ctx, f.doc.ID); err != nil || rev != 2 {
		t.Errorf("Revision() = %d, %v, want 2", rev, err)
	}
}

func TestBridge_AutosaveKeepsTriggeringEdit(t *testing.T) {
	log := zaptest.NewLogger(t)
	store, err := OpenSQLite(":memory:", log)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := newFixture(t)
	b := NewBridge(store, exportConfig(), log)
	saves := 0
	f.session = editor.New(f.doc.ID, log,
		editor.WithMounts(f.ws.Mounts()),
		editor.WithAutosave(5, func(ctx context.Context) error {
			saves++
			_, err := b.Save(ctx, f.doc, f.session, f.ws.Mounts())
			return err
		}))
	f.mount(t)

	ctx := context.Background()
	for _, title := range []string{"a", "b", "c", "d", "Fifth"} {
		// surface is re-rendered only after autosave had its chance
		f.session.SetEditedValue(0, common.RegionTypeTitle, title)
		if err := f.ws.MountSlide(ctx, f.doc, f.session, 0); err != nil {
			t.Fatal(err)
		}
	}
	if saves != 1 {
		t.Fatalf("autosaved %d times, want 1", saves)
	}
	got, err := store.Load(ctx, f.doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slides[0].Title != "Fifth" {
		t.Errorf("autosaved title = %q, want Fifth", got.Slides[0].Title)
	}
	if f.session.Dirty() {
		t.Error("session is dirty after autosave")
	}
}

func TestBridge_SaveFailureKeepsEdits(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("offline")
	b := NewBridge(failingStore{err: boom}, exportConfig(), zaptest.NewLogger(t))

	f.session.SetEditedValue(0, common.RegionTypeTitle, "Unsaved")
	if _, err := b.Save(context.Background(), f.doc, f.session, nil); !errors.Is(err, boom) {
		t.Fatalf("Save() error = %v, want %v", err, boom)
	}
	if !f.session.Dirty() {
		t.Error("session is not dirty after failed save")
	}
	if got := f.session.GetEditedValue(0, common.RegionTypeTitle, ""); got != "Unsaved" {
		t.Errorf("edit lost: %q", got)
	}
}

type brokenSurface struct {
	surface.Surface
}

func (brokenSurface) CaptureSnapshot(context.Context) (image.Image, error) {
	return nil, errors.New("capture failed")
}

func TestBridge_Export(t *testing.T) {
	f := newFixture(t)
	f.mount(t)
	dir := t.TempDir()
	exp, err := NewDirExporter(dir)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBridge(nil, exportConfig(), zaptest.NewLogger(t))

	names, err := b.Export(context.Background(), f.ws.Mounts(), exp)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := []string{"slide_01.png", "slide_02.png", "slide_03.png"}
	if !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	for _, name := range want {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		img, _, err := image.Decode(strings.NewReader(string(data)))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got := img.Bounds().Size(); got != image.Pt(540, 675) {
			t.Errorf("%s size = %v", name, got)
		}
	}
}

func TestBridge_ExportIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.mount(t)
	f.ws.Mounts().Mount(brokenSurface{f.surface(t, 1)})

	exp, err := NewDirExporter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := exportConfig()
	cfg.Format = config.ExportFormatJpeg
	names, err := NewBridge(nil, cfg, zaptest.NewLogger(t)).Export(context.Background(), f.ws.Mounts(), exp)
	if err == nil || !strings.Contains(err.Error(), "slide 2") {
		t.Errorf("Export() error = %v, want failure of slide 2", err)
	}
	if want := []string{"slide_01.jpg", "slide_03.jpg"}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestZipExporter(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewZipExporter(dir, "My Carousel!")
	if err != nil {
		t.Fatal(err)
	}
	for i := range 2 {
		if err := exp.Write(SlideName(i, ".png"), []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "my-carousel.zip"); exp.Path() != want {
		t.Errorf("Path() = %q, want %q", exp.Path(), want)
	}

	r, err := zip.OpenReader(exp.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	if want := []string{"my-carousel/slide_01.png", "my-carousel/slide_02.png"}; !slices.Equal(names, want) {
		t.Errorf("entries = %v, want %v", names, want)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	doc := testDocument()
	if err := store.Save(ctx, doc.ID, doc); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile.Name != "Ann Lee" || len(got.Slides) != 3 {
		t.Errorf("loaded %+v", got)
	}
	ids, err := store.List(ctx)
	if err != nil || !slices.Equal(ids, []string{"doc-1"}) {
		t.Errorf("List() = %v, %v", ids, err)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if _, err := store.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if ids, err := store.List(ctx); err != nil || len(ids) != 0 {
		t.Errorf("List() = %v, %v", ids, err)
	}
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStorage(&config.StorageConfig{Driver: config.StorageDriverFile, Directory: dir}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("OpenStorage() = %T, want *FileStore", s)
	}
	s.Close()
}
