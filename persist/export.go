package persist

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
)

// Exporter receives encoded slide images.
type Exporter interface {
	Write(name string, data []byte) error
	Close() error
}

// SlideName returns export file name of zero based slide index.
func SlideName(slide int, ext string) string {
	return fmt.Sprintf("slide_%02d%s", slide+1, ext)
}

// DirExporter writes every slide into its own file.
type DirExporter struct {
	dir string
}

func NewDirExporter(dir string) (*DirExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create export directory: %w", err)
	}
	return &DirExporter{dir: dir}, nil
}

func (e *DirExporter) Write(name string, data []byte) error {
	return os.WriteFile(filepath.Join(e.dir, name), data, 0o644)
}

func (e *DirExporter) Close() error {
	return nil
}

// ZipExporter puts all slides into single archive under folder named after
// document.
type ZipExporter struct {
	f      *os.File
	zw     *zip.Writer
	folder string
}

// NewZipExporter creates archive "<slug of title>.zip" in dir.
func NewZipExporter(dir, title string) (*ZipExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create export directory: %w", err)
	}
	folder := slug.Make(title)
	if folder == "" {
		folder = "carousel"
	}
	f, err := os.Create(filepath.Join(dir, folder+".zip"))
	if err != nil {
		return nil, fmt.Errorf("unable to create archive: %w", err)
	}
	return &ZipExporter{f: f, zw: zip.NewWriter(f), folder: folder}, nil
}

// Path returns location of the archive.
func (e *ZipExporter) Path() string {
	return e.f.Name()
}

func (e *ZipExporter) Write(name string, data []byte) error {
	// images are already compressed
	w, err := e.zw.CreateHeader(&zip.FileHeader{
		Name:     e.folder + "/" + name,
		Method:   zip.Store,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (e *ZipExporter) Close() error {
	if err := e.zw.Close(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}
