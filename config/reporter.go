package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"crsl/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates everything needed to troubleshoot editing session:
// processed configuration, live markup of sandboxed slides, surface dumps,
// exported images and logs.
// Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to a file to be put in the final archive later.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.original != file {
		panic(fmt.Sprintf("report entry %q already stores %s, refusing %s", name, old.original, file))
	}
	e := entry{original: file, actual: file}
	if p, err := filepath.Abs(file); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData saves binary data to be put in the final archive later as a file
// under requested name. Repeated names are versioned with timestamps, so the
// same slide markup could be captured several times during session.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{data: data, stamp: time.Now()}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}
	r.entries[name] = e
}

// finalize writes MANIFEST followed by every stored item in name order.
// Files which disappeared since they were stored are skipped.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names := slices.Sorted(maps.Keys(r.entries))
	if err := writeEntry(arc, "MANIFEST", time.Now(), bytes.NewReader(manifest(names, r.entries))); err != nil {
		arc.Close()
		return err
	}
	for _, name := range names {
		if err := r.copyEntry(arc, name); err != nil {
			arc.Close()
			return err
		}
	}
	return arc.Close()
}

func (r *Report) copyEntry(arc *zip.Writer, name string) error {
	e := r.entries[name]
	if len(e.data) > 0 {
		return writeEntry(arc, name, e.stamp, bytes.NewReader(e.data))
	}
	info, err := os.Stat(e.actual)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(e.actual)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(arc, name, info.ModTime(), f)
}

func manifest(names []string, entries map[string]entry) []byte {
	now := time.Now()
	var buf bytes.Buffer
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		src := "(data)"
		if e.original != "" {
			src = e.original + " : " + e.actual
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, src)
	}
	return buf.Bytes()
}

// stored lists extensions of already compressed content.
var stored = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".zip": true, ".webp": true}

func writeEntry(arc *zip.Writer, name string, t time.Time, src io.Reader) error {
	method := zip.Deflate
	if stored[strings.ToLower(path.Ext(name))] {
		method = zip.Store
	}
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
