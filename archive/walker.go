// Package archive walks zip bundles of slide templates.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WalkFunc is called for every matching file of archive. Returning error
// stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// MatchFunc selects files by their name inside archive.
type MatchFunc func(name string) bool

// Prefix matches names starting with p.
func Prefix(p string) MatchFunc {
	return func(name string) bool {
		return strings.HasPrefix(name, p)
	}
}

// Ext matches names with any of the extensions, case insensitive.
func Ext(exts ...string) MatchFunc {
	return func(name string) bool {
		ext := strings.ToLower(path.Ext(name))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// Walk calls walkFn for every regular file in archive accepted by match, nil
// match accepts everything. Archives with absolute or ".." entry names are
// rejected.
func Walk(archive string, match MatchFunc, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || (match != nil && !match(name)) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile returns content of archived file refusing anything above limit.
func ReadFile(f *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("zip entry %q: too large (%d bytes)", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := io.Reader(rc)
	if limit > 0 {
		r = io.LimitReader(rc, limit)
	}
	return io.ReadAll(r)
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
