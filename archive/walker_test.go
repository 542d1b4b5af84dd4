package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func makeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWalk(t *testing.T) {
	p := makeZip(t, map[string]string{
		"templates/classic.html": "<div></div>",
		"templates/bold.HTML":    "<div></div>",
		"templates/readme.txt":   "notes",
		"other/x.html":           "<p></p>",
		"templates/sub/":         "",
	})

	tests := []struct {
		name  string
		match MatchFunc
		want  []string
	}{
		{"all", nil, []string{"other/x.html", "templates/bold.HTML", "templates/classic.html", "templates/readme.txt"}},
		{"prefix", Prefix("templates/"), []string{"templates/bold.HTML", "templates/classic.html", "templates/readme.txt"}},
		{"ext", Ext(".html"), []string{"other/x.html", "templates/bold.HTML", "templates/classic.html"}},
		{"none", Prefix("nothing/"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := Walk(p, tt.match, func(archive string, f *zip.File) error {
				if archive != p {
					t.Errorf("archive = %s, want %s", archive, p)
				}
				got = append(got, f.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("visited %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	p := makeZip(t, map[string]string{"a.html": "a", "b.html": "b", "c.html": "c"})
	stop := errors.New("stop")
	count := 0
	err := Walk(p, nil, func(string, *zip.File) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) || count != 1 {
		t.Fatalf("err = %v, count = %d", err, count)
	}
}

func TestWalk_Unsafe(t *testing.T) {
	p := makeZip(t, map[string]string{"../evil.html": "x"})
	if err := Walk(p, nil, func(string, *zip.File) error { return nil }); err == nil {
		t.Fatal("expected error for path traversal entry")
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Walk(p, nil, func(string, *zip.File) error { return nil }); err == nil {
		t.Fatal("expected error for invalid archive")
	}
	if err := Walk(filepath.Join(t.TempDir(), "missing.zip"), nil, func(string, *zip.File) error { return nil }); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestReadFile(t *testing.T) {
	p := makeZip(t, map[string]string{"a.html": "0123456789"})
	err := Walk(p, nil, func(_ string, f *zip.File) error {
		data, err := ReadFile(f, 0)
		if err != nil || string(data) != "0123456789" {
			t.Errorf("ReadFile = %q, %v", data, err)
		}
		if _, err := ReadFile(f, 5); err == nil {
			t.Error("expected size limit error")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := map[string]bool{
		"a/b.html":      true,
		"a/../b.html":   false,
		"/abs.html":     false,
		`\win.html`:     false,
		`a\..\b.html`:   false,
		"..hidden.html": true,
	}
	for name, want := range tests {
		if got := isSafePath(name); got != want {
			t.Errorf("isSafePath(%q) = %v, want %v", name, got, want)
		}
	}
}
