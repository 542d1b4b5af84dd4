package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Editor.AutosaveEvery != 5 {
		t.Errorf("AutosaveEvery = %d, want 5", cfg.Editor.AutosaveEvery)
	}
	if cfg.Editor.Pincher.MinHeight != 200 || cfg.Editor.Pincher.MaxHeight != 1350 {
		t.Errorf("Pincher bounds = [%v,%v], want [200,1350]", cfg.Editor.Pincher.MinHeight, cfg.Editor.Pincher.MaxHeight)
	}
	if cfg.Assets.Timeout != 2*time.Second {
		t.Errorf("Assets.Timeout = %v, want 2s", cfg.Assets.Timeout)
	}
	if cfg.Export.Format != ExportFormatPng {
		t.Errorf("Export.Format = %v, want png", cfg.Export.Format)
	}
	if cfg.Storage.Driver != StorageDriverSqlite {
		t.Errorf("Storage.Driver = %v, want sqlite", cfg.Storage.Driver)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
editor:
  autosave_every: 3
  pincher:
    min_height: 200
    max_height: 1000
assets:
  timeout: 500ms
export:
  format: jpeg
  jpeg_quality: 85
storage:
  driver: file
  directory: ` + filepath.Join(tmpDir, "docs") + `
logging:
  console:
    level: debug
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Editor.AutosaveEvery != 3 {
		t.Errorf("AutosaveEvery = %d, want 3", cfg.Editor.AutosaveEvery)
	}
	if cfg.Editor.Pincher.MaxHeight != 1000 {
		t.Errorf("MaxHeight = %v, want 1000", cfg.Editor.Pincher.MaxHeight)
	}
	// values absent from file keep defaults
	if cfg.Editor.Pincher.FocusDivisor != 5 {
		t.Errorf("FocusDivisor = %v, want 5", cfg.Editor.Pincher.FocusDivisor)
	}
	if cfg.Assets.Timeout != 500*time.Millisecond {
		t.Errorf("Assets.Timeout = %v, want 500ms", cfg.Assets.Timeout)
	}
	if cfg.Export.Format != ExportFormatJpeg || cfg.Export.Format.Ext() != ".jpg" {
		t.Errorf("Export.Format = %v", cfg.Export.Format)
	}
	if cfg.Storage.Driver != StorageDriverFile {
		t.Errorf("Storage.Driver = %v, want file", cfg.Storage.Driver)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "version: 1\neditor:\n  autosave_every: 3\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"inverted pincher bounds", "version: 1\neditor:\n  pincher:\n    min_height: 900\n    max_height: 300\n"},
		{"zero autosave", "version: 1\neditor:\n  autosave_every: 0\n"},
		{"unknown export format", "version: 1\nexport:\n  format: gif\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	dump, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"autosave_every: 5", "format: png", "driver: sqlite"} {
		if !strings.Contains(string(dump), want) {
			t.Errorf("dump does not contain %q", want)
		}
	}
	if _, err := unmarshalConfig(dump, &Config{}, true); err != nil {
		t.Errorf("dumped config does not load back: %v", err)
	}
}
