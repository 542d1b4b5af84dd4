package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	PincherConfig struct {
		MinHeight    float64 `yaml:"min_height" validate:"gt=0"`
		MaxHeight    float64 `yaml:"max_height" validate:"gtfield=MinHeight"`
		FocusDivisor float64 `yaml:"focus_divisor" validate:"gt=0"`
	}

	EditorConfig struct {
		AutosaveEvery int           `yaml:"autosave_every" validate:"min=1"`
		Zoom          float64       `yaml:"zoom" validate:"gt=0"`
		Pincher       PincherConfig `yaml:"pincher"`
	}

	RenderConfig struct {
		Width           int    `yaml:"width" validate:"min=100,max=8192"`
		Height          int    `yaml:"height" validate:"min=100,max=8192"`
		TemplatesPath   string `yaml:"templates_path,omitempty"`
		DefaultTemplate string `yaml:"default_template" validate:"required"`
	}

	AssetsConfig struct {
		Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
		CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
		MaxBytes int64         `yaml:"max_bytes" validate:"min=1024"`
	}

	ExportConfig struct {
		Format      ExportFormat `yaml:"format" validate:"gte=0"`
		JPEGQuality int          `yaml:"jpeg_quality" validate:"min=40,max=100"`
		Archive     bool         `yaml:"archive"`
	}

	ImageSearchConfig struct {
		Endpoint string        `yaml:"endpoint,omitempty" validate:"omitempty,url"`
		APIKey   SecretString  `yaml:"api_key,omitempty"`
		Limit    int           `yaml:"limit" validate:"min=1,max=50"`
		Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	}

	StorageConfig struct {
		Driver    StorageDriver `yaml:"driver" validate:"gte=0"`
		Database  string        `yaml:"database" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required_if=Driver 0"`
		Directory string        `yaml:"directory" validate:"required_if=Driver 1"`
	}

	Config struct {
		Version     int               `yaml:"version" validate:"eq=1"`
		Editor      EditorConfig      `yaml:"editor"`
		Render      RenderConfig      `yaml:"render"`
		Assets      AssetsConfig      `yaml:"assets"`
		Export      ExportConfig      `yaml:"export"`
		ImageSearch ImageSearchConfig `yaml:"image_search"`
		Storage     StorageConfig     `yaml:"storage"`
		Logging     LoggingConfig     `yaml:"logging"`
		Reporting   ReporterConfig    `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
