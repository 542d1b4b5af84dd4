package config

import (
	"encoding/json"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString_Marshal(t *testing.T) {
	// encoding/json escapes angle brackets of the mask
	const maskedJSON = `"\u003csecret\u003e"`

	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantYAML string
	}{
		{name: "empty", input: "", wantJSON: "null", wantYAML: "null"},
		{name: "short", input: "x", wantJSON: maskedJSON, wantYAML: SecretStringValue},
		{name: "key", input: "sk-live-0123456789", wantJSON: maskedJSON, wantYAML: SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("json = %s, want %s", got, tt.wantJSON)
			}

			got, err = yaml.Marshal(tt.input)
			if err != nil {
				t.Fatalf("yaml.Marshal() error = %v", err)
			}
			if strings.TrimSpace(string(got)) != tt.wantYAML {
				t.Errorf("yaml = %q, want %q", got, tt.wantYAML)
			}
		})
	}
}

func TestSecretString_StringAndReveal(t *testing.T) {
	s := SecretString("top-secret")
	if s.String() != SecretStringValue {
		t.Errorf("String() = %q, want masked value", s.String())
	}
	if s.Reveal() != "top-secret" {
		t.Errorf("Reveal() = %q", s.Reveal())
	}
	if SecretString("").String() != "" {
		t.Error("empty secret must print as empty")
	}
}

func TestSecretString_InsideConfigDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.ImageSearch.APIKey = "do-not-leak"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "do-not-leak") {
		t.Error("configuration dump contains secret value")
	}
	if !strings.Contains(string(data), SecretStringValue) {
		t.Error("configuration dump does not contain masked secret")
	}
}
