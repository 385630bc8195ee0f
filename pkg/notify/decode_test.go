package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlDocument = `
log_level: debug
services:
  - service: chanify
    types: [exception, start, stop]
    config:
      token: abc
  - service: file_reporter
`

const tomlDocument = `
[[services]]
service = "file_reporter"
types = ["report"]

[services.config]
file_path = "out/report.json"
`

const jsonDocument = `{"services": [{"service": "chanify", "config": {"token": "abc", "url": "http://relay"}}]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		wantCount int
	}{
		{name: "yaml", file: "notify.yaml", content: yamlDocument, wantCount: 2},
		{name: "yml", file: "notify.yml", content: yamlDocument, wantCount: 2},
		{name: "toml", file: "notify.toml", content: tomlDocument, wantCount: 1},
		{name: "json", file: "notify.json", content: jsonDocument, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := LoadFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if doc.Len() != tt.wantCount {
				t.Fatalf("expected %d services, got %d", tt.wantCount, doc.Len())
			}
		})
	}
}

func TestLoadFile_TOMLValues(t *testing.T) {
	doc, err := LoadFile(writeFile(t, "notify.toml", tomlDocument))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, ok := doc.Services()[0].Config.(FileReporterConfig)
	if !ok || cfg.FilePath != "out/report.json" {
		t.Fatalf("unexpected config %#v", doc.Services()[0].Config)
	}
}

func TestLoadFile_ReportsValidationErrors(t *testing.T) {
	path := writeFile(t, "notify.yaml", `
services:
  - service: chanify
    config:
      Token: abc
`)
	_, err := LoadFile(path)
	if !errors.Is(err, ErrUnknownConfigKey) {
		t.Fatalf("expected unknown config key for mis-cased Token, got %v", err)
	}
	if !errors.Is(err, ErrMissingRequiredKey) {
		t.Fatalf("expected missing token, got %v", err)
	}
}

func TestLoadFile_JSONNumbersAreTypeMismatches(t *testing.T) {
	path := writeFile(t, "notify.json", `{"services": [{"service": "file_reporter", "config": {"file_path": 3}}]}`)
	_, err := LoadFile(path)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	if _, err := DecodeFile("notify.ini"); err == nil || !strings.Contains(err.Error(), "unsupported document extension") {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read notify document") {
		t.Fatalf("expected read error, got %v", err)
	}
	path := writeFile(t, "broken.json", `{"services": [`)
	if _, err := DecodeFile(path); err == nil || !strings.Contains(err.Error(), "decode json") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecode_EmptyYAMLIsMalformed(t *testing.T) {
	raw, err := Decode([]byte(""), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, err = Validate(raw)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("expected malformed document, got %v", err)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	if _, err := Decode([]byte("{}"), Format("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDecode_JSONTrailingData(t *testing.T) {
	for _, data := range []string{`{"services":[]} }`, `{"services":[]} {"services":[]}`} {
		if _, err := Decode([]byte(data), FormatJSON); err == nil || !strings.Contains(err.Error(), "unexpected data after document") {
			t.Fatalf("expected trailing data error for %q, got %v", data, err)
		}
	}
	if _, err := Decode([]byte("{\"services\":[]}\n\n"), FormatJSON); err != nil {
		t.Fatalf("trailing whitespace should decode: %v", err)
	}
}
