package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newBufferedLogger(t *testing.T, level LogLevel) (*ZapLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: level, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger, &buf
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", scanner.Text())
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestZapLogger_LogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel LogLevel
		logFunc  func(Logger)
		expected bool
	}{
		{name: "debug level logs debug", logLevel: DebugLevel, logFunc: func(l Logger) { l.Debug("m") }, expected: true},
		{name: "info level does not log debug", logLevel: InfoLevel, logFunc: func(l Logger) { l.Debug("m") }, expected: false},
		{name: "info level logs info", logLevel: InfoLevel, logFunc: func(l Logger) { l.Info("m") }, expected: true},
		{name: "warn level does not log info", logLevel: WarnLevel, logFunc: func(l Logger) { l.Info("m") }, expected: false},
		{name: "warn level logs warn", logLevel: WarnLevel, logFunc: func(l Logger) { l.Warn("m") }, expected: true},
		{name: "error level does not log warn", logLevel: ErrorLevel, logFunc: func(l Logger) { l.Warn("m") }, expected: false},
		{name: "error level logs error", logLevel: ErrorLevel, logFunc: func(l Logger) { l.Error("m") }, expected: true},
		{name: "unknown level falls back to info", logLevel: "loud", logFunc: func(l Logger) { l.Debug("m") }, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedLogger(t, tt.logLevel)
			tt.logFunc(logger)
			_ = logger.Sync()

			if got := buf.Len() > 0; got != tt.expected {
				t.Fatalf("expected output=%v, got %q", tt.expected, buf.String())
			}
		})
	}
}

func TestZapLogger_StructuredFields(t *testing.T) {
	logger, buf := newBufferedLogger(t, InfoLevel)
	logger.With("service", "notify").Info("delivered", "backend", "chanify", "attempts", 2)
	_ = logger.Sync()

	entries := decodeEntries(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	for _, key := range []string{"timestamp", "level", "message", "caller"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("expected %s in entry %v", key, entry)
		}
	}
	if entry["service"] != "notify" || entry["backend"] != "chanify" || entry["attempts"] != float64(2) {
		t.Errorf("unexpected fields %v", entry)
	}
}

func TestZapLogger_WithContext(t *testing.T) {
	logger, buf := newBufferedLogger(t, InfoLevel)

	logger.WithContext(ContextWithEventID(context.Background(), "evt-1")).Info("with id")
	logger.WithContext(context.Background()).Info("without id")
	_ = logger.Sync()

	entries := decodeEntries(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["event_id"] != "evt-1" {
		t.Errorf("expected event_id, got %v", entries[0])
	}
	if _, ok := entries[1]["event_id"]; ok {
		t.Errorf("unexpected event_id in %v", entries[1])
	}
}

func TestZapLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Info("console entry", "key", "value")
	_ = logger.Sync()

	out := buf.String()
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Fatalf("expected console output, got JSON %q", out)
	}
	if !strings.Contains(out, "console entry") || !strings.Contains(out, "value") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestZapLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notify.log")
	var buf bytes.Buffer
	logger, err := NewZapLogger(Config{Level: InfoLevel, Format: TextFormat, File: path, Output: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Info("to both", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("expected JSON in log file, got %q", data)
	}
	if entry["message"] != "to both" {
		t.Errorf("unexpected file entry %v", entry)
	}
	if buf.Len() == 0 {
		t.Error("expected console copy")
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.With("k", "v").Error("dropped")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "debug", want: DebugLevel},
		{input: "INFO", want: InfoLevel},
		{input: "warning", want: WarnLevel},
		{input: " error ", want: ErrorLevel},
		{input: "trace", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLogLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	for input, want := range map[string]LogFormat{"json": JSONFormat, "text": TextFormat, "Console": TextFormat} {
		got, err := ParseLogFormat(input)
		if err != nil || got != want {
			t.Errorf("ParseLogFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseLogFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

// Every emitted entry is a single JSON object carrying the message and level.
func TestProperty_StructuredLoggingFormat(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("entries are valid JSON with required fields", prop.ForAll(
		func(level LogLevel, message string, eventID string) bool {
			var buf bytes.Buffer
			logger, err := NewZapLogger(Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
			if err != nil {
				return false
			}
			ctx := context.Background()
			if eventID != "" {
				ctx = ContextWithEventID(ctx, eventID)
			}
			l := logger.WithContext(ctx)
			switch level {
			case DebugLevel:
				l.Debug(message)
			case InfoLevel:
				l.Info(message)
			case WarnLevel:
				l.Warn(message)
			case ErrorLevel:
				l.Error(message)
			}
			_ = logger.Sync()

			var entry map[string]any
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				return false
			}
			if entry["message"] != message || entry["level"] != string(level) {
				return false
			}
			if eventID != "" && entry["event_id"] != eventID {
				return false
			}
			return true
		},
		gen.OneConstOf(DebugLevel, InfoLevel, WarnLevel, ErrorLevel),
		gen.AlphaString(),
		gen.OneGenOf(gen.Const(""), gen.Identifier()),
	))

	properties.TestingRun(t)
}
