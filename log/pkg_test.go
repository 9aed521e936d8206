package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// useDefault installs a default logger writing to the returned buffer for the
// duration of the test.
func useDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	original := defaultLog.Load()
	t.Cleanup(func() { defaultLog.Store(original) })

	var buf bytes.Buffer

	l := Make(&buf, opts...)
	defaultLog.Store(&l)

	return &buf
}

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	buf := useDefault(t, WithLevel(LevelTrace), WithPretty(false))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, "TRACE"},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"TraceContext", func(msg string, attrs ...slog.Attr) { TraceContext(t.Context(), msg, attrs...) }, "TRACE"},
		{"DebugContext", func(msg string, attrs ...slog.Attr) { DebugContext(t.Context(), msg, attrs...) }, "DEBUG"},
		{"InfoContext", func(msg string, attrs ...slog.Attr) { InfoContext(t.Context(), msg, attrs...) }, "INFO"},
		{"WarnContext", func(msg string, attrs ...slog.Attr) { WarnContext(t.Context(), msg, attrs...) }, "WARN"},
		{"ErrorContext", func(msg string, attrs ...slog.Attr) { ErrorContext(t.Context(), msg, attrs...) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("package message", slog.String("key", "value"))

			entry := decode(t, buf.Bytes())
			if entry["msg"] != "package message" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %q", entry["level"], tt.level)
			}
			if entry["key"] != "value" {
				t.Errorf("key = %v, want value", entry["key"])
			}
		})
	}
}

func TestPackage_Config_UpdatesDefault(t *testing.T) {
	useDefault(t, WithPretty(false))

	var buf bytes.Buffer
	Config(WithOutput(&buf), WithLevel(LevelError), WithFormat(FormatText))

	Warn("dropped")
	Error("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("unexpected output %q", out)
	}

	if Default().Level() != LevelError {
		t.Errorf("Default().Level() = %v, want %v", Default().Level(), LevelError)
	}
}

func TestPackage_With(t *testing.T) {
	buf := useDefault(t, WithPretty(false))

	With(slog.String("component", "cli")).Info("started")

	if entry := decode(t, buf.Bytes()); entry["component"] != "cli" {
		t.Errorf("component = %v, want cli", entry["component"])
	}
}

func TestPackage_Caller_SkipsWrappers(t *testing.T) {
	buf := useDefault(t, WithCaller(true), WithPretty(false))

	Info("where")

	source, _ := decode(t, buf.Bytes())["source"].(map[string]any)
	if file, _ := source["file"].(string); !strings.HasSuffix(file, "pkg_test.go") {
		t.Errorf("source file = %q, want pkg_test.go", file)
	}
}
