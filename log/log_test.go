package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// decode parses a single compact JSON record.
func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(b, &entry); err != nil {
		t.Fatalf("failed to parse JSON output %q: %v", b, err)
	}

	return entry
}

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level Info, got %v", logger.Level())
	}
	if logger.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.Format() != FormatJSON {
		t.Errorf("expected default format JSON, got %v", logger.Format())
	}
	if !logger.pretty {
		t.Error("expected pretty enabled by default")
	}
}

func TestLogger_LogMethods_RespectLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at error", Logger.Error, LevelError, true},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(tt.minLevel))
			tt.logFunc(logger, "test message")

			if hasOutput := buf.Len() > 0; hasOutput != tt.logged {
				t.Errorf("expected logged=%v, got output length=%d", tt.logged, buf.Len())
			}

			if got := logger.Enabled(t.Context(), tt.minLevel); !got {
				t.Errorf("Enabled(%v) = false at its own level", tt.minLevel)
			}
		})
	}
}

func TestLogger_LevelNames(t *testing.T) {
	tests := []struct {
		logFunc func(Logger, string, ...slog.Attr)
		want    string
	}{
		{Logger.Trace, "TRACE"},
		{Logger.Debug, "DEBUG"},
		{Logger.Info, "INFO"},
		{Logger.Warn, "WARN"},
		{Logger.Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false))

			tt.logFunc(logger, "test message")

			if got := decode(t, buf.Bytes())["level"]; got != tt.want {
				t.Errorf("level = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_Make_WithFormat_SetsOutputFormat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		entry := decode(t, buf.Bytes())
		if entry["msg"] != "test message" {
			t.Errorf("expected msg=test message, got %v", entry["msg"])
		}
		if entry["key"] != "value" {
			t.Errorf("expected key=value, got %v", entry["key"])
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected a single line, got %q", buf.String())
		}
	})

	t.Run("pretty json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithFormat(FormatJSON), WithPretty(true))
		logger.Info("test message", slog.String("key", "value"))

		if !strings.Contains(buf.String(), "\n  \"msg\": \"test message\"") {
			t.Errorf("expected indented JSON, got %q", buf.String())
		}

		if entry := decode(t, buf.Bytes()); entry["key"] != "value" {
			t.Errorf("expected key=value, got %v", entry["key"])
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithFormat(FormatText), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		output := buf.String()
		if !strings.Contains(output, `msg="test message"`) {
			t.Errorf("message not found in text output: %s", output)
		}
		if !strings.Contains(output, "key=value") {
			t.Errorf("key=value not found in text output: %s", output)
		}
	})
}

func TestLogger_Make_WithCaller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true), WithPretty(false))
	logger.Info("test message")

	source, ok := decode(t, buf.Bytes())["source"].(map[string]any)
	if !ok {
		t.Fatalf("source missing when caller is enabled: %s", buf.String())
	}

	if file, _ := source["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want the calling test file", file)
	}

	buf.Reset()
	Make(&buf, WithCaller(false), WithPretty(false)).Info("test message")

	if strings.Contains(buf.String(), "source") {
		t.Error("source included when caller is disabled")
	}
}

func TestLogger_WithTimeLayout_None_OmitsTime(t *testing.T) {
	var buf bytes.Buffer
	Make(&buf, WithTimeLayout("none"), WithPretty(false)).Info("test")

	if got := buf.String(); got != "{\"level\":\"INFO\",\"msg\":\"test\"}\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(false))

	derived := logger.With(slog.String("key", "value"))
	derived.Info("test message")

	if entry := decode(t, buf.Bytes()); entry["key"] != "value" {
		t.Errorf("expected key=value in log entry, got %v", entry["key"])
	}

	buf.Reset()
	logger.Info("plain")

	if _, ok := decode(t, buf.Bytes())["key"]; ok {
		t.Error("With modified the original logger")
	}
}

func TestLogger_Wrap_KeepsAttributes(t *testing.T) {
	var first, second bytes.Buffer

	logger := Make(&first, WithPretty(false)).With(slog.String("component", "render"))
	wrapped := logger.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	wrapped.Debug("wrapped")

	if first.Len() != 0 {
		t.Errorf("original output written after Wrap: %q", first.String())
	}

	entry := decode(t, second.Bytes())
	if entry["component"] != "render" {
		t.Errorf("component = %v, want render", entry["component"])
	}
	if logger.Level() != LevelInfo {
		t.Errorf("Wrap changed the original level to %v", logger.Level())
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var l Logger

	l.Trace("test")
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test")
	l.InfoContext(t.Context(), "test")

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}

	if l2 := l.With(slog.String("key", "value")); l2.Logger != nil {
		t.Error("expected nil logger from zero value With")
	}

	var buf bytes.Buffer
	l.Wrap(WithOutput(&buf), WithPretty(false)).Info("configured")

	if !strings.Contains(buf.String(), "configured") {
		t.Error("Wrap of the zero logger does not log")
	}
}

func TestLogger_ContextMethods_LogSuccessfully(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger, string)
	}{
		{"trace", func(l Logger, msg string) { l.TraceContext(t.Context(), msg) }},
		{"debug", func(l Logger, msg string) { l.DebugContext(t.Context(), msg) }},
		{"info", func(l Logger, msg string) { l.InfoContext(t.Context(), msg) }},
		{"warn", func(l Logger, msg string) { l.WarnContext(t.Context(), msg) }},
		{"error", func(l Logger, msg string) { l.ErrorContext(t.Context(), msg) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(LevelTrace))

			tt.logFunc(logger, "test message")

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("expected %s message to be logged", tt.name)
			}
		})
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatText} {
		t.Run(format.String(), func(t *testing.T) {
			var (
				mu  sync.Mutex
				buf bytes.Buffer
			)

			logger := Make(&lockedWriter{mu: &mu, w: &buf},
				WithFormat(format), WithPretty(format == FormatText))

			var wg sync.WaitGroup
			for i := range 100 {
				wg.Go(func() {
					logger.Info("concurrent message", slog.Int("id", i))
				})
			}
			wg.Wait()

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != 100 {
				t.Errorf("expected 100 log lines, got %d", len(lines))
			}
		})
	}
}

// lockedWriter serializes writes from handlers that do not lock themselves.
type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.w.Write(p)
}

func BenchmarkLogger_Info(b *testing.B) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"json", []Option{WithPretty(false)}},
		{"json_pretty", nil},
		{"text_pretty", []Option{WithFormat(FormatText)}},
		{"caller", []Option{WithCaller(true), WithPretty(false)}},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			var buf bytes.Buffer
			logger := Make(&buf, tt.opts...).With(slog.String("component", "bench"))

			for b.Loop() {
				buf.Reset()
				logger.Info("benchmark message", slog.Int("n", 1))
			}
		})
	}
}
