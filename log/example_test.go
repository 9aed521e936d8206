package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/brace/log"
)

func Example_basic() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"), log.WithPretty(false))
	logger.Info("template rendered", slog.String("name", "greeting"), slog.Int("bytes", 12))

	// Output:
	// {"level":"INFO","msg":"template rendered","name":"greeting","bytes":12}
}

func Example_configuration() {
	logger := log.Make(os.Stderr,
		log.WithLevel(log.LevelDebug),
		log.WithTimeLayout("RFC3339Nano"),
		log.WithCaller(true))

	logger.Debug("debug message with caller info")
}

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelWarn),
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"))

	logger.Trace("trace message")
	logger.Info("info message")
	logger.Warn("warning message", slog.String("key", "value"))

	// Output:
	// WARN  warning message key=value
}

func Example_withAttributes() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger = logger.With(slog.String("template", "report.tmpl"))
	logger.Info("missing keys", slog.Any("keys", []string{"title", "rows"}))

	// Output:
	// level=INFO msg="missing keys" template=report.tmpl keys="[title rows]"
}

func Example_withContext() {
	type requestIDKey struct{}

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-789")

	logger := log.Make(os.Stderr)
	logger.InfoContext(ctx, "processing request with context")
	logger.DebugContext(ctx, "request details", slog.String("method", "POST"))
}
