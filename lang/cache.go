package lang

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/zeebo/xxh3"
)

// compileCache stores compiled templates keyed by source hash and the
// options that affect parsing.
var compileCache sync.Map

type cacheKey struct {
	hash     uint64
	maxDepth int
}

// cacheEntry is populated exactly once.
type cacheEntry struct {
	once sync.Once
	src  string
	tmpl *Template
	err  error
}

// Compile is like [Parse] but caches the result by source content, so that
// identical text is parsed once even when compiled from multiple goroutines.
//
// The returned template is shared by every caller that compiled the same
// source with the same maximum depth; it keeps the logger of the first.
func Compile(ctx context.Context, src string, opts ...Option) (*Template, error) {
	var probe Template

	applyDefaults(&probe)
	applyOptions(&probe, opts...)

	key := cacheKey{hash: xxh3.HashString(src), maxDepth: probe.maxDepth}

	actual, loaded := compileCache.LoadOrStore(key, &cacheEntry{src: src})
	entry := actual.(*cacheEntry)

	if entry.src != src {
		// Hash collision: the slot belongs to different text.
		probe.logger.DebugContext(ctx, "compile cache collision",
			slog.Uint64("hash", key.hash))

		return Parse(ctx, src, opts...)
	}

	entry.once.Do(func() {
		// The shared result must not depend on one caller's cancellation.
		entry.tmpl, entry.err = Parse(context.WithoutCancel(ctx), src, opts...)
	})

	probe.logger.TraceContext(ctx, "compile",
		slog.Uint64("hash", key.hash),
		slog.Bool("cached", loaded))

	return entry.tmpl, entry.err
}

// CompileReader is like [Compile] but reads the template from r.
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	src, err := readSource(r)
	if err != nil {
		return nil, err
	}

	return Compile(ctx, src, opts...)
}

// ClearCache removes every template cached by [Compile].
func ClearCache() {
	compileCache.Clear()
}
