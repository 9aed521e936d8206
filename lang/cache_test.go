package lang

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCompile_Cached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	src := "cached {x}"

	first, err := Compile(t.Context(), src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	second, err := Compile(t.Context(), src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if first != second {
		t.Error("expected identical source to share a compiled template")
	}

	other, err := Compile(t.Context(), src, WithMaxDepth(5))
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if other == first {
		t.Error("expected a different maximum depth to compile separately")
	}

	ClearCache()

	third, err := Compile(t.Context(), src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if third == first {
		t.Error("expected a fresh template after clearing the cache")
	}
}

func TestCompileReader(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	src := "read {x}"

	first, err := CompileReader(t.Context(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	second, err := Compile(t.Context(), src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if first != second {
		t.Error("expected a template read from a reader to share the cached entry")
	}

	if _, err := CompileReader(t.Context(), failingReader{}); !errors.Is(err, ErrReadInput) {
		t.Errorf("expected ErrReadInput, got %v", err)
	}
}

func TestCompile_CachesErrors(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	for range 2 {
		tmpl, err := Compile(t.Context(), "{#if x}")
		if !errors.Is(err, ErrParse) {
			t.Fatalf("expected ErrParse, got %v", err)
		}

		if tmpl != nil {
			t.Error("expected nil template")
		}
	}
}

func TestCompile_Concurrent(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	const workers = 16

	results := make([]*Template, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tmpl, err := Compile(t.Context(), "{#for x in xs}{x}{/}")
			if err != nil {
				t.Errorf("compile error: %v", err)

				return
			}

			results[i] = tmpl
		}()
	}

	wg.Wait()

	for i, tmpl := range results {
		if tmpl != results[0] {
			t.Errorf("worker %d got a different template", i)
		}
	}
}
