package cli

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func load(t *testing.T, doc string) config {
	t.Helper()

	r, err := resolve(context.Background())(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	cfg, ok := r.(config)
	if !ok {
		t.Fatalf("resolve() returned %T, want config", r)
	}

	return cfg
}

func TestResolve(t *testing.T) {
	cfg := load(t, `
log:
  level: debug
  pretty: false
max_depth: 32
ratio: 0.5
env-file:
  - a.yaml
  - b.yaml
`)

	want := config{
		"log-level":  "debug",
		"log-pretty": false,
		"max-depth":  "32",
		"ratio":      "0.5",
		"env-file":   []any{"a.yaml", "b.yaml"},
	}

	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("resolve() = %#v, want %#v", cfg, want)
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, doc := range []string{"", "key: [unclosed"} {
		if cfg := load(t, doc); len(cfg) != 0 {
			t.Errorf("resolve(%q) = %v, want empty", doc, cfg)
		}
	}
}

func TestResolveFlags(t *testing.T) {
	var app struct {
		LogLevel string   `default:"info"`
		MaxDepth int      `default:"100"`
		Pretty   bool     `default:"true" negatable:""`
		Tags     []string `sep:"none"`
	}

	resolver := load(t, "log_level: warn\nmax-depth: 7\npretty: false\ntags: [x, y]\n")

	parser, err := kong.New(&app, kong.Resolvers(resolver))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse(nil); err != nil {
		t.Fatal(err)
	}

	if app.LogLevel != "warn" || app.MaxDepth != 7 || app.Pretty {
		t.Errorf("flags = %+v, want config values", app)
	}

	if !reflect.DeepEqual(app.Tags, []string{"x", "y"}) {
		t.Errorf("tags = %q, want [x y]", app.Tags)
	}

	// Command-line flags take precedence over the configuration.
	if _, err := parser.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatal(err)
	}

	if app.LogLevel != "error" {
		t.Errorf("log-level = %q, want the command-line value", app.LogLevel)
	}
}
