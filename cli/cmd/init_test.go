package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// testCLI is a minimal application model with one flag of each kind written
// to the configuration file.
type testCLI struct {
	Level   string   `default:"info"                 help:"Log level."`
	Depth   int      `default:"3"                    help:"Depth."`
	Quiet   bool     `help:"Quiet."`
	Tags    []string `help:"Tags."`
	Comment string   `help:"Comment."`
	Secret  string   `default:"x"                    help:"Hidden." hidden:""`
}

func newInitContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli testCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), ktx)
}

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		setup   func(t *testing.T, path string) // setup function to prepare test
		wantErr error
	}{
		{
			name: "create_new_config",
		},
		{
			name:  "overwrite_existing_with_force",
			force: true,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "fail_without_force",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: ErrWriteConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.setup != nil {
				tt.setup(t, confPath)
			}

			ctx := newInitContext(t, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrFileExists) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var m map[string]any
			if err := yaml.Unmarshal(content, &m); err != nil {
				t.Errorf("generated config is not valid YAML: %v", err)
			}
		})
	}
}

// TestInitCreatesDirectory tests that missing parent directories are created.
func TestInitCreatesDirectory(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	if err := (&Init{}).Run(newInitContext(t, confPath)); err != nil {
		t.Fatalf("Init.Run() error = %v", err)
	}

	if _, err := os.Stat(confPath); err != nil {
		t.Errorf("Init.Run() did not create %s: %v", confPath, err)
	}
}

// TestInitFormatOutput tests the exact configuration written for flag values.
func TestInitFormatOutput(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "config.yaml")
	ctx := newInitContext(t, confPath, "--depth=5", "--quiet", "--tags=a,b")

	if err := (&Init{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatal(err)
	}

	want := "level: info\ndepth: 5\nquiet: true\ntags:\n- a\n- b\n"

	var got, exp yaml.MapSlice

	if err := yaml.UnmarshalWithOptions(content, &got, yaml.UseOrderedMap()); err != nil {
		t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
	}

	if err := yaml.UnmarshalWithOptions([]byte(want), &exp, yaml.UseOrderedMap()); err != nil {
		t.Fatal(err)
	}

	gotYAML, _ := yaml.Marshal(got)
	expYAML, _ := yaml.Marshal(exp)

	if string(gotYAML) != string(expYAML) {
		t.Errorf("config =\n%s\nwant\n%s", content, want)
	}
}

// TestPlainValue tests conversion of flag values to plain scalars.
func TestPlainValue(t *testing.T) {
	type level string

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"nil", nil, nil},
		{"string", "x", "x"},
		{"empty_string", "", nil},
		{"named_string", level("debug"), "debug"},
		{"bool", true, true},
		{"int", 7, int64(7)},
		{"uint", uint8(7), uint64(7)},
		{"float", 1.5, 1.5},
		{"empty_slice", []string{}, nil},
		{"unsupported", struct{}{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plainValue(tt.value); got != tt.want {
				t.Errorf("plainValue(%v) = %#v, want %#v", tt.value, got, tt.want)
			}
		})
	}

	got, ok := plainValue([]string{"a", "", "b"}).([]any)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("plainValue(slice) = %#v, want [a b]", got)
	}
}
