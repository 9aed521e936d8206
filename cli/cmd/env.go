package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
	"github.com/ardnew/brace/pkg"
)

// EnvPathVar names the environment variable holding extra directories that
// are searched for relative env files.
const EnvPathVar = pkg.EnvPrefix + "_ENV_PATH"

// EnvFlags are the flags that build the environment a template is rendered
// with. Env files are applied first in the order given, then input pairs, so
// later bindings override earlier ones.
type EnvFlags struct {
	Input   []string `help:"Bind KEY=VALUE (repeatable). VALUE is an expr literal, else a string; empty is null." name:"input"    placeholder:"KEY=VALUE" sep:"none" short:"i"`
	EnvFile []string `help:"Load bindings from a YAML mapping (repeatable)."                                          name:"env-file" placeholder:"FILE"      sep:"none" short:"e"`
	EnvPath []string `help:"Directory searched for relative env files (repeatable)."                                  name:"env-path" placeholder:"DIR"       sep:"none"`
}

// IsZero reports whether no environment flags were given.
func (f EnvFlags) IsZero() bool {
	return len(f.Input) == 0 && len(f.EnvFile) == 0
}

// Load builds the root environment from the env files and input pairs.
func (f EnvFlags) Load(ctx context.Context) (*lang.Env, error) {
	env := lang.NewEnv()
	search := f.searchPath()

	for _, name := range f.EnvFile {
		path, err := findEnvFile(name, search)
		if err != nil {
			return nil, err
		}

		if err := loadEnvFile(env, path); err != nil {
			return nil, err
		}

		log.TraceContext(ctx, "env file loaded",
			slog.String("file", path),
			slog.Int("bindings", env.Len()))
	}

	for _, pair := range f.Input {
		key, value, err := parseInput(pair)
		if err != nil {
			return nil, err
		}

		env.Set(key, value)
	}

	return env, nil
}

// searchPath merges the --env-path directories ahead of those listed in
// [EnvPathVar].
func (f EnvFlags) searchPath() []string {
	delim := string(os.PathListSeparator)

	merged := mung.Make(
		mung.WithSubjectItems(os.Getenv(EnvPathVar)),
		mung.WithDelim(delim),
		mung.WithPrefixItems(f.EnvPath...),
	).String()

	return slices.DeleteFunc(filepath.SplitList(merged), func(dir string) bool {
		return strings.TrimSpace(dir) == ""
	})
}

// findEnvFile resolves name against the working directory, then each
// directory of search in order. Absolute names are used as given.
func findEnvFile(name string, search []string) (string, error) {
	if filepath.IsAbs(name) || fileExists(name) {
		return name, nil
	}

	for _, dir := range search {
		if path := filepath.Join(dir, name); fileExists(path) {
			return path, nil
		}
	}

	return "", ErrEnvFile.
		With(slog.String("file", name), slog.Any("search", search)).
		Wrap(os.ErrNotExist)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// loadEnvFile binds each top-level key of the YAML mapping at path in env,
// in document order.
func loadEnvFile(env *lang.Env, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrEnvFile.With(slog.String("file", path)).Wrap(err)
	}

	var m yaml.MapSlice

	err = yaml.UnmarshalWithOptions(data, &m, yaml.UseOrderedMap())
	if err != nil {
		return ErrEnvFile.With(slog.String("file", path)).Wrap(err)
	}

	for _, item := range m {
		key := fmt.Sprint(item.Key)

		v, err := lang.FromGo(item.Value)
		if err != nil {
			return ErrEnvFile.
				With(slog.String("file", path), slog.String("key", key)).
				Wrap(err)
		}

		env.Set(key, v)
	}

	return nil
}

// parseInput splits a KEY=VALUE binding and decodes its value.
func parseInput(pair string) (string, lang.Value, error) {
	key, value, ok := strings.Cut(pair, "=")

	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", lang.Value{}, ErrInput.With(slog.String("input", pair))
	}

	return key, decodeInput(value), nil
}

// decodeInput converts the text of an input binding to a value.
//
// Empty text is null. Otherwise the text is decoded as an expr literal, so
// numbers, booleans, quoted strings, lists, and maps keep their type. Bare
// words are strings, including those inside lists and maps. Text that is not
// a literal, such as "555-1234" or "3*3", is taken verbatim as a string.
func decodeInput(text string) lang.Value {
	if strings.TrimSpace(text) == "" {
		return lang.Null()
	}

	program, err := expr.Compile(text,
		expr.Patch(bareWords{}),
		expr.Optimize(false))
	if err != nil || !isLiteral(program.Node()) {
		return lang.String(text)
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		return lang.String(text)
	}

	v, err := lang.FromGo(out)
	if err != nil {
		return lang.String(text)
	}

	return v
}

// bareWords rewrites identifiers as string literals.
type bareWords struct{}

func (bareWords) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		ast.Patch(node, &ast.StringNode{Value: id.Value})
	}
}

// isLiteral reports whether node is built only from scalar literals, lists,
// and maps. A negated number is a literal; any other operator is not.
func isLiteral(node ast.Node) bool {
	var v literals

	ast.Walk(&node, &v)

	return !v.rejected
}

// literals records whether a walked tree holds anything but literals.
type literals struct{ rejected bool }

func (v *literals) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.StringNode, *ast.BoolNode,
		*ast.NilNode, *ast.ArrayNode, *ast.MapNode, *ast.PairNode:
	case *ast.UnaryNode:
		switch n.Node.(type) {
		case *ast.IntegerNode, *ast.FloatNode:
			if n.Operator == "-" {
				return
			}
		}

		v.rejected = true
	default:
		v.rejected = true
	}
}
