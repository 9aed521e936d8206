package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/brace/cli/cmd/repl"
	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
)

// Repl starts an interactive session rendering each entered line as a
// template against the environment given by flags.
type Repl struct {
	Env EnvFlags `embed:""`

	MaxDepth  int  `default:"${maxDepth}" help:"Maximum nesting depth of block directives."`
	NoHistory bool `help:"Do not read or write the input history file."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env, err := r.Env.Load(ctx)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "repl"))
	}

	return repl.Run(ctx, repl.Config{
		Env:         env,
		HistoryPath: r.historyPath(ctx),
		MaxDepth:    r.MaxDepth,
		Bind:        parseInput,
		Logger:      log.Default(),
	})
}

// historyPath returns the history file in the cache directory, or the empty
// path when history is disabled or the cache directory is unknown.
func (r *Repl) historyPath(ctx context.Context) string {
	if r.NoHistory {
		return ""
	}

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	dir, ok := ktx.Model.Vars()[CacheIdentifier]
	if !ok || dir == "" {
		return ""
	}

	return filepath.Join(dir, repl.HistoryFile)
}
