package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
)

// Check parses templates and reports their errors and diagnostics.
//
// When environment flags are given, each template's declared keys are also
// checked against that environment.
type Check struct {
	Env EnvFlags `embed:""`

	Strict   bool `help:"Fail when a template has diagnostics."`
	MaxDepth int  `default:"${maxDepth}" help:"Maximum nesting depth of block directives."`

	Templates []string `arg:"" help:"Template files or '-' for stdin." name:"template"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var env *lang.Env

	if !c.Env.IsZero() {
		env, err = c.Env.Load(ctx)
		if err != nil {
			return lang.WrapError(err).With(slog.String("command", "check"))
		}
	}

	out := stdoutFrom(ctx)

	var failed, warned int

	for _, path := range uniquePaths(c.Templates) {
		errs, diags := c.check(ctx, out, path, env)
		failed += errs
		warned += diags
	}

	log.DebugContext(ctx, "checked",
		slog.Int("templates", len(c.Templates)),
		slog.Int("failed", failed),
		slog.Int("diagnostics", warned))

	if failed > 0 || (c.Strict && warned > 0) {
		return ErrCheckFailed.With(
			slog.Int("failed", failed),
			slog.Int("diagnostics", warned),
		)
	}

	return nil
}

// check reports the problems of one template and returns the number of
// errors and diagnostics found.
func (c *Check) check(ctx context.Context, out io.Writer, path string, env *lang.Env) (errs, diags int) {
	src, err := openSource(ctx, path)
	if err != nil {
		report(out, path, "", "error", err)

		return 1, 0
	}
	defer src.Close()

	tmpl, text, err := compile(ctx, src, lang.WithMaxDepth(c.MaxDepth))
	if err != nil {
		report(out, src.Name, text, "error", err)

		return 1, 0
	}

	for _, d := range tmpl.Diagnostics {
		report(out, src.Name, text, "warning", d)
	}

	if env != nil {
		if err := tmpl.CheckKeys(env); err != nil {
			report(out, src.Name, text, "error", err)

			return 1, len(tmpl.Diagnostics)
		}
	}

	return 0, len(tmpl.Diagnostics)
}

// report writes one problem in the form "name:line:col: severity: message",
// followed by the offending source line when the problem has an offset.
func report(out io.Writer, name, text, severity string, err error) {
	loc := name

	var ee *lang.Error
	if errors.As(err, &ee) {
		if offset, ok := ee.Offset(); ok {
			loc += ":" + lang.PositionOf(text, offset).String()
		}
	}

	fmt.Fprintf(out, "%s: %s: %v\n", loc, severity, err)
	fmt.Fprint(out, lang.Snippet(text, err))
}
