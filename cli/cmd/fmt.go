package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/brace/lang"
)

// Fmt parses a template and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical template source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
	AST    AST    `cmd:""                    help:"Format the syntax tree as an indented outline."`
}

// formatSource opens and compiles the template at path for the named format.
func formatSource(
	ctx context.Context,
	path, format string,
	write func(context.Context, *lang.Template) error,
) error {
	src, err := openSource(ctx, path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmpl, _, err := compile(ctx, src)
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", format))
	}

	if err := write(ctx, tmpl); err != nil {
		return ErrWriteOutput.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}

// Native formats a template as canonical source text.
//
// Canonical source renders identically to the input for every environment.
type Native struct {
	Source string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return formatSource(ctx, f.Source, "native",
		func(ctx context.Context, t *lang.Template) error {
			return t.Format(ctx, stdoutFrom(ctx))
		})
}

// JSON formats a template's syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)." short:"n"`

	Source string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return formatSource(ctx, j.Source, "json",
		func(ctx context.Context, t *lang.Template) error {
			return t.FormatJSON(ctx, stdoutFrom(ctx), j.Indent)
		})
}

// YAML formats a template's syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output." short:"n"`

	Source string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return formatSource(ctx, y.Source, "yaml",
		func(ctx context.Context, t *lang.Template) error {
			return t.FormatYAML(ctx, stdoutFrom(ctx), y.Indent)
		})
}

// AST formats a template's syntax tree as an indented outline.
type AST struct {
	Indent int `default:"2" help:"Indent width of nested nodes." short:"n"`

	Source string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return formatSource(ctx, a.Source, "ast",
		func(ctx context.Context, t *lang.Template) error {
			return t.FormatTree(ctx, stdoutFrom(ctx), a.Indent)
		})
}
