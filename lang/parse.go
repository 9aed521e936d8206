package lang

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"
	"unicode"

	"github.com/klauspost/readahead"
)

// ParseReader parses a template read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	src, err := readSource(r)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, src, opts...)
}

// readSource reads all of r as template text.
func readSource(r io.Reader) (string, error) {
	// Pre-fetch input asynchronously while earlier chunks are copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return string(data), nil
}

// ParseString parses a template from a string. It is equivalent to [Parse].
func ParseString(ctx context.Context, s string, opts ...Option) (*Template, error) {
	return Parse(ctx, s, opts...)
}

// Parse compiles the template src.
//
// Scan and structural errors abort compilation and are returned as [ErrScan]
// or [ErrParse]. Non-fatal problems are recorded in [Template.Diagnostics].
func Parse(ctx context.Context, src string, opts ...Option) (*Template, error) {
	t := &Template{Source: src}

	applyDefaults(t)
	applyOptions(t, opts...)

	t.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(src)),
		slog.Int("max_depth", t.maxDepth))

	next, stop := iter.Pull2(Scan(src))
	defer stop()

	p := &parser{tmpl: t, next: next}

	nodes, term, err := p.parseNodes(ctx)
	if err != nil {
		t.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	if term != nil {
		return nil, term.stray()
	}

	t.Nodes = nodes

	for _, d := range t.Diagnostics {
		t.logger.WarnContext(ctx, "template diagnostic", slog.Any("diagnostic", d))
	}

	t.logger.TraceContext(ctx, "parse complete",
		slog.Int("node_count", len(nodes)),
		slog.Int("directive_count", p.directives),
		slog.Int("diagnostic_count", len(t.Diagnostics)))

	return t, nil
}

// termKind identifies the directive that ended a node sequence.
type termKind int

const (
	termClose  termKind = iota // {/}
	termElse                   // {:else}
	termElseIf                 // {:else if expr}
)

// terminator is a directive that closes or splits an enclosing block.
type terminator struct {
	cond Expr // for termElseIf
	span Span
	kind termKind
}

// stray returns the error for a terminator found outside any block that
// accepts it.
func (t *terminator) stray() *Error {
	if t.kind == termClose {
		return ErrParse.WithOffset(t.span.Offset).
			With(slog.String("token", "{/}"), slog.String("reason", "no open block"))
	}

	return ErrParse.WithOffset(t.span.Offset).
		With(slog.String("token", "{:else}"), slog.String("reason", "else outside #if"))
}

// parser holds the state of one template compilation. Each recursive call of
// parseNodes owns the node slice it builds.
type parser struct {
	tmpl       *Template
	next       func() (Span, error, bool)
	depth      int
	directives int
}

// parseNodes parses nodes until a terminator directive or the end of input.
// The terminator is returned unconsumed by any node; it is nil at end of input.
func (p *parser) parseNodes(ctx context.Context) ([]Node, *terminator, error) {
	var nodes []Node

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		span, err, ok := p.next()
		if !ok {
			return nodes, nil, nil
		}

		if err != nil {
			return nil, nil, err
		}

		if span.Kind == SpanText {
			nodes = append(nodes, &Text{Value: span.Text, Offset: span.Offset})

			continue
		}

		node, term, err := p.parseDirective(ctx, span)
		if err != nil {
			return nil, nil, err
		}

		if term != nil {
			return nodes, term, nil
		}

		nodes = append(nodes, node)
	}
}

// parseDirective dispatches on the leading sigil of a directive.
func (p *parser) parseDirective(ctx context.Context, span Span) (Node, *terminator, error) {
	content, base := trimDirective(span)

	p.directives++

	if content == "" {
		return nil, nil, ErrParse.WithOffset(span.Offset).
			With(slog.String("token", "{}"), slog.String("reason", "empty directive"))
	}

	switch content[0] {
	case '@':
		word, rest, restBase := splitKeyword(content[1:], base+1)
		if word != "keys" {
			return nil, nil, p.unknown(span, "@"+word)
		}

		node, err := p.parseKeys(span, rest, restBase)

		return node, nil, err

	case '#':
		word, rest, restBase := splitKeyword(content[1:], base+1)

		switch word {
		case "if":
			node, err := p.parseIf(ctx, span, rest, restBase)

			return node, nil, err

		case "for":
			node, err := p.parseFor(ctx, span, rest, restBase)

			return node, nil, err
		}

		return nil, nil, p.unknown(span, "#"+word)

	case ':':
		word, rest, restBase := splitKeyword(content[1:], base+1)
		if word != "else" {
			return nil, nil, p.unknown(span, ":"+word)
		}

		if rest == "" {
			return nil, &terminator{span: span, kind: termElse}, nil
		}

		word, rest, restBase = splitKeyword(rest, restBase)
		if word != "if" || rest == "" {
			return nil, nil, ErrParse.WithOffset(span.Offset).
				With(slog.String("token", "{"+span.Text+"}"), slog.String("expected", "{:else} or {:else if expr}"))
		}

		cond, err := ParseExpr(rest, restBase)
		if err != nil {
			return nil, nil, err
		}

		return nil, &terminator{span: span, kind: termElseIf, cond: cond}, nil

	case '/':
		if strings.TrimSpace(content[1:]) != "" {
			return nil, nil, ErrParse.WithOffset(span.Offset).
				With(slog.String("token", "{"+span.Text+"}"), slog.String("expected", "{/}"))
		}

		return nil, &terminator{span: span, kind: termClose}, nil
	}

	e, err := ParseExpr(content, base)
	if err != nil {
		return nil, nil, err
	}

	return &Interpolate{Expr: e, Offset: span.Offset}, nil, nil
}

func (p *parser) parseKeys(span Span, rest string, base int) (Node, error) {
	node := &Keys{Offset: span.Offset}

	for _, field := range fieldsIndex(rest) {
		if !isIdentifier(field.text) || isKeyword(field.text) {
			return nil, ErrParse.WithOffset(base+field.offset).
				With(slog.String("token", field.text), slog.String("expected", "key name"))
		}

		node.Names = append(node.Names, field.text)
	}

	if p.directives > 1 {
		p.tmpl.Diagnostics = append(p.tmpl.Diagnostics,
			ErrMisplacedKeys.WithOffset(span.Offset).
				With(slog.Int("directive", p.directives)))
	}

	return node, nil
}

func (p *parser) enter(span Span) error {
	p.depth++
	if p.depth > p.tmpl.maxDepth {
		return ErrMaxDepth.WithOffset(span.Offset).
			With(slog.Int("max_depth", p.tmpl.maxDepth))
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseIf(ctx context.Context, span Span, rest string, base int) (Node, error) {
	if rest == "" {
		return nil, ErrParse.WithOffset(span.Offset).
			With(slog.String("token", "{"+span.Text+"}"), slog.String("expected", "condition"))
	}

	cond, err := ParseExpr(rest, base)
	if err != nil {
		return nil, err
	}

	if err := p.enter(span); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseBranches(ctx, span, span, cond)
}

// parseBranches parses the then-branch of an if block opened by span, and
// any else or else-if branches that follow. The opener is the #if that an
// unterminated chain is reported against.
func (p *parser) parseBranches(ctx context.Context, opener, span Span, cond Expr) (*If, error) {
	node := &If{Cond: cond, Offset: span.Offset}

	then, term, err := p.parseNodes(ctx)
	if err != nil {
		return nil, err
	}

	if term == nil {
		return nil, unclosed(opener)
	}

	node.Then = then

	switch term.kind {
	case termClose:
		return node, nil

	case termElseIf:
		nested, err := p.parseBranches(ctx, opener, term.span, term.cond)
		if err != nil {
			return nil, err
		}

		node.Else = []Node{nested}

		return node, nil
	}

	els, end, err := p.parseNodes(ctx)
	if err != nil {
		return nil, err
	}

	if end == nil {
		return nil, unclosed(opener)
	}

	if end.kind != termClose {
		return nil, ErrParse.WithOffset(end.span.Offset).
			With(slog.String("token", "{"+end.span.Text+"}"), slog.String("reason", "else after else"))
	}

	node.Else = els
	if node.Else == nil {
		node.Else = []Node{}
	}

	return node, nil
}

func (p *parser) parseFor(ctx context.Context, span Span, rest string, base int) (Node, error) {
	name, coll, err := parseForHeader(rest, base)
	if err != nil {
		return nil, err
	}

	if err := p.enter(span); err != nil {
		return nil, err
	}
	defer p.leave()

	body, term, err := p.parseNodes(ctx)
	if err != nil {
		return nil, err
	}

	if term == nil {
		return nil, unclosed(span)
	}

	if term.kind != termClose {
		return nil, term.stray()
	}

	return &For{Var: name, Collection: coll, Body: body, Offset: span.Offset}, nil
}

func (p *parser) unknown(span Span, word string) *Error {
	return ErrParse.WithOffset(span.Offset).
		With(slog.String("token", word), slog.String("reason", "unknown directive"))
}

func unclosed(span Span) *Error {
	return ErrParse.WithOffset(span.Offset).
		With(
			slog.String("token", "{"+span.Text+"}"),
			slog.String("expected", "{/}"),
			slog.String("reason", "unclosed block"),
		)
}

// trimDirective returns the content of a directive span without surrounding
// whitespace, and the absolute offset of that content.
func trimDirective(span Span) (string, int) {
	trimmed := strings.TrimLeftFunc(span.Text, unicode.IsSpace)
	base := span.Offset + 1 + len(span.Text) - len(trimmed)

	return strings.TrimRightFunc(trimmed, unicode.IsSpace), base
}

// splitKeyword splits the leading identifier off s, which begins at absolute
// offset base. The remainder is trimmed and returned with its own offset.
func splitKeyword(s string, base int) (word, rest string, restBase int) {
	end := 0
	for end < len(s) {
		r := rune(s[end])
		if r >= 0x80 || !isIdentifierContinue(r) {
			break
		}

		end++
	}

	word = s[:end]
	rest = strings.TrimLeftFunc(s[end:], unicode.IsSpace)
	restBase = base + len(s) - len(rest)

	return word, strings.TrimRightFunc(rest, unicode.IsSpace), restBase
}

type field struct {
	text   string
	offset int
}

// fieldsIndex splits s around whitespace like [strings.Fields], keeping the
// offset of each field.
func fieldsIndex(s string) []field {
	var fields []field

	start := -1

	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				fields = append(fields, field{s[start:i], start})
				start = -1
			}

			continue
		}

		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		fields = append(fields, field{s[start:], start})
	}

	return fields
}
