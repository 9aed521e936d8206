package lang

import (
	"log/slog"
)

// builtins names the functions callable from expressions, with their arity.
var builtins = map[string]int{
	"len": 1,
}

// ParseExpr parses the expression src. Offsets in the returned tree and in
// errors are src offsets plus base, so that a directive's content can be
// parsed in place.
func ParseExpr(src string, base int) (Expr, error) {
	p, err := newExprParser(src, base)
	if err != nil {
		return nil, err
	}

	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, p.unexpected("end of directive")
	}

	return e, nil
}

// parseForHeader parses "ident in expr".
func parseForHeader(src string, base int) (string, Expr, error) {
	p, err := newExprParser(src, base)
	if err != nil {
		return "", nil, err
	}

	if p.tok.kind != tokIdent || isKeyword(p.tok.text) {
		return "", nil, p.unexpected("loop variable")
	}

	name := p.tok.text

	if err := p.advance(); err != nil {
		return "", nil, err
	}

	if p.tok.kind != tokIdent || p.tok.text != "in" {
		return "", nil, p.unexpected("in")
	}

	if err := p.advance(); err != nil {
		return "", nil, err
	}

	coll, err := p.parseOr()
	if err != nil {
		return "", nil, err
	}

	if p.tok.kind != tokEOF {
		return "", nil, p.unexpected("end of directive")
	}

	return name, coll, nil
}

// isKeyword reports whether s is a reserved word of the expression language.
func isKeyword(s string) bool {
	switch s {
	case "true", "false", "null", "in":
		return true
	}

	return false
}

// exprParser is a recursive-descent parser with one token of lookahead.
type exprParser struct {
	lex lexer
	tok token
}

func newExprParser(src string, base int) (*exprParser, error) {
	p := &exprParser{lex: lexer{src: src, base: base}}

	return p, p.advance()
}

func (p *exprParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

// peek returns the token after the current one without consuming anything.
func (p *exprParser) peek() (token, error) {
	lex := p.lex

	return lex.next()
}

func (p *exprParser) unexpected(expected string) *Error {
	return ErrParse.WithOffset(p.tok.offset).
		With(
			slog.String("token", p.tok.String()),
			slog.String("expected", expected),
		)
}

func (p *exprParser) expect(kind tokenKind, text string) error {
	if p.tok.kind != kind {
		return p.unexpected(text)
	}

	return p.advance()
}

// isOp reports whether the current token is one of ops.
func (p *exprParser) isOp(ops ...Op) (Op, bool) {
	if p.tok.kind != tokOp {
		return OpInvalid, false
	}

	for _, op := range ops {
		if p.tok.op == op {
			return op, true
		}
	}

	return OpInvalid, false
}

// binary parses a left-associative chain of ops over operands from next.
func (p *exprParser) binary(next func() (Expr, error), ops ...Op) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.isOp(ops...)
		if !ok {
			return left, nil
		}

		offset := p.tok.offset

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right, Offset: offset}
	}
}

func (p *exprParser) parseOr() (Expr, error) {
	return p.binary(p.parseAnd, OpOr)
}

func (p *exprParser) parseAnd() (Expr, error) {
	return p.binary(p.parseComparison, OpAnd)
}

// parseComparison parses at most one comparison. A second comparison
// operator is an error rather than a chain.
func (p *exprParser) parseComparison() (Expr, error) {
	comparisons := []Op{OpEq, OpNe, OpLt, OpGt, OpLe, OpGe}

	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	op, ok := p.isOp(comparisons...)
	if !ok {
		return left, nil
	}

	offset := p.tok.offset

	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if _, ok := p.isOp(comparisons...); ok {
		return nil, ErrParse.WithOffset(p.tok.offset).
			With(
				slog.String("token", p.tok.String()),
				slog.String("reason", "comparison operators do not chain"),
			)
	}

	return &Binary{Op: op, Left: left, Right: right, Offset: offset}, nil
}

func (p *exprParser) parseAdditive() (Expr, error) {
	return p.binary(p.parseMultiplicative, OpAdd, OpSub, OpConcat)
}

func (p *exprParser) parseMultiplicative() (Expr, error) {
	return p.binary(p.parseUnary, OpMul, OpDiv, OpMod)
}

func (p *exprParser) parseUnary() (Expr, error) {
	op, ok := p.isOp(OpSub, OpNot)
	if !ok {
		return p.parsePostfix()
	}

	offset := p.tok.offset

	if err := p.advance(); err != nil {
		return nil, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	if op == OpSub {
		op = OpNeg
	}

	return &Unary{Op: op, Operand: operand, Offset: offset}, nil
}

// parsePostfix parses a primary followed by any number of index suffixes.
func (p *exprParser) parsePostfix() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.tok.kind == tokLBracket {
		offset := p.tok.offset

		if err := p.advance(); err != nil {
			return nil, err
		}

		key, err := p.parseIndexKey()
		if err != nil {
			return nil, err
		}

		if err := p.expect(tokRBracket, "]"); err != nil {
			return nil, err
		}

		base = &Index{Base: base, Key: key, Offset: offset}
	}

	return base, nil
}

// parseIndexKey parses the key of an index suffix. A key consisting of a
// single bare word is the string literal of that word; any other key is an
// ordinary expression.
func (p *exprParser) parseIndexKey() (Expr, error) {
	if p.tok.kind == tokIdent && !isKeyword(p.tok.text) {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}

		if next.kind == tokRBracket {
			key := &Literal{Value: String(p.tok.text), Offset: p.tok.offset}

			return key, p.advance()
		}
	}

	return p.parseOr()
}

func (p *exprParser) parsePrimary() (Expr, error) {
	tok := p.tok

	switch tok.kind {
	case tokNumber:
		return &Literal{Value: Number(tok.num), Offset: tok.offset}, p.advance()

	case tokString:
		return &Literal{Value: String(tok.str), Offset: tok.offset}, p.advance()

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}

		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		return e, p.expect(tokRParen, ")")

	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}

		switch tok.text {
		case "true":
			return &Literal{Value: Bool(true), Offset: tok.offset}, nil
		case "false":
			return &Literal{Value: Bool(false), Offset: tok.offset}, nil
		case "null":
			return &Literal{Value: Null(), Offset: tok.offset}, nil
		case "in":
			return nil, ErrParse.WithOffset(tok.offset).
				With(slog.String("token", tok.String()), slog.String("expected", "expression"))
		}

		if p.tok.kind == tokLParen {
			return p.parseCall(tok)
		}

		return &Var{Name: tok.text, Offset: tok.offset}, nil
	}

	return nil, p.unexpected("expression")
}

// parseCall parses the argument list of a builtin call whose name has been
// consumed.
func (p *exprParser) parseCall(name token) (Expr, error) {
	arity, ok := builtins[name.text]
	if !ok {
		return nil, ErrParse.WithOffset(name.offset).
			With(slog.String("token", name.String()), slog.String("reason", "unknown function"))
	}

	if err := p.advance(); err != nil { // (
		return nil, err
	}

	call := &Call{Name: name.text, Offset: name.offset}

	for p.tok.kind != tokRParen {
		if len(call.Args) > 0 {
			if err := p.expect(tokComma, ","); err != nil {
				return nil, err
			}
		}

		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)
	}

	if err := p.advance(); err != nil { // )
		return nil, err
	}

	if len(call.Args) != arity {
		return nil, ErrParse.WithOffset(name.offset).
			With(
				slog.String("token", name.String()),
				slog.Int("args", len(call.Args)),
				slog.Int("expected_args", arity),
			)
	}

	return call, nil
}
