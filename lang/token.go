package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF      tokenKind = iota // end of expression
	tokIdent                     // identifier
	tokNumber                    // number
	tokString                    // string
	tokLBracket                  // [
	tokRBracket                  // ]
	tokLParen                    // (
	tokRParen                    // )
	tokComma                     // ,
	tokOp                        // operator
)

// token is a lexeme of the expression language.
type token struct {
	text   string // source text
	str    string // decoded value of a string literal
	num    float64
	offset int // absolute offset in the template source
	kind   tokenKind
	op     Op
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of directive"
	}

	return strconv.Quote(t.text)
}

// lexer splits the content of one directive into tokens.
type lexer struct {
	src  string
	base int // absolute offset of src[0]
	pos  int
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	return r
}

func (l *lexer) peekN(n int) rune {
	pos := l.pos

	for range n {
		if pos >= len(l.src) {
			return 0
		}

		_, size := utf8.DecodeRuneInString(l.src[pos:])
		pos += size
	}

	if pos >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.src[pos:])

	return r
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size

	return r
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// next returns the next token.
func (l *lexer) next() (token, error) {
	l.skipWhitespace()

	start := l.pos
	tok := token{offset: l.base + start}

	if l.pos >= len(l.src) {
		tok.kind = tokEOF

		return tok, nil
	}

	r := l.peek()

	switch {
	case isIdentifierStart(r):
		for l.pos < len(l.src) && isIdentifierContinue(l.peek()) {
			l.advance()
		}

		tok.kind = tokIdent
		tok.text = l.src[start:l.pos]

		return tok, nil

	case r >= '0' && r <= '9':
		return l.number(tok)

	case r == '"':
		return l.string(tok)
	}

	l.advance()

	tok.kind = tokOp

	switch r {
	case '[':
		tok.kind = tokLBracket
	case ']':
		tok.kind = tokRBracket
	case '(':
		tok.kind = tokLParen
	case ')':
		tok.kind = tokRParen
	case ',':
		tok.kind = tokComma
	case '|':
		tok.op = OpOr
	case '&':
		tok.op = OpAnd
	case '=':
		tok.op = OpEq
	case '%':
		tok.op = OpMod
	case '*':
		tok.op = OpMul
	case '/':
		tok.op = OpDiv
	case '-':
		tok.op = OpSub
	case '+':
		tok.op = OpAdd
		if l.peek() == '+' {
			l.advance()

			tok.op = OpConcat
		}
	case '!':
		tok.op = OpNot
		if l.peek() == '=' {
			l.advance()

			tok.op = OpNe
		}
	case '<':
		tok.op = OpLt
		if l.peek() == '=' {
			l.advance()

			tok.op = OpLe
		}
	case '>':
		tok.op = OpGt
		if l.peek() == '=' {
			l.advance()

			tok.op = OpGe
		}
	default:
		return token{}, ErrParse.WithOffset(tok.offset).
			With(slog.String("token", string(r)), slog.String("reason", "unexpected character"))
	}

	tok.text = l.src[start:l.pos]

	return tok, nil
}

// number scans an integer or decimal literal.
func (l *lexer) number(tok token) (token, error) {
	start := l.pos

	digits := func() {
		for r := l.peek(); r >= '0' && r <= '9'; r = l.peek() {
			l.advance()
		}
	}

	digits()

	if l.peek() == '.' {
		if next := l.peekN(1); next < '0' || next > '9' {
			return token{}, ErrParse.WithOffset(tok.offset).
				With(
					slog.String("token", l.src[start:l.pos+1]),
					slog.String("reason", "malformed number"),
				)
		}

		l.advance()
		digits()
	}

	if isIdentifierContinue(l.peek()) {
		for l.pos < len(l.src) && isIdentifierContinue(l.peek()) {
			l.advance()
		}

		return token{}, ErrParse.WithOffset(tok.offset).
			With(
				slog.String("token", l.src[start:l.pos]),
				slog.String("reason", "malformed number"),
			)
	}

	tok.kind = tokNumber
	tok.text = l.src[start:l.pos]

	n, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return token{}, ErrParse.WithOffset(tok.offset).
			With(slog.String("token", tok.text)).
			Wrap(err)
	}

	tok.num = n

	return tok, nil
}

// string scans a double-quoted string literal.
func (l *lexer) string(tok token) (token, error) {
	start := l.pos

	l.advance() // opening quote

	var sb strings.Builder

	for l.pos < len(l.src) {
		r := l.advance()

		switch r {
		case '"':
			tok.kind = tokString
			tok.text = l.src[start:l.pos]
			tok.str = sb.String()

			return tok, nil

		case '\\':
			if l.pos >= len(l.src) {
				break
			}

			sb.WriteRune(unescape(l.advance()))

		default:
			sb.WriteRune(r)
		}
	}

	return token{}, ErrParse.WithOffset(tok.offset).
		With(
			slog.String("token", l.src[start:]),
			slog.String("reason", "unterminated string"),
		)
}

// unescape returns the character denoted by the escape sequence \r.
// Unknown escapes denote the escaped character itself.
func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return r
	}
}

// Character classification

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}

// isIdentifier reports whether s is a single identifier.
func isIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) || i > 0 && !isIdentifierContinue(r) {
			return false
		}
	}

	return s != ""
}
