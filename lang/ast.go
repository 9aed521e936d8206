package lang

import (
	"iter"
	"slices"

	"github.com/ardnew/brace/log"
)

// DefaultMaxDepth is the default maximum nesting depth of block directives.
var DefaultMaxDepth = 100

// Template is a compiled template.
//
// A Template is immutable once returned by [Parse] and may be evaluated any
// number of times, from any number of goroutines, against different
// environments.
type Template struct {
	// Nodes is the top-level node sequence in document order.
	Nodes []Node
	// Source is the text the template was compiled from.
	Source string
	// Diagnostics holds non-fatal problems found while parsing, such as a
	// misplaced keys declaration.
	Diagnostics []*Error

	logger   log.Logger
	maxDepth int
}

// Option configures a [Template] at compile time.
type Option func(*Template)

// WithMaxDepth sets the maximum nesting depth of block directives.
// Values less than 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(t *Template) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used while compiling and evaluating.
func WithLogger(logger log.Logger) Option {
	return func(t *Template) {
		t.logger = logger
	}
}

func applyDefaults(t *Template) {
	t.maxDepth = DefaultMaxDepth
}

func applyOptions(t *Template, opts ...Option) {
	for _, opt := range opts {
		opt(t)
	}
}

// All returns an iterator over every node of the template, depth-first in
// document order.
func (t *Template) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(t.Nodes, yield)
	}
}

func walk(nodes []Node, yield func(Node) bool) bool {
	for _, n := range nodes {
		if !yield(n) {
			return false
		}

		switch n := n.(type) {
		case *If:
			if !walk(n.Then, yield) || !walk(n.Else, yield) {
				return false
			}

		case *For:
			if !walk(n.Body, yield) {
				return false
			}
		}
	}

	return true
}

// Keys returns every name declared by the template's keys declarations, in
// declaration order without duplicates.
func (t *Template) Keys() []string {
	var names []string

	for n := range t.All() {
		if k, ok := n.(*Keys); ok {
			for _, name := range k.Names {
				if !slices.Contains(names, name) {
					names = append(names, name)
				}
			}
		}
	}

	return names
}

// Node is an element of the template syntax tree. The set of implementations
// is closed: [*Text], [*Interpolate], [*If], [*For], and [*Keys].
type Node interface {
	// Pos returns the byte offset of the node in the template source.
	Pos() int
	node()
}

// Text is literal output.
type Text struct {
	Value  string
	Offset int
}

// Interpolate emits the stringified value of an expression.
type Interpolate struct {
	Expr   Expr
	Offset int
}

// If selects between two node sequences. Else is nil when the block has no
// else branch.
type If struct {
	Cond   Expr
	Then   []Node
	Else   []Node
	Offset int
}

// For evaluates Body once per element of Collection with Var bound to the
// element.
type For struct {
	Collection Expr
	Var        string
	Body       []Node
	Offset     int
}

// Keys declares the top-level environment names a template expects.
type Keys struct {
	Names  []string
	Offset int
}

func (n *Text) Pos() int        { return n.Offset }
func (n *Interpolate) Pos() int { return n.Offset }
func (n *If) Pos() int          { return n.Offset }
func (n *For) Pos() int         { return n.Offset }
func (n *Keys) Pos() int        { return n.Offset }

func (*Text) node()        {}
func (*Interpolate) node() {}
func (*If) node()          {}
func (*For) node()         {}
func (*Keys) node()        {}

// Expr is an expression. The set of implementations is closed: [*Var],
// [*Index], [*Unary], [*Binary], [*Call], and [*Literal].
type Expr interface {
	// Pos returns the byte offset of the expression in the template source.
	Pos() int
	expr()
}

// Var references a name in the environment.
type Var struct {
	Name   string
	Offset int
}

// Index selects an element of a list or a field of a record.
type Index struct {
	Base   Expr
	Key    Expr
	Offset int
}

// Unary applies a prefix operator.
type Unary struct {
	Operand Expr
	Op      Op
	Offset  int
}

// Binary applies an infix operator.
type Binary struct {
	Left   Expr
	Right  Expr
	Op     Op
	Offset int
}

// Call invokes a builtin function.
type Call struct {
	Name   string
	Args   []Expr
	Offset int
}

// Literal is a constant value.
type Literal struct {
	Value  Value
	Offset int
}

func (e *Var) Pos() int     { return e.Offset }
func (e *Index) Pos() int   { return e.Offset }
func (e *Unary) Pos() int   { return e.Offset }
func (e *Binary) Pos() int  { return e.Offset }
func (e *Call) Pos() int    { return e.Offset }
func (e *Literal) Pos() int { return e.Offset }

func (*Var) expr()     {}
func (*Index) expr()   {}
func (*Unary) expr()   {}
func (*Binary) expr()  {}
func (*Call) expr()    {}
func (*Literal) expr() {}

// Op is an expression operator.
type Op int

const (
	OpInvalid Op = iota //
	OpOr                // |
	OpAnd               // &
	OpEq                // =
	OpNe                // !=
	OpLt                // <
	OpGt                // >
	OpLe                // <=
	OpGe                // >=
	OpAdd               // +
	OpSub               // -
	OpConcat            // ++
	OpMul               // *
	OpDiv               // /
	OpMod               // %
	OpNeg               // -
	OpNot               // !
)

// String returns the source symbol of the operator.
func (o Op) String() string {
	switch o {
	case OpOr:
		return "|"
	case OpAnd:
		return "&"
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpAdd:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpConcat:
		return "++"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}

// precedence returns the binding strength of a binary operator.
// Higher binds tighter.
func (o Op) precedence() int {
	switch o {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		return 3
	case OpAdd, OpSub, OpConcat:
		return 4
	case OpMul, OpDiv, OpMod:
		return 5
	default:
		return 0
	}
}

// isComparison reports whether o is one of the non-chaining comparison
// operators.
func (o Op) isComparison() bool { return o.precedence() == 3 }
