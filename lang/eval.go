package lang

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
)

// Evaluate renders t against env and returns the output text.
func Evaluate(ctx context.Context, t *Template, env *Env) (string, error) {
	var sb strings.Builder

	if err := t.Render(ctx, &sb, env); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Render evaluates t against env and writes the output to w.
//
// Every declared key is checked before anything is evaluated, and all absent
// keys are reported together in one [ErrMissingKey]. Output is buffered and
// nothing is written to w unless evaluation succeeds.
func (t *Template) Render(ctx context.Context, w io.Writer, env *Env) error {
	t.logger.TraceContext(ctx, "render start",
		slog.Int("node_count", len(t.Nodes)),
		slog.Int("env_size", env.Len()))

	if err := t.CheckKeys(env); err != nil {
		return err
	}

	ev := &evaluator{ctx: ctx}

	if err := ev.nodes(t.Nodes, env); err != nil {
		t.logger.TraceContext(ctx, "render failed", slog.Any("error", err))

		return err
	}

	n, err := w.Write(ev.out.Bytes())
	if err != nil {
		return err
	}

	t.logger.TraceContext(ctx, "render complete", slog.Int("output_bytes", n))

	return nil
}

// CheckKeys reports every name declared by the keys declarations of t that is
// not bound in env.
func (t *Template) CheckKeys(env *Env) error {
	var missing []string

	for _, name := range t.Keys() {
		if !env.Has(name) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return ErrMissingKey.With(slog.Any("keys", missing))
	}

	return nil
}

// evaluator holds the output of one evaluation. The template and environment
// are only read.
type evaluator struct {
	ctx context.Context
	out bytes.Buffer
}

func (ev *evaluator) nodes(nodes []Node, env *Env) error {
	for _, n := range nodes {
		if err := ev.ctx.Err(); err != nil {
			return err
		}

		if err := ev.node(n, env); err != nil {
			return err
		}
	}

	return nil
}

func (ev *evaluator) node(n Node, env *Env) error {
	switch n := n.(type) {
	case *Text:
		ev.out.WriteString(n.Value)

		return nil

	case *Keys:
		return nil

	case *Interpolate:
		v, err := ev.expr(n.Expr, env)
		if err != nil {
			return err
		}

		s, ok := v.Text()
		if !ok {
			return ErrTypeMismatch.WithOffset(n.Offset).
				With(
					slog.String("op", "interpolate"),
					slog.String("kind", v.Kind().String()),
				)
		}

		ev.out.WriteString(s)

		return nil

	case *If:
		v, err := ev.expr(n.Cond, env)
		if err != nil {
			return err
		}

		cond, ok := v.AsBool()
		if !ok {
			return ErrTypeMismatch.WithOffset(n.Cond.Pos()).
				With(
					slog.String("op", "#if"),
					slog.String("kind", v.Kind().String()),
					slog.String("expected", KindBool.String()),
				)
		}

		if cond {
			return ev.nodes(n.Then, env)
		}

		return ev.nodes(n.Else, env)

	case *For:
		return ev.loop(n, env)
	}

	return ErrTypeMismatch.WithOffset(n.Pos()).With(slog.String("op", "node"))
}

// loop evaluates the body of n once per element, each time in a fresh child
// scope of env that binds only the loop variable.
func (ev *evaluator) loop(n *For, env *Env) error {
	coll, err := ev.expr(n.Collection, env)
	if err != nil {
		return err
	}

	switch coll.Kind() {
	case KindList:
		elems, _ := coll.AsList()

		for _, e := range elems {
			if err := ev.nodes(n.Body, env.Child(n.Var, e)); err != nil {
				return err
			}
		}

		return nil

	case KindRecord:
		rec, _ := coll.AsRecord()

		for k := range rec.Keys() {
			if err := ev.nodes(n.Body, env.Child(n.Var, String(k))); err != nil {
				return err
			}
		}

		return nil

	case KindNull, KindBool, KindNumber, KindString:
	}

	return ErrTypeMismatch.WithOffset(n.Collection.Pos()).
		With(
			slog.String("op", "#for"),
			slog.String("kind", coll.Kind().String()),
			slog.String("expected", "list or record"),
		)
}

func (ev *evaluator) expr(e Expr, env *Env) (Value, error) {
	switch e := e.(type) {
	case *Literal:
		return e.Value, nil

	case *Var:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return Value{}, ErrUndefinedVariable.WithOffset(e.Offset).
				With(slog.String("name", e.Name))
		}

		return v, nil

	case *Index:
		return ev.index(e, env)

	case *Unary:
		return ev.unary(e, env)

	case *Binary:
		return ev.binary(e, env)

	case *Call:
		return ev.call(e, env)
	}

	return Value{}, ErrTypeMismatch.WithOffset(e.Pos()).With(slog.String("op", "expr"))
}

func (ev *evaluator) index(e *Index, env *Env) (Value, error) {
	base, err := ev.expr(e.Base, env)
	if err != nil {
		return Value{}, err
	}

	key, err := ev.expr(e.Key, env)
	if err != nil {
		return Value{}, err
	}

	mismatch := func() (Value, error) {
		return Value{}, ErrTypeMismatch.WithOffset(e.Offset).
			With(
				slog.String("op", "[]"),
				slog.String("kind", base.Kind().String()),
				slog.String("key_kind", key.Kind().String()),
			)
	}

	switch base.Kind() {
	case KindList:
		elems, _ := base.AsList()

		n, ok := key.AsNumber()
		if !ok || n != math.Trunc(n) {
			return mismatch()
		}

		if n < 0 || n >= float64(len(elems)) {
			return Value{}, ErrIndexRange.WithOffset(e.Offset).
				With(slog.Float64("index", n), slog.Int("len", len(elems)))
		}

		return elems[int(n)], nil

	case KindRecord:
		rec, _ := base.AsRecord()

		k, ok := key.AsString()
		if !ok {
			return mismatch()
		}

		v, ok := rec.Get(k)
		if !ok {
			return Value{}, ErrUndefinedVariable.WithOffset(e.Offset).
				With(slog.String("name", describe(e.Base)+"["+k+"]"))
		}

		return v, nil

	case KindNull, KindBool, KindNumber, KindString:
	}

	return mismatch()
}

func (ev *evaluator) unary(e *Unary, env *Env) (Value, error) {
	v, err := ev.expr(e.Operand, env)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpNeg:
		if n, ok := v.AsNumber(); ok {
			return Number(-n), nil
		}

	case OpNot:
		if b, ok := v.AsBool(); ok {
			return Bool(!b), nil
		}
	}

	return Value{}, ErrTypeMismatch.WithOffset(e.Offset).
		With(slog.String("op", e.Op.String()), slog.String("kind", v.Kind().String()))
}

func (ev *evaluator) binary(e *Binary, env *Env) (Value, error) {
	left, err := ev.expr(e.Left, env)
	if err != nil {
		return Value{}, err
	}

	mismatch := func(right Value) (Value, error) {
		return Value{}, ErrTypeMismatch.WithOffset(e.Offset).
			With(
				slog.String("op", e.Op.String()),
				slog.String("left", left.Kind().String()),
				slog.String("right", right.Kind().String()),
			)
	}

	// Logical operators evaluate their right operand only when needed.
	if e.Op == OpAnd || e.Op == OpOr {
		lb, ok := left.AsBool()
		if !ok {
			return mismatch(Value{})
		}

		if lb == (e.Op == OpOr) {
			if err := ev.resolve(e.Right, env); err != nil {
				return Value{}, err
			}

			return Bool(lb), nil
		}

		right, err := ev.expr(e.Right, env)
		if err != nil {
			return Value{}, err
		}

		rb, ok := right.AsBool()
		if !ok {
			return mismatch(right)
		}

		return Bool(rb), nil
	}

	right, err := ev.expr(e.Right, env)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpEq, OpNe:
		if left.Kind() != right.Kind() && !left.IsNull() && !right.IsNull() {
			return mismatch(right)
		}

		return Bool(left.Equal(right) == (e.Op == OpEq)), nil

	case OpLt, OpGt, OpLe, OpGe:
		c, ok := compare(left, right)
		if !ok {
			return mismatch(right)
		}

		switch e.Op {
		case OpLt:
			return Bool(c < 0), nil
		case OpGt:
			return Bool(c > 0), nil
		case OpLe:
			return Bool(c <= 0), nil
		default:
			return Bool(c >= 0), nil
		}

	case OpConcat:
		ls, lok := left.Text()
		rs, rok := right.Text()

		if !lok || !rok {
			return mismatch(right)
		}

		return String(ls + rs), nil
	}

	ln, lok := left.AsNumber()
	rn, rok := right.AsNumber()

	if !lok || !rok {
		return mismatch(right)
	}

	switch e.Op {
	case OpAdd:
		return Number(ln + rn), nil
	case OpSub:
		return Number(ln - rn), nil
	case OpMul:
		return Number(ln * rn), nil
	case OpDiv, OpMod:
		if rn == 0 {
			return Value{}, ErrDivideByZero.WithOffset(e.Offset).
				With(slog.String("op", e.Op.String()))
		}

		if e.Op == OpDiv {
			return Number(ln / rn), nil
		}

		return Number(math.Mod(ln, rn)), nil
	}

	return mismatch(right)
}

// compare orders two numbers or two strings.
func compare(a, b Value) (int, bool) {
	if an, ok := a.AsNumber(); ok {
		if bn, ok := b.AsNumber(); ok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			}

			return 0, true
		}

		return 0, false
	}

	if as, ok := a.AsString(); ok {
		if bs, ok := b.AsString(); ok {
			return strings.Compare(as, bs), true
		}
	}

	return 0, false
}

// resolve reports the first variable in e that is not bound in env, without
// evaluating e. Names skipped by a short-circuit must still be bound.
func (ev *evaluator) resolve(e Expr, env *Env) error {
	switch e := e.(type) {
	case *Var:
		if !env.Has(e.Name) {
			return ErrUndefinedVariable.WithOffset(e.Offset).
				With(slog.String("name", e.Name))
		}

	case *Index:
		if err := ev.resolve(e.Base, env); err != nil {
			return err
		}

		return ev.resolve(e.Key, env)

	case *Unary:
		return ev.resolve(e.Operand, env)

	case *Binary:
		if err := ev.resolve(e.Left, env); err != nil {
			return err
		}

		return ev.resolve(e.Right, env)

	case *Call:
		for _, arg := range e.Args {
			if err := ev.resolve(arg, env); err != nil {
				return err
			}
		}
	}

	return nil
}

func (ev *evaluator) call(e *Call, env *Env) (Value, error) {
	args := make([]Value, len(e.Args))

	for i, arg := range e.Args {
		v, err := ev.expr(arg, env)
		if err != nil {
			return Value{}, err
		}

		args[i] = v
	}

	switch e.Name {
	case "len":
		if n, ok := args[0].Len(); ok {
			return Number(float64(n)), nil
		}

		return Value{}, ErrTypeMismatch.WithOffset(e.Offset).
			With(slog.String("op", e.Name), slog.String("kind", args[0].Kind().String()))
	}

	return Value{}, ErrTypeMismatch.WithOffset(e.Offset).
		With(slog.String("op", e.Name), slog.String("reason", "unknown function"))
}

// describe renders a short source-like name for a reference expression, used
// in error attributes.
func describe(e Expr) string {
	switch e := e.(type) {
	case *Var:
		return e.Name
	case *Index:
		base := describe(e.Base)
		if lit, ok := e.Key.(*Literal); ok {
			return base + "[" + lit.Value.String() + "]"
		}

		return base + "[...]"
	}

	return "(expr)"
}
