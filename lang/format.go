package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes t to w in canonical template syntax. Text is written
// verbatim and directives are normalized. The output compiles to a template
// that renders identically to t.
func (t *Template) Format(_ context.Context, w io.Writer) error {
	var sb strings.Builder

	formatNodes(&sb, t.Nodes)

	_, err := io.WriteString(w, sb.String())

	return err
}

func formatNodes(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			sb.WriteString(n.Value)

		case *Interpolate:
			sb.WriteByte('{')
			sb.WriteString(ExprString(n.Expr))
			sb.WriteByte('}')

		case *Keys:
			sb.WriteString("{@keys")

			for _, name := range n.Names {
				sb.WriteByte(' ')
				sb.WriteString(name)
			}

			sb.WriteByte('}')

		case *If:
			sb.WriteString("{#if ")
			formatIf(sb, n)
			sb.WriteString("{/}")

		case *For:
			sb.WriteString("{#for ")
			sb.WriteString(n.Var)
			sb.WriteString(" in ")
			sb.WriteString(ExprString(n.Collection))
			sb.WriteByte('}')
			formatNodes(sb, n.Body)
			sb.WriteString("{/}")
		}
	}
}

// formatIf writes the condition and branches of n, folding an else branch
// that holds a single if block into an else-if.
func formatIf(sb *strings.Builder, n *If) {
	sb.WriteString(ExprString(n.Cond))
	sb.WriteByte('}')
	formatNodes(sb, n.Then)

	if n.Else == nil {
		return
	}

	if len(n.Else) == 1 {
		if nested, ok := n.Else[0].(*If); ok {
			sb.WriteString("{:else if ")
			formatIf(sb, nested)

			return
		}
	}

	sb.WriteString("{:else}")
	formatNodes(sb, n.Else)
}

// ExprString returns e in canonical expression syntax with the fewest
// parentheses that preserve its structure.
func ExprString(e Expr) string {
	var sb strings.Builder

	writeExpr(&sb, e)

	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Literal:
		writeLiteral(sb, e.Value)

	case *Var:
		sb.WriteString(e.Name)

	case *Index:
		writeOperand(sb, e.Base, isCompound(e.Base))
		sb.WriteByte('[')

		switch key := e.Key.(type) {
		case *Literal:
			if s, ok := key.Value.AsString(); ok && isIdentifier(s) && !isKeyword(s) {
				sb.WriteString(s)
			} else {
				writeLiteral(sb, key.Value)
			}

		case *Var:
			// A bare word key is a literal; parenthesize to keep the lookup.
			sb.WriteByte('(')
			sb.WriteString(key.Name)
			sb.WriteByte(')')

		default:
			writeExpr(sb, key)
		}

		sb.WriteByte(']')

	case *Unary:
		sb.WriteString(e.Op.String())

		_, binary := e.Operand.(*Binary)
		writeOperand(sb, e.Operand, binary)

	case *Binary:
		prec := e.Op.precedence()

		left := needParens(e.Left, prec, e.Op.isComparison())
		right := needParens(e.Right, prec+1, e.Op.isComparison())

		writeOperand(sb, e.Left, left)
		sb.WriteByte(' ')
		sb.WriteString(e.Op.String())
		sb.WriteByte(' ')
		writeOperand(sb, e.Right, right)

	case *Call:
		sb.WriteString(e.Name)
		sb.WriteByte('(')

		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeExpr(sb, arg)
		}

		sb.WriteByte(')')
	}
}

func writeOperand(sb *strings.Builder, e Expr, parens bool) {
	if parens {
		sb.WriteByte('(')
	}

	writeExpr(sb, e)

	if parens {
		sb.WriteByte(')')
	}
}

// needParens reports whether operand e of a binary operator with precedence
// minPrec must be parenthesized.
func needParens(e Expr, minPrec int, comparison bool) bool {
	b, ok := e.(*Binary)
	if !ok {
		return false
	}

	if comparison && b.Op.isComparison() {
		return true
	}

	return b.Op.precedence() < minPrec
}

func isCompound(e Expr) bool {
	switch e.(type) {
	case *Binary, *Unary:
		return true
	}

	return false
}

func writeLiteral(sb *strings.Builder, v Value) {
	s, ok := v.AsString()
	if !ok {
		sb.WriteString(v.String())

		return
	}

	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')
}

// FormatJSON writes the syntax tree of t as JSON to w.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(t.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(t.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the syntax tree of t as YAML to w.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// FormatTree writes an indented outline of the syntax tree of t to w.
func (t *Template) FormatTree(_ context.Context, w io.Writer, indent int) error {
	var sb strings.Builder

	treeNodes(&sb, t.Nodes, strings.Repeat(" ", max(indent, 1)), 0)

	_, err := io.WriteString(w, sb.String())

	return err
}

func treeNodes(sb *strings.Builder, nodes []Node, pad string, depth int) {
	prefix := strings.Repeat(pad, depth)

	for _, n := range nodes {
		sb.WriteString(prefix)

		switch n := n.(type) {
		case *Text:
			fmt.Fprintf(sb, "Text@%d %q\n", n.Offset, n.Value)

		case *Interpolate:
			fmt.Fprintf(sb, "Interpolate@%d %s\n", n.Offset, ExprString(n.Expr))

		case *Keys:
			fmt.Fprintf(sb, "Keys@%d %s\n", n.Offset, strings.Join(n.Names, " "))

		case *If:
			fmt.Fprintf(sb, "If@%d %s\n", n.Offset, ExprString(n.Cond))
			treeNodes(sb, n.Then, pad, depth+1)

			if n.Else != nil {
				sb.WriteString(prefix)
				sb.WriteString("Else\n")
				treeNodes(sb, n.Else, pad, depth+1)
			}

		case *For:
			fmt.Fprintf(sb, "For@%d %s in %s\n", n.Offset, n.Var, ExprString(n.Collection))
			treeNodes(sb, n.Body, pad, depth+1)
		}
	}
}

// ToMap converts the template to a native Go structure suitable for
// encoding.
func (t *Template) ToMap() map[string]any {
	m := map[string]any{
		"nodes": nodesToNative(t.Nodes),
	}

	if keys := t.Keys(); len(keys) > 0 {
		m["keys"] = keys
	}

	if len(t.Diagnostics) > 0 {
		diags := make([]string, len(t.Diagnostics))
		for i, d := range t.Diagnostics {
			diags[i] = d.Error()
		}

		m["diagnostics"] = diags
	}

	return m
}

func nodesToNative(nodes []Node) []any {
	out := make([]any, 0, len(nodes))

	for _, n := range nodes {
		out = append(out, nodeToNative(n))
	}

	return out
}

func nodeToNative(n Node) map[string]any {
	switch n := n.(type) {
	case *Text:
		return map[string]any{"type": "text", "offset": n.Offset, "value": n.Value}

	case *Interpolate:
		return map[string]any{"type": "interpolate", "offset": n.Offset, "expr": exprToNative(n.Expr)}

	case *Keys:
		return map[string]any{"type": "keys", "offset": n.Offset, "names": n.Names}

	case *If:
		m := map[string]any{
			"type":   "if",
			"offset": n.Offset,
			"cond":   exprToNative(n.Cond),
			"then":   nodesToNative(n.Then),
		}

		if n.Else != nil {
			m["else"] = nodesToNative(n.Else)
		}

		return m

	case *For:
		return map[string]any{
			"type":       "for",
			"offset":     n.Offset,
			"var":        n.Var,
			"collection": exprToNative(n.Collection),
			"body":       nodesToNative(n.Body),
		}
	}

	return nil
}

func exprToNative(e Expr) map[string]any {
	switch e := e.(type) {
	case *Literal:
		return map[string]any{"type": "literal", "kind": e.Value.Kind().String(), "value": e.Value.ToNative()}

	case *Var:
		return map[string]any{"type": "var", "name": e.Name}

	case *Index:
		return map[string]any{"type": "index", "base": exprToNative(e.Base), "key": exprToNative(e.Key)}

	case *Unary:
		return map[string]any{"type": "unary", "op": e.Op.String(), "operand": exprToNative(e.Operand)}

	case *Binary:
		return map[string]any{
			"type":  "binary",
			"op":    e.Op.String(),
			"left":  exprToNative(e.Left),
			"right": exprToNative(e.Right),
		}

	case *Call:
		args := make([]any, len(e.Args))
		for i, arg := range e.Args {
			args[i] = exprToNative(arg)
		}

		return map[string]any{"type": "call", "name": e.Name, "args": args}
	}

	return nil
}
