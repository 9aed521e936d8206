// Package lang compiles and evaluates brace templates.
//
// A template is arbitrary text containing directives enclosed in braces.
// Text outside braces is copied to the output verbatim.
//
// # Directives
//
//	{@keys a b c}                 declare the environment keys a template expects
//	{expr}                        interpolate the value of an expression
//	{#if expr} ... {/}            conditional
//	{#if expr} ... {:else} ... {/}
//	{#if expr} ... {:else if expr} ... {:else} ... {/}
//	{#for name in expr} ... {/}   iterate a list, or the keys of a record
//
// A keys declaration must be the first directive of a template. A misplaced
// one is reported in [Template.Diagnostics] but is otherwise honored.
//
// # Expressions
//
// From loosest to tightest binding:
//
//	|                  logical or
//	&                  logical and
//	= != < > <= >=     comparison (at most one per operand chain)
//	+ - ++             addition, subtraction, string concatenation
//	* / %              multiplication, division, remainder
//	- !                negation, logical not
//	x[key]             index
//
// Operands are identifiers, numbers, "strings" (with \n, \t, \r, \" and \\
// escapes), true, false, null, parenthesized expressions, and len(x).
//
// An index key that is a single bare word is that word as a string, so
// user[name] selects the field "name" of user. To index by the value of a
// variable, parenthesize it: user[(field)].
//
// # Evaluation
//
// A compiled [Template] is evaluated against an [Env], a chain of scopes
// whose root the caller supplies. Each iteration of a for block binds its
// variable in a new child scope; nothing ever modifies an existing scope.
// Values are the closed set of kinds in [Kind], and every operator rejects
// operands of the wrong kind with [ErrTypeMismatch].
//
// Evaluation either produces the complete output or fails; no partial output
// is written.
//
// # Example
//
//	tmpl, err := lang.Parse(ctx, "Hello {name}!")
//	if err != nil {
//		return err
//	}
//
//	env := lang.NewEnv().Set("name", lang.String("World"))
//
//	out, err := lang.Evaluate(ctx, tmpl, env) // "Hello World!"
package lang
