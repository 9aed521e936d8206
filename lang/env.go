package lang

import (
	"iter"
	"maps"
	"slices"
)

// Env is a lexical scope of named values.
//
// Each Env holds a read-only reference to its parent. Lookups search the scope
// chain child-first. The evaluator only ever extends a chain with [Env.Child]
// and never modifies an existing scope, so one root Env may be shared by
// concurrent evaluations.
//
// A nil *Env is an empty root scope.
type Env struct {
	parent *Env
	vars   map[string]Value
	names  []string
}

// NewEnv returns an empty root scope.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Value)}
}

// EnvFromMap returns a root scope holding the converted values of m, ordered
// by key. See [FromGo] for the accepted value types.
func EnvFromMap(m map[string]any) (*Env, error) {
	env := NewEnv()

	for _, key := range slices.Sorted(maps.Keys(m)) {
		v, err := FromGo(m[key])
		if err != nil {
			return nil, err
		}

		env.Set(key, v)
	}

	return env, nil
}

// Set binds name to v in e and returns e. A new name is appended to the
// binding order; an existing name keeps its position.
//
// Set is for building a scope. It must not be called once e has been passed
// to an evaluation that may still be running.
func (e *Env) Set(name string, v Value) *Env {
	if _, ok := e.vars[name]; !ok {
		e.names = append(e.names, name)
	}

	e.vars[name] = v

	return e
}

// Unset removes the binding of name from e, if any, and returns e. The same
// restriction as [Env.Set] applies.
func (e *Env) Unset(name string) *Env {
	if _, ok := e.vars[name]; ok {
		delete(e.vars, name)
		e.names = slices.DeleteFunc(e.names, func(s string) bool {
			return s == name
		})
	}

	return e
}

// Child returns a new scope binding only name to v, whose parent is e.
func (e *Env) Child(name string, v Value) *Env {
	return &Env{
		parent: e,
		vars:   map[string]Value{name: v},
		names:  []string{name},
	}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (e *Env) Parent() *Env {
	if e == nil {
		return nil
	}

	return e.parent
}

// Lookup returns the value bound to name in the nearest scope that binds it.
func (e *Env) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}

	return Value{}, false
}

// Has reports whether name is bound anywhere in the scope chain.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)

	return ok
}

// Len returns the number of bindings in e, excluding its parents.
func (e *Env) Len() int {
	if e == nil {
		return 0
	}

	return len(e.names)
}

// Local returns an iterator over the bindings of e, excluding its parents, in
// binding order.
func (e *Env) Local() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if e == nil {
			return
		}

		for _, name := range e.names {
			if !yield(name, e.vars[name]) {
				return
			}
		}
	}
}

// Names returns an iterator over every visible name in the scope chain.
// Inner scopes come first, and each name is yielded once.
func (e *Env) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})

		for s := e; s != nil; s = s.parent {
			for _, name := range s.names {
				if _, ok := seen[name]; ok {
					continue
				}

				seen[name] = struct{}{}

				if !yield(name) {
					return
				}
			}
		}
	}
}

// Flatten returns a new root scope holding every visible binding of e.
func (e *Env) Flatten() *Env {
	var chain []*Env
	for s := e; s != nil; s = s.parent {
		chain = append(chain, s)
	}

	flat := NewEnv()

	for _, s := range slices.Backward(chain) {
		for name, v := range s.Local() {
			flat.Set(name, v)
		}
	}

	return flat
}
