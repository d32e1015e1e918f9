// Package bind implements the immutable variable environment threaded
// through query interpretation.
//
// Bindings is the same cons-list shape as github.com/creachadair/jtree/tq's
// unexported qstate type and original_source/minidb/queries.py's Bindings
// class: each binding points to its enclosing scope, so extending an
// environment never mutates the one it was built from, and an inner
// binding shadows an outer one with the same name.
package bind

import (
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/value"
)

// A Result pairs a value with the path that located it in the tree.
//
// HasPath distinguishes a value read from the tree (HasPath true, Path may
// still be the empty root path) from one synthesized by evaluation (HasPath
// false, Path meaningless). A bare nil *path.Path is not enough to
// represent this on its own, since nil also denotes the empty (root) path
// when HasPath is true.
type Result struct {
	HasPath bool
	Path    *path.Path
	Value   value.Value
}

// Synthesized constructs a pathless Result, the (None, v) pair
// original_source's Expr evaluation produces for Constant, Op, AsList,
// AsDict, and the like.
func Synthesized(v value.Value) Result { return Result{Value: v} }

// FromTree constructs a Result sourced from the tree at p (p may be the
// empty root path).
func FromTree(p *path.Path, v value.Value) Result {
	return Result{HasPath: true, Path: p, Value: v}
}

// Bindings is an immutable environment mapping variable names to Results.
// The zero value (nil *Bindings) is the empty environment.
type Bindings struct {
	name  string
	value Result
	up    *Bindings
}

// Root constructs the initial environment for one execute/eval call, binding
// name to the root of the tree.
func Root(name string, tree value.Value) *Bindings {
	return (*Bindings)(nil).Extend(name, FromTree(path.Root, tree))
}

// Extend returns a new environment extending b with a binding of name to
// result. b is never mutated. If name == "" the call is a no-op: this
// supports Bind's var_opt == nil rule without requiring callers to
// special-case it.
func (b *Bindings) Extend(name string, result Result) *Bindings {
	if name == "" {
		return b
	}
	return &Bindings{name: name, value: result, up: b}
}

// Lookup returns the innermost binding for name, and true, or the zero
// Result and false if name is unbound.
func (b *Bindings) Lookup(name string) (Result, bool) {
	for cur := b; cur != nil; cur = cur.up {
		if cur.name == name {
			return cur.value, true
		}
	}
	return Result{}, false
}
