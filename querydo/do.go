// Package querydo provides a fluent builder for the common case of a
// sequence of variable bindings followed by one terminal return or
// requirement, the same shape as original_source/minidb/queries.py's Do
// class: Let, Foreach, Foreach_ (here: Do), Ret, and Require, folded by
// Build into nested query.Bind/query.Return/query.Require nodes.
package querydo

import (
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/query"
)

type step struct {
	varName string
	query   query.Query
}

// Builder accumulates Do-notation steps. The zero value is ready to use.
type Builder struct {
	steps    []step
	terminal bool // true once the most recently pushed step was Ret or Require
}

// New returns an empty Builder.
func New() *Builder { return &Builder{} }

// Let binds varName to the single value e evaluates to, equivalent to
// Foreach(varName, &query.Return{Value: e}).
func (b *Builder) Let(varName string, e query.Expr) *Builder {
	return b.Foreach(varName, &query.Return{Value: e})
}

// Foreach binds varName to each successive result of q in turn, continuing
// the chain once per result (list-monad bind).
func (b *Builder) Foreach(varName string, q query.Query) *Builder {
	b.steps = append(b.steps, step{varName: varName, query: q})
	b.terminal = false
	return b
}

// Do runs q for effect, without binding a variable.
// original_source: Do.foreach_.
func (b *Builder) Do(q query.Query) *Builder {
	return b.Foreach("", q)
}

// Ret ends the chain at this point, yielding the evaluation of e as a
// result per preceding binding. A further Require or Ret after it resumes
// the chain, treating this Ret as an ordinary filterless step — the same
// way original_source's Do lets ret/require appear mid-chain and only
// checks the last one.
func (b *Builder) Ret(e query.Expr) *Builder {
	b.Do(&query.Return{Value: e})
	b.terminal = true
	return b
}

// Require filters the chain at this point, discarding it when e is falsy. A
// further Require or Ret after it resumes the chain.
func (b *Builder) Require(e query.Expr) *Builder {
	b.Do(&query.Require{Value: e})
	b.terminal = true
	return b
}

// Build right-folds the accumulated steps into a single Query, treating the
// last step as the chain's final value (not bound to any variable, so its
// var name is ignored) and every earlier step as a Bind. It fails with
// *dberr.MalformedDoError if the chain never ended in Ret or Require — the
// Go analog of original_source's Do.buildQuery raising when its last step
// is a binding.
func (b *Builder) Build() (query.Query, error) {
	if !b.terminal {
		return nil, &dberr.MalformedDoError{}
	}
	result := b.steps[len(b.steps)-1].query
	for i := len(b.steps) - 2; i >= 0; i-- {
		s := b.steps[i]
		result = &query.Bind{Query: s.query, Func: &query.Func{Var: s.varName, Query: result}}
	}
	return result, nil
}
