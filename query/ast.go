// Package query defines the two intertwined abstract syntax trees that
// describe a query over the document tree: Query (produces a sequence of
// path/value results) and Expr (produces a single result).
//
// This is a direct translation of original_source/minidb/queries.py's class
// hierarchy (Query, Value, Bind, Union, Return, Require, Get, Constant, Var,
// AsList, AsDict, Op, Or, And), reshaped around
// github.com/creachadair/jtree/tq's Query interface — an unexported-method
// marker interface implemented by small concrete node types, matched by the
// interpreter with a type switch rather than by dispatching through a
// virtual eval method defined on each node, so the interpreter (package
// interp) is free to thread fuel and bindings however its two mutually
// recursive functions need to.
package query

import (
	"fmt"

	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/value"
)

// Query is an AST node that produces a sequence of (path, value) results
// when interpreted against an environment.
type Query interface {
	isQuery()
}

// Expr is an AST node that produces a single (path, value) result when
// interpreted against an environment.
type Expr interface {
	isExpr()
}

// Return is a query yielding exactly one result: the evaluation of Value.
// original_source: queries.py's Return.
type Return struct {
	Value Expr
}

func (*Return) isQuery() {}

// Require is a query yielding one pathless result if Value evaluates truthy,
// or no results otherwise. original_source: queries.py's Require.
type Require struct {
	Value Expr
}

func (*Require) isQuery() {}

// Func pairs an optional variable name with a Query body, the shape Bind
// uses for its continuation and Store operations use as their entry point
// (QueryFunc is the same type, named for that latter use). Var == ""
// means the bound result is discarded rather than named: original_source's
// Bind with var_opt = None evaluates the sub-query without extending env.
type Func struct {
	Var   string
	Query Query
}

// QueryFunc is the top-level entry point accepted by select/remove/update.
// It is the same shape as Func; the alias exists to give the Store
// boundary its own name for the concept.
type QueryFunc = Func

// Bind is list-monad bind: for each result of Query, run Func.Query under an
// environment extended (if Func.Var != "") with that result, and
// concatenate. original_source: queries.py's Bind.
type Bind struct {
	Query Query
	Func  *Func
}

func (*Bind) isQuery() {}

// Union concatenates the results of its member queries in declaration
// order. original_source: queries.py's Union.
type Union []Query

func (Union) isQuery() {}

// GetNode enumerates (as a Query) the children of the value located by
// following Steps from Source, or locates (as an Expr) the single value at
// that path. It implements both Query and Expr, exactly as
// original_source/minidb/queries.py's Get class implements both Query and
// Value by duck typing: Get inhabits both, and the call site distinguishes
// which meaning it wants by which interpreter function it hands the node
// to, realized here as one type satisfying both marker interfaces.
// Construct with Get, not a literal, so the path steps are well-formed.
type GetNode struct {
	Source Expr
	Steps  []path.Step
}

func (*GetNode) isQuery() {}
func (*GetNode) isExpr()  {}

// Get constructs a GetNode selecting the path described by keys (string for
// a map key, int for an array index) relative to source.
func Get(source Expr, keys ...any) *GetNode {
	return &GetNode{Source: source, Steps: stepsOf(keys...)}
}

func stepsOf(keys ...any) []path.Step {
	steps := make([]path.Step, len(keys))
	for i, k := range keys {
		switch t := k.(type) {
		case string:
			steps[i] = path.MapKey(t)
		case int:
			steps[i] = path.ArrayIndex(t)
		case path.Step:
			steps[i] = t
		default:
			panic(fmt.Sprintf("query.Get: invalid path element %T", k))
		}
	}
	return steps
}

// Constant is an Expr that ignores its environment and yields a fixed,
// pathless value. original_source: queries.py's Constant.
type Constant struct {
	Value value.Value
}

func (*Constant) isExpr() {}

// Lit wraps a raw value.Value as a Constant Expr. This is the explicit
// replacement for the Python source's automatic Value-vs-raw-object
// coercion: call sites that want a literal spell it out instead of relying
// on implicit wrapping.
func Lit(v value.Value) Expr { return &Constant{Value: v} }

// Var is an Expr that looks up Name in the environment.
// original_source: queries.py's Var.
type Var struct {
	Name string
}

func (*Var) isExpr() {}

// AsList drains a Query and collects its values (discarding their paths)
// into a single Array-valued, pathless result. original_source: queries.py's
// AsList.
type AsList struct {
	Query Query
}

func (*AsList) isExpr() {}

// AsDict drains a Query and collects it into a single Map-valued, pathless
// result keyed by each result's final path step. On a path-step collision
// the later result silently overwrites the earlier one; a result with no
// path (or with the empty root path) contributes under the string key
// "null".
// original_source: queries.py's AsDict.
type AsDict struct {
	Query Query
}

func (*AsDict) isExpr() {}

// OpNode applies a built-in, whitelisted operation (see ops.go) to the
// values of Args, producing a single pathless result.
// original_source: queries.py's Op.
type OpNode struct {
	Name string
	Args []Expr
}

func (*OpNode) isExpr() {}

// Op constructs an OpNode, validating Name against the whitelist
// immediately so the AST can never enter an inconsistent state — the same
// panic-on-construction convention jtree's query.Path uses for an invalid
// key type.
func Op(name string, args ...Expr) *OpNode {
	if _, ok := ops[name]; !ok {
		panic(&dberr.UnknownOpError{Name: name})
	}
	return &OpNode{Name: name, Args: args}
}

// Or evaluates its arguments in order and returns the first truthy result,
// or the last evaluated result if none are truthy, or (nil, false) if Or is
// empty. original_source: queries.py's Or.
type Or []Expr

func (Or) isExpr() {}

// And evaluates its arguments in order and returns the first falsy result,
// or the last evaluated result if all are truthy, or (nil, true) if And is
// empty. Dual of Or: the Python source's And.execute calls a nonexistent
// self.execute, read here as a typo for eval, so And is implemented
// exactly like Or with truthiness inverted. original_source: queries.py's
// And.
type And []Expr

func (And) isExpr() {}

// ValueFunc pairs an optional variable name with an Expr body, the shape
// Apply and Update's per-change functions use.
type ValueFunc struct {
	Var  string
	Expr Expr
}

// Apply evaluates Source, extends the environment with Func.Var bound to
// that result (if Func.Var != ""), and evaluates Func.Expr in the extended
// environment. There is no Python analog in original_source. Update's
// per-change evaluation does not go through Apply: it binds each
// Change.Func's variable itself and calls interp.Eval on the body.
type Apply struct {
	Source Expr
	Func   *ValueFunc
}

func (*Apply) isExpr() {}
