// Package interp evaluates a query AST (package query) against an
// environment (package bind), bounded by fuel (package fuel).
//
// This generalizes github.com/creachadair/jtree/tq's per-node eval methods
// — which thread a *qstate and return one ast.Value — into two mutually
// recursive functions, Execute (many results) and Eval (one result), using a
// Go 1.23 range-over-func iterator in place of the Python source's generator
// methods (original_source/minidb/queries.py's Query.execute/Value.eval).
// jtree's own ast/parser.go already uses iter.Seq for exactly this kind of
// lazy traversal (ParseRange), which is the precedent followed here.
package interp

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/kmill/pynomic/bind"
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/fuel"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/value"
)

// Execute interprets q against env, yielding each (result, nil) pair in
// order. If evaluation fails, Execute yields exactly one (zero-Result, err)
// pair and stops; a consumer that ranges over Execute should break out of
// its loop as soon as it sees a non-nil error.
func Execute(q query.Query, env *bind.Bindings, f *fuel.Fuel) iter.Seq2[bind.Result, error] {
	return func(yield func(bind.Result, error) bool) {
		execute(q, env, f, yield)
	}
}

// execute returns false if the caller (yield or an ancestor) asked iteration
// to stop, so that every recursive call site can propagate a stop request
// without checking its own yield's return value twice.
func execute(q query.Query, env *bind.Bindings, f *fuel.Fuel, yield func(bind.Result, error) bool) bool {
	switch n := q.(type) {
	case *query.Return:
		r, err := Eval(n.Value, env, f)
		if err != nil {
			yield(bind.Result{}, err)
			return false
		}
		return yield(r, nil)

	case *query.Require:
		r, err := Eval(n.Value, env, f)
		if err != nil {
			yield(bind.Result{}, err)
			return false
		}
		if !value.Truth(r.Value) {
			return true
		}
		return yield(bind.Synthesized(value.Unit{}), nil)

	case *query.Bind:
		ok := true
		execute(n.Query, env, f, func(r bind.Result, err error) bool {
			if err != nil {
				ok = yield(bind.Result{}, err)
				return false
			}
			if tickErr := f.Tick(); tickErr != nil {
				ok = yield(bind.Result{}, tickErr)
				return false
			}
			inner := env.Extend(n.Func.Var, r)
			ok = execute(n.Func.Query, inner, f, yield)
			return ok
		})
		return ok

	case query.Union:
		for _, sub := range n {
			if !execute(sub, env, f, yield) {
				return false
			}
		}
		return true

	case *query.GetNode:
		r, err := evalGet(n, env, f)
		if err != nil {
			yield(bind.Result{}, err)
			return false
		}
		return executeChildren(r, yield)

	default:
		yield(bind.Result{}, fmt.Errorf("interp: unhandled Query type %T", q))
		return false
	}
}

// executeChildren enumerates the members of a Map or elements of an Array,
// each paired with its own sub-path when r itself carries a path.
// original_source: queries.py's Get.execute.
func executeChildren(r bind.Result, yield func(bind.Result, error) bool) bool {
	switch v := r.Value.(type) {
	case value.Map:
		for k, sv := range v {
			child := childResult(r, path.MapKey(k), sv)
			if !yield(child, nil) {
				return false
			}
		}
		return true
	case value.Array:
		for i, sv := range v {
			child := childResult(r, path.ArrayIndex(i), sv)
			if !yield(child, nil) {
				return false
			}
		}
		return true
	default:
		yield(bind.Result{}, &dberr.NotIterableError{Got: r.Value})
		return false
	}
}

func childResult(parent bind.Result, step path.Step, v value.Value) bind.Result {
	if !parent.HasPath {
		return bind.Synthesized(v)
	}
	return bind.FromTree(parent.Path.Append(step), v)
}

// Eval interprets e against env, returning its single result.
func Eval(e query.Expr, env *bind.Bindings, f *fuel.Fuel) (bind.Result, error) {
	switch n := e.(type) {
	case *query.Constant:
		return bind.Synthesized(n.Value), nil

	case *query.Var:
		r, ok := env.Lookup(n.Name)
		if !ok {
			return bind.Result{}, fmt.Errorf("interp: unbound variable %q", n.Name)
		}
		return r, nil

	case *query.GetNode:
		return evalGet(n, env, f)

	case *query.AsList:
		var out value.Array
		var innerErr error
		execute(n.Query, env, f, func(r bind.Result, err error) bool {
			if err != nil {
				innerErr = err
				return false
			}
			if tickErr := f.Tick(); tickErr != nil {
				innerErr = tickErr
				return false
			}
			out = append(out, r.Value)
			return true
		})
		if innerErr != nil {
			return bind.Result{}, innerErr
		}
		if out == nil {
			out = value.Array{}
		}
		return bind.Synthesized(out), nil

	case *query.AsDict:
		out := value.Map{}
		var innerErr error
		execute(n.Query, env, f, func(r bind.Result, err error) bool {
			if err != nil {
				innerErr = err
				return false
			}
			if tickErr := f.Tick(); tickErr != nil {
				innerErr = tickErr
				return false
			}
			out[dictKey(r)] = r.Value
			return true
		})
		if innerErr != nil {
			return bind.Result{}, innerErr
		}
		return bind.Synthesized(out), nil

	case *query.OpNode:
		return evalOp(n, env, f)

	case query.Or:
		return evalOrAnd(n, env, f, true)

	case query.And:
		return evalOrAnd(n, env, f, false)

	case *query.Apply:
		src, err := Eval(n.Source, env, f)
		if err != nil {
			return bind.Result{}, err
		}
		if err := f.Tick(); err != nil {
			return bind.Result{}, err
		}
		inner := env.Extend(n.Func.Var, src)
		return Eval(n.Func.Expr, inner, f)

	default:
		return bind.Result{}, fmt.Errorf("interp: unhandled Expr type %T", e)
	}
}

// dictKey names the Map key a result contributes to an AsDict, keying on the
// last step of its path (stringified, for an array index) or the literal
// string "null" when the result carries no path at all — the nearest Go
// rendering of original_source's AsDict using Python's None as a dict key
// when a result has no path.
func dictKey(r bind.Result) string {
	if !r.HasPath {
		return "null"
	}
	step, ok := r.Path.Last()
	if !ok {
		return "null"
	}
	if step.IsIndex() {
		return strconv.Itoa(step.Index())
	}
	return step.Key()
}

func evalGet(n *query.GetNode, env *bind.Bindings, f *fuel.Fuel) (bind.Result, error) {
	src, err := Eval(n.Source, env, f)
	if err != nil {
		return bind.Result{}, err
	}
	cur := src.Value
	for _, step := range n.Steps {
		next, err := stepInto(cur, step)
		if err != nil {
			return bind.Result{}, err
		}
		cur = next
	}
	if !src.HasPath {
		return bind.Synthesized(cur), nil
	}
	p := src.Path
	for _, step := range n.Steps {
		p = p.Append(step)
	}
	return bind.FromTree(p, cur), nil
}

func stepInto(cur value.Value, step path.Step) (value.Value, error) {
	if step.IsIndex() {
		arr, ok := cur.(value.Array)
		if !ok || step.Index() < 0 || step.Index() >= len(arr) {
			return nil, &path.ErrPathNotFound{Step: step, Got: cur}
		}
		return arr[step.Index()], nil
	}
	m, ok := cur.(value.Map)
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: cur}
	}
	v, ok := m[step.Key()]
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: cur}
	}
	return v, nil
}

func evalOp(n *query.OpNode, env *bind.Bindings, f *fuel.Fuel) (bind.Result, error) {
	impl, ok := query.Lookup(n.Name)
	if !ok {
		return bind.Result{}, &dberr.UnknownOpError{Name: n.Name}
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		r, err := Eval(a, env, f)
		if err != nil {
			return bind.Result{}, err
		}
		args[i] = r.Value
	}
	v, err := impl(args)
	if err != nil {
		return bind.Result{}, err
	}
	return bind.Synthesized(v), nil
}

// evalOrAnd evaluates args left to right, short-circuiting at the first
// result whose truthiness matches short on (true for Or, false for And).
// original_source: queries.py's Or and And; And's short-circuit condition is
// the dual of Or's, reading the source's And.execute (which calls a
// nonexistent self.execute) as a typo for eval.
func evalOrAnd(args []query.Expr, env *bind.Bindings, f *fuel.Fuel, short bool) (bind.Result, error) {
	if len(args) == 0 {
		return bind.Synthesized(value.Bool(!short)), nil
	}
	var last bind.Result
	for _, a := range args {
		r, err := Eval(a, env, f)
		if err != nil {
			return bind.Result{}, err
		}
		if value.Truth(r.Value) == short {
			return r, nil
		}
		last = r
	}
	return last, nil
}
