// Package mutate implements the transactional operations layered on top of
// query execution: select (read-only), remove, and update.
//
// select is a direct translation of original_source/minidb/queries.py's
// module-level select function; remove and its path-trie overlay translate
// queries.py's remove/addPath/removePaths nested functions; update has no
// original_source analog (minidb.py has none) and is built fresh, reusing
// the same path-provenance mechanism remove relies on.
package mutate

import (
	"github.com/kmill/pynomic/bind"
	"github.com/kmill/pynomic/fuel"
	"github.com/kmill/pynomic/interp"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/value"
)

// rootEnv binds qf.Var (if any) to the root of tree, the environment every
// top-level QueryFunc is interpreted in.
func rootEnv(qf *query.QueryFunc, tree value.Value) *bind.Bindings {
	return (*bind.Bindings)(nil).Extend(qf.Var, bind.FromTree(path.Root, tree))
}

// Select runs qf against tree and returns every result in order, without
// modifying tree. If subpath is non-nil, qf runs against the sub-value
// located at subpath instead of tree's root, and every result's path (if
// any) is rebased back to an absolute path by prepending subpath.
// original_source: queries.py's select.
func Select(tree value.Value, qf *query.QueryFunc, subpath *path.Path, fl *fuel.Fuel) ([]bind.Result, error) {
	root, err := narrow(tree, subpath)
	if err != nil {
		return nil, err
	}
	results, err := drain(qf.Query, rootEnv(qf, root), fl)
	if err != nil {
		return nil, err
	}
	if subpath == nil {
		return results, nil
	}
	out := make([]bind.Result, len(results))
	for i, r := range results {
		out[i] = rebase(subpath, r)
	}
	return out, nil
}

// narrow locates tree's sub-value at subpath, for an operation that wants to
// run its queryfunc relative to it. A nil subpath is a no-op.
func narrow(tree value.Value, subpath *path.Path) (value.Value, error) {
	if subpath == nil {
		return tree, nil
	}
	return subpath.Get(tree)
}

// rebase translates a result sourced from a subpath-narrowed sub-root back
// into an absolute path, by prepending subpath. A pathless result is
// returned unchanged.
func rebase(subpath *path.Path, r bind.Result) bind.Result {
	if !r.HasPath {
		return r
	}
	return bind.FromTree(subpath.Concat(r.Path), r.Value)
}

// drain collects every result of executing q under env, stopping at the
// first error.
func drain(q query.Query, env *bind.Bindings, fl *fuel.Fuel) ([]bind.Result, error) {
	var out []bind.Result
	var failure error
	for r, err := range interp.Execute(q, env, fl) {
		if err != nil {
			failure = err
			break
		}
		out = append(out, r)
	}
	if failure != nil {
		return nil, failure
	}
	return out, nil
}
