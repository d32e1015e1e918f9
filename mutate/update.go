package mutate

import (
	"github.com/kmill/pynomic/bind"
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/fuel"
	"github.com/kmill/pynomic/interp"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/value"
)

// ChangeMode selects how a matched value is rewritten by Update. There is
// no original_source analog for update (minidb.py has none); the three
// modes are a fresh addition, sharing the path-provenance mechanism Remove
// relies on.
type ChangeMode int

const (
	// Overwrite replaces the matched value outright with the evaluation of
	// Change.Func.
	Overwrite ChangeMode = iota
	// Append appends the evaluation of Change.Func to the matched value,
	// which must be an Array.
	Append
	// RenameKey renames the map key that locates the matched value to the
	// Str produced by evaluating Change.Func, leaving the value itself
	// unchanged. The matched value's path must end in a map key, not an
	// array index.
	RenameKey
)

// Change describes one rewrite applied to every match of an Update's query.
// Func's Var (if set) is bound to the matched value as a pathless result,
// unlike query.Apply, which binds its source with the source's path. Subpath, if non-nil, is appended to each
// match's path before the change is applied, so one change can target a
// sibling field of the matched value (e.g. renaming a "username" field
// found alongside the matched user record) rather than the matched value
// itself.
type Change struct {
	Subpath *path.Path
	Mode    ChangeMode
	Func    *query.ValueFunc
}

// Update runs qf against tree, then applies every change in changes to
// every match, in two passes: every change's replacement value is computed
// first against the tree as it stood before any change was applied, then
// all changes are applied to the tree together. This keeps sibling matches
// (and sibling changes on the same match) from observing each other's
// edits mid-update, the same transactional shape Select and Remove already
// give their callers. If subpath is non-nil, qf runs against the sub-value
// located at subpath instead of tree's root, and each matched path is
// rebased to an absolute path (by prepending subpath) before being
// combined with a change's own Subpath.
func Update(tree value.Value, qf *query.QueryFunc, changes []Change, subpath *path.Path, fl *fuel.Fuel) (value.Value, int, error) {
	root, err := narrow(tree, subpath)
	if err != nil {
		return nil, 0, err
	}
	results, err := drain(qf.Query, rootEnv(qf, root), fl)
	if err != nil {
		return nil, 0, err
	}

	type planned struct {
		path    *path.Path
		mode    ChangeMode
		payload value.Value
	}
	plan := make([]planned, 0, len(results)*len(changes))
	for _, r := range results {
		if !r.HasPath {
			return nil, 0, &dberr.RemovalOfNonTreeValueError{}
		}
		matchPath := subpath.Concat(r.Path)
		for _, change := range changes {
			env := (*bind.Bindings)(nil).Extend(change.Func.Var, bind.Synthesized(r.Value))
			payloadResult, err := interp.Eval(change.Func.Expr, env, fl)
			if err != nil {
				return nil, 0, err
			}
			if change.Mode == RenameKey {
				if _, ok := payloadResult.Value.(value.Str); !ok {
					return nil, 0, &dberr.OpError{Op: "renamekey", Msg: "new key name must be a string"}
				}
			}
			changePath := matchPath.Concat(change.Subpath)
			plan = append(plan, planned{path: changePath, mode: change.Mode, payload: payloadResult.Value})
		}
	}

	newTree := tree
	for _, p := range plan {
		var err error
		newTree, err = applyChange(newTree, p.path, p.mode, p.payload)
		if err != nil {
			if _, ok := err.(*dberr.InconsistentDataError); !ok {
				err = &dberr.InconsistentDataError{Detail: err.Error()}
			}
			return nil, 0, err
		}
	}
	return newTree, len(results), nil
}

func applyChange(tree value.Value, p *path.Path, mode ChangeMode, payload value.Value) (value.Value, error) {
	steps := p.Steps()

	switch mode {
	case Overwrite:
		if len(steps) == 0 {
			return payload, nil
		}
		return withStep(tree, steps, func(container value.Value, step path.Step) (value.Value, error) {
			return replaceChild(container, step, payload)
		})

	case Append:
		if len(steps) == 0 {
			arr, ok := tree.(value.Array)
			if !ok {
				return nil, &dberr.NotAListError{Got: tree}
			}
			return append(copyArray(arr), payload), nil
		}
		return withStep(tree, steps, func(container value.Value, step path.Step) (value.Value, error) {
			cur, err := getChild(container, step)
			if err != nil {
				return nil, err
			}
			arr, ok := cur.(value.Array)
			if !ok {
				return nil, &dberr.NotAListError{Got: cur}
			}
			return replaceChild(container, step, append(copyArray(arr), payload))
		})

	case RenameKey:
		if len(steps) == 0 {
			return nil, &dberr.InconsistentDataError{Detail: "cannot rename the root"}
		}
		last := steps[len(steps)-1]
		if last.IsIndex() {
			return nil, &dberr.InconsistentDataError{Detail: "renamekey target is an array element, not a map key"}
		}
		newKey := string(payload.(value.Str))
		return withStep(tree, steps, func(container value.Value, step path.Step) (value.Value, error) {
			m, ok := container.(value.Map)
			if !ok {
				return nil, &path.ErrPathNotFound{Step: step, Got: container}
			}
			v, ok := m[step.Key()]
			if !ok {
				return nil, &path.ErrPathNotFound{Step: step, Got: container}
			}
			out := copyMap(m)
			delete(out, step.Key())
			out[newKey] = v
			return out, nil
		})

	default:
		return nil, &dberr.InconsistentDataError{Detail: "unknown change mode"}
	}
}
