package rpcdb

import (
	"fmt"

	"github.com/kmill/pynomic/mutate"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/store"
	"github.com/kmill/pynomic/value"
)

// action is one entry of the dispatch table, the Go shape of server.py's
// METHODS dict populated by its @rpc(name) decorator. Registration happens
// in an init() below rather than through a decorator, since Go has none.
type action func(s *store.Store, params value.Value) (value.Value, error)

var actions = map[string]action{}

func register(name string, a action) {
	if _, ok := actions[name]; ok {
		panic(fmt.Sprintf("rpcdb: action %q registered twice", name))
	}
	actions[name] = a
}

func init() {
	register("select", doSelect)
	register("insert", doInsert)
	register("remove", doRemove)
	register("update", doUpdate)
	register("commit", doCommit)
	register("rollback", doRollback)
}

// field looks up key in params, which must be a Map, reporting false if
// params is not a Map or the key is absent.
func field(params value.Value, key string) (value.Value, bool) {
	m, ok := params.(value.Map)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// pathFromField reads the named field of params (an Array of Str and Int
// steps, root first) and builds the *path.Path it denotes. present reports
// whether the field was present at all, so callers can tell "the path is
// root" from "no path was given".
func pathFromField(params value.Value, key string) (p *path.Path, present bool, err error) {
	v, ok := field(params, key)
	if !ok {
		return nil, false, nil
	}
	arr, ok := v.(value.Array)
	if !ok {
		return nil, false, fmt.Errorf("rpcdb: %q must be an array", key)
	}
	keys := make([]any, len(arr))
	for i, elt := range arr {
		switch t := elt.(type) {
		case value.Str:
			keys[i] = string(t)
		case value.Int:
			keys[i] = int(t)
		default:
			return nil, false, fmt.Errorf("rpcdb: %s element %d has unsupported type %T", key, i, elt)
		}
	}
	return path.Of(keys...), true, nil
}

// pathFrom reads the "path" field of params, defaulting to the root path
// when absent.
func pathFrom(params value.Value) (*path.Path, error) {
	p, present, err := pathFromField(params, "path")
	if err != nil {
		return nil, err
	}
	if !present {
		return path.Root, nil
	}
	return p, nil
}

// subpathFromRequest reads the optional "subpath" field of params, the same
// array-of-steps shape as "path". A nil result means no narrowing: the
// operation runs against the tree's root.
func subpathFromRequest(params value.Value) (*path.Path, error) {
	p, _, err := pathFromField(params, "subpath")
	return p, err
}

// pathToValue renders p as the same Array-of-steps shape pathFrom reads.
func pathToValue(p *path.Path) value.Array {
	steps := p.Steps()
	out := make(value.Array, len(steps))
	for i, s := range steps {
		if s.IsIndex() {
			out[i] = value.Int(s.Index())
		} else {
			out[i] = value.Str(s.Key())
		}
	}
	return out
}

// getQueryFunc builds the QueryFunc a select/remove/update request runs:
// enumerate the children of the value located at the request's path,
// binding the database root to "db". A request always operates on the
// children of the value at its path, never on that value itself; doSelect
// reports each child's own path alongside its value.
func getQueryFunc(p *path.Path) *query.QueryFunc {
	steps := p.Steps()
	keys := make([]any, len(steps))
	for i, s := range steps {
		if s.IsIndex() {
			keys[i] = s.Index()
		} else {
			keys[i] = s.Key()
		}
	}
	return &query.QueryFunc{
		Var:   "db",
		Query: query.Get(&query.Var{Name: "db"}, keys...),
	}
}

func doSelect(s *store.Store, params value.Value) (value.Value, error) {
	p, err := pathFromRequest(params)
	if err != nil {
		return nil, err
	}
	sp, err := subpathFromRequest(params)
	if err != nil {
		return nil, err
	}
	results, err := s.Select(getQueryFunc(p), sp)
	if err != nil {
		return nil, err
	}
	out := make(value.Array, len(results))
	for i, r := range results {
		entry := value.Map{"value": r.Value}
		if r.HasPath {
			entry["path"] = pathToValue(r.Path)
		}
		out[i] = entry
	}
	return out, nil
}

func doInsert(s *store.Store, params value.Value) (value.Value, error) {
	p, err := pathFromRequest(params)
	if err != nil {
		return nil, err
	}
	v, ok := field(params, "value")
	if !ok {
		return nil, fmt.Errorf("rpcdb: insert requires a \"value\" field")
	}
	opts := store.InsertOptions{}
	if b, ok := field(params, "append"); ok {
		opts.Append = value.Truth(b)
	}
	if b, ok := field(params, "overwrite"); ok {
		opts.Overwrite = value.Truth(b)
	}
	sp, err := subpathFromRequest(params)
	if err != nil {
		return nil, err
	}
	if err := s.Insert(p, v, opts, sp); err != nil {
		return nil, err
	}
	return value.Null, nil
}

func doRemove(s *store.Store, params value.Value) (value.Value, error) {
	p, err := pathFromRequest(params)
	if err != nil {
		return nil, err
	}
	sp, err := subpathFromRequest(params)
	if err != nil {
		return nil, err
	}
	n, err := s.Remove(getQueryFunc(p), sp)
	if err != nil {
		return nil, err
	}
	return value.Int(n), nil
}

// changeFromRequest builds one mutate.Change from a "changes" array entry:
// its own required "value", optional "mode" (defaulting to overwrite), and
// optional "subpath" (targeting a field alongside the matched value rather
// than the matched value itself).
func changeFromRequest(v value.Value) (mutate.Change, error) {
	payload, ok := field(v, "value")
	if !ok {
		return mutate.Change{}, fmt.Errorf("rpcdb: each change requires a \"value\" field")
	}
	mode := mutate.Overwrite
	if m, ok := field(v, "mode"); ok {
		switch m {
		case value.Str("append"):
			mode = mutate.Append
		case value.Str("renamekey"):
			mode = mutate.RenameKey
		case value.Str("overwrite"):
			mode = mutate.Overwrite
		default:
			return mutate.Change{}, fmt.Errorf("rpcdb: unknown update mode %v", m)
		}
	}
	sp, err := subpathFromRequest(v)
	if err != nil {
		return mutate.Change{}, err
	}
	return mutate.Change{
		Mode:    mode,
		Subpath: sp,
		Func:    &query.ValueFunc{Expr: query.Lit(payload)},
	}, nil
}

func doUpdate(s *store.Store, params value.Value) (value.Value, error) {
	p, err := pathFromRequest(params)
	if err != nil {
		return nil, err
	}
	sp, err := subpathFromRequest(params)
	if err != nil {
		return nil, err
	}
	changesVal, ok := field(params, "changes")
	if !ok {
		return nil, fmt.Errorf("rpcdb: update requires a \"changes\" field")
	}
	arr, ok := changesVal.(value.Array)
	if !ok {
		return nil, fmt.Errorf("rpcdb: \"changes\" must be an array")
	}
	changes := make([]mutate.Change, len(arr))
	for i, elt := range arr {
		c, err := changeFromRequest(elt)
		if err != nil {
			return nil, err
		}
		changes[i] = c
	}
	n, err := s.Update(getQueryFunc(p), changes, sp)
	if err != nil {
		return nil, err
	}
	return value.Int(n), nil
}

func doCommit(s *store.Store, _ value.Value) (value.Value, error) {
	return value.Null, s.Commit()
}

func doRollback(s *store.Store, _ value.Value) (value.Value, error) {
	return value.Null, s.Rollback()
}
