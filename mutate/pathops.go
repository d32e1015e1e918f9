package mutate

import (
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/value"
)

// getChild returns the value located at step within container.
func getChild(container value.Value, step path.Step) (value.Value, error) {
	if step.IsIndex() {
		arr, ok := container.(value.Array)
		if !ok || step.Index() < 0 || step.Index() >= len(arr) {
			return nil, &path.ErrPathNotFound{Step: step, Got: container}
		}
		return arr[step.Index()], nil
	}
	m, ok := container.(value.Map)
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: container}
	}
	v, ok := m[step.Key()]
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: container}
	}
	return v, nil
}

func copyMap(m value.Map) value.Map {
	out := make(value.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyArray(a value.Array) value.Array {
	out := make(value.Array, len(a))
	copy(out, a)
	return out
}

// leafOp replaces or transforms the member of container named by step,
// returning the updated container.
type leafOp func(container value.Value, step path.Step) (value.Value, error)

// withStep rebuilds tree, copy-on-write, so that applying op at the
// container located by steps[:len(steps)-1] against its final step produces
// the new tree. Every map/array on the path from root to that container is
// copied; everything else is shared structurally with tree.
func withStep(tree value.Value, steps []path.Step, op leafOp) (value.Value, error) {
	if len(steps) == 0 {
		return nil, &dberr.InconsistentDataError{Detail: "update target has no parent container"}
	}
	return descend(tree, steps, 0, op)
}

func descend(container value.Value, steps []path.Step, i int, op leafOp) (value.Value, error) {
	if i == len(steps)-1 {
		return op(container, steps[i])
	}
	step := steps[i]
	child, err := getChild(container, step)
	if err != nil {
		return nil, err
	}
	newChild, err := descend(child, steps, i+1, op)
	if err != nil {
		return nil, err
	}
	return replaceChild(container, step, newChild)
}

func replaceChild(container value.Value, step path.Step, newVal value.Value) (value.Value, error) {
	if step.IsIndex() {
		arr, ok := container.(value.Array)
		if !ok || step.Index() < 0 || step.Index() >= len(arr) {
			return nil, &path.ErrPathNotFound{Step: step, Got: container}
		}
		out := copyArray(arr)
		out[step.Index()] = newVal
		return out, nil
	}
	m, ok := container.(value.Map)
	if !ok {
		return nil, &path.ErrPathNotFound{Step: step, Got: container}
	}
	out := copyMap(m)
	out[step.Key()] = newVal
	return out, nil
}
