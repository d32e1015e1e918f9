// Package path implements the immutable path-of-provenance that locates a
// value within the document tree, tracing the route a query result took
// from the tree root.
//
// A Path is a cons list, the same shape as original_source's Python Path
// class (key, parent): each Path value shares structure with its parent, so
// appending a step never mutates an existing Path.
package path

import (
	"fmt"
	"strings"

	"github.com/kmill/pynomic/value"
)

// A Step is one element of a Path: either a map key or an array index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// MapKey constructs a Step that selects a map member by key.
func MapKey(key string) Step { return Step{key: key} }

// ArrayIndex constructs a Step that selects an array element by index.
func ArrayIndex(i int) Step { return Step{index: i, isIndex: true} }

// IsIndex reports whether s is an ArrayIndex step.
func (s Step) IsIndex() bool { return s.isIndex }

// Key returns the map key for a MapKey step, or "" for an ArrayIndex step.
func (s Step) Key() string { return s.key }

// Index returns the array index for an ArrayIndex step, or 0 for a MapKey
// step.
func (s Step) Index() int { return s.index }

func (s Step) String() string {
	if s.isIndex {
		return fmt.Sprintf("[%d]", s.index)
	}
	return fmt.Sprintf("[%q]", s.key)
}

// A Path is an immutable, possibly-empty sequence of Steps from the root of
// the document tree to some node. The empty Path (the nil *Path) denotes the
// root itself.
type Path struct {
	parent *Path
	step   Step
}

// Root is the empty path, denoting the tree root.
var Root *Path

// Append returns a new path extending p with one more step. p is never
// mutated.
func (p *Path) Append(step Step) *Path {
	return &Path{parent: p, step: step}
}

// Concat returns a new path consisting of p's steps followed by other's
// steps. Either argument may be nil (the root).
func (p *Path) Concat(other *Path) *Path {
	if other == nil {
		return p
	}
	return p.Concat(other.parent).Append(other.step)
}

// Steps returns the steps of p in root-first order.
func (p *Path) Steps() []Step {
	var out []Step
	for cur := p; cur != nil; cur = cur.parent {
		out = append(out, cur.step)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Last returns the final step of p and true, or the zero Step and false if p
// is the root.
func (p *Path) Last() (Step, bool) {
	if p == nil {
		return Step{}, false
	}
	return p.step, true
}

// Parent returns the path with the last step removed, or nil if p is the
// root or has a single step.
func (p *Path) Parent() *Path {
	if p == nil {
		return nil
	}
	return p.parent
}

// ErrPathNotFound is reported by Get when a step cannot be resolved: a map
// key absent from its map, an array index out of range, or any step applied
// to a scalar.
type ErrPathNotFound struct {
	Step Step
	Got  value.Value
}

func (e *ErrPathNotFound) Error() string {
	return fmt.Sprintf("path not found: step %v on %T", e.Step, e.Got)
}

// Get walks p from root to tip against root, returning the value located
// there, or an *ErrPathNotFound if any step cannot be resolved.
func (p *Path) Get(root value.Value) (value.Value, error) {
	cur := root
	for _, step := range p.Steps() {
		next, err := getStep(cur, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func getStep(cur value.Value, step Step) (value.Value, error) {
	if step.isIndex {
		arr, ok := cur.(value.Array)
		if !ok {
			return nil, &ErrPathNotFound{Step: step, Got: cur}
		}
		if step.index < 0 || step.index >= len(arr) {
			return nil, &ErrPathNotFound{Step: step, Got: cur}
		}
		return arr[step.index], nil
	}
	m, ok := cur.(value.Map)
	if !ok {
		return nil, &ErrPathNotFound{Step: step, Got: cur}
	}
	v, ok := m[step.key]
	if !ok {
		return nil, &ErrPathNotFound{Step: step, Got: cur}
	}
	return v, nil
}

// Of constructs a Path from a sequence of raw keys (string for a map key,
// int for an array index), root first. This mirrors
// original_source/minidb/queries.py's module-level path(*keys) helper.
func Of(keys ...any) *Path {
	var p *Path
	for _, k := range keys {
		switch t := k.(type) {
		case string:
			p = p.Append(MapKey(t))
		case int:
			p = p.Append(ArrayIndex(t))
		default:
			panic(fmt.Sprintf("path: invalid key type %T", k))
		}
	}
	return p
}

func (p *Path) String() string {
	if p == nil {
		return "Path()"
	}
	var sb strings.Builder
	sb.WriteString("Path()")
	for _, s := range p.Steps() {
		sb.WriteString(s.String())
	}
	return sb.String()
}
