package mutate

import (
	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/fuel"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/value"
)

// Remove runs qf against tree, then deletes every matched value from tree,
// returning the resulting tree and the number of matches removed. If
// subpath is non-nil, qf runs against the sub-value located at subpath
// instead of tree's root, and every matched path is rebased back to an
// absolute path (by prepending subpath) before deletion is applied. Every
// match must carry a path of provenance; a result synthesized by
// evaluation rather than read from the tree makes the whole call fail with
// *dberr.RemovalOfNonTreeValueError, since there is nothing in the tree to
// delete on its behalf. original_source: queries.py's remove.
func Remove(tree value.Value, qf *query.QueryFunc, subpath *path.Path, fl *fuel.Fuel) (value.Value, int, error) {
	root, err := narrow(tree, subpath)
	if err != nil {
		return nil, 0, err
	}
	results, err := drain(qf.Query, rootEnv(qf, root), fl)
	if err != nil {
		return nil, 0, err
	}

	trie := &trieNode{}
	for _, r := range results {
		if !r.HasPath {
			return nil, 0, &dberr.RemovalOfNonTreeValueError{}
		}
		trie.insert(subpath.Concat(r.Path))
	}

	if trie.deleted {
		return value.Map{}, len(results), nil
	}
	newTree, err := applyDeletions(tree, trie)
	if err != nil {
		return nil, 0, err
	}
	return newTree, len(results), nil
}

// applyDeletions rebuilds tree with every subtree marked in node removed.
// Array deletion is expressed by filtering rather than the original
// source's reversed-index deletion loop, which has the same effect without
// needing to sort indices first.
func applyDeletions(v value.Value, node *trieNode) (value.Value, error) {
	if node == nil || (!node.deleted && len(node.children) == 0) {
		return v, nil
	}
	switch t := v.(type) {
	case value.Map:
		out := make(value.Map, len(t))
		for k, elt := range t {
			child, ok := node.children[path.MapKey(k)]
			if !ok {
				out[k] = elt
				continue
			}
			if child.deleted {
				continue
			}
			newElt, err := applyDeletions(elt, child)
			if err != nil {
				return nil, err
			}
			out[k] = newElt
		}
		return out, nil
	case value.Array:
		out := make(value.Array, 0, len(t))
		for i, elt := range t {
			child, ok := node.children[path.ArrayIndex(i)]
			if !ok {
				out = append(out, elt)
				continue
			}
			if child.deleted {
				continue
			}
			newElt, err := applyDeletions(elt, child)
			if err != nil {
				return nil, err
			}
			out = append(out, newElt)
		}
		return out, nil
	default:
		return nil, &dberr.InconsistentDataError{Detail: "deletion path continues past a scalar value"}
	}
}
