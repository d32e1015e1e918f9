package mutate

import "github.com/kmill/pynomic/path"

// trieNode overlays a set of paths to delete onto the document tree shape.
// This is the Go translation of original_source/minidb/queries.py's remove
// function, which builds a dict-of-dict-or-None overlay via its nested
// addPath helper and consumes it with removePaths; deleted marks a path
// whose entire subtree is gone, children holds deeper, partial deletions.
//
// Marking a node deleted always discards any children already recorded
// under it ("shallower wins": deleting /a subsumes a previously recorded
// deletion of /a/b), and inserting under an already-deleted ancestor is a
// no-op for the same reason, regardless of which was recorded first.
type trieNode struct {
	deleted  bool
	children map[path.Step]*trieNode
}

// insert records p as a path to delete.
func (n *trieNode) insert(p *path.Path) {
	cur := n
	for _, step := range p.Steps() {
		if cur.deleted {
			return
		}
		if cur.children == nil {
			cur.children = map[path.Step]*trieNode{}
		}
		child, ok := cur.children[step]
		if !ok {
			child = &trieNode{}
			cur.children[step] = child
		}
		cur = child
	}
	cur.deleted = true
	cur.children = nil
}
