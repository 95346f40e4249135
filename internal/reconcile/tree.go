package reconcile

// Tree describes how to walk a forest of T. Nodes are treated as values:
// every operation returns new slices along the path it touched and shares
// everything else, so a previously returned forest is never modified.
type Tree[T any] struct {
	ID           func(T) int
	Children     func(T) []T
	WithChildren func(T, []T) T
}

// Update replaces the node with the given id by fn(node). It reports false,
// and returns nodes unchanged, when no such node exists.
func (t Tree[T]) Update(nodes []T, id int, fn func(T) T) ([]T, bool) {
	for i, n := range nodes {
		if t.ID(n) == id {
			out := append([]T(nil), nodes...)
			out[i] = fn(n)
			return out, true
		}
		if kids, ok := t.Update(t.Children(n), id, fn); ok {
			out := append([]T(nil), nodes...)
			out[i] = t.WithChildren(n, kids)
			return out, true
		}
	}
	return nodes, false
}

// Remove drops the node with the given id together with its subtree.
func (t Tree[T]) Remove(nodes []T, id int) ([]T, bool) {
	for i, n := range nodes {
		if t.ID(n) == id {
			out := make([]T, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if kids, ok := t.Remove(t.Children(n), id); ok {
			out := append([]T(nil), nodes...)
			out[i] = t.WithChildren(n, kids)
			return out, true
		}
	}
	return nodes, false
}

// Find returns the node with the given id and its depth, counting top-level
// nodes as depth 1.
func (t Tree[T]) Find(nodes []T, id int) (T, int, bool) {
	return t.find(nodes, id, 1)
}

func (t Tree[T]) find(nodes []T, id, depth int) (T, int, bool) {
	for _, n := range nodes {
		if t.ID(n) == id {
			return n, depth, true
		}
		if found, d, ok := t.find(t.Children(n), id, depth+1); ok {
			return found, d, true
		}
	}
	var zero T
	return zero, 0, false
}

// AppendChild adds child as the last child of the node with parentID.
func (t Tree[T]) AppendChild(nodes []T, parentID int, child T) ([]T, bool) {
	return t.Update(nodes, parentID, func(p T) T {
		kids := t.Children(p)
		out := make([]T, 0, len(kids)+1)
		out = append(out, kids...)
		return t.WithChildren(p, append(out, child))
	})
}

// Count returns the number of nodes in the forest.
func (t Tree[T]) Count(nodes []T) int {
	n := len(nodes)
	for _, node := range nodes {
		n += t.Count(t.Children(node))
	}
	return n
}
