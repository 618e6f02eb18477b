package graph

// SubtreeIterator returns a depth-first iterator over n and its descendants,
// in declaration order. The iterator returns nil when exhausted. Each call
// to SubtreeIterator gets fresh traversal state, so traversals are
// restartable and independent.
func (n *Node) SubtreeIterator() func() *Node {
	stack := []*Node{n}
	return func() *Node {
		if len(stack) == 0 {
			return nil
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// push children reversed so the leftmost child pops first
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
		return cur
	}
}
