package bvh

// Visit the nodes of a tree in pre-order up to (and including) maxDepth; a
// negative maxDepth visits every node. Returning false from fn skips the
// children of the visited node.
func Walk(root Node, maxDepth int, fn func(n Node, depth int) bool) {
	walk(root, 0, maxDepth, fn)
}

func walk(n Node, depth, maxDepth int, fn func(n Node, depth int) bool) {
	if n == nil || (maxDepth >= 0 && depth > maxDepth) {
		return
	}
	if !fn(n, depth) {
		return
	}
	if node, ok := n.(*Internal); ok {
		walk(node.Left, depth+1, maxDepth, fn)
		walk(node.Right, depth+1, maxDepth, fn)
	}
}
