package ast

// VisitAction controls traversal after a visitor callback returns.
type VisitAction int

const (
	// Continue descends into the current node's children (on Enter) or
	// proceeds to the next sibling/ancestor (on Leave).
	Continue VisitAction = iota
	// SkipChildren proceeds without descending into the current node's
	// children. Only meaningful from an Enter callback.
	SkipChildren
	// Break stops the walk immediately.
	Break
)

// VisitFunc is called once per node, in pre-order. path contains every
// strict ancestor of node, outermost first; it is reused across calls and
// must not be retained past the callback.
type VisitFunc func(node *Node, path []*Node) VisitAction

// Walk performs a pre-order traversal of root, calling fn once per node.
// Ancestor context is made available via path rather than a Parent
// pointer on Node: Walk maintains its own path stack as it descends.
func Walk(root *Node, fn VisitFunc) {
	if root == nil {
		return
	}
	var path []*Node
	walk(root, &path, fn)
}

func walk(n *Node, path *[]*Node, fn VisitFunc) VisitAction {
	action := fn(n, *path)
	if action == Break {
		return Break
	}
	if action == SkipChildren {
		return Continue
	}

	*path = append(*path, n)
	for _, child := range n.Children {
		if walk(child, path, fn) == Break {
			*path = (*path)[:len(*path)-1]
			return Break
		}
	}
	*path = (*path)[:len(*path)-1]
	return Continue
}

// EnterLeaveFunc receives a node on the way down (enter=true) and again on
// the way back up (enter=false), mirroring the teacher's
// WalkContextFunc shape for visitors that need to pair setup/teardown
// around a subtree.
type EnterLeaveFunc func(node *Node, path []*Node, enter bool) VisitAction

// WalkWithEnterLeave performs a pre/post-order traversal, invoking fn on
// both the downward and upward pass. Returning Break from either pass
// stops the walk; SkipChildren on the enter pass suppresses both the
// descent and the matching leave call.
func WalkWithEnterLeave(root *Node, fn EnterLeaveFunc) {
	if root == nil {
		return
	}
	var path []*Node
	walkEnterLeave(root, &path, fn)
}

func walkEnterLeave(n *Node, path *[]*Node, fn EnterLeaveFunc) VisitAction {
	action := fn(n, *path, true)
	if action == Break {
		return Break
	}
	if action == SkipChildren {
		return Continue
	}

	*path = append(*path, n)
	for _, child := range n.Children {
		if walkEnterLeave(child, path, fn) == Break {
			*path = (*path)[:len(*path)-1]
			return Break
		}
	}
	*path = (*path)[:len(*path)-1]

	return fn(n, *path, false)
}

// FindAll collects every node for which pred returns true, in document
// order.
func FindAll(root *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	Walk(root, func(n *Node, _ []*Node) VisitAction {
		if pred(n) {
			out = append(out, n)
		}
		return Continue
	})
	return out
}

// FindFirst returns the first node in document order for which pred
// returns true, or nil if none match.
func FindFirst(root *Node, pred func(*Node) bool) *Node {
	var found *Node
	Walk(root, func(n *Node, _ []*Node) VisitAction {
		if pred(n) {
			found = n
			return Break
		}
		return Continue
	})
	return found
}

// FindByKind collects every node of the given kind, in document order.
func FindByKind(root *Node, kind Kind) []*Node {
	return FindAll(root, func(n *Node) bool { return n.Kind == kind })
}

// Parent returns the immediate parent of target within root, or nil if
// target is root or is not reachable from root. Rules that need a single
// ancestor lookup rather than the full path use this instead of walking
// manually.
func Parent(root, target *Node) *Node {
	var parent *Node
	Walk(root, func(n *Node, path []*Node) VisitAction {
		if n == target {
			if len(path) > 0 {
				parent = path[len(path)-1]
			}
			return Break
		}
		return Continue
	})
	return parent
}
