package scene

// Visitor is called for every node during traversal with the node's depth
// (root = 0). Returning false prunes the node's subtree.
type Visitor func(n *Node, depth int) bool

// Traverse walks the tree depth-first in document order.
func (s *Scene) Traverse(visit Visitor) {
	if s.Root == nil {
		return
	}
	traverseFrom(s.Root, 0, visit)
}

// TraverseFrom walks the subtree rooted at n depth-first, with n at depth 0.
func TraverseFrom(n *Node, visit Visitor) {
	if n == nil {
		return
	}
	traverseFrom(n, 0, visit)
}

func traverseFrom(n *Node, depth int, visit Visitor) {
	if !visit(n, depth) {
		return
	}
	for _, c := range n.Children {
		traverseFrom(c, depth+1, visit)
	}
}

// FindByID returns the node with the given id, or nil.
func (s *Scene) FindByID(id NodeID) *Node {
	if id.IsZero() {
		return nil
	}
	var found *Node
	s.Traverse(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// MustFindByID returns the node with the given id, panicking when absent.
// For fail-fast call sites that have already validated the id.
func (s *Scene) MustFindByID(id NodeID) *Node {
	n := s.FindByID(id)
	if n == nil {
		panic(&NodeNotFoundError{ID: id})
	}
	return n
}

// FindByKind returns all nodes of the given kind in document order.
func (s *Scene) FindByKind(kind NodeKind) []*Node {
	var out []*Node
	s.Traverse(func(n *Node, _ int) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Ancestors returns the node's ancestors, nearest first, ending at the root.
// Nil when the id is absent; empty for the root itself.
func (s *Scene) Ancestors(id NodeID) []*Node {
	chain, ok := s.pathTo(id)
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(chain)-1)
	for i := len(chain) - 2; i >= 0; i-- {
		out = append(out, chain[i])
	}
	return out
}

// Descendants returns every node strictly below id, in document order.
func (s *Scene) Descendants(id NodeID) []*Node {
	start := s.FindByID(id)
	if start == nil {
		return nil
	}
	var out []*Node
	TraverseFrom(start, func(n *Node, depth int) bool {
		if depth > 0 {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Siblings returns the node's siblings in order, excluding the node itself.
func (s *Scene) Siblings(id NodeID) []*Node {
	chain, ok := s.pathTo(id)
	if !ok || len(chain) < 2 {
		return nil
	}
	parent := chain[len(chain)-2]
	out := make([]*Node, 0, len(parent.Children)-1)
	for _, c := range parent.Children {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// LevelOf returns the level node enclosing id (or id itself when it is a
// level), or nil.
func (s *Scene) LevelOf(id NodeID) *Node {
	chain, ok := s.pathTo(id)
	if !ok {
		return nil
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Kind == KindLevel {
			return chain[i]
		}
	}
	return nil
}

// Levels returns the scene's level nodes sorted by their level index.
func (s *Scene) Levels() []*Node {
	levels := s.FindByKind(KindLevel)
	// Insertion sort keeps document order among equal indices.
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levelIndex(levels[j-1]) > levelIndex(levels[j]); j-- {
			levels[j-1], levels[j] = levels[j], levels[j-1]
		}
	}
	return levels
}

func levelIndex(n *Node) int {
	if d, ok := n.Data.(LevelData); ok {
		return d.Index
	}
	return 0
}
