package scene

import "fmt"

// Scene is the canonical, persisted building model. It is never mutated in
// place: every rewrite returns a new Scene sharing all untouched subtrees
// with its predecessor, so old snapshots remain valid.
type Scene struct {
	Root     *Node
	Defaults Defaults

	rules *HierarchyRules
}

// NewScene creates an empty scene with default authoring constants and the
// core hierarchy rules.
func NewScene() *Scene {
	return &Scene{
		Defaults: NewDefaults(),
		rules:    DefaultHierarchy(),
	}
}

// Rules exposes the hierarchy rules, e.g. so an element registry can extend
// them for custom kinds.
func (s *Scene) Rules() *HierarchyRules {
	if s.rules == nil {
		s.rules = DefaultHierarchy()
	}
	return s.rules
}

// shallow returns a copy of the scene metadata with a new root, carrying the
// rules and defaults forward.
func (s *Scene) shallow(root *Node) *Scene {
	return &Scene{Root: root, Defaults: s.Defaults, rules: s.Rules()}
}

// pathTo returns the chain of nodes from the root down to id, inclusive.
func (s *Scene) pathTo(id NodeID) ([]*Node, bool) {
	if s.Root == nil || id.IsZero() {
		return nil, false
	}
	var chain []*Node
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		chain = append(chain, n)
		if n.ID == id {
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		chain = chain[:len(chain)-1]
		return false
	}
	if !walk(s.Root) {
		return nil, false
	}
	return chain, true
}

// rewriteAlong clones every node on the chain, re-links the clones, applies
// edit to the deepest clone, and returns the new root. This is the single
// structural-sharing primitive all mutations are built on.
func rewriteAlong(chain []*Node, edit func(last *Node)) *Node {
	clones := make([]*Node, len(chain))
	for i, n := range chain {
		clones[i] = n.clone()
	}
	for i := 0; i < len(clones)-1; i++ {
		parent, child := clones[i], clones[i+1]
		for j, c := range parent.Children {
			if c.ID == child.ID {
				parent.Children[j] = child
				break
			}
		}
	}
	edit(clones[len(clones)-1])
	return clones[0]
}

// AddNode appends n as the last child of parentID, or installs it as the
// scene root when parentID is zero. The subtree under n is adopted as-is.
//
// Fails with *HierarchyViolation when the hierarchy rules reject the pair and
// *NodeNotFoundError when the parent does not exist; the scene is unchanged
// on failure.
func (s *Scene) AddNode(parentID NodeID, n *Node) (*Scene, error) {
	if n == nil || n.ID.IsZero() {
		return nil, fmt.Errorf("scene: AddNode: node must have an id")
	}
	if s.FindByID(n.ID) != nil {
		return nil, fmt.Errorf("scene: AddNode: id %s already present", n.ID.Short())
	}

	if parentID.IsZero() {
		if s.Root != nil {
			return nil, &HierarchyViolation{
				ChildID: n.ID, Child: n.Kind,
				Reason: "scene already has a root",
			}
		}
		if !s.Rules().CanBeChildOf(n, nil) {
			return nil, &HierarchyViolation{
				ChildID: n.ID, Child: n.Kind,
				Reason: fmt.Sprintf("%s cannot be the scene root", n.Kind),
			}
		}
		root := n.clone()
		root.ParentID = ZeroID
		return s.shallow(root), nil
	}

	chain, ok := s.pathTo(parentID)
	if !ok {
		return nil, &NodeNotFoundError{ID: parentID}
	}
	parent := chain[len(chain)-1]
	if !s.Rules().CanBeChildOf(n, parent) {
		return nil, &HierarchyViolation{
			ChildID: n.ID, ParentID: parent.ID,
			Child: n.Kind, Parent: parent.Kind,
		}
	}

	child := n.clone()
	child.ParentID = parent.ID
	root := rewriteAlong(chain, func(p *Node) {
		p.Children = append(p.Children, child)
	})
	return s.shallow(root), nil
}

// RemoveNode detaches the node (and its subtree) from the scene. It reports
// false when the id is absent, leaving the scene unchanged.
func (s *Scene) RemoveNode(id NodeID) (*Scene, bool) {
	chain, ok := s.pathTo(id)
	if !ok {
		return s, false
	}
	if len(chain) == 1 { // removing the root empties the scene
		return s.shallow(nil), true
	}
	root := rewriteAlong(chain[:len(chain)-1], func(p *Node) {
		for i, c := range p.Children {
			if c.ID == id {
				p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
				return
			}
		}
	})
	return s.shallow(root), true
}

// UpdateNode applies fn to a private copy of the node and returns the
// resulting scene. fn owns the copy's scalar fields, Meta and Data; it must
// not touch ID or Children. Reports false when the id is absent.
func (s *Scene) UpdateNode(id NodeID, fn func(n *Node)) (*Scene, bool) {
	chain, ok := s.pathTo(id)
	if !ok {
		return s, false
	}
	root := rewriteAlong(chain, func(n *Node) {
		if n.Meta != nil {
			m := make(map[string]string, len(n.Meta))
			for k, v := range n.Meta {
				m[k] = v
			}
			n.Meta = m
		}
		fn(n)
	})
	return s.shallow(root), true
}

// MoveNode re-parents a node, keeping its subtree intact and updating the
// back-reference. It is remove + add under the same hierarchy checks; moving
// a node under its own descendant is rejected as a cycle.
func (s *Scene) MoveNode(id, newParentID NodeID) (*Scene, error) {
	chain, ok := s.pathTo(id)
	if !ok {
		return nil, &NodeNotFoundError{ID: id}
	}
	node := chain[len(chain)-1]
	if len(chain) == 1 {
		return nil, &HierarchyViolation{ChildID: id, Child: node.Kind,
			Reason: "cannot move the scene root"}
	}

	parentChain, ok := s.pathTo(newParentID)
	if !ok {
		return nil, &NodeNotFoundError{ID: newParentID}
	}
	newParent := parentChain[len(parentChain)-1]
	for _, anc := range parentChain {
		if anc.ID == id {
			return nil, &HierarchyViolation{ChildID: id, ParentID: newParentID,
				Child: node.Kind, Parent: newParent.Kind,
				Reason: "cannot move a node under its own descendant"}
		}
	}
	if !s.Rules().CanBeChildOf(node, newParent) {
		return nil, &HierarchyViolation{
			ChildID: id, ParentID: newParentID,
			Child: node.Kind, Parent: newParent.Kind,
		}
	}

	detached, _ := s.RemoveNode(id)
	return detached.AddNode(newParentID, node)
}

// NodeCount returns the number of nodes in the scene.
func (s *Scene) NodeCount() int {
	count := 0
	s.Traverse(func(*Node, int) bool {
		count++
		return true
	})
	return count
}
