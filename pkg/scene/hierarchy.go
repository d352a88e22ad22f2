package scene

// RuleFunc is a dynamic hierarchy extension. It may widen the core rule table
// by returning true for a (child, parent) pair the table rejects; it can
// inspect node payloads, so custom catalog kinds can declare their own
// legality without editing the table.
type RuleFunc func(child, parent *Node) bool

// HierarchyRules decides which parent-child relationships are legal.
// The zero value allows nothing; use DefaultHierarchy for the building table.
type HierarchyRules struct {
	allowed map[NodeKind]map[NodeKind]bool // child kind -> legal parent kinds
	ext     []RuleFunc
}

// DefaultHierarchy returns the core building hierarchy:
// root → site → building → level → {wall, slab, column, roof, group, item},
// groups nest the same element kinds, walls carry doors and windows.
func DefaultHierarchy() *HierarchyRules {
	r := &HierarchyRules{allowed: make(map[NodeKind]map[NodeKind]bool)}
	r.Allow(KindSite, KindRoot)
	r.Allow(KindBuilding, KindSite)
	r.Allow(KindLevel, KindBuilding)
	for _, k := range []NodeKind{KindWall, KindSlab, KindColumn, KindRoof, KindGroup, KindItem} {
		r.Allow(k, KindLevel)
		r.Allow(k, KindGroup)
	}
	r.Allow(KindDoor, KindWall)
	r.Allow(KindWindow, KindWall)
	return r
}

// Allow adds a (child kind, parent kind) pair to the rule table.
func (r *HierarchyRules) Allow(child, parent NodeKind) {
	if r.allowed == nil {
		r.allowed = make(map[NodeKind]map[NodeKind]bool)
	}
	m := r.allowed[child]
	if m == nil {
		m = make(map[NodeKind]bool)
		r.allowed[child] = m
	}
	m[parent] = true
}

// Extend registers a dynamic extension rule. Extensions are consulted only
// when the table rejects a pair, and may only widen legality.
func (r *HierarchyRules) Extend(fn RuleFunc) {
	r.ext = append(r.ext, fn)
}

// CanBeChildOf reports whether child may be placed under parent.
// A nil parent stands for the top of the tree, which only accepts a root node.
func (r *HierarchyRules) CanBeChildOf(child, parent *Node) bool {
	if child == nil {
		return false
	}
	if parent == nil {
		return child.Kind == KindRoot
	}
	if r.allowed[child.Kind][parent.Kind] {
		return true
	}
	for _, fn := range r.ext {
		if fn(child, parent) {
			return true
		}
	}
	return false
}
