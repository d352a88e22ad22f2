package scene

import (
	"fmt"
	"sort"
)

// Entry is the indexed metadata for one node. Path holds the ordered node ids
// from the scene root down to the node itself, enabling direct access into
// the tree without a fresh traversal.
type Entry struct {
	ID       NodeID
	Kind     NodeKind
	Path     []NodeID
	ParentID NodeID
	Children []NodeID
	LevelID  NodeID // enclosing level (a level indexes itself)
	Preview  bool
}

// Index is a derived lookup structure over one scene snapshot. It is cheap to
// rebuild and must be rebuilt or patched after every tree mutation; a stale
// index silently resolves to wrong locations.
type Index struct {
	byID     map[NodeID]*Entry
	byKind   map[NodeKind]map[NodeID]struct{}
	byParent map[NodeID]map[NodeID]struct{}
	byLevel  map[NodeID]map[NodeID]struct{}
}

// IntegrityViolation is one finding from an index integrity check.
// Violations are diagnostics: the index is never auto-repaired, since silent
// repair could mask upstream corruption.
type IntegrityViolation struct {
	ID      NodeID
	Message string
}

func (v IntegrityViolation) String() string {
	if v.ID.IsZero() {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.ID.Short(), v.Message)
}

func newIndex() *Index {
	return &Index{
		byID:     make(map[NodeID]*Entry),
		byKind:   make(map[NodeKind]map[NodeID]struct{}),
		byParent: make(map[NodeID]map[NodeID]struct{}),
		byLevel:  make(map[NodeID]map[NodeID]struct{}),
	}
}

// BuildIndex produces the four lookup maps plus per-node paths in a single
// traversal of the scene.
func BuildIndex(s *Scene) *Index {
	ix := newIndex()
	if s.Root == nil {
		return ix
	}
	var path []NodeID
	var levels []NodeID // stack of enclosing level ids
	var walk func(n *Node)
	walk = func(n *Node) {
		path = append(path, n.ID)
		if n.Kind == KindLevel {
			levels = append(levels, n.ID)
		}
		var levelID NodeID
		if len(levels) > 0 {
			levelID = levels[len(levels)-1]
		}
		ix.insert(n, path, levelID)
		for _, c := range n.Children {
			walk(c)
		}
		if n.Kind == KindLevel {
			levels = levels[:len(levels)-1]
		}
		path = path[:len(path)-1]
	}
	walk(s.Root)
	return ix
}

func (ix *Index) insert(n *Node, path []NodeID, levelID NodeID) {
	e := &Entry{
		ID:       n.ID,
		Kind:     n.Kind,
		Path:     append([]NodeID(nil), path...),
		ParentID: n.ParentID,
		LevelID:  levelID,
		Preview:  n.Preview,
	}
	for _, c := range n.Children {
		e.Children = append(e.Children, c.ID)
	}
	ix.byID[n.ID] = e
	addSet(ix.byKind, n.Kind, n.ID)
	if !n.ParentID.IsZero() {
		addSet(ix.byParent, n.ParentID, n.ID)
	}
	if !levelID.IsZero() {
		addSet(ix.byLevel, levelID, n.ID)
	}
}

func addSet[K comparable](m map[K]map[NodeID]struct{}, key K, id NodeID) {
	set := m[key]
	if set == nil {
		set = make(map[NodeID]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

func dropSet[K comparable](m map[K]map[NodeID]struct{}, key K, id NodeID) {
	if set := m[key]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

// Get returns the entry for id, or nil. Unknown ids never panic.
func (ix *Index) Get(id NodeID) *Entry {
	return ix.byID[id]
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.byID) }

// ByKind returns the ids of the given kind, sorted for determinism.
func (ix *Index) ByKind(kind NodeKind) []NodeID {
	return sortedIDs(ix.byKind[kind])
}

// ByParent returns the ids whose parent is id, sorted for determinism.
// Note the index does not retain sibling order; use Entry.Children for that.
func (ix *Index) ByParent(id NodeID) []NodeID {
	return sortedIDs(ix.byParent[id])
}

// ByLevel returns the ids belonging to the given level, the level included.
func (ix *Index) ByLevel(id NodeID) []NodeID {
	return sortedIDs(ix.byLevel[id])
}

func sortedIDs(set map[NodeID]struct{}) []NodeID {
	out := make([]NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResolvePath follows the stored path for id through the given scene and
// returns the node it lands on, or nil when the path no longer resolves
// (which means the index is stale).
func (ix *Index) ResolvePath(s *Scene, id NodeID) *Node {
	e := ix.byID[id]
	if e == nil || s.Root == nil || len(e.Path) == 0 {
		return nil
	}
	if s.Root.ID != e.Path[0] {
		return nil
	}
	cur := s.Root
	for _, step := range e.Path[1:] {
		var next *Node
		for _, c := range cur.Children {
			if c.ID == step {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// ---------------------------------------------------------------------------
// Incremental updates
// ---------------------------------------------------------------------------

// ApplyAdd indexes the node (and subtree) just added to s, producing the same
// maps a full rebuild would.
func (ix *Index) ApplyAdd(s *Scene, id NodeID) error {
	chain, ok := s.pathTo(id)
	if !ok {
		return &NodeNotFoundError{ID: id}
	}
	node := chain[len(chain)-1]
	path := make([]NodeID, 0, len(chain))
	var levelID NodeID
	for _, n := range chain[:len(chain)-1] {
		path = append(path, n.ID)
		if n.Kind == KindLevel {
			levelID = n.ID
		}
	}
	if parent := ix.byID[node.ParentID]; parent != nil {
		parent.Children = append(parent.Children, id)
	}
	ix.indexSubtree(node, path, levelID)
	return nil
}

func (ix *Index) indexSubtree(n *Node, parentPath []NodeID, levelID NodeID) {
	path := append(append([]NodeID(nil), parentPath...), n.ID)
	if n.Kind == KindLevel {
		levelID = n.ID
	}
	ix.insert(n, path, levelID)
	for _, c := range n.Children {
		ix.indexSubtree(c, path, levelID)
	}
}

// ApplyRemove drops the node and its indexed descendants.
func (ix *Index) ApplyRemove(id NodeID) {
	e := ix.byID[id]
	if e == nil {
		return
	}
	if parent := ix.byID[e.ParentID]; parent != nil {
		for i, c := range parent.Children {
			if c == id {
				parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
				break
			}
		}
	}
	ix.dropSubtree(id)
}

func (ix *Index) dropSubtree(id NodeID) {
	e := ix.byID[id]
	if e == nil {
		return
	}
	for _, c := range e.Children {
		ix.dropSubtree(c)
	}
	delete(ix.byID, id)
	dropSet(ix.byKind, e.Kind, id)
	if !e.ParentID.IsZero() {
		dropSet(ix.byParent, e.ParentID, id)
	}
	if !e.LevelID.IsZero() {
		dropSet(ix.byLevel, e.LevelID, id)
	}
}

// ApplyUpdate refreshes the indexed metadata of a node whose scalar fields
// changed in place (kind and structure are fixed under UpdateNode).
func (ix *Index) ApplyUpdate(s *Scene, id NodeID) error {
	e := ix.byID[id]
	if e == nil {
		return &NodeNotFoundError{ID: id}
	}
	n := ix.ResolvePath(s, id)
	if n == nil {
		return &NodeNotFoundError{ID: id}
	}
	e.Preview = n.Preview
	return nil
}

// ApplyMove re-indexes a re-parented subtree.
func (ix *Index) ApplyMove(s *Scene, id NodeID) error {
	ix.ApplyRemove(id)
	return ix.ApplyAdd(s, id)
}

// ---------------------------------------------------------------------------
// Integrity
// ---------------------------------------------------------------------------

// CheckIntegrity verifies referential closure: every id referenced by the
// kind/parent/level maps exists in byID, every parent reference resolves, and
// every stored path ends at its own id. Findings are returned as diagnostics.
func (ix *Index) CheckIntegrity() []IntegrityViolation {
	var out []IntegrityViolation
	report := func(id NodeID, format string, args ...any) {
		out = append(out, IntegrityViolation{ID: id, Message: fmt.Sprintf(format, args...)})
	}

	for kind, set := range ix.byKind {
		for id := range set {
			if ix.byID[id] == nil {
				report(id, "kind index %s references unknown id", kind)
			}
		}
	}
	for parent, set := range ix.byParent {
		if ix.byID[parent] == nil {
			report(parent, "parent index keyed by unknown id")
		}
		for id := range set {
			if ix.byID[id] == nil {
				report(id, "parent index under %s references unknown id", parent.Short())
			}
		}
	}
	for level, set := range ix.byLevel {
		if ix.byID[level] == nil {
			report(level, "level index keyed by unknown id")
		}
		for id := range set {
			if ix.byID[id] == nil {
				report(id, "level index under %s references unknown id", level.Short())
			}
		}
	}

	for id, e := range ix.byID {
		if len(e.Path) == 0 || e.Path[len(e.Path)-1] != id {
			report(id, "stored path does not end at the entry's own id")
		}
		if !e.ParentID.IsZero() {
			parent := ix.byID[e.ParentID]
			if parent == nil {
				report(id, "parent %s not present in byID", e.ParentID.Short())
			} else if !containsID(parent.Children, id) {
				report(id, "parent %s does not list the entry as a child", e.ParentID.Short())
			}
		}
		for _, c := range e.Children {
			if ix.byID[c] == nil {
				report(id, "child %s not present in byID", c.Short())
			}
		}
	}
	return out
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
