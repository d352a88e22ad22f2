package scene

// Node is the fundamental element of the scene tree.
//
// Children are ordered and type-constrained by the hierarchy rules; ParentID
// is a back-reference that always equals the enclosing node's ID. Meta is an
// open string map carried through edits untouched (the external migration
// layer stores legacyId there).
type Node struct {
	ID       NodeID            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Name     string            `json:"name,omitempty"`
	Visible  bool              `json:"visible"`
	Opacity  float64           `json:"opacity"` // 0..100
	Locked   bool              `json:"locked,omitempty"`
	Preview  bool              `json:"preview,omitempty"` // transient placement ghost
	ParentID NodeID            `json:"-"`
	Meta     map[string]string `json:"meta,omitempty"`
	Data     NodeData          `json:"-"` // serialized via the kind-tagged codec
	Children []*Node           `json:"-"`
}

// NewNode creates a node of the given kind with a fresh ID and
// display defaults (visible, fully opaque).
func NewNode(kind NodeKind, data NodeData) *Node {
	return &Node{
		ID:      NewNodeID(kind),
		Kind:    kind,
		Visible: true,
		Opacity: 100,
		Data:    data,
	}
}

// clone returns a shallow copy of the node with its own children slice.
// The child pointers themselves are shared (structural sharing).
func (n *Node) clone() *Node {
	c := *n
	c.Children = make([]*Node, len(n.Children))
	copy(c.Children, n.Children)
	return &c
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// GridItem carries the placement attributes shared by element nodes.
type GridItem struct {
	Position  GridPoint `json:"position"`
	Rotation  float64   `json:"rotation"` // radians, counter-clockwise from +X
	Size      Size      `json:"size"`
	Elevation float64   `json:"elevation,omitempty"` // meters above the level floor
	CanPlace  bool      `json:"canPlace,omitempty"`
}

// gridItemHolder is implemented by every payload that embeds a GridItem,
// letting generic passes read and rewrite placement without per-kind
// conditionals.
type gridItemHolder interface {
	item() GridItem
	withItem(GridItem) NodeData
}

// ItemOf returns the node's grid item, if its payload carries one.
func ItemOf(n *Node) (GridItem, bool) {
	if n == nil || n.Data == nil {
		return GridItem{}, false
	}
	h, ok := n.Data.(gridItemHolder)
	if !ok {
		return GridItem{}, false
	}
	return h.item(), true
}

// WithItem replaces the node's grid item in place. It reports false when the
// payload carries no grid item. Callers must only use it on nodes they own,
// i.e. inside UpdateNode callbacks.
func WithItem(n *Node, g GridItem) bool {
	if n == nil || n.Data == nil {
		return false
	}
	h, ok := n.Data.(gridItemHolder)
	if !ok {
		return false
	}
	n.Data = h.withItem(g)
	return true
}

// ---------------------------------------------------------------------------
// Structural payloads
// ---------------------------------------------------------------------------

// SiteData describes a plot of land.
type SiteData struct {
	Address string `json:"address,omitempty"`
}

func (SiteData) nodeData() {}

// BuildingData describes one building on a site.
type BuildingData struct {
	Description string `json:"description,omitempty"`
}

func (BuildingData) nodeData() {}

// LevelData describes one storey. Height and Elevation are in meters and are
// populated by the processor pipeline, never authored directly; nil means not
// yet computed.
type LevelData struct {
	Index     int      `json:"index"`
	Height    *float64 `json:"height,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}

func (LevelData) nodeData() {}

// GroupData is a logical grouping of elements within a level.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

// ---------------------------------------------------------------------------
// Element payloads
// ---------------------------------------------------------------------------

// WallData is a wall segment. Start and End are kept consistent with the
// embedded placement (position = midpoint, Size.W = length, Size.D =
// thickness, rotation = segment angle); SyncEndpoints restores the invariant
// after either representation changes.
type WallData struct {
	GridItem
	Start        GridPoint `json:"start"`
	End          GridPoint `json:"end"`
	Thickness    float64   `json:"thickness"` // grid units
	InteriorSide WallSide  `json:"interiorSide,omitempty"`
}

func (WallData) nodeData() {}

func (d WallData) item() GridItem { return d.GridItem }
func (d WallData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// DoorData is an opening carried by a wall.
type DoorData struct {
	GridItem
	Offset float64 `json:"offset"` // grid units from the wall start
}

func (DoorData) nodeData() {}

func (d DoorData) item() GridItem { return d.GridItem }
func (d DoorData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// WindowData is a glazed opening carried by a wall.
type WindowData struct {
	GridItem
	Offset float64 `json:"offset"`
	Sill   float64 `json:"sill,omitempty"` // meters above the level floor
}

func (WindowData) nodeData() {}

func (d WindowData) item() GridItem { return d.GridItem }
func (d WindowData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// ColumnData is a free-standing structural column.
type ColumnData struct {
	GridItem
}

func (ColumnData) nodeData() {}

func (d ColumnData) item() GridItem { return d.GridItem }
func (d ColumnData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// SlabData is a floor plate covering (part of) a level.
type SlabData struct {
	GridItem
	Thickness float64 `json:"thickness"` // meters
}

func (SlabData) nodeData() {}

func (d SlabData) item() GridItem { return d.GridItem }
func (d SlabData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// RoofData is a roof element sitting on top of the walls.
type RoofData struct {
	GridItem
	Pitch float64 `json:"pitch,omitempty"` // radians, 0 = flat
}

func (RoofData) nodeData() {}

func (d RoofData) item() GridItem { return d.GridItem }
func (d RoofData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// ItemData is a generic catalog element (furniture, fixtures).
// ElementKind names the registered element spec that drives its components.
type ItemData struct {
	GridItem
	ElementKind string `json:"elementKind,omitempty"`
}

func (ItemData) nodeData() {}

func (d ItemData) item() GridItem { return d.GridItem }
func (d ItemData) withItem(g GridItem) NodeData {
	d.GridItem = g
	return d
}

// ElementKindOf returns the element-spec kind driving a node's derived
// components. For items that is the catalog kind; for every other element it
// is the node kind's name.
func ElementKindOf(n *Node) string {
	if d, ok := n.Data.(ItemData); ok && d.ElementKind != "" {
		return d.ElementKind
	}
	return n.Kind.String()
}
