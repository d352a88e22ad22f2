package scene

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NodeID is a stable, kind-prefixed identifier for scene nodes.
// IDs are assigned once and never renumbered on save/load.
type NodeID string

// ZeroID is the zero value of NodeID.
const ZeroID NodeID = ""

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool { return id == "" }

// Short returns a truncated form of the ID for error messages.
func (id NodeID) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12]) + "…"
}

// NewNodeID generates a fresh kind-prefixed node ID.
func NewNodeID(kind NodeKind) NodeID {
	var buf [5]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("scene: id generation: %v", err))
	}
	return NodeID(kind.String() + "-" + hex.EncodeToString(buf[:]))
}

// NodeKind enumerates the types of nodes in the scene tree.
type NodeKind int

const (
	KindRoot     NodeKind = iota // scene root
	KindSite                     // plot of land
	KindBuilding                 // one building on a site
	KindLevel                    // storey of a building
	KindWall
	KindSlab
	KindColumn
	KindRoof
	KindGroup
	KindItem // furniture / generic catalog element
	KindDoor
	KindWindow
)

var kindNames = map[NodeKind]string{
	KindRoot:     "root",
	KindSite:     "site",
	KindBuilding: "building",
	KindLevel:    "level",
	KindWall:     "wall",
	KindSlab:     "slab",
	KindColumn:   "column",
	KindRoof:     "roof",
	KindGroup:    "group",
	KindItem:     "item",
	KindDoor:     "door",
	KindWindow:   "window",
}

var kindByName = func() map[string]NodeKind {
	m := make(map[string]NodeKind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k NodeKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// ParseKind converts a kind name back to its NodeKind.
func ParseKind(name string) (NodeKind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k NodeKind) MarshalText() ([]byte, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("scene: unknown node kind %d", int(k))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(text []byte) error {
	v, ok := kindByName[string(text)]
	if !ok {
		return fmt.Errorf("scene: unknown node kind %q", string(text))
	}
	*k = v
	return nil
}

// GridPoint is a 2D position on the design grid, in grid units.
// X runs east, Z runs south; Y (height) lives in meters elsewhere.
type GridPoint struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Size is a 2D extent in grid units.
type Size struct {
	W float64 `json:"w"` // width, along local +X before rotation
	D float64 `json:"d"` // depth, along local +Z before rotation
}

// WallSide classifies which side(s) of a wall face an enclosed room.
type WallSide string

const (
	SideUnknown WallSide = ""
	SideFront   WallSide = "front"
	SideBack    WallSide = "back"
	SideBoth    WallSide = "both"
	SideNeither WallSide = "neither"
)
