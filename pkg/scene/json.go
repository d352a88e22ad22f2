package scene

import (
	"encoding/json"
	"fmt"
)

// nodeJSON is the wire form of a node. The payload is kind-tagged: the
// decoder picks the concrete NodeData type from the node kind.
type nodeJSON struct {
	ID       NodeID            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Name     string            `json:"name,omitempty"`
	Visible  bool              `json:"visible"`
	Opacity  float64           `json:"opacity"`
	Locked   bool              `json:"locked,omitempty"`
	Preview  bool              `json:"preview,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	Data     json.RawMessage   `json:"data,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if n.Data != nil {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("scene: marshal %s data: %w", n.ID.Short(), err)
		}
		raw = b
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Kind:     n.Kind,
		Name:     n.Name,
		Visible:  n.Visible,
		Opacity:  n.Opacity,
		Locked:   n.Locked,
		Preview:  n.Preview,
		Meta:     n.Meta,
		Data:     raw,
		Children: n.Children,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Parent back-references are
// restored by the scene decoder, not here.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Kind = w.Kind
	n.Name = w.Name
	n.Visible = w.Visible
	n.Opacity = w.Opacity
	n.Locked = w.Locked
	n.Preview = w.Preview
	n.Meta = w.Meta
	n.Children = w.Children

	if len(w.Data) == 0 {
		n.Data = nil
		return nil
	}
	d, err := decodeData(w.Kind, w.Data)
	if err != nil {
		return fmt.Errorf("scene: node %s: %w", w.ID.Short(), err)
	}
	n.Data = d
	return nil
}

func decodeData(kind NodeKind, raw json.RawMessage) (NodeData, error) {
	unmarshal := func(v NodeData, into func() NodeData) (NodeData, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		return into(), nil
	}
	switch kind {
	case KindSite:
		var d SiteData
		return unmarshal(&d, func() NodeData { return d })
	case KindBuilding:
		var d BuildingData
		return unmarshal(&d, func() NodeData { return d })
	case KindLevel:
		var d LevelData
		return unmarshal(&d, func() NodeData { return d })
	case KindGroup:
		var d GroupData
		return unmarshal(&d, func() NodeData { return d })
	case KindWall:
		var d WallData
		return unmarshal(&d, func() NodeData { return d })
	case KindDoor:
		var d DoorData
		return unmarshal(&d, func() NodeData { return d })
	case KindWindow:
		var d WindowData
		return unmarshal(&d, func() NodeData { return d })
	case KindColumn:
		var d ColumnData
		return unmarshal(&d, func() NodeData { return d })
	case KindSlab:
		var d SlabData
		return unmarshal(&d, func() NodeData { return d })
	case KindRoof:
		var d RoofData
		return unmarshal(&d, func() NodeData { return d })
	case KindItem:
		var d ItemData
		return unmarshal(&d, func() NodeData { return d })
	case KindRoot:
		return nil, nil
	}
	return nil, fmt.Errorf("no payload codec for kind %s", kind)
}

// sceneJSON is the wire form of a scene.
type sceneJSON struct {
	Defaults Defaults `json:"defaults"`
	Root     *Node    `json:"root,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(sceneJSON{Defaults: s.Defaults, Root: s.Root})
}

// UnmarshalJSON implements json.Unmarshaler. It restores parent
// back-references and installs the default hierarchy rules.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var w sceneJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Defaults = w.Defaults
	s.Root = w.Root
	s.rules = DefaultHierarchy()
	if s.Root != nil {
		s.Root.ParentID = ZeroID
		relink(s.Root)
	}
	return nil
}

func relink(n *Node) {
	for _, c := range n.Children {
		c.ParentID = n.ID
		relink(c)
	}
}

// DecodeScene parses a serialized scene.
func DecodeScene(data []byte) (*Scene, error) {
	s := NewScene()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
