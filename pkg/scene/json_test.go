package scene

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSceneJSONRoundTrip(t *testing.T) {
	f := buildFixture(t)
	s, _ := f.s.UpdateNode(f.wall.ID, func(n *Node) {
		d := n.Data.(WallData)
		d.InteriorSide = SideBack
		n.Data = d
		n.Meta = map[string]string{"legacyId": "7"}
	})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := DecodeScene(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if back.NodeCount() != s.NodeCount() {
		t.Fatalf("node count: got %d, want %d", back.NodeCount(), s.NodeCount())
	}
	if back.Defaults != s.Defaults {
		t.Errorf("defaults lost: %+v", back.Defaults)
	}

	// Kinds, payloads and parent back-references all survive.
	wall := back.FindByID(f.wall.ID)
	if wall == nil || wall.Kind != KindWall {
		t.Fatal("wall lost in round trip")
	}
	wd := wall.Data.(WallData)
	if wd.Start != (GridPoint{X: 0, Z: 0}) || wd.End != (GridPoint{X: 4, Z: 0}) {
		t.Errorf("wall endpoints: %+v", wd)
	}
	if wd.InteriorSide != SideBack {
		t.Errorf("interior side lost: %q", wd.InteriorSide)
	}
	if wall.Meta["legacyId"] != "7" {
		t.Errorf("meta lost: %v", wall.Meta)
	}
	if wall.ParentID != f.level0.ID {
		t.Errorf("parent back-reference not restored: %s", wall.ParentID)
	}

	door := back.FindByID(f.door.ID)
	if door.ParentID != f.wall.ID {
		t.Errorf("door parent not restored: %s", door.ParentID)
	}
	if door.Data.(DoorData).Offset != 1.5 {
		t.Errorf("door payload lost: %+v", door.Data)
	}

	if got := back.FindByID(f.level1.ID).Data.(LevelData).Index; got != 1 {
		t.Errorf("level index lost: %d", got)
	}

	// IDs are stable across save/load.
	if back.Root.ID != f.root.ID {
		t.Error("root id renumbered")
	}
}

func TestSceneJSONKindsByName(t *testing.T) {
	f := buildFixture(t)
	raw, err := json.Marshal(f.s)
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{`"kind":"wall"`, `"kind":"door"`, `"kind":"level"`} {
		if !strings.Contains(string(raw), kind) {
			t.Errorf("serialized form should carry %s", kind)
		}
	}
}

func TestDecodeSceneRejectsUnknownKind(t *testing.T) {
	if _, err := DecodeScene([]byte(`{"defaults":{},"root":{"id":"x","kind":"pergola"}}`)); err == nil {
		t.Fatal("expected unknown-kind rejection")
	}
}

func TestDecodeSceneRejectsGarbage(t *testing.T) {
	if _, err := DecodeScene([]byte(`{"root": [1,2,3]}`)); err == nil {
		t.Fatal("expected malformed-document rejection")
	}
}
