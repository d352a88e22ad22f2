package scene

import (
	"reflect"
	"testing"
)

// assertIndexMatchesRebuild checks an incrementally patched index against a
// fresh build of the same scene.
func assertIndexMatchesRebuild(t *testing.T, ix *Index, s *Scene) {
	t.Helper()
	fresh := BuildIndex(s)
	if ix.Len() != fresh.Len() {
		t.Fatalf("size: patched %d, rebuilt %d", ix.Len(), fresh.Len())
	}
	for id, want := range fresh.byID {
		got := ix.Get(id)
		if got == nil {
			t.Fatalf("%s missing from patched index", id.Short())
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: patched %+v, rebuilt %+v", id.Short(), got, want)
		}
	}
	if violations := ix.CheckIntegrity(); len(violations) != 0 {
		t.Errorf("patched index fails integrity: %v", violations)
	}
}

func TestBuildIndex(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	if ix.Len() != f.s.NodeCount() {
		t.Fatalf("index size %d, scene has %d nodes", ix.Len(), f.s.NodeCount())
	}

	door := ix.Get(f.door.ID)
	if door == nil {
		t.Fatal("door not indexed")
	}
	wantPath := []NodeID{f.root.ID, f.site.ID, f.building.ID, f.level0.ID, f.wall.ID, f.door.ID}
	if !reflect.DeepEqual(door.Path, wantPath) {
		t.Errorf("door path: %v, want %v", door.Path, wantPath)
	}
	if door.LevelID != f.level0.ID {
		t.Errorf("door level: %s", door.LevelID)
	}

	// A level indexes itself.
	if lv := ix.Get(f.level0.ID); lv.LevelID != f.level0.ID {
		t.Errorf("level should be its own level, got %s", lv.LevelID)
	}
	// Structural nodes above the levels have no level.
	if site := ix.Get(f.site.ID); !site.LevelID.IsZero() {
		t.Errorf("site should carry no level, got %s", site.LevelID)
	}

	if got := ix.ByKind(KindLevel); len(got) != 2 {
		t.Errorf("ByKind(level): %v", got)
	}
	if got := ix.ByParent(f.level0.ID); len(got) != 2 {
		t.Errorf("ByParent(level0): %v", got)
	}
	// ByLevel includes the level itself plus everything under it.
	if got := ix.ByLevel(f.level0.ID); len(got) != 5 {
		t.Errorf("ByLevel(level0): %v", got)
	}
}

func TestIndexNilLookups(t *testing.T) {
	ix := BuildIndex(NewScene())
	if ix.Get("wall-dead") != nil {
		t.Error("unknown id should resolve to nil")
	}
	if got := ix.ByKind(KindWall); len(got) != 0 {
		t.Error("unknown kind should yield an empty slice")
	}
	if got := ix.ByParent("x"); len(got) != 0 {
		t.Error("unknown parent should yield an empty slice")
	}
}

func TestResolvePath(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	if n := ix.ResolvePath(f.s, f.door.ID); n == nil || n.ID != f.door.ID {
		t.Error("path should resolve to the door")
	}

	// Resolving against a scene where the node moved reports staleness.
	moved, err := f.s.MoveNode(f.item.ID, f.level1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n := ix.ResolvePath(moved, f.item.ID); n != nil {
		t.Error("stale path should not resolve after a move")
	}
}

func TestIndexIncrementalAdd(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	wall := NewWall(GridPoint{}, GridPoint{X: 2}, 0.2)
	window := NewNode(KindWindow, WindowData{Offset: 0.5})
	wall.Children = append(wall.Children, window)
	window.ParentID = wall.ID

	s, err := f.s.AddNode(f.level1.ID, wall)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.ApplyAdd(s, wall.ID); err != nil {
		t.Fatal(err)
	}
	assertIndexMatchesRebuild(t, ix, s)
}

func TestIndexIncrementalRemove(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	s, ok := f.s.RemoveNode(f.wall.ID)
	if !ok {
		t.Fatal("remove failed")
	}
	ix.ApplyRemove(f.wall.ID)
	assertIndexMatchesRebuild(t, ix, s)

	if ix.Get(f.door.ID) != nil {
		t.Error("descendants must leave the index with their subtree")
	}
}

func TestIndexIncrementalUpdate(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	s, _ := f.s.UpdateNode(f.item.ID, func(n *Node) { n.Preview = true })
	if err := ix.ApplyUpdate(s, f.item.ID); err != nil {
		t.Fatal(err)
	}
	assertIndexMatchesRebuild(t, ix, s)
	if !ix.Get(f.item.ID).Preview {
		t.Error("preview flag not refreshed")
	}
}

func TestIndexIncrementalMove(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	s, err := f.s.MoveNode(f.group.ID, f.level1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.ApplyMove(s, f.group.ID); err != nil {
		t.Fatal(err)
	}
	assertIndexMatchesRebuild(t, ix, s)

	// The moved subtree now belongs to the other level.
	if got := ix.Get(f.item.ID).LevelID; got != f.level1.ID {
		t.Errorf("item level after move: %s", got)
	}
}

func TestCheckIntegrityFindsCorruption(t *testing.T) {
	f := buildFixture(t)
	ix := BuildIndex(f.s)

	if v := ix.CheckIntegrity(); len(v) != 0 {
		t.Fatalf("fresh index should be clean: %v", v)
	}

	// Simulate corruption: drop a node other entries still reference.
	delete(ix.byID, f.wall.ID)
	violations := ix.CheckIntegrity()
	if len(violations) == 0 {
		t.Fatal("expected integrity violations")
	}
}
