package world

import (
	"math"
	"testing"

	"github.com/chazu/mortar/pkg/element"
	"github.com/chazu/mortar/pkg/scene"
)

type sceneFixture struct {
	s      *scene.Scene
	level  *scene.Node
	wall   *scene.Node
	door   *scene.Node
	group  *scene.Node
	item   *scene.Node
	column *scene.Node
}

func buildScene(t *testing.T) *sceneFixture {
	t.Helper()
	f := &sceneFixture{
		level: scene.NewNode(scene.KindLevel, scene.LevelData{Index: 0}),
		wall:  scene.NewWall(scene.GridPoint{X: 0, Z: 0}, scene.GridPoint{X: 4, Z: 0}, 0.2),
		door:  scene.NewNode(scene.KindDoor, scene.DoorData{Offset: 1.5, GridItem: scene.GridItem{Size: scene.Size{W: 1.8, D: 0.2}}}),
		group: scene.NewNode(scene.KindGroup, scene.GroupData{}),
		item: scene.NewNode(scene.KindItem, scene.ItemData{
			ElementKind: "item",
			GridItem: scene.GridItem{
				Position:  scene.GridPoint{X: 2, Z: 2},
				Size:      scene.Size{W: 2, D: 1},
				Elevation: 0.8,
			},
		}),
		column: scene.NewNode(scene.KindColumn, scene.ColumnData{
			GridItem: scene.GridItem{Position: scene.GridPoint{X: 1, Z: 1}},
		}),
	}
	root := scene.NewNode(scene.KindRoot, nil)
	site := scene.NewNode(scene.KindSite, scene.SiteData{})
	building := scene.NewNode(scene.KindBuilding, scene.BuildingData{})

	s := scene.NewScene()
	for _, st := range []struct {
		parent scene.NodeID
		node   *scene.Node
	}{
		{scene.ZeroID, root},
		{root.ID, site},
		{site.ID, building},
		{building.ID, f.level},
		{f.level.ID, f.wall},
		{f.wall.ID, f.door},
		{f.level.ID, f.group},
		{f.group.ID, f.item},
		{f.level.ID, f.column},
	} {
		var err error
		s, err = s.AddNode(st.parent, st.node)
		if err != nil {
			t.Fatalf("AddNode %s: %v", st.node.Kind, err)
		}
	}
	f.s = s
	return f
}

func registry(t *testing.T) *element.Registry {
	t.Helper()
	r, err := element.Builtin(scene.NewDefaults())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBuildCreatesEntitiesPerLevelNode(t *testing.T) {
	f := buildScene(t)
	w := Build(f.s, registry(t))

	// Level, wall, door, group, item, column — everything at or below a
	// level; root, site and building stay out of the world.
	if w.Len() != 6 {
		t.Fatalf("expected 6 entities, got %d", w.Len())
	}

	entry := w.Entry(f.wall.ID)
	if entry == nil {
		t.Fatal("wall entity missing")
	}
	tag := CompTag.Get(entry)
	if tag.Kind != "wall" || tag.NodeID != f.wall.ID {
		t.Errorf("wall tag: %+v", tag)
	}
	h := CompHierarchy.Get(entry)
	if h.LevelID != f.level.ID || h.ParentID != f.level.ID {
		t.Errorf("wall hierarchy: %+v", h)
	}
	if !entry.HasComponent(CompTransform) {
		t.Error("wall needs a transform")
	}
	if !entry.HasComponent(CompSnap) {
		t.Error("wall spec declares snapping")
	}

	// The group resolves no element spec: base components only.
	ge := w.Entry(f.group.ID)
	if ge == nil {
		t.Fatal("group entity missing")
	}
	if CompTag.Get(ge).Kind != "" {
		t.Error("group should carry no element kind")
	}
	if ge.HasComponent(CompTransform) {
		t.Error("group must not receive a transform")
	}

	// The door carries its attachment spec.
	de := w.Entry(f.door.ID)
	if !de.HasComponent(CompAttachment) {
		t.Fatal("door needs an attachment component")
	}
	if hosts := CompAttachment.Get(de).HostKinds; len(hosts) != 1 || hosts[0] != "wall" {
		t.Errorf("door hosts: %v", hosts)
	}

	if w.Entry(f.s.Root.ID) != nil {
		t.Error("root must not enter the world")
	}
}

func TestGeometrySystems(t *testing.T) {
	f := buildScene(t)
	w := Build(f.s, registry(t))
	bounds, footprints := RunGeometry(w)
	if bounds == 0 || footprints == 0 {
		t.Fatalf("systems ran dry: %d bounds, %d footprints", bounds, footprints)
	}

	gridUnit := scene.NewDefaults().GridUnit

	// Wall: 4 grid units long, 0.2 thick, scaled to meters.
	be := w.Entry(f.wall.ID)
	b := CompBounds.Get(be)
	if math.Abs(b.OBB.Half.X*2-4*gridUnit) > 1e-9 {
		t.Errorf("wall bounds length: %g", b.OBB.Half.X*2)
	}
	if b.MinY != 0 || math.Abs(b.MaxY-scene.NewDefaults().WallHeight) > 1e-9 {
		t.Errorf("wall vertical extent: %g..%g", b.MinY, b.MaxY)
	}

	fp := CompFootprint.Get(be)
	wantArea := 4 * 0.2 * gridUnit * gridUnit
	if math.Abs(fp.Area-wantArea) > 1e-9 {
		t.Errorf("wall footprint area: %g, want %g", fp.Area, wantArea)
	}

	// Item elevation feeds the vertical extent.
	ie := w.Entry(f.item.ID)
	ib := CompBounds.Get(ie)
	if math.Abs(ib.MinY-0.8) > 1e-9 {
		t.Errorf("item MinY: %g", ib.MinY)
	}

	// Column with no authored size takes the spec default.
	ce := w.Entry(f.column.ID)
	cb := CompBounds.Get(ce)
	if math.Abs(cb.OBB.Half.X*2-0.6*gridUnit) > 1e-9 {
		t.Errorf("column default size not applied: %g", cb.OBB.Half.X*2)
	}
}

func TestQuarterTurnBoundsMatchSwappedSize(t *testing.T) {
	reg := registry(t)

	build := func(size scene.Size, rotation float64) Bounds {
		t.Helper()
		root := scene.NewNode(scene.KindRoot, nil)
		site := scene.NewNode(scene.KindSite, scene.SiteData{})
		building := scene.NewNode(scene.KindBuilding, scene.BuildingData{})
		level := scene.NewNode(scene.KindLevel, scene.LevelData{})
		item := scene.NewNode(scene.KindItem, scene.ItemData{
			ElementKind: "item",
			GridItem: scene.GridItem{
				Position: scene.GridPoint{X: 3, Z: 1},
				Size:     size,
				Rotation: rotation,
			},
		})
		s := scene.NewScene()
		for _, st := range []struct {
			parent scene.NodeID
			node   *scene.Node
		}{
			{scene.ZeroID, root}, {root.ID, site}, {site.ID, building},
			{building.ID, level}, {level.ID, item},
		} {
			var err error
			if s, err = s.AddNode(st.parent, st.node); err != nil {
				t.Fatal(err)
			}
		}
		w := Build(s, reg)
		RunGeometry(w)
		return *CompBounds.Get(w.Entry(item.ID))
	}

	rotated := build(scene.Size{W: 2, D: 1}, math.Pi/2)
	swapped := build(scene.Size{W: 1, D: 2}, 0)

	const tol = 1e-6
	if math.Abs(rotated.AABB.Min.X-swapped.AABB.Min.X) > tol ||
		math.Abs(rotated.AABB.Min.Y-swapped.AABB.Min.Y) > tol ||
		math.Abs(rotated.AABB.Max.X-swapped.AABB.Max.X) > tol ||
		math.Abs(rotated.AABB.Max.Y-swapped.AABB.Max.Y) > tol {
		t.Errorf("AABBs differ: %+v vs %+v", rotated.AABB, swapped.AABB)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	f := buildScene(t)
	reg := registry(t)

	w1 := Build(f.s, reg)
	RunGeometry(w1)
	w2 := Build(f.s, reg)
	RunGeometry(w2)

	if w1.Len() != w2.Len() {
		t.Fatalf("entity counts differ: %d vs %d", w1.Len(), w2.Len())
	}
	for _, id := range []scene.NodeID{f.wall.ID, f.item.ID, f.column.ID} {
		b1 := CompBounds.Get(w1.Entry(id))
		b2 := CompBounds.Get(w2.Entry(id))
		if *b1 != *b2 {
			t.Errorf("%s: bounds differ across rebuilds", id.Short())
		}
		f1 := CompFootprint.Get(w1.Entry(id))
		f2 := CompFootprint.Get(w2.Entry(id))
		if f1.Area != f2.Area {
			t.Errorf("%s: footprint areas differ across rebuilds", id.Short())
		}
	}
}

func TestDegenerateElementsGetNoBounds(t *testing.T) {
	root := scene.NewNode(scene.KindRoot, nil)
	site := scene.NewNode(scene.KindSite, scene.SiteData{})
	building := scene.NewNode(scene.KindBuilding, scene.BuildingData{})
	level := scene.NewNode(scene.KindLevel, scene.LevelData{})
	wall := scene.NewWall(scene.GridPoint{X: 1, Z: 1}, scene.GridPoint{X: 1, Z: 1}, 0.2)

	s := scene.NewScene()
	for _, st := range []struct {
		parent scene.NodeID
		node   *scene.Node
	}{
		{scene.ZeroID, root}, {root.ID, site}, {site.ID, building},
		{building.ID, level}, {level.ID, wall},
	} {
		var err error
		if s, err = s.AddNode(st.parent, st.node); err != nil {
			t.Fatal(err)
		}
	}

	w := Build(s, registry(t))
	bounds, footprints := RunGeometry(w)
	if bounds != 0 || footprints != 0 {
		t.Errorf("zero-length wall should yield no geometry, got %d/%d", bounds, footprints)
	}
}
