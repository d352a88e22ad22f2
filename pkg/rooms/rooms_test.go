package rooms

import (
	"testing"

	"github.com/chazu/mortar/pkg/process"
	"github.com/chazu/mortar/pkg/scene"
)

func seg(id string, x1, z1, x2, z2 float64) WallSeg {
	return WallSeg{
		ID:        scene.NodeID(id),
		Start:     scene.GridPoint{X: x1, Z: z1},
		End:       scene.GridPoint{X: x2, Z: z2},
		Thickness: 0.2,
	}
}

func TestDetectClosedRoom(t *testing.T) {
	// Counterclockwise square loop: every wall's interior lands on its back.
	walls := []WallSeg{
		seg("wall-s", 0, 0, 4, 0),
		seg("wall-e", 4, 0, 4, 4),
		seg("wall-n", 4, 4, 0, 4),
		seg("wall-w", 0, 4, 0, 0),
	}
	res, err := Detect(walls, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.RoomCount != 1 {
		t.Fatalf("expected 1 room, got %d", res.RoomCount)
	}
	for _, w := range walls {
		if got := res.Sides[w.ID]; got != scene.SideBack {
			t.Errorf("%s: expected back, got %s", w.ID, got)
		}
	}
}

func TestDetectOpenLoopHasNoRoom(t *testing.T) {
	walls := []WallSeg{
		seg("wall-s", 0, 0, 4, 0),
		seg("wall-e", 4, 0, 4, 4),
		seg("wall-n", 4, 4, 0, 4),
	}
	res, err := Detect(walls, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.RoomCount != 0 {
		t.Fatalf("expected no rooms, got %d", res.RoomCount)
	}
	for _, w := range walls {
		if got := res.Sides[w.ID]; got != scene.SideNeither {
			t.Errorf("%s: expected neither, got %s", w.ID, got)
		}
	}
}

func TestDetectSharedPartition(t *testing.T) {
	walls := []WallSeg{
		seg("wall-s", 0, 0, 8, 0),
		seg("wall-e", 8, 0, 8, 4),
		seg("wall-n", 8, 4, 0, 4),
		seg("wall-w", 0, 4, 0, 0),
		seg("partition", 4, 0, 4, 4),
	}
	res, err := Detect(walls, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.RoomCount != 2 {
		t.Fatalf("expected 2 rooms, got %d", res.RoomCount)
	}
	if got := res.Sides["partition"]; got != scene.SideBoth {
		t.Errorf("partition: expected both, got %s", got)
	}
	for _, id := range []string{"wall-s", "wall-e", "wall-n", "wall-w"} {
		if got := res.Sides[scene.NodeID(id)]; got != scene.SideBack {
			t.Errorf("%s: expected back, got %s", id, got)
		}
	}
}

func TestDetectSkipsZeroLengthWalls(t *testing.T) {
	walls := []WallSeg{
		seg("point", 2, 2, 2, 2),
		seg("real", 0, 0, 4, 0),
	}
	res, err := Detect(walls, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "point" {
		t.Fatalf("expected the degenerate wall skipped, got %v", res.Skipped)
	}
	if _, ok := res.Sides["point"]; ok {
		t.Error("degenerate wall should not be classified")
	}
	if got := res.Sides["real"]; got != scene.SideNeither {
		t.Errorf("lone wall: expected neither, got %s", got)
	}
}

func TestDetectEmptyLevel(t *testing.T) {
	res, err := Detect(nil, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.RoomCount != 0 || len(res.Sides) != 0 {
		t.Fatalf("expected an empty result, got %+v", res)
	}
}

func TestDetectGridCap(t *testing.T) {
	walls := []WallSeg{seg("huge", 0, 0, 10000, 0), seg("huge2", 0, 5, 10000, 5)}
	if _, err := Detect(walls, scene.NewDefaults(), Options{MaxCells: 1000}); err == nil {
		t.Fatal("expected the cell cap to reject the grid")
	}
}

func TestProcessorPatchesInteriorSides(t *testing.T) {
	s := scene.NewScene()
	root := scene.NewNode(scene.KindRoot, nil)
	site := scene.NewNode(scene.KindSite, scene.SiteData{})
	building := scene.NewNode(scene.KindBuilding, scene.BuildingData{})
	level := scene.NewNode(scene.KindLevel, scene.LevelData{Index: 0})

	var err error
	if s, err = s.AddNode(scene.ZeroID, root); err != nil {
		t.Fatal(err)
	}
	if s, err = s.AddNode(root.ID, site); err != nil {
		t.Fatal(err)
	}
	if s, err = s.AddNode(site.ID, building); err != nil {
		t.Fatal(err)
	}
	if s, err = s.AddNode(building.ID, level); err != nil {
		t.Fatal(err)
	}

	loop := [][4]float64{{0, 0, 4, 0}, {4, 0, 4, 4}, {4, 4, 0, 4}, {0, 4, 0, 0}}
	for _, c := range loop {
		w := scene.NewWall(scene.GridPoint{X: c[0], Z: c[1]}, scene.GridPoint{X: c[2], Z: c[3]}, 0.2)
		if s, err = s.AddNode(level.ID, w); err != nil {
			t.Fatal(err)
		}
	}

	ix := scene.BuildIndex(s)
	p := NewProcessor()
	patches, warnings, err := p.Process(s, ix)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(patches) != 4 {
		t.Fatalf("expected 4 side patches, got %d", len(patches))
	}
	for _, patch := range patches {
		if patch.Updates.InteriorSide == nil || *patch.Updates.InteriorSide != scene.SideBack {
			t.Errorf("%s: expected back-side patch, got %+v", patch.NodeID, patch.Updates)
		}
	}

	// Applying the patches and rerunning reaches a fixed point.
	s2, err := process.Apply(s, patches)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	again, _, err := p.Process(s2, scene.BuildIndex(s2))
	if err != nil {
		t.Fatalf("Process again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no further patches, got %d", len(again))
	}
}

func TestDetectThinDiagonalWalls(t *testing.T) {
	// A diamond of walls thinner than a grid cell runs its centerlines at
	// 45 degrees. The rasterized band must stay gap-free on diagonals, or
	// the exterior fill leaks in through corner-touching cells.
	thin := func(id string, x1, z1, x2, z2 float64) WallSeg {
		w := seg(id, x1, z1, x2, z2)
		w.Thickness = 0.1
		return w
	}
	walls := []WallSeg{
		thin("wall-sw", 0, 4, 4, 0),
		thin("wall-se", 4, 0, 8, 4),
		thin("wall-ne", 8, 4, 4, 8),
		thin("wall-nw", 4, 8, 0, 4),
	}
	res, err := Detect(walls, scene.NewDefaults(), Options{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.RoomCount != 1 {
		t.Fatalf("expected 1 room, got %d", res.RoomCount)
	}
	for _, w := range walls {
		if got := res.Sides[w.ID]; got != scene.SideBack {
			t.Errorf("%s: expected back, got %s", w.ID, got)
		}
	}
}
