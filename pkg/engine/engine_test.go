package engine

import (
	"strings"
	"testing"

	"github.com/chazu/mortar/pkg/scene"
)

func TestEvaluateEmptySource(t *testing.T) {
	e := NewEngine()
	s, evalErrs, err := e.Evaluate("   \n\t  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if s == nil || s.Root == nil || s.Root.Kind != scene.KindRoot {
		t.Fatal("expected a scene with a bare root")
	}
	if s.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", s.NodeCount())
	}
}

const houseScript = `
; a one-storey house with a door in its south wall
(site "home"
  (building "main"
    (level 0
      (slab :at (xz 2 2) :width 4 :depth 4)
      (wall :from (xz 0 0) :to (xz 4 0)
        (door :offset 1.5 :width 1.8))
      (wall :from (xz 4 0) :to (xz 4 4)
        (window :offset 1 :width 2 :sill 0.9))
      (wall :from (xz 4 4) :to (xz 0 4))
      (wall :from (xz 0 4) :to (xz 0 0))
      (group "living"
        (item "sofa" :at (xz 2 3) :rotation 1.5708 :width 2 :depth 0.9)))))
`

func TestEvaluateBuildsScene(t *testing.T) {
	e := NewEngine()
	s, evalErrs, err := e.Evaluate(houseScript)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}

	if got := len(s.FindByKind(scene.KindWall)); got != 4 {
		t.Errorf("expected 4 walls, got %d", got)
	}
	if got := len(s.FindByKind(scene.KindLevel)); got != 1 {
		t.Errorf("expected 1 level, got %d", got)
	}

	doors := s.FindByKind(scene.KindDoor)
	if len(doors) != 1 {
		t.Fatalf("expected 1 door, got %d", len(doors))
	}
	host := s.FindByID(doors[0].ParentID)
	if host == nil || host.Kind != scene.KindWall {
		t.Errorf("door should hang on a wall, got %v", host)
	}
	dd := doors[0].Data.(scene.DoorData)
	if dd.Offset != 1.5 || dd.Size.W != 1.8 {
		t.Errorf("door data mismatch: %+v", dd)
	}

	walls := s.FindByKind(scene.KindWall)
	first := walls[0].Data.(scene.WallData)
	if first.Start != (scene.GridPoint{X: 0, Z: 0}) || first.End != (scene.GridPoint{X: 4, Z: 0}) {
		t.Errorf("first wall endpoints mismatch: %+v", first)
	}
	if first.Thickness != scene.NewDefaults().WallThickness {
		t.Errorf("wall should take the default thickness, got %g", first.Thickness)
	}
	if first.Size.W != 4 {
		t.Errorf("wall placement should span its length, got %g", first.Size.W)
	}

	items := s.FindByKind(scene.KindItem)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	id := items[0].Data.(scene.ItemData)
	if id.ElementKind != "sofa" || id.Position != (scene.GridPoint{X: 2, Z: 3}) {
		t.Errorf("item data mismatch: %+v", id)
	}
	parent := s.FindByID(items[0].ParentID)
	if parent == nil || parent.Kind != scene.KindGroup {
		t.Errorf("item should live in the group, got %v", parent)
	}
}

func TestEvaluateParseError(t *testing.T) {
	e := NewEngine()
	s, evalErrs, err := e.Evaluate(`(wall :from (xz 0 0`)
	if err != nil {
		t.Fatalf("parse failure should not be fatal: %v", err)
	}
	if s != nil {
		t.Error("expected no scene on parse failure")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
}

func TestEvaluateRejectsBadNesting(t *testing.T) {
	e := NewEngine()
	s, evalErrs, err := e.Evaluate(`(site "s" (level 0))`)
	if err != nil {
		t.Fatalf("hierarchy failure should not be fatal: %v", err)
	}
	if s != nil {
		t.Error("expected no scene when nesting is rejected")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	if !strings.Contains(evalErrs[0].Message, "site") {
		t.Errorf("error should name the offending form: %v", evalErrs[0])
	}
}

func TestEvaluateRejectsUnplacedNodes(t *testing.T) {
	e := NewEngine()
	s, evalErrs, err := e.Evaluate(`(wall :from (xz 0 0) :to (xz 4 0))`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if s != nil {
		t.Error("expected no scene for a floating wall")
	}
	if len(evalErrs) == 0 || !strings.Contains(evalErrs[0].Message, "never placed") {
		t.Fatalf("expected a never-placed error, got %v", evalErrs)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 2; i++ {
		s, evalErrs, err := e.Evaluate(houseScript)
		if err != nil || len(evalErrs) != 0 {
			t.Fatalf("run %d: %v %v", i, evalErrs, err)
		}
		if got := s.NodeCount(); got != 13 {
			t.Errorf("run %d: expected 13 nodes, got %d", i, got)
		}
	}
}

func TestPreprocessSource(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"keyword", `(wall :from p)`, `(wall "__kw_from" p)`},
		{"kebab keyword", `(x :interior-side s)`, `(x "__kw_interior-side" s)`},
		{"kebab identifier", `(my-fn 1)`, `(my_fn 1)`},
		{"minus untouched", `(- 5 3)`, `(- 5 3)`},
		{"string untouched", `(f "a :kw b-c")`, `(f "a :kw b-c")`},
		{"comment", "; note\n(f)", "// note\n(f)"},
		{"assignment", `(x := 1)`, `(x := 1)`},
	}
	for _, tc := range cases {
		if got := preprocessSource(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
