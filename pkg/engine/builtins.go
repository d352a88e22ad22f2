package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/mortar/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Mortar Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: interior-side -> interior_side
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters (not a
		// minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpPoint wraps a grid-plane point so (xz ...) values can flow between
// builtins.
type sexpPoint struct {
	pt scene.GridPoint
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(xz %g %g)", p.pt.X, p.pt.Z)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a created node so parent forms can adopt it.
type sexpNodeRef struct {
	id   scene.NodeID
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string, returning the
// keyword name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toPoint(s zygo.Sexp) (scene.GridPoint, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.pt, nil
	}
	return scene.GridPoint{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

// kwFloat reads an optional numeric keyword into dst.
func kwFloat(pa kwArgs, name string, dst *float64) error {
	v, ok := pa.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder accumulates the node forest a script creates. Nested forms run
// inner-first, so children exist as detached nodes until a parent form adopts
// them; finalize stitches the adopted sites into a scene.
type builder struct {
	defaults scene.Defaults
	rules    *scene.HierarchyRules
	nodes    map[scene.NodeID]*scene.Node
	attached map[scene.NodeID]bool
	sites    []scene.NodeID
}

func newBuilder(d scene.Defaults) *builder {
	return &builder{
		defaults: d,
		rules:    scene.DefaultHierarchy(),
		nodes:    make(map[scene.NodeID]*scene.Node),
		attached: make(map[scene.NodeID]bool),
	}
}

func (b *builder) add(n *scene.Node) *sexpNodeRef {
	b.nodes[n.ID] = n
	return &sexpNodeRef{id: n.ID, name: n.Name}
}

// adopt attaches each referenced node as a child of parent, enforcing the
// hierarchy rules and rejecting double adoption.
func (b *builder) adopt(form string, parent *scene.Node, refs []zygo.Sexp) error {
	for i, arg := range refs {
		ref, ok := arg.(*sexpNodeRef)
		if !ok {
			return fmt.Errorf("%s: child %d: expected a node form, got %T (%s)",
				form, i+1, arg, arg.SexpString(nil))
		}
		child := b.nodes[ref.id]
		if child == nil {
			return fmt.Errorf("%s: child %d: unknown node %s", form, i+1, ref.id.Short())
		}
		if b.attached[child.ID] {
			return fmt.Errorf("%s: %s is already placed", form, ref.SexpString(nil))
		}
		if !b.rules.CanBeChildOf(child, parent) {
			return fmt.Errorf("%s: a %s cannot contain a %s", form, parent.Kind, child.Kind)
		}
		child.ParentID = parent.ID
		parent.Children = append(parent.Children, child)
		b.attached[child.ID] = true
	}
	return nil
}

// finalize assembles the adopted sites into a fresh scene. Nodes that were
// created but never placed under a site are an authoring error.
func (b *builder) finalize() (*scene.Scene, error) {
	for id, n := range b.nodes {
		if !b.attached[id] && !isSite(n) {
			return nil, fmt.Errorf("%s %q was created but never placed", n.Kind, n.Name)
		}
	}

	s := scene.NewScene()
	root := scene.NewNode(scene.KindRoot, nil)
	s, err := s.AddNode(scene.ZeroID, root)
	if err != nil {
		return nil, err
	}
	for _, id := range b.sites {
		s, err = s.AddNode(root.ID, b.nodes[id])
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func isSite(n *scene.Node) bool { return n.Kind == scene.KindSite }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the building DSL into a zygomys environment. The
// builtins populate b during evaluation; source must be preprocessed with
// preprocessSource first so :keyword tokens arrive as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (xz 2 3.5) — a point on the grid plane.
	env.AddFunction("xz", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("xz requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xz: x: %w", err)
		}
		z, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xz: z: %w", err)
		}
		return &sexpPoint{pt: scene.GridPoint{X: x, Z: z}}, nil
	})

	// (site "home" (building ...) ...)
	env.AddFunction("site", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("site requires a name argument")
		}
		siteName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("site: name: %w", err)
		}
		n := scene.NewNode(scene.KindSite, scene.SiteData{})
		n.Name = siteName
		if err := b.adopt("site", n, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		ref := b.add(n)
		b.sites = append(b.sites, n.ID)
		return ref, nil
	})

	// (building "main" (level 0 ...) (level 1 ...))
	env.AddFunction("building", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("building requires a name argument")
		}
		bName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("building: name: %w", err)
		}
		n := scene.NewNode(scene.KindBuilding, scene.BuildingData{})
		n.Name = bName
		if err := b.adopt("building", n, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		return b.add(n), nil
	})

	// (level 0 (wall ...) (slab ...) ...)
	env.AddFunction("level", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("level requires an index argument")
		}
		index, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("level: index: %w", err)
		}
		n := scene.NewNode(scene.KindLevel, scene.LevelData{Index: index})
		n.Name = fmt.Sprintf("level %d", index)
		if err := b.adopt("level", n, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		return b.add(n), nil
	})

	// (group "kitchen" (wall ...) (item ...) ...)
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		gName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		n := scene.NewNode(scene.KindGroup, scene.GroupData{})
		n.Name = gName
		if err := b.adopt("group", n, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		return b.add(n), nil
	})

	// (wall :from (xz 0 0) :to (xz 4 0) :thickness 0.2 (door ...) ...)
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		from, ok := pa.kw["from"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("wall requires :from")
		}
		start, err := toPoint(from)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: from: %w", err)
		}
		to, ok := pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("wall requires :to")
		}
		end, err := toPoint(to)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: to: %w", err)
		}
		thickness := b.defaults.WallThickness
		if err := kwFloat(pa, "thickness", &thickness); err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: %w", err)
		}

		n := scene.NewWall(start, end, thickness)
		if err := b.adopt("wall", n, pa.positional); err != nil {
			return zygo.SexpNull, err
		}
		return b.add(n), nil
	})

	// (door :offset 1.5 :width 1.8)
	env.AddFunction("door", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := scene.DoorData{}
		if err := kwFloat(pa, "offset", &data.Offset); err != nil {
			return zygo.SexpNull, fmt.Errorf("door: %w", err)
		}
		if err := kwFloat(pa, "width", &data.Size.W); err != nil {
			return zygo.SexpNull, fmt.Errorf("door: %w", err)
		}
		n := scene.NewNode(scene.KindDoor, data)
		return b.add(n), nil
	})

	// (window :offset 0.5 :width 2 :sill 0.9)
	env.AddFunction("window", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := scene.WindowData{}
		if err := kwFloat(pa, "offset", &data.Offset); err != nil {
			return zygo.SexpNull, fmt.Errorf("window: %w", err)
		}
		if err := kwFloat(pa, "width", &data.Size.W); err != nil {
			return zygo.SexpNull, fmt.Errorf("window: %w", err)
		}
		if err := kwFloat(pa, "sill", &data.Sill); err != nil {
			return zygo.SexpNull, fmt.Errorf("window: %w", err)
		}
		n := scene.NewNode(scene.KindWindow, data)
		return b.add(n), nil
	})

	// (column :at (xz 2 2) :rotation 0.785)
	env.AddFunction("column", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := scene.ColumnData{}
		if err := placementArgs("column", pa, &data.GridItem); err != nil {
			return zygo.SexpNull, err
		}
		return b.add(scene.NewNode(scene.KindColumn, data)), nil
	})

	// (slab :at (xz 2 2) :width 4 :depth 4 :thickness 0.2)
	env.AddFunction("slab", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := scene.SlabData{Thickness: b.defaults.SlabThickness}
		if err := placementArgs("slab", pa, &data.GridItem); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "thickness", &data.Thickness); err != nil {
			return zygo.SexpNull, fmt.Errorf("slab: %w", err)
		}
		return b.add(scene.NewNode(scene.KindSlab, data)), nil
	})

	// (roof :at (xz 2 2) :width 4 :depth 4 :pitch 0.5)
	env.AddFunction("roof", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := scene.RoofData{}
		if err := placementArgs("roof", pa, &data.GridItem); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "pitch", &data.Pitch); err != nil {
			return zygo.SexpNull, fmt.Errorf("roof: %w", err)
		}
		return b.add(scene.NewNode(scene.KindRoof, data)), nil
	})

	// (item "sofa" :at (xz 1 1) :rotation 1.57 :width 2 :depth 0.9)
	env.AddFunction("item", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("item requires a catalog kind argument")
		}
		kind, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("item: kind: %w", err)
		}
		data := scene.ItemData{ElementKind: kind}
		if err := placementArgs("item", pa, &data.GridItem); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "elevation", &data.Elevation); err != nil {
			return zygo.SexpNull, fmt.Errorf("item: %w", err)
		}
		n := scene.NewNode(scene.KindItem, data)
		n.Name = kind
		return b.add(n), nil
	})
}

// placementArgs fills the placement keywords shared by free-standing
// elements: :at, :rotation, :width, :depth.
func placementArgs(form string, pa kwArgs, g *scene.GridItem) error {
	if v, ok := pa.kw["at"]; ok {
		pt, err := toPoint(v)
		if err != nil {
			return fmt.Errorf("%s: at: %w", form, err)
		}
		g.Position = pt
	}
	if err := kwFloat(pa, "rotation", &g.Rotation); err != nil {
		return fmt.Errorf("%s: %w", form, err)
	}
	if err := kwFloat(pa, "width", &g.Size.W); err != nil {
		return fmt.Errorf("%s: %w", form, err)
	}
	if err := kwFloat(pa, "depth", &g.Size.D); err != nil {
		return fmt.Errorf("%s: %w", form, err)
	}
	return nil
}
