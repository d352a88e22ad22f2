// Package element maps node kinds to behavior: declarative element specs,
// derived definitions, and the named strategies that compute bounds and
// footprints for the derived world.
package element

import (
	"fmt"

	"github.com/chazu/mortar/pkg/scene"
)

// SchemaVersion is the element spec schema this build understands.
const SchemaVersion = "1.0"

// Spec is the declarative, versioned description of one element kind. It is
// registered once at process start and drives component creation without
// per-kind conditionals in the engine.
type Spec struct {
	SchemaVersion string `json:"schemaVersion"`
	Kind          string `json:"kind"`
	Label         string `json:"label,omitempty"`

	DefaultSize     scene.Size `json:"defaultSize"`
	DefaultRotation float64    `json:"defaultRotation,omitempty"`
	Height          float64    `json:"height,omitempty"` // intrinsic height, meters

	// LegalParents lists node-kind names this element may be placed under,
	// widened into the scene hierarchy rules at registration time.
	LegalParents []string `json:"legalParents,omitempty"`

	BoundsStrategy    string            `json:"boundsStrategy,omitempty"`
	FootprintStrategy string            `json:"footprintStrategy,omitempty"`
	FootprintPoints   []scene.GridPoint `json:"footprintPoints,omitempty"` // polygon strategy only

	Snap       *SnapSpec       `json:"snap,omitempty"`
	Attachment *AttachmentSpec `json:"attachment,omitempty"`
	Sockets    []SocketSpec    `json:"sockets,omitempty"`
	Surfaces   []SurfaceSpec   `json:"surfaces,omitempty"`
}

// SnapSpec configures how the element snaps during placement.
type SnapSpec struct {
	Grid         float64 `json:"grid"`                   // grid-unit increment, 0 = free
	RotationStep float64 `json:"rotationStep,omitempty"` // radians, 0 = free
	ToWalls      bool    `json:"toWalls,omitempty"`
	ToItems      bool    `json:"toItems,omitempty"`
}

// AttachmentSpec marks an element as hosted by another (doors by walls).
type AttachmentSpec struct {
	HostKinds []string `json:"hostKinds"`
	Anchor    string   `json:"anchor,omitempty"` // e.g. "centerline"
}

// SocketSpec is a named attachment point offered to other elements.
type SocketSpec struct {
	Name    string          `json:"name"`
	Offset  scene.GridPoint `json:"offset"`
	Accepts []string        `json:"accepts,omitempty"`
}

// SurfaceSpec is a horizontal face other items can rest on.
type SurfaceSpec struct {
	Name   string  `json:"name"`
	Height float64 `json:"height"` // meters above the element's base
}

// SpecValidationError reports a spec that failed schema checks at
// registration time, naming the offending field. Registration is atomic: no
// partial state is left behind.
type SpecValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *SpecValidationError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "<unnamed>"
	}
	return fmt.Sprintf("element spec %q: field %s: %s", kind, e.Field, e.Reason)
}

// validate runs all schema checks on a spec.
func (s Spec) validate() error {
	fail := func(field, reason string) error {
		return &SpecValidationError{Kind: s.Kind, Field: field, Reason: reason}
	}
	if s.SchemaVersion != SchemaVersion {
		return fail("schemaVersion", fmt.Sprintf("unsupported version %q, want %q", s.SchemaVersion, SchemaVersion))
	}
	if s.Kind == "" {
		return fail("kind", "required")
	}
	if s.DefaultSize.W < 0 || s.DefaultSize.D < 0 {
		return fail("defaultSize", "must be non-negative")
	}
	if s.Height < 0 {
		return fail("height", "must be non-negative")
	}
	if s.BoundsStrategy != "" {
		if _, ok := boundsStrategies[s.BoundsStrategy]; !ok {
			return fail("boundsStrategy", fmt.Sprintf("unknown strategy %q", s.BoundsStrategy))
		}
	}
	switch s.FootprintStrategy {
	case "", StrategyRectFromSize:
	case StrategyPolygon:
		if len(s.FootprintPoints) < 3 {
			return fail("footprintPoints", "polygon strategy needs at least 3 points")
		}
	default:
		return fail("footprintStrategy", fmt.Sprintf("unknown strategy %q", s.FootprintStrategy))
	}
	for i, name := range s.LegalParents {
		if _, ok := scene.ParseKind(name); !ok {
			return fail("legalParents", fmt.Sprintf("entry %d: unknown node kind %q", i, name))
		}
	}
	if s.Attachment != nil && len(s.Attachment.HostKinds) == 0 {
		return fail("attachment.hostKinds", "required when attachment is set")
	}
	for i, sock := range s.Sockets {
		if sock.Name == "" {
			return fail("sockets", fmt.Sprintf("entry %d: name required", i))
		}
	}
	return nil
}
