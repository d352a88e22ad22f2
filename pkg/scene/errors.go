package scene

import "fmt"

// HierarchyViolation reports an illegal parent-child relationship. The edit
// is rejected before any mutation, so the prior tree stays valid.
type HierarchyViolation struct {
	ChildID  NodeID
	ParentID NodeID
	Child    NodeKind
	Parent   NodeKind
	Reason   string
}

func (e *HierarchyViolation) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("hierarchy violation: %s", e.Reason)
	}
	return fmt.Sprintf("hierarchy violation: %s %s cannot be a child of %s %s",
		e.Child, e.ChildID.Short(), e.Parent, e.ParentID.Short())
}

// NodeNotFoundError reports an operation that referenced an absent node.
// Plain lookups return nil/false instead; this error backs the fail-fast
// Must* helpers and mutation entry points.
type NodeNotFoundError struct {
	ID NodeID
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID.Short())
}
