package tree

import pkgerrors "shajara/pkg/errors"

// LayoutNode is a PersonRecord with a one-time position assignment in the
// global canvas space. Geometry is written exactly once per structure
// snapshot and is never touched by enrichment.
type LayoutNode struct {
	PersonRecord

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// ChildIDs lists direct descendants in sibling order.
	ChildIDs []string `json:"child_ids,omitempty"`
}

// Box returns the node's bounding box for viewport intersection tests.
// X/Y address the box center.
func (n LayoutNode) Box() Rect {
	return Rect{
		X:      n.X - n.Width/2,
		Y:      n.Y - n.Height/2,
		Width:  n.Width,
		Height: n.Height,
	}
}

// EnrichedNode is a LayoutNode plus the full-detail fields that arrive
// when the node becomes visible. Detail fields are zero/nil until the
// first successful enrichment; once enriched a node stays enriched for
// the session.
type EnrichedNode struct {
	LayoutNode

	PhotoURL  string `json:"photo_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	BirthYear int    `json:"birth_year,omitempty"`
	DeathYear int    `json:"death_year,omitempty"`

	// Version is the optimistic-locking counter. A nil version means the
	// node must be re-enriched before it can be edited safely.
	Version *int64 `json:"version,omitempty"`

	Enriched bool `json:"enriched"`
}

// NodeDetail is the payload returned by a detail fetch for one person.
type NodeDetail struct {
	ID        string `json:"id"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	BirthYear int    `json:"birth_year,omitempty"`
	DeathYear int    `json:"death_year,omitempty"`
	Version   *int64 `json:"version,omitempty"`
}

// ApplyDetail merges detail fields into the node. The merge is strictly
// additive: geometry and structural fields are never written here, so a
// node's position is bit-identical before and after enrichment.
func (n *EnrichedNode) ApplyDetail(d NodeDetail) {
	if d.PhotoURL != "" {
		n.PhotoURL = d.PhotoURL
	}
	if d.Bio != "" {
		n.Bio = d.Bio
	}
	if d.BirthYear != 0 {
		n.BirthYear = d.BirthYear
	}
	if d.DeathYear != 0 {
		n.DeathYear = d.DeathYear
	}
	if d.Version != nil {
		v := *d.Version
		n.Version = &v
	}
	n.Enriched = true
}

// Editable reports whether the node carries the version counter required
// for optimistic-locked profile updates.
func (n *EnrichedNode) Editable() bool {
	return n.Enriched && n.Version != nil
}

// ValidateForEdit returns a conflict error when the caller's expected
// version no longer matches the node's.
func (n *EnrichedNode) ValidateForEdit(expectedVersion int64) error {
	if !n.Editable() {
		return pkgerrors.NewValidationError("node must be enriched with a version before editing")
	}
	if *n.Version != expectedVersion {
		return pkgerrors.NewConflictError("profile was modified by someone else")
	}
	return nil
}

// ConnectionEdge links a parent to one of its children. Edges are derived
// from ChildIDs, never persisted independently.
type ConnectionEdge struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

// ProfileUpdate carries the editable profile fields for an optimistic
// compare-and-swap update.
type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	BirthYear int    `json:"birth_year,omitempty"`
	DeathYear int    `json:"death_year,omitempty"`
}
