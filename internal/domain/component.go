package domain

import "time"

// Identity is the confirmation tier of a component id.
type Identity string

const (
	// IdentityPending marks a node known only from a structural signal,
	// awaiting confirmation from the reflection registry.
	IdentityPending Identity = "pending"
	// IdentityConfirmed marks a node whose registry identity is known.
	IdentityConfirmed Identity = "confirmed"
)

// ComponentNode is one live component instance in the tracked tree.
//
// ParentID is empty for roots. ChildIDs is ordered by discovery and never
// contains duplicates or the node's own id.
type ComponentNode struct {
	ID            string    `json:"id"`
	TypeName      string    `json:"type_name,omitempty"`
	FullTypeName  string    `json:"full_type_name,omitempty"`
	ParentID      string    `json:"parent_id,omitempty"`
	ChildIDs      []string  `json:"child_ids,omitempty"`
	RenderCount   int       `json:"render_count"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	Identity      Identity  `json:"identity"`
}

// IsPending reports whether the node still has a provisional identity.
func (n *ComponentNode) IsPending() bool {
	return n.Identity != IdentityConfirmed
}

// ComponentSnapshot is an immutable nested view of a component subtree,
// suitable for direct rendering. Children appear in discovery order.
type ComponentSnapshot struct {
	ComponentNode
	Children []ComponentSnapshot `json:"children,omitempty"`
}
