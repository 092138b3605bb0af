package domain

// EdgeSignal is a candidate parent/child relationship observed by the
// structural scanner. It is best-effort: the resolver verifies it.
type EdgeSignal struct {
	ChildID  string `json:"child_id"`
	ParentID string `json:"parent_id,omitempty"`
	TypeName string `json:"type_name,omitempty"`
}

// DisposeSignal reports that a component instance left the tree.
type DisposeSignal struct {
	ComponentID string `json:"component_id"`
}

// Signal is one frame from the in-page signal source. Exactly one field is
// non-nil.
type Signal struct {
	Edge    *EdgeSignal
	Event   *Event
	Dispose *DisposeSignal
}
