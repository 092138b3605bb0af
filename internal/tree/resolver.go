package tree

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mzorec/renderscope/internal/domain"
)

// Resolver owns the authoritative component tree. It merges two unordered
// input sources (structural candidate edges and registry identity
// confirmations) into one forest, creating pending stub nodes whenever an
// edge references an id it has not seen yet. That stub rule is what makes
// every arrival order converge to the same final tree.
//
// All mutations are atomic with respect to each other; readers only ever get
// copies.
type Resolver struct {
	mu        sync.Mutex
	nodes     map[string]*trackedNode
	disposed  map[string]bool
	nextOrder int
	now       func() time.Time
	log       *zap.SugaredLogger
}

type trackedNode struct {
	domain.ComponentNode
	order int // discovery sequence, drives snapshot ordering
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger for dropped-operation warnings.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates an empty resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		nodes:    make(map[string]*trackedNode),
		disposed: make(map[string]bool),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert records a candidate edge. Unknown ids (child or parent) become
// pending stubs. A changed parent re-parents the child in place; an edge that
// would make a node its own ancestor is rejected and the tree is left
// untouched. Edges for disposed ids are ignored.
func (r *Resolver) Upsert(id, parentID, typeName string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed[id] || (parentID != "" && r.disposed[parentID]) {
		return
	}
	if parentID == id {
		r.warnf("edge rejected: component %s cannot be its own parent", id)
		return
	}

	node := r.ensureNode(id)
	if typeName != "" && node.TypeName == "" {
		node.TypeName = typeName
	}

	if parentID != "" && parentID != node.ParentID {
		if r.wouldCreateCycle(id, parentID) {
			r.warnf("edge rejected: %s -> %s would create a cycle", parentID, id)
			return
		}
		parent := r.ensureNode(parentID)
		r.detachFromParent(node)
		node.ParentID = parent.ID
		parent.ChildIDs = appendChild(parent.ChildIDs, id)
		parent.LastUpdatedAt = r.now()
	}
	node.LastUpdatedAt = r.now()
}

// ResolveIdentity confirms a node's registry identity. Tree edges are not
// touched; the node is created (confirmed, no edges) if it is new.
func (r *Resolver) ResolveIdentity(id, typeName, fullTypeName string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed[id] {
		return
	}
	node := r.ensureNode(id)
	if typeName != "" {
		node.TypeName = typeName
	}
	if fullTypeName != "" {
		node.FullTypeName = fullTypeName
	}
	node.Identity = domain.IdentityConfirmed
	node.LastUpdatedAt = r.now()
}

// RecordRender bumps a node's render counter. Render observations may race
// ahead of identity resolution, so an unknown id creates a pending stub.
func (r *Resolver) RecordRender(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed[id] {
		return
	}
	node := r.ensureNode(id)
	node.RenderCount++
	node.LastUpdatedAt = r.now()
}

// Dispose removes a node. Its children are detached and become roots; they
// are not deleted unless independently disposed. Disposing an unknown id is
// a no-op.
func (r *Resolver) Dispose(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	r.disposed[id] = true
	if !ok {
		return
	}
	r.detachFromParent(node)
	for _, childID := range node.ChildIDs {
		if child, ok := r.nodes[childID]; ok {
			child.ParentID = ""
		}
	}
	delete(r.nodes, id)
}

// Len returns the number of live nodes.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// FindByTypeName returns copies of all nodes whose type name contains the
// given substring, case-insensitively, in discovery order.
func (r *Resolver) FindByTypeName(substring string) []domain.ComponentNode {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(substring)
	matched := make([]*trackedNode, 0)
	for _, node := range r.nodes {
		if strings.Contains(strings.ToLower(node.TypeName), needle) ||
			strings.Contains(strings.ToLower(node.FullTypeName), needle) {
			matched = append(matched, node)
		}
	}
	sortByOrder(matched)
	out := make([]domain.ComponentNode, 0, len(matched))
	for _, node := range matched {
		out = append(out, copyNode(node))
	}
	return out
}

// ensureNode returns the node for id, creating a pending stub if needed.
// Callers must hold r.mu.
func (r *Resolver) ensureNode(id string) *trackedNode {
	if node, ok := r.nodes[id]; ok {
		return node
	}
	now := r.now()
	node := &trackedNode{
		ComponentNode: domain.ComponentNode{
			ID:            id,
			Identity:      domain.IdentityPending,
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
		order: r.nextOrder,
	}
	r.nextOrder++
	r.nodes[id] = node
	return node
}

// wouldCreateCycle reports whether parenting id under parentID makes id its
// own ancestor. Callers must hold r.mu.
func (r *Resolver) wouldCreateCycle(id, parentID string) bool {
	seen := 0
	for cur := parentID; cur != ""; {
		if cur == id {
			return true
		}
		node, ok := r.nodes[cur]
		if !ok {
			return false
		}
		cur = node.ParentID
		if seen++; seen > len(r.nodes) {
			// defensive bound; the invariant says this cannot happen
			return true
		}
	}
	return false
}

func (r *Resolver) detachFromParent(node *trackedNode) {
	if node.ParentID == "" {
		return
	}
	if parent, ok := r.nodes[node.ParentID]; ok {
		parent.ChildIDs = removeChild(parent.ChildIDs, node.ID)
	}
	node.ParentID = ""
}

func (r *Resolver) warnf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Warnf(format, args...)
	}
}

func appendChild(children []string, id string) []string {
	for _, existing := range children {
		if existing == id {
			return children
		}
	}
	return append(children, id)
}

func removeChild(children []string, id string) []string {
	for i, existing := range children {
		if existing == id {
			return append(children[:i], children[i+1:]...)
		}
	}
	return children
}
