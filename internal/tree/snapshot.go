package tree

import (
	"sort"

	"github.com/samber/lo"

	"github.com/mzorec/renderscope/internal/domain"
)

// Snapshot returns the current forest as immutable nested copies. Roots are
// nodes without a parent (or whose parent is gone); roots and children are
// ordered by discovery.
func (r *Resolver) Snapshot() []domain.ComponentSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	roots := make([]*trackedNode, 0)
	for _, node := range r.nodes {
		if node.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		if _, ok := r.nodes[node.ParentID]; !ok {
			roots = append(roots, node)
		}
	}
	sortByOrder(roots)
	return lo.Map(roots, func(node *trackedNode, _ int) domain.ComponentSnapshot {
		return r.buildSnapshot(node)
	})
}

// buildSnapshot copies node and recurses into its children. Callers must
// hold r.mu.
func (r *Resolver) buildSnapshot(node *trackedNode) domain.ComponentSnapshot {
	snap := domain.ComponentSnapshot{ComponentNode: copyNode(node)}
	for _, childID := range node.ChildIDs {
		child, ok := r.nodes[childID]
		if !ok {
			continue
		}
		snap.Children = append(snap.Children, r.buildSnapshot(child))
	}
	return snap
}

func copyNode(node *trackedNode) domain.ComponentNode {
	out := node.ComponentNode
	out.ChildIDs = append([]string(nil), node.ChildIDs...)
	return out
}

func sortByOrder(nodes []*trackedNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].order < nodes[j].order })
}
