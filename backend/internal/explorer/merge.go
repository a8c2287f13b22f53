package explorer

import (
	"fmt"

	apperrors "newsgraph/backend/pkg/errors"
)

// Merge folds a candidate partial graph into prev and returns the next state.
//
// Nodes already present win over candidate nodes with the same id, and
// duplicates inside the candidate collapse to their first occurrence. Edges are
// appended unfiltered, so re-merging a candidate repeats its edges. prev is not
// modified.
//
// Ids are natural keys (short id, username, tag name). If two kinds ever share
// an id, the first node seen keeps it, so merge order then decides attributes.
func Merge(prev GraphState, candidate PartialGraph) GraphState {
	next := GraphState{
		nodes: make([]Node, len(prev.nodes), len(prev.nodes)+len(candidate.Nodes)),
		edges: make([]Edge, len(prev.edges), len(prev.edges)+len(candidate.Edges)),
		index: make(map[string]int, len(prev.nodes)+len(candidate.Nodes)),
	}
	copy(next.nodes, prev.nodes)
	copy(next.edges, prev.edges)
	for i, n := range next.nodes {
		next.index[n.ID] = i
	}

	for _, n := range candidate.Nodes {
		if _, seen := next.index[n.ID]; seen {
			continue
		}
		next.index[n.ID] = len(next.nodes)
		next.nodes = append(next.nodes, n)
	}
	next.edges = append(next.edges, candidate.Edges...)

	return next
}

// Validate checks that the candidate can be merged into prev without breaking
// the graph invariants: every node has an id and a known kind, and every edge
// endpoint is a node of prev or of the candidate.
func (p PartialGraph) Validate(prev GraphState) error {
	known := make(map[string]struct{}, len(p.Nodes))
	for i, n := range p.Nodes {
		if n.ID == "" {
			return apperrors.NewContractViolation(fmt.Sprintf("node %d has an empty id", i))
		}
		if !n.Kind.Valid() {
			return apperrors.NewContractViolation(fmt.Sprintf("node %q has unknown kind %s", n.ID, n.Kind))
		}
		known[n.ID] = struct{}{}
	}

	resolves := func(id string) bool {
		if _, ok := known[id]; ok {
			return true
		}
		return prev.Has(id)
	}
	for _, e := range p.Edges {
		if !resolves(e.Source) || !resolves(e.Target) {
			return apperrors.NewContractViolation(fmt.Sprintf("edge %q -> %q dangles", e.Source, e.Target))
		}
	}
	return nil
}
