package models

import "time"

// FlowStatus represents the lifecycle state of a flow.
type FlowStatus string

const (
	FlowStatusDraft     FlowStatus = "draft"     // Editable, not executable
	FlowStatusPublished FlowStatus = "published" // Executable by sessions
)

// Edge is a directed, optionally labeled transition between two nodes. The
// label selects among multiple outgoing paths ("yes"/"no", "timeout",
// "paid", a menu option key, ...). An empty label is the default path.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label,omitempty"`
}

// Well-known edge labels used by the interpreter.
const (
	EdgeLabelDefault    = "default"
	EdgeLabelResponse   = "response"
	EdgeLabelTimeout    = "timeout"
	EdgeLabelFollowUp   = "followUp"
	EdgeLabelYes        = "yes"
	EdgeLabelNo         = "no"
	EdgeLabelPaid       = "paid"
	EdgeLabelNotPaid    = "notPaid"
	EdgeLabelNoResponse = "noResponse"
)

// Flow is the immutable per-execution snapshot of an authored node graph.
type Flow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"   validate:"required,min=3"`
	Status    FlowStatus `json:"status" validate:"required"`
	Nodes     []*Node    `json:"nodes"`
	Edges     []*Edge    `json:"edges"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil. Callers must handle
// nil: edges may reference nodes that no longer exist and the interpreter
// routes around them instead of crashing.
func (f *Flow) NodeByID(id string) *Node {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// StartNode returns the flow's entry node: the first node of kind start, or
// the first node at all when no start node was authored.
func (f *Flow) StartNode() *Node {
	for _, n := range f.Nodes {
		if n.Kind == NodeKindStart {
			return n
		}
	}

	if len(f.Nodes) > 0 {
		return f.Nodes[0]
	}

	return nil
}

// EdgesFrom returns all edges whose source is the given node id, in authored
// order.
func (f *Flow) EdgesFrom(nodeID string) []*Edge {
	var out []*Edge

	for _, e := range f.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}

	return out
}

// PickEdge selects the outgoing edge for a label. Resolution order: exact
// label match, then the "default" label, then an unlabeled edge, then the
// "response" label (waitInput's default path), then nil.
func (f *Flow) PickEdge(nodeID, label string) *Edge {
	edges := f.EdgesFrom(nodeID)

	if label != "" && label != EdgeLabelDefault {
		for _, e := range edges {
			if e.Label == label {
				return e
			}
		}
	}

	for _, e := range edges {
		if e.Label == EdgeLabelDefault {
			return e
		}
	}

	for _, e := range edges {
		if e.Label == "" {
			return e
		}
	}

	for _, e := range edges {
		if e.Label == EdgeLabelResponse {
			return e
		}
	}

	return nil
}

// EdgeByLabel returns the outgoing edge with the exact label, without any
// default fallback.
func (f *Flow) EdgeByLabel(nodeID, label string) *Edge {
	for _, e := range f.EdgesFrom(nodeID) {
		if e.Label == label {
			return e
		}
	}

	return nil
}

// Repair attempts to recover from a dangling node reference: starting from
// the missing id, it follows the first outgoing edge chain until it reaches
// an id that resolves to an existing node. The walk is cycle-guarded and
// bounded by the edge count. Returns the recovered node id and true, or
// ("", false) when no existing node is reachable.
func (f *Flow) Repair(missingID string) (string, bool) {
	visited := map[string]bool{missingID: true}
	current := missingID

	for range len(f.Edges) + 1 {
		edges := f.EdgesFrom(current)
		if len(edges) == 0 {
			return "", false
		}

		current = edges[0].Target
		if f.NodeByID(current) != nil {
			return current, true
		}

		if visited[current] {
			return "", false
		}

		visited[current] = true
	}

	return "", false
}
