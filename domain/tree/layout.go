package tree

import (
	"fmt"
	"sort"

	"shajara/domain/config"
	pkgerrors "shajara/pkg/errors"
)

// LayoutResult is the output of a layout pass: every input node exactly
// once with its assigned geometry, plus the derived parent->child edges.
type LayoutResult struct {
	Nodes       []LayoutNode
	Connections []ConnectionEdge

	// Diagnostics records invariant repairs (broken cycles, duplicate
	// ids). The layout itself always succeeds.
	Diagnostics []error
}

// LayoutEngine computes a deterministic 2D position and box size for every
// node of a structure snapshot, exactly once per snapshot.
//
// The engine is pure and synchronous: no I/O, no randomness, and the input
// slice is never mutated. Identical input always yields identical geometry,
// which is what keeps cached trees and progressively hydrated trees from
// jumping on screen.
type LayoutEngine struct {
	cfg *config.TreeConfig
}

// NewLayoutEngine creates a layout engine with the given constants.
func NewLayoutEngine(cfg *config.TreeConfig) *LayoutEngine {
	if cfg == nil {
		cfg = config.DefaultTreeConfig()
	}
	return &LayoutEngine{cfg: cfg}
}

// Compute lays out the whole structure snapshot.
//
// Box sizes always use the text-only geometry regardless of showPhotos:
// enabling photos later must not move a single node, so the flag only
// exists to keep the call-site contract explicit.
func (e *LayoutEngine) Compute(structure []PersonRecord, showPhotos bool) LayoutResult {
	_ = showPhotos // geometry is fixed to the text-only sizing

	result := LayoutResult{
		Nodes:       []LayoutNode{},
		Connections: []ConnectionEdge{},
	}
	if len(structure) == 0 {
		return result
	}

	// Index records by id; a duplicate id keeps its first occurrence.
	index := make(map[string]int, len(structure))
	order := make([]int, 0, len(structure))
	for i, rec := range structure {
		if _, dup := index[rec.ID]; dup {
			result.Diagnostics = append(result.Diagnostics,
				pkgerrors.NewLayoutInvariantError(fmt.Sprintf("duplicate person id %q dropped", rec.ID)))
			continue
		}
		index[rec.ID] = i
		order = append(order, i)
	}

	// Build the parent->children adjacency. The father-line reference wins;
	// the mother-line reference is the fallback. A record whose references
	// do not resolve in this snapshot is an additional root (orphan-safe).
	children := make(map[int][]int, len(order))
	var roots []int
	for _, i := range order {
		rec := structure[i]
		parent, ok := e.resolveParent(rec, index, i)
		if !ok {
			roots = append(roots, i)
			continue
		}
		children[parent] = append(children[parent], i)
	}

	// Order each sibling group by SiblingOrder ascending; ties keep the
	// stable input order, never an id sort.
	for _, group := range children {
		sort.SliceStable(group, func(a, b int) bool {
			return structure[group[a]].SiblingOrder < structure[group[b]].SiblingOrder
		})
	}

	nodes := make([]LayoutNode, len(structure))
	visited := make([]bool, len(structure))
	var cursor float64

	// place positions the subtree rooted at idx and returns the center x of
	// its root box. Leaves advance the shared cursor; parents are centered
	// over the span of their children's centers.
	var place func(idx, depth int) float64
	place = func(idx, depth int) float64 {
		visited[idx] = true
		rec := structure[idx]

		node := LayoutNode{PersonRecord: rec}
		node.Width = e.cfg.NodeWidth
		node.Height = e.cfg.NodeHeightText
		node.Y = float64(depth-1)*(e.cfg.NodeHeightText+e.cfg.GenerationGap) + e.cfg.NodeHeightText/2
		node.Generation = depth

		var first, last float64
		childCount := 0
		for _, childIdx := range children[idx] {
			if visited[childIdx] {
				// A revisit here means the upstream data contains a cycle;
				// first-visit wins and the extra edge is dropped.
				result.Diagnostics = append(result.Diagnostics,
					pkgerrors.NewLayoutInvariantError(fmt.Sprintf(
						"cycle broken at %q -> %q", rec.ID, structure[childIdx].ID)))
				continue
			}
			center := place(childIdx, depth+1)
			if childCount == 0 {
				first = center
			}
			last = center
			childCount++
			node.ChildIDs = append(node.ChildIDs, structure[childIdx].ID)
		}

		if childCount == 0 {
			node.X = cursor + node.Width/2
			cursor += node.Width + e.cfg.SiblingGap
		} else {
			node.X = (first + last) / 2
		}

		nodes[idx] = node
		return node.X
	}

	for _, rootIdx := range roots {
		if visited[rootIdx] {
			continue
		}
		place(rootIdx, e.rootDepth(structure[rootIdx]))
	}

	// Anything still unvisited sits on a cycle with no entry point from a
	// root. Break it deterministically: first unvisited record in input
	// order becomes a root of its component.
	for _, i := range order {
		if visited[i] {
			continue
		}
		result.Diagnostics = append(result.Diagnostics,
			pkgerrors.NewLayoutInvariantError(fmt.Sprintf(
				"unreachable cycle entered at %q", structure[i].ID)))
		place(i, e.rootDepth(structure[i]))
	}

	result.Nodes = make([]LayoutNode, 0, len(order))
	for _, i := range order {
		if visited[i] {
			result.Nodes = append(result.Nodes, nodes[i])
		}
	}
	result.Connections = deriveConnections(result.Nodes)
	return result
}

// resolveParent returns the index of the record's effective parent.
// Self-references never resolve.
func (e *LayoutEngine) resolveParent(rec PersonRecord, index map[string]int, self int) (int, bool) {
	if rec.FatherID != "" {
		if idx, ok := index[rec.FatherID]; ok && idx != self {
			return idx, true
		}
	}
	if rec.MotherID != "" {
		if idx, ok := index[rec.MotherID]; ok && idx != self {
			return idx, true
		}
	}
	return 0, false
}

// rootDepth picks the starting generation row for a root. True roots sit at
// generation 1; an orphan whose source generation hint is known keeps its
// hinted row so its subtree does not jump to the top of the canvas.
func (e *LayoutEngine) rootDepth(rec PersonRecord) int {
	if !rec.IsRoot() && rec.Generation > 1 {
		return rec.Generation
	}
	return 1
}

// deriveConnections expands ChildIDs into explicit parent->child edges.
func deriveConnections(nodes []LayoutNode) []ConnectionEdge {
	edges := []ConnectionEdge{}
	for _, n := range nodes {
		for _, childID := range n.ChildIDs {
			edges = append(edges, ConnectionEdge{ParentID: n.ID, ChildID: childID})
		}
	}
	return edges
}
