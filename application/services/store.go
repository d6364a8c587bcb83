package services

import (
	"sort"
	"strings"
	"sync"

	"shajara/domain/tree"
)

// nodeStore is the single owned container for the session's canonical node
// collection. All mutation goes through Reset and MergeDetails; readers see
// a node either fully pre-merge or fully post-merge, never torn.
type nodeStore struct {
	mu          sync.RWMutex
	token       uint64
	nodes       []*tree.EnrichedNode
	byID        map[string]*tree.EnrichedNode
	connections []tree.ConnectionEdge
}

func newNodeStore() *nodeStore {
	return &nodeStore{byID: make(map[string]*tree.EnrichedNode)}
}

// Reset replaces the collection with a freshly laid-out snapshot and arms
// the session token that gates all later merges. Merges carrying an older
// token are silently rejected.
func (s *nodeStore) Reset(token uint64, layout tree.LayoutResult) {
	nodes := make([]*tree.EnrichedNode, len(layout.Nodes))
	byID := make(map[string]*tree.EnrichedNode, len(layout.Nodes))
	for i, ln := range layout.Nodes {
		n := &tree.EnrichedNode{LayoutNode: ln}
		nodes[i] = n
		byID[n.ID] = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.nodes = nodes
	s.byID = byID
	s.connections = layout.Connections
}

// Revoke advances the token without touching the collection, turning every
// outstanding merge into a no-op. Used on session close.
func (s *nodeStore) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
}

// Token returns the currently armed session token.
func (s *nodeStore) Token() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot returns value copies of the collection, safe to hand to the
// presentation layer.
func (s *nodeStore) Snapshot() ([]tree.EnrichedNode, []tree.ConnectionEdge) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]tree.EnrichedNode, len(s.nodes))
	for i, n := range s.nodes {
		nodes[i] = *n
	}
	connections := make([]tree.ConnectionEdge, len(s.connections))
	copy(connections, s.connections)
	return nodes, connections
}

// Get returns a value copy of one node.
func (s *nodeStore) Get(id string) (tree.EnrichedNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return tree.EnrichedNode{}, false
	}
	return *n, true
}

// Len returns the collection size.
func (s *nodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// UnenrichedIn returns, in layout order, the ids of un-enriched nodes whose
// boxes intersect the given rectangle.
func (s *nodeStore) UnenrichedIn(rect tree.Rect) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, n := range s.nodes {
		if n.Enriched {
			continue
		}
		if n.Box().Intersects(rect) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// MergeDetails applies detail payloads by id. The merge is additive and
// node-at-a-time under the write lock; geometry is untouched. Details for
// unknown ids are dropped. Returns the payloads actually applied, which is
// empty when the token is stale.
func (s *nodeStore) MergeDetails(token uint64, details []tree.NodeDetail) []tree.NodeDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		return nil
	}

	applied := make([]tree.NodeDetail, 0, len(details))
	for _, d := range details {
		n, ok := s.byID[d.ID]
		if !ok {
			continue
		}
		n.ApplyDetail(d)
		applied = append(applied, d)
	}
	return applied
}

// Search returns up to limit nodes whose name contains the query,
// case-insensitive, prefix matches first.
func (s *nodeStore) Search(query string, limit int) []tree.EnrichedNode {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		node   tree.EnrichedNode
		prefix bool
	}
	var hits []hit
	for _, n := range s.nodes {
		name := strings.ToLower(n.Name)
		if !strings.Contains(name, query) {
			continue
		}
		hits = append(hits, hit{node: *n, prefix: strings.HasPrefix(name, query)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prefix && !hits[j].prefix
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]tree.EnrichedNode, len(hits))
	for i, h := range hits {
		out[i] = h.node
	}
	return out
}
