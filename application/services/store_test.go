package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shajara/domain/config"
	"shajara/domain/tree"
)

func laidOut(t *testing.T, structure []tree.PersonRecord) tree.LayoutResult {
	t.Helper()
	return tree.NewLayoutEngine(config.DefaultTreeConfig()).Compute(structure, false)
}

func TestNodeStore_MergeDetails_StaleTokenRejected(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))

	v := int64(1)
	applied := store.MergeDetails(0, []tree.NodeDetail{{ID: "a", Bio: "stale", Version: &v}})

	assert.Empty(t, applied)
	n, ok := store.Get("a")
	require.True(t, ok)
	assert.False(t, n.Enriched)
	assert.Empty(t, n.Bio)
}

func TestNodeStore_MergeDetails_AppliesByID(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))

	v := int64(2)
	applied := store.MergeDetails(1, []tree.NodeDetail{
		{ID: "b", Bio: "a life", Version: &v},
		{ID: "nobody", Bio: "dropped"},
	})

	require.Len(t, applied, 1)
	assert.Equal(t, "b", applied[0].ID)

	n, _ := store.Get("b")
	assert.True(t, n.Enriched)
	assert.Equal(t, "a life", n.Bio)

	other, _ := store.Get("a")
	assert.False(t, other.Enriched)
}

func TestNodeStore_Revoke_TurnsOutstandingMergesIntoNoOps(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))
	token := store.Token()

	store.Revoke()

	applied := store.MergeDetails(token, []tree.NodeDetail{{ID: "a", Bio: "late"}})
	assert.Empty(t, applied)
	assert.Equal(t, 3, store.Len(), "revoke keeps the collection serving")
}

func TestNodeStore_Snapshot_ReturnsValueCopies(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))

	nodes, _ := store.Snapshot()
	require.Len(t, nodes, 3)
	nodes[0].Bio = "mutated by caller"

	fresh, _ := store.Get(nodes[0].ID)
	assert.Empty(t, fresh.Bio)
}

func TestNodeStore_UnenrichedIn_FiltersEnrichedAndOffscreen(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))

	everything := tree.Rect{X: -1000, Y: -1000, Width: 5000, Height: 5000}
	assert.Len(t, store.UnenrichedIn(everything), 3)

	store.MergeDetails(1, []tree.NodeDetail{{ID: "a"}})
	ids := store.UnenrichedIn(everything)
	assert.NotContains(t, ids, "a")
	assert.Len(t, ids, 2)

	nowhere := tree.Rect{X: 99999, Y: 99999, Width: 10, Height: 10}
	assert.Empty(t, store.UnenrichedIn(nowhere))
}

func TestNodeStore_Search_PrefixMatchesFirst(t *testing.T) {
	store := newNodeStore()
	structure := []tree.PersonRecord{
		{ID: "1", Name: "Omar"},
		{ID: "2", Name: "Samir Omar"},
		{ID: "3", Name: "Omara"},
		{ID: "4", Name: "Layla"},
	}
	store.Reset(1, laidOut(t, structure))

	hits := store.Search("omar", 10)

	require.Len(t, hits, 3)
	assert.Equal(t, "Omar", hits[0].Name)
	assert.Equal(t, "Omara", hits[1].Name)
	assert.Equal(t, "Samir Omar", hits[2].Name)
}

func TestNodeStore_Search_LimitAndEmptyQuery(t *testing.T) {
	store := newNodeStore()
	store.Reset(1, laidOut(t, testStructure()))

	assert.Len(t, store.Search("person", 2), 2)
	assert.Empty(t, store.Search("   ", 10))
}
