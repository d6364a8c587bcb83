package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shajara/application/services"
	"shajara/domain/config"
	"shajara/domain/tree"
	"shajara/infrastructure/persistence/memory"
)

func startedSession(t *testing.T, structure []tree.PersonRecord, details []tree.NodeDetail) *services.TreeSession {
	t.Helper()

	cfg := config.DefaultTreeConfig()
	cfg.EnrichDebounce = 10 * time.Millisecond
	loader := services.NewStructureLoader(
		memory.NewStructureSource(structure), memory.NewStructureCache(),
		"v4", zap.NewNop(), nil,
	)
	session := services.NewTreeSession(loader, memory.NewDetailSource(details), cfg, zap.NewNop(), nil, nil)
	session.Start(context.Background())
	t.Cleanup(session.Close)

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return !snap.IsLoading && len(snap.Nodes) == len(structure)
	}, time.Second, 5*time.Millisecond)
	return session
}

func familyStructure() []tree.PersonRecord {
	return []tree.PersonRecord{
		{ID: "a", Name: "Ahmad", Generation: 1},
		{ID: "b", FatherID: "a", Name: "Bashir", SiblingOrder: 1, Generation: 2},
		{ID: "c", FatherID: "a", Name: "Camila", SiblingOrder: 2, Generation: 2},
	}
}

func familyDetails() []tree.NodeDetail {
	v1, v2, v3 := int64(1), int64(1), int64(1)
	return []tree.NodeDetail{
		{ID: "a", Bio: "patriarch", Version: &v1},
		{ID: "b", Bio: "firstborn", Version: &v2},
		{ID: "c", Bio: "secondborn", Version: &v3},
	}
}

func TestTreeHandler_GetTree(t *testing.T) {
	session := startedSession(t, familyStructure(), familyDetails())
	handler := NewTreeHandler(session, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tree", nil)
	rec := httptest.NewRecorder()
	handler.GetTree(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TreeData    []tree.EnrichedNode   `json:"tree_data"`
		Connections []tree.ConnectionEdge `json:"connections"`
		IsLoading   bool                  `json:"is_loading"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.TreeData, 3)
	assert.Len(t, resp.Connections, 2)
	assert.False(t, resp.IsLoading)
}

func TestTreeHandler_UpdateViewport(t *testing.T) {
	session := startedSession(t, familyStructure(), familyDetails())
	handler := NewTreeHandler(session, zap.NewNop())

	body := `{"x": -500, "y": -500, "width": 2000, "height": 2000, "zoom": 1}`
	req := httptest.NewRequest(http.MethodPost, "/api/viewport", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.UpdateViewport(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	// The whole tree is visible, so everything hydrates.
	require.Eventually(t, func() bool {
		n, err := session.Node("c")
		return err == nil && n.Enriched
	}, time.Second, 5*time.Millisecond)
}

func TestTreeHandler_UpdateViewport_RejectsInvalidPayload(t *testing.T) {
	session := startedSession(t, familyStructure(), nil)
	handler := NewTreeHandler(session, zap.NewNop())

	for name, body := range map[string]string{
		"malformed JSON":  `{"width": `,
		"missing extents": `{"x": 0, "y": 0}`,
		"negative width":  `{"width": -10, "height": 100}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/viewport", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.UpdateViewport(rec, req)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "case %s", name)
	}
}

func TestTreeHandler_Search(t *testing.T) {
	session := startedSession(t, familyStructure(), nil)
	handler := NewTreeHandler(session, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=bashir", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []tree.EnrichedNode `json:"results"`
		Count   int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "b", resp.Results[0].ID)
}

func TestTreeHandler_Search_RequiresQuery(t *testing.T) {
	session := startedSession(t, familyStructure(), nil)
	handler := NewTreeHandler(session, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
