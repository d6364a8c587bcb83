package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shajara/domain/tree"
)

func nodeRouter(t *testing.T, details []tree.NodeDetail) *chi.Mux {
	t.Helper()
	session := startedSession(t, familyStructure(), details)
	handler := NewNodeHandler(session, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/nodes/{nodeID}", handler.GetNode)
	r.Patch("/nodes/{nodeID}", handler.UpdateNode)
	return r
}

func TestNodeHandler_GetNode_EnrichesOnDemand(t *testing.T) {
	router := nodeRouter(t, familyDetails())

	req := httptest.NewRequest(http.MethodGet, "/nodes/b", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var node tree.EnrichedNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, "b", node.ID)
	assert.Equal(t, "firstborn", node.Bio)
	require.NotNil(t, node.Version, "profile must carry its version for editing")
	assert.Equal(t, int64(1), *node.Version)
}

func TestNodeHandler_GetNode_NotFound(t *testing.T) {
	router := nodeRouter(t, familyDetails())

	req := httptest.NewRequest(http.MethodGet, "/nodes/nobody", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNodeHandler_UpdateNode_Success(t *testing.T) {
	router := nodeRouter(t, familyDetails())

	body := `{"version": 1, "bio": "updated bio"}`
	req := httptest.NewRequest(http.MethodPatch, "/nodes/b", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var node tree.EnrichedNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, "updated bio", node.Bio)
	require.NotNil(t, node.Version)
	assert.Equal(t, int64(2), *node.Version)
}

func TestNodeHandler_UpdateNode_VersionConflict(t *testing.T) {
	router := nodeRouter(t, familyDetails())

	body := `{"version": 9, "bio": "stale edit"}`
	req := httptest.NewRequest(http.MethodPatch, "/nodes/b", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CONFLICT", resp["type"])
}

func TestNodeHandler_UpdateNode_RequiresVersion(t *testing.T) {
	router := nodeRouter(t, familyDetails())

	body := `{"bio": "no version supplied"}`
	req := httptest.NewRequest(http.MethodPatch, "/nodes/b", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
