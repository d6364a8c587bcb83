package handlers

import (
	"net/http"
	"strconv"

	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shajara/application/services"
	"shajara/domain/tree"
)

// TreeHandler serves the tree pipeline's presentation contract.
type TreeHandler struct {
	session  *services.TreeSession
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(session *services.TreeSession, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{
		session:  session,
		validate: validator.New(),
		logger:   logger,
	}
}

// treeResponse is the JSON shape of a snapshot.
type treeResponse struct {
	TreeData     []tree.EnrichedNode   `json:"tree_data"`
	Connections  []tree.ConnectionEdge `json:"connections"`
	IsLoading    bool                  `json:"is_loading"`
	NetworkError string                `json:"network_error,omitempty"`
}

// GetTree handles GET /tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()

	resp := treeResponse{
		TreeData:    snap.Nodes,
		Connections: snap.Connections,
		IsLoading:   snap.IsLoading,
	}
	if snap.NetworkErr != nil {
		resp.NetworkError = snap.NetworkErr.Error()
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// viewportRequest is the live viewport pushed by the presentation layer.
type viewportRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
	Zoom   float64 `json:"zoom" validate:"gte=0"`
}

// UpdateViewport handles POST /viewport
func (h *TreeHandler) UpdateViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid viewport payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "viewport requires a positive width and height")
		return
	}

	h.session.SetViewport(tree.Viewport{
		Rect: tree.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height},
		Zoom: req.Zoom,
	})

	// Enrichment happens in the background; the client observes results
	// through the websocket push or the next snapshot.
	w.WriteHeader(http.StatusAccepted)
}

// Search handles GET /search?q=
func (h *TreeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, h.logger, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results := h.session.Search(query, limit)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// Reload handles POST /reload, the user-triggered retry after a structure
// phase failure.
func (h *TreeHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.session.Reload()
	w.WriteHeader(http.StatusAccepted)
}
