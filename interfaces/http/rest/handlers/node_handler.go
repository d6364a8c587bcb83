package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shajara/application/services"
	"shajara/domain/tree"
)

// NodeHandler serves single-profile reads and optimistic-locked edits.
type NodeHandler struct {
	session  *services.TreeSession
	validate *validator.Validate
	logger   *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(session *services.TreeSession, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		session:  session,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetNode handles GET /nodes/{nodeID}. The returned profile always carries
// its version counter, re-enriching on demand when it is missing, so the
// client can open the edit form safely.
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "node ID is required")
		return
	}

	node, err := h.session.EnsureEditable(r.Context(), nodeID)
	if err != nil {
		h.logger.Warn("Failed to get node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, node)
}

// updateNodeRequest carries an optimistic-locked profile edit.
type updateNodeRequest struct {
	Version   int64  `json:"version" validate:"required,gte=1"`
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty" validate:"omitempty,url"`
	BirthYear int    `json:"birth_year,omitempty"`
	DeathYear int    `json:"death_year,omitempty"`
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "node ID is required")
		return
	}

	var req updateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid update payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "update requires the current profile version")
		return
	}

	node, err := h.session.UpdateProfile(r.Context(), nodeID, req.Version, tree.ProfileUpdate{
		Name:      req.Name,
		Bio:       req.Bio,
		PhotoURL:  req.PhotoURL,
		BirthYear: req.BirthYear,
		DeathYear: req.DeathYear,
	})
	if err != nil {
		h.logger.Warn("Failed to update node",
			zap.String("nodeID", nodeID),
			zap.Int64("expectedVersion", req.Version),
			zap.Error(err),
		)
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, node)
}
