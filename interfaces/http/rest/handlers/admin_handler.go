package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"shajara/application/ports"
	"shajara/application/services"
)

// AdminHandler exposes the cache administration surface.
type AdminHandler struct {
	cache   ports.StructureCache
	session *services.TreeSession
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cache ports.StructureCache, session *services.TreeSession, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cache:   cache,
		session: session,
		logger:  logger,
	}
}

// InvalidateCache handles DELETE /cache: drop the persisted snapshot and
// reload the structure from the remote source.
func (h *AdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("Failed to invalidate cache", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to invalidate cache")
		return
	}

	h.session.Reload()
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"invalidated": true,
		"reloading":   true,
	})
}
