package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	pkgerrors "shajara/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}

// respondAppError maps an error chain onto the HTTP status carried by its
// AppError, defaulting to 500 for anything unclassified.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		respondJSON(w, logger, appErr.HTTPStatus, map[string]interface{}{
			"error":   true,
			"type":    appErr.Type,
			"message": appErr.Message,
		})
		return
	}
	respondError(w, logger, http.StatusInternalServerError, "internal error")
}
