package brief

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"briefly/internal/middleware"
)

// Handler serves stored briefs. repo may be nil when persistence is
// disabled; the read endpoints then answer 503.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) GetBrief(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(r.Context(), w, "STORE_DISABLED", "persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	topicID := r.PathValue("id")
	if topicID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "topic id is required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.GetBrief(r.Context(), topicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "brief not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to load brief", "topic_id", topicID, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": rec}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(r.Context(), w, "STORE_DISABLED", "persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	topics, err := h.repo.ListTopics(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list topics", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if topics == nil {
		topics = []Topic{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": topics,
		"meta": map[string]int{"count": len(topics)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
