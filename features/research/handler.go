package research

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"briefly/internal/middleware"
)

const maxTopicLen = 300

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Run handles POST /research. The pipeline runs synchronously; the
// response carries the brief, validation report, and quiz.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "topic is required", http.StatusBadRequest)
		return
	}
	if len(topic) > maxTopicLen {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "topic is too long", http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(r.Context(), topic)
	if err != nil {
		slog.ErrorContext(r.Context(), "research run failed", "topic", topic, "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
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
