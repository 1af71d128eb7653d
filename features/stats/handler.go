// Package stats exposes a small operational snapshot: how many topics are
// stored and how many chunks the vector store holds.
package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"briefly/internal/middleware"
)

type TopicRepo interface {
	CountTopics(ctx context.Context) (int, error)
}

type ChunkStore interface {
	Count(ctx context.Context, topicID string) (int, error)
}

// Handler serves GET /stats. topicRepo may be nil when persistence is
// disabled; the topic count is then reported as zero.
type Handler struct {
	topicRepo  TopicRepo
	chunkStore ChunkStore
}

func NewHandler(topicRepo TopicRepo, chunkStore ChunkStore) *Handler {
	return &Handler{topicRepo: topicRepo, chunkStore: chunkStore}
}

type StatsResponse struct {
	Topics int `json:"topics"`
	Chunks int `json:"chunks"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topics := 0
	if h.topicRepo != nil {
		n, err := h.topicRepo.CountTopics(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count topics", "error", err)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count topics", http.StatusInternalServerError)
			return
		}
		topics = n
	}

	chunks, err := h.chunkStore.Count(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{Topics: topics, Chunks: chunks}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
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
