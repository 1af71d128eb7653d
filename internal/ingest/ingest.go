// Package ingest sweeps the planned sub-queries across the search provider
// and streams each accepted source into the vector store as embedded
// chunks. A failing sub-query yields zero sources, never a pipeline error.
package ingest

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"briefly/internal/text"
	"briefly/internal/vecstore"
)

// Source is one fetched page: the unit citations are derived from.
type Source struct {
	URL    string
	Domain string
	Text   string
}

// SourceBrief is the response-facing view of a Source, without the page
// text.
type SourceBrief struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

type PageProvider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	ReadPage(ctx context.Context, pageURL string) (string, error)
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Ingestor struct {
	provider PageProvider
	embedder BatchEmbedder
	store    vecstore.Store

	window       int
	overlap      int
	embedRetries int
	embedBackoff time.Duration
}

type Option func(*Ingestor)

func WithChunking(window, overlap int) Option {
	return func(i *Ingestor) { i.window = window; i.overlap = overlap }
}

func WithEmbedRetry(retries int, backoff time.Duration) Option {
	return func(i *Ingestor) { i.embedRetries = retries; i.embedBackoff = backoff }
}

// New builds an Ingestor. embedder may be nil when no embedding credential
// is configured; sources are still fetched, just not stored as chunks.
func New(provider PageProvider, embedder BatchEmbedder, store vecstore.Store, opts ...Option) *Ingestor {
	ing := &Ingestor{
		provider:     provider,
		embedder:     embedder,
		store:        store,
		window:       text.DefaultWindow,
		overlap:      text.DefaultOverlap,
		embedRetries: 1,
		embedBackoff: 800 * time.Millisecond,
	}
	for _, o := range opts {
		o(ing)
	}
	return ing
}

// Fetch runs the sub-query sweep. Each accepted source is chunked,
// embedded and appended to the store before the next URL is fetched. If
// the whole sweep comes up empty, one broader search on the raw topic is
// issued with limit max(2, perQuery) as a last resort.
func (i *Ingestor) Fetch(ctx context.Context, subqueries []string, perQuery int, topic, topicID string) []Source {
	if perQuery < 1 {
		perQuery = 1
	}

	var sources []Source
	for _, q := range subqueries {
		urls, err := i.provider.Search(ctx, q, perQuery)
		if err != nil {
			slog.WarnContext(ctx, "search failed", "query", q, "error", err)
			continue
		}
		sources = i.readAndIngest(ctx, urls, topicID, sources)
	}

	if len(sources) == 0 && topic != "" {
		limit := perQuery
		if limit < 2 {
			limit = 2
		}
		urls, err := i.provider.Search(ctx, topic, limit)
		if err != nil {
			slog.WarnContext(ctx, "fallback search failed", "topic", topic, "error", err)
			return sources
		}
		sources = i.readAndIngest(ctx, urls, topicID, sources)
	}

	return sources
}

func (i *Ingestor) readAndIngest(ctx context.Context, urls []string, topicID string, sources []Source) []Source {
	for _, u := range urls {
		pageText, err := i.provider.ReadPage(ctx, u)
		if err != nil {
			slog.WarnContext(ctx, "page read failed", "url", u, "error", err)
			continue
		}
		if pageText == "" {
			continue
		}

		src := Source{URL: u, Domain: hostOf(u), Text: pageText}
		sources = append(sources, src)
		i.ingestSource(ctx, src, topicID)
	}
	return sources
}

// ingestSource splits, embeds and appends one source's chunks. Failures
// are logged and swallowed: the source stays usable for the raw-context
// fallback even when no chunks could be stored for it.
func (i *Ingestor) ingestSource(ctx context.Context, src Source, topicID string) {
	if i.embedder == nil {
		return
	}

	pieces := text.Split(src.Text, i.window, i.overlap)
	if len(pieces) == 0 {
		return
	}

	vectors, err := i.embedWithRetry(ctx, pieces)
	if err != nil {
		slog.WarnContext(ctx, "no chunks stored for source", "url", src.URL, "error", err)
		return
	}

	chunks := make([]vecstore.Chunk, len(pieces))
	for idx, piece := range pieces {
		chunks[idx] = vecstore.Chunk{
			ID:        uuid.New().String(),
			TopicID:   topicID,
			Text:      piece,
			Meta:      vecstore.Metadata{URL: src.URL, Domain: src.Domain, Index: idx},
			Embedding: vectors[idx],
		}
	}

	if err := i.store.Append(ctx, chunks); err != nil {
		slog.WarnContext(ctx, "chunk append failed", "url", src.URL, "error", err)
		return
	}
	slog.InfoContext(ctx, "source ingested", "url", src.URL, "chunks", len(chunks))
}

func (i *Ingestor) embedWithRetry(ctx context.Context, pieces []string) ([][]float32, error) {
	vectors, err := i.embedder.EmbedBatch(ctx, pieces)
	for attempt := 0; err != nil && attempt < i.embedRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(i.embedBackoff):
		}
		vectors, err = i.embedder.EmbedBatch(ctx, pieces)
	}
	return vectors, err
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
