// Package synthesis turns retrieved context into a cited research brief.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"briefly/internal/ingest"
	"briefly/internal/retrieval"
	"briefly/internal/text"
)

const (
	defaultTopK          = 15
	defaultContextBudget = 12000
	defaultCitationCap   = 5
	rawSourceFallbackCap = 3

	placeholderContext = "No context retrieved."

	systemPrompt = "You are a research summarizer. Write a clear, factual summary " +
		"of the provided context in 250-350 words, as bullet points or short prose. " +
		"Ground every statement strictly in the context; include no invented data."
)

// Citation points at a source actually present in the brief's context.
type Citation struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// Brief is the synthesized summary plus its citation list. It is replaced
// wholesale on a validation retry, never patched.
type Brief struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Failed reports whether the brief text is the synthesis error marker.
func (b Brief) Failed() bool {
	return strings.HasPrefix(b.Text, "[synthesis failed:")
}

type Retriever interface {
	Query(ctx context.Context, topicID, query string, k int) ([]retrieval.Scored, error)
}

type Generator interface {
	Generate(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

type Synthesizer struct {
	retriever Retriever
	generator Generator

	topK          int
	contextBudget int
	citationCap   int
}

type Option func(*Synthesizer)

func WithTopK(k int) Option {
	return func(s *Synthesizer) { s.topK = k }
}

func WithContextBudget(n int) Option {
	return func(s *Synthesizer) { s.contextBudget = n }
}

func WithCitationCap(n int) Option {
	return func(s *Synthesizer) { s.citationCap = n }
}

// New builds a Synthesizer. generator may be nil when no chat credential
// is configured; Synthesize then returns a local extractive brief.
func New(retriever Retriever, generator Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		retriever:     retriever,
		generator:     generator,
		topK:          defaultTopK,
		contextBudget: defaultContextBudget,
		citationCap:   defaultCitationCap,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Synthesize retrieves context for the topic, asks the chat model for a
// grounded brief and derives citations from the retrieved metadata in
// score order. When retrieval comes up empty the raw sources stand in as
// context; when the model call fails the brief text carries an explicit
// failure marker instead of an error escaping the component.
func (s *Synthesizer) Synthesize(ctx context.Context, topicID, topic string, sources []ingest.Source) Brief {
	hits, err := s.retriever.Query(ctx, topicID, topic, s.topK)
	if err != nil {
		slog.WarnContext(ctx, "retrieval failed, using raw sources", "topic_id", topicID, "error", err)
		hits = nil
	}

	contextText, citations := s.buildContext(hits, sources)
	contextText = text.Truncate(contextText, s.contextBudget)

	if s.generator == nil {
		return Brief{Text: extractiveBrief(contextText), Citations: citations}
	}

	prompt := fmt.Sprintf("Topic: %s\n\nContext:\n%s", topic, contextText)
	briefText, err := s.generator.Generate(ctx, systemPrompt, prompt, 0.3)
	if err != nil {
		return Brief{
			Text:      fmt.Sprintf("[synthesis failed: %v]", err),
			Citations: citations,
		}
	}

	return Brief{Text: briefText, Citations: citations}
}

// buildContext joins retrieved chunk texts with blank lines and collects
// citations by first occurrence per URL, walking hits in score order. With
// no hits the first few raw sources substitute, and failing that a
// placeholder line keeps the prompt well-formed.
func (s *Synthesizer) buildContext(hits []retrieval.Scored, sources []ingest.Source) (string, []Citation) {
	var parts []string
	var citations []Citation
	seen := make(map[string]bool)

	if len(hits) > 0 {
		for _, h := range hits {
			if t := strings.TrimSpace(h.Chunk.Text); t != "" {
				parts = append(parts, t)
			}
			u := h.Chunk.Meta.URL
			if u == "" || seen[u] || len(citations) >= s.citationCap {
				continue
			}
			seen[u] = true
			citations = append(citations, Citation{URL: u, Domain: h.Chunk.Meta.Domain})
		}
	} else {
		n := len(sources)
		if n > rawSourceFallbackCap {
			n = rawSourceFallbackCap
		}
		for _, src := range sources[:n] {
			if t := strings.TrimSpace(src.Text); t != "" {
				parts = append(parts, t)
			}
			if src.URL == "" || seen[src.URL] || len(citations) >= s.citationCap {
				continue
			}
			seen[src.URL] = true
			citations = append(citations, Citation{URL: src.URL, Domain: src.Domain})
		}
	}

	if len(parts) == 0 {
		return placeholderContext, citations
	}
	return strings.Join(parts, "\n\n"), citations
}

// extractiveBrief is the no-credential fallback: the leading slice of the
// context itself, capped near the target length band so the validator and
// quiz tiers still have material to work with.
func extractiveBrief(contextText string) string {
	const maxWords = 350

	words := strings.Fields(contextText)
	if len(words) == 0 {
		return "[no model credential configured and no context available]"
	}
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
