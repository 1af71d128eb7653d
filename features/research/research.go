// Package research orchestrates the pipeline: plan sub-queries, fetch and
// ingest sources, synthesize a cited brief, validate it (with one retry on
// failure), and generate a quiz. Persistence and event publishing happen
// after the response is ready and never block or fail a run.
package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"briefly/features/brief"
	"briefly/internal/events"
	"briefly/internal/ingest"
	"briefly/internal/planner"
	"briefly/internal/quiz"
	"briefly/internal/synthesis"
	"briefly/internal/validation"
)

const persistTimeout = 10 * time.Second

// Result is the full outcome of one research run, returned synchronously.
type Result struct {
	TopicID string               `json:"topic_id"`
	Topic   string               `json:"topic"`
	Queries []string             `json:"queries"`
	Brief   synthesis.Brief      `json:"brief"`
	Report  validation.Report    `json:"report"`
	Retried bool                 `json:"retried"`
	Quiz    []quiz.Item          `json:"quiz"`
	Sources []ingest.SourceBrief `json:"sources"`
}

type Ingestor interface {
	Fetch(ctx context.Context, subqueries []string, perQuery int, topic, topicID string) []ingest.Source
}

type Synthesizer interface {
	Synthesize(ctx context.Context, topicID, topic string, sources []ingest.Source) synthesis.Brief
}

type QuizGenerator interface {
	Generate(ctx context.Context, briefText, topic string, n int) []quiz.Item
}

type ChunkResetter interface {
	Reset(ctx context.Context, topicID string) error
}

type Service struct {
	ingestor Ingestor
	synth    Synthesizer
	quizzes  QuizGenerator
	store    ChunkResetter
	repo     brief.Repository // nil when persistence is disabled
	events   *events.Publisher

	perQuery int
	quizSize int
}

func NewService(ingestor Ingestor, synth Synthesizer, quizzes QuizGenerator, store ChunkResetter,
	repo brief.Repository, pub *events.Publisher, perQuery, quizSize int) *Service {
	if perQuery < 1 {
		perQuery = 1
	}
	if quizSize < 1 {
		quizSize = 5
	}
	return &Service{
		ingestor: ingestor,
		synth:    synth,
		quizzes:  quizzes,
		store:    store,
		repo:     repo,
		events:   pub,
		perQuery: perQuery,
		quizSize: quizSize,
	}
}

// TopicID derives the stable identifier for a topic title. The same title
// always maps to the same ID, which is what makes reruns overwrite.
func TopicID(topic string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(topic)).String()
}

// Run executes the pipeline for topic. The topic's chunk partition is
// cleared up front so a rerun scores against fresh evidence only. When
// validation fails, one wider retry runs and its brief replaces the
// original whether or not it passes.
func (s *Service) Run(ctx context.Context, topic string) (*Result, error) {
	topicID := TopicID(topic)
	queries := planner.Plan(topic)

	log := slog.With("topic_id", topicID, "topic", topic)
	log.InfoContext(ctx, "research run started", "queries", len(queries))

	if s.store != nil {
		if err := s.store.Reset(ctx, topicID); err != nil {
			return nil, err
		}
	}

	sources := s.ingestor.Fetch(ctx, queries, s.perQuery, topic, topicID)
	b := s.synth.Synthesize(ctx, topicID, topic, sources)
	report := validation.Validate(b.Text, citationDomains(b.Citations))

	retried := false
	if !report.Passed() {
		log.InfoContext(ctx, "brief failed validation, retrying wider",
			"word_count", report.WordCount, "domain_count", report.DomainCount,
			"grade_level", report.GradeLevel)

		retried = true
		widerPerQuery := s.perQuery + 1
		if widerPerQuery < 2 {
			widerPerQuery = 2
		}

		if s.store != nil {
			if err := s.store.Reset(ctx, topicID); err != nil {
				return nil, err
			}
		}
		sources = s.ingestor.Fetch(ctx, queries, widerPerQuery, topic, topicID)
		b = s.synth.Synthesize(ctx, topicID, topic, sources)
		report = validation.Validate(b.Text, citationDomains(b.Citations))
	}

	var items []quiz.Item
	if b.Failed() {
		log.WarnContext(ctx, "synthesis failed, skipping quiz generation")
	} else {
		items = s.quizzes.Generate(ctx, b.Text, topic, s.quizSize)
	}

	result := &Result{
		TopicID: topicID,
		Topic:   topic,
		Queries: queries,
		Brief:   b,
		Report:  report,
		Retried: retried,
		Quiz:    items,
		Sources: sourceBriefs(sources),
	}

	s.persist(result)
	s.events.ResearchCompleted(events.ResearchCompleted{
		TopicID:     topicID,
		Topic:       topic,
		Passed:      report.Passed(),
		Retried:     retried,
		QuizItems:   len(items),
		CompletedAt: time.Now().UTC(),
	})

	log.InfoContext(ctx, "research run finished",
		"passed", report.Passed(), "retried", retried, "quiz_items", len(items))
	return result, nil
}

// persist stores the run in the background on its own deadline. Storage
// problems are logged, never surfaced to the caller.
func (s *Service) persist(res *Result) {
	if s.repo == nil {
		return
	}

	rec := &brief.Record{
		TopicID:   res.TopicID,
		Topic:     res.Topic,
		Text:      res.Brief.Text,
		Citations: res.Brief.Citations,
		Report:    res.Report,
		Retried:   res.Retried,
		Quiz:      res.Quiz,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveRun(ctx, rec); err != nil {
			slog.Error("failed to persist research run", "topic_id", rec.TopicID, "error", err)
		}
	}()
}

// citationDomains collects the domain of every citation the brief carries.
// Only cited sources count toward the diversity gate; fetched-but-uncited
// pages do not.
func citationDomains(citations []synthesis.Citation) []string {
	domains := make([]string, 0, len(citations))
	for _, c := range citations {
		domains = append(domains, c.Domain)
	}
	return domains
}

func sourceBriefs(sources []ingest.Source) []ingest.SourceBrief {
	out := make([]ingest.SourceBrief, 0, len(sources))
	for _, src := range sources {
		out = append(out, ingest.SourceBrief{URL: src.URL, Domain: src.Domain})
	}
	return out
}
