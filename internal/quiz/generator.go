// Package quiz builds multiple-choice quizzes from a brief. A model tier
// produces the best questions when a chat credential is configured; two
// local tiers (cloze deletion, then term presence) fill whatever shortfall
// the model leaves, so the requested count is reached whenever the brief
// has enough distinct material.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const (
	optionCount     = 4
	distractorCount = 3
	keywordPoolSize = 60
	minSentenceLen  = 6
	minAnswerLen    = 4

	presenceStem = "Which of the following terms is explicitly mentioned in the brief?"
)

var suffixVariants = []string{"s", "ing", "ness", "ity", "ism"}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"if": true, "then": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "by": true, "with": true, "as": true, "at": true,
	"from": true, "that": true, "this": true, "these": true, "those": true,
	"it": true, "its": true, "their": true, "his": true, "her": true,
	"you": true, "your": true, "we": true, "our": true, "they": true,
	"them": true, "i": true, "me": true, "my": true, "not": true, "no": true,
	"yes": true, "very": true, "more": true, "most": true, "such": true,
	"also": true, "can": true, "may": true, "might": true, "should": true,
	"could": true,
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	whitespace   = regexp.MustCompile(`\s+`)
	sentenceEnd  = regexp.MustCompile(`(?:[.!?])\s+`)
	wordPattern  = regexp.MustCompile(`[A-Za-z][A-Za-z\-]{2,}`)
	codeFence    = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")
)

// itemSchema rejects model responses that are not an array of well-formed
// MCQ objects before any item is trusted.
const itemSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["q", "options", "answer_index", "explanation"],
		"properties": {
			"q": {"type": "string", "minLength": 1},
			"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
			"answer_index": {"type": "integer", "minimum": 0, "maximum": 3},
			"explanation": {"type": "string"}
		}
	}
}`

// Item is one multiple-choice question: exactly four options, one correct.
type Item struct {
	Question    string   `json:"q"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

type ChatModel interface {
	Generate(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

type Generator struct {
	chat   ChatModel
	rng    *rand.Rand
	schema *gojsonschema.Schema
}

type Option func(*Generator)

// WithRand injects the randomness source, making generation reproducible
// in tests.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// New builds a Generator. chat may be nil; generation then starts directly
// at the cloze tier.
func New(chat ChatModel, opts ...Option) *Generator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(itemSchema))
	if err != nil {
		// The schema document is a compile-time constant.
		panic(fmt.Sprintf("quiz: invalid item schema: %v", err))
	}

	g := &Generator{
		chat:   chat,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		schema: schema,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns up to n items for the brief: model tier first, then
// cloze deletions, then term-presence questions, deduplicated by full
// structural equality and capped at n. Fewer than n items come back only
// when the brief is too degenerate to supply distinct material.
func (g *Generator) Generate(ctx context.Context, briefText, topic string, n int) []Item {
	if n <= 0 {
		return nil
	}

	items := g.modelTier(ctx, briefText, topic, n)
	if len(items) < n {
		items = append(items, g.clozeTier(briefText, n-len(items))...)
	}
	if len(items) < n {
		items = append(items, g.presenceTier(briefText, n-len(items))...)
	}

	items = dedupe(items)
	if len(items) > n {
		items = items[:n]
	}

	disambiguateStems(items)
	return items
}

// modelTier asks the chat model for exactly n MCQs as a JSON array and
// keeps only items that survive schema validation. Any failure, from the
// call itself to malformed JSON, drops the whole response and lets the
// local tiers take over.
func (g *Generator) modelTier(ctx context.Context, briefText, topic string, n int) []Item {
	if g.chat == nil {
		return nil
	}

	system := "Create concise multiple-choice questions strictly grounded in the BRIEF. " +
		"No generic or study-skill questions."
	prompt := fmt.Sprintf(
		"TOPIC: %s\n\nBRIEF:\n%s\n\nCreate EXACTLY %d MCQs. Each item must be an object with keys "+
			"q, options (4 strings), answer_index (0-3), explanation. Respond with ONLY a JSON array.",
		topic, briefText, n)

	raw, err := g.chat.Generate(ctx, system, prompt, 0.2)
	if err != nil {
		slog.WarnContext(ctx, "model quiz tier failed", "error", err)
		return nil
	}

	raw = stripCodeFence(raw)

	result, err := g.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil || !result.Valid() {
		slog.WarnContext(ctx, "model quiz response rejected by schema")
		return nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	good := items[:0]
	for _, it := range items {
		if len(it.Options) == optionCount && it.AnswerIndex >= 0 && it.AnswerIndex < optionCount && it.Question != "" {
			good = append(good, it)
		}
	}
	if len(good) > n {
		good = good[:n]
	}
	return good
}

// clozeTier masks a frequent keyword in sentences drawn from the brief.
// Sentences are visited in randomized order; each answer term is used at
// most once.
func (g *Generator) clozeTier(briefText string, n int) []Item {
	cleaned := cleanMarkdown(briefText)
	sentences := splitSentences(cleaned)
	keywords := topKeywords(cleaned, keywordPoolSize)

	g.rng.Shuffle(len(sentences), func(i, j int) {
		sentences[i], sentences[j] = sentences[j], sentences[i]
	})

	var out []Item
	used := make(map[string]bool)

	for _, sentence := range sentences {
		if len(out) >= n {
			break
		}
		lower := strings.ToLower(sentence)

		var correct string
		for _, k := range keywords {
			if len(k) >= minAnswerLen && !used[k] && strings.Contains(lower, k) {
				correct = k
				break
			}
		}
		if correct == "" {
			continue
		}

		masked := maskFirst(sentence, correct)
		options := g.buildOptions(correct, keywords)

		out = append(out, Item{
			Question:    masked,
			Options:     options,
			AnswerIndex: indexOf(options, correct),
			Explanation: fmt.Sprintf("The blank is '%s'.", correct),
		})
		used[correct] = true
	}
	return out
}

// presenceTier is the last resort: disjoint groups of four keywords, the
// first of which actually appears in the brief.
func (g *Generator) presenceTier(briefText string, n int) []Item {
	cleaned := cleanMarkdown(briefText)

	var keys []string
	for _, k := range topKeywords(cleaned, keywordPoolSize) {
		if len(k) >= minAnswerLen {
			keys = append(keys, k)
		}
	}

	var out []Item
	for i := 0; len(out) < n && i+optionCount <= len(keys); i += optionCount {
		correct := keys[i]
		options := append([]string{correct}, keys[i+1:i+optionCount]...)
		g.rng.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		out = append(out, Item{
			Question:    presenceStem,
			Options:     options,
			AnswerIndex: indexOf(options, correct),
			Explanation: fmt.Sprintf("'%s' appears in the brief.", correct),
		})
	}
	return out
}

// buildOptions picks three distractors of similar length to the answer,
// padding with synthetic suffix variants when the keyword pool runs short,
// and shuffles the result.
func (g *Generator) buildOptions(correct string, keywords []string) []string {
	var pool []string
	for _, k := range keywords {
		if k != correct && abs(len(k)-len(correct)) <= 3 {
			pool = append(pool, k)
		}
	}
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var distractors []string
	for _, k := range pool {
		if len(distractors) == distractorCount {
			break
		}
		if !contains(distractors, k) {
			distractors = append(distractors, k)
		}
	}
	for i := 0; len(distractors) < distractorCount; i++ {
		variant := correct + suffixVariants[i%len(suffixVariants)]
		if !contains(distractors, variant) {
			distractors = append(distractors, variant)
		}
	}

	options := append([]string{correct}, distractors...)
	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

func cleanMarkdown(md string) string {
	md = markdownLink.ReplaceAllString(md, "$1")
	return strings.TrimSpace(whitespace.ReplaceAllString(md, " "))
}

func splitSentences(s string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(s, -1) {
		part := s[last : loc[0]+1]
		last = loc[1]
		if len(strings.Fields(part)) >= minSentenceLen {
			out = append(out, strings.TrimSpace(part))
		}
	}
	if tail := strings.TrimSpace(s[last:]); len(strings.Fields(tail)) >= minSentenceLen {
		out = append(out, tail)
	}
	return out
}

// topKeywords ranks non-stopword terms by frequency, ties broken
// alphabetically so the ranking is deterministic.
func topKeywords(s string, k int) []string {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if !stopwords[w] {
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > k {
		words = words[:k]
	}
	return words
}

// maskFirst blanks the first case-insensitive occurrence of term.
func maskFirst(sentence, term string) string {
	idx := strings.Index(strings.ToLower(sentence), strings.ToLower(term))
	if idx < 0 {
		return sentence
	}
	return sentence[:idx] + "____" + sentence[idx+len(term):]
}

// dedupe removes structurally identical items, comparing their stable
// JSON serialization.
func dedupe(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key, err := json.Marshal(it)
		if err != nil {
			continue
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		out = append(out, it)
	}
	return out
}

// disambiguateStems appends a counter suffix when every stem is identical,
// so the rendered quiz stays visually distinguishable. Presentation only;
// answers are untouched.
func disambiguateStems(items []Item) {
	if len(items) < 2 {
		return
	}
	for _, it := range items[1:] {
		if it.Question != items[0].Question {
			return
		}
	}
	for i := range items {
		items[i].Question = fmt.Sprintf("%s (%d)", items[i].Question, i+1)
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func indexOf(options []string, target string) int {
	for i, o := range options {
		if o == target {
			return i
		}
	}
	return 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
