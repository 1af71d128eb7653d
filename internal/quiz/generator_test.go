package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Generate(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, system, prompt, temperature)
	return args.String(0), args.Error(1)
}

const sampleBrief = "Raft is a consensus algorithm designed for understandability. " +
	"Raft separates leader election from log replication inside the cluster. " +
	"Leader election uses randomized timeouts across the cluster nodes. " +
	"Log replication copies entries from the leader to follower nodes. " +
	"Safety in Raft depends on the election restriction for candidate nodes. " +
	"Understandability was the explicit design goal of the Raft authors."

func fixedGen(chat ChatModel) *Generator {
	return New(chat, WithRand(rand.New(rand.NewSource(42))))
}

func validItem(question string) Item {
	return Item{
		Question:    question,
		Options:     []string{"a", "b", "c", "d"},
		AnswerIndex: 1,
		Explanation: "because",
	}
}

func TestGenerate_ModelTierUsedWhenValid(t *testing.T) {
	chat := new(MockChat)
	chat.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		`[{"q":"What is Raft?","options":["a","b","c","d"],"answer_index":2,"explanation":"e"}]`, nil)

	items := fixedGen(chat).Generate(context.Background(), sampleBrief, "raft", 1)

	require.Len(t, items, 1)
	assert.Equal(t, "What is Raft?", items[0].Question)
	assert.Equal(t, 2, items[0].AnswerIndex)
}

func TestGenerate_ModelResponseInCodeFence(t *testing.T) {
	chat := new(MockChat)
	chat.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		"```json\n[{\"q\":\"Q?\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"answer_index\":0,\"explanation\":\"e\"}]\n```", nil)

	items := fixedGen(chat).Generate(context.Background(), sampleBrief, "raft", 1)

	require.Len(t, items, 1)
	assert.Equal(t, "Q?", items[0].Question)
}

func TestGenerate_MalformedModelResponseFallsBack(t *testing.T) {
	chat := new(MockChat)
	chat.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(
		`{"not":"an array"}`, nil)

	items := fixedGen(chat).Generate(context.Background(), sampleBrief, "raft", 3)

	// local tiers still deliver
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Len(t, it.Options, 4)
	}
}

func TestGenerate_ModelErrorFallsBack(t *testing.T) {
	chat := new(MockChat)
	chat.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model offline"))

	items := fixedGen(chat).Generate(context.Background(), sampleBrief, "raft", 2)

	assert.Len(t, items, 2)
}

func TestGenerate_NilChatUsesLocalTiers(t *testing.T) {
	items := fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 3)

	require.Len(t, items, 3)
	for _, it := range items {
		require.Len(t, it.Options, 4)
		assert.GreaterOrEqual(t, it.AnswerIndex, 0)
		assert.Less(t, it.AnswerIndex, 4)
		// answer is one of the options
		assert.Contains(t, it.Options, it.Options[it.AnswerIndex])
	}
}

func TestGenerate_ClozeMasksKeyword(t *testing.T) {
	g := fixedGen(nil)
	items := g.clozeTier(sampleBrief, 2)

	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Contains(t, it.Question, "____")
		correct := it.Options[it.AnswerIndex]
		assert.NotContains(t, strings.ToLower(it.Question), strings.ToLower(correct))
	}
}

func TestGenerate_DeterministicUnderFixedSeed(t *testing.T) {
	a := fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 5)
	b := fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 5)

	assert.Equal(t, a, b)
}

func TestGenerate_CapsAtN(t *testing.T) {
	items := fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 2)
	assert.Len(t, items, 2)

	assert.Empty(t, fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 0))
}

func TestGenerate_DegenerateBriefYieldsFewer(t *testing.T) {
	items := fixedGen(nil).Generate(context.Background(), "tiny", "t", 5)
	assert.Less(t, len(items), 5)
}

func TestGenerate_NoDuplicateItems(t *testing.T) {
	items := fixedGen(nil).Generate(context.Background(), sampleBrief, "raft", 5)

	seen := make(map[string]bool)
	for _, it := range items {
		key := it.Question + "|" + strings.Join(it.Options, "|")
		assert.False(t, seen[key], "duplicate item %q", it.Question)
		seen[key] = true
	}
}

func TestDisambiguateStems(t *testing.T) {
	items := []Item{validItem("same"), validItem("same"), validItem("same")}
	disambiguateStems(items)

	assert.Equal(t, "same (1)", items[0].Question)
	assert.Equal(t, "same (2)", items[1].Question)
	assert.Equal(t, "same (3)", items[2].Question)

	mixed := []Item{validItem("one"), validItem("two")}
	disambiguateStems(mixed)
	assert.Equal(t, "one", mixed[0].Question)
}

func TestPresenceTier_CorrectTermAppearsInBrief(t *testing.T) {
	g := fixedGen(nil)
	items := g.presenceTier(sampleBrief, 3)

	require.NotEmpty(t, items)
	lower := strings.ToLower(sampleBrief)
	for _, it := range items {
		correct := it.Options[it.AnswerIndex]
		assert.Contains(t, lower, correct)
	}
}

func TestTopKeywords_ExcludesStopwords(t *testing.T) {
	words := topKeywords("the the the raft raft cluster", 10)

	assert.NotContains(t, words, "the")
	assert.Equal(t, "raft", words[0])
}

func TestMaskFirst_CaseInsensitive(t *testing.T) {
	assert.Equal(t, "____ is a protocol", maskFirst("Raft is a protocol", "raft"))
	assert.Equal(t, "untouched", maskFirst("untouched", "missing"))
}
