package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic string
	body  []byte
	err   error
	calls int
}

func (f *fakeProducer) Publish(topic string, body []byte) error {
	f.calls++
	f.topic = topic
	f.body = body
	return f.err
}

func TestPublisher_PublishesEvent(t *testing.T) {
	fake := &fakeProducer{}
	p := &Publisher{producer: fake}

	p.ResearchCompleted(ResearchCompleted{
		TopicID:     "t1",
		Topic:       "raft",
		Passed:      true,
		QuizItems:   5,
		CompletedAt: time.Now().UTC(),
	})

	assert.Equal(t, TopicResearchCompleted, fake.topic)

	var ev ResearchCompleted
	require.NoError(t, json.Unmarshal(fake.body, &ev))
	assert.Equal(t, "t1", ev.TopicID)
	assert.True(t, ev.Passed)
	assert.Equal(t, 5, ev.QuizItems)
}

func TestPublisher_PublishErrorSwallowed(t *testing.T) {
	fake := &fakeProducer{err: errors.New("nsqd down")}
	p := &Publisher{producer: fake}

	assert.NotPanics(t, func() {
		p.ResearchCompleted(ResearchCompleted{TopicID: "t1"})
	})
	assert.Equal(t, 1, fake.calls)
}

func TestPublisher_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPublisher(nil).ResearchCompleted(ResearchCompleted{TopicID: "t1"})

		var p *Publisher
		p.ResearchCompleted(ResearchCompleted{TopicID: "t1"})
	})
}
