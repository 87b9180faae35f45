package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/llm"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	answer string
	err    error
	system string
	user   string
	calls  int
}

func (g *fakeGenerator) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls++
	g.system = systemPrompt
	g.user = userPrompt
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected a deadline")
	}
	return g.answer, g.err
}

func TestLLMClassifierSentiment(t *testing.T) {
	gen := &fakeGenerator{answer: "Negative."}
	c := NewLLMClassifier(gen, time.Second)

	res, err := c.Classify(context.Background(), "this is awful", KindSentiment)
	require.NoError(t, err)

	assert.Equal(t, models.SentimentNegative, res.Sentiment)
	assert.Equal(t, sentimentSystemPrompt, gen.system)
	assert.Equal(t, "this is awful", gen.user)
}

func TestLLMClassifierModeration(t *testing.T) {
	gen := &fakeGenerator{answer: "Flagged: hate, violence."}
	c := NewLLMClassifier(gen, 0)

	res, err := c.Classify(context.Background(), "bad words", KindModeration)
	require.NoError(t, err)

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"hate", "violence"}, res.Categories)
	assert.Equal(t, moderationSystemPrompt, gen.system)
}

func TestLLMClassifierEmptyText(t *testing.T) {
	gen := &fakeGenerator{answer: "positive"}
	c := NewLLMClassifier(gen, time.Second)

	_, err := c.Classify(context.Background(), "  ", KindSentiment)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, gen.calls)
}

func TestLLMClassifierFailure(t *testing.T) {
	gen := &fakeGenerator{err: llm.ErrFatalAPI}
	c := NewLLMClassifier(gen, time.Second)

	_, err := c.Classify(context.Background(), "hello", KindSentiment)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.True(t, IsFatal(err))
}

func TestParseModerationAnswer(t *testing.T) {
	tests := []struct {
		answer     string
		flagged    bool
		categories []string
	}{
		{"clean", false, nil},
		{"  Clean.", false, nil},
		{"flagged", true, nil},
		{"flagged: harassment", true, []string{"harassment"}},
		{"FLAGGED:hate,  self-harm ,", true, []string{"hate", "self-harm"}},
		{"I cannot answer that", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			r := parseModerationAnswer(tt.answer)
			assert.Equal(t, KindModeration, r.Kind)
			assert.Equal(t, tt.flagged, r.Flagged)
			assert.Equal(t, tt.categories, r.Categories)
		})
	}
}
