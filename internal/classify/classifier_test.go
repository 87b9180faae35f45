package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raphaelgruber/chatroom-go/internal/config"
	"github.com/raphaelgruber/chatroom-go/internal/llm"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	res *Result
	err error
}

func (s stubClassifier) Classify(context.Context, string, Kind) (*Result, error) {
	return s.res, s.err
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindSentiment, k)

	k, err = ParseKind(" Moderation ")
	require.NoError(t, err)
	assert.Equal(t, KindModeration, k)
	assert.Equal(t, "moderation", k.String())

	_, err = ParseKind("toxicity")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Classify(context.Background(), "hi", KindSentiment)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Disabled{}.Classify(context.Background(), "", KindSentiment)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unauthorized", &Error{Status: http.StatusUnauthorized}, true},
		{"rate limited", fmt.Errorf("send: %w", &Error{Status: http.StatusTooManyRequests}), true},
		{"server error", &Error{Status: http.StatusInternalServerError}, false},
		{"llm fatal", &Error{Message: "generate", Err: llm.ErrFatalAPI}, true},
		{"transport", &Error{Message: "send request", Err: errors.New("connection refused")}, false},
		{"disabled", ErrDisabled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "classification failed (status 400): bad input", (&Error{Status: 400, Message: "bad input"}).Error())
	assert.Equal(t, "classification failed: boom", (&Error{Err: errors.New("boom")}).Error())
}

func TestTimedRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()

	ok := NewTimed(stubClassifier{res: &Result{Kind: KindSentiment, Sentiment: models.SentimentPositive}}, collector)
	res, err := ok.Classify(context.Background(), "hi", KindSentiment)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, res.Sentiment)

	failures := metrics.ClassificationFailuresTotal.WithLabelValues("moderation")
	before := testutil.ToFloat64(failures)

	bad := NewTimed(stubClassifier{err: &Error{Status: 500}}, collector)
	_, err = bad.Classify(context.Background(), "hi", KindModeration)
	require.Error(t, err)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.Operations[metrics.OpClassifySentiment].Count)
	assert.Equal(t, int64(0), snap.Operations[metrics.OpClassifySentiment].Failures)
	assert.Equal(t, int64(1), snap.Operations[metrics.OpClassifyModeration].Failures)
	assert.InDelta(t, before+1, testutil.ToFloat64(failures), 1e-9)
}

func TestTimedNilCollector(t *testing.T) {
	timed := NewTimed(Disabled{}, nil)
	_, err := timed.Classify(context.Background(), "hi", KindSentiment)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNew(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c, err := New(config.Config{ClassifierProvider: config.ClassifierNone}, nil)
		require.NoError(t, err)
		_, err = c.Classify(context.Background(), "hi", KindSentiment)
		assert.ErrorIs(t, err, ErrDisabled)
	})
	t.Run("openai without key", func(t *testing.T) {
		_, err := New(config.Config{ClassifierProvider: config.ClassifierOpenAI}, nil)
		assert.Error(t, err)
	})
	t.Run("openai", func(t *testing.T) {
		c, err := New(config.Config{ClassifierProvider: config.ClassifierOpenAI, OpenAIAPIKey: "k"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &Timed{}, c)
	})
	t.Run("langchain unknown provider", func(t *testing.T) {
		_, err := New(config.Config{ClassifierProvider: config.ClassifierLangchain, LLMProvider: "nope"}, nil)
		assert.Error(t, err)
	})
	t.Run("unknown", func(t *testing.T) {
		_, err := New(config.Config{ClassifierProvider: "magic"}, nil)
		assert.Error(t, err)
	})
}
