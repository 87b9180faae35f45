package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sk-test-secret"

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(OpenAIConfig{
		APIKey:  testKey,
		BaseURL: srv.URL + "/",
		Timeout: time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.Error(t, err)
}

func TestSentimentRequest(t *testing.T) {
	var got completionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"text":" Positive","index":0}]}`))
	})

	res, err := c.Classify(context.Background(), "I love this", KindSentiment)
	require.NoError(t, err)

	assert.Equal(t, models.SentimentPositive, res.Sentiment)
	assert.Equal(t, "positive", res.Label())
	assert.Equal(t, DefaultSentimentModel, got.Model)
	assert.Equal(t, "What is the sentiment of the following text?\n\"I love this\"\nSentiment:", got.Prompt)
	assert.Equal(t, 1, got.MaxTokens)
	assert.Zero(t, got.Temperature)
	assert.Equal(t, "\n", got.Stop)
}

func TestSentimentLabels(t *testing.T) {
	tests := []struct {
		answer string
		want   models.Sentiment
	}{
		{" Negative", models.SentimentNegative},
		{"neutral", models.SentimentNeutral},
		{" Mixed", models.SentimentNeutral},
		{"", models.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"choices": []map[string]any{{"text": tt.answer}},
				})
			})
			res, err := c.Classify(context.Background(), "some text", KindSentiment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Sentiment)
		})
	}
}

func TestModeration(t *testing.T) {
	var got moderationRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[{"flagged":true,
			"categories":{"violence":true,"hate":false,"harassment":true},
			"category_scores":{"violence":0.91,"hate":0.01,"harassment":0.6}}]}`))
	})

	res, err := c.Classify(context.Background(), "nasty words", KindModeration)
	require.NoError(t, err)

	assert.Equal(t, "nasty words", got.Input)
	assert.True(t, res.Flagged)
	assert.Equal(t, LabelFlagged, res.Label())
	assert.Equal(t, []string{"harassment", "violence"}, res.Categories)
	assert.InDelta(t, 0.91, res.Scores["violence"], 1e-9)
}

func TestModerationClean(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"flagged":false,"categories":{"hate":false}}]}`))
	})

	res, err := c.Classify(context.Background(), "hello there", KindModeration)
	require.NoError(t, err)
	assert.False(t, res.Flagged)
	assert.Empty(t, res.Categories)
	assert.Equal(t, LabelClean, res.Label())
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"top-level message", http.StatusBadRequest, `{"message":"bad input"}`, 400, "bad input"},
		{"nested error message", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, 401, "Incorrect API key"},
		{"no body", http.StatusInternalServerError, ``, 500, "Something went wrong"},
		{"non-json body", http.StatusBadGateway, `<html>oops</html>`, 502, "Something went wrong"},
		{"no content", http.StatusNoContent, ``, 204, "provider returned no content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Classify(context.Background(), "text", KindSentiment)
			require.Error(t, err)

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantStatus, ce.Status)
			assert.Equal(t, tt.wantMsg, ce.Message)
		})
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [`))
	})

	_, err := c.Classify(context.Background(), "text", KindSentiment)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "decode response", ce.Message)
}

func TestEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Classify(context.Background(), "text", KindSentiment)
	var ce *Error
	assert.True(t, errors.As(err, &ce))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: testKey, BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Classify(context.Background(), "text", KindSentiment)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestEmptyTextSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Classify(context.Background(), text, KindSentiment)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Zero(t, calls.Load())
}

func TestKeyNeverLeaks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided: ` + testKey + `"}}`))
	})

	_, err := c.Classify(context.Background(), "text", KindModeration)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKey)
	assert.Contains(t, err.Error(), "[REDACTED]")
	assert.True(t, IsFatal(err))
}

func TestUnsupportedKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called")
	})
	_, err := c.Classify(context.Background(), "text", Kind(99))
	assert.ErrorContains(t, err, "unsupported classification kind")
}
