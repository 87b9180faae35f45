package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/models"
)

const (
	// DefaultOpenAIBaseURL is the OpenAI REST API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultSentimentModel is the completions model used for sentiment.
	DefaultSentimentModel = "gpt-3.5-turbo-instruct"

	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 5 * time.Second
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	SentimentModel string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// OpenAIClient classifies text with the OpenAI completions and moderations endpoints.
type OpenAIClient struct {
	apiKey         string
	baseURL        string
	sentimentModel string
	timeout        time.Duration
	client         *http.Client
}

// Compile-time check that OpenAIClient implements Classifier.
var _ Classifier = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. An API key is required.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.SentimentModel == "" {
		cfg.SentimentModel = DefaultSentimentModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &OpenAIClient{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		sentimentModel: cfg.SentimentModel,
		timeout:        cfg.Timeout,
		client:         cfg.HTTPClient,
	}, nil
}

// completionRequest is the request format for /completions.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Stop        string  `json:"stop"`
}

// completionResponse is the subset of the /completions response we read.
type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// moderationRequest is the request format for /moderations.
type moderationRequest struct {
	Input string `json:"input"`
}

// moderationResponse is the response format from /moderations.
type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// errorBody covers both `{"message": "..."}` and OpenAI's `{"error": {"message": "..."}}`.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	if len(b.Error) == 0 {
		return ""
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var plain string
	if err := json.Unmarshal(b.Error, &plain); err == nil {
		return plain
	}
	return ""
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf("What is the sentiment of the following text?\n\"%s\"\nSentiment:", text)
}

// Classify runs one provider call bounded by the client timeout.
func (c *OpenAIClient) Classify(ctx context.Context, text string, kind Kind) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch kind {
	case KindSentiment:
		var resp completionResponse
		err := c.post(ctx, "completions", completionRequest{
			Model:       c.sentimentModel,
			Prompt:      sentimentPrompt(text),
			MaxTokens:   1,
			Temperature: 0,
			Stop:        "\n",
		}, &resp)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, &Error{Status: http.StatusOK, Message: "no choices in response"}
		}
		return &Result{Kind: kind, Sentiment: models.ParseSentiment(resp.Choices[0].Text)}, nil

	case KindModeration:
		var resp moderationResponse
		if err := c.post(ctx, "moderations", moderationRequest{Input: text}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Results) == 0 {
			return nil, &Error{Status: http.StatusOK, Message: "no results in response"}
		}
		r := resp.Results[0]
		return &Result{
			Kind:       kind,
			Flagged:    r.Flagged,
			Categories: flaggedCategories(r.Categories),
			Scores:     r.CategoryScores,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported classification kind: %s", kind)
	}
}

// post sends payload to path and decodes a 2xx body into out.
func (c *OpenAIClient) post(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error carries the URL only; the key lives in a header
		return &Error{Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	success := resp.StatusCode >= 200 && resp.StatusCode <= 299

	if resp.StatusCode == http.StatusNoContent {
		return &Error{Status: resp.StatusCode, Message: "provider returned no content"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if !success {
		msg := defaultErrorMessage
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.text() != "" {
			msg = c.redact(eb.text())
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

// redact strips the API key from provider-supplied text.
func (c *OpenAIClient) redact(s string) string {
	return strings.ReplaceAll(s, c.apiKey, "[REDACTED]")
}
