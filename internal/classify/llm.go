package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/models"
)

// Generator is the slice of llm.Model the LLM classifier needs.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const sentimentSystemPrompt = `You classify the sentiment of chat messages.
Answer with exactly one word: positive, neutral, or negative.`

const moderationSystemPrompt = `You moderate chat messages.
If the message contains sexual content, hate, harassment, violence, self-harm or threats,
answer "flagged: " followed by a comma-separated list of those categories.
Otherwise answer with exactly one word: clean.`

// LLMClassifier classifies text by prompting a chat model.
type LLMClassifier struct {
	gen     Generator
	timeout time.Duration
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier wraps gen. A non-positive timeout uses DefaultTimeout.
func NewLLMClassifier(gen Generator, timeout time.Duration) *LLMClassifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LLMClassifier{gen: gen, timeout: timeout}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, kind Kind) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var system string
	switch kind {
	case KindSentiment:
		system = sentimentSystemPrompt
	case KindModeration:
		system = moderationSystemPrompt
	default:
		return nil, fmt.Errorf("unsupported classification kind: %s", kind)
	}

	answer, err := c.gen.GenerateWithSystem(ctx, system, text)
	if err != nil {
		return nil, &Error{Message: "generate", Err: err}
	}

	if kind == KindSentiment {
		return &Result{Kind: kind, Sentiment: models.ParseSentiment(answer)}, nil
	}
	return parseModerationAnswer(answer), nil
}

// parseModerationAnswer reads "clean" or "flagged: a, b". Anything that does not
// start with "flagged" counts as clean.
func parseModerationAnswer(answer string) *Result {
	answer = strings.ToLower(strings.TrimSpace(answer))
	r := &Result{Kind: KindModeration}
	rest, ok := strings.CutPrefix(answer, LabelFlagged)
	if !ok {
		return r
	}
	r.Flagged = true
	rest = strings.TrimLeft(rest, ": ")
	for _, cat := range strings.Split(rest, ",") {
		if cat = strings.Trim(strings.TrimSpace(cat), "."); cat != "" {
			r.Categories = append(r.Categories, cat)
		}
	}
	return r
}
