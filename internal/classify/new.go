package classify

import (
	"fmt"

	"github.com/raphaelgruber/chatroom-go/internal/config"
	"github.com/raphaelgruber/chatroom-go/internal/llm"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
)

// New builds the classifier selected by cfg.ClassifierProvider, wrapped in Timed.
func New(cfg config.Config, collector *metrics.Collector) (Classifier, error) {
	var inner Classifier

	switch cfg.ClassifierProvider {
	case config.ClassifierOpenAI:
		c, err := NewOpenAIClient(OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			SentimentModel: cfg.SentimentModel,
			Timeout:        cfg.ClassifyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai classifier: %w", err)
		}
		inner = c

	case config.ClassifierLangchain:
		model, err := llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("create llm classifier: %w", err)
		}
		inner = NewLLMClassifier(model, cfg.ClassifyTimeout)

	case config.ClassifierNone, "":
		inner = Disabled{}

	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.ClassifierProvider)
	}

	return NewTimed(inner, collector), nil
}
