// Package classify labels message text through an external classification provider.
package classify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/chatroom-go/internal/models"
)

// Kind selects which classification to run.
type Kind int

const (
	KindSentiment Kind = iota + 1
	KindModeration
)

func (k Kind) String() string {
	switch k {
	case KindSentiment:
		return "sentiment"
	case KindModeration:
		return "moderation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps "sentiment" or "moderation" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sentiment", "":
		return KindSentiment, nil
	case "moderation":
		return KindModeration, nil
	default:
		return 0, fmt.Errorf("unknown classification kind %q", s)
	}
}

// Moderation labels.
const (
	LabelFlagged = "flagged"
	LabelClean   = "clean"
)

// Result is a classification outcome. Sentiment is set for KindSentiment;
// Flagged, Categories and Scores for KindModeration.
type Result struct {
	Kind       Kind               `json:"-"`
	Sentiment  models.Sentiment   `json:"sentiment,omitempty"`
	Flagged    bool               `json:"flagged"`
	Categories []string           `json:"categories,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Label returns the closed-set label for the result's kind.
func (r *Result) Label() string {
	if r.Kind == KindModeration {
		if r.Flagged {
			return LabelFlagged
		}
		return LabelClean
	}
	return string(r.Sentiment)
}

// Classifier labels text. Implementations never call the provider with blank text
// and never retry.
type Classifier interface {
	Classify(ctx context.Context, text string, kind Kind) (*Result, error)
}

// Disabled is used when no provider is configured. Every call fails with
// ErrDisabled, which the room service treats like any other classification failure.
type Disabled struct{}

var _ Classifier = Disabled{}

func (Disabled) Classify(_ context.Context, text string, _ Kind) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return nil, ErrDisabled
}

// flaggedCategories returns the sorted names of categories set to true.
func flaggedCategories(categories map[string]bool) []string {
	var out []string
	for name, on := range categories {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
