package models

import "strings"

// Sentiment is the classification label attached to a chat.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	// SentimentFlagged marks a message the moderation check flagged.
	SentimentFlagged Sentiment = "flagged"
)

// DefaultSentiment is used when classification is skipped or fails.
const DefaultSentiment = SentimentNeutral

// ParseSentiment maps free-form provider output onto the closed label set.
// Unknown values map to DefaultSentiment.
func ParseSentiment(s string) Sentiment {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".\"'!")
	switch {
	case strings.HasPrefix(s, "pos"):
		return SentimentPositive
	case strings.HasPrefix(s, "neg"):
		return SentimentNegative
	case strings.HasPrefix(s, "neu"):
		return SentimentNeutral
	case s == string(SentimentFlagged):
		return SentimentFlagged
	default:
		return DefaultSentiment
	}
}

// Valid reports whether s is one of the known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentFlagged:
		return true
	}
	return false
}
