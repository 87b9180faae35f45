// Package service provides the room and chat business logic shared by the HTTP and CLI surfaces.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/chatroom-go/internal/classify"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store"
)

// MaxMessageLength is the longest chat message accepted, in runes.
const MaxMessageLength = 5000

// RoomService validates input, labels messages and delegates persistence to a RoomStore.
// It holds no mutable state of its own and is safe for concurrent use.
type RoomService struct {
	rooms          store.RoomStore
	classifier     classify.Classifier
	logger         *slog.Logger
	collector      *metrics.Collector
	moderateOnSend bool
}

// Option configures a RoomService.
type Option func(*RoomService)

// WithCollector records degraded sends in c.
func WithCollector(c *metrics.Collector) Option {
	return func(s *RoomService) { s.collector = c }
}

// WithModerateOnSend runs a moderation check before sentiment on every send.
// Flagged messages are stored with the flagged label.
func WithModerateOnSend(on bool) Option {
	return func(s *RoomService) { s.moderateOnSend = on }
}

// NewRoomService creates a room service. A nil logger discards output.
func NewRoomService(rooms store.RoomStore, classifier classify.Classifier, logger *slog.Logger, opts ...Option) *RoomService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &RoomService{
		rooms:      rooms,
		classifier: classifier,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRooms returns all rooms, or only those userID belongs to when it is non-empty.
func (s *RoomService) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// CreateRoom stores a new room with no chats and returns it.
func (s *RoomService) CreateRoom(ctx context.Context, in models.RoomInput) (*models.Room, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "must not be blank")
	}
	if err := validateUsers(in.Users); err != nil {
		return nil, err
	}

	id, err := s.rooms.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.logger.Info("room created", "room_id", id, "users", len(in.Users))
	return &models.Room{ID: id, Title: in.Title, Users: in.Users, Chats: []models.Chat{}}, nil
}

// UpdateRoom applies a title and/or users change. Chats are never touched.
func (s *RoomService) UpdateRoom(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	if patch.IsEmpty() {
		return nil, invalid("patch", "nothing to update")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title", "must not be blank")
		}
		patch.Title = &title
	}
	if patch.Users != nil {
		if err := validateUsers(*patch.Users); err != nil {
			return nil, err
		}
	}

	room, err := s.rooms.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	if err := s.rooms.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	s.logger.Info("room deleted", "room_id", id)
	return nil
}

// SendMessage labels message and appends it to the room.
//
// The room is confirmed before the classifier is called. Classification failures never
// fail the send: the chat is stored with the default sentiment and the failure is logged.
// Store errors are returned as-is.
func (s *RoomService) SendMessage(ctx context.Context, roomID, userID, message string) (*models.Chat, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid("userId", "must not be blank")
	}
	if strings.TrimSpace(message) == "" {
		return nil, invalid("message", "must not be empty")
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return nil, invalid("message", "%d characters exceeds the limit of %d", n, MaxMessageLength)
	}

	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	sentiment := s.label(ctx, roomID, message)

	chat, err := s.rooms.AppendChat(ctx, roomID, models.ChatInput{
		UserID:    userID,
		Message:   message,
		Sentiment: sentiment,
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	metrics.ChatsAppendedTotal.WithLabelValues(string(chat.Sentiment)).Inc()
	s.logger.Debug("chat appended", "room_id", roomID, "user_id", userID, "sentiment", chat.Sentiment)
	return chat, nil
}

// label runs the optional moderation check and the sentiment classification.
// It always returns a valid label.
func (s *RoomService) label(ctx context.Context, roomID, message string) models.Sentiment {
	if s.moderateOnSend {
		res, err := s.classifier.Classify(ctx, message, classify.KindModeration)
		switch {
		case err != nil:
			s.classificationFailed(roomID, classify.KindModeration, err)
		case res.Flagged:
			s.logger.Info("message flagged", "room_id", roomID, "categories", res.Categories)
			return models.SentimentFlagged
		}
	}

	res, err := s.classifier.Classify(ctx, message, classify.KindSentiment)
	if err != nil {
		s.classificationFailed(roomID, classify.KindSentiment, err)
		s.recordDegraded()
		return models.DefaultSentiment
	}
	if !res.Sentiment.Valid() {
		return models.DefaultSentiment
	}
	return res.Sentiment
}

func (s *RoomService) classificationFailed(roomID string, kind classify.Kind, err error) {
	attrs := []any{"room_id", roomID, "kind", kind.String(), "classification_failed", true, "error", err}
	if classify.IsFatal(err) {
		s.logger.Error("classification provider rejected request", attrs...)
		return
	}
	s.logger.Warn("classification failed, using default label", attrs...)
}

func (s *RoomService) recordDegraded() {
	if s.collector != nil {
		s.collector.RecordDegradedSend()
	}
}

// Moderate runs a moderation check on text. Unlike SendMessage, provider errors are returned.
func (s *RoomService) Moderate(ctx context.Context, text string) (*classify.Result, error) {
	return s.Classify(ctx, text, classify.KindModeration)
}

// Classify runs a single classification of the given kind and returns provider errors.
func (s *RoomService) Classify(ctx context.Context, text string, kind classify.Kind) (*classify.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return nil, invalid("text", "%d characters exceeds the limit of %d", n, MaxMessageLength)
	}

	res, err := s.classifier.Classify(ctx, text, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return res, nil
}

// validateUsers requires a non-empty member list with unique, non-blank ids.
func validateUsers(users []models.Member) error {
	if len(users) == 0 {
		return invalid("users", "at least one member is required")
	}
	seen := make(map[string]struct{}, len(users))
	for i, u := range users {
		if strings.TrimSpace(u.ID) == "" {
			return invalid("users", "member %d has a blank id", i)
		}
		if _, dup := seen[u.ID]; dup {
			return invalid("users", "duplicate member id %q", u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}
