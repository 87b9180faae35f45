// Package mongo provides a MongoDB-backed room store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// roomCollection is the collection holding room documents, chats embedded.
const roomCollection = "room"

// Config holds MongoDB connection settings.
type Config struct {
	URL      string
	Database string
}

// Store implements store.RoomStore on a MongoDB collection.
type Store struct {
	client  *mongo.Client
	rooms   *mongo.Collection
	clock   *store.Clock
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Compile-time check that Store implements store.RoomStore.
var _ store.RoomStore = (*Store)(nil)

// NewStore connects to MongoDB and verifies the connection with a ping.
func NewStore(ctx context.Context, cfg Config, log *slog.Logger, collector *metrics.Collector) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	log.Info("connecting to MongoDB", "database", cfg.Database)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{
		client: client,
		rooms:  client.Database(cfg.Database).Collection(roomCollection),
		// BSON datetimes only keep milliseconds
		clock:   store.NewClock(time.Millisecond),
		logger:  log,
		metrics: collector,
	}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	s.logger.Info("closing MongoDB connection")
	return s.client.Disconnect(ctx)
}

// WipeData deletes every room. Use for testing only.
func (s *Store) WipeData(ctx context.Context) error {
	s.logger.Warn("wiping all rooms")
	if _, err := s.rooms.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTiming(op, time.Since(start))
	}
}
