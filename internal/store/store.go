// Package store defines the room persistence boundary shared by every backend.
package store

import (
	"context"

	"github.com/raphaelgruber/chatroom-go/internal/models"
)

// RoomStore is the narrow persistence interface the room service depends on.
// Room ids are opaque strings; backends own their physical encoding.
//
// Implementations return ErrNotFound for missing rooms or malformed ids and
// wrap storage faults with ErrUnavailable.
type RoomStore interface {
	// List returns every room, or only those containing userID when it is non-empty.
	List(ctx context.Context, userID string) ([]models.Room, error)
	Get(ctx context.Context, id string) (*models.Room, error)
	// Create stores a room with no chats and returns its new id.
	Create(ctx context.Context, in models.RoomInput) (string, error)
	// Update applies a partial title/users change and returns the updated room.
	Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error)
	Remove(ctx context.Context, id string) error
	// AppendChat atomically appends a chat, assigning its created_at, and returns it.
	AppendChat(ctx context.Context, roomID string, chat models.ChatInput) (*models.Chat, error)
}
