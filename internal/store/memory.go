package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chatroom-go/internal/models"
)

// Memory is an in-process RoomStore. It backs local development and tests.
// All methods are thread-safe.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
	order []string
	clock *Clock
}

// Compile-time check that Memory implements RoomStore.
var _ RoomStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string]*models.Room),
		clock: NewClock(0),
	}
}

// List returns rooms in creation order.
func (m *Memory) List(_ context.Context, userID string) ([]models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]models.Room, 0, len(m.rooms))
	for _, id := range m.order {
		r := m.rooms[id]
		if userID != "" && !r.HasMember(userID) {
			continue
		}
		rooms = append(rooms, cloneRoom(r))
	}
	return rooms, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, NotFound(id)
	}
	room := cloneRoom(r)
	return &room, nil
}

func (m *Memory) Create(_ context.Context, in models.RoomInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.rooms[id] = &models.Room{
		ID:    id,
		Title: in.Title,
		Users: append([]models.Member{}, in.Users...),
		Chats: []models.Chat{},
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory) Update(_ context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, NotFound(id)
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Users != nil {
		r.Users = append([]models.Member{}, (*patch.Users)...)
	}
	room := cloneRoom(r)
	return &room, nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[id]; !ok {
		return NotFound(id)
	}
	delete(m.rooms, id)
	m.order = slices.DeleteFunc(m.order, func(oid string) bool { return oid == id })
	return nil
}

// AppendChat assigns created_at under the write lock, so timestamps follow append order.
func (m *Memory) AppendChat(_ context.Context, roomID string, in models.ChatInput) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, NotFound(roomID)
	}
	chat := models.Chat{
		RoomID:    roomID,
		UserID:    in.UserID,
		Message:   in.Message,
		Sentiment: in.Sentiment,
		CreatedAt: m.clock.Now(),
	}
	r.Chats = append(r.Chats, chat)
	return &chat, nil
}

func cloneRoom(r *models.Room) models.Room {
	return models.Room{
		ID:    r.ID,
		Title: r.Title,
		Users: append([]models.Member{}, r.Users...),
		Chats: append([]models.Chat{}, r.Chats...),
	}
}
