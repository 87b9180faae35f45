package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// roomRecord is the stored shape of a room; the id is a SurrealDB record id.
type roomRecord struct {
	ID    surrealmodels.RecordID `json:"id"`
	Title string                 `json:"title"`
	Users []models.Member        `json:"users"`
	Chats []models.Chat          `json:"chats"`
}

func (r roomRecord) toRoom() (models.Room, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Room{}, err
	}
	room := models.Room{ID: id, Title: r.Title, Users: r.Users, Chats: r.Chats}
	if room.Users == nil {
		room.Users = []models.Member{}
	}
	if room.Chats == nil {
		room.Chats = []models.Chat{}
	}
	models.SortChats(room.Chats)
	return room, nil
}

// validKey reports whether id can be a room key. Keys are UUIDs we generate,
// so anything else cannot exist.
func validKey(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func firstRoom(results *[]surrealdb.QueryResult[[]roomRecord]) (*roomRecord, bool) {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, false
	}
	return &(*results)[0].Result[0], true
}

// List returns all rooms, or the rooms userID belongs to.
func (c *Client) List(ctx context.Context, userID string) ([]models.Room, error) {
	defer c.observe(metrics.OpStoreRead, time.Now())

	sql := `SELECT * FROM room ORDER BY created ASC`
	vars := map[string]any{}
	if userID != "" {
		sql = `SELECT * FROM room WHERE users.id CONTAINS $user ORDER BY created ASC`
		vars["user"] = userID
	}

	results, err := surrealdb.Query[[]roomRecord](ctx, c.db, sql, vars)
	if err != nil {
		return nil, wrapQueryError("list rooms", err)
	}

	rooms := []models.Room{}
	if results == nil || len(*results) == 0 {
		return rooms, nil
	}
	for _, rec := range (*results)[0].Result {
		room, err := rec.toRoom()
		if err != nil {
			return nil, store.Unavailable("list rooms", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Get retrieves a room by id.
func (c *Client) Get(ctx context.Context, id string) (*models.Room, error) {
	defer c.observe(metrics.OpStoreRead, time.Now())

	if !validKey(id) {
		return nil, store.NotFound(id)
	}

	results, err := surrealdb.Query[[]roomRecord](ctx, c.db, `
		SELECT * FROM type::record("room", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, wrapQueryError("get room", err)
	}

	rec, ok := firstRoom(results)
	if !ok {
		return nil, store.NotFound(id)
	}
	room, err := rec.toRoom()
	if err != nil {
		return nil, store.Unavailable("get room", err)
	}
	return &room, nil
}

// Create inserts a room with an empty chat list and returns its key.
func (c *Client) Create(ctx context.Context, in models.RoomInput) (string, error) {
	defer c.observe(metrics.OpStoreWrite, time.Now())

	id := uuid.New().String()
	users := in.Users
	if users == nil {
		users = []models.Member{}
	}

	_, err := surrealdb.Query[[]roomRecord](ctx, c.db, `
		CREATE type::record("room", $id) CONTENT {
			title: $title,
			users: $users,
			chats: []
		}
	`, map[string]any{
		"id":    id,
		"title": in.Title,
		"users": users,
	})
	if err != nil {
		return "", wrapQueryError("create room", err)
	}
	return id, nil
}

// Update changes title and/or users. UPDATE never creates a missing record,
// so an empty result means the room does not exist.
func (c *Client) Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	defer c.observe(metrics.OpStoreWrite, time.Now())

	if !validKey(id) {
		return nil, store.NotFound(id)
	}

	var sets []string
	vars := map[string]any{"id": id}
	if patch.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *patch.Title
	}
	if patch.Users != nil {
		sets = append(sets, "users = $users")
		vars["users"] = *patch.Users
	}
	if len(sets) == 0 {
		return c.Get(ctx, id)
	}

	sql := `UPDATE type::record("room", $id) SET ` + strings.Join(sets, ", ") + ` RETURN AFTER`
	results, err := surrealdb.Query[[]roomRecord](ctx, c.db, sql, vars)
	if err != nil {
		return nil, wrapQueryError("update room", err)
	}

	rec, ok := firstRoom(results)
	if !ok {
		return nil, store.NotFound(id)
	}
	room, err := rec.toRoom()
	if err != nil {
		return nil, store.Unavailable("update room", err)
	}
	return &room, nil
}

// Remove deletes a room together with its chats.
func (c *Client) Remove(ctx context.Context, id string) error {
	defer c.observe(metrics.OpStoreWrite, time.Now())

	if !validKey(id) {
		return store.NotFound(id)
	}

	results, err := surrealdb.Query[[]roomRecord](ctx, c.db, `
		DELETE type::record("room", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return wrapQueryError("remove room", err)
	}
	if _, ok := firstRoom(results); !ok {
		return store.NotFound(id)
	}
	return nil
}

// AppendChat pushes a chat with `chats +=`, which SurrealDB applies atomically
// within the single-record UPDATE.
func (c *Client) AppendChat(ctx context.Context, roomID string, in models.ChatInput) (*models.Chat, error) {
	defer c.observe(metrics.OpStoreAppend, time.Now())

	if !validKey(roomID) {
		return nil, store.NotFound(roomID)
	}

	chat := models.Chat{
		RoomID:    roomID,
		UserID:    in.UserID,
		Message:   in.Message,
		Sentiment: in.Sentiment,
		CreatedAt: c.clock.Now(),
	}

	results, err := surrealdb.Query[[]struct {
		ID surrealmodels.RecordID `json:"id"`
	}](ctx, c.db, `
		UPDATE type::record("room", $id) SET chats += {
			roomId: $id,
			userId: $user,
			message: $message,
			sentiment: $sentiment,
			created_at: <datetime>$created_at
		} RETURN id
	`, map[string]any{
		"id":         roomID,
		"user":       chat.UserID,
		"message":    chat.Message,
		"sentiment":  string(chat.Sentiment),
		"created_at": chat.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, wrapQueryError("append chat", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, store.NotFound(roomID)
	}
	return &chat, nil
}
