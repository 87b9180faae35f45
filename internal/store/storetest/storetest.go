// Package storetest provides a behavioural test suite every RoomStore backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the RoomStore contract. Backends may share state between
// subtests, so every subtest uses fresh user ids and only asserts on rooms it created.
func Run(t *testing.T, s store.RoomStore) {
	t.Helper()

	t.Run("create then get returns empty chats", func(t *testing.T) { testRoundTrip(t, s) })
	t.Run("get missing room", func(t *testing.T) { testGetMissing(t, s) })
	t.Run("list filters by membership", func(t *testing.T) { testListMembership(t, s) })
	t.Run("update is partial", func(t *testing.T) { testUpdatePartial(t, s) })
	t.Run("update missing room", func(t *testing.T) { testUpdateMissing(t, s) })
	t.Run("remove", func(t *testing.T) { testRemove(t, s) })
	t.Run("append chat", func(t *testing.T) { testAppendChat(t, s) })
	t.Run("append to missing room", func(t *testing.T) { testAppendMissing(t, s) })
	t.Run("concurrent appends are not lost", func(t *testing.T) { testConcurrentAppends(t, s) })
}

func newUser() string {
	return "u-" + uuid.New().String()[:8]
}

func createRoom(t *testing.T, s store.RoomStore, title string, users ...string) string {
	t.Helper()
	members := make([]models.Member, len(users))
	for i, u := range users {
		members[i] = models.Member{ID: u}
	}
	id, err := s.Create(context.Background(), models.RoomInput{Title: title, Users: members})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func roomIDs(rooms []models.Room) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	return ids
}

func testRoundTrip(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	u1, u2 := newUser(), newUser()
	id := createRoom(t, s, "general", u1, u2)

	room, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, room.ID)
	assert.Equal(t, "general", room.Title)
	assert.Equal(t, []models.Member{{ID: u1}, {ID: u2}}, room.Users)
	assert.Empty(t, room.Chats)
}

func testGetMissing(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	for _, id := range []string{"does-not-exist", "%%%", ""} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, "id %q", id)
	}
}

func testListMembership(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	alice, bob, carol := newUser(), newUser(), newUser()
	both := createRoom(t, s, "both", alice, bob)
	onlyBob := createRoom(t, s, "bob", bob)

	rooms, err := s.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{both}, roomIDs(rooms))

	rooms, err = s.List(ctx, bob)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{both, onlyBob}, roomIDs(rooms))

	rooms, err = s.List(ctx, carol)
	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Subset(t, roomIDs(all), []string{both, onlyBob})
}

func testUpdatePartial(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	u1, u2 := newUser(), newUser()
	id := createRoom(t, s, "before", u1)
	_, err := s.AppendChat(ctx, id, models.ChatInput{UserID: u1, Message: "hi", Sentiment: models.SentimentNeutral})
	require.NoError(t, err)

	title := "after"
	room, err := s.Update(ctx, id, models.RoomPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", room.Title)
	assert.Equal(t, []models.Member{{ID: u1}}, room.Users)
	assert.Len(t, room.Chats, 1, "update must not touch chats")

	users := []models.Member{{ID: u1}, {ID: u2, Name: "Bo"}}
	room, err = s.Update(ctx, id, models.RoomPatch{Users: &users})
	require.NoError(t, err)
	assert.Equal(t, "after", room.Title)
	assert.Equal(t, users, room.Users)
	assert.Len(t, room.Chats, 1)
}

func testUpdateMissing(t *testing.T, s store.RoomStore) {
	title := "x"
	_, err := s.Update(context.Background(), "does-not-exist", models.RoomPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRemove(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	id := createRoom(t, s, "doomed", newUser())

	require.NoError(t, s.Remove(ctx, id))

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, id), store.ErrNotFound)
}

func testAppendChat(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	u1 := newUser()
	id := createRoom(t, s, "chatty", u1)

	before := time.Now().Add(-time.Second)
	chat, err := s.AppendChat(ctx, id, models.ChatInput{UserID: u1, Message: "hello", Sentiment: models.SentimentPositive})
	require.NoError(t, err)
	assert.Equal(t, id, chat.RoomID)
	assert.Equal(t, u1, chat.UserID)
	assert.Equal(t, "hello", chat.Message)
	assert.Equal(t, models.SentimentPositive, chat.Sentiment)
	assert.True(t, chat.CreatedAt.After(before), "created_at should be assigned at append time")

	room, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, room.Chats, 1)
	assert.Equal(t, chat.Message, room.Chats[0].Message)
	assert.True(t, chat.CreatedAt.Equal(room.Chats[0].CreatedAt))
}

func testAppendMissing(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	_, err := s.AppendChat(ctx, "does-not-exist", models.ChatInput{UserID: "u", Message: "m"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound, "append must not create a room")
}

func testConcurrentAppends(t *testing.T, s store.RoomStore) {
	ctx := context.Background()
	u1 := newUser()
	id := createRoom(t, s, "busy", u1)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendChat(ctx, id, models.ChatInput{
				UserID:    u1,
				Message:   fmt.Sprintf("msg-%d", i),
				Sentiment: models.SentimentNeutral,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	room, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, room.Chats, n)

	seenMsg := make(map[string]bool, n)
	seenTime := make(map[int64]bool, n)
	for i, c := range room.Chats {
		seenMsg[c.Message] = true
		seenTime[c.CreatedAt.UnixNano()] = true
		if i > 0 {
			assert.False(t, c.CreatedAt.Before(room.Chats[i-1].CreatedAt), "chats must be ordered by created_at")
		}
	}
	assert.Len(t, seenMsg, n, "every message appears exactly once")
	assert.Len(t, seenTime, n, "created_at must be unique")
}
