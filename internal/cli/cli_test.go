package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/chatroom-go/internal/classify"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/server"
	"github.com/raphaelgruber/chatroom-go/internal/service"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keywordClassifier struct{}

func (keywordClassifier) Classify(_ context.Context, text string, kind classify.Kind) (*classify.Result, error) {
	if kind == classify.KindModeration {
		flagged := strings.Contains(text, "worst")
		res := &classify.Result{Kind: kind, Flagged: flagged, Scores: map[string]float64{"harassment": 0.2}}
		if flagged {
			res.Categories = []string{"harassment"}
		}
		return res, nil
	}
	if strings.Contains(text, "great") {
		return &classify.Result{Kind: kind, Sentiment: models.SentimentPositive}, nil
	}
	return &classify.Result{Kind: kind, Sentiment: models.SentimentNeutral}, nil
}

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewRoomService(store.NewMemory(), keywordClassifier{}, logger)
	srv := server.New(svc, nil, logger, server.Options{Version: "test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Close)
	return ts.URL
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, url, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--server", url}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func createTestRoom(t *testing.T, url, title, users string) models.Room {
	t.Helper()
	out, err := run(t, url, "", "rooms", "create", title, "--users", users, "--json")
	require.NoError(t, err, out)

	var room models.Room
	require.NoError(t, json.Unmarshal([]byte(out), &room))
	return room
}

func TestRoomsWorkflow(t *testing.T) {
	url := startServer(t)

	room := createTestRoom(t, url, "general", "u1:Alice,u2")
	assert.Equal(t, "general", room.Title)
	assert.Equal(t, []models.Member{{ID: "u1", Name: "Alice"}, {ID: "u2"}}, room.Users)

	out, err := run(t, url, "", "send", room.ID, "--user", "u1", "this", "is", "great")
	require.NoError(t, err, out)
	assert.Contains(t, out, "u1: this is great [positive]")

	out, err = run(t, url, "", "rooms", "get", room.ID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "Alice (u1), u2")
	assert.Contains(t, out, "this is great [positive]")

	out, err = run(t, url, "", "rooms", "list", "--user", "u2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Found 1 rooms")
	assert.Contains(t, out, "chats: 1")

	out, err = run(t, url, "", "rooms", "list", "--user", "nobody")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No rooms found.")

	out, err = run(t, url, "", "rooms", "update", room.ID, "--title", "random")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Updated room: random")
}

func TestRoomsListJSON(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "", "rooms", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestRoomsCreateValidation(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "", "rooms", "create", "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")
}

func TestRoomsUpdateNeedsFlags(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "", "rooms", "update", "any")
	assert.ErrorContains(t, err, "nothing to update")
}

func TestRoomsDeleteConfirmation(t *testing.T) {
	url := startServer(t)
	room := createTestRoom(t, url, "doomed", "u1")

	out, err := run(t, url, "n\n", "rooms", "delete", room.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = run(t, url, "y\n", "rooms", "delete", room.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: doomed")

	_, err = run(t, url, "", "rooms", "get", room.ID)
	assert.ErrorContains(t, err, "room not found")

	_, err = run(t, url, "", "rooms", "delete", room.ID, "--force")
	assert.ErrorContains(t, err, "room not found")
}

func TestSendRequiresUser(t *testing.T) {
	url := startServer(t)
	room := createTestRoom(t, url, "r", "u1")

	_, err := run(t, url, "", "send", room.ID, "hello")
	assert.ErrorContains(t, err, "user")
}

func TestSendToMissingRoom(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "", "send", "missing", "-u", "u1", "hello")
	assert.ErrorContains(t, err, "Not Found")
}

func TestModerateAndClassify(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "", "moderate", "you", "are", "the", "worst")
	require.NoError(t, err, out)
	assert.Contains(t, out, "moderation: flagged")
	assert.Contains(t, out, "categories: harassment")

	out, err = run(t, url, "", "moderate", "--verbose", "hello")
	require.NoError(t, err, out)
	assert.Contains(t, out, "moderation: clean")
	assert.Contains(t, out, "harassment")

	out, err = run(t, url, "", "classify", "a", "great", "day")
	require.NoError(t, err, out)
	assert.Contains(t, out, "sentiment: positive")

	out, err = run(t, url, "", "classify", "--kind", "moderation", "--json", "the worst")
	require.NoError(t, err, out)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "flagged", res["label"])
}

func TestStatsAndVersion(t *testing.T) {
	url := startServer(t)
	room := createTestRoom(t, url, "r", "u1")
	_, err := run(t, url, "", "send", room.ID, "-u", "u1", "hi")
	require.NoError(t, err)

	out, err := run(t, url, "", "stats")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Server Statistics")
	assert.Contains(t, out, "Degraded sends: 0")

	out, err = run(t, url, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chatroom "+Version)
	assert.Contains(t, out, "server: test")
}

func TestParseMembers(t *testing.T) {
	assert.Nil(t, parseMembers(""))
	assert.Equal(t, []models.Member{
		{ID: "u1", Name: "Alice", Role: "owner"},
		{ID: "u2"},
	}, parseMembers(" u1:Alice:owner , u2,"))
}
