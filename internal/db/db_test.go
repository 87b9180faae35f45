//go:build integration

// Package db provides integration tests for the SurrealDB room store.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testCollector *metrics.Collector

// TestMain starts one SurrealDB container for the whole package.
func TestMain(m *testing.M) {
	// Ryuk is unreliable in some CI environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// testcontainers may report "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testCollector = metrics.NewCollector()
	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, testCollector)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)

	os.Exit(code)
}

func TestRoomStoreConformance(t *testing.T) {
	storetest.Run(t, testDB)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	require.NoError(t, testDB.InitSchema(context.Background()))
}

func TestChatTimestampsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	id, err := testDB.Create(ctx, models.RoomInput{Title: "ts", Users: []models.Member{{ID: "u1"}}})
	require.NoError(t, err)

	first, err := testDB.AppendChat(ctx, id, models.ChatInput{UserID: "u1", Message: "one", Sentiment: models.SentimentNeutral})
	require.NoError(t, err)
	second, err := testDB.AppendChat(ctx, id, models.ChatInput{UserID: "u1", Message: "two", Sentiment: models.SentimentNegative})
	require.NoError(t, err)
	require.True(t, second.CreatedAt.After(first.CreatedAt))

	room, err := testDB.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, room.Chats, 2)
	assert.True(t, room.Chats[0].CreatedAt.Equal(first.CreatedAt))
	assert.True(t, room.Chats[1].CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, models.SentimentNegative, room.Chats[1].Sentiment)
}

func TestStoreOperationsAreTimed(t *testing.T) {
	_, err := testDB.List(context.Background(), "")
	require.NoError(t, err)

	snap := testCollector.Snapshot()
	require.Contains(t, snap.Operations, metrics.OpStoreRead)
	assert.Positive(t, snap.Operations[metrics.OpStoreRead].Count)
}

func TestWipeData(t *testing.T) {
	ctx := context.Background()
	_, err := testDB.Create(ctx, models.RoomInput{Title: "wipe-me", Users: []models.Member{{ID: "u"}}})
	require.NoError(t, err)

	require.NoError(t, testDB.WipeData(ctx))

	rooms, err := testDB.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
