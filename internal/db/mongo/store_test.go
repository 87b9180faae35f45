//go:build integration

package mongo

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"github.com/raphaelgruber/chatroom-go/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testStore *Store

func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := container.MappedPort(ctx, "27017")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = NewStore(ctx, Config{
		URL:      fmt.Sprintf("mongodb://%s:%s", host, mappedPort.Port()),
		Database: "chatroom_test",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = container.Terminate(ctx)

	os.Exit(code)
}

func TestRoomStoreConformance(t *testing.T) {
	storetest.Run(t, testStore)
}

func TestMalformedObjectIDIsNotFound(t *testing.T) {
	_, err := testStore.Get(context.Background(), "zzzzzzzzzzzzzzzzzzzzzzzz")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWipeData(t *testing.T) {
	ctx := context.Background()
	_, err := testStore.Create(ctx, models.RoomInput{Title: "wipe-me", Users: []models.Member{{ID: "u"}}})
	require.NoError(t, err)

	require.NoError(t, testStore.WipeData(ctx))

	rooms, err := testStore.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
