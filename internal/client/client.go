// Package client provides a REST client for the chatroom server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
)

// Client talks to the chatroom HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses CHATROOM_SERVER_URL or defaults to localhost:3000.
// Timeout can be configured via CHATROOM_CLIENT_TIMEOUT (default 30s).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("CHATROOM_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("CHATROOM_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Field   string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", http.StatusText(e.Status), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.Status), e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Classification is the server's answer to a moderation or classify request.
type Classification struct {
	Kind       string             `json:"kind"`
	Label      string             `json:"label"`
	Sentiment  models.Sentiment   `json:"sentiment,omitempty"`
	Flagged    bool               `json:"flagged"`
	Categories []string           `json:"categories,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// do sends a JSON request and decodes a JSON response into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func roomPath(id string) string {
	return "/api/rooms/" + url.PathEscape(id)
}

// =============================================================================
// Rooms
// =============================================================================

// ListRooms returns all rooms, or only those userID belongs to.
func (c *Client) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	path := "/api/rooms"
	if userID != "" {
		path += "?" + url.Values{"userId": {userID}}.Encode()
	}
	var rooms []models.Room
	if err := c.do(ctx, http.MethodGet, path, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodGet, roomPath(id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateRoom(ctx context.Context, in models.RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodPost, "/api/rooms", in, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodPatch, roomPath(id), patch, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, roomPath(id), nil, nil)
}

// =============================================================================
// Chats and classification
// =============================================================================

// SendMessage posts a chat and returns it with its assigned sentiment and timestamp.
func (c *Client) SendMessage(ctx context.Context, roomID, userID, message string) (*models.Chat, error) {
	var chat models.Chat
	payload := map[string]string{"userId": userID, "message": message}
	if err := c.do(ctx, http.MethodPost, roomPath(roomID)+"/chats", payload, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) Moderate(ctx context.Context, text string) (*Classification, error) {
	var out Classification
	if err := c.do(ctx, http.MethodPost, "/api/moderations", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Classify runs a sentiment or moderation classification. An empty kind means sentiment.
func (c *Client) Classify(ctx context.Context, text, kind string) (*Classification, error) {
	var out Classification
	payload := map[string]string{"text": text, "kind": kind}
	if err := c.do(ctx, http.MethodPost, "/api/classify", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Server
// =============================================================================

func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health returns the server version when it is reachable.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}
