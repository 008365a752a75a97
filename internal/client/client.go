// Package client provides an HTTP/WebSocket client for the Bodhibot server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/models"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

// Client talks to a Bodhibot server over its REST and WebSocket endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, BODHIBOT_SERVER_URL is used,
// defaulting to localhost:8791. Timeout is configurable via
// BODHIBOT_CLIENT_TIMEOUT (default 2m; turns wait on LLM calls).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("BODHIBOT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8791"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 2 * time.Minute
	if t := os.Getenv("BODHIBOT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return fmt.Errorf("server error: %s", er.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Turn submits one utterance and returns the composed turn.
func (c *Client) Turn(ctx context.Context, userID, text string) (*service.TurnResult, error) {
	var result service.TurnResult
	err := c.do(ctx, http.MethodPost, "/v1/turn", map[string]string{"user_id": userID, "text": text}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetContext discards the server-side conversation context for a user.
func (c *Client) ResetContext(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/context/"+url.PathEscape(userID), nil, nil)
}

// Suggestions fetches quick-reply options. An empty category returns the
// catalog's top-level entries.
func (c *Client) Suggestions(ctx context.Context, category string) ([]models.QuickReplyOption, error) {
	path := "/v1/suggestions"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var body struct {
		Options []models.QuickReplyOption `json:"options"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Options, nil
}

// Stats fetches the server's metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// chatEvent mirrors the server's chat socket message.
type chatEvent struct {
	Event  string              `json:"event"`
	State  service.TurnState   `json:"state,omitempty"`
	Result *service.TurnResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// ChatSession is a long-lived conversation over the chat WebSocket.
type ChatSession struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Chat opens a WebSocket chat session.
func (c *Client) Chat(ctx context.Context) (*ChatSession, error) {
	wsURL := c.baseURL + "/v1/chat"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &ChatSession{conn: conn}, nil
}

// Turn submits one utterance on the session and blocks until the result
// arrives. onStage, if non-nil, receives pipeline stages as the server
// reports them.
func (s *ChatSession) Turn(ctx context.Context, userID, text string, onStage func(service.TurnState)) (*service.TurnResult, error) {
	if err := s.conn.WriteJSON(map[string]string{"user_id": userID, "text": text}); err != nil {
		return nil, fmt.Errorf("send turn: %w", err)
	}

	// Close the socket on cancellation so the blocking read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	for {
		var ev chatEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read event: %w", err)
		}

		switch ev.Event {
		case "stage":
			if onStage != nil {
				onStage(ev.State)
			}
		case "result":
			if ev.Result == nil {
				return nil, fmt.Errorf("result event with no payload")
			}
			return ev.Result, nil
		case "error":
			return nil, fmt.Errorf("turn failed: %s", ev.Error)
		}
	}
}

// Close shuts the session down. Safe to call more than once.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
