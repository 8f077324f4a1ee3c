package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ChatSession is one assistant conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AgentMode bool      `json:"agent_mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one message in a session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	// MemoryIDs references timeline items/episodes cited by the assistant.
	MemoryIDs []string `json:"memory_ids,omitempty"`
}

// Sessions lists the user's chat sessions.
func (c *Client) Sessions(ctx context.Context) ([]ChatSession, error) {
	var result struct {
		Sessions []ChatSession `json:"sessions"`
	}
	if err := c.do(ctx, "GET", "/sessions", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return result.Sessions, nil
}

// CreateSession starts a new chat session.
func (c *Client) CreateSession(ctx context.Context, title string, agentMode bool) (*ChatSession, error) {
	body := map[string]any{"title": title, "agent_mode": agentMode}
	var result ChatSession
	if err := c.do(ctx, "POST", "/sessions", nil, body, &result); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &result, nil
}

// SessionMessages fetches the message history of a session.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	var result struct {
		Messages []ChatMessage `json:"messages"`
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, "GET", path, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return result.Messages, nil
}

// chatFrame is one streamed chunk of an assistant reply.
type chatFrame struct {
	Delta     string   `json:"delta"`
	Done      bool     `json:"done"`
	Error     *string  `json:"error,omitempty"`
	MemoryIDs []string `json:"memory_ids,omitempty"`
}

// chatRequest opens a streamed exchange over the websocket.
type chatRequest struct {
	ClientMessageID string `json:"client_message_id"`
	SessionID       string `json:"session_id"`
	Message         string `json:"message"`
	AgentMode       bool   `json:"agent_mode"`
}

// ChatStream sends a message and streams the assistant's reply chunk by
// chunk. onDelta is invoked for each chunk; returning an error from it
// aborts the stream. The returned ids reference memories the assistant
// cited, for cross-view focus navigation.
func (c *Client) ChatStream(
	ctx context.Context,
	sessionID, message string,
	agentMode bool,
	onDelta func(delta string) error,
) ([]string, error) {
	wsURL := c.baseURL + "/chat"
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
	defer conn.Close()

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	req := chatRequest{
		ClientMessageID: uuid.New().String(),
		SessionID:       sessionID,
		Message:         message,
		AgentMode:       agentMode,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}

	// Close the connection when the context is cancelled so ReadJSON
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	var memoryIDs []string
	for {
		var frame chatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return memoryIDs, ctx.Err()
			}
			return memoryIDs, fmt.Errorf("read chat frame: %w", err)
		}

		if frame.Error != nil {
			return memoryIDs, fmt.Errorf("chat error: %s", *frame.Error)
		}

		if frame.Delta != "" {
			if err := onDelta(frame.Delta); err != nil {
				return memoryIDs, err
			}
		}
		if len(frame.MemoryIDs) > 0 {
			memoryIDs = append(memoryIDs, frame.MemoryIDs...)
		}

		if frame.Done {
			return memoryIDs, nil
		}
	}
}
