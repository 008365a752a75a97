package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bodhibot/bodhibot-go/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin is enforced upstream in deployments
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 10 * time.Second
	wsPongTimeout  = 30 * time.Second
)

// chatEvent is one server-to-client message on the chat socket. Stage
// events stream while a turn is in flight; exactly one result or error
// event closes out each turn.
type chatEvent struct {
	Event  string              `json:"event"` // "stage", "result" or "error"
	State  service.TurnState   `json:"state,omitempty"`
	Result *service.TurnResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// handleChat upgrades to WebSocket and processes turn requests until the
// client disconnects. Requests on one socket run sequentially; per-user
// ordering across sockets is the orchestrator's concern.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Keep-alive pings; writes are serialized with turn events through
	// writeCh.
	writeCh := make(chan chatEvent, 8)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-writeCh:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					s.logger.Debug("websocket write failed", "error", err)
					cancel()
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		var req turnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		result, err := s.turns.TurnObserved(ctx, req.UserID, req.Text, func(state service.TurnState) {
			select {
			case writeCh <- chatEvent{Event: "stage", State: state}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			select {
			case writeCh <- chatEvent{Event: "error", Error: err.Error()}:
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case writeCh <- chatEvent{Event: "result", Result: &result}:
		case <-ctx.Done():
			return
		}
	}
}
