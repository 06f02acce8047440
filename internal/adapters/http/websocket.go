package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

// SessionWebSocketHandler relays the events of one session to a WebSocket client.
// The first message is the current snapshot; each later message is a session event.
// The client does not need to send anything; reading only detects disconnects.
func SessionWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := c.Params("id")
		log := slog.Default().With("session_id", id, "remote", c.RemoteAddr().String())

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		s, err := deps.Sessions.Get(id)
		if err != nil {
			_ = writeJSON(map[string]string{"error": "session not found"})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub, err := deps.Events.SubscribeSession(ctx, id, func(_ context.Context, ev *domain.SessionEvent) error {
			return writeJSON(ev)
		})
		if err != nil {
			log.Warn("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		if err := writeJSON(s.Snapshot()); err != nil {
			return
		}

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						cancel()
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws client disconnected")
	}
}
