package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/kpetrou/villago/internal/pkg/metrics"
)

// wsMessage narrows or widens a client's demand feed.
// {"action":"subscribe","village":"lefkara"} — empty village means all.
type wsMessage struct {
	Action  string `json:"action"` // "subscribe" | "unsubscribe"
	Village string `json:"village"`
}

type subscription interface {
	Unsubscribe() error
}

// openFeeds subscribes to each subject in order. When a later subject fails,
// the earlier subscriptions are undone so none outlive the error.
func openFeeds(subjects []string, subscribe func(subject string) (subscription, error)) (map[string]subscription, error) {
	subs := make(map[string]subscription, len(subjects))
	for _, subject := range subjects {
		sub, err := subscribe(subject)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs[subject] = sub
	}
	return subs, nil
}

// WebSocketHandler relays demand events from NATS to the connected client.
// Every client starts on the full feed; village-scoped subscriptions narrow
// what else it receives.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Debug("ws client connected", "remote", remoteAddr)

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

		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		const allDemand = "demand.recorded.>"
		subs, err := openFeeds([]string{allDemand, "demand.updates.broadcast"}, func(subject string) (subscription, error) {
			return nc.Subscribe(subject, relay)
		})
		if err != nil {
			slog.Warn("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping.
		done := make(chan struct{})
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
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject := allDemand
			if m.Village != "" {
				subject = "demand.recorded." + m.Village
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				s, exists := subs[subject]
				if !exists {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Debug("ws client disconnected", "remote", remoteAddr)
	}
}
