package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
)

// EventMappingChanged is sent whenever the stored mapping changes
const EventMappingChanged = "mapping_changed"

// Sources of a mapping change
const (
	SourcePost = "post"
	SourceFile = "file"
)

// Event is a change notification pushed by the store on WatchPath
type Event struct {
	Type   string `json:"type"`
	Source string `json:"source,omitempty"`
}

const (
	watchHandshakeTimeout = 5 * time.Second
	watchPongWait         = 60 * time.Second
)

// WatchURL returns the websocket URL for the store at baseURL
func WatchURL(baseURL string) string {
	u := NormalizeURL(baseURL)
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + WatchPath
}

// Watch subscribes to change notifications. Events are delivered on the
// returned channel, which is closed when ctx is done or the connection drops.
func (c *Client) Watch(ctx context.Context) (<-chan Event, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: watchHandshakeTimeout,
	}

	url := WatchURL(c.BaseURL)
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, NewHTTPError(resp.StatusCode, "")
		}
		return nil, c.networkError("websocket dial failed", err)
	}

	logging.Debug("Watching store for changes", zap.String("url", url))

	events := make(chan Event, 8)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer func() { _ = conn.Close() }()

		_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(watchPongWait))
		})
		conn.SetPingHandler(func(data string) error {
			_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Warn("Store watch connection lost", zap.String("url", url), zap.Error(err))
				}
				return
			}
			logging.LogWebSocketMessage(url, "received", messageType, data)

			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				logging.Debug("Ignoring malformed watch event", zap.Error(err))
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// String describes the event for status lines
func (e Event) String() string {
	if e.Source == "" {
		return e.Type
	}
	return fmt.Sprintf("%s (%s)", e.Type, e.Source)
}
