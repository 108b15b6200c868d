package device

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/geauxailabs/glassprompt/internal/observability"
	"github.com/geauxailabs/glassprompt/internal/protocol"
)

const (
	helloDeadline = 10 * time.Second
	writeDeadline = 10 * time.Second
	readDeadline  = 120 * time.Second
	readLimit     = 1 << 20
)

const readySplash = "GlassPrompt ready.\n\nSpeak to send prompts.\nChat log visible on phone."

// EventHandler receives device events once a connection is bound to a user.
type EventHandler interface {
	HandleTranscription(ctx context.Context, userID, text string, isFinal bool)
	HandleButtonPress(ctx context.Context, userID, pressClass, sideHint string)
}

// Transport upgrades device websocket connections, binds them to a user via
// the hello handshake, and dispatches inbound events.
type Transport struct {
	registry *Registry
	handler  EventHandler
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func NewTransport(registry *Registry, handler EventHandler, metrics *observability.Metrics, allowAnyOrigin bool) *Transport {
	return &Transport{
		registry: registry,
		handler:  handler,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up. Non-browser device clients omit Origin.
				if allowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// ServeWS handles one device connection for its whole lifetime.
func (t *Transport) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	conn.SetReadLimit(readLimit)

	userID, err := t.awaitHello(conn)
	if err != nil {
		log.Warn().Str("conn_id", connID).Err(err).Msg("device handshake failed")
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		_ = conn.WriteJSON(protocol.ErrorEvent{
			Type:   protocol.TypeErrorEvent,
			Code:   "bad_handshake",
			Detail: "first message must be a hello with user_id",
		})
		_ = conn.Close()
		return
	}

	handle := &wsHandle{conn: conn}
	if old := t.registry.Register(userID, handle); old != nil {
		// Reconnect: drop the stale socket so it does not linger half-open.
		_ = old.Close()
		t.metrics.DeviceEvents.WithLabelValues("replaced").Inc()
	}
	t.metrics.ConnectedDevices.Set(float64(t.registry.Count()))
	t.metrics.DeviceEvents.WithLabelValues("connected").Inc()
	log.Info().Str("conn_id", connID).Str("user_id", userID).Msg("device connected")

	if err := handle.ShowText(readySplash); err != nil {
		t.metrics.DisplayRenders.WithLabelValues("failed").Inc()
	} else {
		t.metrics.DisplayRenders.WithLabelValues("ok").Inc()
	}

	// Events are dispatched on a background context: a disconnect must not
	// abort a turn already in flight against the provider.
	t.readLoop(context.Background(), conn, userID, connID)

	if t.registry.UnregisterIf(userID, handle) {
		t.metrics.ConnectedDevices.Set(float64(t.registry.Count()))
	}
	t.metrics.DeviceEvents.WithLabelValues("disconnected").Inc()
	log.Info().Str("conn_id", connID).Str("user_id", userID).Msg("device disconnected")
	_ = conn.Close()
}

func (t *Transport) awaitHello(conn *websocket.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(helloDeadline))
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseDeviceMessage(data)
		if err != nil {
			return "", err
		}
		hello, ok := parsed.(protocol.Hello)
		if !ok {
			return "", protocol.ErrUnsupportedType
		}
		return strings.TrimSpace(hello.UserID), nil
	}
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn, userID, connID string) {
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseDeviceMessage(data)
		if err != nil {
			t.metrics.DeviceEvents.WithLabelValues("invalid_message").Inc()
			log.Debug().Str("conn_id", connID).Err(err).Msg("dropping invalid device message")
			continue
		}

		switch m := parsed.(type) {
		case protocol.Transcription:
			t.metrics.DeviceEvents.WithLabelValues("transcription").Inc()
			// Dispatch off the read loop: a turn may block on the provider
			// for many seconds and must not stall button events.
			go t.handler.HandleTranscription(ctx, userID, m.Text, m.IsFinal)
		case protocol.ButtonPress:
			t.metrics.DeviceEvents.WithLabelValues("button_press").Inc()
			log.Debug().Str("conn_id", connID).Str("press_class", m.PressClass).Str("side_hint", m.SideHint).Msg("button press")
			go t.handler.HandleButtonPress(ctx, userID, m.PressClass, m.SideHint)
		case protocol.Hello:
			// Duplicate hello after binding: ignore.
		}
	}
}

// wsHandle is the per-connection display handle. Writes are serialized; the
// gorilla connection does not allow concurrent writers.
type wsHandle struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (h *wsHandle) ShowText(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return h.conn.WriteJSON(protocol.DisplayText{Type: protocol.TypeDisplayText, Text: text})
}

func (h *wsHandle) Close() error {
	return h.conn.Close()
}
