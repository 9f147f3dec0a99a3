package transport

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"kitchen-display/internal/kitchen"
	"kitchen-display/internal/logger"
)

const (
	wsReadLimit   = 1 << 20
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = 25 * time.Second
	wsDialTimeout = 10 * time.Second
)

type WebSocketConfig struct {
	// URL is the backend's push endpoint, e.g. wss://host/api/kitchen/events.
	URL   string
	Token string
}

// WebSocket consumes {type, data} JSON frames from a backend socket
// endpoint. Same contract as the AMQP transport: frames plus connectivity.
type WebSocket struct {
	cfg    WebSocketConfig
	lg     *logger.Logger
	frames chan []byte
	states chan kitchen.Connectivity
}

func NewWebSocket(cfg WebSocketConfig, lg *logger.Logger) *WebSocket {
	return &WebSocket{
		cfg:    cfg,
		lg:     lg,
		frames: make(chan []byte, frameBuffer),
		states: make(chan kitchen.Connectivity, 4),
	}
}

func (t *WebSocket) Frames() <-chan []byte               { return t.frames }
func (t *WebSocket) States() <-chan kitchen.Connectivity { return t.states }

func (t *WebSocket) Run(ctx context.Context) error {
	defer close(t.frames)
	defer close(t.states)

	backoff := initialBackoff
	for {
		if !t.setState(ctx, kitchen.Connecting) {
			return ctx.Err()
		}
		conn, err := t.dial(ctx)
		if err != nil {
			t.lg.Error("ws_dial_failed", err, map[string]any{"url": t.cfg.URL})
			if !t.setState(ctx, kitchen.Degraded) {
				return ctx.Err()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff
		if !t.setState(ctx, kitchen.Open) {
			_ = conn.Close()
			return ctx.Err()
		}

		if err := t.read(ctx, conn); err != nil && ctx.Err() != nil {
			_ = conn.Close()
			return ctx.Err()
		}
		_ = conn.Close()
		if !t.setState(ctx, kitchen.Degraded) {
			return ctx.Err()
		}
	}
}

func (t *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, wsDialTimeout)
	defer cancel()
	header := map[string][]string{}
	if t.cfg.Token != "" {
		header["Authorization"] = []string{"Bearer " + t.cfg.Token}
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, t.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// read pumps frames until the socket errors. A ping ticker keeps middleboxes
// from silently dropping the idle connection.
func (t *WebSocket) read(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				// Unblocks the ReadMessage below.
				_ = conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				t.lg.Error("ws_read_failed", err, nil)
			}
			return err
		}
		select {
		case t.frames <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *WebSocket) setState(ctx context.Context, st kitchen.Connectivity) bool {
	select {
	case t.states <- st:
		return true
	case <-ctx.Done():
		return false
	}
}
