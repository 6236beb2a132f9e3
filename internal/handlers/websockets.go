package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"sprinkler_client/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

const wsTypeZones = "zones"

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The operator console is served from anywhere on the local network.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// zoneStream pushes registry snapshots to one operator console. The
// registry is polled every interval and a frame goes out only when the
// snapshot changed; pings keep idle connections alive.
type zoneStream struct {
	conn     *websocket.Conn
	list     func(context.Context) []models.ZoneSnapshot
	interval time.Duration
	last     []byte
}

func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &zoneStream{conn: conn, list: h.services.Zones.List, interval: interval}
	if err := s.run(c.Request.Context()); err != nil && h.log != nil {
		h.log.Infow("ws_stream_closed", "err", err)
	}
}

func (s *zoneStream) run(ctx context.Context) error {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan error, 1)
	go s.drain(closed)

	if err := s.push(ctx); err != nil {
		return err
	}

	poll := time.NewTicker(s.interval)
	ping := time.NewTicker(pingPeriod)
	defer poll.Stop()
	defer ping.Stop()

	for {
		select {
		case err := <-closed:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-poll.C:
			if err := s.push(ctx); err != nil {
				return err
			}
		}
	}
}

// drain reads until the peer goes away so control frames are processed.
func (s *zoneStream) drain(closed chan<- error) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			closed <- err
			return
		}
	}
}

// push sends the current snapshot unless it equals the last one sent.
func (s *zoneStream) push(ctx context.Context) error {
	zones := s.list(ctx)
	if zones == nil {
		zones = []models.ZoneSnapshot{}
	}
	frame, err := json.Marshal(wsEnvelope{Type: wsTypeZones, Data: zones})
	if err != nil {
		return err
	}
	if s.last != nil && bytes.Equal(frame, s.last) {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return err
	}
	s.last = frame
	return nil
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 within bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}
