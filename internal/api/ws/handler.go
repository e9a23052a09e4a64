package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/api/middleware"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/window"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.LoopbackOrigin(origin)
	},
}

// Gauge counts open streams.
type Gauge interface {
	IncWSConnections()
	DecWSConnections()
}

type nopGauge struct{}

func (nopGauge) IncWSConnections() {}
func (nopGauge) DecWSConnections() {}

// Message is what the server writes to a stream.
type Message struct {
	Type         string               `json:"type"`
	Notification *window.Notification `json:"notification,omitempty"`
	State        *window.State        `json:"state,omitempty"`
	Message      string               `json:"message,omitempty"`
	Timestamp    int64                `json:"timestamp"`
}

type inbound struct {
	Type string `json:"type"`
}

// Handler streams window changes over WebSocket connections
type Handler struct {
	windows *window.Manager
	gauge   Gauge
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(windows *window.Manager, gauge Gauge, logger *zap.Logger) *Handler {
	if gauge == nil {
		gauge = nopGauge{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{windows: windows, gauge: gauge, logger: logger}
}

// HandleConnection upgrades the request and streams the window named by
// :wid until the client leaves or the window closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	w, err := h.windows.Get(id.WindowID(c.Param("wid")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.gauge.IncWSConnections()
	defer h.gauge.DecWSConnections()

	logger := h.logger.With(zap.String("window_id", w.ID().String()))
	logger.Debug("stream opened")
	defer logger.Debug("stream closed")

	notes, cancel := w.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	if err := h.sendState(ctx, conn, w); err != nil {
		return
	}

	pings := make(chan struct{}, 1)
	gone := make(chan struct{})
	go h.read(conn, pings, gone)

	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case <-pings:
			if err := send(conn, Message{Type: "pong"}); err != nil {
				return
			}
		case n, ok := <-notes:
			if !ok || n.Kind == window.NotifyClosed {
				send(conn, Message{Type: "closed"})
				return
			}
			if err := send(conn, Message{Type: "notification", Notification: &n}); err != nil {
				return
			}
			if err := h.sendState(ctx, conn, w); err != nil {
				return
			}
		}
	}
}

// read handles client frames. Only pings are understood.
func (h *Handler) read(conn *websocket.Conn, pings chan<- struct{}, gone chan<- struct{}) {
	defer close(gone)
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "ping" {
			continue
		}
		select {
		case pings <- struct{}{}:
		default:
		}
	}
}

func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn, w *window.Window) error {
	var st window.State
	err := w.Do(ctx, func(ctx context.Context) error {
		st = w.Snapshot(ctx)
		return nil
	})
	if errors.Is(err, window.ErrWindowClosed) {
		send(conn, Message{Type: "closed"})
		return err
	}
	if err != nil {
		send(conn, Message{Type: "error", Message: err.Error()})
		return err
	}
	return send(conn, Message{Type: "state", State: &st})
}

func send(conn *websocket.Conn, msg Message) error {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}
