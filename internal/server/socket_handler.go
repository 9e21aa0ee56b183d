package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	pkgmdw "github.com/nguyentranbao-ct/hds-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/hds-chat/internal/usecase"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamBuffer     = 64
)

// StreamFrame is pushed to stream clients for every cache change.
type StreamFrame struct {
	Kind    string `json:"kind"`
	EventID string `json:"eventId,omitempty"`
	At      int64  `json:"at"`
}

const streamReady = "ready"

type SocketHandler struct {
	session  Session
	changes  ChangeSource
	upgrader websocket.Upgrader
}

func NewSocketHandler(session Session, changes ChangeSource, checkOrigin func(r *http.Request) bool) *SocketHandler {
	return &SocketHandler{
		session: session,
		changes: changes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *SocketHandler) token(r *http.Request) string {
	if token, ok := pkgmdw.BearerToken(r); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// Stream upgrades to a websocket and forwards cache changes until the client
// goes away. Slow clients drop frames instead of blocking the notifier.
func (h *SocketHandler) Stream(c echo.Context) error {
	token := h.token(c.Request())
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	user, _, err := h.session.AuthorizeClaims(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ctx := log.WithFields(c.Request().Context(), "user_id", user.ID)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the client
		log.Warnw(ctx, "stream upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	frames := make(chan StreamFrame, streamBuffer)
	unsubscribe := h.changes.OnChange(func(change usecase.SyncChange) {
		select {
		case frames <- StreamFrame{Kind: string(change.Kind), EventID: change.EventID, At: time.Now().UnixMilli()}:
		default:
			log.Warnw(ctx, "stream client too slow, frame dropped", "kind", change.Kind)
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Infow(ctx, "stream client connected")
	defer log.Infow(ctx, "stream client disconnected")

	if err := h.write(conn, StreamFrame{Kind: streamReady, At: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case frame := <-frames:
			if err := h.write(conn, frame); err != nil {
				log.Debugw(ctx, "stream write failed", "error", err)
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (h *SocketHandler) write(conn *websocket.Conn, frame StreamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(frame)
}
