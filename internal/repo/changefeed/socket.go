package changefeed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

type frame struct {
	Name string `json:"name"`
}

// Socket listens on the platform push socket. Frames are JSON objects whose
// name is the change kind; unknown kinds are ignored.
type Socket struct {
	target Target
	dialer *websocket.Dialer
}

func NewSocket(t Target) *Socket {
	return &Socket{target: t, dialer: websocket.DefaultDialer}
}

// URL derives the socket url from the api endpoint.
func (s *Socket) URL() (string, error) {
	u, err := url.Parse(s.target.Base)
	if err != nil {
		return "", fmt.Errorf("parse api endpoint: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "socket.io/"
	q := u.Query()
	q.Set("auth", s.target.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Socket) Run(ctx context.Context, notify func(Kind)) error {
	addr, err := s.URL()
	if err != nil {
		return err
	}
	conn, _, err := s.dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial change socket: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, conn, done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// changes may have happened before the socket was up
	notify(EventsChanged)
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("change socket closed by server")
			}
			return fmt.Errorf("read change socket: %w", err)
		}
		kind := Kind(f.Name)
		if !kind.Valid() {
			log.Debugw(ctx, "ignoring change socket frame", "name", f.Name)
			continue
		}
		notify(kind)
	}
}

// keepAlive pings the server and closes the connection when ctx is done, which
// unblocks the read loop.
func (s *Socket) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
