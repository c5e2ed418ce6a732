package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"voice-assistant-be/internal/config"

	"github.com/gorilla/websocket"
)

// ErrConnectFailed marks a failed upstream dial. Fatal for the session.
var ErrConnectFailed = errors.New("upstream connect failed")

// UpstreamLink is the relay's view of the speech model connection.
type UpstreamLink interface {
	Send(v interface{}) error
	Receive() ([]byte, error)
	Close() error
}

// Link wraps the upstream websocket. Writes come from both reader goroutines
// and from tool tasks, so they are serialized; Receive is only ever called
// from the upstream reader loop.
type Link struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (l *Link) Send(v interface{}) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteJSON(v)
}

func (l *Link) Receive() ([]byte, error) {
	_, data, err := l.conn.ReadMessage()
	return data, err
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// RealtimeURL derives the wss endpoint from the configured API base.
func RealtimeURL(cfg config.AzureConfig) (string, error) {
	base, err := url.Parse(cfg.APIBase)
	if err != nil {
		return "", fmt.Errorf("parse azure api base: %w", err)
	}

	switch base.Scheme {
	case "https":
		base.Scheme = "wss"
	case "http":
		base.Scheme = "ws"
	}

	base.Path = strings.TrimSuffix(base.Path, "/") + "/openai/realtime"
	query := url.Values{}
	query.Set("api-version", cfg.RealtimeAPIVersion)
	query.Set("deployment", cfg.RealtimeDeployment)
	base.RawQuery = query.Encode()

	return base.String(), nil
}

// Connect dials the speech model and pushes the initial session configuration
// before handing the link back. A dial or handshake failure is wrapped in
// ErrConnectFailed so callers can treat it as fatal.
func Connect(ctx context.Context, cfg config.AzureConfig, sessionCfg SessionConfig) (*Link, error) {
	endpoint, err := RealtimeURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	header := http.Header{}
	header.Set("api-key", cfg.APIKey)

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: status %d: %v", ErrConnectFailed, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	link := &Link{conn: conn}
	if err := link.Send(newSessionUpdate(sessionCfg)); err != nil {
		link.Close()
		return nil, fmt.Errorf("%w: push session config: %v", ErrConnectFailed, err)
	}
	return link, nil
}
