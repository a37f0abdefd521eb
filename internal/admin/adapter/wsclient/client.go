// Package wsclient follows the notification WebSocket of a running console.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/shared/logger"

	"github.com/fasthttp/websocket"
)

// Options tunes a NotificationClient.
type Options struct {
	// Replay asks the server for up to Replay stored notifications on the
	// first connection only.
	Replay int
	// MaxReconnectAttempts bounds consecutive failed dials. 0 means 5.
	MaxReconnectAttempts int
	// Backoff is multiplied by the attempt number between dials. 0 means 2s.
	Backoff          time.Duration
	HandshakeTimeout time.Duration
}

// NotificationClient reads notification frames and reconnects when the
// connection drops.
type NotificationClient struct {
	url    *url.URL
	dialer *websocket.Dialer
	opts   Options
	log    logger.Logger
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewNotificationClient validates serverURL, which must be ws:// or wss://.
func NewNotificationClient(serverURL string, opts Options, log logger.Logger) (*NotificationClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be ws or wss", serverURL)
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &NotificationClient{
		url: u,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		opts: opts,
		log:  log.WithComponent("notification_client"),
	}, nil
}

// Listen calls handle for every notification until ctx is done, returning
// nil in that case. It returns the last dial error once reconnect attempts
// are exhausted.
func (c *NotificationClient) Listen(ctx context.Context, handle func(model.Notification)) error {
	attempts := 0
	first := true
	for {
		conn, err := c.dial(ctx, first)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			attempts++
			if attempts >= c.opts.MaxReconnectAttempts {
				return fmt.Errorf("failed to connect to %s after %d attempts: %w", c.url.Redacted(), attempts, err)
			}
			wait := time.Duration(attempts) * c.opts.Backoff
			c.log.WithFields(map[string]interface{}{"attempt": attempts, "backoff": wait.String()}).
				Warnf("Dial failed, retrying: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		first = false
		attempts = 0
		c.log.Infof("Connected to %s", c.url.Redacted())

		err = c.read(ctx, conn, handle)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warnf("Connection lost: %v", err)
	}
}

func (c *NotificationClient) dial(ctx context.Context, first bool) (*websocket.Conn, error) {
	u := *c.url
	if first && c.opts.Replay > 0 {
		q := u.Query()
		q.Set("replay", strconv.Itoa(c.opts.Replay))
		u.RawQuery = q.Encode()
	}
	headers := http.Header{"User-Agent": {"adminctl/1.0"}}
	conn, _, err := c.dialer.DialContext(ctx, u.String(), headers)
	return conn, err
}

func (c *NotificationClient) read(ctx context.Context, conn *websocket.Conn, handle func(model.Notification)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		if f.Type != "notification" {
			c.log.Debugf("Ignoring %q frame", f.Type)
			continue
		}
		var n model.Notification
		if err := json.Unmarshal(f.Data, &n); err != nil {
			c.log.Warnf("Malformed notification: %v", err)
			continue
		}
		handle(n)
	}
}
