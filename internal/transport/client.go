package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/orrery/internal/publish"
)

// Client is a remote viewer: it reads a server's stream and turns moved
// envelopes back into events.
type Client struct {
	conn    *websocket.Conn
	welcome Welcome
	events  chan publish.Event
	log     *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to url and waits for the server's welcome. buffer bounds
// the events queued for a slow reader; when full the client blocks reading
// the socket rather than dropping.
func Dial(ctx context.Context, url string, buffer int, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = publish.DefaultBuffer
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	conn.SetReadLimit(readLimit)

	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	_, b, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: read welcome: %w", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if env.T != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("transport: expected %q, got %q", MsgWelcome, env.T)
	}
	welcome, err := DecodePayload[Welcome](env)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{
		conn:    conn,
		welcome: welcome,
		events:  make(chan publish.Event, buffer),
		log:     log.With("server", url),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Welcome() Welcome { return c.welcome }

// Events is closed when the connection ends.
func (c *Client) Events() <-chan publish.Event { return c.events }

func (c *Client) readLoop() {
	defer close(c.events)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway) {
				c.log.Info("server stopped streaming")
			} else if !c.closed() {
				c.log.Warn("stream read failed", "err", err)
			}
			return
		}

		env, err := DecodeEnvelope(b)
		if err != nil {
			c.log.Warn("bad frame", "err", err)
			continue
		}
		if env.T != MsgMoved {
			c.log.Debug("frame ignored", "type", env.T)
			continue
		}
		ev, err := DecodePayload[publish.Event](env)
		if err != nil {
			c.log.Warn("bad moved payload", "err", err)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close ends the connection. Events drains and closes shortly after.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}
