package ws

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

type closeRequest struct {
	code   int
	reason string
}

// Client is one accepted websocket connection of a room member.
type Client struct {
	id       string
	conn     *websocket.Conn
	room     string
	username string
	limiter  *rate.Limiter

	send    chan []byte
	closing chan closeRequest
	done    chan struct{}
	once    sync.Once
	kicked  atomic.Bool
}

func newClient(conn *websocket.Conn, room, username string, limiter *rate.Limiter) *Client {
	return &Client{
		id:       uuid.NewString(),
		conn:     conn,
		room:     room,
		username: username,
		limiter:  limiter,
		send:     make(chan []byte, sendBuffer),
		closing:  make(chan closeRequest, 1),
		done:     make(chan struct{}),
	}
}

// enqueue never blocks; a full buffer drops the frame.
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		metricDroppedFrames.Inc()
		log.Warn().Str("room", c.room).Str("user", c.username).Str("conn_id", c.id).Msg("ws_frame_dropped")
	}
}

// shutdown asks the writer to flush pending frames and close with code.
func (c *Client) shutdown(code int, reason string) {
	select {
	case c.closing <- closeRequest{code: code, reason: reason}:
	default:
	}
}

func (c *Client) finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readLoop(ctx context.Context, dispatch func(context.Context, *Client, []byte)) {
	defer c.finish()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !c.limiter.Allow() {
			metricEventsLimited.Inc()
			c.enqueue(errorFrame(ErrRateLimited))
			continue
		}
		dispatch(ctx, c, msg)
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		case req := <-c.closing:
			c.flush()
			c.writeClose(req.code, req.reason)
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) write(msg []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeClose(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
