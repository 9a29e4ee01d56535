// Package wsclient implements the client side of the classroom data
// channel over a dialed websocket. It satisfies core.DataChannel: the
// session controller publishes through it and subscribes to the raw
// payloads the relay fans out.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
)

var ErrClosed = errors.New("channel closed")

const joinTimeout = 10 * time.Second

// RoomState is the snapshot the relay returns on join.
type RoomState struct {
	Type     string           `json:"type"`
	Room     domain.RoomName  `json:"room"`
	You      domain.User      `json:"you"`
	Members  []core.MemberDTO `json:"members"`
	Count    int              `json:"count"`
	NoticeMs int64            `json:"noticeMs"`
}

// NoticeDuration is how long the relay wants notices shown; zero when
// the relay does not advertise one.
func (s *RoomState) NoticeDuration() time.Duration {
	return time.Duration(s.NoticeMs) * time.Millisecond
}

// Channel is one websocket connection to the relay. Inbound frames go
// to every subscriber; interpretation is the subscriber's job.
type Channel struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	subs    map[uint64]func([]byte)
	nextSub uint64
	closed  bool
}

// Dial connects to the relay's class endpoint and starts the pumps.
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Channel{
		conn: conn,
		send: make(chan []byte, 32),
		subs: make(map[uint64]func([]byte)),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

// Join enters a room and waits for the relay's room_state snapshot,
// which carries the identity grants will be addressed to.
func (c *Channel) Join(ctx context.Context, room, name string, role domain.Role) (*RoomState, error) {
	stateCh := make(chan *RoomState, 1)
	unsubscribe := c.Subscribe(func(payload []byte) {
		var st RoomState
		if err := json.Unmarshal(payload, &st); err != nil || st.Type != "room_state" {
			return
		}
		select {
		case stateCh <- &st:
		default:
		}
	})
	defer unsubscribe()

	req, err := json.Marshal(map[string]any{
		"type": "join",
		"room": room,
		"name": name,
		"role": string(role),
	})
	if err != nil {
		return nil, err
	}
	if err := c.enqueue(ctx, req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	select {
	case st := <-stateCh:
		return st, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("join %s: %w", room, ctx.Err())
	}
}

// Leave exits the current room without closing the connection.
func (c *Channel) Leave(ctx context.Context) error {
	return c.enqueue(ctx, []byte(`{"type":"leave"}`))
}

// Publish wraps payload in a data envelope for the relay. The
// websocket is an ordered reliable stream, so both delivery modes map
// onto it; the option is honored by transports that can drop.
func (c *Channel) Publish(ctx context.Context, payload []byte, _ core.PublishOptions) error {
	env, err := json.Marshal(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{"data", payload})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, env)
}

// Subscribe registers handler for every inbound frame. Handlers run
// on the read loop; the returned func removes the subscription.
func (c *Channel) Subscribe(handler func(payload []byte)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// enqueue holds the read lock across the send so Close cannot close
// the queue underneath a blocked writer.
func (c *Channel) enqueue(ctx context.Context, frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) writePump() {
	for frame := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			log.Error().Err(err).Str("module", "wsclient").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Error().Err(err).Str("module", "wsclient").Msg("writePump write error")
			return
		}
	}
}

func (c *Channel) readPump() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "wsclient").Msg("readPump closing")
			return
		}
		c.mu.RLock()
		handlers := make([]func([]byte), 0, len(c.subs))
		for _, h := range c.subs {
			handlers = append(handlers, h)
		}
		c.mu.RUnlock()
		for _, h := range handlers {
			h(data)
		}
	}
}

// Close tears the connection down. Pending Publish calls fail with
// ErrClosed.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}
