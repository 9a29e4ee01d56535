// Package signal is the server side of the classroom data channel:
// one websocket per client, fan-out through the orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/app"
	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type ClassWSController struct {
	Orch *app.Orchestrator

	// NoticeDur is advertised to clients in the room_state snapshot so
	// their sessions expire notices on the server's schedule.
	NoticeDur time.Duration
}

func NewClassWSController(orch *app.Orchestrator, noticeDur time.Duration) *ClassWSController {
	return &ClassWSController{Orch: orch, NoticeDur: noticeDur}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (ctl *ClassWSController) BroadcastFrom(sid core.SessionID, v any) {
	for _, roomMate := range ctl.Orch.Registry.RoomMates(sid) {
		ctl.sendJSON(roomMate.Session.Signal(), v)
	}
}

func (ctl *ClassWSController) BroadcastRoom(name domain.RoomName, v any) {
	for _, snap := range ctl.Orch.Registry.MembersOfRoom(name) {
		ctl.sendJSON(snap.Session.Signal(), v)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *ClassWSController) HandleClass(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	meta := domain.NewMember(user)
	sess := core.NewMemberSession(meta).UpdateSignal(conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
