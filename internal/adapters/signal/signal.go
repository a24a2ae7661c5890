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

	"github.com/dkeye/WatchTogether/internal/app"
	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
)

// ConnectionIDs hands out transport connection ids.
type ConnectionIDs interface {
	ConnectionID() domain.UserID
}

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
}

type SignalWSController struct {
	Coord   *app.Coordinator
	Hub     *Hub
	IDs     ConnectionIDs
	Limiter *JoinRateLimiter
	Opts    Options
}

func NewSignalWSController(coord *app.Coordinator, hub *Hub, ids ConnectionIDs, limiter *JoinRateLimiter, opts Options) *SignalWSController {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	return &SignalWSController{
		Coord:   coord,
		Hub:     hub,
		IDs:     ids,
		Limiter: limiter,
		Opts:    opts,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type connected struct {
	ID domain.UserID `json:"id"`
}

// HandleSignal upgrades an already authenticated request and starts the
// connection pumps. ctx is the server lifetime.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := ctl.IDs.ConnectionID()
	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendQueueSize),
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	ctl.Hub.Register(sid, conn)
	ctl.Hub.Emit(sid, core.EventConnected, connected{ID: sid})

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, sid, conn)
	go ctl.readPump(ctx, connCtx, cancel, sid, conn)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, event string, ack *int64, v any) {
	frame, err := encode(event, ack, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}

// reply answers a request that asked for an ack; requests without one get
// nothing back.
func (ctl *SignalWSController) reply(c *WsSignalConn, env Envelope, v any) {
	if env.Ack == nil {
		return
	}
	ctl.sendJSON(c, eventAck, env.Ack, v)
}

func (ctl *SignalWSController) fail(c *WsSignalConn, env Envelope, code string) {
	ctl.reply(c, env, ackFailure{Success: false, Error: code})
}
