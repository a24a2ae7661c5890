package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.UserID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the connection is
// unregistered and the coordinator runs its leave routine.
func (ctl *SignalWSController) readPump(
	serverCtx context.Context,
	ctx context.Context,
	cancel context.CancelFunc,
	sid domain.UserID,
	c *WsSignalConn,
) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Hub.Unregister(sid)
		ctl.Limiter.Forget(sid)
		if err := ctl.Coord.Disconnect(serverCtx, sid); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("disconnect")
		}
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	if ctl.Opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(ctx, sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid domain.UserID, c *WsSignalConn, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Event {
	case EventCreateRoom:
		ctl.handleCreateRoom(ctx, sid, c, env)
	case EventJoinRoom:
		ctl.handleJoinRoom(ctx, sid, c, env)
	case EventLeaveRoom:
		ctl.handleLeaveRoom(ctx, sid, c, env)
	case EventListRooms:
		ctl.handleListRooms(ctx, c, env)
	case EventUpdatePlaybackState:
		ctl.forward(ctl.Coord.UpdatePlaybackState(ctx, sid, env.Data), sid, env)
	case EventChangeMedia:
		ctl.forward(ctl.Coord.ChangeMedia(ctx, sid, env.Data), sid, env)
	case EventChangeLiveChannel:
		ctl.forward(ctl.Coord.ChangeLiveChannel(ctx, sid, env.Data), sid, env)
	case EventSeek:
		ctl.forward(ctl.Coord.Seek(ctx, sid, env.Data), sid, env)
	case EventPlay:
		ctl.forward(ctl.Coord.Play(ctx, sid, env.Data), sid, env)
	case EventPause:
		ctl.forward(ctl.Coord.Pause(ctx, sid, env.Data), sid, env)
	case EventClearState:
		ctl.handleClearState(ctx, sid, c, env)
	case EventSendChat:
		ctl.handleSendChat(ctx, sid, env)
	case EventSignalOffer, EventSignalAnswer, EventSignalICE:
		ctl.handleRelay(ctx, sid, env)
	case EventHeartbeat:
		ctl.forward(ctl.Coord.Heartbeat(ctx, sid), sid, env)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("event", env.Event).Msg("unknown event")
	}
}

// forward logs a fire-and-forget event the coordinator could not queue.
// Nothing is reported to the client.
func (ctl *SignalWSController) forward(err error, sid domain.UserID, env Envelope) {
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("event", env.Event).Msg("event not queued")
	}
}
