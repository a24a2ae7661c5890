package app

import (
	"context"
	"encoding/json"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

type signalRelay struct {
	From    domain.UserID   `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type pong struct {
	ServerTime int64 `json:"serverTime"`
}

// SendChat broadcasts a chat message to the whole room, sender included.
func (c *Coordinator) SendChat(ctx context.Context, sid domain.UserID, content, typ string) error {
	if typ == "" {
		typ = domain.ChatTypeText
	}
	return c.submit(ctx, "send-chat", sid, func() {
		sess, ok := c.store.Session(sid)
		if !ok {
			return
		}
		room, ok := c.store.Room(sess.RoomID)
		if !ok {
			return
		}
		ts := c.now()
		if ts.Before(room.LastChatAt) {
			ts = room.LastChatAt
		}
		room.LastChatAt = ts

		c.transport.EmitRoomAll(room.ID, core.EventChatMessage, domain.ChatMessage{
			ID:         c.ids.MessageID(),
			SenderID:   sid,
			SenderName: sess.Username,
			Content:    content,
			Type:       typ,
			Timestamp:  ts,
		})
	})
}

// SignalOffer, SignalAnswer and SignalICE relay negotiation payloads to one
// connection. The target is not checked for room membership.
func (c *Coordinator) SignalOffer(ctx context.Context, sid, target domain.UserID, payload json.RawMessage) error {
	return c.signal(ctx, sid, target, core.EventSignalOffer, payload)
}

func (c *Coordinator) SignalAnswer(ctx context.Context, sid, target domain.UserID, payload json.RawMessage) error {
	return c.signal(ctx, sid, target, core.EventSignalAnswer, payload)
}

func (c *Coordinator) SignalICE(ctx context.Context, sid, target domain.UserID, payload json.RawMessage) error {
	return c.signal(ctx, sid, target, core.EventSignalICE, payload)
}

func (c *Coordinator) signal(ctx context.Context, sid, target domain.UserID, event string, payload json.RawMessage) error {
	if target == "" {
		return nil
	}
	msg := signalRelay{From: sid, Payload: stateOrNull(normalizeState(payload))}
	return c.submit(ctx, event, sid, func() {
		c.transport.Emit(target, event, msg)
	})
}

// Heartbeat refreshes the caller's liveness and answers with a pong.
// Only the owner's heartbeat keeps the room alive.
func (c *Coordinator) Heartbeat(ctx context.Context, sid domain.UserID) error {
	return c.submit(ctx, "heartbeat", sid, func() {
		now := c.now()
		if sess, ok := c.store.Session(sid); ok {
			if m, ok := c.store.Member(sess.RoomID, sid); ok {
				m.LastHeartbeat = now
			}
			if room, ok := c.store.Room(sess.RoomID); ok && sess.IsOwner {
				room.LastOwnerHeartbeat = now
			}
		}
		c.transport.Emit(sid, core.EventPong, pong{ServerTime: now.UnixMilli()})
	})
}
