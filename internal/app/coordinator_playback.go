package app

import (
	"bytes"
	"context"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

type stateCleared struct {
	RoomID domain.RoomID `json:"roomId"`
}

// UpdatePlaybackState stores the owner's player state and forwards it to
// the rest of the room. Calls from anyone but the owner are dropped.
func (c *Coordinator) UpdatePlaybackState(ctx context.Context, sid domain.UserID, state domain.PlaybackState) error {
	return c.ownerUpdate(ctx, sid, core.EventPlaybackUpdated, state)
}

// ChangeMedia follows the same rule as UpdatePlaybackState.
func (c *Coordinator) ChangeMedia(ctx context.Context, sid domain.UserID, state domain.PlaybackState) error {
	return c.ownerUpdate(ctx, sid, core.EventMediaChanged, state)
}

// ChangeLiveChannel follows the same rule as UpdatePlaybackState.
func (c *Coordinator) ChangeLiveChannel(ctx context.Context, sid domain.UserID, state domain.PlaybackState) error {
	return c.ownerUpdate(ctx, sid, core.EventLiveChannelChanged, state)
}

func (c *Coordinator) ownerUpdate(ctx context.Context, sid domain.UserID, event string, state domain.PlaybackState) error {
	state = normalizeState(state)
	return c.submit(ctx, event, sid, func() {
		sess, ok := c.store.Session(sid)
		if !ok || !sess.IsOwner {
			log.Debug().Str("module", "app.coordinator").Str("sid", string(sid)).Str("event", event).Msg("dropped: not owner")
			return
		}
		room, ok := c.store.Room(sess.RoomID)
		if !ok {
			return
		}
		room.State = state
		c.transport.EmitRoom(room.ID, sid, event, stateOrNull(state))
	})
}

// Seek, Play and Pause are relayed verbatim to the rest of the room.
func (c *Coordinator) Seek(ctx context.Context, sid domain.UserID, payload domain.PlaybackState) error {
	return c.relay(ctx, sid, core.EventSeek, payload)
}

func (c *Coordinator) Play(ctx context.Context, sid domain.UserID, payload domain.PlaybackState) error {
	return c.relay(ctx, sid, core.EventPlay, payload)
}

func (c *Coordinator) Pause(ctx context.Context, sid domain.UserID, payload domain.PlaybackState) error {
	return c.relay(ctx, sid, core.EventPause, payload)
}

func (c *Coordinator) relay(ctx context.Context, sid domain.UserID, event string, payload domain.PlaybackState) error {
	payload = stateOrNull(normalizeState(payload))
	return c.submit(ctx, event, sid, func() {
		sess, ok := c.store.Session(sid)
		if !ok {
			return
		}
		c.transport.EmitRoom(sess.RoomID, sid, event, payload)
	})
}

// ClearState drops the room's playback state. Owner only.
func (c *Coordinator) ClearState(ctx context.Context, sid domain.UserID) error {
	opErr := ErrInternal
	err := c.call(ctx, "clear-state", sid, func() {
		opErr = c.clearState(sid)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (c *Coordinator) clearState(sid domain.UserID) error {
	sess, ok := c.store.Session(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	if !sess.IsOwner {
		return domain.ErrNotOwner
	}
	room, ok := c.store.Room(sess.RoomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.State = nil
	c.transport.EmitRoom(room.ID, sid, core.EventStateCleared, stateCleared{RoomID: room.ID})
	return nil
}

var jsonNull = []byte("null")

// normalizeState copies the payload out of the transport's read buffer and
// maps an absent or JSON null value to nil.
func normalizeState(state domain.PlaybackState) domain.PlaybackState {
	trimmed := bytes.TrimSpace(state)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return nil
	}
	return slices.Clone(trimmed)
}

func stateOrNull(state domain.PlaybackState) domain.PlaybackState {
	if state == nil {
		return jsonNull
	}
	return state
}
