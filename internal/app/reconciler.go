package app

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

// Reconcile runs one liveness pass now, outside the regular tick.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	return c.call(ctx, "reconcile", "", c.reconcile)
}

// reconcile clears the playback state of rooms whose owner went quiet and
// deletes rooms whose owner has been gone for too long, guests or not.
func (c *Coordinator) reconcile() {
	now := c.now()
	for _, room := range c.store.Rooms() {
		c.reconcileRoom(room, now)
	}
}

func (c *Coordinator) reconcileRoom(room *domain.Room, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("module", "app.reconciler").
				Str("room", string(room.ID)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("reconcile room panicked")
		}
	}()

	elapsed := now.Sub(room.LastOwnerHeartbeat)

	if elapsed > c.settings.StateClearAfter && room.State != nil {
		room.State = nil
		c.transport.EmitRoomAll(room.ID, core.EventStateCleared, stateCleared{RoomID: room.ID})
		log.Info().Str("module", "app.reconciler").Str("room", string(room.ID)).Dur("owner_silent", elapsed).Msg("state cleared")
	}

	if elapsed > c.settings.RoomDeleteAfter {
		log.Info().Str("module", "app.reconciler").Str("room", string(room.ID)).Dur("owner_silent", elapsed).Msg("owner gone")
		c.deleteRoom(room.ID, reasonOwnerTimeout)
	}
}
