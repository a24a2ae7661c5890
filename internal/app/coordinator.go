package app

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

var (
	// ErrStopped is returned by calls made after the coordinator loop exited.
	ErrStopped = errors.New("coordinator stopped")
	// ErrInternal reports a command that panicked before producing a result.
	ErrInternal = errors.New("internal error")
)

// Settings holds the liveness thresholds.
type Settings struct {
	ReconcileInterval time.Duration
	StateClearAfter   time.Duration
	RoomDeleteAfter   time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		ReconcileInterval: 10 * time.Second,
		StateClearAfter:   30 * time.Second,
		RoomDeleteAfter:   5 * time.Minute,
	}
}

type command struct {
	name string
	sid  domain.UserID
	fn   func()
}

// Coordinator owns the Store. Every client event and every reconcile tick
// runs as a command on the single goroutine started by Run, so handlers
// never race and the Store needs no locks.
type Coordinator struct {
	store     *core.Store
	transport core.Transport
	ids       core.IDGenerator
	settings  Settings
	now       func() time.Time

	inbox chan command
	done  chan struct{}
}

type Option func(*Coordinator)

func WithSettings(s Settings) Option { return func(c *Coordinator) { c.settings = s } }

// WithClock replaces time.Now, used by tests to move time forward.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

func NewCoordinator(transport core.Transport, ids core.IDGenerator, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     core.NewStore(),
		transport: transport,
		ids:       ids,
		settings:  DefaultSettings(),
		now:       time.Now,
		inbox:     make(chan command, 256),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes commands until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)

	ticker := time.NewTicker(c.settings.ReconcileInterval)
	defer ticker.Stop()

	log.Info().
		Str("module", "app.coordinator").
		Dur("reconcile_interval", c.settings.ReconcileInterval).
		Dur("state_clear_after", c.settings.StateClearAfter).
		Dur("room_delete_after", c.settings.RoomDeleteAfter).
		Msg("coordinator started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.coordinator").Msg("coordinator stopped")
			return nil
		case cmd := <-c.inbox:
			c.exec(cmd)
		case <-ticker.C:
			c.exec(command{name: "reconcile", fn: c.reconcile})
		}
	}
}

func (c *Coordinator) exec(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("module", "app.coordinator").
				Str("cmd", cmd.name).
				Str("sid", string(cmd.sid)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("command panicked")
		}
	}()
	cmd.fn()
}

// submit queues fn without waiting for it to run.
func (c *Coordinator) submit(ctx context.Context, name string, sid domain.UserID, fn func()) error {
	select {
	case c.inbox <- command{name: name, sid: sid, fn: fn}:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call queues fn and waits until it finished, panicked included.
func (c *Coordinator) call(ctx context.Context, name string, sid domain.UserID, fn func()) error {
	finished := make(chan struct{})
	err := c.submit(ctx, name, sid, func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
