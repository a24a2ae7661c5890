package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

type delivery struct {
	Event   string
	Payload any
}

type roomEvent struct {
	Room  domain.RoomID
	Event string
}

// fakeTransport keeps broadcast groups and per-connection inboxes in memory.
type fakeTransport struct {
	mu        sync.Mutex
	connected map[domain.UserID]bool
	groups    map[domain.RoomID]map[domain.UserID]bool
	inbox     map[domain.UserID][]delivery
	roomLog   []roomEvent
	panicRoom domain.RoomID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected: make(map[domain.UserID]bool),
		groups:    make(map[domain.RoomID]map[domain.UserID]bool),
		inbox:     make(map[domain.UserID][]delivery),
	}
}

func (f *fakeTransport) connect(ids ...domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.connected[id] = true
	}
}

func (f *fakeTransport) drop(id domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.connected, id)
}

func (f *fakeTransport) Emit(to domain.UserID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected[to] {
		f.inbox[to] = append(f.inbox[to], delivery{event, payload})
	}
}

func (f *fakeTransport) EmitRoom(room domain.RoomID, except domain.UserID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomLog = append(f.roomLog, roomEvent{room, event})
	for id := range f.groups[room] {
		if id != except && f.connected[id] {
			f.inbox[id] = append(f.inbox[id], delivery{event, payload})
		}
	}
}

func (f *fakeTransport) EmitRoomAll(room domain.RoomID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room == f.panicRoom {
		panic("emit failed")
	}
	f.roomLog = append(f.roomLog, roomEvent{room, event})
	for id := range f.groups[room] {
		if f.connected[id] {
			f.inbox[id] = append(f.inbox[id], delivery{event, payload})
		}
	}
}

func (f *fakeTransport) Subscribe(conn domain.UserID, room domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groups[room] == nil {
		f.groups[room] = make(map[domain.UserID]bool)
	}
	f.groups[room][conn] = true
}

func (f *fakeTransport) Unsubscribe(conn domain.UserID, room domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups[room], conn)
	if len(f.groups[room]) == 0 {
		delete(f.groups, room)
	}
}

// take returns and clears everything delivered to id so far.
func (f *fakeTransport) take(id domain.UserID) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.inbox[id]
	delete(f.inbox, id)
	return out
}

func (f *fakeTransport) events(id domain.UserID) []string {
	var out []string
	for _, d := range f.take(id) {
		out = append(out, d.Event)
	}
	return out
}

func (f *fakeTransport) lastRoomEvent(room domain.RoomID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.roomLog) - 1; i >= 0; i-- {
		if f.roomLog[i].Room == room {
			return f.roomLog[i].Event
		}
	}
	return ""
}

func (f *fakeTransport) subscribers(room domain.RoomID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups[room])
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedIDs hands out the same room id every time.
type fixedIDs struct{ *domain.Generator }

func (fixedIDs) RoomID() domain.RoomID { return "same" }

type harness struct {
	t     *testing.T
	ctx   context.Context
	c     *Coordinator
	tr    *fakeTransport
	clock *fakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	gen, err := domain.NewGenerator()
	require.NoError(t, err)
	return newHarnessWithIDs(t, gen, opts...)
}

func newHarnessWithIDs(t *testing.T, ids core.IDGenerator, opts ...Option) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	tr := newFakeTransport()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	settings := DefaultSettings()
	settings.ReconcileInterval = time.Hour

	all := append([]Option{WithSettings(settings), WithClock(clock.Now)}, opts...)
	c := NewCoordinator(tr, ids, all...)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return &harness{t: t, ctx: ctx, c: c, tr: tr, clock: clock}
}

// sync waits until every command queued so far has run.
func (h *harness) sync() {
	h.t.Helper()
	_, err := h.c.Stats(h.ctx)
	require.NoError(h.t, err)
}

func (h *harness) create(sid domain.UserID, req CreateRoomRequest) CreateRoomResult {
	h.t.Helper()
	h.tr.connect(sid)
	res, err := h.c.CreateRoom(h.ctx, sid, req)
	require.NoError(h.t, err)
	return res
}

func (h *harness) join(sid domain.UserID, room domain.RoomID, password string) JoinRoomResult {
	h.t.Helper()
	h.tr.connect(sid)
	res, err := h.c.JoinRoom(h.ctx, sid, JoinRoomRequest{RoomID: room, Password: password, UserName: string(sid)})
	require.NoError(h.t, err)
	return res
}

func (h *harness) room(id domain.RoomID) (RoomSummary, bool) {
	h.t.Helper()
	st, err := h.c.Stats(h.ctx)
	require.NoError(h.t, err)
	for _, r := range st.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return RoomSummary{}, false
}

// state reads a room's playback state from inside the loop.
func (h *harness) state(id domain.RoomID) (domain.PlaybackState, bool) {
	h.t.Helper()
	var (
		st    domain.PlaybackState
		found bool
	)
	require.NoError(h.t, h.c.call(h.ctx, "peek", "", func() {
		if r, ok := h.c.store.Room(id); ok {
			st, found = r.State, true
		}
	}))
	return st, found
}
