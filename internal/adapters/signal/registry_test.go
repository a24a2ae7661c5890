package signal

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.full {
		return ErrBackpressure
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) events(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(fr, &env))
		out = append(out, env.Event)
	}
	return out
}

func newTestHub(policy Policy, ids ...domain.UserID) (*Hub, map[domain.UserID]*fakeConn) {
	h := NewHub(policy)
	conns := make(map[domain.UserID]*fakeConn, len(ids))
	for _, id := range ids {
		c := &fakeConn{}
		conns[id] = c
		h.Register(id, c)
	}
	return h, conns
}

func TestHubEmitRoomSkipsSender(t *testing.T) {
	h, conns := newTestHub(nil, "a", "b", "c")
	h.Subscribe("a", "r1")
	h.Subscribe("b", "r1")

	h.EmitRoom("r1", "a", core.EventPlay, map[string]int{"t": 1})

	assert.Empty(t, conns["a"].events(t))
	assert.Equal(t, []string{core.EventPlay}, conns["b"].events(t))
	assert.Empty(t, conns["c"].events(t), "not subscribed")
}

func TestHubEmitRoomAllIncludesSender(t *testing.T) {
	h, conns := newTestHub(nil, "a", "b")
	h.Subscribe("a", "r1")
	h.Subscribe("b", "r1")

	h.EmitRoomAll("r1", core.EventChatMessage, domain.ChatMessage{Content: "hi"})

	assert.Equal(t, []string{core.EventChatMessage}, conns["a"].events(t))
	assert.Equal(t, []string{core.EventChatMessage}, conns["b"].events(t))
}

func TestHubEmitToVanishedConnection(t *testing.T) {
	h, conns := newTestHub(nil, "a")
	h.Subscribe("a", "r1")
	h.Subscribe("ghost", "r1")

	assert.NotPanics(t, func() {
		h.Emit("ghost", core.EventPong, nil)
		h.EmitRoomAll("r1", core.EventPause, nil)
	})
	assert.Equal(t, []string{core.EventPause}, conns["a"].events(t))
}

func TestHubUnsubscribe(t *testing.T) {
	h, conns := newTestHub(nil, "a", "b")
	h.Subscribe("a", "r1")
	h.Subscribe("b", "r1")

	h.Unsubscribe("a", "r1")
	h.EmitRoomAll("r1", core.EventSeek, nil)
	assert.Empty(t, conns["a"].events(t))
	assert.Len(t, conns["b"].events(t), 1)

	h.Unsubscribe("b", "r1")
	h.Unsubscribe("b", "missing")
	h.mu.RLock()
	_, ok := h.groups["r1"]
	h.mu.RUnlock()
	assert.False(t, ok, "empty group is dropped")
}

func TestHubBackpressureKick(t *testing.T) {
	h, conns := newTestHub(KickPolicy{}, "slow", "fast")
	conns["slow"].full = true
	h.Subscribe("slow", "r1")
	h.Subscribe("fast", "r1")

	h.EmitRoomAll("r1", core.EventPlay, nil)

	assert.True(t, conns["slow"].closed)
	assert.False(t, conns["fast"].closed)
	assert.Len(t, conns["fast"].events(t), 1)
}

func TestHubBackpressureDrop(t *testing.T) {
	h, conns := newTestHub(DropPolicy{}, "slow")
	conns["slow"].full = true

	h.Emit("slow", core.EventPong, nil)

	assert.False(t, conns["slow"].closed)
	assert.Empty(t, conns["slow"].events(t))
}

func TestHubConnections(t *testing.T) {
	h, _ := newTestHub(nil, "a", "b")
	assert.Equal(t, 2, h.Connections())
	h.Unregister("a")
	assert.Equal(t, 1, h.Connections())
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.IsType(t, KickPolicy{}, p)

	p, err = PolicyByName("drop")
	require.NoError(t, err)
	assert.IsType(t, DropPolicy{}, p)

	_, err = PolicyByName("ignore")
	assert.Error(t, err)
}
