package signal

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

// Hub tracks live connections and per-room broadcast groups.
// It implements core.Transport.
type Hub struct {
	mu     sync.RWMutex
	conns  map[domain.UserID]core.SignalConnection
	groups map[domain.RoomID]map[domain.UserID]struct{}
	policy Policy
}

func NewHub(policy Policy) *Hub {
	if policy == nil {
		policy = KickPolicy{}
	}
	return &Hub{
		conns:  make(map[domain.UserID]core.SignalConnection),
		groups: make(map[domain.RoomID]map[domain.UserID]struct{}),
		policy: policy,
	}
}

func (h *Hub) Register(id domain.UserID, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
	log.Info().Str("module", "signal.hub").Str("sid", string(id)).Int("conns", len(h.conns)).Msg("registered")
}

func (h *Hub) Unregister(id domain.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	log.Info().Str("module", "signal.hub").Str("sid", string(id)).Int("conns", len(h.conns)).Msg("unregistered")
}

// Connections reports how many sockets are registered.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Subscribe(conn domain.UserID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.groups[room]
	if !ok {
		set = make(map[domain.UserID]struct{})
		h.groups[room] = set
	}
	set[conn] = struct{}{}
}

func (h *Hub) Unsubscribe(conn domain.UserID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.groups[room]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.groups, room)
	}
}

func (h *Hub) Emit(to domain.UserID, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	conn, found := h.conns[to]
	h.mu.RUnlock()
	if !found {
		return
	}
	h.deliver(to, conn, event, frame)
}

func (h *Hub) EmitRoom(room domain.RoomID, except domain.UserID, event string, payload any) {
	h.fanOut(room, except, event, payload)
}

func (h *Hub) EmitRoomAll(room domain.RoomID, event string, payload any) {
	h.fanOut(room, "", event, payload)
}

type target struct {
	id   domain.UserID
	conn core.SignalConnection
}

func (h *Hub) fanOut(room domain.RoomID, except domain.UserID, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.groups[room]))
	for id := range h.groups[room] {
		if id == except {
			continue
		}
		if conn, ok := h.conns[id]; ok {
			targets = append(targets, target{id, conn})
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, t := range targets {
		if h.deliver(t.id, t.conn, event, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "signal.hub").Str("room", string(room)).Str("event", event).Int("sent_to", sent).Msg("broadcast result")
}

func (h *Hub) deliver(id domain.UserID, conn core.SignalConnection, event string, frame core.Frame) bool {
	err := conn.TrySend(frame)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrBackpressure) {
		return false
	}
	switch h.policy.OnBackpressure(id, event) {
	case KickConnection:
		log.Warn().Str("module", "signal.hub").Str("sid", string(id)).Str("event", event).Msg("send queue full, closing")
		conn.Close()
	case DropFrame:
		log.Warn().Str("module", "signal.hub").Str("sid", string(id)).Str("event", event).Msg("send queue full, frame dropped")
	}
	return false
}

func (h *Hub) encode(event string, payload any) (core.Frame, bool) {
	frame, err := encode(event, nil, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.hub").Str("event", event).Msg("encode")
		return nil, false
	}
	return frame, true
}
