package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

const (
	defaultRoomName = "Room"

	// roomIDAttempts bounds retries when the generator hands out a taken id.
	roomIDAttempts = 3
)

type CreateRoomRequest struct {
	Name        string
	Description string
	Password    string
	IsPublic    bool
	UserName    string
}

type CreateRoomResult struct {
	Room       domain.RoomView
	OwnerToken string
}

type JoinRoomRequest struct {
	RoomID   domain.RoomID
	Password string
	UserName string
}

type JoinRoomResult struct {
	Room    domain.RoomView
	Members []MemberView
}

// MemberView is a read-only view of a member for clients.
type MemberView struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	IsOwner  bool          `json:"isOwner"`
}

type memberLeft struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type roomDeleted struct {
	RoomID domain.RoomID `json:"roomId"`
	Reason string        `json:"reason"`
}

const (
	reasonEmpty        = "empty"
	reasonOwnerTimeout = "owner_timeout"
)

func memberView(m *domain.Member) MemberView {
	return MemberView{ID: m.ID, Username: m.Username, IsOwner: m.IsOwner}
}

// CreateRoom makes sid the owner and only member of a new room.
func (c *Coordinator) CreateRoom(ctx context.Context, sid domain.UserID, req CreateRoomRequest) (CreateRoomResult, error) {
	var res CreateRoomResult
	opErr := domain.ErrCreationFailed
	err := c.call(ctx, "create-room", sid, func() {
		res, opErr = c.createRoom(sid, req)
	})
	if err != nil {
		return CreateRoomResult{}, err
	}
	return res, opErr
}

func (c *Coordinator) createRoom(sid domain.UserID, req CreateRoomRequest) (CreateRoomResult, error) {
	c.leave(sid)

	now := c.now()
	username := domain.NormalizeName(req.UserName, domain.MaxUsernameLen, domain.DefaultUsername)
	room := &domain.Room{
		Name:               domain.NormalizeName(req.Name, domain.MaxRoomNameLen, defaultRoomName),
		Description:        req.Description,
		Password:           req.Password,
		IsPublic:           req.IsPublic,
		OwnerID:            sid,
		OwnerName:          username,
		OwnerToken:         c.ids.OwnerToken(),
		CreatedAt:          now,
		LastOwnerHeartbeat: now,
	}
	owner := &domain.Member{
		ID:            sid,
		Username:      username,
		IsOwner:       true,
		JoinedAt:      now,
		LastHeartbeat: now,
	}

	var err error
	for range roomIDAttempts {
		room.ID = c.ids.RoomID()
		if err = c.store.CreateRoom(room, owner); !errors.Is(err, core.ErrRoomExists) {
			break
		}
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("sid", string(sid)).Msg("create room")
		return CreateRoomResult{}, domain.ErrCreationFailed
	}

	c.store.SetSession(&domain.Session{RoomID: room.ID, UserID: sid, Username: username, IsOwner: true})
	c.transport.Subscribe(sid, room.ID)

	log.Info().
		Str("module", "app.coordinator").
		Str("sid", string(sid)).
		Str("room", string(room.ID)).
		Bool("public", room.IsPublic).
		Msg("room created")
	return CreateRoomResult{Room: room.View(), OwnerToken: room.OwnerToken}, nil
}

// JoinRoom adds sid as a guest of an existing room.
func (c *Coordinator) JoinRoom(ctx context.Context, sid domain.UserID, req JoinRoomRequest) (JoinRoomResult, error) {
	var res JoinRoomResult
	opErr := ErrInternal
	err := c.call(ctx, "join-room", sid, func() {
		res, opErr = c.joinRoom(sid, req)
	})
	if err != nil {
		return JoinRoomResult{}, err
	}
	return res, opErr
}

func (c *Coordinator) joinRoom(sid domain.UserID, req JoinRoomRequest) (JoinRoomResult, error) {
	room, ok := c.store.Room(req.RoomID)
	if !ok {
		return JoinRoomResult{}, domain.ErrRoomNotFound
	}
	if room.HasPassword() && req.Password != room.Password {
		log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(room.ID)).Msg("bad password")
		return JoinRoomResult{}, domain.ErrBadPassword
	}

	if sess, ok := c.store.Session(sid); ok {
		if sess.RoomID == room.ID {
			return c.joinResult(room), nil
		}
		c.leave(sid)
	}

	now := c.now()
	m := &domain.Member{
		ID:            sid,
		Username:      domain.NormalizeName(req.UserName, domain.MaxUsernameLen, domain.DefaultUsername),
		JoinedAt:      now,
		LastHeartbeat: now,
	}
	if err := c.store.AddMember(room.ID, m); err != nil {
		return JoinRoomResult{}, err
	}
	c.store.SetSession(&domain.Session{RoomID: room.ID, UserID: sid, Username: m.Username})
	c.transport.Subscribe(sid, room.ID)
	c.transport.EmitRoom(room.ID, sid, core.EventMemberJoined, memberView(m))

	log.Info().
		Str("module", "app.coordinator").
		Str("sid", string(sid)).
		Str("room", string(room.ID)).
		Int("members", room.MemberCount).
		Msg("member joined")
	return c.joinResult(room), nil
}

func (c *Coordinator) joinResult(room *domain.Room) JoinRoomResult {
	members := c.store.Members(room.ID)
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView(m))
	}
	return JoinRoomResult{Room: room.View(), Members: out}
}

// LeaveRoom removes sid from its room, if any. The connection stays open.
func (c *Coordinator) LeaveRoom(ctx context.Context, sid domain.UserID) error {
	return c.call(ctx, "leave-room", sid, func() { c.leave(sid) })
}

// Disconnect is called by the transport once a connection is gone.
func (c *Coordinator) Disconnect(ctx context.Context, sid domain.UserID) error {
	return c.call(ctx, "disconnect", sid, func() { c.leave(sid) })
}

// leave is the shared leave routine. Owner departure is not special-cased:
// a lost owner is detected later by heartbeat age, so a quick reconnect
// does not tear the room down.
func (c *Coordinator) leave(sid domain.UserID) {
	sess, ok := c.store.Session(sid)
	if !ok {
		return
	}
	roomID := sess.RoomID

	room, ok := c.store.Room(roomID)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("orphaned session")
		c.transport.Unsubscribe(sid, roomID)
		c.store.DeleteSession(sid)
		return
	}

	m, removed := c.store.RemoveMember(roomID, sid)
	if removed && room.MemberCount > 0 {
		c.transport.EmitRoom(roomID, sid, core.EventMemberLeft, memberLeft{UserID: m.ID, Username: m.Username})
	}
	c.transport.Unsubscribe(sid, roomID)
	c.store.DeleteSession(sid)

	log.Info().
		Str("module", "app.coordinator").
		Str("sid", string(sid)).
		Str("room", string(roomID)).
		Bool("owner", sess.IsOwner).
		Int("members", room.MemberCount).
		Msg("member left")

	if room.MemberCount == 0 {
		c.deleteRoom(roomID, reasonEmpty)
	}
}

// deleteRoom broadcasts room-deleted and drops every trace of the room.
// It reports false if the room was already gone.
func (c *Coordinator) deleteRoom(id domain.RoomID, reason string) bool {
	if _, ok := c.store.Room(id); !ok {
		return false
	}
	c.transport.EmitRoomAll(id, core.EventRoomDeleted, roomDeleted{RoomID: id, Reason: reason})

	for _, m := range c.store.DeleteRoom(id) {
		c.transport.Unsubscribe(m.ID, id)
		if sess, ok := c.store.Session(m.ID); ok && sess.RoomID == id {
			c.store.DeleteSession(m.ID)
		}
	}
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Str("reason", reason).Msg("room deleted")
	return true
}

// ListRooms returns every public room.
func (c *Coordinator) ListRooms(ctx context.Context) ([]domain.RoomView, error) {
	var out []domain.RoomView
	err := c.call(ctx, "list-rooms", "", func() {
		rooms := c.store.PublicRooms()
		out = make([]domain.RoomView, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, r.View())
		}
	})
	return out, err
}
