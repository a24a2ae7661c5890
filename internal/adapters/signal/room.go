package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/app"
	"github.com/dkeye/WatchTogether/internal/domain"
)

type createRoomPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
	IsPublic    bool   `json:"isPublic"`
	UserName    string `json:"userName"`
}

type createRoomAck struct {
	Success    bool            `json:"success"`
	Room       domain.RoomView `json:"room"`
	OwnerToken string          `json:"ownerToken"`
}

type joinRoomPayload struct {
	RoomID   domain.RoomID `json:"roomId"`
	Password string        `json:"password"`
	UserName string        `json:"userName"`
}

type joinRoomAck struct {
	Success bool             `json:"success"`
	Room    domain.RoomView  `json:"room"`
	Members []app.MemberView `json:"members"`
}

type listRoomsAck struct {
	Success bool              `json:"success"`
	Rooms   []domain.RoomView `json:"rooms"`
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, v)
}

func (ctl *SignalWSController) handleCreateRoom(ctx context.Context, sid domain.UserID, conn *WsSignalConn, env Envelope) {
	var p createRoomPayload
	if err := decode(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad create-room payload")
		ctl.fail(conn, env, CodeBadPayload)
		return
	}

	res, err := ctl.Coord.CreateRoom(ctx, sid, app.CreateRoomRequest{
		Name:        p.Name,
		Description: p.Description,
		Password:    p.Password,
		IsPublic:    p.IsPublic,
		UserName:    p.UserName,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("create-room failed")
		ctl.fail(conn, env, CodeCreationFailed)
		return
	}
	ctl.reply(conn, env, createRoomAck{Success: true, Room: res.Room, OwnerToken: res.OwnerToken})
}

func (ctl *SignalWSController) handleJoinRoom(ctx context.Context, sid domain.UserID, conn *WsSignalConn, env Envelope) {
	var p joinRoomPayload
	if err := decode(env, &p); err != nil || p.RoomID == "" {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join-room payload")
		ctl.fail(conn, env, CodeBadPayload)
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("room", string(p.RoomID)).Msg("join rate limited")
		ctl.fail(conn, env, CodeRateLimited)
		return
	}

	res, err := ctl.Coord.JoinRoom(ctx, sid, app.JoinRoomRequest{
		RoomID:   p.RoomID,
		Password: p.Password,
		UserName: p.UserName,
	})
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(p.RoomID)).Msg("join-room failed")
		ctl.fail(conn, env, errorCode(err))
		return
	}
	ctl.reply(conn, env, joinRoomAck{Success: true, Room: res.Room, Members: res.Members})
}

// handleLeaveRoom leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeaveRoom(ctx context.Context, sid domain.UserID, conn *WsSignalConn, env Envelope) {
	if err := ctl.Coord.LeaveRoom(ctx, sid); err != nil {
		ctl.fail(conn, env, errorCode(err))
		return
	}
	ctl.reply(conn, env, ackOK{Success: true})
}

func (ctl *SignalWSController) handleListRooms(ctx context.Context, conn *WsSignalConn, env Envelope) {
	rooms, err := ctl.Coord.ListRooms(ctx)
	if err != nil {
		ctl.fail(conn, env, errorCode(err))
		return
	}
	ctl.reply(conn, env, listRoomsAck{Success: true, Rooms: rooms})
}
