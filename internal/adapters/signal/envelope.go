package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/WatchTogether/internal/core"
	"github.com/dkeye/WatchTogether/internal/domain"
)

// Inbound event names.
const (
	EventCreateRoom          = "create-room"
	EventJoinRoom            = "join-room"
	EventLeaveRoom           = "leave-room"
	EventListRooms           = "list-rooms"
	EventUpdatePlaybackState = "update-playback-state"
	EventChangeMedia         = "change-media"
	EventChangeLiveChannel   = "change-live-channel"
	EventSeek                = "seek"
	EventPlay                = "play"
	EventPause               = "pause"
	EventClearState          = "clear-state"
	EventSendChat            = "send-chat"
	EventSignalOffer         = "signal-offer"
	EventSignalAnswer        = "signal-answer"
	EventSignalICE           = "signal-ice"
	EventHeartbeat           = "heartbeat"

	eventAck = "ack"
)

// Ack error codes.
const (
	CodeRoomNotFound   = "room_not_found"
	CodeBadPassword    = "bad_password"
	CodeNotOwner       = "not_owner"
	CodeNotInRoom      = "not_in_room"
	CodeCreationFailed = "creation_failed"
	CodeRateLimited    = "rate_limited"
	CodeBadPayload     = "bad_payload"
	CodeUnavailable    = "unavailable"
)

// Envelope is the single frame shape in both directions. Ack is set by
// clients that want a reply and echoed back on the "ack" event.
type Envelope struct {
	Event string          `json:"event"`
	Ack   *int64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Ack   *int64 `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func encode(event string, ack *int64, data any) (core.Frame, error) {
	return json.Marshal(outbound{Event: event, Ack: ack, Data: data})
}

type ackFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ackOK struct {
	Success bool `json:"success"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, domain.ErrBadPassword):
		return CodeBadPassword
	case errors.Is(err, domain.ErrNotOwner):
		return CodeNotOwner
	case errors.Is(err, domain.ErrNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, domain.ErrCreationFailed):
		return CodeCreationFailed
	default:
		return CodeUnavailable
	}
}
