package core

import "github.com/dkeye/WatchTogether/internal/domain"

// Outbound event names.
const (
	EventConnected          = "connected"
	EventMemberJoined       = "member-joined"
	EventMemberLeft         = "member-left"
	EventRoomDeleted        = "room-deleted"
	EventStateCleared       = "state-cleared"
	EventPlaybackUpdated    = "playback-state-updated"
	EventMediaChanged       = "media-changed"
	EventLiveChannelChanged = "live-channel-changed"
	EventSeek               = "seek"
	EventPlay               = "play"
	EventPause              = "pause"
	EventChatMessage        = "chat-message"
	EventSignalOffer        = "signal-offer"
	EventSignalAnswer       = "signal-answer"
	EventSignalICE          = "signal-ice"
	EventPong               = "pong"
)

// Transport delivers events to connections and keeps per-room broadcast
// groups. Every method must return without blocking; a send to a vanished
// connection is a no-op.
type Transport interface {
	// Emit delivers to one connection.
	Emit(to domain.UserID, event string, payload any)
	// EmitRoom delivers to every subscriber of room except one connection.
	EmitRoom(room domain.RoomID, except domain.UserID, event string, payload any)
	// EmitRoomAll delivers to every subscriber of room.
	EmitRoomAll(room domain.RoomID, event string, payload any)

	Subscribe(conn domain.UserID, room domain.RoomID)
	Unsubscribe(conn domain.UserID, room domain.RoomID)
}

// IDGenerator allocates ids for rooms, chat messages and owner tokens.
type IDGenerator interface {
	RoomID() domain.RoomID
	MessageID() string
	OwnerToken() string
}
