package domain

import (
	"encoding/json"
	"time"
)

type RoomID string

// PlaybackState is an opaque player state blob owned by the client.
// A nil value means the room has no current state.
type PlaybackState = json.RawMessage

type Room struct {
	ID                 RoomID
	Name               string
	Description        string
	Password           string
	IsPublic           bool
	OwnerID            UserID
	OwnerName          string
	OwnerToken         string
	MemberCount        int
	State              PlaybackState
	LastChatAt         time.Time
	CreatedAt          time.Time
	LastOwnerHeartbeat time.Time
}

func (r *Room) HasPassword() bool { return r.Password != "" }

// RoomView is what clients see of a room. Password and owner token never
// leave the server through it.
type RoomView struct {
	ID          RoomID        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	IsPublic    bool          `json:"isPublic"`
	HasPassword bool          `json:"hasPassword"`
	OwnerID     UserID        `json:"ownerId"`
	OwnerName   string        `json:"ownerName"`
	MemberCount int           `json:"memberCount"`
	State       PlaybackState `json:"playbackState"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (r *Room) View() RoomView {
	state := r.State
	if state == nil {
		state = json.RawMessage("null")
	}
	return RoomView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsPublic:    r.IsPublic,
		HasPassword: r.HasPassword(),
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		MemberCount: r.MemberCount,
		State:       state,
		CreatedAt:   r.CreatedAt,
	}
}
