package domain

import "time"

// Member represents user's participation meta for a room.
// It lives only inside a room's membership map.
type Member struct {
	ID            UserID    `json:"id"`
	Username      string    `json:"username"`
	IsOwner       bool      `json:"isOwner"`
	JoinedAt      time.Time `json:"joinedAt"`
	LastHeartbeat time.Time `json:"-"`
}

// Session links a live connection to the room it is in.
type Session struct {
	RoomID   RoomID
	UserID   UserID
	Username string
	IsOwner  bool
}
