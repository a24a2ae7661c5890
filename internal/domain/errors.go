package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrBadPassword    = errors.New("bad password")
	ErrNotOwner       = errors.New("not room owner")
	ErrNotInRoom      = errors.New("not in room")
	ErrCreationFailed = errors.New("room creation failed")
)
