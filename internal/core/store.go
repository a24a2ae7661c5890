package core

import (
	"errors"
	"slices"
	"strings"

	"github.com/dkeye/WatchTogether/internal/domain"
)

var ErrRoomExists = errors.New("room id already taken")

// Store is the in-memory room, membership and session state.
// It does no locking: all calls must come from a single goroutine.
type Store struct {
	rooms    map[domain.RoomID]*domain.Room
	members  map[domain.RoomID]map[domain.UserID]*domain.Member
	sessions map[domain.UserID]*domain.Session
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[domain.RoomID]*domain.Room),
		members:  make(map[domain.RoomID]map[domain.UserID]*domain.Member),
		sessions: make(map[domain.UserID]*domain.Session),
	}
}

// CreateRoom registers room together with its singleton membership map.
func (s *Store) CreateRoom(room *domain.Room, owner *domain.Member) error {
	if _, ok := s.rooms[room.ID]; ok {
		return ErrRoomExists
	}
	s.rooms[room.ID] = room
	s.members[room.ID] = map[domain.UserID]*domain.Member{owner.ID: owner}
	room.MemberCount = 1
	return nil
}

func (s *Store) Room(id domain.RoomID) (*domain.Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// DeleteRoom drops the room and its membership map and returns the members
// that were still in it.
func (s *Store) DeleteRoom(id domain.RoomID) []*domain.Member {
	out := s.Members(id)
	delete(s.rooms, id)
	delete(s.members, id)
	return out
}

func (s *Store) AddMember(id domain.RoomID, m *domain.Member) error {
	room, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	set := s.members[id]
	set[m.ID] = m
	room.MemberCount = len(set)
	return nil
}

func (s *Store) RemoveMember(id domain.RoomID, uid domain.UserID) (*domain.Member, bool) {
	set, ok := s.members[id]
	if !ok {
		return nil, false
	}
	m, ok := set[uid]
	if !ok {
		return nil, false
	}
	delete(set, uid)
	if room, ok := s.rooms[id]; ok {
		room.MemberCount = len(set)
	}
	return m, true
}

func (s *Store) Member(id domain.RoomID, uid domain.UserID) (*domain.Member, bool) {
	m, ok := s.members[id][uid]
	return m, ok
}

// Members returns the room's members in join order.
func (s *Store) Members(id domain.RoomID) []*domain.Member {
	set := s.members[id]
	out := make([]*domain.Member, 0, len(set))
	for _, m := range set {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *domain.Member) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// Rooms returns every room, oldest first.
func (s *Store) Rooms() []*domain.Room {
	out := make([]*domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *domain.Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

func (s *Store) PublicRooms() []*domain.Room {
	return slices.DeleteFunc(s.Rooms(), func(r *domain.Room) bool { return !r.IsPublic })
}

func (s *Store) SetSession(sess *domain.Session) { s.sessions[sess.UserID] = sess }

func (s *Store) Session(uid domain.UserID) (*domain.Session, bool) {
	sess, ok := s.sessions[uid]
	return sess, ok
}

func (s *Store) DeleteSession(uid domain.UserID) { delete(s.sessions, uid) }

// Counts reports the number of rooms and the total membership across them.
func (s *Store) Counts() (rooms, members int) {
	for _, set := range s.members {
		members += len(set)
	}
	return len(s.rooms), members
}
