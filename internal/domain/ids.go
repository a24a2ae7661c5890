package domain

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/oklog/ulid/v2"
)

const roomIDLen = 10

// roomIDAlphabet drops look-alike characters so ids survive being read aloud.
const roomIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// Generator produces room ids, chat message ids, owner tokens and
// connection ids. Safe for concurrent use.
type Generator struct {
	roomID func() string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() (*Generator, error) {
	gen, err := nanoid.CustomASCII(roomIDAlphabet, roomIDLen)
	if err != nil {
		return nil, fmt.Errorf("room id generator: %w", err)
	}
	return &Generator{
		roomID:  gen,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

func (g *Generator) RoomID() RoomID { return RoomID(g.roomID()) }

// MessageID returns a ULID. Ids created later sort after earlier ones.
func (g *Generator) MessageID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func (g *Generator) OwnerToken() string { return uuid.NewString() }

func (g *Generator) ConnectionID() UserID { return UserID(uuid.NewString()) }
