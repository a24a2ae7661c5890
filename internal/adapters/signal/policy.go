package signal

import (
	"fmt"

	"github.com/dkeye/WatchTogether/internal/domain"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickConnection
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackpressure(id domain.UserID, event string) BackpressureAction
}

// KickPolicy closes slow connections; they rejoin with a fresh state.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(domain.UserID, string) BackpressureAction { return KickConnection }

// DropPolicy skips the frame and keeps the connection.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(domain.UserID, string) BackpressureAction { return DropFrame }

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return KickPolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
