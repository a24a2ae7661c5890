// Package domain contains entities without logic, just meta-data
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLen = 36
	MaxRoomNameLen = 64

	DefaultUsername = "Guest"
)

// UserID is the transport-assigned connection id. A user has no identity
// beyond the socket it is talking on.
type UserID string

// NormalizeName trims a display name and caps it at max runes.
// An empty result falls back to def.
func NormalizeName(name string, max int, def string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	return string([]rune(name)[:max])
}
