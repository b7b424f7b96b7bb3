package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RoomCodeBytes   = 4
	MaxRoomNameLen  = 64
	DefaultRoomName = "Karaoke"
)

type (
	RoomCode string
	// ConnID is the transport session id of one live socket.
	// It has no meaning after the socket closes.
	ConnID string
)

// Room is the immutable header of a live session.
type Room struct {
	Code      RoomCode
	Name      string
	Host      ConnID
	CreatedAt time.Time
}

// NewRoomCode returns 8 lowercase hex chars from 4 random bytes.
func NewRoomCode() (RoomCode, error) {
	b := make([]byte, RoomCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("room code: %w", err)
	}
	return RoomCode(hex.EncodeToString(b)), nil
}

// NormalizeRoomCode trims what users typed into a join form.
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToLower(strings.TrimSpace(raw)))
}

// NormalizeRoomName trims the name and clamps it to MaxRoomNameLen runes.
func NormalizeRoomName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultRoomName
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		name = strings.TrimSpace(string([]rune(name)[:MaxRoomNameLen]))
	}
	return name
}
