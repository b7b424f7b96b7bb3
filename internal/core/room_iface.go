package core

import "github.com/dkeye/Karaoke/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

// Broadcaster delivers one event to a fixed set of connections.
// A failed delivery never stops delivery to the others.
type Broadcaster interface {
	Publish(to []domain.ConnID, ev Event) PublishResult
}

// GuestDTO is a read-only view of a guest (no transport fields).
type GuestDTO struct {
	ID    domain.ConnID `json:"id"`
	Name  string        `json:"name,omitempty"`
	Image string        `json:"image,omitempty"`
}

type PresenceUpdate struct {
	Count  int        `json:"count"`
	Guests []GuestDTO `json:"guests"`
}

type QueueItemDTO struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	CoverURL string        `json:"coverUrl,omitempty"`
	AddedBy  domain.ConnID `json:"addedBy"`
	AddedAt  int64         `json:"addedAt"`
}

type QueueUpdate struct {
	Queue []QueueItemDTO `json:"queue"`
}

type RoomClosed struct {
	Reason string `json:"reason"`
}

type RoomInfo struct {
	Name       string `json:"name"`
	GuestCount int    `json:"guestCount"`
	IsHost     bool   `json:"isHost"`
}

type JoinedRoom struct {
	Name       string `json:"name"`
	GuestCount int    `json:"guestCount"`
}

// StoreStats is a point-in-time count for the HTTP surface.
type StoreStats struct {
	Rooms  int `json:"rooms"`
	Guests int `json:"guests"`
	Queued int `json:"queued"`
}
