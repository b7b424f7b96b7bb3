package domain

import (
	"fmt"
	"strings"
	"time"
)

// TrackRequest is a song as a client proposes it.
type TrackRequest struct {
	ID       string
	Title    string
	Artist   string
	CoverURL string
}

func (t TrackRequest) Validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return fmt.Errorf("%w: item.id", ErrEmptyField)
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: item.title", ErrEmptyField)
	case strings.TrimSpace(t.Artist) == "":
		return fmt.Errorf("%w: item.artist", ErrEmptyField)
	}
	return nil
}

// QueueItem is an accepted queue entry. It never changes after creation.
type QueueItem struct {
	ID       string
	Title    string
	Artist   string
	CoverURL string
	AddedBy  ConnID
	AddedAt  time.Time
}

// NewQueueItem stamps the server-side fields onto a validated request.
func NewQueueItem(t TrackRequest, by ConnID, at time.Time) QueueItem {
	return QueueItem{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		CoverURL: t.CoverURL,
		AddedBy:  by,
		AddedAt:  at,
	}
}
