package app

import (
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

// Presence lists guests in join order. The host is never among them.
func Presence(order []domain.ConnID, guests map[domain.ConnID]domain.GuestInfo) core.PresenceUpdate {
	out := make([]core.GuestDTO, 0, len(order))
	for _, id := range order {
		g := guests[id]
		out = append(out, core.GuestDTO{ID: id, Name: g.Name, Image: g.Image})
	}
	return core.PresenceUpdate{Count: len(out), Guests: out}
}

func QueueItemOf(it domain.QueueItem) core.QueueItemDTO {
	return core.QueueItemDTO{
		ID:       it.ID,
		Title:    it.Title,
		Artist:   it.Artist,
		CoverURL: it.CoverURL,
		AddedBy:  it.AddedBy,
		AddedAt:  it.AddedAt.UnixMilli(),
	}
}

// QueueOf always projects the full queue.
func QueueOf(items []domain.QueueItem) core.QueueUpdate {
	out := make([]core.QueueItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, QueueItemOf(it))
	}
	return core.QueueUpdate{Queue: out}
}

func Closed(reason string) core.RoomClosed {
	return core.RoomClosed{Reason: reason}
}
