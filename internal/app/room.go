package app

import (
	"sync"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

// liveRoom is one room aggregate. Every read-modify-write and the
// broadcast that follows it happen under mu, so two events on the same
// room never interleave and members see updates in mutation order.
type liveRoom struct {
	mu     sync.Mutex
	info   domain.Room
	order  []domain.ConnID
	guests map[domain.ConnID]domain.GuestInfo
	queue  []domain.QueueItem
	group  map[domain.ConnID]struct{}
	closed bool
}

func newLiveRoom(info domain.Room) *liveRoom {
	return &liveRoom{
		info:   info,
		guests: make(map[domain.ConnID]domain.GuestInfo),
		group:  map[domain.ConnID]struct{}{info.Host: {}},
	}
}

// upsertGuest merges u into the guest record, appending new guests to the
// end of the join order. Caller holds mu.
func (r *liveRoom) upsertGuest(id domain.ConnID, u domain.GuestUpdate) {
	prev, ok := r.guests[id]
	if !ok {
		r.order = append(r.order, id)
	}
	r.guests[id] = prev.Merge(u)
}

// dropGuest reports whether id was a guest. Caller holds mu.
func (r *liveRoom) dropGuest(id domain.ConnID) bool {
	if _, ok := r.guests[id]; !ok {
		return false
	}
	delete(r.guests, id)
	for i, g := range r.order {
		if g == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// members returns the broadcast group. Caller holds mu.
func (r *liveRoom) members() []domain.ConnID {
	out := make([]domain.ConnID, 0, len(r.group))
	for id := range r.group {
		out = append(out, id)
	}
	return out
}

// presence, queueSnapshot: caller holds mu.
func (r *liveRoom) presence() core.PresenceUpdate {
	return Presence(r.order, r.guests)
}

func (r *liveRoom) queueSnapshot() []domain.QueueItem {
	out := make([]domain.QueueItem, len(r.queue))
	copy(out, r.queue)
	return out
}
