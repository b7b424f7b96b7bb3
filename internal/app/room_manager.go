package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 16

// RoomStore owns every live room. Lock order is always store before room;
// the store lock is never held while waiting on a room lock.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomCode]*liveRoom
	out     core.Broadcaster
	newCode func() (domain.RoomCode, error)
	now     func() time.Time
}

type StoreOption func(*RoomStore)

func WithCodeGenerator(gen func() (domain.RoomCode, error)) StoreOption {
	return func(s *RoomStore) { s.newCode = gen }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *RoomStore) { s.now = now }
}

func NewRoomStore(out core.Broadcaster, opts ...StoreOption) *RoomStore {
	s := &RoomStore{
		rooms:   make(map[domain.RoomCode]*liveRoom),
		out:     out,
		newCode: domain.NewRoomCode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Departure describes what a disconnect did to the rooms it touched.
type Departure struct {
	// Closed maps each room the connection hosted to the members that were
	// forced out of its broadcast group.
	Closed map[domain.RoomCode][]domain.ConnID
	// Left lists rooms where the connection was a guest or subscriber.
	Left []domain.RoomCode
	// Dropped collects connections whose queue was full during fan-out.
	Dropped []Dropped
}

type Dropped struct {
	Room domain.RoomCode
	Conn domain.ConnID
}

// Create registers a new room hosted by host. Code generation and the
// uniqueness check run under one write lock; a colliding code is re-rolled.
func (s *RoomStore) Create(host domain.ConnID, name string) (domain.RoomCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range maxCodeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.rooms[code]; taken {
			log.Warn().Str("module", "app.rooms").Str("room", string(code)).Msg("room code collision, re-rolling")
			continue
		}
		info := domain.Room{
			Code:      code,
			Name:      domain.NormalizeRoomName(name),
			Host:      host,
			CreatedAt: s.now(),
		}
		s.rooms[code] = newLiveRoom(info)
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("host", string(host)).Str("name", info.Name).Msg("room created")
		return code, nil
	}
	return "", fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// lookup returns the room or ErrRoomNotFound. The room may still be closed
// by the time the caller locks it; callers must check closed.
func (s *RoomStore) lookup(code domain.RoomCode) (*liveRoom, error) {
	s.mu.RLock()
	r, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r, nil
}

// locked runs fn with the room locked, or returns ErrRoomNotFound.
func (s *RoomStore) locked(code domain.RoomCode, fn func(r *liveRoom)) error {
	r, err := s.lookup(code)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	fn(r)
	return nil
}

func (s *RoomStore) Info(code domain.RoomCode, caller domain.ConnID) (core.RoomInfo, error) {
	var info core.RoomInfo
	err := s.locked(code, func(r *liveRoom) {
		info = core.RoomInfo{
			Name:       r.info.Name,
			GuestCount: len(r.guests),
			IsHost:     r.info.Host == caller,
		}
	})
	return info, err
}

// Join subscribes conn to the room and, unless conn is the host, merges
// its guest record. Every successful join broadcasts presence once.
func (s *RoomStore) Join(code domain.RoomCode, conn domain.ConnID, u domain.GuestUpdate) (core.JoinedRoom, core.PublishResult, error) {
	var (
		joined core.JoinedRoom
		res    core.PublishResult
	)
	err := s.locked(code, func(r *liveRoom) {
		if conn != r.info.Host {
			r.upsertGuest(conn, u)
		}
		r.group[conn] = struct{}{}
		res = s.out.Publish(r.members(), core.Event{Type: core.EventGuestsUpdate, Data: r.presence()})
		joined = core.JoinedRoom{Name: r.info.Name, GuestCount: len(r.guests)}
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("conn", string(conn)).Int("guests", len(r.guests)).Msg("joined")
	})
	return joined, res, err
}

func (s *RoomStore) Queue(code domain.RoomCode) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := s.locked(code, func(r *liveRoom) {
		items = r.queueSnapshot()
	})
	return items, err
}

// AddToQueue appends one item at the tail and broadcasts the full queue.
// AddedBy and AddedAt are always stamped here.
func (s *RoomStore) AddToQueue(code domain.RoomCode, conn domain.ConnID, t domain.TrackRequest) (core.PublishResult, error) {
	if err := t.Validate(); err != nil {
		return core.PublishResult{}, err
	}
	var res core.PublishResult
	err := s.locked(code, func(r *liveRoom) {
		r.queue = append(r.queue, domain.NewQueueItem(t, conn, s.now()))
		res = s.out.Publish(r.members(), core.Event{Type: core.EventQueueUpdate, Data: QueueOf(r.queue)})
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("conn", string(conn)).Str("track", t.ID).Int("queue_len", len(r.queue)).Msg("queued")
	})
	return res, err
}

// RemoveConnection runs once per disconnect over the rooms conn was
// subscribed to. Hosting and guest membership are checked independently.
// Unknown or already closed rooms are skipped.
func (s *RoomStore) RemoveConnection(conn domain.ConnID, codes []domain.RoomCode) Departure {
	dep := Departure{Closed: make(map[domain.RoomCode][]domain.ConnID)}
	for _, code := range codes {
		r, err := s.lookup(code)
		if err != nil {
			continue
		}
		if r.info.Host == conn {
			members, res, ok := s.closeRoom(code, r, core.ReasonHostDisconnected, conn)
			if ok {
				dep.Closed[code] = members
				dep.Dropped = appendDropped(dep.Dropped, code, res)
			}
			continue
		}
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			continue
		}
		wasGuest := r.dropGuest(conn)
		delete(r.group, conn)
		if wasGuest && len(r.group) > 0 {
			res := s.out.Publish(r.members(), core.Event{Type: core.EventGuestsUpdate, Data: r.presence()})
			dep.Dropped = appendDropped(dep.Dropped, code, res)
		}
		guests := len(r.guests)
		r.mu.Unlock()
		dep.Left = append(dep.Left, code)
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("conn", string(conn)).Bool("guest", wasGuest).Int("guests", guests).Msg("left")
	}
	return dep
}

// closeRoom deletes the room, sends room:closed once to every member
// except skip, and empties the broadcast group.
func (s *RoomStore) closeRoom(code domain.RoomCode, r *liveRoom, reason string, skip domain.ConnID) ([]domain.ConnID, core.PublishResult, bool) {
	s.mu.Lock()
	if cur, ok := s.rooms[code]; ok && cur == r {
		delete(s.rooms, code)
	}
	s.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, core.PublishResult{}, false
	}
	r.closed = true
	delete(r.group, skip)
	members := r.members()
	var res core.PublishResult
	if len(members) > 0 {
		res = s.out.Publish(members, core.Event{Type: core.EventRoomClosed, Data: Closed(reason)})
	}
	clear(r.group)
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("reason", reason).Int("members", len(members)).Msg("room closed")
	return members, res, true
}

// Close tears down every live room. Used at shutdown.
func (s *RoomStore) Close(reason string) map[domain.RoomCode][]domain.ConnID {
	s.mu.RLock()
	live := make(map[domain.RoomCode]*liveRoom, len(s.rooms))
	for code, r := range s.rooms {
		live[code] = r
	}
	s.mu.RUnlock()

	out := make(map[domain.RoomCode][]domain.ConnID, len(live))
	for code, r := range live {
		if members, _, ok := s.closeRoom(code, r, reason, ""); ok {
			out[code] = members
		}
	}
	return out
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *RoomStore) Stats() core.StoreStats {
	s.mu.RLock()
	live := make([]*liveRoom, 0, len(s.rooms))
	for _, r := range s.rooms {
		live = append(live, r)
	}
	s.mu.RUnlock()

	st := core.StoreStats{Rooms: len(live)}
	for _, r := range live {
		r.mu.Lock()
		st.Guests += len(r.guests)
		st.Queued += len(r.queue)
		r.mu.Unlock()
	}
	return st
}

func appendDropped(dst []Dropped, code domain.RoomCode, res core.PublishResult) []Dropped {
	for _, id := range res.Dropped {
		dst = append(dst, Dropped{Room: code, Conn: id})
	}
	return dst
}
