package app

import (
	"context"
	"sync"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.SignalConnection
	Device string
	Rooms  map[domain.RoomCode]struct{}
	Cancel context.CancelFunc
}

// Registry tracks live connections and the rooms each one is subscribed to.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

func (r *Registry) Bind(conn core.SignalConnection, device string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = &connEntry{
		Conn:   conn,
		Device: device,
		Rooms:  make(map[domain.RoomCode]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).Str("device", device).Msg("bound connection")
}

// Unbind forgets the connection and returns the rooms it was subscribed to.
// The second result is false if the connection was not bound, so a
// disconnect is only ever processed once.
func (r *Registry) Unbind(id domain.ConnID) ([]domain.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	rooms := make([]domain.RoomCode, 0, len(e.Rooms))
	for code := range e.Rooms {
		rooms = append(rooms, code)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("rooms", len(rooms)).Msg("unbind connection")
	return rooms, true
}

func (r *Registry) Get(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) IDs() []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConnID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// TrackRoom records that id is in the broadcast group of code.
func (r *Registry) TrackRoom(id domain.ConnID, code domain.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Rooms[code] = struct{}{}
	return true
}

func (r *Registry) ForgetRoom(id domain.ConnID, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		delete(e.Rooms, code)
	}
}

func (r *Registry) RoomsOf(id domain.ConnID) []domain.RoomCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomCode, 0, len(e.Rooms))
	for code := range e.Rooms {
		out = append(out, code)
	}
	return out
}

// Kick cancels the connection context and closes its transport. The
// adapter's read loop then runs the regular disconnect path.
func (r *Registry) Kick(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("kicked connection")
	return true
}

// CloseAll closes every live transport without cancelling it, so frames
// already queued are still flushed. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]core.SignalConnection, 0, len(r.conns))
	for _, e := range r.conns {
		conns = append(conns, e.Conn)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
}
