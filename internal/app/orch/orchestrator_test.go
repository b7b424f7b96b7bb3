package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     domain.ConnID
	mu     sync.Mutex
	frames []core.Envelope
	closed bool
	full   bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: domain.ConnID(id)} }

func (f *fakeConn) ID() domain.ConnID { return f.id }

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	if f.full {
		return errors.New("full")
	}
	var env core.Envelope
	if err := json.Unmarshal(fr, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ofType returns the frames of one event type, in arrival order.
func (f *fakeConn) ofType(typ string) []core.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Envelope
	for _, env := range f.frames {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func codes(list ...domain.RoomCode) app.StoreOption {
	i := 0
	return app.WithCodeGenerator(func() (domain.RoomCode, error) {
		c := list[i%len(list)]
		i++
		return c, nil
	})
}

var at = time.UnixMilli(1_700_000_000_000)

func newTestOrch(policy app.Policy) *Orchestrator {
	return New(policy, codes("ab12cd34", "ffff0000"), app.WithClock(func() time.Time { return at }))
}

func connect(o *Orchestrator, ids ...string) []*fakeConn {
	out := make([]*fakeConn, 0, len(ids))
	for _, id := range ids {
		c := newFakeConn(id)
		o.OnConnect(c, "dev-"+id, nil)
		out = append(out, c)
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestOrchestrator_OnConnectGreets(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "a", "b")
	a, b := conns[0], conns[1]

	hello := a.ofType(core.EventConnected)
	require.Len(t, hello, 1)
	assert.JSONEq(t, `{"id":"a"}`, string(hello[0].Data))

	counts := a.ofType(core.EventPeersCount)
	require.Len(t, counts, 2)
	assert.JSONEq(t, `2`, string(counts[1].Data))
	assert.Len(t, b.ofType(core.EventPeersCount), 1)
	assert.Equal(t, 2, o.PeersCount())
}

func TestOrchestrator_FridayNight(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "host", "sam")
	host, sam := conns[0], conns[1]

	code, err := o.CreateRoom("host", "Friday Night")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("ab12cd34"), code)

	joined, err := o.Join("sam", code, domain.GuestUpdate{Name: strPtr("Sam")})
	require.NoError(t, err)
	assert.Equal(t, core.JoinedRoom{Name: "Friday Night", GuestCount: 1}, joined)

	for _, c := range []*fakeConn{host, sam} {
		upd := c.ofType(core.EventGuestsUpdate)
		require.Len(t, upd, 1)
		assert.JSONEq(t, `{"count":1,"guests":[{"id":"sam","name":"Sam"}]}`, string(upd[0].Data))
	}

	require.NoError(t, o.AddToQueue("sam", code, domain.TrackRequest{ID: "3135556", Title: "Harder, Better", Artist: "Daft Punk"}))
	for _, c := range []*fakeConn{host, sam} {
		upd := c.ofType(core.EventQueueUpdate)
		require.Len(t, upd, 1)
		assert.JSONEq(t,
			`{"queue":[{"id":"3135556","title":"Harder, Better","artist":"Daft Punk","addedBy":"sam","addedAt":1700000000000}]}`,
			string(upd[0].Data))
	}

	q, err := o.Queue(code)
	require.NoError(t, err)
	require.Len(t, q.Queue, 1)

	info, err := o.RoomInfo("host", code)
	require.NoError(t, err)
	assert.Equal(t, core.RoomInfo{Name: "Friday Night", GuestCount: 1, IsHost: true}, info)

	o.OnDisconnect("host")

	closed := sam.ofType(core.EventRoomClosed)
	require.Len(t, closed, 1)
	assert.JSONEq(t, `{"reason":"host_disconnected"}`, string(closed[0].Data))
	assert.Empty(t, host.ofType(core.EventRoomClosed))

	_, err = o.RoomInfo("sam", code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, o.Registry.RoomsOf("sam"), "closed room is forgotten for its members")
	assert.Equal(t, 1, o.PeersCount())
}

func TestOrchestrator_GuestDisconnect(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "host", "g1", "g2")
	host := conns[0]
	code, err := o.CreateRoom("host", "")
	require.NoError(t, err)
	_, err = o.Join("g1", code, domain.GuestUpdate{})
	require.NoError(t, err)
	_, err = o.Join("g2", code, domain.GuestUpdate{})
	require.NoError(t, err)
	host.reset()

	o.OnDisconnect("g1")
	upd := host.ofType(core.EventGuestsUpdate)
	require.Len(t, upd, 1)
	assert.JSONEq(t, `{"count":1,"guests":[{"id":"g2"}]}`, string(upd[0].Data))

	info, err := o.RoomInfo("host", code)
	require.NoError(t, err)
	assert.Equal(t, "Karaoke", info.Name)
	assert.Equal(t, 1, info.GuestCount)
}

func TestOrchestrator_DisconnectIsIdempotent(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "host", "g1")
	g1 := conns[1]
	code, err := o.CreateRoom("host", "r")
	require.NoError(t, err)
	_, err = o.Join("g1", code, domain.GuestUpdate{})
	require.NoError(t, err)

	o.OnDisconnect("host")
	o.OnDisconnect("host")
	o.OnDisconnect("never-connected")

	assert.Len(t, g1.ofType(core.EventRoomClosed), 1)
	assert.Equal(t, 1, o.PeersCount())
}

func TestOrchestrator_UnknownRoom(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	connect(o, "a")

	_, err := o.Join("a", "00000000", domain.GuestUpdate{})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	err = o.AddToQueue("a", "00000000", domain.TrackRequest{ID: "1", Title: "t", Artist: "a"})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = o.Queue("00000000")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, o.Registry.RoomsOf("a"))
}

func TestOrchestrator_BackpressureKicks(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "host", "slow")
	slow := conns[1]
	code, err := o.CreateRoom("host", "r")
	require.NoError(t, err)
	_, err = o.Join("slow", code, domain.GuestUpdate{})
	require.NoError(t, err)

	slow.mu.Lock()
	slow.full = true
	slow.mu.Unlock()

	require.NoError(t, o.AddToQueue("host", code, domain.TrackRequest{ID: "1", Title: "t", Artist: "a"}))
	assert.True(t, slow.isClosed())
	assert.Equal(t, 2, o.PeersCount(), "kick only closes; the transport reports the disconnect")
}

func TestOrchestrator_TolerantPolicyKeeps(t *testing.T) {
	o := newTestOrch(app.TolerantPolicy{})
	conns := connect(o, "host", "slow")
	slow := conns[1]
	code, err := o.CreateRoom("host", "r")
	require.NoError(t, err)
	_, err = o.Join("slow", code, domain.GuestUpdate{})
	require.NoError(t, err)

	slow.mu.Lock()
	slow.full = true
	slow.mu.Unlock()

	require.NoError(t, o.AddToQueue("host", code, domain.TrackRequest{ID: "1", Title: "t", Artist: "a"}))
	assert.False(t, slow.isClosed())
}

func TestOrchestrator_SendPeersCount(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "a", "b")
	a, b := conns[0], conns[1]
	a.reset()
	b.reset()

	o.SendPeersCount("a")
	require.Len(t, a.ofType(core.EventPeersCount), 1)
	assert.Empty(t, b.ofType(core.EventPeersCount))
}

func TestOrchestrator_Shutdown(t *testing.T) {
	o := newTestOrch(app.SimplePolicy{})
	conns := connect(o, "host", "g1", "idle")
	host, g1, idle := conns[0], conns[1], conns[2]
	code, err := o.CreateRoom("host", "r")
	require.NoError(t, err)
	_, err = o.Join("g1", code, domain.GuestUpdate{})
	require.NoError(t, err)

	o.Shutdown()

	for _, c := range []*fakeConn{host, g1} {
		closed := c.ofType(core.EventRoomClosed)
		require.Len(t, closed, 1)
		assert.JSONEq(t, `{"reason":"server_shutdown"}`, string(closed[0].Data))
	}
	assert.Empty(t, idle.ofType(core.EventRoomClosed))
	assert.True(t, host.isClosed())
	assert.True(t, idle.isClosed())
	assert.Equal(t, 0, o.Rooms.Len())
}
