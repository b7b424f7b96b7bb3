package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id      domain.ConnID
	mu      sync.Mutex
	frames  []core.Frame
	closed  bool
	sendErr error
}

func newMockConn(id string) *mockConn { return &mockConn{id: domain.ConnID(id)} }

func (m *mockConn) ID() domain.ConnID { return m.id }

func (m *mockConn) TrySend(f core.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("closed")
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, f)
	return nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.frames))
	for _, f := range m.frames {
		var env core.Envelope
		if err := json.Unmarshal(f, &env); err == nil {
			out = append(out, env.Type)
		}
	}
	return out
}

type publishCall struct {
	to []domain.ConnID
	ev core.Event
}

// recorder is a Broadcaster that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls []publishCall
	slow  map[domain.ConnID]bool
}

func (r *recorder) Publish(to []domain.ConnID, ev core.Event) core.PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := append([]domain.ConnID(nil), to...)
	r.calls = append(r.calls, publishCall{to: cp, ev: ev})
	res := core.PublishResult{}
	for _, id := range to {
		if r.slow[id] {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	return res
}

func (r *recorder) all() []publishCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishCall(nil), r.calls...)
}

func (r *recorder) last(t *testing.T) publishCall {
	t.Helper()
	calls := r.all()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

func fixedCodes(codes ...string) func() (domain.RoomCode, error) {
	var mu sync.Mutex
	i := 0
	return func() (domain.RoomCode, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(codes) {
			return "", errors.New("out of codes")
		}
		c := domain.RoomCode(codes[i])
		i++
		return c, nil
	}
}
