package core

import "github.com/dkeye/Karaoke/internal/domain"

// Frame is one encoded outbound text message.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() domain.ConnID
	// TrySend must not block; a full queue is reported as an error.
	TrySend(Frame) error
	Close()
}
