package app

import "github.com/dkeye/Karaoke/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a connection whose outbound queue was
// full during a fan-out.
type Policy interface {
	OnBackPressure(code domain.RoomCode, conn domain.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomCode, domain.ConnID) BackpressureAction {
	return KickMember
}

// TolerantPolicy keeps slow connections; they just miss the frame.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.RoomCode, domain.ConnID) BackpressureAction {
	return NoAction
}
