package orch

import (
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

func (o *Orchestrator) CreateRoom(host domain.ConnID, name string) (domain.RoomCode, error) {
	code, err := o.Rooms.Create(host, name)
	if err != nil {
		return "", err
	}
	o.Registry.TrackRoom(host, code)
	return code, nil
}

func (o *Orchestrator) RoomInfo(caller domain.ConnID, code domain.RoomCode) (core.RoomInfo, error) {
	return o.Rooms.Info(code, caller)
}

// Join subscribes id to the room. Calling it again with the same id only
// merges the provided guest fields.
func (o *Orchestrator) Join(id domain.ConnID, code domain.RoomCode, u domain.GuestUpdate) (core.JoinedRoom, error) {
	joined, res, err := o.Rooms.Join(code, id, u)
	if err != nil {
		return core.JoinedRoom{}, err
	}
	o.Registry.TrackRoom(id, code)
	o.applyPolicy(drops(code, res))
	return joined, nil
}
