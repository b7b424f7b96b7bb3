package orch

import (
	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

func (o *Orchestrator) Queue(code domain.RoomCode) (core.QueueUpdate, error) {
	items, err := o.Rooms.Queue(code)
	if err != nil {
		return core.QueueUpdate{}, err
	}
	return app.QueueOf(items), nil
}

func (o *Orchestrator) AddToQueue(id domain.ConnID, code domain.RoomCode, t domain.TrackRequest) error {
	res, err := o.Rooms.AddToQueue(code, id, t)
	if err != nil {
		return err
	}
	o.applyPolicy(drops(code, res))
	return nil
}

func drops(code domain.RoomCode, res core.PublishResult) []app.Dropped {
	out := make([]app.Dropped, 0, len(res.Dropped))
	for _, id := range res.Dropped {
		out = append(out, app.Dropped{Room: code, Conn: id})
	}
	return out
}
