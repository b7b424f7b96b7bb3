package app

import (
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// Fanout resolves connection ids through the registry and pushes one
// encoded frame to each. Connections already gone are skipped.
type Fanout struct {
	reg *Registry
}

func NewFanout(reg *Registry) *Fanout {
	return &Fanout{reg: reg}
}

func (f *Fanout) Publish(to []domain.ConnID, ev core.Event) core.PublishResult {
	res := core.PublishResult{}
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.fanout").Str("event", ev.Type).Msg("encode")
		return res
	}
	for _, id := range to {
		conn, ok := f.reg.Get(id)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.fanout").Str("event", ev.Type).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// PublishAll sends ev to every live connection.
func (f *Fanout) PublishAll(ev core.Event) core.PublishResult {
	return f.Publish(f.reg.IDs(), ev)
}

// Send delivers ev to a single connection.
func (f *Fanout) Send(id domain.ConnID, ev core.Event) error {
	conn, ok := f.reg.Get(id)
	if !ok {
		return nil
	}
	frame, err := ev.Encode()
	if err != nil {
		return err
	}
	return conn.TrySend(frame)
}
