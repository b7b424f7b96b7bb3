package orch

import (
	"context"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomStore
	Fanout   *app.Fanout
	Policy   app.Policy
}

// New wires a registry, fan-out and room store that share one lifetime.
func New(policy app.Policy, opts ...app.StoreOption) *Orchestrator {
	reg := app.NewRegistry()
	fan := app.NewFanout(reg)
	return &Orchestrator{
		Registry: reg,
		Rooms:    app.NewRoomStore(fan, opts...),
		Fanout:   fan,
		Policy:   policy,
	}
}

// OnConnect registers a fresh transport session, greets it with its id and
// tells everyone the new peer count.
func (o *Orchestrator) OnConnect(conn core.SignalConnection, device string, cancel context.CancelFunc) {
	o.Registry.Bind(conn, device, cancel)
	if err := o.Fanout.Send(conn.ID(), core.Event{
		Type: core.EventConnected,
		Data: map[string]any{"id": conn.ID()},
	}); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(conn.ID())).Msg("hello not delivered")
	}
	o.broadcastPeers()
}

// OnDisconnect releases everything the connection held. Safe to call more
// than once; only the first call has an effect.
func (o *Orchestrator) OnDisconnect(id domain.ConnID) {
	rooms, ok := o.Registry.Unbind(id)
	if !ok {
		return
	}
	dep := o.Rooms.RemoveConnection(id, rooms)
	for code, members := range dep.Closed {
		for _, m := range members {
			o.Registry.ForgetRoom(m, code)
		}
	}
	o.applyPolicy(dep.Dropped)
	o.broadcastPeers()
}

func (o *Orchestrator) PeersCount() int {
	return o.Registry.Count()
}

// SendPeersCount answers a peers:count:request to the caller only.
func (o *Orchestrator) SendPeersCount(id domain.ConnID) {
	if err := o.Fanout.Send(id, core.Event{Type: core.EventPeersCount, Data: o.PeersCount()}); err != nil {
		o.applyPolicy([]app.Dropped{{Conn: id}})
	}
}

func (o *Orchestrator) broadcastPeers() {
	res := o.Fanout.PublishAll(core.Event{Type: core.EventPeersCount, Data: o.PeersCount()})
	drops := make([]app.Dropped, 0, len(res.Dropped))
	for _, id := range res.Dropped {
		drops = append(drops, app.Dropped{Conn: id})
	}
	o.applyPolicy(drops)
}

func (o *Orchestrator) applyPolicy(drops []app.Dropped) {
	if o.Policy == nil {
		return
	}
	for _, d := range drops {
		switch o.Policy.OnBackPressure(d.Room, d.Conn) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("conn", string(d.Conn)).Str("room", string(d.Room)).Msg("slow consumer, kicking")
			o.Registry.Kick(d.Conn)
		case app.NoAction:
		}
	}
}

// Shutdown closes every room and every connection.
func (o *Orchestrator) Shutdown() {
	closed := o.Rooms.Close(core.ReasonServerShutdown)
	for code, members := range closed {
		for _, m := range members {
			o.Registry.ForgetRoom(m, code)
		}
	}
	o.Registry.CloseAll()
	log.Info().Str("module", "orch").Int("rooms", len(closed)).Msg("coordinator stopped")
}
