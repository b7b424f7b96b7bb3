package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the disconnect path: whatever ends the loop, the
// orchestrator hears about it exactly once.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(c.id)
		ctl.creates.Forget(c.id)
		ctl.adds.Forget(c.id)
		c.Close()
		cancel()
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(c, data)
		}
	}
}

// handleSignal decodes one inbound frame, runs it to completion and sends
// the acknowledgement, if one was asked for, to the caller only.
func (ctl *SignalWSController) handleSignal(c core.SignalConnection, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("bad json")
		return
	}

	var reply any
	switch env.Type {
	case core.EventPing:
		reply = success(nil)
	case core.EventPeersCountRequest:
		ctl.Orch.SendPeersCount(c.ID())
		return
	case core.EventRoomCreate:
		reply = ctl.handleCreate(c, env.Data)
	case core.EventRoomJoin:
		reply = ctl.handleJoin(c, env.Data)
	case core.EventRoomInfo:
		reply = ctl.handleInfo(c, env.Data)
	case core.EventQueueGet:
		reply = ctl.handleQueueGet(c, env.Data)
	case core.EventQueueAdd:
		reply = ctl.handleQueueAdd(c, env.Data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		reply = failText("Unknown event")
	}

	if env.Ack == "" {
		return
	}
	ctl.sendJSON(c, core.Event{Type: core.EventAck, Ack: env.Ack, Data: reply})
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, ev core.Event) {
	b, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.ID())).Msg("ack not delivered")
	}
}

func success(fields map[string]any) map[string]any {
	out := map[string]any{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func fail(err error) map[string]any {
	return failText(errorText(err))
}

func failText(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many requests"
	case domain.IsInvalid(err):
		return err.Error()
	default:
		return "Internal error"
	}
}
