package signal

import (
	"encoding/json"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleQueueGet(_ core.SignalConnection, data json.RawMessage) any {
	code, err := decodeCode(data)
	if err != nil {
		return fail(err)
	}
	q, err := ctl.Orch.Queue(code)
	if err != nil {
		return fail(err)
	}
	return success(map[string]any{"queue": q.Queue})
}

// handleQueueAdd acks pass/fail only; the new queue reaches the caller
// through the queue:update broadcast.
func (ctl *SignalWSController) handleQueueAdd(conn core.SignalConnection, data json.RawMessage) any {
	cmd, err := decodeQueueAdd(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Msg("bad queue payload")
		return fail(err)
	}
	if !ctl.adds.Allow(conn.ID()) {
		return fail(domain.ErrRateLimited)
	}
	if err := ctl.Orch.AddToQueue(conn.ID(), cmd.Code, cmd.Track); err != nil {
		return fail(err)
	}
	return success(nil)
}
