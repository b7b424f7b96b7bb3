package signal

import (
	"encoding/json"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleCreate acks with the bare room code on success.
func (ctl *SignalWSController) handleCreate(conn core.SignalConnection, data json.RawMessage) any {
	name, err := decodeRoomName(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Msg("bad create payload")
		return fail(err)
	}
	if !ctl.creates.Allow(conn.ID()) {
		return fail(domain.ErrRateLimited)
	}
	code, err := ctl.Orch.CreateRoom(conn.ID(), name)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Msg("create room")
		return fail(err)
	}
	return code
}

func (ctl *SignalWSController) handleJoin(conn core.SignalConnection, data json.RawMessage) any {
	cmd, err := decodeJoin(data)
	if err == nil {
		err = cmd.Update.Validate(ctl.cfg.MaxAvatarBytes)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Msg("bad join payload")
		return fail(err)
	}
	joined, err := ctl.Orch.Join(conn.ID(), cmd.Code, cmd.Update)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(conn.ID())).Str("room", string(cmd.Code)).Msg("join rejected")
		return fail(err)
	}
	return success(map[string]any{"room": joined})
}

func (ctl *SignalWSController) handleInfo(conn core.SignalConnection, data json.RawMessage) any {
	code, err := decodeCode(data)
	if err != nil {
		return fail(err)
	}
	info, err := ctl.Orch.RoomInfo(conn.ID(), code)
	if err != nil {
		return fail(err)
	}
	return success(map[string]any{"room": info})
}
