package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/app/orch"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

func (ctl *SignalWSController) handleRename(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p RenameFrame
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(conn, CodeBadPayload)
		return
	}

	updated, err := ctl.Orch.Rename(sid, p.Name)
	switch {
	case errors.Is(err, orch.ErrNotJoined):
		ctl.sendError(conn, CodeNotJoined)
		return
	case err != nil:
		ctl.sendError(conn, CodeInvalidName)
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	ctl.handleWhoAmI(sid, conn)
	ctl.BroadcastFrom(sid, MemberFrame{Type: TypeMemberUpdated, Connection: updated})
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	resp := WhoAmIFrame{Type: TypeWhoAmI}
	if room, sess, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		c := sess.Connection()
		resp.Connection = &c
		resp.Room = string(room)
	}
	ctl.sendJSON(conn, resp)
}
