package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/app/orch"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p JoinFrame
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, CodeBadPayload)
		return
	}

	res, err := ctl.Orch.Join(sid, orch.JoinRequest{
		Room:   domain.RoomName(p.Room),
		Alias:  p.Name,
		Token:  p.Token,
		APIKey: p.APIKey,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join rejected")
		ctl.sendError(conn, joinErrorCode(err))
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Str("connection", string(res.Self.ID)).Msg("join")
	ctl.sendJSON(conn, JoinedFrame{
		Type:    TypeJoined,
		Room:    string(res.Room),
		Self:    res.Self,
		Members: res.Members,
	})
	ctl.BroadcastFrom(sid, MemberFrame{Type: TypeMemberJoined, Connection: res.Self})
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, orch.ErrAlreadyJoined):
		return CodeAlreadyJoined
	case errors.Is(err, orch.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, domain.ErrAliasTooLong):
		return CodeInvalidName
	default:
		return CodeBadPayload
	}
}

// handleLeave leaves the current room; the socket stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	room, left, ok := ctl.Orch.Leave(sid)
	ctl.sendJSON(conn, envelope{Type: TypeLeft})
	if ok {
		ctl.announceLeft(room, left)
	}
}

func (ctl *SignalWSController) onDisconnect(sid core.SessionID) {
	room, left, ok := ctl.Orch.OnDisconnect(sid)
	if !ok {
		return
	}
	if ctl.Limiter != nil {
		ctl.Limiter.Forget(left.ID)
	}
	ctl.announceLeft(room, left)
}

func (ctl *SignalWSController) announceLeft(room domain.RoomName, left domain.Connection) {
	ctl.BroadcastRoom(room, MemberFrame{Type: TypeMemberLeft, Connection: left})
}
