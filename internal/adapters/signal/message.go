package signal

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

// handleMessage relays a chat payload to the room mates and acks the sender.
// Delivery to each mate is best effort; the ack only means the relay took it.
func (ctl *SignalWSController) handleMessage(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p SignalFrame
	if err := json.Unmarshal(data, &p); err != nil || len(p.Payload) == 0 {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad signal payload")
		ctl.sendJSON(conn, AckFrame{Type: TypeNack, ID: p.ID, Error: CodeBadPayload})
		return
	}

	_, sess, ok := ctl.Orch.Registry.RoomOf(sid)
	if !ok {
		ctl.sendJSON(conn, AckFrame{Type: TypeNack, ID: p.ID, Error: CodeNotJoined})
		return
	}
	from := sess.Connection()
	if ctl.Limiter != nil && !ctl.Limiter.Allow(from.ID) {
		log.Warn().Str("module", "signal").Str("connection", string(from.ID)).Msg("rate limited")
		ctl.sendJSON(conn, AckFrame{Type: TypeNack, ID: p.ID, Error: CodeRateLimited})
		return
	}

	out, err := json.Marshal(SignalFrame{
		Type:    TypeSignal,
		From:    from.ID,
		Payload: p.Payload,
		At:      time.Now().UTC(),
	})
	if err != nil {
		ctl.sendJSON(conn, AckFrame{Type: TypeNack, ID: p.ID, Error: CodeBadPayload})
		return
	}
	res, err := ctl.Orch.Relay(sid, out)
	if err != nil {
		ctl.sendJSON(conn, AckFrame{Type: TypeNack, ID: p.ID, Error: CodeNotJoined})
		return
	}
	log.Debug().Str("module", "signal").Str("connection", string(from.ID)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("relayed")
	ctl.sendJSON(conn, AckFrame{Type: TypeAck, ID: p.ID})
}
