package orch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/app"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

var (
	ErrAlreadyJoined = errors.New("already in a session")
	ErrNotJoined     = errors.New("not in a session")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknownSocket = errors.New("unknown socket")
	ErrNoRoom        = errors.New("room name required")
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Tokens   *app.TokenService
	// APIKey, when set, must be presented on every join.
	APIKey string

	// membership serializes joins and leaves so an emptied room is never
	// stopped under a concurrent join.
	membership sync.Mutex
}

// Relay fans data out to the room mates of sid and applies the backpressure
// policy to everyone who could not take it.
func (o *Orchestrator) Relay(sid core.SessionID, data core.Frame) (core.PublishResult, error) {
	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return core.PublishResult{}, ErrNotJoined
	}
	room, ok := o.Rooms.GetRoom(roomName)
	if !ok {
		return core.PublishResult{}, ErrNotJoined
	}

	res := room.Broadcast(sid, data)
	if o.Policy == nil {
		return res, nil
	}
	for _, slow := range res.Dropped {
		action := o.Policy.OnBackPressure(room, slow)
		log.Warn().Str("module", "orch").Str("room", string(roomName)).Str("connection", string(slow.Connection().ID)).Stringer("action", action).Msg("backpressure")
		switch action {
		case app.KickMember:
			for _, snap := range o.Registry.MembersOfRoom(roomName) {
				if snap.Session == slow {
					o.KickBySID(snap.SID)
				}
			}
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
	return res, nil
}
