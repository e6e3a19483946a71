package orch

import (
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

type JoinRequest struct {
	Room   domain.RoomName
	Alias  string
	Token  string
	APIKey string
}

type JoinResult struct {
	Room domain.RoomName
	Self domain.Connection
	// Members excludes Self.
	Members []domain.Connection
}

// Join authenticates req and adds the socket sid to the room as a new connection.
func (o *Orchestrator) Join(sid core.SessionID, req JoinRequest) (JoinResult, error) {
	o.membership.Lock()
	defer o.membership.Unlock()

	if req.Room == "" {
		return JoinResult{}, ErrNoRoom
	}
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return JoinResult{}, ErrAlreadyJoined
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return JoinResult{}, ErrUnknownSocket
	}
	if o.APIKey != "" && subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(o.APIKey)) != 1 {
		return JoinResult{}, fmt.Errorf("%w: api key", ErrUnauthorized)
	}
	var data string
	if o.Tokens != nil {
		claims, err := o.Tokens.Verify(req.Token, req.Room)
		if err != nil {
			return JoinResult{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		data = claims.Data
	}
	conn, err := domain.NewConnection(req.Alias, data)
	if err != nil {
		return JoinResult{}, err
	}

	session.UpdateConnection(conn)
	room := o.Rooms.GetOrCreate(req.Room)
	members := room.MembersSnapshot()
	room.AddMember(sid, session)
	o.Registry.UpdateRoom(sid, req.Room)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(req.Room)).Str("connection", string(conn.ID)).Msg("added to room")

	return JoinResult{Room: req.Room, Self: conn, Members: members}, nil
}

// Leave removes sid from its room; the socket stays open. Empty rooms are stopped.
func (o *Orchestrator) Leave(sid core.SessionID) (domain.RoomName, domain.Connection, bool) {
	o.membership.Lock()
	defer o.membership.Unlock()

	roomName, session, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", domain.Connection{}, false
	}
	conn := session.Connection()
	if room, ok := o.Rooms.GetRoom(roomName); ok {
		room.RemoveMember(sid)
		if room.MemberCount() == 0 {
			o.Rooms.StopRoom(roomName)
		}
	}
	o.Registry.RemoveRoom(sid)
	session.UpdateConnection(domain.Connection{})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("left room")
	return roomName, conn, true
}

// Rename changes the alias of a joined socket and returns the updated connection.
func (o *Orchestrator) Rename(sid core.SessionID, alias string) (domain.Connection, error) {
	_, session, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.Connection{}, ErrNotJoined
	}
	conn, err := session.Connection().WithAlias(alias)
	if err != nil {
		return domain.Connection{}, err
	}
	o.Registry.UpdateConnection(sid, conn)
	return conn, nil
}

// KickBySID closes the socket; its read loop then runs the regular disconnect.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	if o.Registry.Cancel(sid) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("kicked")
	}
}

// OnDisconnect forgets sid entirely. The returned values describe the room it
// was in, if any, so the caller can tell the room mates.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) (domain.RoomName, domain.Connection, bool) {
	roomName, conn, ok := o.Leave(sid)
	o.Registry.Unbind(sid)
	return roomName, conn, ok
}

func (o *Orchestrator) EvictRoom(name domain.RoomName) {
	for _, snap := range o.Registry.MembersOfRoom(name) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(name)
}
