package textchat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// transportHandler keeps the TransportHandler methods off the Session API.
type transportHandler struct {
	s *Session
}

func (h transportHandler) OnPeerJoined(conn domain.Connection) {
	h.s.whenConnected("peer_joined", func() { h.s.addPeerLocked(conn) })
}

func (h transportHandler) OnPeerLeft(conn domain.Connection) {
	h.s.whenConnected("peer_left", func() { h.s.removePeerLocked(conn) })
}

func (h transportHandler) OnMessage(msg core.InboundMessage) {
	h.s.whenConnected("message", func() { h.s.receiveLocked(msg) })
}

func (h transportHandler) OnConnectionLost(err error) {
	h.s.whenConnected("connection_lost", func() { h.s.lostLocked(err) })
}

// whenConnected applies fn now when connected, after the connect result when
// connecting, and drops it otherwise. fn runs with mu held.
func (s *Session) whenConnected(what string, fn func()) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	switch s.phase {
	case domain.Connected:
		fn()
	case domain.Connecting:
		s.early = append(s.early, fn)
	default:
		log.Debug().Str("module", "textchat").Str("event", what).Stringer("phase", s.phase).Msg("transport event dropped")
	}
}

func (s *Session) addPeerLocked(conn domain.Connection) {
	if conn.ID == "" || conn.ID == s.self.ID {
		return
	}
	if _, ok := s.peers[conn.ID]; ok {
		s.peers[conn.ID] = conn
		return
	}
	s.peers[conn.ID] = conn
	log.Info().Str("module", "textchat").Str("peer", string(conn.ID)).Str("alias", conn.Alias).Msg("connection created")
	s.emit(core.ConnectionCreated{Connection: conn})
}

func (s *Session) removePeerLocked(conn domain.Connection) {
	known, ok := s.peers[conn.ID]
	if !ok {
		return
	}
	delete(s.peers, conn.ID)
	log.Info().Str("module", "textchat").Str("peer", string(conn.ID)).Msg("connection destroyed")
	s.emit(core.ConnectionDestroyed{Connection: known})
}

// receiveLocked only trusts local appends for our own messages: anything carrying
// our connection id, or an id already in the history, is dropped.
func (s *Session) receiveLocked(in core.InboundMessage) {
	if in.From != "" && in.From == s.self.ID {
		log.Debug().Str("module", "textchat").Msg("own echo suppressed")
		return
	}
	p, err := core.DecodePayload(in.Payload)
	if err != nil {
		log.Warn().Str("module", "textchat").Str("from", string(in.From)).Err(err).Msg("inbound message dropped")
		return
	}
	if _, dup := s.known[p.ID]; p.ID != uuid.Nil && dup {
		log.Debug().Str("module", "textchat").Str("message", p.ID.String()).Msg("duplicate message suppressed")
		return
	}

	alias := p.Alias
	if alias == "" {
		if peer, ok := s.peers[in.From]; ok {
			alias = peer.Alias
		}
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}

	m := s.appendLocked(domain.Message{
		ID:          id,
		SenderID:    in.From,
		SenderAlias: alias,
		Text:        p.Text,
		Data:        p.Data,
		Timestamp:   at,
		Direction:   domain.Received,
	})
	if alias != "" {
		s.receiverAlias = alias
	}
	s.emit(core.MessageReceived{Message: m})
}

func (s *Session) lostLocked(err error) {
	log.Warn().Str("module", "textchat").Err(err).Msg("connection lost")
	s.beginDisconnect(joinLost(err))
}

func joinLost(err error) error {
	if err == nil {
		return domain.ErrTransportDisconnected
	}
	return fmt.Errorf("%w: %w", domain.ErrTransportDisconnected, err)
}
