package textchat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// SendMessage appends text as a sent message and hands it to the transport.
// Rejections are published as SendFailed; a transport failure after the append is
// published as MessageDeliveryFailed and the message stays in the history.
func (s *Session) SendMessage(text string) {
	s.send(domain.Message{Text: text}, false)
}

// SendCustomMessage sends a caller-built message. Text, Data, SenderAlias, ID and
// Timestamp are taken from msg when set; everything else is assigned here.
func (s *Session) SendCustomMessage(msg domain.Message) {
	s.send(msg, true)
}

func (s *Session) send(msg domain.Message, custom bool) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if err := s.checkSendable(msg, custom); err != nil {
		log.Debug().Str("module", "textchat").Err(err).Msg("send rejected")
		s.emit(core.SendFailed{Text: msg.Text, Err: err})
		return
	}

	m := domain.Message{
		ID:          uuid.New(),
		SenderID:    s.self.ID,
		SenderAlias: s.alias,
		Text:        msg.Text,
		Timestamp:   time.Now(),
		Direction:   domain.Sent,
	}
	if custom {
		if msg.ID != uuid.Nil {
			m.ID = msg.ID
		}
		if msg.SenderAlias != "" {
			m.SenderAlias = msg.SenderAlias
		}
		if !msg.Timestamp.IsZero() {
			m.Timestamp = msg.Timestamp
		}
		if len(msg.Data) > 0 {
			m.Data = append(json.RawMessage(nil), msg.Data...)
		}
	}

	m = s.appendLocked(m)
	s.emit(core.MessageSent{Message: m})

	payload, err := core.EncodePayload(m)
	if err != nil {
		s.emit(core.MessageDeliveryFailed{Message: m, Err: errors.Join(domain.ErrDeliveryFailed, err)})
		return
	}
	s.wg.Add(1)
	go s.deliver(m, payload)
}

// checkSendable must be called with mu held.
func (s *Session) checkSendable(msg domain.Message, custom bool) error {
	if s.phase != domain.Connected {
		return errors.Join(domain.ErrSendRejected, domain.ErrNotConnected)
	}
	hasText := strings.TrimSpace(msg.Text) != ""
	if !custom && !hasText {
		return errors.Join(domain.ErrSendRejected, domain.ErrEmptyMessage)
	}
	if custom {
		if !hasText && len(msg.Data) == 0 {
			return errors.Join(domain.ErrSendRejected, domain.ErrEmptyMessage)
		}
		if len(msg.Data) > 0 && !json.Valid(msg.Data) {
			return errors.Join(domain.ErrSendRejected, core.ErrBadPayload)
		}
		if err := domain.ValidateAlias(msg.SenderAlias); err != nil {
			return errors.Join(domain.ErrSendRejected, err)
		}
		if _, dup := s.known[msg.ID]; msg.ID != uuid.Nil && dup {
			return errors.Join(domain.ErrSendRejected, errDuplicateID)
		}
	}
	return nil
}

var errDuplicateID = errors.New("message id already in history")

func (s *Session) deliver(m domain.Message, payload []byte) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
	defer cancel()
	err := s.transport.Send(ctx, payload)
	if err == nil {
		log.Debug().Str("module", "textchat").Str("message", m.ID.String()).Msg("delivered")
		return
	}

	log.Warn().Str("module", "textchat").Str("message", m.ID.String()).Err(err).Msg("delivery failed")
	s.mu.Lock()
	s.emit(core.MessageDeliveryFailed{Message: m, Err: errors.Join(domain.ErrDeliveryFailed, err)})
	s.unlockAndFlush()
}

// SetAlias changes the alias used for messages sent from now on. While connected
// over a transport that supports it, peers are told as well; a failure there is
// only logged and the local alias still changes.
func (s *Session) SetAlias(alias string) error {
	if err := domain.ValidateAlias(alias); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alias = alias
	r, ok := s.transport.(core.Renamer)
	if !ok || s.phase != domain.Connected || s.closed || alias == "" {
		return nil
	}
	s.self.Alias = alias
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
		defer cancel()
		if err := r.Rename(ctx, alias); err != nil {
			log.Warn().Str("module", "textchat").Str("alias", alias).Err(err).Msg("rename not announced")
		}
	}()
	return nil
}

// appendLocked adds m to the history, reclassifies the affected suffix and
// returns the classified copy. Must be called with mu held.
func (s *Session) appendLocked(m domain.Message) domain.Message {
	idx := len(s.history)
	s.history = append(s.history, m)
	s.known[m.ID] = struct{}{}
	core.Classify(s.history, idx, s.classify)
	return s.history[idx].Clone()
}
