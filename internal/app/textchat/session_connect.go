package textchat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// Connect starts connecting unless the session is already connecting or connected.
// The outcome is published as Connected or ConnectFailed.
func (s *Session) Connect() {
	s.connect(nil)
}

// ConnectWithHandler is Connect plus a one-shot handler. h receives the event that
// ends the attempt: Connected, ConnectFailed, or Disconnected when a Disconnect
// cancelled it. If the session is already connected h gets Connected right away.
func (s *Session) ConnectWithHandler(h func(core.Event)) {
	s.connect(h)
}

func (s *Session) connect(h func(core.Event)) {
	var handlers []func(core.Event)
	if h != nil {
		handlers = append(handlers, h)
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.closed {
		s.reply(core.ConnectFailed{Err: fmt.Errorf("%w: session closed", domain.ErrInvalidPhase)}, handlers...)
		return
	}

	switch s.phase {
	case domain.Connected:
		s.reply(core.Connected{Self: s.self}, handlers...)
		return
	case domain.Connecting:
		s.connectWaiters = append(s.connectWaiters, handlers...)
		return
	case domain.Disconnecting:
		s.reply(core.ConnectFailed{Err: fmt.Errorf("%w: %s", domain.ErrInvalidPhase, s.phase)}, handlers...)
		return
	}

	if !s.creds.Complete() {
		err := fmt.Errorf("%w: api key, session id and token are required", domain.ErrConfigurationMissing)
		log.Warn().Str("module", "textchat").Err(err).Msg("connect rejected")
		s.emit(core.ConnectFailed{Err: err}, handlers...)
		return
	}

	s.setPhase(domain.Connecting)
	s.cancelConnect = false
	s.connectWaiters = handlers
	req := core.ConnectRequest{Credentials: s.creds, Alias: s.alias}

	log.Info().Str("module", "textchat").Str("session", s.creds.SessionID).Str("alias", s.alias).Msg("connecting")
	s.wg.Add(1)
	go s.runConnect(req)
}

func (s *Session) runConnect(req core.ConnectRequest) {
	defer s.wg.Done()

	res, err := s.transport.Connect(s.ctx, req)

	s.mu.Lock()
	if err == nil && s.cancelConnect {
		// Tear down before leaving Connecting so no Connected is ever observed.
		s.mu.Unlock()
		derr := s.disconnectTransport()
		s.mu.Lock()
		waiters := s.takeWaiters()
		s.early = nil
		s.cancelConnect = false
		s.setPhase(domain.Disconnected)
		log.Info().Str("module", "textchat").Msg("connect completed after disconnect request, torn down")
		s.emit(core.Disconnected{Err: derr}, waiters...)
		s.unlockAndFlush()
		return
	}
	defer s.unlockAndFlush()

	waiters := s.takeWaiters()
	s.cancelConnect = false
	if err != nil {
		s.early = nil
		s.setPhase(domain.Disconnected)
		cerr := errors.Join(domain.ErrConnectFailure, err)
		log.Warn().Str("module", "textchat").Err(err).Msg("connect failed")
		s.emit(core.ConnectFailed{Err: cerr}, waiters...)
		return
	}

	s.self = res.Self
	s.setPhase(domain.Connected)
	log.Info().Str("module", "textchat").Str("self", string(res.Self.ID)).Int("peers", len(res.Peers)).Msg("connected")
	s.emit(core.Connected{Self: res.Self}, waiters...)
	for _, p := range res.Peers {
		s.addPeerLocked(p)
	}
	early := s.early
	s.early = nil
	for _, fn := range early {
		fn()
	}
}

func (s *Session) takeWaiters() []func(core.Event) {
	w := s.connectWaiters
	s.connectWaiters = nil
	return w
}

// Disconnect stops the session. While a connect is in flight the request is
// remembered and honoured when the connect completes.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	switch s.phase {
	case domain.Connecting:
		s.cancelConnect = true
		log.Info().Str("module", "textchat").Msg("disconnect requested while connecting")
	case domain.Connected:
		s.beginDisconnect(nil)
	}
}

// beginDisconnect moves Connected -> Disconnecting and runs the transport teardown.
// cause, when set, replaces the teardown error in the Disconnected event.
// Must be called with mu held.
func (s *Session) beginDisconnect(cause error) {
	s.setPhase(domain.Disconnecting)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.disconnectTransport()
		if cause != nil {
			err = cause
		}
		s.mu.Lock()
		s.finishDisconnect(err)
		s.unlockAndFlush()
	}()
}

// disconnectTransport uses its own deadline: teardown must run even after Close
// cancelled the session context.
func (s *Session) disconnectTransport() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.disconnectTimeout)
	defer cancel()
	err := s.transport.Disconnect(ctx)
	if err != nil {
		log.Warn().Str("module", "textchat").Err(err).Msg("transport disconnect")
	}
	return err
}

// finishDisconnect must be called with mu held.
func (s *Session) finishDisconnect(err error) {
	if s.phase != domain.Disconnecting {
		return
	}
	s.self = domain.Connection{}
	clear(s.peers)
	s.setPhase(domain.Disconnected)
	log.Info().Str("module", "textchat").AnErr("reason", err).Msg("disconnected")
	s.emit(core.Disconnected{Err: err})
}
