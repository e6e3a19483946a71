// Package textchat is the chat session controller: it owns the connection phase,
// the message history and its classification, and publishes every change, in
// order, to subscribers.
package textchat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

const (
	defaultSendTimeout       = 10 * time.Second
	defaultDisconnectTimeout = 5 * time.Second
)

type Config struct {
	Alias            string
	Credentials      core.Credentials
	DividerThreshold time.Duration
	// SendTimeout bounds one transport Send. Connect has no timeout.
	SendTimeout       time.Duration
	DisconnectTimeout time.Duration
	Transport         core.Transport
}

// delivery is one outbox entry. Handlers run right after the event is
// published; silent entries only reach their handlers.
type delivery struct {
	ev       core.Event
	silent   bool
	handlers []func(core.Event)
}

type Session struct {
	transport         core.Transport
	creds             core.Credentials
	classify          core.ClassifyOptions
	sendTimeout       time.Duration
	disconnectTimeout time.Duration
	hub               *core.Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	closed         bool
	alias          string
	phase          domain.Phase
	self           domain.Connection
	peers          map[domain.ConnectionID]domain.Connection
	history        []domain.Message
	known          map[uuid.UUID]struct{}
	receiverAlias  string
	cancelConnect  bool
	connectWaiters []func(core.Event)
	// early holds transport events that raced ahead of the connect result.
	early []func()

	outbox   []delivery
	flushing bool

	phaseHook func(from, to domain.Phase)
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("%w: transport", domain.ErrConfigurationMissing)
	}
	if err := domain.ValidateAlias(cfg.Alias); err != nil {
		return nil, err
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = defaultDisconnectTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		transport:         cfg.Transport,
		creds:             cfg.Credentials,
		classify:          core.ClassifyOptions{DividerThreshold: cfg.DividerThreshold},
		sendTimeout:       cfg.SendTimeout,
		disconnectTimeout: cfg.DisconnectTimeout,
		hub:               core.NewHub(),
		ctx:               ctx,
		cancel:            cancel,
		alias:             cfg.Alias,
		phase:             domain.Disconnected,
		peers:             make(map[domain.ConnectionID]domain.Connection),
		known:             make(map[uuid.UUID]struct{}),
	}
	cfg.Transport.SetHandler(transportHandler{s: s})
	return s, nil
}

// Subscribe registers sub for all future events and returns its unsubscribe func.
func (s *Session) Subscribe(sub core.Subscriber) func() {
	return s.hub.Subscribe(sub)
}

// Close disconnects, waits for in-flight transport calls and drops all subscribers.
// A transport Connect that ignores its context keeps Close waiting.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Disconnect()
	s.cancel()
	s.wg.Wait()
	s.flush()
	s.hub.Clear()
	log.Info().Str("module", "textchat").Msg("session closed")
}

// setPhase must be called with mu held.
func (s *Session) setPhase(to domain.Phase) {
	from := s.phase
	if !domain.CanTransition(from, to) {
		log.Error().Str("module", "textchat").Stringer("from", from).Stringer("to", to).Msg("illegal phase transition")
	}
	s.phase = to
	log.Debug().Str("module", "textchat").Stringer("from", from).Stringer("to", to).Msg("phase changed")
	if s.phaseHook != nil {
		s.phaseHook(from, to)
	}
}

// emit queues ev for subscribers and then handlers. Must be called with mu held.
func (s *Session) emit(ev core.Event, handlers ...func(core.Event)) {
	s.outbox = append(s.outbox, delivery{ev: ev, handlers: handlers})
}

// reply queues ev for handlers only. Must be called with mu held.
func (s *Session) reply(ev core.Event, handlers ...func(core.Event)) {
	if len(handlers) == 0 {
		return
	}
	s.outbox = append(s.outbox, delivery{ev: ev, silent: true, handlers: handlers})
}

// flush drains the outbox in FIFO order. Only one goroutine drains at a time;
// a subscriber calling back into the session just queues and returns.
func (s *Session) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	for len(s.outbox) > 0 {
		d := s.outbox[0]
		s.outbox[0] = delivery{}
		s.outbox = s.outbox[1:]
		s.mu.Unlock()

		if !d.silent {
			s.hub.Publish(d.ev)
		}
		for _, h := range d.handlers {
			h(d.ev)
		}

		s.mu.Lock()
	}
	s.outbox = nil
	s.flushing = false
	s.mu.Unlock()
}

// unlockAndFlush releases mu and delivers whatever the critical section queued.
func (s *Session) unlockAndFlush() {
	s.mu.Unlock()
	s.flush()
}
