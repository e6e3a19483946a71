package textchat

import (
	"github.com/samber/lo"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// All reads return copies; callers never share memory with the session.

func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Self is set only while connected.
func (s *Session) Self() (domain.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self, s.phase == domain.Connected
}

// Peers is ordered by connection creation time.
func (s *Session) Peers() []domain.Connection {
	s.mu.Lock()
	out := lo.Values(s.peers)
	s.mu.Unlock()
	core.SortConnections(out)
	return out
}

func (s *Session) PeerAliases() []string {
	return lo.Map(s.Peers(), func(c domain.Connection, _ int) string { return c.Alias })
}

func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.history, func(m domain.Message, _ int) domain.Message { return m.Clone() })
}

func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Rows is the history laid out for display, dividers included.
func (s *Session) Rows() []core.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Layout(s.history)
}

func (s *Session) Alias() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alias
}


// ReceiverAlias is the alias of the last peer we received a message from.
func (s *Session) ReceiverAlias() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiverAlias
}
