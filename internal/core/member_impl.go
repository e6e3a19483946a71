package core

import (
	"sync"

	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	mu     sync.RWMutex
	meta   *domain.Member
	signal SignalConnection
}

func NewMemberSession(meta *domain.Member) MemberSession {
	return &memberSession{meta: meta}
}

func (m *memberSession) Connection() domain.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta.Conn
}

func (m *memberSession) Signal() SignalConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signal
}

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signal = sc
	return m
}

func (m *memberSession) UpdateConnection(conn domain.Connection) MemberSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = domain.NewMember(conn)
	return m
}
