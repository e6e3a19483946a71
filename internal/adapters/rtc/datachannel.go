package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

var (
	ErrChannelClosed = errors.New("data channel closed")
	ErrAlreadyOpen   = errors.New("data channel already open")
)

// DataChannel is the part of *webrtc.DataChannel the transport needs.
type DataChannel interface {
	OnOpen(f func())
	OnClose(f func())
	OnMessage(f func(msg webrtc.DataChannelMessage))
	SendText(s string) error
	Close() error
	ReadyState() webrtc.DataChannelState
}

// ChannelOpener returns a fresh channel for each Connect.
type ChannelOpener func(ctx context.Context) (DataChannel, error)

const (
	frameHello = "hello"
	frameMsg   = "msg"
	frameBye   = "bye"
)

type frame struct {
	Type       string             `json:"type"`
	Connection *domain.Connection `json:"connection,omitempty"`
	Reply      bool               `json:"reply,omitempty"`
	Payload    json.RawMessage    `json:"payload,omitempty"`
	At         time.Time          `json:"at,omitzero"`
}

// DataChannelTransport runs a two-party chat directly over a WebRTC data
// channel. The remote side shows up as a peer once its hello arrives.
type DataChannelTransport struct {
	open ChannelOpener

	mu      sync.Mutex
	handler core.TransportHandler
	dc      DataChannel
	self    domain.Connection
	peer    domain.Connection
	closing bool
}

var (
	_ core.Transport = (*DataChannelTransport)(nil)
	_ core.Renamer   = (*DataChannelTransport)(nil)
)

func NewDataChannelTransport(open ChannelOpener) *DataChannelTransport {
	return &DataChannelTransport{open: open}
}

func (t *DataChannelTransport) SetHandler(h core.TransportHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Connect opens the channel, waits for it to be usable and announces us.
// Credentials are not used: the peer connection is already authenticated by
// whoever set it up.
func (t *DataChannelTransport) Connect(ctx context.Context, req core.ConnectRequest) (core.ConnectResult, error) {
	t.mu.Lock()
	if t.dc != nil {
		t.mu.Unlock()
		return core.ConnectResult{}, ErrAlreadyOpen
	}
	t.mu.Unlock()

	self, err := domain.NewConnection(req.Alias, "")
	if err != nil {
		return core.ConnectResult{}, err
	}
	dc, err := t.open(ctx)
	if err != nil {
		return core.ConnectResult{}, fmt.Errorf("open data channel: %w", err)
	}

	opened := make(chan struct{})
	var once sync.Once
	dc.OnOpen(func() { once.Do(func() { close(opened) }) })
	dc.OnMessage(func(m webrtc.DataChannelMessage) { t.receive(dc, m) })
	dc.OnClose(func() { t.closed(dc) })
	if dc.ReadyState() == webrtc.DataChannelStateOpen {
		once.Do(func() { close(opened) })
	}

	t.mu.Lock()
	t.dc = dc
	t.self = self
	t.peer = domain.Connection{}
	t.closing = false
	t.mu.Unlock()

	select {
	case <-opened:
	case <-ctx.Done():
		t.reset(dc)
		_ = dc.Close()
		return core.ConnectResult{}, ctx.Err()
	}

	if err := t.write(dc, frame{Type: frameHello, Connection: &self}); err != nil {
		t.reset(dc)
		_ = dc.Close()
		return core.ConnectResult{}, err
	}
	log.Info().Str("module", "rtc.chat").Str("self", string(self.ID)).Msg("data channel open")
	return core.ConnectResult{Self: self}, nil
}

func (t *DataChannelTransport) Send(ctx context.Context, payload []byte) error {
	if !json.Valid(payload) {
		return core.ErrBadPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	dc := t.dc
	t.mu.Unlock()
	if dc == nil {
		return domain.ErrNotConnected
	}
	return t.write(dc, frame{Type: frameMsg, Payload: payload, At: time.Now().UTC()})
}

// Rename re-announces us with a new alias; the peer sees an updated hello.
func (t *DataChannelTransport) Rename(ctx context.Context, alias string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	dc := t.dc
	if dc == nil {
		t.mu.Unlock()
		return domain.ErrNotConnected
	}
	self, err := t.self.WithAlias(alias)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.self = self
	t.mu.Unlock()
	return t.write(dc, frame{Type: frameHello, Connection: &self})
}

// Disconnect says bye and closes the channel. The peer connection itself
// belongs to the caller.
func (t *DataChannelTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	dc := t.dc
	if dc == nil {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.mu.Unlock()

	_ = t.write(dc, frame{Type: frameBye})
	err := dc.Close()
	t.reset(dc)
	log.Info().Str("module", "rtc.chat").Msg("data channel closed")
	return err
}

func (t *DataChannelTransport) write(dc DataChannel, f frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := dc.SendText(string(b)); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	return nil
}

func (t *DataChannelTransport) reset(dc DataChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dc == dc {
		t.dc = nil
		t.peer = domain.Connection{}
	}
}

func (t *DataChannelTransport) receive(dc DataChannel, m webrtc.DataChannelMessage) {
	var f frame
	if err := json.Unmarshal(m.Data, &f); err != nil {
		log.Warn().Err(err).Str("module", "rtc.chat").Msg("bad frame")
		return
	}

	t.mu.Lock()
	if t.dc != dc {
		t.mu.Unlock()
		return
	}
	h, self, peer := t.handler, t.self, t.peer
	t.mu.Unlock()

	switch f.Type {
	case frameHello:
		if f.Connection == nil || f.Connection.IsZero() {
			return
		}
		t.mu.Lock()
		known := t.peer.ID == f.Connection.ID && t.peer.Alias == f.Connection.Alias
		reply := !f.Reply && t.peer.ID != f.Connection.ID
		t.peer = *f.Connection
		t.mu.Unlock()
		if reply {
			_ = t.write(dc, frame{Type: frameHello, Connection: &self, Reply: true})
		}
		if h != nil && !known {
			h.OnPeerJoined(*f.Connection)
		}
	case frameMsg:
		if h == nil {
			return
		}
		at := f.At
		if at.IsZero() {
			at = time.Now()
		}
		h.OnMessage(core.InboundMessage{From: peer.ID, Payload: f.Payload, At: at})
	case frameBye:
		t.mu.Lock()
		t.peer = domain.Connection{}
		t.mu.Unlock()
		if h != nil && !peer.IsZero() {
			h.OnPeerLeft(peer)
		}
	}
}

// closed handles the channel going away under us.
func (t *DataChannelTransport) closed(dc DataChannel) {
	t.mu.Lock()
	if t.dc != dc || t.closing {
		t.mu.Unlock()
		return
	}
	h, peer := t.handler, t.peer
	t.dc = nil
	t.peer = domain.Connection{}
	t.mu.Unlock()

	log.Warn().Str("module", "rtc.chat").Msg("data channel closed by remote")
	if h == nil {
		return
	}
	if !peer.IsZero() {
		h.OnPeerLeft(peer)
	}
	h.OnConnectionLost(ErrChannelClosed)
}
