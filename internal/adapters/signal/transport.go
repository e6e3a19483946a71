package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

var (
	ErrJoinRejected   = errors.New("join rejected")
	ErrNack           = errors.New("relay refused message")
	ErrAlreadyDialled = errors.New("transport already connected")
	ErrFrameTooLarge  = errors.New("frame exceeds relay read limit")
)

// ClientTransport is the core.Transport of a chat client talking to the relay
// over one WebSocket.
type ClientTransport struct {
	// MaxFrame must not exceed the relay's read limit; the relay drops the
	// socket on a larger frame.
	MaxFrame int64

	url    string
	dialer *websocket.Dialer
	header http.Header

	mu      sync.Mutex
	handler core.TransportHandler
	conn    *websocket.Conn
	out     chan []byte
	pending map[string]chan error
	cancel  context.CancelFunc
	done    chan struct{}
	closing bool
}

var (
	_ core.Transport = (*ClientTransport)(nil)
	_ core.Renamer   = (*ClientTransport)(nil)
)

// NewClientTransport dials url (ws:// or wss://) on Connect. A nil dialer
// uses websocket.DefaultDialer.
func NewClientTransport(url string, dialer *websocket.Dialer, header http.Header) *ClientTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &ClientTransport{MaxFrame: defaultReadLimit, url: url, dialer: dialer, header: header}
}

func (t *ClientTransport) SetHandler(h core.TransportHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Connect dials the relay and joins req's session. It returns once the relay
// answered the join or ctx is done.
func (t *ClientTransport) Connect(ctx context.Context, req core.ConnectRequest) (core.ConnectResult, error) {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return core.ConnectResult{}, ErrAlreadyDialled
	}
	t.mu.Unlock()

	ws, _, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return core.ConnectResult{}, fmt.Errorf("dial %s: %w", t.url, err)
	}

	joined, early, err := t.join(ctx, ws, req)
	if err != nil {
		_ = ws.Close()
		return core.ConnectResult{}, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(runCtx)

	t.mu.Lock()
	t.conn = ws
	t.out = make(chan []byte, sendBuffer)
	t.pending = make(map[string]chan error)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.closing = false
	out, done := t.out, t.done
	t.mu.Unlock()

	// Room traffic that raced ahead of joined goes first, before the read loop
	// can deliver anything newer.
	for _, data := range early {
		t.dispatch(data)
	}
	g.Go(func() error { return t.readLoop(ws) })
	g.Go(func() error { return t.writeLoop(gctx, ws, out) })
	go t.monitor(g, done)

	log.Info().Str("module", "signal.client").Str("room", joined.Room).Str("self", string(joined.Self.ID)).Int("members", len(joined.Members)).Msg("joined")
	return core.ConnectResult{Self: joined.Self, Peers: joined.Members}, nil
}

// join runs the join handshake synchronously before any pump starts. Room
// frames seen before joined are returned in arrival order.
func (t *ClientTransport) join(ctx context.Context, ws *websocket.Conn, req core.ConnectRequest) (JoinedFrame, [][]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	err := ws.WriteJSON(JoinFrame{
		Type:   TypeJoin,
		Room:   req.Credentials.SessionID,
		Name:   req.Alias,
		Token:  req.Credentials.Token,
		APIKey: req.Credentials.APIKey,
	})
	if err != nil {
		return JoinedFrame{}, nil, errors.Join(err, ctx.Err())
	}
	var early [][]byte
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return JoinedFrame{}, nil, errors.Join(err, ctx.Err())
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case TypeJoined:
			var f JoinedFrame
			if err := json.Unmarshal(data, &f); err != nil {
				return JoinedFrame{}, nil, err
			}
			return f, early, nil
		case TypeError:
			var f ErrorFrame
			_ = json.Unmarshal(data, &f)
			return JoinedFrame{}, nil, fmt.Errorf("%w: %s", ErrJoinRejected, f.Error)
		case TypeSignal, TypeMemberJoined, TypeMemberLeft, TypeMemberUpdated:
			early = append(early, data)
		}
	}
}

func (t *ClientTransport) monitor(g *errgroup.Group, done chan struct{}) {
	err := g.Wait()

	t.mu.Lock()
	closing := t.closing
	h := t.handler
	t.failPendingLocked(ErrConnClosed)
	t.mu.Unlock()

	if !closing && h != nil {
		log.Warn().Str("module", "signal.client").Err(err).Msg("connection lost")
		h.OnConnectionLost(err)
	}
	close(done)
}

func (t *ClientTransport) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		t.dispatch(data)
	}
}

func (t *ClientTransport) writeLoop(ctx context.Context, ws *websocket.Conn, out <-chan []byte) error {
	defer ws.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-out:
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		}
	}
}

func (t *ClientTransport) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal.client").Msg("bad frame")
		return
	}

	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()

	switch env.Type {
	case TypeMemberJoined, TypeMemberUpdated, TypeMemberLeft:
		var f MemberFrame
		if err := json.Unmarshal(data, &f); err != nil || h == nil {
			return
		}
		if env.Type == TypeMemberLeft {
			h.OnPeerLeft(f.Connection)
		} else {
			h.OnPeerJoined(f.Connection)
		}
	case TypeSignal:
		var f SignalFrame
		if err := json.Unmarshal(data, &f); err != nil || h == nil {
			return
		}
		h.OnMessage(core.InboundMessage{From: f.From, Payload: f.Payload, At: f.At})
	case TypeAck, TypeNack:
		var f AckFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return
		}
		var res error
		if env.Type == TypeNack {
			res = fmt.Errorf("%w: %s", ErrNack, f.Error)
		}
		t.resolve(f.ID, res)
	case TypeError:
		var f ErrorFrame
		_ = json.Unmarshal(data, &f)
		log.Warn().Str("module", "signal.client").Str("error", f.Error).Msg("relay error")
	default:
		log.Debug().Str("module", "signal.client").Str("type", env.Type).Msg("frame ignored")
	}
}

func (t *ClientTransport) resolve(id string, err error) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()
	if ok {
		ch <- err
	}
}

// failPendingLocked must be called with mu held.
func (t *ClientTransport) failPendingLocked(err error) {
	for id, ch := range t.pending {
		ch <- err
		delete(t.pending, id)
	}
}

// Send relays payload, which must be JSON, and waits for the relay's ack.
func (t *ClientTransport) Send(ctx context.Context, payload []byte) error {
	if !json.Valid(payload) {
		return core.ErrBadPayload
	}
	id := uuid.NewString()
	frame, err := json.Marshal(SignalFrame{Type: TypeSignal, ID: id, Payload: payload})
	if err != nil {
		return err
	}
	if t.MaxFrame > 0 && int64(len(frame)) > t.MaxFrame {
		return fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, len(frame), t.MaxFrame)
	}
	ack := make(chan error, 1)

	t.mu.Lock()
	if t.conn == nil || t.closing {
		t.mu.Unlock()
		return domain.ErrNotConnected
	}
	t.pending[id] = ack
	out, done := t.out, t.done
	t.mu.Unlock()

	select {
	case out <- frame:
	case <-done:
		t.forget(id)
		return ErrConnClosed
	case <-ctx.Done():
		t.forget(id)
		return ctx.Err()
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		t.forget(id)
		return ctx.Err()
	}
}

// Rename asks the relay to change our alias. The relay tells the room with
// member_updated; its whoami answer is not awaited.
func (t *ClientTransport) Rename(ctx context.Context, alias string) error {
	frame, err := json.Marshal(RenameFrame{Type: TypeRename, Name: alias})
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.conn == nil || t.closing {
		t.mu.Unlock()
		return domain.ErrNotConnected
	}
	out, done := t.out, t.done
	t.mu.Unlock()

	select {
	case out <- frame:
		return nil
	case <-done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ClientTransport) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

// Disconnect closes the socket and waits for the pumps to stop.
func (t *ClientTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	ws, cancel, done := t.conn, t.cancel, t.done
	if ws == nil {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.mu.Unlock()

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	cancel()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	t.mu.Lock()
	t.conn = nil
	t.cancel = nil
	t.mu.Unlock()
	log.Info().Str("module", "signal.client").Msg("disconnected")
	return err
}
