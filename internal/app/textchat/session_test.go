package textchat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/core/mocks"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testCreds = core.Credentials{APIKey: "key", SessionID: "room-1", Token: "tok"}

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) Notify(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

func (r *recorder) kinds() []core.EventKind {
	out := []core.EventKind{}
	for _, e := range r.snapshot() {
		out = append(out, e.Kind())
	}
	return out
}

func (r *recorder) waitKinds(t *testing.T, want ...core.EventKind) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := r.kinds()
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond, "events: %v", r.kinds())
}

type fixture struct {
	tr      *mocks.MockTransport
	handler core.TransportHandler
	s       *Session
	rec     *recorder
	self    domain.Connection
}

func newFixture(t *testing.T, alias string, creds core.Credentials) *fixture {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	f := &fixture{
		tr:   tr,
		rec:  &recorder{},
		self: domain.Connection{ID: "self-1", Alias: alias, CreatedAt: time.Now()},
	}
	tr.EXPECT().SetHandler(gomock.Any()).Do(func(h core.TransportHandler) { f.handler = h })

	s, err := NewSession(Config{Alias: alias, Credentials: creds, Transport: tr})
	require.NoError(t, err)
	f.s = s
	s.Subscribe(f.rec)
	t.Cleanup(s.Close)
	return f
}

// connect brings the fixture to Connected; Disconnect is allowed afterwards.
func (f *fixture) connect(t *testing.T, peers ...domain.Connection) {
	t.Helper()
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: f.self, Peers: peers}, nil)
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()
	f.s.Connect()
	require.Eventually(t, func() bool {
		for _, k := range f.rec.kinds() {
			if k == core.KindConnected {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)
}

func inbound(t *testing.T, from domain.ConnectionID, alias, text string, at time.Time) core.InboundMessage {
	t.Helper()
	b, err := core.EncodePayload(domain.Message{ID: uuid.New(), SenderAlias: alias, Text: text, Timestamp: at})
	require.NoError(t, err)
	return core.InboundMessage{From: from, Payload: b, At: at}
}

func TestSession_SendMessage_WhileDisconnected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	// Given a session that never connected
	req.Equal(domain.Disconnected, f.s.Phase())

	// When a message is sent
	f.s.SendMessage("hi")

	// Then SendFailed is published synchronously and nothing is stored
	events := f.rec.snapshot()
	req.Len(events, 1)
	failed, ok := events[0].(core.SendFailed)
	req.True(ok)
	req.ErrorIs(failed.Err, domain.ErrSendRejected)
	req.ErrorIs(failed.Err, domain.ErrNotConnected)
	req.Equal("hi", failed.Text)
	req.Empty(f.s.History())
	req.Zero(f.s.Count())
}

func TestSession_SendMessage_Connected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	sent := make(chan core.Payload, 1)
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b []byte) error {
		p, err := core.DecodePayload(b)
		if err != nil {
			return err
		}
		sent <- p
		return nil
	})

	// When Alice sends "hello"
	f.s.SendMessage("hello")

	// Then the history holds exactly one standalone sent message
	history := f.s.History()
	req.Len(history, 1)
	req.Equal("Alice", history[0].SenderAlias)
	req.Equal("hello", history[0].Text)
	req.Equal(domain.Sent, history[0].Direction)
	req.Equal(domain.Standalone, history[0].Classification)
	req.Equal(f.self.ID, history[0].SenderID)

	// And MessageSent fired once
	f.rec.waitKinds(t, core.KindConnected, core.KindMessageSent)
	ms := f.rec.snapshot()[1].(core.MessageSent)
	req.Equal(history[0].ID, ms.Message.ID)

	// And the transport got the payload
	select {
	case p := <-sent:
		req.Equal("hello", p.Text)
		req.Equal("Alice", p.Alias)
		req.Equal(history[0].ID, p.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("payload never reached the transport")
	}
}

func TestSession_SendMessage_RejectsBlankText(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	f.s.SendMessage("   \n\t")

	f.rec.waitKinds(t, core.KindConnected, core.KindSendFailed)
	failed := f.rec.snapshot()[1].(core.SendFailed)
	req.ErrorIs(failed.Err, domain.ErrEmptyMessage)
	req.Empty(f.s.History())
}

func TestSession_SendMessage_DeliveryFailureKeepsMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	boom := errors.New("socket closed")
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(boom)

	f.s.SendMessage("hello")

	f.rec.waitKinds(t, core.KindConnected, core.KindMessageSent, core.KindMessageDeliveryFailed)
	events := f.rec.snapshot()
	df := events[2].(core.MessageDeliveryFailed)
	req.ErrorIs(df.Err, domain.ErrDeliveryFailed)
	req.ErrorIs(df.Err, boom)
	req.Equal(events[1].(core.MessageSent).Message.ID, df.Message.ID)

	// Shown messages are never retracted
	req.Equal(1, f.s.Count())
}

func TestSession_SendCustomMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	// When a message with structured data and its own alias is sent
	f.s.SendCustomMessage(domain.Message{
		SenderAlias: "Alice (mobile)",
		Data:        json.RawMessage(`{"kind":"location","lat":1.5}`),
	})

	// Then it is stored as sent with the caller's alias and data
	history := f.s.History()
	req.Len(history, 1)
	req.Equal("Alice (mobile)", history[0].SenderAlias)
	req.JSONEq(`{"kind":"location","lat":1.5}`, string(history[0].Data))
	req.Equal(domain.Sent, history[0].Direction)

	// And invalid custom messages are rejected without a transport call
	f.s.SendCustomMessage(domain.Message{})
	f.s.SendCustomMessage(domain.Message{Data: json.RawMessage(`{broken`)})
	f.rec.waitKinds(t, core.KindConnected, core.KindMessageSent, core.KindSendFailed, core.KindSendFailed)
	req.Equal(1, f.s.Count())
}

func TestSession_Connect_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	release := make(chan struct{})
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r core.ConnectRequest) (core.ConnectResult, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return core.ConnectResult{}, ctx.Err()
		}
		return core.ConnectResult{Self: f.self}, nil
	}).Times(1)
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()

	// Given a connect in flight
	f.s.Connect()
	f.s.Connect()
	req.Equal(domain.Connecting, f.s.Phase())

	// When it completes and connect is called again
	close(release)
	f.rec.waitKinds(t, core.KindConnected)
	f.s.Connect()
	f.s.Connect()

	// Then exactly one Connected was published
	time.Sleep(20 * time.Millisecond)
	req.Equal([]core.EventKind{core.KindConnected}, f.rec.kinds())
	self, ok := f.s.Self()
	req.True(ok)
	req.Equal(f.self.ID, self.ID)
}

func TestSession_Connect_Failure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	denied := errors.New("token rejected")
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{}, denied)

	var calls int
	var got core.Event
	done := make(chan struct{})
	f.s.ConnectWithHandler(func(e core.Event) {
		calls++
		got = e
		close(done)
	})

	<-done
	f.rec.waitKinds(t, core.KindConnectFailed)
	req.Equal(1, calls)
	cf, ok := got.(core.ConnectFailed)
	req.True(ok)
	req.ErrorIs(cf.Err, domain.ErrConnectFailure)
	req.ErrorIs(cf.Err, denied)
	req.Equal(domain.Disconnected, f.s.Phase())
	_, ok = f.s.Self()
	req.False(ok)
}

func TestSession_Connect_ConfigurationMissing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", core.Credentials{APIKey: "key"})

	// When connect is attempted without a session id and token
	f.s.Connect()

	// Then it fails locally, the transport is never called
	events := f.rec.snapshot()
	req.Len(events, 1)
	req.ErrorIs(events[0].(core.ConnectFailed).Err, domain.ErrConfigurationMissing)
	req.Equal(domain.Disconnected, f.s.Phase())
}

func TestSession_ConnectWithHandler_OneShot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: f.self}, nil).Times(2)
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()

	var mu sync.Mutex
	var got []core.EventKind
	f.s.ConnectWithHandler(func(e core.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Kind())
	})
	f.rec.waitKinds(t, core.KindConnected)

	// When the session cycles through disconnect and a plain connect
	f.s.Disconnect()
	f.rec.waitKinds(t, core.KindConnected, core.KindDisconnected)
	f.s.Connect()
	f.rec.waitKinds(t, core.KindConnected, core.KindDisconnected, core.KindConnected)

	// Then the handler saw only its own attempt
	mu.Lock()
	defer mu.Unlock()
	req.Equal([]core.EventKind{core.KindConnected}, got)
}

func TestSession_ConnectWithHandler_AlreadyConnected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	got := make(chan core.Event, 1)
	f.s.ConnectWithHandler(func(e core.Event) { got <- e })

	select {
	case e := <-got:
		req.Equal(f.self.ID, e.(core.Connected).Self.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never called")
	}
	// No second notification reached subscribers
	req.Equal([]core.EventKind{core.KindConnected}, f.rec.kinds())
}

func TestSession_DisconnectWhileConnecting(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	release := make(chan struct{})
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r core.ConnectRequest) (core.ConnectResult, error) {
		<-release
		return core.ConnectResult{Self: f.self}, nil
	})
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).Times(1)

	var phases [][2]domain.Phase
	f.s.phaseHook = func(from, to domain.Phase) { phases = append(phases, [2]domain.Phase{from, to}) }

	// Given a connect in flight
	f.s.Connect()
	// When disconnect is requested before it completes
	f.s.Disconnect()
	req.Equal(domain.Connecting, f.s.Phase())
	// And the connect later succeeds
	close(release)

	// Then the session tears down at once and never reports Connected
	f.rec.waitKinds(t, core.KindDisconnected)
	req.Equal(domain.Disconnected, f.s.Phase())
	_, ok := f.s.Self()
	req.False(ok)
	req.Equal([][2]domain.Phase{
		{domain.Disconnected, domain.Connecting},
		{domain.Connecting, domain.Disconnected},
	}, phases)
}

// terminal collects the events a ConnectWithHandler handler receives.
func terminal() (func(core.Event), func(t *testing.T) []core.Event) {
	ch := make(chan core.Event, 4)
	h := func(e core.Event) { ch <- e }
	collect := func(t *testing.T) []core.Event {
		t.Helper()
		var got []core.Event
		select {
		case e := <-ch:
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatal("handler never called")
		}
		// Anything further would be a second terminal event
		time.Sleep(20 * time.Millisecond)
		for len(ch) > 0 {
			got = append(got, <-ch)
		}
		return got
	}
	return h, collect
}

func TestSession_DisconnectWhileConnecting_ConnectFails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	release := make(chan struct{})
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r core.ConnectRequest) (core.ConnectResult, error) {
		<-release
		return core.ConnectResult{}, errors.New("refused")
	})

	// Given a connect in flight with a waiting handler
	h, collect := terminal()
	f.s.ConnectWithHandler(h)
	// When disconnect is requested and the connect then fails
	f.s.Disconnect()
	close(release)

	// Then the attempt ends in ConnectFailed exactly once, with no transport teardown
	got := collect(t)
	req.Len(got, 1)
	cf, ok := got[0].(core.ConnectFailed)
	req.True(ok)
	req.ErrorIs(cf.Err, domain.ErrConnectFailure)
	f.rec.waitKinds(t, core.KindConnectFailed)
	req.Equal(domain.Disconnected, f.s.Phase())

	// And the cancel intent is gone: the next connect stays up
	f.connect(t)
	req.Equal(domain.Connected, f.s.Phase())
	f.rec.waitKinds(t, core.KindConnectFailed, core.KindConnected)
}

func TestSession_CloseWhileConnecting(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r core.ConnectRequest) (core.ConnectResult, error) {
		<-ctx.Done()
		return core.ConnectResult{}, ctx.Err()
	})

	// Given a connect that only ends with its context
	h, collect := terminal()
	f.s.ConnectWithHandler(h)
	req.Equal(domain.Connecting, f.s.Phase())

	// When the session is closed
	f.s.Close()

	// Then the cancelled attempt is reported once as ConnectFailed
	got := collect(t)
	req.Len(got, 1)
	cf, ok := got[0].(core.ConnectFailed)
	req.True(ok)
	req.ErrorIs(cf.Err, domain.ErrConnectFailure)
	req.ErrorIs(cf.Err, context.Canceled)
	req.Equal([]core.EventKind{core.KindConnectFailed}, f.rec.kinds())
	req.Equal(domain.Disconnected, f.s.Phase())
}

type renamingTransport struct {
	*mocks.MockTransport
	*mocks.MockRenamer
}

func TestSession_SetAliasAnnouncesRename(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	tr := renamingTransport{mocks.NewMockTransport(ctrl), mocks.NewMockRenamer(ctrl)}
	tr.MockTransport.EXPECT().SetHandler(gomock.Any())
	s, err := NewSession(Config{Alias: "Alice", Credentials: testCreds, Transport: tr})
	req.NoError(err)
	t.Cleanup(s.Close)

	// Given a disconnected session, a rename stays local
	req.NoError(s.SetAlias("Al"))
	req.Equal("Al", s.Alias())

	tr.MockTransport.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: domain.Connection{ID: "self-1", Alias: "Al"}}, nil)
	tr.MockTransport.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()
	h, collect := terminal()
	s.ConnectWithHandler(h)
	req.Equal(core.KindConnected, collect(t)[0].Kind())

	// When connected, the transport announces the new alias
	renamed := make(chan string, 1)
	tr.MockRenamer.EXPECT().Rename(gomock.Any(), "Alicia").DoAndReturn(func(_ context.Context, alias string) error {
		renamed <- alias
		return nil
	})
	req.NoError(s.SetAlias("Alicia"))
	select {
	case got := <-renamed:
		req.Equal("Alicia", got)
	case <-time.After(2 * time.Second):
		t.Fatal("rename not announced")
	}
	self, ok := s.Self()
	req.True(ok)
	req.Equal("Alicia", self.Alias)

	// And an alias that is too long is refused before any transport call
	req.ErrorIs(s.SetAlias(strings.Repeat("x", domain.MaxAliasLen+1)), domain.ErrAliasTooLong)
	req.Equal("Alicia", s.Alias())
}

func TestSession_InboundRunGrouping(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	bob := domain.Connection{ID: "bob-1", Alias: "Bob", CreatedAt: time.Now()}
	f.connect(t, bob)

	// When Bob sends three messages in a row within the window
	base := time.Now()
	for i, text := range []string{"one", "two", "three"} {
		f.handler.OnMessage(inbound(t, bob.ID, "Bob", text, base.Add(time.Duration(i)*time.Second)))
	}

	// Then the run is standalone, grouped, grouped
	history := f.s.History()
	req.Len(history, 3)
	req.Equal(domain.Standalone, history[0].Classification)
	req.Equal(domain.GroupedWithPrevious, history[1].Classification)
	req.Equal(domain.GroupedWithPrevious, history[2].Classification)
	for _, m := range history {
		req.Equal(domain.Received, m.Direction)
		req.Equal(bob.ID, m.SenderID)
	}
	req.Equal("Bob", f.s.ReceiverAlias())
	f.rec.waitKinds(t, core.KindConnected, core.KindConnectionCreated,
		core.KindMessageReceived, core.KindMessageReceived, core.KindMessageReceived)
}

func TestSession_InboundAliasFallsBackToPeer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	bob := domain.Connection{ID: "bob-1", Alias: "Bob", CreatedAt: time.Now()}
	f.connect(t, bob)

	f.handler.OnMessage(inbound(t, bob.ID, "", "hey", time.Now()))

	history := f.s.History()
	req.Len(history, 1)
	req.Equal("Bob", history[0].SenderAlias)
}

func TestSession_EchoSuppressed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	var payload []byte
	sent := make(chan struct{})
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b []byte) error {
		payload = b
		close(sent)
		return nil
	})
	f.s.SendMessage("hello")
	<-sent

	// When the transport loops our own message back, by id and by sender
	f.handler.OnMessage(core.InboundMessage{From: "relay-restamped", Payload: payload, At: time.Now()})
	f.handler.OnMessage(inbound(t, f.self.ID, "Alice", "hello again", time.Now()))

	// Then only the local copy is kept
	req.Equal(1, f.s.Count())
	req.Equal(domain.Sent, f.s.History()[0].Direction)
}

func TestSession_InboundGarbageDropped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)

	f.handler.OnMessage(core.InboundMessage{From: "bob-1", Payload: []byte("not json"), At: time.Now()})
	f.handler.OnMessage(core.InboundMessage{From: "bob-1", Payload: []byte(`{"alias":"Bob"}`), At: time.Now()})

	req.Zero(f.s.Count())
	req.Equal([]core.EventKind{core.KindConnected}, f.rec.kinds())
}

func TestSession_PeersJoinAndLeave(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	now := time.Now()
	bob := domain.Connection{ID: "bob-1", Alias: "Bob", CreatedAt: now}
	carol := domain.Connection{ID: "carol-1", Alias: "Carol", CreatedAt: now.Add(time.Second)}
	f.connect(t, bob)

	// When Carol joins, then Bob leaves
	f.handler.OnPeerJoined(carol)
	req.Equal([]string{"Bob", "Carol"}, f.s.PeerAliases())
	f.handler.OnPeerLeft(bob)
	// Unknown and self connections are ignored
	f.handler.OnPeerLeft(domain.Connection{ID: "ghost"})
	f.handler.OnPeerJoined(f.self)

	// Then one created/destroyed notification per change
	f.rec.waitKinds(t, core.KindConnected, core.KindConnectionCreated, core.KindConnectionCreated, core.KindConnectionDestroyed)
	events := f.rec.snapshot()
	req.Equal(bob.ID, events[1].(core.ConnectionCreated).Connection.ID)
	req.Equal(carol.ID, events[2].(core.ConnectionCreated).Connection.ID)
	req.Equal(bob.ID, events[3].(core.ConnectionDestroyed).Connection.ID)
	req.Equal([]string{"Carol"}, f.s.PeerAliases())
}

func TestSession_EventsDuringConnectAreReplayed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	bob := domain.Connection{ID: "bob-1", Alias: "Bob", CreatedAt: time.Now()}

	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r core.ConnectRequest) (core.ConnectResult, error) {
		// The transport races ahead of its own connect result
		f.handler.OnPeerJoined(bob)
		f.handler.OnMessage(inbound(t, bob.ID, "Bob", "early bird", time.Now()))
		return core.ConnectResult{Self: f.self}, nil
	})
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()

	f.s.Connect()

	f.rec.waitKinds(t, core.KindConnected, core.KindConnectionCreated, core.KindMessageReceived)
	req.Equal(1, f.s.Count())
}

func TestSession_ConnectionLost(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	bob := domain.Connection{ID: "bob-1", Alias: "Bob", CreatedAt: time.Now()}
	f.connect(t, bob)

	// When the transport drops us
	f.handler.OnConnectionLost(errors.New("read: connection reset"))

	// Then the session ends up disconnected with the cause
	f.rec.waitKinds(t, core.KindConnected, core.KindConnectionCreated, core.KindDisconnected)
	d := f.rec.snapshot()[2].(core.Disconnected)
	req.ErrorIs(d.Err, domain.ErrTransportDisconnected)
	req.Equal(domain.Disconnected, f.s.Phase())
	req.Empty(f.s.Peers())

	// And sending is rejected again
	f.s.SendMessage("anyone?")
	f.rec.waitKinds(t, core.KindConnected, core.KindConnectionCreated, core.KindDisconnected, core.KindSendFailed)
}

func TestSession_DisconnectReportsTransportError(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: f.self}, nil)
	teardown := errors.New("already gone")
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(teardown)

	f.s.Connect()
	f.rec.waitKinds(t, core.KindConnected)
	f.s.Disconnect()
	f.s.Disconnect()

	f.rec.waitKinds(t, core.KindConnected, core.KindDisconnected)
	req.ErrorIs(f.rec.snapshot()[1].(core.Disconnected).Err, teardown)
	req.Equal(domain.Disconnected, f.s.Phase())
}

func TestSession_PhaseEdges(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)

	var mu sync.Mutex
	var edges [][2]domain.Phase
	f.s.phaseHook = func(from, to domain.Phase) {
		mu.Lock()
		defer mu.Unlock()
		edges = append(edges, [2]domain.Phase{from, to})
	}

	gomock.InOrder(
		f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{}, errors.New("nope")),
		f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: f.self}, nil),
		f.tr.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(core.ConnectResult{Self: f.self}, nil),
	)
	f.tr.EXPECT().Disconnect(gomock.Any()).Return(nil).AnyTimes()

	f.s.Connect()
	f.rec.waitKinds(t, core.KindConnectFailed)
	f.s.Connect()
	f.rec.waitKinds(t, core.KindConnectFailed, core.KindConnected)
	f.s.Disconnect()
	f.rec.waitKinds(t, core.KindConnectFailed, core.KindConnected, core.KindDisconnected)
	f.s.Connect()
	f.rec.waitKinds(t, core.KindConnectFailed, core.KindConnected, core.KindDisconnected, core.KindConnected)
	f.handler.OnConnectionLost(nil)
	f.rec.waitKinds(t, core.KindConnectFailed, core.KindConnected, core.KindDisconnected, core.KindConnected, core.KindDisconnected)

	mu.Lock()
	defer mu.Unlock()
	for _, e := range edges {
		req.True(domain.CanTransition(e[0], e[1]), "%s -> %s", e[0], e[1])
	}

	// No Connected follows a Connected without a Disconnected in between
	connected := false
	for _, k := range f.rec.kinds() {
		switch k {
		case core.KindConnected:
			req.False(connected)
			connected = true
		case core.KindDisconnected:
			connected = false
		}
	}
}

func TestSession_SubscriberMayCallBack(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	// Given a subscriber that greets as soon as we are connected
	f.s.Subscribe(core.SubscriberFunc(func(e core.Event) {
		if e.Kind() == core.KindConnected {
			f.s.SendMessage("hi all")
		}
	}))
	f.connect(t)

	// Then the greeting is published after Connected, without deadlock
	f.rec.waitKinds(t, core.KindConnected, core.KindMessageSent)
	req.Equal(1, f.s.Count())
}

func TestSession_Dividers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "Alice", testCreds)
	f.connect(t)
	f.tr.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	base := time.Now()
	f.s.SendCustomMessage(domain.Message{Text: "morning", Timestamp: base})
	f.s.SendCustomMessage(domain.Message{Text: "afternoon", Timestamp: base.Add(5 * time.Hour)})

	rows := f.s.Rows()
	req.Len(rows, 3)
	req.Equal(domain.Standalone, rows[0].Kind)
	req.Equal(domain.Divider, rows[1].Kind)
	req.Equal(5*time.Hour, rows[1].Gap)
	req.Equal(domain.Standalone, rows[2].Kind)
	req.Equal("afternoon", rows[2].Message.Text)
}

func TestNewSession_RequiresTransport(t *testing.T) {
	_, err := NewSession(Config{Alias: "Alice", Credentials: testCreds})
	require.ErrorIs(t, err, domain.ErrConfigurationMissing)
}
