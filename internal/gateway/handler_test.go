package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/mohami/internal/audio"
	"github.com/eleven-am/mohami/internal/session"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type fakeLink struct {
	incoming chan *voicesession.ServerMessage
	sent     chan voicesession.RealtimeInput
	closed   chan struct{}
	once     sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		incoming: make(chan *voicesession.ServerMessage, 8),
		sent:     make(chan voicesession.RealtimeInput, 64),
		closed:   make(chan struct{}),
	}
}

func (l *fakeLink) SendRealtimeInput(in voicesession.RealtimeInput) error {
	select {
	case l.sent <- in:
	default:
	}
	return nil
}

func (l *fakeLink) Receive() (*voicesession.ServerMessage, error) {
	select {
	case m := <-l.incoming:
		return m, nil
	case <-l.closed:
		return nil, voicesession.ErrLinkClosed
	}
}

func (l *fakeLink) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

type fakeDialer struct {
	link    *fakeLink
	configs chan voicesession.LinkConfig
}

func (d *fakeDialer) Dial(_ context.Context, cfg voicesession.LinkConfig) (voicesession.Link, error) {
	d.configs <- cfg
	return d.link, nil
}

type staticDocuments []voicesession.Document

func (s staticDocuments) Documents(context.Context, string) []voicesession.Document {
	return s
}

type gatewayFixture struct {
	server  *httptest.Server
	dialer  *fakeDialer
	manager *voicesession.Manager
	store   *session.Store
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dialer := &fakeDialer{link: newFakeLink(), configs: make(chan voicesession.LinkConfig, 4)}
	manager := voicesession.NewManager(voicesession.ManagerConfig{Dialer: dialer, Log: testLogger()})
	store := session.NewStore(rdb, nil)

	h := NewHandler(HandlerConfig{
		Manager:   manager,
		Documents: staticDocuments{{Title: "lecture.pdf", Type: "pdf", Content: "نص المحاضرة"}},
		Catalog:   subject.NewCatalog(),
		Sessions:  store,
		Logger:    testLogger(),
	})

	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1/voice"))
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &gatewayFixture{server: server, dialer: dialer, manager: manager, store: store}
}

func (f *gatewayFixture) dial(t *testing.T, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/voice/ws?client_id=" + clientID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ MessageType, payload any) {
	t.Helper()
	msg, err := NewMessage(typ, payload)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write error: %v", err)
	}
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, ws *websocket.Conn, typ MessageType) *Message {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return &msg
		}
	}
}

func readState(t *testing.T, ws *websocket.Conn, want voicesession.State) {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for state %s: %v", want, err)
		}
		if msg.Type != MessageTypeSessionState {
			continue
		}
		var p StatePayload
		_ = msg.Decode(&p)
		if p.State == want {
			return
		}
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h := NewHandler(HandlerConfig{Logger: testLogger()})
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1/voice"))

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Path] = true
	}
	for _, path := range []string{"/api/v1/voice/ws", "/api/v1/voice/sessions"} {
		if !routePaths[path] {
			t.Errorf("expected route %s to be registered", path)
		}
	}
}

func TestHandler_VoiceSessionRoundTrip(t *testing.T) {
	f := newGatewayFixture(t)
	ws := f.dial(t, "tab-1")

	send(t, ws, MessageTypeSessionConnect, ConnectPayload{APIKey: "key", SubjectID: "sharia"})
	readState(t, ws, voicesession.StateConnecting)
	readUntil(t, ws, MessageTypeMicRequest)
	send(t, ws, MessageTypeMicGranted, MicGrantedPayload{SampleRate: 16000})
	readState(t, ws, voicesession.StateConnected)

	cfg := <-f.dialer.configs
	if cfg.Credential != "key" || cfg.Voice != voicesession.DefaultVoice {
		t.Errorf("unexpected link config %+v", cfg)
	}
	if !strings.Contains(cfg.SystemInstruction, "شريعة إسلامية") || !strings.Contains(cfg.SystemInstruction, "=== المصدر: lecture.pdf (pdf) ===") {
		t.Error("expected subject name and documents in the system instruction")
	}

	frame := make([]float32, audio.FrameSamples)
	for i := range frame {
		frame[i] = 0.1
	}
	send(t, ws, MessageTypeAudioFrame, AudioFramePayload{Samples: frame})
	readUntil(t, ws, MessageTypeVolume)

	select {
	case in := <-f.dialer.link.sent:
		if in.Audio == nil || in.Audio.MimeType != "audio/pcm;rate=16000" {
			t.Errorf("expected PCM audio input, got %+v", in)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected an audio frame on the link")
	}

	f.dialer.link.incoming <- &voicesession.ServerMessage{
		InputTranscription:  "ما هو",
		OutputTranscription: "الميراث",
		TurnComplete:        true,
		Audio:               []voicesession.Media{{Data: make([]byte, 4800), MimeType: "audio/pcm;rate=24000"}},
	}

	chat := readUntil(t, ws, MessageTypeChatMessage)
	var m ChatMessagePayload
	if err := json.Unmarshal(chat.Payload, &m); err != nil {
		t.Fatalf("failed to decode chat message: %v", err)
	}
	if m.Role != "user" || m.Text != "ما هو" {
		t.Errorf("expected the user message first, got %+v", m)
	}

	chunk := readUntil(t, ws, MessageTypeAudioChunk)
	var p AudioChunkPayload
	_ = chunk.Decode(&p)
	if p.DurationMs != 100 || p.SampleRate != 24000 {
		t.Errorf("unexpected chunk %+v", p)
	}

	if got := f.manager.SessionCount(); got != 1 {
		t.Errorf("expected 1 managed session, got %d", got)
	}

	send(t, ws, MessageTypeSessionDisconnect, nil)
	readState(t, ws, voicesession.StateDisconnected)
}

func TestHandler_MicDenied(t *testing.T) {
	f := newGatewayFixture(t)
	ws := f.dial(t, "tab-2")

	send(t, ws, MessageTypeSessionToggle, ConnectPayload{APIKey: "key", SubjectID: "commercial"})
	readUntil(t, ws, MessageTypeMicRequest)
	send(t, ws, MessageTypeMicDenied, nil)

	readState(t, ws, voicesession.StateDisconnected)
	msg := readUntil(t, ws, MessageTypeError)
	var p ErrorPayload
	_ = msg.Decode(&p)
	if p.Message != voicesession.MsgConnectFailed {
		t.Errorf("expected %q, got %q", voicesession.MsgConnectFailed, p.Message)
	}

	select {
	case cfg := <-f.dialer.configs:
		t.Errorf("link must not be dialled after denial, got %+v", cfg)
	default:
	}
}

func TestHandler_ConnectErrors(t *testing.T) {
	f := newGatewayFixture(t)
	ws := f.dial(t, "tab-3")

	send(t, ws, MessageTypeSessionConnect, ConnectPayload{APIKey: "key", SubjectID: "criminal"})
	msg := readUntil(t, ws, MessageTypeError)
	var p ErrorPayload
	_ = msg.Decode(&p)
	if p.Code != "unknown_subject" {
		t.Errorf("expected unknown_subject, got %q", p.Code)
	}

	send(t, ws, MessageTypeSessionConnect, ConnectPayload{SubjectID: "sharia"})
	msg = readUntil(t, ws, MessageTypeError)
	_ = msg.Decode(&p)
	if p.Message != voicesession.MsgMissingCredential {
		t.Errorf("expected %q, got %q", voicesession.MsgMissingCredential, p.Message)
	}

	send(t, ws, MessageTypeImageAttach, ImagePayload{MimeType: "image/png", Name: "a.png", Data: []byte{1}})
	msg = readUntil(t, ws, MessageTypeError)
	_ = msg.Decode(&p)
	if p.Message != voicesession.MsgImageNotConnected {
		t.Errorf("expected %q, got %q", voicesession.MsgImageNotConnected, p.Message)
	}

	send(t, ws, MessageType("bogus"), nil)
	msg = readUntil(t, ws, MessageTypeError)
	_ = msg.Decode(&p)
	if p.Code != "unknown_type" {
		t.Errorf("expected unknown_type, got %q", p.Code)
	}
}

func TestHandler_ClientCloseRemovesSession(t *testing.T) {
	f := newGatewayFixture(t)
	ws := f.dial(t, "tab-4")

	send(t, ws, MessageTypeSessionConnect, ConnectPayload{APIKey: "key", SubjectID: "sharia"})
	readUntil(t, ws, MessageTypeMicRequest)
	send(t, ws, MessageTypeMicGranted, MicGrantedPayload{SampleRate: 16000})
	readState(t, ws, voicesession.StateConnected)
	_ = ws.Close()

	deadline := time.Now().Add(3 * time.Second)
	for f.manager.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected session to be removed after the socket closed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-f.dialer.link.closed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected the realtime link to be closed")
	}

	for {
		active, err := f.store.GetActiveSessions(context.Background(), "sharia")
		if err != nil {
			t.Fatalf("GetActiveSessions() error = %v", err)
		}
		if len(active) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the session record to be ended, got %d active", len(active))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandler_ListSessions(t *testing.T) {
	f := newGatewayFixture(t)
	f.dial(t, "tab-5")

	deadline := time.Now().Add(3 * time.Second)
	for f.manager.SessionCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(f.server.URL + "/api/v1/voice/sessions")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	var sessions []voicesession.SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ClientID != "tab-5" || sessions[0].State != voicesession.StateDisconnected {
		t.Errorf("unexpected sessions %+v", sessions)
	}
}
