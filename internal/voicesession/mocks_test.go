package voicesession

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/mohami/internal/audio"
	"github.com/eleven-am/mohami/internal/playback"
	"github.com/eleven-am/mohami/internal/transcript"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

type mockMicrophone struct {
	frames    chan []float32
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	closeCalls int
}

func newMockMicrophone() *mockMicrophone {
	return &mockMicrophone{
		frames: make(chan []float32, 16),
		closed: make(chan struct{}),
	}
}

func (m *mockMicrophone) ReadFrame(ctx context.Context) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, audio.ErrMicrophoneClosed
	case f := <-m.frames:
		return f, nil
	}
}

func (m *mockMicrophone) SampleRate() int { return audio.InputSampleRate }

func (m *mockMicrophone) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockMicrophone) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

type mockMicProvider struct {
	mic *mockMicrophone
	err error

	mu    sync.Mutex
	calls int
}

func (p *mockMicProvider) Acquire(ctx context.Context) (audio.Microphone, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.mic, nil
}

func (p *mockMicProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type mockLink struct {
	incoming  chan *ServerMessage
	failures  chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	sent       []RealtimeInput
	closeCalls int
}

func newMockLink() *mockLink {
	return &mockLink{
		incoming: make(chan *ServerMessage, 16),
		failures: make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (l *mockLink) SendRealtimeInput(in RealtimeInput) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, in)
	return nil
}

func (l *mockLink) Receive() (*ServerMessage, error) {
	select {
	case msg := <-l.incoming:
		return msg, nil
	case err := <-l.failures:
		return nil, err
	case <-l.closed:
		return nil, ErrLinkClosed
	}
}

func (l *mockLink) Close() error {
	l.mu.Lock()
	l.closeCalls++
	l.mu.Unlock()
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *mockLink) Sent() []RealtimeInput {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RealtimeInput, len(l.sent))
	copy(out, l.sent)
	return out
}

func (l *mockLink) CloseCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeCalls
}

type mockDialer struct {
	links []*mockLink
	err   error
	// release, when set, holds Dial until closed or the context ends.
	release   chan struct{}
	ignoreCtx bool

	mu    sync.Mutex
	calls int
	cfgs  []LinkConfig
}

func (d *mockDialer) Dial(ctx context.Context, cfg LinkConfig) (Link, error) {
	d.mu.Lock()
	idx := d.calls
	d.calls++
	d.cfgs = append(d.cfgs, cfg)
	d.mu.Unlock()

	if d.release != nil {
		if d.ignoreCtx {
			<-d.release
		} else {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-d.release:
			}
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.links[idx%len(d.links)], nil
}

func (d *mockDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *mockDialer) Config(i int) LinkConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfgs[i]
}

type recordingListener struct {
	mu          sync.Mutex
	states      []State
	volumes     []float64
	transcripts [][2]string
	messages    []transcript.ChatMessage
	errors      []string
	interrupts  int
}

func (l *recordingListener) OnState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *recordingListener) OnVolume(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.volumes = append(l.volumes, v)
}

func (l *recordingListener) OnTranscript(in, out string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transcripts = append(l.transcripts, [2]string{in, out})
}

func (l *recordingListener) OnMessage(m transcript.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

func (l *recordingListener) OnInterrupt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interrupts++
}

func (l *recordingListener) OnError(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingListener) States() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func (l *recordingListener) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

func (l *recordingListener) Messages() []transcript.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transcript.ChatMessage(nil), l.messages...)
}

func (l *recordingListener) Volumes() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.volumes...)
}

func (l *recordingListener) Interrupts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interrupts
}

type recordingOutput struct {
	mu      sync.Mutex
	played  []*playback.Chunk
	stopped []*playback.Chunk
}

func (o *recordingOutput) Play(c *playback.Chunk) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.played = append(o.played, c)
	return nil
}

func (o *recordingOutput) Stop(chunks []*playback.Chunk) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = append(o.stopped, chunks...)
}

func (o *recordingOutput) Played() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.played)
}

func (o *recordingOutput) Stopped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.stopped)
}
