// Package voicesession drives one realtime tutoring session: microphone capture,
// the model link, playback scheduling and transcript aggregation.
package voicesession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/audio"
	"github.com/eleven-am/mohami/internal/playback"
	"github.com/eleven-am/mohami/internal/transcript"
)

type Config struct {
	Dialer      Dialer
	Microphones MicrophoneProvider
	Output      playback.Output
	Listener    Listener
	Clock       clock.Clock
	Model       string
	Voice       string
	// FrameSamples overrides the capture frame size.
	FrameSamples int
	Log          *slog.Logger
}

type ConnectRequest struct {
	Credential  string
	SubjectName string
	Documents   []Document
}

// Controller owns the session lifecycle. Every event (frame ready, link
// message, link failure) is applied under mu and tagged with the generation it
// was started in; events from a superseded generation are dropped.
type Controller struct {
	dialer    Dialer
	mics      MicrophoneProvider
	listener  Listener
	scheduler *playback.Scheduler
	model     string
	voice     string
	frameSize int
	log       *slog.Logger

	transcripts *transcript.Aggregator

	mu            sync.Mutex
	gen           uint64
	state         State
	volume        float64
	mic           audio.Microphone
	capturer      *audio.Capturer
	link          Link
	cancelAttempt context.CancelFunc
	messages      []transcript.ChatMessage
}

func NewController(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Listener == nil {
		cfg.Listener = NopListener{}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}

	log := cfg.Log.With("component", "voicesession")
	return &Controller{
		dialer:      cfg.Dialer,
		mics:        cfg.Microphones,
		listener:    cfg.Listener,
		scheduler:   playback.NewScheduler(cfg.Clock, cfg.Output, log),
		model:       cfg.Model,
		voice:       cfg.Voice,
		frameSize:   cfg.FrameSamples,
		log:         log,
		transcripts: transcript.NewAggregator(cfg.Clock),
		state:       StateDisconnected,
	}
}

// Connect opens a new session, tearing down any existing one first. It blocks
// for microphone acquisition and the link handshake without holding the lock.
func (c *Controller) Connect(ctx context.Context, req ConnectRequest) error {
	if strings.TrimSpace(req.Credential) == "" {
		c.mu.Lock()
		c.listener.OnError(MsgMissingCredential)
		c.mu.Unlock()
		return ErrMissingCredential
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	releases := c.teardownLocked()
	c.cancelAttempt = cancel
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	runReleases(releases)

	mic, err := c.mics.Acquire(attemptCtx)
	if err != nil {
		if !errors.Is(err, ErrMicrophoneDenied) {
			err = fmt.Errorf("%w: %v", ErrMicrophoneDenied, err)
		}
		return c.failAttempt(gen, err)
	}

	if !c.current(gen) {
		_ = mic.Close()
		return ErrConnectAborted
	}

	link, err := c.dialer.Dial(attemptCtx, LinkConfig{
		Model:             c.model,
		Voice:             c.voice,
		SystemInstruction: ComposeInstruction(req.SubjectName, req.Documents),
		Credential:        req.Credential,
	})
	if err != nil {
		_ = mic.Close()
		return c.failAttempt(gen, fmt.Errorf("dial realtime link: %w", err))
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		_ = link.Close()
		_ = mic.Close()
		return ErrConnectAborted
	}

	c.mic = mic
	c.link = link
	c.cancelAttempt = nil
	c.capturer = audio.NewCapturer(mic, func(f audio.Frame) { c.onFrame(gen, f) }, audio.CaptureConfig{
		FrameSamples: c.frameSize,
		Log:          c.log,
	})
	c.setStateLocked(StateConnected)
	c.capturer.Start()
	c.mu.Unlock()

	go c.receive(gen, link)

	c.log.Info("voice session connected", "model", c.model, "documents", len(req.Documents))
	return nil
}

func (c *Controller) failAttempt(gen uint64, err error) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrConnectAborted
	}
	c.cancelAttempt = nil
	c.setStateLocked(StateDisconnected)
	c.listener.OnError(MsgConnectFailed)
	c.mu.Unlock()

	c.log.Warn("voice session connect failed", "error", err)
	return err
}

// Disconnect is idempotent and safe from any state, including mid-connect.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.gen++
	releases := c.teardownLocked()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	runReleases(releases)
}

// Toggle disconnects an open or opening session and connects otherwise.
func (c *Controller) Toggle(ctx context.Context, req ConnectRequest) error {
	switch c.State() {
	case StateConnected, StateConnecting:
		c.Disconnect()
		return nil
	default:
		return c.Connect(ctx, req)
	}
}

// SendImage forwards an image to the model and records a placeholder message.
func (c *Controller) SendImage(data []byte, mimeType, name string) error {
	c.mu.Lock()
	if c.state != StateConnected || c.link == nil {
		c.listener.OnError(MsgImageNotConnected)
		c.mu.Unlock()
		return ErrNotConnected
	}
	link, gen := c.link, c.gen
	c.mu.Unlock()

	if err := link.SendRealtimeInput(RealtimeInput{Image: &Media{Data: data, MimeType: mimeType}}); err != nil {
		return fmt.Errorf("send image: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return ErrNotConnected
	}
	c.appendMessageLocked(c.transcripts.Message(transcript.RoleUser, fmt.Sprintf("[صورة: %s]", name)))
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Messages returns a copy of the finalized chat history.
func (c *Controller) Messages() []transcript.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]transcript.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Controller) onFrame(gen uint64, f audio.Frame) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.volume = f.Volume
	c.listener.OnVolume(f.Volume)
	link := c.link
	c.mu.Unlock()

	blob := audio.EncodeFrame(f.Samples)
	if blob.IsEmpty() {
		return
	}
	if err := link.SendRealtimeInput(RealtimeInput{Audio: &Media{Data: blob.Data, MimeType: blob.MimeType}}); err != nil {
		c.log.Debug("audio frame dropped", "error", err)
	}
}

func (c *Controller) receive(gen uint64, link Link) {
	for {
		msg, err := link.Receive()
		if err != nil {
			c.onLinkDone(gen, err)
			return
		}
		c.dispatch(gen, msg)
	}
}

func (c *Controller) dispatch(gen uint64, msg *ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.state != StateConnected {
		return
	}

	if msg.Interrupted {
		n := c.scheduler.Interrupt()
		c.transcripts.ResetOutput()
		c.listener.OnInterrupt()
		c.listener.OnTranscript(c.transcripts.Pending())
		c.log.Debug("model turn interrupted", "chunks", n)
		return
	}

	appended := msg.ModelText != "" || msg.OutputTranscription != "" || msg.InputTranscription != ""
	c.transcripts.AppendOutput(msg.ModelText)
	c.transcripts.AppendOutput(msg.OutputTranscription)
	c.transcripts.AppendInput(msg.InputTranscription)
	if appended {
		c.listener.OnTranscript(c.transcripts.Pending())
	}

	if msg.TurnComplete {
		for _, m := range c.transcripts.Finalize() {
			c.appendMessageLocked(m)
		}
		c.listener.OnTranscript("", "")
	}

	for _, part := range msg.Audio {
		chunk, err := audio.DecodeChunk(part.Data, audio.RateFromMimeType(part.MimeType, audio.OutputSampleRate))
		if err != nil {
			c.log.Warn("dropping undecodable audio", "error", err, "bytes", len(part.Data))
			continue
		}
		if _, err := c.scheduler.Schedule(chunk.Samples, chunk.SampleRate, chunk.Duration); err != nil {
			c.log.Warn("failed to schedule audio", "error", err)
		}
	}
}

func (c *Controller) onLinkDone(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	releases := c.teardownLocked()
	c.setStateLocked(StateDisconnected)
	clean := errors.Is(err, ErrLinkClosed)
	if !clean {
		c.listener.OnError(MsgLinkError)
	}
	c.mu.Unlock()
	runReleases(releases)

	if clean {
		c.log.Info("realtime link closed")
	} else {
		c.log.Error("realtime link failed", "error", err)
	}
}

func (c *Controller) appendMessageLocked(m transcript.ChatMessage) {
	c.messages = append(c.messages, m)
	c.listener.OnMessage(m)
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.listener.OnState(s)
}

// teardownLocked resets in-memory session state and returns the blocking
// releases, which must run after mu is released.
func (c *Controller) teardownLocked() []func() {
	var releases []func()

	if c.cancelAttempt != nil {
		releases = append(releases, c.cancelAttempt)
		c.cancelAttempt = nil
	}

	if c.capturer != nil {
		capturer := c.capturer
		releases = append(releases, func() {
			if err := capturer.Stop(); err != nil {
				c.log.Debug("microphone release failed", "error", err)
			}
		})
	} else if c.mic != nil {
		mic := c.mic
		releases = append(releases, func() { _ = mic.Close() })
	}
	c.capturer = nil
	c.mic = nil

	if c.link != nil {
		link := c.link
		releases = append(releases, func() {
			if err := link.Close(); err != nil {
				c.log.Debug("link close failed", "error", err)
			}
		})
		c.link = nil
	}

	c.scheduler.Reset()
	c.transcripts.Reset()
	if c.volume != 0 {
		c.volume = 0
		c.listener.OnVolume(0)
	}
	return releases
}

func runReleases(releases []func()) {
	for _, release := range releases {
		release()
	}
}
