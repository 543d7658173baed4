package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/audio"
	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/playback"
	"github.com/eleven-am/mohami/internal/transcript"
	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	sendBufferSize = 256
	micBufferSize  = 32
)

var ErrClientClosed = errors.New("client closed")

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type micReply struct {
	mic *wsMicrophone
	err error
}

// Client is one browser connection. It serves a voice session as microphone
// provider, playback output and listener, all over a single WebSocket.
type Client struct {
	ws      *websocket.Conn
	id      string
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger

	send   chan *Message
	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	micMu   sync.Mutex
	mic     *wsMicrophone
	micWait chan micReply
}

var (
	_ voicesession.MicrophoneProvider = (*Client)(nil)
	_ voicesession.Listener           = (*Client)(nil)
	_ playback.Output                 = (*Client)(nil)
)

func NewClient(ws *websocket.Conn, id string, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Client {
	if clk == nil {
		clk = clock.New()
	}
	return &Client{
		ws:      ws,
		id:      id,
		clock:   clk,
		metrics: m,
		logger:  logger.With("client_id", id),
		send:    make(chan *Message, sendBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues msg without blocking. Messages are dropped when the buffer is full.
func (c *Client) Send(msg *Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

func (c *Client) emit(t MessageType, payload any) {
	msg, err := NewMessage(t, payload)
	if err != nil {
		c.logger.Error("failed to encode message", "type", t, "error", err)
		return
	}
	c.Send(msg)
}

func (c *Client) SendError(code, message string) {
	c.emit(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	close(c.send)
	c.mu.Unlock()

	c.micMu.Lock()
	mic := c.mic
	c.mic = nil
	c.micMu.Unlock()
	if mic != nil {
		_ = mic.Close()
	}

	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

// Acquire asks the browser for its microphone and waits for the answer.
func (c *Client) Acquire(ctx context.Context) (audio.Microphone, error) {
	reply := make(chan micReply, 1)

	c.micMu.Lock()
	c.micWait = reply
	c.micMu.Unlock()

	abandon := func() {
		c.micMu.Lock()
		if c.micWait == reply {
			c.micWait = nil
		}
		c.micMu.Unlock()
	}

	c.emit(MessageTypeMicRequest, nil)

	select {
	case r := <-reply:
		return r.mic, r.err
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	case <-c.done:
		abandon()
		return nil, ErrClientClosed
	}
}

func (c *Client) answerMic(r micReply) {
	c.micMu.Lock()
	wait := c.micWait
	c.micWait = nil
	if r.mic != nil && wait != nil {
		c.mic = r.mic
	}
	c.micMu.Unlock()

	if wait == nil {
		c.logger.Warn("unsolicited microphone answer")
		if r.mic != nil {
			_ = r.mic.Close()
		}
		return
	}
	wait <- r
}

func (c *Client) pushFrame(samples []float32) {
	c.micMu.Lock()
	mic := c.mic
	c.micMu.Unlock()
	if mic != nil {
		mic.push(samples)
	}
}

func (c *Client) releaseMic(m *wsMicrophone) {
	c.micMu.Lock()
	if c.mic == m {
		c.mic = nil
	}
	c.micMu.Unlock()
	c.emit(MessageTypeMicRelease, nil)
}

func (c *Client) Play(chunk *playback.Chunk) error {
	startMs := chunk.Start.Sub(c.clock.Now()).Milliseconds()
	if startMs < 0 {
		startMs = 0
	}
	c.metrics.ObserveChunk(chunk.Duration.Seconds())
	c.emit(MessageTypeAudioChunk, AudioChunkPayload{
		ID:         chunk.ID,
		StartMs:    startMs,
		DurationMs: chunk.Duration.Milliseconds(),
		SampleRate: chunk.SampleRate,
		Data:       audio.Int16ToPCMBytes(chunk.Samples),
	})
	return nil
}

func (c *Client) Ended(*playback.Chunk) {
	c.metrics.ObserveChunkPlayed()
}

func (c *Client) Stop(chunks []*playback.Chunk) {
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	c.emit(MessageTypeAudioStop, AudioStopPayload{IDs: ids})
}

func (c *Client) OnState(state voicesession.State) {
	c.emit(MessageTypeSessionState, StatePayload{State: state})
}

func (c *Client) OnVolume(volume float64) {
	c.emit(MessageTypeVolume, VolumePayload{Volume: volume})
}

func (c *Client) OnTranscript(input, output string) {
	c.emit(MessageTypeTranscriptPartial, TranscriptPayload{Input: input, Output: output})
}

func (c *Client) OnMessage(msg transcript.ChatMessage) {
	c.emit(MessageTypeChatMessage, msg)
}

func (c *Client) OnInterrupt() {
	c.emit(MessageTypeInterrupted, nil)
}

func (c *Client) OnError(message string) {
	c.SendError("session_error", message)
}

func (c *Client) readPump(ctx context.Context, handle func(*Message)) {
	defer func() {
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("failed to unmarshal message", "error", err)
			c.SendError("invalid_message", "message is not valid JSON")
			continue
		}

		handle(&msg)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal message", "error", err)
				continue
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsMicrophone buffers frames pushed by the read pump until the capturer reads them.
type wsMicrophone struct {
	client *Client
	rate   int
	frames chan []float32
	closed chan struct{}
	once   sync.Once
}

func newWSMicrophone(client *Client, rate int) *wsMicrophone {
	if rate <= 0 {
		rate = audio.InputSampleRate
	}
	return &wsMicrophone{
		client: client,
		rate:   rate,
		frames: make(chan []float32, micBufferSize),
		closed: make(chan struct{}),
	}
}

func (m *wsMicrophone) ReadFrame(ctx context.Context) ([]float32, error) {
	select {
	case f := <-m.frames:
		return f, nil
	case <-m.closed:
		return nil, audio.ErrMicrophoneClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *wsMicrophone) SampleRate() int {
	return m.rate
}

func (m *wsMicrophone) Close() error {
	m.once.Do(func() {
		close(m.closed)
		if m.client != nil {
			m.client.releaseMic(m)
		}
	})
	return nil
}

func (m *wsMicrophone) push(samples []float32) {
	select {
	case <-m.closed:
		return
	default:
	}
	select {
	case m.frames <- samples:
	default:
	}
}
