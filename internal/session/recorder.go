package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/eleven-am/mohami/internal/transcript"
	"github.com/eleven-am/mohami/internal/voicesession"
)

const (
	recorderQueueSize  = 256
	recorderJobTimeout = 5 * time.Second
)

// Recorder is a voicesession.Listener that records session lifecycle into the
// store and Prometheus before forwarding every event to next. Store writes run
// on a background worker in event order; callbacks never block on Redis.
type Recorder struct {
	next     voicesession.Listener
	store    *Store
	metrics  *metrics.Metrics
	clientID string
	log      *slog.Logger

	mu        sync.Mutex
	subjectID string
	sessionID string
	connected bool
	closed    bool

	jobs chan func(context.Context)
	done chan struct{}
}

func NewRecorder(next voicesession.Listener, store *Store, m *metrics.Metrics, clientID string, log *slog.Logger) *Recorder {
	if next == nil {
		next = voicesession.NopListener{}
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		next:     next,
		store:    store,
		metrics:  m,
		clientID: clientID,
		log:      log.With("component", "session_recorder", "client_id", clientID),
		jobs:     make(chan func(context.Context), recorderQueueSize),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// SetSubject sets the subject attributed to the next session that connects.
func (r *Recorder) SetSubject(subjectID string) {
	r.mu.Lock()
	r.subjectID = subjectID
	r.mu.Unlock()
}

func (r *Recorder) OnState(state voicesession.State) {
	r.metrics.ObserveState(string(state))

	r.mu.Lock()
	switch state {
	case voicesession.StateConnected:
		r.connected = true
		r.metrics.SessionStarted(r.subjectID)
		sess := &Session{
			ID:        shared.NewID("vs_"),
			ClientID:  r.clientID,
			SubjectID: r.subjectID,
		}
		r.sessionID = sess.ID
		subjectID := r.subjectID
		r.enqueueLocked(func(ctx context.Context) error {
			if err := r.store.CreateSession(ctx, sess); err != nil {
				return err
			}
			return r.store.IncrementSessions(ctx, subjectID)
		})
	default:
		if r.connected {
			r.connected = false
			r.metrics.SessionEnded()
		}
		r.endLocked(StatusEnded)
	}
	r.mu.Unlock()

	r.next.OnState(state)
}

func (r *Recorder) OnVolume(volume float64) {
	r.next.OnVolume(volume)
}

func (r *Recorder) OnTranscript(input, output string) {
	r.next.OnTranscript(input, output)
}

func (r *Recorder) OnMessage(msg transcript.ChatMessage) {
	r.metrics.ObserveMessage(string(msg.Role))

	r.mu.Lock()
	if id, subjectID := r.sessionID, r.subjectID; id != "" {
		r.enqueueLocked(func(ctx context.Context) error {
			if err := r.store.RecordMessage(ctx, id); err != nil {
				return err
			}
			return r.store.IncrementMessages(ctx, subjectID)
		})
	}
	r.mu.Unlock()

	r.next.OnMessage(msg)
}

func (r *Recorder) OnInterrupt() {
	r.metrics.ObserveInterruption()

	r.mu.Lock()
	if subjectID := r.subjectID; subjectID != "" {
		r.enqueueLocked(func(ctx context.Context) error {
			return r.store.IncrementInterruptions(ctx, subjectID)
		})
	}
	r.mu.Unlock()

	r.next.OnInterrupt()
}

func (r *Recorder) OnError(message string) {
	r.metrics.ObserveSessionError()

	r.mu.Lock()
	if subjectID := r.subjectID; subjectID != "" {
		r.enqueueLocked(func(ctx context.Context) error {
			return r.store.IncrementErrors(ctx, subjectID)
		})
	}
	if message == voicesession.MsgLinkError {
		r.endLocked(StatusError)
	}
	r.mu.Unlock()

	r.next.OnError(message)
}

// Close drains queued writes and stops the worker.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	<-r.done
}

func (r *Recorder) endLocked(status Status) {
	id := r.sessionID
	if id == "" {
		return
	}
	r.sessionID = ""
	r.enqueueLocked(func(ctx context.Context) error {
		return r.store.EndSession(ctx, id, status)
	})
}

func (r *Recorder) enqueueLocked(job func(context.Context) error) {
	if r.closed || r.store == nil {
		return
	}
	wrapped := func(ctx context.Context) {
		if err := job(ctx); err != nil {
			r.log.Warn("session record write failed", "error", err)
		}
	}
	select {
	case r.jobs <- wrapped:
	default:
		r.log.Warn("session record queue full, dropping write")
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for job := range r.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), recorderJobTimeout)
		job(ctx)
		cancel()
	}
}
