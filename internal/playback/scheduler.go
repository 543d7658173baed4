// Package playback schedules decoded model audio back-to-back on an output clock.
package playback

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Chunk is a decoded buffer with its scheduled start time.
type Chunk struct {
	ID         string
	Samples    []int16
	SampleRate int
	Start      time.Time
	Duration   time.Duration
}

func (c *Chunk) End() time.Time {
	return c.Start.Add(c.Duration)
}

// Output plays scheduled chunks. Play must not block on playback itself;
// Stop silences chunks that have been started or are still queued.
type Output interface {
	Play(chunk *Chunk) error
	Stop(chunks []*Chunk)
}

// EndObserver is implemented by outputs that want to hear about chunks that
// played out in full. NewScheduler registers it as the OnEnd hook.
type EndObserver interface {
	Ended(chunk *Chunk)
}

type discardOutput struct{}

func (discardOutput) Play(*Chunk) error { return nil }
func (discardOutput) Stop([]*Chunk)     {}

type inflight struct {
	chunk *Chunk
	timer *clock.Timer
}

type Scheduler struct {
	clock clock.Clock
	out   Output
	log   *slog.Logger

	mu     sync.Mutex
	cursor time.Time
	active map[string]*inflight
	onEnd  func(*Chunk)
}

func NewScheduler(clk clock.Clock, out Output, log *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if out == nil {
		out = discardOutput{}
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		clock:  clk,
		out:    out,
		log:    log.With("component", "playback"),
		active: make(map[string]*inflight),
	}
	if obs, ok := out.(EndObserver); ok {
		s.onEnd = obs.Ended
	}
	return s
}

// OnEnd registers a hook invoked after a chunk finished playing on its own.
func (s *Scheduler) OnEnd(fn func(*Chunk)) {
	s.mu.Lock()
	s.onEnd = fn
	s.mu.Unlock()
}

// Schedule starts the chunk at max(cursor, now) and advances the cursor by its duration.
func (s *Scheduler) Schedule(samples []int16, sampleRate int, duration time.Duration) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	start := s.cursor
	if start.Before(now) {
		start = now
	}

	chunk := &Chunk{
		ID:         uuid.NewString(),
		Samples:    samples,
		SampleRate: sampleRate,
		Start:      start,
		Duration:   duration,
	}

	if err := s.out.Play(chunk); err != nil {
		return nil, err
	}

	s.cursor = chunk.End()
	s.active[chunk.ID] = &inflight{
		chunk: chunk,
		timer: s.clock.AfterFunc(chunk.End().Sub(now), func() { s.finish(chunk.ID) }),
	}
	return chunk, nil
}

func (s *Scheduler) finish(id string) {
	s.mu.Lock()
	entry, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	onEnd := s.onEnd
	s.mu.Unlock()

	if ok && onEnd != nil {
		onEnd(entry.chunk)
	}
}

// Interrupt stops every in-flight chunk and moves the cursor to now, so the next
// chunk starts immediately instead of after the discarded audio.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.stopAllLocked()
	s.cursor = s.clock.Now()
	if n > 0 {
		s.log.Debug("playback interrupted", "chunks", n)
	}
	return n
}

// Reset stops every in-flight chunk and clears the cursor.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAllLocked()
	s.cursor = time.Time{}
}

func (s *Scheduler) stopAllLocked() int {
	if len(s.active) == 0 {
		return 0
	}

	chunks := make([]*Chunk, 0, len(s.active))
	for id, entry := range s.active {
		entry.timer.Stop()
		chunks = append(chunks, entry.chunk)
		delete(s.active, id)
	}
	sortByStart(chunks)
	s.out.Stop(chunks)
	return len(chunks)
}

func (s *Scheduler) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// InFlight returns the chunks still queued or playing, ordered by start time.
func (s *Scheduler) InFlight() []*Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := make([]*Chunk, 0, len(s.active))
	for _, entry := range s.active {
		chunks = append(chunks, entry.chunk)
	}
	sortByStart(chunks)
	return chunks
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func sortByStart(chunks []*Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Start.Before(chunks[j].Start)
	})
}
