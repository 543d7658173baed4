package playback

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type recordingOutput struct {
	mu      sync.Mutex
	played  []*Chunk
	stopped []*Chunk
	playErr error
}

func (o *recordingOutput) Play(chunk *Chunk) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playErr != nil {
		return o.playErr
	}
	o.played = append(o.played, chunk)
	return nil
}

func (o *recordingOutput) Stop(chunks []*Chunk) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = append(o.stopped, chunks...)
}

func (o *recordingOutput) Stopped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.stopped)
}

type observingOutput struct {
	recordingOutput
	ended chan *Chunk
}

func (o *observingOutput) Ended(chunk *Chunk) {
	o.ended <- chunk
}

func newTestScheduler() (*Scheduler, *clock.Mock, *recordingOutput) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	out := &recordingOutput{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(mock, out, logger), mock, out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduler_BackToBack(t *testing.T) {
	s, mock, _ := newTestScheduler()
	t0 := mock.Now()

	durations := []time.Duration{time.Second, 2 * time.Second, 500 * time.Millisecond}
	var chunks []*Chunk
	for _, d := range durations {
		c, err := s.Schedule(nil, 24000, d)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
		chunks = append(chunks, c)
	}

	expected := []time.Time{t0, t0.Add(time.Second), t0.Add(3 * time.Second)}
	for i, c := range chunks {
		if !c.Start.Equal(expected[i]) {
			t.Errorf("chunk %d: expected start %v, got %v", i, expected[i], c.Start)
		}
	}
	if !s.Cursor().Equal(t0.Add(3500 * time.Millisecond)) {
		t.Errorf("expected cursor at t0+3.5s, got %v", s.Cursor())
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 in-flight chunks, got %d", s.Len())
	}
}

func TestScheduler_GapWhenArrivingLate(t *testing.T) {
	s, mock, _ := newTestScheduler()

	if _, err := s.Schedule(nil, 24000, time.Second); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	mock.Add(5 * time.Second)

	c, err := s.Schedule(nil, 24000, time.Second)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !c.Start.Equal(mock.Now()) {
		t.Errorf("expected late chunk to start now (%v), got %v", mock.Now(), c.Start)
	}
}

func TestScheduler_ChunkRemovedWhenFinished(t *testing.T) {
	s, mock, _ := newTestScheduler()

	ended := make(chan *Chunk, 1)
	s.OnEnd(func(c *Chunk) { ended <- c })

	c, err := s.Schedule(nil, 24000, time.Second)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	mock.Add(time.Second)
	waitFor(t, func() bool { return s.Len() == 0 })

	select {
	case got := <-ended:
		if got.ID != c.ID {
			t.Errorf("expected ended chunk %s, got %s", c.ID, got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("OnEnd hook not called")
	}
}

func TestScheduler_Interrupt(t *testing.T) {
	s, mock, out := newTestScheduler()

	for i := 0; i < 3; i++ {
		if _, err := s.Schedule(nil, 24000, 2*time.Second); err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
	}
	staleCursor := s.Cursor()

	mock.Add(500 * time.Millisecond)
	n := s.Interrupt()

	if n != 3 {
		t.Errorf("expected 3 chunks stopped, got %d", n)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty in-flight set, got %d", s.Len())
	}
	if out.Stopped() != 3 {
		t.Errorf("expected output to stop 3 chunks, got %d", out.Stopped())
	}

	c, err := s.Schedule(nil, 24000, 2*time.Second)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if c.Start.Before(mock.Now()) {
		t.Errorf("chunk after interrupt starts before now: %v < %v", c.Start, mock.Now())
	}
	if !c.Start.Before(staleCursor) {
		t.Errorf("chunk after interrupt should not wait for stale cursor %v, got %v", staleCursor, c.Start)
	}
}

func TestScheduler_InterruptThenNewChunk(t *testing.T) {
	s, mock, _ := newTestScheduler()

	if _, err := s.Schedule(nil, 24000, 3*time.Second); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	mock.Add(time.Second)
	s.Interrupt()

	c, err := s.Schedule(nil, 24000, 2*time.Second)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	inflight := s.InFlight()
	if len(inflight) != 1 {
		t.Fatalf("expected exactly one chunk in flight, got %d", len(inflight))
	}
	if inflight[0].ID != c.ID {
		t.Errorf("expected in-flight chunk %s, got %s", c.ID, inflight[0].ID)
	}
	if !c.Start.Equal(mock.Now()) {
		t.Errorf("expected start at now %v, got %v", mock.Now(), c.Start)
	}
}

func TestScheduler_InterruptedChunkDoesNotFireOnEnd(t *testing.T) {
	s, mock, _ := newTestScheduler()

	var mu sync.Mutex
	ended := 0
	s.OnEnd(func(*Chunk) {
		mu.Lock()
		ended++
		mu.Unlock()
	})

	if _, err := s.Schedule(nil, 24000, time.Second); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	s.Interrupt()
	mock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if ended != 0 {
		t.Errorf("expected no end callbacks after interrupt, got %d", ended)
	}
}

func TestScheduler_Reset(t *testing.T) {
	s, _, out := newTestScheduler()

	if _, err := s.Schedule(nil, 24000, time.Second); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	s.Reset()

	if !s.Cursor().IsZero() {
		t.Errorf("expected zero cursor after reset, got %v", s.Cursor())
	}
	if s.Len() != 0 {
		t.Errorf("expected no in-flight chunks, got %d", s.Len())
	}
	if out.Stopped() != 1 {
		t.Errorf("expected 1 stopped chunk, got %d", out.Stopped())
	}

	s.Reset()
	if out.Stopped() != 1 {
		t.Errorf("expected reset on empty scheduler to stop nothing, got %d", out.Stopped())
	}
}

func TestScheduler_PlayErrorLeavesCursor(t *testing.T) {
	s, _, out := newTestScheduler()
	out.playErr = errors.New("output closed")

	if _, err := s.Schedule(nil, 24000, time.Second); err == nil {
		t.Fatal("expected error from Schedule")
	}
	if !s.Cursor().IsZero() {
		t.Errorf("expected cursor untouched, got %v", s.Cursor())
	}
	if s.Len() != 0 {
		t.Errorf("expected no in-flight chunks, got %d", s.Len())
	}
}

func TestScheduler_StartTimesNeverOverlap(t *testing.T) {
	s, mock, _ := newTestScheduler()
	rng := rand.New(rand.NewSource(42))

	var prev *Chunk
	for i := 0; i < 200; i++ {
		if rng.Intn(3) == 0 {
			mock.Add(time.Duration(rng.Intn(1500)) * time.Millisecond)
		}

		interrupted := false
		if rng.Intn(10) == 0 {
			s.Interrupt()
			interrupted = true
		}

		now := mock.Now()
		c, err := s.Schedule(nil, 24000, time.Duration(1+rng.Intn(800))*time.Millisecond)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}

		if c.Start.Before(now) {
			t.Fatalf("step %d: start %v before clock %v", i, c.Start, now)
		}
		if prev != nil && !interrupted {
			if c.Start.Before(prev.Start) {
				t.Fatalf("step %d: start moved backward", i)
			}
			if c.Start.Before(prev.End()) {
				t.Fatalf("step %d: chunk overlaps previous (%v < %v)", i, c.Start, prev.End())
			}
		}
		prev = c
	}
}

func TestNewScheduler_RegistersEndObserver(t *testing.T) {
	mock := clock.NewMock()
	out := &observingOutput{ended: make(chan *Chunk, 1)}
	s := NewScheduler(mock, out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c, err := s.Schedule(nil, 24000, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	mock.Add(500 * time.Millisecond)

	select {
	case got := <-out.ended:
		if got.ID != c.ID {
			t.Errorf("expected ended chunk %s, got %s", c.ID, got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("output was not told the chunk ended")
	}
}
