package audio

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
)

var ErrMicrophoneClosed = errors.New("microphone closed")

// Microphone is a live input stream. ReadFrame blocks until samples are available
// and returns ErrMicrophoneClosed once Close has been called.
type Microphone interface {
	ReadFrame(ctx context.Context) ([]float32, error)
	SampleRate() int
	Close() error
}

// Frame is one fixed-size block of captured audio, already at InputSampleRate.
type Frame struct {
	Samples    []float32
	SampleRate int
	Volume     float64
}

type FrameSink func(Frame)

type CaptureConfig struct {
	FrameSamples int
	Log          *slog.Logger
}

type Capturer struct {
	mic       Microphone
	sink      FrameSink
	frameSize int
	log       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

func NewCapturer(mic Microphone, sink FrameSink, cfg CaptureConfig) *Capturer {
	if cfg.FrameSamples <= 0 {
		cfg.FrameSamples = FrameSamples
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Capturer{
		mic:       mic,
		sink:      sink,
		frameSize: cfg.FrameSamples,
		log:       cfg.Log,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Frames reads the microphone lazily and yields a frame every time frameSize
// samples have accumulated. It ends when ctx is cancelled or the microphone fails.
func (c *Capturer) Frames(ctx context.Context) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		pending := make([]float32, 0, c.frameSize)
		for ctx.Err() == nil {
			samples, err := c.mic.ReadFrame(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrMicrophoneClosed) {
					c.log.Warn("microphone read failed", "error", err)
				}
				return
			}

			for len(samples) > 0 {
				n := min(c.frameSize-len(pending), len(samples))
				pending = append(pending, samples[:n]...)
				samples = samples[n:]

				if len(pending) < c.frameSize {
					continue
				}
				if !yield(c.frame(pending)) {
					return
				}
				pending = make([]float32, 0, c.frameSize)
			}
		}
	}
}

func (c *Capturer) frame(raw []float32) Frame {
	rate := c.mic.SampleRate()
	if rate <= 0 {
		rate = InputSampleRate
	}
	return Frame{
		Samples:    Resample(raw, rate, InputSampleRate),
		SampleRate: InputSampleRate,
		Volume:     Volume(raw),
	}
}

func (c *Capturer) Start() {
	if c.started.Swap(true) {
		return
	}

	go func() {
		defer close(c.done)
		for frame := range c.Frames(c.ctx) {
			c.sink(frame)
		}
	}()
}

// Stop releases the microphone and waits for the capture loop to exit. Safe to call more than once.
func (c *Capturer) Stop() error {
	c.stopOnce.Do(func() {
		c.cancel()
		c.stopErr = c.mic.Close()
		if c.started.Load() {
			<-c.done
		}
	})
	return c.stopErr
}
