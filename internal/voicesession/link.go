package voicesession

import (
	"context"
	"errors"

	"github.com/eleven-am/mohami/internal/audio"
)

var (
	ErrMissingCredential = errors.New("missing api credential")
	ErrMicrophoneDenied  = errors.New("microphone permission denied")
	ErrNotConnected      = errors.New("session not connected")
	ErrConnectAborted    = errors.New("connect attempt aborted")
	ErrLinkClosed        = errors.New("realtime link closed")
)

const (
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice = "Fenrir"
)

// LinkConfig is what the realtime model needs to open a session.
type LinkConfig struct {
	Model             string
	Voice             string
	SystemInstruction string
	Credential        string
}

type Dialer interface {
	Dial(ctx context.Context, cfg LinkConfig) (Link, error)
}

type Media struct {
	Data     []byte
	MimeType string
}

type RealtimeInput struct {
	Audio *Media
	Image *Media
}

// ServerMessage is one decoded event from the model. Receive returns
// ErrLinkClosed (possibly wrapped) on a clean close.
type ServerMessage struct {
	Interrupted         bool
	ModelText           string
	OutputTranscription string
	InputTranscription  string
	TurnComplete        bool
	Audio               []Media
}

type Link interface {
	SendRealtimeInput(in RealtimeInput) error
	Receive() (*ServerMessage, error)
	Close() error
}

// MicrophoneProvider grants access to a live microphone. Denial is reported
// as ErrMicrophoneDenied.
type MicrophoneProvider interface {
	Acquire(ctx context.Context) (audio.Microphone, error)
}
