package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// LiveDialer opens Gemini Live sessions. A client is created per dial since
// the credential comes from the user on every connect.
type LiveDialer struct {
	cfg Config
	log *slog.Logger
}

func NewLiveDialer(cfg Config, log *slog.Logger) *LiveDialer {
	if log == nil {
		log = slog.Default()
	}
	return &LiveDialer{cfg: cfg, log: log.With("component", "gemini_live")}
}

func (d *LiveDialer) Dial(ctx context.Context, cfg voicesession.LinkConfig) (voicesession.Link, error) {
	client, err := newClient(ctx, d.cfg, cfg.Credential)
	if err != nil {
		return nil, err
	}

	session, err := client.Live.Connect(ctx, cfg.Model, LiveConnectConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("live connect: %w", err)
	}

	d.log.Debug("live session opened", "model", cfg.Model, "voice", cfg.Voice)
	return &liveLink{session: session}, nil
}

// LiveConnectConfig requests audio responses in the configured voice with
// transcription enabled in both directions.
func LiveConnectConfig(cfg voicesession.LinkConfig) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
}

type liveLink struct {
	session *genai.Session

	// the underlying websocket allows a single concurrent writer
	sendMu sync.Mutex
}

func (l *liveLink) SendRealtimeInput(in voicesession.RealtimeInput) error {
	var input genai.LiveRealtimeInput
	if in.Audio != nil {
		input.Audio = &genai.Blob{Data: in.Audio.Data, MIMEType: in.Audio.MimeType}
	}
	if in.Image != nil {
		input.Video = &genai.Blob{Data: in.Image.Data, MIMEType: in.Image.MimeType}
	}

	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	return l.session.SendRealtimeInput(input)
}

func (l *liveLink) Receive() (*voicesession.ServerMessage, error) {
	for {
		msg, err := l.session.Receive()
		if err != nil {
			return nil, translateReceiveError(err)
		}
		if out := ToServerMessage(msg); out != nil {
			return out, nil
		}
	}
}

func (l *liveLink) Close() error {
	return l.session.Close()
}

func translateReceiveError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("%w: %v", voicesession.ErrLinkClosed, err)
	}
	return err
}

// ToServerMessage maps a Live API message to the controller's event. Messages
// without server content (setup acks, tool calls) map to nil.
func ToServerMessage(msg *genai.LiveServerMessage) *voicesession.ServerMessage {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}
	sc := msg.ServerContent

	out := &voicesession.ServerMessage{
		Interrupted:  sc.Interrupted,
		TurnComplete: sc.TurnComplete,
	}
	if sc.InputTranscription != nil {
		out.InputTranscription = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		out.OutputTranscription = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.Thought {
				continue
			}
			out.ModelText += part.Text
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out.Audio = append(out.Audio, voicesession.Media{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				})
			}
		}
	}
	return out
}
