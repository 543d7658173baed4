package gateway

import (
	"encoding/json"

	"github.com/eleven-am/mohami/internal/transcript"
	"github.com/eleven-am/mohami/internal/voicesession"
)

type MessageType string

// Browser to server.
const (
	MessageTypeSessionConnect    MessageType = "session.connect"
	MessageTypeSessionDisconnect MessageType = "session.disconnect"
	MessageTypeSessionToggle     MessageType = "session.toggle"
	MessageTypeMicGranted        MessageType = "mic.granted"
	MessageTypeMicDenied         MessageType = "mic.denied"
	MessageTypeAudioFrame        MessageType = "audio.frame"
	MessageTypeImageAttach       MessageType = "image.attach"
)

// Server to browser.
const (
	MessageTypeSessionState      MessageType = "session.state"
	MessageTypeMicRequest        MessageType = "mic.request"
	MessageTypeMicRelease        MessageType = "mic.release"
	MessageTypeVolume            MessageType = "volume"
	MessageTypeTranscriptPartial MessageType = "transcript.partial"
	MessageTypeChatMessage       MessageType = "chat.message"
	MessageTypeInterrupted       MessageType = "interrupted"
	MessageTypeAudioChunk        MessageType = "audio.chunk"
	MessageTypeAudioStop         MessageType = "audio.stop"
	MessageTypeError             MessageType = "error"
)

type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMessage(t MessageType, payload any) (*Message, error) {
	msg := &Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg.Payload = data
	return msg, nil
}

func (m *Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

type ConnectPayload struct {
	APIKey    string `json:"api_key"`
	SubjectID string `json:"subject_id"`
}

type MicGrantedPayload struct {
	SampleRate int `json:"sample_rate"`
}

type AudioFramePayload struct {
	Samples []float32 `json:"samples"`
}

// ImagePayload carries the image bytes base64-encoded in JSON.
type ImagePayload struct {
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
	Data     []byte `json:"data"`
}

type StatePayload struct {
	State voicesession.State `json:"state"`
}

type VolumePayload struct {
	Volume float64 `json:"volume"`
}

type TranscriptPayload struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type ChatMessagePayload = transcript.ChatMessage

// AudioChunkPayload is PCM16 LE audio the browser starts StartMs after receipt.
type AudioChunkPayload struct {
	ID         string `json:"id"`
	StartMs    int64  `json:"start_ms"`
	DurationMs int64  `json:"duration_ms"`
	SampleRate int    `json:"sample_rate"`
	Data       []byte `json:"data"`
}

type AudioStopPayload struct {
	IDs []string `json:"ids"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
