package gateway

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewMessage_NoPayload(t *testing.T) {
	msg, err := NewMessage(MessageTypeMicRequest, nil)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	data, _ := json.Marshal(msg)
	if string(data) != `{"type":"mic.request"}` {
		t.Errorf("expected bare envelope, got %s", data)
	}
}

func TestMessage_DecodeImage(t *testing.T) {
	raw := `{"type":"image.attach","payload":{"mime_type":"image/png","name":"board.png","data":"iVBORw0K"}}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != MessageTypeImageAttach {
		t.Errorf("expected image.attach, got %s", msg.Type)
	}

	var p ImagePayload
	if err := msg.Decode(&p); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Name != "board.png" || p.MimeType != "image/png" {
		t.Errorf("unexpected payload %+v", p)
	}
	if len(p.Data) != 6 || p.Data[0] != 0x89 || p.Data[1] != 'P' || p.Data[5] != 0x0A {
		t.Errorf("expected base64-decoded bytes, got %v", p.Data)
	}
}

func TestMessage_DecodeEmptyPayload(t *testing.T) {
	msg := &Message{Type: MessageTypeSessionDisconnect}
	var p ConnectPayload
	if err := msg.Decode(&p); err != nil {
		t.Errorf("expected empty payload to decode, got %v", err)
	}
}

func TestMessage_DecodeInvalid(t *testing.T) {
	msg := &Message{Type: MessageTypeAudioFrame, Payload: json.RawMessage(`{"samples":"loud"}`)}
	var p AudioFramePayload
	err := msg.Decode(&p)
	if err == nil || !strings.Contains(err.Error(), "samples") {
		t.Errorf("expected a samples decode error, got %v", err)
	}
}
