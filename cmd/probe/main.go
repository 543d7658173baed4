// Command probe drives a voice session over the gateway WebSocket from the
// terminal. It grants the microphone, streams silence and prints what the
// server sends back.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eleven-am/mohami/internal/audio"
	"github.com/eleven-am/mohami/internal/gateway"
	"github.com/gorilla/websocket"
)

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(t gateway.MessageType, payload any) {
	msg, err := gateway.NewMessage(t, payload)
	if err != nil {
		fmt.Printf("[PROBE] Marshal error: %v\n", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		fmt.Printf("[PROBE] Write error: %v\n", err)
	}
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/api/v1/voice/ws", "gateway websocket url")
	subjectID := flag.String("subject", "sharia", "subject id")
	clientID := flag.String("client", "probe", "client id")
	flag.Parse()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY env required")
	}

	u, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatal("url:", err)
	}
	q := u.Query()
	q.Set("client_id", *clientID)
	u.RawQuery = q.Encode()

	fmt.Printf("[PROBE] Connecting to %s\n", u.String())
	ws, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			fmt.Printf("[PROBE] Dial failed: %v, status=%d, body=%s\n", err, resp.StatusCode, string(body))
		}
		log.Fatal("dial:", err)
	}
	defer ws.Close()

	c := &conn{ws: ws}
	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("[PROBE] Shutting down...")
		c.send(gateway.MessageTypeSessionDisconnect, nil)
		halt()
		_ = ws.Close()
	}()

	c.send(gateway.MessageTypeSessionConnect, gateway.ConnectPayload{APIKey: apiKey, SubjectID: *subjectID})

	for {
		var msg gateway.Message
		if err := ws.ReadJSON(&msg); err != nil {
			fmt.Printf("[PROBE] Read error: %v\n", err)
			halt()
			return
		}

		switch msg.Type {
		case gateway.MessageTypeMicRequest:
			c.send(gateway.MessageTypeMicGranted, gateway.MicGrantedPayload{SampleRate: audio.InputSampleRate})
			go streamSilence(c, stop)

		case gateway.MessageTypeSessionState:
			var p gateway.StatePayload
			_ = msg.Decode(&p)
			fmt.Printf("[PROBE] state=%s\n", p.State)

		case gateway.MessageTypeChatMessage:
			var p gateway.ChatMessagePayload
			_ = msg.Decode(&p)
			fmt.Printf("[PROBE] %s: %s\n", p.Role, p.Text)

		case gateway.MessageTypeAudioChunk:
			var p gateway.AudioChunkPayload
			_ = msg.Decode(&p)
			fmt.Printf("[PROBE] audio chunk %s start=%dms duration=%dms\n", p.ID, p.StartMs, p.DurationMs)

		case gateway.MessageTypeError:
			var p gateway.ErrorPayload
			_ = msg.Decode(&p)
			fmt.Printf("[PROBE] error %s: %s\n", p.Code, p.Message)

		case gateway.MessageTypeVolume, gateway.MessageTypeTranscriptPartial:
			// too chatty for a terminal

		default:
			fmt.Printf("[PROBE] %s %s\n", msg.Type, string(msg.Payload))
		}
	}
}

func streamSilence(c *conn, stop <-chan struct{}) {
	frame := gateway.AudioFramePayload{Samples: make([]float32, audio.FrameSamples)}
	interval := time.Duration(audio.FrameSamples) * time.Second / time.Duration(audio.InputSampleRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.send(gateway.MessageTypeAudioFrame, frame)
		}
	}
}
