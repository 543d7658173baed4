// Package transcript accumulates streaming transcription text and turns it into
// finalized chat messages at turn boundaries.
package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	IsFinal   bool      `json:"is_final"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"`
}

func NewMessage(role Role, text string, at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		IsFinal:   true,
		Timestamp: at,
	}
}

// Aggregator holds the in-progress user and model text for the current turn.
// Appends concatenate fragments as delivered, with no separator.
type Aggregator struct {
	clock  clock.Clock
	mu     sync.Mutex
	input  strings.Builder
	output strings.Builder
}

func NewAggregator(clk clock.Clock) *Aggregator {
	if clk == nil {
		clk = clock.New()
	}
	return &Aggregator{clock: clk}
}

// Message builds a finalized message stamped with the aggregator's clock.
func (a *Aggregator) Message(role Role, text string) ChatMessage {
	return NewMessage(role, text, a.clock.Now())
}

func (a *Aggregator) AppendInput(fragment string) {
	if fragment == "" {
		return
	}
	a.mu.Lock()
	a.input.WriteString(fragment)
	a.mu.Unlock()
}

func (a *Aggregator) AppendOutput(fragment string) {
	if fragment == "" {
		return
	}
	a.mu.Lock()
	a.output.WriteString(fragment)
	a.mu.Unlock()
}

// Finalize emits the user message then the model message for whichever
// accumulators hold non-blank text, and clears both.
func (a *Aggregator) Finalize() []ChatMessage {
	a.mu.Lock()
	in, out := a.input.String(), a.output.String()
	a.input.Reset()
	a.output.Reset()
	a.mu.Unlock()

	now := a.clock.Now()
	var msgs []ChatMessage
	if strings.TrimSpace(in) != "" {
		msgs = append(msgs, NewMessage(RoleUser, in, now))
	}
	if strings.TrimSpace(out) != "" {
		msgs = append(msgs, NewMessage(RoleModel, out, now))
	}
	return msgs
}

// ResetOutput drops the model text of an interrupted turn.
func (a *Aggregator) ResetOutput() {
	a.mu.Lock()
	a.output.Reset()
	a.mu.Unlock()
}

func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.input.Reset()
	a.output.Reset()
	a.mu.Unlock()
}

// Pending returns the unfinalized input and output text.
func (a *Aggregator) Pending() (input, output string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input.String(), a.output.String()
}
