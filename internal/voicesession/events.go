package voicesession

import "github.com/eleven-am/mohami/internal/transcript"

type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
)

// User-visible error messages.
const (
	MsgMissingCredential = "الرجاء إدخال مفتاح API"
	MsgConnectFailed     = "فشل الاتصال."
	MsgLinkError         = "حدث خطأ في الاتصال."
	MsgImageNotConnected = "لازم نكون متصلين عشان نشوف الصورة يا زميلي"
)

// Listener observes a controller. Callbacks are delivered one at a time in
// event order while the controller holds its lock, so implementations must not
// call back into the controller.
type Listener interface {
	OnState(state State)
	OnVolume(volume float64)
	OnTranscript(input, output string)
	OnMessage(msg transcript.ChatMessage)
	OnInterrupt()
	OnError(message string)
}

type NopListener struct{}

func (NopListener) OnState(State)                    {}
func (NopListener) OnVolume(float64)                 {}
func (NopListener) OnTranscript(string, string)      {}
func (NopListener) OnMessage(transcript.ChatMessage) {}
func (NopListener) OnInterrupt()                     {}
func (NopListener) OnError(string)                   {}
