package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/session"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/labstack/echo/v4"
)

const msgUnknownSubject = "المادة غير موجودة"

// DocumentSource supplies the grounding documents of a subject.
type DocumentSource interface {
	Documents(ctx context.Context, subjectID string) []voicesession.Document
}

type Handler struct {
	manager   *voicesession.Manager
	documents DocumentSource
	catalog   *subject.Catalog
	sessions  *session.Store
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    *slog.Logger
}

type HandlerConfig struct {
	Manager   *voicesession.Manager
	Documents DocumentSource
	Catalog   *subject.Catalog
	Sessions  *session.Store
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Logger    *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		manager:   cfg.Manager,
		documents: cfg.Documents,
		catalog:   cfg.Catalog,
		sessions:  cfg.Sessions,
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With("handler", "voice_gateway"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleWebSocket)
	g.GET("/sessions", h.ListSessions)
}

// HandleWebSocket godoc
// @Summary      Open a voice session channel
// @Description  Upgrades to a WebSocket carrying JSON envelopes {type, payload}. One voice session is kept per client_id; reconnecting with the same id replaces the previous one.
// @Tags         voice
// @Param        client_id  query  string  false  "Stable browser tab id"
// @Success      101  "Switching Protocols"
// @Router       /voice/ws [get]
func (h *Handler) HandleWebSocket(c echo.Context) error {
	clientID := c.QueryParam("client_id")
	if clientID == "" {
		clientID = shared.NewID("cl_")
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	client := NewClient(ws, clientID, h.clock, h.metrics, h.logger)
	recorder := session.NewRecorder(client, h.sessions, h.metrics, clientID, h.logger)
	ctrl := h.manager.CreateSession(clientID, voicesession.ClientBindings{
		Microphones: client,
		Output:      client,
		Listener:    recorder,
	})

	h.logger.Info("voice client connected", "client_id", clientID)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go client.writePump(ctx)
	client.readPump(ctx, func(msg *Message) {
		h.dispatch(ctx, client, ctrl, recorder, msg)
	})

	cancel()
	h.manager.RemoveSession(clientID, ctrl)
	recorder.Close()
	_ = client.Close()

	h.logger.Info("voice client disconnected", "client_id", clientID)
	return nil
}

func (h *Handler) dispatch(ctx context.Context, client *Client, ctrl *voicesession.Controller, rec *session.Recorder, msg *Message) {
	switch msg.Type {
	case MessageTypeSessionConnect, MessageTypeSessionToggle:
		var p ConnectPayload
		if err := msg.Decode(&p); err != nil {
			client.SendError("invalid_payload", err.Error())
			return
		}
		toggle := msg.Type == MessageTypeSessionToggle
		// Connect waits for mic.granted, which arrives through this read loop.
		go h.connect(ctx, client, ctrl, rec, p, toggle)

	case MessageTypeSessionDisconnect:
		ctrl.Disconnect()

	case MessageTypeMicGranted:
		var p MicGrantedPayload
		if err := msg.Decode(&p); err != nil {
			client.SendError("invalid_payload", err.Error())
			return
		}
		client.answerMic(micReply{mic: newWSMicrophone(client, p.SampleRate)})

	case MessageTypeMicDenied:
		client.answerMic(micReply{err: voicesession.ErrMicrophoneDenied})

	case MessageTypeAudioFrame:
		var p AudioFramePayload
		if err := msg.Decode(&p); err != nil {
			client.SendError("invalid_payload", err.Error())
			return
		}
		client.pushFrame(p.Samples)

	case MessageTypeImageAttach:
		var p ImagePayload
		if err := msg.Decode(&p); err != nil {
			client.SendError("invalid_payload", err.Error())
			return
		}
		if err := ctrl.SendImage(p.Data, p.MimeType, p.Name); err != nil && !errors.Is(err, voicesession.ErrNotConnected) {
			h.logger.Warn("failed to send image", "client_id", client.ID(), "error", err)
		}

	default:
		client.SendError("unknown_type", "unknown message type: "+string(msg.Type))
	}
}

func (h *Handler) connect(ctx context.Context, client *Client, ctrl *voicesession.Controller, rec *session.Recorder, p ConnectPayload, toggle bool) {
	if toggle && ctrl.State() != voicesession.StateDisconnected {
		ctrl.Disconnect()
		return
	}

	subj, ok := h.catalog.Get(p.SubjectID)
	if !ok {
		client.SendError("unknown_subject", msgUnknownSubject)
		return
	}
	rec.SetSubject(subj.ID)

	var docs []voicesession.Document
	if h.documents != nil {
		docs = h.documents.Documents(ctx, subj.ID)
	}

	err := ctrl.Connect(ctx, voicesession.ConnectRequest{
		Credential:  p.APIKey,
		SubjectName: subj.Name,
		Documents:   docs,
	})
	if err != nil && !errors.Is(err, voicesession.ErrConnectAborted) {
		h.logger.Warn("voice session connect failed", "client_id", client.ID(), "subject_id", subj.ID, "error", err)
	}
}

// ListSessions godoc
// @Summary      List live voice sessions
// @Tags         voice
// @Produce      json
// @Success      200  {array}  voicesession.SessionInfo
// @Router       /voice/sessions [get]
func (h *Handler) ListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.ListSessions())
}
