package session

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eleven-am/mohami/internal/dto"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/labstack/echo/v4"
)

const (
	defaultMetricsHours = 24
	maxMetricsHours     = 168
)

type Handler struct {
	store   *Store
	catalog *subject.Catalog
	logger  *slog.Logger
}

func NewHandler(store *Store, catalog *subject.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		catalog: catalog,
		logger:  logger.With("handler", "session"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/subjects/:id/metrics", h.GetMetrics)
	g.GET("/subjects/:id/sessions", h.ListActive)
}

func (h *Handler) requireSubject(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, ok := h.catalog.Get(id); !ok {
		return "", shared.NotFound("subject_not_found", "subject not found")
	}
	return id, nil
}

func metricsToResponse(m *Metrics) dto.MetricsResponse {
	return dto.MetricsResponse{
		SubjectID:     m.SubjectID,
		Date:          m.Date,
		Hour:          m.Hour,
		Sessions:      m.Sessions,
		Messages:      m.Messages,
		Interruptions: m.Interruptions,
		Errors:        m.Errors,
	}
}

func sessionToResponse(s *Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:           s.ID,
		ClientID:     s.ClientID,
		SubjectID:    s.SubjectID,
		Status:       string(s.Status),
		StartedAt:    s.StartedAt.Format(time.RFC3339),
		LastActiveAt: s.LastActiveAt.Format(time.RFC3339),
		MessageCount: s.MessageCount,
	}
}

// GetMetrics godoc
// @Summary      Get subject study metrics
// @Description  Returns hourly counters of voice sessions for a subject, newest first
// @Tags         metrics
// @Produce      json
// @Param        id     path      string  true   "Subject ID"
// @Param        hours  query     int     false  "Hours to look back (1-168, default 24)"
// @Success      200    {object}  dto.MetricsListResponse
// @Failure      404    {object}  shared.APIError
// @Failure      500    {object}  shared.APIError
// @Router       /subjects/{id}/metrics [get]
func (h *Handler) GetMetrics(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	hoursStr := c.QueryParam("hours")
	hours := defaultMetricsHours
	if hoursStr != "" {
		if hr, err := strconv.Atoi(hoursStr); err == nil && hr > 0 && hr <= maxMetricsHours {
			hours = hr
		}
	}

	metrics, err := h.store.GetMetrics(c.Request().Context(), subjectID, hours)
	if err != nil {
		h.logger.Error("failed to get metrics", "error", err, "subject_id", subjectID)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	response := make([]dto.MetricsResponse, len(metrics))
	for i, m := range metrics {
		response[i] = metricsToResponse(m)
	}

	return c.JSON(http.StatusOK, dto.MetricsListResponse{
		SubjectID: subjectID,
		Hours:     hours,
		Metrics:   response,
	})
}

// ListActive godoc
// @Summary      List active voice sessions
// @Tags         metrics
// @Produce      json
// @Param        id   path      string  true  "Subject ID"
// @Success      200  {array}   dto.SessionResponse
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /subjects/{id}/sessions [get]
func (h *Handler) ListActive(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	sessions, err := h.store.GetActiveSessions(c.Request().Context(), subjectID)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err, "subject_id", subjectID)
		return shared.InternalError("list_sessions_failed", "failed to list sessions")
	}

	response := make([]dto.SessionResponse, len(sessions))
	for i, s := range sessions {
		response[i] = sessionToResponse(s)
	}
	return c.JSON(http.StatusOK, response)
}
