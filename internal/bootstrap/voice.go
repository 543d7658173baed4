package bootstrap

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/gateway"
	"github.com/eleven-am/mohami/internal/gemini"
	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/resource"
	"github.com/eleven-am/mohami/internal/session"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

func ProvideLiveDialer(cfg *Config, logger *slog.Logger) voicesession.Dialer {
	return gemini.NewLiveDialer(gemini.Config{BaseURL: cfg.GeminiBaseURL}, logger)
}

func ProvideVoiceSessionManager(lc fx.Lifecycle, dialer voicesession.Dialer, clk clock.Clock, cfg *Config, logger *slog.Logger) *voicesession.Manager {
	mgr := voicesession.NewManager(voicesession.ManagerConfig{
		Dialer: dialer,
		Clock:  clk,
		Model:  cfg.LiveModel,
		Voice:  cfg.Voice,
		Log:    logger,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mgr.Close()
		},
	})
	return mgr
}

type VoiceParams struct {
	fx.In

	Manager  *voicesession.Manager
	Library  *resource.Library
	Catalog  *subject.Catalog
	Sessions *session.Store
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Logger   *slog.Logger
}

func ProvideVoiceHandler(p VoiceParams) *gateway.Handler {
	return gateway.NewHandler(gateway.HandlerConfig{
		Manager:   p.Manager,
		Documents: p.Library,
		Catalog:   p.Catalog,
		Sessions:  p.Sessions,
		Metrics:   p.Metrics,
		Clock:     p.Clock,
		Logger:    p.Logger,
	})
}

func RegisterVoiceRoutes(e *echo.Echo, h *gateway.Handler) {
	h.RegisterRoutes(e.Group("/api/v1/voice"))
}

var VoiceModule = fx.Options(
	fx.Provide(
		ProvideLiveDialer,
		ProvideVoiceSessionManager,
		ProvideVoiceHandler,
	),
	fx.Invoke(RegisterVoiceRoutes),
)
