package bootstrap

import (
	"log/slog"
	"os"

	"github.com/eleven-am/mohami/internal/gateway"
	"github.com/eleven-am/mohami/internal/gemini"
	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/resource"
	"github.com/eleven-am/mohami/internal/session"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	SubjectHandler  *subject.Handler
	ResourceHandler *resource.Handler
	SessionHandler  *session.Handler
	Metrics         *metrics.Metrics
	Config          *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/api/v1")

	params.SubjectHandler.RegisterRoutes(api.Group("/subjects"))
	params.SessionHandler.RegisterRoutes(api)

	uploadLimiter := gateway.RateLimiter(gateway.RateLimiterConfig{
		RequestsPerSecond: params.Config.RateLimitRPS,
		Burst:             params.Config.RateLimitBurst,
	})
	params.ResourceHandler.RegisterRoutes(api, uploadLimiter)

	params.Metrics.RegisterRoutes(e)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())

	e.Static("/assets", params.Config.StaticDir)
	e.GET("/*", func(c echo.Context) error {
		return c.File(params.Config.IndexHTML)
	})
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideSubjectHandler(catalog *subject.Catalog) *subject.Handler {
	return subject.NewHandler(catalog)
}

func ProvideOCR(cfg *Config) *gemini.OCR {
	return gemini.NewOCR(gemini.Config{
		BaseURL:  cfg.GeminiBaseURL,
		OCRModel: cfg.OCRModel,
	})
}

func ProvideResourceHandler(
	library *resource.Library,
	catalog *subject.Catalog,
	ocr *gemini.OCR,
	m *metrics.Metrics,
	cfg *Config,
	logger *slog.Logger,
) *resource.Handler {
	return resource.NewHandler(library, catalog, ocr, m, resource.HandlerConfig{
		MaxUploadBytes: cfg.UploadMaxBytes,
	}, logger)
}

func ProvideSessionHandler(store *session.Store, catalog *subject.Catalog, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, catalog, logger)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideSubjectHandler,
		ProvideOCR,
		ProvideResourceHandler,
		ProvideSessionHandler,
	),
	fx.Invoke(RegisterRoutes),
)
