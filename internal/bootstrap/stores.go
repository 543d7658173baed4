package bootstrap

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/resource"
	"github.com/eleven-am/mohami/internal/session"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideResourceStore(db *gorm.DB) *resource.Store {
	return resource.NewStore(db)
}

func ProvideLibrary(store *resource.Store, clk clock.Clock, logger *slog.Logger) *resource.Library {
	return resource.NewLibrary(store, clk, logger)
}

func ProvideSessionStore(redisClient *redis.Client, clk clock.Clock) *session.Store {
	return session.NewStore(redisClient, clk)
}

// RunMigrations logs instead of failing startup; the library serves local
// records while the database is unreachable.
func RunMigrations(store *resource.Store, logger *slog.Logger) {
	if err := store.Migrate(); err != nil {
		logger.Warn("resource migration failed", "error", err)
	}
}

var StoresModule = fx.Options(
	fx.Provide(
		subject.NewCatalog,
		ProvideResourceStore,
		ProvideLibrary,
		ProvideSessionStore,
	),
	fx.Invoke(RunMigrations),
)
