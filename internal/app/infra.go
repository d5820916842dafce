package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/backup"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/store"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/database"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/email"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/logs"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/observability"
	redispkg "github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
	s3pkg "github.com/rodrigoprogmaster-prog/clinica/pkg/s3"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideClock),
	fx.Provide(ProvidePool),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideObjectStore),
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	log := logs.New(cfg)
	slog.SetDefault(log)
	return log
}

func ProvideClock(cfg *config.Config) domain.Clock {
	return domain.NewClock(cfg.Clinic.Location())
}

func ProvidePool(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	ctx := context.Background()
	if cfg.Database.Migrations.AutoMigrate {
		if err := database.Migrate(ctx, database.FromCentralConfig(cfg.Database)); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("closing main database connection")
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// ProvideStore wires the Postgres gateways into the application store and
// loads every table when the app starts. A failed load leaves the store
// degraded instead of aborting startup.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*state.Store, error) {
	sealer, err := state.SealerFromKey(cfg.Clinic.EncryptionKey)
	if err != nil {
		return nil, err
	}

	st := state.New(state.FromGateways(store.NewGateways(pool, log), sealer), log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := st.Load(ctx); err != nil {
				log.Warn("initial load incomplete, serving degraded state", "err", err)
				return nil
			}
			snap := st.Snapshot()
			log.Info("state loaded",
				"patients", len(snap.Patients),
				"appointments", len(snap.Appointments),
				"transactions", len(snap.Transactions),
			)
			return nil
		},
	})
	return st, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.New(cfg.Email, cfg.Clinic.Name)
}

// ProvideObjectStore returns nil when no bucket is configured, which
// disables backup archives.
func ProvideObjectStore(cfg *config.Config) (backup.ObjectStore, error) {
	if cfg.S3.Bucket == "" {
		return nil, nil
	}
	client, err := s3pkg.New(cfg.S3)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.Init(context.Background(), cfg.Observability, cfg.Server.Environment)
	if err != nil {
		return nil, err
	}
	log.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
