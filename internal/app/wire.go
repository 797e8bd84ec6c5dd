package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/lockboxlabs/bondvault/internal/blob/s3"
	"github.com/lockboxlabs/bondvault/internal/cache/redis"
	"github.com/lockboxlabs/bondvault/internal/clock"
	"github.com/lockboxlabs/bondvault/internal/config"
	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/notify"
	"github.com/lockboxlabs/bondvault/internal/service"
	"github.com/lockboxlabs/bondvault/internal/store/postgres"
)

// Dependencies bundles everything the operating modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Persistence
	PG     *postgres.Client
	Stores domain.Stores
	UoW    domain.UnitOfWork

	// Redis
	Redis       *redis.Client
	LockManager domain.LockManager
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Services
	Issuance   *service.IssuanceService
	Redemption *service.RedemptionService
	Unlock     *service.UnlockService
	Query      *service.QueryService
	Ledger     *service.LedgerService

	// Notifications
	Notifier *notify.Notifier
}

// needsS3 returns true for modes that run the archiver.
func needsS3(mode string) bool {
	switch mode {
	case "archive", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that must
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.PG = pgClient
	deps.Stores = pgClient.Stores()
	deps.UoW = postgres.NewUnitOfWork(pgClient.Pool())

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (archiving modes only) ---
	if needsS3(cfg.Mode) || cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.Stores.Audit)
	}

	// --- Services ---
	clk := clock.System{}
	deps.Issuance = service.NewIssuanceService(
		deps.UoW, clk, deps.SignalBus,
		cfg.Bonds.MinMaturity.Duration,
		cfg.Bonds.EscrowAccount,
		logger,
	)
	deps.Redemption = service.NewRedemptionService(
		deps.UoW, clk, deps.SignalBus, deps.LockManager,
		cfg.Bonds.FeeRate(),
		cfg.Bonds.EscrowAccount, cfg.Bonds.FeeSinkAccount,
		cfg.Bonds.LockTTL.Duration,
		logger,
	)
	deps.Unlock = service.NewUnlockService(
		deps.UoW, clk, deps.SignalBus, deps.LockManager,
		cfg.Bonds.LockTTL.Duration,
		logger,
	)
	deps.Query = service.NewQueryService(deps.Stores, cfg.Bonds.EscrowAccount, logger)
	deps.Ledger = service.NewLedgerService(deps.UoW, deps.Stores, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
