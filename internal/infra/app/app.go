package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/infra/config"
	"github.com/Revixit-Net/discord-bot/internal/infra/database"
	"github.com/Revixit-Net/discord-bot/internal/infra/logger"
	redisinfra "github.com/Revixit-Net/discord-bot/internal/infra/redis"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/infra/storage"
	"github.com/Revixit-Net/discord-bot/internal/infra/telemetry"
	postgresrepo "github.com/Revixit-Net/discord-bot/internal/repository/postgres"
	redisrepo "github.com/Revixit-Net/discord-bot/internal/repository/redis"
	"github.com/Revixit-Net/discord-bot/internal/transport/discord"
	"github.com/Revixit-Net/discord-bot/internal/transport/ops"
	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

// Application bundles the bot, the ops server, and their shared
// infrastructure handles.
type Application struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	bot    *discord.Bot
	ops    *ops.Server
}

// New wires the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	accounts := postgresrepo.NewAccountRepository(pool)
	uploads := postgresrepo.NewUploadRepository(pool)

	registration := usecase.NewRegistrationService(accounts, log)

	// The register cooldown rides on Redis when it is configured. Without
	// it registration still works, just without the throttle.
	var redisClient *redisinfra.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			log.Warn("failed to init redis, register cooldown disabled", zap.Error(err))
			redisClient = nil
		} else {
			cooldowns := redisrepo.NewCooldownRepository(redisClient.Client(), cfg.Redis.KeyPrefix)
			registration = registration.WithCooldown(cooldowns, cfg.Cooldown.Register)
		}
	} else {
		log.Info("redis not configured, register cooldown disabled")
	}

	var assetStore port.AssetStore
	switch cfg.Assets.Backend {
	case "s3":
		assetStore, err = storage.NewS3Store(ctx, cfg.Assets.S3, log)
	default:
		assetStore, err = storage.NewFilesystemStore(cfg.Assets.SkinsDir, cfg.Assets.CloaksDir, cfg.Assets.TempDir, log)
	}
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init asset store: %w", err)
	}

	passwords := usecase.NewPasswordService(accounts, log)
	admin := usecase.NewAdminService(accounts, log)
	assets := usecase.NewAssetService(accounts, uploads, assetStore, log)

	metrics, err := telemetry.NewCommandMetrics(telemetry.CommandMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	bot, err := discord.New(discord.Options{
		Token:        cfg.Discord.Token,
		GuildID:      cfg.Discord.GuildID,
		AdminRoleID:  cfg.Discord.AdminRoleID,
		Registration: registration,
		Passwords:    passwords,
		Admin:        admin,
		Assets:       assets,
		Metrics:      metrics,
		Logger:       log,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init discord bot: %w", err)
	}

	opsServer := ops.NewServer(cfg.Telemetry.OpsAddr, accounts, log)

	return &Application{
		cfg:    cfg,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		bot:    bot,
		ops:    opsServer,
	}, nil
}

// Run starts the ops server and the Discord session and blocks until the
// context is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		_ = a.redis.Close()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("starting bot",
		zap.String("env", a.cfg.App.Env),
		zap.String("ops_addr", a.cfg.Telemetry.OpsAddr),
	)

	errCh := make(chan error, 2)
	go func() {
		if err := a.ops.Run(runCtx); err != nil {
			errCh <- fmt.Errorf("ops server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		if err := a.bot.Run(runCtx); err != nil {
			errCh <- fmt.Errorf("discord bot: %w", err)
			return
		}
		errCh <- nil
	}()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			if firstErr == nil {
				firstErr = err
			}
			cancel()
		}
	}

	a.logger.Info("bot stopped")
	return firstErr
}
