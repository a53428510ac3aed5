package main

import (
	"context"
	"fmt"

	"github.com/satwatch/satwatch/internal/account"
	"github.com/satwatch/satwatch/internal/accountregistry"
	"github.com/satwatch/satwatch/internal/chatflow"
	"github.com/satwatch/satwatch/internal/config"
	"github.com/satwatch/satwatch/internal/feealert"
	clihandler "github.com/satwatch/satwatch/internal/handlers/cli"
	telegramhandler "github.com/satwatch/satwatch/internal/handlers/telegram"
	"github.com/satwatch/satwatch/internal/infra/mempoolspace"
	storagefile "github.com/satwatch/satwatch/internal/infra/storage/file"
	storageredis "github.com/satwatch/satwatch/internal/infra/storage/redis"
	telegraminfra "github.com/satwatch/satwatch/internal/infra/telegram"
	"github.com/satwatch/satwatch/internal/infra/unisat"
	"github.com/satwatch/satwatch/internal/pkg/logger"
	"github.com/satwatch/satwatch/internal/pkg/resilience/retry"
	"github.com/satwatch/satwatch/internal/pkg/telemetry"
	transporthttp "github.com/satwatch/satwatch/internal/pkg/transport/http"
	"github.com/satwatch/satwatch/internal/pkg/validator"
	"github.com/satwatch/satwatch/internal/scheduler"
	"github.com/satwatch/satwatch/internal/tokenbalance"
	"github.com/satwatch/satwatch/internal/txtracker"

	"github.com/go-telegram/bot"
)

func newStorage(ctx context.Context, cfg config.Config) (account.Storage, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageFile:
		store, err := storagefile.New(cfg.StorageFilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.StorageRedis:
		client, err := storageredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	validator.Init()

	storage, closeStorage, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening account storage: %w", err)
	}
	defer closeStorage()

	httpClient := transporthttp.NewClient(transporthttp.WithTimeout(cfg.HTTPTimeout))
	mempool := mempoolspace.NewClient(httpClient, mempoolspace.WithBaseURL(cfg.MempoolBaseURL))
	indexer := unisat.NewClient(httpClient, cfg.UnisatAPIKey, unisat.WithBaseURL(cfg.UnisatBaseURL))

	locks := account.NewLocks()
	registry := accountregistry.New(storage)
	tokens := tokenbalance.New(indexer)

	// The default handler must be known at bot construction time, so the bot
	// is built against the handler's deferred options and the handler itself
	// is bound right after.
	var handler *telegramhandler.Handler
	b, err := bot.New(cfg.TelegramBotToken, telegramhandler.BotOptions(&handler)...)
	if err != nil {
		return fmt.Errorf("building telegram bot: %w", err)
	}

	notifier := telegraminfra.NewNotifier(b, retry.New())
	flows := chatflow.NewManager(notifier)
	tracker := txtracker.New(mempool, notifier)
	fees := feealert.New(mempool, notifier)

	handler = telegramhandler.New(registry, fees, tokens, flows, notifier, locks)
	handler.Register(b)

	sched := scheduler.New(storage, locks, tracker, fees, flows, notifier,
		scheduler.WithTrackInterval(cfg.TrackInterval),
		scheduler.WithFeeInterval(cfg.FeeInterval),
		scheduler.WithFlowSweepInterval(cfg.FlowSweepInterval),
		scheduler.WithAccountTimeout(cfg.AccountTimeout),
	)

	return clihandler.Run(ctx, b, sched, registry)
}

func main() {
	ctx := context.Background()

	if err := run(ctx); err != nil {
		logger.Fatal(ctx, "satwatch exited", "error", err)
	}
}
