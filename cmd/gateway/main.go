package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diary-ai-gateway/api"
	"diary-ai-gateway/bootstrap"
	"diary-ai-gateway/config"
	"diary-ai-gateway/middleware/ratelimit"
	"diary-ai-gateway/middleware/ratelimit/domain"
	"diary-ai-gateway/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
	}

	window := buildWindowStore(ctx, cfg, rdb)
	statsStore, statsReader := buildStats(cfg, rdb)

	catalog, err := bootstrap.Catalog(cfg.StylesFile)
	if err != nil {
		log.Fatalf("styles error: %v", err)
	}

	chatter, err := bootstrap.Chatter(cfg, slog.Default())
	if err != nil {
		log.Fatalf("generation client error: %v", err)
	}

	orch := bootstrap.Orchestrator(cfg, catalog, chatter, slog.Default())

	deps := api.Deps{
		Orchestrator: orch,
		Chatter:      chatter,
		Stats:        statsReader,
		Concurrency: ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			AcquireTimeout: cfg.ConcurrencyTimeout,
		}),
	}
	if cfg.RateEnabled {
		deps.RateLimit = ratelimit.Middleware(ratelimit.Options{
			Store:              window,
			Limit:              cfg.RateLimit,
			Stats:              statsStore,
			KeyHeader:          cfg.RateKeyHeader,
			TrustXForwardedFor: cfg.TrustXFF,
			RetryAfter:         cfg.RetryAfter,
		})
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// várias chamadas sequenciais ao upstream cabem em um pedido
		WriteTimeout: 30*time.Second + time.Duration(len(catalog.Keys()))*cfg.OpenAITimeout,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway listening", "addr", cfg.ListenAddr)
	slog.Info("rate", "enabled", cfg.RateEnabled, "limit", cfg.RateLimit, "backend", cfg.RateBackend, "keyHeader", cfg.RateKeyHeader, "trustXFF", cfg.TrustXFF)
	slog.Info("rate-stats", "enabled", cfg.StatsEnabled, "backend", cfg.StatsBackend, "bucket", cfg.StatsBucket, "ttl", cfg.StatsTTL.String(), "trackKeys", cfg.StatsTrackKeys)
	slog.Info("concurrency", "max", cfg.ConcurrencyMax, "acquireTimeout", cfg.ConcurrencyTimeout.String())
	slog.Info("ai", "enabled", orch.Enabled(), "backend", cfg.AIBackend, "model", cfg.OpenAIModel, "styles", catalog.Keys(), "parallelism", cfg.Parallelism, "outboundRPS", cfg.OutboundRPS)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func buildWindowStore(ctx context.Context, cfg config.Config, rdb *redis.Client) domain.WindowStore {
	if cfg.RateBackend == config.BackendRedis {
		return infra.NewRedisWindowStore(rdb, infra.WithWindowPrefix(cfg.RateRedisPrefix))
	}
	store := infra.NewMemoryWindowStore(
		infra.WithIdleTTL(cfg.RateIdleTTL),
		infra.WithCleanupEvery(cfg.RateCleanupEvery),
	)
	store.StartJanitor(ctx)
	return store
}

// buildStats devolve o store usado pelo middleware e o leitor da rota de
// estatísticas (o mesmo objeto nos dois backends).
func buildStats(cfg config.Config, rdb *redis.Client) (domain.StatsStore, infra.StatsReader) {
	if !cfg.StatsEnabled {
		return nil, nil
	}
	if cfg.StatsBackend == config.BackendRedis {
		store := infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		)
		return store, store
	}
	mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.StatsTrackKeys))
	return mem, mem
}
