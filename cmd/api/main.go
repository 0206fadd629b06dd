package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	sloggin "github.com/samber/slog-gin"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	v1 "go-twitarr/cmd/api/router/v1"
	cacheadapter "go-twitarr/internal/infrastructure/cache/adapter"
	"go-twitarr/internal/infrastructure/config"
	"go-twitarr/internal/infrastructure/database"
	queueadapter "go-twitarr/internal/infrastructure/queue/adapter"
	"go-twitarr/internal/infrastructure/realtime"
	"go-twitarr/internal/infrastructure/telemetry"
	chattask "go-twitarr/internal/pkg/chat/application/task"
	chatusecase "go-twitarr/internal/pkg/chat/application/usecase"
	chatrepo "go-twitarr/internal/pkg/chat/persistence/repository/adapter"
	chatcontroller "go-twitarr/internal/pkg/chat/presentation/controller"
	chathttp "go-twitarr/internal/pkg/chat/presentation/http"
	"go-twitarr/internal/pkg/relation/application/blockstore"
	relationtask "go-twitarr/internal/pkg/relation/application/task"
	relationusecase "go-twitarr/internal/pkg/relation/application/usecase"
	"go-twitarr/internal/pkg/relation/application/usercache"
	repoadapter "go-twitarr/internal/repository/adapter"
)

var version = "dev"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	d := config.Defaults()
	app := cli.App{
		Name:  "twitarr-api",
		Usage: "threads, group chats and the relationship cache behind them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "http-addr", EnvVars: []string{"TWITARR_HTTP_ADDR"}, Value: d.HTTPAddr},
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"TWITARR_DATABASE_URL", "DB_URL"}, Required: true},
			&cli.StringFlag{Name: "redis-url", EnvVars: []string{"TWITARR_REDIS_URL", "REDIS_URL"}, Required: true},
			&cli.StringFlag{Name: "redis-key-prefix", EnvVars: []string{"TWITARR_REDIS_KEY_PREFIX"}, Value: d.RedisKeyPrefix},
			&cli.DurationFlag{Name: "shutdown-timeout", EnvVars: []string{"TWITARR_SHUTDOWN_TIMEOUT"}, Value: d.ShutdownTimeout},
			&cli.StringFlag{Name: "lease-name", EnvVars: []string{"TWITARR_LEASE_NAME"}, Value: d.LeaseName},
			&cli.DurationFlag{Name: "lease-ttl", EnvVars: []string{"TWITARR_LEASE_TTL"}, Value: d.LeaseTTL},
			&cli.Uint64Flag{Name: "lease-attempts", EnvVars: []string{"TWITARR_LEASE_ATTEMPTS"}, Value: d.LeaseAttempts},
			&cli.DurationFlag{Name: "lease-max-elapsed", EnvVars: []string{"TWITARR_LEASE_MAX_ELAPSED"}, Value: d.LeaseMaxElapsed},
			&cli.DurationFlag{Name: "lease-initial-wait", EnvVars: []string{"TWITARR_LEASE_INITIAL_WAIT"}, Value: d.LeaseInitialWait},
			&cli.IntFlag{Name: "page-limit", EnvVars: []string{"TWITARR_PAGE_LIMIT"}, Value: d.DefaultPageLimit},
			&cli.IntFlag{Name: "max-page-limit", EnvVars: []string{"TWITARR_MAX_PAGE_LIMIT"}, Value: d.MaxPageLimit},
			&cli.IntFlag{Name: "queue-concurrency", EnvVars: []string{"TWITARR_QUEUE_CONCURRENCY", "ASYNQ_CONCURRENCY"}, Value: d.QueueConcurrency},
			&cli.StringFlag{Name: "queue-weights", EnvVars: []string{"TWITARR_QUEUE_WEIGHTS", "ASYNQ_QUEUES"}, Value: d.QueueWeights},
			&cli.StringFlag{Name: "otlp-endpoint", EnvVars: []string{"TWITARR_OTLP_ENDPOINT"}},
			&cli.StringFlag{Name: "environment", EnvVars: []string{"TWITARR_ENVIRONMENT"}, Value: d.Environment},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"TWITARR_LOG_LEVEL", "LOG_LEVEL"}, Value: d.LogLevel},
			&cli.StringFlag{Name: "log-format", EnvVars: []string{"TWITARR_LOG_FORMAT", "LOG_FORMAT"}, Value: d.LogFormat},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configFrom(cmd *cli.Context) config.Config {
	return config.Config{
		HTTPAddr:         cmd.String("http-addr"),
		DatabaseURL:      cmd.String("database-url"),
		RedisURL:         cmd.String("redis-url"),
		RedisKeyPrefix:   cmd.String("redis-key-prefix"),
		ShutdownTimeout:  cmd.Duration("shutdown-timeout"),
		LeaseName:        cmd.String("lease-name"),
		LeaseTTL:         cmd.Duration("lease-ttl"),
		LeaseAttempts:    cmd.Uint64("lease-attempts"),
		LeaseMaxElapsed:  cmd.Duration("lease-max-elapsed"),
		LeaseInitialWait: cmd.Duration("lease-initial-wait"),
		DefaultPageLimit: cmd.Int("page-limit"),
		MaxPageLimit:     cmd.Int("max-page-limit"),
		QueueConcurrency: cmd.Int("queue-concurrency"),
		QueueWeights:     cmd.String("queue-weights"),
		OTLPEndpoint:     cmd.String("otlp-endpoint"),
		Environment:      cmd.String("environment"),
		LogLevel:         cmd.String("log-level"),
		LogFormat:        cmd.String("log-format"),
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cmd *cli.Context) error {
	cfg := configFrom(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    "twitarr-api",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics("go-twitarr")
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	// Connect to the database on startup
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := database.Connect(dbCtx, cfg.DatabaseURL)
	if err == nil {
		err = database.Migrate(dbCtx, pool)
	}
	cancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	store, err := cacheadapter.NewRedisStore(cfg.RedisURL, cfg.RedisKeyPrefix, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer store.Close()

	queueClient, err := queueadapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("queue client: %w", err)
	}
	defer queueClient.Close()
	worker, err := queueadapter.NewAsynqServer(queueadapter.ServerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.QueueConcurrency,
		Queues:      cfg.QueueWeights,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("queue server: %w", err)
	}

	users := repoadapter.NewPgUserRepository(pool)
	blocks := blockstore.New(store, blockstore.Config{
		LeaseName:   cfg.LeaseName,
		LeaseTTL:    cfg.LeaseTTL,
		Attempts:    cfg.LeaseAttempts,
		InitialWait: cfg.LeaseInitialWait,
		MaxElapsed:  cfg.LeaseMaxElapsed,
	}, logger, metrics)
	cache := usercache.New(users, blocks, logger, metrics)

	began := time.Now()
	if err := cache.Load(ctx); err != nil {
		return fmt.Errorf("load relationship cache: %w", err)
	}
	logger.Info("relationship cache loaded", "users", cache.Len(), "took", time.Since(began))

	relationships := relationusecase.Relationships{
		Users:  users,
		Blocks: blocks,
		Cache:  cache,
		Replay: relationtask.NewScheduler(queueClient),
		Logger: logger,
	}

	rt := realtime.NewRouter()
	defer rt.Close()
	threads := chatusecase.Threads{
		Repo:    chatrepo.NewPgChatRepository(pool),
		Viewers: cache,
		Logger:  logger,
	}
	send := chatusecase.NewSendMessageUseCase(threads, chatcontroller.NewRoomNotifier(rt, cache, logger))

	relationtask.RegisterReplayBlocksTask(worker, blocks, cache, logger)
	chattask.RegisterSendMessageTask(worker, send, logger)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(sloggin.New(logger), gin.Recovery())
	engine.GET("/", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := errors.Join(pool.Ping(hctx), store.Ping(hctx)); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "users": cache.Len()})
	})
	v1.RegisterRoutes(engine, v1.Dependencies{
		Relationships: relationships,
		Threads: chathttp.Dependencies{
			Threads:      threads,
			Cache:        cache,
			Send:         send,
			Sender:       chattask.NewSender(queueClient),
			Realtime:     rt,
			DefaultLimit: cfg.DefaultPageLimit,
			MaxLimit:     cfg.MaxPageLimit,
			Metrics:      metrics,
			Logger:       logger,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		rt.Close()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
