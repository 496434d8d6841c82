package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/handler"
	mw "github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/middleware"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/cache"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/config"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/store"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/tools"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.SlogLevel())
			slog.SetDefault(logger)
			logger.Info("config loaded",
				"transport", cfg.Server.Transport,
				"region", cfg.Genesys.Region,
				"cache", cfg.Cache.Backend,
				"audit", cfg.AuditEnabled(),
				"env", cfg.Server.Env,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			server := tools.NewServer(version, a.toolDeps(a.genesysClient()))

			if cfg.Server.Transport == config.TransportHTTP {
				return a.runHTTP(ctx, server)
			}
			return runMCP(ctx, server, &mcp.StdioTransport{})
		},
	}
}

// app owns the long-lived connections shared by the tools and the HTTP API.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	store *store.PostgresStore // nil when the audit log is disabled
	redis *cache.RedisCache    // nil without REDIS_URL
	cache cache.Cache
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.AuditEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.pool = pool
		logger.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL); err != nil {
			a.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
		a.store = store.NewPostgresStore(pool)
	}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		a.redis = rc
		if err := rc.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("redis connected")
	}

	if cfg.Cache.Backend == config.CacheRedis {
		a.cache = a.redis
	} else {
		a.cache = cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)
	}

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) genesysClient() *genesys.HTTPClient {
	return genesys.New(genesys.Config{
		Region:       a.cfg.Genesys.Region,
		ClientID:     a.cfg.Genesys.ClientID,
		ClientSecret: a.cfg.Genesys.ClientSecret,
		Timeout:      a.cfg.Genesys.Timeout,
		MaxRetries:   a.cfg.Genesys.MaxRetries,
		Logger:       a.logger,
	})
}

func (a *app) toolDeps(client genesys.Client) tools.Deps {
	deps := tools.Deps{
		Genesys:         client,
		Cache:           a.cache,
		CacheTTL:        a.cfg.Cache.TTL,
		Logger:          a.logger,
		PollInterval:    a.cfg.Poll.Interval,
		PollMaxAttempts: a.cfg.Poll.MaxAttempts,
	}
	if a.store != nil {
		deps.Recorder = a.store
	}
	return deps
}

// runMCP serves one session until the client disconnects or ctx is done.
func runMCP(ctx context.Context, server *mcp.Server, t mcp.Transport) error {
	err := server.Run(ctx, t)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		slog.Info("mcp session ended")
		return nil
	}
	return fmt.Errorf("mcp session: %w", err)
}

func (a *app) router(server *mcp.Server) http.Handler {
	deps := api.Dependencies{
		Auth:      mw.NewAuth(a.store),
		RateLimit: mw.NewRateLimit(a.redis, a.cfg.Server.RateLimitPerMinute),

		HealthHandler: handler.NewHealthHandler(version,
			handler.HealthCheck{Name: "database", Pinger: a.store},
			handler.HealthCheck{Name: "cache", Pinger: a.redis},
		),
		MCP: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil),

		ListJobRuns:      handler.NewListJobRunsHandler(a.store),
		GetJobRun:        handler.NewGetJobRunHandler(a.store),
		CreateKeyHandler: handler.NewCreateKeyHandler(a.store, time.Now),
		ListKeysHandler:  handler.NewListKeysHandler(a.store),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(a.store),
	}
	return api.NewRouter(deps)
}

func (a *app) runHTTP(ctx context.Context, server *mcp.Server) error {
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	// No WriteTimeout: tool calls wait on platform jobs and SSE streams stay open.
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(server),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.logger.Info("server stopped gracefully")
	return nil
}
