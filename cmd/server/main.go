// Command server runs the AI Content Explorer API.
//
//	@title						AI Content Explorer API
//	@version					1.0
//	@description				Search, image generation and saved-item dashboard behind JWT authentication.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/api"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/api/handler"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/service"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/config"
	mongodb "github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/db/mongo"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/db/postgres"
	redisdb "github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/db/redis"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/provider/mcp"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/queue"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/infrastructure/security"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// httpServer is the part of *http.Server that Run needs.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string
}

// realServer adapts *http.Server to the httpServer interface.
type realServer struct{ *http.Server }

func (r realServer) Addr() string { return r.Server.Addr }

// serverBuilder builds the server and returns a cleanup function that runs
// after the server has stopped.
type serverBuilder func() (httpServer, func(), error)

// Run serves until a signal arrives or the server fails, then shuts down
// gracefully. It returns the process exit code.
func Run(build serverBuilder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	srv, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		lg.Error().Err(err).Msg("server stopped unexpectedly")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error().Err(err).Msg("server error during shutdown")
	}

	lg.Info().Msg("shutdown complete")
	return 0
}

// buildServer connects every backing store, wires the services and returns
// the HTTP server. Whatever was opened is released by the cleanup function,
// or immediately when a later step fails.
func buildServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (httpServer, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (httpServer, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// --- Credential store ---
	db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxOpenConns: cfg.Postgres.MaxOpenConns})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return fail(err)
	}
	log.Info().Msg("postgres connected")

	// --- History and saved items ---
	mongoClient, mdb, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	})
	if err := mongodb.EnsureIndexes(ctx, mdb); err != nil {
		return fail(err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	// --- Content cache ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = rdb.Close() })
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	// --- Auth ---
	codec, err := security.NewJWTCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTAlg)
	if err != nil {
		return fail(fmt.Errorf("token codec: %w", err))
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	users := postgres.NewUserRepository(db)

	if err := service.EnsureAdmin(ctx, users, hasher, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, log); err != nil {
		return fail(err)
	}

	authService := service.NewAuthService(users, hasher, codec, service.TokenTTLs{
		Access:  cfg.Auth.AccessTTL,
		Refresh: cfg.Auth.RefreshTTL,
	}, log.With().Str("component", "auth").Logger())

	// --- Content ---
	seq := mongodb.NewSequencer(mdb)
	history := mongodb.NewHistoryRepository(mdb, seq)
	items := mongodb.NewSavedItemRepository(mdb, seq)

	dispatcher := queue.NewHistoryDispatcher(cfg.HistoryWorkers, history, log.With().Str("component", "history").Logger())
	dispatcher.Start(context.Background())
	closers = append(closers, func() {
		dispatcher.Stop()
		dispatcher.Wait()
	})

	providerOpts := []mcp.Option{
		mcp.WithCredentials(cfg.Provider.APIKey, cfg.Provider.Profile),
		mcp.WithTimeout(cfg.Provider.Timeout),
		mcp.WithLogger(log.With().Str("component", "provider").Logger()),
	}
	searchProvider := mcp.NewClient(cfg.Provider.SearchURL, providerOpts...)
	imageProvider := mcp.NewClient(cfg.Provider.ImageURL, providerOpts...)

	contentService := service.NewContentService(
		searchProvider,
		imageProvider,
		history,
		dispatcher,
		items,
		redisdb.NewContentCache(rdb, cfg.Redis.CacheTTL),
		log.With().Str("component", "content").Logger(),
	)
	dashboardService := service.NewDashboardService(items, log.With().Str("component", "dashboard").Logger())

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Content:   contentService,
		Dashboard: dashboardService,
		Tokens:    codec,
		Checks: map[string]handler.CheckFunc{
			"postgres": db.PingContext,
			"mongodb": func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			},
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Provider.Timeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return realServer{srv}, cleanup, nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "ai-content-explorer",
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	code := Run(func() (httpServer, func(), error) {
		return buildServer(ctx, cfg, log)
	}, sigCh, log)
	os.Exit(code)
}
