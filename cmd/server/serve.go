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

	"github.com/ashureev/storyscribe/internal/api"
	"github.com/ashureev/storyscribe/internal/config"
	"github.com/ashureev/storyscribe/internal/identity"
	"github.com/ashureev/storyscribe/internal/llm"
	"github.com/ashureev/storyscribe/internal/middleware"
	"github.com/ashureev/storyscribe/internal/moderation"
	"github.com/ashureev/storyscribe/internal/probe"
	"github.com/ashureev/storyscribe/internal/prompting"
	"github.com/ashureev/storyscribe/internal/store"
	"github.com/ashureev/storyscribe/internal/story"
	"github.com/ashureev/storyscribe/internal/stream"
	"github.com/ashureev/storyscribe/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// serveOptions override configuration loaded from the environment.
type serveOptions struct {
	port     string
	grpcPort string
	store    string
	dbPath   string
	seed     uint64
}

func bindServeFlags(fs *pflag.FlagSet, o *serveOptions) {
	fs.StringVar(&o.port, "port", "", "HTTP port (overrides PORT)")
	fs.StringVar(&o.grpcPort, "grpc-port", "", "gRPC health probe port (overrides GRPC_PORT)")
	fs.StringVar(&o.store, "store", "", "Store driver: sqlite or memory (overrides STORE_DRIVER)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	fs.Uint64Var(&o.seed, "seed", 0, "Seed prompt randomness for reproducible output (0 = unseeded)")
}

func (o serveOptions) apply(cfg *config.Config) error {
	if o.port != "" {
		cfg.Port = o.port
	}
	if o.grpcPort != "" {
		cfg.GRPCPort = o.grpcPort
	}
	if o.store != "" {
		cfg.StoreDriver = o.store
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg.Validate()
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	bindServeFlags(cmd.Flags(), &opts)
	return cmd
}

func openRepository(cfg *config.Config) (store.Repository, error) {
	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("Using in-memory store, data will not survive restarts")
		return store.NewMemory(), nil
	}
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return repo, nil
}

func newGenerator(cfg *config.Config, seed uint64, logger *slog.Logger) (*prompting.Generator, error) {
	opts := []prompting.Option{prompting.WithLogger(logger)}
	if seed != 0 {
		opts = append(opts, prompting.WithRand(prompting.NewSeededRand(seed)))
	}

	client, err := llm.NewAzureFromConfig(cfg.OpenAI, logger)
	switch {
	case errors.Is(err, llm.ErrNotConfigured) && cfg.OpenAI.StaticText != "":
		opts = append(opts, prompting.WithCompleter(llm.Static{Text: cfg.OpenAI.StaticText}, "static"))
		slog.Info("Completion model not configured, serving OPENAI_STATIC_TEXT as completions")
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Info("Completion model not configured, serving static prompts")
	case err != nil:
		return nil, fmt.Errorf("initialize completion client: %w", err)
	default:
		opts = append(opts, prompting.WithCompleter(client, client.Deployment()))
		slog.Info("Completion model enabled", "deployment", client.Deployment())
	}
	return prompting.NewGenerator(opts...), nil
}

func runServe(ctx context.Context, opts serveOptions) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := opts.apply(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreDriver, "container", config.IsContainer())

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected")

	gen, err := newGenerator(cfg, opts.seed, logger)
	if err != nil {
		return err
	}

	svc := story.NewService(repo, gen, prompting.PolicyFromConfig(cfg.Prompting), moderation.PassThrough{}, logger)
	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer limiter.Stop()
	sm := stream.NewSessionManager()

	apiHandler := api.NewHandler(svc, limiter, cfg)
	wsHandler := stream.NewHandler(svc, sm, limiter, cfg.AllowedOrigins, cfg.IsDevelopment())

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware())

	apiHandler.RegisterRoutes(r)
	r.With(identity.Require).Get("/ws/prompts", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket streams need no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	if cfg.GRPCPort != "" {
		probeSrv := probe.New(repo, 10*time.Second, cfg.Timeout.HealthCheck, logger)
		go func() {
			if err := probeSrv.ListenAndServe(ctx, ":"+cfg.GRPCPort); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
		return err
	}
	stop()

	slog.Info("Shutting down gracefully...", "active_streams", sm.Count())
	sm.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}
