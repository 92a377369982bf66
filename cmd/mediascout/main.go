package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/MediaScout/internal/adapter/filecache"
	"github.com/Strob0t/MediaScout/internal/adapter/googlebooks"
	"github.com/Strob0t/MediaScout/internal/adapter/httpapi"
	"github.com/Strob0t/MediaScout/internal/adapter/litellm"
	"github.com/Strob0t/MediaScout/internal/adapter/mcp"
	msnats "github.com/Strob0t/MediaScout/internal/adapter/nats"
	"github.com/Strob0t/MediaScout/internal/adapter/natskv"
	msotel "github.com/Strob0t/MediaScout/internal/adapter/otel"
	"github.com/Strob0t/MediaScout/internal/adapter/postgres"
	"github.com/Strob0t/MediaScout/internal/adapter/profilefile"
	"github.com/Strob0t/MediaScout/internal/adapter/ristretto"
	"github.com/Strob0t/MediaScout/internal/adapter/serp"
	"github.com/Strob0t/MediaScout/internal/adapter/tiered"
	"github.com/Strob0t/MediaScout/internal/adapter/tmdb"
	"github.com/Strob0t/MediaScout/internal/adapter/ws"
	"github.com/Strob0t/MediaScout/internal/config"
	"github.com/Strob0t/MediaScout/internal/logger"
	"github.com/Strob0t/MediaScout/internal/memo"
	"github.com/Strob0t/MediaScout/internal/middleware"
	"github.com/Strob0t/MediaScout/internal/port/broadcast"
	"github.com/Strob0t/MediaScout/internal/port/cache"
	"github.com/Strob0t/MediaScout/internal/port/profilestore"
	"github.com/Strob0t/MediaScout/internal/resilience"
	"github.com/Strob0t/MediaScout/internal/service"
	"github.com/Strob0t/MediaScout/internal/workpool"
)

const version = "0.1.0"

const (
	// ratingTTL keeps enrichment lookups fresh for a day; ratings move
	// slowly and the pipeline is the expensive part.
	ratingTTL = 24 * time.Hour

	// enrichWorkers bounds concurrent provider calls during the rating
	// enrichment pass.
	enrichWorkers = 5

	// llmBreakerFailures consecutive proxy failures open the circuit for
	// llmBreakerCooldown before a probe is let through.
	llmBreakerFailures = 5
	llmBreakerCooldown = 30 * time.Second
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(bootstrap)

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "admin":
			if err := runAdmin(args[1:]); err != nil {
				slog.Error("admin command failed", "error", err)
				os.Exit(1)
			}
			return
		case "mcp":
			if err := runMCPStdio(args[1:]); err != nil {
				slog.Error("mcp server failed", "error", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"cache_backend", cfg.Cache.Backend,
		"profile_backend", cfg.Profile.Backend,
	)

	// SIGHUP refreshes the config snapshot. Settings read at construction
	// (clients, caches) need a restart; the reload mainly picks up rotated
	// keys for components built afterwards and validates the file edit.
	holder := config.NewHolder(cfg, cfgPath)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			slog.Info("config reloaded", "path", cfgPath)
		}
	}()

	ctx := context.Background()

	// --- Telemetry ---
	var metrics *msotel.Metrics
	if cfg.Otel.Enabled {
		shutdown, err := msotel.InitMeter(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("otel shutdown", "error", err)
			}
		}()
		metrics, err = msotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
	}

	// --- Services ---
	hub := ws.NewHub()

	core, err := buildCore(ctx, cfg, hub, metrics)
	if err != nil {
		return err
	}
	defer core.close()

	profiles, closeProfiles, err := buildProfileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProfiles()

	// --- HTTP ---
	handlers := &httpapi.Handlers{
		Orchestrator: core.orch,
		Profiles:     profiles,
		Cache:        core.caches.maint,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(httpapi.SecurityHeaders)
	r.Use(httpapi.CORS(cfg.Server.CORSOrigin))
	r.Use(httpapi.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	if cfg.Otel.Enabled {
		r.Use(msotel.HTTPMiddleware(cfg.Logging.Service))
	}
	// No router-level timeout: a pipeline run legitimately takes minutes
	// and the orchestrator enforces its own deadline.
	if core.caches.nats != nil {
		kv, err := core.caches.nats.KeyValue(ctx, cfg.NATS.IdempotencyBucket)
		if err != nil {
			return fmt.Errorf("idempotency bucket: %w", err)
		}
		r.Use(middleware.Idempotency(kv))
	}

	r.Get("/health", healthHandler(holder))
	r.Get("/ws", hub.HandleWS)
	httpapi.MountRoutes(r, handlers)

	// --- MCP SSE transport (optional) ---
	if cfg.MCP.Addr != "" {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			APIKey:  cfg.MCP.APIKey,
			Name:    "mediascout",
			Version: version,
		}, mcp.ServerDeps{
			Recommender: core.orch,
			Tools:       core.tools,
			Cache:       core.caches.maint,
		})
		go func() {
			slog.Info("starting mcp server", "addr", cfg.MCP.Addr)
			if err := mcpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("mcp server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(sctx)
		}()
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Write timeout must outlast the slowest pipeline run.
		WriteTimeout: cfg.Pipeline.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// coreDeps bundles the recommendation stack shared by the HTTP API, the MCP
// transports, and the admin subcommands.
type coreDeps struct {
	orch   *service.OrchestratorService
	tools  *service.ToolService
	caches *cacheSet
	close  func()
}

// buildCore wires providers, caches, the LLM runner, and the pipeline
// services. hub and metrics may be nil (stdio transport, telemetry off).
func buildCore(ctx context.Context, cfg *config.Config, hub broadcast.Broadcaster, metrics *msotel.Metrics) (*coreDeps, error) {
	caches, err := buildCaches(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	movies := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)
	books := googlebooks.New(cfg.GoogleBooks.APIKey, cfg.GoogleBooks.BaseURL)
	search := serp.New(cfg.Serp.APIKey, cfg.Serp.BaseURL)

	runner := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.APIKey, cfg.LiteLLM.Model, cfg.LiteLLM.Temperature)
	runner.SetBreaker(resilience.NewBreaker(llmBreakerFailures, llmBreakerCooldown))

	tools := service.NewToolService(caches.api, movies, movies, books, search)
	tools.SetMetrics(metrics)

	crew := service.NewCrewService(runner, tools, cfg.LiteLLM.MaxIterations)
	ratings := memo.New(caches.rating, ratingTTL)
	post := service.NewPostProcessService(movies, books, movies, ratings, workpool.New(enrichWorkers))
	orch := service.NewOrchestratorService(crew, post, hub, metrics, cfg.Pipeline.Timeout)

	return &coreDeps{orch: orch, tools: tools, caches: caches, close: caches.close}, nil
}

// cacheSet is one configured cache backend: the general API cache, the
// long-TTL rating cache, and whatever maintenance surface the backend
// offers. nats is non-nil only for the NATS backend, where the connection
// is shared with the idempotency store.
type cacheSet struct {
	api    cache.Cache
	rating cache.Cache
	maint  cache.Maintainer
	nats   *msnats.Conn
	close  func()
}

func buildCaches(ctx context.Context, cfg *config.Config) (*cacheSet, error) {
	apiPath := filepath.Join(cfg.Cache.Dir, "api_cache.json")
	ratingPath := filepath.Join(cfg.Cache.Dir, "rating_cache.json")

	switch cfg.Cache.Backend {
	case "file":
		api, err := filecache.New(apiPath, cfg.Cache.Debounce)
		if err != nil {
			return nil, err
		}
		rating, err := filecache.New(ratingPath, cfg.Cache.Debounce)
		if err != nil {
			_ = api.Close()
			return nil, err
		}
		return &cacheSet{api: api, rating: rating, maint: api, close: func() {
			_ = api.Close()
			_ = rating.Close()
		}}, nil

	case "memory":
		// The rating cache holds one small record per title; a quarter of
		// the budget is plenty.
		budget := cfg.Cache.MemoryMaxMB << 20
		api, err := ristretto.New(budget * 3 / 4)
		if err != nil {
			return nil, err
		}
		rating, err := ristretto.New(budget / 4)
		if err != nil {
			api.Close()
			return nil, err
		}
		// Ristretto evicts on its own and keeps no per-entry inventory, so
		// there is no maintenance surface to expose.
		return &cacheSet{api: api, rating: rating, close: func() {
			api.Close()
			rating.Close()
		}}, nil

	case "nats":
		conn, err := msnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		kv, err := conn.KeyValue(ctx, cfg.NATS.CacheBucket)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		rkv, err := conn.KeyValue(ctx, cfg.NATS.CacheBucket+"-ratings")
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		api := natskv.New(kv)
		return &cacheSet{api: api, rating: natskv.New(rkv), maint: api, nats: conn, close: func() {
			_ = conn.Close()
		}}, nil

	case "tiered":
		l2, err := filecache.New(apiPath, cfg.Cache.Debounce)
		if err != nil {
			return nil, err
		}
		l1, err := ristretto.New(cfg.Cache.MemoryMaxMB << 20)
		if err != nil {
			_ = l2.Close()
			return nil, err
		}
		rating, err := filecache.New(ratingPath, cfg.Cache.Debounce)
		if err != nil {
			l1.Close()
			_ = l2.Close()
			return nil, err
		}
		api := tiered.New(l1, l2, cfg.Cache.L1TTL)
		return &cacheSet{api: api, rating: rating, maint: api, close: func() {
			l1.Close()
			_ = l2.Close()
			_ = rating.Close()
		}}, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func buildProfileStore(ctx context.Context, cfg *config.Config) (profilestore.Store, func(), error) {
	switch cfg.Profile.Backend {
	case "file":
		store, err := profilefile.New(cfg.Profile.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("profile store: %w", err)
		}
		return store, func() {}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres connected, migrations applied")
		return postgres.NewStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown profile backend %q", cfg.Profile.Backend)
	}
}

// healthHandler reports liveness plus the configured backends. It reads the
// holder so a SIGHUP reload shows up here.
func healthHandler(holder *config.Holder) http.HandlerFunc {
	type healthStatus struct {
		Status         string `json:"status"`
		Version        string `json:"version"`
		LiteLLM        string `json:"litellm"`
		CacheBackend   string `json:"cache_backend"`
		ProfileBackend string `json:"profile_backend"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		cfg := holder.Get()
		status := healthStatus{
			Status:         "ok",
			Version:        version,
			LiteLLM:        cfg.LiteLLM.URL,
			CacheBackend:   cfg.Cache.Backend,
			ProfileBackend: cfg.Profile.Backend,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
