package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neexbeast/skycast/internal/api"
	"github.com/neexbeast/skycast/internal/favorites"
	"github.com/neexbeast/skycast/internal/lookup"
	"github.com/neexbeast/skycast/internal/storage"
	"github.com/neexbeast/skycast/internal/weather"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file loaded", "err", err)
	}

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// backend is a favorites persister that can also report its health.
type backend interface {
	favorites.Persister
	Ping(ctx context.Context) error
}

func run(log *slog.Logger) error {
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	baseURL := getEnv("OPENWEATHER_BASE_URL", weather.DefaultBaseURL)
	port := getEnv("PORT", "8080")
	token := os.Getenv("API_TOKEN")

	if apiKey == "" {
		log.Warn("OPENWEATHER_API_KEY is not set; every lookup will fail until it is configured")
	}
	if token == "" {
		log.Warn("API_TOKEN is not set; favorites mutations are unauthenticated")
	}

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return fmt.Errorf("parsing HTTP_TIMEOUT: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("FORECAST_TIMEZONE", "Local"))
	if err != nil {
		return fmt.Errorf("loading FORECAST_TIMEZONE: %w", err)
	}

	ctx := context.Background()

	persister, closeBackend, err := openBackend(ctx, getEnv("FAVORITES_BACKEND", "sqlite"), log)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := favorites.NewStore(persister)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("loading favorites: %w", err)
	}
	log.Info("favorites loaded", "count", len(store.List()))

	// Wire dependencies.
	client := weather.NewClientWithURL(baseURL, apiKey).WithHTTPClient(&http.Client{Timeout: timeout})
	svc := lookup.NewService(client, loc, log)
	handlers := api.NewHandlers(svc, store, log)
	router := api.NewRouter(handlers, token, persister, apiKey != "", log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// openBackend connects the favorites persister selected by FAVORITES_BACKEND.
func openBackend(ctx context.Context, kind string, log *slog.Logger) (backend, func(), error) {
	switch kind {
	case "sqlite":
		path := getEnv("SQLITE_PATH", "favorites.db")
		p, err := favorites.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}
		log.Info("favorites backend ready", "backend", kind, "path", path)
		return p, func() { _ = p.Close() }, nil

	case "redis":
		client, err := favorites.ConnectRedis(ctx, mustEnv("REDIS_URL"))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		log.Info("favorites backend ready", "backend", kind)
		return favorites.NewRedisPersister(client), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := storage.Connect(ctx, mustEnv("DATABASE_URL"))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		applied, err := storage.RunMigrations(ctx, pool, os.DirFS(getEnv("MIGRATIONS_DIR", "migrations")))
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied", "files", applied)
		log.Info("favorites backend ready", "backend", kind)
		return storage.NewRepository(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown FAVORITES_BACKEND %q (want sqlite, redis or postgres)", kind)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
