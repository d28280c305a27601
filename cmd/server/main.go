package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/andyleap/finchconnect/internal/api"
	"github.com/andyleap/finchconnect/internal/finch"
	"github.com/andyleap/finchconnect/internal/storage"
	"github.com/andyleap/finchconnect/internal/ui"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	connectOptions := finch.DefaultConnectOptions()
	if cfg.Finch.ConnectConfig != "" {
		connectOptions, err = finch.LoadConnectOptions(cfg.Finch.ConnectConfig)
		if err != nil {
			slog.Error("Failed to load connect config", "path", cfg.Finch.ConnectConfig, "error", err)
			os.Exit(1)
		}
	}

	connections, err := newConnectionStorage(cfg)
	if err != nil {
		slog.Error("Failed to create connection storage", "mode", cfg.StorageMode, "error", err)
		os.Exit(1)
	}

	finchClient := finch.NewClient(finch.Config{
		APIURL:       cfg.Finch.APIURL,
		ClientID:     cfg.Finch.ClientID,
		ClientSecret: cfg.Finch.ClientSecret,
		RedirectURI:  cfg.RedirectURI(),
		Timeout:      cfg.Finch.Timeout,
	})

	metrics := api.NewMetrics()
	apiServer := api.NewServer(connections)
	callbackHandler := api.NewCallbackHandler(finchClient, connections, metrics)
	connectHandler := api.NewConnectHandler(connectOptions, cfg.Finch.ConnectURL, cfg.Finch.ClientID, cfg.RedirectURI())

	uiHandlers, err := ui.NewUIHandlers(connections, connectOptions)
	if err != nil {
		slog.Error("Failed to create UI handlers", "error", err)
		os.Exit(1)
	}

	handler := newRouter(callbackHandler, connectHandler, apiServer, uiHandlers, metrics)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Finch Connect service starting on http://localhost:%s\n", cfg.Port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /api/finch/connect   - Launch Finch Connect")
	fmt.Println("  GET  /api/finch/callback  - Finch Connect redirect target")
	fmt.Println("  GET  /connection          - Connection status page")
	fmt.Println("  GET  /api/connection      - Connection status (JSON)")
	fmt.Println("  GET  /health              - Health check")
	fmt.Println("  GET  /metrics             - Prometheus metrics")
	fmt.Println()
	fmt.Printf("Redirect URI to register with Finch: %s\n", cfg.RedirectURI())

	if err := server.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// newRouter wires every route behind the logging and metrics middleware
func newRouter(callback, connect http.Handler, apiServer *api.Server, uiHandlers *ui.UIHandlers, metrics *api.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Finch flow; method checks happen in the handlers so the error body stays JSON
	mux.Handle(finch.CallbackPath, callback)
	mux.Handle("/api/finch/connect", connect)

	mux.HandleFunc("GET /api/connection", apiServer.ConnectionHandler)
	mux.HandleFunc("GET /health", apiServer.HealthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET "+api.ConnectionPath, uiHandlers.ConnectionHandler)
	mux.HandleFunc("/", uiHandlers.LandingHandler)

	return api.LoggingMiddleware(metrics.Middleware(mux))
}

func newConnectionStorage(cfg *Config) (storage.ConnectionStorage, error) {
	switch cfg.StorageMode {
	case "memory":
		slog.Warn("Using in-memory connection storage (not persistent)")
		return storage.NewMemoryStorage(), nil
	case "filesystem":
		fsStorage, err := storage.NewFilesystemStorage(cfg.DataPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Using filesystem storage", "path", cfg.DataPath)
		return fsStorage, nil
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		slog.Info("Using Redis storage", "addr", cfg.Redis.Addr)
		return storage.NewRedisStorage(redisClient), nil
	case "s3":
		s3Storage, err := storage.NewS3Storage(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
		if err != nil {
			return nil, err
		}
		slog.Info("Using S3 storage", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		return s3Storage, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Postgres storage")
		return pgStorage, nil
	default:
		return nil, fmt.Errorf("invalid storage mode %q", cfg.StorageMode)
	}
}
