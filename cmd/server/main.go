package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/csvhub/csvhub/internal/auth"
	"github.com/csvhub/csvhub/internal/blob"
	"github.com/csvhub/csvhub/internal/config"
	"github.com/csvhub/csvhub/internal/document"
	"github.com/csvhub/csvhub/internal/insight"
	"github.com/csvhub/csvhub/internal/logging"
	"github.com/csvhub/csvhub/internal/organization"
	"github.com/csvhub/csvhub/internal/upload"
	"github.com/csvhub/csvhub/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Postgres.MaxConns,
		"blob_backend", cfg.Blob.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Postgres: users, organisations, uploaded file registry
	poolConfig, err := pgxpool.ParseConfig(cfg.Postgres.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Postgres.MaxConns)
	poolConfig.MinConns = int32(cfg.Postgres.MinConns)
	poolConfig.MaxConnLifetime = cfg.Postgres.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Postgres.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Postgres.URL); err == nil {
		slog.Info("connected to postgres", "name", strings.TrimPrefix(u.Path, "/"))
	}

	// MongoDB: ingested CSV records
	mongoCtx, cancelMongo := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancelMongo()

	client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(mongoCtx, nil); err != nil {
		slog.Error("failed to ping mongodb", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to mongodb", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)

	records := document.NewMongoStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)

	// Blob store for uploaded originals
	var blobs blob.Store
	switch strings.ToLower(cfg.Blob.Backend) {
	case "s3":
		blobs, err = blob.NewS3Store(ctx, blob.S3Config{
			Region:   cfg.Blob.S3Region,
			Bucket:   cfg.Blob.S3Bucket,
			Prefix:   cfg.Blob.S3Prefix,
			Endpoint: cfg.Blob.S3Endpoint,
		})
	default:
		blobs, err = blob.NewLocalStore(cfg.Blob.Dir)
	}
	if err != nil {
		slog.Error("failed to initialize blob store", "backend", cfg.Blob.Backend, "error", err)
		os.Exit(1)
	}

	// Session tokens and account service
	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		slog.Error("failed to create token issuer", "error", err)
		os.Exit(1)
	}
	authSvc := auth.NewService(auth.NewPostgresUserStore(pool), issuer)

	orgs := organization.NewPostgresStore(pool)
	files := upload.NewPostgresRegistry(pool)

	// AI summaries are optional; no key means no summarizer
	var summarizer web.Summarizer
	if cfg.Insight.Enabled && cfg.Insight.OpenAIKey != "" {
		summarizer = insight.New(cfg.Insight.OpenAIKey, cfg.Insight.Model)
		slog.Info("summarization enabled", "model", cfg.Insight.Model)
	} else {
		slog.Info("summarization disabled")
	}

	server := web.NewServer(cfg, authSvc, orgs, blobs, files, records, summarizer)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Shutdown drains in-flight ingestions before returning
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
