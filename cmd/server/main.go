package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/bomview/internal/audit"
	"github.com/JonMunkholm/bomview/internal/config"
	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/JonMunkholm/bomview/internal/logging"
	"github.com/JonMunkholm/bomview/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_idle_timeout", cfg.Session.IdleTimeout.String(),
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_db", cfg.Audit.Enabled(),
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	recorders := audit.Tee{}
	if cfg.Audit.Enabled() {
		pool, err := connectAuditDB(ctx, cfg.Audit)
		if err != nil {
			slog.Error("failed to connect to audit database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := audit.NewPgRecorder(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create audit schema", "error", err)
			os.Exit(1)
		}
		recorders = append(recorders, pg)
	}
	recorders = append(recorders,
		audit.NewMemoryRecorder(cfg.Audit.MemoryEntries),
		audit.SlogRecorder{},
	)

	service := core.NewService(core.Config{
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		UploadWaitTime:       cfg.Upload.MaxWaitTime,
		SessionIdleTimeout:   cfg.Session.IdleTimeout,
		MaxSessions:          cfg.Session.MaxSessions,
	}, recorders)

	if err := service.LoadSampleFile(cfg.Sample.Path); err != nil {
		slog.Warn("sample table unavailable", "path", cfg.Sample.Path, "error", err)
	} else {
		slog.Info("sample table loaded", "path", cfg.Sample.Path)
	}

	server := web.NewServer(service, cfg)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go service.StartScheduler(runCtx, core.SweepConfig{
		Interval:       cfg.Session.SweepInterval,
		AuditRetention: cfg.Audit.Retention,
	})

	// Run returns after shutdown has drained in-flight requests.
	if err := server.Run(runCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectAuditDB opens and verifies the pool backing the audit trail.
func connectAuditDB(ctx context.Context, cfg config.AuditConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to audit database")
	}
	return pool, nil
}
