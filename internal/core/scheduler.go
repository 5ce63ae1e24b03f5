package core

// scheduler.go runs background maintenance for the service:
//  1. Expire sessions that have been idle longer than the session idle timeout
//  2. Purge audit entries past their retention, when the recorder supports it
//
// The scheduler is long-running and stops when its context is cancelled.
// Failures are logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/bomview/internal/audit"
)

// SweepConfig holds configuration for the maintenance scheduler.
type SweepConfig struct {
	Interval       time.Duration // How often to run (default: 1m)
	AuditRetention time.Duration // Purge audit entries older than this; 0 disables
}

// StartScheduler runs maintenance every cfg.Interval until ctx is cancelled.
func (s *Service) StartScheduler(ctx context.Context, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	slog.Info("maintenance scheduler started",
		"interval", cfg.Interval.String(),
		"audit_retention", cfg.AuditRetention.String(),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.runMaintenance(ctx, cfg)
		}
	}
}

// runMaintenance performs one sweep + purge cycle.
func (s *Service) runMaintenance(ctx context.Context, cfg SweepConfig) {
	start := time.Now()

	if removed := s.sessions.Sweep(start); removed > 0 {
		slog.Info("expired idle sessions",
			"removed", removed,
			"remaining", s.sessions.Len(),
		)
	}

	if cfg.AuditRetention > 0 {
		if p, ok := s.recorder.(audit.Purger); ok {
			purged, err := p.PurgeOlderThan(ctx, cfg.AuditRetention)
			if err != nil {
				slog.Error("audit purge failed", "error", err)
			} else if purged > 0 {
				slog.Info("purged audit entries", "entries_purged", purged)
			}
		}
	}

	slog.Debug("maintenance completed", "duration_ms", time.Since(start).Milliseconds())
}
