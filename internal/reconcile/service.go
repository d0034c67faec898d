package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/liftplan/liftplan/internal/fiscal"
)

// cacheTTL keeps a built report warm until the cron refreshes it. Reports
// are keyed by cutoff, so a stale entry can only serve the same week.
const cacheTTL = 6 * time.Hour

// RepositoryPort is the data slice the engine needs.
type RepositoryPort interface {
	ListCurrent(ctx context.Context, year int) ([]CurrentRow, error)
	ListChangesSince(ctx context.Context, cutoff time.Time) ([]ChangeRow, error)
}

// MetricsPort observes report build latency. A nil port disables recording.
type MetricsPort interface {
	ObserveReportBuild(d time.Duration)
}

// Service builds and caches the weekly comparison report.
type Service struct {
	repo    RepositoryPort
	cache   *redis.Client
	logger  *slog.Logger
	metrics MetricsPort
	builds  singleflight.Group
	now     func() time.Time
}

// NewService builds Service. A nil cache disables report caching.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// WithMetrics attaches a metrics sink and returns the service.
func (s *Service) WithMetrics(m MetricsPort) *Service {
	s.metrics = m
	return s
}

func cacheKey(year int, cutoff time.Time) string {
	return fmt.Sprintf("reconcile:weekly:%d:%s", year, cutoff.Format("2006-01-02"))
}

// WeeklyComparison returns the plan-versus-last-week report for a delivery
// year. The comparison baseline is frozen at the most recent Friday 00:00
// UTC; concurrent callers share one build.
func (s *Service) WeeklyComparison(ctx context.Context, year int) (Report, error) {
	now := s.now().UTC()
	cutoff := fiscal.WeekEnd(now)
	key := cacheKey(year, cutoff)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := s.builds.Do(key, func() (any, error) {
		if cached, ok := s.fromCache(ctx, key); ok {
			return cached, nil
		}
		report, err := s.build(ctx, year, cutoff, now)
		if err != nil {
			return Report{}, err
		}
		s.toCache(ctx, key, report)
		return report, nil
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

// Refresh rebuilds the current week's report and overwrites the cache entry.
// The weekly cron calls this right after the cutoff rolls over.
func (s *Service) Refresh(ctx context.Context, year int) (Report, error) {
	now := s.now().UTC()
	cutoff := fiscal.WeekEnd(now)
	report, err := s.build(ctx, year, cutoff, now)
	if err != nil {
		return Report{}, err
	}
	s.toCache(ctx, cacheKey(year, cutoff), report)
	return report, nil
}

func (s *Service) build(ctx context.Context, year int, cutoff, now time.Time) (Report, error) {
	started := time.Now()
	current, err := s.repo.ListCurrent(ctx, year)
	if err != nil {
		return Report{}, fmt.Errorf("list current allocations: %w", err)
	}
	changes, err := s.repo.ListChangesSince(ctx, cutoff)
	if err != nil {
		return Report{}, fmt.Errorf("list changes since cutoff: %w", err)
	}
	report := BuildReport(year, cutoff, now, current, changes)
	if s.metrics != nil {
		s.metrics.ObserveReportBuild(time.Since(started))
	}
	return report, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Report, bool) {
	if s.cache == nil {
		return Report{}, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return Report{}, false
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return Report{}, false
	}
	return report, true
}

func (s *Service) toCache(ctx context.Context, key string, report Report) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("report cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
