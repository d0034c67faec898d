package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	current     []CurrentRow
	changes     []ChangeRow
	currentHits int
	changeHits  int
}

func (r *countingRepo) ListCurrent(context.Context, int) ([]CurrentRow, error) {
	r.currentHits++
	return r.current, nil
}

func (r *countingRepo) ListChangesSince(context.Context, time.Time) ([]ChangeRow, error) {
	r.changeHits++
	return r.changes, nil
}

func newCachedService(t *testing.T, repo *countingRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(repo, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time {
		// A Monday, so the cutoff is Friday March 13.
		return time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestWeeklyComparisonCachesByCutoff(t *testing.T) {
	repo := &countingRepo{current: []CurrentRow{currentRow(1, "15")}}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	first, err := svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), first.Cutoff)
	require.Equal(t, 1, repo.currentHits)

	second, err := svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, 1, repo.currentHits, "second call is served from cache")
	require.Equal(t, first.Rows, second.Rows)

	// A different year has its own cache entry.
	_, err = svc.WeeklyComparison(ctx, 2027)
	require.NoError(t, err)
	require.Equal(t, 2, repo.currentHits)
}

func TestRefreshOverwritesCachedReport(t *testing.T) {
	repo := &countingRepo{current: []CurrentRow{currentRow(1, "15")}}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	before, err := svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	require.True(t, before.Rows[0].Planned.Equal(dec("15")))

	repo.current = []CurrentRow{currentRow(1, "25")}
	_, err = svc.Refresh(ctx, 2026)
	require.NoError(t, err)

	after, err := svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	require.True(t, after.Rows[0].Planned.Equal(dec("25")))
	require.Equal(t, 2, repo.currentHits, "reads after refresh hit the cache")
}

func TestWeeklyComparisonWithoutCache(t *testing.T) {
	repo := &countingRepo{current: []CurrentRow{currentRow(1, "15")}}
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	_, err = svc.WeeklyComparison(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, 2, repo.currentHits)
}
