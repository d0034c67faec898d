package cargo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/liftplan/liftplan/internal/shared"
)

type memRepo struct {
	cargoes map[int64]Cargo
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{cargoes: make(map[int64]Cargo)}
}

func (m *memRepo) Get(_ context.Context, id int64) (Cargo, error) {
	c, ok := m.cargoes[id]
	if !ok {
		return Cargo{}, ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ForMonthlyPlan(_ context.Context, planID int64) (Link, error) {
	for _, c := range m.cargoes {
		if c.MonthlyPlanID == planID {
			return Link{Exists: true, CargoID: c.ID, Code: c.Code, Completed: c.Status == StatusCompleted}, nil
		}
	}
	return Link{}, nil
}

func (m *memRepo) Insert(_ context.Context, c Cargo) (int64, error) {
	for _, existing := range m.cargoes {
		if existing.MonthlyPlanID == c.MonthlyPlanID {
			return 0, ErrPlanAlreadyLinked
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.cargoes[c.ID] = c
	return c.ID, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	c, ok := m.cargoes[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.cargoes[id] = c
	return nil
}

type stubPlans struct {
	quantities map[int64]decimal.Decimal
}

func (s stubPlans) PlanQuantity(_ context.Context, id int64) (decimal.Decimal, error) {
	qty, ok := s.quantities[id]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return qty, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	plans := stubPlans{quantities: map[int64]decimal.Decimal{
		10: dec("50"),
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, plans, nil, logger), repo
}

func TestCreateEnforcesQuantityTolerance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// 50.2 against a 50 plan is inside the 0.5% band.
	created, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50.2")})
	require.NoError(t, err)
	require.Equal(t, StatusPlanned, created.Status)

	svc2, _ := newTestService()
	var mismatch *QuantityMismatchError
	_, err = svc2.Create(ctx, Cargo{Code: "CG-002", MonthlyPlanID: 10, Quantity: dec("51")})
	require.ErrorAs(t, err, &mismatch)
	require.True(t, mismatch.PlanQty.Equal(dec("50")))
}

func TestCreateRejectsSecondCargoOnPlan(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Cargo{Code: "CG-002", MonthlyPlanID: 10, Quantity: dec("50")})
	require.ErrorIs(t, err, ErrPlanAlreadyLinked)
}

func TestTransitionFollowsLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50")})
	require.NoError(t, err)

	for _, next := range []Status{StatusNominated, StatusLoading, StatusCompleted} {
		updated, err := svc.Transition(ctx, created.ID, next)
		require.NoError(t, err)
		require.Equal(t, next, updated.Status)
	}

	// Completed cargoes are frozen.
	_, err = svc.Transition(ctx, created.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrTerminalStatus)
}

func TestTransitionRejectsSkippedStages(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50")})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, created.ID, StatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(ctx, created.ID, StatusLoading)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestForMonthlyPlanReportsCompletion(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50")})
	require.NoError(t, err)

	link, err := svc.ForMonthlyPlan(ctx, 10)
	require.NoError(t, err)
	require.True(t, link.Exists)
	require.False(t, link.Completed)

	c := repo.cargoes[created.ID]
	c.Status = StatusCompleted
	repo.cargoes[created.ID] = c

	link, err = svc.ForMonthlyPlan(ctx, 10)
	require.NoError(t, err)
	require.True(t, link.Completed)

	none, err := svc.ForMonthlyPlan(ctx, 999)
	require.NoError(t, err)
	require.False(t, none.Exists)
}

func TestAuditFailureLogsAndKeepsMutation(t *testing.T) {
	repo := newMemRepo()
	plans := stubPlans{quantities: map[int64]decimal.Decimal{10: dec("50")}}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(repo, plans, failingAudit{}, logger)
	ctx := context.Background()

	created, err := svc.Create(ctx, Cargo{Code: "CG-001", MonthlyPlanID: 10, Quantity: dec("50")})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Contains(t, buf.String(), "audit write failed")

	buf.Reset()
	updated, err := svc.Transition(ctx, created.ID, StatusNominated)
	require.NoError(t, err)
	require.Equal(t, StatusNominated, updated.Status)
	require.Contains(t, buf.String(), "audit write failed")
}

type failingAudit struct{}

func (failingAudit) Record(context.Context, shared.AuditLog) error {
	return errors.New("sink down")
}

func TestWithinTolerance(t *testing.T) {
	require.True(t, WithinTolerance(dec("100"), dec("100")))
	require.True(t, WithinTolerance(dec("100.5"), dec("100")))
	require.True(t, WithinTolerance(dec("99.5"), dec("100")))
	require.False(t, WithinTolerance(dec("100.51"), dec("100")))
	require.False(t, WithinTolerance(dec("0"), dec("100")))
	require.True(t, WithinTolerance(dec("0"), dec("0")))
}
