package planning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/platform/httpx"
	"github.com/liftplan/liftplan/internal/shared"
)

func newTestService(t *testing.T) (*Service, *memRepo, *auditStub) {
	t.Helper()
	repo := newMemRepo()
	audit := &auditStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, audit, logger), repo, audit
}

// termContract is a 120 KT fixed-quantity TERM contract with a January
// fiscal year start.
func termContract() contracts.Contract {
	return contracts.Contract{
		Code:             "TRM-001",
		CustomerName:     "Eastport Refining",
		Category:         contracts.CategoryTerm,
		DeliveryTerm:     contracts.DeliveryFOB,
		FiscalStartMonth: 1,
		Products: []contracts.Product{
			{Name: "MURBAN", Mode: contracts.ModeFixed, TotalQuantity: dec("120")},
		},
	}
}

func spotContract() contracts.Contract {
	return contracts.Contract{
		Code:             "SPT-001",
		CustomerName:     "Harbor Trading",
		Category:         contracts.CategorySpot,
		DeliveryTerm:     contracts.DeliveryFOB,
		FiscalStartMonth: 1,
		Products: []contracts.Product{
			{Name: "DAS", Mode: contracts.ModeRange, MinQuantity: dec("10"), MaxQuantity: dec("60")},
		},
	}
}

func TestCreateQuarterlyPlanEnforcesEnvelope(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())

	_, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("50"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	var limitErr *QuantityLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitOverCeiling, limitErr.Kind)

	_, err = svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("30"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitUnderFloor, limitErr.Kind)

	plan, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), plan.Version)
	require.True(t, plan.Total().Equal(dec("120")))
}

func TestCreateQuarterlyPlanRejectsSpotContracts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	c := repo.addContract(spotContract())

	_, err := svc.CreateQuarterlyPlan(context.Background(), CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", ContractYear: 2026,
		Q1: dec("10"), Q2: dec("10"), Q3: dec("10"), Q4: dec("10"),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateMonthlyPlanRespectsQuarterBucket(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())
	qp, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.NoError(t, err)

	for month, qty := range map[int]string{1: "15", 2: "15", 3: "10"} {
		_, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
			ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
			Month: month, Year: 2026, Quantity: dec(qty),
		})
		require.NoError(t, err)
	}

	// Q1 is now fully allocated; one more tonne must be refused.
	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
		Month: 3, Year: 2026, Quantity: dec("1"),
	})
	var limitErr *QuantityLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitExceedsQuarterBucket, limitErr.Kind)
	require.True(t, limitErr.Ceiling.Equal(dec("40")))
	require.True(t, limitErr.Used.Equal(dec("40")))

	// April sits in Q2 whose bucket is 40.
	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
		Month: 4, Year: 2026, Quantity: dec("45"),
	})
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitExceedsQuarterBucket, limitErr.Kind)
	require.True(t, limitErr.Ceiling.Equal(dec("40")))
}

func TestUpdateQuarterlyPlanStaleVersion(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())
	id, err := repo.InsertQuarterlyPlan(ctx, QuarterlyPlan{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"), Version: 4,
	})
	require.NoError(t, err)

	_, err = svc.UpdateQuarterlyPlan(ctx, id, UpdateQuarterlyPlanInput{
		Version: 3,
		Q1:      dec("30"), Q2: dec("50"), Q3: dec("20"), Q4: dec("20"),
	})
	var stale *StaleVersionError
	require.ErrorAs(t, err, &stale)
	require.Equal(t, int64(3), stale.Given)
	require.Equal(t, int64(4), stale.Current)
	require.Contains(t, err.Error(), "your version 3, current version 4")

	// The row is untouched after the conflict.
	current, err := svc.GetQuarterlyPlan(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(4), current.Version)
	require.True(t, current.Q1.Equal(dec("40")))
}

func TestUpdateQuarterlyPlanBucketBelowAllocated(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())
	qp, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.NoError(t, err)
	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
		Month: 2, Year: 2026, Quantity: dec("35"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateQuarterlyPlan(ctx, qp.ID, UpdateQuarterlyPlanInput{
		Version: qp.Version,
		Q1:      dec("30"), Q2: dec("50"), Q3: dec("20"), Q4: dec("20"),
	})
	var limitErr *QuantityLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitBucketBelowAllocated, limitErr.Kind)
	require.True(t, limitErr.Used.Equal(dec("35")))
}

func TestUpdateMonthlyPlanMonthChangeStaysInQuarter(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())
	qp, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.NoError(t, err)
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
		Month: 1, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)

	feb := 2
	updated, err := svc.UpdateMonthlyPlan(ctx, mp.ID, UpdateMonthlyPlanInput{Version: mp.Version, Month: &feb})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Month)
	require.Equal(t, int64(2), updated.Version)

	apr := 4
	_, err = svc.UpdateMonthlyPlan(ctx, mp.ID, UpdateMonthlyPlanInput{Version: updated.Version, Month: &apr})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAddAuthorityTopUpLiftsCeiling(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(spotContract())
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 5, Year: 2026, Quantity: dec("60"),
	})
	require.NoError(t, err)

	// Ceiling reached: one more plan does not fit.
	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 6, Year: 2026, Quantity: dec("15"),
	})
	var limitErr *QuantityLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, LimitOverCeiling, limitErr.Kind)

	topped, err := svc.AddAuthorityTopUp(ctx, mp.ID, TopUpInput{
		Quantity: dec("15"), AuthorityRef: "AUTH-77", Reason: "buyer uplift", Version: mp.Version,
	})
	require.NoError(t, err)
	require.True(t, topped.AuthorityTopup.Equal(dec("15")))
	require.Equal(t, mp.Version+1, topped.Version)

	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 6, Year: 2026, Quantity: dec("15"),
	})
	require.NoError(t, err)
}

func TestAddAuthorityTopUpValidation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(spotContract())
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 5, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)

	_, err = svc.AddAuthorityTopUp(ctx, mp.ID, TopUpInput{Quantity: dec("-5"), AuthorityRef: "AUTH-1", Version: mp.Version})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.AddAuthorityTopUp(ctx, mp.ID, TopUpInput{Quantity: dec("5"), Version: mp.Version})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteMonthlyPlanCargoGuards(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(spotContract())
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 5, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)
	attached := repo.addCargo(cargo.Cargo{MonthlyPlanID: mp.ID, Quantity: dec("20"), Status: cargo.StatusPlanned})

	err = svc.DeleteMonthlyPlan(ctx, mp.ID, mp.Version)
	require.ErrorIs(t, err, httpx.ErrValidation)

	attached.Status = cargo.StatusCompleted
	repo.cargoes[attached.ID] = attached
	err = svc.DeleteMonthlyPlan(ctx, mp.ID, mp.Version)
	var locked *LockedByCompletedCargoError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, attached.Code, locked.CargoCode)
}

func TestDeleteQuarterlyPlanCascadesToMonths(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(termContract())
	qp, err := svc.CreateQuarterlyPlan(ctx, CreateQuarterlyPlanInput{
		ContractID: c.ID, ProductName: "MURBAN", ContractYear: 2026,
		Q1: dec("40"), Q2: dec("40"), Q3: dec("20"), Q4: dec("20"),
	})
	require.NoError(t, err)
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qp.ID, ProductName: "MURBAN",
		Month: 1, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuarterlyPlan(ctx, qp.ID, qp.Version))
	_, err = svc.GetQuarterlyPlan(ctx, qp.ID)
	require.ErrorIs(t, err, ErrQuarterlyPlanNotFound)
	_, err = svc.GetMonthlyPlan(ctx, mp.ID)
	require.ErrorIs(t, err, ErrMonthlyPlanNotFound)
}

func TestSpotContractRejectsQuarterlyLevel(t *testing.T) {
	svc, repo, _ := newTestService(t)
	c := repo.addContract(spotContract())
	qpID := int64(99)
	_, err := svc.CreateMonthlyPlan(context.Background(), CreateMonthlyPlanInput{
		ContractID: c.ID, QuarterlyPlanID: &qpID, ProductName: "DAS",
		Month: 5, Year: 2026, Quantity: dec("20"),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestVersionIncrementsOncePerMutation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(spotContract())
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 2, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), mp.Version)

	qty := dec("25")
	mp2, err := svc.UpdateMonthlyPlan(ctx, mp.ID, UpdateMonthlyPlanInput{Version: 1, Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, int64(2), mp2.Version)

	mp3, err := svc.AddAuthorityTopUp(ctx, mp.ID, TopUpInput{Quantity: dec("5"), AuthorityRef: "AUTH-9", Version: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), mp3.Version)

	res, err := svc.Move(ctx, mp.ID, MoveInput{Action: MoveDefer, TargetMonth: 3, TargetYear: 2026, Version: 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Plan.Version)
}

func TestUnknownContractAndProduct(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{ContractID: 404, ProductName: "DAS", Month: 1, Year: 2026, Quantity: dec("5")})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	c := repo.addContract(spotContract())
	_, err = svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{ContractID: c.ID, ProductName: "BRENT", Month: 1, Year: 2026, Quantity: dec("5")})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPlanQuantityServesCargoChecks(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	c := repo.addContract(spotContract())
	mp, err := svc.CreateMonthlyPlan(ctx, CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 5, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)

	qty, err := svc.PlanQuantity(ctx, mp.ID)
	require.NoError(t, err)
	require.True(t, qty.Equal(dec("20")))

	_, err = svc.PlanQuantity(ctx, 404)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMonthlyPlanNotFound))
}

func TestAuditTrailSurvivesSinkFailure(t *testing.T) {
	repo := newMemRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, failingAudit{}, logger)
	c := repo.addContract(spotContract())

	mp, err := svc.CreateMonthlyPlan(context.Background(), CreateMonthlyPlanInput{
		ContractID: c.ID, ProductName: "DAS", Month: 5, Year: 2026, Quantity: dec("20"),
	})
	require.NoError(t, err)
	require.NotZero(t, mp.ID)
}

type failingAudit struct{}

func (failingAudit) Record(context.Context, shared.AuditLog) error {
	return errors.New("sink down")
}
