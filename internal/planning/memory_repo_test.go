package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/shared"
)

// memRepo is an in-memory RepositoryPort and TxRepository used by the
// service tests. WithTx invokes the callback against the repo itself.
type memRepo struct {
	contractRows map[int64]contracts.Contract
	quarterly    map[int64]QuarterlyPlan
	monthly      map[int64]MonthlyPlan
	cargoes      map[int64]cargo.Cargo
	snapshots    []Snapshot
	adjustments  []QuarterAdjustment
	nextID       int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		contractRows: make(map[int64]contracts.Contract),
		quarterly:    make(map[int64]QuarterlyPlan),
		monthly:      make(map[int64]MonthlyPlan),
		cargoes:      make(map[int64]cargo.Cargo),
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) GetContract(_ context.Context, id int64) (contracts.Contract, error) {
	c, ok := m.contractRows[id]
	if !ok {
		return contracts.Contract{}, contracts.ErrContractNotFound
	}
	return c, nil
}

func (m *memRepo) InsertQuarterlyPlan(_ context.Context, p QuarterlyPlan) (int64, error) {
	p.ID = m.id()
	m.quarterly[p.ID] = p
	return p.ID, nil
}

func (m *memRepo) GetQuarterlyPlanForUpdate(_ context.Context, id int64) (QuarterlyPlan, error) {
	p, ok := m.quarterly[id]
	if !ok {
		return QuarterlyPlan{}, ErrQuarterlyPlanNotFound
	}
	return p, nil
}

func (m *memRepo) FindQuarterlyPlanForUpdate(_ context.Context, contractID int64, productName string, contractYear int) (QuarterlyPlan, error) {
	for _, p := range m.quarterly {
		if p.ContractID == contractID && p.ProductName == productName && p.ContractYear == contractYear {
			return p, nil
		}
	}
	return QuarterlyPlan{}, ErrQuarterlyPlanNotFound
}

func (m *memRepo) UpdateQuarterlyPlan(_ context.Context, p QuarterlyPlan) error {
	if _, ok := m.quarterly[p.ID]; !ok {
		return ErrQuarterlyPlanNotFound
	}
	m.quarterly[p.ID] = p
	return nil
}

func (m *memRepo) DeleteQuarterlyPlan(_ context.Context, id int64) error {
	delete(m.quarterly, id)
	return nil
}

func (m *memRepo) InsertMonthlyPlan(_ context.Context, p MonthlyPlan) (int64, error) {
	p.ID = m.id()
	m.monthly[p.ID] = p
	return p.ID, nil
}

func (m *memRepo) GetMonthlyPlanForUpdate(_ context.Context, id int64) (MonthlyPlan, error) {
	p, ok := m.monthly[id]
	if !ok {
		return MonthlyPlan{}, ErrMonthlyPlanNotFound
	}
	return p, nil
}

func (m *memRepo) UpdateMonthlyPlan(_ context.Context, p MonthlyPlan) error {
	if _, ok := m.monthly[p.ID]; !ok {
		return ErrMonthlyPlanNotFound
	}
	m.monthly[p.ID] = p
	return nil
}

func (m *memRepo) DeleteMonthlyPlan(_ context.Context, id int64) error {
	delete(m.monthly, id)
	return nil
}

func (m *memRepo) ListMonthlyPlansForQuarterPlan(_ context.Context, quarterlyPlanID int64) ([]MonthlyPlan, error) {
	var out []MonthlyPlan
	for _, p := range m.monthly {
		if p.QuarterlyPlanID != nil && *p.QuarterlyPlanID == quarterlyPlanID {
			out = append(out, p)
		}
	}
	sortPlans(out)
	return out, nil
}

func (m *memRepo) ListMonthlyPlansForContract(_ context.Context, contractID int64, productName string) ([]MonthlyPlan, error) {
	var out []MonthlyPlan
	for _, p := range m.monthly {
		if p.ContractID != contractID {
			continue
		}
		if productName != "" && p.ProductName != productName {
			continue
		}
		out = append(out, p)
	}
	sortPlans(out)
	return out, nil
}

func (m *memRepo) CargoForPlan(_ context.Context, planID int64) (cargo.Link, error) {
	for _, c := range m.cargoes {
		if c.MonthlyPlanID == planID {
			return cargo.Link{
				Exists:    true,
				CargoID:   c.ID,
				Code:      c.Code,
				Completed: c.Status == cargo.StatusCompleted,
			}, nil
		}
	}
	return cargo.Link{}, nil
}

func (m *memRepo) GetCargo(_ context.Context, id int64) (cargo.Cargo, error) {
	c, ok := m.cargoes[id]
	if !ok {
		return cargo.Cargo{}, cargo.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ClearCargoSchedule(_ context.Context, cargoID int64) error {
	c, ok := m.cargoes[cargoID]
	if !ok {
		return cargo.ErrNotFound
	}
	c.LaycanStart = nil
	c.LaycanEnd = nil
	c.Berth = ""
	m.cargoes[cargoID] = c
	return nil
}

func (m *memRepo) InsertSnapshot(_ context.Context, s Snapshot) error {
	m.snapshots = append(m.snapshots, s)
	return nil
}

func (m *memRepo) InsertAdjustment(_ context.Context, a QuarterAdjustment) error {
	a.ID = m.id()
	m.adjustments = append(m.adjustments, a)
	return nil
}

func (m *memRepo) GetQuarterlyPlan(ctx context.Context, id int64) (QuarterlyPlan, error) {
	return m.GetQuarterlyPlanForUpdate(ctx, id)
}

func (m *memRepo) GetMonthlyPlan(ctx context.Context, id int64) (MonthlyPlan, error) {
	return m.GetMonthlyPlanForUpdate(ctx, id)
}

func (m *memRepo) ListQuarterlyPlans(_ context.Context, contractID int64) ([]QuarterlyPlan, error) {
	var out []QuarterlyPlan
	for _, p := range m.quarterly {
		if p.ContractID == contractID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) ListMonthlyPlans(ctx context.Context, contractID int64) ([]MonthlyPlan, error) {
	return m.ListMonthlyPlansForContract(ctx, contractID, "")
}

func (m *memRepo) ListAdjustments(_ context.Context, quarterlyPlanID int64) ([]QuarterAdjustment, error) {
	var out []QuarterAdjustment
	for _, a := range m.adjustments {
		if a.QuarterlyPlanID == quarterlyPlanID {
			out = append(out, a)
		}
	}
	return out, nil
}

func sortPlans(plans []MonthlyPlan) {
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
}

type auditStub struct {
	logs []shared.AuditLog
}

func (a *auditStub) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (m *memRepo) addContract(c contracts.Contract) contracts.Contract {
	if c.ID == 0 {
		c.ID = m.id()
	}
	for i := range c.Products {
		c.Products[i].ContractID = c.ID
	}
	m.contractRows[c.ID] = c
	return c
}

func (m *memRepo) addCargo(c cargo.Cargo) cargo.Cargo {
	if c.ID == 0 {
		c.ID = m.id()
	}
	if c.Code == "" {
		c.Code = fmt.Sprintf("CG-%03d", c.ID)
	}
	m.cargoes[c.ID] = c
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
