package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/fiscal"
	"github.com/liftplan/liftplan/internal/platform/httpx"
	"github.com/liftplan/liftplan/internal/quantity"
	"github.com/liftplan/liftplan/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetQuarterlyPlan(ctx context.Context, id int64) (QuarterlyPlan, error)
	GetMonthlyPlan(ctx context.Context, id int64) (MonthlyPlan, error)
	ListQuarterlyPlans(ctx context.Context, contractID int64) ([]QuarterlyPlan, error)
	ListMonthlyPlans(ctx context.Context, contractID int64) ([]MonthlyPlan, error)
	ListAdjustments(ctx context.Context, quarterlyPlanID int64) ([]QuarterAdjustment, error)
}

// AuditPort abstracts the append-only audit sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort receives domain counters. A nil port disables recording.
type MetricsPort interface {
	RecordMove(action string, crossQuarter bool)
	RecordVersionConflict()
}

// Service coordinates all ledger mutations. Every mutating operation runs
// inside one transaction, takes row locks before reading usage, and checks
// the client-supplied version against the current row.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	logger  *slog.Logger
	metrics MetricsPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// WithMetrics attaches a metrics sink and returns the service.
func (s *Service) WithMetrics(m MetricsPort) *Service {
	s.metrics = m
	return s
}

// withTx runs the mutation transaction and counts optimistic-lock rejections.
func (s *Service) withTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := s.repo.WithTx(ctx, fn)
	var stale *StaleVersionError
	if err != nil && errors.As(err, &stale) && s.metrics != nil {
		s.metrics.RecordVersionConflict()
	}
	return err
}

// GetQuarterlyPlan loads a quarterly plan.
func (s *Service) GetQuarterlyPlan(ctx context.Context, id int64) (QuarterlyPlan, error) {
	return s.repo.GetQuarterlyPlan(ctx, id)
}

// GetMonthlyPlan loads a monthly plan.
func (s *Service) GetMonthlyPlan(ctx context.Context, id int64) (MonthlyPlan, error) {
	return s.repo.GetMonthlyPlan(ctx, id)
}

// ListQuarterlyPlans lists a contract's quarterly plans.
func (s *Service) ListQuarterlyPlans(ctx context.Context, contractID int64) ([]QuarterlyPlan, error) {
	return s.repo.ListQuarterlyPlans(ctx, contractID)
}

// ListMonthlyPlans lists a contract's monthly plans.
func (s *Service) ListMonthlyPlans(ctx context.Context, contractID int64) ([]MonthlyPlan, error) {
	return s.repo.ListMonthlyPlans(ctx, contractID)
}

// ListAdjustments lists a quarterly plan's transfer records.
func (s *Service) ListAdjustments(ctx context.Context, quarterlyPlanID int64) ([]QuarterAdjustment, error) {
	return s.repo.ListAdjustments(ctx, quarterlyPlanID)
}

// PlanQuantity returns a monthly plan's current quantity. Consumed by the
// cargo service for its creation tolerance check.
func (s *Service) PlanQuantity(ctx context.Context, monthlyPlanID int64) (decimal.Decimal, error) {
	plan, err := s.repo.GetMonthlyPlan(ctx, monthlyPlanID)
	if err != nil {
		return decimal.Zero, err
	}
	return plan.Quantity, nil
}

// CreateQuarterlyPlan creates the quarter bucket allocation for one contract
// product and contract year.
func (s *Service) CreateQuarterlyPlan(ctx context.Context, input CreateQuarterlyPlanInput) (QuarterlyPlan, error) {
	var created QuarterlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := s.getContract(ctx, tx, input.ContractID)
		if err != nil {
			return err
		}
		if !contract.PlansQuarterly() {
			return fmt.Errorf("%w: %s contracts are planned monthly only", httpx.ErrValidation, contract.Category)
		}
		if err := requireProduct(contract, input.ProductName); err != nil {
			return err
		}
		env, err := s.envelopeWithTopup(ctx, tx, contract, input.ProductName)
		if err != nil {
			return err
		}
		plan := QuarterlyPlan{
			ContractID:   input.ContractID,
			ProductName:  input.ProductName,
			ContractYear: input.ContractYear,
			Q1:           input.Q1,
			Q2:           input.Q2,
			Q3:           input.Q3,
			Q4:           input.Q4,
			Version:      1,
		}
		if err := checkEnvelope(env, plan.Total(), "quarterly_plan"); err != nil {
			return err
		}
		id, err := tx.InsertQuarterlyPlan(ctx, plan)
		if err != nil {
			return err
		}
		plan.ID = id
		created = plan
		return nil
	})
	if err != nil {
		return QuarterlyPlan{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityQuarterlyPlan,
		EntityID:    created.ID,
		Action:      shared.AuditActionCreate,
		Field:       "buckets",
		NewValue:    bucketString(created),
		Description: fmt.Sprintf("Quarterly plan created for contract %d %s CY%d", created.ContractID, created.ProductName, created.ContractYear),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        map[string]any{"contract_id": created.ContractID, "product": created.ProductName, "total": created.Total()},
	})
	return created, nil
}

// UpdateQuarterlyPlan replaces the four buckets, holding the row lock while
// re-checking the envelope and the months already allocated under each quarter.
func (s *Service) UpdateQuarterlyPlan(ctx context.Context, id int64, input UpdateQuarterlyPlanInput) (QuarterlyPlan, error) {
	var before, after QuarterlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		plan, err := tx.GetQuarterlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != input.Version {
			return &StaleVersionError{Entity: "quarterly plan", ID: id, Given: input.Version, Current: plan.Version}
		}
		contract, err := s.getContract(ctx, tx, plan.ContractID)
		if err != nil {
			return err
		}
		env, err := s.envelopeWithTopup(ctx, tx, contract, plan.ProductName)
		if err != nil {
			return err
		}
		before = plan
		updated := plan
		updated.Q1, updated.Q2, updated.Q3, updated.Q4 = input.Q1, input.Q2, input.Q3, input.Q4
		if err := checkEnvelope(env, updated.Total(), "quarterly_plan"); err != nil {
			return err
		}
		months, err := tx.ListMonthlyPlansForQuarterPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		for q := 1; q <= 4; q++ {
			used := sumInQuarter(months, contract.FiscalStartMonth, q, plan.ContractYear, 0)
			if updated.Bucket(q).LessThan(used) {
				return &QuantityLimitError{
					Scope:     "quarter_bucket",
					Kind:      LimitBucketBelowAllocated,
					Ceiling:   updated.Bucket(q),
					Used:      used,
					Attempted: updated.Bucket(q),
				}
			}
		}
		updated.Version++
		if err := tx.UpdateQuarterlyPlan(ctx, updated); err != nil {
			return err
		}
		after = updated
		return nil
	})
	if err != nil {
		return QuarterlyPlan{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityQuarterlyPlan,
		EntityID:    id,
		Action:      shared.AuditActionUpdate,
		Field:       "buckets",
		OldValue:    bucketString(before),
		NewValue:    bucketString(after),
		Description: fmt.Sprintf("Quarterly plan %d buckets updated", id),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        map[string]any{"contract_id": after.ContractID, "product": after.ProductName},
	})
	return after, nil
}

// DeleteQuarterlyPlan removes a quarterly plan and its owned monthly plans.
// Any attached cargo blocks the delete.
func (s *Service) DeleteQuarterlyPlan(ctx context.Context, id int64, version int64) error {
	var removed []MonthlyPlan
	var plan QuarterlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		plan, err = tx.GetQuarterlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != version {
			return &StaleVersionError{Entity: "quarterly plan", ID: id, Given: version, Current: plan.Version}
		}
		months, err := tx.ListMonthlyPlansForQuarterPlan(ctx, id)
		if err != nil {
			return err
		}
		for _, m := range months {
			link, err := tx.CargoForPlan(ctx, m.ID)
			if err != nil {
				return err
			}
			if link.Completed {
				return &LockedByCompletedCargoError{MonthlyPlanID: m.ID, CargoID: link.CargoID, CargoCode: link.Code}
			}
			if link.Exists {
				return fmt.Errorf("%w: monthly plan %d has cargo %s attached", httpx.ErrValidation, m.ID, link.Code)
			}
		}
		for _, m := range months {
			if err := tx.DeleteMonthlyPlan(ctx, m.ID); err != nil {
				return err
			}
		}
		removed = months
		return tx.DeleteQuarterlyPlan(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, m := range removed {
		s.record(ctx, monthlyDeleteAudit(ctx, m, "Removed with owning quarterly plan"))
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityQuarterlyPlan,
		EntityID:    id,
		Action:      shared.AuditActionDelete,
		Field:       "buckets",
		OldValue:    bucketString(plan),
		Description: fmt.Sprintf("Quarterly plan %d deleted", id),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        map[string]any{"contract_id": plan.ContractID, "product": plan.ProductName},
	})
	return nil
}

// CreateMonthlyPlan allocates one month under a quarterly plan (TERM and
// SEMI_TERM) or directly under the contract (SPOT). The quarter remainder is
// derived from sibling plans inside the same locked transaction.
func (s *Service) CreateMonthlyPlan(ctx context.Context, input CreateMonthlyPlanInput) (MonthlyPlan, error) {
	var created MonthlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := s.getContract(ctx, tx, input.ContractID)
		if err != nil {
			return err
		}
		if err := requireProduct(contract, input.ProductName); err != nil {
			return err
		}
		plan := MonthlyPlan{
			ContractID:      input.ContractID,
			QuarterlyPlanID: input.QuarterlyPlanID,
			ProductName:     input.ProductName,
			Month:           input.Month,
			Year:            input.Year,
			Quantity:        input.Quantity,
			DeliveryMonth:   input.DeliveryMonth,
			DeliveryYear:    input.DeliveryYear,
			Version:         1,
		}
		if contract.PlansQuarterly() {
			if input.QuarterlyPlanID == nil {
				return fmt.Errorf("%w: %s contracts require a quarterly plan", httpx.ErrValidation, contract.Category)
			}
			qp, err := tx.GetQuarterlyPlanForUpdate(ctx, *input.QuarterlyPlanID)
			if err != nil {
				return err
			}
			if qp.ContractID != input.ContractID {
				return fmt.Errorf("%w: quarterly plan %d belongs to another contract", httpx.ErrValidation, qp.ID)
			}
			if err := checkQuarterRoom(tx, ctx, qp, contract, input.Month, input.Quantity, 0); err != nil {
				return err
			}
		} else {
			if input.QuarterlyPlanID != nil {
				return fmt.Errorf("%w: SPOT contracts have no quarterly level", httpx.ErrValidation)
			}
			if err := s.checkContractRoom(ctx, tx, contract, input.ProductName, input.Quantity, 0); err != nil {
				return err
			}
		}
		id, err := tx.InsertMonthlyPlan(ctx, plan)
		if err != nil {
			return err
		}
		plan.ID = id
		created = plan
		return nil
	})
	if err != nil {
		return MonthlyPlan{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityMonthlyPlan,
		EntityID:    created.ID,
		Action:      shared.AuditActionCreate,
		Field:       "month_quantity",
		OldValue:    "0",
		NewValue:    created.Quantity.String(),
		Description: fmt.Sprintf("Monthly plan created: %s %04d-%02d %s", created.ProductName, created.Year, created.Month, created.Quantity),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        monthlyMeta(created),
	})
	return created, nil
}

// UpdateMonthlyPlan changes quantity and, within the same fiscal quarter,
// the month coordinate. Cross-quarter coordinate changes must use Move.
func (s *Service) UpdateMonthlyPlan(ctx context.Context, id int64, input UpdateMonthlyPlanInput) (MonthlyPlan, error) {
	var before, after MonthlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		plan, err := tx.GetMonthlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != input.Version {
			return &StaleVersionError{Entity: "monthly plan", ID: id, Given: input.Version, Current: plan.Version}
		}
		contract, err := s.getContract(ctx, tx, plan.ContractID)
		if err != nil {
			return err
		}
		before = plan
		updated := plan
		if input.Quantity != nil {
			updated.Quantity = *input.Quantity
		}
		if input.Month != nil {
			updated.Month = *input.Month
		}
		if input.Year != nil {
			updated.Year = *input.Year
		}
		if input.DeliveryMonth != nil {
			updated.DeliveryMonth = input.DeliveryMonth
		}
		if input.DeliveryYear != nil {
			updated.DeliveryYear = input.DeliveryYear
		}

		coordinateChanged := updated.Month != plan.Month || updated.Year != plan.Year
		if coordinateChanged {
			link, err := tx.CargoForPlan(ctx, id)
			if err != nil {
				return err
			}
			if link.Completed {
				return &LockedByCompletedCargoError{MonthlyPlanID: id, CargoID: link.CargoID, CargoCode: link.Code}
			}
			fs := contract.FiscalStartMonth
			sameQuarter := fiscal.Quarter(updated.Month, fs) == fiscal.Quarter(plan.Month, fs) &&
				fiscal.ContractYear(updated.Month, updated.Year, fs) == fiscal.ContractYear(plan.Month, plan.Year, fs)
			if !sameQuarter {
				return fmt.Errorf("%w: cross-quarter coordinate changes must go through a defer/advance move", httpx.ErrValidation)
			}
		}

		if plan.QuarterlyPlanID != nil {
			qp, err := tx.GetQuarterlyPlanForUpdate(ctx, *plan.QuarterlyPlanID)
			if err != nil {
				return err
			}
			if err := checkQuarterRoom(tx, ctx, qp, contract, updated.Month, updated.Quantity, plan.ID); err != nil {
				return err
			}
		} else {
			if err := s.checkContractRoom(ctx, tx, contract, plan.ProductName, updated.Quantity, plan.ID); err != nil {
				return err
			}
		}

		updated.Version++
		if err := tx.UpdateMonthlyPlan(ctx, updated); err != nil {
			return err
		}
		after = updated
		return nil
	})
	if err != nil {
		return MonthlyPlan{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityMonthlyPlan,
		EntityID:    id,
		Action:      shared.AuditActionUpdate,
		Field:       "month_quantity",
		OldValue:    before.Quantity.String(),
		NewValue:    after.Quantity.String(),
		Description: fmt.Sprintf("Monthly plan %d updated: %s -> %s", id, before.Quantity, after.Quantity),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        monthlyMeta(after),
	})
	return after, nil
}

// DeleteMonthlyPlan removes a monthly plan. An attached cargo blocks the
// delete; a completed one blocks it unconditionally.
func (s *Service) DeleteMonthlyPlan(ctx context.Context, id int64, version int64) error {
	var plan MonthlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		plan, err = tx.GetMonthlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != version {
			return &StaleVersionError{Entity: "monthly plan", ID: id, Given: version, Current: plan.Version}
		}
		link, err := tx.CargoForPlan(ctx, id)
		if err != nil {
			return err
		}
		if link.Completed {
			return &LockedByCompletedCargoError{MonthlyPlanID: id, CargoID: link.CargoID, CargoCode: link.Code}
		}
		if link.Exists {
			return fmt.Errorf("%w: monthly plan %d has cargo %s attached", httpx.ErrValidation, id, link.Code)
		}
		return tx.DeleteMonthlyPlan(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, monthlyDeleteAudit(ctx, plan, fmt.Sprintf("Monthly plan %d deleted", id)))
	return nil
}

// AddAuthorityTopUp raises a plan's authority top-up quantity. Top-ups only
// accumulate; they lift the contract ceiling without touching allocations.
func (s *Service) AddAuthorityTopUp(ctx context.Context, id int64, input TopUpInput) (MonthlyPlan, error) {
	if !input.Quantity.IsPositive() {
		return MonthlyPlan{}, fmt.Errorf("%w: top-up quantity must be positive", httpx.ErrValidation)
	}
	if input.AuthorityRef == "" {
		return MonthlyPlan{}, fmt.Errorf("%w: top-up requires an authority reference", httpx.ErrValidation)
	}
	var before, after MonthlyPlan
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		plan, err := tx.GetMonthlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != input.Version {
			return &StaleVersionError{Entity: "monthly plan", ID: id, Given: input.Version, Current: plan.Version}
		}
		before = plan
		updated := plan
		updated.AuthorityTopup = plan.AuthorityTopup.Add(input.Quantity)
		updated.Version++
		if err := tx.UpdateMonthlyPlan(ctx, updated); err != nil {
			return err
		}
		after = updated
		return nil
	})
	if err != nil {
		return MonthlyPlan{}, err
	}
	meta := monthlyMeta(after)
	meta["authority_ref"] = input.AuthorityRef
	meta["reason"] = input.Reason
	if input.Date != nil {
		meta["authority_date"] = input.Date
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityMonthlyPlan,
		EntityID:    id,
		Action:      shared.AuditActionTopUp,
		Field:       "authority_topup_quantity",
		OldValue:    before.AuthorityTopup.String(),
		NewValue:    after.AuthorityTopup.String(),
		Description: fmt.Sprintf("Authority top-up %s on monthly plan %d (%s)", input.Quantity, id, input.AuthorityRef),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        meta,
	})
	return after, nil
}

func (s *Service) getContract(ctx context.Context, tx TxRepository, id int64) (contracts.Contract, error) {
	contract, err := tx.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, contracts.ErrContractNotFound) {
			return contracts.Contract{}, fmt.Errorf("%w: contract %d", httpx.ErrNotFound, id)
		}
		return contracts.Contract{}, err
	}
	return contract, nil
}

// envelopeWithTopup resolves the declared envelope and raises its ceiling by
// the authority top-ups accumulated across the contract's monthly plans.
func (s *Service) envelopeWithTopup(ctx context.Context, tx TxRepository, contract contracts.Contract, productName string) (quantity.Envelope, error) {
	env := quantity.Resolve(contract.Products, productName)
	plans, err := tx.ListMonthlyPlansForContract(ctx, contract.ID, productName)
	if err != nil {
		return quantity.Envelope{}, err
	}
	topup := decimal.Zero
	for _, p := range plans {
		topup = topup.Add(p.AuthorityTopup)
	}
	return env.WithTopup(topup), nil
}

func (s *Service) checkContractRoom(ctx context.Context, tx TxRepository, contract contracts.Contract, productName string, qty decimal.Decimal, excludeID int64) error {
	env, err := s.envelopeWithTopup(ctx, tx, contract, productName)
	if err != nil {
		return err
	}
	plans, err := tx.ListMonthlyPlansForContract(ctx, contract.ID, productName)
	if err != nil {
		return err
	}
	used := decimal.Zero
	for _, p := range plans {
		if p.ID == excludeID {
			continue
		}
		used = used.Add(p.Quantity)
	}
	if !env.FitsCeiling(used.Add(qty)) {
		return &QuantityLimitError{
			Scope:     "monthly_plan",
			Kind:      LimitOverCeiling,
			Ceiling:   env.MaxWithTopup,
			Floor:     env.Min,
			Used:      used,
			Attempted: qty,
		}
	}
	return nil
}

// checkQuarterRoom verifies the written quantity against the quarter bucket,
// summing sibling plans in the same fiscal quarter and excluding the row
// being written. Callers hold the quarterly plan row lock.
func checkQuarterRoom(tx TxRepository, ctx context.Context, qp QuarterlyPlan, contract contracts.Contract, month int, qty decimal.Decimal, excludeID int64) error {
	q := fiscal.Quarter(month, contract.FiscalStartMonth)
	siblings, err := tx.ListMonthlyPlansForQuarterPlan(ctx, qp.ID)
	if err != nil {
		return err
	}
	used := sumInQuarter(siblings, contract.FiscalStartMonth, q, qp.ContractYear, excludeID)
	bucket := qp.Bucket(q)
	if used.Add(qty).GreaterThan(bucket) {
		return &QuantityLimitError{
			Scope:     "monthly_plan",
			Kind:      LimitExceedsQuarterBucket,
			Ceiling:   bucket,
			Used:      used,
			Attempted: qty,
		}
	}
	return nil
}

func sumInQuarter(plans []MonthlyPlan, fiscalStart, quarter, contractYear int, excludeID int64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range plans {
		if p.ID == excludeID {
			continue
		}
		if fiscal.Quarter(p.Month, fiscalStart) != quarter {
			continue
		}
		if fiscal.ContractYear(p.Month, p.Year, fiscalStart) != contractYear {
			continue
		}
		total = total.Add(p.Quantity)
	}
	return total
}

func checkEnvelope(env quantity.Envelope, total decimal.Decimal, scope string) error {
	if !env.FitsCeiling(total) {
		return &QuantityLimitError{Scope: scope, Kind: LimitOverCeiling, Ceiling: env.MaxWithTopup, Floor: env.Min, Attempted: total}
	}
	if !env.MeetsFloor(total) {
		return &QuantityLimitError{Scope: scope, Kind: LimitUnderFloor, Ceiling: env.MaxWithTopup, Floor: env.Min, Attempted: total}
	}
	return nil
}

func requireProduct(contract contracts.Contract, productName string) error {
	if productName == "" {
		return nil
	}
	for _, p := range contract.Products {
		if p.Name == productName {
			return nil
		}
	}
	return fmt.Errorf("%w: contract %d has no product %q", httpx.ErrNotFound, contract.ID, productName)
}

func bucketString(p QuarterlyPlan) string {
	return fmt.Sprintf("q1=%s q2=%s q3=%s q4=%s", p.Q1, p.Q2, p.Q3, p.Q4)
}

func monthlyMeta(p MonthlyPlan) map[string]any {
	meta := map[string]any{
		"contract_id": p.ContractID,
		"product":     p.ProductName,
		"month":       p.Month,
		"year":        p.Year,
		"quantity":    p.Quantity,
	}
	if p.DeliveryMonth != nil && p.DeliveryYear != nil {
		meta["delivery_month"] = *p.DeliveryMonth
		meta["delivery_year"] = *p.DeliveryYear
	}
	return meta
}

func monthlyDeleteAudit(ctx context.Context, p MonthlyPlan, description string) shared.AuditLog {
	return shared.AuditLog{
		Entity:      shared.EntityMonthlyPlan,
		EntityID:    p.ID,
		Action:      shared.AuditActionDelete,
		Field:       "month_quantity",
		OldValue:    p.Quantity.String(),
		NewValue:    "0",
		Description: description,
		Actor:       shared.ActorFromContext(ctx),
		Meta:        monthlyMeta(p),
	}
}

// record writes an audit entry, logging and swallowing failures: audit must
// never roll back or fail the primary mutation.
func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Error("audit write failed",
			slog.String("entity", log.Entity),
			slog.Int64("entity_id", log.EntityID),
			slog.String("action", log.Action),
			slog.Any("error", err))
	}
}
