package planning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/fiscal"
	"github.com/liftplan/liftplan/internal/platform/httpx"
	"github.com/liftplan/liftplan/internal/shared"
)

// MoveResult reports what a defer/advance actually changed.
type MoveResult struct {
	Plan         MonthlyPlan
	MoveID       uuid.UUID
	CrossQuarter bool
	SnapshotID   uuid.UUID
	SourceMonth  int
	SourceYear   int
}

// Move shifts a monthly plan to a later month (DEFER) or an earlier one
// (ADVANCE). The scheduling anchor is the delivery month for CIF contracts
// and the loading month for FOB. Cross-quarter moves on quarterly-planned
// contracts rebalance the quarter buckets and record a paired transfer, and
// require an authority reference. A pre-move snapshot is always written
// inside the same transaction.
func (s *Service) Move(ctx context.Context, id int64, input MoveInput) (MoveResult, error) {
	if input.Action != MoveDefer && input.Action != MoveAdvance {
		return MoveResult{}, fmt.Errorf("%w: unknown move action %q", httpx.ErrValidation, input.Action)
	}
	if input.TargetMonth < 1 || input.TargetMonth > 12 {
		return MoveResult{}, fmt.Errorf("%w: target month %d out of range", httpx.ErrValidation, input.TargetMonth)
	}

	var result MoveResult
	var contract contracts.Contract
	var movedCargo cargo.Link
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		plan, err := tx.GetMonthlyPlanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if plan.Version != input.Version {
			return &StaleVersionError{Entity: "monthly plan", ID: id, Given: input.Version, Current: plan.Version}
		}
		contract, err = s.getContract(ctx, tx, plan.ContractID)
		if err != nil {
			return err
		}

		anchorMonth, anchorYear := plan.Month, plan.Year
		isCIF := contract.DeliveryTerm == contracts.DeliveryCIF
		if isCIF {
			if plan.DeliveryMonth == nil || plan.DeliveryYear == nil {
				return &DeliveryMonthRequiredError{MonthlyPlanID: id}
			}
			anchorMonth, anchorYear = *plan.DeliveryMonth, *plan.DeliveryYear
		}

		sourceOrd := fiscal.Ordinal(anchorMonth, anchorYear)
		targetOrd := fiscal.Ordinal(input.TargetMonth, input.TargetYear)
		switch input.Action {
		case MoveDefer:
			if targetOrd <= sourceOrd {
				return &InvalidMoveDirectionError{Action: input.Action, SourceMonth: anchorMonth, SourceYear: anchorYear, TargetMonth: input.TargetMonth, TargetYear: input.TargetYear}
			}
		case MoveAdvance:
			if targetOrd >= sourceOrd {
				return &InvalidMoveDirectionError{Action: input.Action, SourceMonth: anchorMonth, SourceYear: anchorYear, TargetMonth: input.TargetMonth, TargetYear: input.TargetYear}
			}
		}

		fs := contract.FiscalStartMonth
		sourceQ := fiscal.Quarter(anchorMonth, fs)
		targetQ := fiscal.Quarter(input.TargetMonth, fs)
		sourceCY := fiscal.ContractYear(anchorMonth, anchorYear, fs)
		targetCY := fiscal.ContractYear(input.TargetMonth, input.TargetYear, fs)
		crossQuarter := sourceQ != targetQ || sourceCY != targetCY
		if crossQuarter {
			if input.AuthorityRef == "" || input.Reason == "" {
				return &CrossQuarterAuthorityError{SourceQuarter: sourceQ, SourceYear: sourceCY, TargetQuarter: targetQ, TargetYear: targetCY}
			}
		}

		link, err := tx.CargoForPlan(ctx, id)
		if err != nil {
			return err
		}
		if link.Completed {
			return &LockedByCompletedCargoError{MonthlyPlanID: id, CargoID: link.CargoID, CargoCode: link.Code}
		}

		snapshotID, err := writeSnapshot(ctx, tx, plan, link, input)
		if err != nil {
			return err
		}

		if link.Exists {
			if err := tx.ClearCargoSchedule(ctx, link.CargoID); err != nil {
				return err
			}
			movedCargo = link
		}

		moveID := uuid.New()
		updated := plan
		if crossQuarter && plan.QuarterlyPlanID != nil {
			targetQPID, err := rebalanceQuarters(ctx, tx, plan, input, moveID, sourceQ, targetQ, sourceCY, targetCY)
			if err != nil {
				return err
			}
			// A move into another contract year lands the plan in that
			// year's quarterly plan.
			if targetQPID != *plan.QuarterlyPlanID {
				updated.QuarterlyPlanID = &targetQPID
			}
		}
		if updated.OriginalMonth == nil {
			src, srcYear := anchorMonth, anchorYear
			updated.OriginalMonth = &src
			updated.OriginalYear = &srcYear
		}
		if isCIF {
			tm, ty := input.TargetMonth, input.TargetYear
			updated.DeliveryMonth = &tm
			updated.DeliveryYear = &ty
			// Keep the loading lead time: shift the loading month by the
			// same number of months as the delivery month.
			offset := fiscal.Ordinal(*plan.DeliveryMonth, *plan.DeliveryYear) - fiscal.Ordinal(plan.Month, plan.Year)
			updated.Month, updated.Year = fromOrdinal(targetOrd - offset)
		} else {
			updated.Month = input.TargetMonth
			updated.Year = input.TargetYear
		}
		updated.Version++
		if err := tx.UpdateMonthlyPlan(ctx, updated); err != nil {
			return err
		}

		result = MoveResult{
			Plan:         updated,
			MoveID:       moveID,
			CrossQuarter: crossQuarter,
			SnapshotID:   snapshotID,
			SourceMonth:  anchorMonth,
			SourceYear:   anchorYear,
		}
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordMove(string(input.Action), result.CrossQuarter)
	}

	meta := monthlyMeta(result.Plan)
	meta["action"] = string(input.Action)
	meta["move_id"] = result.MoveID.String()
	meta["snapshot_id"] = result.SnapshotID.String()
	meta["cross_quarter"] = result.CrossQuarter
	meta["cargo_schedule_cleared"] = movedCargo.Exists
	if input.AuthorityRef != "" {
		meta["authority_ref"] = input.AuthorityRef
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityMonthlyPlan,
		EntityID:    id,
		Action:      shared.AuditActionMove,
		Field:       "schedule_month",
		OldValue:    fmt.Sprintf("%04d-%02d", result.SourceYear, result.SourceMonth),
		NewValue:    fmt.Sprintf("%04d-%02d", input.TargetYear, input.TargetMonth),
		Description: fmt.Sprintf("%s monthly plan %d from %04d-%02d to %04d-%02d", input.Action, id, result.SourceYear, result.SourceMonth, input.TargetYear, input.TargetMonth),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        meta,
	})
	if movedCargo.Exists {
		s.record(ctx, shared.AuditLog{
			Entity:      shared.EntityCargo,
			EntityID:    movedCargo.CargoID,
			Action:      shared.AuditActionMove,
			Field:       "schedule",
			Description: fmt.Sprintf("cargo %s schedule cleared by %s of monthly plan %d", movedCargo.Code, input.Action, id),
			Actor:       shared.ActorFromContext(ctx),
			Meta: map[string]any{
				"monthly_plan_id": id,
				"move_id":         result.MoveID.String(),
				"snapshot_id":     result.SnapshotID.String(),
			},
		})
	}
	return result, nil
}

// rebalanceQuarters moves the plan's quantity between quarter buckets and
// records the OUT/IN transfer pair. A move into another contract year takes
// the quantity out of the source year's plan and into the target year's,
// and fails when no quarterly plan exists for the target year. The source
// bucket never goes negative; a floor at zero keeps historical
// over-allocations from corrupting it. Returns the ID of the quarterly plan
// that owns the monthly plan after the move.
func rebalanceQuarters(ctx context.Context, tx TxRepository, plan MonthlyPlan, input MoveInput, moveID uuid.UUID, sourceQ, targetQ, sourceCY, targetCY int) (int64, error) {
	source, err := tx.GetQuarterlyPlanForUpdate(ctx, *plan.QuarterlyPlanID)
	if err != nil {
		return 0, err
	}
	target := &source
	if targetCY != source.ContractYear {
		qp, err := tx.FindQuarterlyPlanForUpdate(ctx, source.ContractID, source.ProductName, targetCY)
		if err != nil {
			if errors.Is(err, ErrQuarterlyPlanNotFound) {
				return 0, fmt.Errorf("%w: no quarterly plan for contract %d product %q in contract year %d", httpx.ErrValidation, source.ContractID, source.ProductName, targetCY)
			}
			return 0, err
		}
		target = &qp
	}
	qty := plan.Quantity

	out := source.Bucket(sourceQ).Sub(qty)
	if out.IsNegative() {
		out = decimal.Zero
	}
	source.SetBucket(sourceQ, out)
	target.SetBucket(targetQ, target.Bucket(targetQ).Add(qty))

	note := fmt.Sprintf("[%s] %s %s Q%d/CY%d -> Q%d/CY%d (%s)",
		time.Now().UTC().Format("2006-01-02"), input.Action, qty, sourceQ, sourceCY, targetQ, targetCY, input.AuthorityRef)
	touched := []*QuarterlyPlan{&source}
	if target != &source {
		touched = append(touched, target)
	}
	for _, qp := range touched {
		if qp.AdjustmentLog != "" {
			qp.AdjustmentLog += "\n"
		}
		qp.AdjustmentLog += note
		qp.Version++
		if err := tx.UpdateQuarterlyPlan(ctx, *qp); err != nil {
			return 0, err
		}
	}

	outType, inType := AdjustDeferOut, AdjustDeferIn
	if input.Action == MoveAdvance {
		outType, inType = AdjustAdvanceOut, AdjustAdvanceIn
	}
	actor := shared.ActorFromContext(ctx)
	pair := []QuarterAdjustment{
		{QuarterlyPlanID: source.ID, MoveID: moveID, Type: outType, Quarter: sourceQ, ContractYear: sourceCY, Quantity: qty.Neg(), AuthorityRef: input.AuthorityRef, Reason: input.Reason, Actor: actor},
		{QuarterlyPlanID: target.ID, MoveID: moveID, Type: inType, Quarter: targetQ, ContractYear: targetCY, Quantity: qty, AuthorityRef: input.AuthorityRef, Reason: input.Reason, Actor: actor},
	}
	for _, adj := range pair {
		if err := tx.InsertAdjustment(ctx, adj); err != nil {
			return 0, err
		}
	}
	return target.ID, nil
}

func writeSnapshot(ctx context.Context, tx TxRepository, plan MonthlyPlan, link cargo.Link, input MoveInput) (uuid.UUID, error) {
	planState, err := json.Marshal(plan)
	if err != nil {
		return uuid.Nil, err
	}
	snap := Snapshot{
		ID:            uuid.New(),
		MonthlyPlanID: plan.ID,
		PlanState:     planState,
		Summary:       fmt.Sprintf("pre-%s %04d-%02d -> %04d-%02d", input.Action, plan.Year, plan.Month, input.TargetYear, input.TargetMonth),
		Actor:         shared.ActorFromContext(ctx),
	}
	if link.Exists {
		full, err := tx.GetCargo(ctx, link.CargoID)
		if err != nil {
			return uuid.Nil, err
		}
		state, err := json.Marshal(full)
		if err != nil {
			return uuid.Nil, err
		}
		id := link.CargoID
		snap.CargoID = &id
		snap.CargoState = state
	}
	if err := tx.InsertSnapshot(ctx, snap); err != nil {
		return uuid.Nil, err
	}
	return snap.ID, nil
}

// fromOrdinal converts a month ordinal (year*12 + month) back to its
// calendar coordinate.
func fromOrdinal(ord int) (month, year int) {
	return (ord-1)%12 + 1, (ord - 1) / 12
}
