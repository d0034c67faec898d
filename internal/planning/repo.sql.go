package planning

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/platform/httpx"
)

// Repository persists planning data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside one planning
// transaction. Row locks taken here hold until the transaction ends.
type TxRepository interface {
	GetContract(ctx context.Context, id int64) (contracts.Contract, error)

	InsertQuarterlyPlan(ctx context.Context, p QuarterlyPlan) (int64, error)
	GetQuarterlyPlanForUpdate(ctx context.Context, id int64) (QuarterlyPlan, error)
	FindQuarterlyPlanForUpdate(ctx context.Context, contractID int64, productName string, contractYear int) (QuarterlyPlan, error)
	UpdateQuarterlyPlan(ctx context.Context, p QuarterlyPlan) error
	DeleteQuarterlyPlan(ctx context.Context, id int64) error

	InsertMonthlyPlan(ctx context.Context, p MonthlyPlan) (int64, error)
	GetMonthlyPlanForUpdate(ctx context.Context, id int64) (MonthlyPlan, error)
	UpdateMonthlyPlan(ctx context.Context, p MonthlyPlan) error
	DeleteMonthlyPlan(ctx context.Context, id int64) error
	ListMonthlyPlansForQuarterPlan(ctx context.Context, quarterlyPlanID int64) ([]MonthlyPlan, error)
	ListMonthlyPlansForContract(ctx context.Context, contractID int64, productName string) ([]MonthlyPlan, error)

	CargoForPlan(ctx context.Context, planID int64) (cargo.Link, error)
	GetCargo(ctx context.Context, id int64) (cargo.Cargo, error)
	ClearCargoSchedule(ctx context.Context, cargoID int64) error

	InsertSnapshot(ctx context.Context, s Snapshot) error
	InsertAdjustment(ctx context.Context, a QuarterAdjustment) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("planning repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const quarterlyColumns = `id, contract_id, product_name, contract_year, q1, q2, q3, q4, adjustment_log, version, created_at, updated_at`
const monthlyColumns = `id, contract_id, quarterly_plan_id, product_name, month, year, month_quantity, authority_topup_quantity, delivery_month, delivery_year, original_month, original_year, version, created_at, updated_at`

// GetQuarterlyPlan loads a quarterly plan without locking.
func (r *Repository) GetQuarterlyPlan(ctx context.Context, id int64) (QuarterlyPlan, error) {
	return scanQuarterly(r.pool.QueryRow(ctx, `SELECT `+quarterlyColumns+` FROM quarterly_plans WHERE id=$1`, id))
}

// GetMonthlyPlan loads a monthly plan without locking.
func (r *Repository) GetMonthlyPlan(ctx context.Context, id int64) (MonthlyPlan, error) {
	return scanMonthly(r.pool.QueryRow(ctx, `SELECT `+monthlyColumns+` FROM monthly_plans WHERE id=$1`, id))
}

// ListQuarterlyPlans lists a contract's quarterly plans.
func (r *Repository) ListQuarterlyPlans(ctx context.Context, contractID int64) ([]QuarterlyPlan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quarterlyColumns+` FROM quarterly_plans WHERE contract_id=$1 ORDER BY product_name, contract_year`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuarterlyPlan
	for rows.Next() {
		p, err := scanQuarterly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListMonthlyPlans lists a contract's monthly plans ordered by coordinate.
func (r *Repository) ListMonthlyPlans(ctx context.Context, contractID int64) ([]MonthlyPlan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+monthlyColumns+` FROM monthly_plans WHERE contract_id=$1 ORDER BY year, month, product_name`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonthly(rows)
}

// ListAdjustments lists the immutable transfer records of a quarterly plan.
func (r *Repository) ListAdjustments(ctx context.Context, quarterlyPlanID int64) ([]QuarterAdjustment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quarterly_plan_id, move_id, entry_type, quarter, contract_year, quantity, authority_ref, reason, actor_id, actor_initials, created_at
FROM quarter_adjustments WHERE quarterly_plan_id=$1 ORDER BY created_at ASC, id ASC`, quarterlyPlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuarterAdjustment
	for rows.Next() {
		var a QuarterAdjustment
		if err := rows.Scan(&a.ID, &a.QuarterlyPlanID, &a.MoveID, &a.Type, &a.Quarter, &a.ContractYear, &a.Quantity, &a.AuthorityRef, &a.Reason, &a.Actor.ID, &a.Actor.Initials, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *txRepository) GetContract(ctx context.Context, id int64) (contracts.Contract, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, code, customer_name, category, delivery_term, fiscal_start_month, start_date, end_date, version FROM contracts WHERE id=$1`, id)
	var c contracts.Contract
	err := row.Scan(&c.ID, &c.Code, &c.CustomerName, &c.Category, &c.DeliveryTerm, &c.FiscalStartMonth, &c.StartDate, &c.EndDate, &c.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.Contract{}, contracts.ErrContractNotFound
		}
		return contracts.Contract{}, err
	}
	prows, err := r.tx.Query(ctx, `SELECT id, contract_id, name, mode, total_quantity, min_quantity, max_quantity, optional_quantity FROM contract_products WHERE contract_id=$1 ORDER BY name`, id)
	if err != nil {
		return contracts.Contract{}, err
	}
	defer prows.Close()
	for prows.Next() {
		var p contracts.Product
		if err := prows.Scan(&p.ID, &p.ContractID, &p.Name, &p.Mode, &p.TotalQuantity, &p.MinQuantity, &p.MaxQuantity, &p.OptionalQuantity); err != nil {
			return contracts.Contract{}, err
		}
		c.Products = append(c.Products, p)
	}
	return c, prows.Err()
}

func (r *txRepository) InsertQuarterlyPlan(ctx context.Context, p QuarterlyPlan) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO quarterly_plans (contract_id, product_name, contract_year, q1, q2, q3, q4, adjustment_log, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW()) RETURNING id`,
		p.ContractID, p.ProductName, p.ContractYear, p.Q1, p.Q2, p.Q3, p.Q4, p.AdjustmentLog, p.Version).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) GetQuarterlyPlanForUpdate(ctx context.Context, id int64) (QuarterlyPlan, error) {
	return scanQuarterly(r.tx.QueryRow(ctx, `SELECT `+quarterlyColumns+` FROM quarterly_plans WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) FindQuarterlyPlanForUpdate(ctx context.Context, contractID int64, productName string, contractYear int) (QuarterlyPlan, error) {
	return scanQuarterly(r.tx.QueryRow(ctx, `SELECT `+quarterlyColumns+` FROM quarterly_plans WHERE contract_id=$1 AND product_name=$2 AND contract_year=$3 FOR UPDATE`, contractID, productName, contractYear))
}

func (r *txRepository) UpdateQuarterlyPlan(ctx context.Context, p QuarterlyPlan) error {
	tag, err := r.tx.Exec(ctx, `UPDATE quarterly_plans SET q1=$2, q2=$3, q3=$4, q4=$5, adjustment_log=$6, version=$7, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Q1, p.Q2, p.Q3, p.Q4, p.AdjustmentLog, p.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuarterlyPlanNotFound
	}
	return nil
}

func (r *txRepository) DeleteQuarterlyPlan(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM quarterly_plans WHERE id=$1`, id)
	return err
}

func (r *txRepository) InsertMonthlyPlan(ctx context.Context, p MonthlyPlan) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO monthly_plans (contract_id, quarterly_plan_id, product_name, month, year, month_quantity, authority_topup_quantity, delivery_month, delivery_year, original_month, original_year, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		p.ContractID, p.QuarterlyPlanID, p.ProductName, p.Month, p.Year, p.Quantity, p.AuthorityTopup, p.DeliveryMonth, p.DeliveryYear, p.OriginalMonth, p.OriginalYear, p.Version).Scan(&id)
	return id, err
}

func (r *txRepository) GetMonthlyPlanForUpdate(ctx context.Context, id int64) (MonthlyPlan, error) {
	return scanMonthly(r.tx.QueryRow(ctx, `SELECT `+monthlyColumns+` FROM monthly_plans WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateMonthlyPlan(ctx context.Context, p MonthlyPlan) error {
	tag, err := r.tx.Exec(ctx, `UPDATE monthly_plans SET month=$2, year=$3, month_quantity=$4, authority_topup_quantity=$5, delivery_month=$6, delivery_year=$7, original_month=$8, original_year=$9, version=$10, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Month, p.Year, p.Quantity, p.AuthorityTopup, p.DeliveryMonth, p.DeliveryYear, p.OriginalMonth, p.OriginalYear, p.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMonthlyPlanNotFound
	}
	return nil
}

func (r *txRepository) DeleteMonthlyPlan(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM monthly_plans WHERE id=$1`, id)
	return err
}

func (r *txRepository) ListMonthlyPlansForQuarterPlan(ctx context.Context, quarterlyPlanID int64) ([]MonthlyPlan, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+monthlyColumns+` FROM monthly_plans WHERE quarterly_plan_id=$1 ORDER BY year, month`, quarterlyPlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonthly(rows)
}

func (r *txRepository) ListMonthlyPlansForContract(ctx context.Context, contractID int64, productName string) ([]MonthlyPlan, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+monthlyColumns+` FROM monthly_plans WHERE contract_id=$1 AND ($2='' OR product_name=$2) ORDER BY year, month`, contractID, productName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonthly(rows)
}

func (r *txRepository) CargoForPlan(ctx context.Context, planID int64) (cargo.Link, error) {
	var link cargo.Link
	var status cargo.Status
	err := r.tx.QueryRow(ctx, `SELECT id, code, status FROM cargoes WHERE monthly_plan_id=$1`, planID).
		Scan(&link.CargoID, &link.Code, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cargo.Link{}, nil
		}
		return cargo.Link{}, err
	}
	link.Exists = true
	link.Completed = status == cargo.StatusCompleted
	return link, nil
}

func (r *txRepository) GetCargo(ctx context.Context, id int64) (cargo.Cargo, error) {
	var c cargo.Cargo
	err := r.tx.QueryRow(ctx, `SELECT id, code, monthly_plan_id, quantity, status, laycan_start, laycan_end, berth, vessel, created_at, updated_at FROM cargoes WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.MonthlyPlanID, &c.Quantity, &c.Status, &c.LaycanStart, &c.LaycanEnd, &c.Berth, &c.Vessel, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cargo.Cargo{}, cargo.ErrNotFound
		}
		return cargo.Cargo{}, err
	}
	return c, nil
}

func (r *txRepository) ClearCargoSchedule(ctx context.Context, cargoID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE cargoes SET laycan_start=NULL, laycan_end=NULL, berth='', updated_at=NOW() WHERE id=$1`, cargoID)
	return err
}

func (r *txRepository) InsertSnapshot(ctx context.Context, s Snapshot) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO plan_snapshots (id, monthly_plan_id, cargo_id, plan_state, cargo_state, summary, actor_id, actor_initials, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())`,
		s.ID, s.MonthlyPlanID, s.CargoID, s.PlanState, s.CargoState, s.Summary, s.Actor.ID, s.Actor.Initials)
	return err
}

func (r *txRepository) InsertAdjustment(ctx context.Context, a QuarterAdjustment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO quarter_adjustments (quarterly_plan_id, move_id, entry_type, quarter, contract_year, quantity, authority_ref, reason, actor_id, actor_initials, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())`,
		a.QuarterlyPlanID, a.MoveID, string(a.Type), a.Quarter, a.ContractYear, a.Quantity, a.AuthorityRef, a.Reason, a.Actor.ID, a.Actor.Initials)
	return err
}

func scanQuarterly(row pgx.Row) (QuarterlyPlan, error) {
	var p QuarterlyPlan
	err := row.Scan(&p.ID, &p.ContractID, &p.ProductName, &p.ContractYear, &p.Q1, &p.Q2, &p.Q3, &p.Q4, &p.AdjustmentLog, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuarterlyPlan{}, ErrQuarterlyPlanNotFound
		}
		return QuarterlyPlan{}, err
	}
	return p, nil
}

func scanMonthly(row pgx.Row) (MonthlyPlan, error) {
	var p MonthlyPlan
	err := row.Scan(&p.ID, &p.ContractID, &p.QuarterlyPlanID, &p.ProductName, &p.Month, &p.Year, &p.Quantity, &p.AuthorityTopup, &p.DeliveryMonth, &p.DeliveryYear, &p.OriginalMonth, &p.OriginalYear, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthlyPlan{}, ErrMonthlyPlanNotFound
		}
		return MonthlyPlan{}, err
	}
	return p, nil
}

func collectMonthly(rows pgx.Rows) ([]MonthlyPlan, error) {
	var out []MonthlyPlan
	for rows.Next() {
		p, err := scanMonthly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
