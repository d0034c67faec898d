package cargo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists cargoes in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const cargoColumns = `id, code, monthly_plan_id, quantity, status, laycan_start, laycan_end, berth, vessel, created_at, updated_at`

// Get loads one cargo.
func (r *Repository) Get(ctx context.Context, id int64) (Cargo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cargoColumns+` FROM cargoes WHERE id=$1`, id)
	return scanCargo(row)
}

// ForMonthlyPlan returns the completion view for a monthly plan.
func (r *Repository) ForMonthlyPlan(ctx context.Context, planID int64) (Link, error) {
	var link Link
	var status Status
	err := r.pool.QueryRow(ctx, `SELECT id, code, status FROM cargoes WHERE monthly_plan_id=$1`, planID).
		Scan(&link.CargoID, &link.Code, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, nil
		}
		return Link{}, err
	}
	link.Exists = true
	link.Completed = status == StatusCompleted
	return link, nil
}

// Insert creates a cargo row. The unique index on monthly_plan_id enforces
// the 1:1 relationship with the plan.
func (r *Repository) Insert(ctx context.Context, c Cargo) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO cargoes (code, monthly_plan_id, quantity, status, laycan_start, laycan_end, berth, vessel, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING id`,
		c.Code, c.MonthlyPlanID, c.Quantity, string(c.Status), c.LaycanStart, c.LaycanEnd, c.Berth, c.Vessel).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrPlanAlreadyLinked
		}
		return 0, err
	}
	return id, nil
}

// UpdateStatus transitions a cargo's status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cargoes SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCargo(row pgx.Row) (Cargo, error) {
	var c Cargo
	err := row.Scan(&c.ID, &c.Code, &c.MonthlyPlanID, &c.Quantity, &c.Status, &c.LaycanStart, &c.LaycanEnd, &c.Berth, &c.Vessel, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cargo{}, ErrNotFound
		}
		return Cargo{}, err
	}
	return c, nil
}
