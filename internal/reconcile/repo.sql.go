package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the live ledger and the monthly-plan audit stream.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCurrent returns the live allocations for a delivery year, keyed on the
// scheduling anchor: the delivery month for CIF plans, the loading month
// otherwise.
func (r *Repository) ListCurrent(ctx context.Context, year int) ([]CurrentRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT mp.contract_id, c.code, mp.product_name,
       COALESCE(mp.delivery_month, mp.month),
       COALESCE(mp.delivery_year, mp.year),
       mp.month_quantity
FROM monthly_plans mp
JOIN contracts c ON c.id = mp.contract_id
WHERE COALESCE(mp.delivery_year, mp.year) = $1
ORDER BY mp.contract_id, mp.product_name, mp.month`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CurrentRow
	for rows.Next() {
		var row CurrentRow
		if err := rows.Scan(&row.ContractID, &row.ContractCode, &row.Product, &row.Month, &row.Year, &row.Quantity); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListChangesSince returns the monthly-plan audit entries recorded at or
// after the cutoff, oldest first.
func (r *Repository) ListChangesSince(ctx context.Context, cutoff time.Time) ([]ChangeRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT entity_id, action, field, old_value, new_value, meta
FROM audit_logs
WHERE entity = 'monthly_plan' AND occurred_at >= $1
ORDER BY id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeRow
	for rows.Next() {
		var row ChangeRow
		var meta []byte
		if err := rows.Scan(&row.EntityID, &row.Action, &row.Field, &row.OldValue, &row.NewValue, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &row.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
