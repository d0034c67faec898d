package contracts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContractNotFound indicates a missing contract row.
var ErrContractNotFound = errors.New("contracts: contract not found")

// Repository reads contracts and products from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contractColumns = `id, code, customer_name, category, delivery_term, fiscal_start_month, start_date, end_date, version`

// Get loads a contract with its products.
func (r *Repository) Get(ctx context.Context, id int64) (Contract, error) {
	if r == nil {
		return Contract{}, errors.New("contracts repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id=$1`, id)
	contract, err := scanContract(row)
	if err != nil {
		return Contract{}, err
	}
	contract.Products, err = r.productsFor(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	return contract, nil
}

// List returns all contracts ordered by code, without products.
func (r *Repository) List(ctx context.Context) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	return out, rows.Err()
}

func (r *Repository) productsFor(ctx context.Context, contractID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, contract_id, name, mode, total_quantity, min_quantity, max_quantity, optional_quantity
FROM contract_products WHERE contract_id=$1 ORDER BY name ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Name, &p.Mode, &p.TotalQuantity, &p.MinQuantity, &p.MaxQuantity, &p.OptionalQuantity); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.Code, &c.CustomerName, &c.Category, &c.DeliveryTerm, &c.FiscalStartMonth, &c.StartDate, &c.EndDate, &c.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, err
	}
	return c, nil
}
