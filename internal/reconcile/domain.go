package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentRow is one live (contract, product, month) allocation.
type CurrentRow struct {
	ContractID   int64
	ContractCode string
	Product      string
	Month        int
	Year         int
	Quantity     decimal.Decimal
}

// ChangeRow is one monthly-plan audit entry recorded after the report cutoff.
// Old/new values and the meta payload carry enough to undo the change.
type ChangeRow struct {
	EntityID int64
	Action   string
	Field    string
	OldValue string
	NewValue string
	Meta     map[string]any
}

// ComparisonRow is one line of the weekly comparison report.
type ComparisonRow struct {
	ContractID   int64           `json:"contract_id"`
	ContractCode string          `json:"contract_code"`
	Product      string          `json:"product"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Planned      decimal.Decimal `json:"planned"`
	Previous     decimal.Decimal `json:"previous"`
	Delta        decimal.Decimal `json:"delta"`
	Remark       string          `json:"remark,omitempty"`
}

// Report is the weekly plan-versus-last-week comparison.
type Report struct {
	Year        int             `json:"year"`
	Cutoff      time.Time       `json:"cutoff"`
	GeneratedAt time.Time       `json:"generated_at"`
	Rows        []ComparisonRow `json:"rows"`
}
