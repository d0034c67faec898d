package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

type createQuarterlyPlanRequest struct {
	ContractID   int64           `json:"contract_id" validate:"required"`
	ProductName  string          `json:"product_name"`
	ContractYear int             `json:"contract_year" validate:"required,min=2000,max=2100"`
	Q1           decimal.Decimal `json:"q1"`
	Q2           decimal.Decimal `json:"q2"`
	Q3           decimal.Decimal `json:"q3"`
	Q4           decimal.Decimal `json:"q4"`
}

type updateQuarterlyPlanRequest struct {
	Version int64           `json:"version" validate:"required,min=1"`
	Q1      decimal.Decimal `json:"q1"`
	Q2      decimal.Decimal `json:"q2"`
	Q3      decimal.Decimal `json:"q3"`
	Q4      decimal.Decimal `json:"q4"`
}

type createMonthlyPlanRequest struct {
	ContractID      int64           `json:"contract_id" validate:"required"`
	QuarterlyPlanID *int64          `json:"quarterly_plan_id"`
	ProductName     string          `json:"product_name"`
	Month           int             `json:"month" validate:"required,min=1,max=12"`
	Year            int             `json:"year" validate:"required,min=2000,max=2100"`
	Quantity        decimal.Decimal `json:"quantity"`
	DeliveryMonth   *int            `json:"delivery_month" validate:"omitempty,min=1,max=12"`
	DeliveryYear    *int            `json:"delivery_year" validate:"omitempty,min=2000,max=2100"`
}

type updateMonthlyPlanRequest struct {
	Version       int64            `json:"version" validate:"required,min=1"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Month         *int             `json:"month" validate:"omitempty,min=1,max=12"`
	Year          *int             `json:"year" validate:"omitempty,min=2000,max=2100"`
	DeliveryMonth *int             `json:"delivery_month" validate:"omitempty,min=1,max=12"`
	DeliveryYear  *int             `json:"delivery_year" validate:"omitempty,min=2000,max=2100"`
}

type moveRequest struct {
	Action       string `json:"action" validate:"required,oneof=DEFER ADVANCE"`
	TargetMonth  int    `json:"target_month" validate:"required,min=1,max=12"`
	TargetYear   int    `json:"target_year" validate:"required,min=2000,max=2100"`
	Reason       string `json:"reason"`
	AuthorityRef string `json:"authority_ref"`
	Version      int64  `json:"version" validate:"required,min=1"`
}

type topUpRequest struct {
	Quantity     decimal.Decimal `json:"quantity"`
	AuthorityRef string          `json:"authority_ref" validate:"required"`
	Reason       string          `json:"reason"`
	Date         *time.Time      `json:"date"`
	Version      int64           `json:"version" validate:"required,min=1"`
}

type quarterlyPlanResponse struct {
	ID            int64           `json:"id"`
	ContractID    int64           `json:"contract_id"`
	ProductName   string          `json:"product_name"`
	ContractYear  int             `json:"contract_year"`
	Q1            decimal.Decimal `json:"q1"`
	Q2            decimal.Decimal `json:"q2"`
	Q3            decimal.Decimal `json:"q3"`
	Q4            decimal.Decimal `json:"q4"`
	Total         decimal.Decimal `json:"total"`
	AdjustmentLog string          `json:"adjustment_log,omitempty"`
	Version       int64           `json:"version"`
}

func toQuarterlyPlanResponse(p QuarterlyPlan) quarterlyPlanResponse {
	return quarterlyPlanResponse{
		ID:            p.ID,
		ContractID:    p.ContractID,
		ProductName:   p.ProductName,
		ContractYear:  p.ContractYear,
		Q1:            p.Q1,
		Q2:            p.Q2,
		Q3:            p.Q3,
		Q4:            p.Q4,
		Total:         p.Total(),
		AdjustmentLog: p.AdjustmentLog,
		Version:       p.Version,
	}
}

type monthlyPlanResponse struct {
	ID              int64           `json:"id"`
	ContractID      int64           `json:"contract_id"`
	QuarterlyPlanID *int64          `json:"quarterly_plan_id,omitempty"`
	ProductName     string          `json:"product_name"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Quantity        decimal.Decimal `json:"quantity"`
	AuthorityTopup  decimal.Decimal `json:"authority_topup"`
	DeliveryMonth   *int            `json:"delivery_month,omitempty"`
	DeliveryYear    *int            `json:"delivery_year,omitempty"`
	OriginalMonth   *int            `json:"original_month,omitempty"`
	OriginalYear    *int            `json:"original_year,omitempty"`
	Version         int64           `json:"version"`
}

func toMonthlyPlanResponse(p MonthlyPlan) monthlyPlanResponse {
	return monthlyPlanResponse{
		ID:              p.ID,
		ContractID:      p.ContractID,
		QuarterlyPlanID: p.QuarterlyPlanID,
		ProductName:     p.ProductName,
		Month:           p.Month,
		Year:            p.Year,
		Quantity:        p.Quantity,
		AuthorityTopup:  p.AuthorityTopup,
		DeliveryMonth:   p.DeliveryMonth,
		DeliveryYear:    p.DeliveryYear,
		OriginalMonth:   p.OriginalMonth,
		OriginalYear:    p.OriginalYear,
		Version:         p.Version,
	}
}

type moveResponse struct {
	Plan         monthlyPlanResponse `json:"plan"`
	MoveID       string              `json:"move_id"`
	SnapshotID   string              `json:"snapshot_id"`
	CrossQuarter bool                `json:"cross_quarter"`
}

type adjustmentResponse struct {
	ID           int64           `json:"id"`
	MoveID       string          `json:"move_id"`
	Type         AdjustmentType  `json:"type"`
	Quarter      int             `json:"quarter"`
	ContractYear int             `json:"contract_year"`
	Quantity     decimal.Decimal `json:"quantity"`
	AuthorityRef string          `json:"authority_ref,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Actor        string          `json:"actor,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toAdjustmentResponses(adjs []QuarterAdjustment) []adjustmentResponse {
	out := make([]adjustmentResponse, 0, len(adjs))
	for _, a := range adjs {
		out = append(out, adjustmentResponse{
			ID:           a.ID,
			MoveID:       a.MoveID.String(),
			Type:         a.Type,
			Quarter:      a.Quarter,
			ContractYear: a.ContractYear,
			Quantity:     a.Quantity,
			AuthorityRef: a.AuthorityRef,
			Reason:       a.Reason,
			Actor:        a.Actor.Initials,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}
