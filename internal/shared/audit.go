package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions recorded by the planning core.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionMove   = "MOVE"
	AuditActionTopUp  = "TOPUP"
)

// Audited entity types.
const (
	EntityQuarterlyPlan = "quarterly_plan"
	EntityMonthlyPlan   = "monthly_plan"
	EntityCargo         = "cargo"
)

// AuditLog is one append-only fact on an entity's audit stream.
type AuditLog struct {
	Entity      string
	EntityID    int64
	Action      string
	Field       string
	OldValue    string
	NewValue    string
	Description string
	Actor       Actor
	Meta        map[string]any
	At          time.Time
}

// AuditLogger writes records into audit_logs. Write failures are the caller's
// to log and swallow; a failed audit write never rolls back the mutation it
// describes.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == 0 {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	at := log.At
	var atArg any
	if !at.IsZero() {
		atArg = at
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (entity, entity_id, action, field, old_value, new_value, description, actor_id, actor_initials, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))`,
		log.Entity, log.EntityID, log.Action, log.Field, log.OldValue, log.NewValue, log.Description, log.Actor.ID, log.Actor.Initials, metaJSON, atArg)
	return err
}
