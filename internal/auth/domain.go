package auth

import (
	"errors"
	"time"
)

// Token is one issued API credential. The secret half is stored only as a
// bcrypt hash; the presented token is "<id>.<secret>".
type Token struct {
	ID         int64
	SecretHash string
	PlannerID  int64
	Initials   string
	IsActive   bool
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// ErrInvalidToken covers every authentication failure. Lookup misses,
// inactive tokens and hash mismatches are indistinguishable to the caller.
var ErrInvalidToken = errors.New("auth: invalid token")
