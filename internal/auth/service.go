package auth

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/liftplan/liftplan/internal/shared"
)

// RepositoryPort is the token store slice the service needs.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Token, error)
	TouchLastUsed(ctx context.Context, id int64) error
}

// Service resolves presented API tokens to planner identities.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authenticate validates an "<id>.<secret>" token and returns the planner
// identity it carries.
func (s *Service) Authenticate(ctx context.Context, presented string) (shared.Actor, error) {
	idPart, secret, ok := strings.Cut(presented, ".")
	if !ok || secret == "" {
		return shared.Actor{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return shared.Actor{}, ErrInvalidToken
	}
	token, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return shared.Actor{}, ErrInvalidToken
	}
	if !token.IsActive {
		return shared.Actor{}, ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)); err != nil {
		return shared.Actor{}, ErrInvalidToken
	}
	_ = s.repo.TouchLastUsed(ctx, id)
	return shared.Actor{ID: token.PlannerID, Initials: token.Initials}, nil
}
