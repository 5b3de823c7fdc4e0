package session

import (
	"context"
	"fmt"

	"github.com/team-progress-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the signed bearer token and the authenticated member.
type LoginResult struct {
	Bearer string         `json:"bearer"`
	Member *domain.Member `json:"member"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type memberStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
}

type jwtSigner interface {
	Sign(memberID string) (string, error)
}

type service struct {
	repo        memberStore
	jwtProvider jwtSigner
}

func NewService(repo memberStore, jwtProvider jwtSigner) Service {
	return &service{repo: repo, jwtProvider: jwtProvider}
}

// Login verifies the credentials and issues a bearer token. Unknown emails
// and bad passwords both answer unauthorized so the two are
// indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	m, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !m.Active {
		return nil, fmt.Errorf("member is deactivated: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwtProvider.Sign(m.MemberID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, Member: m}, nil
}
