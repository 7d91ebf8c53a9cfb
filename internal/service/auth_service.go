package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/jwt"
	"github.com/xxxsen/docqa/internal/pkg/password"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
)

type AuthService struct {
	users        *repo.UserRepo
	verification *VerificationService
	jwtSecret    []byte
	jwtTTL       time.Duration
}

func NewAuthService(users *repo.UserRepo, verification *VerificationService, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, verification: verification, jwtSecret: secret, jwtTTL: ttl}
}

// Register creates an unverified account and mails a one-time code. The
// account stays unverified until VerifyEmail confirms the code; login is
// refused until then.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(plainPassword) < 8 {
		return nil, appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Verified:     0,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.verification.SendRegisterCode(ctx, email); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := s.verification.VerifyRegisterCode(ctx, email, code); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified != 0 {
		return nil
	}
	return s.users.MarkVerified(ctx, user.ID, timeutil.NowUnix())
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if user.Verified == 0 {
		return nil, "", appErr.ErrForbidden
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
