package service

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/password"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
)

const (
	verificationPurposeRegister = "register"
	verificationExpireMinutes   = 10
	verificationCooldownSeconds = 60
	verificationMaxAttempts     = 5
)

// VerificationService manages one-time email codes. Codes are stored
// hashed, expire, rate-limit resends and lock after too many wrong
// guesses.
type VerificationService struct {
	repo   *repo.EmailVerificationRepo
	sender EmailSender
}

func NewVerificationService(repo *repo.EmailVerificationRepo, sender EmailSender) *VerificationService {
	return &VerificationService{repo: repo, sender: sender}
}

func (s *VerificationService) SendRegisterCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return appErr.ErrInvalid
	}
	if err := s.ensureCooldown(ctx, email, verificationPurposeRegister); err != nil {
		return err
	}
	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := password.Hash(code)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	item := &model.EmailVerificationCode{
		ID:        newID(),
		Email:     email,
		Purpose:   verificationPurposeRegister,
		CodeHash:  hash,
		Used:      0,
		Ctime:     now,
		ExpiresAt: now + int64(verificationExpireMinutes*60),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return err
	}
	return s.sender.Send(email, "Your verification code",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, verificationExpireMinutes))
}

func (s *VerificationService) VerifyRegisterCode(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return appErr.ErrInvalid
	}
	item, err := s.repo.LatestByEmail(ctx, email, verificationPurposeRegister)
	if err != nil {
		return err
	}
	if item.Used != 0 {
		return appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	if item.ExpiresAt <= now {
		return appErr.ErrInvalid
	}
	if item.Attempts >= verificationMaxAttempts {
		return appErr.ErrTooMany
	}
	if err := password.Compare(item.CodeHash, code); err != nil {
		_ = s.repo.IncrAttempts(ctx, item.ID)
		return appErr.ErrInvalid
	}
	return s.repo.MarkUsed(ctx, item.ID)
}

func (s *VerificationService) ensureCooldown(ctx context.Context, email, purpose string) error {
	item, err := s.repo.LatestByEmail(ctx, email, purpose)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if item.Ctime+verificationCooldownSeconds > timeutil.NowUnix() {
		return appErr.ErrTooMany
	}
	return nil
}

// generateCode draws the 6-digit one-time code from the system CSPRNG.
func generateCode() (string, error) {
	n, err := crand.Int(crand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
