package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

func accountWithPassword(t *testing.T, username, password string) *domain.Account {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.Account{
		Username:          username,
		PasswordHash:      hash,
		IdentityToken:     "token-1",
		ExternalAccountID: "155149108183695360",
		ServerBinding:     domain.DefaultServerBinding,
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	repo := &stubAccountRepository{
		byExternalID: accountWithPassword(t, "Alexei_123", "OldPassw0rd"),
		updateResult: true,
	}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	if err := svc.ChangePassword(context.Background(), "155149108183695360", "OldPassw0rd", "NewPassw0rd"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if repo.updateCalls != 1 {
		t.Fatalf("expected one UpdatePassword call, got %d", repo.updateCalls)
	}
	if repo.updateName != "Alexei_123" {
		t.Fatalf("expected update on Alexei_123, got %q", repo.updateName)
	}
	if ok, err := security.VerifyPassword("NewPassw0rd", repo.updateHash); err != nil || !ok {
		t.Fatalf("new hash must verify against new password (ok=%v err=%v)", ok, err)
	}
}

func TestChangePasswordAccountMissing(t *testing.T) {
	repo := &stubAccountRepository{byExternalIDErr: repository.ErrNotFound}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	err := svc.ChangePassword(context.Background(), "1", "OldPassw0rd", "NewPassw0rd")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	repo := &stubAccountRepository{
		byExternalID: accountWithPassword(t, "Alexei_123", "OldPassw0rd"),
	}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	err := svc.ChangePassword(context.Background(), "1", "WrongPassw0rd", "NewPassw0rd")
	if !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected ErrCurrentPasswordInvalid, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("stored hash must remain unchanged on mismatch")
	}
}

func TestChangePasswordInvalidNew(t *testing.T) {
	repo := &stubAccountRepository{
		byExternalID: accountWithPassword(t, "Alexei_123", "OldPassw0rd"),
	}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	err := svc.ChangePassword(context.Background(), "1", "OldPassw0rd", "short")
	var verr *security.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("no update expected for an invalid new password")
	}
}

func TestAdminResetSuccess(t *testing.T) {
	repo := &stubAccountRepository{updateResult: true}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	if err := svc.AdminReset(context.Background(), "admin-1", "Alexei_123", "ForcedPassw0rd"); err != nil {
		t.Fatalf("AdminReset returned error: %v", err)
	}
	if repo.updateName != "Alexei_123" {
		t.Fatalf("expected reset on Alexei_123, got %q", repo.updateName)
	}
	if repo.updateHash == "ForcedPassw0rd" {
		t.Fatalf("reset must store a hash, not the plaintext")
	}
}

func TestAdminResetTargetMissing(t *testing.T) {
	repo := &stubAccountRepository{updateResult: false}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	err := svc.AdminReset(context.Background(), "admin-1", "ghost", "ForcedPassw0rd")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAdminResetInvalidPassword(t *testing.T) {
	repo := &stubAccountRepository{}
	svc := NewPasswordService(repo, zaptest.NewLogger(t))

	err := svc.AdminReset(context.Background(), "admin-1", "Alexei_123", "weak")
	var verr *security.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("no update expected for an invalid password")
	}
}
