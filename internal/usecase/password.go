package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

// PasswordService coordinates self-service password changes and
// administrative resets.
type PasswordService struct {
	accounts port.AccountRepository
	logger   *zap.Logger
}

// NewPasswordService constructs a PasswordService.
func NewPasswordService(accounts port.AccountRepository, logger *zap.Logger) *PasswordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordService{accounts: accounts, logger: logger}
}

// ChangePassword updates the password of the account owned by the Discord
// identity after verifying the current one.
func (s *PasswordService) ChangePassword(ctx context.Context, externalID, currentPassword, newPassword string) error {
	if externalID == "" {
		return fmt.Errorf("external account id is required")
	}

	account, err := s.accounts.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	matches, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !matches {
		return ErrCurrentPasswordInvalid
	}

	if err := security.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	updated, err := s.accounts.UpdatePassword(ctx, account.Username, newHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !updated {
		return ErrAccountNotFound
	}

	s.logger.Info("password changed", zap.String("username", account.Username))

	return nil
}

// AdminReset forces a new password onto the target account without checking
// the old one. Destructive: audited at warning level regardless of outcome.
func (s *PasswordService) AdminReset(ctx context.Context, actorID, targetUsername, newPassword string) error {
	s.logger.Warn("admin password reset requested",
		zap.String("actor", actorID),
		zap.String("username", targetUsername),
	)

	if err := security.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	updated, err := s.accounts.UpdatePassword(ctx, targetUsername, newHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !updated {
		return ErrAccountNotFound
	}

	s.logger.Warn("admin password reset applied",
		zap.String("actor", actorID),
		zap.String("username", targetUsername),
	)

	return nil
}
