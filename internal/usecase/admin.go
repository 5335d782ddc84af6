package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

// AdminService exposes the administrative account operations.
type AdminService struct {
	accounts port.AccountRepository
	logger   *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(accounts port.AccountRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{accounts: accounts, logger: logger}
}

// Delete removes the account and its dependent records. The returned count
// is zero when the username did not exist; callers render that as
// "not found" rather than an error.
func (s *AdminService) Delete(ctx context.Context, actorID, targetUsername string) (int64, error) {
	s.logger.Warn("admin account delete requested",
		zap.String("actor", actorID),
		zap.String("username", targetUsername),
	)

	count, err := s.accounts.Delete(ctx, targetUsername)
	if err != nil {
		return 0, fmt.Errorf("delete account: %w", err)
	}

	if count > 0 {
		s.logger.Warn("account deleted",
			zap.String("actor", actorID),
			zap.String("username", targetUsername),
		)
	}

	return count, nil
}

// Lookup returns the account record for administrative display.
func (s *AdminService) Lookup(ctx context.Context, targetUsername string) (*domain.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

// SearchUsernames lists usernames matching the partial input for
// autocomplete suggestion.
func (s *AdminService) SearchUsernames(ctx context.Context, partial string, limit int) ([]string, error) {
	usernames, err := s.accounts.SearchUsernames(ctx, partial, limit)
	if err != nil {
		return nil, fmt.Errorf("search usernames: %w", err)
	}
	return usernames, nil
}

// Healthy reports whether the store answers a trivial query. Autocomplete is
// gated on this instead of failing the whole command.
func (s *AdminService) Healthy(ctx context.Context) bool {
	if err := s.accounts.Ping(ctx); err != nil {
		s.logger.Warn("store health check failed", zap.Error(err))
		return false
	}
	return true
}
