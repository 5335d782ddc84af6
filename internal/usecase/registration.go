package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

const registerCooldownScope = "register"

// RegistrationService handles launcher account self-registration.
type RegistrationService struct {
	accounts  port.AccountRepository
	cooldowns port.CooldownStore
	cooldown  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(accounts port.AccountRepository, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithCooldown enables the per-user register cooldown backed by the provided store.
func (s *RegistrationService) WithCooldown(store port.CooldownStore, window time.Duration) *RegistrationService {
	s.cooldowns = store
	s.cooldown = window
	return s
}

// WithClock allows tests to override the clock used by the service.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register validates the credentials and creates a launcher account owned by
// the Discord identity. Expected outcomes surface as sentinel or validation
// errors; the store's unique constraints cover the registration race.
func (s *RegistrationService) Register(ctx context.Context, externalID, username, password string) (*domain.Account, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external account id is required")
	}

	if err := security.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := security.ValidatePassword(password); err != nil {
		return nil, err
	}

	if err := s.enforceCooldown(ctx, externalID); err != nil {
		return nil, err
	}

	exists, err := s.accounts.Exists(ctx, externalID, username)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		Username:          username,
		PasswordHash:      passwordHash,
		IdentityToken:     security.NewIdentityToken(),
		ExternalAccountID: externalID,
		ServerBinding:     domain.DefaultServerBinding,
		RegisteredAt:      s.now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("username", account.Username),
		zap.String("external_account_id", account.ExternalAccountID),
	)

	return &account, nil
}

// enforceCooldown claims the per-user register window. A misbehaving
// cooldown store degrades to allowing the attempt with a warning; the
// cooldown is a courtesy throttle, not a security boundary.
func (s *RegistrationService) enforceCooldown(ctx context.Context, externalID string) error {
	if s.cooldowns == nil || s.cooldown <= 0 {
		return nil
	}

	key := fmt.Sprintf("%s:%s", registerCooldownScope, externalID)
	acquired, err := s.cooldowns.Acquire(ctx, key, s.cooldown)
	if err != nil {
		s.logger.Warn("register cooldown check failed",
			zap.String("external_account_id", externalID),
			zap.Error(err),
		)
		return nil
	}
	if !acquired {
		return ErrCooldownActive
	}
	return nil
}
