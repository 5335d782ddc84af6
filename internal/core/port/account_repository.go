package port

import (
	"context"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
)

// AccountRepository exposes persistence behavior for launcher accounts.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	// Delete removes the account and its dependent hardware bindings and
	// auth sessions in one transaction. It returns the number of account
	// rows removed; absence is reported as zero, not an error.
	Delete(ctx context.Context, username string) (int64, error)
	Exists(ctx context.Context, externalID, username string) (bool, error)
	// UpdatePassword returns false when no account matched the username.
	UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	SearchUsernames(ctx context.Context, partial string, limit int) ([]string, error)
	Ping(ctx context.Context) error
}

// UploadRepository persists cosmetic asset hashes against an account.
type UploadRepository interface {
	RecordAsset(ctx context.Context, identityToken string, kind domain.AssetKind, hash string) error
}
