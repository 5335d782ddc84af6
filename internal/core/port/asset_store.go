package port

import (
	"context"
	"time"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
)

// AssetStore persists cosmetic asset files so the launcher web tier can
// serve them.
type AssetStore interface {
	Put(ctx context.Context, kind domain.AssetKind, filename string, data []byte) error
}

// CooldownStore throttles repeated invocations of a command by one user.
type CooldownStore interface {
	// Acquire reports whether the key was free and claims it for the
	// supplied duration. A held key returns false until it expires.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
