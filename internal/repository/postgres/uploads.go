package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
)

// UploadRepository implements port.UploadRepository using PostgreSQL.
type UploadRepository struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
}

// NewUploadRepository wires a PostgreSQL-backed upload repository.
func NewUploadRepository(pool pgPool) *UploadRepository {
	return &UploadRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// RecordAsset upserts the content hash for one asset slot of an account.
// Each slot has its own fixed statement; the column set is closed and never
// derived from user input.
func (r *UploadRepository) RecordAsset(ctx context.Context, identityToken string, kind domain.AssetKind, hash string) error {
	var column string
	switch kind {
	case domain.AssetSkin:
		column = "skin_hash"
	case domain.AssetCloak:
		column = "cloak_hash"
	default:
		return fmt.Errorf("unknown asset kind %q", kind)
	}

	stmt, args, err := r.builder.Insert("asset_uploads").
		Columns("identity_token", column, "updated_at").
		Values(identityToken, hash, squirrel.Expr("NOW()")).
		Suffix(fmt.Sprintf("ON CONFLICT (identity_token) DO UPDATE SET %s = EXCLUDED.%s, updated_at = NOW()", column, column)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record asset sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("record asset: %w", err)
	}

	return nil
}

var _ port.UploadRepository = (*UploadRepository)(nil)
