package postgres

import (
	"context"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

const accountColumns = "username, password_hash, identity_token, external_account_id, server_binding, registered_at"

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool pgPool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row. A username or external identity that is
// already taken surfaces as repository.ErrDuplicate via the table's unique
// constraints, which is what makes concurrent registrations safe.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	binding := account.ServerBinding
	if binding == "" {
		binding = domain.DefaultServerBinding
	}

	stmt, args, err := r.builder.Insert("accounts").
		Columns(
			"username",
			"password_hash",
			"identity_token",
			"external_account_id",
			"server_binding",
			"registered_at",
		).
		Values(
			account.Username,
			account.PasswordHash,
			account.IdentityToken,
			account.ExternalAccountID,
			binding,
			account.RegisteredAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		if mapped := mapWriteError(err); mapped == repository.ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// Delete removes the account row along with its dependent hardware bindings
// and auth sessions in a single transaction. It returns the number of
// account rows removed; zero means the username did not exist.
func (r *AccountRepository) Delete(ctx context.Context, username string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete account tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tokenStmt, tokenArgs, err := r.builder.
		Select("identity_token").
		From("accounts").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select identity token sql: %w", err)
	}

	var identityToken string
	if err := tx.QueryRow(ctx, tokenStmt, tokenArgs...).Scan(&identityToken); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("select identity token: %w", err)
	}

	for _, dependent := range []string{"hardware_bindings", "auth_sessions", "asset_uploads"} {
		stmt, args, err := r.builder.Delete(dependent).
			Where(squirrel.Eq{"identity_token": identityToken}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build delete %s sql: %w", dependent, err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return 0, fmt.Errorf("delete %s: %w", dependent, err)
		}
	}

	stmt, args, err := r.builder.Delete("accounts").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete account sql: %w", err)
	}

	ct, err := tx.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete account tx: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Exists reports whether any account matches the external identity or the
// username. Used to block duplicate registration with a friendly message;
// the unique constraints remain the authoritative guard.
func (r *AccountRepository) Exists(ctx context.Context, externalID, username string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("accounts").
		Where(squirrel.Or{
			squirrel.Eq{"external_account_id": externalID},
			squirrel.Eq{"username": username},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select account exists sql: %w", err)
	}

	var one int
	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account exists: %w", err)
	}

	return true, nil
}

// UpdatePassword replaces the stored password hash. It returns false when no
// account matched the username.
func (r *AccountRepository) UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error) {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// GetByUsername retrieves an account by its launcher login.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"username": username}, "by username")
}

// GetByExternalID retrieves the account owned by the given Discord identity.
func (r *AccountRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"external_account_id": externalID}, "by external id")
}

func (r *AccountRepository) getBy(ctx context.Context, cond squirrel.Eq, label string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(strings.Split(accountColumns, ", ")...).
		From("accounts").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account %s sql: %w", label, err)
	}

	var account domain.Account
	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(
		&account.Username,
		&account.PasswordHash,
		&account.IdentityToken,
		&account.ExternalAccountID,
		&account.ServerBinding,
		&account.RegisteredAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account %s: %w", label, err)
	}

	return &account, nil
}

// SearchUsernames returns usernames containing the partial input, ordered
// and capped for interactive suggestion. An empty partial lists the first
// limit usernames.
func (r *AccountRepository) SearchUsernames(ctx context.Context, partial string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	query := r.builder.
		Select("username").
		From("accounts").
		OrderBy("username ASC").
		Limit(uint64(limit))

	if trimmed := strings.TrimSpace(partial); trimmed != "" {
		query = query.Where(squirrel.ILike{"username": "%" + escapeLike(trimmed) + "%"})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search usernames sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	usernames := make([]string, 0, limit)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		usernames = append(usernames, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}

	return usernames, nil
}

// Ping issues a trivial query to confirm connectivity.
func (r *AccountRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards in user input so a literal match is
// performed.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

var _ port.AccountRepository = (*AccountRepository)(nil)
