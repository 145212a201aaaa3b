package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hputnam/tutordesk/internal/database"
	"github.com/hputnam/tutordesk/internal/models"
)

const accountColumns = `id, username, email, password_hash, display_name, role, active, email_verified, locked, unlock_at, last_login_at, login_count, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning account rows (single row or rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow handles nullable fields and populates an Account model from a database row
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var unlockAt, lastLoginAt *time.Time

	err := scanner.Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.DisplayName, &account.Role, &account.Active, &account.EmailVerified,
		&account.Locked, &unlockAt, &lastLoginAt, &account.LoginCount,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	account.UnlockAt = unlockAt
	account.LastLoginAt = lastLoginAt

	return &account, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)

	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, username))
}

// GetActiveByUsername fetches an account only if it is active. The guard uses
// this so inactive accounts are indistinguishable from missing ones.
func (r *AccountRepository) GetActiveByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1 AND active = true`

	return scanAccountRow(r.pool.QueryRow(ctx, query, username))
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	return scanAccountRows(rows)
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Role == "" {
		account.Role = models.RoleUser
	}

	query := `
		INSERT INTO accounts (id, username, email, password_hash, display_name, role, active, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query,
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.DisplayName, account.Role, account.Active, account.EmailVerified,
		account.CreatedAt, account.UpdatedAt,
	))
}

func (r *AccountRepository) Update(ctx context.Context, id string, account *models.Account) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET email = $1, display_name = $2, role = $3, active = $4, email_verified = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query,
		account.Email, account.DisplayName, account.Role, account.Active, account.EmailVerified, id,
	))
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Lock escalates an account to a timed lock. The WHERE locked = false guard
// makes the transition a single conditional write: when two failing requests
// race the threshold, the loser's update is a no-op and cannot move an
// existing unlock deadline backwards.
func (r *AccountRepository) Lock(ctx context.Context, id string, unlockAt time.Time) error {
	query := `
		UPDATE accounts SET locked = true, unlock_at = $2, updated_at = NOW()
		WHERE id = $1 AND locked = false
	`

	_, err := r.pool.Exec(ctx, query, id, unlockAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// ClearExpiredLock reconciles the stored lock flag once the unlock deadline
// has passed. Conditional on the deadline so a concurrent re-lock with a
// future deadline is never clobbered.
func (r *AccountRepository) ClearExpiredLock(ctx context.Context, id string) error {
	query := `
		UPDATE accounts SET locked = false, unlock_at = NULL, updated_at = NOW()
		WHERE id = $1 AND locked = true AND unlock_at IS NOT NULL AND unlock_at <= NOW()
	`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// Unlock clears any lock, timed or permanent. Administrative path only.
// Returns ErrNotLocked when the account was not locked to begin with.
func (r *AccountRepository) Unlock(ctx context.Context, id string) error {
	query := `
		UPDATE accounts SET locked = false, unlock_at = NULL, updated_at = NOW()
		WHERE id = $1 AND locked = true
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotLocked
	}
	return nil
}

// RecordLogin stores the success-path side effects in one write: audit fields
// updated and lock fields reset.
func (r *AccountRepository) RecordLogin(ctx context.Context, id string, loginAt time.Time) error {
	query := `
		UPDATE accounts
		SET last_login_at = $2, login_count = login_count + 1, locked = false, unlock_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, loginAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
