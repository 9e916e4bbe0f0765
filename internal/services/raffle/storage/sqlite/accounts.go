package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
)

// CreditAccount adds amount to an account balance, creating the account when
// absent, and returns the updated account.
func (s *Store) CreditAccount(ctx context.Context, identity string, amount uint64, at time.Time) (raffle.Account, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return raffle.Account{}, fmt.Errorf("storage is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, fmt.Errorf("identity is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return raffle.Account{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := creditAccountTx(ctx, tx, identity, amount, at); err != nil {
		return raffle.Account{}, err
	}

	account, err := getAccountTx(ctx, tx, identity)
	if err != nil {
		return raffle.Account{}, err
	}

	if err := tx.Commit(); err != nil {
		return raffle.Account{}, fmt.Errorf("commit transaction: %w", err)
	}
	return account, nil
}

// GetAccount retrieves an account by identity.
func (s *Store) GetAccount(ctx context.Context, identity string) (raffle.Account, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return raffle.Account{}, fmt.Errorf("storage is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, fmt.Errorf("identity is required")
	}

	var balance int64
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT balance, updated_at FROM accounts WHERE identity = ?
`, identity).Scan(&balance, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raffle.Account{}, storage.ErrNotFound
		}
		return raffle.Account{}, fmt.Errorf("get account: %w", err)
	}

	return raffle.Account{
		Identity:  identity,
		Balance:   uint64(balance),
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// creditAccountTx adds amount to an account inside a transaction, creating
// the account when absent. The balance column is signed, so the credit is
// checked against MaxLedgerAmount before it is applied.
func creditAccountTx(ctx context.Context, tx *sql.Tx, identity string, amount uint64, at time.Time) error {
	var balance int64
	err := tx.QueryRowContext(ctx, `
SELECT balance FROM accounts WHERE identity = ?
`, identity).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("credit account: %w", err)
	}
	if amount > raffle.MaxLedgerAmount-uint64(balance) {
		return storage.ErrLedgerOverflow
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO accounts (identity, balance, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(identity) DO UPDATE SET
	balance = balance + excluded.balance,
	updated_at = excluded.updated_at
`, identity, int64(amount), toMillis(at))
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// debitAccountTx subtracts amount from an account inside a transaction. The
// guarded update refuses to take a balance below the amount; identities that
// were never credited debit as zero-balance accounts.
func debitAccountTx(ctx context.Context, tx *sql.Tx, identity string, amount uint64, at time.Time) error {
	if amount == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx, `
UPDATE accounts SET
	balance = balance - ?,
	updated_at = ?
WHERE identity = ? AND balance >= ?
`, int64(amount), toMillis(at), identity, int64(amount))
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account result: %w", err)
	}
	if affected == 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}

// getAccountTx reads an account inside a transaction.
func getAccountTx(ctx context.Context, tx *sql.Tx, identity string) (raffle.Account, error) {
	var balance int64
	var updatedAt int64
	err := tx.QueryRowContext(ctx, `
SELECT balance, updated_at FROM accounts WHERE identity = ?
`, identity).Scan(&balance, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raffle.Account{}, storage.ErrNotFound
		}
		return raffle.Account{}, fmt.Errorf("get account: %w", err)
	}
	return raffle.Account{
		Identity:  identity,
		Balance:   uint64(balance),
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}
