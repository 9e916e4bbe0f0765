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

const raffleColumns = `key, creator, raffle_id, ticket_price, max_tickets, end_time, total_sold, status, held_balance, deposit, created_at, updated_at, version`

// CreateRaffle inserts a new raffle record and debits the storage deposit
// from the creator account in the same transaction.
func (s *Store) CreateRaffle(ctx context.Context, r raffle.Raffle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if r.Deposit > 0 {
		if err := debitAccountTx(ctx, tx, r.Creator, r.Deposit, r.CreatedAt); err != nil {
			return err
		}
	}

	// A settled key is retired for good: its ticket and settlement audit
	// records stay bound to it.
	var retired int
	err = tx.QueryRowContext(ctx, `
SELECT 1 FROM settlements WHERE raffle_key = ?
`, r.Key).Scan(&retired)
	if err == nil {
		return storage.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check settled key: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO raffles (`+raffleColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		r.Key,
		r.Creator,
		int64(r.RaffleID),
		int64(r.TicketPrice),
		r.MaxTickets,
		toMillis(r.EndTime),
		r.TotalSold,
		raffle.StatusLabel(r.Status),
		int64(r.HeldBalance),
		int64(r.Deposit),
		toMillis(r.CreatedAt),
		toMillis(r.UpdatedAt),
		int64(r.Version),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert raffle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetRaffle retrieves a live raffle record by key, including its canonical
// buyer sequence. Both reads share one transaction so the sequence matches
// the sold counter.
func (s *Store) GetRaffle(ctx context.Context, key string) (raffle.Raffle, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Raffle{}, err
	}
	if s == nil || s.sqlDB == nil {
		return raffle.Raffle{}, fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return raffle.Raffle{}, fmt.Errorf("raffle key is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return raffle.Raffle{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
SELECT `+raffleColumns+` FROM raffles WHERE key = ?
`, key)
	r, err := scanRaffle(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raffle.Raffle{}, storage.ErrNotFound
		}
		return raffle.Raffle{}, fmt.Errorf("get raffle: %w", err)
	}

	buyers, err := listBuyersTx(ctx, tx, key)
	if err != nil {
		return raffle.Raffle{}, err
	}
	r.Buyers = buyers

	if err := tx.Commit(); err != nil {
		return raffle.Raffle{}, fmt.Errorf("commit transaction: %w", err)
	}
	return r, nil
}

// RecordPurchase debits the payment from the buyer account, applies the
// updated raffle record through a version compare-and-set, and stores the
// ticket, all in one transaction.
func (s *Store) RecordPurchase(ctx context.Context, updated raffle.Raffle, ticket raffle.Ticket, payment uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(updated.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}
	if strings.TrimSpace(ticket.Key) == "" {
		return fmt.Errorf("ticket key is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := debitAccountTx(ctx, tx, ticket.Buyer, payment, ticket.PurchasedAt); err != nil {
		return err
	}

	if err := casUpdateRaffleTx(ctx, tx, updated); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO tickets (key, raffle_key, number, buyer, purchased_at)
VALUES (?, ?, ?, ?, ?)
`, ticket.Key, ticket.RaffleKey, ticket.Number, ticket.Buyer, toMillis(ticket.PurchasedAt))
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SettleRaffle reclaims the raffle record, credits the winner and creator
// shares, refunds the storage deposit, and writes the settlement record, all
// in one transaction. The version match on the delete keeps settlement
// at-most-once. Tickets survive as the audit trail.
func (s *Store) SettleRaffle(ctx context.Context, settled raffle.Raffle, settlement raffle.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(settled.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteRaffleTx(ctx, tx, settled.Key, settled.Version); err != nil {
		return err
	}

	if err := creditAccountTx(ctx, tx, settlement.Winner, settlement.WinnerShare, settlement.SettledAt); err != nil {
		return err
	}
	if err := creditAccountTx(ctx, tx, settled.Creator, settlement.CreatorShare, settlement.SettledAt); err != nil {
		return err
	}
	if settled.Deposit > 0 {
		if err := creditAccountTx(ctx, tx, settled.Creator, settled.Deposit, settlement.SettledAt); err != nil {
			return err
		}
	}

	if err := insertSettlementTx(ctx, tx, settlement); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CancelRaffle reclaims the raffle record and refunds the storage deposit to
// the creator in one transaction, freeing the key for reuse.
func (s *Store) CancelRaffle(ctx context.Context, r raffle.Raffle, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteRaffleTx(ctx, tx, r.Key, r.Version); err != nil {
		return err
	}

	if r.Deposit > 0 {
		if err := creditAccountTx(ctx, tx, r.Creator, r.Deposit, at); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// casUpdateRaffleTx applies the mutable raffle fields with a compare-and-set
// on the version the caller loaded.
func casUpdateRaffleTx(ctx context.Context, tx *sql.Tx, updated raffle.Raffle) error {
	res, err := tx.ExecContext(ctx, `
UPDATE raffles SET
	total_sold = ?,
	status = ?,
	held_balance = ?,
	updated_at = ?,
	version = version + 1
WHERE key = ? AND version = ?
`,
		updated.TotalSold,
		raffle.StatusLabel(updated.Status),
		int64(updated.HeldBalance),
		toMillis(updated.UpdatedAt),
		updated.Key,
		int64(updated.Version),
	)
	if err != nil {
		return fmt.Errorf("update raffle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update raffle result: %w", err)
	}
	if affected == 0 {
		return raffleMissingOrConflict(ctx, tx, updated.Key)
	}
	return nil
}

// deleteRaffleTx reclaims a raffle record with a compare-and-set on the
// version the caller loaded.
func deleteRaffleTx(ctx context.Context, tx *sql.Tx, key string, version uint64) error {
	res, err := tx.ExecContext(ctx, `
DELETE FROM raffles WHERE key = ? AND version = ?
`, key, int64(version))
	if err != nil {
		return fmt.Errorf("delete raffle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete raffle result: %w", err)
	}
	if affected == 0 {
		return raffleMissingOrConflict(ctx, tx, key)
	}
	return nil
}

// raffleMissingOrConflict distinguishes a reclaimed record from a lost write
// race after a compare-and-set matched nothing.
func raffleMissingOrConflict(ctx context.Context, tx *sql.Tx, key string) error {
	var one int
	err := tx.QueryRowContext(ctx, `
SELECT 1 FROM raffles WHERE key = ?
`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check raffle key: %w", err)
	}
	return storage.ErrVersionConflict
}

// scanRaffle reads one raffle row into the domain shape. The buyer sequence
// is loaded separately from the ticket table.
func scanRaffle(scan func(dest ...any) error) (raffle.Raffle, error) {
	var r raffle.Raffle
	var raffleID, ticketPrice, heldBalance, deposit int64
	var endTime, createdAt, updatedAt int64
	var status string
	var version int64
	if err := scan(
		&r.Key,
		&r.Creator,
		&raffleID,
		&ticketPrice,
		&r.MaxTickets,
		&endTime,
		&r.TotalSold,
		&status,
		&heldBalance,
		&deposit,
		&createdAt,
		&updatedAt,
		&version,
	); err != nil {
		return raffle.Raffle{}, err
	}

	parsed, err := raffle.StatusFromLabel(status)
	if err != nil {
		return raffle.Raffle{}, fmt.Errorf("parse raffle status: %w", err)
	}

	r.RaffleID = uint64(raffleID)
	r.TicketPrice = uint64(ticketPrice)
	r.EndTime = fromMillis(endTime)
	r.Status = parsed
	r.HeldBalance = uint64(heldBalance)
	r.Deposit = uint64(deposit)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	r.Version = uint64(version)
	return r, nil
}
