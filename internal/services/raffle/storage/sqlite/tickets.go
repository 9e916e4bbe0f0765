package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
)

const ticketColumns = `key, raffle_key, number, buyer, purchased_at`

// GetTicket retrieves one ticket by raffle key and sequence number.
func (s *Store) GetTicket(ctx context.Context, raffleKey string, number uint32) (raffle.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Ticket{}, err
	}
	if s == nil || s.sqlDB == nil {
		return raffle.Ticket{}, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return raffle.Ticket{}, fmt.Errorf("raffle key is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+ticketColumns+` FROM tickets WHERE raffle_key = ? AND number = ?
`, raffleKey, number)
	ticket, err := scanTicket(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raffle.Ticket{}, storage.ErrNotFound
		}
		return raffle.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// ListTickets returns all tickets for a raffle in sequence order.
func (s *Store) ListTickets(ctx context.Context, raffleKey string) ([]raffle.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return nil, fmt.Errorf("raffle key is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+ticketColumns+` FROM tickets WHERE raffle_key = ? ORDER BY number ASC
`, raffleKey)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []raffle.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

// listBuyersTx returns the canonical buyer sequence for a raffle inside a
// transaction, ordered by ticket number.
func listBuyersTx(ctx context.Context, tx *sql.Tx, raffleKey string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT buyer FROM tickets WHERE raffle_key = ? ORDER BY number ASC
`, raffleKey)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	defer rows.Close()

	var buyers []string
	for rows.Next() {
		var buyer string
		if err := rows.Scan(&buyer); err != nil {
			return nil, fmt.Errorf("scan buyer: %w", err)
		}
		buyers = append(buyers, buyer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buyers: %w", err)
	}
	return buyers, nil
}

func scanTicket(scan func(dest ...any) error) (raffle.Ticket, error) {
	var t raffle.Ticket
	var purchasedAt int64
	if err := scan(&t.Key, &t.RaffleKey, &t.Number, &t.Buyer, &purchasedAt); err != nil {
		return raffle.Ticket{}, err
	}
	t.PurchasedAt = fromMillis(purchasedAt)
	return t, nil
}
