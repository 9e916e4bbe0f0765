package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
)

// GetSettlement retrieves the settlement record for a raffle key.
func (s *Store) GetSettlement(ctx context.Context, raffleKey string) (raffle.Settlement, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Settlement{}, err
	}
	if s == nil || s.sqlDB == nil {
		return raffle.Settlement{}, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return raffle.Settlement{}, fmt.Errorf("raffle key is required")
	}

	var settlement raffle.Settlement
	var raffleID, winnerShare, creatorShare int64
	var beacon string
	var settledAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT raffle_key, raffle_id, creator, winner, winner_share, creator_share, beacon, total_sold, settled_at
FROM settlements
WHERE raffle_key = ?
`, raffleKey).Scan(
		&settlement.RaffleKey,
		&raffleID,
		&settlement.Creator,
		&settlement.Winner,
		&winnerShare,
		&creatorShare,
		&beacon,
		&settlement.TotalSold,
		&settledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raffle.Settlement{}, storage.ErrNotFound
		}
		return raffle.Settlement{}, fmt.Errorf("get settlement: %w", err)
	}

	parsedBeacon, err := strconv.ParseUint(beacon, 10, 64)
	if err != nil {
		return raffle.Settlement{}, fmt.Errorf("parse settlement beacon: %w", err)
	}

	settlement.RaffleID = uint64(raffleID)
	settlement.WinnerShare = uint64(winnerShare)
	settlement.CreatorShare = uint64(creatorShare)
	settlement.Beacon = parsedBeacon
	settlement.SettledAt = fromMillis(settledAt)
	return settlement, nil
}

// insertSettlementTx writes the write-once settlement record inside a
// transaction. The beacon is stored as text to keep the full unsigned range.
func insertSettlementTx(ctx context.Context, tx *sql.Tx, settlement raffle.Settlement) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO settlements (raffle_key, raffle_id, creator, winner, winner_share, creator_share, beacon, total_sold, settled_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		settlement.RaffleKey,
		int64(settlement.RaffleID),
		settlement.Creator,
		settlement.Winner,
		int64(settlement.WinnerShare),
		int64(settlement.CreatorShare),
		strconv.FormatUint(settlement.Beacon, 10),
		settlement.TotalSold,
		toMillis(settlement.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}
