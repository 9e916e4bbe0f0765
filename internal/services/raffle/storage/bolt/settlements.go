package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	bbolt "go.etcd.io/bbolt"
)

// GetSettlement retrieves the settlement record for a raffle key.
func (s *Store) GetSettlement(ctx context.Context, raffleKey string) (raffle.Settlement, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Settlement{}, err
	}
	if s == nil || s.db == nil {
		return raffle.Settlement{}, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return raffle.Settlement{}, fmt.Errorf("raffle key is required")
	}

	var settlement raffle.Settlement
	err := s.db.View(func(tx *bbolt.Tx) error {
		settlements := tx.Bucket([]byte(settlementBucket))
		if settlements == nil {
			return fmt.Errorf("settlement bucket is missing")
		}
		payload := settlements.Get([]byte(raffleKey))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &settlement); err != nil {
			return fmt.Errorf("unmarshal settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return raffle.Settlement{}, err
	}
	return settlement, nil
}

func putSettlementInBucket(bucket *bbolt.Bucket, settlement raffle.Settlement) error {
	payload, err := json.Marshal(settlement)
	if err != nil {
		return fmt.Errorf("marshal settlement: %w", err)
	}
	if err := bucket.Put([]byte(settlement.RaffleKey), payload); err != nil {
		return fmt.Errorf("put settlement: %w", err)
	}
	return nil
}
