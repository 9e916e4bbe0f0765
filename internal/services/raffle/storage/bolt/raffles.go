package bolt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	bbolt "go.etcd.io/bbolt"
)

// CreateRaffle inserts a new raffle record and debits the storage deposit
// from the creator account in the same update.
func (s *Store) CreateRaffle(ctx context.Context, r raffle.Raffle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		raffles := tx.Bucket([]byte(raffleBucket))
		if raffles == nil {
			return fmt.Errorf("raffle bucket is missing")
		}
		if raffles.Get([]byte(r.Key)) != nil {
			return storage.ErrAlreadyExists
		}

		// A settled key is retired for good: its ticket and settlement
		// audit records stay bound to it.
		settlements := tx.Bucket([]byte(settlementBucket))
		if settlements == nil {
			return fmt.Errorf("settlement bucket is missing")
		}
		if settlements.Get([]byte(r.Key)) != nil {
			return storage.ErrAlreadyExists
		}

		if r.Deposit > 0 {
			accounts := tx.Bucket([]byte(accountBucket))
			if accounts == nil {
				return fmt.Errorf("account bucket is missing")
			}
			if err := debitAccountInBucket(accounts, r.Creator, r.Deposit, r.CreatedAt); err != nil {
				return err
			}
		}

		return putRaffleInBucket(raffles, r)
	})
}

// GetRaffle retrieves a live raffle record by key. The buyer sequence is
// stored inline with the record, so one bucket read is the whole load.
func (s *Store) GetRaffle(ctx context.Context, key string) (raffle.Raffle, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Raffle{}, err
	}
	if s == nil || s.db == nil {
		return raffle.Raffle{}, fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return raffle.Raffle{}, fmt.Errorf("raffle key is required")
	}

	var r raffle.Raffle
	err := s.db.View(func(tx *bbolt.Tx) error {
		raffles := tx.Bucket([]byte(raffleBucket))
		if raffles == nil {
			return fmt.Errorf("raffle bucket is missing")
		}
		loaded, err := getRaffleFromBucket(raffles, key)
		if err != nil {
			return err
		}
		r = loaded
		return nil
	})
	if err != nil {
		return raffle.Raffle{}, err
	}
	return r, nil
}

// RecordPurchase debits the payment from the buyer account, applies the
// updated raffle record through a version compare-and-set, and stores the
// ticket, all in one update.
func (s *Store) RecordPurchase(ctx context.Context, updated raffle.Raffle, ticket raffle.Ticket, payment uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(updated.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}
	if strings.TrimSpace(ticket.Key) == "" {
		return fmt.Errorf("ticket key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		raffles := tx.Bucket([]byte(raffleBucket))
		if raffles == nil {
			return fmt.Errorf("raffle bucket is missing")
		}
		current, err := getRaffleFromBucket(raffles, updated.Key)
		if err != nil {
			return err
		}
		if current.Version != updated.Version {
			return storage.ErrVersionConflict
		}

		accounts := tx.Bucket([]byte(accountBucket))
		if accounts == nil {
			return fmt.Errorf("account bucket is missing")
		}
		if err := debitAccountInBucket(accounts, ticket.Buyer, payment, ticket.PurchasedAt); err != nil {
			return err
		}

		tickets := tx.Bucket([]byte(ticketBucket))
		if tickets == nil {
			return fmt.Errorf("ticket bucket is missing")
		}
		if err := putTicketInBucket(tickets, ticket); err != nil {
			return err
		}

		next := updated
		next.Version = updated.Version + 1
		return putRaffleInBucket(raffles, next)
	})
}

// SettleRaffle reclaims the raffle record, credits the winner and creator
// shares, refunds the storage deposit, and writes the settlement record, all
// in one update. Tickets survive as the audit trail.
func (s *Store) SettleRaffle(ctx context.Context, settled raffle.Raffle, settlement raffle.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(settled.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		raffles := tx.Bucket([]byte(raffleBucket))
		if raffles == nil {
			return fmt.Errorf("raffle bucket is missing")
		}
		current, err := getRaffleFromBucket(raffles, settled.Key)
		if err != nil {
			return err
		}
		if current.Version != settled.Version {
			return storage.ErrVersionConflict
		}
		if err := raffles.Delete([]byte(settled.Key)); err != nil {
			return fmt.Errorf("delete raffle: %w", err)
		}

		accounts := tx.Bucket([]byte(accountBucket))
		if accounts == nil {
			return fmt.Errorf("account bucket is missing")
		}
		if _, err := creditAccountInBucket(accounts, settlement.Winner, settlement.WinnerShare, settlement.SettledAt); err != nil {
			return err
		}
		if _, err := creditAccountInBucket(accounts, settled.Creator, settlement.CreatorShare, settlement.SettledAt); err != nil {
			return err
		}
		if settled.Deposit > 0 {
			if _, err := creditAccountInBucket(accounts, settled.Creator, settled.Deposit, settlement.SettledAt); err != nil {
				return err
			}
		}

		settlements := tx.Bucket([]byte(settlementBucket))
		if settlements == nil {
			return fmt.Errorf("settlement bucket is missing")
		}
		return putSettlementInBucket(settlements, settlement)
	})
}

// CancelRaffle reclaims the raffle record and refunds the storage deposit to
// the creator in one update, freeing the key for reuse.
func (s *Store) CancelRaffle(ctx context.Context, r raffle.Raffle, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("raffle key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		raffles := tx.Bucket([]byte(raffleBucket))
		if raffles == nil {
			return fmt.Errorf("raffle bucket is missing")
		}
		current, err := getRaffleFromBucket(raffles, r.Key)
		if err != nil {
			return err
		}
		if current.Version != r.Version {
			return storage.ErrVersionConflict
		}
		if err := raffles.Delete([]byte(r.Key)); err != nil {
			return fmt.Errorf("delete raffle: %w", err)
		}

		if r.Deposit > 0 {
			accounts := tx.Bucket([]byte(accountBucket))
			if accounts == nil {
				return fmt.Errorf("account bucket is missing")
			}
			if _, err := creditAccountInBucket(accounts, r.Creator, r.Deposit, at); err != nil {
				return err
			}
		}
		return nil
	})
}
