package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	bbolt "go.etcd.io/bbolt"
)

// CreditAccount adds amount to an account balance, creating the account when
// absent, and returns the updated account.
func (s *Store) CreditAccount(ctx context.Context, identity string, amount uint64, at time.Time) (raffle.Account, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Account{}, err
	}
	if s == nil || s.db == nil {
		return raffle.Account{}, fmt.Errorf("storage is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, fmt.Errorf("identity is required")
	}

	var account raffle.Account
	err := s.db.Update(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket([]byte(accountBucket))
		if accounts == nil {
			return fmt.Errorf("account bucket is missing")
		}
		credited, err := creditAccountInBucket(accounts, identity, amount, at)
		if err != nil {
			return err
		}
		account = credited
		return nil
	})
	if err != nil {
		return raffle.Account{}, err
	}
	return account, nil
}

// GetAccount retrieves an account by identity.
func (s *Store) GetAccount(ctx context.Context, identity string) (raffle.Account, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Account{}, err
	}
	if s == nil || s.db == nil {
		return raffle.Account{}, fmt.Errorf("storage is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, fmt.Errorf("identity is required")
	}

	var account raffle.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket([]byte(accountBucket))
		if accounts == nil {
			return fmt.Errorf("account bucket is missing")
		}
		loaded, ok, err := getAccountFromBucket(accounts, identity)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		account = loaded
		return nil
	})
	if err != nil {
		return raffle.Account{}, err
	}
	return account, nil
}

// getAccountFromBucket loads one account payload; ok reports whether the
// identity has an account yet.
func getAccountFromBucket(bucket *bbolt.Bucket, identity string) (raffle.Account, bool, error) {
	payload := bucket.Get([]byte(identity))
	if payload == nil {
		return raffle.Account{}, false, nil
	}
	var account raffle.Account
	if err := json.Unmarshal(payload, &account); err != nil {
		return raffle.Account{}, false, fmt.Errorf("unmarshal account: %w", err)
	}
	return account, true, nil
}

// creditAccountInBucket adds amount to an account, creating it when absent.
// The credit is checked against MaxLedgerAmount so the balance never wraps.
func creditAccountInBucket(bucket *bbolt.Bucket, identity string, amount uint64, at time.Time) (raffle.Account, error) {
	account, ok, err := getAccountFromBucket(bucket, identity)
	if err != nil {
		return raffle.Account{}, err
	}
	if !ok {
		account = raffle.Account{Identity: identity}
	}
	if amount > raffle.MaxLedgerAmount-account.Balance {
		return raffle.Account{}, storage.ErrLedgerOverflow
	}
	account.Balance += amount
	account.UpdatedAt = at.UTC()

	payload, err := json.Marshal(account)
	if err != nil {
		return raffle.Account{}, fmt.Errorf("marshal account: %w", err)
	}
	if err := bucket.Put([]byte(identity), payload); err != nil {
		return raffle.Account{}, fmt.Errorf("put account: %w", err)
	}
	return account, nil
}

// debitAccountInBucket subtracts amount from an account. Identities that were
// never credited debit as zero-balance accounts.
func debitAccountInBucket(bucket *bbolt.Bucket, identity string, amount uint64, at time.Time) error {
	if amount == 0 {
		return nil
	}
	account, ok, err := getAccountFromBucket(bucket, identity)
	if err != nil {
		return err
	}
	if !ok || account.Balance < amount {
		return storage.ErrInsufficientFunds
	}
	account.Balance -= amount
	account.UpdatedAt = at.UTC()

	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	if err := bucket.Put([]byte(identity), payload); err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}
