package bolt

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	bbolt "go.etcd.io/bbolt"
)

const (
	raffleBucket     = "raffle"
	ticketBucket     = "ticket"
	accountBucket    = "account"
	settlementBucket = "settlement"
)

// Store provides a bbolt-backed raffle store.
type Store struct {
	db *bbolt.DB
}

// Open opens a bbolt-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{raffleBucket, ticketBucket, accountBucket, settlementBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// getRaffleFromBucket loads and decodes one raffle payload.
func getRaffleFromBucket(bucket *bbolt.Bucket, key string) (raffle.Raffle, error) {
	payload := bucket.Get([]byte(key))
	if payload == nil {
		return raffle.Raffle{}, storage.ErrNotFound
	}
	var r raffle.Raffle
	if err := json.Unmarshal(payload, &r); err != nil {
		return raffle.Raffle{}, fmt.Errorf("unmarshal raffle: %w", err)
	}
	return r, nil
}

// putRaffleInBucket encodes and stores one raffle payload.
func putRaffleInBucket(bucket *bbolt.Bucket, r raffle.Raffle) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal raffle: %w", err)
	}
	if err := bucket.Put([]byte(r.Key), payload); err != nil {
		return fmt.Errorf("put raffle: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
