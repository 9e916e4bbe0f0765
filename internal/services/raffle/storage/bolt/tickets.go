package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	bbolt "go.etcd.io/bbolt"
)

// GetTicket retrieves one ticket by raffle key and sequence number.
func (s *Store) GetTicket(ctx context.Context, raffleKey string, number uint32) (raffle.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return raffle.Ticket{}, err
	}
	if s == nil || s.db == nil {
		return raffle.Ticket{}, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return raffle.Ticket{}, fmt.Errorf("raffle key is required")
	}

	var ticket raffle.Ticket
	err := s.db.View(func(tx *bbolt.Tx) error {
		tickets := tx.Bucket([]byte(ticketBucket))
		if tickets == nil {
			return fmt.Errorf("ticket bucket is missing")
		}
		payload := tickets.Get(ticketKey(raffleKey, number))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &ticket); err != nil {
			return fmt.Errorf("unmarshal ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return raffle.Ticket{}, err
	}
	return ticket, nil
}

// ListTickets returns all tickets for a raffle in sequence order. Ticket keys
// end in the big-endian sequence number, so a prefix cursor scan already
// yields them in order.
func (s *Store) ListTickets(ctx context.Context, raffleKey string) ([]raffle.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	raffleKey = strings.TrimSpace(raffleKey)
	if raffleKey == "" {
		return nil, fmt.Errorf("raffle key is required")
	}

	var tickets []raffle.Ticket
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ticketBucket))
		if bucket == nil {
			return fmt.Errorf("ticket bucket is missing")
		}

		prefix := ticketKeyPrefix(raffleKey)
		cursor := bucket.Cursor()
		for key, payload := cursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, payload = cursor.Next() {
			var ticket raffle.Ticket
			if err := json.Unmarshal(payload, &ticket); err != nil {
				return fmt.Errorf("unmarshal ticket: %w", err)
			}
			tickets = append(tickets, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// putTicketInBucket encodes and stores one ticket payload.
func putTicketInBucket(bucket *bbolt.Bucket, ticket raffle.Ticket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	if err := bucket.Put(ticketKey(ticket.RaffleKey, ticket.Number), payload); err != nil {
		return fmt.Errorf("put ticket: %w", err)
	}
	return nil
}

// ticketKey builds the bucket key raffleKey/number with the number in
// big-endian so byte order matches sequence order.
func ticketKey(raffleKey string, number uint32) []byte {
	key := ticketKeyPrefix(raffleKey)
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], number)
	return append(key, seq[:]...)
}

func ticketKeyPrefix(raffleKey string) []byte {
	key := make([]byte, 0, len(raffleKey)+5)
	key = append(key, raffleKey...)
	return append(key, '/')
}
