package storage

import (
	"context"
	"time"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates a create against a raffle key that is taken,
// either by a live record or by a settled one whose audit trail retires the
// key permanently.
var ErrAlreadyExists = apperrors.New(apperrors.CodeRaffleExists, "raffle key already exists")

// ErrVersionConflict indicates a mutation lost the per-key write race: the
// record changed after the caller loaded it. Nothing was applied; the caller
// may reload and retry.
var ErrVersionConflict = apperrors.New(apperrors.CodeVersionConflict, "raffle record version conflict")

// ErrInsufficientFunds indicates an account debit larger than the balance.
// Accounts that were never credited debit as zero-balance accounts.
var ErrInsufficientFunds = apperrors.New(apperrors.CodeAccountInsufficientFunds, "account balance is insufficient")

// ErrLedgerOverflow indicates a credit that would push an account balance
// past MaxLedgerAmount. Nothing was applied.
var ErrLedgerOverflow = apperrors.New(apperrors.CodeMathOverflow, "account balance would exceed the ledger range")

// RaffleStore owns the raffle record lifecycle. Mutations that move value are
// composite: the record write and its account movements commit or fail as one
// unit, and every write against an existing record is a compare-and-set on
// the version the caller loaded.
type RaffleStore interface {
	// CreateRaffle inserts a new raffle record and debits the storage
	// deposit from the creator account. Fails with ErrAlreadyExists when the
	// key is taken and ErrInsufficientFunds when the creator cannot cover
	// the deposit.
	CreateRaffle(ctx context.Context, r raffle.Raffle) error
	// GetRaffle retrieves a live raffle record by key, including its
	// canonical buyer sequence.
	GetRaffle(ctx context.Context, key string) (raffle.Raffle, error)
	// RecordPurchase debits the payment from the buyer account, stores the
	// ticket, and applies the updated raffle record. Fails with
	// ErrVersionConflict when the record moved past updated.Version.
	RecordPurchase(ctx context.Context, updated raffle.Raffle, ticket raffle.Ticket, payment uint64) error
	// SettleRaffle credits the winner and creator shares, refunds the
	// storage deposit to the creator, writes the settlement record, and
	// reclaims the raffle record. Tickets survive as the audit trail.
	SettleRaffle(ctx context.Context, settled raffle.Raffle, settlement raffle.Settlement) error
	// CancelRaffle refunds the storage deposit to the creator and reclaims
	// the raffle record, freeing its key for reuse. The refund credit is
	// stamped with at.
	CancelRaffle(ctx context.Context, r raffle.Raffle, at time.Time) error
}

// TicketStore owns the write-once ticket audit trail. Tickets are written
// through RecordPurchase and never mutated afterwards.
type TicketStore interface {
	// GetTicket retrieves one ticket by raffle key and sequence number.
	GetTicket(ctx context.Context, raffleKey string, number uint32) (raffle.Ticket, error)
	// ListTickets returns all tickets for a raffle in sequence order.
	ListTickets(ctx context.Context, raffleKey string) ([]raffle.Ticket, error)
}

// AccountStore owns identity balances. Accounts are created on first credit;
// debits happen only inside composite raffle mutations.
type AccountStore interface {
	// CreditAccount adds amount to an account balance, creating the account
	// when absent, and returns the updated account stamped with at. Fails
	// with ErrLedgerOverflow when the credit would push the balance past
	// MaxLedgerAmount.
	CreditAccount(ctx context.Context, identity string, amount uint64, at time.Time) (raffle.Account, error)
	// GetAccount retrieves an account by identity.
	GetAccount(ctx context.Context, identity string) (raffle.Account, error)
}

// SettlementStore owns the write-once settlement outcomes that outlive
// reclaimed raffle records.
type SettlementStore interface {
	// GetSettlement retrieves the settlement record for a raffle key.
	GetSettlement(ctx context.Context, raffleKey string) (raffle.Settlement, error)
}

// Store is the composite contract for all raffle persistence concerns.
type Store interface {
	RaffleStore
	TicketStore
	AccountStore
	SettlementStore
	Close() error
}
