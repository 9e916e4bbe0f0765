// Package storage defines the persistence contract for the raffle ledger.
//
// It covers raffle records, the write-once ticket audit trail, identity
// account balances, and settlement outcomes. Implementations (SQLite, bbolt)
// live in subpackages and must apply every composite mutation atomically.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrAlreadyExists: raffle key is taken or retired
//   - ErrVersionConflict: mutation lost the per-key write race
//   - ErrInsufficientFunds: account debit larger than the balance
package storage
