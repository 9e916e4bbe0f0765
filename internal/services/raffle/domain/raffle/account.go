package raffle

import (
	"math"
	"time"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
)

// MaxLedgerAmount bounds any single ledger amount to the signed 64-bit range
// the stores persist balances in.
const MaxLedgerAmount = math.MaxInt64

// ErrInvalidAmount indicates a deposit amount of zero or beyond the ledger range.
var ErrInvalidAmount = apperrors.New(apperrors.CodeAccountInvalidAmount, "amount is out of range")

// Account holds the ledger balance for one identity. Accounts are created on
// first credit and debited only inside composite raffle mutations.
type Account struct {
	Identity string
	// Balance is in the smallest currency unit.
	Balance   uint64
	UpdatedAt time.Time
}

// ValidateDepositAmount checks a deposit credit before it reaches the ledger.
func ValidateDepositAmount(amount uint64) error {
	if amount == 0 || amount > MaxLedgerAmount {
		return ErrInvalidAmount
	}
	return nil
}
