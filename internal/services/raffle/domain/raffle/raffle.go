// Package raffle holds the domain model for raffle records and the pure
// rules that mutate them: creation, ticket issuance, winner selection, and
// prize settlement. Persistence and payments live behind the storage layer;
// everything here is side-effect free.
package raffle

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
)

// Status describes the lifecycle of a raffle.
type Status int

const (
	// StatusUnspecified represents an invalid raffle status value.
	StatusUnspecified Status = iota
	// StatusActive indicates tickets are on sale.
	StatusActive
	// StatusEnded indicates the sale period is over and a draw is pending.
	StatusEnded
	// StatusCompleted indicates a winner was paid and the record finalized.
	StatusCompleted
)

// MaxTicketCapacity caps how many tickets a single raffle may sell.
const MaxTicketCapacity = 20

// MaxTicketPrice keeps a sold-out raffle's held balance within the ledger
// amount range.
const MaxTicketPrice = MaxLedgerAmount / MaxTicketCapacity

var (
	// ErrEmptyIdentity indicates a missing caller, creator, or buyer identity.
	ErrEmptyIdentity = apperrors.New(apperrors.CodeIdentityMissing, "identity is required")
	// ErrInvalidTicketPrice indicates a non-positive ticket price.
	ErrInvalidTicketPrice = apperrors.New(apperrors.CodeRaffleInvalidTicketPrice, "ticket price must be greater than zero")
	// ErrInvalidMaxTickets indicates a ticket cap outside the allowed range.
	ErrInvalidMaxTickets = apperrors.New(apperrors.CodeRaffleInvalidMaxTickets, "max tickets is out of range")
	// ErrInvalidEndTime indicates an end time that is not in the future.
	ErrInvalidEndTime = apperrors.New(apperrors.CodeRaffleInvalidEndTime, "end time must be in the future")
	// ErrRaffleNotActive indicates an operation that requires an active raffle.
	ErrRaffleNotActive = apperrors.New(apperrors.CodeRaffleNotActive, "raffle is not active")
	// ErrRaffleSoldOut indicates a purchase against a raffle at capacity.
	ErrRaffleSoldOut = apperrors.New(apperrors.CodeRaffleSoldOut, "raffle is sold out")
	// ErrPaymentMismatch indicates a payment that differs from the ticket price.
	ErrPaymentMismatch = apperrors.New(apperrors.CodeTicketPaymentMismatch, "payment must equal the ticket price")
	// ErrRaffleNotEnded indicates a draw against a raffle still selling tickets.
	ErrRaffleNotEnded = apperrors.New(apperrors.CodeRaffleNotEnded, "raffle has not ended")
	// ErrNoTicketsSold indicates a draw against a raffle with zero sales.
	ErrNoTicketsSold = apperrors.New(apperrors.CodeRaffleNoTicketsSold, "raffle has no tickets sold")
	// ErrInvalidWinningTicket indicates the winner is absent from the candidate set.
	ErrInvalidWinningTicket = apperrors.New(apperrors.CodeDrawInvalidWinningTicket, "winning identity is not in the candidate set")
	// ErrMathOverflow indicates checked arithmetic failed closed.
	ErrMathOverflow = apperrors.New(apperrors.CodeMathOverflow, "arithmetic overflow")
	// ErrUnauthorized indicates the caller does not own the raffle.
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not the raffle creator")
	// ErrCannotCancelWithTickets indicates a cancel attempt after sales started.
	ErrCannotCancelWithTickets = apperrors.New(apperrors.CodeRaffleCannotCancelWithTickets, "raffle with sold tickets cannot be cancelled")
)

// Raffle represents the aggregate sale state for one raffle instance.
type Raffle struct {
	// Key is the derived composite key for (creator identity, raffle id).
	Key     string
	Creator string
	// RaffleID distinguishes raffles of the same creator.
	RaffleID uint64
	// TicketPrice is in the smallest currency unit.
	TicketPrice uint64
	MaxTickets  uint32
	// EndTime closes the sale period; expiry is applied lazily at draw time.
	EndTime   time.Time
	TotalSold uint32
	// Buyers is the canonical buyer sequence: Buyers[n] bought ticket n.
	Buyers []string
	// Winner is set only when Status is StatusCompleted.
	Winner string
	Status Status
	// HeldBalance is the prize pool collected from ticket sales.
	HeldBalance uint64
	// Deposit is the storage reservation debited from the creator at
	// creation and returned when the record is reclaimed.
	Deposit   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version is the optimistic concurrency token. Storage increments it on
	// every successful write and rejects writes against a stale version.
	Version uint64
}

// CreateRaffleInput describes the parameters needed to create a raffle.
type CreateRaffleInput struct {
	Creator     string
	RaffleID    uint64
	TicketPrice uint64
	MaxTickets  uint32
	EndTime     time.Time
	Deposit     uint64
}

// CreateRaffle validates input and returns a new active raffle with a
// derived key and zero tickets sold.
func CreateRaffle(input CreateRaffleInput, now func() time.Time) (Raffle, error) {
	if now == nil {
		now = time.Now
	}

	normalized, err := NormalizeCreateRaffleInput(input)
	if err != nil {
		return Raffle{}, err
	}

	createdAt := now().UTC()
	if !normalized.EndTime.After(createdAt) {
		return Raffle{}, ErrInvalidEndTime
	}

	return Raffle{
		Key:         Key(normalized.Creator, normalized.RaffleID),
		Creator:     normalized.Creator,
		RaffleID:    normalized.RaffleID,
		TicketPrice: normalized.TicketPrice,
		MaxTickets:  normalized.MaxTickets,
		EndTime:     normalized.EndTime.UTC(),
		Status:      StatusActive,
		Deposit:     normalized.Deposit,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeCreateRaffleInput trims and validates raffle creation input.
// End time validation happens in CreateRaffle because it needs the clock.
func NormalizeCreateRaffleInput(input CreateRaffleInput) (CreateRaffleInput, error) {
	input.Creator = strings.TrimSpace(input.Creator)
	if input.Creator == "" {
		return CreateRaffleInput{}, ErrEmptyIdentity
	}
	if input.TicketPrice == 0 || input.TicketPrice > MaxTicketPrice {
		return CreateRaffleInput{}, ErrInvalidTicketPrice
	}
	if input.MaxTickets == 0 || input.MaxTickets > MaxTicketCapacity {
		return CreateRaffleInput{}, ErrInvalidMaxTickets
	}
	if input.Deposit > MaxLedgerAmount {
		return CreateRaffleInput{}, ErrInvalidAmount
	}
	return input, nil
}

// TransitionStatus applies a status transition and updates the timestamp.
func TransitionStatus(r Raffle, target Status, now func() time.Time) (Raffle, error) {
	if now == nil {
		now = time.Now
	}
	if !isStatusTransitionAllowed(r.Status, target) {
		fromStatus := StatusLabel(r.Status)
		toStatus := StatusLabel(target)
		return Raffle{}, apperrors.WithMetadata(
			apperrors.CodeRaffleInvalidStatusTransition,
			fmt.Sprintf("raffle status transition not allowed: %s -> %s", fromStatus, toStatus),
			map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
		)
	}

	updated := r
	updated.Status = target
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// EndIfExpired transitions an active raffle to ended once its end time has
// passed. Raffles that are not yet due come back unchanged. The transition
// becomes durable only when the caller persists it, so a failed draw leaves
// the stored record untouched.
func EndIfExpired(r Raffle, now func() time.Time) (Raffle, error) {
	if now == nil {
		now = time.Now
	}
	if r.Status != StatusActive {
		return r, nil
	}
	if now().UTC().Before(r.EndTime) {
		return r, nil
	}
	return TransitionStatus(r, StatusEnded, now)
}

// CanCancel reports whether caller may reclaim the raffle record. Only the
// creator may cancel, and only before any ticket is sold.
func CanCancel(r Raffle, caller string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return ErrEmptyIdentity
	}
	if caller != r.Creator {
		return ErrUnauthorized
	}
	if r.TotalSold != 0 {
		return ErrCannotCancelWithTickets
	}
	return nil
}

// isStatusTransitionAllowed reports whether a status transition is permitted.
// Transitions are one-directional and never revisit a state.
func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusEnded
	case StatusEnded:
		return to == StatusCompleted
	default:
		return false
	}
}

// StatusLabel returns a stable label for a raffle status.
func StatusLabel(status Status) string {
	switch status {
	case StatusActive:
		return "ACTIVE"
	case StatusEnded:
		return "ENDED"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status. It trims whitespace
// and matches case-insensitively. Both short ("ACTIVE") and prefixed
// ("RAFFLE_STATUS_ACTIVE") forms are accepted.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("raffle status is required")
	}
	upper := strings.ToUpper(trimmed)
	switch upper {
	case "ACTIVE", "RAFFLE_STATUS_ACTIVE":
		return StatusActive, nil
	case "ENDED", "RAFFLE_STATUS_ENDED":
		return StatusEnded, nil
	case "COMPLETED", "RAFFLE_STATUS_COMPLETED":
		return StatusCompleted, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown raffle status: %s", trimmed)
	}
}
