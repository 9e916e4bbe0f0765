package raffle

import (
	"strings"
	"time"
)

// Ticket is the immutable proof of one purchase. Tickets are written once
// and kept as the purchase audit trail after the raffle is finalized.
type Ticket struct {
	Key       string
	RaffleKey string
	Buyer     string
	// Number is the 0-indexed position in the raffle's purchase order.
	// Numbers are contiguous and never reassigned.
	Number      uint32
	PurchasedAt time.Time
}

// IssueTicket applies one ticket purchase to an active raffle. It returns
// the updated raffle and the new ticket; when the purchase fills the last
// slot the raffle transitions to ended in the same step, so there is no
// window where a full raffle still sells.
func IssueTicket(r Raffle, buyer string, payment uint64, now func() time.Time) (Raffle, Ticket, error) {
	if now == nil {
		now = time.Now
	}
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return Raffle{}, Ticket{}, ErrEmptyIdentity
	}
	if r.Status != StatusActive {
		return Raffle{}, Ticket{}, ErrRaffleNotActive
	}
	if r.TotalSold >= r.MaxTickets {
		return Raffle{}, Ticket{}, ErrRaffleSoldOut
	}
	if payment != r.TicketPrice {
		return Raffle{}, Ticket{}, ErrPaymentMismatch
	}

	purchasedAt := now().UTC()
	ticket := Ticket{
		Key:         TicketKey(r.Key, r.TotalSold),
		RaffleKey:   r.Key,
		Buyer:       buyer,
		Number:      r.TotalSold,
		PurchasedAt: purchasedAt,
	}

	heldBalance := r.HeldBalance + payment
	if heldBalance < r.HeldBalance {
		return Raffle{}, Ticket{}, ErrMathOverflow
	}

	updated := r
	updated.Buyers = append(append([]string(nil), r.Buyers...), buyer)
	updated.TotalSold = r.TotalSold + 1
	updated.HeldBalance = heldBalance
	updated.UpdatedAt = purchasedAt

	if updated.TotalSold == updated.MaxTickets {
		ended, err := TransitionStatus(updated, StatusEnded, now)
		if err != nil {
			return Raffle{}, Ticket{}, err
		}
		updated = ended
	}

	return updated, ticket, nil
}
