package raffle

import "time"

// Prize split: the winner takes 90%, the creator keeps the remainder.
const (
	winnerPercent = 90
	fullPercent   = 100
)

// Settlement records the final outcome of a raffle draw. It is written in
// the same atomic step that reclaims the raffle record, so the result stays
// verifiable after the live record is gone.
type Settlement struct {
	RaffleKey    string
	RaffleID     uint64
	Creator      string
	Winner       string
	WinnerShare  uint64
	CreatorShare uint64
	// Beacon is the randomness value the draw used.
	Beacon    uint64
	TotalSold uint32
	SettledAt time.Time
}

// SplitPrize divides the held balance between winner and creator. The
// creator share is the subtraction remainder, so the two shares always sum
// exactly to the balance and the creator absorbs the rounding. Splitting
// the quotient and remainder of the balance keeps the intermediate products
// inside uint64 for any balance, so a raffle that filled up under the input
// bounds can always settle.
func SplitPrize(heldBalance uint64) (winnerShare, creatorShare uint64) {
	winnerShare = heldBalance / fullPercent * winnerPercent
	winnerShare += heldBalance % fullPercent * winnerPercent / fullPercent
	creatorShare = heldBalance - winnerShare
	return winnerShare, creatorShare
}

// Settle finalizes an ended raffle with a selection result: shares are
// computed from the held balance, the winner is recorded, and the record
// moves to completed with its balance drained.
func Settle(r Raffle, selection Selection, beacon uint64, now func() time.Time) (Raffle, Settlement, error) {
	if now == nil {
		now = time.Now
	}

	winnerShare, creatorShare := SplitPrize(r.HeldBalance)

	completed, err := TransitionStatus(r, StatusCompleted, now)
	if err != nil {
		return Raffle{}, Settlement{}, err
	}
	completed.Winner = selection.Winner
	completed.HeldBalance = 0

	settlement := Settlement{
		RaffleKey:    r.Key,
		RaffleID:     r.RaffleID,
		Creator:      r.Creator,
		Winner:       selection.Winner,
		WinnerShare:  winnerShare,
		CreatorShare: creatorShare,
		Beacon:       beacon,
		TotalSold:    r.TotalSold,
		SettledAt:    completed.UpdatedAt,
	}

	return completed, settlement, nil
}
