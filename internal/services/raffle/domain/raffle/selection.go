package raffle

import apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"

// Selection is the outcome of resolving a winning index to an identity.
type Selection struct {
	// Index is the position in the canonical buyer sequence.
	Index uint32
	// Winner is the identity at Index.
	Winner string
}

// SelectWinner derives the winning index from the beacon and resolves it
// against the raffle's stored buyer sequence. The candidate set acts as the
// settlement payee whitelist: the resolved winner must appear in it or the
// draw is rejected, which covers callers that submitted a stale or
// incomplete set. Selection never mutates the raffle.
func SelectWinner(r Raffle, beacon uint64, candidates []string) (Selection, error) {
	if r.Status != StatusEnded {
		return Selection{}, ErrRaffleNotEnded
	}
	if r.TotalSold == 0 {
		return Selection{}, ErrNoTicketsSold
	}
	if int(r.TotalSold) != len(r.Buyers) {
		return Selection{}, apperrors.New(apperrors.CodeUnknown, "buyer sequence does not match tickets sold")
	}

	index := uint32(beacon % uint64(r.TotalSold))
	winner := r.Buyers[index]
	if !containsIdentity(candidates, winner) {
		return Selection{}, ErrInvalidWinningTicket
	}

	return Selection{Index: index, Winner: winner}, nil
}

func containsIdentity(identities []string, target string) bool {
	for _, identity := range identities {
		if identity == target {
			return true
		}
	}
	return false
}
