package raffle

import (
	"errors"
	"testing"
	"time"
)

func TestCreateRaffle(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	input := CreateRaffleInput{
		Creator:     "  creator-1  ",
		RaffleID:    7,
		TicketPrice: 100,
		MaxTickets:  5,
		EndTime:     fixedTime.Add(24 * time.Hour),
		Deposit:     50,
	}

	created, err := CreateRaffle(input, func() time.Time { return fixedTime })
	if err != nil {
		t.Fatalf("create raffle: %v", err)
	}

	if created.Creator != "creator-1" {
		t.Fatalf("expected trimmed creator, got %q", created.Creator)
	}
	if created.Key != Key("creator-1", 7) {
		t.Fatalf("expected derived key, got %q", created.Key)
	}
	if created.Status != StatusActive {
		t.Fatalf("expected status ACTIVE, got %v", created.Status)
	}
	if created.TotalSold != 0 {
		t.Fatalf("expected 0 tickets sold, got %d", created.TotalSold)
	}
	if len(created.Buyers) != 0 {
		t.Fatalf("expected empty buyer sequence, got %d", len(created.Buyers))
	}
	if created.Winner != "" {
		t.Fatalf("expected no winner, got %q", created.Winner)
	}
	if created.HeldBalance != 0 {
		t.Fatalf("expected zero held balance, got %d", created.HeldBalance)
	}
	if created.Deposit != 50 {
		t.Fatalf("expected deposit 50, got %d", created.Deposit)
	}
	if !created.CreatedAt.Equal(fixedTime) || !created.UpdatedAt.Equal(fixedTime) {
		t.Fatal("expected timestamps to match fixed time")
	}
}

func TestCreateRaffleValidation(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := fixedTime.Add(time.Hour)

	tests := []struct {
		name  string
		input CreateRaffleInput
		err   error
	}{
		{
			name: "empty creator",
			input: CreateRaffleInput{
				Creator:     "   ",
				TicketPrice: 1,
				MaxTickets:  1,
				EndTime:     future,
			},
			err: ErrEmptyIdentity,
		},
		{
			name: "zero ticket price",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 0,
				MaxTickets:  1,
				EndTime:     future,
			},
			err: ErrInvalidTicketPrice,
		},
		{
			name: "zero max tickets",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 1,
				MaxTickets:  0,
				EndTime:     future,
			},
			err: ErrInvalidMaxTickets,
		},
		{
			name: "max tickets above capacity",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 1,
				MaxTickets:  MaxTicketCapacity + 1,
				EndTime:     future,
			},
			err: ErrInvalidMaxTickets,
		},
		{
			name: "ticket price above ledger range",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: MaxTicketPrice + 1,
				MaxTickets:  1,
				EndTime:     future,
			},
			err: ErrInvalidTicketPrice,
		},
		{
			name: "deposit above ledger range",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 1,
				MaxTickets:  1,
				EndTime:     future,
				Deposit:     MaxLedgerAmount + 1,
			},
			err: ErrInvalidAmount,
		},
		{
			name: "end time in the past",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 1,
				MaxTickets:  1,
				EndTime:     fixedTime.Add(-time.Minute),
			},
			err: ErrInvalidEndTime,
		},
		{
			name: "end time equal to creation time",
			input: CreateRaffleInput{
				Creator:     "creator-1",
				TicketPrice: 1,
				MaxTickets:  1,
				EndTime:     fixedTime,
			},
			err: ErrInvalidEndTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateRaffle(tt.input, func() time.Time { return fixedTime })
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
		})
	}
}

func TestCreateRaffleAcceptsCapacityLimit(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	input := CreateRaffleInput{
		Creator:     "creator-1",
		RaffleID:    1,
		TicketPrice: 1,
		MaxTickets:  MaxTicketCapacity,
		EndTime:     fixedTime.Add(time.Hour),
	}
	if _, err := CreateRaffle(input, func() time.Time { return fixedTime }); err != nil {
		t.Fatalf("create raffle at capacity limit: %v", err)
	}
}

func TestTransitionStatus(t *testing.T) {
	baseTime := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	transitionTime := baseTime.Add(time.Hour)

	t.Run("active to ended", func(t *testing.T) {
		updated, err := TransitionStatus(Raffle{Status: StatusActive, UpdatedAt: baseTime}, StatusEnded, func() time.Time {
			return transitionTime
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if updated.Status != StatusEnded {
			t.Fatalf("expected status ENDED, got %v", updated.Status)
		}
		if !updated.UpdatedAt.Equal(transitionTime) {
			t.Fatalf("expected updated_at %v, got %v", transitionTime, updated.UpdatedAt)
		}
	})

	t.Run("ended to completed", func(t *testing.T) {
		updated, err := TransitionStatus(Raffle{Status: StatusEnded}, StatusCompleted, func() time.Time {
			return transitionTime
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if updated.Status != StatusCompleted {
			t.Fatalf("expected status COMPLETED, got %v", updated.Status)
		}
	})

	disallowed := []struct {
		name string
		from Status
		to   Status
	}{
		{"active to completed", StatusActive, StatusCompleted},
		{"ended to active", StatusEnded, StatusActive},
		{"completed to active", StatusCompleted, StatusActive},
		{"completed to ended", StatusCompleted, StatusEnded},
		{"active to active", StatusActive, StatusActive},
		{"unspecified to active", StatusUnspecified, StatusActive},
	}
	for _, tt := range disallowed {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransitionStatus(Raffle{Status: tt.from}, tt.to, nil)
			if err == nil {
				t.Fatalf("expected %s transition to fail", tt.name)
			}
		})
	}
}

func TestEndIfExpired(t *testing.T) {
	endTime := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)
	active := Raffle{Status: StatusActive, EndTime: endTime}

	t.Run("before end time", func(t *testing.T) {
		updated, err := EndIfExpired(active, func() time.Time { return endTime.Add(-time.Second) })
		if err != nil {
			t.Fatalf("end if expired: %v", err)
		}
		if updated.Status != StatusActive {
			t.Fatalf("expected status ACTIVE, got %v", updated.Status)
		}
	})

	t.Run("at end time", func(t *testing.T) {
		updated, err := EndIfExpired(active, func() time.Time { return endTime })
		if err != nil {
			t.Fatalf("end if expired: %v", err)
		}
		if updated.Status != StatusEnded {
			t.Fatalf("expected status ENDED, got %v", updated.Status)
		}
	})

	t.Run("already ended", func(t *testing.T) {
		ended := Raffle{Status: StatusEnded, EndTime: endTime}
		updated, err := EndIfExpired(ended, func() time.Time { return endTime.Add(time.Hour) })
		if err != nil {
			t.Fatalf("end if expired: %v", err)
		}
		if updated.Status != StatusEnded {
			t.Fatalf("expected status ENDED, got %v", updated.Status)
		}
	})
}

func TestCanCancel(t *testing.T) {
	r := Raffle{Creator: "creator-1", Status: StatusActive, TotalSold: 0}

	if err := CanCancel(r, "creator-1"); err != nil {
		t.Fatalf("expected creator cancel to be allowed: %v", err)
	}
	if err := CanCancel(r, "someone-else"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := CanCancel(r, "  "); !errors.Is(err, ErrEmptyIdentity) {
		t.Fatalf("expected ErrEmptyIdentity, got %v", err)
	}

	sold := Raffle{Creator: "creator-1", Status: StatusActive, TotalSold: 1}
	if err := CanCancel(sold, "creator-1"); !errors.Is(err, ErrCannotCancelWithTickets) {
		t.Fatalf("expected ErrCannotCancelWithTickets, got %v", err)
	}
}

func TestStatusLabelRoundTrip(t *testing.T) {
	statuses := []Status{StatusActive, StatusEnded, StatusCompleted}
	for _, status := range statuses {
		parsed, err := StatusFromLabel(StatusLabel(status))
		if err != nil {
			t.Fatalf("parse label %q: %v", StatusLabel(status), err)
		}
		if parsed != status {
			t.Fatalf("round trip for %v yielded %v", status, parsed)
		}
	}

	if _, err := StatusFromLabel(""); err == nil {
		t.Fatal("expected empty label to fail")
	}
	if _, err := StatusFromLabel("PAUSED"); err == nil {
		t.Fatal("expected unknown label to fail")
	}
	if parsed, err := StatusFromLabel("raffle_status_ended"); err != nil || parsed != StatusEnded {
		t.Fatalf("expected prefixed lowercase label to parse, got %v (%v)", parsed, err)
	}
}
