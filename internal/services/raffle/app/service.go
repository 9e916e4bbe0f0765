package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/School-of-Solana/program-thelotux/internal/random"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	"go.uber.org/zap"
)

// Service executes raffle ledger operations against a record store.
type Service struct {
	store  storage.Store
	logger *zap.Logger
	clock  func() time.Time
	beacon func() (uint64, error)
	// recordDeposit is the storage reservation debited from the creator on
	// every create and returned when the record is reclaimed.
	recordDeposit uint64
}

// Config carries the service collaborators. Store is required; the logger
// defaults to a no-op, the clock to time.Now, and the beacon to the
// crypto/rand source.
type Config struct {
	Store         storage.Store
	Logger        *zap.Logger
	Clock         func() time.Time
	Beacon        func() (uint64, error)
	RecordDeposit uint64
}

// NewService creates a raffle service from cfg.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("raffle store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	beacon := cfg.Beacon
	if beacon == nil {
		beacon = random.NewBeacon
	}
	return &Service{
		store:         cfg.Store,
		logger:        logger,
		clock:         clock,
		beacon:        beacon,
		recordDeposit: cfg.RecordDeposit,
	}, nil
}

// CreateRaffleRequest describes one createRaffle call. The creator identity
// comes from the authenticated caller, never the request body.
type CreateRaffleRequest struct {
	Creator     string
	RaffleID    uint64
	TicketPrice uint64
	MaxTickets  uint32
	EndTime     time.Time
}

// CreateRaffle creates a new raffle record and debits the configured record
// deposit from the creator account.
func (s *Service) CreateRaffle(ctx context.Context, req CreateRaffleRequest) (raffle.Raffle, error) {
	if s == nil || s.store == nil {
		return raffle.Raffle{}, fmt.Errorf("raffle store is not configured")
	}

	created, err := raffle.CreateRaffle(raffle.CreateRaffleInput{
		Creator:     req.Creator,
		RaffleID:    req.RaffleID,
		TicketPrice: req.TicketPrice,
		MaxTickets:  req.MaxTickets,
		EndTime:     req.EndTime,
		Deposit:     s.recordDeposit,
	}, s.clock)
	if err != nil {
		return raffle.Raffle{}, err
	}
	if err := s.store.CreateRaffle(ctx, created); err != nil {
		return raffle.Raffle{}, err
	}

	s.logger.Info("raffle created",
		zap.String("raffle_key", created.Key),
		zap.String("creator", created.Creator),
		zap.Uint64("raffle_id", created.RaffleID),
		zap.Uint64("ticket_price", created.TicketPrice),
		zap.Uint32("max_tickets", created.MaxTickets),
		zap.Time("end_time", created.EndTime),
		zap.Uint64("deposit", created.Deposit),
	)
	return created, nil
}

// BuyTicketRequest describes one buyTicket call. The buyer identity comes
// from the authenticated caller.
type BuyTicketRequest struct {
	RaffleKey string
	Buyer     string
	Payment   uint64
}

// BuyTicket purchases the next ticket of a raffle: the payment moves from
// the buyer account into the raffle's held balance and the ticket is stored,
// atomically. A raffle that fills its last slot ends in the same step.
func (s *Service) BuyTicket(ctx context.Context, req BuyTicketRequest) (raffle.Ticket, error) {
	if s == nil || s.store == nil {
		return raffle.Ticket{}, fmt.Errorf("raffle store is not configured")
	}

	loaded, err := s.store.GetRaffle(ctx, req.RaffleKey)
	if err != nil {
		return raffle.Ticket{}, err
	}
	updated, ticket, err := raffle.IssueTicket(loaded, req.Buyer, req.Payment, s.clock)
	if err != nil {
		return raffle.Ticket{}, err
	}
	if err := s.store.RecordPurchase(ctx, updated, ticket, req.Payment); err != nil {
		return raffle.Ticket{}, err
	}

	s.logger.Info("ticket sold",
		zap.String("raffle_key", ticket.RaffleKey),
		zap.String("buyer", ticket.Buyer),
		zap.Uint32("ticket_number", ticket.Number),
		zap.Uint32("total_sold", updated.TotalSold),
		zap.Uint32("max_tickets", updated.MaxTickets),
		zap.String("status", raffle.StatusLabel(updated.Status)),
	)
	return ticket, nil
}

// DrawWinnerRequest describes one drawWinner call. Candidates is the
// settlement payee whitelist the selected winner must belong to.
type DrawWinnerRequest struct {
	RaffleKey  string
	Candidates []string
}

// DrawWinner selects and settles the winner of an ended raffle. An active
// raffle whose end time has passed is ended in the same call; that flip only
// becomes durable together with the settlement, so a failed draw leaves the
// stored record untouched. The randomness beacon is sourced here, at
// execution time.
func (s *Service) DrawWinner(ctx context.Context, req DrawWinnerRequest) (raffle.Settlement, error) {
	if s == nil || s.store == nil {
		return raffle.Settlement{}, fmt.Errorf("raffle store is not configured")
	}

	loaded, err := s.store.GetRaffle(ctx, req.RaffleKey)
	if err != nil {
		return raffle.Settlement{}, err
	}
	ended, err := raffle.EndIfExpired(loaded, s.clock)
	if err != nil {
		return raffle.Settlement{}, err
	}

	beacon, err := s.beacon()
	if err != nil {
		return raffle.Settlement{}, err
	}
	selection, err := raffle.SelectWinner(ended, beacon, req.Candidates)
	if err != nil {
		return raffle.Settlement{}, err
	}
	settled, settlement, err := raffle.Settle(ended, selection, beacon, s.clock)
	if err != nil {
		return raffle.Settlement{}, err
	}
	if err := s.store.SettleRaffle(ctx, settled, settlement); err != nil {
		return raffle.Settlement{}, err
	}

	s.logger.Info("raffle settled",
		zap.String("raffle_key", settlement.RaffleKey),
		zap.String("winner", settlement.Winner),
		zap.Uint64("winner_share", settlement.WinnerShare),
		zap.Uint64("creator_share", settlement.CreatorShare),
		zap.Uint64("beacon", settlement.Beacon),
		zap.Uint32("total_sold", settlement.TotalSold),
	)
	return settlement, nil
}

// CancelRaffle reclaims an unsold raffle record and refunds the record
// deposit to the creator. Only the creator may cancel, and only while zero
// tickets are sold. The key becomes available for reuse.
func (s *Service) CancelRaffle(ctx context.Context, raffleKey, caller string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("raffle store is not configured")
	}

	loaded, err := s.store.GetRaffle(ctx, raffleKey)
	if err != nil {
		return err
	}
	if err := raffle.CanCancel(loaded, strings.TrimSpace(caller)); err != nil {
		return err
	}
	if err := s.store.CancelRaffle(ctx, loaded, s.clock().UTC()); err != nil {
		return err
	}

	s.logger.Info("raffle cancelled",
		zap.String("raffle_key", loaded.Key),
		zap.String("creator", loaded.Creator),
		zap.Uint64("refunded_deposit", loaded.Deposit),
	)
	return nil
}

// GetRaffle reads a live raffle record.
func (s *Service) GetRaffle(ctx context.Context, raffleKey string) (raffle.Raffle, error) {
	if s == nil || s.store == nil {
		return raffle.Raffle{}, fmt.Errorf("raffle store is not configured")
	}
	return s.store.GetRaffle(ctx, raffleKey)
}

// ListTickets reads a raffle's ticket audit trail in sequence order.
func (s *Service) ListTickets(ctx context.Context, raffleKey string) ([]raffle.Ticket, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("raffle store is not configured")
	}
	return s.store.ListTickets(ctx, raffleKey)
}

// GetSettlement reads the settlement audit record of a finished raffle.
func (s *Service) GetSettlement(ctx context.Context, raffleKey string) (raffle.Settlement, error) {
	if s == nil || s.store == nil {
		return raffle.Settlement{}, fmt.Errorf("raffle store is not configured")
	}
	return s.store.GetSettlement(ctx, raffleKey)
}

// Deposit credits an identity's ledger account. It is the external on-ramp
// for value entering the ledger.
func (s *Service) Deposit(ctx context.Context, identity string, amount uint64) (raffle.Account, error) {
	if s == nil || s.store == nil {
		return raffle.Account{}, fmt.Errorf("raffle store is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, raffle.ErrEmptyIdentity
	}
	if err := raffle.ValidateDepositAmount(amount); err != nil {
		return raffle.Account{}, err
	}

	account, err := s.store.CreditAccount(ctx, identity, amount, s.clock().UTC())
	if err != nil {
		return raffle.Account{}, err
	}

	s.logger.Info("account credited",
		zap.String("identity", account.Identity),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", account.Balance),
	)
	return account, nil
}

// GetAccount reads an identity's ledger account.
func (s *Service) GetAccount(ctx context.Context, identity string) (raffle.Account, error) {
	if s == nil || s.store == nil {
		return raffle.Account{}, fmt.Errorf("raffle store is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return raffle.Account{}, raffle.ErrEmptyIdentity
	}
	return s.store.GetAccount(ctx, identity)
}
