package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
	"github.com/School-of-Solana/program-thelotux/internal/platform/requestctx"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/app"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
)

// handler serves the raffle API routes over the app service.
type handler struct {
	service *app.Service
}

type createRaffleRequest struct {
	RaffleID    uint64    `json:"raffle_id"`
	TicketPrice uint64    `json:"ticket_price"`
	MaxTickets  uint32    `json:"max_tickets"`
	EndTime     time.Time `json:"end_time"`
}

type buyTicketRequest struct {
	Payment uint64 `json:"payment"`
}

type drawWinnerRequest struct {
	Candidates []string `json:"candidates"`
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

type raffleView struct {
	Key         string    `json:"key"`
	Creator     string    `json:"creator"`
	RaffleID    uint64    `json:"raffle_id"`
	TicketPrice uint64    `json:"ticket_price"`
	MaxTickets  uint32    `json:"max_tickets"`
	EndTime     time.Time `json:"end_time"`
	TotalSold   uint32    `json:"total_sold"`
	HeldBalance uint64    `json:"held_balance"`
	Winner      string    `json:"winner,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ticketView struct {
	Key         string    `json:"key"`
	RaffleKey   string    `json:"raffle_key"`
	Number      uint32    `json:"number"`
	Buyer       string    `json:"buyer"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type ticketListView struct {
	Tickets []ticketView `json:"tickets"`
}

type settlementView struct {
	RaffleKey    string `json:"raffle_key"`
	RaffleID     uint64 `json:"raffle_id"`
	Creator      string `json:"creator"`
	Winner       string `json:"winner"`
	WinnerShare  uint64 `json:"winner_share"`
	CreatorShare uint64 `json:"creator_share"`
	// Beacon is a decimal string so the full 64-bit value survives JSON
	// consumers that read numbers as floats.
	Beacon    string    `json:"beacon"`
	TotalSold uint32    `json:"total_sold"`
	SettledAt time.Time `json:"settled_at"`
}

type accountView struct {
	Identity  string    `json:"identity"`
	Balance   uint64    `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func newRaffleView(r raffle.Raffle) raffleView {
	return raffleView{
		Key:         r.Key,
		Creator:     r.Creator,
		RaffleID:    r.RaffleID,
		TicketPrice: r.TicketPrice,
		MaxTickets:  r.MaxTickets,
		EndTime:     r.EndTime,
		TotalSold:   r.TotalSold,
		HeldBalance: r.HeldBalance,
		Winner:      r.Winner,
		Status:      raffle.StatusLabel(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newTicketView(t raffle.Ticket) ticketView {
	return ticketView{
		Key:         t.Key,
		RaffleKey:   t.RaffleKey,
		Number:      t.Number,
		Buyer:       t.Buyer,
		PurchasedAt: t.PurchasedAt,
	}
}

func newSettlementView(s raffle.Settlement) settlementView {
	return settlementView{
		RaffleKey:    s.RaffleKey,
		RaffleID:     s.RaffleID,
		Creator:      s.Creator,
		Winner:       s.Winner,
		WinnerShare:  s.WinnerShare,
		CreatorShare: s.CreatorShare,
		Beacon:       strconv.FormatUint(s.Beacon, 10),
		TotalSold:    s.TotalSold,
		SettledAt:    s.SettledAt,
	}
}

func newAccountView(a raffle.Account) accountView {
	return accountView{
		Identity:  a.Identity,
		Balance:   a.Balance,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createRaffle(w http.ResponseWriter, r *http.Request) {
	var req createRaffleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.service.CreateRaffle(r.Context(), app.CreateRaffleRequest{
		Creator:     requestctx.CallerFromContext(r.Context()),
		RaffleID:    req.RaffleID,
		TicketPrice: req.TicketPrice,
		MaxTickets:  req.MaxTickets,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRaffleView(created))
}

func (h *handler) getRaffle(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.service.GetRaffle(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRaffleView(loaded))
}

func (h *handler) buyTicket(w http.ResponseWriter, r *http.Request) {
	var req buyTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ticket, err := h.service.BuyTicket(r.Context(), app.BuyTicketRequest{
		RaffleKey: chi.URLParam(r, "key"),
		Buyer:     requestctx.CallerFromContext(r.Context()),
		Payment:   req.Payment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTicketView(ticket))
}

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.service.ListTickets(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	view := ticketListView{Tickets: make([]ticketView, 0, len(tickets))}
	for _, ticket := range tickets {
		view.Tickets = append(view.Tickets, newTicketView(ticket))
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) drawWinner(w http.ResponseWriter, r *http.Request) {
	var req drawWinnerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	settlement, err := h.service.DrawWinner(r.Context(), app.DrawWinnerRequest{
		RaffleKey:  chi.URLParam(r, "key"),
		Candidates: req.Candidates,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementView(settlement))
}

func (h *handler) cancelRaffle(w http.ResponseWriter, r *http.Request) {
	caller := requestctx.CallerFromContext(r.Context())
	if err := h.service.CancelRaffle(r.Context(), chi.URLParam(r, "key"), caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.service.GetSettlement(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementView(settlement))
}

func (h *handler) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	account, err := h.service.Deposit(r.Context(), requestctx.CallerFromContext(r.Context()), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

// decodeJSON reads a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestInvalid, "request body is not valid JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders an error envelope with the status its code maps to.
// Unclassified errors surface as a generic internal failure.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := err.Error()
	if code == apperrors.CodeUnknown {
		message = "internal error"
	}
	writeJSON(w, code.HTTPStatus(), errorEnvelope{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}
