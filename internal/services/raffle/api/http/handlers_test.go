package http

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/app"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage/sqlite"
)

func TestHealthzIsPublic(t *testing.T) {
	api := newTestAPI(t, 0, 0)

	res, body := api.do(t, http.MethodGet, "/healthz", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var health map[string]string
	decodeBody(t, body, &health)
	if health["status"] != "ok" {
		t.Fatalf("unexpected health body: %s", body)
	}
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t, 0, 0)

	res, body := api.do(t, http.MethodPost, "/v1/accounts/deposit", "", depositRequest{Amount: 10})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeAuthTokenInvalid) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthTokenInvalid)
	}

	res, body = api.do(t, http.MethodPost, "/v1/accounts/deposit", "not-a-token", depositRequest{Amount: 10})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeAuthTokenInvalid) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthTokenInvalid)
	}

	expired := signToken(t, api.priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss": api.cfg.Issuer,
		"aud": api.cfg.Audience,
		"sub": "caller-1",
		"exp": api.now.Add(-time.Minute).Unix(),
	})
	res, body = api.do(t, http.MethodPost, "/v1/accounts/deposit", expired, depositRequest{Amount: 10})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeAuthTokenExpired) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthTokenExpired)
	}
}

func TestDepositAndGetAccount(t *testing.T) {
	api := newTestAPI(t, 0, 0)

	res, body := api.do(t, http.MethodPost, "/v1/accounts/deposit", api.token(t, "alice"), depositRequest{Amount: 100})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", res.StatusCode, http.StatusOK, body)
	}
	var account accountView
	decodeBody(t, body, &account)
	if account.Identity != "alice" || account.Balance != 100 {
		t.Fatalf("unexpected account view: %+v", account)
	}

	// The deposit always lands on the caller's own account.
	res, body = api.do(t, http.MethodGet, "/v1/accounts/alice", api.token(t, "bob"), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	decodeBody(t, body, &account)
	if account.Balance != 100 {
		t.Fatalf("balance = %d, want 100", account.Balance)
	}

	res, body = api.do(t, http.MethodGet, "/v1/accounts/nobody", api.token(t, "bob"), nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeNotFound) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeNotFound)
	}

	res, body = api.do(t, http.MethodPost, "/v1/accounts/deposit", api.token(t, "alice"), depositRequest{Amount: 0})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeAccountInvalidAmount) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAccountInvalidAmount)
	}
}

func TestCreateAndGetRaffle(t *testing.T) {
	api := newTestAPI(t, 0, 0)
	token := api.token(t, "creator-1")

	res, body := api.do(t, http.MethodPost, "/v1/raffles", token, createRaffleRequest{
		RaffleID:    7,
		TicketPrice: 40,
		MaxTickets:  3,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", res.StatusCode, http.StatusCreated, body)
	}
	var created raffleView
	decodeBody(t, body, &created)
	if created.Key == "" || created.Creator != "creator-1" || created.Status != "ACTIVE" {
		t.Fatalf("unexpected raffle view: %+v", created)
	}

	res, body = api.do(t, http.MethodGet, "/v1/raffles/"+created.Key, token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var loaded raffleView
	decodeBody(t, body, &loaded)
	if loaded.Key != created.Key || loaded.TicketPrice != 40 || loaded.MaxTickets != 3 {
		t.Fatalf("unexpected raffle view: %+v", loaded)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles", token, createRaffleRequest{
		RaffleID:    7,
		TicketPrice: 40,
		MaxTickets:  3,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRaffleExists) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRaffleExists)
	}
}

func TestCreateRaffleRejectsBadRequests(t *testing.T) {
	api := newTestAPI(t, 0, 0)
	token := api.token(t, "creator-1")

	res, body := api.do(t, http.MethodPost, "/v1/raffles", token, createRaffleRequest{
		RaffleID:    1,
		TicketPrice: 0,
		MaxTickets:  3,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRaffleInvalidTicketPrice) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRaffleInvalidTicketPrice)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles", token, createRaffleRequest{
		RaffleID:    1,
		TicketPrice: 40,
		MaxTickets:  3,
		EndTime:     api.now.Add(-time.Hour),
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRaffleInvalidEndTime) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRaffleInvalidEndTime)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles", token, map[string]any{
		"raffle_id": 1,
		"surprise":  true,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRequestInvalid) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRequestInvalid)
	}
}

func TestBuyTicketFlow(t *testing.T) {
	api := newTestAPI(t, 0, 0)
	creator := api.token(t, "creator-1")
	buyer := api.token(t, "buyer-a")

	var created raffleView
	res, body := api.do(t, http.MethodPost, "/v1/raffles", creator, createRaffleRequest{
		RaffleID:    1,
		TicketPrice: 40,
		MaxTickets:  2,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", res.StatusCode, body)
	}
	decodeBody(t, body, &created)

	if res, _ := api.do(t, http.MethodPost, "/v1/accounts/deposit", buyer, depositRequest{Amount: 80}); res.StatusCode != http.StatusOK {
		t.Fatalf("deposit status = %d", res.StatusCode)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/tickets", buyer, buyTicketRequest{Payment: 40})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", res.StatusCode, http.StatusCreated, body)
	}
	var ticket ticketView
	decodeBody(t, body, &ticket)
	if ticket.Number != 0 || ticket.Buyer != "buyer-a" || ticket.RaffleKey != created.Key {
		t.Fatalf("unexpected ticket view: %+v", ticket)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/tickets", buyer, buyTicketRequest{Payment: 39})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeTicketPaymentMismatch) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeTicketPaymentMismatch)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/tickets", api.token(t, "broke-buyer"), buyTicketRequest{Payment: 40})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeAccountInsufficientFunds) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAccountInsufficientFunds)
	}

	res, body = api.do(t, http.MethodGet, "/v1/raffles/"+created.Key+"/tickets", buyer, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var list ticketListView
	decodeBody(t, body, &list)
	if len(list.Tickets) != 1 || list.Tickets[0].Number != 0 {
		t.Fatalf("unexpected ticket list: %+v", list)
	}
}

func TestDrawSettlesAndRetiresKey(t *testing.T) {
	api := newTestAPI(t, 0, 1)
	creator := api.token(t, "creator-1")

	var created raffleView
	res, body := api.do(t, http.MethodPost, "/v1/raffles", creator, createRaffleRequest{
		RaffleID:    3,
		TicketPrice: 100,
		MaxTickets:  2,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", res.StatusCode, body)
	}
	decodeBody(t, body, &created)

	for _, buyer := range []string{"buyer-a", "buyer-b"} {
		token := api.token(t, buyer)
		if res, _ := api.do(t, http.MethodPost, "/v1/accounts/deposit", token, depositRequest{Amount: 100}); res.StatusCode != http.StatusOK {
			t.Fatalf("deposit status = %d for %s", res.StatusCode, buyer)
		}
		if res, body := api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/tickets", token, buyTicketRequest{Payment: 100}); res.StatusCode != http.StatusCreated {
			t.Fatalf("buy status = %d for %s (%s)", res.StatusCode, buyer, body)
		}
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/draw", api.token(t, "anyone"), drawWinnerRequest{
		Candidates: []string{"buyer-a", "buyer-b"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("draw status = %d (%s)", res.StatusCode, body)
	}
	var settlement settlementView
	decodeBody(t, body, &settlement)
	// beacon 1 mod 2 sold picks position 1 in the buyer sequence.
	if settlement.Winner != "buyer-b" {
		t.Fatalf("winner = %q, want %q", settlement.Winner, "buyer-b")
	}
	if settlement.WinnerShare != 180 || settlement.CreatorShare != 20 {
		t.Fatalf("unexpected split: %+v", settlement)
	}
	if settlement.Beacon != "1" {
		t.Fatalf("beacon = %q, want %q", settlement.Beacon, "1")
	}

	res, body = api.do(t, http.MethodGet, "/v1/raffles/"+created.Key, creator, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeNotFound) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeNotFound)
	}

	res, body = api.do(t, http.MethodGet, "/v1/raffles/"+created.Key+"/settlement", creator, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("settlement status = %d", res.StatusCode)
	}
	var stored settlementView
	decodeBody(t, body, &stored)
	if stored.Winner != settlement.Winner || stored.Beacon != settlement.Beacon {
		t.Fatalf("stored settlement does not match: %+v", stored)
	}

	// The settled key is retired permanently.
	res, body = api.do(t, http.MethodPost, "/v1/raffles", creator, createRaffleRequest{
		RaffleID:    3,
		TicketPrice: 100,
		MaxTickets:  2,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRaffleExists) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRaffleExists)
	}
}

func TestDrawBeforeEndIsRejected(t *testing.T) {
	api := newTestAPI(t, 0, 0)
	creator := api.token(t, "creator-1")

	var created raffleView
	res, body := api.do(t, http.MethodPost, "/v1/raffles", creator, createRaffleRequest{
		RaffleID:    4,
		TicketPrice: 10,
		MaxTickets:  5,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", res.StatusCode, body)
	}
	decodeBody(t, body, &created)

	buyer := api.token(t, "buyer-a")
	if res, _ := api.do(t, http.MethodPost, "/v1/accounts/deposit", buyer, depositRequest{Amount: 10}); res.StatusCode != http.StatusOK {
		t.Fatalf("deposit status = %d", res.StatusCode)
	}
	if res, body := api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/tickets", buyer, buyTicketRequest{Payment: 10}); res.StatusCode != http.StatusCreated {
		t.Fatalf("buy status = %d (%s)", res.StatusCode, body)
	}

	res, body = api.do(t, http.MethodPost, "/v1/raffles/"+created.Key+"/draw", creator, drawWinnerRequest{
		Candidates: []string{"buyer-a"},
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeRaffleNotEnded) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeRaffleNotEnded)
	}
}

func TestCancelRaffle(t *testing.T) {
	api := newTestAPI(t, 0, 0)
	creator := api.token(t, "creator-1")

	var created raffleView
	res, body := api.do(t, http.MethodPost, "/v1/raffles", creator, createRaffleRequest{
		RaffleID:    5,
		TicketPrice: 10,
		MaxTickets:  5,
		EndTime:     api.now.Add(time.Hour),
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", res.StatusCode, body)
	}
	decodeBody(t, body, &created)

	res, body = api.do(t, http.MethodDelete, "/v1/raffles/"+created.Key, api.token(t, "someone-else"), nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
	if code := errorCodeOf(t, body); code != string(apperrors.CodeUnauthorized) {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeUnauthorized)
	}

	res, body = api.do(t, http.MethodDelete, "/v1/raffles/"+created.Key, creator, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d (%s)", res.StatusCode, http.StatusNoContent, body)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %s", body)
	}

	res, _ = api.do(t, http.MethodGet, "/v1/raffles/"+created.Key, creator, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

// testAPI bundles a handler under httptest with the signing key its auth
// config trusts.
type testAPI struct {
	ts   *httptest.Server
	priv ed25519.PrivateKey
	cfg  AuthConfig
	now  time.Time
}

func newTestAPI(t *testing.T, recordDeposit, beacon uint64) *testAPI {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "raffle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	service, err := app.NewService(app.Config{
		Store:         store,
		Clock:         func() time.Time { return now },
		Beacon:        func() (uint64, error) { return beacon, nil },
		RecordDeposit: recordDeposit,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := AuthConfig{
		Issuer:   "thelotux",
		Audience: "raffle-api",
		Key:      pub,
		Now:      func() time.Time { return now },
	}
	handler, err := NewHandler(Config{Service: service, Auth: cfg})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testAPI{ts: ts, priv: priv, cfg: cfg, now: now}
}

// token signs a bearer token for a caller, valid for an hour.
func (api *testAPI) token(t *testing.T, subject string) string {
	t.Helper()
	return signToken(t, api.priv, map[string]any{"alg": "EdDSA", "typ": "JWT"}, map[string]any{
		"iss": api.cfg.Issuer,
		"aud": api.cfg.Audience,
		"sub": subject,
		"exp": api.now.Add(time.Hour).Unix(),
	})
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, api.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := api.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return res, data
}

func decodeBody(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal response %s: %v", data, err)
	}
}

func errorCodeOf(t *testing.T, data []byte) string {
	t.Helper()
	var envelope errorEnvelope
	decodeBody(t, data, &envelope)
	if envelope.Error.Code == "" {
		t.Fatalf("expected an error envelope, got %s", data)
	}
	return envelope.Error.Code
}
