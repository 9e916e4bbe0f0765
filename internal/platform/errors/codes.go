// Package errors provides structured error handling for the raffle ledger.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Raffle creation errors
	CodeRaffleInvalidTicketPrice Code = "RAFFLE_INVALID_TICKET_PRICE"
	CodeRaffleInvalidMaxTickets  Code = "RAFFLE_INVALID_MAX_TICKETS"
	CodeRaffleInvalidEndTime     Code = "RAFFLE_INVALID_END_TIME"
	CodeRaffleExists             Code = "RAFFLE_ALREADY_EXISTS"

	// Raffle state errors
	CodeRaffleNotActive               Code = "RAFFLE_NOT_ACTIVE"
	CodeRaffleSoldOut                 Code = "RAFFLE_SOLD_OUT"
	CodeRaffleNotEnded                Code = "RAFFLE_NOT_ENDED"
	CodeRaffleNoTicketsSold           Code = "RAFFLE_NO_TICKETS_SOLD"
	CodeRaffleInvalidStatusTransition Code = "RAFFLE_INVALID_STATUS_TRANSITION"
	CodeRaffleCannotCancelWithTickets Code = "RAFFLE_CANNOT_CANCEL_WITH_TICKETS"

	// Ticket errors
	CodeTicketPaymentMismatch Code = "TICKET_PAYMENT_MISMATCH"

	// Transport errors
	CodeRequestInvalid Code = "REQUEST_INVALID"

	// Draw/settlement errors
	CodeDrawInvalidWinningTicket Code = "DRAW_INVALID_WINNING_TICKET"
	CodeMathOverflow             Code = "MATH_OVERFLOW"

	// Identity/authorization errors
	CodeIdentityMissing  Code = "IDENTITY_MISSING"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeAuthTokenInvalid Code = "AUTH_TOKEN_INVALID"
	CodeAuthTokenExpired Code = "AUTH_TOKEN_EXPIRED"

	// Account errors
	CodeAccountInvalidAmount     Code = "ACCOUNT_INVALID_AMOUNT"
	CodeAccountInsufficientFunds Code = "ACCOUNT_INSUFFICIENT_FUNDS"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeVersionConflict Code = "VERSION_CONFLICT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeRaffleInvalidTicketPrice,
		CodeRaffleInvalidMaxTickets,
		CodeRaffleInvalidEndTime,
		CodeTicketPaymentMismatch,
		CodeRequestInvalid,
		CodeIdentityMissing,
		CodeAccountInvalidAmount:
		return http.StatusBadRequest

	// Unauthorized - missing or unverifiable credentials
	case CodeAuthTokenInvalid,
		CodeAuthTokenExpired:
		return http.StatusUnauthorized

	// Forbidden - authenticated caller lacks rights
	case CodeUnauthorized:
		return http.StatusForbidden

	// Not found - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - state doesn't allow the operation or a race was lost
	case CodeRaffleExists,
		CodeRaffleNotActive,
		CodeRaffleSoldOut,
		CodeRaffleNotEnded,
		CodeRaffleNoTicketsSold,
		CodeRaffleInvalidStatusTransition,
		CodeRaffleCannotCancelWithTickets,
		CodeDrawInvalidWinningTicket,
		CodeVersionConflict,
		CodeAccountInsufficientFunds:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
