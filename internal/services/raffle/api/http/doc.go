// Package http exposes the raffle ledger operations as a JSON API. Routing
// is chi, callers authenticate with EdDSA bearer tokens whose subject is the
// caller identity, and errors carry their domain code in the response body.
package http
