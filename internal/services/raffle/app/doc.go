// Package app implements the raffle ledger operations over a record store.
//
// The service owns the operation flow: it loads records, applies the pure
// domain transitions, and hands the results to storage in one atomic write.
// Randomness for draws is sourced from the beacon at execution time and
// never cached between calls.
package app
