// Package sqlite implements the raffle Record Store over a single SQLite file.
//
// One file backs all ledger state so every composite mutation shares a single
// transaction boundary: a ticket purchase, its account debit, and the raffle
// version bump commit or roll back together. Raffle writes are serialized per
// key through a version compare-and-set.
package sqlite
