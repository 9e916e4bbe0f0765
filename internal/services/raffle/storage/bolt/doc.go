// Package bolt implements the raffle Record Store over a single bbolt file.
//
// Records are JSON payloads in one bucket per record kind. bbolt serializes
// writers, so every composite mutation runs inside one Update and the raffle
// version compare-and-set rejects stale writers the same way the SQLite
// backend does.
package bolt
