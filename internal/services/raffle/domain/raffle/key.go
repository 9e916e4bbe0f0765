package raffle

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"strings"
)

// Namespace tags keep raffle and ticket keys in disjoint derivation spaces.
const (
	raffleKeyTag = "raffle"
	ticketKeyTag = "ticket"
)

// Key derives the composite key for a raffle record from its creator
// identity and raffle id. Any party can recompute the key without a lookup
// table; two raffles with the same id but different creators derive
// distinct keys.
func Key(creator string, raffleID uint64) string {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], raffleID)
	return deriveKey(raffleKeyTag, []byte(creator), id[:])
}

// TicketKey derives the composite key for a ticket record from its raffle
// key and ticket sequence number.
func TicketKey(raffleKey string, number uint32) string {
	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], number)
	return deriveKey(ticketKeyTag, []byte(raffleKey), seq[:])
}

// deriveKey hashes a namespace tag and length-prefixed parts into a stable
// 26-character lowercase base32 key. Length prefixes keep distinct part
// boundaries from colliding.
func deriveKey(tag string, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, part := range parts {
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(part)))
		h.Write(size[:])
		h.Write(part)
	}
	sum := h.Sum(nil)

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:16])
	return strings.ToLower(encoded)
}
