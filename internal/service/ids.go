package service

import (
	"crypto/rand"
	"encoding/hex"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// newLinkToken produces the bearer capability for link shares: 128 bits
// from crypto/rand, fixed-length hex. Uniqueness is enforced by the ledger;
// a collision comes back as a conflict and the caller regenerates.
func newLinkToken() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
