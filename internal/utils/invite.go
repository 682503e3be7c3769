package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewInviteToken returns a 64-character hex token (32 random bytes). The
// raw token is shown to the issuer exactly once; only its peppered hash is
// persisted.
func NewInviteToken() (string, error) {
	return randomHex(32)
}

// NewInviteCode returns a 6-digit numeric code suitable for reading over
// the phone or typing on a small screen. Leading zeros are preserved.
// Codes are low-entropy on purpose, so the accept endpoint is rate limited
// to keep brute forcing impractical within an invite's lifetime.
func NewInviteCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashInviteValue computes the storable hash of a raw invite token or
// code: SHA-256 over "pepper:value", hex encoded. The pepper is a
// server-side secret, so a leaked database alone is not enough to redeem
// a stolen hash, and equal values hash equally which allows indexed
// lookups.
func HashInviteValue(pepper, value string) string {
	sum := sha256.Sum256([]byte(pepper + ":" + value))
	return hex.EncodeToString(sum[:])
}
