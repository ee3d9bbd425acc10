// Package visitors resolves privacy-preserving anonymous visitor identities.
package visitors

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the digest length in bytes for IP fingerprints.
// 8 bytes (16 hex characters) is enough to avoid accidental collisions
// at first-party traffic scale while being useless for reversal.
const FingerprintSize = 8

// Identity is the result of resolving one request's visitor identity.
type Identity struct {
	VisitorID     string
	IPFingerprint string
	IsNew         bool
}

// Resolve returns the visitor identity for a request. A valid existing
// token is reused as-is; otherwise a fresh random visitor ID is minted.
// The raw source address is only ever hashed, never returned or stored.
func Resolve(existingToken, remoteAddr, privateKey string) Identity {
	fingerprint := Fingerprint(remoteAddr, privateKey)

	if IsValidToken(existingToken) {
		return Identity{
			VisitorID:     existingToken,
			IPFingerprint: fingerprint,
			IsNew:         false,
		}
	}

	return Identity{
		VisitorID:     MintVisitorID(),
		IPFingerprint: fingerprint,
		IsNew:         true,
	}
}

// MintVisitorID creates a new random, globally-unique visitor identifier.
func MintVisitorID() string {
	return uuid.NewString()
}

// IsValidToken reports whether a client-presented token is a visitor ID
// previously minted by this system. Anything else (empty, truncated,
// or hand-crafted values) is rejected and a new identity is issued.
func IsValidToken(token string) bool {
	if token == "" {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}

// Fingerprint derives a deterministic, fixed-length, one-way digest of a
// network address. The digest is keyed with the configured private key so
// the address cannot be recovered or confirmed by dictionary attack
// without the key. The same address always yields the same fingerprint.
func Fingerprint(remoteAddr, privateKey string) string {
	key := []byte(privateKey)
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}

	// blake2b.New only fails on oversized keys, which is handled above.
	h, err := blake2b.New(FingerprintSize, key)
	if err != nil {
		h, _ = blake2b.New(FingerprintSize, nil)
	}
	h.Write([]byte(remoteAddr))
	return hex.EncodeToString(h.Sum(nil))
}
