// Package privacy provides the one-way transforms applied to sensitive
// beneficiary fields before they are persisted.
//
// Hashes are deliberately unsalted: the same email or claim code must hash
// to the same digest everywhere, so off-platform observers can match a
// presented value against a stored digest without ever seeing the
// plaintext. Do not add a salt here without redesigning the claim flow.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// DigestSize is the byte length of every stored digest.
const DigestSize = sha256.Size

// Digest is a fixed-size one-way hash of a sensitive field.
type Digest [DigestSize]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is all zero bytes, i.e. never set.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalJSON encodes the digest as a hex string so plan documents and
// event payloads stay human-auditable.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != DigestSize {
		return dErrors.New(dErrors.CodeInvalidInput, "digest must be 32 bytes")
	}
	copy(d[:], raw)
	return nil
}

// HashString returns the SHA-256 digest of the raw bytes of s.
// Deterministic: identical input always produces identical output.
func HashString(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// HashClaimCode hashes a numeric claim code after formatting it as a
// zero-padded 6-digit ASCII string, fixing the input domain so equal codes
// collide only with themselves.
//
// Errors: CodeInvalidClaimCodeRange when code is outside 0..=999999.
func HashClaimCode(code int) (Digest, error) {
	cc, err := domain.ParseClaimCode(code)
	if err != nil {
		return Digest{}, err
	}
	return HashString(cc.Padded()), nil
}
