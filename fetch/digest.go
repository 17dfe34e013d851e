package fetch

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Digest is a content hash with its algorithm, e.g. "sha256:ab12...".
type Digest struct {
	algorithm string
	value     string
}

// NewDigest creates a digest from an algorithm and hex value.
func NewDigest(algorithm, hexValue string) (Digest, error) {
	switch algorithm {
	case "sha256", "sha512":
	default:
		return Digest{}, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
	if hexValue == "" {
		return Digest{}, fmt.Errorf("empty digest value")
	}
	return Digest{algorithm: algorithm, value: hexValue}, nil
}

// ParseDigest parses a canonical digest string.
func ParseDigest(s string) (Digest, error) {
	algorithm, value, found := strings.Cut(s, ":")
	if !found {
		return Digest{}, fmt.Errorf("invalid digest format: %s", s)
	}
	return NewDigest(algorithm, value)
}

// String returns the canonical digest string.
func (d Digest) String() string {
	return d.algorithm + ":" + d.value
}

// Algorithm returns the hash algorithm.
func (d Digest) Algorithm() string { return d.algorithm }

// Value returns the hex-encoded hash.
func (d Digest) Value() string { return d.value }

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool { return d.algorithm == "" }

// Equals checks equality with another digest.
func (d Digest) Equals(other Digest) bool { return d == other }

// Verify checks that data hashes to this digest.
func (d Digest) Verify(data []byte) error {
	var computed Digest
	switch d.algorithm {
	case "sha256":
		sum := sha256.Sum256(data)
		computed = Digest{algorithm: "sha256", value: hex.EncodeToString(sum[:])}
	case "sha512":
		sum := sha512.Sum512(data)
		computed = Digest{algorithm: "sha512", value: hex.EncodeToString(sum[:])}
	default:
		return fmt.Errorf("unsupported digest algorithm: %s", d.algorithm)
	}

	if !d.Equals(computed) {
		return fmt.Errorf("digest mismatch: expected %s, got %s", d, computed)
	}
	return nil
}

// ComputeSHA256 hashes the reader's contents.
func ComputeSHA256(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	return Digest{algorithm: "sha256", value: hex.EncodeToString(h.Sum(nil))}, nil
}
