package core

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash is a hex-encoded xxHash64 digest
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	return formatDigest(xxhash.Sum64(data))
}

// HashReader streams r through xxHash64 and returns the digest.
func HashReader(r io.Reader) (Hash, error) {
	d := xxhash.New()
	if _, err := io.Copy(d, r); err != nil {
		return "", fmt.Errorf("hash input: %w", err)
	}
	return formatDigest(d.Sum64()), nil
}

// Combine folds several hashes into one, order-sensitive.
func Combine(hashes ...Hash) Hash {
	d := xxhash.New()
	for _, h := range hashes {
		_, _ = d.WriteString(string(h))
		_, _ = d.WriteString("\x00")
	}
	return formatDigest(d.Sum64())
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

func formatDigest(sum uint64) Hash {
	s := strconv.FormatUint(sum, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return Hash(s)
}

// Hasher accumulates a Hash over streamed writes; it is an io.Writer
type Hasher struct {
	d *xxhash.Digest
}

// NewHasher creates an empty hasher
func NewHasher() *Hasher {
	return &Hasher{d: xxhash.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.d.Write(p)
}

// WriteString hashes s
func (h *Hasher) WriteString(s string) {
	_, _ = h.d.WriteString(s)
}

// Sum returns the digest of everything written so far
func (h *Hasher) Sum() Hash {
	return formatDigest(h.d.Sum64())
}
