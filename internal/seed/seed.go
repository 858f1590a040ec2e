// Package seed implements the deterministic key material hierarchy: a master
// seed derived from an operator passphrase, domain-separated child seeds, and
// the Ed25519 keypairs materialized from them.
//
// Seeds are secrets. Every Seed owns its buffer and must be wiped with Zero
// when it goes out of scope, on error paths included. Seeds are never logged
// and never serialized.
package seed

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Size is the byte length of every seed in the hierarchy.
const Size = 32

// Seed is 256 bits of entropy, the root of a key hierarchy. A Seed derived
// from the same inputs is byte-identical across runs and machines.
type Seed struct {
	b []byte
}

func newSeed(b []byte) *Seed {
	if len(b) != Size {
		panic(fmt.Sprintf("seed must be %d bytes, got %d", Size, len(b)))
	}
	return &Seed{b: b}
}

// Bytes exposes the raw seed. The returned slice aliases the seed's buffer;
// callers must not retain it past the seed's lifetime.
func (s *Seed) Bytes() []byte {
	return s.b
}

// Clone returns an independent copy. The clone owns its own buffer and must
// be zeroed separately.
func (s *Seed) Clone() *Seed {
	b := make([]byte, Size)
	copy(b, s.b)
	return newSeed(b)
}

// Equal compares two seeds in constant time.
func (s *Seed) Equal(other *Seed) bool {
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

// Zero overwrites the seed buffer. The seed must not be used afterwards.
func (s *Seed) Zero() {
	wipe(s.b)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Child derives a new seed from s using HKDF-SHA256 with the label as the
// domain-separation context. The same (parent, label) pair always yields the
// same child; distinct labels yield cryptographically independent children.
func (s *Seed) Child(label string) *Seed {
	reader := hkdf.New(sha256.New, s.b, nil, []byte(label))

	b := make([]byte, Size)
	if _, err := io.ReadFull(reader, b); err != nil {
		// HKDF-SHA256 cannot fail to produce 32 bytes.
		panic(fmt.Sprintf("hkdf expand: %v", err))
	}

	return newSeed(b)
}

// ChildPath derives a seed by walking labels from s, zeroing every
// intermediate seed along the way.
func (s *Seed) ChildPath(labels ...string) *Seed {
	current := s.Clone()
	for _, label := range labels {
		next := current.Child(label)
		current.Zero()
		current = next
	}
	return current
}
