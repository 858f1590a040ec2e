package seed

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// saltContext versions the salt derivation. Changing it invalidates every
// seed ever derived, so it must never change within a major version.
const saltContext = "cim-keys-v1-"

// KDFParams are the Argon2id cost parameters for master seed derivation.
type KDFParams struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// ProductionParams is the only profile that may derive real key material:
// 1 GiB working set, 10 passes, 4 lanes. Expect multiple CPU-seconds per call.
var ProductionParams = KDFParams{
	Time:     10,
	MemoryKB: 1024 * 1024,
	Threads:  4,
}

// TestParams is a reduced-cost profile for automated tests only.
var TestParams = KDFParams{
	Time:     1,
	MemoryKB: 8 * 1024,
	Threads:  1,
}

func (p KDFParams) validate() error {
	if p.Time == 0 || p.MemoryKB < 8 || p.Threads == 0 {
		return fmt.Errorf("invalid argon2id parameters: time=%d memory=%dKiB threads=%d", p.Time, p.MemoryKB, p.Threads)
	}
	return nil
}

// DeriveMaster derives the master seed for an organization from a passphrase.
// The salt is derived from the organization identifier, so the same
// organization always gets the same salt and two organizations sharing a
// passphrase get unrelated seeds.
//
// DeriveMaster takes ownership of the passphrase buffer and wipes it before
// returning, on error paths included.
//
// With ProductionParams this call is memory- and CPU-bound (~1 GiB working
// set) and is not cancelable; callers on latency-sensitive schedulers must
// dispatch it to a worker.
func DeriveMaster(passphrase []byte, orgID string, params KDFParams) (*Seed, error) {
	defer wipe(passphrase)

	if err := params.validate(); err != nil {
		return nil, err
	}

	salt := deriveSalt(orgID)

	b := argon2.IDKey(passphrase, salt, params.Time, params.MemoryKB, params.Threads, Size)

	return newSeed(b), nil
}

// deriveSalt maps an organization identifier to a deterministic 16-byte salt.
func deriveSalt(orgID string) []byte {
	sum := sha256.Sum256([]byte(saltContext + orgID))
	return sum[:16]
}
