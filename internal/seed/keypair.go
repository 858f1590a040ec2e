package seed

import "crypto/ed25519"

// KeyPair materializes the deterministic Ed25519 keypair for a seed. The raw
// seed bytes are used directly as the Ed25519 signing-key seed, so the same
// seed always yields the same keypair on any machine.
//
// This keypair is kept for audit provenance alongside certificates; it is not
// the key embedded in issued X.509 certificates.
func (s *Seed) KeyPair() (ed25519.PublicKey, ed25519.PrivateKey) {
	priv := ed25519.NewKeyFromSeed(s.b)
	pub := priv.Public().(ed25519.PublicKey)
	return pub, priv
}
