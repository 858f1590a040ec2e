package seed

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// Mnemonic encodes the seed as a 24-word BIP39 phrase for operator paper
// backup. The phrase carries the full seed; treat it with the same care as
// the seed itself.
func (s *Seed) Mnemonic() (string, error) {
	phrase, err := bip39.NewMnemonic(s.b)
	if err != nil {
		return "", fmt.Errorf("encoding mnemonic: %w", err)
	}
	return phrase, nil
}

// FromMnemonic restores a seed from a BIP39 backup phrase produced by
// Mnemonic.
func FromMnemonic(phrase string) (*Seed, error) {
	b, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("decoding mnemonic: %w", err)
	}
	if len(b) != Size {
		return nil, fmt.Errorf("mnemonic encodes %d bytes, want %d", len(b), Size)
	}
	return newSeed(b), nil
}
