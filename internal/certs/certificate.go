// Package certs builds the three-tier certificate hierarchy: a self-signed
// root CA, signing-only intermediate CAs, and short-lived server leaves. The
// generators are pure functions over their inputs; disk and transport belong
// to the callers.
package certs

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"
)

// Certificate is an issued certificate with both key materials kept clearly
// distinct: KeyPEM is the certificate's own freshly generated private key,
// ProvenancePublicKey is the deterministic Ed25519 public key derived from
// the seed and retained for audit provenance only.
type Certificate struct {
	CertPEM []byte
	KeyPEM  []byte

	ProvenancePublicKey ed25519.PublicKey

	// Fingerprint is the hex SHA-256 of the DER-encoded certificate.
	Fingerprint string

	// Label is the derivation-label path that produced the provenance seed.
	Label string

	NotBefore time.Time
	NotAfter  time.Time
}

func fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

func encodeCertPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: der,
	})
}

func encodeKeyPEM(key crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshalling private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	}), nil
}

func parseCertPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no CERTIFICATE block in parent PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing parent certificate: %w", err)
	}

	return cert, nil
}

func parseKeyPEM(keyPEM []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in parent key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing parent key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("parent key type %T cannot sign", key)
	}

	return signer, nil
}
