// Package rfc5280 checks certificates for structural RFC 5280 compliance
// before they are trusted or imported into hardware tokens. Every check runs
// on every pass; blocking errors and advisory warnings are accumulated
// separately.
package rfc5280

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"time"
)

var (
	oidExtensionSubjectKeyID        = asn1.ObjectIdentifier{2, 5, 29, 14}
	oidExtensionKeyUsage            = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtensionSubjectAltName      = asn1.ObjectIdentifier{2, 5, 29, 17}
	oidExtensionBasicConstraints    = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtensionNameConstraints     = asn1.ObjectIdentifier{2, 5, 29, 30}
	oidExtensionCRLDistPoints       = asn1.ObjectIdentifier{2, 5, 29, 31}
	oidExtensionCertificatePolicies = asn1.ObjectIdentifier{2, 5, 29, 32}
	oidExtensionAuthorityKeyID      = asn1.ObjectIdentifier{2, 5, 29, 35}
	oidExtensionExtKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidExtensionAuthorityInfoAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}
)

var knownExtensions = []asn1.ObjectIdentifier{
	oidExtensionSubjectKeyID,
	oidExtensionKeyUsage,
	oidExtensionSubjectAltName,
	oidExtensionBasicConstraints,
	oidExtensionNameConstraints,
	oidExtensionCRLDistPoints,
	oidExtensionCertificatePolicies,
	oidExtensionAuthorityKeyID,
	oidExtensionExtKeyUsage,
	oidExtensionAuthorityInfoAccess,
}

// allowedSignatureAlgorithms holds the OIDs of modern signature algorithms.
// Anything else downgrades to a warning, not an error, so certificates from
// unfamiliar toolchains still surface their full defect list.
var allowedSignatureAlgorithms = []asn1.ObjectIdentifier{
	{1, 2, 840, 113549, 1, 1, 5},  // RSA with SHA-1
	{1, 2, 840, 113549, 1, 1, 11}, // RSA with SHA-256
	{1, 2, 840, 113549, 1, 1, 12}, // RSA with SHA-384
	{1, 2, 840, 113549, 1, 1, 13}, // RSA with SHA-512
	{1, 2, 840, 10045, 4, 3, 2},   // ECDSA with SHA-256
	{1, 2, 840, 10045, 4, 3, 3},   // ECDSA with SHA-384
	{1, 2, 840, 10045, 4, 3, 4},   // ECDSA with SHA-512
	{1, 3, 101, 112},              // Ed25519
	{1, 3, 101, 113},              // Ed448
}

// maxSerialOctets is the RFC 5280 §4.1.2.2 limit on serial number length.
const maxSerialOctets = 20

// Validate parses a certificate from PEM or DER bytes and runs the full
// compliance pass. The returned Result carries metadata even when the
// certificate fails validation. A non-nil error means the input could not be
// parsed at all.
func Validate(certBytes []byte) (*Result, error) {
	der := certBytes
	if block, _ := pem.Decode(certBytes); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
		}
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}

	return validateParsed(cert, time.Now()), nil
}

// validateParsed runs every check against a parsed certificate. All checks
// run unconditionally; none short-circuits the pass.
func validateParsed(cert *x509.Certificate, now time.Time) *Result {
	result := &Result{Metadata: extractMetadata(cert)}

	checkVersion(result, cert)
	checkSerialNumber(result, cert)
	checkSignatureAlgorithm(result, cert)
	checkIssuer(result, cert)
	checkValidity(result, cert, now)
	checkSubject(result, cert)
	checkExtensions(result, cert)

	return result
}

// checkVersion requires v3 whenever extensions are present.
func checkVersion(result *Result, cert *x509.Certificate) {
	if len(cert.Extensions) > 0 && cert.Version != 3 {
		result.addError(CodeInvalidVersion,
			fmt.Sprintf("certificate has extensions but is version %d, not v3", cert.Version))
	}
}

func checkSerialNumber(result *Result, cert *x509.Certificate) {
	serial := cert.SerialNumber
	if serial == nil || serial.Sign() == 0 {
		result.addError(CodeInvalidSerialNumber, "serial number must not be zero or empty")
		return
	}

	if octets := len(serial.Bytes()); octets > maxSerialOctets {
		result.addError(CodeInvalidSerialNumber,
			fmt.Sprintf("serial number is %d octets, maximum is %d", octets, maxSerialOctets))
	}
}

func checkSignatureAlgorithm(result *Result, cert *x509.Certificate) {
	oid, err := signatureAlgorithmOID(cert.Raw)
	if err != nil {
		result.addWarning(CodeUnknownSignatureAlgorithm,
			fmt.Sprintf("could not read signature algorithm: %v", err))
		return
	}

	for _, allowed := range allowedSignatureAlgorithms {
		if oid.Equal(allowed) {
			return
		}
	}

	result.addWarning(CodeUnknownSignatureAlgorithm,
		fmt.Sprintf("signature algorithm %s is not in the modern allow-list", oid))
}

// signatureAlgorithmOID reads the outer signatureAlgorithm field from the
// raw DER so unrecognized OIDs can be reported verbatim.
func signatureAlgorithmOID(der []byte) (asn1.ObjectIdentifier, error) {
	var outer struct {
		TBSCertificate     asn1.RawValue
		SignatureAlgorithm pkix.AlgorithmIdentifier
		SignatureValue     asn1.BitString
	}

	if _, err := asn1.Unmarshal(der, &outer); err != nil {
		return nil, err
	}

	return outer.SignatureAlgorithm.Algorithm, nil
}

func checkIssuer(result *Result, cert *x509.Certificate) {
	if len(cert.Issuer.Names) == 0 {
		result.addError(CodeEmptyIssuer, "issuer distinguished name has no attributes")
	}
}

func checkValidity(result *Result, cert *x509.Certificate, now time.Time) {
	if cert.NotBefore.After(cert.NotAfter) {
		result.addError(CodeInvalidValidityWindow,
			fmt.Sprintf("notBefore %s is after notAfter %s", cert.NotBefore.Format(time.RFC3339), cert.NotAfter.Format(time.RFC3339)))
	}

	if now.Before(cert.NotBefore) {
		result.addError(CodeNotYetValid,
			fmt.Sprintf("certificate is not valid until %s", cert.NotBefore.Format(time.RFC3339)))
	}

	if now.After(cert.NotAfter) {
		result.addError(CodeExpired,
			fmt.Sprintf("certificate expired at %s", cert.NotAfter.Format(time.RFC3339)))
	}
}

// checkSubject permits an empty subject DN only when a non-empty subject
// alternative name extension is present.
func checkSubject(result *Result, cert *x509.Certificate) {
	if len(cert.Subject.Names) > 0 {
		return
	}

	san, present := findExtension(cert, oidExtensionSubjectAltName)
	if !present || sanEntryCount(san.Value) == 0 {
		result.addError(CodeEmptySubjectWithoutSAN,
			"subject distinguished name is empty and no subject alternative name is present")
	}
}

func checkExtensions(result *Result, cert *x509.Certificate) {
	for _, ext := range cert.Extensions {
		if ext.Critical && !isKnownExtension(ext.Id) {
			result.addWarning(CodeUnknownCriticalExtension,
				fmt.Sprintf("unknown critical extension %s", ext.Id))
		}
	}

	bcExt, bcPresent := findExtension(cert, oidExtensionBasicConstraints)

	certSign := cert.KeyUsage&x509.KeyUsageCertSign != 0
	crlSign := cert.KeyUsage&x509.KeyUsageCRLSign != 0

	if certSign && !bcPresent {
		result.addError(CodeMissingBasicConstraintsForCA,
			"keyUsage asserts keyCertSign but no basicConstraints extension is present")
	}

	if bcPresent && cert.IsCA && !bcExt.Critical {
		result.addWarning(CodeBasicConstraintsNotCritical,
			"basicConstraints with CA=true should be marked critical")
	}

	if bcPresent && (certSign || crlSign) && !cert.IsCA {
		result.addError(CodeCAFlagMismatch,
			"keyUsage asserts certificate or CRL signing but basicConstraints CA is false")
	}

	if sanExt, present := findExtension(cert, oidExtensionSubjectAltName); present {
		if sanEntryCount(sanExt.Value) == 0 {
			result.addError(CodeEmptySAN, "subject alternative name extension is present but empty")
		}
	}
}

func findExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) (pkix.Extension, bool) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext, true
		}
	}
	return pkix.Extension{}, false
}

func isKnownExtension(oid asn1.ObjectIdentifier) bool {
	for _, known := range knownExtensions {
		if oid.Equal(known) {
			return true
		}
	}
	return false
}

// sanEntryCount counts GeneralName entries in a raw subjectAltName value
// without interpreting them, so otherName-only SANs still count as non-empty.
func sanEntryCount(value []byte) int {
	var seq asn1.RawValue
	if _, err := asn1.Unmarshal(value, &seq); err != nil {
		return 0
	}

	count := 0
	rest := seq.Bytes
	for len(rest) > 0 {
		var entry asn1.RawValue
		remaining, err := asn1.Unmarshal(rest, &entry)
		if err != nil {
			break
		}
		count++
		rest = remaining
	}
	return count
}
