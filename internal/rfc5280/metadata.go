package rfc5280

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"time"
)

// Metadata is extracted on every validation pass, valid or not, so callers
// can present diagnostics without re-parsing the certificate.
type Metadata struct {
	Version      int
	SerialNumber string

	SubjectCommonName   string
	SubjectOrganization string
	IssuerCommonName    string
	IssuerOrganization  string

	NotBefore time.Time
	NotAfter  time.Time

	IsCA bool
	// PathLen is -1 when no path length constraint is encoded.
	PathLen int

	KeyUsage         []string
	ExtendedKeyUsage []string
	SubjectAltNames  []string

	FingerprintSHA256 string
}

func extractMetadata(cert *x509.Certificate) Metadata {
	sum := sha256.Sum256(cert.Raw)

	md := Metadata{
		Version:           cert.Version,
		SerialNumber:      cert.SerialNumber.Text(16),
		SubjectCommonName: cert.Subject.CommonName,
		IssuerCommonName:  cert.Issuer.CommonName,
		NotBefore:         cert.NotBefore,
		NotAfter:          cert.NotAfter,
		IsCA:              cert.IsCA,
		PathLen:           pathLen(cert),
		KeyUsage:          keyUsageNames(cert.KeyUsage),
		ExtendedKeyUsage:  extKeyUsageNames(cert),
		SubjectAltNames:   subjectAltNames(cert),
		FingerprintSHA256: hex.EncodeToString(sum[:]),
	}

	if len(cert.Subject.Organization) > 0 {
		md.SubjectOrganization = cert.Subject.Organization[0]
	}
	if len(cert.Issuer.Organization) > 0 {
		md.IssuerOrganization = cert.Issuer.Organization[0]
	}

	return md
}

func pathLen(cert *x509.Certificate) int {
	if !cert.BasicConstraintsValid {
		return -1
	}
	if cert.MaxPathLen == 0 && !cert.MaxPathLenZero {
		return -1
	}
	return cert.MaxPathLen
}

var keyUsageBits = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "digitalSignature"},
	{x509.KeyUsageContentCommitment, "contentCommitment"},
	{x509.KeyUsageKeyEncipherment, "keyEncipherment"},
	{x509.KeyUsageDataEncipherment, "dataEncipherment"},
	{x509.KeyUsageKeyAgreement, "keyAgreement"},
	{x509.KeyUsageCertSign, "keyCertSign"},
	{x509.KeyUsageCRLSign, "cRLSign"},
	{x509.KeyUsageEncipherOnly, "encipherOnly"},
	{x509.KeyUsageDecipherOnly, "decipherOnly"},
}

func keyUsageNames(usage x509.KeyUsage) []string {
	var names []string
	for _, ku := range keyUsageBits {
		if usage&ku.bit != 0 {
			names = append(names, ku.name)
		}
	}
	return names
}

var extKeyUsageMap = map[x509.ExtKeyUsage]string{
	x509.ExtKeyUsageAny:             "any",
	x509.ExtKeyUsageServerAuth:      "serverAuth",
	x509.ExtKeyUsageClientAuth:      "clientAuth",
	x509.ExtKeyUsageCodeSigning:     "codeSigning",
	x509.ExtKeyUsageEmailProtection: "emailProtection",
	x509.ExtKeyUsageTimeStamping:    "timeStamping",
	x509.ExtKeyUsageOCSPSigning:     "ocspSigning",
}

func extKeyUsageNames(cert *x509.Certificate) []string {
	var names []string
	for _, eku := range cert.ExtKeyUsage {
		name, ok := extKeyUsageMap[eku]
		if !ok {
			name = fmt.Sprintf("extKeyUsage(%d)", eku)
		}
		names = append(names, name)
	}
	// unrecognized OIDs are reported verbatim
	for _, oid := range cert.UnknownExtKeyUsage {
		names = append(names, oid.String())
	}
	return names
}

func subjectAltNames(cert *x509.Certificate) []string {
	var sans []string
	sans = append(sans, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		sans = append(sans, ip.String())
	}
	sans = append(sans, cert.EmailAddresses...)
	for _, uri := range cert.URIs {
		sans = append(sans, uri.String())
	}
	return sans
}
