package certs

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/cimkeys/cim-keys/internal/events"
	"github.com/cimkeys/cim-keys/internal/seed"
)

// GenerateRootCA builds a self-signed CA certificate. The seed is only used
// for the provenance keypair; the certificate's own key is generated fresh.
func GenerateRootCA(s *seed.Seed, p RootParams, ids events.Correlation) (*Certificate, []events.Event, error) {
	if err := applyDefaults(&p); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	template := &x509.Certificate{
		Subject: pkix.Name{
			CommonName:   p.CommonName,
			Organization: []string{p.Organization},
		},
		NotBefore: now,
		NotAfter:  now.AddDate(p.ValidityYears, 0, 0),
		KeyUsage:  x509.KeyUsageCertSign | x509.KeyUsageCRLSign,

		IsCA:                  true,
		BasicConstraintsValid: true,
		MaxPathLen:            p.PathLen,
	}

	setGeographicDN(&template.Subject, p.Country, p.Province, p.Locality)

	cert, err := createCert(s, RootLabel, template, nil, nil)
	if err != nil {
		return nil, nil, err
	}

	generated := events.NewCertificateGenerated(ids, cert.Label, p.CommonName, cert.Fingerprint, nil, cert.NotBefore, cert.NotAfter)

	return cert, []events.Event{generated}, nil
}

// GenerateIntermediateCA signs a new CA certificate with a parent CA's key.
// Key usage is forced to certificate and CRL signing; path length is zero
// unless explicitly raised, so the intermediate cannot issue further sub-CAs.
func GenerateIntermediateCA(s *seed.Seed, p IntermediateParams, parentCertPEM, parentKeyPEM []byte, ids events.Correlation) (*Certificate, []events.Event, error) {
	if err := applyDefaults(&p); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	template := &x509.Certificate{
		Subject: pkix.Name{
			CommonName:   p.CommonName,
			Organization: []string{p.Organization},
		},
		NotBefore: now,
		NotAfter:  now.AddDate(p.ValidityYears, 0, 0),

		// Never digitalSignature: intermediates sign certificates, they are
		// not presented as an identity.
		KeyUsage: x509.KeyUsageCertSign | x509.KeyUsageCRLSign,

		IsCA:                  true,
		BasicConstraintsValid: true,
		MaxPathLen:            p.PathLen,
		MaxPathLenZero:        p.PathLen == 0,
	}

	if p.OrganizationalUnit != "" {
		template.Subject.OrganizationalUnit = []string{p.OrganizationalUnit}
	}

	unit := p.OrganizationalUnit
	if unit == "" {
		unit = p.CommonName
	}

	cert, parent, err := createSignedCert(s, IntermediateLabel(unit), template, parentCertPEM, parentKeyPEM)
	if err != nil {
		return nil, nil, err
	}

	issuerID := parentID(parent)
	generated := events.NewCertificateGenerated(ids, cert.Label, p.CommonName, cert.Fingerprint, &issuerID, cert.NotBefore, cert.NotAfter)
	signed := events.NewCertificateSigned(ids, cert.Label, cert.Fingerprint, fingerprint(parent.Raw))

	return cert, []events.Event{generated, signed}, nil
}

// GenerateServerCertificate signs an end-entity certificate with an
// intermediate CA's key. The common name is inserted as the first subject
// alternative name when absent.
func GenerateServerCertificate(s *seed.Seed, p ServerParams, parentCertPEM, parentKeyPEM []byte, ids events.Correlation) (*Certificate, []events.Event, error) {
	if err := applyDefaults(&p); err != nil {
		return nil, nil, err
	}

	sans := p.SubjectAltNames
	if !containsString(sans, p.CommonName) {
		sans = append([]string{p.CommonName}, sans...)
	}

	dnsNames, ipAddresses := splitSANs(sans)

	now := time.Now().UTC()

	template := &x509.Certificate{
		Subject: pkix.Name{
			CommonName: p.CommonName,
		},
		NotBefore: now,
		NotAfter:  now.AddDate(0, 0, p.ValidityDays),

		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},

		IsCA:                  false,
		BasicConstraintsValid: true,

		DNSNames:    dnsNames,
		IPAddresses: ipAddresses,
	}

	if p.Organization != "" {
		template.Subject.Organization = []string{p.Organization}
	}
	if p.OrganizationalUnit != "" {
		template.Subject.OrganizationalUnit = []string{p.OrganizationalUnit}
	}

	cert, parent, err := createSignedCert(s, ServerLabel(p.CommonName), template, parentCertPEM, parentKeyPEM)
	if err != nil {
		return nil, nil, err
	}

	issuerID := parentID(parent)
	generated := events.NewCertificateGenerated(ids, cert.Label, p.CommonName, cert.Fingerprint, &issuerID, cert.NotBefore, cert.NotAfter)
	signed := events.NewCertificateSigned(ids, cert.Label, cert.Fingerprint, fingerprint(parent.Raw))

	return cert, []events.Event{generated, signed}, nil
}

// createSignedCert parses the parent material, checks it can sign, and builds
// the child certificate.
func createSignedCert(s *seed.Seed, label string, template *x509.Certificate, parentCertPEM, parentKeyPEM []byte) (*Certificate, *x509.Certificate, error) {
	parent, err := parseCertPEM(parentCertPEM)
	if err != nil {
		return nil, nil, err
	}

	parentKey, err := parseKeyPEM(parentKeyPEM)
	if err != nil {
		return nil, nil, err
	}

	if !parent.IsCA {
		return nil, nil, fmt.Errorf("parent certificate %q is not a CA", parent.Subject.CommonName)
	}

	if parent.KeyUsage&x509.KeyUsageCertSign == 0 {
		return nil, nil, fmt.Errorf("parent certificate %q cannot sign certificates", parent.Subject.CommonName)
	}

	cert, err := createCert(s, label, template, parent, parentKey)
	if err != nil {
		return nil, nil, err
	}

	return cert, parent, nil
}

// createCert generates the certificate's own keypair, signs the template, and
// assembles the PEM artifacts. A nil parent means self-signed.
func createCert(s *seed.Seed, label string, template *x509.Certificate, parent *x509.Certificate, parentKey interface{}) (*Certificate, error) {
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}
	template.SerialNumber = serial

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keys: %w", err)
	}

	if parent == nil {
		parent = template
		parentKey = priv
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, parentKey)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	keyPEM, err := encodeKeyPEM(priv)
	if err != nil {
		return nil, err
	}

	provenancePub, _ := s.KeyPair()

	return &Certificate{
		CertPEM:             encodeCertPEM(der),
		KeyPEM:              keyPEM,
		ProvenancePublicKey: provenancePub,
		Fingerprint:         fingerprint(der),
		Label:               label,
		NotBefore:           template.NotBefore,
		NotAfter:            template.NotAfter,
	}, nil
}

// randomSerial generates a random 128-bit certificate serial number.
func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)

	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("creating random serial: %w", err)
	}

	return serial, nil
}

func parentID(parent *x509.Certificate) string {
	return parent.Subject.CommonName
}

func setGeographicDN(name *pkix.Name, country, province, locality string) {
	if country != "" {
		name.Country = []string{country}
	}
	if province != "" {
		name.Province = []string{province}
	}
	if locality != "" {
		name.Locality = []string{locality}
	}
}

func splitSANs(sans []string) (dnsNames []string, ipAddresses []net.IP) {
	for _, san := range sans {
		if ip := net.ParseIP(san); ip != nil {
			ipAddresses = append(ipAddresses, ip)
			continue
		}
		dnsNames = append(dnsNames, san)
	}
	return dnsNames, ipAddresses
}

// RootLabel is the derivation label for the root CA seed.
const RootLabel = "root-ca"

// IntermediateLabel returns the derivation label for an intermediate CA
// identified by its organizational unit.
func IntermediateLabel(unit string) string {
	return "intermediate-" + labelSlug(unit)
}

// ServerLabel returns the derivation label for a server certificate
// identified by its common name.
func ServerLabel(commonName string) string {
	return "server-" + labelSlug(commonName)
}

// labelSlug normalizes a name into a derivation label segment.
func labelSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
