package certs

import (
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/cimkeys/cim-keys/internal/events"
	"github.com/cimkeys/cim-keys/internal/seed"
)

func testMasterSeed(t *testing.T) *seed.Seed {
	t.Helper()
	s, err := seed.DeriveMaster([]byte("correct horse battery staple"), "acme", seed.TestParams)
	assert.NilError(t, err)
	t.Cleanup(s.Zero)
	return s
}

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	assert.Assert(t, block != nil)

	cert, err := x509.ParseCertificate(block.Bytes)
	assert.NilError(t, err)
	return cert
}

func TestGenerateRootCA(t *testing.T) {
	master := testMasterSeed(t)
	rootSeed := master.Child("root-ca")
	defer rootSeed.Zero()

	cert, evs, err := GenerateRootCA(rootSeed, RootParams{
		Organization: "Acme Corp",
		CommonName:   "Acme Root CA",
		Country:      "DE",
	}, events.NewCorrelation())
	assert.NilError(t, err)

	parsed := parseCert(t, cert.CertPEM)
	assert.Assert(t, parsed.IsCA)
	assert.Assert(t, parsed.MaxPathLen >= 1)
	assert.Equal(t, parsed.KeyUsage, x509.KeyUsageCertSign|x509.KeyUsageCRLSign)
	assert.Equal(t, parsed.Subject.String(), parsed.Issuer.String())
	assert.Equal(t, parsed.Subject.CommonName, "Acme Root CA")

	// default 20 years
	wantDays := 20 * 365.0
	gotDays := parsed.NotAfter.Sub(parsed.NotBefore).Hours() / 24
	assert.Assert(t, gotDays > wantDays-5 && gotDays < wantDays+10)

	assert.Assert(t, is.Len(evs, 1))
	generated, ok := evs[0].(events.CertificateGenerated)
	assert.Assert(t, ok)
	assert.Assert(t, generated.IssuerID == nil)
	assert.Equal(t, generated.Fingerprint, cert.Fingerprint)
	assert.Assert(t, is.Len(cert.ProvenancePublicKey, 32))
}

func TestGenerateRootCAValidityArithmetic(t *testing.T) {
	master := testMasterSeed(t)

	cert, _, err := GenerateRootCA(master, RootParams{
		Organization:  "Acme Corp",
		CommonName:    "Acme Root CA",
		ValidityYears: 10,
	}, events.NewCorrelation())
	assert.NilError(t, err)

	parsed := parseCert(t, cert.CertPEM)
	gotDays := parsed.NotAfter.Sub(parsed.NotBefore).Hours() / 24
	assert.Assert(t, gotDays > 10*365-5.0 && gotDays < 10*365+5.0)
}

func TestGenerateRootCAInvalidParams(t *testing.T) {
	master := testMasterSeed(t)

	_, _, err := GenerateRootCA(master, RootParams{Organization: "Acme Corp"}, events.NewCorrelation())
	assert.ErrorContains(t, err, "invalid certificate parameters")
}

func TestGenerateIntermediateCA(t *testing.T) {
	master := testMasterSeed(t)

	root, _, err := GenerateRootCA(master.Child("root-ca"), RootParams{
		Organization: "Acme Corp",
		CommonName:   "Acme Root CA",
	}, events.NewCorrelation())
	assert.NilError(t, err)

	inter, evs, err := GenerateIntermediateCA(master.ChildPath("root-ca", "intermediate-engineering"), IntermediateParams{
		Organization:       "Acme Corp",
		OrganizationalUnit: "Engineering",
		CommonName:         "Acme Engineering CA",
	}, root.CertPEM, root.KeyPEM, events.NewCorrelation())
	assert.NilError(t, err)

	parsed := parseCert(t, inter.CertPEM)
	assert.Assert(t, parsed.IsCA)
	assert.Equal(t, parsed.MaxPathLen, 0)
	assert.Assert(t, parsed.MaxPathLenZero)
	assert.Equal(t, parsed.KeyUsage, x509.KeyUsageCertSign|x509.KeyUsageCRLSign)
	assert.Assert(t, parsed.KeyUsage&x509.KeyUsageDigitalSignature == 0)
	assert.Equal(t, parsed.Issuer.CommonName, "Acme Root CA")
	assert.Equal(t, inter.Label, "intermediate-engineering")

	rootParsed := parseCert(t, root.CertPEM)
	assert.NilError(t, parsed.CheckSignatureFrom(rootParsed))

	assert.Assert(t, is.Len(evs, 2))
	signed, ok := evs[1].(events.CertificateSigned)
	assert.Assert(t, ok)
	assert.Equal(t, signed.IssuerFingerprint, root.Fingerprint)
}

func TestGenerateIntermediateCARejectsNonCAParent(t *testing.T) {
	master := testMasterSeed(t)

	chain := generateChain(t, master)

	_, _, err := GenerateIntermediateCA(master.Child("x"), IntermediateParams{
		Organization: "Acme Corp",
		CommonName:   "Another CA",
	}, chain.leaf.CertPEM, chain.leaf.KeyPEM, events.NewCorrelation())
	assert.ErrorContains(t, err, "not a CA")
}

func TestGenerateIntermediateCARejectsMalformedParent(t *testing.T) {
	master := testMasterSeed(t)

	_, _, err := GenerateIntermediateCA(master.Child("x"), IntermediateParams{
		Organization: "Acme Corp",
		CommonName:   "Another CA",
	}, []byte("not pem"), []byte("not pem"), events.NewCorrelation())
	assert.ErrorContains(t, err, "no CERTIFICATE block")
}

func TestGenerateServerCertificate(t *testing.T) {
	master := testMasterSeed(t)
	chain := generateChain(t, master)

	parsed := parseCert(t, chain.leaf.CertPEM)
	assert.Assert(t, !parsed.IsCA)
	assert.Equal(t, parsed.KeyUsage, x509.KeyUsageDigitalSignature|x509.KeyUsageKeyEncipherment)
	assert.DeepEqual(t, parsed.ExtKeyUsage, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth})

	// common name auto-inserted as first SAN
	assert.DeepEqual(t, parsed.DNSNames, []string{"api.acme.example", "www.acme.example"})
	assert.Assert(t, is.Len(parsed.IPAddresses, 1))

	// default 90 days
	gotDays := parsed.NotAfter.Sub(parsed.NotBefore).Hours() / 24
	assert.Assert(t, gotDays > 89.0 && gotDays < 91.0)
}

func TestChainRoundTrip(t *testing.T) {
	master := testMasterSeed(t)
	chain := generateChain(t, master)

	root := parseCert(t, chain.root.CertPEM)
	inter := parseCert(t, chain.inter.CertPEM)
	leaf := parseCert(t, chain.leaf.CertPEM)

	assert.Equal(t, leaf.Issuer.CommonName, inter.Subject.CommonName)
	assert.Equal(t, inter.Issuer.CommonName, root.Subject.CommonName)
	assert.NilError(t, leaf.CheckSignatureFrom(inter))
	assert.NilError(t, inter.CheckSignatureFrom(root))

	// fingerprints pairwise distinct
	assert.Assert(t, chain.root.Fingerprint != chain.inter.Fingerprint)
	assert.Assert(t, chain.inter.Fingerprint != chain.leaf.Fingerprint)
	assert.Assert(t, chain.root.Fingerprint != chain.leaf.Fingerprint)

	// full path verification against the root pool
	roots := x509.NewCertPool()
	roots.AddCert(root)
	inters := x509.NewCertPool()
	inters.AddCert(inter)

	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       "api.acme.example",
		Roots:         roots,
		Intermediates: inters,
		CurrentTime:   time.Now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	assert.NilError(t, err)
}

type chain struct {
	root  *Certificate
	inter *Certificate
	leaf  *Certificate
}

func generateChain(t *testing.T, master *seed.Seed) chain {
	t.Helper()
	ids := events.NewCorrelation()

	root, _, err := GenerateRootCA(master.Child("root-ca"), RootParams{
		Organization: "Acme Corp",
		CommonName:   "Acme Root CA",
	}, ids)
	assert.NilError(t, err)

	inter, _, err := GenerateIntermediateCA(master.ChildPath("root-ca", "intermediate-engineering"), IntermediateParams{
		Organization:       "Acme Corp",
		OrganizationalUnit: "Engineering",
		CommonName:         "Acme Engineering CA",
	}, root.CertPEM, root.KeyPEM, ids)
	assert.NilError(t, err)

	leaf, _, err := GenerateServerCertificate(master.ChildPath("root-ca", "intermediate-engineering", "server-api"), ServerParams{
		CommonName:      "api.acme.example",
		Organization:    "Acme Corp",
		SubjectAltNames: []string{"www.acme.example", "10.0.0.5"},
	}, inter.CertPEM, inter.KeyPEM, ids)
	assert.NilError(t, err)

	return chain{root: root, inter: inter, leaf: leaf}
}
