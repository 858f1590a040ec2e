// Package events defines the audit events emitted by certificate generation
// and the sink interface through which they leave this process. Transport and
// persistence live entirely behind Sink.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/cimkeys/cim-keys/internal/logging"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// nextID returns a process-unique, time-ordered event identifier.
func nextID() snowflake.ID {
	nodeOnce.Do(func() {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			// NewNode only fails for out-of-range node numbers.
			panic(err)
		}
	})
	return node.Generate()
}

// Correlation carries the identifiers that interleave events from one logical
// operation into the caller's event log.
type Correlation struct {
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
}

// NewCorrelation starts a fresh correlation chain.
func NewCorrelation() Correlation {
	id := uuid.New()
	return Correlation{CorrelationID: id, CausationID: id}
}

// Event is implemented by every audit event in this package.
type Event interface {
	ID() snowflake.ID
	Name() string
	OccurredAt() time.Time
}

type header struct {
	EventID       snowflake.ID
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
	At            time.Time
}

func newHeader(ids Correlation) header {
	return header{
		EventID:       nextID(),
		CorrelationID: ids.CorrelationID,
		CausationID:   ids.CausationID,
		At:            time.Now().UTC(),
	}
}

func (h header) ID() snowflake.ID      { return h.EventID }
func (h header) OccurredAt() time.Time { return h.At }

// CertificateGenerated records that a certificate was built. IssuerID is nil
// for self-signed roots.
type CertificateGenerated struct {
	header

	Label       string
	CommonName  string
	Fingerprint string
	IssuerID    *string
	NotBefore   time.Time
	NotAfter    time.Time
}

func (CertificateGenerated) Name() string { return "certificate.generated" }

// CertificateSigned records that a certificate was signed by a parent CA.
type CertificateSigned struct {
	header

	Label             string
	Fingerprint       string
	IssuerFingerprint string
}

func (CertificateSigned) Name() string { return "certificate.signed" }

// NewCertificateGenerated builds the event with a fresh event ID.
func NewCertificateGenerated(ids Correlation, label, commonName, fingerprint string, issuerID *string, notBefore, notAfter time.Time) CertificateGenerated {
	return CertificateGenerated{
		header:      newHeader(ids),
		Label:       label,
		CommonName:  commonName,
		Fingerprint: fingerprint,
		IssuerID:    issuerID,
		NotBefore:   notBefore,
		NotAfter:    notAfter,
	}
}

// NewCertificateSigned builds the event with a fresh event ID.
func NewCertificateSigned(ids Correlation, label, fingerprint, issuerFingerprint string) CertificateSigned {
	return CertificateSigned{
		header:            newHeader(ids),
		Label:             label,
		Fingerprint:       fingerprint,
		IssuerFingerprint: issuerFingerprint,
	}
}

// Sink receives audit events. Implementations own delivery and persistence.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// LogSink writes events to the shared logger. It is the default sink for the
// CLI, where the event log is out of scope.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event Event) error {
	logging.Debugf("event %s id=%s at=%s", event.Name(), event.ID(), event.OccurredAt().Format(time.RFC3339))
	return nil
}
