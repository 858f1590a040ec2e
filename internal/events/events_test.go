package events

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestNewCorrelationStartsChain(t *testing.T) {
	ids := NewCorrelation()
	assert.Equal(t, ids.CorrelationID, ids.CausationID)

	other := NewCorrelation()
	assert.Assert(t, ids.CorrelationID != other.CorrelationID)
}

func TestEventIDsAreUnique(t *testing.T) {
	ids := NewCorrelation()

	e1 := NewCertificateGenerated(ids, "root-ca", "Acme Root CA", "aa:bb", nil, time.Now(), time.Now())
	e2 := NewCertificateSigned(ids, "server-api", "cc:dd", "aa:bb")

	assert.Assert(t, e1.ID() != e2.ID())
	assert.Equal(t, e1.Name(), "certificate.generated")
	assert.Equal(t, e2.Name(), "certificate.signed")
	assert.Equal(t, e1.CorrelationID, ids.CorrelationID)
}

func TestLogSinkPublish(t *testing.T) {
	ids := NewCorrelation()
	event := NewCertificateSigned(ids, "server-api", "cc:dd", "aa:bb")

	err := LogSink{}.Publish(context.Background(), event)
	assert.NilError(t, err)
}
