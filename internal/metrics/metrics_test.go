package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"SendLater/internal/metrics"
)

func TestRecord(t *testing.T) {
	sent := testutil.ToFloat64(metrics.EmailsSent)
	failed := testutil.ToFloat64(metrics.EmailFailures)

	metrics.Record(true)
	metrics.Record(false)
	metrics.Record(false)

	assert.Equal(t, sent+1, testutil.ToFloat64(metrics.EmailsSent))
	assert.Equal(t, failed+2, testutil.ToFloat64(metrics.EmailFailures))
}
