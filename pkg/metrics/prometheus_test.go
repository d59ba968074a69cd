package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordAnalysis("ok")
	r.RecordAnalysis("ok")
	r.RecordAnalysis("invalid")
	r.RecordMessageSent("kafka", "trend.reports")
	r.RecordError("fetch")
	r.RecordLastClose("2330.TW", 1025)
	r.RecordLatency("enrich", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.messagesSent.WithLabelValues("kafka", "trend.reports")))
	assert.Equal(t, 1025.0, testutil.ToFloat64(r.lastClose.WithLabelValues("2330.TW")))

	n, err := testutil.GatherAndCount(reg, "trendpull_operation_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
