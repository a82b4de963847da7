package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordIngest(t *testing.T) {
	before := testutil.ToFloat64(IngestRows.WithLabelValues("rejected"))

	RecordIngest(10, 3, 1, 10)

	assert.Equal(t, before+3, testutil.ToFloat64(IngestRows.WithLabelValues("rejected")))
	assert.Equal(t, 10.0, testutil.ToFloat64(CatalogSize))

	RecordIngest(0, 5, 0, 0)
	assert.Equal(t, 10.0, testutil.ToFloat64(CatalogSize))
}

func TestRecordTraining(t *testing.T) {
	failures := testutil.ToFloat64(TrainingRuns.WithLabelValues("failure"))

	RecordTraining("failure", time.Second, 0.9, 99)
	assert.Equal(t, failures+1, testutil.ToFloat64(TrainingRuns.WithLabelValues("failure")))
	assert.NotEqual(t, 99.0, testutil.ToFloat64(ModelVersion))

	RecordTraining("success", time.Second, 0.02, 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(ModelVersion))
	assert.Equal(t, 0.02, testutil.ToFloat64(TrainingValLoss))
}

func TestRecordRecommend(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits)
	misses := testutil.ToFloat64(CacheMisses)

	RecordRecommend("ok", time.Millisecond, true)
	RecordRecommend("ok", time.Millisecond, false)
	RecordRecommend("invalid", 0, false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits))
	assert.Equal(t, misses+1, testutil.ToFloat64(CacheMisses))
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequests.WithLabelValues("GET", "/health", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/health", "200", 2*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
