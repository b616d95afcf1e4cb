package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// promauto registers on the default registry, so every test gets its
// own namespace to avoid duplicate registration.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.actionsTotal)
	assert.NotNil(t, collector.snapshotsTotal)
	assert.NotNil(t, collector.interventionsTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/automation/click_element", 200, 100*time.Millisecond, 64, 2048)
	collector.RecordHTTPRequest("POST", "/automation/click_element", 404, 50*time.Millisecond, 64, 512)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Equal(t, 2, count)
}

func TestCollector_RecordAction(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordAction("click", "success", 120*time.Millisecond)
	collector.RecordAction("click", "failed", 80*time.Millisecond)
	collector.RecordAction("input_text", "success", 200*time.Millisecond)

	assert.Equal(t, 3, testutil.CollectAndCount(collector.actionsTotal))

	collector.RecordCoordinateFallback("click", "success")
	assert.Equal(t, 1, testutil.CollectAndCount(collector.coordinateFallbacks))
}

func TestCollector_RecordSnapshot(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordSnapshot(40*time.Millisecond, 37)
	collector.RecordSnapshot(55*time.Millisecond, 12)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.snapshotsTotal))
}

func TestCollector_InterventionLifecycle(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordInterventionRequested("captcha")
	collector.RecordInterventionRequested("login")
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.interventionsPending))

	collector.RecordInterventionResolved("captcha", "completed", 42*time.Second)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.interventionsPending))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.interventionsResolved))
}


func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(204))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(404))
	assert.Equal(t, "5xx", statusCode(503))
	assert.Equal(t, "unknown", statusCode(42))
}
