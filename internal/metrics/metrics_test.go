package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTurn("success", 2*time.Second)
	m.ObserveToolCall("google_search", "success")
	m.ObserveToolCall("google_search", "success")
	m.ObserveCache(true)
	m.ObserveTask("chat.turn", "SUCCESS")
	m.ObserveRetry("chat.turn")
	m.SetQueueDepth(4)
	m.SetDelayedDepth(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("google_search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchCacheHits.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("chat.turn", "SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskRetries.WithLabelValues("chat.turn")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DelayedDepth))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("success", time.Second)
		m.ObserveModelCall("gemini", "turn", time.Second)
		m.ObserveToolCall("google_search", "error")
		m.ObserveCache(false)
		m.ObserveTask("chat.turn", "FAILURE")
		m.ObserveRetry("chat.turn")
		m.SetQueueDepth(0)
		m.SetDelayedDepth(0)
	})
}
