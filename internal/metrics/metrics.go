package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the advisor.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	ModelCalls      *prometheus.CounterVec
	ModelLatency    *prometheus.HistogramVec
	ToolCalls       *prometheus.CounterVec
	SearchCacheHits *prometheus.CounterVec
	TasksTotal      *prometheus.CounterVec
	TaskRetries     *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	DelayedDepth    prometheus.Gauge
}

// New registers all instruments with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_turns_total",
			Help: "Total number of completed chat turns by outcome",
		}, []string{"outcome"}),

		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_turn_duration_seconds",
			Help:    "End-to-end turn latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		ModelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_model_calls_total",
			Help: "Total number of model calls by provider and purpose",
		}, []string{"provider", "purpose"}),

		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_model_call_duration_seconds",
			Help:    "Model call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),

		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_tool_calls_total",
			Help: "Total number of tool executions by tool and status",
		}, []string{"tool", "status"}),

		SearchCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_cache_total",
			Help: "Search cache lookups by result",
		}, []string{"result"}), // hit or miss

		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_tasks_total",
			Help: "Total number of finished background tasks by name and status",
		}, []string{"task", "status"}),

		TaskRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_task_retries_total",
			Help: "Total number of background task retries by name",
		}, []string{"task"}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_queue_ready_tasks",
			Help: "Tasks waiting in the ready queue",
		}),

		DelayedDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_queue_delayed_tasks",
			Help: "Tasks waiting for their retry backoff",
		}),
	}
}

// ObserveTurn records a finished turn
func (m *Metrics) ObserveTurn(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDuration.Observe(elapsed.Seconds())
}

// ObserveModelCall records one model invocation
func (m *Metrics) ObserveModelCall(provider, purpose string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(provider, purpose).Inc()
	m.ModelLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveToolCall records one tool execution
func (m *Metrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}

// ObserveCache records a search cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SearchCacheHits.WithLabelValues(result).Inc()
}

// ObserveTask records a task reaching a terminal status
func (m *Metrics) ObserveTask(task, status string) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(task, status).Inc()
}

// ObserveRetry records a task being scheduled for another attempt
func (m *Metrics) ObserveRetry(task string) {
	if m == nil {
		return
	}
	m.TaskRetries.WithLabelValues(task).Inc()
}

// SetQueueDepth records the current ready queue length
func (m *Metrics) SetQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// SetDelayedDepth records how many tasks wait for a retry
func (m *Metrics) SetDelayedDepth(n int64) {
	if m == nil {
		return
	}
	m.DelayedDepth.Set(float64(n))
}
