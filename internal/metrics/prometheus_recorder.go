package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	operationDuration  *prom.HistogramVec
	operationResults   *prom.CounterVec
	retries            *prom.CounterVec
	retriesExhausted   *prom.CounterVec
	taskOutcomes       *prom.CounterVec
	activeTasks        prom.Gauge
	workspaceAllocated prom.Counter
	workspaceReleased  prom.Counter
	workspaceEvicted   *prom.CounterVec
	rateLimited        prom.Counter
}

// NewPrometheusRecorder constructs and registers the service metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		operationDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gitmcp",
			Name:      "operation_duration_seconds",
			Help:      "Duration of git operations",
			Buckets:   prom.DefBuckets,
		}, []string{"operation", "result"}),
		operationResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "operation_results_total",
			Help:      "Git operation results by success/failure",
		}, []string{"operation", "result"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "operation_retries_total",
			Help:      "Transient-failure retries by operation",
		}, []string{"operation"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "operation_retry_exhausted_total",
			Help:      "Operations that exhausted their retry budget",
		}, []string{"operation"}),
		taskOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "task_outcomes_total",
			Help:      "Task terminal states",
		}, []string{"status"}),
		activeTasks: prom.NewGauge(prom.GaugeOpts{
			Namespace: "gitmcp",
			Name:      "active_tasks",
			Help:      "Tasks currently running",
		}),
		workspaceAllocated: prom.NewCounter(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "workspaces_allocated_total",
			Help:      "Workspaces allocated",
		}),
		workspaceReleased: prom.NewCounter(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "workspaces_released_total",
			Help:      "Workspaces released",
		}),
		workspaceEvicted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "workspaces_evicted_total",
			Help:      "Workspaces evicted by the cleanup loop",
		}, []string{"reason"}),
		rateLimited: prom.NewCounter(prom.CounterOpts{
			Namespace: "gitmcp",
			Name:      "requests_rate_limited_total",
			Help:      "Tool calls rejected by the rate limiter",
		}),
	}
	reg.MustRegister(
		pr.operationDuration, pr.operationResults, pr.retries, pr.retriesExhausted,
		pr.taskOutcomes, pr.activeTasks,
		pr.workspaceAllocated, pr.workspaceReleased, pr.workspaceEvicted,
		pr.rateLimited,
	)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveOperationDuration(operation string, d time.Duration, success bool) {
	if p == nil || p.operationDuration == nil {
		return
	}
	p.operationDuration.WithLabelValues(operation, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationResult(operation string, success bool) {
	if p == nil || p.operationResults == nil {
		return
	}
	p.operationResults.WithLabelValues(operation, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncRetry(operation string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(operation string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) IncTaskOutcome(status string) {
	if p == nil || p.taskOutcomes == nil {
		return
	}
	p.taskOutcomes.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetActiveTasks(n int) {
	if p == nil || p.activeTasks == nil {
		return
	}
	p.activeTasks.Set(float64(n))
}

func (p *PrometheusRecorder) IncWorkspaceAllocated() {
	if p == nil || p.workspaceAllocated == nil {
		return
	}
	p.workspaceAllocated.Inc()
}

func (p *PrometheusRecorder) IncWorkspaceReleased() {
	if p == nil || p.workspaceReleased == nil {
		return
	}
	p.workspaceReleased.Inc()
}

func (p *PrometheusRecorder) IncWorkspaceEvicted(reason string) {
	if p == nil || p.workspaceEvicted == nil {
		return
	}
	p.workspaceEvicted.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncRateLimited() {
	if p == nil || p.rateLimited == nil {
		return
	}
	p.rateLimited.Inc()
}
