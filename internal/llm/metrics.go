package llm

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	llmclient "topicgrid/internal/llm/client"
)

// Metrics holds the completion collectors. Register them once per registry.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topicgrid",
			Subsystem: "llm",
			Name:      "completions_total",
			Help:      "LLM completions by provider, task and outcome.",
		}, []string{"provider", "task", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topicgrid",
			Subsystem: "llm",
			Name:      "completion_duration_seconds",
			Help:      "LLM completion latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider", "task"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

// WithMetrics records one counter increment and one latency observation per call.
func WithMetrics(m *Metrics) Middleware {
	if m == nil {
		return nil
	}
	return func(next llmclient.Provider) llmclient.Provider {
		provider := string(next.Name())
		return &decorated{
			next: next,
			complete: func(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				task := taskLabel(req.Task)
				m.latency.WithLabelValues(provider, task).Observe(time.Since(start).Seconds())
				m.requests.WithLabelValues(provider, task, outcome(err)).Inc()
				return resp, err
			},
		}
	}
}

// taskLabel folds "keyword:<dim>" into "keyword" to bound label cardinality.
func taskLabel(task string) string {
	for i := 0; i < len(task); i++ {
		if task[i] == ':' {
			return task[:i]
		}
	}
	if task == "" {
		return "unknown"
	}
	return task
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ce *llmclient.ConfigurationError
	var ae *llmclient.AuthorizationError
	switch {
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &ae):
		return "unauthorized"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	}
	if s := llmclient.StatusOf(err); s > 0 {
		return strconv.Itoa(s)
	}
	return "error"
}
