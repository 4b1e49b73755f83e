// Package metrics exposes prometheus counters for workflow runs, fed by the event bus.
package metrics

import (
	"context"
	"net/http"

	"github.com/dukex/postsync/pkg/eventbus"
	"github.com/dukex/postsync/pkg/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "postsync"

type Metrics struct {
	registry     *prometheus.Registry
	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	runDuration  prometheus.Histogram
	activeRuns   prometheus.Gauge
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	iterations   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Workflow runs started.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Workflow runs finished, by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a workflow run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Workflow runs in progress.",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Node executions, by node.",
		}, []string{"node"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of a node execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_iterations",
			Help:      "Reviewer passes per finished run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runsStarted, m.runsFinished, m.runDuration, m.activeRuns,
		m.steps, m.stepDuration, m.iterations,
	)

	return m
}

// Register attaches the metric handlers to bus. The caller still has to Subscribe.
func (m *Metrics) Register(bus eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunStartedEvent:    m.onRunStarted,
		events.StepCompletedEvent: m.onStepCompleted,
		events.RunFinishedEvent:   m.onRunFinished,
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) onRunStarted(_ context.Context, _ any) error {
	m.runsStarted.Inc()
	m.activeRuns.Inc()

	return nil
}

func (m *Metrics) onStepCompleted(_ context.Context, event any) error {
	step, ok := event.(*events.StepCompleted)
	if !ok {
		return nil
	}

	m.steps.WithLabelValues(step.Node).Inc()
	m.stepDuration.WithLabelValues(step.Node).Observe(step.Duration.Seconds())

	return nil
}

func (m *Metrics) onRunFinished(_ context.Context, event any) error {
	finished, ok := event.(*events.RunFinished)
	if !ok {
		return nil
	}

	m.activeRuns.Dec()
	m.runsFinished.WithLabelValues(string(finished.Status)).Inc()
	m.runDuration.Observe(finished.Duration.Seconds())
	m.iterations.Observe(float64(finished.IterationCount))

	return nil
}
