package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	trialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routerprobe",
			Subsystem: "probe",
			Name:      "trials_total",
			Help:      "Trials executed, by outcome",
		},
		[]string{"capability", "provider", "status"},
	)

	trialDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "routerprobe",
			Subsystem: "probe",
			Name:      "trial_duration_seconds",
			Help:      "Wall time of one capability invocation",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"capability"},
	)

	providersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routerprobe",
			Subsystem: "probe",
			Name:      "providers_total",
			Help:      "Aggregated (model, provider) pairs, by support level",
		},
		[]string{"capability", "level"},
	)

	modelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routerprobe",
			Subsystem: "probe",
			Name:      "models_total",
			Help:      "Models finished, by terminal state",
		},
		[]string{"capability", "state"},
	)

	checkpointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routerprobe",
			Subsystem: "store",
			Name:      "checkpoints_total",
			Help:      "Checkpoint writes, by result",
		},
		[]string{"result"},
	)

	modelsInRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "routerprobe",
			Subsystem: "probe",
			Name:      "models_remaining",
			Help:      "Models not yet finished in the current run",
		},
	)
)

func init() {
	prometheus.MustRegister(trialsTotal, trialDuration, providersTotal, modelsTotal, checkpointsTotal, modelsInRun)
}
