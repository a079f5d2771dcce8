package extract

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics. Registered on the default registry; cmd/chronicler
// exposes them through promhttp when the watch server runs.
var (
	chunksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chronicler",
		Name:      "chunks_processed_total",
		Help:      "Text chunks submitted for event extraction",
	})
	inferenceCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronicler",
		Name:      "inference_calls_total",
		Help:      "Inference service calls by pipeline stage",
	}, []string{"stage"})
	parseFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronicler",
		Name:      "parse_failures_total",
		Help:      "Inference responses dropped because they could not be parsed",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(chunksProcessed, inferenceCalls, parseFailures)
}
