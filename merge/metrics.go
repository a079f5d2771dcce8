package merge

import "github.com/prometheus/client_golang/prometheus"

// mergeDecisions counts arbitration outcomes ("committed", "rejected").
var mergeDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chronicler",
	Name:      "merge_decisions_total",
	Help:      "Merge arbitration outcomes",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(mergeDecisions)
}
