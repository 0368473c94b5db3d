package deliver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callbacksDispatched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "oauthrelay_callbacks_dispatched_total",
	Help: "Number of OAuth callbacks handed to the deliverer",
})

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "oauthrelay_deliveries_total",
	Help: "Number of finished deliveries by outcome",
}, []string{"outcome"})

var readinessWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "oauthrelay_readiness_wait_seconds",
	Help:    "Time spent waiting for the chat surface to become ready",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

func observeOutcome(r Result) {
	if r.Err != nil {
		deliveries.WithLabelValues("error").Inc()
		return
	}
	deliveries.WithLabelValues(r.Outcome.String()).Inc()
}
