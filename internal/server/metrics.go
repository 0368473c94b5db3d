package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callbackRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "oauthrelay_callback_requests_total",
	Help: "Chat landing and provider redirect requests that carried callback parameters, by result",
}, []string{"result"})
