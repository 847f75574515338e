// Package metrics exposes the dashboard's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts login attempts by result (success/rejected).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// Toggles counts device toggle commands by transport and result.
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_toggles_total",
		Help: "Device toggle commands by transport and result.",
	}, []string{"transport", "result"})

	// ConnectionTransitions counts connection state machine transitions.
	ConnectionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_connection_transitions_total",
		Help: "Connection state machine transitions by target state.",
	}, []string{"to"})

	// WSClients tracks currently connected dashboard websocket clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "opsboard_ws_clients",
		Help: "Connected dashboard websocket clients.",
	})
)
