package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts settlement operations by outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_operations_total",
		Help: "Total settlement operations",
	}, []string{"op", "outcome"})

	// EventsPublished counts events pushed to the room channel.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_events_published_total",
		Help: "Total events published to room subscribers",
	}, []string{"event"})

	// SSEClients tracks currently connected stream clients.
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_sse_clients",
		Help: "Connected SSE clients",
	})
)
