package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coolchat_connected_clients",
		Help: "Number of currently connected clients",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coolchat_messages_total",
		Help: "Total messages dispatched by kind",
	}, []string{"kind"})

	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coolchat_dispatch_seconds",
		Help:    "Time to route one message",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	DroppedDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coolchat_dropped_deliveries_total",
		Help: "Lines dropped because a session's outbound buffer was full",
	})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(DroppedDeliveries)
}
