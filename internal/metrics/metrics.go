package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	droppedFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_dropped_frames_total",
			Help: "Inbound frames dropped at the transport boundary by reason",
		},
		[]string{"reason"},
	)

	staleSnapshots = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "game_stale_snapshots_total",
			Help: "Round snapshots discarded as stale or duplicate",
		},
	)

	reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transport_reconnects_total",
			Help: "Websocket sessions re-established after a drop",
		},
	)

	transferFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_step_failures_total",
			Help: "Transfer operations that entered Failed, by kind and step",
		},
		[]string{"kind", "step"},
	)
)

// RecordDroppedFrame counts an inbound frame discarded at the codec boundary.
// reason: "malformed" | "unknown_type" | "stale".
func RecordDroppedFrame(reason string) {
	droppedFrames.WithLabelValues(reason).Inc()
}

func RecordStaleSnapshot() {
	staleSnapshots.Inc()
}

func RecordReconnect() {
	reconnects.Inc()
}

func RecordTransferFailure(kind, step string) {
	transferFailures.WithLabelValues(kind, step).Inc()
}
