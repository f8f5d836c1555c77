package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesEncoded counts peering bodies serialized, by kind
	FramesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpm",
			Name:      "frames_encoded_total",
			Help:      "Total number of mesh peering frame bodies encoded",
		},
		[]string{"kind"},
	)

	// FramesDecoded counts peering bodies successfully decoded, by kind
	FramesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpm",
			Name:      "frames_decoded_total",
			Help:      "Total number of mesh peering frame bodies decoded",
		},
		[]string{"kind"},
	)

	// DecodeErrors counts rejected bodies by kind and reason (truncated, malformed, other)
	DecodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mpm",
			Name:      "decode_errors_total",
			Help:      "Total number of mesh peering frame bodies rejected",
		},
		[]string{"kind", "reason"},
	)

	// PacketsScanned counts captured packets inspected for peering frames
	PacketsScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mpm",
			Name:      "packets_scanned_total",
			Help:      "Total number of captured packets inspected",
		},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesEncoded)
		prometheus.DefaultRegisterer.Register(FramesDecoded)
		prometheus.DefaultRegisterer.Register(DecodeErrors)
		prometheus.DefaultRegisterer.Register(PacketsScanned)
	})
}
