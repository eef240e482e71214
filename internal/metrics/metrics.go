// Package metrics provides Prometheus metrics for the frame path and
// the discovery scanner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "frames",
		Name:      "received_total",
		Help:      "Decoded frames delivered to a slot",
	}, []string{"slot"})

	framesOverwritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "frames",
		Name:      "overwritten_total",
		Help:      "Frames overwritten in a slot before the compositor drained them",
	}, []string{"slot"})

	framesOverflowed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "frames",
		Name:      "overflowed_total",
		Help:      "Frames dropped because the slot index exceeded grid capacity",
	})

	framesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "render",
		Name:      "uploads_total",
		Help:      "Texture uploads performed by the compositor",
	})

	drawErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "render",
		Name:      "draw_errors_total",
		Help:      "Per-slot upload or draw failures (pass continues)",
	})

	probeAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "discovery",
		Name:      "probe_attempts_total",
		Help:      "TCP connect probes attempted",
	})

	devicesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camgrid",
		Subsystem: "discovery",
		Name:      "devices_discovered_total",
		Help:      "New devices added to the registry",
	})

	devicesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camgrid",
		Subsystem: "discovery",
		Name:      "devices_active",
		Help:      "Registry entries currently marked active",
	})

	streamsPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camgrid",
		Subsystem: "streams",
		Name:      "playing",
		Help:      "Workers currently in the playing state",
	})
)

// RecordFrameReceived counts a frame delivered to a slot.
func RecordFrameReceived(slot string) {
	framesReceived.WithLabelValues(slot).Inc()
}

// RecordFrameOverwritten counts a frame replaced before consumption.
func RecordFrameOverwritten(slot string) {
	framesOverwritten.WithLabelValues(slot).Inc()
}

// RecordFrameOverflow counts a push to an out-of-capacity slot.
func RecordFrameOverflow() {
	framesOverflowed.Inc()
}

// RecordUpload counts a texture upload.
func RecordUpload() {
	framesUploaded.Inc()
}

// RecordDrawError counts an isolated per-slot render failure.
func RecordDrawError() {
	drawErrors.Inc()
}

// RecordProbe counts a connect probe attempt.
func RecordProbe() {
	probeAttempts.Inc()
}

// RecordDeviceDiscovered counts a registry insertion.
func RecordDeviceDiscovered() {
	devicesDiscovered.Inc()
}

// SetDevicesActive sets the active-device gauge.
func SetDevicesActive(n int) {
	devicesActive.Set(float64(n))
}

// SetStreamsPlaying sets the playing-worker gauge.
func SetStreamsPlaying(n int) {
	streamsPlaying.Set(float64(n))
}
