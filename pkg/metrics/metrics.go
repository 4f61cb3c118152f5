// Package metrics holds the prometheus collectors exported by every
// lineemu role on the admin server's /metrics endpoint (see
// pkg/admin), labeled by role name so a single process hosting
// several listeners (printer, camera, aggregation streams) reports
// them separately.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CodesPrinted counts codes successfully extracted by a printer-role
	// listener and appended to its per-client buffer.
	CodesPrinted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineemu_codes_printed_total",
		Help: "Codes extracted from printer command streams, by role.",
	}, []string{"role"})

	// CodesTransmitted counts frames sent out by a camera-role emitter,
	// one per transmitted stack-pool flush (not per \n\r-joined segment).
	CodesTransmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineemu_frames_transmitted_total",
		Help: "Frames transmitted by a timed emitter, by role.",
	}, []string{"role"})

	// CodesDropped counts DROPPED fault-injection events.
	CodesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineemu_frames_dropped_total",
		Help: "Frames dropped by fault injection before transmission, by role.",
	}, []string{"role"})

	// FanOutDeposits counts codes deposited into aggregation sub-queues.
	FanOutDeposits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineemu_fanout_deposits_total",
		Help: "Originals deposited into aggregation sub-queues, by role.",
	}, []string{"role"})

	// ConnectedClients tracks the live connection-set size per listener.
	ConnectedClients = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lineemu_connected_clients",
		Help: "Clients currently accepted by a listener, by role.",
	}, []string{"role"})

	// QueueDepth tracks the FIFO length of each named code queue.
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lineemu_queue_depth",
		Help: "Current length of a code queue, by queue name.",
	}, []string{"queue"})
)

func init() {
	prometheus.MustRegister(
		CodesPrinted,
		CodesTransmitted,
		CodesDropped,
		FanOutDeposits,
		ConnectedClients,
		QueueDepth,
	)
}
