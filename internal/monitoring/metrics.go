package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_joins_total",
			Help: "Total join attempts per vendor",
		},
		[]string{"vendor_id", "result"},
	)

	queueCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_completions_total",
			Help: "Total completed tickets per vendor",
		},
		[]string{"vendor_id"},
	)

	statusReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_status_reads_total",
			Help: "Total ticket status lookups",
		},
	)

	waitingLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_waiting_length",
			Help: "Current number of waiting tickets per vendor",
		},
		[]string{"vendor_id"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) TrackJoin(vendorID int64, result string) {
	queueJoins.WithLabelValues(strconv.FormatInt(vendorID, 10), result).Inc()
}

func (m *Monitor) TrackCompletion(vendorID int64) {
	queueCompletions.WithLabelValues(strconv.FormatInt(vendorID, 10)).Inc()
}

func (m *Monitor) TrackStatusRead() {
	statusReads.Inc()
}

func (m *Monitor) SetWaitingLength(vendorID int64, n int) {
	waitingLength.WithLabelValues(strconv.FormatInt(vendorID, 10)).Set(float64(n))
}
