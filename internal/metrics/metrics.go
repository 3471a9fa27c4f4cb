package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking exposes counters/histograms for the booking service.
type Booking struct {
	bookings      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
}

func NewBooking(reg prometheus.Registerer) *Booking {
	m := &Booking{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"result"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by outcome",
		}, []string{"result"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of unary RPCs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.cancellations, m.rpcLatency)
	return m
}

func (m *Booking) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *Booking) ObserveCancel(result string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(result).Inc()
}

func (m *Booking) ObserveRPC(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.rpcLatency.WithLabelValues(method, code).Observe(seconds)
}
