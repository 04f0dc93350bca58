package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/sensor"
)

const namespace = "luxq"

// Metrics counts pipeline events. It is a tasks.Observer.
type Metrics struct {
	reg prometheus.Registerer

	sent      *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	received  prometheus.Counter
	anomalies prometheus.Counter
	lastLux   prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		sent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_sent_total",
			Help:      "Samples accepted by the queue.",
		}, []string{"producer"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_dropped_total",
			Help:      "Samples dropped because the queue stayed full for the push timeout.",
		}, []string{"producer"}),
		received: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_received_total",
			Help:      "Samples delivered to the display.",
		}),
		anomalies: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_anomalies_total",
			Help:      "Pop timeouts seen by the consumer.",
		}),
		lastLux: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "display_lux",
			Help:      "Last rendered reading.",
		}),
	}
}

func (m *Metrics) Sent(producer string, _ sensor.Sample) {
	m.sent.WithLabelValues(producer).Inc()
}

func (m *Metrics) Dropped(producer string, _ sensor.Sample) {
	m.dropped.WithLabelValues(producer).Inc()
}

func (m *Metrics) Received(_ string, s sensor.Sample) {
	m.received.Inc()
	m.lastLux.Set(float64(s))
}

func (m *Metrics) Anomaly(string, scheduler.Ticks) {
	m.anomalies.Inc()
}

// Depth is the view of a queue the gauges sample.
type Depth interface {
	Name() string
	Len() int
	Cap() int
}

// RegisterQueue exports the fill level of q.
func (m *Metrics) RegisterQueue(q Depth) {
	labels := prometheus.Labels{"queue": q.Name()}
	f := promauto.With(m.reg)

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "queue_length",
		Help:        "Samples currently queued.",
		ConstLabels: labels,
	}, func() float64 { return float64(q.Len()) })

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "queue_capacity",
		Help:        "Fixed queue capacity.",
		ConstLabels: labels,
	}, func() float64 { return float64(q.Cap()) })
}

// RegisterKernel exports the tick counter and heap usage of k.
func (m *Metrics) RegisterKernel(k *scheduler.Kernel) {
	f := promauto.With(m.reg)

	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kernel_ticks_total",
		Help:      "Ticks since the scheduler started.",
	}, func() float64 { return float64(k.Now()) })

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "kernel_heap_used_bytes",
		Help:      "Bytes reserved by tasks and queues.",
	}, func() float64 { return float64(k.Snapshot().HeapUsed) })
}
