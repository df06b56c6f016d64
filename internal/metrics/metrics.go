package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons used as the "reason" label of the dropped counter.
const (
	ReasonUnsupportedVersion = "unsupported_version"
	ReasonFiltered           = "filtered"
	ReasonSerialization      = "serialization"
	ReasonQueueFull          = "queue_full"
	ReasonEnqueue            = "enqueue"
	ReasonNotConnected       = "not_connected"
)

// Collector holds Prometheus metrics collectors
type Collector struct {
	eventsPublishedTotal *prometheus.CounterVec
	eventsDroppedTotal   *prometheus.CounterVec
	deliveryFailedTotal  *prometheus.CounterVec
	publishDuration      *prometheus.HistogramVec
	publisherConnected   prometheus.Gauge
}

// NewCollector creates a metrics collector registered with registerer
func NewCollector(registerer prometheus.Registerer) *Collector {
	factory := promauto.With(registerer)

	return &Collector{
		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafgeyser_events_published_total",
				Help: "Total number of events enqueued to the Kafka producer",
			},
			[]string{"kind"},
		),
		eventsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafgeyser_events_dropped_total",
				Help: "Total number of notifications not forwarded, by reason",
			},
			[]string{"kind", "reason"},
		),
		deliveryFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafgeyser_delivery_failed_total",
				Help: "Total number of records the producer reported as failed",
			},
			[]string{"topic"},
		),
		publishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafgeyser_publish_duration_seconds",
				Help:    "Time spent in the publish call, including the non-blocking poll",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"kind"},
		),
		publisherConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kafgeyser_publisher_connected",
				Help: "1 while the publisher holds a live producer",
			},
		),
	}
}

// IncPublished increments the published counter
func (c *Collector) IncPublished(kind string) {
	c.eventsPublishedTotal.WithLabelValues(kind).Inc()
}

// IncDropped increments the dropped counter
func (c *Collector) IncDropped(kind, reason string) {
	c.eventsDroppedTotal.WithLabelValues(kind, reason).Inc()
}

// AddDeliveryFailed records failed deliveries reported by the producer
func (c *Collector) AddDeliveryFailed(topic string, n int) {
	c.deliveryFailedTotal.WithLabelValues(topic).Add(float64(n))
}

// ObservePublishDuration records the duration of a publish call
func (c *Collector) ObservePublishDuration(kind string, seconds float64) {
	c.publishDuration.WithLabelValues(kind).Observe(seconds)
}

// SetConnected records the publisher state
func (c *Collector) SetConnected(connected bool) {
	if connected {
		c.publisherConnected.Set(1)
		return
	}
	c.publisherConnected.Set(0)
}
