package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexjoedt/imagestore"
)

// PrometheusObserver exports store metrics to Prometheus.
type PrometheusObserver struct {
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	catalogImages prometheus.Gauge
}

var _ imagestore.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the store metrics with reg, reusing
// collectors that are already registered.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "imagestore"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed store operations.",
		}, []string{"operation"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Successful uploads by category.",
		}, []string{"category"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully stored.",
		}),
		catalogImages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_images",
			Help:      "Number of images in the most recent successful catalog.",
		}),
	}

	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.errors); err != nil {
		return nil, err
	}
	if err := register(reg, &o.uploads); err != nil {
		return nil, err
	}
	if err := register(reg, &o.uploadBytes); err != nil {
		return nil, err
	}
	if err := register(reg, &o.catalogImages); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*c = existing
			return nil
		}
	}
	return fmt.Errorf("register store metric: %w", err)
}

// RecordUpload tracks upload latency, size, category and failures.
func (o *PrometheusObserver) RecordUpload(c imagestore.Category, duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("upload").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("upload").Inc()
		return
	}
	o.uploads.WithLabelValues(c.Dir()).Inc()
	o.uploadBytes.Add(float64(sizeBytes))
}

// RecordCatalog tracks catalog latency and size.
func (o *PrometheusObserver) RecordCatalog(duration time.Duration, entries int, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("catalog").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("catalog").Inc()
		return
	}
	o.catalogImages.Set(float64(entries))
}
