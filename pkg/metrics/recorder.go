// Package metrics exposes fetch outcomes as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

const namespace = "rawfetch"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder implements client.Observer by updating Prometheus metrics.
type Recorder struct {
	fetches   *prometheus.CounterVec
	statuses  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	bodyBytes prometheus.Histogram
	rendered  prometheus.Counter
}

// NewRecorder creates a Recorder and registers its metrics with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Fetches by outcome and error type (empty for successes)",
		}, []string{"outcome", "error_type"}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Successful fetches by final status code",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of each fetch, including failures",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		bodyBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "body_bytes",
			Help:      "Size of fetched bodies",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		rendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rendered_total",
			Help:      "Bodies produced by the renderer instead of the socket",
		}),
	}

	for _, c := range []prometheus.Collector{r.fetches, r.statuses, r.duration, r.bodyBytes, r.rendered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveFetch implements client.Observer.
func (r *Recorder) ObserveFetch(rawURL string, resp *client.Response, err error, elapsed time.Duration) {
	if err != nil {
		r.fetches.WithLabelValues(OutcomeError, errorLabel(err)).Inc()
		r.duration.WithLabelValues(OutcomeError).Observe(elapsed.Seconds())
		return
	}

	r.fetches.WithLabelValues(OutcomeSuccess, "").Inc()
	r.duration.WithLabelValues(OutcomeSuccess).Observe(elapsed.Seconds())
	r.statuses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	r.bodyBytes.Observe(float64(len(resp.Body)))
	if resp.Rendered {
		r.rendered.Inc()
	}
}

func errorLabel(err error) string {
	if t := errors.GetErrorType(err); t != "" {
		return string(t)
	}
	return "other"
}
