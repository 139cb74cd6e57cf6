package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_frames_submitted_total",
		Help: "Total number of frames handed to the sink by the producer",
	}, []string{"name"})
	FramesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_frames_published_total",
		Help: "Total number of converted frames made ready for drawing",
	}, []string{"name"})
	FramesPresented = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_frames_presented_total",
		Help: "Total number of draw passes that showed a frame",
	}, []string{"name"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_frames_dropped_total",
		Help: "Total number of frames replaced before they were shown",
	}, []string{"name"})
	FramesDeferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_frames_deferred_total",
		Help: "Total number of prepare cycles with nothing to publish yet",
	}, []string{"name"})
	ConversionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_conversion_errors_total",
		Help: "Total number of failed multiview conversions",
	}, []string{"name"})
	PoolExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrsink_pool_exhausted_total",
		Help: "Total number of buffer requests that found the pool empty",
	}, []string{"name"})
)

type SinkMetrics struct {
	FramesSubmitted  prometheus.Counter
	FramesPublished  prometheus.Counter
	FramesPresented  prometheus.Counter
	FramesDropped    prometheus.Counter
	FramesDeferred   prometheus.Counter
	ConversionErrors prometheus.Counter
}

func NewSinkMetrics(name string) SinkMetrics {
	s := SinkMetrics{
		FramesSubmitted:  FramesSubmitted.WithLabelValues(name),
		FramesPublished:  FramesPublished.WithLabelValues(name),
		FramesPresented:  FramesPresented.WithLabelValues(name),
		FramesDropped:    FramesDropped.WithLabelValues(name),
		FramesDeferred:   FramesDeferred.WithLabelValues(name),
		ConversionErrors: ConversionErrors.WithLabelValues(name),
	}
	s.FramesSubmitted.Add(0)
	s.FramesPublished.Add(0)
	s.FramesPresented.Add(0)
	s.FramesDropped.Add(0)
	s.FramesDeferred.Add(0)
	s.ConversionErrors.Add(0)
	return s
}

func NewPoolMetrics(name string) prometheus.Counter {
	c := PoolExhausted.WithLabelValues(name)
	c.Add(0)
	return c
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
