package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Upload outcomes reported by resumeiq_dashboard_uploads_total.
const (
	uploadRejected       = "rejected"
	uploadFailed         = "failed"
	uploadAnalyzed       = "analyzed"
	uploadAnalysisFailed = "analysis_failed"
)

func (s *Server) initMetrics() {
	s.metricsOnce.Do(func() {
		s.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"})

		s.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"})

		s.upstreamTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "api_requests_total",
			Help:      "Count of requests sent to the ResumeIQ API",
		}, []string{"method", "route", "status"})

		s.upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "api_request_duration_seconds",
			Help:      "Latency distribution of ResumeIQ API requests",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"})

		s.uploadResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "uploads_total",
			Help:      "Number of resume upload outcomes",
		}, []string{"outcome"})

		s.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeiq",
			Subsystem: "dashboard",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route", "key"})

		s.requestTotal = registerCounter(s.requestTotal)
		s.requestDuration = registerHistogram(s.requestDuration)
		s.upstreamTotal = registerCounter(s.upstreamTotal)
		s.upstreamDuration = registerHistogram(s.upstreamDuration)
		s.uploadResults = registerCounter(s.uploadResults)
		s.rateLimitHits = registerCounter(s.rateLimitHits)
		s.metricsInitialized = true
	})
}

func registerCounter(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func registerHistogram(h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(h); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
	}
	return h
}

func (s *Server) recordRequest(method, route string, status int, duration time.Duration) {
	if !s.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	s.requestTotal.With(labels).Inc()
	s.requestDuration.With(labels).Observe(duration.Seconds())
}

// observeUpstream is installed as the API client observer.
func (s *Server) observeUpstream(method, route string, status int, duration time.Duration) {
	if !s.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	s.upstreamTotal.With(labels).Inc()
	s.upstreamDuration.With(labels).Observe(duration.Seconds())
}

func (s *Server) recordUpload(outcome string) {
	if !s.metricsInitialized {
		return
	}
	s.uploadResults.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (s *Server) recordRateLimitHit(route, key string) {
	if !s.metricsInitialized {
		return
	}
	s.rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}
