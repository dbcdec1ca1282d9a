package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// handle registers h under pattern with audit logging and request metrics.
// route is the metrics label.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, s.audit(route, h))
}

func (s *Server) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		recorder := &responseRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		s.recordRequest(r.Method, route, status, duration)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", reqID,
		}
		if ip := clientIP(r, s.cfg.TrustProxy); ip != "" {
			fields = append(fields, "ip", ip)
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("http_request", fields...)
		default:
			s.logger.Info("http_request", fields...)
		}
	}
}
