package api

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
)

func RequestMetrics(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			m.GaugeRequests.Inc()
			defer func(begin time.Time) {
				m.GaugeRequests.Dec()
				m.HistRequestDuration.Observe(time.Since(begin).Seconds())
			}(time.Now())

			resp := &responseWriter{ResponseWriter: respWriter, statusCode: http.StatusOK}
			next.ServeHTTP(resp, req)

			m.CounterRequests.With(prometheus.Labels{
				"method": req.Method,
				"status": strconv.Itoa(resp.statusCode),
			}).Inc()
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *responseWriter) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseWriter) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// PanicRecovery logs the panic with its stack and answers 500.
func PanicRecovery(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					log.Errorf("http: panic serving %s: %v\n%s", req.URL.Path, r, debug.Stack())
					if m != nil {
						m.CounterRequestPanics.Inc()
					}
					writeJSON(respWriter, http.StatusInternalServerError, errorResponse{Error: "internal error"})
				}
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
