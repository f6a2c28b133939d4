package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// RouteResolver maps a request to its registered route pattern; *http.ServeMux satisfies it
type RouteResolver interface {
	Handler(r *http.Request) (http.Handler, string)
}

// HTTPMetricsMiddleware instruments requests with Prometheus metrics.
// The path label is the matched route pattern so ids never leak into labels.
func HTTPMetricsMiddleware(routes RouteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			_, pattern := routes.Handler(r)
			if pattern == "" {
				pattern = "unmatched"
			}
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			ObserveHTTPRequest(r.Method, pattern, strconv.Itoa(ww.status), time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
