package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "health_inventory"

// Registry agrupa los collectors del servicio en un registry propio
// (no usamos el global para poder instanciarlo en tests).
type Registry struct {
	reg *prometheus.Registry

	submissions *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vaccines",
			Name:      "submissions_total",
			Help:      "Vaccine form submissions by terminal state.",
		}, []string{"state"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.submissions,
		r.httpLatency,
	)
	return r
}

// ObserveSubmission cuenta un envío por estado terminal (committed, rejected_duplicate, ...).
func (r *Registry) ObserveSubmission(state string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(state).Inc()
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Middleware mide latencia por patrón de ruta de chi (no por path crudo, para no explotar cardinalidad).
func (r *Registry) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		r.httpLatency.
			WithLabelValues(route, req.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
