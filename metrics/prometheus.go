package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes access, cache and render metrics to Prometheus.
// A nil *Recorder ignores every call.
type Recorder struct {
	registry       *prometheus.Registry
	accessTotal    *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
}

// NewRecorder registers the texted collectors plus the Go and process
// collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		accessTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "texted",
			Name:      "access_total",
			Help:      "Requests served per public endpoint",
		}, []string{"api"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "texted",
			Name:      "cache_lookups_total",
			Help:      "Content cache lookups by cache and result",
		}, []string{"cache", "result"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "texted",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering content files",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"kind"}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "texted",
			Name:      "render_errors_total",
			Help:      "Content files that failed to render",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.accessTotal, r.cacheLookups, r.renderDuration, r.renderErrors)
	r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// Registry returns the registry, for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Emit counts ev by API.
func (r *Recorder) Emit(ev Event) {
	r.IncAccess(ev.API)
}

// IncAccess counts one request to api.
func (r *Recorder) IncAccess(api API) {
	if r == nil {
		return
	}
	r.accessTotal.WithLabelValues(string(api)).Inc()
}

// ObserveRender records how long rendering one file of kind took.
func (r *Recorder) ObserveRender(kind string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		r.renderErrors.WithLabelValues(kind).Inc()
	}
}

// CacheObserver returns a cache observer that counts hits and misses under
// the given cache name. Keys are not used as labels.
func (r *Recorder) CacheObserver(name string) *CacheObserver {
	return &CacheObserver{r: r, name: name}
}

// CacheObserver counts lookups of one cache.
type CacheObserver struct {
	r    *Recorder
	name string
}

func (o *CacheObserver) Hit(string) {
	if o == nil || o.r == nil {
		return
	}
	o.r.cacheLookups.WithLabelValues(o.name, "hit").Inc()
}

func (o *CacheObserver) Miss(string) {
	if o == nil || o.r == nil {
		return
	}
	o.r.cacheLookups.WithLabelValues(o.name, "miss").Inc()
}
