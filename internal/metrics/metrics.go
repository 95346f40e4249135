package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_http_requests_total",
		Help: "Total HTTP requests by route and status class",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "votehub_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})

	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_geocode_requests_total",
		Help: "Total reverse geocoding requests by source",
	}, []string{"source"})
	GeocodeFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_geocode_fail_total",
		Help: "Total reverse geocoding failures by source",
	}, []string{"source"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "votehub_geocode_duration_ms",
		Help:    "Reverse geocoding call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"source"})
	GeocodeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votehub_geocode_cache_hits_total",
		Help: "Total reverse geocoding cache hits",
	})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votehub_geocode_cache_misses_total",
		Help: "Total reverse geocoding cache misses",
	})

	// Depth is region, city, district or barangay: the deepest level filled.
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_location_resolve_total",
		Help: "Location resolutions by deepest resolved level",
	}, []string{"depth"})
	RegionStrategyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_region_strategy_total",
		Help: "Region matches by winning strategy",
	}, []string{"strategy"})

	OTPIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votehub_otp_issued_total",
		Help: "Total OTP codes issued",
	})
	OTPVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_otp_verify_total",
		Help: "OTP verification attempts by result",
	}, []string{"result"})

	MutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votehub_mutations_total",
		Help: "Votes, comments and likes by kind",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeFailTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheMissesTotal)
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(RegionStrategyTotal)
	prometheus.MustRegister(OTPIssuedTotal)
	prometheus.MustRegister(OTPVerifyTotal)
	prometheus.MustRegister(MutationsTotal)
}

// Handler exposes the registered collectors for scraping at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
