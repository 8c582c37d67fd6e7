package metrics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/contre95/lyricbar/src/music"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// CacheLister reports how many lyrics are cached.
type CacheLister interface {
	Count() (int, error)
}

// Service records lyrics pipeline metrics into its own Prometheus registry
// and keeps running totals for the JSON summary.
type Service struct {
	registry *prometheus.Registry

	resolutions      *prometheus.CounterVec
	resolutionTime   prometheus.Histogram
	providerDuration *prometheus.HistogramVec
	staleResults     prometheus.Counter
	cachePurged      prometheus.Counter

	cache CacheLister

	mu      sync.Mutex
	summary Summary
}

// Summary holds totals since startup.
type Summary struct {
	Resolutions  map[music.Outcome]int `json:"resolutions"`
	StaleResults int                   `json:"stale_results"`
	CachePurged  int                   `json:"cache_purged"`
	CacheEntries int                   `json:"cache_entries"`
}

// NewService creates a new metrics service. cache may be nil.
func NewService(cache CacheLister) *Service {
	s := &Service{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lyricbar_resolutions_total",
			Help: "Lyrics resolutions by outcome.",
		}, []string{"outcome"}),
		resolutionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lyricbar_resolution_duration_seconds",
			Help:    "Time from track change to final lyrics state.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lyricbar_provider_duration_seconds",
			Help:    "Time spent in each lyrics provider.",
			Buckets: prometheus.ExponentialBuckets(0.005, 3, 9),
		}, []string{"provider", "result"}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyricbar_stale_results_total",
			Help: "Lyrics updates dropped because another track started playing.",
		}),
		cachePurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyricbar_cache_purged_total",
			Help: "Cache entries removed by purge requests.",
		}),
		cache:   cache,
		summary: Summary{Resolutions: make(map[music.Outcome]int)},
	}
	s.registry.MustRegister(
		s.resolutions,
		s.resolutionTime,
		s.providerDuration,
		s.staleResults,
		s.cachePurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Registry returns the registry the metrics are registered in.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Service) ResolutionFinished(outcome music.Outcome, elapsed time.Duration) {
	s.resolutions.WithLabelValues(string(outcome)).Inc()
	s.resolutionTime.Observe(elapsed.Seconds())
	s.mu.Lock()
	s.summary.Resolutions[outcome]++
	s.mu.Unlock()
}

func (s *Service) ProviderFinished(provider string, found bool, elapsed time.Duration) {
	result := "miss"
	if found {
		result = "hit"
	}
	s.providerDuration.WithLabelValues(provider, result).Observe(elapsed.Seconds())
}

func (s *Service) StaleResultDropped() {
	s.staleResults.Inc()
	s.mu.Lock()
	s.summary.StaleResults++
	s.mu.Unlock()
}

func (s *Service) CachePurged(count int) {
	s.cachePurged.Add(float64(count))
	s.mu.Lock()
	s.summary.CachePurged += count
	s.mu.Unlock()
}

// GetSummary returns a copy of the running totals plus the cache size.
func (s *Service) GetSummary() Summary {
	s.mu.Lock()
	summary := Summary{
		Resolutions:  make(map[music.Outcome]int, len(s.summary.Resolutions)),
		StaleResults: s.summary.StaleResults,
		CachePurged:  s.summary.CachePurged,
	}
	for outcome, n := range s.summary.Resolutions {
		summary.Resolutions[outcome] = n
	}
	s.mu.Unlock()

	if s.cache != nil {
		n, err := s.cache.Count()
		if err != nil {
			slog.Warn("Failed to count cached lyrics", "error", err)
		}
		summary.CacheEntries = n
	}
	return summary
}
