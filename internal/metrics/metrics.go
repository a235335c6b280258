// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_swipes_total",
			Help: "Total number of recorded swipe intents",
		},
		[]string{"intent"},
	)

	MutualMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campus_match_mutual_matches_total",
			Help: "Total number of swipes that completed a mutual match",
		},
	)

	LikerCountCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_liker_count_cache_total",
			Help: "Liker count lookups by cache result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Feeds
	FeedPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_feed_pages_total",
			Help: "Total number of feed pages served",
		},
		[]string{"feed"}, // "browse", "discover"
	)

	FeedCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_match_feed_candidates",
			Help:    "Size of the candidate pool per feed request",
			Buckets: []float64{0, 1, 5, 20, 50, 100, 200, 300, 1000},
		},
		[]string{"feed"},
	)

	// Proximity
	ProximityPicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_proximity_picks_total",
			Help: "Proximity partner resolutions by decision source",
		},
		[]string{"source"}, // "existing", "openai", "heuristic", "none"
	)

	CompletionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_completion_requests_total",
			Help: "Completion provider calls by result",
		},
		[]string{"result"}, // "ok", "error", "rate_limited", "breaker_open"
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campus_match_completion_duration_seconds",
			Help:    "Latency of completion provider calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	CompletionBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campus_match_completion_breaker_state",
			Help: "Completion circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Notifications
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_notifications_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	LocationUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campus_match_location_updates_total",
			Help: "Total number of persisted location updates",
		},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_match_event_publish_errors_total",
			Help: "Events that could not be delivered to the messaging boundary",
		},
		[]string{"event"},
	)
)
