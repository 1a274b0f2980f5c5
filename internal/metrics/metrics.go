package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecipesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_recipes_created_total",
			Help: "Total number of recipes created",
		},
	)

	RecipesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_recipes_deleted_total",
			Help: "Total number of recipes deleted",
		},
	)

	ReviewsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_reviews_created_total",
			Help: "Total number of reviews created",
		},
	)

	ReviewConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_review_conflicts_total",
			Help: "Total number of rejected duplicate reviews",
		},
	)

	// AssetOperations counts photo asset writes and deletes by outcome.
	AssetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_asset_operations_total",
			Help: "Total number of photo asset operations",
		},
		[]string{"operation", "outcome"}, // operation: save|delete, outcome: ok|error
	)

	// FallbackResponses counts list requests served from fallback data.
	FallbackResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_fallback_responses_total",
			Help: "Total number of read responses served from fallback data",
		},
		[]string{"endpoint"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"type", "outcome"},
	)
)

// RecordAsset records the outcome of a photo asset operation.
func RecordAsset(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AssetOperations.WithLabelValues(operation, outcome).Inc()
}
