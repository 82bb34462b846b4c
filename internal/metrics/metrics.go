package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Chat requests by resolution path.",
	}, []string{"path"})

	ChatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_request_duration_seconds",
		Help:    "End-to-end chat pipeline latency.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache hits by cache name.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache misses by cache name.",
	}, []string{"cache"})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tool_calls_total",
		Help: "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})

	RetrievalMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retrieval_matches",
		Help:    "Matches returned per retrieval.",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "documents_ingested_total",
		Help: "Documents written to the vector store.",
	})

	ProviderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provider_errors_total",
		Help: "Model provider call failures after retries.",
	})
)

// Resolution path label values for ChatRequestsTotal.
const (
	PathClarification = "clarification"
	PathCache         = "cache"
	PathContext       = "context"
	PathTool          = "tool"
	PathGeneral       = "general"
	PathHeuristic     = "heuristic"
	PathError         = "error"
)

// Handler serves the Prometheus scrape endpoint through Fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
