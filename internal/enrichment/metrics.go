package enrichment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opSummarize = "summarize"
	opConverse  = "converse"
	opAnswer    = "answer"

	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeTimeout = "timeout"

	kindEnrichment = "enrichment"
	kindBotPost    = "bot_post"
	kindBotReply   = "bot_reply"

	resultApplied   = "applied"
	resultDiscarded = "discarded"
	resultDropped   = "dropped"
)

var (
	// providerCalls counts intelligence provider calls.
	// Labels: op (summarize, converse, answer), outcome (ok, error, timeout)
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "enrichment",
		Name:      "provider_calls_total",
		Help:      "Total intelligence provider calls by outcome",
	}, []string{"op", "outcome"})

	// providerLatency measures provider call latency, slot wait included.
	// Labels: op
	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "forum",
		Subsystem: "enrichment",
		Name:      "provider_latency_seconds",
		Help:      "Intelligence provider call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"op"})

	// merges counts results written back to the thread store.
	// Labels: kind (enrichment, bot_post, bot_reply), result (applied, discarded, dropped)
	merges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "enrichment",
		Name:      "merges_total",
		Help:      "Total pipeline results merged into or discarded by the thread store",
	}, []string{"kind", "result"})
)
