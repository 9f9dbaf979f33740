// Package telemetry centralizes the daemon's Prometheus counters and the
// rate-limited diagnostic logging used for repeated SourceError/
// UnknownModel conditions so a wedged source can't flood the log.
package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	RecordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenpulse_records_ingested_total",
		Help: "Records pulled from a source before dedup, by provider.",
	}, []string{"provider"})

	RecordsDeduped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenpulse_records_deduped_total",
		Help: "Records dropped as duplicates, by provider.",
	}, []string{"provider"})

	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenpulse_parse_errors_total",
		Help: "Lines dropped for parse/validation failure, by provider.",
	}, []string{"provider"})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenpulse_alerts_emitted_total",
		Help: "Alerts emitted, by level.",
	}, []string{"level"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tokenpulse_tick_duration_seconds",
		Help:    "Wall-clock duration of one driver tick.",
		Buckets: prometheus.DefBuckets,
	})
)

// spamLimiter throttles repeated diagnostic lines (one token per 30s,
// burst of 1) so a wedged source logs an occasional line instead of one
// per tick.
var (
	spamMu       sync.Mutex
	spamLimiters = make(map[string]*rate.Limiter)
)

func limiterFor(key string) *rate.Limiter {
	spamMu.Lock()
	defer spamMu.Unlock()
	l, ok := spamLimiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(30*time.Second), 1)
		spamLimiters[key] = l
	}
	return l
}

// LogThrottled logs format/args under key at most once per 30s, collapsing
// a burst of identical SourceError/UnknownModel conditions into a single
// line.
func LogThrottled(key, format string, args ...any) {
	if !limiterFor(key).Allow() {
		return
	}
	log.Printf(format, args...)
}

var (
	unknownModelMu   sync.Mutex
	unknownModelSeen = map[string]bool{}
)

// LogUnknownModelOnce logs the default-pricing-fallback diagnostic exactly
// once per unique model name string it is given (callers pass the raw,
// unnormalized name).
func LogUnknownModelOnce(model string) {
	unknownModelMu.Lock()
	defer unknownModelMu.Unlock()
	if unknownModelSeen[model] {
		return
	}
	unknownModelSeen[model] = true
	log.Printf("telemetry: unknown model %q, using default pricing fallback", model)
}
