// Package telemetry provides Prometheus process metrics.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	SessionsCreated         prometheus.Counter
	TurnsIngested           prometheus.Counter
	TurnsDropped            prometheus.Counter
	LifecycleEventsApplied  prometheus.Counter
	TranscriptFetchFailures prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "meetscribe_sessions_created_total", Help: "Number of bot-backed sessions created"})
		TurnsIngested = promauto.NewCounter(prometheus.CounterOpts{Name: "meetscribe_turns_ingested_total", Help: "Number of speech turns appended to transcripts"})
		TurnsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "meetscribe_turns_dropped_total", Help: "Number of speech turns dropped at ingestion"})
		LifecycleEventsApplied = promauto.NewCounter(prometheus.CounterOpts{Name: "meetscribe_lifecycle_events_applied_total", Help: "Number of lifecycle notifications applied to meetings"})
		TranscriptFetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "meetscribe_transcript_fetch_failures_total", Help: "Number of failed final-transcript fetches"})
	})
}

// The Inc helpers are safe before Init so components need no metrics wiring
// in tests.

func IncSessionsCreated()         { inc(SessionsCreated) }
func IncTurnsIngested()           { inc(TurnsIngested) }
func IncTurnsDropped()            { inc(TurnsDropped) }
func IncLifecycleEventsApplied()  { inc(LifecycleEventsApplied) }
func IncTranscriptFetchFailures() { inc(TranscriptFetchFailures) }

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
