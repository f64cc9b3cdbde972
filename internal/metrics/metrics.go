// Package metrics exposes the scheduler's activity as Prometheus gauges and
// counters, consumed by a best-effort subscriber on the scheduler's event
// fan-out channel so a slow or absent metrics scrape never backs up match
// play.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/scheduler"
)

var (
	pairsChosen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourney_pairs_chosen_total",
		Help: "Total number of engine pairs selected by the scheduler.",
	})

	matchSetsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourney_match_sets_started_total",
		Help: "Total number of match sets started.",
	})

	matchSetsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourney_match_sets_completed_total",
		Help: "Total number of match sets that finished (regardless of errors).",
	})

	matchSetsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tourney_match_sets_running",
		Help: "Number of match sets currently in flight.",
	})

	ratingDeltaApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourney_rating_delta_applied_total",
		Help: "Total number of Elo updates applied, labeled by outcome.",
	}, []string{"outcome"})

	ratingUpdateErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourney_rating_update_errors_total",
		Help: "Total number of Elo updates that failed to commit.",
	})
)

// Subscribe drains events until ctx is cancelled or the channel closes,
// translating every SchedulerEvent into the corresponding Prometheus series
// update. Run it in its own goroutine. Callers that also need the raw event
// feed elsewhere (a dashboard, a one-off progress counter) should fan the
// scheduler's own Events() channel out to multiple subscriber channels
// first, since a single chan SchedulerEvent delivers each event to exactly
// one reader.
func Subscribe(ctx context.Context, events <-chan scheduler.SchedulerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			observe(ev)
		}
	}
}

// Serve exposes the default Prometheus registry on addr at /metrics until
// ctx is cancelled. Run it in its own goroutine; a bind failure is logged,
// not returned, since a missing metrics endpoint should never stop a
// tournament from running.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logw.Infof(ctx, "metrics: serving /metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logw.Errorf(ctx, "metrics: server failed: %v", err)
	}
}

func observe(ev scheduler.SchedulerEvent) {
	switch ev.Kind {
	case scheduler.EventPairChosen:
		pairsChosen.Inc()
	case scheduler.EventMatchSetStarted:
		matchSetsStarted.Inc()
		matchSetsRunning.Inc()
	case scheduler.EventMatchSetCompleted:
		matchSetsCompleted.Inc()
		matchSetsRunning.Dec()
	case scheduler.EventRatingApplied:
		if ev.Err != nil {
			ratingUpdateErrors.Inc()
			return
		}
		ratingDeltaApplied.WithLabelValues(outcomeLabel(ev.Delta1)).Inc()
	}
}

func outcomeLabel(delta1 int) string {
	switch {
	case delta1 > 0:
		return "engine1_gained"
	case delta1 < 0:
		return "engine1_lost"
	default:
		return "unchanged"
	}
}
