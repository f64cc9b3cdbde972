package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/metrics"
	"github.com/ugitourney/tourney/internal/scheduler"
	"github.com/ugitourney/tourney/internal/tui"
)

func runTournament(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run-tournament", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	rounds := fs.Int("rounds", 0, "stop after this many match sets per enabled engine pair have completed in total, whichever pairs played them (0 = unbounded)")
	pairs := fs.Int("pairs", 0, "stop after this many match sets have completed (0 = unbounded, takes precedence over --rounds)")
	concurrency := fs.Int("concurrency", 0, "max match sets in flight (overrides the document's tournament.concurrency)")
	timeControlFlag := fs.String("time-control", "", "base+increment seconds, e.g. 60+1 (overrides the document's tournament.timeControl)")
	watch := fs.Bool("watch", false, "show the live rankings dashboard instead of logging to stdout")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics at this address (e.g. :9090); empty disables the endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}

	doc, err := loadDocument(ctx, g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(doc.Engines) == 0 {
		return fmt.Errorf("no engines configured; load one with load-config first")
	}

	adapter, closeAdapter, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeAdapter()

	nameToID, err := engineNameIndex(ctx, adapter)
	if err != nil {
		return fmt.Errorf("list existing engines: %w", err)
	}

	tc, err := resolveTimeControl(*timeControlFlag, doc.Tournament.TimeControl)
	if err != nil {
		return err
	}

	conc := *concurrency
	if conc <= 0 {
		conc = doc.Tournament.Concurrency
	}
	if conc <= 0 {
		conc = scheduler.DefaultConcurrency()
	}

	cfg := scheduler.Config{
		Concurrency:     conc,
		MatchSets:       doc.ToMatchSets(),
		DefaultMatchSet: doc.Tournament.DefaultMatchSet,
		TimeControl:     tc,
		EnforceClocks:   doc.Tournament.EnforceClocksOrDefault(),
		KFactor:         doc.Tournament.KFactorOrDefault(),
	}

	sched := scheduler.New(adapter, launcherFrom(doc, nameToID), cfg)

	// The signal context only triggers Stop; the scheduler and its in-flight
	// match sets keep the uncancelled ctx so they can drain to completion.
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		logw.Infof(ctx, "run-tournament: shutdown requested, draining in-flight match sets")
		sched.Stop()
	}()

	target := targetMatchSets(*pairs, *rounds, len(doc.ToEngineConfigs()))

	metricsCh := make(chan scheduler.SchedulerEvent, 64)
	progressCh := make(chan scheduler.SchedulerEvent, 64)
	subs := []chan<- scheduler.SchedulerEvent{metricsCh, progressCh}

	var watchCh chan scheduler.SchedulerEvent
	if *watch {
		watchCh = make(chan scheduler.SchedulerEvent, 64)
		subs = append(subs, watchCh)
	}

	go fanOutEvents(sched.Events(), subs...)
	go metrics.Subscribe(ctx, metricsCh)
	go countMatchSets(ctx, progressCh, target, sched.Stop)
	if *metricsAddr != "" {
		go metrics.Serve(ctx, *metricsAddr)
	}

	if *watch {
		prefs := config.LoadPreferences()
		done := make(chan struct{})
		go func() {
			sched.Run(ctx)
			close(done)
		}()
		err := tui.Run(adapter, watchCh, prefs)
		sched.Stop()
		<-done
		return err
	}

	sched.Run(ctx)
	return nil
}

// targetMatchSets resolves the --pairs/--rounds flags into an absolute
// match-set count, or 0 for unbounded. --pairs is an absolute count;
// --rounds multiplies by the number of enabled engines' unordered pairs so
// "every engine plays every other engine --rounds times" reads naturally.
func targetMatchSets(pairs, rounds, engineCount int) int {
	if pairs > 0 {
		return pairs
	}
	if rounds > 0 && engineCount > 1 {
		return rounds * engineCount * (engineCount - 1) / 2
	}
	return 0
}

// fanOutEvents republishes every event from events to each sub, using a
// non-blocking send per subscriber so one slow consumer never stalls the
// others or the scheduler itself. It closes every sub when events closes.
func fanOutEvents(events <-chan scheduler.SchedulerEvent, subs ...chan<- scheduler.SchedulerEvent) {
	for ev := range events {
		for _, sub := range subs {
			select {
			case sub <- ev:
			default:
			}
		}
	}
	for _, sub := range subs {
		close(sub)
	}
}

// countMatchSets logs progress and stops the scheduler once target
// completed match sets have been observed. target <= 0 means unbounded: it
// still logs, but never stops the scheduler itself.
func countMatchSets(ctx context.Context, events <-chan scheduler.SchedulerEvent, target int, stop func()) {
	var completed int
	for ev := range events {
		switch ev.Kind {
		case scheduler.EventMatchSetCompleted:
			completed++
			if target > 0 {
				logw.Infof(ctx, "run-tournament: %d/%d match sets completed", completed, target)
				if completed >= target {
					stop()
				}
			} else {
				logw.Infof(ctx, "run-tournament: %d match sets completed", completed)
			}
		case scheduler.EventRatingApplied:
			if ev.Err != nil {
				logw.Errorf(ctx, "run-tournament: rating update for pair %d-%d failed: %v", ev.Pair.A, ev.Pair.B, ev.Err)
			}
		}
	}
}
