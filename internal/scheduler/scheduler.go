// Package scheduler implements the Pairing Scheduler (C5): it repeatedly
// selects the next engine pair and match set by weighted sampling (see
// weight.go) and runs match sets under a fixed concurrency cap.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/elo"
	"github.com/ugitourney/tourney/internal/matchset"
	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
)

// DefaultRetryDelay is how long the scheduler waits before retrying pair
// selection when no candidate pair is available.
const DefaultRetryDelay = 5 * time.Second

// EventKind classifies a SchedulerEvent.
type EventKind int

const (
	EventPairChosen EventKind = iota
	EventMatchSetStarted
	EventMatchSetCompleted
	EventRatingApplied
)

// SchedulerEvent is emitted on a best-effort, non-blocking fan-out channel
// so the metrics registry and TUI dashboard can observe scheduler activity
// without ever slowing it down.
type SchedulerEvent struct {
	Kind         EventKind
	Pair         storage.PairKey
	MatchSetName string
	Delta1       int
	Delta2       int
	Err          error
}

// Launcher resolves a persisted engine id to the process-launch
// configuration the Match-Set Runner needs to spawn it.
type Launcher func(id int64) (ugi.Config, bool)

// Config configures a Scheduler's selection and play parameters.
type Config struct {
	Concurrency     int
	MatchSets       []model.MatchSet
	DefaultMatchSet string
	TimeControl     timecontrol.TimeControl
	MoveCap         int
	EnforceClocks   bool
	KFactor         int
	RetryDelay      time.Duration
	SettleDelay     time.Duration // passed through to matchset.Options
}

func (c Config) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return DefaultRetryDelay
	}
	return c.RetryDelay
}

func (c Config) matchSet() model.MatchSet {
	for _, ms := range c.MatchSets {
		if ms.Name == c.DefaultMatchSet {
			return ms
		}
	}
	if len(c.MatchSets) > 0 {
		return c.MatchSets[0]
	}
	return model.MatchSet{
		Name:              "default",
		StartingPositions: []model.StartingPosition{{Name: "start"}},
		GamesPerPosition:  2,
	}
}

// Scheduler is the C5 Pairing Scheduler: a bounded work set of in-flight
// match sets, refilled by weighted pair selection until shutdown.
type Scheduler struct {
	adapter  storage.Adapter
	launcher Launcher
	cfg      Config
	rng      *rand.Rand

	events chan SchedulerEvent
	sem    chan struct{}
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	active int32 // atomic, for RunningCount
}

// New creates a Scheduler. Concurrency below 1 is treated as 1.
func New(adapter storage.Adapter, launcher Launcher, cfg Config) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Scheduler{
		adapter:  adapter,
		launcher: launcher,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		events:   make(chan SchedulerEvent, 64),
		sem:      make(chan struct{}, cfg.Concurrency),
		stopCh:   make(chan struct{}),
	}
}

// Events returns the scheduler's best-effort event feed. Consumers must
// read promptly; a slow consumer drops events rather than blocking the
// scheduler (publish uses a non-blocking send).
func (s *Scheduler) Events() <-chan SchedulerEvent {
	return s.events
}

// Stop signals the scheduler to stop issuing new match sets. Run continues
// until every in-flight match set completes naturally, then returns.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// Run drives the scheduler's selection loop until Stop is called or ctx is
// cancelled. It blocks until every in-flight match set has drained.
func (s *Scheduler) Run(ctx context.Context) {
loop:
	for {
		select {
		case <-s.stopCh:
			break loop
		case <-ctx.Done():
			break loop
		default:
		}

		e1, e2, ms, ok := s.selectNext(ctx)
		if !ok {
			if !s.wait(ctx, s.cfg.retryDelay()) {
				break loop
			}
			continue
		}

		select {
		case s.sem <- struct{}{}:
		case <-s.stopCh:
			break loop
		case <-ctx.Done():
			break loop
		}

		s.wg.Add(1)
		go s.runOne(ctx, e1, e2, ms)
	}

	s.wg.Wait()
	logw.Infof(ctx, "scheduler: drained, exiting")
}

// RunningCount reports how many match sets are currently in flight.
func (s *Scheduler) RunningCount() int {
	return int(loadActive(&s.active))
}

func (s *Scheduler) selectNext(ctx context.Context) (matchset.EngineSpec, matchset.EngineSpec, model.MatchSet, bool) {
	engines, err := s.adapter.EnginesForScheduling(ctx)
	if err != nil {
		logw.Errorf(ctx, "scheduler: EnginesForScheduling: %v", err)
		return matchset.EngineSpec{}, matchset.EngineSpec{}, model.MatchSet{}, false
	}
	if len(engines) < 2 {
		return matchset.EngineSpec{}, matchset.EngineSpec{}, model.MatchSet{}, false
	}

	recent, err := s.adapter.RecentGames(ctx, 24*time.Hour)
	if err != nil {
		logw.Errorf(ctx, "scheduler: RecentGames: %v", err)
	}
	pairCounts, err := s.adapter.PairGameCounts(ctx)
	if err != nil {
		logw.Errorf(ctx, "scheduler: PairGameCounts: %v", err)
	}

	candidates := ComputeCandidates(engines, recent, pairCounts)
	chosen, ok := SelectPair(candidates, s.rng)
	if !ok {
		return matchset.EngineSpec{}, matchset.EngineSpec{}, model.MatchSet{}, false
	}

	cfg1, ok1 := s.launcher(chosen.I.ID)
	cfg2, ok2 := s.launcher(chosen.J.ID)
	if !ok1 || !ok2 {
		logw.Warningf(ctx, "scheduler: no launch config for pair %+v, skipping", chosen.Pair)
		return matchset.EngineSpec{}, matchset.EngineSpec{}, model.MatchSet{}, false
	}

	s.publish(SchedulerEvent{Kind: EventPairChosen, Pair: chosen.Pair})
	return matchset.EngineSpec{ID: chosen.I.ID, Config: cfg1},
		matchset.EngineSpec{ID: chosen.J.ID, Config: cfg2},
		s.cfg.matchSet(), true
}

func (s *Scheduler) runOne(ctx context.Context, e1, e2 matchset.EngineSpec, ms model.MatchSet) {
	addActive(&s.active, 1)
	defer func() {
		addActive(&s.active, -1)
		<-s.sem
		s.wg.Done()
	}()

	pair := storage.NewPairKey(e1.ID, e2.ID)
	s.publish(SchedulerEvent{Kind: EventMatchSetStarted, Pair: pair, MatchSetName: ms.Name})

	result := matchset.Run(ctx, e1, e2, ms, matchset.Options{
		TimeControl:   s.cfg.TimeControl,
		MoveCap:       s.cfg.MoveCap,
		EnforceClocks: s.cfg.EnforceClocks,
		SettleDelay:   s.cfg.SettleDelay,
	})
	s.publish(SchedulerEvent{Kind: EventMatchSetCompleted, Pair: pair, MatchSetName: ms.Name})

	d1, d2, err := elo.Apply(ctx, s.adapter, s.cfg.KFactor, result)
	if err != nil {
		logw.Errorf(ctx, "scheduler: elo.Apply for pair %+v: %v", pair, err)
	}
	s.publish(SchedulerEvent{Kind: EventRatingApplied, Pair: pair, MatchSetName: ms.Name, Delta1: d1, Delta2: d2, Err: err})
}

// publish is a best-effort, non-blocking send: a slow consumer drops events
// rather than stalling the scheduler.
func (s *Scheduler) publish(ev SchedulerEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// wait sleeps for d, returning false early if ctx or Stop fires during it.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
