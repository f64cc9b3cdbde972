package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/scheduler"
	"github.com/ugitourney/tourney/internal/storage"
)

func newTestModel() Model {
	return NewModel(nil, nil, config.DefaultPreferences())
}

func TestUpdateRankingsMsgStoresSortedRankings(t *testing.T) {
	m := newTestModel()
	engines := []storage.EngineSummary{
		{ID: 1, Name: "alpha", Rating: 1500},
		{ID: 2, Name: "beta", Rating: 1700},
		{ID: 3, Name: "gamma", Rating: 1600},
	}
	sortByRating(engines)

	updated, _ := m.Update(rankingsMsg{engines: engines})
	got := updated.(Model).rankings
	if len(got) != 3 || got[0].Name != "beta" || got[1].Name != "gamma" || got[2].Name != "alpha" {
		t.Errorf("rankings = %+v, want beta, gamma, alpha in order", got)
	}
}

func TestUpdateRankingsErrMsgPreservesLastRankings(t *testing.T) {
	m := newTestModel()
	m.rankings = []storage.EngineSummary{{ID: 1, Name: "alpha", Rating: 1500}}

	updated, _ := m.Update(rankingsErrMsg{err: errors.New("boom")})
	got := updated.(Model)
	if got.err == nil {
		t.Error("expected err to be set")
	}
	if len(got.rankings) != 1 {
		t.Errorf("rankings = %+v, want unchanged on poll error", got.rankings)
	}
}

func TestUpdateMatchSetStartedAndCompletedTrackRunningCount(t *testing.T) {
	m := newTestModel()
	pair := storage.NewPairKey(1, 2)

	updated, _ := m.Update(schedulerEventMsg{event: scheduler.SchedulerEvent{Kind: scheduler.EventMatchSetStarted, Pair: pair}})
	m = updated.(Model)
	if m.running != 1 {
		t.Fatalf("running = %d, want 1 after start", m.running)
	}

	updated, _ = m.Update(schedulerEventMsg{event: scheduler.SchedulerEvent{Kind: scheduler.EventMatchSetCompleted, Pair: pair}})
	m = updated.(Model)
	if m.running != 0 {
		t.Fatalf("running = %d, want 0 after completion", m.running)
	}
}

func TestUpdateRunningCountNeverGoesNegative(t *testing.T) {
	m := newTestModel()
	pair := storage.NewPairKey(1, 2)

	updated, _ := m.Update(schedulerEventMsg{event: scheduler.SchedulerEvent{Kind: scheduler.EventMatchSetCompleted, Pair: pair}})
	m = updated.(Model)
	if m.running != 0 {
		t.Errorf("running = %d, want 0 (clamped, no matching start)", m.running)
	}
}

func TestUpdateActivityLogCapsAtLimit(t *testing.T) {
	m := newTestModel()
	pair := storage.NewPairKey(1, 2)
	for i := 0; i < activityLogSize+3; i++ {
		updated, _ := m.Update(schedulerEventMsg{event: scheduler.SchedulerEvent{Kind: scheduler.EventPairChosen, Pair: pair}})
		m = updated.(Model)
	}
	if len(m.activity) != activityLogSize {
		t.Errorf("len(activity) = %d, want %d", len(m.activity), activityLogSize)
	}
}

func TestHandleKeyPressQuitSetsQuitting(t *testing.T) {
	m := newTestModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !updated.(Model).quitting {
		t.Error("expected quitting to be set on 'q'")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestSlashEntersFilterModeAndEnterExitsIt(t *testing.T) {
	m := newTestModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(Model)
	if !m.filtering {
		t.Fatal("expected filtering to be true after '/'")
	}
	if cmd == nil {
		t.Error("expected a focus command after entering filter mode")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.filtering {
		t.Error("expected filtering to be false after enter")
	}
}

func TestVisibleRankingsFiltersByName(t *testing.T) {
	m := newTestModel()
	m.rankings = []storage.EngineSummary{
		{ID: 1, Name: "alpha-engine", Rating: 1600},
		{ID: 2, Name: "beta-engine", Rating: 1500},
	}
	m.filter.SetValue("alpha")

	got := m.visibleRankings()
	if len(got) != 1 || got[0].Name != "alpha-engine" {
		t.Errorf("visibleRankings() = %+v, want only alpha-engine", got)
	}
}

func TestEventsClosedMsgStopsListening(t *testing.T) {
	ch := make(chan scheduler.SchedulerEvent)
	close(ch)
	m := NewModel(nil, ch, config.DefaultPreferences())
	updated, _ := m.Update(eventsClosedMsg{})
	if updated.(Model).events != nil {
		t.Error("expected events channel to be cleared after close")
	}
}
