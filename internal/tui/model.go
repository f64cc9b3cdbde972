// Package tui is the live rankings dashboard shown by `run-tournament --watch`
// and `rankings --watch`. It is a Bubble Tea program (the only terminal UI
// in this repo) that polls the storage
// adapter for the current standings and drains the Pairing Scheduler's
// best-effort event channel to show recent activity, without ever blocking
// either.
package tui

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/scheduler"
	"github.com/ugitourney/tourney/internal/storage"
)

// activityLogSize bounds how many recent scheduler events are kept for
// display; older entries scroll off the top of the activity panel.
const activityLogSize = 8

// RefreshInterval is how often the dashboard re-polls the storage adapter
// for current standings.
const RefreshInterval = 2 * time.Second

// Model is the Bubbletea application model for the rankings dashboard.
type Model struct {
	adapter storage.Adapter
	events  <-chan scheduler.SchedulerEvent
	prefs   config.Preferences

	rankings []storage.EngineSummary
	activity []string
	running  int
	err      error
	quitting bool

	filter    textinput.Model
	filtering bool
}

// NewModel builds a dashboard model. events may be nil, in which case the
// activity log stays empty and only the periodic rankings refresh runs
// (used by `rankings --watch` against a store with no live scheduler).
func NewModel(adapter storage.Adapter, events <-chan scheduler.SchedulerEvent, prefs config.Preferences) Model {
	fi := textinput.New()
	fi.Placeholder = "filter by engine name..."
	fi.CharLimit = 64
	fi.Width = 32

	return Model{
		adapter: adapter,
		events:  events,
		prefs:   prefs,
		filter:  fi,
	}
}

// visibleRankings returns the rankings matching the active filter text, or
// every ranking when no filter is set.
func (m Model) visibleRankings() []storage.EngineSummary {
	q := strings.TrimSpace(strings.ToLower(m.filter.Value()))
	if q == "" {
		return m.rankings
	}
	out := make([]storage.EngineSummary, 0, len(m.rankings))
	for _, e := range m.rankings {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// fetchRankingsCmd polls the storage adapter once and reports the result as
// a tea.Msg; Update re-issues it on every tick so the dashboard keeps
// refreshing for as long as the program runs.
func fetchRankingsCmd(adapter storage.Adapter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		engines, err := adapter.EnginesForScheduling(ctx)
		if err != nil {
			return rankingsErrMsg{err}
		}
		sortByRating(engines)
		return rankingsMsg{engines}
	}
}

// sortByRating orders engines from strongest to weakest, breaking ties by
// name so the table ordering is stable across refreshes.
func sortByRating(engines []storage.EngineSummary) {
	sort.Slice(engines, func(i, j int) bool {
		if engines[i].Rating != engines[j].Rating {
			return engines[i].Rating > engines[j].Rating
		}
		return engines[i].Name < engines[j].Name
	})
}

// listenCmd blocks on the scheduler's event channel and reports the next
// event (or its closure) as a tea.Msg. Update re-issues it after every
// delivery so the dashboard keeps draining the channel.
func listenCmd(events <-chan scheduler.SchedulerEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return schedulerEventMsg{ev}
	}
}
