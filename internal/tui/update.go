package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ugitourney/tourney/internal/scheduler"
	"github.com/ugitourney/tourney/internal/storage"
	"github.com/ugitourney/tourney/internal/util"
)

// tickMsg triggers the next periodic rankings refresh.
type tickMsg struct{}

// rankingsMsg carries a freshly-polled set of standings.
type rankingsMsg struct {
	engines []storage.EngineSummary
}

// rankingsErrMsg reports a failed rankings poll; the dashboard keeps the
// last-known standings on screen and retries on the next tick.
type rankingsErrMsg struct {
	err error
}

// schedulerEventMsg wraps one event drained from the scheduler's fan-out
// channel.
type schedulerEventMsg struct {
	event scheduler.SchedulerEvent
}

// eventsClosedMsg reports that the scheduler's event channel was closed
// (the tournament run has ended); the dashboard stops listening but keeps
// polling rankings.
type eventsClosedMsg struct{}

// copyResultMsg reports the outcome of a clipboard copy triggered by the
// 'c' key.
type copyResultMsg struct {
	err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Init kicks off the first rankings poll and starts draining scheduler
// events, if any are wired.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchRankingsCmd(m.adapter), listenCmd(m.events), tickCmd())
}

// Update handles incoming messages and returns the updated model and any
// follow-up command, per the Elm architecture Bubble Tea implements.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tickMsg:
		return m, tea.Batch(fetchRankingsCmd(m.adapter), tickCmd())
	case rankingsMsg:
		m.rankings = msg.engines
		m.err = nil
		return m, nil
	case rankingsErrMsg:
		m.err = msg.err
		return m, nil
	case schedulerEventMsg:
		m.applyEvent(msg.event)
		return m, listenCmd(m.events)
	case eventsClosedMsg:
		m.events = nil
		return m, nil
	case copyResultMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "c":
		return m, m.copyRankingsCmd()
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	}
	return m, nil
}

func (m Model) copyRankingsCmd() tea.Cmd {
	text := RenderRankingsPlain(m.visibleRankings())
	return func() tea.Msg {
		return copyResultMsg{err: util.CopyToClipboard(text)}
	}
}

// applyEvent folds one scheduler event into the dashboard's running-count
// gauge and recent-activity log.
func (m *Model) applyEvent(ev scheduler.SchedulerEvent) {
	switch ev.Kind {
	case scheduler.EventMatchSetStarted:
		m.running++
	case scheduler.EventMatchSetCompleted:
		if m.running > 0 {
			m.running--
		}
	}
	m.activity = append(m.activity, describeEvent(ev))
	if len(m.activity) > activityLogSize {
		m.activity = m.activity[len(m.activity)-activityLogSize:]
	}
}

func describeEvent(ev scheduler.SchedulerEvent) string {
	switch ev.Kind {
	case scheduler.EventPairChosen:
		return fmt.Sprintf("paired engine %d vs engine %d for %q", ev.Pair.A, ev.Pair.B, ev.MatchSetName)
	case scheduler.EventMatchSetStarted:
		return fmt.Sprintf("started match set %q (%d vs %d)", ev.MatchSetName, ev.Pair.A, ev.Pair.B)
	case scheduler.EventMatchSetCompleted:
		return fmt.Sprintf("completed match set %q (%d vs %d)", ev.MatchSetName, ev.Pair.A, ev.Pair.B)
	case scheduler.EventRatingApplied:
		if ev.Err != nil {
			return fmt.Sprintf("rating update failed for pair %d-%d: %v", ev.Pair.A, ev.Pair.B, ev.Err)
		}
		return fmt.Sprintf("rating deltas for pair %d-%d: %+d / %+d", ev.Pair.A, ev.Pair.B, ev.Delta1, ev.Delta2)
	default:
		return "unknown event"
	}
}
