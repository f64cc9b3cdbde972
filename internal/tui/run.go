package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/scheduler"
	"github.com/ugitourney/tourney/internal/storage"
)

// Run blocks until the dashboard program exits (the user quits, or stdin
// closes). It is the entry point cmd/tourney calls for `--watch`.
func Run(adapter storage.Adapter, events <-chan scheduler.SchedulerEvent, prefs config.Preferences) error {
	p := tea.NewProgram(NewModel(adapter, events, prefs))
	_, err := p.Run()
	return err
}
