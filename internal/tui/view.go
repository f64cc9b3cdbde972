package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ugitourney/tourney/internal/storage"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	rankOneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	activityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// View renders the dashboard: a title, the current standings table, the
// recent-activity log, and a key-bindings footer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("UGI Tournament — Live Rankings"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("match sets in flight: %d\n\n", m.running))

	if m.err != nil && m.prefs.UseColor {
		b.WriteString(errorStyle.Render(fmt.Sprintf("last refresh error: %v", m.err)))
		b.WriteString("\n\n")
	} else if m.err != nil {
		b.WriteString(fmt.Sprintf("last refresh error: %v\n\n", m.err))
	}

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderTable())
	b.WriteString("\n")

	if len(m.activity) > 0 {
		b.WriteString(headerStyle.Render("recent activity"))
		b.WriteString("\n")
		for _, line := range m.activity {
			if m.prefs.UseColor {
				b.WriteString(activityStyle.Render("  " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render("q: quit   c: copy rankings to clipboard   /: filter by name"))
	return b.String()
}

func (m Model) renderTable() string {
	header := fmt.Sprintf("%-4s %-24s %8s %10s", "rank", "engine", "rating", "games")
	if m.prefs.UseColor {
		header = headerStyle.Render(header)
	}
	lines := []string{header}
	for i, e := range m.visibleRankings() {
		row := fmt.Sprintf("%-4d %-24s %8d %10d", i+1, e.Name, e.Rating, e.GamesPlayed)
		if m.prefs.UseColor && i == 0 {
			row = rankOneStyle.Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

// RenderRankingsPlain formats rankings as plain text, used both for the
// dashboard's clipboard copy and the non-interactive `rankings` command
// output.
func RenderRankingsPlain(rankings []storage.EngineSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-24s %8s %10s\n", "rank", "engine", "rating", "games")
	for i, e := range rankings {
		fmt.Fprintf(&b, "%-4d %-24s %8d %10d\n", i+1, e.Name, e.Rating, e.GamesPlayed)
	}
	return b.String()
}

// RenderRankingsDetailed is RenderRankingsPlain plus the per-engine
// win/loss/draw breakdown, backing `rankings --detailed`.
func RenderRankingsDetailed(rankings []storage.EngineSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-24s %8s %10s %6s %6s %6s\n", "rank", "engine", "rating", "games", "wins", "losses", "draws")
	for i, e := range rankings {
		fmt.Fprintf(&b, "%-4d %-24s %8d %10d %6d %6d %6d\n", i+1, e.Name, e.Rating, e.GamesPlayed, e.Wins, e.Losses, e.Draws)
	}
	return b.String()
}
