package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apresai/podcasto-pipeline/internal/admin"
	"github.com/apresai/podcasto-pipeline/internal/episode"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4")).
				MarginBottom(1)

	pickerCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7D56F4")).
				Bold(true)

	pickerStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575"))

	pickerFailedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5555"))

	pickerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))
)

// pickerModel is the Bubble Tea model behind `podcast-admin list --interactive`:
// an arrow-key list of stuck episodes that prints the selected one's full
// detail (internal/admin.Describe) on Enter.
type pickerModel struct {
	episodes []*episode.Episode
	cursor   int
	picked   *episode.Episode
	quit     bool
}

func runPicker(episodes []*episode.Episode) {
	m := pickerModel{episodes: episodes}
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		fatal(err)
	}
	if fm, ok := final.(pickerModel); ok && fm.picked != nil {
		fmt.Print(admin.Describe(fm.picked))
	}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.episodes)-1 {
			m.cursor++
		}
	case "enter":
		m.picked = m.episodes[m.cursor]
		return m, tea.Quit
	case "q", "ctrl+c", "esc":
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Stuck episodes — ↑/↓ to move, enter to inspect, q to quit"))
	b.WriteString("\n")
	for i, ep := range m.episodes {
		cursor := "  "
		if i == m.cursor {
			cursor = pickerCursorStyle.Render("› ")
		}
		statusStyle := pickerStatusStyle
		if ep.Status == episode.StatusFailed {
			statusStyle = pickerFailedStyle
		}
		line := fmt.Sprintf("%s%s  %s  %s", cursor, ep.ID, statusStyle.Render(string(ep.Status)), pickerDimStyle.Render(string(ep.CurrentStage)))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
