// Package scoresui provides the Bubble Tea leaderboard viewer.
package scoresui

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuivia/internal/leaderboard"
	"github.com/verte-zerg/tuivia/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea leaderboard UI.
type Model struct {
	store   *leaderboard.Store
	entries []model.ScoreEntry
	table   table.Model
	errMsg  string

	width  int
	height int
}

// NewModel constructs a leaderboard UI model.
func NewModel(store *leaderboard.Store) *Model {
	m := &Model{store: store}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	entries, err := m.store.Load(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load leaderboard: %v", err)
		entries = nil
	} else {
		m.errMsg = ""
	}
	m.entries = entries
	m.rebuildTable()
}

func (m *Model) rebuildTable() {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Name", Width: 24},
		{Title: "Score", Width: 7},
		{Title: "Category", Width: 32},
		{Title: "Date", Width: 12},
	}
	rows := make([]table.Row, 0, len(m.entries))
	for i, entry := range m.entries {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			entry.Name,
			fmt.Sprintf("%d/%d", entry.Score, entry.Total),
			entry.CategoryLabel,
			entry.RecordedAt.Format("Jan 2, 2006"),
		})
	}
	height := len(rows)
	if height < 1 {
		height = 1
	}
	m.table = table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(true),
	)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "c":
			if err := m.store.Clear(context.Background()); err != nil {
				logErrf("failed to clear scores: %v\n", err)
			}
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := titleStyle.Render("High Scores") + "\n\n"
	switch {
	case m.errMsg != "":
		lines += emptyStyle.Render(m.errMsg)
	case len(m.entries) == 0:
		lines += emptyStyle.Render("No high scores yet!")
	default:
		lines += borderStyle.Render(m.table.View())
	}
	lines += "\n\n" + footerStyle.Render("c clear scores · q quit")
	if m.width == 0 || m.height == 0 {
		return lines
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lines)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
