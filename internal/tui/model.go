package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuivia/internal/model"
	"github.com/verte-zerg/tuivia/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// ScoreStore is the leaderboard surface the UI needs: everything the
// session records through, plus clearing.
type ScoreStore interface {
	session.ScoreKeeper
	Clear(ctx context.Context) error
}

// Gateway-to-UI messages. The session emits these through an event channel
// that Update drains with a listen command.
type showScreenMsg struct{ id session.ScreenID }

type questionMsg struct {
	question model.Question
	score    int
	index    int
	total    int
}

type outcomeMsg struct {
	correct  string
	selected string
}

type timerMsg struct {
	remaining int
	warning   bool
}

type leaderboardMsg struct{ entries []model.ScoreEntry }

type categoriesMsg struct{ categories []model.Category }

// eventGateway implements session.Gateway by forwarding render commands
// into the Bubble Tea event loop.
type eventGateway struct {
	events chan<- tea.Msg
}

func (g eventGateway) ShowScreen(id session.ScreenID) {
	g.events <- showScreenMsg{id: id}
}

func (g eventGateway) RenderQuestion(q model.Question, score, index, total int) {
	g.events <- questionMsg{question: q, score: score, index: index, total: total}
}

func (g eventGateway) RenderOutcome(correctAnswer, selectedAnswer string) {
	g.events <- outcomeMsg{correct: correctAnswer, selected: selectedAnswer}
}

func (g eventGateway) RenderLeaderboard(entries []model.ScoreEntry) {
	g.events <- leaderboardMsg{entries: entries}
}

func (g eventGateway) RenderTimer(remaining int, warning bool) {
	g.events <- timerMsg{remaining: remaining, warning: warning}
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	cfg    model.Config
	sess   *session.Session
	board  ScoreStore
	events chan tea.Msg

	width  int
	height int

	screen session.ScreenID

	nameInput   textinput.Model
	categories  []model.Category
	categoryIdx int
	starting    bool

	question model.Question
	score    int
	index    int
	total    int

	remaining int
	warning   bool

	revealed bool
	correct  string
	selected string

	entries []model.ScoreEntry
}

// NewModel wires a session to a fresh quiz UI.
func NewModel(cfg model.Config, provider session.QuestionSource, board ScoreStore, roundTimer session.RoundTimer, cue session.CuePlayer) *Model {
	events := make(chan tea.Msg, 64)
	m := &Model{
		cfg:    cfg,
		board:  board,
		events: events,
		screen: session.ScreenStart,
	}
	m.sess = session.New(cfg, session.Deps{
		Provider: provider,
		Board:    board,
		Timer:    roundTimer,
		Gateway:  eventGateway{events: events},
		Audio:    cue,
	})

	input := textinput.New()
	input.Placeholder = "Player"
	input.CharLimit = 24
	input.SetValue(cfg.PlayerName)
	input.Focus()
	m.nameInput = input
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen(), m.loadCategories())
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) loadCategories() tea.Cmd {
	return func() tea.Msg {
		return categoriesMsg{categories: m.sess.LoadCategories(context.Background())}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case categoriesMsg:
		m.categories = msg.categories
		m.categoryIdx = m.configuredCategoryIdx()
		return m, nil
	case showScreenMsg:
		m.screen = msg.id
		if msg.id == session.ScreenGame {
			m.starting = false
			m.revealed = false
		}
		return m, m.listen()
	case questionMsg:
		m.question = msg.question
		m.score = msg.score
		m.index = msg.index
		m.total = msg.total
		m.revealed = false
		m.correct = ""
		m.selected = ""
		return m, m.listen()
	case outcomeMsg:
		m.revealed = true
		m.correct = msg.correct
		m.selected = msg.selected
		return m, m.listen()
	case timerMsg:
		m.remaining = msg.remaining
		m.warning = msg.warning
		return m, m.listen()
	case leaderboardMsg:
		m.entries = msg.entries
		return m, m.listen()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.screen {
	case session.ScreenStart:
		return m.handleStartKey(msg)
	case session.ScreenGame:
		return m.handleGameKey(msg)
	case session.ScreenScores:
		return m.handleScoresKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleStartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.starting {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.starting = true
		categoryID := m.selectedCategoryID()
		return m, func() tea.Msg {
			m.sess.Start(context.Background(), name, categoryID)
			return nil
		}
	case tea.KeyLeft:
		m.moveCategory(-1)
		return m, nil
	case tea.KeyRight:
		m.moveCategory(1)
		return m, nil
	case tea.KeyEsc:
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.revealed || len(m.question.Answers) == 0 {
		return m, nil
	}
	key := msg.String()
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return m, nil
	}
	idx := int(key[0] - '1')
	if idx >= len(m.question.Answers) {
		return m, nil
	}
	answer := m.question.Answers[idx]
	return m, func() tea.Msg {
		m.sess.SubmitAnswer(answer)
		return nil
	}
}

func (m *Model) handleScoresKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.sess.Reset()
		m.screen = session.ScreenStart
		m.nameInput.Focus()
		return m, textinput.Blink
	case "c":
		return m, m.clearScores()
	case "q", "esc":
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m *Model) clearScores() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.board.Clear(ctx); err != nil {
			logErrf("failed to clear scores: %v\n", err)
		}
		entries, err := m.board.Load(ctx)
		if err != nil {
			logErrf("failed to load scores: %v\n", err)
			entries = nil
		}
		return leaderboardMsg{entries: entries}
	}
}

// configuredCategoryIdx maps the configured category id onto the cycled
// list. Zero and unknown ids land on "Any Category".
func (m *Model) configuredCategoryIdx() int {
	for i, c := range m.categories {
		if c.ID == m.cfg.CategoryID {
			return i + 1
		}
	}
	return 0
}

func (m *Model) selectedCategoryID() int {
	if m.categoryIdx <= 0 || m.categoryIdx > len(m.categories) {
		return 0
	}
	return m.categories[m.categoryIdx-1].ID
}

// moveCategory cycles through "Any Category" plus the fetched set.
func (m *Model) moveCategory(delta int) {
	count := len(m.categories) + 1
	m.categoryIdx = (m.categoryIdx + delta + count) % count
}

func (m *Model) categoryLabel() string {
	if m.categoryIdx <= 0 || m.categoryIdx > len(m.categories) {
		return "Any Category"
	}
	return m.categories[m.categoryIdx-1].Name
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case session.ScreenStart:
		content = m.viewStart()
	case session.ScreenGame:
		content = m.viewGame()
	case session.ScreenScores:
		content = m.viewScores()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewStart() string {
	lines := []string{
		titleStyle.Render("tuivia"),
		"",
		"Name: " + m.nameInput.View(),
		"Category: ◀ " + categoryStyle.Render(m.categoryLabel()) + " ▶",
		"",
	}
	if m.starting {
		lines = append(lines, headerStyle.Render("Loading questions..."))
	} else {
		lines = append(lines, footerStyle.Render("enter start · ←/→ category · esc quit"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewGame() string {
	if len(m.question.Answers) == 0 {
		return headerStyle.Render("Loading...")
	}

	contentWidth := m.contentWidth()
	bar := timerBar(m.remaining, m.cfg.RoundSeconds, contentWidth-4)
	if m.warning {
		bar = barWarnStyle.Render(bar)
	} else {
		bar = barStyle.Render(bar)
	}

	header := headerStyle.Render(fmt.Sprintf("Player: %s   Question %d of %d   Score: %d",
		m.sessionName(), m.index+1, m.total, m.score))
	lines := []string{
		header,
		fmt.Sprintf("%s %2d", bar, m.remaining),
		"",
		promptStyle.Render(wrapText(m.question.Prompt, contentWidth)),
		"",
	}
	for i, answer := range m.question.Answers {
		style := answerStyle
		marker := " "
		if m.revealed {
			switch answer {
			case m.correct:
				style = correctStyle
				marker = "✓"
			case m.selected:
				style = wrongStyle
				marker = "✗"
			}
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %d. %s", marker, i+1, answer)))
	}
	lines = append(lines, "")
	if m.revealed {
		if m.selected == "" {
			lines = append(lines, wrongStyle.Render("Time's up!"))
		}
	} else {
		lines = append(lines, footerStyle.Render("press 1-"+fmt.Sprint(len(m.question.Answers))+" to answer"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewScores() string {
	lines := []string{titleStyle.Render("High Scores"), ""}
	if len(m.entries) == 0 {
		lines = append(lines, headerStyle.Render("No high scores yet!"))
	} else {
		for i, entry := range m.entries {
			lines = append(lines, fmt.Sprintf("%2d. %-24s %d/%d  %s  %s",
				i+1,
				entry.Name,
				entry.Score,
				entry.Total,
				entry.CategoryLabel,
				entry.RecordedAt.Format("Jan 2, 2006"),
			))
		}
	}
	lines = append(lines, "", footerStyle.Render("enter play again · c clear scores · q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) sessionName() string {
	return strings.TrimSpace(m.nameInput.Value())
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	width := int(float64(m.width) * 0.70)
	if width < 20 {
		width = 20
	}
	return width
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
