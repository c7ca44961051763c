// Package session owns the quiz game state machine.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/verte-zerg/tuivia/internal/model"
	"github.com/verte-zerg/tuivia/internal/timer"
)

// State is the per-question lifecycle phase.
type State int

// Session states.
const (
	StateNotStarted State = iota
	StateLoading
	StateAwaitingAnswer
	StateAnswered
	StateTimedOut
	StateFinished
)

// ScreenID names a screen the gateway can show.
type ScreenID string

// Screens driven by the session.
const (
	ScreenStart  ScreenID = "start"
	ScreenGame   ScreenID = "game"
	ScreenScores ScreenID = "scores"
)

// CueKind names an audio cue.
type CueKind string

// Audio cues.
const (
	CueTick      CueKind = "tick"
	CueCorrect   CueKind = "correct"
	CueIncorrect CueKind = "incorrect"
	CueTimeout   CueKind = "timeout"
)

// advanceDelay is how long the outcome stays on screen before the next round.
const advanceDelay = 1500 * time.Millisecond

// QuestionSource provides categories and questions.
type QuestionSource interface {
	Categories(ctx context.Context) ([]model.Category, error)
	Questions(ctx context.Context, categoryID, count int) ([]model.Question, error)
}

// ScoreKeeper persists the leaderboard.
type ScoreKeeper interface {
	Load(ctx context.Context) ([]model.ScoreEntry, error)
	Record(ctx context.Context, entry model.ScoreEntry) ([]model.ScoreEntry, error)
}

// RoundTimer drives the per-question countdown. Cancel does not wait for a
// tick already in flight, so a callback may still arrive after it returns;
// the session's state guard drops those.
type RoundTimer interface {
	Start(seconds int, cb timer.Callbacks)
	Cancel()
}

// Gateway receives render commands from the session. Implementations must
// not call back into the session synchronously.
type Gateway interface {
	ShowScreen(id ScreenID)
	RenderQuestion(q model.Question, score, index, total int)
	RenderOutcome(correctAnswer, selectedAnswer string)
	RenderLeaderboard(entries []model.ScoreEntry)
	RenderTimer(remaining int, warning bool)
}

// CuePlayer plays audio cues. Failures are best-effort and never block
// game progress.
type CuePlayer interface {
	PlayCue(kind CueKind) error
}

// ScheduleFunc defers fn by the given delay.
type ScheduleFunc func(delay time.Duration, fn func())

// Deps bundles the session collaborators.
type Deps struct {
	Provider QuestionSource
	Board    ScoreKeeper
	Timer    RoundTimer
	Gateway  Gateway
	Audio    CuePlayer

	// Schedule and Now default to time.AfterFunc and time.Now.
	Schedule ScheduleFunc
	Now      func() time.Time
}

// Session is the quiz state machine. User events and timer events both
// funnel through its methods; the state guard decides races, so whichever
// of answer or expiry arrives first wins and the loser is a no-op.
type Session struct {
	mu sync.Mutex

	cfg  model.Config
	deps Deps

	state      State
	categories []model.Category
	questions  []model.Question
	current    int
	score      int

	playerName    string
	categoryID    int
	categoryLabel string
}

// New returns a session in StateNotStarted.
func New(cfg model.Config, deps Deps) *Session {
	if deps.Schedule == nil {
		deps.Schedule = func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{cfg: cfg, deps: deps}
}

// LoadCategories fetches the category set used for the start screen and for
// leaderboard labels. A provider failure leaves the set empty; the game
// still works with "Any Category".
func (s *Session) LoadCategories(ctx context.Context) []model.Category {
	categories, err := s.deps.Provider.Categories(ctx)
	if err != nil {
		logErrf("failed to load categories: %v\n", err)
		categories = nil
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return categories
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the current score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Start begins a new game for the player. It fetches questions once; a
// provider failure is logged and the game proceeds with an empty set, which
// finishes immediately. StateLoading covers the fetch window, so a second
// Start arriving before the fetch completes is a no-op.
func (s *Session) Start(ctx context.Context, playerName string, categoryID int) {
	s.mu.Lock()
	if s.state != StateNotStarted && s.state != StateFinished {
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	s.playerName = playerName
	s.categoryID = categoryID
	s.categoryLabel = s.resolveCategoryLabel(categoryID)
	s.score = 0
	s.current = 0
	s.questions = nil
	s.mu.Unlock()

	questions, err := s.deps.Provider.Questions(ctx, categoryID, s.cfg.Questions)
	if err != nil {
		logErrf("failed to fetch questions: %v\n", err)
		questions = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = questions
	s.deps.Gateway.ShowScreen(ScreenGame)
	s.presentCurrent()
}

// SubmitAnswer handles a player answer. Outside StateAwaitingAnswer it is a
// no-op, which also covers late clicks racing the timer expiry.
func (s *Session) SubmitAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer || s.current >= len(s.questions) {
		return
	}
	s.deps.Timer.Cancel()
	s.state = StateAnswered

	question := s.questions[s.current]
	if answer == question.CorrectAnswer {
		s.score++
		s.playCue(CueCorrect)
	} else {
		s.playCue(CueIncorrect)
	}
	s.deps.Gateway.RenderOutcome(question.CorrectAnswer, answer)
	s.deps.Schedule(advanceDelay, s.advance)
}

// presentCurrent enters StateAwaitingAnswer for the current question and
// starts the countdown. Callers hold s.mu.
func (s *Session) presentCurrent() {
	if s.current >= len(s.questions) {
		s.finish()
		return
	}
	s.state = StateAwaitingAnswer
	question := s.questions[s.current]
	s.deps.Gateway.RenderQuestion(question, s.score, s.current, len(s.questions))
	s.deps.Gateway.RenderTimer(s.cfg.RoundSeconds, false)
	s.deps.Timer.Start(s.cfg.RoundSeconds, timer.Callbacks{
		OnTick:    s.handleTick,
		OnWarning: s.handleWarning,
		OnExpire:  s.handleExpire,
	})
}

func (s *Session) handleTick(remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer {
		return
	}
	s.deps.Gateway.RenderTimer(remaining, remaining > 0 && remaining <= timer.WarningWindow)
}

func (s *Session) handleWarning(int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer {
		return
	}
	s.playCue(CueTick)
}

func (s *Session) handleExpire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer || s.current >= len(s.questions) {
		return
	}
	s.state = StateTimedOut
	s.playCue(CueTimeout)
	s.deps.Gateway.RenderOutcome(s.questions[s.current].CorrectAnswer, "")
	s.deps.Schedule(advanceDelay, s.advance)
}

func (s *Session) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswered && s.state != StateTimedOut {
		return
	}
	if s.current < len(s.questions)-1 {
		s.current++
		s.presentCurrent()
		return
	}
	s.finish()
}

// finish records the result and shows the leaderboard. Callers hold s.mu.
func (s *Session) finish() {
	s.state = StateFinished
	s.deps.Timer.Cancel()

	ctx := context.Background()
	entry := model.ScoreEntry{
		Name:          s.playerName,
		Score:         s.score,
		Total:         len(s.questions),
		CategoryLabel: s.categoryLabel,
		RecordedAt:    s.deps.Now(),
	}
	board, err := s.deps.Board.Record(ctx, entry)
	if err != nil {
		logErrf("failed to record score: %v\n", err)
		board, err = s.deps.Board.Load(ctx)
		if err != nil {
			logErrf("failed to load leaderboard: %v\n", err)
			board = nil
		}
	}
	s.deps.Gateway.RenderLeaderboard(board)
	s.deps.Gateway.ShowScreen(ScreenScores)
}

// Reset returns a finished session to StateNotStarted for another game.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished {
		return
	}
	s.deps.Timer.Cancel()
	s.state = StateNotStarted
	s.questions = nil
	s.current = 0
	s.score = 0
}

// resolveCategoryLabel maps the selected category to a human-readable
// label. Callers hold s.mu.
func (s *Session) resolveCategoryLabel(categoryID int) string {
	if categoryID <= 0 {
		return "Any Category"
	}
	for _, c := range s.categories {
		if c.ID == categoryID {
			return c.Name
		}
	}
	return "Unknown Category"
}

func (s *Session) playCue(kind CueKind) {
	if s.deps.Audio == nil {
		return
	}
	if err := s.deps.Audio.PlayCue(kind); err != nil {
		logErrf("failed to play %s cue: %v\n", kind, err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
