package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/tuivia/internal/model"
	"github.com/verte-zerg/tuivia/internal/timer"
)

type fakeProvider struct {
	categories []model.Category
	questions  []model.Question
	err        error
	fetches    int

	// onQuestions runs once inside the next Questions call, so tests can
	// interleave session calls with the fetch window.
	onQuestions func()
}

func (f *fakeProvider) Categories(context.Context) ([]model.Category, error) {
	return f.categories, f.err
}

func (f *fakeProvider) Questions(context.Context, int, int) ([]model.Question, error) {
	f.fetches++
	if f.onQuestions != nil {
		fn := f.onQuestions
		f.onQuestions = nil
		fn()
	}
	return f.questions, f.err
}

type fakeBoard struct {
	recorded  []model.ScoreEntry
	recordErr error
}

func (f *fakeBoard) Load(context.Context) ([]model.ScoreEntry, error) {
	return f.recorded, nil
}

func (f *fakeBoard) Record(_ context.Context, entry model.ScoreEntry) ([]model.ScoreEntry, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.recorded = append(f.recorded, entry)
	return f.recorded, nil
}

// fakeTimer captures callbacks so tests can fire expiry by hand.
type fakeTimer struct {
	cb      timer.Callbacks
	started int
	cancels int
}

func (f *fakeTimer) Start(_ int, cb timer.Callbacks) {
	f.started++
	f.cb = cb
}

func (f *fakeTimer) Cancel() {
	f.cancels++
}

type outcome struct {
	correct  string
	selected string
}

type fakeGateway struct {
	screens      []ScreenID
	questions    []model.Question
	outcomes     []outcome
	leaderboards [][]model.ScoreEntry
	timerRenders []int
}

func (f *fakeGateway) ShowScreen(id ScreenID) { f.screens = append(f.screens, id) }

func (f *fakeGateway) RenderQuestion(q model.Question, _, _, _ int) {
	f.questions = append(f.questions, q)
}

func (f *fakeGateway) RenderOutcome(correct, selected string) {
	f.outcomes = append(f.outcomes, outcome{correct: correct, selected: selected})
}

func (f *fakeGateway) RenderLeaderboard(entries []model.ScoreEntry) {
	f.leaderboards = append(f.leaderboards, entries)
}

func (f *fakeGateway) RenderTimer(remaining int, _ bool) {
	f.timerRenders = append(f.timerRenders, remaining)
}

type fakeAudio struct {
	cues []CueKind
}

func (f *fakeAudio) PlayCue(kind CueKind) error {
	f.cues = append(f.cues, kind)
	return nil
}

// manualScheduler collects deferred advances so tests control pacing.
type manualScheduler struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualScheduler) schedule(delay time.Duration, fn func()) {
	m.delays = append(m.delays, delay)
	m.pending = append(m.pending, fn)
}

func (m *manualScheduler) runNext(t *testing.T) {
	t.Helper()
	if len(m.pending) == 0 {
		t.Fatal("no advance scheduled")
	}
	fn := m.pending[0]
	m.pending = m.pending[1:]
	fn()
}

type harness struct {
	sess      *Session
	provider  *fakeProvider
	board     *fakeBoard
	timer     *fakeTimer
	gateway   *fakeGateway
	audio     *fakeAudio
	scheduler *manualScheduler
}

func questionsFixture() []model.Question {
	return []model.Question{
		{Prompt: "Capital of France?", CorrectAnswer: "Paris", Answers: []string{"London", "Paris", "Berlin", "Madrid"}},
		{Prompt: "2+2?", CorrectAnswer: "4", Answers: []string{"3", "4", "5", "22"}},
	}
}

func newHarness(questions []model.Question) *harness {
	h := &harness{
		provider: &fakeProvider{
			categories: []model.Category{{ID: 9, Name: "General Knowledge"}},
			questions:  questions,
		},
		board:     &fakeBoard{},
		timer:     &fakeTimer{},
		gateway:   &fakeGateway{},
		audio:     &fakeAudio{},
		scheduler: &manualScheduler{},
	}
	cfg := model.Config{Questions: len(questions), RoundSeconds: 30}
	h.sess = New(cfg, Deps{
		Provider: h.provider,
		Board:    h.board,
		Timer:    h.timer,
		Gateway:  h.gateway,
		Audio:    h.audio,
		Schedule: h.scheduler.schedule,
		Now:      func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
	})
	return h
}

func TestStartPresentsFirstQuestion(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.LoadCategories(context.Background())
	h.sess.Start(context.Background(), "ada", 0)

	if got := h.sess.State(); got != StateAwaitingAnswer {
		t.Fatalf("expected StateAwaitingAnswer, got %v", got)
	}
	if h.provider.fetches != 1 {
		t.Fatalf("expected one question fetch, got %d", h.provider.fetches)
	}
	if h.timer.started != 1 {
		t.Fatalf("expected timer started once, got %d", h.timer.started)
	}
	if len(h.gateway.questions) != 1 || h.gateway.questions[0].Prompt != "Capital of France?" {
		t.Fatalf("expected first question rendered, got %+v", h.gateway.questions)
	}
	if len(h.gateway.screens) != 1 || h.gateway.screens[0] != ScreenGame {
		t.Fatalf("expected game screen, got %v", h.gateway.screens)
	}
}

func TestCorrectAnswerIncrementsScore(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.sess.SubmitAnswer("Paris")
	if got := h.sess.Score(); got != 1 {
		t.Fatalf("expected score 1, got %d", got)
	}
	if got := h.sess.State(); got != StateAnswered {
		t.Fatalf("expected StateAnswered, got %v", got)
	}
	if len(h.gateway.outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(h.gateway.outcomes))
	}
	if o := h.gateway.outcomes[0]; o.correct != "Paris" || o.selected != "Paris" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if len(h.audio.cues) != 1 || h.audio.cues[0] != CueCorrect {
		t.Fatalf("expected correct cue, got %v", h.audio.cues)
	}
	if h.timer.cancels == 0 {
		t.Fatal("expected timer cancelled on answer")
	}
}

func TestWrongAnswerKeepsScore(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.sess.SubmitAnswer("London")
	if got := h.sess.Score(); got != 0 {
		t.Fatalf("expected score 0, got %d", got)
	}
	if o := h.gateway.outcomes[0]; o.correct != "Paris" || o.selected != "London" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if len(h.audio.cues) != 1 || h.audio.cues[0] != CueIncorrect {
		t.Fatalf("expected incorrect cue, got %v", h.audio.cues)
	}
}

func TestDoubleSubmitIsNoOp(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.sess.SubmitAnswer("Paris")
	h.sess.SubmitAnswer("Paris")
	if got := h.sess.Score(); got != 1 {
		t.Fatalf("expected score 1 after double submit, got %d", got)
	}
	if len(h.gateway.outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(h.gateway.outcomes))
	}
}

func TestLateSubmitAfterExpiryIsNoOp(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.timer.cb.OnExpire()
	if got := h.sess.State(); got != StateTimedOut {
		t.Fatalf("expected StateTimedOut, got %v", got)
	}
	h.sess.SubmitAnswer("Paris")
	if got := h.sess.Score(); got != 0 {
		t.Fatalf("expected score unchanged after late submit, got %d", got)
	}
	if got := h.sess.State(); got != StateTimedOut {
		t.Fatalf("expected StateTimedOut after late submit, got %v", got)
	}
	if len(h.gateway.outcomes) != 1 {
		t.Fatalf("expected only the timeout outcome, got %d", len(h.gateway.outcomes))
	}
	if o := h.gateway.outcomes[0]; o.correct != "Paris" || o.selected != "" {
		t.Fatalf("expected timeout outcome with no selection, got %+v", o)
	}
	if len(h.audio.cues) != 1 || h.audio.cues[0] != CueTimeout {
		t.Fatalf("expected timeout cue, got %v", h.audio.cues)
	}
}

func TestStartDuringFetchIsNoOp(t *testing.T) {
	h := newHarness(questionsFixture())
	h.provider.onQuestions = func() {
		h.sess.Start(context.Background(), "grace", 0)
	}
	h.sess.Start(context.Background(), "ada", 0)

	if h.provider.fetches != 1 {
		t.Fatalf("expected one question fetch, got %d", h.provider.fetches)
	}
	if h.timer.started != 1 {
		t.Fatalf("expected timer started once, got %d", h.timer.started)
	}
	if len(h.gateway.questions) != 1 {
		t.Fatalf("expected first question rendered once, got %d", len(h.gateway.questions))
	}
	if got := h.sess.State(); got != StateAwaitingAnswer {
		t.Fatalf("expected StateAwaitingAnswer, got %v", got)
	}
}

func TestTickAfterAnswerIsDropped(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.sess.SubmitAnswer("Paris")
	renders := len(h.gateway.timerRenders)
	cues := len(h.audio.cues)

	// The timer goroutine may still deliver a tick that raced Cancel.
	h.timer.cb.OnTick(3)
	h.timer.cb.OnWarning(3)
	if len(h.gateway.timerRenders) != renders {
		t.Fatalf("expected stale tick dropped, got %v", h.gateway.timerRenders)
	}
	if len(h.audio.cues) != cues {
		t.Fatalf("expected stale warning dropped, got %v", h.audio.cues)
	}
}

func TestExpireAfterAnswerIsNoOp(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.sess.SubmitAnswer("Paris")
	h.timer.cb.OnExpire()
	if got := h.sess.State(); got != StateAnswered {
		t.Fatalf("expected StateAnswered, got %v", got)
	}
	if len(h.gateway.outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(h.gateway.outcomes))
	}
}

func TestAdvanceThroughGameRecordsScore(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.LoadCategories(context.Background())
	h.sess.Start(context.Background(), "ada", 9)

	h.sess.SubmitAnswer("Paris")
	h.scheduler.runNext(t)
	if got := h.sess.State(); got != StateAwaitingAnswer {
		t.Fatalf("expected StateAwaitingAnswer on question 2, got %v", got)
	}
	if h.scheduler.delays[0] != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s advance delay, got %v", h.scheduler.delays[0])
	}

	h.sess.SubmitAnswer("4")
	h.scheduler.runNext(t)
	if got := h.sess.State(); got != StateFinished {
		t.Fatalf("expected StateFinished, got %v", got)
	}
	if len(h.board.recorded) != 1 {
		t.Fatalf("expected one recorded entry, got %d", len(h.board.recorded))
	}
	entry := h.board.recorded[0]
	if entry.Name != "ada" || entry.Score != 2 || entry.Total != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.CategoryLabel != "General Knowledge" {
		t.Fatalf("expected resolved category label, got %q", entry.CategoryLabel)
	}
	if len(h.gateway.leaderboards) != 1 {
		t.Fatalf("expected leaderboard rendered, got %d", len(h.gateway.leaderboards))
	}
	last := h.gateway.screens[len(h.gateway.screens)-1]
	if last != ScreenScores {
		t.Fatalf("expected scores screen, got %v", h.gateway.screens)
	}
}

func TestTimeoutStillAdvances(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.timer.cb.OnExpire()
	h.scheduler.runNext(t)
	if got := h.sess.State(); got != StateAwaitingAnswer {
		t.Fatalf("expected next question after timeout, got %v", got)
	}
	if h.timer.started != 2 {
		t.Fatalf("expected timer restarted for question 2, got %d starts", h.timer.started)
	}
}

func TestEmptyQuestionSetFinishesImmediately(t *testing.T) {
	h := newHarness(nil)
	h.sess.Start(context.Background(), "ada", 0)

	if got := h.sess.State(); got != StateFinished {
		t.Fatalf("expected StateFinished with no questions, got %v", got)
	}
	if len(h.board.recorded) != 1 || h.board.recorded[0].Score != 0 {
		t.Fatalf("expected a zero-score entry, got %+v", h.board.recorded)
	}
}

func TestProviderFailureFinishesImmediately(t *testing.T) {
	h := newHarness(nil)
	h.provider.err = errors.New("network down")
	h.provider.categories = nil
	h.sess.Start(context.Background(), "ada", 0)

	if got := h.sess.State(); got != StateFinished {
		t.Fatalf("expected StateFinished on provider failure, got %v", got)
	}
}

func TestUnknownCategoryLabelFallback(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.LoadCategories(context.Background())
	h.sess.Start(context.Background(), "ada", 42)

	h.sess.SubmitAnswer("Paris")
	h.scheduler.runNext(t)
	h.sess.SubmitAnswer("4")
	h.scheduler.runNext(t)
	if got := h.board.recorded[0].CategoryLabel; got != "Unknown Category" {
		t.Fatalf("expected Unknown Category, got %q", got)
	}
}

func TestAnyCategoryLabel(t *testing.T) {
	h := newHarness(nil)
	h.sess.Start(context.Background(), "ada", 0)
	if got := h.board.recorded[0].CategoryLabel; got != "Any Category" {
		t.Fatalf("expected Any Category, got %q", got)
	}
}

func TestRecordFailureDoesNotBlockScoresScreen(t *testing.T) {
	h := newHarness(nil)
	h.board.recordErr = errors.New("disk full")
	h.sess.Start(context.Background(), "ada", 0)

	if got := h.sess.State(); got != StateFinished {
		t.Fatalf("expected StateFinished, got %v", got)
	}
	last := h.gateway.screens[len(h.gateway.screens)-1]
	if last != ScreenScores {
		t.Fatalf("expected scores screen despite record failure, got %v", h.gateway.screens)
	}
}

func TestTickRendersTimerWithWarning(t *testing.T) {
	h := newHarness(questionsFixture())
	h.sess.Start(context.Background(), "ada", 0)

	h.timer.cb.OnTick(10)
	h.timer.cb.OnTick(5)
	// Initial render plus two ticks.
	if len(h.gateway.timerRenders) != 3 {
		t.Fatalf("expected 3 timer renders, got %d", len(h.gateway.timerRenders))
	}
	if h.gateway.timerRenders[1] != 10 || h.gateway.timerRenders[2] != 5 {
		t.Fatalf("unexpected timer renders: %v", h.gateway.timerRenders)
	}
	h.timer.cb.OnWarning(5)
	if len(h.audio.cues) != 1 || h.audio.cues[0] != CueTick {
		t.Fatalf("expected tick cue on warning, got %v", h.audio.cues)
	}
}

func TestResetAllowsNewGame(t *testing.T) {
	h := newHarness(nil)
	h.sess.Start(context.Background(), "ada", 0)
	if got := h.sess.State(); got != StateFinished {
		t.Fatalf("expected StateFinished, got %v", got)
	}
	h.sess.Reset()
	if got := h.sess.State(); got != StateNotStarted {
		t.Fatalf("expected StateNotStarted after reset, got %v", got)
	}
	h.provider.questions = questionsFixture()
	h.sess.Start(context.Background(), "ada", 0)
	if got := h.sess.State(); got != StateAwaitingAnswer {
		t.Fatalf("expected StateAwaitingAnswer after restart, got %v", got)
	}
	if got := h.sess.Score(); got != 0 {
		t.Fatalf("expected score reset, got %d", got)
	}
}
