package app

import (
	"context"
	"math"
	"sync"
	"time"

	"quizmaster/internal/domain"
)

// QuestionSeconds is the per-question countdown budget.
const QuestionSeconds = 30

// SessionState names the lifecycle states of a quiz attempt.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateLoaded     SessionState = "loaded"
	StateInProgress SessionState = "in_progress"
	StateFinished   SessionState = "finished"
	StateError      SessionState = "error"
)

// SessionEvent is pushed to subscribers on every observable change.
type SessionEvent struct {
	Type       string                 `json:"type"` // question, tick, timeout, finished
	Index      int                    `json:"index"`
	TimeLeft   int                    `json:"timeLeft"`
	Score      int                    `json:"score,omitempty"`
	Total      int                    `json:"total,omitempty"`
	Percentage int                    `json:"percentage,omitempty"`
	Question   *domain.PublicQuestion `json:"question,omitempty"`
}

// Session is a single quiz attempt: an ordered question sequence, the
// player's recorded answers, and a per-question countdown. All methods are
// safe for concurrent use; the timer goroutine and transport-driven calls
// serialize on one mutex. The session owns its timer and cancels it on
// every path that leaves in_progress.
type Session struct {
	mu          sync.Mutex
	state       SessionState
	questions   []domain.Question
	current     int
	answers     []string // "" means unanswered
	timeLeft    int
	timerOn     bool
	score       int
	loadErr     error
	interval    time.Duration
	cancelTimer context.CancelFunc
	subscribers map[chan SessionEvent]struct{}
}

// NewSession returns an idle session ticking once per second while in
// progress.
func NewSession() *Session {
	return NewSessionWithInterval(time.Second)
}

// NewSessionWithInterval allows tests to speed up or disable the timer; a
// non-positive interval means Tick is only driven manually.
func NewSessionWithInterval(interval time.Duration) *Session {
	return &Session{
		state:       StateIdle,
		timeLeft:    QuestionSeconds,
		interval:    interval,
		subscribers: make(map[chan SessionEvent]struct{}),
	}
}

// Load installs the question sequence. Valid only from idle.
func (s *Session) Load(questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return domain.ErrInvalidTransition
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}

	s.questions = questions
	s.answers = make([]string, len(questions))
	s.state = StateLoaded
	return nil
}

// Fail records a load failure; the session stays in error until Reset.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
	s.state = StateError
}

// Err reports the load failure, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Start begins the attempt at question zero and arms the timer. Valid only
// from loaded.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoaded {
		return domain.ErrInvalidTransition
	}

	s.current = 0
	s.timeLeft = QuestionSeconds
	s.timerOn = true
	s.state = StateInProgress
	s.startTimerLocked()
	s.broadcastLocked(s.questionEventLocked("question"))
	return nil
}

// SelectAnswer records the answer for the current question, overwriting any
// prior selection. It neither advances nor stops the timer.
func (s *Session) SelectAnswer(answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	s.answers[s.current] = answer
	return nil
}

// Advance moves to the next question and resets the countdown. At the last
// question it is a no-op; callers finish explicitly.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	if s.current >= len(s.questions)-1 {
		return nil
	}
	s.current++
	s.timeLeft = QuestionSeconds
	s.broadcastLocked(s.questionEventLocked("question"))
	return nil
}

// Retreat moves to the previous question and resets the countdown.
// Recorded answers survive navigation in both directions.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	if s.current == 0 {
		return nil
	}
	s.current--
	s.timeLeft = QuestionSeconds
	s.broadcastLocked(s.questionEventLocked("question"))
	return nil
}

// Tick consumes one second of the countdown. When the decrement lands on
// zero the question expires: advance, or finish on the last question. Time
// never goes negative and expiry fires once per question.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || !s.timerOn || s.timeLeft <= 0 {
		return
	}

	s.timeLeft--
	if s.timeLeft > 0 {
		s.broadcastLocked(SessionEvent{Type: "tick", Index: s.current, TimeLeft: s.timeLeft})
		return
	}
	s.expireLocked()
}

// Finish scores the attempt and stops the timer. Calling it again once
// finished is a no-op; any other state is an invalid transition.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return nil
	}
	if s.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	s.finishLocked()
	return nil
}

// Reset returns the session to its initial values from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.questions = nil
	s.answers = nil
	s.current = 0
	s.score = 0
	s.timeLeft = QuestionSeconds
	s.timerOn = false
	s.loadErr = nil
	s.state = StateIdle
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the computed score and question count; valid once finished.
func (s *Session) Result() (score, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, len(s.questions)
}

// CurrentIndex reports the current question position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// TimeLeft reports the remaining seconds for the current question.
func (s *Session) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.answers))
	copy(out, s.answers)
	return out
}

// Questions returns the loaded question sequence.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) expireLocked() {
	if s.current < len(s.questions)-1 {
		s.current++
		s.timeLeft = QuestionSeconds
		s.broadcastLocked(s.questionEventLocked("timeout"))
		return
	}
	s.finishLocked()
}

func (s *Session) finishLocked() {
	count := 0
	for i, q := range s.questions {
		if s.answers[i] != "" && s.answers[i] == q.CorrectAnswer {
			count++
		}
	}
	s.score = count
	s.timerOn = false
	s.state = StateFinished
	s.stopTimerLocked()

	total := len(s.questions)
	s.broadcastLocked(SessionEvent{
		Type:       "finished",
		Index:      s.current,
		Score:      count,
		Total:      total,
		Percentage: Percentage(count, total),
	})
}

func (s *Session) startTimerLocked() {
	if s.interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelTimer = cancel
	go s.runTimer(ctx)
}

func (s *Session) stopTimerLocked() {
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
}

func (s *Session) runTimer(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *Session) questionEventLocked(eventType string) SessionEvent {
	public := s.questions[s.current].Public()
	return SessionEvent{
		Type:     eventType,
		Index:    s.current,
		TimeLeft: s.timeLeft,
		Question: &public,
	}
}

func (s *Session) broadcastLocked(e SessionEvent) {
	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			// Drop the oldest pending event rather than block the session.
			select {
			case <-ch:
			default:
			}
			ch <- e
		}
	}
}

// Percentage derives the rounded percentage used across score records.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
