package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/bank"
	"github.com/abhisek/levelup/internal/events"
	"github.com/abhisek/levelup/internal/mastery"
	"github.com/abhisek/levelup/internal/metrics"
	"github.com/abhisek/levelup/internal/store"
)

var (
	// ErrBankUnavailable is returned by Start when no questions are loaded.
	ErrBankUnavailable = errors.New("question bank unavailable")

	// ErrInternalInconsistency means a state points past the end of the bank.
	ErrInternalInconsistency = errors.New("session index out of range")

	// ErrStorageFailure wraps a failed progress write at the end of a quiz.
	ErrStorageFailure = errors.New("progress storage failure")

	// ErrNoSession is returned by Submit when the user has no active quiz.
	ErrNoSession = errors.New("no active session")
)

// Config wires an Engine. Bank and Progress are required.
type Config struct {
	Bank      *bank.Bank
	Progress  store.ProgressRepo
	Registry  *Registry
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine drives quizzes over a shared question bank. Calls for the same
// user must be serialized by the caller; different users may run
// concurrently.
type Engine struct {
	bank      *bank.Bank
	registry  *Registry
	progress  store.ProgressRepo
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewEngine creates an Engine, filling optional collaborators with no-ops.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		bank:      cfg.Bank,
		registry:  cfg.Registry,
		progress:  cfg.Progress,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		now:       cfg.Now,
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.publisher == nil {
		e.publisher = events.Nop{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Registry returns the engine's session registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Active reports whether userID is in the middle of a quiz.
func (e *Engine) Active(userID int64) bool {
	st, ok := e.registry.Get(userID)
	return ok && st.Phase == PhaseAwaitingAnswer
}

// Start begins a new quiz for userID, replacing any unfinished one, and
// returns the first question.
func (e *Engine) Start(ctx context.Context, userID int64) ([]Reply, error) {
	if e.bank.Empty() {
		e.log.Warn("quiz requested with empty question bank", zap.Int64("user_id", userID))
		return []Reply{{Text: MsgUnavailable}}, ErrBankUnavailable
	}

	if _, ok := e.registry.Get(userID); ok {
		e.log.Info("overwriting unfinished quiz", zap.Int64("user_id", userID))
	}
	st := NewState(uuid.NewString(), userID, e.now())
	e.registry.Put(st)
	e.metrics.QuizStarted()
	e.metrics.SetActiveSessions(e.registry.Len())

	e.log.Debug("quiz started",
		zap.String("session_id", st.SessionID),
		zap.Int64("user_id", userID),
		zap.Int("questions", e.bank.Len()))

	r, err := e.Present(st)
	return []Reply{r}, err
}

// Present renders the question st currently points at. An index outside
// the bank ends the session with an error reply.
func (e *Engine) Present(st *State) (Reply, error) {
	q, ok := e.bank.At(st.CurrentIndex)
	if !ok {
		e.abort(st)
		return Reply{Text: MsgInternalError, RemoveKeyboard: true},
			fmt.Errorf("%w: question %d of %d", ErrInternalInconsistency, st.CurrentIndex, e.bank.Len())
	}
	st.Phase = PhaseAwaitingAnswer
	return questionReply(q, st.CurrentIndex, e.bank.Len()), nil
}

// Submit scores text as the answer to the user's current question. The
// returned replies are meant to be delivered even when err is non-nil:
// first the next question or the completion report, then the correctness
// notice.
func (e *Engine) Submit(ctx context.Context, userID int64, text string) ([]Reply, error) {
	st, ok := e.registry.Get(userID)
	if !ok || st.Phase != PhaseAwaitingAnswer {
		return nil, ErrNoSession
	}

	idx := st.CurrentIndex
	q, ok := e.bank.At(idx)
	if !ok {
		e.abort(st)
		return []Reply{{Text: MsgInternalError, RemoveKeyboard: true}},
			fmt.Errorf("%w: question %d of %d", ErrInternalInconsistency, idx, e.bank.Len())
	}

	correct, detail := e.check(st, q, text)
	st.Answers[idx] = correct
	if correct {
		st.Score++
	}
	e.metrics.AnswerRecorded(correct)
	feedback := feedbackReply(correct, detail, q.Explanation)

	if idx+1 < e.bank.Len() {
		st.CurrentIndex++
		next, err := e.Present(st)
		return []Reply{next, feedback}, err
	}

	replies, err := e.finish(ctx, st)
	return append(replies, feedback), err
}

// check compares the normalized answer with q's correct answer and returns
// the correctness detail line.
func (e *Engine) check(st *State, q bank.Question, text string) (bool, string) {
	answer := strings.ToLower(strings.TrimSpace(text))

	if q.IsMultipleChoice() {
		idx, opt, err := q.CorrectOption()
		if err != nil {
			e.log.Warn("question has no usable correct option",
				zap.String("session_id", st.SessionID),
				zap.Int("question", st.CurrentIndex),
				zap.Error(err))
			return false, MsgDataError
		}
		return answer == strconv.Itoa(idx+1), fmt.Sprintf("Correct answer: %d. %s", idx+1, opt)
	}

	want := strings.ToLower(q.Correct.Text)
	return answer == want, "Correct answer: " + want
}

// finish summarizes st, persists progress and builds the completion report.
// The session ends even if persisting fails.
func (e *Engine) finish(ctx context.Context, st *State) ([]Reply, error) {
	e.registry.Delete(st.UserID)
	st.Phase = PhaseNoSession
	e.metrics.SetActiveSessions(e.registry.Len())

	sum := mastery.Summarize(st.Score, st.Answers, e.bank.Sections())
	e.metrics.QuizCompleted(string(sum.Level))
	report := reportReply(sum)

	answers := make(map[int]bool, len(st.Answers))
	for k, v := range st.Answers {
		answers[k] = v
	}

	p, err := e.progress.Upsert(ctx, store.ProgressUpdate{
		UserID:     st.UserID,
		Level:      sum.Level,
		Answers:    answers,
		WeakTopics: sum.WeakTopics,
	})
	if err != nil {
		e.metrics.StorageFailure()
		e.log.Error("save progress",
			zap.String("session_id", st.SessionID),
			zap.Int64("user_id", st.UserID),
			zap.Error(err))
		return []Reply{report, {Text: MsgSaveFailed}}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	e.log.Info("quiz completed",
		zap.String("session_id", st.SessionID),
		zap.Int64("user_id", st.UserID),
		zap.String("level", string(sum.Level)),
		zap.Int("score", sum.Score),
		zap.Int("total", sum.Total),
		zap.Int("completed_tests", p.CompletedTests))

	e.publish(ctx, st, sum, p.CompletedTests)
	return []Reply{report}, nil
}

func (e *Engine) publish(ctx context.Context, st *State, sum mastery.Summary, completed int) {
	ev := events.QuizCompleted{
		SessionID:      st.SessionID,
		UserID:         st.UserID,
		Level:          string(sum.Level),
		Score:          sum.Score,
		Total:          sum.Total,
		WeakTopics:     sum.WeakTopics,
		CompletedTests: completed,
		StartedAt:      st.StartedAt,
		FinishedAt:     e.now(),
	}
	if err := e.publisher.PublishQuizCompleted(ctx, ev); err != nil {
		e.log.Warn("publish quiz completed", zap.String("session_id", st.SessionID), zap.Error(err))
	}
}

// abort drops st after a protocol error.
func (e *Engine) abort(st *State) {
	e.log.Error("aborting quiz",
		zap.String("session_id", st.SessionID),
		zap.Int64("user_id", st.UserID),
		zap.Int("index", st.CurrentIndex),
		zap.Int("bank_len", e.bank.Len()))
	st.Phase = PhaseNoSession
	e.registry.Delete(st.UserID)
	e.metrics.SetActiveSessions(e.registry.Len())
}
