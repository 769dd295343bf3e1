// Package events publishes quiz lifecycle events to a message broker.
package events

import (
	"context"
	"sync"
	"time"
)

// RoutingQuizCompleted is the routing key of QuizCompleted messages.
const RoutingQuizCompleted = "quiz.completed"

// QuizCompleted is emitted after a finished quiz is saved.
type QuizCompleted struct {
	SessionID      string    `json:"session_id"`
	UserID         int64     `json:"user_id"`
	Level          string    `json:"level"`
	Score          int       `json:"score"`
	Total          int       `json:"total"`
	WeakTopics     []string  `json:"weak_topics"`
	CompletedTests int       `json:"completed_tests"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Publisher sends quiz events.
type Publisher interface {
	PublishQuizCompleted(ctx context.Context, ev QuizCompleted) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishQuizCompleted(context.Context, QuizCompleted) error { return nil }
func (Nop) Close() error                                              { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []QuizCompleted
}

func (r *Recorder) PublishQuizCompleted(_ context.Context, ev QuizCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []QuizCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]QuizCompleted, len(r.events))
	copy(out, r.events)
	return out
}
