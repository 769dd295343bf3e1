package session

import (
	"sync"
	"time"
)

// Phase is the position of a user in the quiz protocol.
type Phase int

const (
	PhaseNoSession      Phase = iota // No active quiz
	PhaseAwaitingAnswer              // A question is shown and unanswered
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	default:
		return "no-session"
	}
}

// State tracks one user's quiz in progress.
type State struct {
	// SessionID identifies this run in logs and events.
	SessionID string

	// UserID is the chat user taking the quiz.
	UserID int64

	// CurrentIndex is the bank index of the question being asked.
	CurrentIndex int

	// Score is the number of correct answers so far.
	Score int

	// Answers maps question index to correctness.
	Answers map[int]bool

	// StartedAt is when the quiz began.
	StartedAt time.Time

	// Phase is the current protocol phase.
	Phase Phase
}

// NewState creates a state positioned at the first question.
func NewState(sessionID string, userID int64, now time.Time) *State {
	return &State{
		SessionID: sessionID,
		UserID:    userID,
		Answers:   make(map[int]bool),
		StartedAt: now,
		Phase:     PhaseAwaitingAnswer,
	}
}

// Registry holds the active state of every user. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	mu     sync.Mutex
	states map[int64]*State
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[int64]*State)}
}

// Get returns the active state of userID.
func (r *Registry) Get(userID int64) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[userID]
	return s, ok
}

// Put stores s as the active state of its user, replacing any previous one.
func (r *Registry) Put(s *State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[s.UserID] = s
}

// Delete removes the state of userID, if any.
func (r *Registry) Delete(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
}

// Len returns the number of active states.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
