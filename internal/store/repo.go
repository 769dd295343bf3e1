package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/abhisek/levelup/internal/mastery"
)

// ErrNotFound is returned by ProgressRepo.Get when a user has no history.
// It is not a failure: the user simply has not finished a test yet.
var ErrNotFound = errors.New("progress not found")

// UserProgress is the durable per-user record.
type UserProgress struct {
	UserID         int64
	Level          mastery.Level
	CorrectAnswers map[int]bool // answers of the most recent test
	CompletedTests int
	WeakTopics     []string
	UpdatedAt      time.Time
}

// LastScore returns the number of correct answers in the most recent test
// and the number of answers recorded.
func (p *UserProgress) LastScore() (correct, total int) {
	for _, ok := range p.CorrectAnswers {
		if ok {
			correct++
		}
	}
	return correct, len(p.CorrectAnswers)
}

// ProgressUpdate is the result of one finished test.
type ProgressUpdate struct {
	UserID     int64
	Level      mastery.Level
	Answers    map[int]bool
	WeakTopics []string
}

// ProgressRepo persists UserProgress rows.
type ProgressRepo interface {
	// Upsert inserts the user's row with CompletedTests = 1, or overwrites
	// level, answers and weak topics and increments CompletedTests. It is
	// atomic per user.
	Upsert(ctx context.Context, upd ProgressUpdate) (*UserProgress, error)

	// Get returns the user's row, or ErrNotFound.
	Get(ctx context.Context, userID int64) (*UserProgress, error)
}

// encodeAnswers keys answers by decimal index, the persisted form.
func encodeAnswers(answers map[int]bool) map[string]bool {
	out := make(map[string]bool, len(answers))
	for idx, ok := range answers {
		out[strconv.Itoa(idx)] = ok
	}
	return out
}

// decodeAnswers reverses encodeAnswers, skipping keys that are not integers.
func decodeAnswers(stored map[string]bool) map[int]bool {
	out := make(map[int]bool, len(stored))
	for key, ok := range stored {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[idx] = ok
	}
	return out
}

// normalizeTopics returns a non-nil copy of topics.
func normalizeTopics(topics []string) []string {
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}
