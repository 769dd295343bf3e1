package bank

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSection labels questions that carry no section of their own.
const DefaultSection = "General"

// ErrDataInconsistency marks a multiple-choice question whose correct index
// does not point at one of its options.
var ErrDataInconsistency = errors.New("question data inconsistency")

// Answer is the expected answer of a question. Multiple-choice questions use
// Index (zero-based into Options); free-text questions use Text, which is
// stored lowercased.
type Answer struct {
	Index int
	Text  string
}

// IndexAnswer returns a multiple-choice answer.
func IndexAnswer(i int) Answer {
	return Answer{Index: i}
}

// TextAnswer returns a free-text answer in canonical lowercase form.
func TextAnswer(s string) Answer {
	return Answer{Index: -1, Text: strings.ToLower(strings.TrimSpace(s))}
}

// Question is a single immutable question record.
type Question struct {
	ID          string
	Section     string
	Topic       string
	Question    string
	Options     []string
	Correct     Answer
	Explanation string
	Reference   string
}

// IsMultipleChoice reports whether the question is answered by picking an option.
func (q Question) IsMultipleChoice() bool {
	return len(q.Options) > 0
}

// Valid reports whether a multiple-choice question has a usable correct index.
// Free-text questions are always valid.
func (q Question) Valid() bool {
	if !q.IsMultipleChoice() {
		return true
	}
	return q.Correct.Index >= 0 && q.Correct.Index < len(q.Options)
}

// CorrectOption returns the zero-based index and text of the correct option.
func (q Question) CorrectOption() (int, string, error) {
	if !q.IsMultipleChoice() {
		return 0, "", fmt.Errorf("question %q is free-text", q.ID)
	}
	if !q.Valid() {
		return 0, "", fmt.Errorf("%w: question %q has correct index %d for %d options",
			ErrDataInconsistency, q.ID, q.Correct.Index, len(q.Options))
	}
	return q.Correct.Index, q.Options[q.Correct.Index], nil
}

// SectionOrDefault returns the section label, falling back to DefaultSection.
func (q Question) SectionOrDefault() string {
	if s := strings.TrimSpace(q.Section); s != "" {
		return s
	}
	return DefaultSection
}

func (q Question) clone() Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}
