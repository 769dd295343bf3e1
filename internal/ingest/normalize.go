// Package ingest turns rows extracted from tabular test documents into
// question records.
package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/levelup/internal/bank"
)

// MinCells is the minimum number of cells a row must have. The seventh
// (reference) cell is optional.
const MinCells = 6

// Cell positions within a row.
const (
	colID = iota
	colSection
	colTopic
	colQuestion
	colAnswer
	colExplanation
	colReference
)

// ErrMalformedRow marks a row that cannot be turned into a question.
var ErrMalformedRow = errors.New("malformed row")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	optionLineRe = regexp.MustCompile(`^\s*\d+\)\s*(.*)$`)
	answerRe     = regexp.MustCompile(`(?i)(?:answer|ответ)\s*:\s*([a-e1-5])`)
)

// Row is one raw table row: id, section, topic, question, answer cell,
// explanation, reference.
type Row []string

// RowError records why a row was rejected.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result is the outcome of normalizing a batch of rows.
type Result struct {
	Questions []bank.Question
	Rejected  []RowError

	// Continuations counts rows folded into a preceding question.
	Continuations int
	// Orphans counts continuation rows dropped for lack of a preceding question.
	Orphans int
}

// Normalize converts rows into questions in row order. Rows without an id
// extend the previous question; malformed rows are recorded in
// Result.Rejected and never stop the batch.
func Normalize(rows []Row) Result {
	var res Result
	for i, row := range rows {
		q, err := parseRow(row)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: i, Err: err})
			continue
		}

		if q.ID != "" {
			if q.Question == "" {
				res.Rejected = append(res.Rejected, RowError{
					Row: i,
					Err: fmt.Errorf("%w: question %q has no text", ErrMalformedRow, q.ID),
				})
				continue
			}
			res.Questions = append(res.Questions, q)
			continue
		}

		if len(res.Questions) == 0 {
			res.Orphans++
			continue
		}
		last := &res.Questions[len(res.Questions)-1]
		last.Question = joinText(last.Question, q.Question)
		last.Explanation = joinText(last.Explanation, q.Explanation)
		res.Continuations++
	}
	return res
}

func parseRow(row Row) (bank.Question, error) {
	if len(row) < MinCells {
		return bank.Question{}, fmt.Errorf("%w: %d cells, need at least %d", ErrMalformedRow, len(row), MinCells)
	}
	for i, cell := range row {
		if !utf8.ValidString(cell) {
			return bank.Question{}, fmt.Errorf("%w: cell %d is not valid UTF-8", ErrMalformedRow, i)
		}
	}

	reference := ""
	if len(row) > colReference {
		reference = CleanText(row[colReference])
	}

	options := ParseOptions(row[colAnswer])
	return bank.Question{
		ID:          CleanText(row[colID]),
		Section:     CleanText(row[colSection]),
		Topic:       CleanText(row[colTopic]),
		Question:    CleanText(row[colQuestion]),
		Options:     options,
		Correct:     answerFromMarker(ParseAnswerMarker(row[colAnswer]), len(options) > 0),
		Explanation: CleanText(row[colExplanation]),
		Reference:   reference,
	}, nil
}

// CleanText collapses whitespace runs into single spaces and trims the ends.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ParseOptions extracts "<n>)<text>" lines from an answer cell in order.
// Other lines are ignored.
func ParseOptions(cell string) []string {
	var options []string
	for _, line := range strings.Split(cell, "\n") {
		m := optionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		options = append(options, CleanText(m[1]))
	}
	return options
}

// ParseAnswerMarker returns the token of an "Answer: X" marker in the cell,
// uppercased, or "" when the cell has none.
func ParseAnswerMarker(cell string) string {
	m := answerRe.FindStringSubmatch(cell)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// answerFromMarker maps a marker to an Answer. With options, digits are
// 1-based and letters count from A; a missing marker gives index -1.
func answerFromMarker(marker string, multipleChoice bool) bank.Answer {
	if !multipleChoice {
		return bank.TextAnswer(marker)
	}
	if marker == "" {
		return bank.IndexAnswer(-1)
	}
	if n, err := strconv.Atoi(marker); err == nil {
		return bank.IndexAnswer(n - 1)
	}
	return bank.IndexAnswer(int(marker[0] - 'A'))
}

func joinText(a, b string) string {
	switch {
	case b == "":
		return a
	case a == "":
		return b
	}
	return a + " " + b
}
