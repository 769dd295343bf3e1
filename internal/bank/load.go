package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// ErrMalformedEntry marks a bank entry that cannot become a Question.
var ErrMalformedEntry = errors.New("malformed question entry")

// Entry is one loosely-typed question object as found in the bank document.
type Entry = map[string]any

// Flatten hoists entries embedded under a "questions" key to the top level,
// keeping document order. A hoisted entry inherits its parent's section only
// when it has none of its own. Entries are copied; the input is not modified.
func Flatten(entries []Entry) []Entry {
	flat := make([]Entry, 0, len(entries))
	for _, e := range entries {
		flat = appendFlattened(flat, e)
	}
	return flat
}

func appendFlattened(flat []Entry, e Entry) []Entry {
	children, ok := e["questions"].([]any)
	if !ok {
		return append(flat, copyEntry(e))
	}
	parentSection, _ := e["section"].(string)
	for _, c := range children {
		child, ok := c.(Entry)
		if !ok {
			continue
		}
		child = copyEntry(child)
		if s, _ := child["section"].(string); strings.TrimSpace(s) == "" && parentSection != "" {
			child["section"] = parentSection
		}
		flat = appendFlattened(flat, child)
	}
	return flat
}

func copyEntry(e Entry) Entry {
	out := make(Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Parse decodes, validates and flattens a bank document. Entries that cannot
// be converted are logged and skipped.
func Parse(r io.Reader, log *zap.Logger) (*Bank, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var raw []any
	switch v := doc.(type) {
	case []any:
		raw = v
	case map[string]any:
		raw, _ = v["questions"].([]any)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		if e, ok := item.(Entry); ok {
			entries = append(entries, e)
		}
	}

	var questions []Question
	for i, e := range Flatten(entries) {
		q, err := FromEntry(e)
		if err != nil {
			log.Warn("skipping question entry", zap.Int("entry", i), zap.Error(err))
			continue
		}
		if !q.Valid() {
			log.Warn("question has an out-of-range correct index",
				zap.Int("entry", i), zap.String("id", q.ID), zap.Int("correct", q.Correct.Index))
		}
		questions = append(questions, q)
	}
	return New(questions), nil
}

// Load reads the bank document at path.
func Load(path string, log *zap.Logger) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()

	b, err := Parse(f, log)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return b, nil
}

// LoadOrEmpty is Load that never fails: load errors are logged and an empty
// bank is returned, which callers report as "temporarily unavailable".
func LoadOrEmpty(path string, log *zap.Logger) *Bank {
	if log == nil {
		log = zap.NewNop()
	}
	b, err := Load(path, log)
	if err != nil {
		log.Error("question bank unavailable", zap.String("path", path), zap.Error(err))
		return New(nil)
	}
	log.Info("question bank loaded", zap.String("path", path), zap.Int("questions", b.Len()))
	return b
}

// FromEntry converts one flattened entry into a Question.
func FromEntry(e Entry) (Question, error) {
	text := strings.TrimSpace(stringField(e, "question"))
	if text == "" {
		return Question{}, fmt.Errorf("%w: missing question text", ErrMalformedEntry)
	}

	q := Question{
		ID:          idField(e["id"]),
		Section:     stringField(e, "section"),
		Topic:       stringField(e, "topic"),
		Question:    text,
		Explanation: stringField(e, "explanation"),
		Reference:   stringField(e, "reference"),
	}

	if rawOpts, ok := e["options"]; ok && rawOpts != nil {
		list, ok := rawOpts.([]any)
		if !ok {
			return Question{}, fmt.Errorf("%w: options must be a list", ErrMalformedEntry)
		}
		for i, o := range list {
			s, ok := o.(string)
			if !ok {
				return Question{}, fmt.Errorf("%w: option %d is not a string", ErrMalformedEntry, i)
			}
			q.Options = append(q.Options, s)
		}
	}

	q.Correct = parseCorrect(e["correct"], q.IsMultipleChoice())
	return q, nil
}

// parseCorrect interprets the "correct" field. For multiple choice a number
// or an integer string is a zero-based index; anything else is invalid (-1).
func parseCorrect(v any, multipleChoice bool) Answer {
	if multipleChoice {
		switch c := v.(type) {
		case json.Number:
			if n, err := c.Int64(); err == nil {
				return IndexAnswer(int(n))
			}
		case float64:
			if c == float64(int(c)) {
				return IndexAnswer(int(c))
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(c)); err == nil {
				return IndexAnswer(n)
			}
		}
		return IndexAnswer(-1)
	}

	switch c := v.(type) {
	case string:
		return TextAnswer(c)
	case json.Number:
		return TextAnswer(c.String())
	case float64:
		return TextAnswer(strconv.FormatFloat(c, 'f', -1, 64))
	}
	return TextAnswer("")
}

func stringField(e Entry, key string) string {
	s, _ := e[key].(string)
	return s
}

func idField(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}
