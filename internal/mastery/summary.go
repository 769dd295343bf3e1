package mastery

import (
	"strings"

	"github.com/samber/lo"
)

// MaxWeakTopics bounds the weak-topic list kept per test.
const MaxWeakTopics = 5

// DefaultTopic labels questions without a section.
const DefaultTopic = "General"

// Summary is the outcome of a finished test.
type Summary struct {
	Level      Level
	WeakTopics []string
	Score      int
	Total      int
}

// Ratio returns Score/Total, or 0 for an empty test.
func (s Summary) Ratio() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Score) / float64(s.Total)
}

// WeakTopics collects the section of every question in sections whose answer
// is missing or false, deduplicated in first-seen order and capped at
// MaxWeakTopics. sections is indexed like the question bank.
func WeakTopics(sections []string, answers map[int]bool) []string {
	var missed []string
	for i, section := range sections {
		if answers[i] {
			continue
		}
		if strings.TrimSpace(section) == "" {
			section = DefaultTopic
		}
		missed = append(missed, section)
	}

	unique := lo.Uniq(missed)
	if len(unique) > MaxWeakTopics {
		unique = unique[:MaxWeakTopics]
	}
	return unique
}

// Summarize computes the level and weak topics of a finished test.
// The total is len(sections). Inputs are not modified.
func Summarize(score int, answers map[int]bool, sections []string) Summary {
	total := len(sections)
	return Summary{
		Level:      LevelFor(score, total),
		WeakTopics: WeakTopics(sections, answers),
		Score:      score,
		Total:      total,
	}
}
