package session

import (
	"fmt"
	"strings"

	"github.com/abhisek/levelup/internal/bank"
	"github.com/abhisek/levelup/internal/mastery"
)

// Reply is one outbound message, independent of the chat transport.
type Reply struct {
	Text string

	// Choices are quick-reply buttons offered with the message.
	Choices []string

	// RemoveKeyboard asks the transport to hide previously offered choices.
	RemoveKeyboard bool
}

// Fixed message texts.
const (
	MsgUnavailable   = "❌ The test is temporarily unavailable"
	MsgInternalError = "⚠️ Unexpected error in the questions. The test was stopped."
	MsgSaveFailed    = "⚠️ Could not save your results"
	MsgDataError     = "Question data error"
)

// reportTopics is how many weak topics the completion report lists.
const reportTopics = 3

// questionReply renders the question at index i of n.
func questionReply(q bank.Question, i, n int) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "🔹 Question %d/%d\n", i+1, n)
	fmt.Fprintf(&b, "Topic: %s\n\n", q.SectionOrDefault())
	b.WriteString(q.Question)

	r := Reply{}
	if q.IsMultipleChoice() {
		b.WriteString("\n")
		for k, opt := range q.Options {
			fmt.Fprintf(&b, "\n%d. %s", k+1, opt)
			r.Choices = append(r.Choices, fmt.Sprint(k+1))
		}
	}
	r.Text = b.String()
	return r
}

// feedbackReply renders the correctness notice sent after every answer.
func feedbackReply(correct bool, detail, explanation string) Reply {
	var b strings.Builder
	if correct {
		b.WriteString("✅ Correct!\n")
	} else {
		b.WriteString("❌ Wrong!\n")
	}
	b.WriteString(detail)
	if explanation != "" {
		b.WriteString("\n")
		b.WriteString(explanation)
	}
	return Reply{Text: b.String()}
}

// reportReply renders the completion report.
func reportReply(sum mastery.Summary) Reply {
	var b strings.Builder
	b.WriteString("📊 Test finished!\n")
	fmt.Fprintf(&b, "Level: %s\n", sum.Level.Display())
	fmt.Fprintf(&b, "Correct answers: %d/%d\n", sum.Score, sum.Total)

	topics := sum.WeakTopics
	if len(topics) > reportTopics {
		topics = topics[:reportTopics]
	}
	if len(topics) > 0 {
		b.WriteString("\nWeak topics:")
		for _, t := range topics {
			fmt.Fprintf(&b, "\n• %s", t)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUse /lessons for recommendations")
	return Reply{Text: b.String(), RemoveKeyboard: true}
}
