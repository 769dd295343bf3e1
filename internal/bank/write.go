package bank

import (
	"encoding/json"
	"io"
)

type document struct {
	Questions []wireQuestion `json:"questions"`
}

type wireQuestion struct {
	ID          string   `json:"id,omitempty"`
	Section     string   `json:"section"`
	Topic       string   `json:"topic,omitempty"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Correct     any      `json:"correct"`
	Explanation string   `json:"explanation"`
	Reference   string   `json:"reference,omitempty"`
}

// WriteJSON writes questions as the canonical bank document read by Parse.
func WriteJSON(w io.Writer, questions []Question) error {
	doc := document{Questions: make([]wireQuestion, 0, len(questions))}
	for _, q := range questions {
		wq := wireQuestion{
			ID:          q.ID,
			Section:     q.Section,
			Topic:       q.Topic,
			Question:    q.Question,
			Options:     q.Options,
			Explanation: q.Explanation,
			Reference:   q.Reference,
		}
		if q.IsMultipleChoice() {
			wq.Correct = q.Correct.Index
		} else {
			wq.Correct = q.Correct.Text
		}
		doc.Questions = append(doc.Questions, wq)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
