package bank

// Bank is the ordered, read-only question list shared by every session.
// A nil or empty Bank means the question bank is unavailable.
type Bank struct {
	questions []Question
}

// New builds a Bank from questions. The slice is copied.
func New(questions []Question) *Bank {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		qs[i] = q.clone()
	}
	return &Bank{questions: qs}
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.questions)
}

// Empty reports whether the bank has no questions.
func (b *Bank) Empty() bool {
	return b.Len() == 0
}

// At returns the question at index i.
func (b *Bank) At(i int) (Question, bool) {
	if i < 0 || i >= b.Len() {
		return Question{}, false
	}
	return b.questions[i].clone(), true
}

// Questions returns a copy of all questions in order.
func (b *Bank) Questions() []Question {
	out := make([]Question, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		out = append(out, b.questions[i].clone())
	}
	return out
}

// Sections returns each question's section label (with the default applied),
// indexed like the bank.
func (b *Bank) Sections() []string {
	out := make([]string, b.Len())
	for i := range out {
		out[i] = b.questions[i].SectionOrDefault()
	}
	return out
}
