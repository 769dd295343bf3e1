package bank

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFlatten_HoistsNestedAndInheritsSection(t *testing.T) {
	entries := []Entry{
		{"question": "q1", "section": "Verbs"},
		{
			"section": "Articles",
			"questions": []any{
				map[string]any{"question": "q2"},
				map[string]any{"question": "q3", "section": "Nouns"},
				map[string]any{"question": "q4", "section": "  "},
			},
		},
		{"question": "q5"},
	}

	flat := Flatten(entries)
	require.Len(t, flat, 4)

	got := make([]string, 0, len(flat))
	for _, e := range flat {
		s, _ := e["section"].(string)
		got = append(got, e["question"].(string)+"/"+s)
	}
	assert.Equal(t, []string{"q1/Verbs", "q2/Articles", "q3/Nouns", "q4/Articles"}, got)

	// The nested input is not modified.
	child := entries[1]["questions"].([]any)[0].(map[string]any)
	_, hasSection := child["section"]
	assert.False(t, hasSection)
}

func TestFlatten_Idempotent(t *testing.T) {
	entries := []Entry{
		{"question": "a", "section": "S1"},
		{"section": "S2", "questions": []any{map[string]any{"question": "b"}}},
	}
	once := Flatten(entries)
	twice := Flatten(once)
	assert.Equal(t, once, twice)

	flat := []Entry{{"question": "x"}, {"question": "y", "section": "Z"}}
	assert.Equal(t, flat, Flatten(flat))
}

func TestFlatten_Recursive(t *testing.T) {
	entries := []Entry{{
		"section": "Outer",
		"questions": []any{
			map[string]any{"questions": []any{map[string]any{"question": "deep"}}},
		},
	}}
	flat := Flatten(entries)
	require.Len(t, flat, 1)
	assert.Equal(t, "deep", flat[0]["question"])
	assert.Equal(t, "Outer", flat[0]["section"])
}

func TestParse_TopLevelListAndObject(t *testing.T) {
	list := `[
		{"id": "1", "section": "Grammar", "question": "Pick one", "options": ["A", "B"], "correct": 1},
		{"id": "2", "question": "Type it", "correct": "Went"}
	]`
	obj := `{"questions": ` + list + `}`

	for name, doc := range map[string]string{"list": list, "object": obj} {
		t.Run(name, func(t *testing.T) {
			b, err := Parse(strings.NewReader(doc), zap.NewNop())
			require.NoError(t, err)
			require.Equal(t, 2, b.Len())

			q0, ok := b.At(0)
			require.True(t, ok)
			assert.True(t, q0.IsMultipleChoice())
			assert.Equal(t, 1, q0.Correct.Index)
			assert.True(t, q0.Valid())

			q1, _ := b.At(1)
			assert.False(t, q1.IsMultipleChoice())
			assert.Equal(t, "went", q1.Correct.Text)
			assert.Equal(t, DefaultSection, q1.SectionOrDefault())
		})
	}
}

func TestParse_RejectsMalformedEntries(t *testing.T) {
	doc := `{"questions": [
		{"id": "1", "question": ""},
		{"id": "2", "question": "ok", "options": ["a", 3]},
		{"id": "3", "question": "fine"}
	]}`
	b, err := Parse(strings.NewReader(doc), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	q, _ := b.At(0)
	assert.Equal(t, "3", q.ID)
}

func TestParse_InvalidDocument(t *testing.T) {
	tests := map[string]string{
		"not json":           `{{`,
		"scalar":             `"hello"`,
		"object no list":     `{"items": []}`,
		"questions not list": `{"questions": 5}`,
		"entry not object":   `[1, 2]`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc), nil)
			assert.Error(t, err)
		})
	}
}

func TestParseCorrect(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		index int
		text  string
		valid bool
	}{
		{"index number", `{"question":"q","options":["a","b"],"correct":0}`, 0, "", true},
		{"index string", `{"question":"q","options":["a","b"],"correct":"1"}`, 1, "", true},
		{"out of range", `{"question":"q","options":["a","b"],"correct":2}`, 2, "", false},
		{"letter is invalid", `{"question":"q","options":["a","b"],"correct":"B"}`, -1, "", false},
		{"missing", `{"question":"q","options":["a"]}`, -1, "", false},
		{"free text", `{"question":"q","correct":"  Has Been "}`, -1, "has been", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse(strings.NewReader("["+tt.entry+"]"), nil)
			require.NoError(t, err)
			q, ok := b.At(0)
			require.True(t, ok)
			assert.Equal(t, tt.index, q.Correct.Index)
			assert.Equal(t, tt.text, q.Correct.Text)
			assert.Equal(t, tt.valid, q.Valid())
		})
	}
}

func TestCorrectOption_DataInconsistency(t *testing.T) {
	q := Question{ID: "7", Question: "q", Options: []string{"a"}, Correct: IndexAnswer(3)}
	_, _, err := q.CorrectOption()
	assert.ErrorIs(t, err, ErrDataInconsistency)

	q.Correct = IndexAnswer(0)
	idx, text, err := q.CorrectOption()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a", text)
}

func TestLoadOrEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := LoadOrEmpty(filepath.Join(dir, "nope.json"), zap.NewNop())
	assert.True(t, missing.Empty())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	assert.True(t, LoadOrEmpty(bad, zap.NewNop()).Empty())

	good := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"question":"q"}]`), 0o644))
	assert.Equal(t, 1, LoadOrEmpty(good, zap.NewNop()).Len())
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	in := []Question{
		{ID: "Q1", Section: "Grammar", Topic: "Verbs", Question: "What is...", Options: []string{"A", "B"}, Correct: IndexAnswer(1), Explanation: "Because..."},
		{ID: "Q2", Section: "Vocabulary", Question: "Spell it", Correct: TextAnswer("colour")},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))

	b, err := Parse(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, in, b.Questions())
}

func TestBank_IsolatedFromCallerMutation(t *testing.T) {
	opts := []string{"a", "b"}
	b := New([]Question{{Question: "q", Options: opts, Correct: IndexAnswer(0)}})
	opts[0] = "changed"

	q, _ := b.At(0)
	assert.Equal(t, "a", q.Options[0])
	q.Options[1] = "mutated"

	again, _ := b.At(0)
	assert.Equal(t, "b", again.Options[1])

	_, ok := b.At(1)
	assert.False(t, ok)
	assert.Equal(t, []string{DefaultSection}, b.Sections())
}

func TestLoad_BundledBank(t *testing.T) {
	b, err := Load(filepath.Join("..", "..", "data", "questions.json"), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 8, b.Len())

	assert.Equal(t, []string{"Verbs", "Articles", "Tenses", "Tenses", "Prepositions", "Adjectives", "Nouns", "Verbs"}, b.Sections())
	for _, q := range b.Questions() {
		assert.True(t, q.Valid(), q.ID)
	}

	q, _ := b.At(7)
	assert.False(t, q.IsMultipleChoice())
	assert.Equal(t, "went", q.Correct.Text)
}
