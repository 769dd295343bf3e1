package lessons

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		topic string
		want  string
	}{
		{"Глаголы и времена", "https://www.englishdom.com/blog/glagoly-v-anglijskom-yazyke/"},
		{"Irregular VERBS", "https://www.englishdom.com/blog/glagoly-v-anglijskom-yazyke/"},
		{"Present tenses", "https://skyeng.ru/articles/vse-vremena-glagola-v-anglijskom-yazyke/"},
		{"Определённый артикль", "https://skyeng.ru/articles/v-chem-raznitsa-mezhdu-opredelennym-i-neopredelennym-artiklem-v-anglijskom-yazyke/"},
		{"Nouns", "https://englex.ru/english-nouns/"},
		{"General", "https://learnenglish.britishcouncil.org/grammar"},
	}
	for _, tt := range tests {
		got, ok := c.Lookup(tt.topic)
		assert.True(t, ok, tt.topic)
		assert.Equal(t, tt.want, got, tt.topic)
	}
}

func TestCatalogWithoutFallback(t *testing.T) {
	c := NewKeywordCatalog([]Entry{
		{Keywords: []string{"  Idiom "}, URL: "u1"},
		{Keywords: []string{""}, URL: "ignored"},
		{Keywords: []string{"x"}},
	}, "")

	url, ok := c.Lookup("IDIOMS")
	assert.True(t, ok)
	assert.Equal(t, "u1", url)

	_, ok = c.Lookup("x")
	assert.False(t, ok)
	_, ok = c.Lookup("anything")
	assert.False(t, ok)
}

func TestRecommend(t *testing.T) {
	c := NewKeywordCatalog([]Entry{
		{Keywords: []string{"grammar"}, URL: "g"},
		{Keywords: []string{"vocab"}, URL: "v"},
		{Keywords: []string{"idiom"}, URL: "i"},
	}, "")

	got := Recommend(c, []string{"Grammar", "Grammar", "Unknown", "Vocabulary", "Idioms", "Grammar 2"}, 0)
	assert.Equal(t, []Recommendation{
		{Topic: "Grammar", URL: "g"},
		{Topic: "Vocabulary", URL: "v"},
		{Topic: "Idioms", URL: "i"},
	}, got)

	assert.Len(t, Recommend(c, []string{"Grammar", "Vocabulary"}, 1), 1)
	assert.Empty(t, Recommend(c, nil, 3))
}
