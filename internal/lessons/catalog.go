// Package lessons maps weak topics to study material.
package lessons

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultLimit is how many topics Recommend returns by default.
const DefaultLimit = 3

// Lookup resolves a topic label to a lesson URL.
type Lookup interface {
	Lookup(topic string) (url string, ok bool)
}

// Entry links topic keywords to one lesson.
type Entry struct {
	Keywords []string
	URL      string
}

// KeywordCatalog matches topics by case-insensitive substring against an
// ordered keyword table. The first matching entry wins; otherwise the
// fallback URL is used when set.
type KeywordCatalog struct {
	entries  []Entry
	fallback string
}

// NewKeywordCatalog builds a catalog. Keywords are lowercased.
func NewKeywordCatalog(entries []Entry, fallback string) *KeywordCatalog {
	c := &KeywordCatalog{fallback: fallback}
	for _, e := range entries {
		kws := lo.FilterMap(e.Keywords, func(k string, _ int) (string, bool) {
			k = strings.ToLower(strings.TrimSpace(k))
			return k, k != ""
		})
		if len(kws) == 0 || e.URL == "" {
			continue
		}
		c.entries = append(c.entries, Entry{Keywords: kws, URL: e.URL})
	}
	return c
}

// DefaultCatalog covers the sections used by the bundled question banks,
// with English and Russian keywords.
func DefaultCatalog() *KeywordCatalog {
	return NewKeywordCatalog([]Entry{
		{Keywords: []string{"глагол", "verb"}, URL: "https://www.englishdom.com/blog/glagoly-v-anglijskom-yazyke/"},
		{Keywords: []string{"артикль", "article"}, URL: "https://skyeng.ru/articles/v-chem-raznitsa-mezhdu-opredelennym-i-neopredelennym-artiklem-v-anglijskom-yazyke/"},
		{Keywords: []string{"прилагательное", "adjective"}, URL: "https://lingualeo.com/ru/blog/2023/09/19/prilagatelnye-v-anglijskom-yazyke/"},
		{Keywords: []string{"морфология", "morpholog"}, URL: "https://ru.wikipedia.org/wiki/Английская_грамматика"},
		{Keywords: []string{"времена", "tense"}, URL: "https://skyeng.ru/articles/vse-vremena-glagola-v-anglijskom-yazyke/"},
		{Keywords: []string{"предлог", "preposition"}, URL: "https://www.bkc.ru/blog/about-language/grammar/predlogi-v-angliyskom-yazyke/"},
		{Keywords: []string{"существительное", "noun"}, URL: "https://englex.ru/english-nouns/"},
	}, "https://learnenglish.britishcouncil.org/grammar")
}

// Lookup returns the URL of the first entry with a keyword contained in topic.
func (c *KeywordCatalog) Lookup(topic string) (string, bool) {
	t := strings.ToLower(topic)
	for _, e := range c.entries {
		if lo.SomeBy(e.Keywords, func(k string) bool { return strings.Contains(t, k) }) {
			return e.URL, true
		}
	}
	if c.fallback != "" {
		return c.fallback, true
	}
	return "", false
}

// Recommendation pairs a weak topic with its lesson.
type Recommendation struct {
	Topic string
	URL   string
}

// Recommend resolves up to limit distinct topics, in order. Topics the
// lookup cannot resolve are skipped. limit <= 0 means DefaultLimit.
func Recommend(lookup Lookup, topics []string, limit int) []Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []Recommendation
	for _, topic := range lo.Uniq(topics) {
		if len(out) == limit {
			break
		}
		url, ok := lookup.Lookup(topic)
		if !ok {
			continue
		}
		out = append(out, Recommendation{Topic: topic, URL: url})
	}
	return out
}
