package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery_TokenizesAndLowercases(t *testing.T) {
	q := ParseQuery("  How To Restart The Server?  ")

	assert.Equal(t, "How To Restart The Server?", q.Original)
	assert.Equal(t, []string{"restart", "server"}, q.Terms)
}

func TestParseQuery_DropsStopwordsAndShortTokens(t *testing.T) {
	q := ParseQuery("what is the a b meaning of x")

	assert.Equal(t, []string{"meaning"}, q.Terms)
}

func TestParseQuery_Deduplicates(t *testing.T) {
	q := ParseQuery("server server SERVER restart")

	assert.Equal(t, []string{"server", "restart"}, q.Terms)
}

func TestParseQuery_ExpandsSynonymsBounded(t *testing.T) {
	q := ParseQuery("search config install")

	assert.LessOrEqual(t, len(q.Expanded), maxSynonymExpansions)
	assert.Contains(t, q.Expanded, "query")

	// Expanded terms never duplicate query terms.
	for _, e := range q.Expanded {
		assert.NotContains(t, q.Terms, e)
	}
}

func TestParseQuery_Empty(t *testing.T) {
	q := ParseQuery("   ")

	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.Terms)
	assert.Empty(t, q.Expanded)
}

func TestQueryTerms_AllTerms(t *testing.T) {
	q := ParseQuery("search restart")

	all := q.AllTerms()
	assert.Equal(t, append(append([]string{}, q.Terms...), q.Expanded...), all)
}
