package service

import "strings"

const maxSynonymExpansions = 3

// QueryTerms holds the tokenised query plus bounded synonym expansions.
// Expanded terms contribute to ranking and snippets at reduced weight.
type QueryTerms struct {
	Original string
	Terms    []string
	Expanded []string
}

// stopwords excluded from term matching; scoring on these would reward
// filler text.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "how": {}, "in": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "with": {},
}

// synonyms is a small built-in expansion table for common documentation
// vocabulary.
var synonyms = map[string][]string{
	"api":       {"endpoint", "interface"},
	"auth":      {"authentication", "authorization"},
	"config":    {"configuration", "settings"},
	"delete":    {"remove"},
	"doc":       {"document", "documentation"},
	"error":     {"failure", "fault"},
	"index":     {"indexing"},
	"install":   {"setup", "installation"},
	"search":    {"query", "lookup"},
	"settings":  {"configuration", "config"},
	"start":     {"startup", "launch"},
	"vector":    {"embedding"},
	"embedding": {"vector"},
}

// ParseQuery tokenises a raw query into lowercase terms, dropping
// stopwords and single characters, and expands each term through the
// synonym table up to a fixed budget.
func ParseQuery(query string) QueryTerms {
	q := QueryTerms{Original: strings.TrimSpace(query)}

	seen := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(q.Original)) {
		term := strings.Trim(field, ".,;:!?\"'()[]{}")
		if len(term) < 2 {
			continue
		}
		if _, ok := stopwords[term]; ok {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		q.Terms = append(q.Terms, term)
	}

	expansions := 0
	for _, term := range q.Terms {
		if expansions >= maxSynonymExpansions {
			break
		}
		for _, syn := range synonyms[term] {
			if expansions >= maxSynonymExpansions {
				break
			}
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			q.Expanded = append(q.Expanded, syn)
			expansions++
		}
	}

	return q
}

// AllTerms returns query terms followed by expansions.
func (q QueryTerms) AllTerms() []string {
	out := make([]string, 0, len(q.Terms)+len(q.Expanded))
	out = append(out, q.Terms...)
	out = append(out, q.Expanded...)
	return out
}

// IsEmpty reports whether the query carries no usable terms.
func (q QueryTerms) IsEmpty() bool {
	return q.Original == ""
}
