// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package lexicon

import "strings"

var DefaultVocabulary = []string{
	"login", "signin", "verify", "account", "password", "secure", "update",
	"bank", "paypal", "alert", "confirm", "ebay", "security", "limited",
}

// Matcher checks text against a fixed vocabulary of suspicious terms.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	terms []string
}

func New(vocabulary []string) *Matcher {
	terms := make([]string, 0, len(vocabulary))
	seen := make(map[string]bool, len(vocabulary))
	for _, w := range vocabulary {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return &Matcher{terms: terms}
}

func (m *Matcher) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

func (m *Matcher) TitleHasSuspiciousWord(title string) bool {
	return m.containsAny(title)
}

// BodyHasSuspiciousWord matches over the raw markup, tags and attributes
// included.
func (m *Matcher) BodyHasSuspiciousWord(markup string) bool {
	return m.containsAny(markup)
}

// Matches returns every vocabulary term found in text, in vocabulary order.
func (m *Matcher) Matches(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range m.terms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

func (m *Matcher) containsAny(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range m.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
