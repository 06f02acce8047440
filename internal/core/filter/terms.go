// Package filter narrows a catalog down to the offers matching a set of product terms.
package filter

import "strings"

// Term is an active filter term.
type Term struct {
	Text string `json:"text"`
	// Alt is the other-language variant when the term came from the quick-filter list.
	Alt string `json:"alt,omitempty"`
}

// needles returns the lowercased strings this term matches on.
func (t Term) needles() []string {
	n := []string{strings.ToLower(t.Text)}
	if t.Alt != "" {
		n = append(n, strings.ToLower(t.Alt))
	}
	return n
}

// Set is an ordered set of terms, oldest first. Terms are unique by their exact
// trimmed text, so "Bread" and "bread" are two entries that match the same offers.
//
// Set is a value: Add, Remove and Clear return a new set and leave the receiver alone.
type Set []Term

// Add appends text as a free-text term. Blank or already present text is ignored.
func (s Set) Add(text string) Set {
	return s.AddTerm(Term{Text: text})
}

// AddTerm appends t after trimming its text. Blank or already present terms are ignored.
func (s Set) AddTerm(t Term) Set {
	t.Text = strings.TrimSpace(t.Text)
	t.Alt = strings.TrimSpace(t.Alt)
	if t.Text == "" || s.Contains(t.Text) {
		return s
	}
	out := make(Set, 0, len(s)+1)
	out = append(out, s...)
	return append(out, t)
}

// Remove drops the term whose text equals text exactly.
func (s Set) Remove(text string) Set {
	if !s.Contains(text) {
		return s
	}
	out := make(Set, 0, len(s)-1)
	for _, t := range s {
		if t.Text != text {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return Clear()
	}
	return out
}

// Clear returns the empty set.
func Clear() Set { return nil }

// Contains reports whether a term with exactly this text is active.
func (s Set) Contains(text string) bool {
	for _, t := range s {
		if t.Text == text {
			return true
		}
	}
	return false
}

// Texts returns the term texts in insertion order.
func (s Set) Texts() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Text
	}
	return out
}
