package filter

import "strings"

// QuickFilter is a common product with its English and Danish names.
type QuickFilter struct {
	EN       string `json:"en"`
	DA       string `json:"da"`
	Featured bool   `json:"featured"`
}

// Term returns the filter term for q: the English name with the Danish name as variant.
func (q QuickFilter) Term() Term {
	t := Term{Text: q.EN}
	if !strings.EqualFold(q.EN, q.DA) {
		t.Alt = q.DA
	}
	return t
}

var quickFilters = []QuickFilter{
	{EN: "bread", DA: "brød", Featured: true},
	{EN: "milk", DA: "mælk", Featured: true},
	{EN: "cheese", DA: "ost", Featured: true},
	{EN: "meat", DA: "kød", Featured: true},
	{EN: "chicken", DA: "kylling", Featured: true},
	{EN: "fish", DA: "fisk", Featured: true},
	{EN: "yogurt", DA: "yoghurt", Featured: true},
	{EN: "butter", DA: "smør", Featured: true},
	{EN: "egg", DA: "æg", Featured: true},
	{EN: "pasta", DA: "pasta", Featured: true},
	{EN: "rice", DA: "ris"},
	{EN: "pizza", DA: "pizza"},
	{EN: "salad", DA: "salat"},
	{EN: "juice", DA: "juice"},
	{EN: "coffee", DA: "kaffe"},
	{EN: "tea", DA: "te"},
	{EN: "chocolate", DA: "chokolade"},
	{EN: "cake", DA: "kage"},
}

// QuickFilters returns the quick-filter list, featured entries first.
func QuickFilters() []QuickFilter {
	out := make([]QuickFilter, len(quickFilters))
	copy(out, quickFilters)
	return out
}

// LookupQuickFilter finds a quick filter by its English or Danish name, ignoring case.
func LookupQuickFilter(name string) (QuickFilter, bool) {
	name = strings.TrimSpace(name)
	for _, q := range quickFilters {
		if strings.EqualFold(q.EN, name) || strings.EqualFold(q.DA, name) {
			return q, true
		}
	}
	return QuickFilter{}, false
}
