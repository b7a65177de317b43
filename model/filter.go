package model

import "strings"

// Filter restricts which transactions a subscriber sees. Every field that is set must match,
// the zero Filter matches everything.
type Filter struct {
	Prefix    string
	Pattern   string
	Predicate func(Transaction) bool
}

func (f Filter) Matches(tx Transaction) bool {
	if f.Prefix != "" && !strings.HasPrefix(tx.URI, f.Prefix) {
		return false
	}

	if f.Pattern != "" && !GlobMatch(f.Pattern, tx.URI) {
		return false
	}

	if f.Predicate != nil && !f.Predicate(tx) {
		return false
	}

	return true
}

// GlobMatch matches s against pattern where '*' matches any run of characters,
// including '/', and '?' matches exactly one character (rune, not byte).
func GlobMatch(pattern, s string) bool {
	pr, sr := []rune(pattern), []rune(s)

	p, i := 0, 0
	star, mark := -1, 0

	for i < len(sr) {
		switch {
		case p < len(pr) && (pr[p] == '?' || pr[p] == sr[i]):
			p++
			i++
		case p < len(pr) && pr[p] == '*':
			star = p
			mark = i
			p++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}

	for p < len(pr) && pr[p] == '*' {
		p++
	}

	return p == len(pr)
}
