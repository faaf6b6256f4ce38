// Package search implements the free-text filter of the appointment list.
//
// Tokenization is Unicode-aware: text is case-folded and split into runs of
// letters and digits. A record matches a query when every query token is a
// prefix of at least one token drawn from the record's client name, vehicle
// model and description. Filtering keeps the input order, so callers sort
// first and filter second.
//
// The package does no logging and holds no state; it is safe for concurrent
// use.
package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// wordRE matches runs of Unicode letters and digits.
var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize case-folds s and returns its distinct word tokens in order of
// first appearance.
func Tokenize(s string) []string {
	s = cases.Fold().String(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Matches reports whether every token of query prefixes a token of a.
// A query without tokens matches everything.
func Matches(a domain.Appointment, query string) bool {
	return matchTokens(recordTokens(a), Tokenize(query))
}

// Filter returns the appointments of list that match query, preserving order.
func Filter(list []domain.Appointment, query string) []domain.Appointment {
	q := Tokenize(query)
	if len(q) == 0 {
		return list
	}
	out := make([]domain.Appointment, 0, len(list))
	for _, a := range list {
		if matchTokens(recordTokens(a), q) {
			out = append(out, a)
		}
	}
	return out
}

func recordTokens(a domain.Appointment) []string {
	return Tokenize(strings.Join([]string{a.ClientName, a.VehicleModel, a.Description}, " "))
}

func matchTokens(doc, query []string) bool {
	for _, q := range query {
		found := false
		for _, d := range doc {
			if strings.HasPrefix(d, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
