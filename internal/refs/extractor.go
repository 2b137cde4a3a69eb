// Package refs finds document and activity identifiers in case
// narratives: a best-guess document number for a whole narrative, and an
// inline segmentation that turns resolvable mentions into links.
package refs

import (
	"regexp"
	"strconv"
)

// Rule is one entry of the extraction table. Lower priority numbers are
// more trusted.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Priority int
	All      bool // collect every match instead of the first one
}

// Identifier length bounds and the year range used to reject date-like
// 8-digit tokens.
const (
	minIdentifierLen = 7
	maxIdentifierLen = 12
	minPlausibleYear = 1990
	maxPlausibleYear = 2030
)

// Rules is the extraction table, evaluated in order. It is never mutated.
var Rules = []Rule{
	{
		Name:     "sei",
		Pattern:  regexp.MustCompile(`(?i)\bSEI\s*(?:n[º°o.]*\s*)?[:\-]?\s*(\d+)`),
		Priority: 1,
	},
	{
		Name:     "documento",
		Pattern:  regexp.MustCompile(`(?i)\b(?:documento|doc)\.?\s*(?:n[º°o.]*\s*)?[:\-]?\s*(\d+)`),
		Priority: 2,
	},
	{
		Name:     "oficio",
		Pattern:  regexp.MustCompile(`(?i)\bof[íi]cio\s*(?:n[º°o.]*\s*)?[:\-]?\s*(\d+)`),
		Priority: 3,
	},
	{
		Name:     "protocolo",
		Pattern:  regexp.MustCompile(`(?i)\b(?:protocolo|processo)\s*(?:n[º°o.]*\s*)?[:\-]?\s*(\d+)`),
		Priority: 4,
	},
	{
		Name:     "numero",
		Pattern:  regexp.MustCompile(`(?i)(?:\bn[º°o]\.?|\bn\.º|\bn[úu]mero)\s*[:\-]?\s*(\d+)`),
		Priority: 5,
	},
	{
		Name:     "catch_all",
		Pattern:  regexp.MustCompile(`\b(\d+)\b`),
		Priority: 9,
		All:      true,
	},
}

// Candidate is a validated identifier together with the rule that found it.
type Candidate struct {
	Value    string `json:"value"`
	Rule     string `json:"rule"`
	Priority int    `json:"priority"`
}

// Extract returns the most trusted document identifier in text. A later
// rule replaces the current best only with a strictly lower priority
// number. ok is false when no candidate validates.
func Extract(text string) (id string, ok bool) {
	var best *Candidate
	for _, rule := range Rules {
		found := rule.candidates(text)
		if len(found) == 0 {
			continue
		}
		if best == nil || rule.Priority < best.Priority {
			c := found[0]
			best = &c
		}
	}
	if best == nil {
		return "", false
	}
	return best.Value, true
}

// ExtractAll lists every validated candidate in rule order.
func ExtractAll(text string) []Candidate {
	var out []Candidate
	for _, rule := range Rules {
		out = append(out, rule.candidates(text)...)
	}
	return out
}

func (r Rule) candidates(text string) []Candidate {
	var matches [][]string
	if r.All {
		matches = r.Pattern.FindAllStringSubmatch(text, -1)
	} else if m := r.Pattern.FindStringSubmatch(text); m != nil {
		matches = [][]string{m}
	}

	var out []Candidate
	for _, m := range matches {
		if len(m) < 2 || !ValidIdentifier(m[1]) {
			continue
		}
		out = append(out, Candidate{Value: m[1], Rule: r.Name, Priority: r.Priority})
	}
	return out
}

// ValidIdentifier reports whether s is an acceptable document number:
// 7 to 12 digits, and for 8-digit values neither half may read as a
// year between 1990 and 2030.
func ValidIdentifier(s string) bool {
	if len(s) < minIdentifierLen || len(s) > maxIdentifierLen {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	if len(s) == 8 && (plausibleYear(s[:4]) || plausibleYear(s[4:])) {
		return false
	}
	return true
}

func plausibleYear(s string) bool {
	y, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return y >= minPlausibleYear && y <= maxPlausibleYear
}
