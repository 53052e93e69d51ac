package voice

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// normalizeName lowercases, strips diacritics and collapses whitespace.
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// matchName finds the names that contain the spoken one (or are contained in
// it). With several candidates the closest by edit distance wins; a tie
// returns every tied index as ambiguous.
func matchName(spoken string, names []string) (best int, ambiguous []int) {
	q := normalizeName(spoken)
	if q == "" {
		return -1, nil
	}

	var candidates []int
	for i, name := range names {
		n := normalizeName(name)
		if n == "" {
			continue
		}
		if strings.Contains(n, q) || strings.Contains(q, n) {
			candidates = append(candidates, i)
		}
	}

	switch len(candidates) {
	case 0:
		return -1, nil
	case 1:
		return candidates[0], nil
	}

	minDist := -1
	var tied []int
	for _, i := range candidates {
		d := levenshtein.ComputeDistance(q, normalizeName(names[i]))
		switch {
		case minDist < 0 || d < minDist:
			minDist = d
			tied = []int{i}
		case d == minDist:
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}
	return -1, tied
}

// MatchProfessional resolves a spoken name against the professional list.
func MatchProfessional(spoken string, pros []domain.Professional) (*domain.Professional, []domain.Professional) {
	names := make([]string, len(pros))
	for i, p := range pros {
		names[i] = p.Name
	}
	best, tied := matchName(spoken, names)
	if best >= 0 {
		p := pros[best]
		return &p, nil
	}
	var ambiguous []domain.Professional
	for _, i := range tied {
		ambiguous = append(ambiguous, pros[i])
	}
	return nil, ambiguous
}

// matchTenant resolves a spoken name against the tenants of the properties.
func matchTenant(spoken string, props []domain.Property) (*domain.Property, []domain.Property) {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.TenantName
	}
	best, tied := matchName(spoken, names)
	if best >= 0 {
		p := props[best]
		return &p, nil
	}
	var ambiguous []domain.Property
	for _, i := range tied {
		ambiguous = append(ambiguous, props[i])
	}
	return nil, ambiguous
}
