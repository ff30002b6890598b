package mapping

import (
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

// Score weights
const (
	ScoreExactName   = 100.0
	ScoreExactAlias  = 95.0
	ScoreContainment = 80.0
	ScoreTokenWeight = 70.0

	// MatchThreshold is the minimum score accepted as a match
	MatchThreshold = 60.0
)

// ScoreAttribute scores a product value against one reference value
func ScoreAttribute(value string, attr vinted.Attribute) float64 {
	v := Normalize(value)
	if v == "" {
		return 0
	}
	name := Normalize(attr.Name)
	if v == name {
		return ScoreExactName
	}

	aliases := make([]string, 0, len(attr.Aliases))
	for _, a := range attr.Aliases {
		na := Normalize(a)
		if na == "" {
			continue
		}
		if v == na {
			return ScoreExactAlias
		}
		aliases = append(aliases, na)
	}

	for _, candidate := range append([]string{name}, aliases...) {
		if containsWords(v, candidate) || containsWords(candidate, v) {
			return ScoreContainment
		}
	}

	best := jaccard(tokens(v), tokens(name))
	for _, a := range aliases {
		if j := jaccard(tokens(v), tokens(a)); j > best {
			best = j
		}
	}
	return best * ScoreTokenWeight
}

// BestMatch returns the highest scoring candidate at or above MatchThreshold.
// Ties go to the shorter name, then to the lower Vinted id.
func BestMatch(value string, candidates []vinted.Attribute) (vinted.AttributeMatch, bool) {
	var (
		best  vinted.Attribute
		score float64
		found bool
	)
	for _, c := range candidates {
		s := ScoreAttribute(value, c)
		if s < MatchThreshold {
			continue
		}
		if !found || s > score || (s == score && betterTie(c, best)) {
			best, score, found = c, s, true
		}
	}
	if !found {
		return vinted.AttributeMatch{}, false
	}
	return vinted.AttributeMatch{
		Kind:     best.Kind,
		Value:    value,
		VintedID: best.VintedID,
		Name:     best.Name,
		Score:    score,
	}, true
}

func betterTie(a, b vinted.Attribute) bool {
	la, lb := len([]rune(a.Name)), len([]rune(b.Name))
	if la != lb {
		return la < lb
	}
	return a.VintedID < b.VintedID
}

// filterSizeGroup restricts sizes to a group, falling back to all sizes
func filterSizeGroup(sizes []vinted.Attribute, group string) []vinted.Attribute {
	if group == "" {
		return sizes
	}
	out := make([]vinted.Attribute, 0, len(sizes))
	for _, s := range sizes {
		if s.SizeGroup == group {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return sizes
	}
	return out
}
