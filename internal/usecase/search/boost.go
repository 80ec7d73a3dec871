package search

import "strings"

// BoostRule boosts one well-known document when the folded query text
// matches a hand-authored semantic pattern. Every stem group must have at
// least one stem present in the text; stems are substring checks against the
// folded full query, not against tokens, so inflections match ("résilier",
// "résiliation" → "resili").
//
// Rules are data, not code: extend the table, not the scorer.
type BoostRule struct {
	Groups [][]string // conjunction of disjunctions
	Slug   string     // document identity to boost
	Bonus  int
}

// DefaultBoostRules is the closed rule set carried over from the support
// team's most common intents.
var DefaultBoostRules = []BoostRule{
	{
		// "I want to cancel my subscription"
		Groups: [][]string{
			{"resili", "desabonn", "annul"},
			{"abonnement", "abo", "contrat"},
		},
		Slug:  "resiliation",
		Bonus: 50,
	},
	{
		// "open / create a new subscription"
		Groups: [][]string{
			{"creer", "creation", "ouvrir", "ouverture", "souscri", "nouvel"},
			{"abonnement", "abo", "contrat"},
		},
		Slug:  "creer-abonnement",
		Bonus: 30,
	},
}

// BoostFor evaluates the rule table against the folded query text and
// returns the bonus per document identity. Deterministic; multiple rules
// targeting the same document accumulate.
func BoostFor(folded string, rules []BoostRule) map[string]int {
	boosts := make(map[string]int)
	for _, rule := range rules {
		if rule.matches(folded) {
			boosts[rule.Slug] += rule.Bonus
		}
	}
	return boosts
}

func (r *BoostRule) matches(folded string) bool {
	for _, group := range r.Groups {
		ok := false
		for _, stem := range group {
			if strings.Contains(folded, stem) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return len(r.Groups) > 0
}
