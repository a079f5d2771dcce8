// Package match scores proposed person records against existing canonical
// persons to detect duplicates before merge arbitration.
package match

import (
	"math"
	"strings"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/storage"
)

// Candidate is one scored existing person.
type Candidate struct {
	Person storage.Person
	// Score is 0..1; 1 is a certain match.
	Score float64
	// Reasons lists which heuristics contributed to the score.
	Reasons []string
}

// Matcher computes weighted duplicate scores. The weights and the gate are
// configuration, not fixed constants; the defaults mirror the values the
// system was originally tuned with.
type Matcher struct {
	cfg config.Matcher
}

// New creates a Matcher with the given scoring configuration.
func New(cfg config.Matcher) *Matcher {
	return &Matcher{cfg: cfg}
}

// Best scores the proposal against every candidate and returns the highest
// scorer, provided its score clears the gate. Below the gate there is no
// match: the conservative default is to treat the proposal as a new entity.
func (m *Matcher) Best(proposal extract.PersonProposal, candidates []storage.Person) *Candidate {
	var best *Candidate
	for _, existing := range candidates {
		score, reasons := m.Score(proposal, existing)
		if best == nil || score > best.Score {
			best = &Candidate{Person: existing, Score: score, Reasons: reasons}
		}
	}
	if best == nil || best.Score < m.cfg.Gate {
		return nil
	}
	return best
}

// Score computes the weighted duplicate score for one candidate pair:
// exact-name equality, a boolean alias-overlap condition, and a scaled
// temporal overlap, capped at 1.
func (m *Matcher) Score(proposal extract.PersonProposal, existing storage.Person) (float64, []string) {
	var (
		score   float64
		reasons []string
	)

	newName := strings.TrimSpace(proposal.Name)
	if newName != "" && newName == strings.TrimSpace(existing.Name) {
		score += m.cfg.ExactNameWeight
		reasons = append(reasons, "exact name match")
	}

	if aliasOverlap(newName, proposal.Aliases, existing.Name, existing.Aliases) {
		score += m.cfg.AliasWeight
		reasons = append(reasons, "alias overlap")
	}

	if overlap := timeOverlap(proposal, existing); overlap > 0 {
		score += overlap * m.cfg.TimeWeight
		reasons = append(reasons, "time overlap")
	}

	return math.Min(score, 1.0), reasons
}

// aliasOverlap holds when the new name appears in the existing aliases, the
// existing name appears in the new aliases, or the alias sets intersect. It
// contributes once no matter how many aliases coincide.
func aliasOverlap(newName string, newAliases []string, existingName string, existingAliases []string) bool {
	existingSet := make(map[string]bool, len(existingAliases))
	for _, alias := range existingAliases {
		existingSet[strings.TrimSpace(alias)] = true
	}

	if existingSet[newName] {
		return true
	}
	for _, alias := range newAliases {
		alias = strings.TrimSpace(alias)
		if alias == strings.TrimSpace(existingName) || existingSet[alias] {
			return true
		}
	}
	return false
}

// timeOverlap grades temporal agreement: 1.0 on an exact birth-year or
// death-year match, 0.5 when both records carry fully specified,
// overlapping active-period ranges, else 0.
func timeOverlap(proposal extract.PersonProposal, existing storage.Person) float64 {
	if yearsEqual(extract.ParseYear(proposal.BirthYear), existing.BirthYear) {
		return 1.0
	}
	if yearsEqual(extract.ParseYear(proposal.DeathYear), existing.DeathYear) {
		return 1.0
	}

	newFrom := extract.ParseYear(proposal.ActivePeriodStart)
	newTo := extract.ParseYear(proposal.ActivePeriodEnd)
	if newFrom != nil && newTo != nil && existing.ActiveFrom != nil && existing.ActiveTo != nil {
		if *newFrom <= *existing.ActiveTo && *existing.ActiveFrom <= *newTo {
			return 0.5
		}
	}
	return 0
}

func yearsEqual(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}
