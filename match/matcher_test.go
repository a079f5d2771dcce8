package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/storage"
)

func newMatcher() *Matcher {
	return New(config.DefaultConfig().Matcher)
}

func TestScore_ExactNameOnly(t *testing.T) {
	score, reasons := newMatcher().Score(
		extract.PersonProposal{Name: "刘邦"},
		storage.Person{ID: "p1", Name: "刘邦"},
	)

	assert.InDelta(t, 0.6, score, 1e-9)
	assert.Equal(t, []string{"exact name match"}, reasons)
}

func TestScore_AliasOverlapVariants(t *testing.T) {
	m := newMatcher()
	tests := []struct {
		name     string
		proposal extract.PersonProposal
		existing storage.Person
	}{
		{
			"new name in existing aliases",
			extract.PersonProposal{Name: "汉王"},
			storage.Person{Name: "刘邦", Aliases: []string{"汉王"}},
		},
		{
			"existing name in new aliases",
			extract.PersonProposal{Name: "高祖", Aliases: []string{"刘邦"}},
			storage.Person{Name: "刘邦"},
		},
		{
			"alias sets intersect",
			extract.PersonProposal{Name: "高祖", Aliases: []string{"沛公"}},
			storage.Person{Name: "刘邦", Aliases: []string{"沛公", "汉王"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := m.Score(tt.proposal, tt.existing)
			assert.InDelta(t, 0.5, score, 1e-9)
			assert.Contains(t, reasons, "alias overlap")
		})
	}
}

func TestScore_AliasOverlapIsBooleanNotCumulative(t *testing.T) {
	// Three coinciding aliases still contribute the alias weight once.
	score, _ := newMatcher().Score(
		extract.PersonProposal{Name: "高祖", Aliases: []string{"沛公", "汉王", "刘季"}},
		storage.Person{Name: "刘邦", Aliases: []string{"沛公", "汉王", "刘季"}},
	)

	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScore_ExactBirthYearGivesFullTimeOverlap(t *testing.T) {
	birth := -256
	score, reasons := newMatcher().Score(
		extract.PersonProposal{Name: "某人", BirthYear: "前256年"},
		storage.Person{Name: "别人", BirthYear: &birth},
	)

	assert.InDelta(t, 0.3, score, 1e-9)
	assert.Equal(t, []string{"time overlap"}, reasons)
}

func TestScore_ActivePeriodOverlapGivesHalfTimeOverlap(t *testing.T) {
	from, to := -209, -202
	score, _ := newMatcher().Score(
		extract.PersonProposal{Name: "某人", ActivePeriodStart: "前206年", ActivePeriodEnd: "前195年"},
		storage.Person{Name: "别人", ActiveFrom: &from, ActiveTo: &to},
	)

	assert.InDelta(t, 0.15, score, 1e-9)
}

func TestScore_DisjointActivePeriodsContributeNothing(t *testing.T) {
	from, to := -209, -207
	score, _ := newMatcher().Score(
		extract.PersonProposal{Name: "某人", ActivePeriodStart: "前206年", ActivePeriodEnd: "前195年"},
		storage.Person{Name: "别人", ActiveFrom: &from, ActiveTo: &to},
	)

	assert.InDelta(t, 0, score, 1e-9)
}

func TestScore_CappedAtOne(t *testing.T) {
	birth := -256
	score, _ := newMatcher().Score(
		extract.PersonProposal{Name: "刘邦", Aliases: []string{"汉王"}, BirthYear: "前256年"},
		storage.Person{Name: "刘邦", Aliases: []string{"汉王"}, BirthYear: &birth},
	)

	// 0.6 + 0.5 + 0.3 caps at 1.0.
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScore_Monotonic(t *testing.T) {
	m := newMatcher()
	existing := storage.Person{Name: "刘邦", Aliases: []string{"汉王"}}

	without, _ := m.Score(extract.PersonProposal{Name: "高祖"}, existing)
	with, _ := m.Score(extract.PersonProposal{Name: "高祖", Aliases: []string{"汉王"}}, existing)

	// Introducing an alias overlap never decreases the score.
	assert.GreaterOrEqual(t, with, without)
	assert.Greater(t, with, without)
}

func TestBest_ReturnsHighestScorerAboveGate(t *testing.T) {
	m := newMatcher()
	proposal := extract.PersonProposal{Name: "刘邦", Aliases: []string{"汉王"}}
	candidates := []storage.Person{
		{ID: "p9", Name: "项羽"},
		{ID: "p1", Name: "刘邦", Aliases: []string{"汉王"}},
	}

	best := m.Best(proposal, candidates)

	require.NotNil(t, best)
	assert.Equal(t, "p1", best.Person.ID)
	assert.GreaterOrEqual(t, best.Score, 0.5)
}

func TestBest_BelowGateMeansNewEntity(t *testing.T) {
	m := newMatcher()

	best := m.Best(
		extract.PersonProposal{Name: "陈平"},
		[]storage.Person{{ID: "p1", Name: "刘邦"}},
	)

	assert.Nil(t, best)
}

func TestBest_NoCandidates(t *testing.T) {
	assert.Nil(t, newMatcher().Best(extract.PersonProposal{Name: "刘邦"}, nil))
}
