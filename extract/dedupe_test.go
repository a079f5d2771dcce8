package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeEvents_LongestDetailWins(t *testing.T) {
	short := strings.Repeat("短", 40)
	long := strings.Repeat("长", 100)
	events := []EventProposal{
		{Name: "鸿门宴", Summary: short, RelatedParagraphs: []string{"p1"}},
		{Name: "鸿门宴", Summary: long, Impact: strings.Repeat("响", 20), RelatedParagraphs: []string{"p2"}},
	}

	out := DedupeEvents(events)

	require.Len(t, out, 1)
	// 120 combined runes beat 40; the richer proposal is primary.
	assert.Equal(t, long, out[0].Summary)
	// Secondary members still contribute their paragraphs.
	assert.ElementsMatch(t, []string{"p1", "p2"}, out[0].RelatedParagraphs)
}

func TestDedupeEvents_TieKeepsEarlierCreated(t *testing.T) {
	same := strings.Repeat("文", 40)
	events := []EventProposal{
		{Name: "鸿门宴", Summary: same, Type: "POLITICAL"},
		{Name: "鸿门宴", Summary: same, Type: "BATTLE"},
	}

	out := DedupeEvents(events)

	require.Len(t, out, 1)
	assert.Equal(t, "POLITICAL", out[0].Type)
}

func TestDedupeEvents_MergesActorsAndFillsMissingFields(t *testing.T) {
	events := []EventProposal{
		{
			Name:    "垓下之战",
			Summary: strings.Repeat("详", 50),
			Actors:  []ActorMention{{Name: "刘邦", RoleType: "PROTAGONIST"}},
		},
		{
			Name:           "垓下之战",
			TimeRangeStart: "前202年",
			LocationName:   "垓下",
			Actors: []ActorMention{
				{Name: "刘邦", RoleType: "ALLY"},
				{Name: "项羽", RoleType: "OPPOSING"},
			},
		},
	}

	out := DedupeEvents(events)

	require.Len(t, out, 1)
	merged := out[0]

	// The primary's actor entry wins a name collision; new actors append.
	require.Len(t, merged.Actors, 2)
	assert.Equal(t, "PROTAGONIST", merged.Actors[0].RoleType)
	assert.Equal(t, "项羽", merged.Actors[1].Name)

	// Empty scalar fields fill from secondaries.
	assert.Equal(t, "前202年", merged.TimeRangeStart)
	assert.Equal(t, "垓下", merged.LocationName)
}

func TestDedupeEvents_StubAbsorbedByRealEvent(t *testing.T) {
	events := []EventProposal{
		{Name: "彭城之战", Truncated: true},
		{Name: "彭城之战", Summary: "刘邦趁项羽伐齐袭取彭城，项羽回师大破汉军。"},
	}

	out := DedupeEvents(events)

	require.Len(t, out, 1)
	assert.False(t, out[0].Truncated)
	assert.NotEmpty(t, out[0].Summary)
}

func TestDedupeEvents_PreservesFirstOccurrenceOrder(t *testing.T) {
	events := []EventProposal{
		{Name: "鸿门宴", Summary: "一"},
		{Name: ""},
		{Name: "垓下之战", Summary: "二"},
		{Name: "鸿门宴", Summary: "三"},
	}

	out := DedupeEvents(events)

	require.Len(t, out, 3)
	assert.Equal(t, "鸿门宴", out[0].Name)
	assert.Equal(t, "", out[1].Name)
	assert.Equal(t, "垓下之战", out[2].Name)
}
