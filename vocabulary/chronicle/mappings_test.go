package chronicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapRole(t *testing.T) {
	tests := []struct {
		input string
		want  PersonRole
	}{
		{"MONARCH", RoleMonarch},
		{"EMPEROR", RoleMonarch},
		{"empress", RoleMonarch},
		{"KING", RoleMonarch},
		{"WARLORD", RoleGeneral},
		{"MINISTER", RoleAdvisor},
		{"SCHOLAR", RoleCivilOfficial},
		{"  general  ", RoleGeneral},
		{"EUNUCH", RoleEunuch},
		{"", RoleOther},
		{"SORCERER", RoleOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MapRole(tt.input))
		})
	}
}

func TestMapFaction(t *testing.T) {
	tests := []struct {
		input string
		want  Faction
	}{
		{"HAN", FactionHan},
		{"han", FactionHan},
		{"汉", FactionHan},
		{"楚", FactionChu},
		{"张楚", FactionChu},
		{"CHU", FactionChu},
		{"NEUTRAL", FactionNeutral},
		{"", FactionOther},
		{"秦", FactionOther},
		{"赵", FactionOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFaction(tt.input))
		})
	}
}

func TestMapPlaceType(t *testing.T) {
	tests := []struct {
		input string
		want  PlaceType
	}{
		{"CITY", PlaceCity},
		{"city", PlaceCity},
		{"TOWN", PlaceCity},
		{"城池", PlaceCity},
		{"BATTLEFIELD", PlaceBattlefield},
		{"战场", PlaceBattlefield},
		{"RIVER", PlaceRiver},
		{"河流", PlaceRiver},
		{"MOUNTAIN", PlaceMountain},
		{"山", PlaceMountain},
		{"REGION", PlaceRegion},
		{"地区", PlaceRegion},
		{"", PlaceOther},
		{"仙境", PlaceOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPlaceType(tt.input))
		})
	}
}

func TestMapEventType(t *testing.T) {
	tests := []struct {
		input string
		want  EventType
	}{
		{"BATTLE", EventBattle},
		{"WAR", EventBattle},
		{"military", EventBattle},
		{"POLITICS", EventPolitical},
		{"POLITICAL", EventPolitical},
		{"PERSONAL", EventPersonal},
		{"", EventOther},
		{"CEREMONY", EventOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MapEventType(tt.input))
		})
	}
}

func TestMapTimePrecision_DefaultsToYear(t *testing.T) {
	assert.Equal(t, PrecisionYear, MapTimePrecision(""))
	assert.Equal(t, PrecisionYear, MapTimePrecision("FORTNIGHT"))
	assert.Equal(t, PrecisionSeason, MapTimePrecision("season"))
	assert.Equal(t, PrecisionExactDate, MapTimePrecision("EXACT_DATE"))
}

func TestMapActorRole(t *testing.T) {
	assert.Equal(t, ActorProtagonist, MapActorRole("protagonist"))
	assert.Equal(t, ActorExecutor, MapActorRole("EXECUTOR"))
	assert.Equal(t, ActorOther, MapActorRole("BYSTANDER"))
	assert.Equal(t, ActorOther, MapActorRole(""))
}

func TestReviewStatus_IsTerminal(t *testing.T) {
	assert.True(t, ReviewApproved.IsTerminal())
	assert.True(t, ReviewRejected.IsTerminal())
	assert.False(t, ReviewPending.IsTerminal())
	assert.False(t, ReviewModified.IsTerminal())
}
