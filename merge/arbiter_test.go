package merge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/llm/testutil"
	"github.com/c360studio/chronicler/storage"
	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

func testArbiter(responses ...string) (*Arbiter, *testutil.Service) {
	svc := &testutil.Service{Responses: responses}
	return New(svc, config.DefaultConfig().Merge), svc
}

func existingLiuBang() storage.Person {
	birth := -256
	return storage.Person{
		ID:        "liu-bang",
		Name:      "刘邦",
		Aliases:   []string{"沛公"},
		Role:      chronicle.RoleMonarch,
		Faction:   chronicle.FactionHan,
		BirthYear: &birth,
		Biography: "汉朝开国皇帝",
		KeyEvents: []string{"沛县起义"},
	}
}

func proposalHanWang() extract.PersonProposal {
	return extract.PersonProposal{
		ID:      "han-wang",
		Name:    "汉王",
		Aliases: []string{"刘季"},
		Role:    "KING",
		Faction: "汉",
	}
}

func verdictJSON(shouldMerge bool, confidence float64) string {
	return fmt.Sprintf(`{
		"shouldMerge": %t,
		"confidence": %g,
		"reason": "称号与阵营一致",
		"mergedData": {
			"name": "刘邦",
			"aliases": ["沛公", "汉王", "刘季"],
			"role": "MONARCH",
			"faction": "汉",
			"birthYear": "前256年",
			"deathYear": "前195年",
			"biography": "汉朝开国皇帝，曾号汉王",
			"keyEvents": ["沛县起义", "鸿门宴"]
		},
		"changes": {"aliases": "新增 汉王、刘季"}
	}`, shouldMerge, confidence)
}

func TestArbitratePerson_CommitsAtThreshold(t *testing.T) {
	a, _ := testArbiter(verdictJSON(true, 0.70))

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	require.True(t, out.Merged)
	assert.Equal(t, 0.70, out.Confidence)
	assert.Equal(t, "liu-bang", out.Person.ID)
	assert.Equal(t, "刘邦", out.Person.Name)
	assert.ElementsMatch(t, []string{"沛公", "汉王", "刘季"}, out.Person.Aliases)
	require.NotNil(t, out.Person.DeathYear)
	assert.Equal(t, -195, *out.Person.DeathYear)
	assert.Equal(t, "汉朝开国皇帝，曾号汉王", out.Person.Biography)
	assert.Equal(t, []string{"沛县起义", "鸿门宴"}, out.Person.KeyEvents)
}

func TestArbitratePerson_KeyEventsNeverLost(t *testing.T) {
	// A verdict that omits keyEvents keeps the already-recorded list.
	a, _ := testArbiter(`{"shouldMerge": true, "confidence": 0.9, "reason": "同一人",
		"mergedData": {"name": "刘邦"}, "changes": {}}`)

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	require.True(t, out.Merged)
	assert.Equal(t, []string{"沛县起义"}, out.Person.KeyEvents)
}

func TestArbitratePerson_RejectsBelowThreshold(t *testing.T) {
	a, _ := testArbiter(verdictJSON(true, 0.69))

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	assert.False(t, out.Merged)
	assert.Equal(t, 0.69, out.Confidence)
	// The proposal becomes its own record instead.
	assert.Equal(t, "han-wang", out.Person.ID)
	assert.Equal(t, "汉王", out.Person.Name)
}

func TestArbitratePerson_RejectsNegativeVerdict(t *testing.T) {
	a, _ := testArbiter(`{"shouldMerge": false, "confidence": 0.95,
		"reason": "生卒年矛盾", "mergedData": {}, "changes": {}}`)

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	assert.False(t, out.Merged)
	assert.Equal(t, "生卒年矛盾", out.Reason)
	assert.Equal(t, "han-wang", out.Person.ID)
}

func TestArbitratePerson_EnumRemapFromMergedData(t *testing.T) {
	// Free-text role and faction strings in mergedData land on the closed
	// enums, not the raw proposal strings.
	a, _ := testArbiter(`{"shouldMerge": true, "confidence": 0.9, "reason": "同一人",
		"mergedData": {"name": "刘邦", "role": "皇帝", "faction": "汉"}, "changes": {}}`)

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	require.True(t, out.Merged)
	assert.Equal(t, chronicle.RoleMonarch, out.Person.Role)
	assert.Equal(t, chronicle.FactionHan, out.Person.Faction)
}

func TestArbitratePerson_UnknownEnumDefaultsToOther(t *testing.T) {
	a, _ := testArbiter(`{"shouldMerge": true, "confidence": 0.9, "reason": "同一人",
		"mergedData": {"name": "刘邦", "role": "门客", "faction": "魏"}, "changes": {}}`)

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	require.True(t, out.Merged)
	assert.Equal(t, chronicle.RoleOther, out.Person.Role)
	assert.Equal(t, chronicle.FactionOther, out.Person.Faction)
}

func TestArbitratePerson_ServiceFailureIsNoMerge(t *testing.T) {
	a, _ := testArbiter("!")

	out := a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	assert.False(t, out.Merged)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, "han-wang", out.Person.ID)
	assert.Equal(t, chronicle.FactionHan, out.Person.Faction)
	assert.Equal(t, chronicle.RoleOther, out.Person.Role)
}

func TestArbitratePerson_PromptCarriesBothRecords(t *testing.T) {
	a, svc := testArbiter(verdictJSON(false, 0.2))

	a.ArbitratePerson(context.Background(), existingLiuBang(), proposalHanWang())

	require.Len(t, svc.Prompts, 1)
	assert.Contains(t, svc.Prompts[0], "已有记录")
	assert.Contains(t, svc.Prompts[0], "新记录")
	assert.Contains(t, svc.Prompts[0], "刘邦")
	assert.Contains(t, svc.Prompts[0], "汉王")
}

func TestArbitratePlace_CommitAndCoordinateShapes(t *testing.T) {
	existing := storage.Place{ID: "hongmen", Name: "鸿门", Aliases: []string{"戏"}}
	proposal := extract.PlaceProposal{ID: "hong-men-2", Name: "鸿门", ModernName: "陕西临潼"}

	// Nested coordinate object.
	a, _ := testArbiter(`{"shouldMerge": true, "confidence": 0.85, "reason": "同一地点",
		"mergedData": {"name": "鸿门", "aliases": ["戏"], "modernName": "陕西临潼",
			"coordinates": {"lng": 109.27, "lat": 34.38}, "type": "战场", "faction": "楚",
			"description": "鸿门宴故地", "relatedEvents": ["鸿门宴"]},
		"changes": {}}`)
	out := a.ArbitratePlace(context.Background(), existing, proposal)
	require.True(t, out.Merged)
	assert.Equal(t, "hongmen", out.Place.ID)
	require.NotNil(t, out.Place.Coordinates)
	assert.Equal(t, 109.27, out.Place.Coordinates.Lng)
	assert.Equal(t, chronicle.PlaceBattlefield, out.Place.Type)
	assert.Equal(t, chronicle.FactionChu, out.Place.Faction)
	assert.Equal(t, []string{"鸿门宴"}, out.Place.RelatedEvents)

	// Flat lng/lat pair normalizes to the same shape.
	a, _ = testArbiter(`{"shouldMerge": true, "confidence": 0.85, "reason": "同一地点",
		"mergedData": {"name": "鸿门", "coordinatesLng": 109.27, "coordinatesLat": 34.38},
		"changes": {}}`)
	out = a.ArbitratePlace(context.Background(), existing, proposal)
	require.True(t, out.Merged)
	require.NotNil(t, out.Place.Coordinates)
	assert.Equal(t, 34.38, out.Place.Coordinates.Lat)
}

func TestArbitratePlace_FailureCreatesNewRecord(t *testing.T) {
	a, _ := testArbiter("!")

	out := a.ArbitratePlace(context.Background(), storage.Place{ID: "hongmen", Name: "鸿门"},
		extract.PlaceProposal{ID: "xi", Name: "戏", ModernName: "陕西临潼"})

	assert.False(t, out.Merged)
	assert.Equal(t, "xi", out.Place.ID)
	assert.Equal(t, "陕西临潼", out.Place.ModernName)
}

func TestNewPersonRecord_MapsProposal(t *testing.T) {
	p := extract.PersonProposal{
		ID:        "fan-zeng",
		Name:      " 范增 ",
		Role:      "谋士",
		Faction:   "楚",
		BirthYear: "前277年",
		Truncated: true,
	}

	rec := NewPersonRecord(p)

	assert.Equal(t, "范增", rec.Name)
	assert.Equal(t, chronicle.RoleAdvisor, rec.Role)
	assert.Equal(t, chronicle.FactionChu, rec.Faction)
	require.NotNil(t, rec.BirthYear)
	assert.Equal(t, -277, *rec.BirthYear)
	assert.True(t, rec.Truncated)
}

func TestNewPlaceRecord_MapsProposal(t *testing.T) {
	p := extract.PlaceProposal{
		ID:            "pengcheng",
		Name:          "彭城",
		ModernName:    "江苏徐州",
		Type:          "城池",
		Faction:       "楚",
		RelatedEvents: []string{"彭城之战"},
	}

	rec := NewPlaceRecord(p)

	assert.Equal(t, chronicle.PlaceCity, rec.Type)
	assert.Equal(t, chronicle.FactionChu, rec.Faction)
	assert.Equal(t, []string{"彭城之战"}, rec.RelatedEvents)

	// Unrecognized type strings land on the catch-all.
	rec = NewPlaceRecord(extract.PlaceProposal{ID: "x", Name: "仙岛", Type: "仙境"})
	assert.Equal(t, chronicle.PlaceOther, rec.Type)
}
