package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/llm/testutil"
	"github.com/c360studio/chronicler/storage"
)

func testExtractConfig() config.Extract {
	return config.DefaultConfig().Extract
}

func TestExtractor_ExtractEvents(t *testing.T) {
	svc := &testutil.Service{Responses: []string{
		`{"events": [{"name": "鸿门宴", "type": "POLITICAL", "timeRangeStart": "-206年",
			"actors": [{"name": "刘邦", "roleType": "PROTAGONIST"}]}], "truncated": []}`,
	}}
	e := NewExtractor(svc, testExtractConfig())

	chunks := []Chunk{{Text: "沛公军霸上", ParagraphIDs: []string{"p1"}}}
	events, truncated := e.ExtractEvents(context.Background(), chunks, map[string]string{"p1": "沛公军霸上"}, Snapshot{})

	require.Len(t, events, 1)
	assert.Equal(t, "鸿门宴", events[0].Name)
	assert.Equal(t, "POLITICAL", events[0].Type)
	require.Len(t, events[0].Actors, 1)
	assert.Equal(t, "刘邦", events[0].Actors[0].Name)
	assert.Empty(t, truncated)
}

func TestExtractor_FailedChunkContributesNothing(t *testing.T) {
	svc := &testutil.Service{Responses: []string{
		"!",
		`{"events": [{"name": "垓下之战", "type": "BATTLE"}]}`,
	}}
	e := NewExtractor(svc, testExtractConfig())

	chunks := []Chunk{
		{Text: "第一段", ParagraphIDs: []string{"p1"}},
		{Text: "第二段", ParagraphIDs: []string{"p2"}},
	}
	events, _ := e.ExtractEvents(context.Background(), chunks, map[string]string{"p1": "第一段", "p2": "第二段"}, Snapshot{})

	// The failing chunk is skipped, not fatal to the run.
	require.Len(t, events, 1)
	assert.Equal(t, "垓下之战", events[0].Name)
	assert.Len(t, svc.Prompts, 2)
}

func TestExtractor_TruncatedNamesBecomeStubs(t *testing.T) {
	svc := &testutil.Service{Responses: []string{
		`{"events": [{"name": "鸿门宴"}], "truncated": ["彭城之战", "荥阳对峙"]}`,
	}}
	e := NewExtractor(svc, testExtractConfig())

	events, truncated := e.ExtractEvents(context.Background(), []Chunk{{Text: "文本"}}, nil, Snapshot{})

	assert.Equal(t, []string{"彭城之战", "荥阳对峙"}, truncated)
	require.Len(t, events, 3)
	assert.False(t, events[0].Truncated)
	assert.True(t, events[1].Truncated)
	assert.Equal(t, "彭城之战", events[1].Name)
	assert.True(t, events[2].Truncated)
	assert.Equal(t, "荥阳对峙", events[2].Name)
	assert.Empty(t, events[1].Summary)
}

func TestExtractor_PromptCarriesKnownEntitiesAndParagraphLabels(t *testing.T) {
	svc := &testutil.Service{Responses: []string{`{"events": []}`}}
	e := NewExtractor(svc, testExtractConfig())

	snap := Snapshot{
		Persons: []storage.Person{{ID: "p1", Name: "刘邦", Aliases: []string{"汉王"}}},
		Places:  []storage.Place{{ID: "pl1", Name: "鸿门"}},
	}
	chunks := []Chunk{{Text: "沛公军霸上", ParagraphIDs: []string{"p1"}}}

	e.ExtractEvents(context.Background(), chunks, map[string]string{"p1": "沛公军霸上"}, snap)

	require.Len(t, svc.Prompts, 1)
	prompt := svc.Prompts[0]
	assert.Contains(t, prompt, "刘邦 (id: p1")
	assert.Contains(t, prompt, "汉王")
	assert.Contains(t, prompt, "鸿门 (id: pl1)")
	assert.Contains(t, prompt, "[p1] 沛公军霸上")
}

func TestExtractor_KnownEntityListsAreCapped(t *testing.T) {
	svc := &testutil.Service{Responses: []string{`{"events": []}`}}
	cfg := testExtractConfig()
	cfg.MaxKnownPersons = 2
	e := NewExtractor(svc, cfg)

	snap := Snapshot{Persons: []storage.Person{
		{ID: "p1", Name: "甲"}, {ID: "p2", Name: "乙"}, {ID: "p3", Name: "丙"},
	}}

	e.ExtractEvents(context.Background(), []Chunk{{Text: "文本"}}, nil, snap)

	prompt := svc.Prompts[0]
	assert.Contains(t, prompt, "甲")
	assert.Contains(t, prompt, "乙")
	assert.NotContains(t, prompt, "丙")
}

func TestExtractor_CompleteEntities(t *testing.T) {
	svc := &testutil.Service{Responses: []string{
		`{"persons": [{"name": "刘邦", "aliases": ["汉王"], "role": "MONARCH", "faction": "HAN"}],
		  "places": [{"name": "鸿门", "modernName": "陕西省西安市临潼区"}],
		  "truncatedPersons": [], "truncatedPlaces": []}`,
	}}
	e := NewExtractor(svc, testExtractConfig())

	events := []EventProposal{{
		Name:         "鸿门宴",
		LocationName: "鸿门 (戏)",
		Actors:       []ActorMention{{Name: "刘邦"}, {Name: "刘邦"}},
	}}
	persons, places, truncated := e.CompleteEntities(context.Background(), "全文", events)

	require.Len(t, persons, 1)
	assert.Equal(t, "刘邦", persons[0].Name)
	require.Len(t, places, 1)
	assert.Equal(t, "鸿门", places[0].Name)
	assert.Empty(t, truncated)

	// Distinct names only, and the location name is cleaned before listing.
	prompt := svc.Prompts[0]
	assert.Equal(t, 1, strings.Count(prompt, "1. 刘邦"))
	assert.NotContains(t, prompt, "2. 刘邦")
	assert.Contains(t, prompt, "1. 鸿门")
	assert.NotContains(t, prompt, "1. 鸿门 (戏)")
}

func TestExtractor_CompletionFailureYieldsEmptyLists(t *testing.T) {
	svc := &testutil.Service{Responses: []string{"!"}}
	e := NewExtractor(svc, testExtractConfig())

	events := []EventProposal{{Name: "鸿门宴", Actors: []ActorMention{{Name: "刘邦"}}}}
	persons, places, _ := e.CompleteEntities(context.Background(), "全文", events)

	assert.Empty(t, persons)
	assert.Empty(t, places)
}

func TestExtractor_NoReferencedNamesSkipsCall(t *testing.T) {
	svc := &testutil.Service{}
	e := NewExtractor(svc, testExtractConfig())

	persons, places, truncated := e.CompleteEntities(context.Background(), "全文", nil)

	assert.Empty(t, persons)
	assert.Empty(t, places)
	assert.Empty(t, truncated)
	assert.Empty(t, svc.Prompts)
}

func TestExtractor_CompletionCapsEnforcedClientSide(t *testing.T) {
	svc := &testutil.Service{Responses: []string{
		`{"persons": [{"name": "甲"}, {"name": "乙"}, {"name": "丙"}], "places": []}`,
	}}
	cfg := testExtractConfig()
	cfg.MaxCompletedPersons = 2
	e := NewExtractor(svc, cfg)

	events := []EventProposal{{Name: "事件", Actors: []ActorMention{{Name: "甲"}}}}
	persons, _, truncated := e.CompleteEntities(context.Background(), "全文", events)

	require.Len(t, persons, 2)
	assert.Contains(t, truncated, "丙")
}

func TestExtractor_CompletionNameOverflowReported(t *testing.T) {
	svc := &testutil.Service{Responses: []string{`{"persons": [], "places": []}`}}
	cfg := testExtractConfig()
	cfg.MaxCompletionNames = 2
	e := NewExtractor(svc, cfg)

	events := []EventProposal{{
		Name:   "事件",
		Actors: []ActorMention{{Name: "甲"}, {Name: "乙"}, {Name: "丙"}},
	}}
	_, _, truncated := e.CompleteEntities(context.Background(), "全文", events)

	assert.Contains(t, truncated, "丙")
	assert.NotContains(t, svc.Prompts[0], "丙")
}
