// Package extract implements the chapter extraction pipeline: chunking,
// inference-service requests, canonicalization of person and place names,
// event alignment, and relationship derivation.
package extract

import (
	"context"

	"github.com/c360studio/chronicler/llm"
	"github.com/c360studio/chronicler/storage"
)

// Service is the inference capability the pipeline depends on. *llm.Client
// satisfies it; tests inject canned responses.
type Service interface {
	CompleteJSON(ctx context.Context, req llm.Request, out any) (*llm.Response, error)
}

// ActorMention is a person reference nested inside an event proposal.
// ID is empty until alignment resolves the name against the canonical map;
// an unresolved name keeps an empty ID for manual review.
type ActorMention struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	RoleType    string `json:"roleType,omitempty"`
	Description string `json:"description,omitempty"`
}

// RelationshipMention is a per-event relationship reference as returned by
// the extraction response, before derivation into standalone relations.
type RelationshipMention struct {
	SourceID    string `json:"sourceId,omitempty"`
	SourceName  string `json:"sourceName"`
	TargetID    string `json:"targetId,omitempty"`
	TargetName  string `json:"targetName"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// EventProposal is an id-less event produced by one extraction run. It is
// consumed by alignment and never mutated after the run completes; a new
// extraction produces new proposals, not edits.
type EventProposal struct {
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	TimeRangeStart string `json:"timeRangeStart,omitempty"`
	TimeRangeEnd   string `json:"timeRangeEnd,omitempty"`
	TimePrecision  string `json:"timePrecision,omitempty"`

	LocationName       string `json:"locationName,omitempty"`
	LocationModernName string `json:"locationModernName,omitempty"`
	// LocationAlias is the bracketed alias split off the raw location name,
	// e.g. "鸿门 (戏)" carries alias "戏".
	LocationAlias string `json:"locationAlias,omitempty"`
	// LocationID is filled by alignment. Empty means unresolved.
	LocationID string `json:"locationId,omitempty"`

	Summary string `json:"summary,omitempty"`
	Impact  string `json:"impact,omitempty"`

	Actors        []ActorMention        `json:"actors,omitempty"`
	Relationships []RelationshipMention `json:"relationships,omitempty"`

	RelatedParagraphs []string `json:"relatedParagraphs,omitempty"`

	// Truncated marks a name-only stub standing in for an event the model
	// reported but did not detail.
	Truncated bool `json:"truncated,omitempty"`
}

// PersonProposal is a person record proposed by extraction or completion.
// ID is assigned by the canonicalizer; year fields stay in the source's
// textual form ("前256年") until approval converts them.
type PersonProposal struct {
	ID         string `json:"id,omitempty"`
	ExistingID string `json:"existingId,omitempty"`

	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`

	Role    string `json:"role,omitempty"`
	Faction string `json:"faction,omitempty"`

	Biography string `json:"biography,omitempty"`
	BirthYear string `json:"birthYear,omitempty"`
	DeathYear string `json:"deathYear,omitempty"`

	ActivePeriodStart string `json:"activePeriodStart,omitempty"`
	ActivePeriodEnd   string `json:"activePeriodEnd,omitempty"`

	KeyEvents []string `json:"keyEvents,omitempty"`

	Truncated bool `json:"truncated,omitempty"`
}

// PlaceProposal is a place record proposed by extraction or completion.
type PlaceProposal struct {
	ID         string `json:"id,omitempty"`
	ExistingID string `json:"existingId,omitempty"`

	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`

	ModernName  string               `json:"modernName,omitempty"`
	Coordinates *storage.Coordinates `json:"coordinates,omitempty"`

	Type    string `json:"type,omitempty"`
	Faction string `json:"faction,omitempty"`

	Description string `json:"description,omitempty"`

	RelatedEvents []string `json:"relatedEvents,omitempty"`

	Truncated bool `json:"truncated,omitempty"`
}

// Relation is a standalone relationship record derived from per-event
// relationship mentions, tagged with the events it was observed in.
type Relation struct {
	SourceID   string `json:"sourceId,omitempty"`
	SourceName string `json:"sourceName"`
	TargetID   string `json:"targetId,omitempty"`
	TargetName string `json:"targetName"`

	Type        string `json:"type"`
	Description string `json:"description,omitempty"`

	RelatedEvents []string `json:"relatedEvents,omitempty"`
}

// Snapshot is the read-only view of existing canonical entities supplied by
// the caller for one extraction run. Id maps are rebuilt from it on every
// invocation; nothing is cached across runs.
type Snapshot struct {
	Persons []storage.Person
	Places  []storage.Place
}

// Meta summarizes one extraction run.
type Meta struct {
	// Chunks is the number of text windows submitted to the model.
	Chunks int `json:"chunks"`
	// TruncatedEvents lists event names the model reported past its cap.
	TruncatedEvents []string `json:"truncatedEvents,omitempty"`
	// TruncatedEntities lists entity names dropped by completion caps.
	TruncatedEntities []string `json:"truncatedEntities,omitempty"`
}

// Result is the output of one extraction run, handed to the caller to wrap
// into review items.
type Result struct {
	Events        []EventProposal  `json:"events"`
	Persons       []PersonProposal `json:"persons"`
	Places        []PlaceProposal  `json:"places"`
	Relationships []Relation       `json:"relationships"`
	Meta          Meta             `json:"meta"`
}
