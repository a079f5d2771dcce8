// Package storage provides chronicle record storage backed by NATS JetStream KV.
package storage

import (
	"time"

	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// Person is a canonical person record.
type Person struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`

	Role    chronicle.PersonRole `json:"role,omitempty"`
	Faction chronicle.Faction    `json:"faction,omitempty"`

	BirthYear *int `json:"birthYear,omitempty"`
	DeathYear *int `json:"deathYear,omitempty"`

	// ActiveFrom/ActiveTo bound the years a person appears in the narrative
	// when birth and death are unknown.
	ActiveFrom *int `json:"activeFrom,omitempty"`
	ActiveTo   *int `json:"activeTo,omitempty"`

	Biography string `json:"biography,omitempty"`

	// KeyEvents names the events this person is known for, deduplicated
	// and unioned across merges.
	KeyEvents []string `json:"keyEvents,omitempty"`

	// Truncated marks a name-only stub created because the extraction
	// response listed the name without returning a full record.
	Truncated bool `json:"truncated,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Coordinates is a geographic point attached to a place.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a canonical place record.
type Place struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`

	// ModernName is the present-day name of the historical location.
	ModernName  string       `json:"modernName,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	Type    chronicle.PlaceType `json:"type,omitempty"`
	Faction chronicle.Faction   `json:"faction,omitempty"`

	Description string `json:"description,omitempty"`

	// RelatedEvents names the events that took place here.
	RelatedEvents []string `json:"relatedEvents,omitempty"`

	Truncated bool `json:"truncated,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EventActor links a person to an event with the role they played in it.
type EventActor struct {
	PersonID string              `json:"personId"`
	Name     string              `json:"name"`
	Role     chronicle.ActorRole `json:"role,omitempty"`
	// Action is a short free-text description of what the actor did.
	Action string `json:"action,omitempty"`
}

// EventLocation is the location reference as extracted, kept alongside the
// resolved canonical id.
type EventLocation struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Event is a canonical event record.
type Event struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Type    chronicle.EventType `json:"type,omitempty"`
	Summary string              `json:"summary,omitempty"`
	Impact  string              `json:"impact,omitempty"`

	// Date is the date expression as written in the source text.
	Date string `json:"date,omitempty"`
	// DateKey is the sortable numeric key parsed from Date. BCE years are
	// negative. Zero means unparsed.
	DateKey   float64                 `json:"dateKey,omitempty"`
	Precision chronicle.TimePrecision `json:"precision,omitempty"`

	LocationID string         `json:"locationId,omitempty"`
	Location   *EventLocation `json:"location,omitempty"`

	Actors []EventActor `json:"actors,omitempty"`

	ChapterID         string   `json:"chapterId,omitempty"`
	RelatedParagraphs []string `json:"relatedParagraphs,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Relationship is a derived relation between two persons.
type Relationship struct {
	ID         string `json:"id"`
	SourceID   string `json:"sourceId,omitempty"`
	SourceName string `json:"sourceName"`
	TargetID   string `json:"targetId,omitempty"`
	TargetName string `json:"targetName"`

	Type        string `json:"type"`
	Description string `json:"description,omitempty"`

	// RelatedEvents names the events this relationship was observed in.
	RelatedEvents []string `json:"relatedEvents,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
