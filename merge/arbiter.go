// Package merge arbitrates whether a proposed entity is the same real-world
// entity as an existing canonical record, committing a field-level merge when
// the inference service judges so with enough confidence.
package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/llm"
	"github.com/c360studio/chronicler/model"
	"github.com/c360studio/chronicler/storage"
	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// Service is the inference capability the arbiter depends on.
type Service interface {
	CompleteJSON(ctx context.Context, req llm.Request, out any) (*llm.Response, error)
}

// Outcome is the result of one arbitration. Exactly one of two things
// happened: the existing record was merged (Merged true, Person carries the
// merged record under the existing id), or the proposal stands alone (Merged
// false, Person carries a brand-new record). Data is never discarded.
type Outcome struct {
	Merged     bool
	Confidence float64
	Reason     string
	Changes    map[string]json.RawMessage
}

// PersonOutcome is the arbitration result for a person proposal.
type PersonOutcome struct {
	Outcome
	Person storage.Person
}

// PlaceOutcome is the arbitration result for a place proposal.
type PlaceOutcome struct {
	Outcome
	Place storage.Place
}

// Arbiter issues the one-call-per-candidate merge judgment.
type Arbiter struct {
	svc       Service
	threshold float64
	logger    *slog.Logger
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		a.logger = logger
	}
}

// New creates an Arbiter committing merges at or above the configured
// confidence threshold.
func New(svc Service, cfg config.Merge, opts ...Option) *Arbiter {
	a := &Arbiter{
		svc:       svc,
		threshold: cfg.ConfidenceThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// arbitration is the JSON shape every merge judgment comes back in.
type arbitration struct {
	ShouldMerge bool                       `json:"shouldMerge"`
	Confidence  float64                    `json:"confidence"`
	Reason      string                     `json:"reason"`
	MergedData  json.RawMessage            `json:"mergedData"`
	Changes     map[string]json.RawMessage `json:"changes"`
}

// personMergeData is the loosely-typed merged person record from the model,
// validated and enum-remapped before anything is committed.
type personMergeData struct {
	Name              string   `json:"name"`
	Aliases           []string `json:"aliases"`
	Role              string   `json:"role"`
	Faction           string   `json:"faction"`
	BirthYear         string   `json:"birthYear"`
	DeathYear         string   `json:"deathYear"`
	ActivePeriodStart string   `json:"activePeriodStart"`
	ActivePeriodEnd   string   `json:"activePeriodEnd"`
	Biography         string   `json:"biography"`
	KeyEvents         []string `json:"keyEvents"`
}

// placeMergeData tolerates both the nested and the flat coordinate shape.
type placeMergeData struct {
	Name           string               `json:"name"`
	Aliases        []string             `json:"aliases"`
	ModernName     string               `json:"modernName"`
	Coordinates    *storage.Coordinates `json:"coordinates"`
	CoordinatesLng *float64             `json:"coordinatesLng"`
	CoordinatesLat *float64             `json:"coordinatesLat"`
	Type           string               `json:"type"`
	Faction        string               `json:"faction"`
	Description    string               `json:"description"`
	RelatedEvents  []string             `json:"relatedEvents"`
}

// ArbitratePerson judges whether the proposal and the existing record are the
// same person. A service failure, a parse failure, or a verdict below the
// threshold all land on the conservative side: no merge, new record.
func (a *Arbiter) ArbitratePerson(ctx context.Context, existing storage.Person, proposal extract.PersonProposal) PersonOutcome {
	verdict, err := a.judge(ctx, buildPersonMergePrompt(existing, proposal))
	if err != nil {
		a.logger.Error("person arbitration failed, treating as no-merge",
			"existing", existing.ID,
			"proposal", proposal.Name,
			"error", err)
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PersonOutcome{
			Outcome: Outcome{Reason: "arbitration call failed"},
			Person:  NewPersonRecord(proposal),
		}
	}

	if !a.commits(verdict) {
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PersonOutcome{
			Outcome: Outcome{Confidence: verdict.Confidence, Reason: verdict.Reason},
			Person:  NewPersonRecord(proposal),
		}
	}

	var data personMergeData
	if err := json.Unmarshal(verdict.MergedData, &data); err != nil {
		a.logger.Error("merged person data unparseable, treating as no-merge",
			"existing", existing.ID,
			"error", err)
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PersonOutcome{
			Outcome: Outcome{Confidence: verdict.Confidence, Reason: "merged data unparseable"},
			Person:  NewPersonRecord(proposal),
		}
	}

	mergeDecisions.WithLabelValues("committed").Inc()

	merged := existing
	if data.Name != "" {
		merged.Name = data.Name
	}
	merged.Aliases = data.Aliases
	merged.Role = chronicle.MapRole(data.Role)
	merged.Faction = chronicle.MapFaction(data.Faction)
	if y := extract.ParseYear(data.BirthYear); y != nil {
		merged.BirthYear = y
	}
	if y := extract.ParseYear(data.DeathYear); y != nil {
		merged.DeathYear = y
	}
	if y := extract.ParseYear(data.ActivePeriodStart); y != nil {
		merged.ActiveFrom = y
	}
	if y := extract.ParseYear(data.ActivePeriodEnd); y != nil {
		merged.ActiveTo = y
	}
	if data.Biography != "" {
		merged.Biography = data.Biography
	}
	merged.KeyEvents = unionStrings(existing.KeyEvents, data.KeyEvents)
	merged.Truncated = false

	return PersonOutcome{
		Outcome: Outcome{
			Merged:     true,
			Confidence: verdict.Confidence,
			Reason:     verdict.Reason,
			Changes:    verdict.Changes,
		},
		Person: merged,
	}
}

// ArbitratePlace judges whether the proposal and the existing record are the
// same place, with the same conservative fallback as persons.
func (a *Arbiter) ArbitratePlace(ctx context.Context, existing storage.Place, proposal extract.PlaceProposal) PlaceOutcome {
	verdict, err := a.judge(ctx, buildPlaceMergePrompt(existing, proposal))
	if err != nil {
		a.logger.Error("place arbitration failed, treating as no-merge",
			"existing", existing.ID,
			"proposal", proposal.Name,
			"error", err)
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PlaceOutcome{
			Outcome: Outcome{Reason: "arbitration call failed"},
			Place:   NewPlaceRecord(proposal),
		}
	}

	if !a.commits(verdict) {
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PlaceOutcome{
			Outcome: Outcome{Confidence: verdict.Confidence, Reason: verdict.Reason},
			Place:   NewPlaceRecord(proposal),
		}
	}

	var data placeMergeData
	if err := json.Unmarshal(verdict.MergedData, &data); err != nil {
		a.logger.Error("merged place data unparseable, treating as no-merge",
			"existing", existing.ID,
			"error", err)
		mergeDecisions.WithLabelValues("rejected").Inc()
		return PlaceOutcome{
			Outcome: Outcome{Confidence: verdict.Confidence, Reason: "merged data unparseable"},
			Place:   NewPlaceRecord(proposal),
		}
	}

	mergeDecisions.WithLabelValues("committed").Inc()

	merged := existing
	if data.Name != "" {
		merged.Name = data.Name
	}
	merged.Aliases = data.Aliases
	if data.ModernName != "" {
		merged.ModernName = data.ModernName
	}
	if coords := normalizeCoordinates(data); coords != nil {
		merged.Coordinates = coords
	}
	merged.Type = chronicle.MapPlaceType(data.Type)
	merged.Faction = chronicle.MapFaction(data.Faction)
	if data.Description != "" {
		merged.Description = data.Description
	}
	merged.RelatedEvents = unionStrings(existing.RelatedEvents, data.RelatedEvents)
	merged.Truncated = false

	return PlaceOutcome{
		Outcome: Outcome{
			Merged:     true,
			Confidence: verdict.Confidence,
			Reason:     verdict.Reason,
			Changes:    verdict.Changes,
		},
		Place: merged,
	}
}

// judge issues the single arbitration call.
func (a *Arbiter) judge(ctx context.Context, prompt string) (*arbitration, error) {
	temp := 0.3
	req := llm.Request{
		Capability: model.CapabilityArbitration.String(),
		Messages: []llm.Message{
			{Role: "system", Content: mergeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
	}

	var verdict arbitration
	if _, err := a.svc.CompleteJSON(ctx, req, &verdict); err != nil {
		return nil, fmt.Errorf("arbitration call: %w", err)
	}
	return &verdict, nil
}

// commits applies the gate: merge only on an affirmative verdict at or above
// the confidence threshold. 0.69 does not commit; 0.70 does.
func (a *Arbiter) commits(verdict *arbitration) bool {
	return verdict.ShouldMerge && verdict.Confidence >= a.threshold
}

// NewPersonRecord converts a proposal into a brand-new canonical person
// record, remapping free-text categories onto the closed enums.
func NewPersonRecord(p extract.PersonProposal) storage.Person {
	return storage.Person{
		ID:         p.ID,
		Name:       strings.TrimSpace(p.Name),
		Aliases:    p.Aliases,
		Role:       chronicle.MapRole(p.Role),
		Faction:    chronicle.MapFaction(p.Faction),
		BirthYear:  extract.ParseYear(p.BirthYear),
		DeathYear:  extract.ParseYear(p.DeathYear),
		ActiveFrom: extract.ParseYear(p.ActivePeriodStart),
		ActiveTo:   extract.ParseYear(p.ActivePeriodEnd),
		Biography:  p.Biography,
		KeyEvents:  p.KeyEvents,
		Truncated:  p.Truncated,
	}
}

// NewPlaceRecord converts a proposal into a brand-new canonical place record.
func NewPlaceRecord(p extract.PlaceProposal) storage.Place {
	return storage.Place{
		ID:            p.ID,
		Name:          strings.TrimSpace(p.Name),
		Aliases:       p.Aliases,
		ModernName:    p.ModernName,
		Coordinates:   p.Coordinates,
		Type:          chronicle.MapPlaceType(p.Type),
		Faction:       chronicle.MapFaction(p.Faction),
		Description:   p.Description,
		RelatedEvents: p.RelatedEvents,
		Truncated:     p.Truncated,
	}
}

// unionStrings merges two name lists preserving encounter order, dropping
// blanks and duplicates. A merge never loses an already-recorded name even
// when the model returns a shorter list.
func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, s := range append(append([]string(nil), existing...), incoming...) {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

// normalizeCoordinates accepts either the nested coordinates object or the
// flat lng/lat pair some responses use.
func normalizeCoordinates(data placeMergeData) *storage.Coordinates {
	if data.Coordinates != nil {
		return data.Coordinates
	}
	if data.CoordinatesLng != nil && data.CoordinatesLat != nil {
		return &storage.Coordinates{Lng: *data.CoordinatesLng, Lat: *data.CoordinatesLat}
	}
	return nil
}
