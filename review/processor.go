// Package review commits approved proposals into canonical storage. Items
// are processed strictly one at a time; the sequential walk is what keeps
// duplicate matching and merge arbitration safe without locking.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/chronicler/changelog"
	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/match"
	"github.com/c360studio/chronicler/merge"
	"github.com/c360studio/chronicler/storage"
	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// Store is the slice of the storage layer the processor needs.
// *storage.Store satisfies it.
type Store interface {
	GetReviewItem(ctx context.Context, id string) (*storage.ReviewItem, error)
	ListReviewItems(ctx context.Context, status chronicle.ReviewStatus) ([]*storage.ReviewItem, error)
	ModifyReviewItem(ctx context.Context, id string, data json.RawMessage, notes string) error
	ResolveReviewItem(ctx context.Context, id string, status chronicle.ReviewStatus, notes string) error

	GetPerson(ctx context.Context, id string) (*storage.Person, error)
	PutPerson(ctx context.Context, p *storage.Person) error
	ListPersons(ctx context.Context) ([]*storage.Person, error)

	GetPlace(ctx context.Context, id string) (*storage.Place, error)
	PutPlace(ctx context.Context, p *storage.Place) error
	ListPlaces(ctx context.Context) ([]*storage.Place, error)

	PutEvent(ctx context.Context, e *storage.Event) error
	PutRelationship(ctx context.Context, r *storage.Relationship) error
}

// Processor walks approved proposals through duplicate matching, merge
// arbitration, change logging, and the canonical store.
type Processor struct {
	store      Store
	matcher    *match.Matcher
	arbiter    *merge.Arbiter
	recorder   *changelog.Recorder
	sampleSize int
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// New creates a Processor.
func New(store Store, matcher *match.Matcher, arbiter *merge.Arbiter, recorder *changelog.Recorder, cfg config.Review, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		matcher:    matcher,
		arbiter:    arbiter,
		recorder:   recorder,
		sampleSize: cfg.ErrorSampleSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BatchResult summarizes one batch run. Errors holds at most the configured
// sample of per-item failures; Failed counts all of them.
type BatchResult struct {
	Processed int
	Succeeded int
	Failed    int
	Errors    []string
}

// ApproveAll commits every open review item in creation order, pending and
// reviewer-modified alike. A failing item is counted and skipped; it never
// stops the batch.
func (p *Processor) ApproveAll(ctx context.Context) (*BatchResult, error) {
	all, err := p.store.ListReviewItems(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	items := make([]*storage.ReviewItem, 0, len(all))
	for _, item := range all {
		if !item.Status.IsTerminal() {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	result := &BatchResult{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++
		if err := p.commit(ctx, item); err != nil {
			result.Failed++
			if len(result.Errors) < p.sampleSize {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.ID, err))
			}
			p.logger.Error("review item failed", "item", item.ID, "type", item.Type, "error", err)
			continue
		}
		result.Succeeded++
	}

	p.logger.Info("review batch complete",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed)
	return result, nil
}

// Approve commits a single pending review item by id.
func (p *Processor) Approve(ctx context.Context, id string) error {
	item, err := p.store.GetReviewItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		return fmt.Errorf("review item %s already resolved as %s", id, item.Status)
	}
	return p.commit(ctx, item)
}

// Modify replaces an open item's payload with a reviewer edit and marks the
// item modified. Approval then commits the edited payload instead of the
// extracted one.
func (p *Processor) Modify(ctx context.Context, id string, data json.RawMessage, notes string) error {
	item, err := p.store.GetReviewItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		return fmt.Errorf("review item %s already resolved as %s", id, item.Status)
	}
	return p.store.ModifyReviewItem(ctx, id, data, notes)
}

// Reject marks an open review item rejected without touching storage.
// A resolved item stays resolved; rejecting it again is an error.
func (p *Processor) Reject(ctx context.Context, id, notes string) error {
	item, err := p.store.GetReviewItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		return fmt.Errorf("review item %s already resolved as %s", id, item.Status)
	}
	return p.store.ResolveReviewItem(ctx, id, chronicle.ReviewRejected, notes)
}

// commit dispatches one item to its type-specific path and resolves it
// approved on success.
func (p *Processor) commit(ctx context.Context, item *storage.ReviewItem) error {
	var err error
	var notes string

	switch item.Type {
	case chronicle.ReviewTypePerson:
		notes, err = p.commitPerson(ctx, item)
	case chronicle.ReviewTypePlace:
		notes, err = p.commitPlace(ctx, item)
	case chronicle.ReviewTypeEvent:
		notes, err = p.commitEvent(ctx, item)
	case chronicle.ReviewTypeRelationship:
		notes, err = p.commitRelationship(ctx, item)
	default:
		err = fmt.Errorf("unknown review type %q", item.Type)
	}
	if err != nil {
		return err
	}

	return p.store.ResolveReviewItem(ctx, item.ID, chronicle.ReviewApproved, notes)
}

// payload returns the record to commit: the reviewer's edit when one exists,
// the extracted original otherwise.
func payload(item *storage.ReviewItem) json.RawMessage {
	if len(item.ModifiedData) > 0 {
		return item.ModifiedData
	}
	return item.OriginalData
}

func (p *Processor) commitPerson(ctx context.Context, item *storage.ReviewItem) (string, error) {
	var proposal extract.PersonProposal
	if err := json.Unmarshal(payload(item), &proposal); err != nil {
		return "", fmt.Errorf("decode person proposal: %w", err)
	}

	// A proposal already resolved to a canonical id updates that record
	// directly; matching and arbitration are for the unresolved rest.
	if existing := p.resolvedPerson(ctx, proposal); existing != nil {
		return p.updatePerson(ctx, item, existing, proposal)
	}

	candidates, err := p.store.ListPersons(ctx)
	if err != nil {
		return "", fmt.Errorf("list persons: %w", err)
	}
	pool := make([]storage.Person, 0, len(candidates))
	for _, c := range candidates {
		pool = append(pool, *c)
	}

	best := p.matcher.Best(proposal, pool)
	if best == nil {
		return p.createPerson(ctx, item, merge.NewPersonRecord(proposal))
	}

	outcome := p.arbiter.ArbitratePerson(ctx, best.Person, proposal)
	if !outcome.Merged {
		return p.createPerson(ctx, item, outcome.Person)
	}

	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPerson,
		EntityID:   outcome.Person.ID,
		Action:     chronicle.ActionMerge,
		Previous:   best.Person,
		Current:    outcome.Person,
		MergedFrom: []string{proposal.ID},
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPerson(ctx, &outcome.Person); err != nil {
		return "", err
	}
	return fmt.Sprintf("merged into %s (confidence %.2f): %s", outcome.Person.ID, outcome.Confidence, outcome.Reason), nil
}

// resolvedPerson returns the canonical record a proposal already points at,
// or nil.
func (p *Processor) resolvedPerson(ctx context.Context, proposal extract.PersonProposal) *storage.Person {
	for _, id := range []string{proposal.ExistingID, proposal.ID} {
		if id == "" {
			continue
		}
		if existing, err := p.store.GetPerson(ctx, id); err == nil {
			return existing
		}
	}
	return nil
}

// updatePerson fills the canonical record's empty fields from the proposal
// and unions aliases. Existing values always win.
func (p *Processor) updatePerson(ctx context.Context, item *storage.ReviewItem, existing *storage.Person, proposal extract.PersonProposal) (string, error) {
	updated := *existing
	updated.Aliases = unionStrings(existing.Aliases, proposal.Aliases, existing.Name)
	if updated.Role == "" || updated.Role == chronicle.RoleOther {
		if role := chronicle.MapRole(proposal.Role); role != chronicle.RoleOther {
			updated.Role = role
		}
	}
	if updated.Faction == "" || updated.Faction == chronicle.FactionOther {
		if faction := chronicle.MapFaction(proposal.Faction); faction != chronicle.FactionOther {
			updated.Faction = faction
		}
	}
	if updated.BirthYear == nil {
		updated.BirthYear = extract.ParseYear(proposal.BirthYear)
	}
	if updated.DeathYear == nil {
		updated.DeathYear = extract.ParseYear(proposal.DeathYear)
	}
	if updated.ActiveFrom == nil {
		updated.ActiveFrom = extract.ParseYear(proposal.ActivePeriodStart)
	}
	if updated.ActiveTo == nil {
		updated.ActiveTo = extract.ParseYear(proposal.ActivePeriodEnd)
	}
	if updated.Biography == "" {
		updated.Biography = proposal.Biography
	}
	updated.KeyEvents = unionStrings(existing.KeyEvents, proposal.KeyEvents, "")
	if !proposal.Truncated {
		updated.Truncated = false
	}

	if sameRecord(existing, updated) {
		return fmt.Sprintf("no change to %s", existing.ID), nil
	}

	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPerson,
		EntityID:   existing.ID,
		Action:     chronicle.ActionUpdate,
		Previous:   *existing,
		Current:    updated,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPerson(ctx, &updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s", existing.ID), nil
}

func (p *Processor) createPerson(ctx context.Context, item *storage.ReviewItem, person storage.Person) (string, error) {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPerson,
		EntityID:   person.ID,
		Action:     chronicle.ActionCreate,
		Current:    person,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPerson(ctx, &person); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s", person.ID), nil
}

func (p *Processor) commitPlace(ctx context.Context, item *storage.ReviewItem) (string, error) {
	var proposal extract.PlaceProposal
	if err := json.Unmarshal(payload(item), &proposal); err != nil {
		return "", fmt.Errorf("decode place proposal: %w", err)
	}

	if existing := p.resolvedPlace(ctx, proposal); existing != nil {
		return p.updatePlace(ctx, item, existing, proposal)
	}

	candidate, err := p.placeCandidate(ctx, proposal)
	if err != nil {
		return "", err
	}
	if candidate == nil {
		return p.createPlace(ctx, item, merge.NewPlaceRecord(proposal))
	}

	outcome := p.arbiter.ArbitratePlace(ctx, *candidate, proposal)
	if !outcome.Merged {
		return p.createPlace(ctx, item, outcome.Place)
	}

	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPlace,
		EntityID:   outcome.Place.ID,
		Action:     chronicle.ActionMerge,
		Previous:   *candidate,
		Current:    outcome.Place,
		MergedFrom: []string{proposal.ID},
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPlace(ctx, &outcome.Place); err != nil {
		return "", err
	}
	return fmt.Sprintf("merged into %s (confidence %.2f): %s", outcome.Place.ID, outcome.Confidence, outcome.Reason), nil
}

func (p *Processor) resolvedPlace(ctx context.Context, proposal extract.PlaceProposal) *storage.Place {
	for _, id := range []string{proposal.ExistingID, proposal.ID} {
		if id == "" {
			continue
		}
		if existing, err := p.store.GetPlace(ctx, id); err == nil {
			return existing
		}
	}
	return nil
}

// placeCandidate finds an existing place sharing the proposal's cleaned
// name or any alias.
func (p *Processor) placeCandidate(ctx context.Context, proposal extract.PlaceProposal) (*storage.Place, error) {
	places, err := p.store.ListPlaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	names := map[string]bool{normalize(extract.CleanLocationName(proposal.Name)): true}
	for _, alias := range proposal.Aliases {
		names[normalize(alias)] = true
	}
	if alias := extract.LocationAlias(proposal.Name); alias != "" {
		names[normalize(alias)] = true
	}
	delete(names, "")

	for _, place := range places {
		if names[normalize(place.Name)] {
			return place, nil
		}
		for _, alias := range place.Aliases {
			if names[normalize(alias)] {
				return place, nil
			}
		}
	}
	return nil, nil
}

func (p *Processor) updatePlace(ctx context.Context, item *storage.ReviewItem, existing *storage.Place, proposal extract.PlaceProposal) (string, error) {
	updated := *existing
	updated.Aliases = unionStrings(existing.Aliases, proposal.Aliases, existing.Name)
	if updated.ModernName == "" {
		updated.ModernName = proposal.ModernName
	}
	if updated.Coordinates == nil {
		updated.Coordinates = proposal.Coordinates
	}
	if updated.Type == "" || updated.Type == chronicle.PlaceOther {
		if t := chronicle.MapPlaceType(proposal.Type); t != chronicle.PlaceOther {
			updated.Type = t
		}
	}
	if updated.Faction == "" || updated.Faction == chronicle.FactionOther {
		if faction := chronicle.MapFaction(proposal.Faction); faction != chronicle.FactionOther {
			updated.Faction = faction
		}
	}
	if updated.Description == "" {
		updated.Description = proposal.Description
	}
	updated.RelatedEvents = unionStrings(existing.RelatedEvents, proposal.RelatedEvents, "")
	if !proposal.Truncated {
		updated.Truncated = false
	}

	if sameRecord(existing, updated) {
		return fmt.Sprintf("no change to %s", existing.ID), nil
	}

	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPlace,
		EntityID:   existing.ID,
		Action:     chronicle.ActionUpdate,
		Previous:   *existing,
		Current:    updated,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPlace(ctx, &updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s", existing.ID), nil
}

func (p *Processor) createPlace(ctx context.Context, item *storage.ReviewItem, place storage.Place) (string, error) {
	if place.ID == "" {
		place.ID = uuid.New().String()
	}
	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityPlace,
		EntityID:   place.ID,
		Action:     chronicle.ActionCreate,
		Current:    place,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutPlace(ctx, &place); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s", place.ID), nil
}

func (p *Processor) commitEvent(ctx context.Context, item *storage.ReviewItem) (string, error) {
	var proposal extract.EventProposal
	if err := json.Unmarshal(payload(item), &proposal); err != nil {
		return "", fmt.Errorf("decode event proposal: %w", err)
	}
	if strings.TrimSpace(proposal.Name) == "" {
		return "", fmt.Errorf("event proposal has no name")
	}

	event := EventRecord(proposal, item.ChapterID)
	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityEvent,
		EntityID:   event.ID,
		Action:     chronicle.ActionCreate,
		Current:    event,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutEvent(ctx, &event); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s", event.ID), nil
}

func (p *Processor) commitRelationship(ctx context.Context, item *storage.ReviewItem) (string, error) {
	var proposal extract.Relation
	if err := json.Unmarshal(payload(item), &proposal); err != nil {
		return "", fmt.Errorf("decode relationship proposal: %w", err)
	}

	rel := storage.Relationship{
		ID:            uuid.New().String(),
		SourceID:      proposal.SourceID,
		SourceName:    proposal.SourceName,
		TargetID:      proposal.TargetID,
		TargetName:    proposal.TargetName,
		Type:          proposal.Type,
		Description:   proposal.Description,
		RelatedEvents: proposal.RelatedEvents,
	}
	if _, err := p.recorder.Record(ctx, changelog.Mutation{
		EntityType: chronicle.EntityRelationship,
		EntityID:   rel.ID,
		Action:     chronicle.ActionCreate,
		Current:    rel,
		ChapterID:  item.ChapterID,
	}); err != nil {
		return "", err
	}
	if err := p.store.PutRelationship(ctx, &rel); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s", rel.ID), nil
}

// EventRecord converts an event proposal into a canonical event record.
func EventRecord(proposal extract.EventProposal, chapterID string) storage.Event {
	event := storage.Event{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(proposal.Name),
		Type:              chronicle.MapEventType(proposal.Type),
		Summary:           proposal.Summary,
		Impact:            proposal.Impact,
		Date:              proposal.TimeRangeStart,
		Precision:         chronicle.MapTimePrecision(proposal.TimePrecision),
		LocationID:        proposal.LocationID,
		ChapterID:         chapterID,
		RelatedParagraphs: proposal.RelatedParagraphs,
	}
	if proposal.TimeRangeStart != "" {
		event.DateKey = extract.ParseDateKey(proposal.TimeRangeStart)
	}
	if name := extract.CleanLocationName(proposal.LocationName); name != "" {
		event.Location = &storage.EventLocation{Name: name, Alias: proposal.LocationAlias}
	}
	for _, actor := range proposal.Actors {
		event.Actors = append(event.Actors, storage.EventActor{
			PersonID: actor.ID,
			Name:     actor.Name,
			Role:     chronicle.MapActorRole(actor.RoleType),
			Action:   actor.Description,
		})
	}
	return event
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func unionStrings(existing, incoming []string, primary string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, s := range append(append([]string{}, existing...), incoming...) {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || trimmed == primary || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

// sameRecord reports whether two records serialize identically. The updated
// record is a copy of the existing one, so timestamps never differ here.
func sameRecord[T any](before *T, after T) bool {
	prev, err := json.Marshal(before)
	if err != nil {
		return false
	}
	curr, err := json.Marshal(after)
	if err != nil {
		return false
	}
	return bytes.Equal(prev, curr)
}
