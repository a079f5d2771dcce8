package extract

import (
	"context"
	"log/slog"

	"github.com/c360studio/chronicler/chapter"
	"github.com/c360studio/chronicler/config"
)

// Pipeline runs one chapter through the full extraction flow: chunking,
// event extraction, entity completion, canonicalization, alignment,
// relationship derivation, and event ordering. One invocation is one
// synchronous, sequential pass; the canonical maps live only for its
// duration.
type Pipeline struct {
	extractor *Extractor
	chunking  config.Chunking
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline wires a Pipeline over the given inference service.
func NewPipeline(svc Service, cfg *config.Config, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		chunking: cfg.Chunking,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.extractor = NewExtractor(svc, cfg.Extract, WithLogger(p.logger))
	return p
}

// Run extracts structured proposals from one chapter against a read-only
// snapshot of the existing canonical entities. The returned result is what
// the caller wraps into review items; Run itself persists nothing.
func (p *Pipeline) Run(ctx context.Context, ch *chapter.Chapter, snap Snapshot) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paragraphText := make(map[string]string, len(ch.Paragraphs))
	paragraphOrder := make(map[string]int, len(ch.Paragraphs))
	for i, para := range ch.Paragraphs {
		paragraphText[para.ID] = para.Text
		paragraphOrder[para.ID] = i
	}

	chunks := ChunkParagraphs(ch.Paragraphs, ch.Text(), p.chunking.SoftLimit, p.chunking.HardLimit)

	p.logger.Info("starting extraction",
		"chapter", ch.ID,
		"paragraphs", len(ch.Paragraphs),
		"chunks", len(chunks))

	events, truncatedEvents := p.extractor.ExtractEvents(ctx, chunks, paragraphText, snap)

	persons, places, truncatedEntities := p.extractor.CompleteEntities(ctx, ch.Text(), events)

	// Completion-derived detail records are upserted before the raw
	// event-derived mentions so richer data wins ties within the run.
	canon := NewCanonicalizer(snap)
	for _, person := range persons {
		canon.UpsertPerson(person)
	}
	for _, place := range places {
		canon.UpsertPlace(place)
	}
	for _, ev := range events {
		for _, actor := range ev.Actors {
			canon.UpsertPerson(PersonProposal{Name: actor.Name})
		}
		if ev.LocationName != "" {
			canon.UpsertPlace(PlaceProposal{Name: ev.LocationName, ModernName: ev.LocationModernName})
		}
	}

	events = DedupeEvents(events)
	AlignEvents(events, canon)
	relations := MergeRelations(DeriveRelations(events, canon))
	SortEventsByParagraphAndTime(events, paragraphOrder)

	result := &Result{
		Events:        events,
		Persons:       canon.Persons(),
		Places:        canon.Places(),
		Relationships: relations,
		Meta: Meta{
			Chunks:            len(chunks),
			TruncatedEvents:   truncatedEvents,
			TruncatedEntities: truncatedEntities,
		},
	}

	p.logger.Info("extraction complete",
		"chapter", ch.ID,
		"events", len(result.Events),
		"persons", len(result.Persons),
		"places", len(result.Places),
		"relationships", len(result.Relationships),
		"truncated_events", len(truncatedEvents),
		"truncated_entities", len(truncatedEntities))

	return result, nil
}
