package extract

import (
	"context"
	"log/slog"

	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/llm"
	"github.com/c360studio/chronicler/model"
	"github.com/c360studio/chronicler/storage"
)

// Extractor issues the inference-service requests of the extraction pipeline:
// per-chunk event extraction and the once-per-chapter entity completion call.
// Service failures degrade to empty contributions for that call; they never
// abort the run.
type Extractor struct {
	svc    Service
	cfg    config.Extract
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor over the given inference service.
func NewExtractor(svc Service, cfg config.Extract, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		svc:    svc,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// eventsResponse is the JSON shape of a per-chunk extraction response.
type eventsResponse struct {
	Events    []EventProposal `json:"events"`
	Truncated []string        `json:"truncated"`
}

// ExtractEvents runs event extraction over every chunk sequentially. Chunks
// whose responses fail or cannot be parsed contribute zero events. Names the
// model reported past its cap come back both as the truncated list and as
// name-only stub proposals so reviewers see what was dropped.
func (e *Extractor) ExtractEvents(ctx context.Context, chunks []Chunk, paragraphText map[string]string, snap Snapshot) ([]EventProposal, []string) {
	knownPersons := capPersons(snap.Persons, e.cfg.MaxKnownPersons)
	knownPlaces := capPlaces(snap.Places, e.cfg.MaxKnownPlaces)

	var (
		events    []EventProposal
		truncated []string
	)

	for i, chunk := range chunks {
		chunksProcessed.Inc()
		inferenceCalls.WithLabelValues("extract-events").Inc()

		prompt := buildEventPrompt(chunk, paragraphText, knownPersons, knownPlaces, e.cfg.MaxEventsPerChunk)

		var resp eventsResponse
		if _, err := e.svc.CompleteJSON(ctx, jsonRequest(model.CapabilityExtraction, eventSystemPrompt, prompt), &resp); err != nil {
			parseFailures.WithLabelValues("extract-events").Inc()
			e.logger.Error("event extraction failed, skipping chunk",
				"chunk", i+1,
				"chunks", len(chunks),
				"error", err)
			continue
		}

		events = append(events, resp.Events...)
		truncated = append(truncated, resp.Truncated...)
	}

	for _, name := range truncated {
		events = append(events, EventProposal{Name: name, Truncated: true})
	}

	return events, truncated
}

// completionResponse is the JSON shape of the entity completion response.
type completionResponse struct {
	Persons          []PersonProposal `json:"persons"`
	Places           []PlaceProposal  `json:"places"`
	TruncatedPersons []string         `json:"truncatedPersons"`
	TruncatedPlaces  []string         `json:"truncatedPlaces"`
}

// CompleteEntities collects the distinct person and place names referenced by
// the extracted events and issues one completion call for the chapter. On
// failure it contributes empty lists so alignment still runs on the raw
// mentions. The returned truncated list names every entity dropped by a cap,
// whether reported by the model or cut client-side.
func (e *Extractor) CompleteEntities(ctx context.Context, chapterText string, events []EventProposal) ([]PersonProposal, []PlaceProposal, []string) {
	personNames, placeNames, overflow := referencedNames(events, e.cfg.MaxCompletionNames)
	if len(personNames) == 0 && len(placeNames) == 0 {
		return nil, nil, overflow
	}

	inferenceCalls.WithLabelValues("complete-entities").Inc()

	prompt := buildCompletionPrompt(chapterText, personNames, placeNames, e.cfg.MaxCompletedPersons, e.cfg.MaxCompletedPlaces)

	var resp completionResponse
	if _, err := e.svc.CompleteJSON(ctx, jsonRequest(model.CapabilityCompletion, completionSystemPrompt, prompt), &resp); err != nil {
		parseFailures.WithLabelValues("complete-entities").Inc()
		e.logger.Error("entity completion failed, continuing without detail records",
			"persons", len(personNames),
			"places", len(placeNames),
			"error", err)
		return nil, nil, overflow
	}

	truncated := overflow
	truncated = append(truncated, resp.TruncatedPersons...)
	truncated = append(truncated, resp.TruncatedPlaces...)

	// The caps are promises to downstream consumers, not suggestions to the
	// model; enforce them even when the response overruns.
	persons := resp.Persons
	if len(persons) > e.cfg.MaxCompletedPersons {
		for _, p := range persons[e.cfg.MaxCompletedPersons:] {
			truncated = append(truncated, p.Name)
		}
		persons = persons[:e.cfg.MaxCompletedPersons]
	}
	places := resp.Places
	if len(places) > e.cfg.MaxCompletedPlaces {
		for _, p := range places[e.cfg.MaxCompletedPlaces:] {
			truncated = append(truncated, p.Name)
		}
		places = places[:e.cfg.MaxCompletedPlaces]
	}

	return persons, places, truncated
}

// referencedNames gathers the distinct actor and location names across all
// events, in first-mention order, capped at maxNames total. Names past the
// cap are returned separately for the truncation report.
func referencedNames(events []EventProposal, maxNames int) (persons, places, overflow []string) {
	seenPersons := make(map[string]bool)
	seenPlaces := make(map[string]bool)
	total := 0

	add := func(name string, seen map[string]bool, dst *[]string) {
		key := normalizeName(name)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		if total >= maxNames {
			overflow = append(overflow, name)
			return
		}
		*dst = append(*dst, name)
		total++
	}

	for _, ev := range events {
		for _, actor := range ev.Actors {
			add(actor.Name, seenPersons, &persons)
		}
		if ev.LocationName != "" {
			add(CleanLocationName(ev.LocationName), seenPlaces, &places)
		}
	}
	return persons, places, overflow
}

// jsonRequest builds a low-temperature request for a capability.
func jsonRequest(capability model.Capability, system, prompt string) llm.Request {
	temp := 0.1
	return llm.Request{
		Capability: capability.String(),
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
	}
}

func capPersons(persons []storage.Person, max int) []storage.Person {
	if len(persons) > max {
		return persons[:max]
	}
	return persons
}

func capPlaces(places []storage.Place, max int) []storage.Place {
	if len(places) > max {
		return places[:max]
	}
	return places
}
