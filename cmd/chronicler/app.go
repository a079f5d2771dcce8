package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/chronicler/changelog"
	"github.com/c360studio/chronicler/chapter"
	"github.com/c360studio/chronicler/config"
	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/llm"
	"github.com/c360studio/chronicler/match"
	"github.com/c360studio/chronicler/merge"
	"github.com/c360studio/chronicler/model"
	"github.com/c360studio/chronicler/review"
	"github.com/c360studio/chronicler/storage"
	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// App wires the pipeline together: NATS-backed storage, the inference
// client, and the extraction and review stages.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	natsConn *nats.Conn
	store    *storage.Store

	pipeline  *extract.Pipeline
	processor *review.Processor
	recorder  *changelog.Recorder
}

// NewApp connects to NATS and builds the pipeline components.
func NewApp(ctx context.Context, cfg *config.Config, modelsPath string, logger *slog.Logger) (*App, error) {
	registry := model.Global()
	if modelsPath != "" {
		loaded, err := model.LoadFromFile(modelsPath)
		if err != nil {
			return nil, fmt.Errorf("load model registry: %w", err)
		}
		registry = loaded
	}

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("chronicler"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	store, err := storage.NewStore(ctx, js, cfg.NATS.BucketPrefix)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open storage buckets: %w", err)
	}

	client := llm.NewClient(registry, llm.WithLogger(logger))
	recorder := changelog.New(store, changelog.WithLogger(logger))

	return &App{
		cfg:      cfg,
		logger:   logger,
		natsConn: nc,
		store:    store,
		pipeline: extract.NewPipeline(client, cfg, extract.WithPipelineLogger(logger)),
		processor: review.New(store,
			match.New(cfg.Matcher),
			merge.New(client, cfg.Merge, merge.WithLogger(logger)),
			recorder,
			cfg.Review,
			review.WithLogger(logger)),
		recorder: recorder,
	}, nil
}

// Close releases the NATS connection.
func (a *App) Close() {
	if a.natsConn != nil {
		a.natsConn.Close()
	}
}

// ExtractFile runs the extraction pipeline on one chapter file and queues
// every proposal for review. It returns the number of items queued.
func (a *App) ExtractFile(ctx context.Context, path string) (int, error) {
	ch, err := chapter.LoadFile(path)
	if err != nil {
		return 0, err
	}

	snap, err := a.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	result, err := a.pipeline.Run(ctx, ch, snap)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}

	queued := 0
	queue := func(reviewType chronicle.ReviewType, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s proposal: %w", reviewType, err)
		}
		if _, err := a.store.CreateReviewItem(ctx, &storage.ReviewItem{
			Type:         reviewType,
			OriginalData: data,
			Source:       "LLM_EXTRACT",
			ChapterID:    ch.ID,
		}); err != nil {
			return err
		}
		queued++
		return nil
	}

	for _, p := range result.Persons {
		if err := queue(chronicle.ReviewTypePerson, p); err != nil {
			return queued, err
		}
	}
	for _, p := range result.Places {
		if err := queue(chronicle.ReviewTypePlace, p); err != nil {
			return queued, err
		}
	}
	for _, e := range result.Events {
		if err := queue(chronicle.ReviewTypeEvent, e); err != nil {
			return queued, err
		}
	}
	for _, r := range result.Relationships {
		if err := queue(chronicle.ReviewTypeRelationship, r); err != nil {
			return queued, err
		}
	}

	a.logger.Info("chapter extracted",
		"chapter", ch.ID,
		"chunks", result.Meta.Chunks,
		"events", len(result.Events),
		"persons", len(result.Persons),
		"places", len(result.Places),
		"relationships", len(result.Relationships),
		"queued", queued)
	return queued, nil
}

// snapshot loads the canonical person and place records the pipeline
// resolves mentions against.
func (a *App) snapshot(ctx context.Context) (extract.Snapshot, error) {
	persons, err := a.store.ListPersons(ctx)
	if err != nil {
		return extract.Snapshot{}, fmt.Errorf("list persons: %w", err)
	}
	places, err := a.store.ListPlaces(ctx)
	if err != nil {
		return extract.Snapshot{}, fmt.Errorf("list places: %w", err)
	}

	snap := extract.Snapshot{
		Persons: make([]storage.Person, 0, len(persons)),
		Places:  make([]storage.Place, 0, len(places)),
	}
	for _, p := range persons {
		snap.Persons = append(snap.Persons, *p)
	}
	for _, p := range places {
		snap.Places = append(snap.Places, *p)
	}
	return snap, nil
}

// resolveChapterFiles expands doublestar glob patterns against the chapters
// directory. Literal file paths pass through untouched.
func resolveChapterFiles(chaptersDir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*.txt", "**/*.md", "**/*.html"}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(chaptersDir), pattern)
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			full := filepath.Join(chaptersDir, m)
			if !seen[full] {
				seen[full] = true
				files = append(files, full)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
