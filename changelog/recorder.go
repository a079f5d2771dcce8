// Package changelog records every mutation of a canonical entity as a
// versioned, append-only history with full before/after snapshots and a
// field-level diff.
package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/chronicler/storage"
	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// Store is the slice of the storage layer the recorder needs.
// *storage.Store satisfies it.
type Store interface {
	AppendChange(ctx context.Context, entry *storage.ChangeEntry) error
	ListChanges(ctx context.Context, entityType chronicle.EntityType, entityID string) ([]*storage.ChangeEntry, error)
	GetChange(ctx context.Context, entityType chronicle.EntityType, entityID string, version int) (*storage.ChangeEntry, error)
	LatestVersion(ctx context.Context, entityType chronicle.EntityType, entityID string) (int, error)
}

// Recorder versions entity mutations. Versions per entity are dense,
// starting at 1: each Record call reads the latest version and appends
// latest+1 with full snapshots of both sides.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// New creates a Recorder on top of the given store.
func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mutation describes one entity change to record. Previous is nil for a
// creation; Current is nil for a deletion. Both are the full records, not
// partial patches.
type Mutation struct {
	EntityType chronicle.EntityType
	EntityID   string
	Action     chronicle.ChangeAction
	Previous   any
	Current    any
	MergedFrom []string
	ChapterID  string
}

// Record appends the mutation as the entity's next version and returns the
// written entry.
func (r *Recorder) Record(ctx context.Context, m Mutation) (*storage.ChangeEntry, error) {
	if m.EntityID == "" {
		return nil, fmt.Errorf("mutation entity id is required")
	}

	latest, err := r.store.LatestVersion(ctx, m.EntityType, m.EntityID)
	if err != nil {
		return nil, fmt.Errorf("resolve latest version for %s %s: %w", m.EntityType, m.EntityID, err)
	}

	entry := &storage.ChangeEntry{
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Version:    latest + 1,
		Action:     m.Action,
		MergedFrom: m.MergedFrom,
		ChapterID:  m.ChapterID,
		Timestamp:  time.Now(),
	}

	if m.Previous != nil {
		if entry.Previous, err = json.Marshal(m.Previous); err != nil {
			return nil, fmt.Errorf("marshal previous snapshot: %w", err)
		}
	}
	if m.Current != nil {
		if entry.Current, err = json.Marshal(m.Current); err != nil {
			return nil, fmt.Errorf("marshal current snapshot: %w", err)
		}
	}

	entry.Diff, err = Diff(entry.Previous, entry.Current)
	if err != nil {
		return nil, fmt.Errorf("diff snapshots for %s %s: %w", m.EntityType, m.EntityID, err)
	}

	if err := r.store.AppendChange(ctx, entry); err != nil {
		return nil, err
	}

	r.logger.Debug("change recorded",
		"entityType", m.EntityType,
		"entityId", m.EntityID,
		"version", entry.Version,
		"action", m.Action)

	return entry, nil
}

// History returns the full version history of an entity, oldest first.
func (r *Recorder) History(ctx context.Context, entityType chronicle.EntityType, entityID string) ([]*storage.ChangeEntry, error) {
	return r.store.ListChanges(ctx, entityType, entityID)
}

// Snapshot returns the full record of an entity as of the given version,
// decoded into out.
func (r *Recorder) Snapshot(ctx context.Context, entityType chronicle.EntityType, entityID string, version int, out any) error {
	entry, err := r.store.GetChange(ctx, entityType, entityID, version)
	if err != nil {
		return err
	}
	if len(entry.Current) == 0 {
		return fmt.Errorf("version %d of %s %s has no snapshot (deleted)", version, entityType, entityID)
	}
	if err := json.Unmarshal(entry.Current, out); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// Stats summarizes an entity's history.
type Stats struct {
	Versions     int
	FirstVersion time.Time
	LastVersion  time.Time
	Merges       int
}

// EntityStats computes history statistics for an entity. A nil result means
// the entity has no history.
func (r *Recorder) EntityStats(ctx context.Context, entityType chronicle.EntityType, entityID string) (*Stats, error) {
	entries, err := r.store.ListChanges(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	stats := &Stats{
		Versions:     len(entries),
		FirstVersion: entries[0].Timestamp,
		LastVersion:  entries[len(entries)-1].Timestamp,
	}
	for _, e := range entries {
		if e.Action == chronicle.ActionMerge {
			stats.Merges++
		}
	}
	return stats, nil
}
