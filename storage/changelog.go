package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// FieldChange is one entry of a change diff. Exactly one shape is set:
// Added for keys new in the current snapshot, Removed for keys gone from
// it, From/To for keys whose value changed.
type FieldChange struct {
	Added   any `json:"added,omitempty"`
	Removed any `json:"removed,omitempty"`
	From    any `json:"from,omitempty"`
	To      any `json:"to,omitempty"`
}

// ChangeEntry is one append-only change log record for an entity.
type ChangeEntry struct {
	EntityType chronicle.EntityType   `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Version    int                    `json:"version"`
	Action     chronicle.ChangeAction `json:"action"`

	// Previous and Current are full record snapshots. Previous is empty
	// for CREATE; Current is empty for DELETE.
	Previous json.RawMessage `json:"previous,omitempty"`
	Current  json.RawMessage `json:"current,omitempty"`

	Diff map[string]FieldChange `json:"diff,omitempty"`

	// MergedFrom lists source entity ids absorbed by a MERGE.
	MergedFrom []string `json:"mergedFrom,omitempty"`

	ChapterID string    `json:"chapterId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// changeKey builds the KV key for a change entry. The version is
// zero-padded so lexicographic key order matches version order.
func changeKey(entityType chronicle.EntityType, entityID string, version int) string {
	return fmt.Sprintf("%s.%s.%012d", strings.ToLower(string(entityType)), kvKey(entityID), version)
}

// changePrefix builds the key prefix covering all versions of an entity.
func changePrefix(entityType chronicle.EntityType, entityID string) string {
	return fmt.Sprintf("%s.%s.", strings.ToLower(string(entityType)), kvKey(entityID))
}

// AppendChange writes a change entry. The key encodes the version, and
// Create refuses to overwrite, so the log stays append-only even if two
// writers race on the same version.
func (s *Store) AppendChange(ctx context.Context, entry *ChangeEntry) error {
	if entry.EntityID == "" {
		return fmt.Errorf("change entry entity id is required")
	}
	if entry.Version <= 0 {
		return fmt.Errorf("change entry version must be positive")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal change entry: %w", err)
	}

	key := changeKey(entry.EntityType, entry.EntityID, entry.Version)
	if _, err := s.changeLog.Create(ctx, key, data); err != nil {
		return fmt.Errorf("append change entry: %w", err)
	}
	return nil
}

// ListChanges returns all change entries for an entity, ordered by version.
func (s *Store) ListChanges(ctx context.Context, entityType chronicle.EntityType, entityID string) ([]*ChangeEntry, error) {
	keys, err := s.changeLog.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list change keys: %w", err)
	}

	prefix := changePrefix(entityType, entityID)
	entries := make([]*ChangeEntry, 0)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := s.changeLog.Get(ctx, key)
		if err != nil {
			continue
		}
		var ce ChangeEntry
		if err := json.Unmarshal(entry.Value(), &ce); err != nil {
			continue
		}
		entries = append(entries, &ce)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Version < entries[j].Version
	})

	return entries, nil
}

// GetChange returns the change entry for one version of an entity.
func (s *Store) GetChange(ctx context.Context, entityType chronicle.EntityType, entityID string, version int) (*ChangeEntry, error) {
	var ce ChangeEntry
	if err := getJSON(ctx, s.changeLog, changeKey(entityType, entityID, version), &ce, "change entry"); err != nil {
		return nil, err
	}
	return &ce, nil
}

// LatestVersion returns the highest recorded version for an entity, or 0
// when the entity has no change history.
func (s *Store) LatestVersion(ctx context.Context, entityType chronicle.EntityType, entityID string) (int, error) {
	entries, err := s.ListChanges(ctx, entityType, entityID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Version, nil
}
