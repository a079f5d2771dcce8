package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Bucket name suffixes. The configured prefix namespaces them so several
// chronicles can share one NATS server.
const (
	bucketPersons       = "PERSONS"
	bucketPlaces        = "PLACES"
	bucketEvents        = "EVENTS"
	bucketRelationships = "RELATIONSHIPS"
	bucketReview        = "REVIEW"
	bucketChangeLog     = "CHANGELOG"
)

// Store provides chronicle record storage backed by NATS JetStream KV.
type Store struct {
	persons       jetstream.KeyValue
	places        jetstream.KeyValue
	events        jetstream.KeyValue
	relationships jetstream.KeyValue
	review        jetstream.KeyValue
	changeLog     jetstream.KeyValue
}

// NewStore creates a Store with the given JetStream context, creating the
// KV buckets if they don't exist. prefix namespaces the buckets; empty
// defaults to "CHRONICLE".
func NewStore(ctx context.Context, js jetstream.JetStream, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = "CHRONICLE"
	}
	prefix = strings.ToUpper(prefix)

	s := &Store{}
	for _, b := range []struct {
		name string
		kv   *jetstream.KeyValue
	}{
		{bucketPersons, &s.persons},
		{bucketPlaces, &s.places},
		{bucketEvents, &s.events},
		{bucketRelationships, &s.relationships},
		{bucketReview, &s.review},
		{bucketChangeLog, &s.changeLog},
	} {
		kv, err := getOrCreateBucket(ctx, js, prefix+"_"+b.name)
		if err != nil {
			return nil, fmt.Errorf("create %s bucket: %w", strings.ToLower(b.name), err)
		}
		*b.kv = kv
	}

	return s, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Chronicler %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// kvKeyPattern matches the character set NATS KV allows in keys.
var kvKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// kvKey maps a record id to a KV-safe key. Ids outside the allowed
// character set (Chinese names that never slugified to ASCII) are
// addressed by digest; the stored value carries the real id.
func kvKey(id string) string {
	if kvKeyPattern.MatchString(id) {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "x." + hex.EncodeToString(sum[:16])
}

// PutPerson stores a person record, stamping timestamps.
func (s *Store) PutPerson(ctx context.Context, p *Person) error {
	if p.ID == "" {
		return fmt.Errorf("person id is required")
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	return putJSON(ctx, s.persons, kvKey(p.ID), p, "person")
}

// GetPerson retrieves a person by id.
func (s *Store) GetPerson(ctx context.Context, id string) (*Person, error) {
	var p Person
	if err := getJSON(ctx, s.persons, kvKey(id), &p, "person"); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePerson removes a person record.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	if err := s.persons.Delete(ctx, kvKey(id)); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

// ListPersons returns all person records.
func (s *Store) ListPersons(ctx context.Context) ([]*Person, error) {
	return listJSON[Person](ctx, s.persons, "person")
}

// PutPlace stores a place record, stamping timestamps.
func (s *Store) PutPlace(ctx context.Context, p *Place) error {
	if p.ID == "" {
		return fmt.Errorf("place id is required")
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	return putJSON(ctx, s.places, kvKey(p.ID), p, "place")
}

// GetPlace retrieves a place by id.
func (s *Store) GetPlace(ctx context.Context, id string) (*Place, error) {
	var p Place
	if err := getJSON(ctx, s.places, kvKey(id), &p, "place"); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlace removes a place record.
func (s *Store) DeletePlace(ctx context.Context, id string) error {
	if err := s.places.Delete(ctx, kvKey(id)); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}

// ListPlaces returns all place records.
func (s *Store) ListPlaces(ctx context.Context) ([]*Place, error) {
	return listJSON[Place](ctx, s.places, "place")
}

// PutEvent stores an event record, stamping timestamps.
func (s *Store) PutEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	return putJSON(ctx, s.events, kvKey(e.ID), e, "event")
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	var e Event
	if err := getJSON(ctx, s.events, kvKey(id), &e, "event"); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEvent removes an event record.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, kvKey(id)); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListEvents returns all event records.
func (s *Store) ListEvents(ctx context.Context) ([]*Event, error) {
	return listJSON[Event](ctx, s.events, "event")
}

// ListEventsByChapter returns all events extracted from a chapter.
func (s *Store) ListEventsByChapter(ctx context.Context, chapterID string) ([]*Event, error) {
	all, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	events := make([]*Event, 0)
	for _, e := range all {
		if e.ChapterID == chapterID {
			events = append(events, e)
		}
	}
	return events, nil
}

// PutRelationship stores a relationship record, stamping timestamps.
func (s *Store) PutRelationship(ctx context.Context, r *Relationship) error {
	if r.ID == "" {
		return fmt.Errorf("relationship id is required")
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	return putJSON(ctx, s.relationships, kvKey(r.ID), r, "relationship")
}

// GetRelationship retrieves a relationship by id.
func (s *Store) GetRelationship(ctx context.Context, id string) (*Relationship, error) {
	var r Relationship
	if err := getJSON(ctx, s.relationships, kvKey(id), &r, "relationship"); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRelationships returns all relationship records.
func (s *Store) ListRelationships(ctx context.Context) ([]*Relationship, error) {
	return listJSON[Relationship](ctx, s.relationships, "relationship")
}

// putJSON marshals a value and writes it under key.
func putJSON(ctx context.Context, kv jetstream.KeyValue, key string, v any, kind string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if _, err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", kind, err)
	}
	return nil
}

// getJSON reads the value under key and unmarshals it into v.
func getJSON(ctx context.Context, kv jetstream.KeyValue, key string, v any, kind string) error {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", kind, err)
	}
	if err := json.Unmarshal(entry.Value(), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return nil
}

// listJSON returns all values in a bucket. Entries that fail to load or
// decode are skipped.
func listJSON[T any](ctx context.Context, kv jetstream.KeyValue, kind string) ([]*T, error) {
	keys, err := kv.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s keys: %w", kind, err)
	}

	out := make([]*T, 0, len(keys))
	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(entry.Value(), &v); err != nil {
			continue
		}
		out = append(out, &v)
	}

	return out, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
