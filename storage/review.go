package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

// ReviewItem is a proposed record awaiting human review. OriginalData holds
// the proposed record serialized as JSON; Type says which record shape it is.
type ReviewItem struct {
	ID     string                 `json:"id"`
	Type   chronicle.ReviewType   `json:"type"`
	Status chronicle.ReviewStatus `json:"status"`

	// OriginalData is the proposed record as extraction produced it
	// (Person, Place, Event, or Relationship). Never edited.
	OriginalData json.RawMessage `json:"originalData"`

	// ModifiedData is a reviewer-edited replacement payload. When present
	// it takes precedence over OriginalData at approval.
	ModifiedData json.RawMessage `json:"modifiedData,omitempty"`

	// Source tags where the proposal came from.
	Source string `json:"source,omitempty"`

	// ChapterID identifies the chapter the proposal came from.
	ChapterID string `json:"chapterId,omitempty"`

	// Notes carries reviewer comments.
	Notes string `json:"notes,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// CreateReviewItem stores a new pending review item and returns its id.
func (s *Store) CreateReviewItem(ctx context.Context, item *ReviewItem) (string, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = chronicle.ReviewPending
	}
	item.CreatedAt = time.Now()

	if err := putJSON(ctx, s.review, kvKey(item.ID), item, "review item"); err != nil {
		return "", err
	}
	return item.ID, nil
}

// GetReviewItem retrieves a review item by id.
func (s *Store) GetReviewItem(ctx context.Context, id string) (*ReviewItem, error) {
	var item ReviewItem
	if err := getJSON(ctx, s.review, kvKey(id), &item, "review item"); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateReviewItem stores an updated review item.
func (s *Store) UpdateReviewItem(ctx context.Context, item *ReviewItem) error {
	if item.ID == "" {
		return fmt.Errorf("review item id is required")
	}
	return putJSON(ctx, s.review, kvKey(item.ID), item, "review item")
}

// ListReviewItems returns review items, optionally filtered by status.
// An empty status returns everything.
func (s *Store) ListReviewItems(ctx context.Context, status chronicle.ReviewStatus) ([]*ReviewItem, error) {
	all, err := listJSON[ReviewItem](ctx, s.review, "review item")
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}

	items := make([]*ReviewItem, 0, len(all))
	for _, item := range all {
		if item.Status == status {
			items = append(items, item)
		}
	}
	return items, nil
}

// ModifyReviewItem replaces a non-terminal item's payload with a reviewer
// edit. The original payload is kept untouched; approval prefers the edit.
func (s *Store) ModifyReviewItem(ctx context.Context, id string, data json.RawMessage, notes string) error {
	if !json.Valid(data) {
		return fmt.Errorf("modified payload is not valid JSON")
	}

	item, err := s.GetReviewItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		return fmt.Errorf("review item %s already resolved as %s", id, item.Status)
	}

	item.ModifiedData = data
	item.Status = chronicle.ReviewModified
	if notes != "" {
		item.Notes = notes
	}

	return s.UpdateReviewItem(ctx, item)
}

// ResolveReviewItem marks a review item with a terminal status. A terminal
// item is never resolved again.
func (s *Store) ResolveReviewItem(ctx context.Context, id string, status chronicle.ReviewStatus, notes string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	item, err := s.GetReviewItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		return fmt.Errorf("review item %s already resolved as %s", id, item.Status)
	}

	now := time.Now()
	item.Status = status
	item.ResolvedAt = &now
	if notes != "" {
		item.Notes = notes
	}

	return s.UpdateReviewItem(ctx, item)
}
