package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cinefile/internal/textutil"
)

// NewList describes a list to create.
type NewList struct {
	Name       string
	Slug       string
	Source     string
	CreatedBy  string
	Visibility Visibility
}

// GetList fetches a list definition; it returns nil, nil when absent.
func (s *Store) GetList(ctx context.Context, id string) (*List, error) {
	return getList(ensureContext(ctx), s.db, id)
}

// Lists returns every list ordered by creation time.
func (s *Store) Lists(ctx context.Context) ([]List, error) {
	return queryLists(ensureContext(ctx), s.db)
}

// ListItems returns a list's memberships ordered by rank (unranked last).
func (s *Store) ListItems(ctx context.Context, listID string) ([]ListItem, error) {
	return queryItems(ensureContext(ctx), s.db,
		`SELECT `+itemColumns+` FROM list_items WHERE list_id = ? `+itemOrder, listID)
}

// ItemsByMovie returns every membership referencing movieID.
func (s *Store) ItemsByMovie(ctx context.Context, movieID int64) ([]ListItem, error) {
	return queryItems(ensureContext(ctx), s.db,
		`SELECT `+itemColumns+` FROM list_items WHERE movie_id = ? ORDER BY list_id, id`, movieID)
}

// AllItems returns every membership.
func (s *Store) AllItems(ctx context.Context) ([]ListItem, error) {
	return queryItems(ensureContext(ctx), s.db, `SELECT `+itemColumns+` FROM list_items ORDER BY list_id, id`)
}

// CreateList creates an empty list whose id is the slug of its name. When
// the slug is taken, "-2", "-3", ... suffixes are tried in order.
func (s *Store) CreateList(ctx context.Context, spec NewList) (*List, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, ErrInvalidList
	}
	base := textutil.Slugify(name)
	if base == "" {
		base = "list"
	}
	var created *List
	err := s.WithTx(ctx, func(tx *Tx) error {
		id, err := uniqueListID(ctx, tx, base)
		if err != nil {
			return err
		}
		created = &List{
			ID:         id,
			Name:       name,
			Slug:       spec.Slug,
			Source:     spec.Source,
			CreatedBy:  spec.CreatedBy,
			Visibility: spec.Visibility,
		}
		return tx.PutList(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func uniqueListID(ctx context.Context, tx *Tx, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		if candidate != PlaceholderListID && candidate != TopListID {
			existing, err := tx.List(ctx, candidate)
			if err != nil {
				return "", err
			}
			if existing == nil {
				return candidate, nil
			}
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// RenameList changes a list's display name. The id is stable.
func (s *Store) RenameList(ctx context.Context, id, name string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidList
	}
	var renamed *List
	err := s.WithTx(ctx, func(tx *Tx) error {
		list, err := tx.List(ctx, id)
		if err != nil {
			return err
		}
		if list == nil {
			return fmt.Errorf("list %q: %w", id, ErrListNotFound)
		}
		list.Name = name
		list.UpdatedAt = tx.Now()
		renamed = list
		return tx.PutList(ctx, list)
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteList removes a list and its memberships; movie records are retained.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		list, err := tx.List(ctx, id)
		if err != nil {
			return err
		}
		if list == nil {
			return fmt.Errorf("list %q: %w", id, ErrListNotFound)
		}
		return tx.DeleteList(ctx, id)
	})
}

// ClearLists removes every list and membership but keeps movies and settings.
func (s *Store) ClearLists(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.Clear(ctx, KindLists|KindItems)
	})
}

// WipeAll removes every record, including the seed-completed flag.
func (s *Store) WipeAll(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.Clear(ctx, KindMovies|KindLists|KindItems|KindSettings)
	})
}
