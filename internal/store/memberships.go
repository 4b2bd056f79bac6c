package store

import (
	"context"
	"fmt"
)

// AddMembership adds movieID to a list. A rank <= 0 places the movie after the
// current highest rank. Adding a movie already in the list returns
// ErrDuplicateMembership and writes nothing.
func (s *Store) AddMembership(ctx context.Context, listID string, movieID int64, rank int) (*ListItem, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("add membership: invalid movie id %d", movieID)
	}
	var added *ListItem
	err := s.WithTx(ctx, func(tx *Tx) error {
		list, err := tx.List(ctx, listID)
		if err != nil {
			return err
		}
		if list == nil {
			return fmt.Errorf("list %q: %w", listID, ErrListNotFound)
		}
		items, err := tx.ItemsByList(ctx, listID)
		if err != nil {
			return err
		}
		maxRank := 0
		for _, item := range items {
			if item.MovieID == movieID {
				return fmt.Errorf("movie %d in %q: %w", movieID, listID, ErrDuplicateMembership)
			}
			if item.Rank != nil && *item.Rank > maxRank {
				maxRank = *item.Rank
			}
		}
		if rank <= 0 {
			rank = maxRank + 1
		}
		added = &ListItem{
			ID:      UniqueItemID(listID, rank, movieID),
			ListID:  listID,
			MovieID: movieID,
			Rank:    IntPtr(rank),
			AddedAt: tx.Now(),
		}
		if err := tx.PutItem(ctx, added); err != nil {
			return err
		}
		_, err = tx.RecountList(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMembership removes movieID from a list.
func (s *Store) RemoveMembership(ctx context.Context, listID string, movieID int64) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		item, err := findMembership(ctx, tx, listID, movieID)
		if err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		_, err = tx.RecountList(ctx, listID)
		return err
	})
}

// ReplaceMembershipMovie points the membership of oldMovieID at newMovieID,
// keeping its id and rank. It fails with ErrDuplicateMembership when
// newMovieID is already in the list.
func (s *Store) ReplaceMembershipMovie(ctx context.Context, listID string, oldMovieID, newMovieID int64) (*ListItem, error) {
	if newMovieID <= 0 {
		return nil, fmt.Errorf("replace membership: invalid movie id %d", newMovieID)
	}
	var replaced *ListItem
	err := s.WithTx(ctx, func(tx *Tx) error {
		item, err := findMembership(ctx, tx, listID, oldMovieID)
		if err != nil {
			return err
		}
		if oldMovieID == newMovieID {
			replaced = item
			return nil
		}
		if _, err := findMembership(ctx, tx, listID, newMovieID); err == nil {
			return fmt.Errorf("movie %d in %q: %w", newMovieID, listID, ErrDuplicateMembership)
		} else if ErrorKind(err) != "not_found" {
			return err
		}
		item.MovieID = newMovieID
		replaced = item
		return tx.PutItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

func findMembership(ctx context.Context, tx *Tx, listID string, movieID int64) (*ListItem, error) {
	items, err := tx.ItemsByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].MovieID == movieID {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("movie %d in %q: %w", movieID, listID, ErrMembershipNotFound)
}

// ReplaceListMemberships upserts def and replaces its entire membership set
// with items in one transaction; item_count is recomputed before commit.
// An existing list keeps its creation time.
func (s *Store) ReplaceListMemberships(ctx context.Context, def List, items []ListItem) (*List, error) {
	if def.ID == "" {
		return nil, ErrInvalidList
	}
	var result *List
	err := s.WithTx(ctx, func(tx *Tx) error {
		existing, err := tx.List(ctx, def.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			def.CreatedAt = existing.CreatedAt
		}
		def.UpdatedAt = tx.Now()
		if err := tx.PutList(ctx, &def); err != nil {
			return err
		}
		if err := tx.DeleteItemsByList(ctx, def.ID); err != nil {
			return err
		}
		for i := range items {
			items[i].ListID = def.ID
		}
		if err := tx.PutItems(ctx, items); err != nil {
			return err
		}
		count, err := tx.RecountList(ctx, def.ID)
		if err != nil {
			return err
		}
		def.ItemCount = count
		result = &def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
