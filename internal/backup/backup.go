package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cinefile/internal/store"
)

// SchemaVersion identifies the document layout written by Export.
const SchemaVersion = 1

// Document is the on-disk backup format.
type Document struct {
	Schema     int              `json:"schema"`
	ExportedAt time.Time        `json:"exportedAt"`
	Movies     []store.Movie    `json:"movies"`
	Lists      []store.List     `json:"lists"`
	ListItems  []store.ListItem `json:"listItems"`
}

// Counts reports how many records a backup operation covered.
type Counts struct {
	Movies int `json:"movies"`
	Lists  int `json:"lists"`
	Items  int `json:"items"`
}

// Total sums all record kinds.
func (c Counts) Total() int {
	return c.Movies + c.Lists + c.Items
}

// Options controls Import.
type Options struct {
	// ClearFirst removes every movie, list and membership before restoring.
	ClearFirst bool
}

// Snapshot reads every record in one transaction.
func Snapshot(ctx context.Context, st *store.Store) (*Document, error) {
	doc := &Document{Schema: SchemaVersion}
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		doc.ExportedAt = tx.Now()
		if doc.Movies, err = tx.AllMovies(ctx); err != nil {
			return err
		}
		if doc.Lists, err = tx.Lists(ctx); err != nil {
			return err
		}
		doc.ListItems, err = tx.AllItems(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	if doc.Movies == nil {
		doc.Movies = []store.Movie{}
	}
	if doc.Lists == nil {
		doc.Lists = []store.List{}
	}
	if doc.ListItems == nil {
		doc.ListItems = []store.ListItem{}
	}
	return doc, nil
}

// Export writes a snapshot of st to w as indented JSON.
func Export(ctx context.Context, st *store.Store, w io.Writer) (Counts, error) {
	doc, err := Snapshot(ctx, st)
	if err != nil {
		return Counts{}, err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return Counts{}, fmt.Errorf("encode backup: %w", err)
	}
	return countsOf(doc), nil
}

// Decode reads and validates a backup document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Schema <= 0 || doc.Schema > SchemaVersion {
		return nil, fmt.Errorf("unsupported backup schema %d", doc.Schema)
	}
	return &doc, nil
}

// Import restores a backup read from r. Records are upserted by id in one
// transaction; list item counts are recomputed from the restored memberships.
func Import(ctx context.Context, st *store.Store, r io.Reader, opts Options) (Counts, error) {
	doc, err := Decode(r)
	if err != nil {
		return Counts{}, err
	}
	return Restore(ctx, st, doc, opts)
}

// Restore writes doc into st. Items may reference lists that already exist
// locally; an item whose list is in neither place fails the whole restore.
func Restore(ctx context.Context, st *store.Store, doc *Document, opts Options) (Counts, error) {
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if opts.ClearFirst {
			if err := tx.Clear(ctx, store.KindMovies|store.KindLists|store.KindItems); err != nil {
				return err
			}
		}
		for i := range doc.Movies {
			if err := tx.PutMovie(ctx, &doc.Movies[i]); err != nil {
				return fmt.Errorf("restore movie %d: %w", doc.Movies[i].ID, err)
			}
		}
		for i := range doc.Lists {
			if err := tx.PutList(ctx, &doc.Lists[i]); err != nil {
				return fmt.Errorf("restore list %s: %w", doc.Lists[i].ID, err)
			}
		}
		touched := make([]string, 0, len(doc.Lists))
		known := make(map[string]bool, len(doc.Lists))
		for _, l := range doc.Lists {
			if !known[l.ID] {
				known[l.ID] = true
				touched = append(touched, l.ID)
			}
		}
		for i := range doc.ListItems {
			item := &doc.ListItems[i]
			if !known[item.ListID] {
				existing, err := tx.List(ctx, item.ListID)
				if err != nil {
					return err
				}
				if existing == nil {
					return fmt.Errorf("restore list item %s: list %q: %w", item.ID, item.ListID, store.ErrListNotFound)
				}
				known[item.ListID] = true
				touched = append(touched, item.ListID)
			}
			prev, err := tx.Item(ctx, item.ID)
			if err != nil {
				return err
			}
			if prev != nil && !known[prev.ListID] {
				old, err := tx.List(ctx, prev.ListID)
				if err != nil {
					return err
				}
				if old != nil {
					known[prev.ListID] = true
					touched = append(touched, prev.ListID)
				}
			}
			if err := tx.PutItem(ctx, item); err != nil {
				return fmt.Errorf("restore list item %s: %w", item.ID, err)
			}
		}
		for _, id := range touched {
			if _, err := tx.RecountList(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, fmt.Errorf("restore backup: %w", err)
	}
	return countsOf(doc), nil
}

func countsOf(doc *Document) Counts {
	return Counts{Movies: len(doc.Movies), Lists: len(doc.Lists), Items: len(doc.ListItems)}
}
