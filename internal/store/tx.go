package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Tx is a unit of work spanning movies, lists, list items and settings.
// It is valid only inside the WithTx callback that produced it.
type Tx struct {
	tx     *sql.Tx
	now    time.Time
	change Change
}

// Now returns the timestamp shared by every write in the transaction.
func (t *Tx) Now() time.Time {
	return t.now
}

func (t *Tx) touch(kind Kind, listID string, movieID int64) {
	t.change.Kinds |= kind
	if listID != "" {
		t.change.ListIDs = appendUnique(t.change.ListIDs, listID)
	}
	if movieID != 0 {
		for _, id := range t.change.MovieIDs {
			if id == movieID {
				return
			}
		}
		t.change.MovieIDs = append(t.change.MovieIDs, movieID)
	}
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

// Movie returns the cached movie or nil when absent.
func (t *Tx) Movie(ctx context.Context, id int64) (*Movie, error) {
	return getMovie(ctx, t.tx, id)
}

// MoviesByID returns the cached movies among ids, keyed by id.
func (t *Tx) MoviesByID(ctx context.Context, ids []int64) (map[int64]*Movie, error) {
	return moviesByID(ctx, t.tx, ids)
}

// AllMovies returns every cached movie ordered by id.
func (t *Tx) AllMovies(ctx context.Context) ([]Movie, error) {
	return queryMovies(ctx, t.tx, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
}

// PutMovie inserts or fully replaces a movie row.
func (t *Tx) PutMovie(ctx context.Context, m *Movie) error {
	if m == nil || m.ID <= 0 {
		return errors.New("movie id must be positive")
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = t.now
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO movies (`+movieColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            year = excluded.year,
            poster_path = excluded.poster_path,
            backdrop_path = excluded.backdrop_path,
            directors_json = excluded.directors_json,
            cast_json = excluded.cast_json,
            tmdb_rating = excluded.tmdb_rating,
            runtime = excluded.runtime,
            genres_json = excluded.genres_json,
            overview = excluded.overview,
            seen = excluded.seen,
            my_rating = excluded.my_rating,
            watched_at = excluded.watched_at,
            updated_at = excluded.updated_at`,
		m.ID,
		m.Title,
		nullableInt(m.Year),
		nullableString(m.PosterPath),
		nullableString(m.BackdropPath),
		encodeStrings(m.Directors),
		encodeStrings(m.Cast),
		nullableFloat(m.TMDBRating),
		nullableInt(m.Runtime),
		encodeStrings(m.Genres),
		nullableString(m.Overview),
		boolToInt(m.Seen),
		nullableFloat(m.MyRating),
		nullableString(m.WatchedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return writeErr("put movie", err)
	}
	t.touch(KindMovies, "", m.ID)
	return nil
}

// DeleteMovie removes a cached movie. Memberships referencing it are kept.
func (t *Tx) DeleteMovie(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return writeErr("delete movie", err)
	}
	t.touch(KindMovies, "", id)
	return nil
}

// List returns the list definition or nil when absent.
func (t *Tx) List(ctx context.Context, id string) (*List, error) {
	return getList(ctx, t.tx, id)
}

// Lists returns every list ordered by creation time.
func (t *Tx) Lists(ctx context.Context) ([]List, error) {
	return queryLists(ctx, t.tx)
}

// PutList inserts or replaces a list definition.
func (t *Tx) PutList(ctx context.Context, l *List) error {
	if l == nil || l.ID == "" {
		return errors.New("list id required")
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = t.now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = t.now
	}
	if l.Visibility == "" {
		l.Visibility = VisibilityPrivate
	}
	if l.CreatedBy == "" {
		l.CreatedBy = CreatedByUser
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO lists (`+listColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            slug = excluded.slug,
            source = excluded.source,
            item_count = excluded.item_count,
            created_by = excluded.created_by,
            visibility = excluded.visibility,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at`,
		l.ID,
		l.Name,
		nullableString(l.Slug),
		nullableString(l.Source),
		l.ItemCount,
		l.CreatedBy,
		string(l.Visibility),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		return writeErr("put list", err)
	}
	t.touch(KindLists, l.ID, 0)
	return nil
}

// DeleteList removes a list and all of its memberships. Movies are kept.
func (t *Tx) DeleteList(ctx context.Context, id string) error {
	if err := t.DeleteItemsByList(ctx, id); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
		return writeErr("delete list", err)
	}
	t.touch(KindLists, id, 0)
	return nil
}

// Item returns a membership by id or nil when absent.
func (t *Tx) Item(ctx context.Context, id string) (*ListItem, error) {
	return getItem(ctx, t.tx, id)
}

// ItemsByList returns a list's memberships ordered by rank (unranked last).
func (t *Tx) ItemsByList(ctx context.Context, listID string) ([]ListItem, error) {
	return queryItems(ctx, t.tx, `SELECT `+itemColumns+` FROM list_items WHERE list_id = ? `+itemOrder, listID)
}

// ItemsByMovie returns every membership referencing movieID.
func (t *Tx) ItemsByMovie(ctx context.Context, movieID int64) ([]ListItem, error) {
	return queryItems(ctx, t.tx, `SELECT `+itemColumns+` FROM list_items WHERE movie_id = ? ORDER BY list_id, id`, movieID)
}

// AllItems returns every membership.
func (t *Tx) AllItems(ctx context.Context) ([]ListItem, error) {
	return queryItems(ctx, t.tx, `SELECT `+itemColumns+` FROM list_items ORDER BY list_id, id`)
}

// PutItem inserts or replaces a membership.
func (t *Tx) PutItem(ctx context.Context, item *ListItem) error {
	if item == nil || item.ID == "" || item.ListID == "" || item.MovieID <= 0 {
		return errors.New("list item requires id, list id and movie id")
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = t.now
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO list_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            list_id = excluded.list_id,
            movie_id = excluded.movie_id,
            rank = excluded.rank,
            added_at = excluded.added_at`,
		item.ID,
		item.ListID,
		item.MovieID,
		nullableInt(item.Rank),
		formatTime(item.AddedAt),
	)
	if err != nil {
		return writeErr("put list item", err)
	}
	t.touch(KindItems, item.ListID, item.MovieID)
	return nil
}

// PutItems inserts or replaces memberships in order.
func (t *Tx) PutItems(ctx context.Context, items []ListItem) error {
	for i := range items {
		if err := t.PutItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteItem removes one membership.
func (t *Tx) DeleteItem(ctx context.Context, id string) error {
	item, err := t.Item(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM list_items WHERE id = ?`, id); err != nil {
		return writeErr("delete list item", err)
	}
	t.touch(KindItems, item.ListID, item.MovieID)
	return nil
}

// DeleteItemsByList removes every membership of a list.
func (t *Tx) DeleteItemsByList(ctx context.Context, listID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ?`, listID); err != nil {
		return writeErr("delete list items", err)
	}
	t.touch(KindItems, listID, 0)
	return nil
}

// RecountList sets item_count from the live membership count and returns it.
func (t *Tx) RecountList(ctx context.Context, listID string) (int, error) {
	var count int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM list_items WHERE list_id = ?`, listID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count list items: %w", err)
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE lists SET item_count = ?, updated_at = ? WHERE id = ?`,
		count, formatTime(t.now), listID)
	if err != nil {
		return 0, writeErr("recount list", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return 0, fmt.Errorf("recount %q: %w", listID, ErrListNotFound)
	}
	t.touch(KindLists, listID, 0)
	return count, nil
}

// Setting returns a stored setting value.
func (t *Tx) Setting(ctx context.Context, key string) (string, bool, error) {
	return getSetting(ctx, t.tx, key)
}

// PutSetting stores a setting value.
func (t *Tx) PutSetting(ctx context.Context, key, value string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return writeErr("put setting", err)
	}
	t.touch(KindSettings, "", 0)
	return nil
}

// Clear deletes every row of the given kinds.
func (t *Tx) Clear(ctx context.Context, kinds Kind) error {
	tables := []struct {
		kind  Kind
		table string
	}{
		{KindItems, "list_items"},
		{KindLists, "lists"},
		{KindMovies, "movies"},
		{KindSettings, "settings"},
	}
	for _, entry := range tables {
		if kinds&entry.kind == 0 {
			continue
		}
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM `+entry.table); err != nil {
			return writeErr("clear "+entry.table, err)
		}
		t.touch(entry.kind, "", 0)
	}
	return nil
}

const itemOrder = `ORDER BY rank IS NULL, rank, added_at, id`

func getMovie(ctx context.Context, q querier, id int64) (*Movie, error) {
	row := q.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

func moviesByID(ctx context.Context, q querier, ids []int64) (map[int64]*Movie, error) {
	result := make(map[int64]*Movie, len(ids))
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		args := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			args = append(args, id)
		}
		movies, err := queryMovies(ctx, q,
			`SELECT `+movieColumns+` FROM movies WHERE id IN (`+makePlaceholders(len(args))+`)`, args...)
		if err != nil {
			return nil, err
		}
		for i := range movies {
			m := movies[i]
			result[m.ID] = &m
		}
	}
	return result, nil
}

func queryMovies(ctx context.Context, q querier, query string, args ...any) ([]Movie, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()
	var movies []Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

func getList(ctx context.Context, q querier, id string) (*List, error) {
	row := q.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, id)
	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

func queryLists(ctx context.Context, q querier) ([]List, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+listColumns+` FROM lists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()
	var lists []List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *list)
	}
	return lists, rows.Err()
}

func getItem(ctx context.Context, q querier, id string) (*ListItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM list_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list item: %w", err)
	}
	return item, nil
}

func queryItems(ctx context.Context, q querier, query string, args ...any) ([]ListItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query list items: %w", err)
	}
	defer rows.Close()
	var items []ListItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func getSetting(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}
