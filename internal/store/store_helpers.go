package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const (
	movieColumns = "id, title, year, poster_path, backdrop_path, directors_json, cast_json, tmdb_rating, runtime, genres_json, overview, seen, my_rating, watched_at, updated_at"
	listColumns  = "id, name, slug, source, item_count, created_by, visibility, created_at, updated_at"
	itemColumns  = "id, list_id, movie_id, rank, added_at"
)

type scanner interface{ Scan(dest ...any) error }

func scanMovie(row scanner) (*Movie, error) {
	var (
		m          Movie
		year       sql.NullInt64
		poster     sql.NullString
		backdrop   sql.NullString
		directors  sql.NullString
		cast       sql.NullString
		tmdbRating sql.NullFloat64
		runtime    sql.NullInt64
		genres     sql.NullString
		overview   sql.NullString
		seen       int
		myRating   sql.NullFloat64
		watchedAt  sql.NullString
		updatedRaw sql.NullString
	)
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&year,
		&poster,
		&backdrop,
		&directors,
		&cast,
		&tmdbRating,
		&runtime,
		&genres,
		&overview,
		&seen,
		&myRating,
		&watchedAt,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	m.Year = nullIntPtr(year)
	m.PosterPath = poster.String
	m.BackdropPath = backdrop.String
	m.Directors = decodeStrings(directors)
	m.Cast = decodeStrings(cast)
	m.TMDBRating = nullFloatPtr(tmdbRating)
	m.Runtime = nullIntPtr(runtime)
	m.Genres = decodeStrings(genres)
	m.Overview = overview.String
	m.Seen = seen != 0
	m.MyRating = nullFloatPtr(myRating)
	m.WatchedAt = watchedAt.String
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		m.UpdatedAt = updated
	}
	return &m, nil
}

func scanList(row scanner) (*List, error) {
	var (
		l          List
		slug       sql.NullString
		source     sql.NullString
		visibility string
		createdRaw string
		updatedRaw string
	)
	if err := row.Scan(&l.ID, &l.Name, &slug, &source, &l.ItemCount, &l.CreatedBy, &visibility, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	l.Slug = slug.String
	l.Source = source.String
	l.Visibility = Visibility(visibility)
	if created, err := parseTimeString(createdRaw); err == nil {
		l.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		l.UpdatedAt = updated
	}
	return &l, nil
}

func scanItem(row scanner) (*ListItem, error) {
	var (
		item     ListItem
		rank     sql.NullInt64
		addedRaw string
	)
	if err := row.Scan(&item.ID, &item.ListID, &item.MovieID, &rank, &addedRaw); err != nil {
		return nil, err
	}
	item.Rank = nullIntPtr(rank)
	if added, err := parseTimeString(addedRaw); err == nil {
		item.AddedAt = added
	}
	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// encodeStrings stores nil as NULL so "never fetched" stays distinct from "empty".
func encodeStrings(values []string) any {
	if values == nil {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(data)
}

func decodeStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil
	}
	if values == nil {
		values = []string{}
	}
	return values
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
