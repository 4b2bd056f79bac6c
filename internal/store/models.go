package store

import (
	"strconv"
	"time"
)

// Visibility controls whether a list may be shared.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Creator tags who produced a list.
const (
	CreatedByUser   = "user"
	CreatedBySystem = "system"
	CreatedByImport = "import"
	CreatedBySeed   = "seed"
)

const (
	// TopListID is the id of the auto-generated top rated list.
	TopListID = "your-top"
	// PlaceholderListID is a reserved id that must never hold a real list.
	PlaceholderListID = "movies"
)

// Movie is a cached catalog record plus the user's own fields.
type Movie struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Year         *int      `json:"year,omitempty"`
	PosterPath   string    `json:"posterPath,omitempty"`
	BackdropPath string    `json:"backdropPath,omitempty"`
	Directors    []string  `json:"directors,omitempty"`
	Cast         []string  `json:"cast,omitempty"`
	TMDBRating   *float64  `json:"tmdbRating,omitempty"`
	Runtime      *int      `json:"runtime,omitempty"`
	Genres       []string  `json:"genres,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	Seen         bool      `json:"seen"`
	MyRating     *float64  `json:"myRating,omitempty"`
	WatchedAt    string    `json:"watchedAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NeedsEnrichment reports whether runtime or genres are still missing.
func (m *Movie) NeedsEnrichment() bool {
	if m == nil {
		return true
	}
	return m.Runtime == nil || *m.Runtime == 0 || len(m.Genres) == 0
}

// DisplayTitle returns the title or a "#<id>" fallback.
func (m *Movie) DisplayTitle() string {
	if m == nil {
		return ""
	}
	if m.Title != "" {
		return m.Title
	}
	return PlaceholderTitle(m.ID)
}

// PlaceholderTitle is the title shown for a movie that has not been cached yet.
func PlaceholderTitle(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}

// List is a named, ordered collection of movie references.
type List struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug,omitempty"`
	Source     string     `json:"source,omitempty"`
	ItemCount  int        `json:"itemCount"`
	CreatedBy  string     `json:"createdBy,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ListItem associates one movie with one list, optionally ranked.
type ListItem struct {
	ID      string    `json:"id"`
	ListID  string    `json:"listId"`
	MovieID int64     `json:"movieId"`
	Rank    *int      `json:"rank,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// ItemID builds the membership key used by bulk imports.
func ItemID(listID string, rankOrSequence int) string {
	return listID + ":" + strconv.Itoa(rankOrSequence)
}

// UniqueItemID builds the membership key used by individual adds.
func UniqueItemID(listID string, rank int, movieID int64) string {
	return listID + ":" + strconv.Itoa(rank) + ":" + strconv.FormatInt(movieID, 10)
}

// Kind is a bitmask of record kinds touched by a committed change.
type Kind uint8

const (
	KindMovies Kind = 1 << iota
	KindLists
	KindItems
	KindSettings
)

// Change describes one committed transaction.
type Change struct {
	Kinds    Kind
	ListIDs  []string
	MovieIDs []int64
}

// Has reports whether the change touched kind k.
func (c Change) Has(k Kind) bool {
	return c.Kinds&k != 0
}

// Stats summarises store contents.
type Stats struct {
	Movies int `json:"movies"`
	Lists  int `json:"lists"`
	Items  int `json:"items"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
