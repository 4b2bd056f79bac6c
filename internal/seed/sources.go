package seed

import (
	"cinefile/internal/importer"
	"cinefile/internal/store"
)

// Source is one bundled reference list.
type Source struct {
	ListID string
	Name   string
	Source string
	Asset  string
}

// Meta returns the list definition a seeded list is written with.
func (s Source) Meta() importer.ListMeta {
	slug := s.Source
	if slug == "" {
		slug = "Imported"
	}
	return importer.ListMeta{
		ID:         s.ListID,
		Name:       s.Name,
		Slug:       slug,
		Source:     s.Source,
		CreatedBy:  store.CreatedBySystem,
		Visibility: store.VisibilityPublic,
	}
}

// DefaultSources lists the reference lists in seeding order. The Variety
// list is optional and only seeded when its asset is present.
func DefaultSources() []Source {
	return []Source{
		{
			ListID: "nyt-top-100-21st",
			Name:   "New York Times 100 Best Movies of the 21st Century",
			Source: "NYTimes",
			Asset:  "nyt_top100_21st.json",
		},
		{
			ListID: "rollingstone-animated-40",
			Name:   "Rolling Stone: 40 Animated (like TSPDT100)",
			Source: "Rolling Stone",
			Asset:  "rollingstone_40_animated.csv",
		},
		{
			ListID: "tspdt-100-greatest",
			Name:   "TSPDT 100 Greatest Films",
			Source: "TSPDT",
			Asset:  "tspdt_100.csv",
		},
		{
			ListID: "tspdt-21st-most-acclaimed",
			Name:   "TSPDT 21st Century’s Most Acclaimed Films",
			Source: "TSPDT",
			Asset:  "tspdt_21st.csv",
		},
		{
			ListID: "variety-100-best-horror",
			Name:   "Variety 100 Best Horror Movies of All Time",
			Source: "Variety",
			Asset:  "variety_100_best_horror.csv",
		},
	}
}
