package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// FakeMovie is one title served by the fake catalog.
type FakeMovie struct {
	ID          int64
	Title       string
	ReleaseDate string
	VoteCount   int64
	VoteAverage float64
	Runtime     int
	Genres      []string
	Directors   []string
	Cast        []string
	Overview    string
	PosterPath  string
}

// TMDBServer is an httptest server speaking the subset of the TMDB API the
// catalog client uses. Search matches titles containing the query,
// case-insensitively, in ascending id order.
type TMDBServer struct {
	*httptest.Server

	APIKey string

	mu          sync.Mutex
	movies      map[int64]FakeMovie
	failSearch  bool
	failDetails bool

	searchCalls  atomic.Int64
	detailsCalls atomic.Int64
}

// NewTMDBServer starts a fake catalog that accepts apiKey "test".
func NewTMDBServer(t testing.TB, movies ...FakeMovie) *TMDBServer {
	t.Helper()

	srv := &TMDBServer{APIKey: "test", movies: make(map[int64]FakeMovie)}
	for _, m := range movies {
		srv.movies[m.ID] = m
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", srv.handleSearch)
	mux.HandleFunc("/movie/", srv.handleDetails)
	srv.Server = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// SearchCalls reports how many search requests were served.
func (s *TMDBServer) SearchCalls() int64 { return s.searchCalls.Load() }

// DetailsCalls reports how many detail requests were served.
func (s *TMDBServer) DetailsCalls() int64 { return s.detailsCalls.Load() }

// TotalCalls reports every request served.
func (s *TMDBServer) TotalCalls() int64 { return s.SearchCalls() + s.DetailsCalls() }

// FailSearch makes search requests return HTTP 500.
func (s *TMDBServer) FailSearch(fail bool) {
	s.mu.Lock()
	s.failSearch = fail
	s.mu.Unlock()
}

// FailDetails makes detail requests return HTTP 500.
func (s *TMDBServer) FailDetails(fail bool) {
	s.mu.Lock()
	s.failDetails = fail
	s.mu.Unlock()
}

func (s *TMDBServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("api_key") != s.APIKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
		return false
	}
	return true
}

func (s *TMDBServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.searchCalls.Add(1)
	if !s.authorized(w, r) {
		return
	}
	s.mu.Lock()
	fail := s.failSearch
	var matches []FakeMovie
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	for _, m := range s.movies {
		if strings.Contains(strings.ToLower(m.Title), query) {
			matches = append(matches, m)
		}
	}
	s.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	results := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		results = append(results, map[string]any{
			"id":           m.ID,
			"title":        m.Title,
			"release_date": m.ReleaseDate,
			"poster_path":  m.PosterPath,
			"vote_average": m.VoteAverage,
			"vote_count":   m.VoteCount,
		})
	}
	writeFakeJSON(w, map[string]any{"page": 1, "results": results, "total_results": len(results), "total_pages": 1})
}

func (s *TMDBServer) handleDetails(w http.ResponseWriter, r *http.Request) {
	s.detailsCalls.Add(1)
	if !s.authorized(w, r) {
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/movie/"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	fail := s.failDetails
	m, ok := s.movies[id]
	s.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf(`{"status_code":34,"status_message":"movie %d not found"}`, id), http.StatusNotFound)
		return
	}

	genres := make([]map[string]any, 0, len(m.Genres))
	for i, g := range m.Genres {
		genres = append(genres, map[string]any{"id": i + 1, "name": g})
	}
	crew := make([]map[string]any, 0, len(m.Directors)+1)
	crew = append(crew, map[string]any{"job": "Producer", "name": "Some Producer"})
	for _, d := range m.Directors {
		crew = append(crew, map[string]any{"job": "Director", "name": d})
	}
	cast := make([]map[string]any, 0, len(m.Cast))
	for i, c := range m.Cast {
		cast = append(cast, map[string]any{"name": c, "order": i})
	}
	payload := map[string]any{
		"id":            m.ID,
		"title":         m.Title,
		"release_date":  m.ReleaseDate,
		"poster_path":   m.PosterPath,
		"backdrop_path": "",
		"genres":        genres,
		"overview":      m.Overview,
		"vote_average":  m.VoteAverage,
		"vote_count":    m.VoteCount,
		"credits":       map[string]any{"crew": crew, "cast": cast},
	}
	if m.Runtime > 0 {
		payload["runtime"] = m.Runtime
	}
	writeFakeJSON(w, payload)
}

func writeFakeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
