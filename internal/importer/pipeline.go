package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"cinefile/internal/catalog"
	"cinefile/internal/logging"
	"cinefile/internal/store"
	"cinefile/internal/textutil"
)

// Resolver is the subset of catalog.Resolver the pipeline depends on.
type Resolver interface {
	HasCredential() bool
	ResolveID(ctx context.Context, title string, year int) (int64, error)
	FetchDetails(ctx context.Context, id int64) (store.Movie, error)
}

// SkipReason explains why a row produced no membership.
type SkipReason string

const (
	SkipMissingTitle SkipReason = "missing_title"
	SkipNoCredential SkipReason = "no_credential"
	SkipNoMatch      SkipReason = "no_match"
	SkipCatalogError SkipReason = "catalog_error"
	SkipDuplicate    SkipReason = "duplicate"
)

const (
	msgNoCredential = "No TMDB API key set and the import lacks tmdb_id values."
	msgNoneResolved = "No rows could be resolved to TMDB ids."
)

// Skip records one skipped row.
type Skip struct {
	Line   int        `json:"line"`
	Title  string     `json:"title,omitempty"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Result summarises an import. Partial success is the normal case.
type Result struct {
	RunID          string             `json:"runId"`
	ListID         string             `json:"listId"`
	Imported       int                `json:"imported"`
	Skipped        int                `json:"skipped"`
	Reasons        map[SkipReason]int `json:"reasons,omitempty"`
	Skips          []Skip             `json:"skips,omitempty"`
	Written        bool               `json:"written"`
	Message        string             `json:"message,omitempty"`
	DetailsFetched int                `json:"detailsFetched"`
	DetailsFailed  int                `json:"detailsFailed"`
}

func (r *Result) skip(rec Record, reason SkipReason, detail string) {
	r.Skipped++
	if r.Reasons == nil {
		r.Reasons = make(map[SkipReason]int)
	}
	r.Reasons[reason]++
	r.Skips = append(r.Skips, Skip{Line: rec.Line, Title: rec.Title, Reason: reason, Detail: detail})
}

// ListMeta describes the list an import writes to.
type ListMeta struct {
	ID         string
	Name       string
	Slug       string
	Source     string
	CreatedBy  string
	Visibility store.Visibility
}

var slugTagSplit = regexp.MustCompile(`[\s:_-]`)

// MetaFromFile derives list metadata from an import file name:
// "tspdt_greatest-films.csv" becomes id "tspdt-greatest-films", name
// "Tspdt Greatest Films", grouping tag "tspdt".
func MetaFromFile(path string) ListMeta {
	file := filepath.Base(path)
	base := strings.TrimSuffix(file, filepath.Ext(file))
	tag := slugTagSplit.Split(base, 2)[0]
	if tag == "" {
		tag = "Imported"
	}
	name := textutil.NameFromFileName(path)
	if name == "" {
		name = base
	}
	return ListMeta{
		ID:         textutil.Slugify(base),
		Name:       name,
		Slug:       tag,
		Source:     file,
		CreatedBy:  store.CreatedByImport,
		Visibility: store.VisibilityPublic,
	}
}

// Pipeline resolves raw rows to catalog ids and writes list memberships.
type Pipeline struct {
	store        *store.Store
	resolver     Resolver
	logger       *slog.Logger
	fetchDetails bool
	defaultRanks bool
	newRunID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "importer")
	}
}

// WithoutDetails skips the post-write detail fetch, leaving movies to
// background enrichment.
func WithoutDetails() Option {
	return func(p *Pipeline) { p.fetchDetails = false }
}

// WithDefaultRanks assigns unranked rows their position among resolved rows.
func WithDefaultRanks() Option {
	return func(p *Pipeline) { p.defaultRanks = true }
}

// New creates a Pipeline.
func New(st *store.Store, resolver Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:        st,
		resolver:     resolver,
		logger:       logging.NewComponentLogger(nil, "importer"),
		fetchDetails: true,
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ImportFile parses path and imports it into the list derived from its name,
// overridden by any non-empty field of meta.
func (p *Pipeline) ImportFile(ctx context.Context, path string, meta ListMeta) (*Result, error) {
	records, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	derived := MetaFromFile(path)
	if meta.ID != "" {
		derived.ID = textutil.Slugify(meta.ID)
	}
	if meta.Name != "" {
		derived.Name = meta.Name
	}
	if meta.Slug != "" {
		derived.Slug = meta.Slug
	}
	if meta.Source != "" {
		derived.Source = meta.Source
	}
	if meta.CreatedBy != "" {
		derived.CreatedBy = meta.CreatedBy
	}
	if meta.Visibility != "" {
		derived.Visibility = meta.Visibility
	}
	return p.Import(ctx, derived, records)
}

// Import resolves records and replaces the membership set of meta.ID in one
// transaction. When no row resolves nothing is written and Result.Message
// explains why. Missing movie details are fetched after the commit.
func (p *Pipeline) Import(ctx context.Context, meta ListMeta, records []Record) (*Result, error) {
	if meta.ID == "" || meta.ID == store.PlaceholderListID || meta.ID == store.TopListID {
		return nil, fmt.Errorf("%w: list id %q is not usable", store.ErrInvalidList, meta.ID)
	}
	if meta.Name == "" {
		meta.Name = meta.ID
	}
	ctx, logger, result := p.begin(ctx, meta.ID)

	items, err := p.resolve(ctx, logger, meta.ID, records, result)
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		p.explainEmpty(records, result)
		logging.WarnWithContext(logger, "import resolved no rows", "import_empty",
			logging.Int("rows", len(records)),
			logging.String(logging.FieldErrorHint, result.Message),
			logging.String(logging.FieldImpact, "list left unchanged"),
		)
		return result, nil
	}

	def := store.List{
		ID:         meta.ID,
		Name:       meta.Name,
		Slug:       meta.Slug,
		Source:     meta.Source,
		CreatedBy:  meta.CreatedBy,
		Visibility: meta.Visibility,
	}
	if _, err := p.store.ReplaceListMemberships(ctx, def, items); err != nil {
		return result, err
	}
	result.Written = true
	logger.Info("import written",
		logging.Int("imported", result.Imported),
		logging.Int("skipped", result.Skipped),
	)

	p.fetchMissing(ctx, logger, items, result)
	return result, nil
}

// RebuildMemberships resolves records and replaces the memberships of an
// existing list without touching its definition.
func (p *Pipeline) RebuildMemberships(ctx context.Context, listID string, records []Record) (*Result, error) {
	ctx, logger, result := p.begin(ctx, listID)

	items, err := p.resolve(ctx, logger, listID, records, result)
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		p.explainEmpty(records, result)
		return result, nil
	}
	err = p.store.WithTx(ctx, func(tx *store.Tx) error {
		list, err := tx.List(ctx, listID)
		if err != nil {
			return err
		}
		if list == nil {
			return fmt.Errorf("list %q: %w", listID, store.ErrListNotFound)
		}
		if err := tx.DeleteItemsByList(ctx, listID); err != nil {
			return err
		}
		if err := tx.PutItems(ctx, items); err != nil {
			return err
		}
		_, err = tx.RecountList(ctx, listID)
		return err
	})
	if err != nil {
		return result, err
	}
	result.Written = true
	logger.Info("memberships rebuilt", logging.Int("imported", result.Imported))

	p.fetchMissing(ctx, logger, items, result)
	return result, nil
}

func (p *Pipeline) begin(ctx context.Context, listID string) (context.Context, *slog.Logger, *Result) {
	runID := p.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithListID(ctx, listID)
	return ctx, logging.WithContext(ctx, p.logger), &Result{RunID: runID, ListID: listID}
}

// resolve turns records into membership items. Row-level failures become
// skips; only context cancellation aborts.
func (p *Pipeline) resolve(ctx context.Context, logger *slog.Logger, listID string, records []Record, result *Result) ([]store.ListItem, error) {
	var (
		items   []store.ListItem
		seen    = make(map[int64]struct{}, len(records))
		usedIDs = make(map[string]struct{}, len(records))
	)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := rec.TMDBID
		if id <= 0 {
			if strings.TrimSpace(rec.Title) == "" {
				result.skip(rec, SkipMissingTitle, "")
				continue
			}
			resolved, err := p.resolveTitle(ctx, rec)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				reason := skipReason(err)
				result.skip(rec, reason, err.Error())
				logger.Debug("row skipped",
					logging.String("title", rec.Title),
					logging.Int("year", rec.Year),
					logging.String("reason", string(reason)),
				)
				continue
			}
			id = resolved
		}
		if _, dup := seen[id]; dup {
			result.skip(rec, SkipDuplicate, fmt.Sprintf("movie %d already in list", id))
			continue
		}
		seen[id] = struct{}{}

		sequence := len(items) + 1
		rank := rec.Rank
		if rank == nil && p.defaultRanks {
			rank = store.IntPtr(sequence)
		}
		key := sequence
		if rec.Rank != nil {
			key = *rec.Rank
		}
		itemID := store.ItemID(listID, key)
		if _, taken := usedIDs[itemID]; taken {
			itemID = store.UniqueItemID(listID, key, id)
		}
		usedIDs[itemID] = struct{}{}

		items = append(items, store.ListItem{ID: itemID, ListID: listID, MovieID: id, Rank: rank})
	}
	result.Imported = len(items)
	return items, nil
}

func (p *Pipeline) resolveTitle(ctx context.Context, rec Record) (int64, error) {
	if p.resolver == nil {
		return 0, catalog.ErrCredentialMissing
	}
	return p.resolver.ResolveID(ctx, rec.Title, rec.Year)
}

func skipReason(err error) SkipReason {
	switch catalog.ErrorKind(err) {
	case "no_credential":
		return SkipNoCredential
	case "no_match":
		return SkipNoMatch
	default:
		return SkipCatalogError
	}
}

func (p *Pipeline) explainEmpty(records []Record, result *Result) {
	hasIDs := false
	for _, rec := range records {
		if rec.TMDBID > 0 {
			hasIDs = true
			break
		}
	}
	credential := p.resolver != nil && p.resolver.HasCredential()
	if !credential && !hasIDs {
		result.Message = msgNoCredential
		return
	}
	result.Message = msgNoneResolved
}

// fetchMissing caches details for movies without a record. Failures are
// logged per id and never undo the import.
func (p *Pipeline) fetchMissing(ctx context.Context, logger *slog.Logger, items []store.ListItem, result *Result) {
	if !p.fetchDetails || p.resolver == nil || !p.resolver.HasCredential() {
		return
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MovieID)
	}
	missing, err := p.store.MissingMovieIDs(ctx, ids)
	if err != nil {
		logging.WarnWithContext(logger, "could not list uncached movies", "detail_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "movie details will be fetched by background enrichment"),
		)
		return
	}
	for _, id := range missing {
		if ctx.Err() != nil {
			return
		}
		movie, err := p.resolver.FetchDetails(ctx, id)
		if err == nil {
			_, err = p.store.MergeMovieDetails(ctx, movie)
		}
		if err != nil {
			result.DetailsFailed++
			logging.WarnWithContext(logger, "movie detail fetch failed", "detail_fetch_failed",
				logging.Int64(logging.FieldMovieID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, detailHint(err)),
				logging.String(logging.FieldImpact, "movie shows as a placeholder until backfilled"),
			)
			continue
		}
		result.DetailsFetched++
	}
}

func detailHint(err error) string {
	if catalog.IsAuthFailure(err) {
		return "check tmdb.api_key"
	}
	if errors.Is(err, catalog.ErrNoMatch) {
		return "the id does not exist in TMDB"
	}
	return "retry later; enrichment will pick the movie up"
}
