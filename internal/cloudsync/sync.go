package cloudsync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cinefile/internal/backup"
	"cinefile/internal/config"
	"cinefile/internal/logging"
	"cinefile/internal/store"
)

// Status is the outcome of SyncNow.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDisabled Status = "disabled"
	StatusError    Status = "error"
)

const defaultBatchSize = 500

// Result reports what a sync moved.
type Result struct {
	Status Status        `json:"status"`
	Pulled backup.Counts `json:"pulled"`
	Pushed backup.Counts `json:"pushed"`
	Error  string        `json:"error,omitempty"`
}

// Syncer pushes and pulls one user's records.
type Syncer struct {
	db        *sql.DB
	store     *store.Store
	userID    string
	batchSize int
	logger    *slog.Logger
}

// Open connects to the database named by cfg.Sync using the pgx driver.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dsn := cfg.Sync.DatabaseURL
	if dsn == "" {
		return nil, errors.New("sync database_url is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sync database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sync database: %w", err)
	}
	return db, nil
}

// New constructs a Syncer over an open database.
func New(db *sql.DB, st *store.Store, userID string, batchSize int, logger *slog.Logger) (*Syncer, error) {
	if db == nil || st == nil {
		return nil, errors.New("syncer requires database and store")
	}
	if userID == "" {
		return nil, errors.New("sync user_id is empty")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Syncer{
		db:        db,
		store:     st,
		userID:    userID,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "cloudsync"),
	}, nil
}

// EnsureSchema creates the sync tables when missing.
func (s *Syncer) EnsureSchema(ctx context.Context) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
	}
	return nil
}

// Pull applies every remote row for the user to the local store in one
// transaction. Remote rows overwrite local rows with the same id.
func (s *Syncer) Pull(ctx context.Context) (backup.Counts, error) {
	doc := &backup.Document{Schema: backup.SchemaVersion}
	if err := selectInto(ctx, s.db, moviesTable, s.userID, &doc.Movies); err != nil {
		return backup.Counts{}, err
	}
	if err := selectInto(ctx, s.db, listsTable, s.userID, &doc.Lists); err != nil {
		return backup.Counts{}, err
	}
	if err := selectInto(ctx, s.db, itemsTable, s.userID, &doc.ListItems); err != nil {
		return backup.Counts{}, err
	}
	counts, err := backup.Restore(ctx, s.store, doc, backup.Options{})
	if err != nil {
		return backup.Counts{}, err
	}
	s.logger.Info("sync pull applied",
		logging.Int("movies", counts.Movies),
		logging.Int("lists", counts.Lists),
		logging.Int("items", counts.Items),
	)
	return counts, nil
}

// Push upserts every local record for the user in batches inside one
// remote transaction.
func (s *Syncer) Push(ctx context.Context) (backup.Counts, error) {
	doc, err := backup.Snapshot(ctx, s.store)
	if err != nil {
		return backup.Counts{}, err
	}
	rows := map[string][]row{}
	for _, m := range doc.Movies {
		r, err := newRow(strconv.FormatInt(m.ID, 10), m, m.UpdatedAt)
		if err != nil {
			return backup.Counts{}, err
		}
		rows[moviesTable.name] = append(rows[moviesTable.name], r)
	}
	for _, l := range doc.Lists {
		r, err := newRow(l.ID, l, l.UpdatedAt)
		if err != nil {
			return backup.Counts{}, err
		}
		rows[listsTable.name] = append(rows[listsTable.name], r)
	}
	for _, item := range doc.ListItems {
		r, err := newRow(item.ID, item, item.AddedAt)
		if err != nil {
			return backup.Counts{}, err
		}
		rows[itemsTable.name] = append(rows[itemsTable.name], r)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backup.Counts{}, fmt.Errorf("begin push: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range tables {
		if err := s.upsert(ctx, tx, t, rows[t.name]); err != nil {
			return backup.Counts{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return backup.Counts{}, fmt.Errorf("commit push: %w", err)
	}
	counts := backup.Counts{Movies: len(doc.Movies), Lists: len(doc.Lists), Items: len(doc.ListItems)}
	s.logger.Info("sync push committed",
		logging.Int("movies", counts.Movies),
		logging.Int("lists", counts.Lists),
		logging.Int("items", counts.Items),
	)
	return counts, nil
}

// SyncNow pulls then pushes. Failures are reported in the result rather than
// returned so callers can treat sync as best effort.
func (s *Syncer) SyncNow(ctx context.Context) Result {
	if s == nil {
		return Result{Status: StatusDisabled}
	}
	var result Result
	var err error
	if err = s.EnsureSchema(ctx); err == nil {
		if result.Pulled, err = s.Pull(ctx); err == nil {
			result.Pushed, err = s.Push(ctx)
		}
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "sync failed", "sync_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check sync.database_url and network access"),
			logging.String(logging.FieldImpact, "local data is unchanged on the remote"),
		)
		result.Status = StatusError
		result.Error = err.Error()
		return result
	}
	result.Status = StatusOK
	return result
}

type row struct {
	id        string
	data      []byte
	updatedAt time.Time
}

func newRow(id string, record any, updatedAt time.Time) (row, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return row{}, fmt.Errorf("encode %s: %w", id, err)
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return row{id: id, data: data, updatedAt: updatedAt}, nil
}

func (s *Syncer) upsert(ctx context.Context, tx *sql.Tx, t table, rows []row) error {
	for _, span := range batches(len(rows), s.batchSize) {
		chunk := rows[span[0]:span[1]]
		args := make([]any, 0, len(chunk)*4)
		for _, r := range chunk {
			args = append(args, s.userID, r.id, string(r.data), r.updatedAt)
		}
		if _, err := tx.ExecContext(ctx, t.upsertSQL(len(chunk)), args...); err != nil {
			return fmt.Errorf("upsert %s rows %d-%d: %w", t.name, span[0], span[1], err)
		}
	}
	return nil
}

func selectInto[T any](ctx context.Context, db *sql.DB, t table, userID string, out *[]T) error {
	rows, err := db.QueryContext(ctx, t.selectSQL(), userID)
	if err != nil {
		return fmt.Errorf("select %s: %w", t.name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scan %s: %w", t.name, err)
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("decode %s row: %w", t.name, err)
		}
		*out = append(*out, record)
	}
	return rows.Err()
}

// FromConfig opens a Syncer when sync is enabled. It returns nil, nil when
// sync is disabled; the caller owns closing the returned database.
func FromConfig(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (*Syncer, *sql.DB, error) {
	if !cfg.Sync.Enabled {
		return nil, nil, nil
	}
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	syncer, err := New(db, st, cfg.Sync.UserID, cfg.Sync.BatchSize, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return syncer, db, nil
}
