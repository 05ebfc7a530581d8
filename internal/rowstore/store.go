package rowstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/maruel/rowstore/internal/backup"
	"github.com/maruel/rowstore/internal/cache"
	"github.com/maruel/rowstore/internal/codec"
	"github.com/maruel/rowstore/internal/layout"
	"github.com/maruel/rowstore/internal/row"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheBytes is the cache capacity used when Options.CacheBytes is 0.
const DefaultCacheBytes = 64 << 20

// Options configures a Store. Values are read once by New.
type Options struct {
	// Root is the data directory; tables live under Root/db<Generation>.
	Root string
	// Generation labels the database directory.
	Generation string
	// Backups enables snapshots before destructive writes.
	Backups bool
	// BackupCooldown defaults to backup.DefaultCooldown.
	BackupCooldown time.Duration
	// CacheBytes bounds the cache; negative disables caching.
	CacheBytes int64
	// VerifyInserts reads each inserted row back and logs if it is missing.
	VerifyInserts bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// OnBackup, when set, is called with the outcome of every backup attempt.
	OnBackup func(backup.Result)
	// Clock overrides time.Now for the backup throttler.
	Clock func() time.Time
}

// Store is the row store engine. It is safe for concurrent use.
type Store struct {
	layout   *layout.Layout
	backups  *backup.Throttler
	cache    *cache.LRU
	loads    singleflight.Group
	logger   *slog.Logger
	verify   bool
	onBackup func(backup.Result)

	mu     sync.Mutex
	tables map[string]*sync.RWMutex
}

// New creates a Store. The database directory is created lazily on first
// table access.
func New(opts Options) (*Store, error) {
	l, err := layout.New(opts.Root, opts.Generation)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := opts.CacheBytes
	switch {
	case capacity == 0:
		capacity = DefaultCacheBytes
	case capacity < 0:
		capacity = 0
	}
	bopts := []backup.Option{backup.WithLogger(logger)}
	if opts.Clock != nil {
		bopts = append(bopts, backup.WithClock(opts.Clock))
	}
	return &Store{
		layout:   l,
		backups:  backup.New(opts.Backups, opts.BackupCooldown, bopts...),
		cache:    cache.New(capacity),
		logger:   logger,
		verify:   opts.VerifyInserts,
		onBackup: opts.OnBackup,
		tables:   make(map[string]*sync.RWMutex),
	}, nil
}

// Dir returns the database directory.
func (s *Store) Dir() string {
	return s.layout.Dir()
}

// CacheStats returns the cache counters.
func (s *Store) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// lock returns the mutex guarding table.
func (s *Store) lock(table string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.tables[table]
	if !ok {
		m = &sync.RWMutex{}
		s.tables[table] = m
	}
	return m
}

// acquire validates table, takes its lock and resolves its artifacts. The
// artifacts are created under the lock so a concurrent writer is never
// clobbered by an empty document. Call the returned func to unlock.
func (s *Store) acquire(table string, write bool) (layout.Paths, func(), error) {
	if err := layout.ValidateTable(table); err != nil {
		return layout.Paths{}, nil, err
	}
	m := s.lock(table)
	unlock := m.RUnlock
	if write {
		m.Lock()
		unlock = m.Unlock
	} else {
		m.RLock()
	}
	p, err := s.layout.Resolve(table)
	if err != nil {
		unlock()
		return layout.Paths{}, nil, err
	}
	return p, unlock, nil
}

func colsKey(table string) string { return table + ":cols" }
func rowsKey(table string) string { return table + ":rows" }

// loadColumns returns the cached column list, loading it on a miss. The
// returned slice is shared with the cache and must not be mutated.
func (s *Store) loadColumns(ctx context.Context, table string, p layout.Paths) ([]string, error) {
	key := colsKey(table)
	if v, ok := s.cache.Get(key); ok {
		return v.([]string), nil
	}
	v, err, _ := s.loads.Do(key, func() (any, error) {
		data, err := readArtifact(p.Columns)
		if err != nil {
			return nil, err
		}
		cols, err := codec.DecodeColumns(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Columns, err)
		}
		s.cache.Set(key, cols, int64(len(data)))
		s.logger.DebugContext(ctx, "Loaded columns", "table", table, "bytes", len(data))
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// loadRows returns the cached row collection, loading it on a miss. The
// returned slice and its rows are shared with the cache and must not be
// mutated.
func (s *Store) loadRows(ctx context.Context, table string, p layout.Paths) ([]row.Row, error) {
	key := rowsKey(table)
	if v, ok := s.cache.Get(key); ok {
		return v.([]row.Row), nil
	}
	v, err, _ := s.loads.Do(key, func() (any, error) {
		data, err := readArtifact(p.Rows)
		if err != nil {
			return nil, err
		}
		rows, err := codec.DecodeRows(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Rows, err)
		}
		s.cache.Set(key, rows, int64(len(data)))
		s.logger.DebugContext(ctx, "Loaded rows", "table", table, "rows", len(rows), "bytes", len(data))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]row.Row), nil
}

func (s *Store) persistColumns(ctx context.Context, table string, p layout.Paths, cols []string) error {
	data, err := codec.EncodeColumns(cols)
	if err != nil {
		return err
	}
	s.backup(ctx, p.Columns)
	if err := layout.WriteFile(p.Columns, data); err != nil {
		return err
	}
	s.cache.Set(colsKey(table), cols, int64(len(data)))
	return nil
}

// persistRows takes ownership of rows; the caller must not mutate it after.
func (s *Store) persistRows(ctx context.Context, table string, p layout.Paths, rows []row.Row) error {
	data, err := codec.EncodeRows(rows)
	if err != nil {
		return err
	}
	s.backup(ctx, p.Rows)
	if err := layout.WriteFile(p.Rows, data); err != nil {
		return err
	}
	s.cache.Set(rowsKey(table), rows, int64(len(data)))
	return nil
}

func (s *Store) backup(ctx context.Context, path string) {
	res := s.backups.MaybeBackup(ctx, path)
	if s.onBackup != nil {
		s.onBackup(res)
	}
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built by layout from a validated table name
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return data, nil
}
