// Package backup snapshots artifacts before they are overwritten.
//
// Snapshots are best effort: at most one per artifact per cooldown window, and
// a failed snapshot never fails the write that triggered it. Mutations landing
// inside the same window share a single snapshot, so intermediate states are
// not recoverable.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/maruel/rowstore/internal/layout"
)

// DefaultCooldown is the minimum time between two backups of one artifact.
const DefaultCooldown = 5000 * time.Millisecond

// ErrBackupWrite is wrapped in Result.Err when a snapshot could not be written.
var ErrBackupWrite = errors.New("backup write failed")

// Status is the outcome of a MaybeBackup call.
type Status int

const (
	// Disabled means backups are turned off.
	Disabled Status = iota
	// Throttled means a backup of the artifact was taken within the cooldown.
	Throttled
	// Written means a new backup file was created.
	Written
	// Failed means the backup could not be written.
	Failed
)

func (s Status) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Throttled:
		return "throttled"
	case Written:
		return "written"
	case Failed:
		return "failed"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Result describes what MaybeBackup did for one artifact.
type Result struct {
	Source string
	Status Status
	Path   string // backup file, set when Status is Written
	Err    error  // set when Status is Failed
}

// Throttler decides when to snapshot and records the last snapshot time per
// artifact. It is safe for concurrent use.
type Throttler struct {
	enabled  bool
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// Option configures a Throttler.
type Option func(*Throttler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Throttler) { t.now = now }
}

// WithLogger sets the logger used to report failed backups.
func WithLogger(l *slog.Logger) Option {
	return func(t *Throttler) { t.logger = l }
}

// New returns a Throttler. A non-positive cooldown uses DefaultCooldown.
func New(enabled bool, cooldown time.Duration, opts ...Option) *Throttler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	t := &Throttler{
		enabled:  enabled,
		cooldown: cooldown,
		now:      time.Now,
		logger:   slog.Default(),
		last:     make(map[string]time.Time),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// MaybeBackup copies the current bytes of path to <path>.<unixMillis>.bak
// unless backups are disabled or one was taken within the cooldown.
func (t *Throttler) MaybeBackup(ctx context.Context, path string) Result {
	res := Result{Source: path}
	if !t.enabled {
		res.Status = Disabled
		return res
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if prev, ok := t.last[path]; ok && now.Sub(prev) < t.cooldown {
		res.Status = Throttled
		return res
	}
	dst := path + "." + strconv.FormatInt(now.UnixMilli(), 10) + layout.BackupExt
	if err := copyFile(path, dst); err != nil {
		res.Status = Failed
		res.Err = fmt.Errorf("%w: %w", ErrBackupWrite, err)
		t.logger.WarnContext(ctx, "Failed to write backup", "path", path, "err", err)
		return res
	}
	t.last[path] = now
	res.Status = Written
	res.Path = dst
	t.logger.DebugContext(ctx, "Wrote backup", "path", dst)
	return res
}

// Clear removes every backup in a table directory and forgets the throttle
// state of its artifacts. Live artifacts are not touched.
func (t *Throttler) Clear(dir string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	files, err := layout.Backups(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return n, fmt.Errorf("%w: %w", layout.ErrIO, err)
		}
		n++
	}
	for p := range t.last {
		if filepath.Dir(p) == dir {
			delete(t.last, p)
		}
	}
	return n, nil
}

// copyFile never overwrites an existing backup.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // G304: src is an artifact path built by layout
	if err != nil {
		return err
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // G302: backups mirror artifact permissions
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
