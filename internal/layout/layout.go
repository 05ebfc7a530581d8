// Package layout maps table names to their on-disk artifacts.
//
// Each table owns a directory under the database directory
// <root>/db<generation>/<table>/ holding two artifacts: the columns artifact
// and the rows artifact. Both are created with empty documents on first
// access.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/rowstore/internal/codec"
)

// Artifact file names within a table directory.
const (
	ColumnsFile = "col.msgpack"
	RowsFile    = "rows.msgpack"
	BackupExt   = ".bak"
)

var (
	// ErrInvalidTable is returned for names that are not a single path segment.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrIO is wrapped around every filesystem failure.
	ErrIO = errors.New("i/o failure")
)

// Paths locates the artifacts of one table.
type Paths struct {
	Dir     string
	Columns string
	Rows    string
}

// Layout resolves tables within one database directory.
type Layout struct {
	dir          string
	emptyColumns []byte
	emptyRows    []byte
}

// New returns a Layout rooted at <root>/db<generation>.
func New(root, generation string) (*Layout, error) {
	if root == "" {
		return nil, errors.New("root is required")
	}
	if strings.ContainsAny(generation, `/\`) {
		return nil, fmt.Errorf("invalid generation label %q", generation)
	}
	cols, err := codec.EncodeColumns(nil)
	if err != nil {
		return nil, err
	}
	rows, err := codec.EncodeRows(nil)
	if err != nil {
		return nil, err
	}
	return &Layout{
		dir:          filepath.Join(root, "db"+generation),
		emptyColumns: cols,
		emptyRows:    rows,
	}, nil
}

// Dir returns the database directory.
func (l *Layout) Dir() string {
	return l.dir
}

// ValidateTable checks that name can be used as a table directory and cache key.
func ValidateTable(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	case strings.ContainsAny(name, "/\\:\x00"):
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidTable, name)
	}
	return nil
}

// Resolve returns the artifact paths for table, creating the directory and
// empty artifacts if missing. It is idempotent.
func (l *Layout) Resolve(table string) (Paths, error) {
	if err := ValidateTable(table); err != nil {
		return Paths{}, err
	}
	dir := filepath.Join(l.dir, table)
	p := Paths{
		Dir:     dir,
		Columns: filepath.Join(dir, ColumnsFile),
		Rows:    filepath.Join(dir, RowsFile),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directories are world readable
		return Paths{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := ensure(p.Columns, l.emptyColumns); err != nil {
		return Paths{}, err
	}
	if err := ensure(p.Rows, l.emptyRows); err != nil {
		return Paths{}, err
	}
	return p, nil
}

// Tables lists the table directories holding a rows artifact, sorted by name.
// Stray directories are ignored.
func (l *Layout) Tables() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	tables := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || ValidateTable(e.Name()) != nil {
			continue
		}
		if fi, err := os.Stat(filepath.Join(l.dir, e.Name(), RowsFile)); err == nil && fi.Mode().IsRegular() {
			tables = append(tables, e.Name())
		}
	}
	slices.Sort(tables)
	return tables, nil
}

// Backups lists the backup files in a table directory, sorted by name.
func Backups(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+BackupExt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	slices.Sort(matches)
	return matches, nil
}

func ensure(path string, empty []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return WriteFile(path, empty)
}

// WriteFile atomically replaces path with data using a temporary file in the
// same directory, fsync and rename. On failure the previous content is intact.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("%w: syncing %s: %w", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: closing %s: %w", ErrIO, path, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
