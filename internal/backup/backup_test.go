package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maruel/rowstore/internal/layout"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, enabled bool) (*Throttler, *fakeClock, string) {
	t.Helper()
	clk := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	path := filepath.Join(t.TempDir(), layout.RowsFile)
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(enabled, 0, WithClock(clk.Now)), clk, path
}

func TestMaybeBackup(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		th, _, path := setup(t, false)
		res := th.MaybeBackup(t.Context(), path)
		if res.Status != Disabled {
			t.Errorf("Status = %v, want disabled", res.Status)
		}
		files, _ := layout.Backups(filepath.Dir(path))
		if len(files) != 0 {
			t.Errorf("backups = %v, want none", files)
		}
	})

	t.Run("cadence", func(t *testing.T) {
		th, clk, path := setup(t, true)
		ctx := t.Context()

		first := th.MaybeBackup(ctx, path)
		if first.Status != Written {
			t.Fatalf("first Status = %v (%v), want written", first.Status, first.Err)
		}
		if want := path + ".1700000000000.bak"; first.Path != want {
			t.Errorf("Path = %q, want %q", first.Path, want)
		}
		if b, _ := os.ReadFile(first.Path); string(b) != "v1" {
			t.Errorf("backup content = %q, want v1", b)
		}

		clk.Advance(4999 * time.Millisecond)
		if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
		if res := th.MaybeBackup(ctx, path); res.Status != Throttled {
			t.Errorf("second Status = %v, want throttled", res.Status)
		}

		clk.Advance(time.Millisecond)
		third := th.MaybeBackup(ctx, path)
		if third.Status != Written {
			t.Fatalf("third Status = %v (%v), want written", third.Status, third.Err)
		}
		if b, _ := os.ReadFile(third.Path); string(b) != "v2" {
			t.Errorf("backup content = %q, want v2", b)
		}
		files, err := layout.Backups(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 2 {
			t.Errorf("backups = %v, want 2", files)
		}
	})

	t.Run("per artifact", func(t *testing.T) {
		th, _, path := setup(t, true)
		other := filepath.Join(filepath.Dir(path), layout.ColumnsFile)
		if err := os.WriteFile(other, []byte("c"), 0o644); err != nil {
			t.Fatal(err)
		}
		if res := th.MaybeBackup(t.Context(), path); res.Status != Written {
			t.Errorf("rows Status = %v", res.Status)
		}
		if res := th.MaybeBackup(t.Context(), other); res.Status != Written {
			t.Errorf("columns Status = %v", res.Status)
		}
	})

	t.Run("failure is reported not raised", func(t *testing.T) {
		th, clk, path := setup(t, true)
		missing := filepath.Join(filepath.Dir(path), "missing.msgpack")
		res := th.MaybeBackup(t.Context(), missing)
		if res.Status != Failed || !errors.Is(res.Err, ErrBackupWrite) {
			t.Fatalf("Result = %+v, want failed with ErrBackupWrite", res)
		}
		// A failure does not start the cooldown.
		if err := os.WriteFile(missing, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Millisecond)
		if res := th.MaybeBackup(t.Context(), missing); res.Status != Written {
			t.Errorf("retry Status = %v, want written", res.Status)
		}
	})

	t.Run("never overwrites", func(t *testing.T) {
		th, _, path := setup(t, true)
		existing := path + ".1700000000000" + layout.BackupExt
		if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
		res := th.MaybeBackup(t.Context(), path)
		if res.Status != Failed {
			t.Errorf("Status = %v, want failed", res.Status)
		}
		if b, _ := os.ReadFile(existing); string(b) != "old" {
			t.Errorf("existing backup modified: %q", b)
		}
	})
}

func TestClear(t *testing.T) {
	th, clk, path := setup(t, true)
	ctx := context.Background()
	for range 3 {
		if res := th.MaybeBackup(ctx, path); res.Status != Written {
			t.Fatalf("Status = %v", res.Status)
		}
		clk.Advance(DefaultCooldown)
	}
	n, err := th.Clear(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), layout.BackupExt) {
			t.Errorf("backup %s survived Clear", e.Name())
		}
	}
	if b, _ := os.ReadFile(path); string(b) != "v1" {
		t.Errorf("live artifact changed: %q", b)
	}
	// Throttle state is reset: an immediate backup is allowed.
	if res := th.MaybeBackup(ctx, path); res.Status != Written {
		t.Errorf("Status after Clear = %v, want written", res.Status)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{Disabled: "disabled", Throttled: "throttled", Written: "written", Failed: "failed", Status(9): "Status(9)"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
