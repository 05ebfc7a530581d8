// Package main is the entry point for the rowstore server.
//
// rowstore keeps tables of schemaless rows as msgpack files under a data
// directory and exposes them over a JSON HTTP API. Configuration is read from
// rowstore.yaml and .env in the data directory, then CLI flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/maruel/rowstore/internal/backup"
	"github.com/maruel/rowstore/internal/config"
	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server"
	"github.com/maruel/rowstore/internal/server/ratelimit"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "rowstore: %v\n", err)
		os.Exit(1)
	}
}

// flagNames maps command line flags to configuration settings.
var flagNames = map[string]string{
	"generation":     "generation",
	"http":           "http",
	"log-level":      "log_level",
	"backups":        "backups",
	"cache-bytes":    "cache_bytes",
	"verify-inserts": "verify_inserts",
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	flag.String("generation", "", "Database generation label, stored under db<generation>")
	flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Bool("backups", true, "Snapshot artifacts before writes, at most once per cooldown")
	flag.Int64("cache-bytes", rowstore.DefaultCacheBytes, "Artifact cache size in bytes; negative disables caching")
	flag.Bool("verify-inserts", false, "Read inserted rows back and log when missing")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	slog.SetDefault(newLogger(ll))

	cfg, err := config.Load(*dataDir)
	if err != nil {
		return err
	}
	// Flags explicitly set win over rowstore.yaml and .env.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if name, ok := flagNames[f.Name]; ok && flagErr == nil {
			flagErr = cfg.Set(name, f.Value.String())
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	ll.Set(level)

	var backups atomic.Int64
	store, err := rowstore.New(rowstore.Options{
		Root:           cfg.DataDir,
		Generation:     cfg.Generation,
		Backups:        cfg.Backups,
		BackupCooldown: cfg.BackupCooldown,
		CacheBytes:     cfg.CacheBytes,
		VerifyInserts:  cfg.VerifyInserts,
		OnBackup: func(res backup.Result) {
			if res.Status == backup.Written {
				backups.Add(1)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	limiters := ratelimit.New(cfg.RateLimits.ReadRatePerMin, cfg.RateLimits.WriteRatePerMin)
	defer limiters.Close()

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := cfg.HTTP
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	buildVersion, _, _, _ := getBuildInfo()
	httpServer := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(store, &server.Config{
			Version:             buildVersion,
			JWTSecret:           []byte(cfg.JWTSecret),
			MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		}, limiters),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "db", store.Dir(), "version", buildVersion, "auth", cfg.JWTSecret != "")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		s := store.CacheStats()
		slog.InfoContext(ctx, "Server stopped", "cache_hits", s.Hits, "cache_misses", s.Misses, "backups", backups.Load())
		return nil
	})
	return eg.Wait()
}

func newLogger(ll *slog.LevelVar) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Drop localhost IPs (not useful in logs).
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("rowstore %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable calls stop when the current executable is modified, so a
// rebuilt binary restarts under a supervisor.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
