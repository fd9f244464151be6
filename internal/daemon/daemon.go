// Package daemon provides continuous reconciliation for one project.
//
// The daemon:
//  1. Performs an initial full sweep
//  2. Watches the handoffs tree for artifact changes
//  3. Re-ingests created and modified files, debounced
//  4. Removes store rows for deleted files
//
// Stale-row removal here is an explicit, daemon-only policy. Health
// checks only report stale rows; they never delete.
package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/store"
	"github.com/calebdoyle/hsync/internal/sweep"
)

// Config holds daemon tuning knobs.
type Config struct {
	// DebounceInterval batches rapid updates to the same file.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger

	// OnChange, if set, is called after each applied change. Used by the
	// dashboard to broadcast activity.
	OnChange func(path string, deleted bool)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// NewRotatingLogger returns a daemon logger writing to a size-rotated
// file under dir. An empty dir logs to stderr instead.
func NewRotatingLogger(dir string) *log.Logger {
	if dir == "" {
		return log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "hsync-daemon.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	return log.New(writer, "[daemon] ", log.LstdFlags)
}

// Daemon watches one project's handoffs tree and keeps the store synced.
type Daemon struct {
	db          *store.DB
	sweeper     *sweep.Sweeper
	projectRoot string
	config      *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]bool // path -> seen delete
	changeQueueMu sync.Mutex
}

// New creates a daemon for a project root. Pass nil config for defaults.
func New(db *store.DB, sweeper *sweep.Sweeper, projectRoot string, config *Config) (*Daemon, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		db:          db,
		sweeper:     sweeper,
		projectRoot: projectRoot,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]bool),
	}, nil
}

// Start runs the daemon until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	defer d.watcher.Close()

	d.config.Logger.Printf("Starting daemon for %s", d.projectRoot)

	// Initial full sweep so the watcher only has to track deltas.
	if result, err := d.sweeper.SweepProject(ctx, d.projectRoot, sweep.Options{}); err != nil {
		return fmt.Errorf("initial sweep failed: %w", err)
	} else {
		d.config.Logger.Printf("Initial sweep: %d files, %d ingested", result.Files, result.Ingested)
	}

	handoffDir := artifact.Dir(d.projectRoot)
	if err := d.watchTree(handoffDir); err != nil {
		return err
	}

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.config.Logger.Println("Daemon stopping")
			return nil

		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.config.Logger.Printf("Watcher error: %v", err)

		case <-ticker.C:
			d.flush(ctx)
		}
	}
}

// watchTree registers the handoffs directory and all existing
// subdirectories. fsnotify is not recursive; new session directories are
// added as they appear.
func (d *Daemon) watchTree(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create handoffs directory: %w", err)
	}
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := d.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (d *Daemon) handleEvent(event fsnotify.Event) {
	// A new session directory must be watched before its files arrive.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := d.watcher.Add(event.Name); err != nil {
				d.config.Logger.Printf("Failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !artifact.IsArtifactPath(event.Name) {
		return
	}

	var deleted bool
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		deleted = false
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		deleted = true
	default:
		return
	}

	d.changeQueueMu.Lock()
	d.changeQueue[event.Name] = deleted
	d.changeQueueMu.Unlock()
}

// flush applies queued changes. Per-file failures are logged and
// dropped; the daemon keeps running.
func (d *Daemon) flush(ctx context.Context) {
	d.changeQueueMu.Lock()
	if len(d.changeQueue) == 0 {
		d.changeQueueMu.Unlock()
		return
	}
	queue := d.changeQueue
	d.changeQueue = make(map[string]bool)
	d.changeQueueMu.Unlock()

	for path, deleted := range queue {
		abs, err := filepath.Abs(path)
		if err != nil {
			d.config.Logger.Printf("Failed to resolve %s: %v", path, err)
			continue
		}

		if deleted {
			if err := d.db.DeleteByPath(ctx, abs); err != nil {
				d.config.Logger.Printf("Failed to delete row for %s: %v", abs, err)
				continue
			}
			d.config.Logger.Printf("Removed: %s", abs)
		} else {
			if err := d.ingest(ctx, abs); err != nil {
				d.config.Logger.Printf("Failed to ingest %s: %v", abs, err)
				continue
			}
			d.config.Logger.Printf("Ingested: %s", abs)
		}

		if d.config.OnChange != nil {
			d.config.OnChange(abs, deleted)
		}
	}
}

func (d *Daemon) ingest(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unreadable: %w", err)
	}
	rec, err := artifact.BuildRecord(path, string(content))
	if err != nil {
		return err
	}
	return d.db.UpsertArtifactContext(ctx, rec)
}
