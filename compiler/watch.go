package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/cdmgen/compiler/gen"
	"github.com/syssam/cdmgen/compiler/load"
)

// ReportFunc receives the outcome of every run started by Watch.
type ReportFunc func(*Report, error)

// Watch generates the package once and then again every time a schema
// document under schemaDir is created, written, renamed or removed. Events
// are coalesced until no new event arrives for the debounce interval.
// Watch returns when ctx is done.
func Watch(ctx context.Context, schemaDir string, cfg *gen.Config, onReport ReportFunc, opts ...Option) error {
	if cfg == nil {
		return gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	o := newOptions(opts...)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	suffix := cfg.Suffix
	if suffix == "" {
		suffix = load.DefaultSuffix
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cdmgen: create watcher: %w", err)
	}
	defer w.Close()
	skip, _ := filepath.Abs(cfg.Target)
	if err := watchTree(w, schemaDir, skip); err != nil {
		return err
	}
	run := func() {
		report, err := Generate(ctx, schemaDir, cfg, opts...)
		if onReport != nil {
			onReport(report, err)
		}
	}
	run()
	logger.Info("watching schema documents", "dir", schemaDir, "debounce", o.debounce)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if err := watchTree(w, ev.Name, skip); err != nil {
					logger.Warn("watch directory", "path", ev.Name, "error", err)
				}
			}
			if !relevant(ev, suffix) {
				continue
			}
			logger.Debug("schema change", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			pending = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-pending:
			pending = nil
			run()
		}
	}
}

// watchTree adds root and every directory below it to w, except skip.
func watchTree(w *fsnotify.Watcher, root, skip string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); skip != "" && abs == skip {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("cdmgen: watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether ev may change the loaded corpus. Removed or
// renamed paths are always relevant since a directory may have vanished.
func relevant(ev fsnotify.Event, suffix string) bool {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return true
	}
	if ev.Has(fsnotify.Create) && isDir(ev.Name) {
		return true
	}
	return (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && strings.HasSuffix(ev.Name, suffix)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
