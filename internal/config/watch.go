package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/fluree/db-sub010/internal/errs"
)

// Watcher reloads a Connection from its fluree.toml file whenever the
// file changes on disk, letting a long-lived connection pick up
// reindex-max-bytes/retention edits without a restart — the same
// preference for watching config files behind an already-running
// process that the teacher's daemon reload paths apply to its own
// config.yaml.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan Connection
	errs    chan error
}

// WatchConnection starts watching path for changes, parsing and
// delivering a new Connection on Changes() each time the file is
// written. The caller must call Close when done.
func WatchConnection(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap("config.watch", errs.Internal, err)
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, errs.Wrap("config.watch", errs.StorageIO, fmt.Errorf("watch %s: %w", path, err))
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		changes: make(chan Connection, 1),
		errs:    make(chan error, 1),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadConnection(w.path)
			if err != nil {
				select {
				case w.errs <- err:
				default:
				}
				continue
			}
			select {
			case w.changes <- cfg:
			default:
				// Drain the stale pending value so the latest reload
				// always wins rather than blocking the watch loop.
				select {
				case <-w.changes:
				default:
				}
				w.changes <- cfg
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// Changes delivers a freshly reloaded Connection each time the watched
// file changes.
func (w *Watcher) Changes() <-chan Connection { return w.changes }

// Errors delivers watch or reload errors encountered between changes.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks applying each reloaded Connection to apply until ctx is
// cancelled, useful for tests and simple callers that don't need the
// channel-based API directly.
func Run(ctx context.Context, w *Watcher, apply func(Connection)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cfg := <-w.Changes():
			apply(cfg)
		case err := <-w.Errors():
			return err
		}
	}
}
