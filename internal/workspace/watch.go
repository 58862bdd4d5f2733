package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/store"
)

// settle is how long a burst of file events must be quiet before re-rendering.
const settle = 200 * time.Millisecond

// Watch re-runs Prepare whenever the config of any project in the graph, or
// the global config, changes. onRender is called after the initial render and
// after every re-render, with the error when a render fails. The watched set
// follows the graph as dependencies are added or removed. Watch returns when
// ctx is done.
func Watch(ctx context.Context, s *store.Store, name string, opts Options, onRender func(*Plan, error)) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	watched := map[string]bool{}
	sync := func(plan *Plan) {
		want := map[string]bool{s.Root(): true}
		if plan != nil {
			for _, n := range plan.Graph.Names() {
				if rec, ok := plan.Graph.Get(n); ok && rec.Dir != "" {
					want[rec.Dir] = true
				}
			}
		}
		for dir := range watched {
			if !want[dir] {
				_ = w.Remove(dir)
				delete(watched, dir)
			}
		}
		for dir := range want {
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			watched[dir] = true
		}
	}

	render := func() {
		plan, err := Prepare(ctx, s, name, opts)
		// Keep watching the previous set when the graph cannot be resolved.
		if err == nil {
			sync(plan)
		} else if len(watched) == 0 {
			sync(nil)
		}
		onRender(plan, err)
	}
	render()

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != paths.ConfigFile || (ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write)) {
				continue
			}
			log.Debug("config changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			render()
		}
	}
}
