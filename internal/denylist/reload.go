package denylist

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDebounce is how long the reloader waits after the last write.
const reloadDebounce = 500 * time.Millisecond

// Reloader watches the pattern file and swaps the denylist's patterns on change.
type Reloader struct {
	watcher *fsnotify.Watcher
	dl      *Denylist
	path    string
	log     zerolog.Logger
}

// NewReloader creates a file watcher for the pattern file at path.
// Returns (nil, nil) when path is empty or does not exist: nothing to watch.
func NewReloader(dl *Denylist, path string, log zerolog.Logger) (*Reloader, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	return &Reloader{
		watcher: watcher,
		dl:      dl,
		path:    path,
		log:     log.With().Str("component", "denylist").Logger(),
	}, nil
}

// Run watches for file changes and reloads patterns. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// reload keeps the previous patterns when the file cannot be parsed.
func (r *Reloader) reload() {
	p, err := LoadPatterns(r.path)
	if err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("hot-reload failed")
		return
	}
	r.dl.Replace(p)
	r.log.Info().
		Str("path", r.path).
		Int("commands", len(p.Commands)).
		Int("extensions", len(p.Extensions)).
		Msg("hot-reload: patterns reloaded")
}
