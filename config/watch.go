package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceWindow coalesces the burst of write events editors and atomic
// renames produce for a single save.
const debounceWindow = 250 * time.Millisecond

// Watch reloads path whenever its content changes and hands each valid new
// Config to apply. The parent directory is watched, not the file, so
// atomic-rename saves keep working. Invalid intermediate states are logged
// and skipped; the previously applied config stays in effect. Watch blocks
// until ctx is cancelled.
func Watch(ctx context.Context, path string, log zerolog.Logger, apply func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	var lastHash uint64
	if b, err := os.ReadFile(path); err == nil {
		lastHash = hashBytes(b)
	}

	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	reload := func() {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config read failed")
			return
		}
		h := hashBytes(b)
		if h == lastHash {
			return
		}
		cfg, err := Parse(b)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config change rejected")
			return
		}
		lastHash = h
		log.Debug().Str("path", path).Msg("config reloaded")
		apply(cfg)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
