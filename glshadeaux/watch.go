package glshadeaux

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is the quiet period after a change before a watched file is reported.
// Editors often write a file in several steps.
var Debounce = 100 * time.Millisecond

// Watch calls fn with the path of a watched file after it is written, created or
// replaced, until ctx is done. The parent directories are watched so that files
// replaced by rename keep being reported. fn runs on the goroutine calling Watch.
// A nil log means [slog.Default].
func Watch(ctx context.Context, log *slog.Logger, fn func(path string), paths ...string) error {
	if len(paths) == 0 {
		return errors.New("no paths to watch")
	}
	if log == nil {
		log = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		err = w.Add(dir)
		if err != nil {
			return err
		}
		dirs[dir] = true
	}

	changed := make(map[string]bool)
	timer := time.NewTimer(Debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[ev.Name] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("watched file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			changed[ev.Name] = true
			timer.Reset(Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch", slog.String("err", err.Error()))

		case <-timer.C:
			for p := range changed {
				fn(p)
				delete(changed, p)
			}
		}
	}
}
