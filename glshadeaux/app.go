package glshadeaux

import (
	"context"
	"log/slog"

	"github.com/soypat/glshade/glrender"
)

// App is the content of a window opened by [Run].
type App interface {
	// Init creates the resources of the app once the device exists.
	Init(dev *glrender.Device) error
	// Frame renders one frame of the given size. dt is the time in seconds since the last frame.
	Frame(dev *glrender.Device, width, height int, dt float64) error
}

// Reloader is implemented by apps rebuilding resources when files they were
// made from change.
type Reloader interface {
	WatchedFiles() []string
	// Reload runs on the render goroutine after path changed.
	Reload(dev *glrender.Device, path string) error
}

// watchReloads queues a reload on dev each time a file watched by r changes.
func watchReloads(ctx context.Context, dev *glrender.Device, log *slog.Logger, r Reloader) {
	files := r.WatchedFiles()
	if len(files) == 0 {
		return
	}
	err := Watch(ctx, log, func(path string) {
		dev.Invoke(func(glrender.GL) {
			err := r.Reload(dev, path)
			if err != nil {
				log.Error("reload failed", slog.String("path", path), slog.String("err", err.Error()))
				return
			}
			log.Info("reloaded", slog.String("path", path))
		})
	}, files...)
	if err != nil && ctx.Err() == nil {
		log.Error("watching files", slog.String("err", err.Error()))
	}
}
