//go:build tinygo || !cgo

package glshadeaux

import (
	"context"
	"errors"
)

// Run requires cgo to open a window.
func Run(ctx context.Context, cfg Config, cam *OrbitCamera, app App) error {
	return errors.New("require cgo for windowed rendering")
}
