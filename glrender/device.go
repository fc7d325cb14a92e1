// Package glrender drives the per frame render loop: it binds shading programs,
// checks every channel has a value before each draw and manages the texture units
// and deferred resource actions of the device.
package glrender

import (
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"

	"github.com/soypat/glshade/glbuild"
)

// MaxTextureUnits is the largest texture unit pool a Device supports.
const MaxTextureUnits = 64

// Texture unit pool errors.
var (
	ErrUnitsExhausted  = errors.New("all texture units in use")
	ErrUnitNotAcquired = errors.New("texture unit not acquired")
	ErrUnitsLeaked     = errors.New("texture units not released at end of pass")
)

// Device owns a graphics context. Except for [Device.Invoke] its methods must be
// called from the goroutine owning the context.
type Device struct {
	gl      GL
	log     *slog.Logger
	version int
	strict  bool

	mu      sync.Mutex
	pending []func(GL)

	nunits int
	units  uint64
	// peak is the largest number of units in use at once since the last pass start.
	peak int
}

// DeviceOption configures a Device.
type DeviceOption func(*Device) error

// WithTextureUnits sets the size of the texture unit pool. Default is 16.
func WithTextureUnits(n int) DeviceOption {
	return func(d *Device) error {
		if n < 1 || n > MaxTextureUnits {
			return fmt.Errorf("texture unit count %d outside [1,%d]", n, MaxTextureUnits)
		}
		d.nunits = n
		return nil
	}
}

// WithLogger sets the logger. Default is [slog.Default].
func WithLogger(l *slog.Logger) DeviceOption {
	return func(d *Device) error {
		if l == nil {
			l = slog.Default()
		}
		d.log = l
		return nil
	}
}

// WithGLSLVersion sets the version of generated shaders.
func WithGLSLVersion(version int) DeviceOption {
	return func(d *Device) error {
		if version < 330 {
			return fmt.Errorf("GLSL version %d not supported", version)
		}
		d.version = version
		return nil
	}
}

// WithStrictDiagnostics makes shader compile and link failures reported by the
// driver fail shading construction. By default they are only logged.
func WithStrictDiagnostics(strict bool) DeviceOption {
	return func(d *Device) error {
		d.strict = strict
		return nil
	}
}

// NewDevice returns a Device issuing commands to gl.
func NewDevice(gl GL, opts ...DeviceOption) (*Device, error) {
	if gl == nil {
		return nil, errors.New("nil GL")
	}
	d := &Device{
		gl:      gl,
		log:     slog.Default(),
		version: glbuild.DefaultVersion,
		nunits:  16,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// GL returns the underlying command interface.
func (d *Device) GL() GL { return d.gl }

// Invoke queues fn to run on the owning goroutine at the start of the next frame.
// It is safe to call from any goroutine.
func (d *Device) Invoke(fn func(GL)) {
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// ExecutePending runs the queued actions in the order they were queued and
// returns how many ran.
func (d *Device) ExecutePending() int {
	d.mu.Lock()
	actions := d.pending
	d.pending = nil
	d.mu.Unlock()
	for _, fn := range actions {
		fn(d.gl)
	}
	return len(actions)
}

// AcquireTextureUnit reserves the lowest free texture unit.
func (d *Device) AcquireTextureUnit() (int, error) {
	free := ^d.units
	if d.nunits < 64 {
		free &= 1<<d.nunits - 1
	}
	if free == 0 {
		return -1, ErrUnitsExhausted
	}
	unit := bits.TrailingZeros64(free)
	d.units |= 1 << unit
	d.peak = max(d.peak, bits.OnesCount64(d.units))
	return unit, nil
}

// ReleaseTextureUnit returns unit to the pool. Releasing a unit twice is an error.
func (d *Device) ReleaseTextureUnit(unit int) error {
	if unit < 0 || unit >= d.nunits || d.units&(1<<unit) == 0 {
		return fmt.Errorf("release unit %d: %w", unit, ErrUnitNotAcquired)
	}
	d.units &^= 1 << unit
	return nil
}

// UnitsInUse returns the number of acquired texture units.
func (d *Device) UnitsInUse() int { return bits.OnesCount64(d.units) }

// PeakUnitsInUse returns the largest number of texture units in use at once during the last pass.
func (d *Device) PeakUnitsInUse() int { return d.peak }

// CheckAllTextureUnitsReleased returns an error if any texture unit is still acquired.
func (d *Device) CheckAllTextureUnitsReleased() error {
	if d.units != 0 {
		return fmt.Errorf("%w: %064b", ErrUnitsLeaked, d.units)
	}
	return nil
}

// compile compiles a program. Driver failures only fail in strict mode,
// otherwise a zero program is returned and nothing renders with it.
func (d *Device) compile(name, vertex, fragment, output string) (uint32, error) {
	prog, err := d.gl.CompileProgram(vertex, fragment, output)
	if err != nil {
		if d.strict {
			return 0, fmt.Errorf("shading %q: %w", name, err)
		}
		d.log.Warn("shader program diagnostics", slog.String("shading", name), slog.String("err", err.Error()))
		return 0, nil
	}
	return prog, nil
}
