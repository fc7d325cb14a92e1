// Package glshadeaux gets users started with glshade quickly: a TOML configured
// window running a render loop, an orbiting camera and shader file watching.
// Applications with other needs should write their own loop on top of glrender.
package glshadeaux

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
	"github.com/soypat/glshade/glrender"
)

// Config is the window and device configuration.
type Config struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	// GLSLVersion is the version directive of generated shaders.
	GLSLVersion  int  `toml:"glsl_version"`
	TextureUnits int  `toml:"texture_units"`
	Strict       bool `toml:"strict_diagnostics"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel   string     `toml:"log_level"`
	Background [4]float32 `toml:"background"`
	VSync      bool       `toml:"vsync"`
}

// DefaultConfig returns the configuration used for fields missing from a file.
func DefaultConfig() Config {
	return Config{
		Width:        800,
		Height:       600,
		Title:        "glshade",
		GLSLVersion:  glbuild.DefaultVersion,
		TextureUnits: 16,
		LogLevel:     "info",
		Background:   [4]float32{0, 0, 0, 1},
		VSync:        true,
	}
}

// LoadConfig reads the TOML file at path over [DefaultConfig].
func LoadConfig(path string) (Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer fp.Close()
	cfg, err := ReadConfig(fp)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ReadConfig decodes a TOML configuration over [DefaultConfig]. Unknown keys are an error.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&cfg)
	if err != nil {
		var missing *toml.StrictMissingError
		if errors.As(err, &missing) {
			return Config{}, errors.New(missing.String())
		}
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// WriteConfig encodes cfg as TOML.
func WriteConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks the fields are within range.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.GLSLVersion < 330 {
		errs = append(errs, fmt.Errorf("glsl_version %d below 330", cfg.GLSLVersion))
	}
	if cfg.TextureUnits < 1 || cfg.TextureUnits > glrender.MaxTextureUnits {
		errs = append(errs, fmt.Errorf("texture_units %d outside [1,%d]", cfg.TextureUnits, glrender.MaxTextureUnits))
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for _, c := range cfg.Background {
		if c < 0 || c > 1 {
			errs = append(errs, fmt.Errorf("background component %g outside [0,1]", c))
			break
		}
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.ToUpper(s)))
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (cfg Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := parseLevel(cfg.LogLevel)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// DeviceOptions returns the glrender options the configuration maps to.
func (cfg Config) DeviceOptions(log *slog.Logger) []glrender.DeviceOption {
	return []glrender.DeviceOption{
		glrender.WithGLSLVersion(cfg.GLSLVersion),
		glrender.WithTextureUnits(cfg.TextureUnits),
		glrender.WithStrictDiagnostics(cfg.Strict),
		glrender.WithLogger(log),
	}
}

// BackgroundColor returns the clear color.
func (cfg Config) BackgroundColor() glexpr.Vec4 {
	b := cfg.Background
	return glexpr.Vec4{X: b[0], Y: b[1], Z: b[2], W: b[3]}
}
