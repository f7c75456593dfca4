package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/label"
)

// Environment variables read by FromEnv.
const (
	EnvConfigPath    = "REGION_MCP_CONFIG"
	EnvLogLevel      = "REGION_MCP_LOG_LEVEL"
	EnvConnectivity  = "REGION_MCP_CONNECTIVITY"
	EnvMaxComponents = "REGION_MCP_MAX_COMPONENTS"
	EnvMinLines      = "REGION_MCP_MIN_LINES"
	EnvOverflow      = "REGION_MCP_OVERFLOW"
	EnvParallel      = "REGION_MCP_PARALLEL"
)

// ErrInvalidValue is returned for a setting that cannot be parsed.
var ErrInvalidValue = errors.New("invalid config value")

// ParseError reports a TOML file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Voxel is the TOML form of a voxel size.
type Voxel struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`
}

// Config holds the server's settings.
type Config struct {
	LogLevel string `toml:"log_level"`

	// Connectivity2D and Connectivity3D are used by morphology and labeling
	// tools that are called without an explicit connectivity.
	Connectivity2D int `toml:"connectivity_2d"`
	Connectivity3D int `toml:"connectivity_3d"`

	MaxComponents int    `toml:"max_components"`
	MinLines      int    `toml:"min_lines"`
	Overflow      string `toml:"overflow"`

	// Parallel runs the two halves of a symmetric difference concurrently.
	Parallel bool `toml:"parallel"`

	Voxel Voxel `toml:"voxel"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Connectivity2D: int(domain.Conn8),
		Connectivity3D: int(domain.Conn26),
		MaxComponents:  10000,
		MinLines:       1,
		Overflow:       label.OverflowTruncate.String(),
		Voxel:          Voxel{X: 1, Y: 1, Z: 1},
	}
}

// Load returns the defaults overlaid with the TOML file at path, then with
// the environment. An empty path, or a path that does not exist, skips the
// file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.FromEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// FromEnv overlays settings found through lookup, which has the signature of
// os.LookupEnv.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvConnectivity); ok {
		conn, err := domain.ParseConnectivity(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectivity, ErrInvalidValue)
		}
		if conn.Is3D() {
			c.Connectivity3D = int(conn)
		} else {
			c.Connectivity2D = int(conn)
		}
	}
	for _, iv := range []struct {
		env string
		dst *int
	}{
		{EnvMaxComponents, &c.MaxComponents},
		{EnvMinLines, &c.MinLines},
	} {
		v, ok := lookup(iv.env)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: %w", iv.env, v, ErrInvalidValue)
		}
		*iv.dst = n
	}
	if v, ok := lookup(EnvOverflow); ok {
		c.Overflow = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvParallel); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvParallel, v, ErrInvalidValue)
		}
		c.Parallel = b
	}
	return nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if !domain.Connectivity(c.Connectivity2D).Is2D() {
		return fmt.Errorf("connectivity_2d %d: %w", c.Connectivity2D, ErrInvalidValue)
	}
	if !domain.Connectivity(c.Connectivity3D).Is3D() {
		return fmt.Errorf("connectivity_3d %d: %w", c.Connectivity3D, ErrInvalidValue)
	}
	if _, err := label.ParseOverflowPolicy(c.Overflow); err != nil {
		return fmt.Errorf("overflow %q: %w", c.Overflow, ErrInvalidValue)
	}
	if c.Voxel.X <= 0 || c.Voxel.Y <= 0 || c.Voxel.Z <= 0 {
		return fmt.Errorf("voxel size %+v: %w", c.Voxel, ErrInvalidValue)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool { return c.LogLevel == "debug" }

// LabelOptions returns labeling options for connectivity conn built from
// the configured limits.
func (c Config) LabelOptions(conn domain.Connectivity) label.Options {
	policy, _ := label.ParseOverflowPolicy(c.Overflow)
	return label.Options{
		Connectivity: conn,
		MinLines:     c.MinLines,
		MaxCount:     c.MaxComponents,
		Overflow:     policy,
	}
}

// VoxelSize returns the configured default voxel size.
func (c Config) VoxelSize() domain.VoxelSize {
	return domain.VoxelSize{X: c.Voxel.X, Y: c.Voxel.Y, Z: c.Voxel.Z}
}
