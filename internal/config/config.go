package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/body"
)

const (
	DefaultDt             = 60000.0
	DefaultInterval       = 100 * time.Millisecond
	DefaultBarrierTimeout = 5 * time.Second
	DefaultListen         = ":8888"
	DefaultDataDir        = ".orrery"
	DefaultPreset         = "solar"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Preset         string       `yaml:"preset,omitempty" toml:"preset,omitempty"`
	Dt             float64      `yaml:"dt" toml:"dt"`
	Ticks          int          `yaml:"ticks" toml:"ticks"`
	Interval       Duration     `yaml:"interval" toml:"interval"`
	BarrierTimeout Duration     `yaml:"barrier_timeout" toml:"barrier_timeout"`
	Listen         string       `yaml:"listen" toml:"listen"`
	DataDir        string       `yaml:"data_dir" toml:"data_dir"`
	Seed           uint64       `yaml:"seed,omitempty" toml:"seed,omitempty"`
	Bodies         []BodyConfig `yaml:"bodies" toml:"bodies"`
}

type BodyConfig struct {
	Name     string  `yaml:"name" toml:"name"`
	Position Vec     `yaml:"position" toml:"position"`
	Velocity Vec     `yaml:"velocity" toml:"velocity"`
	Mass     float64 `yaml:"mass" toml:"mass"`
}

type Vec struct {
	X float64 `yaml:"x" toml:"x"`
	Y float64 `yaml:"y" toml:"y"`
}

func (v Vec) Vec2() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

// Duration reads and writes Go duration strings such as "250ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func DefaultConfig() *Config {
	cfg := &Config{
		Preset:         DefaultPreset,
		Dt:             DefaultDt,
		Interval:       Duration{DefaultInterval},
		BarrierTimeout: Duration{DefaultBarrierTimeout},
		Listen:         DefaultListen,
		DataDir:        DefaultDataDir,
	}
	cfg.Bodies = SolarSystem()
	return cfg
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
// A file that names a preset but lists no bodies gets the preset's bodies.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Preset = ""
	cfg.Bodies = nil

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(cfg.Bodies) == 0 {
		name := cfg.Preset
		if name == "" {
			name = DefaultPreset
		}
		if err := cfg.UsePreset(name); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// UsePreset replaces the body list with the named preset's. Timing and
// network settings are left alone. The random preset honours c.Seed.
func (c *Config) UsePreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalidConfig, name, ListPresets())
	}
	c.Preset = name
	c.Bodies = p.Bodies
	switch {
	case name == "random" && c.Seed != 0:
		c.Bodies = RandomBodies(DefaultRandomBodies, c.Seed)
	case c.Seed == 0:
		c.Seed = p.Seed
	}
	return nil
}

// Validate reports every problem at once. The simulation must not start
// on a non-nil result.
func (c *Config) Validate() error {
	var errs []error

	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks must not be negative, got %d", c.Ticks))
	}
	if c.Interval.Duration < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %v", c.Interval))
	}
	if c.BarrierTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("barrier_timeout must be positive, got %v", c.BarrierTimeout))
	}
	if len(c.Bodies) == 0 {
		errs = append(errs, errors.New("no bodies configured"))
	}

	seen := make(map[string]int, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("body %d: missing name", i))
			continue
		}
		if j, dup := seen[b.Name]; dup {
			errs = append(errs, fmt.Errorf("body %d: name %q already used by body %d", i, b.Name, j))
		}
		seen[b.Name] = i
		if _, err := b.State(); err != nil {
			errs = append(errs, fmt.Errorf("body %d: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// States validates the configuration and returns the initial bodies with
// zero acceleration and force accumulators.
func (c *Config) States() ([]body.State, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]body.State, len(c.Bodies))
	for i, b := range c.Bodies {
		s, err := b.State()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (b BodyConfig) State() (body.State, error) {
	return body.New(b.Name, b.Position.Vec2(), b.Velocity.Vec2(), b.Mass)
}
