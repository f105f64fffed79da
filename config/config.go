package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/collide/physics"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "COLLIDE_"

// Config holds everything needed to build and drive a simulation
type Config struct {
	Seed     uint64  `toml:"seed" yaml:"seed" json:"seed"`
	Count    int     `toml:"count" yaml:"count" json:"count"`             // Random particles, ignored when Particles is set
	Radius   float64 `toml:"radius" yaml:"radius" json:"radius"`          // Default radius
	Mass     float64 `toml:"mass" yaml:"mass" json:"mass"`                // Default mass
	MaxSpeed float64 `toml:"max_speed" yaml:"max_speed" json:"max_speed"` // Random velocity bound per axis
	Color    string  `toml:"color" yaml:"color" json:"color"`             // Default color, hex

	// Simulated time between render ticks
	RedrawInterval float64 `toml:"redraw_interval" yaml:"redraw_interval" json:"redraw_interval"`

	// Live viewing
	Speed float64 `toml:"speed" yaml:"speed" json:"speed"` // Simulated units per wall second
	FPS   int     `toml:"fps" yaml:"fps" json:"fps"`

	// HTTP surface
	Listen       string `toml:"listen" yaml:"listen" json:"-"`
	StreamFPS    int    `toml:"stream_fps" yaml:"stream_fps" json:"-"`
	MaxParticles int    `toml:"max_particles" yaml:"max_particles" json:"-"`

	LogLevel string `toml:"log_level" yaml:"log_level" json:"-"`

	Particles []ParticleConfig `toml:"particles" yaml:"particles" json:"particles,omitempty"`
}

// ParticleConfig is an explicitly placed particle
// Zero radius, mass or empty color fall back to the defaults in Config
type ParticleConfig struct {
	X      float64 `toml:"x" yaml:"x" json:"x"`
	Y      float64 `toml:"y" yaml:"y" json:"y"`
	VX     float64 `toml:"vx" yaml:"vx" json:"vx"`
	VY     float64 `toml:"vy" yaml:"vy" json:"vy"`
	Radius float64 `toml:"radius" yaml:"radius" json:"radius,omitempty"`
	Mass   float64 `toml:"mass" yaml:"mass" json:"mass,omitempty"`
	Color  string  `toml:"color" yaml:"color" json:"color,omitempty"`
}

// Default returns the classic billiard-box setup
func Default() Config {
	return Config{
		Seed:           1,
		Count:          20,
		Radius:         physics.DefaultRadius,
		Mass:           physics.DefaultMass,
		MaxSpeed:       physics.DefaultMaxSpeed,
		Color:          "#000000",
		RedrawInterval: 2,
		Speed:          100,
		FPS:            50,
		Listen:         ":8080",
		StreamFPS:      30,
		MaxParticles:   2000,
		LogLevel:       "info",
	}
}

// Load reads path over Default, choosing the decoder by extension
// An empty path returns the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	return cfg, nil
}

// LoadEnv loads .env files (missing files are skipped) and applies COLLIDE_* overrides to cfg
// With no files given, ./.env is tried
func LoadEnv(cfg *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", f, err)
		}
	}

	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"SEED", func(v string) (err error) { cfg.Seed, err = strconv.ParseUint(v, 10, 64); return }},
		{"COUNT", func(v string) (err error) { cfg.Count, err = strconv.Atoi(v); return }},
		{"RADIUS", func(v string) (err error) { cfg.Radius, err = strconv.ParseFloat(v, 64); return }},
		{"MASS", func(v string) (err error) { cfg.Mass, err = strconv.ParseFloat(v, 64); return }},
		{"MAX_SPEED", func(v string) (err error) { cfg.MaxSpeed, err = strconv.ParseFloat(v, 64); return }},
		{"REDRAW_INTERVAL", func(v string) (err error) { cfg.RedrawInterval, err = strconv.ParseFloat(v, 64); return }},
		{"SPEED", func(v string) (err error) { cfg.Speed, err = strconv.ParseFloat(v, 64); return }},
		{"FPS", func(v string) (err error) { cfg.FPS, err = strconv.Atoi(v); return }},
		{"LISTEN", func(v string) error { cfg.Listen = v; return nil }},
		{"STREAM_FPS", func(v string) (err error) { cfg.StreamFPS, err = strconv.Atoi(v); return }},
		{"LOG_LEVEL", func(v string) error { cfg.LogLevel = v; return nil }},
	}
	for _, o := range overrides {
		v, ok := os.LookupEnv(EnvPrefix + o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.key, err)
		}
	}
	return nil
}

// Validate rejects values the simulation or its surfaces cannot use
func (c Config) Validate() error {
	var errs []error
	if c.Count < 0 {
		errs = append(errs, fmt.Errorf("count must be non-negative, got %d", c.Count))
	}
	if !(c.Radius > 0) || c.Radius >= 0.5 {
		errs = append(errs, fmt.Errorf("radius must be in (0, 0.5), got %g", c.Radius))
	}
	if !(c.Mass > 0) {
		errs = append(errs, fmt.Errorf("mass must be positive, got %g", c.Mass))
	}
	if c.MaxSpeed < 0 {
		errs = append(errs, fmt.Errorf("max_speed must be non-negative, got %g", c.MaxSpeed))
	}
	if c.RedrawInterval < 0 {
		errs = append(errs, fmt.Errorf("redraw_interval must be non-negative, got %g", c.RedrawInterval))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must be non-negative, got %g", c.Speed))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.StreamFPS <= 0 {
		errs = append(errs, fmt.Errorf("stream_fps must be positive, got %d", c.StreamFPS))
	}
	if _, err := colorful.Hex(c.Color); err != nil {
		errs = append(errs, fmt.Errorf("color %q: %w", c.Color, err))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}
	if n := c.size(); c.MaxParticles > 0 && n > c.MaxParticles {
		errs = append(errs, fmt.Errorf("%d particles exceed max_particles %d", n, c.MaxParticles))
	}
	for i, p := range c.Particles {
		if p.Color != "" {
			if _, err := colorful.Hex(p.Color); err != nil {
				errs = append(errs, fmt.Errorf("particles[%d].color %q: %w", i, p.Color, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (c Config) size() int {
	if len(c.Particles) > 0 {
		return len(c.Particles)
	}
	return c.Count
}

// Build produces the initial particle set: the explicit list if present, otherwise Count random
// particles drawn from a generator seeded with Seed
// Geometric validity (overlap, box) is left to engine.New
func (c Config) Build() ([]physics.Particle, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	color, _ := colorful.Hex(c.Color)

	if len(c.Particles) == 0 {
		rng := rand.New(rand.NewSource(c.Seed))
		return physics.RandomSet(rng, c.Count, physics.Profile{
			Radius:   c.Radius,
			Mass:     c.Mass,
			MaxSpeed: c.MaxSpeed,
			Color:    color,
		})
	}

	particles := make([]physics.Particle, len(c.Particles))
	for i, pc := range c.Particles {
		radius, mass, pcolor := pc.Radius, pc.Mass, color
		if radius == 0 {
			radius = c.Radius
		}
		if mass == 0 {
			mass = c.Mass
		}
		if pc.Color != "" {
			pcolor, _ = colorful.Hex(pc.Color)
		}
		particles[i] = physics.New(r2.Vec{X: pc.X, Y: pc.Y}, r2.Vec{X: pc.VX, Y: pc.VY}, radius, mass, pcolor)
	}
	return particles, nil
}

// Level returns the parsed log level, info when unparseable
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
