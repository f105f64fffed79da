package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "scene.toml", `
seed = 9
redraw_interval = 0.5
log_level = "debug"

[[particles]]
x = 0.25
y = 0.5
vx = 0.01
color = "#ff0000"

[[particles]]
x = 0.75
y = 0.5
vx = -0.01
radius = 0.05
mass = 2.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, 0.5, cfg.RedrawInterval)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, Default().Count, cfg.Count, "unset keys keep defaults")
	require.Len(t, cfg.Particles, 2)
	assert.Equal(t, ParticleConfig{X: 0.75, Y: 0.5, VX: -0.01, Radius: 0.05, Mass: 2}, cfg.Particles[1])

	particles, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, particles, 2)
	assert.Equal(t, Default().Radius, particles[0].Radius)
	assert.Equal(t, Default().Mass, particles[0].Mass)
	assert.Equal(t, "#ff0000", particles[0].Color.Hex())
	assert.Equal(t, 0.05, particles[1].Radius)
	assert.Equal(t, 2.0, particles[1].Mass)
	assert.Equal(t, -0.01, particles[1].Vel.X)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "scene.yaml", `
seed: 42
count: 35
max_speed: 0.01
color: "#00ff00"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 35, cfg.Count)
	assert.Equal(t, 0.01, cfg.MaxSpeed)

	first, err := cfg.Build()
	require.NoError(t, err)
	second, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, first, 35)
	assert.Equal(t, first, second, "same seed, same set")
	for _, p := range first {
		assert.LessOrEqual(t, p.Vel.X, 0.01)
		assert.Equal(t, "#00ff00", p.Color.Hex())
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "scene.json", `{}`))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = Load(writeFile(t, "broken.toml", `seed = `))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.yaml", "seed: [1, 2"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	envFile := writeFile(t, "test.env", "COLLIDE_COUNT=7\nCOLLIDE_LISTEN=:9999\n")
	t.Setenv("COLLIDE_SEED", "123")
	t.Setenv("COLLIDE_SPEED", "12.5")
	// the .env file sets these for the rest of the process
	t.Cleanup(func() {
		os.Unsetenv("COLLIDE_COUNT")
		os.Unsetenv("COLLIDE_LISTEN")
	})

	cfg := Default()
	require.NoError(t, LoadEnv(&cfg, envFile, filepath.Join(t.TempDir(), "absent.env")))

	assert.Equal(t, uint64(123), cfg.Seed)
	assert.Equal(t, 12.5, cfg.Speed)
	assert.Equal(t, 7, cfg.Count)
	assert.Equal(t, ":9999", cfg.Listen)
}

func TestLoadEnvBadValue(t *testing.T) {
	t.Setenv("COLLIDE_FPS", "fast")
	cfg := Default()
	err := LoadEnv(&cfg, filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorContains(t, err, "COLLIDE_FPS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative count", func(c *Config) { c.Count = -1 }, "count"},
		{"zero radius", func(c *Config) { c.Radius = 0 }, "radius"},
		{"huge radius", func(c *Config) { c.Radius = 0.5 }, "radius"},
		{"zero mass", func(c *Config) { c.Mass = 0 }, "mass"},
		{"bad color", func(c *Config) { c.Color = "red" }, "color"},
		{"bad particle color", func(c *Config) { c.Particles = []ParticleConfig{{X: 0.5, Y: 0.5, Color: "#zz0000"}} }, "particles[0].color"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero fps", func(c *Config) { c.FPS = 0 }, "fps"},
		{"too many", func(c *Config) { c.Count = 5000 }, "max_particles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			_, err = cfg.Build()
			assert.Error(t, err)
		})
	}
}
