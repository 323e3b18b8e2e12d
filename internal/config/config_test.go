package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigSuite covers loading, environment overrides and validation.
type ConfigSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) write(name, body string) string {
	path := filepath.Join(s.dir, name)
	require.NoError(s.T(), os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (s *ConfigSuite) TestDefaultIsValid() {
	cfg := Default()
	require.NoError(s.T(), cfg.Validate())
	require.False(s.T(), cfg.EventMode())
	require.True(s.T(), cfg.Incremental)
}

func (s *ConfigSuite) TestLoadOverlaysDefaults() {
	path := s.write("run.yaml", `
preset: predprey
lattice:
  width: 4
  height: 2
initial:
  uniform: {A: 10}
  scatter: {E: 50}
events:
  total: 500
  output: 50
seed: 7
`)
	cfg, err := Load(path)
	require.NoError(s.T(), err)
	require.NoError(s.T(), cfg.Validate())

	require.Equal(s.T(), "predprey", cfg.Preset)
	require.Equal(s.T(), LatticeConfig{Width: 4, Height: 2}, cfg.Lattice)
	require.Equal(s.T(), map[string]float64{"A": 10}, cfg.Initial.Uniform)
	require.Equal(s.T(), map[string]int{"E": 50}, cfg.Initial.Scatter)
	require.True(s.T(), cfg.EventMode())
	require.Equal(s.T(), int64(7), cfg.Seed)
	// untouched sections keep their defaults
	require.Equal(s.T(), ":8080", cfg.Serve.Addr)
	require.Equal(s.T(), "info", cfg.Logging.Level)
}

func (s *ConfigSuite) TestLoadErrors() {
	_, err := Load(filepath.Join(s.dir, "missing.yaml"))
	require.ErrorIs(s.T(), err, os.ErrNotExist)

	_, err = Load(s.write("broken.yaml", "lattice: [1, 2"))
	require.Error(s.T(), err)
}

func (s *ConfigSuite) TestApplyEnv() {
	s.T().Setenv("CHEMCA_SEED", "99")
	s.T().Setenv("CHEMCA_WIDTH", "32")
	s.T().Setenv("CHEMCA_LOG_LEVEL", "debug")
	s.T().Setenv("CHEMCA_WORKERS", "many")

	cfg := Default()
	bad := cfg.ApplyEnv()

	require.Equal(s.T(), int64(99), cfg.Seed)
	require.Equal(s.T(), 32, cfg.Lattice.Width)
	require.Equal(s.T(), "debug", cfg.Logging.Level)
	require.Equal(s.T(), 4, cfg.Sweep.Workers, "unparsable value must be ignored")
	require.Equal(s.T(), []string{"CHEMCA_WORKERS"}, bad)
}

func (s *ConfigSuite) TestLoadAppliesEnvAfterFile() {
	s.T().Setenv("CHEMCA_PRESET", "brusselator")
	cfg, err := Load(s.write("run.yaml", "preset: decay\n"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), "brusselator", cfg.Preset)
}

func (s *ConfigSuite) TestValidate() {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no system", func(c *Config) { c.Preset = "" }},
		{"zero width", func(c *Config) { c.Lattice.Width = 0 }},
		{"end before start", func(c *Config) { c.Time.Start, c.Time.End = 5, 1 }},
		{"infinite end", func(c *Config) { c.Time.End = math.Inf(1) }},
		{"zero output", func(c *Config) { c.Time.Output = 0 }},
		{"negative event output", func(c *Config) { c.Events = EventsConfig{Total: 10, Output: -1} }},
		{"negative uniform", func(c *Config) { c.Initial.Uniform = map[string]float64{"A": -1} }},
		{"negative scatter", func(c *Config) { c.Initial.Scatter = map[string]int{"A": -1} }},
		{"negative workers", func(c *Config) { c.Sweep.Workers = -2 }},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorIs(s.T(), cfg.Validate(), ErrInvalid)
		})
	}
}

func (s *ConfigSuite) TestEventModeIgnoresTime() {
	cfg := Default()
	cfg.Time.Output = 0
	cfg.Events.Total = 100
	require.NoError(s.T(), cfg.Validate())
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}
