package app

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigBind(t *testing.T) {
	cfg := NewConfig()
	fs := pflag.NewFlagSet("ca", pflag.ContinueOnError)
	cfg.Bind(fs)

	require.NoError(t, fs.Parse([]string{"--sim", "decay", "--rate", "5", "-p", "w=32,events=10", "--seed=-4"}))
	assert.Equal(t, "decay", cfg.Sim)
	assert.Equal(t, 5, cfg.Rate)
	assert.Equal(t, int64(-4), cfg.Seed)
	assert.Equal(t, map[string]string{"w": "32", "events": "10", "seed": "-4"}, cfg.SimParams())
}

func TestSimParamsKeepsExplicitSeed(t *testing.T) {
	cfg := NewConfig()
	cfg.Params = map[string]string{"seed": "9"}
	assert.Equal(t, "9", cfg.SimParams()["seed"])
	assert.Equal(t, map[string]string{"seed": "9"}, cfg.Params)
}
