package app

import (
	"strconv"

	"github.com/spf13/pflag"
)

// Config represents the command-line parameters of the viewer.
type Config struct {
	Sim      string
	Scale    int
	TPS      int
	Rate     int
	Seed     int64
	HUDWidth int
	// Params is passed to the sim factory, e.g. w=128 events=500.
	Params map[string]string
}

// NewConfig returns a Config populated with the viewer defaults.
func NewConfig() *Config {
	return &Config{Sim: "predprey", Scale: 6, TPS: 60, Rate: 30, Seed: 1337, HUDWidth: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation preset to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.IntVar(&c.Rate, "rate", c.Rate, "simulation steps per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "width of the parameter panel in pixels, 0 hides it")
	fs.StringToStringVarP(&c.Params, "set", "p", c.Params, "sim parameters as key=value pairs")
}

// SimParams returns the factory configuration with the seed folded in.
func (c *Config) SimParams() map[string]string {
	out := make(map[string]string, len(c.Params)+1)
	for k, v := range c.Params {
		out[k] = v
	}
	if _, ok := out["seed"]; !ok {
		out["seed"] = strconv.FormatInt(c.Seed, 10)
	}
	return out
}
