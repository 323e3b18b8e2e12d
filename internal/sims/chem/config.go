package chem

import "strconv"

// Config controls the lattice dimensions and stepping of a chemistry World.
type Config struct {
	Width  int
	Height int

	Seed int64

	// EventsPerStep is the number of reaction events one Step executes; the
	// clock does not move in this mode. A positive TimePerStep takes
	// precedence and advances the clock instead.
	EventsPerStep int
	TimePerStep   float64

	// RateScale multiplies every rate constant of the network.
	RateScale float64

	Incremental bool
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:         64,
		Height:        64,
		Seed:          1337,
		EventsPerStep: 200,
		RateScale:     1,
		Incremental:   true,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparsable or out-of-range values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["events"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.EventsPerStep = parsed
		}
	}
	if v, ok := cfg["dt"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.TimePerStep = parsed
		}
	}
	if v, ok := cfg["rate_scale"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.RateScale = parsed
		}
	}
	if v, ok := cfg["incremental"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Incremental = parsed
		}
	}
	return c
}
