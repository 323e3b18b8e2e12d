package chem

import "chem-ca/internal/core"

func (w *World) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", w.cfg.Width),
				core.IntParam("h", "Height", w.cfg.Height),
				core.Int64Param("seed", "Seed", w.cfg.Seed),
			},
		},
		{
			Name: "Kinetics",
			Params: []core.Parameter{
				core.FloatParam("rate_scale", "Rate scale", w.cfg.RateScale),
				core.IntParam("events_per_step", "Events per step", w.cfg.EventsPerStep),
				core.FloatParam("dt", "Time per step", w.cfg.TimePerStep),
			},
		},
		{
			Name: "Clock",
			Params: []core.Parameter{
				core.FloatParam("time", "Time", w.clock),
				core.IntParam("events", "Events", w.events),
			},
		},
	}

	totals := w.SpeciesTotals()
	species := core.ParameterGroup{Name: "Species"}
	for i, name := range w.sys.Molecules {
		species.Params = append(species.Params, core.FloatParam("total_"+name, name, totals[i]))
	}
	groups = append(groups, species)
	return core.ParameterSnapshot{Groups: groups}
}

func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "rate_scale", Label: "Rate scale", Type: core.ParamTypeFloat, Step: 0.1, Min: 0.01, Max: 100, HasMin: true, HasMax: true},
		{Key: "events_per_step", Label: "Events per step", Type: core.ParamTypeInt, Step: 50, Min: 1, Max: 1_000_000, HasMin: true, HasMax: true},
	}
}

// SetFloatParameter updates rate_scale and rescales every rate constant.
func (w *World) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "rate_scale":
		if value <= 0 {
			return false
		}
		w.cfg.RateScale = value
		w.scaleRates()
		return true
	case "dt":
		if value < 0 {
			return false
		}
		w.cfg.TimePerStep = value
		return true
	}
	return false
}

func (w *World) SetIntParameter(key string, value int) bool {
	if key != "events_per_step" || value <= 0 {
		return false
	}
	w.cfg.EventsPerStep = value
	return true
}

var (
	_ core.ParameterProvider         = (*World)(nil)
	_ core.ParameterControlsProvider = (*World)(nil)
	_ core.FloatParameterSetter      = (*World)(nil)
	_ core.IntParameterSetter        = (*World)(nil)
)
