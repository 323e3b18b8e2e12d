package chem

import (
	"fmt"
	"sort"

	"chem-ca/internal/core"
	"chem-ca/internal/crs"
)

// Preset is a named reaction system together with its starting abundances.
type Preset struct {
	Name        string
	Description string
	System      func() (*crs.System, error)
	Initial     Initial
}

var presets = map[string]Preset{}

// RegisterPreset makes p available by name and registers a matching sim
// factory with core.
func RegisterPreset(p Preset) {
	if p.Name == "" || p.System == nil {
		return
	}
	presets[p.Name] = p
	core.Register(p.Name, func(cfg map[string]string) core.Sim {
		w, err := New(p, FromMap(cfg))
		if err != nil {
			panic(fmt.Sprintf("chem: preset %s: %v", p.Name, err))
		}
		return w
	})
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames lists the registered presets in alphabetical order.
func PresetNames() []string {
	return sortedNames(presets)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterPreset(Preset{
		Name:        "decay",
		Description: "A decays into B, which is removed",
		System: crs.Definition{
			Molecules: []string{"A", "B"},
			Reactions: []crs.ReactionDef{
				{Reactants: map[string]int{"A": 1}, Products: map[string]int{"B": 1}, Rate: 1},
				{Reactants: map[string]int{"B": 1}, Rate: 0.5},
			},
		}.System,
		Initial: Initial{Uniform: map[string]float64{"A": 50}},
	})

	// Prey A grows autocatalytically from food E, predator B feeds on A.
	RegisterPreset(Preset{
		Name:        "predprey",
		Description: "catalysed predator-prey oscillator",
		System: crs.Definition{
			Molecules: []string{"A", "B", "E"},
			Reactions: []crs.ReactionDef{
				{Products: map[string]int{"A": 1}, Rate: 1, Catalysts: map[string]float64{"A": 1, "E": 0.05}},
				{Reactants: map[string]int{"A": 1}, Products: map[string]int{"B": 1}, Rate: 0.001, Catalysts: map[string]float64{"B": 1}},
				{Reactants: map[string]int{"B": 1}, Rate: 1},
			},
		}.System,
		Initial: Initial{Uniform: map[string]float64{"A": 1000, "B": 1000, "E": 20}},
	})

	RegisterPreset(Preset{
		Name:        "brusselator",
		Description: "Brusselator-type oscillator fed by A",
		System: crs.Definition{
			Molecules: []string{"A", "B", "X", "Y"},
			Reactions: []crs.ReactionDef{
				{Reactants: map[string]int{"A": 1}, Products: map[string]int{"X": 1}, Rate: 0.01},
				{Reactants: map[string]int{"X": 1}, Products: map[string]int{"Y": 1}, Rate: 0.01, Catalysts: map[string]float64{"B": 0.1}},
				{Reactants: map[string]int{"Y": 1}, Products: map[string]int{"X": 1}, Rate: 0.0001, Catalysts: map[string]float64{"X": 1}},
				{Reactants: map[string]int{"X": 1}, Rate: 0.01},
			},
		}.System,
		Initial: Initial{Uniform: map[string]float64{"A": 5000, "B": 50, "X": 2000, "Y": 1000}},
	})

	RegisterPreset(Preset{
		Name:        "polymer",
		Description: "reversible ligation of A/B sequences up to length 3",
		System: func() (*crs.System, error) {
			sys := crs.BinaryPolymers(3, 1, 1)
			return sys, sys.Validate()
		},
		Initial: Initial{Scatter: map[string]int{"A": 40000, "B": 40000}},
	})
}
