package crs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of a System used by the YAML and JSON
// formats. Molecules are referenced by name.
type Definition struct {
	Molecules []string      `yaml:"molecules" json:"molecules"`
	Reactions []ReactionDef `yaml:"reactions" json:"reactions"`
}

// ReactionDef is one reaction of a Definition.
type ReactionDef struct {
	Reactants  map[string]int     `yaml:"reactants,omitempty" json:"reactants,omitempty"`
	Products   map[string]int     `yaml:"products,omitempty" json:"products,omitempty"`
	Rate       float64            `yaml:"rate" json:"rate"`
	Propensity string             `yaml:"propensity,omitempty" json:"propensity,omitempty"`
	Catalysts  map[string]float64 `yaml:"catalysts,omitempty" json:"catalysts,omitempty"`
}

// System resolves molecule names and returns the normalized, validated system.
func (d Definition) System() (*System, error) {
	sys := &System{Molecules: append([]string(nil), d.Molecules...)}
	index := sys.MoleculeIndex()

	resolve := func(i int, name string) (int, error) {
		m, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("reaction %d: %w %q", i, ErrUnknownMolecule, name)
		}
		return m, nil
	}

	for i, rd := range d.Reactions {
		rx := Reaction{ID: i, Constant: rd.Rate, Propensity: strings.ToUpper(rd.Propensity)}
		for _, name := range sortedKeys(rd.Reactants) {
			m, err := resolve(i, name)
			if err != nil {
				return nil, err
			}
			rx.Reactants = append(rx.Reactants, Term{Molecule: m, Coeff: rd.Reactants[name]})
		}
		for _, name := range sortedKeys(rd.Products) {
			m, err := resolve(i, name)
			if err != nil {
				return nil, err
			}
			rx.Products = append(rx.Products, Term{Molecule: m, Coeff: rd.Products[name]})
		}
		for _, name := range sortedKeys(rd.Catalysts) {
			m, err := resolve(i, name)
			if err != nil {
				return nil, err
			}
			rx.Catalysts = append(rx.Catalysts, Catalyst{Molecule: m, Constant: rd.Catalysts[name]})
		}
		rx.Normalize()
		sys.Reactions = append(sys.Reactions, rx)
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Definition converts s to its declarative form.
func (s *System) Definition() Definition {
	d := Definition{Molecules: append([]string(nil), s.Molecules...)}
	for _, r := range s.Reactions {
		rd := ReactionDef{Rate: r.Constant, Propensity: r.Propensity}
		if len(r.Reactants) > 0 {
			rd.Reactants = make(map[string]int, len(r.Reactants))
			for _, t := range r.Reactants {
				rd.Reactants[s.Molecules[t.Molecule]] += t.Coeff
			}
		}
		if len(r.Products) > 0 {
			rd.Products = make(map[string]int, len(r.Products))
			for _, t := range r.Products {
				rd.Products[s.Molecules[t.Molecule]] += t.Coeff
			}
		}
		if len(r.Catalysts) > 0 {
			rd.Catalysts = make(map[string]float64, len(r.Catalysts))
			for _, c := range r.Catalysts {
				rd.Catalysts[s.Molecules[c.Molecule]] = c.Constant
			}
		}
		d.Reactions = append(d.Reactions, rd)
	}
	return d
}

// Format names an on-disk representation of a System.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks a format from a file extension; unknown extensions are text.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Decode parses data in the given format.
func Decode(data []byte, f Format) (*System, error) {
	var d Definition
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	case FormatText:
		sys, err := ReadText(strings.NewReader(string(data)))
		if err != nil {
			return nil, err
		}
		if err := sys.Validate(); err != nil {
			return nil, err
		}
		return sys, nil
	default:
		return nil, fmt.Errorf("crs: unknown format %q", f)
	}
	return d.System()
}

// Encode renders sys in the given format.
func Encode(sys *System, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(sys.Definition())
	case FormatJSON:
		data, err := json.MarshalIndent(sys.Definition(), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatText:
		var b strings.Builder
		if err := WriteText(&b, sys); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("crs: unknown format %q", f)
	}
}

// LoadFile reads a reaction system, choosing the format by extension.
func LoadFile(path string) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reaction system: %w", err)
	}
	sys, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sys, nil
}

// SaveFile writes sys to path, choosing the format by extension.
func SaveFile(path string, sys *System) error {
	data, err := Encode(sys, FormatOf(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write reaction system: %w", err)
	}
	return nil
}
