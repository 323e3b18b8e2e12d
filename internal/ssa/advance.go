package ssa

import (
	"log/slog"
	"math"

	"chem-ca/internal/core"
	"chem-ca/internal/logging"
	pcore "chem-ca/pkg/core"
)

// Event describes one executed reaction. Clock is the value after the
// waiting time was added (unchanged in ForEvents mode) and Total the grand
// propensity after the grid update.
type Event struct {
	Index    int
	X, Y     int
	Reaction int
	Clock    float64
	Total    float64
}

// Options tunes a run without changing its results.
type Options struct {
	// Incremental refreshes only the mutated site after each event instead
	// of rebuilding the whole grid. Results are bit-identical either way.
	Incremental bool
	// Observer, when set, is called synchronously after every event.
	Observer func(Event)
	// Logger receives entry and exit records at debug level.
	Logger *slog.Logger
}

// Request bundles the inputs of one Advance call. Lattice is mutated in
// place and remains owned by the caller.
type Request struct {
	Start   float64
	Stop    Stop
	Seed    int64
	Lattice *core.Lattice
	Network *Network
	Options Options
}

// Result is the outcome of one Advance call. In ForEvents mode Clock is the
// unmodified Start value.
type Result struct {
	Clock  float64
	Events int
	Status Status
}

func (req Request) validate() error {
	if req.Lattice == nil {
		return invalidArg("nil lattice")
	}
	if err := req.Network.Validate(); err != nil {
		return err
	}
	lat := req.Lattice
	if lat.W <= 0 || lat.H <= 0 {
		return invalidArg("lattice %dx%d must have positive dimensions", lat.W, lat.H)
	}
	if lat.Species != req.Network.Species {
		return invalidArg("lattice holds %d species, network %d", lat.Species, req.Network.Species)
	}
	if lat.W > MaxSites/lat.H {
		return ErrAllocation
	}
	if want := lat.W * lat.H * lat.Species; len(lat.Values()) != want {
		return invalidArg("concentration buffer has %d entries, want %d", len(lat.Values()), want)
	}
	if math.IsNaN(req.Start) {
		return invalidArg("start time is NaN")
	}
	return req.Stop.validate()
}

// Advance runs the stochastic simulation described by req until its Stop
// condition or until no reaction can fire.
func Advance(req Request) (Result, error) {
	res := Result{Clock: req.Start}
	if err := req.validate(); err != nil {
		return res, err
	}
	grid, err := BuildGrid(req.Network, req.Lattice)
	if err != nil {
		return res, err
	}

	log := logging.OrDiscard(req.Options.Logger)
	log.Debug("ssa advance",
		"lattice", [2]int{req.Lattice.W, req.Lattice.H},
		"species", req.Network.Species,
		"reactions", req.Network.Reactions,
		"start", req.Start,
		"stop", req.Stop.String(),
		"seed", req.Seed,
	)

	res, err = run(req, grid, pcore.NewRNG(req.Seed))
	if err != nil {
		log.Debug("ssa advance failed", "events", res.Events, "clock", res.Clock, "error", err)
		return res, err
	}
	log.Debug("ssa advance done", "events", res.Events, "clock", res.Clock, "status", res.Status.String())
	return res, nil
}

func run(req Request, grid *Grid, rng *pcore.RNG) (Result, error) {
	net, lat, stop := req.Network, req.Lattice, req.Stop
	res := Result{Clock: req.Start}

	for {
		if stop.Mode == ForEvents && res.Events >= stop.Events {
			res.Status = CountReached
			return res, nil
		}
		if stop.Mode == UntilTime && res.Clock >= stop.Time {
			res.Status = TimeReached
			return res, nil
		}
		if !grid.valid() {
			return res, &StepError{Events: res.Events, Clock: res.Clock, Err: ErrInvalidState}
		}
		if grid.Total() == 0 {
			if stop.Mode == UntilTime {
				res.Clock = stop.Time
			}
			res.Status = Exhausted
			return res, nil
		}

		x, y, r, err := grid.Select(rng, net, lat)
		if err != nil {
			return res, &StepError{Events: res.Events, Clock: res.Clock, Err: err}
		}
		net.Apply(r, lat.Site(x, y))
		if req.Options.Incremental {
			grid.Refresh(net, lat, x, y)
		} else {
			grid.Rebuild(net, lat)
		}
		res.Events++

		if stop.Mode == UntilTime && grid.Total() != 0 {
			tau := -math.Log(rng.Unit()) / grid.Total()
			if math.IsNaN(tau) || tau < 0 {
				return res, &StepError{Events: res.Events, Clock: res.Clock, Err: ErrInvalidState}
			}
			res.Clock += tau
		}

		if req.Options.Observer != nil {
			req.Options.Observer(Event{
				Index:    res.Events,
				X:        x,
				Y:        y,
				Reaction: r,
				Clock:    res.Clock,
				Total:    grid.Total(),
			})
		}
	}
}

// AdvanceArrays is the flat form of Advance. The relative order of current
// and next selects the stopping discipline as described by DecodeStop. The
// concentrations slice is mutated in place; the returned value is the final
// clock, or current unchanged when running for a number of events.
func AdvanceArrays(
	current, next float64,
	seed int64,
	maxX, maxY, numMolecules, numReactions int,
	concentrations, rates []float64,
	kinds []int,
	stoichiometry []int,
	catalysts []float64,
) (float64, error) {
	if maxX <= 0 || maxY <= 0 {
		return current, invalidArg("lattice %dx%d must have positive dimensions", maxX, maxY)
	}
	if numMolecules <= 0 || numReactions <= 0 {
		return current, invalidArg("need positive molecule and reaction counts, got %d and %d", numMolecules, numReactions)
	}
	if len(kinds) != numReactions {
		return current, invalidArg("%d propensity kinds for %d reactions", len(kinds), numReactions)
	}
	if len(stoichiometry) != numReactions*numMolecules {
		return current, invalidArg("stoichiometry has %d entries, want %d", len(stoichiometry), numReactions*numMolecules)
	}

	net := &Network{
		Species:       numMolecules,
		Reactions:     numReactions,
		Rates:         rates,
		Kinds:         make([]PropensityKind, numReactions),
		Stoichiometry: make([]float64, len(stoichiometry)),
		Catalysts:     catalysts,
	}
	for i, k := range kinds {
		net.Kinds[i] = PropensityKind(k)
	}
	for i, v := range stoichiometry {
		net.Stoichiometry[i] = float64(v)
	}

	res, err := Advance(Request{
		Start:   current,
		Stop:    DecodeStop(current, next),
		Seed:    seed,
		Lattice: core.WrapLattice(maxX, maxY, numMolecules, concentrations),
		Network: net,
	})
	return res.Clock, err
}
