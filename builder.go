package sequence

import (
	"log/slog"

	"github.com/sequence-dev/sequence/compact"
	"github.com/sequence-dev/sequence/config"
	"github.com/sequence-dev/sequence/flexure"
	"github.com/sequence-dev/sequence/fluvial"
	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
	"github.com/sequence-dev/sequence/sealevel"
	"github.com/sequence-dev/sequence/shoreline"
	"github.com/sequence-dev/sequence/submarine"
	"github.com/sequence-dev/sequence/subsidence"
)

// thickness of the uniform pre-run section laid down under the initial
// topography
const basementThickness = 100.

// Build assembles a simulation and its writer from a loaded configuration.
// The initial configuration state drives construction; every value a later
// state changes becomes a schedule entry validated against the built
// pipeline. Shared-parameter mismatches are reported and skipped, never
// fatal.
func Build(tv *config.TimeVaryingConfig) (*Simulation, *Writer, error) {
	params := tv.Initial()
	if err := params.Validate(); err != nil {
		return nil, nil, configErrorf("%v", err)
	}
	for _, err := range params.Match() {
		slog.Warn("shared parameters disagree; sections left as configured", "err", err)
	}

	ncols, spacing, err := params.GridDims()
	if err != nil {
		return nil, nil, configErrorf("%v", err)
	}
	prof, err := grid.New(ncols, spacing)
	if err != nil {
		return nil, nil, err
	}

	if fp, ok := params.Str("bathymetry", "filepath"); ok {
		if kind, ok := params.Str("bathymetry", "kind"); ok && kind != "linear" {
			slog.Warn("bathymetry interpolation is always linear", "kind", kind)
		}
		if err := prof.ReadBathymetry(fp); err != nil {
			return nil, nil, configErrorf("%v", err)
		}
	} else {
		prof.InitialProfile(
			fparam(params, "bathymetry", "shore", 20000.),
			fparam(params, "submarine_diffusion", "plain_slope", 0.0008),
			fparam(params, "submarine_diffusion", "shelf_slope", 0.001),
			fparam(params, "submarine_diffusion", "shoreface_height", 15.),
			fparam(params, "submarine_diffusion", "alpha", 0.0005))
	}
	prof.SetBedrock(basementThickness)

	stack := layers.NewStack(ncols)
	if params.Has("reduce") {
		stack.ReduceEvery = int(fparam(params, "reduce", "every", 20.))
		stack.ReduceMerge = int(fparam(params, "reduce", "merge", 10.))
	}

	clock, err := buildClock(params)
	if err != nil {
		return nil, nil, err
	}

	names := ProcessList(params)
	procs := make([]Process, len(names))
	for i, name := range names {
		pr, err := buildComponent(name, params, prof, stack, clock.Start())
		if err != nil {
			return nil, nil, configErrorf("%s: %v", name, err)
		}
		procs[i] = pr
	}
	pipe, err := NewPipeline(procs...)
	if err != nil {
		return nil, nil, err
	}

	sched, err := buildSchedule(tv.Changes(), pipe)
	if err != nil {
		return nil, nil, err
	}

	sim := NewSimulation(prof, stack, clock, pipe, sched)
	if enabled(names, "compaction") {
		sim.LayerPorosity = fparam(params, "compaction", "porosity_max", 0.5)
	}
	if err := sim.AddBasement(basementThickness); err != nil {
		return nil, nil, err
	}

	w, err := buildWriter(params)
	if err != nil {
		return nil, nil, err
	}
	return sim, w, nil
}

// ProcessList resolves the configured process names: the default set when
// none are given, with fluvial and shoreline appended when missing. An
// explicitly empty list still gets the appended pair.
func ProcessList(p config.Params) []string {
	names, ok := p.Processes()
	if !ok {
		names = config.AllProcesses()
	}
	out := append([]string{}, names...)
	for _, extra := range []string{"fluvial", "shoreline"} {
		if !enabled(out, extra) {
			out = append(out, extra)
		}
	}
	return out
}

func enabled(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func buildComponent(name string, p config.Params, prof *grid.Profile, stack *layers.Stack, start float64) (Process, error) {
	switch name {
	case "sea_level":
		if fp, ok := p.Str("sea_level", "filepath"); ok {
			return sealevel.NewTimeSeries(prof, fp, start)
		}
		return sealevel.NewSinusoidal(prof,
			fparam(p, "sea_level", "wave_length", 200000.),
			fparam(p, "sea_level", "amplitude", 10.),
			fparam(p, "sea_level", "phase", 0.),
			fparam(p, "sea_level", "mean", 0.),
			start,
			fparam(p, "sea_level", "linear", 0.))

	case "subsidence":
		return subsidence.New(prof, sparam(p, "subsidence", "filepath", "subsidence.csv"))

	case "compaction":
		cc, err := compact.New(stack,
			fparam(p, "compaction", "c", 5.0e-08),
			fparam(p, "compaction", "porosity_max", 0.5),
			fparam(p, "compaction", "porosity_min", 0.01),
			fparam(p, "compaction", "rho_grain", 2650.),
			fparam(p, "compaction", "rho_void", 1000.))
		if err != nil {
			return nil, err
		}
		if g, ok := p.Float("compaction", "gravity"); ok {
			if err := cc.SetParam("gravity", g); err != nil {
				return nil, err
			}
		}
		return cc, nil

	case "submarine_diffusion":
		d, err := submarine.New(prof,
			fparam(p, "submarine_diffusion", "plain_slope", 0.0008),
			fparam(p, "submarine_diffusion", "wave_base", 60.),
			fparam(p, "submarine_diffusion", "shoreface_height", 15.),
			fparam(p, "submarine_diffusion", "alpha", 0.0005),
			fparam(p, "submarine_diffusion", "shelf_slope", 0.001),
			fparam(p, "submarine_diffusion", "sediment_load", 3.),
			fparam(p, "submarine_diffusion", "load_sealevel", 0.),
			fparam(p, "submarine_diffusion", "basin_width", 500000.))
		if err != nil {
			return nil, err
		}
		if b, ok := p.Str("submarine_diffusion", "far_boundary"); ok {
			if err := d.SetParam("far_boundary", b); err != nil {
				return nil, err
			}
		}
		return d, nil

	case "fluvial":
		return fluvial.New(prof,
			fparam(p, "fluvial", "sand_frac", 0.5),
			fparam(p, "fluvial", "wave_base", 60.),
			fparam(p, "fluvial", "sediment_load", 3.),
			fparam(p, "fluvial", "sand_density", 2650.),
			fparam(p, "fluvial", "plain_slope", 0.0008),
			fparam(p, "fluvial", "hemipelagic", 0.))

	case "flexure":
		return flexure.NewSediment(prof, flexConfig(p, "flexure"))

	case "water_flexure":
		return flexure.NewWater(prof, flexConfig(p, "water_flexure"))

	case "shoreline":
		return shoreline.NewFinder(prof,
			fparam(p, "shoreline", "alpha", 0.0005),
			fparam(p, "shoreline", "shoreface_height", 15.)), nil
	}
	return nil, configErrorf("unknown process %q", name)
}

func flexConfig(p config.Params, section string) flexure.Config {
	cfg := flexure.DefaultConfig()
	if v, ok := p.Str(section, "method"); ok {
		cfg.Method = v
	}
	if v, ok := p.Float(section, "rho_mantle"); ok {
		cfg.RhoMantle = v
	}
	if v, ok := p.Float(section, "eet"); ok {
		cfg.EET = v
	}
	if v, ok := p.Float(section, "youngs"); ok {
		cfg.Youngs = v
	}
	if v, ok := p.Float(section, "poisson"); ok {
		cfg.Poisson = v
	}
	if v, ok := p.Float(section, "gravity"); ok {
		cfg.Gravity = v
	}
	if v, ok := p.Float(section, "isostasytime"); ok {
		cfg.IsostasyTime = v
	}
	if v, ok := p.Float(section, "water_density"); ok {
		cfg.WaterDensity = v
	}
	if v, ok := p.Float(section, "sand_density"); ok {
		cfg.SandDensity = v
	}
	if v, ok := p.Float(section, "mud_density"); ok {
		cfg.MudDensity = v
	}
	return cfg
}

func buildClock(p config.Params) (*Clock, error) {
	stop, ok := p.Float("clock", "stop")
	if !ok {
		return nil, configErrorf("clock: missing stop")
	}
	step, ok := p.Float("clock", "step")
	if !ok {
		return nil, configErrorf("clock: missing step")
	}
	return NewClock(fparam(p, "clock", "start", 0.), stop, step)
}

// buildSchedule turns the configuration's later states into schedule
// entries. Only enabled components may change mid-run, and only through
// parameters they expose.
func buildSchedule(changes []config.Change, pipe *Pipeline) (*Schedule, error) {
	entries := make([]Entry, 0, len(changes))
	for _, c := range changes {
		if c.Section == "" {
			return nil, configErrorf("schedule: top-level %q cannot change mid-run", c.Param)
		}
		if pipe.Get(c.Section) == nil {
			return nil, configErrorf("schedule: %q is not an enabled component", c.Section)
		}
		if !pipe.HasParam(c.Section, c.Param) {
			return nil, configErrorf("schedule: %s has no parameter %q", c.Section, c.Param)
		}
		entries = append(entries, Entry{Time: c.Time, Component: c.Section, Param: c.Param, Value: c.Value})
	}
	return NewSchedule(entries), nil
}

func buildWriter(p config.Params) (*Writer, error) {
	if !p.Has("output") {
		return nil, nil
	}
	fields, ok := p.Strings("output", "fields")
	if !ok {
		fields = []string{grid.Deposit, grid.Bedrock}
	}
	interval := 10
	if v, ok := p.Int("output", "interval"); ok {
		interval = v
	}
	clobber := true
	if v, ok := p.Bool("output", "clobber"); ok {
		clobber = v
	}
	return NewWriter(sparam(p, "output", "filepath", "sequence.nc"), interval, fields, clobber)
}

func fparam(p config.Params, section, key string, def float64) float64 {
	if v, ok := p.Float(section, key); ok {
		return v
	}
	return def
}

func sparam(p config.Params, section, key string, def string) string {
	if v, ok := p.Str(section, key); ok {
		return v
	}
	return def
}
