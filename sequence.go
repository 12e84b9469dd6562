package sequence

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/sequence-dev/sequence/flexure"
	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
)

// the loading total is kept with fixed reference densities
const (
	loadPorosity     = 0.5
	loadSandDensity  = 2650.
	loadMudDensity   = 2720.
	loadWaterDensity = 1030.
)

// Simulation owns the derived state of a run: elevation, bedrock, water
// depth, the sediment loading total and the layer archive. Components
// stage deposits and increments against the shared profile; Tick runs
// them in order and commits their work exactly once.
type Simulation struct {
	P     *grid.Profile
	Stack *layers.Stack
	Clock *Clock
	Pipe  *Pipeline
	Sched *Schedule

	// porosity recorded on freshly deposited layers; the builder raises
	// it to the compaction component's maximum when one is enabled
	LayerPorosity float64

	// wall time spent in each component
	Timer map[string]time.Duration

	zeta    []float64
	loading []float64
	totals  []float64
	t0      []float64
	wd      []float64
	rhoSed  []float64
}

func NewSimulation(p *grid.Profile, stack *layers.Stack, clock *Clock, pipe *Pipeline, sched *Schedule) *Simulation {
	n := p.Ncols()
	if sched == nil {
		sched = NewSchedule(nil)
	}
	return &Simulation{
		P:             p,
		Stack:         stack,
		Clock:         clock,
		Pipe:          pipe,
		Sched:         sched,
		LayerPorosity: 0.5,
		Timer:         map[string]time.Duration{},
		zeta:          make([]float64, n),
		loading:       make([]float64, n),
		totals:        make([]float64, n),
		t0:            make([]float64, n),
		wd:            make([]float64, n),
		rhoSed:        make([]float64, n),
	}
}

// AddBasement records a uniform pre-run section so the archive, bedrock
// and topography agree before the first step. Bedrock must already sit
// thickness below the surface.
func (s *Simulation) AddBasement(thickness float64) error {
	for i := range s.wd {
		s.wd[i] = -s.P.Zb[i]
		s.t0[i] = 10.
		s.zeta[i] = thickness
		s.rhoSed[i] = 0.5
		s.P.Hw[i] = math.Max(0., s.P.Sl-s.P.Z[i])
	}
	_, err := s.Stack.Add(s.zeta, layers.Props{
		Age:         s.Clock.Start(),
		Porosity:    0.5,
		WaterDepth:  s.wd,
		T0:          s.t0,
		PercentSand: s.rhoSed,
	})
	return err
}

// Tick advances the model one clock step: due schedule entries are
// applied, per-step fields cleared, every component run in order, and the
// results committed.
func (s *Simulation) Tick() error {
	if err := s.Pipe.Transition(Stepping); err != nil {
		return err
	}

	for _, e := range s.Sched.Due(s.Clock.Time()) {
		pr := s.Pipe.Get(e.Component)
		if pr == nil {
			return s.fail(configErrorf("schedule: unknown component %q", e.Component))
		}
		if err := pr.SetParam(e.Param, e.Value); err != nil {
			return s.fail(err)
		}
	}

	p := s.P
	zero(p.Dz)
	zero(p.Qs)
	zero(p.Fsand)
	zero(p.Hemi)

	s.Clock.Advance()
	dt := s.Clock.Step()

	for _, pr := range s.Pipe.procs {
		began := time.Now()
		err := pr.Advance(dt)
		s.Timer[pr.Name()] += time.Since(began)
		if err != nil {
			return s.fail(numericalErrorf(s.Clock.StepsTaken(), "%s: %v", pr.Name(), err))
		}
	}

	return s.commit()
}

// commit folds the staged per-step results into the driver-owned state.
func (s *Simulation) commit() error {
	p := s.P

	// the hemipelagic drape becomes part of this step's deposit
	floats.Add(p.Dz, p.Hemi)

	for i, z := range p.Z {
		s.wd[i] = p.Sl - z
		s.t0[i] = math.Max(0., p.Dz[i])
		s.zeta[i] = z - p.Sl
		s.rhoSed[i] = flexure.MixedDensity(p.Fsand[i], loadSandDensity, loadMudDensity)
	}

	excess, err := s.Stack.Add(p.Dz, layers.Props{
		Age:         s.Clock.Time(),
		Porosity:    s.LayerPorosity,
		WaterDepth:  s.wd,
		T0:          s.t0,
		PercentSand: p.Fsand,
	})
	if err != nil {
		return s.fail(err)
	}

	// the deposit's contribution to the loading total, against the
	// pre-commit surface
	flexure.CalcLoading(s.loading, p.Dz, s.zeta, loadPorosity, s.rhoSed, loadWaterDensity)
	floats.Add(p.Qload, s.loading)

	for _, inc := range [][]float64{p.DzbSub, p.DzbSed, p.DzbWat} {
		if i, ok := firstNonFinite(inc); ok {
			return s.fail(numericalErrorf(s.Clock.StepsTaken(), "non-finite bedrock increment at column %d", i))
		}
	}
	for i := range p.Zb {
		p.Zb[i] -= excess[i]
		p.Zb[i] += p.DzbSub[i] + p.DzbSed[i] + p.DzbWat[i]
	}
	zero(p.DzbSub)
	zero(p.DzbSed)
	zero(p.DzbWat)

	s.Stack.Totals(s.totals)
	floats.AddTo(p.Z, p.Zb, s.totals)

	// water depth changes through sea-level motion and seafloor motion
	// alike, so the increment is taken against last step's committed depth
	for i, z := range p.Z {
		d := math.Max(0., p.Sl-z)
		p.DHw[i] = d - p.Hw[i]
		p.Hw[i] = d
	}

	s.Stack.MaybeReduce()

	if i, ok := firstNonFinite(p.Z); ok {
		return s.fail(numericalErrorf(s.Clock.StepsTaken(), "non-finite elevation at column %d", i))
	}
	if nl := s.Stack.NLayers(); nl > 0 {
		if i, ok := firstNonFinite(s.Stack.Phi[nl-1]); ok {
			return s.fail(numericalErrorf(s.Clock.StepsTaken(), "non-finite porosity at column %d", i))
		}
	}
	return nil
}

func (s *Simulation) fail(err error) error {
	if terr := s.Pipe.Transition(Failed); terr != nil {
		return terr
	}
	return err
}

// Finish marks a completed run.
func (s *Simulation) Finish() error { return s.Pipe.Transition(Finished) }

func zero(v []float64) {
	for i := range v {
		v[i] = 0.
	}
}

func firstNonFinite(v []float64) (int, bool) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return i, true
		}
	}
	return -1, false
}
