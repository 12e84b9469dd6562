package sequence

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
)

// steady stages a constant deposition rate, negative to erode.
type steady struct {
	p    *grid.Profile
	rate float64 // [m/y]
}

func (s *steady) Name() string     { return "steady" }
func (s *steady) Reads() []string  { return nil }
func (s *steady) Writes() []string { return []string{grid.Deposit} }
func (s *steady) Params() []string { return []string{"rate"} }

func (s *steady) SetParam(key string, value interface{}) error {
	if key != "rate" {
		return fmt.Errorf("steady: unknown parameter %q", key)
	}
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("steady: rate wants a number, got %T", value)
	}
	s.rate = v
	return nil
}

func (s *steady) Advance(dt float64) error {
	for i := range s.p.Dz {
		s.p.Dz[i] += s.rate * dt
	}
	return nil
}

// drape stages a uniform hemipelagic thickness each step.
type drape struct {
	p *grid.Profile
	h float64 // [m/step]
}

func (d *drape) Name() string     { return "drape" }
func (d *drape) Reads() []string  { return nil }
func (d *drape) Writes() []string { return []string{grid.Hemipelagic} }
func (d *drape) Params() []string { return nil }
func (d *drape) SetParam(key string, value interface{}) error {
	return fmt.Errorf("drape: no parameter %q", key)
}
func (d *drape) Advance(dt float64) error {
	for i := range d.p.Hemi {
		d.p.Hemi[i] += d.h
	}
	return nil
}

// sinker stages a constant bedrock increment, negative down.
type sinker struct {
	p    *grid.Profile
	rate float64 // [m/y]
}

func (s *sinker) Name() string     { return "sinker" }
func (s *sinker) Reads() []string  { return nil }
func (s *sinker) Writes() []string { return []string{grid.BedrockInc} }
func (s *sinker) Params() []string { return nil }
func (s *sinker) SetParam(key string, value interface{}) error {
	return fmt.Errorf("sinker: no parameter %q", key)
}
func (s *sinker) Advance(dt float64) error {
	for i := range s.p.DzbSub {
		s.p.DzbSub[i] += s.rate * dt
	}
	return nil
}

// tide drifts sea level at a constant rate.
type tide struct {
	p    *grid.Profile
	rate float64 // [m/y]
}

func (td *tide) Name() string     { return "tide" }
func (td *tide) Reads() []string  { return nil }
func (td *tide) Writes() []string { return []string{grid.SeaLevel} }
func (td *tide) Params() []string { return nil }
func (td *tide) SetParam(key string, value interface{}) error {
	return fmt.Errorf("tide: no parameter %q", key)
}
func (td *tide) Advance(dt float64) error {
	td.p.Sl += td.rate * dt
	return nil
}

// blowup fails on its first step.
type blowup struct{ stub }

func (b *blowup) Advance(dt float64) error { return fmt.Errorf("diverged") }

func testProfile(t *testing.T) *grid.Profile {
	t.Helper()
	p, err := grid.New(5, 100.)
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range p.X {
		p.Z[i] = 10. - 0.1*x
	}
	p.SetBedrock(basementThickness)
	return p
}

// checkSection verifies the archive matches topography minus bedrock.
func checkSection(t *testing.T, s *Simulation) {
	t.Helper()
	tot := make([]float64, s.P.Ncols())
	s.Stack.Totals(tot)
	for i := range tot {
		if d := math.Abs(s.P.Z[i] - s.P.Zb[i] - tot[i]); d > 1e-9 {
			t.Errorf("column %d: topo-bedrock %g, section %g",
				i, s.P.Z[i]-s.P.Zb[i], tot[i])
		}
	}
}

func TestAddBasement(t *testing.T) {
	p := testProfile(t)
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(&steady{p: p})
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	if s.Stack.NLayers() != 1 {
		t.Fatalf("nlayers: got %d, want 1", s.Stack.NLayers())
	}
	checkSection(t, s)
	for i := range s.P.Z {
		if s.Stack.Hw[0][i] != -s.P.Zb[i] {
			t.Errorf("column %d: basement water depth %g, want %g",
				i, s.Stack.Hw[0][i], -s.P.Zb[i])
		}
		if s.Stack.Phi[0][i] != 0.5 || s.Stack.T0[0][i] != 10. {
			t.Errorf("column %d: basement properties phi %g t0 %g",
				i, s.Stack.Phi[0][i], s.Stack.T0[0][i])
		}
	}
	if s.Stack.Age[0][0] != s.Clock.Start() {
		t.Errorf("basement age: got %g, want %g", s.Stack.Age[0][0], s.Clock.Start())
	}
}

func TestTickCommitsDeposit(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(st)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	z0 := append([]float64{}, p.Z...)

	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}

	if s.Stack.NLayers() != 2 {
		t.Fatalf("nlayers: got %d, want 2", s.Stack.NLayers())
	}
	checkSection(t, s)
	for i := range p.Z {
		if math.Abs(p.Z[i]-z0[i]-1.) > 1e-12 {
			t.Errorf("column %d: elevation rose %g, want 1", i, p.Z[i]-z0[i])
		}
	}

	// layer properties are recorded against the pre-commit surface
	if s.Stack.Age[1][0] != 100. {
		t.Errorf("layer age: got %g, want 100", s.Stack.Age[1][0])
	}
	if s.Stack.Hw[1][0] != -z0[0] {
		t.Errorf("layer water depth: got %g, want %g (unclipped)", s.Stack.Hw[1][0], -z0[0])
	}
	if s.Stack.T0[1][2] != 1. {
		t.Errorf("layer t0: got %g, want 1", s.Stack.T0[1][2])
	}

	// water depth and its increment against still sea level
	if p.Hw[0] != 0. || p.DHw[0] != 0. {
		t.Errorf("dry column: hw %g dhw %g", p.Hw[0], p.DHw[0])
	}
	if math.Abs(p.Hw[2]-9.) > 1e-12 || math.Abs(p.DHw[2]+1.) > 1e-12 {
		t.Errorf("wet column: hw %g dhw %g, want 9 and -1", p.Hw[2], p.DHw[2])
	}
}

func TestWaterDepthIncrementSeesSeaLevel(t *testing.T) {
	p, err := grid.New(5, 100.)
	if err != nil {
		t.Fatal(err)
	}
	for i := range p.Z {
		p.Z[i] = -10.
	}
	p.SetBedrock(basementThickness)
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(&tide{p: p, rate: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	for i := range p.Hw {
		if p.Hw[i] != 10. {
			t.Fatalf("column %d: starting water depth %g, want 10", i, p.Hw[i])
		}
	}

	// a rising sea over a static floor is all increment
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := range p.Hw {
		if math.Abs(p.Hw[i]-11.) > 1e-12 || math.Abs(p.DHw[i]-1.) > 1e-12 {
			t.Errorf("column %d: hw %g dhw %g, want 11 and 1", i, p.Hw[i], p.DHw[i])
		}
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := range p.Hw {
		if math.Abs(p.DHw[i]-1.) > 1e-12 {
			t.Errorf("column %d: second-step dhw %g, want 1", i, p.DHw[i])
		}
	}
}

func TestWaterDepthIncrementCombinesFloorAndSea(t *testing.T) {
	p, err := grid.New(5, 100.)
	if err != nil {
		t.Fatal(err)
	}
	for i := range p.Z {
		p.Z[i] = -10.
	}
	p.SetBedrock(basementThickness)
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(&tide{p: p, rate: 0.01}, &steady{p: p, rate: 0.005})
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	// sea up 1 m, floor up 0.5 m: the column deepens by the difference
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := range p.Hw {
		if math.Abs(p.Hw[i]-10.5) > 1e-12 || math.Abs(p.DHw[i]-0.5) > 1e-12 {
			t.Errorf("column %d: hw %g dhw %g, want 10.5 and 0.5", i, p.Hw[i], p.DHw[i])
		}
	}
}

func TestStagedFieldsResetBetweenTicks(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(st)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	for k := 0; k < 2; k++ {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	tot := make([]float64, s.P.Ncols())
	s.Stack.Totals(tot)
	if math.Abs(tot[0]-102.) > 1e-12 {
		t.Errorf("section after two steps: got %g, want 102", tot[0])
	}
}

func TestHemipelagicFoldsIntoDeposit(t *testing.T) {
	p := testProfile(t)
	d := &drape{p: p, h: 0.25}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(d)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	tot := make([]float64, p.Ncols())
	s.Stack.Totals(tot)
	if math.Abs(tot[0]-100.25) > 1e-12 {
		t.Errorf("section: got %g, want 100.25", tot[0])
	}
	checkSection(t, s)
}

func TestScheduleAppliesThroughTick(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, NewSchedule([]Entry{
		{Time: 0., Component: "steady", Param: "rate", Value: 0.02},
		{Time: 200., Component: "steady", Param: "rate", Value: 0.},
	}))
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	deposits := []float64{2., 2., 0.}
	total := 100.
	for k, want := range deposits {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
		total += want
		tot := make([]float64, p.Ncols())
		s.Stack.Totals(tot)
		if math.Abs(tot[0]-total) > 1e-12 {
			t.Fatalf("step %d: section %g, want %g", k+1, tot[0], total)
		}
	}
}

func TestScheduleTieBreakThroughTick(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, NewSchedule([]Entry{
		{Time: 0., Component: "steady", Param: "rate", Value: 0.05},
		{Time: 0., Component: "steady", Param: "rate", Value: 0.07},
	}))
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if math.Abs(st.rate-0.07) > 1e-15 {
		t.Errorf("rate after tied entries: got %g, want 0.07 (listed last)", st.rate)
	}
}

func TestScheduleUnknownComponentFailsRun(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, NewSchedule([]Entry{
		{Time: 0., Component: "phantom", Param: "rate", Value: 1.},
	}))
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	err := s.Tick()
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type: %T (%v)", err, err)
	}
	if s.Pipe.State() != Failed {
		t.Errorf("state after failure: %v", s.Pipe.State())
	}
}

func TestComponentErrorAbortsRun(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	b := &blowup{stub{name: "unstable"}}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, err := NewPipeline(st, b)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	err = s.Tick()
	var nerr *NumericalError
	if !errors.As(err, &nerr) {
		t.Fatalf("error type: %T (%v)", err, err)
	}
	if nerr.Step != 1 {
		t.Errorf("failing step: got %d, want 1", nerr.Step)
	}
	if s.Pipe.State() != Failed {
		t.Errorf("state after failure: %v", s.Pipe.State())
	}
	if err := s.Tick(); err == nil {
		t.Error("ticking a failed run must be rejected")
	}
}

func TestErosionBeyondArchiveLowersBedrock(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: -4.}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	z0 := append([]float64{}, p.Z...)

	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}

	// 400 m of erosion against a 100 m archive takes 300 m off bedrock
	for i := range p.Z {
		if math.Abs(p.Z[i]-(z0[i]-400.)) > 1e-9 {
			t.Errorf("column %d: elevation %g, want %g", i, p.Z[i], z0[i]-400.)
		}
		if math.Abs(p.Z[i]-p.Zb[i]) > 1e-9 {
			t.Errorf("column %d: emptied column should sit on bedrock", i)
		}
	}
	checkSection(t, s)
}

func TestBedrockIncrementCommits(t *testing.T) {
	p := testProfile(t)
	sk := &sinker{p: p, rate: -0.001}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(sk)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	zb0 := append([]float64{}, p.Zb...)

	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := range p.Zb {
		if math.Abs(p.Zb[i]-(zb0[i]-0.1)) > 1e-12 {
			t.Errorf("column %d: bedrock %g, want %g", i, p.Zb[i], zb0[i]-0.1)
		}
		if p.DzbSub[i] != 0. {
			t.Errorf("column %d: increment not cleared after commit", i)
		}
	}
	checkSection(t, s)

	// two more steps accumulate, not repeat
	for k := 0; k < 2; k++ {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(p.Zb[0]-(zb0[0]-0.3)) > 1e-12 {
		t.Errorf("bedrock after three steps: %g, want %g", p.Zb[0], zb0[0]-0.3)
	}
}

func TestNonFiniteIncrementAborts(t *testing.T) {
	p := testProfile(t)
	sk := &sinker{p: p, rate: math.NaN()}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(sk)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	err := s.Tick()
	var nerr *NumericalError
	if !errors.As(err, &nerr) {
		t.Fatalf("error type: %T (%v)", err, err)
	}
	if s.Pipe.State() != Failed {
		t.Errorf("state after failure: %v", s.Pipe.State())
	}
}

func TestLayerReductionKeepsSection(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	s.Stack.ReduceEvery = 2
	s.Stack.ReduceMerge = 2
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}

	for k := 0; k < 6; k++ {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Stack.NLayers() != 4 || s.Stack.Narchived != 3 {
		t.Errorf("layers %d archived %d, want 4 and 3",
			s.Stack.NLayers(), s.Stack.Narchived)
	}
	tot := make([]float64, p.Ncols())
	s.Stack.Totals(tot)
	if math.Abs(tot[0]-106.) > 1e-9 {
		t.Errorf("section after merges: got %g, want 106", tot[0])
	}
	checkSection(t, s)
}

func TestZeroStepRunFinishes(t *testing.T) {
	p := testProfile(t)
	clock, err := NewClock(500., 500., 100.)
	if err != nil {
		t.Fatal(err)
	}
	pipe, _ := NewPipeline(&steady{p: p, rate: 0.01})
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(nil, true); err != nil {
		t.Fatal(err)
	}
	if s.Clock.StepsTaken() != 0 {
		t.Errorf("steps taken: got %d, want 0", s.Clock.StepsTaken())
	}
	if s.Pipe.State() != Finished {
		t.Errorf("state: %v", s.Pipe.State())
	}
}

func TestRunToCompletion(t *testing.T) {
	p := testProfile(t)
	st := &steady{p: p, rate: 0.01}
	clock, _ := NewClock(0., 1000., 100.)
	pipe, _ := NewPipeline(st)
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, nil)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(nil, true); err != nil {
		t.Fatal(err)
	}
	if !s.Clock.Done() || s.Clock.StepsTaken() != 10 {
		t.Errorf("clock: done %v steps %d", s.Clock.Done(), s.Clock.StepsTaken())
	}
	if s.Pipe.State() != Finished {
		t.Errorf("state: %v", s.Pipe.State())
	}
	if _, ok := s.Timer["steady"]; !ok {
		t.Error("run should record component timing")
	}
	tot := make([]float64, p.Ncols())
	s.Stack.Totals(tot)
	if math.Abs(tot[0]-110.) > 1e-9 {
		t.Errorf("final section: got %g, want 110", tot[0])
	}
}
