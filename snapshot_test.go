package sequence

import (
	"path/filepath"
	"testing"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
	"github.com/sequence-dev/sequence/sealevel"
)

// snapSim builds a small simulation with a stateful sea-level component, a
// steady depositor, and one mid-run rate change.
func snapSim(t *testing.T) *Simulation {
	t.Helper()
	p := testProfile(t)
	clock, err := NewClock(0., 500., 100.)
	if err != nil {
		t.Fatal(err)
	}
	sl, err := sealevel.NewSinusoidal(p, 200000., 10., 0., 0., 0., 0.)
	if err != nil {
		t.Fatal(err)
	}
	pipe, err := NewPipeline(sl, &steady{p: p, rate: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	sched := NewSchedule([]Entry{{Time: 300., Component: "steady", Param: "rate", Value: 0.02}})
	s := NewSimulation(p, layers.NewStack(p.Ncols()), clock, pipe, sched)
	if err := s.AddBasement(basementThickness); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSnapshotResumesMidRun(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "state.gob")

	a := snapSim(t)
	for i := 0; i < 4; i++ {
		if err := a.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if a.Sched.Applied() != 1 {
		t.Fatalf("schedule applied: got %d, want 1", a.Sched.Applied())
	}
	if err := a.SaveGob(fp); err != nil {
		t.Fatal(err)
	}

	b := snapSim(t)
	if err := b.LoadGob(fp); err != nil {
		t.Fatal(err)
	}
	if b.Clock.StepsTaken() != 4 {
		t.Fatalf("restored steps: got %d, want 4", b.Clock.StepsTaken())
	}
	if b.Sched.Applied() != 1 {
		t.Fatalf("restored schedule position: got %d, want 1", b.Sched.Applied())
	}
	for i := range a.P.Z {
		if b.P.Z[i] != a.P.Z[i] || b.P.Zb[i] != a.P.Zb[i] {
			t.Fatalf("column %d: restored surfaces differ: z %g vs %g, zb %g vs %g",
				i, b.P.Z[i], a.P.Z[i], b.P.Zb[i], a.P.Zb[i])
		}
	}
	if b.Stack.NLayers() != a.Stack.NLayers() {
		t.Fatalf("restored layers: got %d, want %d", b.Stack.NLayers(), a.Stack.NLayers())
	}

	// both copies step the same rate change forward
	if err := a.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := b.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := range a.P.Z {
		if b.P.Z[i] != a.P.Z[i] {
			t.Errorf("column %d: diverged after resume: %g vs %g", i, b.P.Z[i], a.P.Z[i])
		}
	}
	if !a.Clock.Done() || !b.Clock.Done() {
		t.Error("both runs should be at the stop time")
	}
	checkSection(t, b)
}

func TestSnapshotRejectsMismatchedGrid(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "state.gob")
	a := snapSim(t)
	if err := a.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := a.SaveGob(fp); err != nil {
		t.Fatal(err)
	}

	p, _ := grid.New(4, 100.)
	p.SetBedrock(basementThickness)
	clock, _ := NewClock(0., 500., 100.)
	pipe, _ := NewPipeline(&steady{p: p})
	b := NewSimulation(p, layers.NewStack(4), clock, pipe, nil)
	if err := b.LoadGob(fp); err == nil {
		t.Error("expected error restoring a 5-column snapshot into a 4-column grid")
	}
}

func TestLoadGobMissingFile(t *testing.T) {
	a := snapSim(t)
	if err := a.LoadGob(filepath.Join(t.TempDir(), "no-such.gob")); err == nil {
		t.Error("expected error for missing snapshot file")
	}
}
