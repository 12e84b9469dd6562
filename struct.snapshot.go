package sequence

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/sequence-dev/sequence/grid"
)

// Snapshot is the saved image of a mid-run simulation: the profile fields,
// the layer archive, the clock and schedule positions, and any extra
// component state. A snapshot resumes only into a simulation built from the
// same configuration; parameters changed by the schedule are replayed from
// the live schedule rather than stored.
type Snapshot struct {
	StepsTaken      int
	ScheduleApplied int

	Node map[string][]float64 // at-node fields by canonical name
	Grid map[string]float64   // at-grid scalars

	LayerDz    [][]float64
	LayerAge   [][]float64
	LayerHw    [][]float64
	LayerT0    [][]float64
	LayerPhi   [][]float64
	LayerFsand [][]float64
	Narchived  int

	LayerPorosity float64
	Components    map[string][]float64 // extra state by component name
}

// SaveGob snapshots the simulation to gob.
func (s *Simulation) SaveGob(fp string) error {
	snap := Snapshot{
		StepsTaken:      s.Clock.StepsTaken(),
		ScheduleApplied: s.Sched.Applied(),
		Node:            map[string][]float64{},
		Grid:            map[string]float64{},
		LayerDz:         s.Stack.Dz,
		LayerAge:        s.Stack.Age,
		LayerHw:         s.Stack.Hw,
		LayerT0:         s.Stack.T0,
		LayerPhi:        s.Stack.Phi,
		LayerFsand:      s.Stack.Fsand,
		Narchived:       s.Stack.Narchived,
		LayerPorosity:   s.LayerPorosity,
		Components:      map[string][]float64{},
	}
	for _, name := range grid.NodeFields() {
		snap.Node[name] = s.P.AtNode(name)
	}
	for _, name := range grid.GridFields() {
		v, _ := s.P.AtGrid(name)
		snap.Grid[name] = v
	}
	for _, pr := range s.Pipe.procs {
		if st, ok := pr.(Stateful); ok {
			snap.Components[pr.Name()] = st.MarshalState()
		}
	}
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" Simulation.SaveGob %v", err)
	}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		return fmt.Errorf(" Simulation.SaveGob %v", err)
	}
	return f.Close()
}

// LoadGob restores a snapshot into a freshly built simulation. Components
// hold references to the profile's slices, so profile fields are copied in
// place rather than swapped.
func (s *Simulation) LoadGob(fp string) error {
	f, err := os.Open(fp)
	if err != nil {
		return fmt.Errorf(" Simulation.LoadGob %v", err)
	}
	defer f.Close()
	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf(" Simulation.LoadGob %v", err)
	}
	return s.restore(&snap)
}

func (s *Simulation) restore(snap *Snapshot) error {
	n := s.P.Ncols()
	for _, name := range grid.NodeFields() {
		vals, ok := snap.Node[name]
		if !ok {
			return configErrorf("snapshot: missing field %q", name)
		}
		if len(vals) != n {
			return configErrorf("snapshot: field %q has %d columns, grid has %d", name, len(vals), n)
		}
	}
	if len(snap.LayerDz) > 0 && len(snap.LayerDz[0]) != s.Stack.Nc {
		return configErrorf("snapshot: layers span %d columns, grid has %d", len(snap.LayerDz[0]), s.Stack.Nc)
	}

	// replay parameter assignments the run had already applied
	for _, e := range s.Sched.Head(snap.ScheduleApplied) {
		pr := s.Pipe.Get(e.Component)
		if pr == nil {
			return configErrorf("snapshot: schedule names unknown component %q", e.Component)
		}
		if err := pr.SetParam(e.Param, e.Value); err != nil {
			return err
		}
	}
	if err := s.Sched.Seek(snap.ScheduleApplied); err != nil {
		return err
	}
	if err := s.Clock.Seek(snap.StepsTaken); err != nil {
		return err
	}

	for _, name := range grid.NodeFields() {
		copy(s.P.AtNode(name), snap.Node[name])
	}
	for name, v := range snap.Grid {
		if !s.P.SetAtGrid(name, v) {
			return configErrorf("snapshot: unknown grid scalar %q", name)
		}
	}

	s.Stack.Dz = snap.LayerDz
	s.Stack.Age = snap.LayerAge
	s.Stack.Hw = snap.LayerHw
	s.Stack.T0 = snap.LayerT0
	s.Stack.Phi = snap.LayerPhi
	s.Stack.Fsand = snap.LayerFsand
	s.Stack.Narchived = snap.Narchived
	s.LayerPorosity = snap.LayerPorosity

	for name, st := range snap.Components {
		pr := s.Pipe.Get(name)
		if pr == nil {
			return configErrorf("snapshot: unknown component %q", name)
		}
		sf, ok := pr.(Stateful)
		if !ok {
			return configErrorf("snapshot: component %q carries no state", name)
		}
		sf.UnmarshalState(st)
	}
	return nil
}
