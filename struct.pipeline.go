package sequence

import (
	"fmt"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
)

// Process is one stage of the simulation pipeline. A process declares the
// fields it reads and writes; the pipeline enforces that no field has two
// writers and that driver-owned fields have none.
type Process interface {
	Name() string
	Reads() []string
	Writes() []string
	Params() []string
	SetParam(key string, value interface{}) error
	Advance(dt float64) error
}

// Stateful marks processes that carry state beyond their parameters
// (relaxation pools, series clocks) that a snapshot must capture.
type Stateful interface {
	MarshalState() []float64
	UnmarshalState([]float64)
}

// State is the lifecycle of a pipeline.
type State int

const (
	Idle State = iota
	Stepping
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// driver-owned fields no component may claim
func driverOwned(name string) bool {
	switch name {
	case grid.Topo, grid.Bedrock, grid.WaterDepth, grid.WaterInc, grid.SedLoading:
		return true
	}
	return false
}

func knownField(name string) bool {
	if grid.KnownField(name) {
		return true
	}
	return name == layers.ThicknessField || name == layers.PorosityField
}

// Pipeline runs an ordered set of processes over shared fields.
type Pipeline struct {
	procs []Process
	state State
}

func NewPipeline(procs ...Process) (*Pipeline, error) {
	writer := map[string]string{}
	for _, pr := range procs {
		name := pr.Name()
		for _, other := range procs {
			if other != pr && other.Name() == name {
				return nil, configErrorf("pipeline: component %q appears twice", name)
			}
		}
		for _, f := range pr.Reads() {
			if !knownField(f) {
				return nil, configErrorf("pipeline: %s reads unknown field %q", name, f)
			}
		}
		for _, f := range pr.Writes() {
			if !knownField(f) {
				return nil, configErrorf("pipeline: %s writes unknown field %q", name, f)
			}
			if driverOwned(f) {
				return nil, configErrorf("pipeline: %s claims driver-owned field %q", name, f)
			}
			if prev, ok := writer[f]; ok && prev != name {
				return nil, configErrorf("pipeline: %s and %s both write %q", prev, name, f)
			}
			writer[f] = name
		}
	}
	return &Pipeline{procs: procs}, nil
}

// State returns the pipeline's lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Transition moves the pipeline between lifecycle states, rejecting moves
// the state machine does not allow.
func (p *Pipeline) Transition(to State) error {
	ok := false
	switch p.state {
	case Idle:
		// a run that has no steps left, like a resumed snapshot taken at
		// the stop time, finishes without ever stepping
		ok = to == Stepping || to == Finished
	case Stepping:
		ok = to == Stepping || to == Finished || to == Failed
	}
	if !ok {
		return fmt.Errorf("pipeline: illegal transition %v -> %v", p.state, to)
	}
	p.state = to
	return nil
}

// Components returns the process names in execution order.
func (p *Pipeline) Components() []string {
	names := make([]string, len(p.procs))
	for i, pr := range p.procs {
		names[i] = pr.Name()
	}
	return names
}

// Get returns the named process, nil if absent.
func (p *Pipeline) Get(name string) Process {
	for _, pr := range p.procs {
		if pr.Name() == name {
			return pr
		}
	}
	return nil
}

// HasParam reports whether the named process exposes the named parameter.
func (p *Pipeline) HasParam(component, param string) bool {
	pr := p.Get(component)
	if pr == nil {
		return false
	}
	for _, k := range pr.Params() {
		if k == param {
			return true
		}
	}
	return false
}
