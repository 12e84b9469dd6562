// Package subsidence applies a prescribed tectonic elevation-rate curve read
// from a two-column (x, rate) file. Negative rates lower the bedrock.
package subsidence

import (
	"fmt"

	"github.com/sequence-dev/sequence/grid"
)

// TimeSeries interpolates the rate curve onto the grid columns and adds
// rate*dt to the bedrock increment each tick. Columns beyond the curve's
// span take the nearest tabulated rate.
type TimeSeries struct {
	p        *grid.Profile
	Filepath string
	rate     []float64 // per column [m/y], positive up
}

func New(p *grid.Profile, filepath string) (*TimeSeries, error) {
	ts := &TimeSeries{p: p}
	if err := ts.load(filepath); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TimeSeries) load(filepath string) error {
	s, err := grid.LoadSeries(filepath)
	if err != nil {
		return fmt.Errorf("subsidence: %w", err)
	}
	r := make([]float64, ts.p.Ncols())
	for i, x := range ts.p.X {
		r[i] = s.At(x)
	}
	ts.rate, ts.Filepath = r, filepath
	return nil
}

func (ts *TimeSeries) Name() string { return "subsidence" }

func (ts *TimeSeries) Reads() []string { return nil }

func (ts *TimeSeries) Writes() []string { return []string{grid.BedrockInc} }

// Advance adds this step's elevation change to whatever the increment field
// already holds. The driver zeroes the field between steps.
func (ts *TimeSeries) Advance(dt float64) error {
	for i, r := range ts.rate {
		ts.p.DzbSub[i] += r * dt
	}
	return nil
}

func (ts *TimeSeries) Params() []string { return []string{"filepath"} }

func (ts *TimeSeries) SetParam(key string, value interface{}) error {
	switch key {
	case "filepath":
		fp, ok := value.(string)
		if !ok {
			return fmt.Errorf("subsidence: filepath wants a string, got %T", value)
		}
		return ts.load(fp)
	}
	return fmt.Errorf("subsidence: unknown parameter %q", key)
}

// RateAt returns the interpolated elevation rate of one column [m/y].
func (ts *TimeSeries) RateAt(col int) float64 { return ts.rate[col] }
