// Package sealevel provides the eustatic curve drivers. Both components own
// the single grid value sea_level__elevation and nothing else.
package sealevel

import (
	"fmt"
	"math"

	"github.com/sequence-dev/sequence/grid"
)

// Sinusoidal drives sea level with a superposed two-harmonic sine plus an
// optional linear drift [m/y].
type Sinusoidal struct {
	p *grid.Profile

	WaveLength float64 // period of the fundamental [y]
	Amplitude  float64 // [m]
	Phase      float64 // [y]
	Mean       float64 // [m]
	Linear     float64 // drift [m/y]

	time float64 // [y]
}

// NewSinusoidal builds the curve and sets the grid's sea level to its value
// at the start time.
func NewSinusoidal(p *grid.Profile, waveLength, amplitude, phase, mean, start, linear float64) (*Sinusoidal, error) {
	if waveLength <= 0. {
		return nil, fmt.Errorf("sealevel: wave_length must be positive, got %g", waveLength)
	}
	s := &Sinusoidal{p: p, WaveLength: waveLength, Amplitude: amplitude,
		Phase: phase, Mean: mean, Linear: linear, time: start}
	s.p.Sl = s.at(s.time)
	return s, nil
}

func (s *Sinusoidal) at(t float64) float64 {
	l := s.WaveLength / (2. * math.Pi)
	u := (t - s.Phase) / l
	return (math.Sin(u)+0.3*math.Sin(2.*u))*s.Amplitude + s.Mean + s.Linear*t
}

func (s *Sinusoidal) Name() string { return "sea_level" }

func (s *Sinusoidal) Reads() []string { return nil }

func (s *Sinusoidal) Writes() []string { return []string{grid.SeaLevel} }

// Advance moves the curve's own clock by dt and publishes the new elevation.
func (s *Sinusoidal) Advance(dt float64) error {
	s.time += dt
	s.p.Sl = s.at(s.time)
	return nil
}

func (s *Sinusoidal) Params() []string {
	return []string{"wave_length", "amplitude", "phase", "mean", "linear"}
}

func (s *Sinusoidal) SetParam(key string, value interface{}) error {
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("sealevel: %s wants a number, got %T", key, value)
	}
	switch key {
	case "wave_length":
		if v <= 0. {
			return fmt.Errorf("sealevel: wave_length must be positive, got %g", v)
		}
		s.WaveLength = v
	case "amplitude":
		s.Amplitude = v
	case "phase":
		s.Phase = v
	case "mean":
		s.Mean = v
	case "linear":
		s.Linear = v
	default:
		return fmt.Errorf("sealevel: unknown parameter %q", key)
	}
	return nil
}

// MarshalState exposes the provider's clock for run snapshots.
func (s *Sinusoidal) MarshalState() []float64 { return []float64{s.time} }

func (s *Sinusoidal) UnmarshalState(v []float64) {
	if len(v) > 0 {
		s.time = v[0]
		s.p.Sl = s.at(s.time)
	}
}

// TimeSeries drives sea level from a two-column (time, elevation) file.
// Times outside the file's span hold the nearest tabulated value.
type TimeSeries struct {
	p        *grid.Profile
	curve    *grid.Series
	Filepath string

	time float64 // [y]
}

func NewTimeSeries(p *grid.Profile, filepath string, start float64) (*TimeSeries, error) {
	s, err := grid.LoadSeries(filepath)
	if err != nil {
		return nil, fmt.Errorf("sealevel: %w", err)
	}
	ts := &TimeSeries{p: p, curve: s, Filepath: filepath, time: start}
	ts.p.Sl = ts.curve.At(ts.time)
	return ts, nil
}

func (ts *TimeSeries) Name() string { return "sea_level" }

func (ts *TimeSeries) Reads() []string { return nil }

func (ts *TimeSeries) Writes() []string { return []string{grid.SeaLevel} }

func (ts *TimeSeries) Advance(dt float64) error {
	ts.time += dt
	ts.p.Sl = ts.curve.At(ts.time)
	return nil
}

func (ts *TimeSeries) Params() []string { return []string{"filepath"} }

func (ts *TimeSeries) SetParam(key string, value interface{}) error {
	switch key {
	case "filepath":
		fp, ok := value.(string)
		if !ok {
			return fmt.Errorf("sealevel: filepath wants a string, got %T", value)
		}
		s, err := grid.LoadSeries(fp)
		if err != nil {
			return fmt.Errorf("sealevel: %w", err)
		}
		ts.curve, ts.Filepath = s, fp
	default:
		return fmt.Errorf("sealevel: unknown parameter %q", key)
	}
	return nil
}

// Clamps reports how many lookups fell outside the tabulated span.
func (ts *TimeSeries) Clamps() int { return ts.curve.Clamps() }

func (ts *TimeSeries) MarshalState() []float64 { return []float64{ts.time} }

func (ts *TimeSeries) UnmarshalState(v []float64) {
	if len(v) > 0 {
		ts.time = v[0]
		ts.p.Sl = ts.curve.At(ts.time)
	}
}
