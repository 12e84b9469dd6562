package sequence

import "math"

// Clock tracks model time over a fixed-step run.
type Clock struct {
	start, stop, step float64
	n, nsteps         int
}

// NewClock validates a [start, stop] interval against a step. The span
// must hold a whole number of steps.
func NewClock(start, stop, step float64) (*Clock, error) {
	if step <= 0. {
		return nil, configErrorf("clock: non-positive step %g", step)
	}
	if stop < start {
		return nil, configErrorf("clock: stop %g before start %g", stop, start)
	}
	f := (stop - start) / step
	nsteps := math.Round(f)
	if math.Abs(f-nsteps) > 1e-6 {
		return nil, configErrorf("clock: (stop-start)/step = %g is not a whole number of steps", f)
	}
	return &Clock{start: start, stop: stop, step: step, nsteps: int(nsteps)}, nil
}

// Time returns the current model time [y].
func (c *Clock) Time() float64 { return c.start + float64(c.n)*c.step }

func (c *Clock) Start() float64 { return c.start }

func (c *Clock) Stop() float64 { return c.stop }

func (c *Clock) Step() float64 { return c.step }

// NSteps returns the total number of steps in the run.
func (c *Clock) NSteps() int { return c.nsteps }

// StepsTaken returns the number of steps advanced so far.
func (c *Clock) StepsTaken() int { return c.n }

// Done reports whether the clock has reached its stop time.
func (c *Clock) Done() bool { return c.n >= c.nsteps }

// Advance moves the clock one step forward.
func (c *Clock) Advance() { c.n++ }

// Seek jumps the clock to a step count, used when resuming a saved run.
func (c *Clock) Seek(n int) error {
	if n < 0 || n > c.nsteps {
		return configErrorf("clock: cannot seek to step %d of %d", n, c.nsteps)
	}
	c.n = n
	return nil
}
