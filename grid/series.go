package grid

import (
	"fmt"
	"log/slog"

	"github.com/maseology/mmaths"
	"github.com/maseology/mmio"
)

// Series is a piecewise-linear lookup table. Queries beyond either end
// return the boundary value (flat extrapolation) and are counted.
type Series struct {
	Xs, Ys []float64
	nclamp int
}

// LoadSeries reads a two-column csv (x, y) into a Series. The first
// line is taken as a header.
func LoadSeries(fp string) (*Series, error) {
	d, err := mmio.ReadCSV(fp, 1)
	if err != nil {
		return nil, fmt.Errorf("series: %s: %w", fp, err)
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("series: %s: empty file", fp)
	}
	s := &Series{Xs: make([]float64, len(d)), Ys: make([]float64, len(d))}
	for i, ln := range d {
		if len(ln) < 2 {
			return nil, fmt.Errorf("series: %s: row %d has %d columns, need 2", fp, i, len(ln))
		}
		s.Xs[i], s.Ys[i] = ln[0], ln[1]
	}
	for i := 1; i < len(s.Xs); i++ {
		if s.Xs[i] <= s.Xs[i-1] {
			return nil, fmt.Errorf("series: %s: x not strictly increasing at row %d", fp, i)
		}
	}
	return s, nil
}

// NewSeries builds a Series from parallel slices.
func NewSeries(xs, ys []float64) (*Series, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("series: need equal-length non-empty slices")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("series: x not strictly increasing at row %d", i)
		}
	}
	return &Series{Xs: xs, Ys: ys}, nil
}

// At interpolates the series at x, clamping flat beyond either end.
func (s *Series) At(x float64) float64 {
	n := len(s.Xs)
	if x <= s.Xs[0] {
		if x < s.Xs[0] {
			s.clamp(x)
		}
		return s.Ys[0]
	}
	if x >= s.Xs[n-1] {
		if x > s.Xs[n-1] {
			s.clamp(x)
		}
		return s.Ys[n-1]
	}
	j := 1
	for s.Xs[j] < x {
		j++
	}
	f := (x - s.Xs[j-1]) / (s.Xs[j] - s.Xs[j-1])
	return mmaths.LinearTransform(s.Ys[j-1], s.Ys[j], f)
}

func (s *Series) clamp(x float64) {
	s.nclamp++
	if s.nclamp == 1 {
		slog.Debug("series query beyond tabulated range, holding end value",
			"x", x, "lo", s.Xs[0], "hi", s.Xs[len(s.Xs)-1])
	}
}

// Clamps returns the number of out-of-domain queries answered so far.
func (s *Series) Clamps() int { return s.nclamp }

// Span returns the x-range covered by the series.
func (s *Series) Span() (float64, float64) { return s.Xs[0], s.Xs[len(s.Xs)-1] }
