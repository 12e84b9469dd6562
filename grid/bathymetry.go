package grid

import (
	"fmt"
	"math"
)

// ReadBathymetry initializes topographic elevation from a two-column csv
// (x, z) interpolated onto the column positions. The file must span the
// whole grid; bathymetry is never extrapolated.
func (p *Profile) ReadBathymetry(fp string) error {
	s, err := LoadSeries(fp)
	if err != nil {
		return fmt.Errorf("bathymetry: %w", err)
	}
	x0, x1 := s.Span()
	if p.X[0] < x0 || p.X[len(p.X)-1] > x1 {
		return fmt.Errorf("bathymetry: %s spans [%g, %g] but the grid needs [%g, %g]",
			fp, x0, x1, p.X[0], p.X[len(p.X)-1])
	}
	for i, x := range p.X {
		p.Z[i] = s.At(x)
	}
	return nil
}

// SetBedrock places the bedrock surface a uniform depth below topography.
func (p *Profile) SetBedrock(depth float64) {
	for i, z := range p.Z {
		p.Zb[i] = z - depth
	}
}

// InitialProfile fills Z with a synthetic delta profile: a plain dipping
// seaward at plainSlope down to the initial shoreline, then a shelf at
// shelfSlope with a shoreface of height hgt decaying at rate alpha [1/m].
// A shoreline beyond the last column is re-centered to the middle of the
// grid.
func (p *Profile) InitialProfile(shore, plainSlope, shelfSlope, hgt, alpha float64) {
	n := len(p.X)
	if p.X[n-1] < shore {
		shore = (p.X[0] + p.X[n-1]) / 2.
	}
	for i, x := range p.X {
		if x < shore {
			p.Z[i] = (shore - x) * plainSlope
		} else {
			p.Z[i] = (shore-x)*shelfSlope - hgt*(1.-math.Exp((shore-x)*alpha))
		}
	}
}
