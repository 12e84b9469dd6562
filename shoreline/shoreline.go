// Package shoreline locates where the profile crosses sea level and where
// the shoreface gives way to the shelf.
package shoreline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sequence-dev/sequence/grid"
)

// ErrNoShoreline reports a profile entirely above or entirely below sea
// level.
var ErrNoShoreline = errors.New("no shoreline found")

// FindIndex returns the first column sitting below sea level. It fails with
// ErrNoShoreline when the profile never submerges or never emerges.
func FindIndex(z []float64, sl float64) (int, error) {
	below := -1
	n := 0
	for i, zz := range z {
		if zz < sl {
			if below < 0 {
				below = i
			}
			n++
		}
	}
	if below < 0 {
		return 0, fmt.Errorf("%w: the profile is all above sea level", ErrNoShoreline)
	}
	if n == len(z) {
		return 0, fmt.Errorf("%w: the profile is all below sea level", ErrNoShoreline)
	}
	return below, nil
}

// Find returns the x-position where the profile first drops through sea
// level, linearly interpolated between the bracketing columns. It returns
// NaN when no land-to-water crossing exists.
func Find(x, z []float64, sl float64) float64 {
	for i := 1; i < len(z); i++ {
		if z[i-1] >= sl && z[i] < sl {
			f := (z[i-1] - sl) / (z[i-1] - z[i])
			return x[i-1] + f*(x[i]-x[i-1])
		}
	}
	return math.NaN()
}

// FindOrEdge behaves like Find but falls back to the grid edges: a drowned
// profile answers the landward edge, an emergent one the seaward edge.
func FindOrEdge(x, z []float64, sl float64) float64 {
	if xs := Find(x, z, sl); !math.IsNaN(xs) {
		return xs
	}
	if z[0] < sl {
		return x[0]
	}
	return x[len(x)-1]
}

// FindShelfEdge returns the x-position seaward of the shore where water
// depth first reaches hgt, interpolated between the bracketing columns.
// It returns NaN when the profile never gets that deep or the shore itself
// is undefined.
func FindShelfEdge(x, z []float64, sl, xShore, hgt float64) float64 {
	if math.IsNaN(xShore) {
		return math.NaN()
	}
	prev := math.NaN()
	for i := 0; i < len(z); i++ {
		if x[i] <= xShore {
			continue
		}
		d := sl - z[i]
		if !math.IsNaN(prev) && prev < hgt && d >= hgt {
			f := (hgt - prev) / (d - prev)
			return x[i-1] + f*(x[i]-x[i-1])
		}
		if math.IsNaN(prev) && d >= hgt {
			return x[i]
		}
		prev = d
	}
	return math.NaN()
}

// Finder publishes x_of_shore and x_of_shelf_edge each tick. An undefined
// position is written as NaN and counted, never raised as an error.
type Finder struct {
	p *grid.Profile

	Alpha           float64 // shoreface decay constant, shared with the diffuser [1/m]
	ShorefaceHeight float64 // water depth marking the shoreface toe [m]

	nshore, nshelf int // undefined-position counters
}

func NewFinder(p *grid.Profile, alpha, shorefaceHeight float64) *Finder {
	f := &Finder{p: p, Alpha: alpha, ShorefaceHeight: shorefaceHeight}
	f.update()
	return f
}

func (f *Finder) Name() string { return "shoreline" }

func (f *Finder) Reads() []string { return []string{grid.Topo, grid.SeaLevel} }

func (f *Finder) Writes() []string { return []string{grid.XShore, grid.XShelfEdge} }

func (f *Finder) update() {
	xs := Find(f.p.X, f.p.Z, f.p.Sl)
	if math.IsNaN(xs) {
		f.nshore++
		if f.nshore == 1 {
			slog.Debug("no shoreline crossing on the profile", "sea_level", f.p.Sl)
		}
	}
	f.p.Xsh = xs

	se := FindShelfEdge(f.p.X, f.p.Z, f.p.Sl, xs, f.ShorefaceHeight)
	if math.IsNaN(se) {
		f.nshelf++
		if f.nshelf == 1 {
			slog.Debug("no shelf edge on the profile", "scarp_depth", f.ShorefaceHeight)
		}
	}
	f.p.Xse = se
}

func (f *Finder) Advance(dt float64) error {
	f.update()
	return nil
}

func (f *Finder) Params() []string { return []string{"alpha", "shoreface_height"} }

func (f *Finder) SetParam(key string, value interface{}) error {
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("shoreline: %s wants a number, got %T", key, value)
	}
	switch key {
	case "alpha":
		f.Alpha = v
	case "shoreface_height":
		f.ShorefaceHeight = v
	default:
		return fmt.Errorf("shoreline: unknown parameter %q", key)
	}
	return nil
}

// Undefined reports how many ticks left the shore and the shelf edge
// unresolved.
func (f *Finder) Undefined() (shore, shelfEdge int) { return f.nshore, f.nshelf }
