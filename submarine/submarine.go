// Package submarine evolves the sea floor as nonlinear diffusion driven by
// a riverine sediment load.
package submarine

import (
	"fmt"
	"math"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/shoreline"
)

// far-boundary handling
const (
	BoundaryOpen   = "open"   // far column holds its elevation, arriving sediment leaves
	BoundaryClosed = "closed" // no flux through the far face
)

// Diffuser spreads sediment along the profile with a diffusivity that is
// high across the delta plain and shoreface and decays below wave base.
// It solves the variable-coefficient diffusion equation implicitly, so the
// step size is not stability-limited.
type Diffuser struct {
	p *grid.Profile

	PlainSlope      float64 // delta-plain gradient [m/m]
	WaveBase        float64 // [m]
	ShorefaceHeight float64 // [m]
	Alpha           float64 // shoreface decay constant [1/m]
	ShelfSlope      float64 // [m/m]
	Load0           float64 // sediment load entering the profile [m2/y]
	LoadSealevel    float64 // fractional load change per metre of sea level [1/m]
	BasinWidth      float64 // upstream drainage-basin length [m]
	FarBoundary     string  // "open" or "closed"

	load float64 // load adjusted for current sea level [m2/y]
	ksh  float64 // delta-plain diffusivity [m2/y]
	k    []float64
	time float64

	solver *tridiag
}

func New(p *grid.Profile, plainSlope, waveBase, shorefaceHeight, alpha, shelfSlope, sedimentLoad, loadSealevel, basinWidth float64) (*Diffuser, error) {
	if plainSlope <= 0. {
		return nil, fmt.Errorf("submarine: plain_slope must be positive, got %g", plainSlope)
	}
	d := &Diffuser{
		p:               p,
		PlainSlope:      plainSlope,
		WaveBase:        waveBase,
		ShorefaceHeight: shorefaceHeight,
		Alpha:           alpha,
		ShelfSlope:      shelfSlope,
		Load0:           sedimentLoad,
		LoadSealevel:    loadSealevel,
		BasinWidth:      basinWidth,
		FarBoundary:     BoundaryOpen,
		k:               make([]float64, p.Ncols()),
		solver:          newTridiag(p.Ncols()),
	}
	d.updateLoad()
	p.Qin = d.load
	return d, nil
}

func (d *Diffuser) updateLoad() {
	d.load = d.Load0 * (1. + d.p.Sl*d.LoadSealevel)
	d.ksh = d.load / d.PlainSlope
}

// Load returns the sea-level-adjusted sediment load [m2/y].
func (d *Diffuser) Load() float64 { return d.load }

// KLand returns the delta-plain diffusivity [m2/y].
func (d *Diffuser) KLand() float64 { return d.ksh }

func (d *Diffuser) Name() string { return "submarine_diffusion" }

func (d *Diffuser) Reads() []string { return []string{grid.Topo, grid.SeaLevel} }

func (d *Diffuser) Writes() []string {
	return []string{grid.Deposit, grid.Flux, grid.SedimentLoad}
}

// DiffusionCoef fills and returns the per-column diffusivity for the given
// shoreline position. Under water the coefficient scales with distance from
// shore and decays below wave base; on land it is the plain value, grown
// downstream when a basin width is configured.
func (d *Diffuser) DiffusionCoef(xShore float64) []float64 {
	d.updateLoad()
	sl := d.p.Sl
	dx := d.p.Dx
	b := (d.ShorefaceHeight*d.Alpha + d.ShelfSlope) * dx

	for i, x := range d.p.X {
		depth := sl - d.p.Z[i]
		if depth > 0. {
			k := d.load * ((x - xShore) + dx) / (depth + b)
			if depth > d.WaveBase {
				k *= math.Exp(-(depth - d.WaveBase) / d.WaveBase)
			}
			d.k[i] = k
		} else if d.BasinWidth > 0. {
			d.k[i] = d.ksh * (d.BasinWidth + x) / d.BasinWidth
		} else {
			d.k[i] = d.ksh
		}
	}
	return d.k
}

// Advance performs one implicit diffusion step. The elevation change is
// accumulated into the deposit field and the elevation itself is left for
// the driver to update; face fluxes are stored for output.
func (d *Diffuser) Advance(dt float64) error {
	p := d.p
	n := p.Ncols()
	dx := p.Dx

	shore := shoreline.FindOrEdge(p.X, p.Z, p.Sl)
	d.DiffusionCoef(shore)
	p.Qin = d.load

	// the landward ghost column carries the plain gradient, feeding the
	// profile at the configured load
	z0 := p.Z[1] + d.PlainSlope*dx
	zfar := p.Z[n-1]

	closed := d.FarBoundary == BoundaryClosed
	znew, qin, err := d.solver.step(p.Z, d.k, z0, zfar, dt, dx, closed)
	if err != nil {
		return fmt.Errorf("submarine: %w", err)
	}

	for i := 1; i < n-1; i++ {
		p.Dz[i] += znew[i] - p.Z[i]
	}
	// face fluxes from the implicit solution, positive seaward; Qs[i] is
	// the flux across the face between columns i and i+1
	p.Qs[0] = qin
	for i := 1; i < n-2; i++ {
		kf := 0.5 * (d.k[i] + d.k[i+1])
		p.Qs[i] = kf * (znew[i] - znew[i+1]) / dx
	}
	if closed {
		p.Qs[n-2] = 0.
	} else {
		kf := 0.5 * (d.k[n-2] + d.k[n-1])
		p.Qs[n-2] = kf * (znew[n-2] - zfar) / dx
	}
	p.Qs[n-1] = p.Qs[n-2]

	d.time += dt
	return nil
}

func (d *Diffuser) Params() []string {
	return []string{"plain_slope", "wave_base", "shoreface_height", "alpha",
		"shelf_slope", "sediment_load", "load_sealevel", "basin_width", "far_boundary"}
}

func (d *Diffuser) SetParam(key string, value interface{}) error {
	if key == "far_boundary" {
		s, ok := value.(string)
		if !ok || (s != BoundaryOpen && s != BoundaryClosed) {
			return fmt.Errorf("submarine: far_boundary wants %q or %q, got %v", BoundaryOpen, BoundaryClosed, value)
		}
		d.FarBoundary = s
		return nil
	}
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("submarine: %s wants a number, got %T", key, value)
	}
	switch key {
	case "plain_slope":
		if v <= 0. {
			return fmt.Errorf("submarine: plain_slope must be positive, got %g", v)
		}
		d.PlainSlope = v
	case "wave_base":
		d.WaveBase = v
	case "shoreface_height":
		d.ShorefaceHeight = v
	case "alpha":
		d.Alpha = v
	case "shelf_slope":
		d.ShelfSlope = v
	case "sediment_load":
		d.Load0 = v
	case "load_sealevel":
		d.LoadSealevel = v
	case "basin_width":
		d.BasinWidth = v
	default:
		return fmt.Errorf("submarine: unknown parameter %q", key)
	}
	d.updateLoad()
	d.p.Qin = d.load
	return nil
}
