package grid

import (
	"fmt"
	"math"
)

// canonical field names used for ownership declarations and output variables
const (
	Topo         = "topographic__elevation"
	Bedrock      = "bedrock_surface__elevation"
	Deposit      = "sediment_deposit__thickness"
	Flux         = "sediment__flux"
	PercentSand  = "delta_sediment_sand__volume_fraction"
	Hemipelagic  = "hemipelagic_deposit__thickness"
	BedrockInc   = "bedrock_surface__increment_of_elevation"
	SedFlexInc   = "lithosphere_surface__increment_of_elevation"
	WaterFlexInc = "lithosphere_surface__water_increment_of_elevation"
	SedLoading   = "sediment__total_of_loading"
	WaterDepth   = "water__depth"
	WaterInc     = "water__increment_of_depth"

	SeaLevel     = "sea_level__elevation"
	SedimentLoad = "sediment_load"
	XShore       = "x_of_shore"
	XShelfEdge   = "x_of_shelf_edge"
)

// Profile holds the shared state of a cross-shore profile: one set of
// columns at fixed spacing, a float64 array per at-node field and a scalar
// per at-grid field. Components hold the slices directly; the driver owns
// the derived fields.
type Profile struct {
	Dx float64   // column spacing [m]
	X  []float64 // column positions [m]

	Z      []float64 // topographic elevation [m]
	Zb     []float64 // bedrock surface elevation [m]
	Dz     []float64 // deposit thickness this step, negative erodes [m]
	Qs     []float64 // inter-column sediment flux [m²/y]
	Fsand  []float64 // sand fraction of the current deposit [-]
	Hemi   []float64 // hemipelagic drape staged this step [m]
	DzbSub []float64 // bedrock increment staged by subsidence [m]
	DzbSed []float64 // bedrock increment staged by sediment flexure [m]
	DzbWat []float64 // bedrock increment staged by water flexure [m]
	Qload  []float64 // cumulative sediment loading [kg/m²]
	Hw     []float64 // water depth [m]
	DHw    []float64 // change in water depth over the last step [m]

	Sl  float64 // sea level [m]
	Qin float64 // sediment input load [m²/y]
	Xsh float64 // shoreline position [m]
	Xse float64 // shelf-edge position [m]
}

// New builds a profile of ncols columns at the given spacing [m].
func New(ncols int, spacing float64) (*Profile, error) {
	if ncols < 3 {
		return nil, fmt.Errorf("grid: need at least 3 columns, got %d", ncols)
	}
	if spacing <= 0. {
		return nil, fmt.Errorf("grid: non-positive spacing %g", spacing)
	}
	p := &Profile{
		Dx:     spacing,
		X:      make([]float64, ncols),
		Z:      make([]float64, ncols),
		Zb:     make([]float64, ncols),
		Dz:     make([]float64, ncols),
		Qs:     make([]float64, ncols),
		Fsand:  make([]float64, ncols),
		Hemi:   make([]float64, ncols),
		DzbSub: make([]float64, ncols),
		DzbSed: make([]float64, ncols),
		DzbWat: make([]float64, ncols),
		Qload:  make([]float64, ncols),
		Hw:     make([]float64, ncols),
		DHw:    make([]float64, ncols),
		Xsh:    math.NaN(),
		Xse:    math.NaN(),
	}
	for i := range p.X {
		p.X[i] = float64(i) * spacing
	}
	return p, nil
}

// Ncols returns the number of columns.
func (p *Profile) Ncols() int { return len(p.X) }

// AtNode returns the at-node field registered under name, nil if unknown.
func (p *Profile) AtNode(name string) []float64 {
	switch name {
	case Topo:
		return p.Z
	case Bedrock:
		return p.Zb
	case Deposit:
		return p.Dz
	case Flux:
		return p.Qs
	case PercentSand:
		return p.Fsand
	case Hemipelagic:
		return p.Hemi
	case BedrockInc:
		return p.DzbSub
	case SedFlexInc:
		return p.DzbSed
	case WaterFlexInc:
		return p.DzbWat
	case SedLoading:
		return p.Qload
	case WaterDepth:
		return p.Hw
	case WaterInc:
		return p.DHw
	}
	return nil
}

// AtGrid returns the at-grid scalar registered under name.
func (p *Profile) AtGrid(name string) (float64, bool) {
	switch name {
	case SeaLevel:
		return p.Sl, true
	case SedimentLoad:
		return p.Qin, true
	case XShore:
		return p.Xsh, true
	case XShelfEdge:
		return p.Xse, true
	}
	return 0., false
}

// SetAtGrid assigns an at-grid scalar by name, reporting whether the name
// is known.
func (p *Profile) SetAtGrid(name string, v float64) bool {
	switch name {
	case SeaLevel:
		p.Sl = v
	case SedimentLoad:
		p.Qin = v
	case XShore:
		p.Xsh = v
	case XShelfEdge:
		p.Xse = v
	default:
		return false
	}
	return true
}

// NodeFields lists the at-node field names in canonical output order.
func NodeFields() []string {
	return []string{Topo, Bedrock, Deposit, Flux, PercentSand, Hemipelagic,
		BedrockInc, SedFlexInc, WaterFlexInc, SedLoading, WaterDepth, WaterInc}
}

// GridFields lists the at-grid scalar names in canonical output order.
func GridFields() []string {
	return []string{SeaLevel, SedimentLoad, XShore, XShelfEdge}
}

// KnownField reports whether name is a registered at-node or at-grid field.
func KnownField(name string) bool {
	for _, f := range NodeFields() {
		if f == name {
			return true
		}
	}
	for _, f := range GridFields() {
		if f == name {
			return true
		}
	}
	return false
}
