// Package fluvial assigns a sand fraction to each step's deposit. Landward
// of the shoreline the split follows a channel-belt avulsion model; seaward
// it reflects how much of the deposit is hemipelagic mud.
package fluvial

import (
	"fmt"
	"math"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/shoreline"
)

// fixed channel-geometry constants
const (
	sandGrain   = 0.001   // grain size [m]
	avulsionN   = 10.     // ratio of channel depth to channel-belt thickness
	floodBeta   = 0.1     // beta*h is the flow depth of a flood
	floodPeriod = 10.     // recurrence time of floods [y]
	riverSpace  = 10000.  // basin width, i.e. river spacing [m]
	hemiTaper   = 100000. // taper length of hemipelagic deposition [m]
	minSlope    = 1e-8    // floor for the downslope gradient [m/m]
)

// Plain computes the delta-plain sand fraction and the hemipelagic drape.
// The drape goes to its own field; the driver folds it into the deposit
// when the layer is committed.
type Plain struct {
	p *grid.Profile

	SandFrac     float64 // sand fraction of the incoming load [-]
	WaveBase     float64 // [m]
	SedimentLoad float64 // [m2/y]
	SandDensity  float64 // [kg/m3]
	PlainSlope   float64 // equilibrium delta-plain gradient [m/m]
	Hemipelagic  float64 // background mud rate [m/y]

	slope []float64
}

func New(p *grid.Profile, sandFrac, waveBase, sedimentLoad, sandDensity, plainSlope, hemipelagic float64) (*Plain, error) {
	if sandFrac <= 0. || sandFrac >= 1. {
		return nil, fmt.Errorf("fluvial: sand_frac must be in (0,1), got %g", sandFrac)
	}
	if plainSlope <= 0. {
		return nil, fmt.Errorf("fluvial: plain_slope must be positive, got %g", plainSlope)
	}
	return &Plain{
		p:            p,
		SandFrac:     sandFrac,
		WaveBase:     waveBase,
		SedimentLoad: sedimentLoad,
		SandDensity:  sandDensity,
		PlainSlope:   plainSlope,
		Hemipelagic:  hemipelagic,
		slope:        make([]float64, p.Ncols()),
	}, nil
}

func (f *Plain) Name() string { return "fluvial" }

func (f *Plain) Reads() []string {
	return []string{grid.Topo, grid.SeaLevel, grid.Deposit, grid.BedrockInc}
}

func (f *Plain) Writes() []string {
	return []string{grid.PercentSand, grid.Hemipelagic}
}

// downslope fills the seaward-dipping gradient, centered in the interior
// and one-sided at the ends, floored at a small positive value.
func (f *Plain) downslope() {
	z := f.p.Z
	n := len(z)
	dx := f.p.Dx
	f.slope[0] = (z[0] - z[1]) / dx
	for i := 1; i < n-1; i++ {
		f.slope[i] = (z[i-1] - z[i+1]) / (2. * dx)
	}
	f.slope[n-1] = (z[n-2] - z[n-1]) / dx
	for i := range f.slope {
		if f.slope[i] < minSlope {
			f.slope[i] = minSlope
		}
	}
}

func (f *Plain) Advance(dt float64) error {
	p := f.p
	n := p.Ncols()
	dx := p.Dx

	// upstream boundary: split the incoming load by the configured fraction
	mudVol := f.SedimentLoad * (1. - f.SandFrac) / f.SandFrac
	sandVol := f.SedimentLoad
	qs := 10. * math.Sqrt(9.8*(f.SandDensity/1000.-1.)) * sandGrain
	qw := f.SedimentLoad / f.PlainSlope / 0.61
	concMud := mudVol / qw
	channelWidth := sandVol / qs

	shore := shoreline.FindOrEdge(p.X, p.Z, p.Sl)
	f.downslope()

	channelDepth := func(i int) float64 {
		return (f.SandDensity - 1000.) / 1000. * sandGrain / f.slope[i]
	}
	// channelization style set at the head of the plain
	eps0 := 0.125 // meandering
	if channelWidth/channelDepth(0) > 75. {
		eps0 = 0.4 // braided
	}

	for i := range p.Fsand {
		p.Fsand[i] = 0.
	}

	for i := 0; i < n && p.X[i] < shore; i++ {
		eps := 0.125
		if channelWidth/channelDepth(i) > 75. {
			eps = 0.4
		}
		widthCb := channelWidth / eps

		// channel-belt and floodplain deposition rates this step
		rcb := p.Dz[i] * eps0
		if rcb < 0. {
			rcb = 0.
		}
		rfp := floodBeta * channelDepth(i) / floodPeriod * concMud
		if rfp > rcb {
			rfp = rcb
		}

		rb := p.Dz[i]
		if rb > 0. {
			// avulsions spread the channel belt across the floodplain
			bigN := avulsionN * (rcb - rfp) / rb
			if bigN > 1. {
				rcb *= bigN
			}
			if rcb <= 0. {
				p.Fsand[i] = 1.
			} else {
				bigN = avulsionN * (rcb - rfp) / rb
				p.Fsand[i] = 1. - math.Exp(-widthCb/riverSpace*bigN)
			}
			if p.Fsand[i] > 1. {
				p.Fsand[i] = 1.
			} else if p.Fsand[i] < 0. {
				p.Fsand[i] = 0.
			}
		}

		// deplete the load by what accommodation stores in this reach
		if f.p.DzbSub[i] > 0. && i+1 < n {
			stored := dx * (f.p.DzbSub[i] + f.p.DzbSub[i+1]) / 2. / dt
			sandVol -= p.Fsand[i] * stored
			mudVol -= (1. - p.Fsand[i]) * stored
		}
		concMud = mudVol / qw
	}

	f.drape(dt, shore)
	return nil
}

// drape adds hemipelagic mud seaward of the shore: none above wave base,
// ramping up to the full rate by twice the wave base, then tapering out
// toward the basin.
func (f *Plain) drape(dt float64, shore float64) {
	p := f.p
	taper := 1
	for i := range p.Hemi {
		p.Hemi[i] = 0.
	}
	for i := range p.X {
		if p.X[i] < shore {
			continue
		}
		depth := p.Sl - p.Z[i]
		switch {
		case depth > f.WaveBase && depth < 2.*f.WaveBase:
			p.Hemi[i] = (depth - f.WaveBase) / f.WaveBase * f.Hemipelagic * dt
			taper = i
		case depth >= 2.*f.WaveBase:
			m := f.Hemipelagic * dt * (1. - (p.X[i]-p.X[taper])/hemiTaper)
			if m < 0. {
				m = 0.
			}
			p.Hemi[i] = m
		}

		// seaward sand fraction is the non-drape share of the deposit
		if tot := p.Dz[i] + p.Hemi[i]; tot > 0. {
			ps := p.Dz[i] / tot
			if ps < 0. {
				ps = 0.
			} else if ps > 1. {
				ps = 1.
			}
			p.Fsand[i] = ps
		}
	}
}

func (f *Plain) Params() []string {
	return []string{"sand_frac", "wave_base", "sediment_load", "sand_density",
		"plain_slope", "hemipelagic"}
}

func (f *Plain) SetParam(key string, value interface{}) error {
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("fluvial: %s wants a number, got %T", key, value)
	}
	switch key {
	case "sand_frac":
		if v <= 0. || v >= 1. {
			return fmt.Errorf("fluvial: sand_frac must be in (0,1), got %g", v)
		}
		f.SandFrac = v
	case "wave_base":
		f.WaveBase = v
	case "sediment_load":
		f.SedimentLoad = v
	case "sand_density":
		f.SandDensity = v
	case "plain_slope":
		if v <= 0. {
			return fmt.Errorf("fluvial: plain_slope must be positive, got %g", v)
		}
		f.PlainSlope = v
	case "hemipelagic":
		f.Hemipelagic = v
	default:
		return fmt.Errorf("fluvial: unknown parameter %q", key)
	}
	return nil
}
