// Package compact reduces the porosity of buried sediment under the
// weight of the layers above it, after Bahr et al. (2001).
package compact

import (
	"fmt"
	"math"

	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
)

// Compact drives porosity loss in a layer stack. Porosity relaxes toward
//
//	phi = phi_min + (phi_max - phi_min) * exp(-c * sigma)
//
// where sigma is the effective stress of the overburden. Layers only ever
// lose porosity; thickness shrinks so that the solid fraction of each
// layer is conserved.
type Compact struct {
	stack *layers.Stack

	C           float64 // compaction coefficient [1/Pa]
	PorosityMax float64
	PorosityMin float64
	RhoGrain    float64 // [kg/m3]
	RhoVoid     float64 // density of the pore fluid [kg/m3]
	Gravity     float64 // [m/s2]
}

func New(stack *layers.Stack, c, porosityMax, porosityMin, rhoGrain, rhoVoid float64) (*Compact, error) {
	cc := &Compact{
		stack:       stack,
		C:           c,
		PorosityMax: porosityMax,
		PorosityMin: porosityMin,
		RhoGrain:    rhoGrain,
		RhoVoid:     rhoVoid,
		Gravity:     9.80665,
	}
	if err := cc.validate(); err != nil {
		return nil, err
	}
	return cc, nil
}

func (cc *Compact) validate() error {
	if cc.C < 0. {
		return fmt.Errorf("compact: negative compaction coefficient (%g)", cc.C)
	}
	if cc.PorosityMin < 0. || cc.PorosityMax >= 1. || cc.PorosityMin > cc.PorosityMax {
		return fmt.Errorf("compact: porosity range [%g, %g] out of bounds",
			cc.PorosityMin, cc.PorosityMax)
	}
	if cc.RhoGrain <= 0. || cc.RhoVoid <= 0. {
		return fmt.Errorf("compact: negative or zero density (grain %g, void %g)",
			cc.RhoGrain, cc.RhoVoid)
	}
	if cc.Gravity <= 0. {
		return fmt.Errorf("compact: negative or zero gravity (%g)", cc.Gravity)
	}
	return nil
}

func (cc *Compact) Name() string { return "compaction" }

func (cc *Compact) Reads() []string {
	return []string{layers.ThicknessField, layers.PorosityField}
}

func (cc *Compact) Writes() []string {
	return []string{layers.ThicknessField, layers.PorosityField}
}

// Advance compacts every column of the stack. The result is an
// equilibrium profile, so running it twice changes nothing.
func (cc *Compact) Advance(dt float64) error {
	nl := cc.stack.NLayers()
	if nl == 0 {
		return nil
	}
	unit := cc.Gravity * (cc.RhoGrain - cc.RhoVoid)
	span := cc.PorosityMax - cc.PorosityMin

	for col := 0; col < cc.stack.Nc; col++ {
		solid := 0. // solid thickness above the working layer [m]
		for row := nl - 1; row >= 0; row-- {
			dz := cc.stack.Dz[row][col]
			phi := cc.stack.Phi[row][col]

			sigma := unit * solid
			target := cc.PorosityMin + span*math.Exp(-cc.C*sigma)
			if target < phi {
				cc.stack.Dz[row][col] = dz * (1. - phi) / (1. - target)
				cc.stack.Phi[row][col] = target
			}
			solid += dz * (1. - phi)
		}
	}
	return nil
}

func (cc *Compact) Params() []string {
	return []string{"c", "porosity_max", "porosity_min", "rho_grain", "rho_void", "gravity"}
}

func (cc *Compact) SetParam(key string, value interface{}) error {
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("compact: %s wants a number, got %T", key, value)
	}
	old := *cc
	switch key {
	case "c":
		cc.C = v
	case "porosity_max":
		cc.PorosityMax = v
	case "porosity_min":
		cc.PorosityMin = v
	case "rho_grain":
		cc.RhoGrain = v
	case "rho_void":
		cc.RhoVoid = v
	case "gravity":
		cc.Gravity = v
	default:
		return fmt.Errorf("compact: unknown parameter %q", key)
	}
	if err := cc.validate(); err != nil {
		*cc = old
		return err
	}
	return nil
}
