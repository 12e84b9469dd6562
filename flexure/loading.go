// Package flexure deflects the lithosphere under changing sediment and
// water loads, either locally (airy) or through an elastic plate.
package flexure

// MixedDensity returns the grain density of a sand/mud mixture.
func MixedDensity(sandFraction, sandDensity, mudDensity float64) float64 {
	return sandFraction*sandDensity + (1.-sandFraction)*mudDensity
}

// LoadOf returns the mass load [kg/m2] of a slab of thickness dz placed on
// (or removed from) a surface at elevation z relative to sea level. The part
// of the slab above water weighs dry grains only; the submerged part carries
// pore water too. Negative dz unloads.
func LoadOf(dz, z, porosity, sedimentDensity, waterDensity float64) float64 {
	if dz == 0. {
		return 0.
	}
	dry := sedimentDensity * (1. - porosity)
	wet := waterDensity*porosity + sedimentDensity*(1.-porosity)

	top, bot := z+dz, z
	if top < bot {
		top, bot = bot, top
	}
	above := max0(top) - max0(bot)
	below := min0(top) - min0(bot)

	q := above*dry + below*wet
	if dz < 0. {
		q = -q
	}
	return q
}

// CalcLoading fills out with the per-column load of this step's thickness
// change. z holds pre-step elevations relative to sea level; rhoSed is the
// per-column grain density.
func CalcLoading(out, dz, z []float64, porosity float64, rhoSed []float64, waterDensity float64) {
	for i := range out {
		out[i] = LoadOf(dz[i], z[i], porosity, rhoSed[i], waterDensity)
	}
}

func max0(v float64) float64 {
	if v > 0. {
		return v
	}
	return 0.
}

func min0(v float64) float64 {
	if v < 0. {
		return v
	}
	return 0.
}
