package flexure

import "errors"

var errDegenerate = errors.New("degenerate plate system")

// plate solves D*w'''' + rho_mantle*g*w = g*q for the deflection w of an
// elastic plate on a fluid mantle. The edges mirror the interior (zero slope
// and shear), which closes the pentadiagonal system.
type plate struct {
	a, b, c, d, e []float64 // five bands, a..e = -2..+2 off the diagonal
	r             []float64
}

func newPlate(n int) *plate {
	return &plate{
		a: make([]float64, n),
		b: make([]float64, n),
		c: make([]float64, n),
		d: make([]float64, n),
		e: make([]float64, n),
		r: make([]float64, n),
	}
}

// solve fills w with the deflection under load q [kg/m2]. rigidity is
// D/dx^4 [Pa/m], buoyancy is rho_mantle*g [Pa/m].
func (p *plate) solve(w, q []float64, rigidity, buoyancy, gravity float64) error {
	n := len(q)
	if n < 5 {
		// too short for a plate stencil, fall back to local balance
		for i := range w {
			w[i] = gravity * q[i] / buoyancy
		}
		return nil
	}

	for i := 0; i < n; i++ {
		p.a[i] = rigidity
		p.b[i] = -4. * rigidity
		p.c[i] = 6.*rigidity + buoyancy
		p.d[i] = -4. * rigidity
		p.e[i] = rigidity
		p.r[i] = gravity * q[i]
	}
	// mirror ghosts: w[-1]=w[1], w[-2]=w[2] and the same at the far end
	p.a[0], p.b[0] = 0., 0.
	p.d[0] += -4. * rigidity
	p.e[0] += rigidity
	p.a[1] = 0.
	p.c[1] += rigidity

	p.d[n-1], p.e[n-1] = 0., 0.
	p.b[n-1] += -4. * rigidity
	p.a[n-1] += rigidity
	p.e[n-2] = 0.
	p.c[n-2] += rigidity

	// banded elimination, bandwidth two
	for i := 0; i < n-1; i++ {
		piv := p.c[i]
		if piv == 0. {
			return errDegenerate
		}
		m := p.b[i+1] / piv
		p.c[i+1] -= m * p.d[i]
		p.d[i+1] -= m * p.e[i]
		p.r[i+1] -= m * p.r[i]
		if i+2 < n {
			m = p.a[i+2] / piv
			p.b[i+2] -= m * p.d[i]
			p.c[i+2] -= m * p.e[i]
			p.r[i+2] -= m * p.r[i]
		}
	}
	if p.c[n-1] == 0. {
		return errDegenerate
	}
	w[n-1] = p.r[n-1] / p.c[n-1]
	w[n-2] = (p.r[n-2] - p.d[n-2]*w[n-1]) / p.c[n-2]
	for i := n - 3; i >= 0; i-- {
		w[i] = (p.r[i] - p.d[i]*w[i+1] - p.e[i]*w[i+2]) / p.c[i]
	}
	return nil
}
