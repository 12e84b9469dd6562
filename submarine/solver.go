package submarine

import (
	"errors"
	"math"
)

var errSingular = errors.New("singular diffusion system")

// tridiag holds the work arrays for the backward-Euler diffusion step so a
// long run does not allocate per tick.
type tridiag struct {
	a, b, c, r, z []float64
}

func newTridiag(n int) *tridiag {
	return &tridiag{
		a: make([]float64, n),
		b: make([]float64, n),
		c: make([]float64, n),
		r: make([]float64, n),
		z: make([]float64, n),
	}
}

// step advances the interior columns one implicit time step of
// dz/dt = d/dx(k dz/dx). The landward ghost holds elevation z0; the far
// column either holds zfar (open) or is sealed off (closed). It returns the
// updated elevations and the influx across the landward face.
func (t *tridiag) step(z, k []float64, z0, zfar, dt, dx float64, closed bool) ([]float64, float64, error) {
	n := len(z)
	copy(t.z, z)
	rr := dt / (dx * dx)

	for i := 1; i < n-1; i++ {
		kw := 0.5 * (k[i-1] + k[i])
		ke := 0.5 * (k[i] + k[i+1])
		if i == n-2 && closed {
			ke = 0.
		}
		t.a[i] = -rr * kw
		t.b[i] = 1. + rr*(kw+ke)
		t.c[i] = -rr * ke
		t.r[i] = z[i]
	}
	// fold the known end values into the right-hand side
	t.r[1] -= t.a[1] * z0
	t.a[1] = 0.
	if !closed {
		t.r[n-2] -= t.c[n-2] * zfar
	}
	t.c[n-2] = 0.

	// Thomas elimination over rows 1..n-2
	for i := 2; i < n-1; i++ {
		piv := t.b[i-1]
		if piv == 0. || math.IsNaN(piv) {
			return nil, 0., errSingular
		}
		m := t.a[i] / piv
		t.b[i] -= m * t.c[i-1]
		t.r[i] -= m * t.r[i-1]
	}
	if t.b[n-2] == 0. || math.IsNaN(t.b[n-2]) {
		return nil, 0., errSingular
	}
	t.z[n-2] = t.r[n-2] / t.b[n-2]
	for i := n - 3; i >= 1; i-- {
		t.z[i] = (t.r[i] - t.c[i]*t.z[i+1]) / t.b[i]
	}

	qin := 0.5 * (k[0] + k[1]) * (z0 - t.z[1]) / dx
	return t.z, qin, nil
}
