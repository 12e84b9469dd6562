package shoreline

import (
	"errors"
	"math"
	"testing"

	"github.com/sequence-dev/sequence/grid"
)

func dipping() ([]float64, []float64) {
	x := make([]float64, 10)
	z := make([]float64, 10)
	for i := range x {
		x[i] = float64(i)
		z[i] = 5. - float64(i)
	}
	return x, z
}

func TestFindIndex(t *testing.T) {
	_, z := dipping()
	i, err := FindIndex(z, 0.)
	if err != nil || i != 6 {
		t.Errorf("got %d,%v, want 6", i, err)
	}
	i, err = FindIndex(z, 0.25)
	if err != nil || i != 5 {
		t.Errorf("got %d,%v, want 5", i, err)
	}
	if _, err = FindIndex(z, 100.); !errors.Is(err, ErrNoShoreline) {
		t.Error("all-below profile should fail")
	}
	if _, err = FindIndex(z, -100.); !errors.Is(err, ErrNoShoreline) {
		t.Error("all-above profile should fail")
	}
}

func TestFindInterpolates(t *testing.T) {
	x, z := dipping()
	if xs := Find(x, z, 0.); xs != 5. {
		t.Errorf("got %g, want 5", xs)
	}
	if xs := Find(x, z, 0.25); xs != 4.75 {
		t.Errorf("got %g, want 4.75", xs)
	}
}

func TestFindSentinelAndFallback(t *testing.T) {
	x, z := dipping()
	if xs := Find(x, z, 100.); !math.IsNaN(xs) {
		t.Errorf("drowned profile: got %g, want NaN", xs)
	}
	if xs := Find(x, z, -100.); !math.IsNaN(xs) {
		t.Errorf("emergent profile: got %g, want NaN", xs)
	}
	if xs := FindOrEdge(x, z, 100.); xs != x[0] {
		t.Errorf("drowned fallback: got %g, want %g", xs, x[0])
	}
	if xs := FindOrEdge(x, z, -100.); xs != x[len(x)-1] {
		t.Errorf("emergent fallback: got %g, want %g", xs, x[len(x)-1])
	}
}

func TestFindShelfEdge(t *testing.T) {
	x, z := dipping()
	// depth reaches 2.5 m halfway between columns 7 (depth 2) and 8 (depth 3)
	if se := FindShelfEdge(x, z, 0., 5., 2.5); se != 7.5 {
		t.Errorf("got %g, want 7.5", se)
	}
	if se := FindShelfEdge(x, z, 0., 5., 50.); !math.IsNaN(se) {
		t.Errorf("too-shallow profile: got %g, want NaN", se)
	}
	if se := FindShelfEdge(x, z, 0., math.NaN(), 2.5); !math.IsNaN(se) {
		t.Errorf("undefined shore: got %g, want NaN", se)
	}
}

func TestFinderComponent(t *testing.T) {
	p, _ := grid.New(10, 1.)
	_, z := dipping()
	copy(p.Z, z)
	p.Sl = 0.25

	f := NewFinder(p, 0.0005, 2.)
	if p.Xsh != 4.75 {
		t.Errorf("x_of_shore: got %g, want 4.75", p.Xsh)
	}
	// depth crosses 2 m between columns 6 (1.25 m) and 7 (2.25 m)
	if math.Abs(p.Xse-6.75) > 1e-12 {
		t.Errorf("x_of_shelf_edge: got %g, want 6.75", p.Xse)
	}

	p.Sl = -100.
	if err := f.Advance(10.); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(p.Xsh) || !math.IsNaN(p.Xse) {
		t.Error("undefined positions should publish NaN")
	}
	ns, ne := f.Undefined()
	if ns != 1 || ne != 1 {
		t.Errorf("counters: got %d,%d, want 1,1", ns, ne)
	}
}

func TestFinderParams(t *testing.T) {
	p, _ := grid.New(10, 1.)
	f := NewFinder(p, 0.0005, 15.)
	if err := f.SetParam("alpha", 0.001); err != nil {
		t.Fatal(err)
	}
	if f.Alpha != 0.001 {
		t.Errorf("alpha: got %g", f.Alpha)
	}
	if err := f.SetParam("kind", 1.); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
