package subsidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sequence-dev/sequence/grid"
)

func writeCurve(t *testing.T, name, body string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fp, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestMissingFile(t *testing.T) {
	p, _ := grid.New(5, 1.)
	if _, err := New(p, "missing-file.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConstantRate(t *testing.T) {
	fp := writeCurve(t, "subsidence.csv", "x,subsidence_rate\n0.0,1.0\n5.0,1.0\n")
	p, _ := grid.New(5, 1.)
	ts, err := New(p, fp)
	if err != nil {
		t.Fatal(err)
	}
	ts.Advance(1.)
	for i := range p.DzbSub {
		if p.DzbSub[i] != 1. {
			t.Errorf("increment[%d]: got %g, want 1", i, p.DzbSub[i])
		}
	}
	// increments accumulate until the driver resets them
	ts.Advance(2.)
	for i := range p.DzbSub {
		if p.DzbSub[i] != 3. {
			t.Errorf("increment[%d]: got %g, want 3", i, p.DzbSub[i])
		}
	}
}

func TestLinearRateInterpolation(t *testing.T) {
	fp := writeCurve(t, "subsidence.csv", "x,subsidence_rate\n0.0,0.0\n4.0,40.0\n")
	p, _ := grid.New(5, 1.)
	ts, err := New(p, fp)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0., 10., 20., 30., 40.}
	for i := range want {
		if ts.RateAt(i) != want[i] {
			t.Errorf("rate[%d]: got %g, want %g", i, ts.RateAt(i), want[i])
		}
	}
	ts.Advance(1.)
	for i := range want {
		if p.DzbSub[i] != want[i] {
			t.Errorf("increment[%d]: got %g, want %g", i, p.DzbSub[i], want[i])
		}
	}
}

func TestAddsToExistingIncrement(t *testing.T) {
	fp := writeCurve(t, "subsidence.csv", "x,subsidence_rate\n0.0,0.0\n4.0,40.0\n")
	p, _ := grid.New(5, 1.)
	for i := range p.DzbSub {
		p.DzbSub[i] = 1.
	}
	ts, _ := New(p, fp)
	ts.Advance(1.)
	want := []float64{1., 11., 21., 31., 41.}
	for i := range want {
		if p.DzbSub[i] != want[i] {
			t.Errorf("increment[%d]: got %g, want %g", i, p.DzbSub[i], want[i])
		}
	}
}

func TestFilepathParamReloads(t *testing.T) {
	fp0 := writeCurve(t, "subsidence-0.csv", "x,subsidence_rate\n0.0,10.0\n4.0,10.0\n")
	fp1 := writeCurve(t, "subsidence-1.csv", "x,subsidence_rate\n0.0,-100.0\n4.0,-100.0\n")
	p, _ := grid.New(5, 1.)
	ts, _ := New(p, fp0)
	ts.Advance(1.)
	if p.DzbSub[0] != 10. {
		t.Fatalf("before reload: got %g, want 10", p.DzbSub[0])
	}
	for i := range p.DzbSub {
		p.DzbSub[i] = 0.
	}
	if err := ts.SetParam("filepath", fp1); err != nil {
		t.Fatal(err)
	}
	ts.Advance(1.)
	for i := range p.DzbSub {
		if p.DzbSub[i] != -100. {
			t.Errorf("after reload: got %g, want -100", p.DzbSub[i])
		}
	}
	if err := ts.SetParam("kind", "cubic"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
