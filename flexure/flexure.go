package flexure

import (
	"fmt"
	"math"

	"github.com/sequence-dev/sequence/grid"
)

// deflection methods
const (
	MethodFlexure = "flexure"
	MethodAiry    = "airy"
)

// Config carries the lithosphere parameters shared by both flexure
// components.
type Config struct {
	Method       string
	RhoMantle    float64 // [kg/m3]
	EET          float64 // effective elastic thickness [m]
	Youngs       float64 // Young's modulus [Pa]
	Poisson      float64 // [-]
	Gravity      float64 // [m/s2]
	IsostasyTime float64 // e-folding time of the response [y], 0 = instant
	WaterDensity float64 // [kg/m3]
	SandDensity  float64 // grain density [kg/m3]
	MudDensity   float64 // grain density [kg/m3]
}

// DefaultConfig returns the standard lithosphere.
func DefaultConfig() Config {
	return Config{
		Method:       MethodFlexure,
		RhoMantle:    3300.,
		EET:          84000.,
		Youngs:       7.e10,
		Poisson:      0.25,
		Gravity:      9.80665,
		IsostasyTime: 0.,
		WaterDensity: 1030.,
		SandDensity:  2650.,
		MudDensity:   2720.,
	}
}

func (c Config) validate() error {
	if c.Method != MethodFlexure && c.Method != MethodAiry {
		return fmt.Errorf("flexure: unknown method %q", c.Method)
	}
	for _, d := range []struct {
		name  string
		value float64
	}{
		{"rho_mantle", c.RhoMantle},
		{"water_density", c.WaterDensity},
		{"sand_density", c.SandDensity},
		{"mud_density", c.MudDensity},
	} {
		if d.value <= 0. {
			return fmt.Errorf("flexure: negative or zero density (%s = %g)", d.name, d.value)
		}
	}
	if c.EET <= 0. {
		return fmt.Errorf("flexure: eet must be positive, got %g", c.EET)
	}
	if c.IsostasyTime < 0. {
		return fmt.Errorf("flexure: negative isostasy time (%g)", c.IsostasyTime)
	}
	return nil
}

// isostasy computes deflections from load increments and meters them out
// through the relaxation pool.
type isostasy struct {
	cfg   Config
	pool  []float64 // deflection not yet released [m], positive down
	w     []float64
	plate *plate
	dx    float64
}

func newIsostasy(cfg Config, n int, dx float64) (*isostasy, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &isostasy{
		cfg:   cfg,
		pool:  make([]float64, n),
		w:     make([]float64, n),
		plate: newPlate(n),
		dx:    dx,
	}, nil
}

// rigidity returns D/dx^4.
func (iso *isostasy) rigidity() float64 {
	c := iso.cfg
	d := c.Youngs * c.EET * c.EET * c.EET / (12. * (1. - c.Poisson*c.Poisson))
	return d / (iso.dx * iso.dx * iso.dx * iso.dx)
}

// deflect converts a load increment q [kg/m2] into this step's released
// deflection [m], positive down.
func (iso *isostasy) deflect(q []float64, dt float64, release []float64) error {
	c := iso.cfg
	switch c.Method {
	case MethodAiry:
		for i := range q {
			iso.w[i] = q[i] / c.RhoMantle
		}
	case MethodFlexure:
		if err := iso.plate.solve(iso.w, q, iso.rigidity(), c.RhoMantle*c.Gravity, c.Gravity); err != nil {
			return err
		}
	default:
		return fmt.Errorf("flexure: unknown method %q", c.Method)
	}

	frac := 1.
	if c.IsostasyTime > 0. {
		frac = 1. - math.Exp(-dt/c.IsostasyTime)
	}
	for i := range iso.pool {
		iso.pool[i] += iso.w[i]
		release[i] = iso.pool[i] * frac
		iso.pool[i] -= release[i]
	}
	return nil
}

func (iso *isostasy) setParam(key string, value interface{}) (bool, error) {
	if key == "method" {
		s, ok := value.(string)
		if !ok || (s != MethodFlexure && s != MethodAiry) {
			return true, fmt.Errorf("flexure: unknown method %v", value)
		}
		iso.cfg.Method = s
		return true, nil
	}
	v, ok := grid.Float(value)
	if !ok {
		return false, fmt.Errorf("flexure: %s wants a number, got %T", key, value)
	}
	switch key {
	case "rho_mantle":
		if v <= 0. {
			return true, fmt.Errorf("flexure: negative or zero density (%g)", v)
		}
		iso.cfg.RhoMantle = v
	case "eet":
		if v <= 0. {
			return true, fmt.Errorf("flexure: eet must be positive, got %g", v)
		}
		iso.cfg.EET = v
	case "youngs":
		iso.cfg.Youngs = v
	case "poisson":
		iso.cfg.Poisson = v
	case "gravity":
		iso.cfg.Gravity = v
	case "isostasytime":
		if v < 0. {
			return true, fmt.Errorf("flexure: negative isostasy time (%g)", v)
		}
		iso.cfg.IsostasyTime = v
	case "water_density":
		if v <= 0. {
			return true, fmt.Errorf("flexure: negative or zero density (%g)", v)
		}
		iso.cfg.WaterDensity = v
	default:
		return false, nil
	}
	return true, nil
}

// Sediment deflects the lithosphere under the running total of sediment
// loading that the driver maintains. Each step it responds to the change in
// that total since its last look.
type Sediment struct {
	p   *grid.Profile
	iso *isostasy

	prevTotal []float64
	q         []float64
	release   []float64

	rhoSandBulk, rhoMudBulk float64
}

func NewSediment(p *grid.Profile, cfg Config) (*Sediment, error) {
	iso, err := newIsostasy(cfg, p.Ncols(), p.Dx)
	if err != nil {
		return nil, err
	}
	s := &Sediment{
		p:         p,
		iso:       iso,
		prevTotal: make([]float64, p.Ncols()),
		q:         make([]float64, p.Ncols()),
		release:   make([]float64, p.Ncols()),
	}
	copy(s.prevTotal, p.Qload)
	s.updateBulk()
	return s, nil
}

// bulk densities assume sand compacts to 40% porosity and mud to 65%
func (s *Sediment) updateBulk() {
	c := s.iso.cfg
	s.rhoSandBulk = c.SandDensity*(1.-0.4) + c.WaterDensity*0.4
	s.rhoMudBulk = c.MudDensity*(1.-0.65) + c.WaterDensity*0.65
}

// SandBulkDensity returns the water-saturated bulk density of sand.
func (s *Sediment) SandBulkDensity() float64 { return s.rhoSandBulk }

// MudBulkDensity returns the water-saturated bulk density of mud.
func (s *Sediment) MudBulkDensity() float64 { return s.rhoMudBulk }

func (s *Sediment) Name() string { return "flexure" }

func (s *Sediment) Reads() []string { return []string{grid.SedLoading} }

func (s *Sediment) Writes() []string { return []string{grid.SedFlexInc} }

func (s *Sediment) Advance(dt float64) error {
	for i := range s.q {
		s.q[i] = s.p.Qload[i] - s.prevTotal[i]
	}
	copy(s.prevTotal, s.p.Qload)

	if err := s.iso.deflect(s.q, dt, s.release); err != nil {
		return err
	}
	// loads push the surface down
	for i := range s.release {
		s.p.DzbSed[i] -= s.release[i]
	}
	return nil
}

func (s *Sediment) Params() []string {
	return []string{"method", "rho_mantle", "eet", "youngs", "poisson", "gravity",
		"isostasytime", "water_density", "sand_density", "mud_density"}
}

func (s *Sediment) SetParam(key string, value interface{}) error {
	if handled, err := s.iso.setParam(key, value); handled || err != nil {
		if err == nil {
			s.updateBulk()
		}
		return err
	}
	v, ok := grid.Float(value)
	if !ok {
		return fmt.Errorf("flexure: %s wants a number, got %T", key, value)
	}
	switch key {
	case "sand_density":
		if v <= 0. {
			return fmt.Errorf("flexure: negative or zero density (%g)", v)
		}
		s.iso.cfg.SandDensity = v
	case "mud_density":
		if v <= 0. {
			return fmt.Errorf("flexure: negative or zero density (%g)", v)
		}
		s.iso.cfg.MudDensity = v
	default:
		return fmt.Errorf("flexure: unknown parameter %q", key)
	}
	s.updateBulk()
	return nil
}

// MarshalState captures the relaxation pool and the loading baseline for
// run snapshots.
func (s *Sediment) MarshalState() []float64 {
	out := make([]float64, 0, 2*len(s.prevTotal))
	out = append(out, s.iso.pool...)
	out = append(out, s.prevTotal...)
	return out
}

func (s *Sediment) UnmarshalState(v []float64) {
	n := len(s.prevTotal)
	if len(v) >= 2*n {
		copy(s.iso.pool, v[:n])
		copy(s.prevTotal, v[n:2*n])
	}
}

// Water deflects the lithosphere as the water column over each column
// changes, through sea-level motion or seafloor motion.
type Water struct {
	p   *grid.Profile
	iso *isostasy

	q       []float64
	release []float64
}

func NewWater(p *grid.Profile, cfg Config) (*Water, error) {
	iso, err := newIsostasy(cfg, p.Ncols(), p.Dx)
	if err != nil {
		return nil, err
	}
	return &Water{
		p:       p,
		iso:     iso,
		q:       make([]float64, p.Ncols()),
		release: make([]float64, p.Ncols()),
	}, nil
}

func (w *Water) Name() string { return "water_flexure" }

func (w *Water) Reads() []string { return []string{grid.WaterInc} }

func (w *Water) Writes() []string { return []string{grid.WaterFlexInc} }

func (w *Water) Advance(dt float64) error {
	rho := w.iso.cfg.WaterDensity
	for i := range w.q {
		w.q[i] = rho * w.p.DHw[i]
	}
	if err := w.iso.deflect(w.q, dt, w.release); err != nil {
		return err
	}
	for i := range w.release {
		w.p.DzbWat[i] -= w.release[i]
	}
	return nil
}

func (w *Water) Params() []string {
	return []string{"method", "rho_mantle", "eet", "youngs", "poisson", "gravity",
		"isostasytime", "water_density"}
}

func (w *Water) SetParam(key string, value interface{}) error {
	handled, err := w.iso.setParam(key, value)
	if err != nil {
		return err
	}
	if !handled {
		return fmt.Errorf("flexure: unknown parameter %q", key)
	}
	return nil
}

func (w *Water) MarshalState() []float64 {
	out := make([]float64, len(w.iso.pool))
	copy(out, w.iso.pool)
	return out
}

func (w *Water) UnmarshalState(v []float64) {
	if len(v) >= len(w.iso.pool) {
		copy(w.iso.pool, v[:len(w.iso.pool)])
	}
}
