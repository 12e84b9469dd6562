// Package layers keeps the per-column stratigraphic archive: one row of
// thicknesses and properties per model step, oldest first.
package layers

import "fmt"

// layer property names as they appear in output files
const (
	Thickness   = "thickness"
	Age         = "age"
	WaterDepth  = "water_depth"
	T0          = "t0"
	Porosity    = "porosity"
	PercentSand = "percent_sand"
)

// ownership names for the in-place mutators (compaction)
const (
	PorosityField  = "sediment_layer__porosity"
	ThicknessField = "sediment_layer__thickness"
)

// Props carries the per-layer properties recorded at deposition.
type Props struct {
	Age         float64   // deposition time [y]
	Porosity    float64   // porosity at deposition [-]
	WaterDepth  []float64 // water depth at deposition, per column [m]
	T0          []float64 // gross deposited thickness, per column [m]
	PercentSand []float64 // sand fraction, per column [-]
}

// Stack is the layered archive. Rows are layers (oldest first), columns
// match the profile grid. All rows are rectangular: columns that received
// nothing during a step carry a zero-thickness entry.
type Stack struct {
	Dz    [][]float64 // layer thickness [m], always >= 0
	Age   [][]float64 // deposition time [y]
	Hw    [][]float64 // water depth at deposition [m]
	T0    [][]float64 // gross deposited thickness [m]
	Phi   [][]float64 // porosity [-]
	Fsand [][]float64 // sand fraction [-]

	Nc int // number of columns

	// optional layer reduction (bounded-memory mode)
	ReduceEvery int // merge whenever this many unarchived layers exist (0 disables)
	ReduceMerge int // number of oldest layers merged per reduction
	Narchived   int // rows already passed through a reduction
}

// NewStack builds an empty archive over ncols columns.
func NewStack(ncols int) *Stack {
	return &Stack{Nc: ncols}
}

// NLayers returns the number of archived layers.
func (s *Stack) NLayers() int { return len(s.Dz) }

// row appends one rectangular row initialized to zeros and returns its index.
func (s *Stack) row() int {
	s.Dz = append(s.Dz, make([]float64, s.Nc))
	s.Age = append(s.Age, make([]float64, s.Nc))
	s.Hw = append(s.Hw, make([]float64, s.Nc))
	s.T0 = append(s.T0, make([]float64, s.Nc))
	s.Phi = append(s.Phi, make([]float64, s.Nc))
	s.Fsand = append(s.Fsand, make([]float64, s.Nc))
	return len(s.Dz) - 1
}

// Add records one model step: positive dz deposits, negative dz erodes the
// column top-down. Every column gets an entry in the new row (zero thickness
// where nothing accumulated). The returned slice holds, per column, erosion
// demand that exceeded the recorded section; the caller owes that much
// bedrock lowering.
func (s *Stack) Add(dz []float64, p Props) ([]float64, error) {
	if len(dz) != s.Nc {
		return nil, fmt.Errorf("layers: got %d thicknesses for %d columns", len(dz), s.Nc)
	}
	excess := make([]float64, s.Nc)
	for c, d := range dz {
		if d < 0. {
			excess[c] = s.Erode(c, -d)
		}
	}
	l := s.row()
	for c, d := range dz {
		if d > 0. {
			s.Dz[l][c] = d
		}
		s.Age[l][c] = p.Age
		s.Phi[l][c] = p.Porosity
		if p.WaterDepth != nil {
			s.Hw[l][c] = p.WaterDepth[c]
		}
		if p.T0 != nil {
			s.T0[l][c] = p.T0[c]
		}
		if p.PercentSand != nil {
			s.Fsand[l][c] = p.PercentSand[c]
		}
	}
	return excess, nil
}

// Deposit appends a single-column layer. Negative thickness is rejected;
// use Erode.
func (s *Stack) Deposit(col int, thickness, percentSand, porosity, age, waterDepth float64) error {
	if thickness < 0. {
		return fmt.Errorf("layers: negative deposit %g at column %d", thickness, col)
	}
	l := s.row()
	s.Dz[l][col] = thickness
	s.T0[l][col] = thickness
	s.Age[l][col] = age
	s.Hw[l][col] = waterDepth
	s.Phi[l][col] = porosity
	s.Fsand[l][col] = percentSand
	return nil
}

// Erode removes thickness from the top of a column, consuming successive
// layers until satisfied. It returns the demand that survived the whole
// recorded section; the column's history below is then gone for good.
func (s *Stack) Erode(col int, thickness float64) float64 {
	for l := len(s.Dz) - 1; l >= 0 && thickness > 0.; l-- {
		if d := s.Dz[l][col]; d >= thickness {
			s.Dz[l][col] = d - thickness
			return 0.
		} else if d > 0. {
			thickness -= d
			s.Dz[l][col] = 0.
		}
	}
	return thickness
}

// TotalAt returns the total recorded thickness of one column.
func (s *Stack) TotalAt(col int) float64 {
	t := 0.
	for l := range s.Dz {
		t += s.Dz[l][col]
	}
	return t
}

// Totals writes per-column total thickness into dst.
func (s *Stack) Totals(dst []float64) {
	for c := range dst {
		dst[c] = 0.
	}
	for l := range s.Dz {
		for c, d := range s.Dz[l] {
			dst[c] += d
		}
	}
}

// AtLayer returns the per-(layer,column) view of a property.
func (s *Stack) AtLayer(name string) [][]float64 {
	switch name {
	case Thickness:
		return s.Dz
	case Age:
		return s.Age
	case WaterDepth:
		return s.Hw
	case T0:
		return s.T0
	case Porosity:
		return s.Phi
	case PercentSand:
		return s.Fsand
	}
	return nil
}

// LayerFields lists the layer property names in canonical output order.
func LayerFields() []string {
	return []string{Thickness, Age, WaterDepth, T0, Porosity, PercentSand}
}
