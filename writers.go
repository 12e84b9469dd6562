package sequence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/maseology/mmio"
	"github.com/sequence-dev/sequence/grid"
	"github.com/sequence-dev/sequence/layers"
)

// Writer records model state at a fixed step cadence. Profile fields go to a
// NetCDF file with an unlimited time dimension; the layer archive goes to a
// fixed-size NetCDF sidecar per flush (the classic format allows only one
// record dimension); the current surfaces go to a quick-look CSV that is
// rewritten every flush.
type Writer struct {
	Filepath string
	Interval int      // flush cadence [steps]
	Fields   []string // at-node fields to record
	Clobber  bool

	f    *os.File
	cf   *cdf.File
	stem string
	rec  int
	buf  []float64 // staging copy so no live field slice reaches the encoder
}

// NewWriter validates the requested fields and claims the output path. An
// existing file is an error unless clobber is set.
func NewWriter(fp string, interval int, fields []string, clobber bool) (*Writer, error) {
	if interval < 1 {
		return nil, configErrorf("output: interval must be at least 1 step, got %d", interval)
	}
	for _, name := range fields {
		if !isNodeField(name) {
			return nil, configErrorf("output: unknown field %q", name)
		}
	}
	if _, err := os.Stat(fp); err == nil {
		if !clobber {
			return nil, configErrorf("output: %s exists (set clobber to overwrite)", fp)
		}
		if err := os.Remove(fp); err != nil {
			return nil, fmt.Errorf("output: %v", err)
		}
	}
	return &Writer{
		Filepath: fp,
		Interval: interval,
		Fields:   fields,
		Clobber:  clobber,
		stem:     strings.TrimSuffix(fp, filepath.Ext(fp)),
	}, nil
}

func isNodeField(name string) bool {
	for _, f := range grid.NodeFields() {
		if f == name {
			return true
		}
	}
	return false
}

func fieldUnits(name string) string {
	switch name {
	case grid.Flux, grid.SedimentLoad:
		return "m2 / y"
	case grid.PercentSand:
		return "1"
	case grid.SedLoading:
		return "Pa"
	}
	return "m"
}

// open defines the header and writes the node coordinates. Deferred to the
// first flush so that NewWriter stays free of I/O beyond the clobber check.
func (w *Writer) open(p *grid.Profile) error {
	n := p.Ncols()
	h := cdf.NewHeader([]string{"time", "node"}, []int{0, n})
	h.AddAttribute("", "title", "sequence-stratigraphic profile evolution")
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "y")
	h.AddVariable("x_of_node", []string{"node"}, []float64{0})
	h.AddAttribute("x_of_node", "units", "m")
	h.AddAttribute("x_of_node", "location", "node")
	for _, name := range w.Fields {
		h.AddVariable(name, []string{"time", "node"}, []float64{0})
		h.AddAttribute(name, "units", fieldUnits(name))
		h.AddAttribute(name, "location", "node")
	}
	for _, name := range grid.GridFields() {
		h.AddVariable(name, []string{"time"}, []float64{0})
		h.AddAttribute(name, "units", fieldUnits(name))
		h.AddAttribute(name, "location", "grid")
	}
	h.Define()

	f, err := os.Create(w.Filepath)
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return fmt.Errorf("output: %v", err)
	}
	w.f, w.cf = f, cf
	w.buf = make([]float64, n)

	copy(w.buf, p.X)
	xw := cf.Writer("x_of_node", []int{0}, []int{n})
	if _, err := xw.Write(w.buf); err != nil {
		return fmt.Errorf("output: x_of_node: %v", err)
	}
	return nil
}

// Flush appends one record of profile fields and grid scalars, snapshots the
// layer archive, and rewrites the quick-look CSV.
func (w *Writer) Flush(s *Simulation) error {
	if w.cf == nil {
		if err := w.open(s.P); err != nil {
			return err
		}
	}
	n := s.P.Ncols()
	r := w.rec

	tw := w.cf.Writer("time", []int{r}, []int{r + 1})
	if _, err := tw.Write([]float64{s.Clock.Time()}); err != nil {
		return fmt.Errorf("output: time: %v", err)
	}
	for _, name := range w.Fields {
		copy(w.buf, s.P.AtNode(name))
		vw := w.cf.Writer(name, []int{r, 0}, []int{r + 1, n})
		if _, err := vw.Write(w.buf); err != nil {
			return fmt.Errorf("output: %s: %v", name, err)
		}
	}
	for _, name := range grid.GridFields() {
		v, _ := s.P.AtGrid(name)
		vw := w.cf.Writer(name, []int{r}, []int{r + 1})
		if _, err := vw.Write([]float64{v}); err != nil {
			return fmt.Errorf("output: %s: %v", name, err)
		}
	}
	if err := cdf.UpdateNumRecs(w.f); err != nil {
		return fmt.Errorf("output: %v", err)
	}
	w.rec++

	if err := w.flushLayers(s, r); err != nil {
		return err
	}
	return w.flushProfile(s)
}

// flushLayers writes the layer archive for record r beside the main file.
func (w *Writer) flushLayers(s *Simulation, r int) error {
	nl, nc := s.Stack.NLayers(), s.Stack.Nc
	if nl == 0 {
		return nil
	}
	h := cdf.NewHeader([]string{"layer", "node"}, []int{nl, nc})
	h.AddAttribute("", "time", []float64{s.Clock.Time()})
	h.AddAttribute("", "n_archived", []int32{int32(s.Stack.Narchived)})
	for _, name := range layers.LayerFields() {
		h.AddVariable(name, []string{"layer", "node"}, []float64{0})
		h.AddAttribute(name, "location", "layer")
	}
	h.Define()

	fp := fmt.Sprintf("%s-layers-%04d.nc", w.stem, r)
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("output: %v", err)
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return fmt.Errorf("output: %v", err)
	}
	for _, name := range layers.LayerFields() {
		arr := sparse.ZerosDense(nl, nc)
		for l, row := range s.Stack.AtLayer(name) {
			for c, v := range row {
				arr.Set(v, l, c)
			}
		}
		vw := cf.Writer(name, []int{0, 0}, []int{nl, nc})
		if _, err := vw.Write(arr.Elements); err != nil {
			f.Close()
			return fmt.Errorf("output: layers %s: %v", name, err)
		}
	}
	return f.Close()
}

// flushProfile rewrites the quick-look CSV of the current surfaces.
func (w *Writer) flushProfile(s *Simulation) error {
	p := s.P
	dz := make([]float64, p.Ncols())
	s.Stack.Totals(dz)
	cols := make([][]interface{}, 5)
	for j, src := range [][]float64{p.X, p.Z, p.Zb, dz, p.Hw} {
		cols[j] = make([]interface{}, len(src))
		for i, v := range src {
			cols[j][i] = v
		}
	}
	mmio.WriteCSV(w.stem+"-profile.csv", "x,elevation,bedrock,deposit,water_depth",
		cols[0], cols[1], cols[2], cols[3], cols[4])
	return nil
}

// Finalize dumps the final surfaces as raw float32 bins and closes the
// NetCDF file.
func (w *Writer) Finalize(s *Simulation) error {
	if err := writeFloats(w.stem+"-elevation.bin", s.P.Z); err != nil {
		return err
	}
	if err := writeFloats(w.stem+"-bedrock.bin", s.P.Zb); err != nil {
		return err
	}
	return w.Close()
}

// Close releases the NetCDF file. Safe to call on a writer that never
// flushed.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f, w.cf = nil, nil
	return err
}

func writeFloats(fp string, f []float64) error {
	f32 := make([]float32, len(f))
	for i, v := range f {
		f32[i] = float32(v)
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, f32); err != nil {
		return fmt.Errorf("writeFloats failed: %v", err)
	}
	if err := os.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writeFloats failed: %v", err)
	}
	return nil
}
