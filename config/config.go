// Package config loads the time-varying model configuration from TOML or
// YAML, expands it into per-section parameter maps, and reconciles the
// parameters that two sections are allowed to share.
package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sequence-dev/sequence/grid"
)

// Key addresses one configuration value. Top-level values, like the
// processes list, use an empty section.
type Key struct{ Section, Param string }

// Params is one expanded configuration state: named sections of key/value
// pairs plus any top-level values.
type Params struct {
	Sections map[string]map[string]interface{}
	Top      map[string]interface{}
}

// NewParams returns an empty parameter set.
func NewParams() Params {
	return Params{
		Sections: map[string]map[string]interface{}{},
		Top:      map[string]interface{}{},
	}
}

// normalize rewrites the numeric types the TOML and YAML decoders hand back
// so that equal values compare equal across formats.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	}
	return v
}

func valueEq(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// flatten turns a raw document into per-key values. Section tables become
// two-part keys; anything else stays top-level.
func flatten(doc map[string]interface{}) map[Key]interface{} {
	flat := make(map[Key]interface{})
	for name, v := range doc {
		if sub, ok := v.(map[string]interface{}); ok {
			for k, sv := range sub {
				flat[Key{name, k}] = normalize(sv)
			}
			continue
		}
		flat[Key{"", name}] = normalize(v)
	}
	return flat
}

// expand rebuilds a Params from flattened keys.
func expand(flat map[Key]interface{}) Params {
	p := NewParams()
	for key, v := range flat {
		if key.Section == "" {
			p.Top[key.Param] = v
			continue
		}
		sec, ok := p.Sections[key.Section]
		if !ok {
			sec = map[string]interface{}{}
			p.Sections[key.Section] = sec
		}
		sec[key.Param] = v
	}
	return p
}

// Has reports whether a section is present.
func (p Params) Has(section string) bool {
	_, ok := p.Sections[section]
	return ok
}

// Section returns a section's key/value pairs, nil if absent.
func (p Params) Section(section string) map[string]interface{} {
	return p.Sections[section]
}

// Float looks up a numeric value.
func (p Params) Float(section, key string) (float64, bool) {
	v, ok := p.Sections[section][key]
	if !ok {
		return 0., false
	}
	return grid.Float(v)
}

// Int looks up an integral value.
func (p Params) Int(section, key string) (int, bool) {
	f, ok := p.Float(section, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Str looks up a string value.
func (p Params) Str(section, key string) (string, bool) {
	v, ok := p.Sections[section][key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool looks up a boolean value.
func (p Params) Bool(section, key string) (bool, bool) {
	v, ok := p.Sections[section][key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Strings looks up a list of strings.
func (p Params) Strings(section, key string) ([]string, bool) {
	v, ok := p.Sections[section][key]
	if !ok {
		return nil, false
	}
	return stringList(v)
}

// Floats looks up a list of numbers.
func (p Params) Floats(section, key string) ([]float64, bool) {
	v, ok := p.Sections[section][key]
	if !ok {
		return nil, false
	}
	lst, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]float64, len(lst))
	for i, e := range lst {
		f, ok := grid.Float(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func stringList(v interface{}) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []interface{}:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Set assigns one value, creating the section as needed.
func (p Params) Set(section, key string, v interface{}) {
	if section == "" {
		p.Top[key] = normalize(v)
		return
	}
	sec, ok := p.Sections[section]
	if !ok {
		sec = map[string]interface{}{}
		p.Sections[section] = sec
	}
	sec[key] = normalize(v)
}

// Processes returns the top-level process list and whether it was set at
// all; an explicitly empty list is distinct from an absent one.
func (p Params) Processes() ([]string, bool) {
	v, ok := p.Top["processes"]
	if !ok {
		return nil, false
	}
	names, ok := stringList(v)
	if !ok {
		return nil, false
	}
	return names, true
}

// GridDims resolves the accepted grid spellings: n_cols beats shape's
// column count, and spacing (scalar, or the column entry of a (row, column)
// pair) beats xy_spacing.
func (p Params) GridDims() (int, float64, error) {
	ncols, ok := p.Int("grid", "n_cols")
	if !ok {
		shape, found := p.Floats("grid", "shape")
		if !found || len(shape) == 0 {
			return 0, 0., fmt.Errorf("config: grid needs n_cols or shape")
		}
		ncols = int(shape[len(shape)-1])
	}
	spacing, ok := scalarOrLast(p, "grid", "spacing")
	if !ok {
		if spacing, ok = scalarOrLast(p, "grid", "xy_spacing"); !ok {
			return 0, 0., fmt.Errorf("config: grid needs spacing or xy_spacing")
		}
	}
	return ncols, spacing, nil
}

func scalarOrLast(p Params, section, key string) (float64, bool) {
	if f, ok := p.Float(section, key); ok {
		return f, true
	}
	if lst, ok := p.Floats(section, key); ok && len(lst) > 0 {
		return lst[len(lst)-1], true
	}
	return 0., false
}

// ParameterMismatchError reports shared parameters set to conflicting
// values in two sections.
type ParameterMismatchError struct {
	SectionA, SectionB string
	Keys               []string
}

func (e *ParameterMismatchError) Error() string {
	return fmt.Sprintf("mismatch in parameter(s) between %s and %s: %s",
		e.SectionA, e.SectionB, strings.Join(e.Keys, ", "))
}

// Matchup ties two sections that share parameter meanings. When only one
// side sets a key the value propagates to both; when both set it the values
// must agree, with the second section's value taken as reference.
type Matchup struct {
	A, B string
	Keys []string
}

// Matchups lists the section pairs reconciled before the model is built.
func Matchups() []Matchup {
	return []Matchup{
		{"fluvial", "submarine_diffusion", []string{"sediment_load", "plain_slope"}},
		{"fluvial", "sediments", []string{"hemipelagic", "sand_frac"}},
		{"shoreline", "submarine_diffusion", []string{"alpha"}},
		{"water_flexure", "flexure", []string{"isostasytime", "eet"}},
		{"flexure", "sediments", []string{"sand_density", "mud_density"}},
	}
}

// Match reconciles every matchup in place, returning one error per
// conflicting pair. A conflicting pair propagates nothing; the remaining
// pairs are still processed.
func (p Params) Match() []error {
	var errs []error
	for _, m := range Matchups() {
		a, b := p.Sections[m.A], p.Sections[m.B]
		matched := map[string]interface{}{}
		var bad []string
		for _, k := range m.Keys {
			if v, ok := b[k]; ok {
				matched[k] = v
			}
			if v, ok := a[k]; ok {
				if _, have := matched[k]; !have {
					matched[k] = v
				}
				if !valueEq(matched[k], v) {
					bad = append(bad, k)
				}
			}
		}
		if len(bad) > 0 {
			errs = append(errs, &ParameterMismatchError{m.A, m.B, bad})
			continue
		}
		if len(matched) == 0 {
			continue
		}
		for _, name := range []string{m.A, m.B} {
			sec, ok := p.Sections[name]
			if !ok {
				sec = map[string]interface{}{}
				p.Sections[name] = sec
			}
			for k, v := range matched {
				sec[k] = v
			}
		}
	}
	return errs
}

// process names accepted in a processes list or as parameter sections
var processNames = []string{
	"sea_level", "subsidence", "compaction", "submarine_diffusion",
	"fluvial", "flexure", "water_flexure", "shoreline",
}

// KnownProcess reports whether name is a recognized process.
func KnownProcess(name string) bool {
	for _, n := range processNames {
		if n == name {
			return true
		}
	}
	return false
}

// AllProcesses returns the default process list, in execution order.
func AllProcesses() []string {
	return []string{"sea_level", "subsidence", "compaction",
		"submarine_diffusion", "fluvial", "flexure"}
}

// Validate runs the structural checks that do not need a built model:
// required sections, grid dimensions, output cadence and fields, and
// process names.
func (p Params) Validate() error {
	if !p.Has("grid") {
		return fmt.Errorf("config: missing [grid] section")
	}
	if !p.Has("clock") {
		return fmt.Errorf("config: missing [clock] section")
	}
	ncols, spacing, err := p.GridDims()
	if err != nil {
		return err
	}
	if ncols < 3 {
		return fmt.Errorf("config: grid needs at least 3 columns, got %d", ncols)
	}
	if spacing <= 0. {
		return fmt.Errorf("config: non-positive grid spacing %g", spacing)
	}
	if p.Has("output") {
		if interval, ok := p.Int("output", "interval"); ok && interval < 1 {
			return fmt.Errorf("config: output interval must be at least 1, got %d", interval)
		}
		if fields, ok := p.Strings("output", "fields"); ok {
			for _, f := range fields {
				if !grid.KnownField(f) {
					return fmt.Errorf("config: unknown output field %q", f)
				}
			}
		}
	}
	if names, ok := p.Processes(); ok {
		for _, n := range names {
			if !KnownProcess(n) {
				return fmt.Errorf("config: unknown process %q", n)
			}
		}
	}
	return nil
}

// SectionNames returns the section names in sorted order.
func (p Params) SectionNames() []string {
	names := make([]string, 0, len(p.Sections))
	for n := range p.Sections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
