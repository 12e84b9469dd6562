package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Change is one parameter assignment produced by a later configuration
// state.
type Change struct {
	Time    float64
	Section string
	Param   string
	Value   interface{}
}

// TimeVaryingConfig is an ordered set of configuration states. The state at
// a time is the per-key merge of every document whose time has been
// reached; later documents override single values, never whole sections.
type TimeVaryingConfig struct {
	times []float64
	docs  []map[Key]interface{}
}

// New builds a time-varying configuration from parallel times and raw
// documents. Documents are flattened and kept sorted by time; the sort is
// stable so documents listed later win ties.
func New(times []float64, docs []map[string]interface{}) (*TimeVaryingConfig, error) {
	if len(times) != len(docs) {
		return nil, fmt.Errorf("config: %d times for %d documents", len(times), len(docs))
	}
	type td struct {
		t float64
		d map[Key]interface{}
	}
	pairs := make([]td, len(docs))
	for i, d := range docs {
		pairs[i] = td{times[i], flatten(d)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].t < pairs[j].t })

	c := &TimeVaryingConfig{
		times: make([]float64, len(pairs)),
		docs:  make([]map[Key]interface{}, len(pairs)),
	}
	for i, p := range pairs {
		c.times[i] = p.t
		c.docs[i] = p.d
	}
	return c, nil
}

// Times returns the distinct document times in order.
func (c *TimeVaryingConfig) Times() []float64 {
	out := make([]float64, 0, len(c.times))
	for i, t := range c.times {
		if i == 0 || t != c.times[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// at merges every document whose time is at or before t.
func (c *TimeVaryingConfig) at(t float64) map[Key]interface{} {
	merged := map[Key]interface{}{}
	for i, dt := range c.times {
		if dt > t {
			break
		}
		for k, v := range c.docs[i] {
			merged[k] = v
		}
	}
	return merged
}

// At returns the expanded configuration state at a time.
func (c *TimeVaryingConfig) At(t float64) Params { return expand(c.at(t)) }

// Initial returns the configuration's first state.
func (c *TimeVaryingConfig) Initial() Params {
	if len(c.times) == 0 {
		return NewParams()
	}
	return expand(c.at(c.times[0]))
}

// Changes lists every value that a later state sets or overrides, ordered
// by time then section and parameter name.
func (c *TimeVaryingConfig) Changes() []Change {
	times := c.Times()
	var out []Change
	for i := 1; i < len(times); i++ {
		prev, next := c.at(times[i-1]), c.at(times[i])
		for k, v := range next {
			if old, ok := prev[k]; ok && valueEq(old, v) {
				continue
			}
			out = append(out, Change{Time: times[i], Section: k.Section, Param: k.Param, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		return a.Param < b.Param
	})
	return out
}

// FromFile loads one configuration file; documents without a _time key take
// their position in the file as their time.
func FromFile(name string) (*TimeVaryingConfig, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}
	defer f.Close()

	docs, times, err := loadByExt(name, f)
	if err != nil {
		return nil, err
	}
	resolved := make([]float64, len(docs))
	for i := range docs {
		if times[i] != nil {
			resolved[i] = *times[i]
		} else {
			resolved[i] = float64(i)
		}
	}
	return New(resolved, docs)
}

// FromFiles loads a set of configuration files with a time stamp per file.
// A document's own _time key wins over its file's stamp.
func FromFiles(names []string, times []float64) (*TimeVaryingConfig, error) {
	if len(times) != len(names) {
		return nil, fmt.Errorf("config: %d times for %d files", len(times), len(names))
	}
	var allDocs []map[string]interface{}
	var allTimes []float64
	for i, name := range names {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("config: %v", err)
		}
		docs, docTimes, err := loadByExt(name, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		for j, d := range docs {
			t := times[i]
			if docTimes[j] != nil {
				t = *docTimes[j]
			}
			allDocs = append(allDocs, d)
			allTimes = append(allTimes, t)
		}
	}
	return New(allTimes, allDocs)
}

func loadByExt(name string, f *os.File) ([]map[string]interface{}, []*float64, error) {
	switch filepath.Ext(name) {
	case ".toml":
		return loadTOML(f)
	case ".yaml", ".yml":
		return loadYAML(f)
	}
	return nil, nil, fmt.Errorf("config: unrecognized format %q", filepath.Ext(name))
}
