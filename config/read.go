package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sequence-dev/sequence/grid"
)

// loadTOML reads documents from a [sequence] table or a [[sequence]] array
// of tables. Each document's optional _time key is popped and returned
// alongside it.
func loadTOML(r io.Reader) ([]map[string]interface{}, []*float64, error) {
	var top map[string]interface{}
	if _, err := toml.NewDecoder(r).Decode(&top); err != nil {
		return nil, nil, fmt.Errorf("config: %v", err)
	}
	seq, ok := top["sequence"]
	if !ok {
		return nil, nil, fmt.Errorf("config: missing [sequence] table")
	}

	var docs []map[string]interface{}
	switch x := seq.(type) {
	case map[string]interface{}:
		docs = []map[string]interface{}{x}
	case []map[string]interface{}:
		docs = x
	case []interface{}:
		for i, e := range x {
			m, ok := e.(map[string]interface{})
			if !ok {
				return nil, nil, fmt.Errorf("config: [[sequence]] entry %d is not a table", i)
			}
			docs = append(docs, m)
		}
	default:
		return nil, nil, fmt.Errorf("config: [sequence] is a %T, want a table", seq)
	}
	return docs, popTimes(docs), nil
}

// loadYAML reads a multi-document stream; a document may also be a list of
// documents.
func loadYAML(r io.Reader) ([]map[string]interface{}, []*float64, error) {
	dec := yaml.NewDecoder(r)
	var docs []map[string]interface{}
	for {
		var doc interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("config: %v", err)
		}
		switch x := doc.(type) {
		case nil:
		case map[string]interface{}:
			docs = append(docs, x)
		case []interface{}:
			for i, e := range x {
				m, ok := e.(map[string]interface{})
				if !ok {
					return nil, nil, fmt.Errorf("config: document list entry %d is not a mapping", i)
				}
				docs = append(docs, m)
			}
		default:
			return nil, nil, fmt.Errorf("config: document is a %T, want a mapping", doc)
		}
	}
	return docs, popTimes(docs), nil
}

func popTimes(docs []map[string]interface{}) []*float64 {
	times := make([]*float64, len(docs))
	for i, d := range docs {
		if v, ok := d["_time"]; ok {
			delete(d, "_time")
			if t, ok := grid.Float(v); ok {
				times[i] = &t
			}
		}
	}
	return times
}

var digits = regexp.MustCompile("[0-9]+")

// timeFromFilename parses a time stamp from a file name, the first run of
// digits it holds.
func timeFromFilename(name string) (float64, bool) {
	m := digits.FindString(filepath.Base(name))
	if m == "" {
		return 0., false
	}
	t, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0., false
	}
	return t, true
}

// Find locates the configuration files of a run directory: sequence*.toml,
// or sequence*.yaml only when no TOML files exist. Each file's time stamp
// is the first run of digits in its name, falling back to its position in
// name order. Results come back sorted by time.
func Find(dir string) ([]float64, []string, error) {
	names, err := filepath.Glob(filepath.Join(dir, "sequence*.toml"))
	if err != nil {
		return nil, nil, fmt.Errorf("config: %v", err)
	}
	if len(names) == 0 {
		if names, err = filepath.Glob(filepath.Join(dir, "sequence*.yaml")); err != nil {
			return nil, nil, fmt.Errorf("config: %v", err)
		}
	}
	sort.Strings(names)

	times := make([]float64, len(names))
	for i, name := range names {
		if t, ok := timeFromFilename(name); ok {
			times[i] = t
		} else {
			times[i] = float64(i)
		}
	}
	type tn struct {
		t float64
		n string
	}
	pairs := make([]tn, len(names))
	for i := range names {
		pairs[i] = tn{times[i], names[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].t < pairs[j].t })
	for i, p := range pairs {
		times[i], names[i] = p.t, p.n
	}
	return times, names, nil
}
