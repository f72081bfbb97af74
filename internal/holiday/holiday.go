package holiday

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"fridgecal/internal/caldate"
	appLog "fridgecal/internal/log"
)

// Holiday is a named public holiday. Lunar is the lunar calendar label
// (e.g. "1.1" for Seollal) when one is shown.
type Holiday struct {
	Name  string `yaml:"name" json:"name"`
	Lunar string `yaml:"lunar,omitempty" json:"lunar,omitempty"`
}

// Lookuper resolves a date to its holiday, if any.
type Lookuper interface {
	Lookup(d caldate.Date) (Holiday, bool)
}

// Table is a read-only date -> Holiday map keyed by YYYY-MM-DD.
type Table struct {
	byDate map[string]Holiday
}

//go:embed holidays.yaml
var embedded []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table, parsed once per process.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(embedded)
		if err != nil {
			// The embedded file is part of the binary; a parse error is a
			// build problem, but the calendar still works without holidays.
			appLog.Error("embedded holiday table is invalid", err)
			t = &Table{byDate: map[string]Holiday{}}
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse builds a Table from YAML. Keys that are not valid dates are rejected.
func Parse(data []byte) (*Table, error) {
	raw := make(map[string]Holiday)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("holiday: parse: %w", err)
	}
	t := &Table{byDate: make(map[string]Holiday, len(raw))}
	for k, h := range raw {
		d, err := caldate.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("holiday: key %q: %w", k, err)
		}
		if h.Name == "" {
			return nil, fmt.Errorf("holiday: %s has no name", k)
		}
		t.byDate[d.String()] = h
	}
	return t, nil
}

// Load returns the table from path, or the embedded default when path is
// empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	appLog.Info("holiday table loaded", "path", path, "count", t.Len())
	return t, nil
}

func (t *Table) Lookup(d caldate.Date) (Holiday, bool) {
	if t == nil {
		return Holiday{}, false
	}
	h, ok := t.byDate[d.String()]
	return h, ok
}

// Get looks a holiday up by year, month and day.
func (t *Table) Get(year, month, day int) (Holiday, bool) {
	return t.Lookup(caldate.Date{Year: year, Month: month, Day: day})
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byDate)
}
