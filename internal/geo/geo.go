// Package geo maps city names to coordinates for the regional map.
package geo

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var builtinCities []byte

// City is one entry of a coordinates file.
type City struct {
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
}

type citiesFile struct {
	Cities []City `yaml:"cities"`
}

// Coordinate is a point in decimal degrees. Unknown cities get the zero
// coordinate with Known false.
type Coordinate struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Known bool    `json:"known"`
}

// RegionPoint is a regional summary placed on the map.
type RegionPoint struct {
	model.RegionSummary
	Coordinate
}

// Table looks cities up ignoring case, accents and punctuation.
type Table struct {
	byKey map[string]City
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		cities, err := parseCities(builtinCities)
		if err != nil {
			panic(fmt.Sprintf("geo: invalid built-in cities: %v", err))
		}
		defaultTable = NewTable(cities)
	})
	return defaultTable
}

// NewTable builds a table. Later entries replace earlier ones with the same name.
func NewTable(cities []City) *Table {
	t := &Table{byKey: make(map[string]City, len(cities))}
	for _, c := range cities {
		t.byKey[common.FoldKey(c.Name)] = c
	}
	return t
}

// Load returns the built-in table merged with the overrides file at path.
// An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	extra, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return Default().Merge(extra), nil
}

// LoadOverrides reads a YAML coordinates file.
func LoadOverrides(path string) ([]City, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read cities file: %w", err)
	}
	cities, err := parseCities(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cities file %s: %w", path, err)
	}
	return cities, nil
}

func parseCities(data []byte) ([]City, error) {
	var f citiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for i, c := range f.Cities {
		if common.FoldKey(c.Name) == "" {
			return nil, fmt.Errorf("%w: city %d has no name", common.ErrInvalidConfig, i+1)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return nil, fmt.Errorf("%w: %s has coordinates out of range", common.ErrInvalidConfig, c.Name)
		}
	}
	return f.Cities, nil
}

// Merge returns a new table with extra layered over t.
func (t *Table) Merge(extra []City) *Table {
	merged := &Table{byKey: make(map[string]City, len(t.byKey)+len(extra))}
	for k, c := range t.byKey {
		merged.byKey[k] = c
	}
	for _, c := range extra {
		merged.byKey[common.FoldKey(c.Name)] = c
	}
	return merged
}

// Len returns the number of cities known.
func (t *Table) Len() int {
	return len(t.byKey)
}

// Lookup returns the coordinate of city.
func (t *Table) Lookup(city string) Coordinate {
	c, ok := t.byKey[common.FoldKey(city)]
	if !ok {
		return Coordinate{}
	}
	return Coordinate{Lat: c.Lat, Lon: c.Lon, Known: true}
}

// Locate attaches coordinates to regional summaries, keeping their order.
func (t *Table) Locate(regions []model.RegionSummary) []RegionPoint {
	out := make([]RegionPoint, 0, len(regions))
	for _, r := range regions {
		out = append(out, RegionPoint{RegionSummary: r, Coordinate: t.Lookup(r.City)})
	}
	return out
}
