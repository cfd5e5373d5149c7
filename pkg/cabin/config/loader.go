package config

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
)

// Loader loads the catalog and normalization tables
type Loader struct {
	SettingsPath         string
	AlternativeNamesPath string
	AmountPercentagePath string
	AmountTypePath       string
	AmountUnitPath       string
	IndexPath            string
}

// Components holds everything a filter needs, loaded before the first request
type Components struct {
	Catalog *catalog.Catalog
	Amounts *normalize.Normalizer
	Types   *normalize.Normalizer
	Units   *normalize.Normalizer
	Indexes *normalize.Normalizer
}

// Load reads all files concurrently and returns initialized components. A
// table with no path is empty; the settings path is required.
func (l *Loader) Load() (*Components, error) {
	if l.SettingsPath == "" {
		return nil, fmt.Errorf("load catalog: no settings path")
	}

	comp := &Components{}
	var g errgroup.Group

	g.Go(func() error {
		cat, err := catalog.Load(l.SettingsPath, l.AlternativeNamesPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		comp.Catalog = cat
		return nil
	})

	tables := []struct {
		name string
		path string
		dst  **normalize.Normalizer
	}{
		{"amount percentage", l.AmountPercentagePath, &comp.Amounts},
		{"amount type", l.AmountTypePath, &comp.Types},
		{"amount unit", l.AmountUnitPath, &comp.Units},
		{"index", l.IndexPath, &comp.Indexes},
	}
	for _, t := range tables {
		g.Go(func() error {
			n, err := LoadTable(t.path)
			if err != nil {
				return fmt.Errorf("load %s table: %w", t.name, err)
			}
			*t.dst = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comp, nil
}

// LoadTable loads a normalization table. An empty path gives an empty table.
// Format: canonical<TAB>alias[<TAB>alias...]
func LoadTable(path string) (*normalize.Normalizer, error) {
	if path == "" {
		return normalize.New(nil), nil
	}
	return normalize.Load(path)
}
