// Package indicators holds the catalogue of indicators the service computes.
package indicators

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	"RiskPulse/internal/services/normalize"
)

// Registry resolves indicator names and aliases to definitions.
type Registry struct {
	defs  []normalize.Definition
	index map[string]int
}

// NewRegistry validates defs and indexes them by name and alias.
func NewRegistry(defs ...normalize.Definition) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(defs)*2)}
	var errs []error
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		pos := len(r.defs)
		for _, key := range append([]string{d.Name}, d.Aliases...) {
			key = normalizeKey(key)
			if _, dup := r.index[key]; dup {
				errs = append(errs, fmt.Errorf("indicator %q: name %q already registered", d.Name, key))
				continue
			}
			r.index[key] = pos
		}
		r.defs = append(r.defs, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup finds a definition by canonical name or alias, case-insensitively.
func (r *Registry) Lookup(name string) (normalize.Definition, error) {
	pos, ok := r.index[normalizeKey(name)]
	if !ok {
		return normalize.Definition{}, fmt.Errorf("%w: %q", models.ErrUnknownIndicator, name)
	}
	return r.defs[pos], nil
}

// List returns the definitions in registration order.
func (r *Registry) List() []normalize.Definition {
	out := make([]normalize.Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Slugs returns every name and alias, sorted.
func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.index))
	for k := range r.index {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Sources are the raw feeds the built-in indicators read from.
type Sources struct {
	// FRED returns the source for one FRED series id.
	FRED       func(seriesID string) repository.SeriesSource
	VIX        repository.SeriesSource
	VIX3M      repository.SeriesSource
	JNKPremium repository.SeriesSource
	JNKNav     repository.SeriesSource
	EPS        repository.SeriesSource
	SpxPutCall repository.SeriesSource
}

// Default builds the registry of built-in indicators on top of src.
func Default(src Sources) (*Registry, error) {
	return NewRegistry(Definitions(src)...)
}
