package tier

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Feature is an opaque, namespaced capability identifier (e.g. "ccp-06:branded-reports").
type Feature string

// Catalog maps every known feature to the minimum tier required to use it.
// A Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	features map[Feature]Tier
}

// NewCatalog validates the mapping and returns an immutable copy of it.
func NewCatalog(features map[Feature]Tier) (*Catalog, error) {
	for f, t := range features {
		if f == "" {
			return nil, errors.Join(ErrInvalidCatalog, errors.New("feature id cannot be empty"))
		}
		if !t.Valid() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("feature %q has %w", f, ErrInvalidTier))
		}
	}
	return &Catalog{features: maps.Clone(features)}, nil
}

// MustCatalog is like NewCatalog but panics on invalid input.
func MustCatalog(features map[Feature]Tier) *Catalog {
	c, err := NewCatalog(features)
	if err != nil {
		panic(err)
	}
	return c
}

// MinimumTierFor returns the lowest tier that unlocks the feature.
func (c *Catalog) MinimumTierFor(f Feature) (Tier, error) {
	t, ok := c.features[f]
	if !ok {
		return Free, fmt.Errorf("%w: %q", ErrFeatureUnavailable, f)
	}
	return t, nil
}

// IsValidFeature reports whether the feature is registered.
func (c *Catalog) IsValidFeature(f Feature) bool {
	_, ok := c.features[f]
	return ok
}

// Features returns the registered feature ids in lexical order.
func (c *Catalog) Features() []Feature {
	return slices.Sorted(maps.Keys(c.features))
}

// FeaturesFor returns every feature the given tier unlocks, in lexical order.
func (c *Catalog) FeaturesFor(t Tier) []Feature {
	out := make([]Feature, 0, len(c.features))
	for f, required := range c.features {
		if IsSufficient(t, required) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

func (c *Catalog) Len() int {
	return len(c.features)
}
