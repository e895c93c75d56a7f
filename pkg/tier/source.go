package tier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Source loads the feature-to-tier mapping a Catalog is built from.
type Source interface {
	Load(ctx context.Context) (map[Feature]Tier, error)
}

// LoadCatalog builds a Catalog from the given source.
func LoadCatalog(ctx context.Context, src Source) (*Catalog, error) {
	features, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	return NewCatalog(features)
}

type inMemSource struct {
	features map[Feature]Tier
}

// NewInMemSource returns a Source serving a copy of the given mapping.
func NewInMemSource(features map[Feature]Tier) Source {
	return &inMemSource{features: maps.Clone(features)}
}

func (s *inMemSource) Load(context.Context) (map[Feature]Tier, error) {
	return maps.Clone(s.features), nil
}

// catalogFile is the on-disk YAML layout:
//
//	features:
//	  ccp-06:branded-reports: pro
//	  ccp-11:sso: enterprise
type catalogFile struct {
	Features map[Feature]Tier `yaml:"features"`
}

type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source reading the catalog from a YAML file.
// The file is read on every Load call.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[Feature]Tier, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

// DecodeYAML parses the catalog YAML layout from r.
func DecodeYAML(r io.Reader) (map[Feature]Tier, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	if len(file.Features) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("catalog declares no features"))
	}
	return file.Features, nil
}
