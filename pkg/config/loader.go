package config

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type options struct {
	files       []string
	optional    bool
	prefix      string
	environment map[string]string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles reads the given dotenv files. Process variables take
// precedence over file values. Missing files are an error.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// WithOptionalEnvFiles is like WithEnvFiles but skips files that don't exist.
func WithOptionalEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
		o.optional = true
	}
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment replaces the process environment as the variable source.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environment = vars
	}
}

// Load parses T from the environment using `env` and `envDefault` struct tags.
//
//	type Config struct {
//		App         logger.Config
//		Entitlement entitlement.Config
//	}
//
//	cfg, err := config.Load[Config](config.WithOptionalEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var zero T

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	vars := o.environment
	if vars == nil {
		vars = env.ToMap(os.Environ())
	}

	if len(o.files) > 0 {
		fromFiles, err := readFiles(o.files, o.optional)
		if err != nil {
			return zero, err
		}
		maps.Copy(fromFiles, vars)
		vars = fromFiles
	}

	cfg, err := env.ParseAsWithOptions[T](env.Options{
		Environment: vars,
		Prefix:      o.prefix,
	})
	if err != nil {
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error. Meant for process startup.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}

func readFiles(paths []string, optional bool) (map[string]string, error) {
	vars := make(map[string]string)
	for _, p := range paths {
		if optional {
			if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
				continue
			}
		}
		m, err := godotenv.Read(p)
		if err != nil {
			return nil, errors.Join(ErrReadingEnvFile, fmt.Errorf("%s: %w", p, err))
		}
		maps.Copy(vars, m)
	}
	return vars, nil
}
