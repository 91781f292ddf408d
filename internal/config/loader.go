package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/racerank/internal/domain/model"
)

const (
	envPrefix  = "RACERANK_"
	envFileVar = "RACERANK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RACERANK_CONFIG is set
//  3. env (prefix RACERANK_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(envFileVar))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file
// layer.
func LoadFile(_ context.Context, path string) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RACERANK_K_FACTOR -> k_factor; keys stay flat to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MinEventDate returns MinDate in normalised form, or "" when unset.
func (c *Config) MinEventDate() (model.EventDate, error) {
	if c.MinDate == "" {
		return "", nil
	}
	d, err := model.ParseDate(c.MinDate)
	if err != nil {
		return "", fmt.Errorf("%w: min_date: %w", ErrInvalidConfig, err)
	}
	return d, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("finite", validateFinite)
	_ = v.RegisterValidation("eventdate", validateEventDate)
	return v
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return false
	}
	x := f.Float()
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func validateEventDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}
