// Package config loads Raceway application settings from a YAML file.
// Every field has a sensible default; a missing config file is not an
// error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/raceway/pkg/model"
	"github.com/chazu/raceway/pkg/route"
)

// DefaultPath is where the app looks for settings when no path is given.
const DefaultPath = "raceway.yaml"

// Config holds application settings.
type Config struct {
	// Tolerance is the coincidence/offset tolerance in mm.
	Tolerance float64 `yaml:"tolerance"`
	// Angular is the parallelism tolerance (sin of angle between runs).
	Angular float64 `yaml:"angular_tolerance"`
	// DefaultDiameter is the outside diameter assigned to runs that do
	// not specify one, in mm.
	DefaultDiameter float64 `yaml:"default_diameter"`
	// Kernel selects the geometry backend: "sdfx" (default) or
	// "manifold" (requires a build with -tags=manifold).
	Kernel string `yaml:"kernel"`
	// Debug enables verbose logging.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Tolerance:       route.DefaultDistanceTolerance,
		Angular:         route.DefaultAngularTolerance,
		DefaultDiameter: 20.0,
		Kernel:          "sdfx",
	}
}

// Load reads settings from path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	if c.Angular <= 0 {
		return fmt.Errorf("angular_tolerance must be positive, got %g", c.Angular)
	}
	if c.DefaultDiameter <= 0 {
		return fmt.Errorf("default_diameter must be positive, got %g", c.DefaultDiameter)
	}
	switch c.Kernel {
	case "sdfx", "manifold":
	default:
		return fmt.Errorf("unknown kernel %q, expected sdfx or manifold", c.Kernel)
	}
	return nil
}

// RouteTolerance returns the tolerances as the routing core expects them.
func (c Config) RouteTolerance() route.Tolerance {
	return route.Tolerance{Distance: c.Tolerance, Angular: c.Angular}
}

// DocumentDefaults returns the settings each evaluation's document is
// seeded from. A (defaults ...) form in the script overrides them.
func (c Config) DocumentDefaults() model.Defaults {
	rt := c.RouteTolerance()
	return model.Defaults{
		Tolerance: rt.Distance,
		Angular:   rt.Angular,
		Diameter:  c.DefaultDiameter,
	}
}
